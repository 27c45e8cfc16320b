package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/coopco/autopost/internal/history"
	"github.com/coopco/autopost/internal/profile"
	"github.com/coopco/autopost/internal/scheduler"
)

// Client talks to the autopost HTTP API.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

type apiMessage struct {
	Message string `json:"message"`
}

type profilesResponse struct {
	Profiles []string `json:"profiles"`
}

type uploadResponse struct {
	Message  string `json:"message"`
	FilePath string `json:"filepath"`
}

type duplicateResponse struct {
	Message        string `json:"message"`
	NewProfileName string `json:"new_profile_name"`
}

type sendOnceRequest struct {
	Profile  string              `json:"profile"`
	Token    string              `json:"token"`
	Channel  string              `json:"channelid"`
	Messages profile.MessageList `json:"messages"`
}

type sendOnceResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type historyResponse struct {
	Profile string          `json:"profile"`
	Entries []history.Entry `json:"entries"`
}

func (c *Client) ListProfiles(ctx context.Context) ([]string, error) {
	var out profilesResponse
	if err := c.do(c.request(ctx).SetResult(&out), http.MethodGet, "/api/profiles"); err != nil {
		return nil, err
	}
	return out.Profiles, nil
}

// GetProfile fetches name. The server reports defaults for unsaved names.
func (c *Client) GetProfile(ctx context.Context, name string) (*profile.Configuration, error) {
	var out profile.Configuration
	req := c.request(ctx).SetPathParam("name", name).SetResult(&out)
	if err := c.do(req, http.MethodGet, "/api/profile/{name}"); err != nil {
		return nil, err
	}
	out.Name = name
	return &out, nil
}

func (c *Client) SaveProfile(ctx context.Context, cfg *profile.Configuration) error {
	return c.do(c.request(ctx).SetBody(cfg), http.MethodPost, "/api/save_profile")
}

// UploadAttachment uploads r as filename and returns the server-relative path.
func (c *Client) UploadAttachment(ctx context.Context, filename string, r io.Reader) (string, error) {
	var out uploadResponse
	req := c.request(ctx).SetFileReader("file", filename, r).SetResult(&out)
	if err := c.do(req, http.MethodPost, "/api/upload_attachment"); err != nil {
		return "", err
	}
	if out.FilePath == "" {
		return "", &TransportError{StatusCode: http.StatusOK, Message: "upload response has no filepath"}
	}
	return out.FilePath, nil
}

// DuplicateProfile copies name and returns the new profile's name.
func (c *Client) DuplicateProfile(ctx context.Context, name string) (string, error) {
	var out duplicateResponse
	req := c.request(ctx).SetBody(map[string]string{"profile_name": name}).SetResult(&out)
	if err := c.do(req, http.MethodPost, "/api/duplicate_profile"); err != nil {
		return "", err
	}
	return out.NewProfileName, nil
}

func (c *Client) DeleteProfile(ctx context.Context, name string) error {
	return c.do(c.request(ctx).SetBody(map[string]string{"profile": name}), http.MethodPost, "/api/delete_profile")
}

// SendOnce asks the server to deliver one of cfg's messages now. The schedule
// is not sent.
func (c *Client) SendOnce(ctx context.Context, cfg *profile.Configuration) error {
	var out sendOnceResponse
	req := c.request(ctx).SetBody(sendOnceRequest{
		Profile:  cfg.Name,
		Token:    cfg.Credential,
		Channel:  cfg.Channel,
		Messages: cfg.Messages,
	}).SetResult(&out)
	if err := c.do(req, http.MethodPost, "/api/send_once"); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("%w: %s", ErrDeliveryFailed, out.Message)
	}
	return nil
}

func (c *Client) StartProfile(ctx context.Context, name string) error {
	return c.do(c.request(ctx).SetBody(map[string]string{"profile": name}), http.MethodPost, "/api/start")
}

func (c *Client) StopProfile(ctx context.Context, name string) error {
	return c.do(c.request(ctx).SetBody(map[string]string{"profile": name}), http.MethodPost, "/api/stop")
}

func (c *Client) Status(ctx context.Context) (map[string]scheduler.Status, error) {
	out := make(map[string]scheduler.Status)
	if err := c.do(c.request(ctx).SetResult(&out), http.MethodGet, "/api/status"); err != nil {
		return nil, err
	}
	return out, nil
}

// History returns up to limit of the newest delivery attempts of name.
func (c *Client) History(ctx context.Context, name string, limit int) ([]history.Entry, error) {
	var out historyResponse
	req := c.request(ctx).
		SetPathParam("name", name).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&out)
	if err := c.do(req, http.MethodGet, "/api/history/{name}"); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx).SetError(&apiMessage{})
}

// do executes req and maps failures to ErrSessionExpired or *TransportError.
func (c *Client) do(req *resty.Request, method, url string) error {
	resp, err := req.Execute(method, url)
	if err != nil {
		return &TransportError{Err: err}
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return ErrSessionExpired
	}
	if resp.IsError() {
		te := &TransportError{StatusCode: resp.StatusCode()}
		if msg, ok := resp.Error().(*apiMessage); ok {
			te.Message = msg.Message
		}
		return te
	}
	return nil
}
