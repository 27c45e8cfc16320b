package channels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"github.com/coopco/autopost/internal/bus"
	"github.com/coopco/autopost/internal/profile"
)

func init() {
	Register("discord", newDiscordChannel)
}

// nowLayout is the format substituted for "{now}" in text messages.
const nowLayout = "2006-01-02 15:04:05"

var errEmptyContent = errors.New("discord: message content is empty")

type discordConfig struct {
	// RatePerSecond and Burst bound sends per target channel.
	RatePerSecond float64 `json:"ratePerSecond"`
	Burst         int     `json:"burst"`
	// UploadDir is where server-relative attachment paths are resolved.
	UploadDir string `json:"uploadDir"`
}

type DiscordChannel struct {
	uploadDir string
	limit     rate.Limit
	burst     int
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*discordgo.Session // credential -> REST session
	limiters map[string]*rate.Limiter      // target channel -> limiter
}

func newDiscordChannel(cfg json.RawMessage) (Channel, error) {
	dcfg := discordConfig{RatePerSecond: 1, Burst: 5}
	if len(cfg) > 0 {
		if err := json.Unmarshal(cfg, &dcfg); err != nil {
			return nil, fmt.Errorf("failed to parse discord config: %w", err)
		}
	}
	if dcfg.RatePerSecond <= 0 {
		dcfg.RatePerSecond = 1
	}
	if dcfg.Burst <= 0 {
		dcfg.Burst = 5
	}
	return &DiscordChannel{
		uploadDir: dcfg.UploadDir,
		limit:     rate.Limit(dcfg.RatePerSecond),
		burst:     dcfg.Burst,
		now:       time.Now,
		sessions:  make(map[string]*discordgo.Session),
		limiters:  make(map[string]*rate.Limiter),
	}, nil
}

func (c *DiscordChannel) Name() string { return "discord" }

func (c *DiscordChannel) Send(ctx context.Context, d bus.Delivery) error {
	if d.Target == "" || d.Credential == "" {
		return fmt.Errorf("discord: target channel and token are required")
	}
	if err := c.limiter(d.Target).Wait(ctx); err != nil {
		return fmt.Errorf("discord: rate limit wait: %w", err)
	}

	send, closeFiles, err := c.buildMessage(d.Message)
	if err != nil {
		return err
	}
	defer closeFiles()

	session, err := c.session(d.Credential)
	if err != nil {
		return err
	}
	if _, err := session.ChannelMessageSendComplex(d.Target, send, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: failed to send message: %w", err)
	}
	return nil
}

// buildMessage renders a profile message as a Discord message. The returned
// func closes any opened attachment files.
func (c *DiscordChannel) buildMessage(msg profile.Message) (*discordgo.MessageSend, func(), error) {
	noop := func() {}
	switch m := msg.(type) {
	case profile.Text:
		content := strings.ReplaceAll(m.Content, "{now}", c.now().Format(nowLayout))
		if strings.TrimSpace(content) == "" {
			return nil, noop, errEmptyContent
		}
		return &discordgo.MessageSend{Content: content}, noop, nil

	case profile.Embed:
		if strings.TrimSpace(m.Title) == "" && strings.TrimSpace(m.Description) == "" {
			return nil, noop, errEmptyContent
		}
		return &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{{
			Title:       m.Title,
			Description: m.Description,
			Color:       int(m.Color),
		}}}, noop, nil

	case profile.Attachment:
		if m.Path == "" {
			return nil, noop, fmt.Errorf("discord: attachment path is empty")
		}
		if m.Source == profile.SourceURL {
			return &discordgo.MessageSend{Content: m.Path}, noop, nil
		}
		f, err := c.openAttachment(m.Path)
		if err != nil {
			return nil, noop, err
		}
		return &discordgo.MessageSend{Files: []*discordgo.File{{
			Name:   profile.DeriveDisplayName(m.Path),
			Reader: f,
		}}}, func() { f.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("discord: unsupported message type %T", msg)
	}
}

// openAttachment resolves a server-relative path inside uploadDir.
func (c *DiscordChannel) openAttachment(rel string) (io.ReadCloser, error) {
	if c.uploadDir == "" {
		return nil, fmt.Errorf("discord: no upload directory configured for local attachments")
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("discord: attachment path %q escapes the upload directory", rel)
	}
	f, err := os.Open(filepath.Join(c.uploadDir, clean))
	if err != nil {
		return nil, fmt.Errorf("discord: failed to open attachment: %w", err)
	}
	return f, nil
}

func (c *DiscordChannel) session(credential string) (*discordgo.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[credential]; ok {
		return s, nil
	}
	token := credential
	if !strings.HasPrefix(token, "Bot ") {
		token = "Bot " + token
	}
	s, err := discordgo.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	c.sessions[credential] = s
	return s, nil
}

func (c *DiscordChannel) limiter(target string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[target]
	if !ok {
		l = rate.NewLimiter(c.limit, c.burst)
		c.limiters[target] = l
	}
	return l
}
