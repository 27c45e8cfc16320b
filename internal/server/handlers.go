package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coopco/autopost/internal/bus"
	"github.com/coopco/autopost/internal/history"
	"github.com/coopco/autopost/internal/profile"
	"github.com/coopco/autopost/internal/scheduler"
	"github.com/coopco/autopost/internal/store"
)

type profileRequest struct {
	Profile string `json:"profile" validate:"required"`
}

type duplicateRequest struct {
	ProfileName string `json:"profile_name" validate:"required"`
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

type uploadResponse struct {
	Message  string `json:"message"`
	FilePath string `json:"filepath"`
}

type duplicateResponse struct {
	Message        string `json:"message"`
	NewProfileName string `json:"new_profile_name"`
}

type historyResponse struct {
	Profile string          `json:"profile"`
	Entries []history.Entry `json:"entries"`
}

func (s *Server) listProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"profiles": s.store.List()})
}

// getProfile reports a default configuration for names that were never saved.
func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	cfg, err := s.store.Get(name)
	if errors.Is(err, store.ErrProfileNotFound) {
		cfg = store.DefaultProfile(name)
	} else if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) saveProfile(w http.ResponseWriter, r *http.Request) {
	var cfg profile.Configuration
	if !decodeJSON(w, r, &cfg) {
		return
	}
	if err := s.store.Save(&cfg); err != nil {
		var fe *profile.FieldError
		if errors.As(err, &fe) || errors.Is(err, profile.ErrEmptyMessageList) {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to save profile", "profile", cfg.Name, "error", err)
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeMessage(w, http.StatusOK, fmt.Sprintf("Profile '%s' saved.", strings.TrimSpace(cfg.Name)))
}

// uploadAttachment stores the "file" form field under uploadDir/<uuid>/ and
// returns the path relative to uploadDir.
func (s *Server) uploadAttachment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "no file part")
		return
	}
	defer file.Close()

	base := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(header.Filename, "\\", "/")))
	if base == "" || base == "/" || base == "." {
		writeMessage(w, http.StatusBadRequest, "no selected file")
		return
	}

	rel := path.Join(uuid.NewString(), base)
	dst := filepath.Join(s.uploadDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		writeMessage(w, http.StatusInternalServerError, "upload failed: "+err.Error())
		return
	}
	out, err := os.Create(dst)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "upload failed: "+err.Error())
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(dst)
		writeMessage(w, http.StatusInternalServerError, "upload failed: "+err.Error())
		return
	}
	if err := out.Close(); err != nil {
		writeMessage(w, http.StatusInternalServerError, "upload failed: "+err.Error())
		return
	}
	slog.Info("attachment uploaded", "path", rel, "size", header.Size)
	writeJSON(w, http.StatusOK, uploadResponse{Message: "File uploaded", FilePath: rel})
}

func (s *Server) duplicateProfile(w http.ResponseWriter, r *http.Request) {
	var req duplicateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.ProfileName)
	newName, err := s.store.Duplicate(name)
	if errors.Is(err, store.ErrProfileNotFound) {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("Profile '%s' not found.", name))
		return
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, duplicateResponse{
		Message:        fmt.Sprintf("Profile '%s' duplicated as '%s'.", name, newName),
		NewProfileName: newName,
	})
}

func (s *Server) deleteProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Profile)
	switch err := s.store.Delete(name); {
	case errors.Is(err, store.ErrLastDefaultProfile):
		writeMessage(w, http.StatusBadRequest, "Cannot delete the only profile.")
		return
	case errors.Is(err, store.ErrProfileNotFound):
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("Profile '%s' not found.", name))
		return
	case err != nil:
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.sched.Forget(name)
	if s.history != nil {
		if err := s.history.Forget(name); err != nil {
			slog.Warn("failed to drop delivery history", "profile", name, "error", err)
		}
	}
	writeMessage(w, http.StatusOK, fmt.Sprintf("Profile '%s' deleted.", name))
}

// sendOnce delivers one randomly chosen message from the request without
// touching the stored profile.
func (s *Server) sendOnce(w http.ResponseWriter, r *http.Request) {
	var req sendOnceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" || req.Channel == "" || len(req.Messages) == 0 {
		writeJSON(w, http.StatusOK, sendOnceResponse{Message: "Incomplete configuration for a test send."})
		return
	}
	if req.Profile == "" {
		req.Profile = profile.DefaultProfileName
	}

	err := s.deliverer.Deliver(r.Context(), bus.Delivery{
		Channel:    s.channel,
		Profile:    req.Profile,
		Target:     req.Channel,
		Credential: req.Token,
		Message:    req.Messages[rand.IntN(len(req.Messages))],
		Metadata:   map[string]string{"source": "send_once"},
	})
	if err != nil {
		writeJSON(w, http.StatusOK, sendOnceResponse{Message: "Test send failed: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sendOnceResponse{Success: true, Message: "Test message sent."})
}

func (s *Server) startProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cfg, err := s.store.Get(req.Profile)
	if errors.Is(err, store.ErrProfileNotFound) {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("Profile '%s' not found.", req.Profile))
		return
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	switch err := s.sched.StartProfile(cfg); {
	case errors.Is(err, scheduler.ErrAlreadyRunning):
		writeMessage(w, http.StatusConflict, "Bot is already running.")
	case errors.Is(err, scheduler.ErrIncompleteProfile), errors.Is(err, scheduler.ErrInvalidSchedule):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeMessage(w, http.StatusInternalServerError, err.Error())
	default:
		writeMessage(w, http.StatusOK, fmt.Sprintf("Bot started for profile '%s'.", req.Profile))
	}
}

func (s *Server) stopProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.sched.StopProfile(req.Profile); err != nil {
		if errors.Is(err, scheduler.ErrNotRunning) {
			writeMessage(w, http.StatusConflict, "Bot is not running.")
			return
		}
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeMessage(w, http.StatusOK, "Bot stopped.")
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sched.Status())
}

// deliveryHistory returns the newest delivery attempts of a profile, oldest first.
// ?limit=N bounds the count (0 for all); the default is 50.
func (s *Server) deliveryHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeMessage(w, http.StatusNotFound, "Delivery history is disabled.")
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeMessage(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	name := chi.URLParam(r, "name")
	writeJSON(w, http.StatusOK, historyResponse{
		Profile: name,
		Entries: s.history.Get(name).Last(limit),
	})
}
