package editor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/coopco/autopost/internal/profile"
)

// Backend is the remote side of the editor.
type Backend interface {
	ListProfiles(ctx context.Context) ([]string, error)
	GetProfile(ctx context.Context, name string) (*profile.Configuration, error)
	SaveProfile(ctx context.Context, cfg *profile.Configuration) error
	UploadAttachment(ctx context.Context, filename string, r io.Reader) (string, error)
	DuplicateProfile(ctx context.Context, name string) (string, error)
	DeleteProfile(ctx context.Context, name string) error
	SendOnce(ctx context.Context, cfg *profile.Configuration) error
}

// Action names a user action that may be in flight.
type Action string

const (
	ActionSave      Action = "save"
	ActionSend      Action = "send"
	ActionDuplicate Action = "duplicate"
	ActionDelete    Action = "delete"
)

// Session owns the editing snapshot of one profile at a time.
//
// Each Load, Reset or Delete starts a new generation. Backend results that
// arrive for an older generation are discarded. An action cannot be started
// again while it is in flight, but different actions may overlap.
type Session struct {
	backend Backend

	mu         sync.Mutex
	snapshot   profile.Snapshot
	generation string
	inflight   map[Action]bool
}

func New(backend Backend) *Session {
	return &Session{
		backend:    backend,
		snapshot:   profile.NewSnapshot(),
		generation: uuid.NewString(),
		inflight:   make(map[Action]bool),
	}
}

// Snapshot returns a copy of the current editing state.
func (s *Session) Snapshot() profile.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone()
}

// Generation identifies the profile currently being edited.
func (s *Session) Generation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Check runs the field validators for inline display.
func (s *Session) Check() []profile.FieldError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return profile.Validate(s.snapshot)
}

// Edit applies fn to the snapshot and re-derives the cron expression.
func (s *Session) Edit(fn func(*profile.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snapshot)
	s.snapshot.Refresh()
}

func (s *Session) SelectMessageKind(k profile.MessageKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.SelectMessageKind(k)
}

func (s *Session) SelectAttachmentSource(src profile.AttachmentSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.SelectAttachmentSource(src)
}

func (s *Session) SelectScheduleMode(m profile.ScheduleMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.SelectScheduleMode(m)
}

// ChooseLocalFile selects a file on this machine as the attachment. It is
// uploaded on the next Save or SendNow.
func (s *Session) ChooseLocalFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Attachment.Source = profile.SourceLocal
	s.snapshot.Attachment.LocalFile = path
	s.snapshot.Attachment.UploadedPath = ""
	s.snapshot.Attachment.DisplayName = filepath.Base(path)
}

// ImportText appends the non-empty lines of text to the text entries and
// returns how many were added.
func (s *Session) ImportText(text string) int {
	lines := profile.SplitImport(text)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Text.Entries = append(s.snapshot.Text.Entries, lines...)
	return len(lines)
}

// Reset starts editing a fresh default profile.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked(profile.NewSnapshot())
}

func (s *Session) resetLocked(snap profile.Snapshot) {
	s.snapshot = snap
	s.generation = uuid.NewString()
}

// Profiles lists the stored profile names.
func (s *Session) Profiles(ctx context.Context) ([]string, error) {
	return s.backend.ListProfiles(ctx)
}

// Load replaces the snapshot with the hydrated profile name. A later Load
// supersedes this one.
func (s *Session) Load(ctx context.Context, name string) error {
	s.mu.Lock()
	gen := uuid.NewString()
	s.generation = gen
	s.mu.Unlock()

	cfg, err := s.backend.GetProfile(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load profile %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return ErrSuperseded
	}
	s.snapshot = profile.Hydrate(cfg)
	return nil
}

// Save uploads a pending local attachment, composes the snapshot and stores
// it. Nothing is sent when any field is invalid. On success a freshly
// uploaded attachment becomes the stored one.
func (s *Session) Save(ctx context.Context) (*profile.Configuration, error) {
	release, err := s.acquire(ActionSave)
	if err != nil {
		return nil, err
	}
	defer release()

	cfg, gen, err := s.prepare(ctx, false)
	if err != nil {
		return nil, err
	}
	if err := s.backend.SaveProfile(ctx, cfg); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return nil, ErrSuperseded
	}
	s.snapshot.Name = cfg.Name
	if att := &s.snapshot.Attachment; att.UploadedPath != "" && cfg.Messages.Kind() == profile.KindAttachment {
		att.StoredPath = att.UploadedPath
		att.DisplayName = profile.DeriveDisplayName(att.StoredPath)
		att.LocalFile = ""
		att.UploadedPath = ""
	}
	slog.Info("editor: profile saved", "profile", cfg.Name)
	return cfg, nil
}

// SendNow delivers one message of the composed profile immediately without
// saving it. Token and channel are required.
func (s *Session) SendNow(ctx context.Context) error {
	release, err := s.acquire(ActionSend)
	if err != nil {
		return err
	}
	defer release()

	cfg, _, err := s.prepare(ctx, true)
	if err != nil {
		return err
	}
	return s.backend.SendOnce(ctx, cfg)
}

// Duplicate copies the current profile on the backend and loads the copy.
func (s *Session) Duplicate(ctx context.Context) (string, error) {
	release, err := s.acquire(ActionDuplicate)
	if err != nil {
		return "", err
	}
	defer release()

	name := strings.TrimSpace(s.Snapshot().Name)
	newName, err := s.backend.DuplicateProfile(ctx, name)
	if err != nil {
		return "", err
	}
	if err := s.Load(ctx, newName); err != nil {
		return newName, err
	}
	return newName, nil
}

// Delete removes the current profile and resets the session. The default
// profile is refused without contacting the backend.
func (s *Session) Delete(ctx context.Context) error {
	release, err := s.acquire(ActionDelete)
	if err != nil {
		return err
	}
	defer release()

	s.mu.Lock()
	name := strings.TrimSpace(s.snapshot.Name)
	gen := s.generation
	s.mu.Unlock()

	if name == profile.DefaultProfileName {
		return ErrDefaultProfile
	}
	if err := s.backend.DeleteProfile(ctx, name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return ErrSuperseded
	}
	s.resetLocked(profile.NewSnapshot())
	return nil
}

// prepare validates, uploads and composes the current snapshot. requireTarget
// makes an empty token or channel an error.
func (s *Session) prepare(ctx context.Context, requireTarget bool) (*profile.Configuration, string, error) {
	s.mu.Lock()
	snap := s.snapshot.Clone()
	gen := s.generation
	s.mu.Unlock()

	if fe := profile.ValidateProfileName(snap.Name); fe != nil {
		return nil, gen, &ValidationError{Fields: []profile.FieldError{*fe}}
	}
	fieldErrs := profile.Validate(snap)
	if requireTarget {
		fieldErrs = append(fieldErrs, requireTargetFields(snap)...)
	}
	if len(fieldErrs) > 0 {
		return nil, gen, &ValidationError{Fields: fieldErrs}
	}

	if att := snap.Attachment; snap.MessageKind == profile.KindAttachment &&
		att.Source == profile.SourceLocal && att.LocalFile != "" && att.UploadedPath == "" {
		uploaded, err := s.upload(ctx, att.LocalFile)
		if err != nil {
			return nil, gen, err
		}
		snap.Attachment.UploadedPath = uploaded

		s.mu.Lock()
		if s.generation == gen && s.snapshot.Attachment.LocalFile == att.LocalFile {
			s.snapshot.Attachment.UploadedPath = uploaded
		}
		s.mu.Unlock()
	}

	cfg, _, err := profile.Compose(snap)
	if err != nil {
		return nil, gen, err
	}
	return cfg, gen, nil
}

func (s *Session) upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &UploadError{File: path, Err: err}
	}
	defer f.Close()

	uploaded, err := s.backend.UploadAttachment(ctx, filepath.Base(path), f)
	if err != nil {
		return "", &UploadError{File: path, Err: err}
	}
	slog.Info("editor: attachment uploaded", "file", path, "path", uploaded)
	return uploaded, nil
}

func requireTargetFields(snap profile.Snapshot) []profile.FieldError {
	var errs []profile.FieldError
	if strings.TrimSpace(snap.Credential) == "" {
		errs = append(errs, profile.FieldError{Field: profile.FieldCredential, Kind: profile.RequiredError, Message: "token is required"})
	}
	if strings.TrimSpace(snap.Channel) == "" {
		errs = append(errs, profile.FieldError{Field: profile.FieldChannel, Kind: profile.RequiredError, Message: "channel ID is required"})
	}
	return errs
}

// acquire marks action as in flight. The returned func clears it.
func (s *Session) acquire(action Action) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[action] {
		return nil, fmt.Errorf("%s: %w", action, ErrBusy)
	}
	s.inflight[action] = true
	return func() {
		s.mu.Lock()
		delete(s.inflight, action)
		s.mu.Unlock()
	}, nil
}
