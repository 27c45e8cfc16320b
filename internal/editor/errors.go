package editor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coopco/autopost/internal/profile"
)

var (
	// ErrBusy is returned when the same action is already in flight.
	ErrBusy = errors.New("action already in progress")

	// ErrSuperseded is returned when another profile was loaded while the
	// action was waiting on the backend. Its result was not applied.
	ErrSuperseded = errors.New("editing session was superseded")

	// ErrDefaultProfile is returned by Delete for the default profile.
	ErrDefaultProfile = errors.New("the default profile cannot be deleted")
)

// ValidationError aborts a save or send because of field-level problems.
type ValidationError struct {
	Fields []profile.FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, fe := range e.Fields {
		msgs[i] = fe.Error()
	}
	return "invalid profile: " + strings.Join(msgs, "; ")
}

// UploadError wraps a failed attachment upload.
type UploadError struct {
	File string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("failed to upload %q: %v", e.File, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
