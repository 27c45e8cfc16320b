package profile

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a field-level problem.
type ErrorKind string

const (
	RequiredError ErrorKind = "required"
	FormatError   ErrorKind = "format"
)

// Field names match the keys used on the wire.
type Field string

const (
	FieldName       Field = "profile_name"
	FieldChannel    Field = "channelid"
	FieldCredential Field = "token"
)

// FieldError is a recoverable problem with a single raw field.
type FieldError struct {
	Field   Field
	Kind    ErrorKind
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	// ErrEmptyMessageList is returned when a text profile has no non-empty entries.
	ErrEmptyMessageList = errors.New("at least one non-empty message is required")

	// ErrMissingAttachment is returned when neither a URL nor a local file is available.
	ErrMissingAttachment = errors.New("attachment is missing: choose a file or enter a URL")

	// ErrUploadPending is returned when a freshly chosen local file has not been
	// uploaded yet. The caller must upload it and set AttachmentFields.UploadedPath.
	ErrUploadPending = errors.New("local attachment has not been uploaded")
)
