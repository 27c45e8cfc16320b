package scheduler

import (
	"errors"
	"time"
)

var (
	ErrAlreadyRunning    = errors.New("profile is already running")
	ErrNotRunning        = errors.New("profile is not running")
	ErrIncompleteProfile = errors.New("profile is missing a token, channel or messages")
	ErrInvalidSchedule   = errors.New("invalid schedule")
)

// Status is the live state of one profile's delivery job.
type Status struct {
	Running     bool       `json:"running"`
	SentCount   int        `json:"sent_count"`
	FailedCount int        `json:"failed_count"`
	LastRun     string     `json:"last_run"` // "15:04:05", or "-" before the first success
	LastError   string     `json:"last_error,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
}
