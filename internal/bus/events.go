package bus

import (
	"time"

	"github.com/coopco/autopost/internal/profile"
)

// Delivery is one message bound for a target on a transport.
type Delivery struct {
	Channel    string            // transport name (e.g. "discord")
	Profile    string            // profile that produced the delivery
	Target     string            // platform channel ID
	Credential string            // bearer token used for the send
	Message    profile.Message   // the message chosen for this delivery
	Metadata   map[string]string // arbitrary metadata ("source": "scheduler" | "send_once")
}

// Result reports the outcome of a Delivery.
type Result struct {
	Delivery Delivery
	Err      error
	At       time.Time
}

// OK reports whether the delivery succeeded.
func (r Result) OK() bool { return r.Err == nil }
