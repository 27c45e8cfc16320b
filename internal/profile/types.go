package profile

import "fmt"

// DefaultProfileName is the reserved profile that always exists and cannot be deleted.
const DefaultProfileName = "default"

// MessageKind selects which message variant a profile sends.
type MessageKind string

const (
	KindText       MessageKind = "text"
	KindEmbed      MessageKind = "embed"
	KindAttachment MessageKind = "attachment"
)

func (k MessageKind) valid() bool {
	switch k {
	case KindText, KindEmbed, KindAttachment:
		return true
	}
	return false
}

// AttachmentSource selects where an attachment comes from.
type AttachmentSource string

const (
	SourceURL   AttachmentSource = "url"
	SourceLocal AttachmentSource = "local"
)

func (s AttachmentSource) valid() bool {
	return s == SourceURL || s == SourceLocal
}

// ScheduleMode selects how deliveries are scheduled.
type ScheduleMode string

const (
	ModeInterval     ScheduleMode = "interval"
	ModeCronSimple   ScheduleMode = "cron_simple"
	ModeCronAdvanced ScheduleMode = "cron_advanced"
)

func (m ScheduleMode) valid() bool {
	switch m {
	case ModeInterval, ModeCronSimple, ModeCronAdvanced:
		return true
	}
	return false
}

// Message is one of Text, Embed or Attachment.
type Message interface {
	Kind() MessageKind
	isMessage()
}

// Text is a plain text message. Content is already trimmed.
type Text struct {
	Content string
}

// Embed is a rich embed with a 24-bit RGB color.
type Embed struct {
	Title       string
	Description string
	Color       uint32
}

// Attachment points at a file either by URL or by a server-relative path.
type Attachment struct {
	Source AttachmentSource
	Path   string
}

func (Text) Kind() MessageKind       { return KindText }
func (Embed) Kind() MessageKind      { return KindEmbed }
func (Attachment) Kind() MessageKind { return KindAttachment }

func (Text) isMessage()       {}
func (Embed) isMessage()      {}
func (Attachment) isMessage() {}

// Schedule is one of Interval, CronSimple or CronAdvanced.
type Schedule interface {
	Mode() ScheduleMode
	// CronExpression returns the five-field expression, or "" for Interval.
	CronExpression() string
	isSchedule()
}

// Interval repeats delivery every Seconds.
type Interval struct {
	Seconds int
}

// CronSimple uses a preset expression verbatim.
type CronSimple struct {
	Preset string
}

// CronAdvanced fires at Hour:Minute on the days matched by Day (cron day-of-week syntax).
type CronAdvanced struct {
	Hour   int
	Minute int
	Day    string
}

func (Interval) Mode() ScheduleMode     { return ModeInterval }
func (CronSimple) Mode() ScheduleMode   { return ModeCronSimple }
func (CronAdvanced) Mode() ScheduleMode { return ModeCronAdvanced }

func (Interval) CronExpression() string     { return "" }
func (c CronSimple) CronExpression() string { return c.Preset }
func (c CronAdvanced) CronExpression() string {
	return AdvancedExpression(c.Hour, c.Minute, c.Day)
}

func (Interval) isSchedule()     {}
func (CronSimple) isSchedule()   {}
func (CronAdvanced) isSchedule() {}

// AdvancedExpression assembles "{minute} {hour} * * {day}".
func AdvancedExpression(hour, minute int, day string) string {
	return fmt.Sprintf("%d %d * * %s", minute, hour, day)
}

// Configuration is the composed, persistable form of a profile.
type Configuration struct {
	Name       string
	Credential string
	Channel    string
	Schedule   Schedule
	Messages   MessageList
}

// MessageList is an ordered list of messages of a single kind.
type MessageList []Message

// Clone returns a copy that shares no slices with c.
func (c *Configuration) Clone() *Configuration {
	out := *c
	out.Messages = append(MessageList(nil), c.Messages...)
	return &out
}

// Kind reports the kind of the list, or "" when empty.
func (l MessageList) Kind() MessageKind {
	if len(l) == 0 {
		return ""
	}
	return l[0].Kind()
}
