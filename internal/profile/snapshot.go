package profile

import "fmt"

// DefaultEmbedColor is shown when an embed has no usable color.
const DefaultEmbedColor = "#5865f2"

// Snapshot is the raw, editable state of one profile. Every field group is
// kept while another group is active so that switching back restores input;
// only the active groups take part in composition.
type Snapshot struct {
	Name       string `json:"profile_name"`
	Credential string `json:"token"`
	Channel    string `json:"channelid"`

	MessageKind MessageKind      `json:"message_kind"`
	Text        TextFields       `json:"text"`
	Embed       EmbedFields      `json:"embed"`
	Attachment  AttachmentFields `json:"attachment"`

	ScheduleMode ScheduleMode       `json:"schedule_mode"`
	Interval     IntervalFields     `json:"interval"`
	CronSimple   CronSimpleFields   `json:"cron_simple"`
	CronAdvanced CronAdvancedFields `json:"cron_advanced"`

	// CronExpression is derived by Refresh and never edited directly.
	CronExpression string `json:"cron_expression"`
}

type TextFields struct {
	Entries []string `json:"entries"`
}

type EmbedFields struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

type AttachmentFields struct {
	Source AttachmentSource `json:"source"`
	URL    string           `json:"url"`

	// LocalFile is a freshly chosen file on the operator's machine.
	LocalFile string `json:"local_file,omitempty"`
	// UploadedPath is the server path returned for LocalFile.
	UploadedPath string `json:"uploaded_path,omitempty"`
	// StoredPath is the server path already persisted with the profile.
	StoredPath  string `json:"stored_path,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type IntervalFields struct {
	Seconds string `json:"seconds"`
}

type CronSimpleFields struct {
	Preset string `json:"preset"`
}

type CronAdvancedFields struct {
	Time string `json:"time"` // HH:MM
	Day  string `json:"day"`
}

// NewSnapshot returns the state of a fresh "default" profile.
func NewSnapshot() Snapshot {
	s := Snapshot{
		Name:         DefaultProfileName,
		MessageKind:  KindText,
		Embed:        EmbedFields{Color: DefaultEmbedColor},
		Attachment:   AttachmentFields{Source: SourceURL},
		ScheduleMode: ModeInterval,
		Interval:     IntervalFields{Seconds: fmt.Sprint(DefaultIntervalSeconds)},
		CronAdvanced: CronAdvancedFields{Time: "00:00", Day: "*"},
	}
	s.Refresh()
	return s
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	s.Text.Entries = append([]string(nil), s.Text.Entries...)
	return s
}

// Refresh re-derives CronExpression from the schedule mode and its fields.
// It is idempotent.
func (s *Snapshot) Refresh() {
	sched, err := ComposeSchedule(*s)
	if err != nil {
		s.CronExpression = ""
		return
	}
	s.CronExpression = sched.CronExpression()
}

// SelectMessageKind activates the field group for k.
func (s *Snapshot) SelectMessageKind(k MessageKind) error {
	if !k.valid() {
		return fmt.Errorf("unknown message kind %q", k)
	}
	s.MessageKind = k
	return nil
}

// SelectAttachmentSource activates the URL or local-file group.
func (s *Snapshot) SelectAttachmentSource(src AttachmentSource) error {
	if !src.valid() {
		return fmt.Errorf("unknown attachment source %q", src)
	}
	s.Attachment.Source = src
	return nil
}

// SelectScheduleMode activates the group for m and re-derives the cron expression.
func (s *Snapshot) SelectScheduleMode(m ScheduleMode) error {
	if !m.valid() {
		return fmt.Errorf("unknown schedule mode %q", m)
	}
	s.ScheduleMode = m
	s.Refresh()
	return nil
}

// Group identifies a field group of the editing surface.
type Group string

const (
	GroupText            Group = "text"
	GroupEmbed           Group = "embed"
	GroupAttachment      Group = "attachment"
	GroupAttachmentURL   Group = "attachment_url"
	GroupAttachmentLocal Group = "attachment_local"
	GroupInterval        Group = "interval"
	GroupCronSimple      Group = "cron_simple"
	GroupCronAdvanced    Group = "cron_advanced"
)

// ActiveGroups lists the groups that should be shown for the current selectors:
// one message group, the attachment source group when relevant, and one schedule group.
func (s Snapshot) ActiveGroups() []Group {
	var groups []Group
	switch s.MessageKind {
	case KindText:
		groups = append(groups, GroupText)
	case KindEmbed:
		groups = append(groups, GroupEmbed)
	case KindAttachment:
		groups = append(groups, GroupAttachment)
		if s.Attachment.Source == SourceLocal {
			groups = append(groups, GroupAttachmentLocal)
		} else {
			groups = append(groups, GroupAttachmentURL)
		}
	}
	switch s.ScheduleMode {
	case ModeInterval:
		groups = append(groups, GroupInterval)
	case ModeCronSimple:
		groups = append(groups, GroupCronSimple)
	case ModeCronAdvanced:
		groups = append(groups, GroupCronAdvanced)
	}
	return groups
}

// Visible reports whether g is one of the active groups.
func (s Snapshot) Visible(g Group) bool {
	for _, active := range s.ActiveGroups() {
		if active == g {
			return true
		}
	}
	return false
}
