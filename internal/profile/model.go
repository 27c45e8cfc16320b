package profile

import (
	"fmt"
	"strconv"
	"strings"
)

// Compose turns a raw snapshot into a Configuration.
//
// fieldErrs carries every Validator finding and is advisory: only a missing
// profile name blocks composition. err is the first blocking error in the
// order profile name, messages, schedule.
func Compose(s Snapshot) (cfg *Configuration, fieldErrs []FieldError, err error) {
	fieldErrs = Validate(s)

	if fe := ValidateProfileName(s.Name); fe != nil {
		return nil, fieldErrs, fe
	}
	msgs, err := ComposeMessages(s)
	if err != nil {
		return nil, fieldErrs, err
	}
	sched, err := ComposeSchedule(s)
	if err != nil {
		return nil, fieldErrs, err
	}

	return &Configuration{
		Name:       strings.TrimSpace(s.Name),
		Credential: strings.TrimSpace(s.Credential),
		Channel:    strings.TrimSpace(s.Channel),
		Schedule:   sched,
		Messages:   msgs,
	}, fieldErrs, nil
}

// Hydrate rebuilds the editing snapshot for a stored configuration. Groups
// that the configuration does not use keep their defaults.
func Hydrate(cfg *Configuration) Snapshot {
	s := NewSnapshot()
	s.Name = cfg.Name
	s.Credential = cfg.Credential
	s.Channel = cfg.Channel

	if kind := cfg.Messages.Kind(); kind != "" {
		s.MessageKind = kind
	}
	for _, m := range cfg.Messages {
		if m.Kind() != s.MessageKind {
			continue
		}
		switch m := m.(type) {
		case Text:
			s.Text.Entries = append(s.Text.Entries, m.Content)
		case Embed:
			s.Embed = EmbedFields{Title: m.Title, Description: m.Description, Color: DefaultEmbedColor}
			if m.Color != 0 {
				s.Embed.Color = FormatColor(m.Color)
			}
		case Attachment:
			s.Attachment.Source = m.Source
			if m.Source == SourceLocal {
				s.Attachment.StoredPath = m.Path
				s.Attachment.DisplayName = DeriveDisplayName(m.Path)
			} else {
				s.Attachment.URL = m.Path
			}
		}
	}

	switch sched := cfg.Schedule.(type) {
	case Interval:
		s.ScheduleMode = ModeInterval
		s.Interval.Seconds = strconv.Itoa(sched.Seconds)
	case CronSimple:
		s.ScheduleMode = ModeCronSimple
		s.CronSimple.Preset = sched.Preset
	case CronAdvanced:
		s.ScheduleMode = ModeCronAdvanced
		s.CronAdvanced = CronAdvancedFields{
			Time: fmt.Sprintf("%02d:%02d", sched.Hour, sched.Minute),
			Day:  sched.Day,
		}
	}
	s.Refresh()
	return s
}

// DeriveDisplayName strips any directory prefix, "/" or "\", from a stored path.
func DeriveDisplayName(storedPath string) string {
	if i := strings.LastIndexAny(storedPath, `/\`); i >= 0 {
		return storedPath[i+1:]
	}
	return storedPath
}
