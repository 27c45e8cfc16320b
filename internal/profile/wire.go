package profile

import (
	"encoding/json"
	"fmt"
)

// wireConfig is the JSON shape exchanged with the profile API.
type wireConfig struct {
	ProfileName     string      `json:"profile_name,omitempty"`
	Token           string      `json:"token"`
	ChannelID       string      `json:"channelid"`
	ScheduleMode    string      `json:"schedule_mode"`
	IntervalSeconds int         `json:"interval_seconds"`
	CronExpression  string      `json:"cron_expression"`
	Messages        MessageList `json:"messages"`
}

type wireMessage struct {
	Type    string     `json:"type"`
	Content string     `json:"content,omitempty"`
	Data    *wireEmbed `json:"data,omitempty"`
	Source  string     `json:"source,omitempty"`
	Path    string     `json:"path,omitempty"`
	URL     string     `json:"url,omitempty"` // older records store URL attachments here
}

type wireEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       uint32 `json:"color"`
}

func (c Configuration) MarshalJSON() ([]byte, error) {
	w := wireConfig{
		ProfileName:     c.Name,
		Token:           c.Credential,
		ChannelID:       c.Channel,
		ScheduleMode:    string(ModeInterval),
		IntervalSeconds: DefaultIntervalSeconds,
		Messages:        c.Messages,
	}
	if w.Messages == nil {
		w.Messages = MessageList{}
	}
	switch s := c.Schedule.(type) {
	case nil:
	case Interval:
		w.IntervalSeconds = s.Seconds
	case CronSimple, CronAdvanced:
		w.ScheduleMode = string(s.Mode())
		w.CronExpression = s.CronExpression()
	default:
		return nil, fmt.Errorf("unsupported schedule type %T", s)
	}
	return json.Marshal(w)
}

func (c *Configuration) UnmarshalJSON(data []byte) error {
	var w wireConfig
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	sched, err := decodeSchedule(w)
	if err != nil {
		return err
	}
	*c = Configuration{
		Name:       w.ProfileName,
		Credential: w.Token,
		Channel:    w.ChannelID,
		Schedule:   sched,
		Messages:   w.Messages,
	}
	return nil
}

func decodeSchedule(w wireConfig) (Schedule, error) {
	switch ScheduleMode(w.ScheduleMode) {
	case "", ModeInterval:
		seconds := w.IntervalSeconds
		if seconds <= 0 {
			seconds = DefaultIntervalSeconds
		}
		return Interval{Seconds: seconds}, nil
	case ModeCronSimple:
		return CronSimple{Preset: w.CronExpression}, nil
	case ModeCronAdvanced:
		adv, err := parseAdvanced(w.CronExpression)
		if err != nil {
			// Not "M H * * D": keep the expression so it still schedules.
			return CronSimple{Preset: w.CronExpression}, nil
		}
		return adv, nil
	default:
		return nil, fmt.Errorf("unknown schedule mode %q", w.ScheduleMode)
	}
}

func (l MessageList) MarshalJSON() ([]byte, error) {
	out := make([]wireMessage, 0, len(l))
	for _, m := range l {
		switch m := m.(type) {
		case Text:
			out = append(out, wireMessage{Type: string(KindText), Content: m.Content})
		case Embed:
			out = append(out, wireMessage{Type: string(KindEmbed), Data: &wireEmbed{
				Title:       m.Title,
				Description: m.Description,
				Color:       m.Color,
			}})
		case Attachment:
			out = append(out, wireMessage{Type: string(KindAttachment), Source: string(m.Source), Path: m.Path})
		default:
			return nil, fmt.Errorf("unsupported message type %T", m)
		}
	}
	return json.Marshal(out)
}

func (l *MessageList) UnmarshalJSON(data []byte) error {
	var raw []wireMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(MessageList, 0, len(raw))
	for i, w := range raw {
		switch MessageKind(w.Type) {
		case KindText:
			out = append(out, Text{Content: w.Content})
		case KindEmbed:
			var e Embed
			if w.Data != nil {
				e = Embed{Title: w.Data.Title, Description: w.Data.Description, Color: w.Data.Color & 0xFFFFFF}
			}
			out = append(out, e)
		case KindAttachment:
			a := Attachment{Source: AttachmentSource(w.Source), Path: w.Path}
			if a.Path == "" && w.URL != "" {
				a.Path = w.URL
			}
			if a.Source == "" {
				a.Source = SourceURL
			}
			if !a.Source.valid() {
				return fmt.Errorf("message %d: unknown attachment source %q", i, w.Source)
			}
			out = append(out, a)
		default:
			return fmt.Errorf("message %d: unknown message type %q", i, w.Type)
		}
	}
	*l = out
	return nil
}
