package profile

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitImport splits multi-line text into trimmed, non-empty entries.
func SplitImport(text string) []string {
	return cleanEntries(strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n"))
}

func cleanEntries(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// ParseColor parses "#RRGGBB" (the "#" is optional). Anything unparsable,
// including an empty string, yields 0.
func ParseColor(raw string) uint32 {
	hex := strings.TrimPrefix(strings.TrimSpace(raw), "#")
	if hex == "" {
		return 0
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || v > 0xFFFFFF {
		return 0
	}
	return uint32(v)
}

// FormatColor renders c as "#rrggbb".
func FormatColor(c uint32) string {
	return fmt.Sprintf("#%06x", c&0xFFFFFF)
}

// ComposeMessages builds the message list for the active message kind.
func ComposeMessages(s Snapshot) (MessageList, error) {
	switch s.MessageKind {
	case KindText:
		entries := cleanEntries(s.Text.Entries)
		if len(entries) == 0 {
			return nil, ErrEmptyMessageList
		}
		msgs := make(MessageList, len(entries))
		for i, e := range entries {
			msgs[i] = Text{Content: e}
		}
		return msgs, nil

	case KindEmbed:
		return MessageList{Embed{
			Title:       s.Embed.Title,
			Description: s.Embed.Description,
			Color:       ParseColor(s.Embed.Color),
		}}, nil

	case KindAttachment:
		att, err := resolveAttachment(s.Attachment)
		if err != nil {
			return nil, err
		}
		return MessageList{att}, nil

	default:
		return nil, fmt.Errorf("unknown message kind %q", s.MessageKind)
	}
}

// resolveAttachment picks the attachment path. For local files a freshly
// chosen file wins over the stored path.
func resolveAttachment(f AttachmentFields) (Attachment, error) {
	switch f.Source {
	case SourceURL:
		u := strings.TrimSpace(f.URL)
		if u == "" {
			return Attachment{}, ErrMissingAttachment
		}
		return Attachment{Source: SourceURL, Path: u}, nil

	case SourceLocal:
		switch {
		case f.LocalFile != "":
			if f.UploadedPath == "" {
				return Attachment{}, ErrUploadPending
			}
			return Attachment{Source: SourceLocal, Path: f.UploadedPath}, nil
		case f.StoredPath != "":
			return Attachment{Source: SourceLocal, Path: f.StoredPath}, nil
		default:
			return Attachment{}, ErrMissingAttachment
		}

	default:
		return Attachment{}, fmt.Errorf("unknown attachment source %q", f.Source)
	}
}
