package profile

import (
	"errors"
	"reflect"
	"testing"
)

func TestComposeFailsFastInOrder(t *testing.T) {
	s := NewSnapshot()
	s.Name = "  "
	s.Text.Entries = nil

	_, _, err := Compose(s)
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != FieldName {
		t.Fatalf("expected profile name error first, got %v", err)
	}

	s.Name = "weekly"
	if _, _, err := Compose(s); !errors.Is(err, ErrEmptyMessageList) {
		t.Fatalf("expected ErrEmptyMessageList, got %v", err)
	}

	s.Text.Entries = []string{"hi"}
	s.ScheduleMode = "hourly"
	if _, _, err := Compose(s); err == nil {
		t.Fatal("expected schedule error")
	}
}

func TestComposeFormatErrorsDoNotBlock(t *testing.T) {
	s := NewSnapshot()
	s.Name = " weekly "
	s.Credential = "bad"
	s.Channel = "123"
	s.Text.Entries = []string{"hello"}

	cfg, fieldErrs, err := Compose(s)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(fieldErrs) != 2 {
		t.Errorf("expected 2 advisory errors, got %v", fieldErrs)
	}
	if cfg.Name != "weekly" {
		t.Errorf("name = %q, want trimmed", cfg.Name)
	}
}

func TestComposeHydrateRoundTrip(t *testing.T) {
	cases := []*Configuration{
		{
			Name: "default", Credential: "aaa.bbb.ccc", Channel: "123456789012345678",
			Schedule: Interval{Seconds: 45},
			Messages: MessageList{Text{Content: "hello"}, Text{Content: "world {now}"}},
		},
		{
			Name: "news", Credential: "aaa.bbb.ccc", Channel: "12345678901234567",
			Schedule: CronAdvanced{Hour: 9, Minute: 30, Day: "1-5"},
			Messages: MessageList{Embed{Title: "Daily", Description: "Report", Color: 0xff8800}},
		},
		{
			Name: "padded", Credential: "aaa.bbb.ccc", Channel: "12345678901234567",
			Schedule: Interval{Seconds: 300},
			Messages: MessageList{Embed{Title: "  Daily  ", Description: "\nReport ", Color: 0x112233}},
		},
		{
			Name:     "emptyday",
			Schedule: CronAdvanced{Hour: 9, Minute: 30, Day: ""},
			Messages: MessageList{Text{Content: "hi"}},
		},
		{
			Name:     "spacedday",
			Schedule: CronAdvanced{Hour: 9, Minute: 30, Day: "1 5"},
			Messages: MessageList{Text{Content: "hi"}},
		},
		{
			Name:     "files",
			Schedule: CronSimple{Preset: "0 */6 * * *"},
			Messages: MessageList{Attachment{Source: SourceLocal, Path: "3f1c/report.pdf"}},
		},
		{
			Name:     "links",
			Schedule: CronAdvanced{Hour: 0, Minute: 0, Day: "*"},
			Messages: MessageList{Attachment{Source: SourceURL, Path: "https://example.com/x.gif"}},
		},
	}
	for _, want := range cases {
		t.Run(want.Name, func(t *testing.T) {
			s := Hydrate(want)
			got, _, err := Compose(s)
			if err != nil {
				t.Fatalf("Compose(Hydrate): %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("round trip mismatch:\n got  %#v\n want %#v", got, want)
			}
			if s.CronExpression != want.Schedule.CronExpression() {
				t.Errorf("derived expression %q, want %q", s.CronExpression, want.Schedule.CronExpression())
			}
		})
	}
}

func TestHydrateNormalizesZeroEmbedColor(t *testing.T) {
	cfg := &Configuration{
		Name:     "news",
		Schedule: Interval{Seconds: 300},
		Messages: MessageList{Embed{Title: "t", Description: "d", Color: 0}},
	}
	s := Hydrate(cfg)
	if s.Embed.Color != DefaultEmbedColor {
		t.Errorf("color = %q, want %q", s.Embed.Color, DefaultEmbedColor)
	}
	got, _, err := Compose(s)
	if err != nil {
		t.Fatal(err)
	}
	if e := got.Messages[0].(Embed); e.Color != 0x5865f2 {
		t.Errorf("recomposed color = %#x", e.Color)
	}
}

func TestHydrateFillsUnusedGroupsWithDefaults(t *testing.T) {
	cfg := &Configuration{
		Name:     "files",
		Schedule: CronSimple{Preset: "0 9 * * *"},
		Messages: MessageList{Attachment{Source: SourceLocal, Path: `C:\uploads\a\photo.png`}},
	}
	s := Hydrate(cfg)

	if s.MessageKind != KindAttachment || s.Attachment.Source != SourceLocal {
		t.Fatalf("selectors = %s/%s", s.MessageKind, s.Attachment.Source)
	}
	if s.Attachment.DisplayName != "photo.png" {
		t.Errorf("display name = %q", s.Attachment.DisplayName)
	}
	if s.Attachment.StoredPath != `C:\uploads\a\photo.png` {
		t.Errorf("stored path = %q", s.Attachment.StoredPath)
	}
	if s.Embed.Color != DefaultEmbedColor || s.Interval.Seconds != "300" || s.CronAdvanced.Time != "00:00" {
		t.Errorf("unused groups not defaulted: %+v %+v %+v", s.Embed, s.Interval, s.CronAdvanced)
	}
	if s.CronExpression != "0 9 * * *" {
		t.Errorf("expression = %q", s.CronExpression)
	}
}

func TestDeriveDisplayName(t *testing.T) {
	cases := map[string]string{
		"report.pdf":               "report.pdf",
		"uploads/2024/report.pdf":  "report.pdf",
		`uploads\2024\report.pdf`:  "report.pdf",
		`mixed/dir\name/final.txt`: "final.txt",
		"":                         "",
	}
	for in, want := range cases {
		if got := DeriveDisplayName(in); got != want {
			t.Errorf("DeriveDisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSwitchingKindPreservesInput(t *testing.T) {
	s := NewSnapshot()
	if err := s.SelectMessageKind(KindEmbed); err != nil {
		t.Fatal(err)
	}
	s.Embed = EmbedFields{Title: "Title", Description: "Desc", Color: "#112233"}

	if err := s.SelectMessageKind(KindAttachment); err != nil {
		t.Fatal(err)
	}
	if s.Visible(GroupEmbed) || !s.Visible(GroupAttachment) {
		t.Errorf("active groups = %v", s.ActiveGroups())
	}
	if err := s.SelectMessageKind(KindEmbed); err != nil {
		t.Fatal(err)
	}
	if s.Embed != (EmbedFields{Title: "Title", Description: "Desc", Color: "#112233"}) {
		t.Errorf("embed fields lost: %+v", s.Embed)
	}
}

func TestActiveGroups(t *testing.T) {
	s := NewSnapshot()
	if got := s.ActiveGroups(); !reflect.DeepEqual(got, []Group{GroupText, GroupInterval}) {
		t.Errorf("default groups = %v", got)
	}

	s.SelectMessageKind(KindAttachment)
	s.SelectAttachmentSource(SourceLocal)
	s.SelectScheduleMode(ModeCronAdvanced)
	want := []Group{GroupAttachment, GroupAttachmentLocal, GroupCronAdvanced}
	if got := s.ActiveGroups(); !reflect.DeepEqual(got, want) {
		t.Errorf("groups = %v, want %v", got, want)
	}

	// selecting the same state twice is a no-op
	before := s.Clone()
	s.SelectScheduleMode(ModeCronAdvanced)
	if !reflect.DeepEqual(before, s) {
		t.Error("repeated selection changed the snapshot")
	}
}

func TestSelectorsRejectUnknownStates(t *testing.T) {
	s := NewSnapshot()
	if err := s.SelectMessageKind("sticker"); err == nil {
		t.Error("expected error for unknown kind")
	}
	if err := s.SelectAttachmentSource("ftp"); err == nil {
		t.Error("expected error for unknown source")
	}
	if err := s.SelectScheduleMode("weekly"); err == nil {
		t.Error("expected error for unknown mode")
	}
	if s.MessageKind != KindText || s.ScheduleMode != ModeInterval {
		t.Errorf("failed selection changed state: %s/%s", s.MessageKind, s.ScheduleMode)
	}
}

func TestNewSnapshotDefaults(t *testing.T) {
	s := NewSnapshot()
	if s.Name != DefaultProfileName || s.MessageKind != KindText || s.ScheduleMode != ModeInterval {
		t.Errorf("unexpected defaults: %+v", s)
	}
	if len(s.Text.Entries) != 0 {
		t.Errorf("expected empty text list, got %q", s.Text.Entries)
	}
	sched, err := ComposeSchedule(s)
	if err != nil || sched != (Interval{Seconds: 300}) {
		t.Errorf("default schedule = %#v, %v", sched, err)
	}
}
