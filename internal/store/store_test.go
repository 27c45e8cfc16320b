package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/coopco/autopost/internal/profile"
)

func newProfile(name string) *profile.Configuration {
	return &profile.Configuration{
		Name:       name,
		Credential: "aaa.bbb.ccc",
		Channel:    "123456789012345678",
		Schedule:   profile.CronAdvanced{Hour: 9, Minute: 30, Day: "1-5"},
		Messages:   profile.MessageList{profile.Embed{Title: "Standup", Description: "Time!", Color: 0x5865f2}},
	}
}

func openStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "profiles.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, path
}

func TestOpenSeedsDefault(t *testing.T) {
	s, path := openStore(t)

	if got := s.List(); len(got) != 1 || got[0] != profile.DefaultProfileName {
		t.Fatalf("List = %v", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected store file: %v", err)
	}
	cfg, err := s.Get(profile.DefaultProfileName)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Messages[0] != (profile.Text{Content: "Hello World!"}) {
		t.Errorf("default message = %#v", cfg.Messages[0])
	}
}

func TestSaveAndReload(t *testing.T) {
	s, path := openStore(t)
	if err := s.Save(newProfile("  standup  ")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := reopened.Get("standup")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := newProfile("standup")
	if got.Name != want.Name || got.Schedule != want.Schedule || got.Messages[0] != want.Messages[0] {
		t.Errorf("got %#v, want %#v", got, want)
	}
	if names := reopened.List(); len(names) != 2 || names[0] != "default" || names[1] != "standup" {
		t.Errorf("List = %v", names)
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	s, _ := openStore(t)

	var fe *profile.FieldError
	if err := s.Save(newProfile("   ")); !errors.As(err, &fe) || fe.Field != profile.FieldName {
		t.Errorf("blank name: got %v", err)
	}

	empty := newProfile("x")
	empty.Messages = nil
	if err := s.Save(empty); !errors.Is(err, profile.ErrEmptyMessageList) {
		t.Errorf("no messages: got %v", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s, _ := openStore(t)
	cfg, _ := s.Get(profile.DefaultProfileName)
	cfg.Messages[0] = profile.Text{Content: "mutated"}

	again, _ := s.Get(profile.DefaultProfileName)
	if again.Messages[0] != (profile.Text{Content: "Hello World!"}) {
		t.Error("Get must not expose stored state")
	}
	if _, err := s.Get("missing"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("missing: got %v", err)
	}
}

func TestDuplicate(t *testing.T) {
	s, _ := openStore(t)
	if err := s.Save(newProfile("news")); err != nil {
		t.Fatal(err)
	}

	name, err := s.Duplicate("news")
	if err != nil {
		t.Fatalf("Duplicate: %v", err)
	}
	if !regexp.MustCompile(`^news_copy_[1-9][0-9]{2}$`).MatchString(name) {
		t.Errorf("unexpected duplicate name %q", name)
	}
	dup, err := s.Get(name)
	if err != nil {
		t.Fatal(err)
	}
	if dup.Channel != "123456789012345678" || dup.Name != name {
		t.Errorf("duplicate = %#v", dup)
	}

	if _, err := s.Duplicate("ghost"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("ghost: got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s, _ := openStore(t)

	if err := s.Delete(profile.DefaultProfileName); !errors.Is(err, ErrLastDefaultProfile) {
		t.Fatalf("expected ErrLastDefaultProfile, got %v", err)
	}
	if err := s.Save(newProfile("news")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(profile.DefaultProfileName); err != nil {
		t.Fatalf("Delete default with siblings: %v", err)
	}
	if err := s.Delete("news"); err != nil {
		t.Fatalf("Delete news: %v", err)
	}
	if err := s.Delete("news"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("second delete: got %v", err)
	}
	if len(s.List()) != 0 {
		t.Errorf("List = %v", s.List())
	}
}

func TestOpenKeepsUnreadableRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	data := `{
		"good": {"token": "a.b.c", "channelid": "123456789012345678", "messages": [{"type": "text", "content": "hi"}]},
		"bad": {"schedule_mode": "weekly", "messages": []}
	}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if names := s.List(); len(names) != 1 || names[0] != "good" {
		t.Errorf("List = %v", names)
	}

	if err := s.Save(newProfile("fresh")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	saved, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var onDisk map[string]json.RawMessage
	if err := json.Unmarshal(saved, &onDisk); err != nil {
		t.Fatalf("store file: %v", err)
	}
	if len(onDisk) != 3 {
		t.Errorf("expected good, bad and fresh on disk, got %d records", len(onDisk))
	}
	var bad map[string]any
	if err := json.Unmarshal(onDisk["bad"], &bad); err != nil || bad["schedule_mode"] != "weekly" {
		t.Errorf("unreadable record not preserved: %s", onDisk["bad"])
	}

	// Reopening still lists only the readable ones.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if names := s2.List(); len(names) != 2 {
		t.Errorf("List after reopen = %v", names)
	}

	// Saving a readable profile under the same name replaces the record.
	if err := s2.Save(newProfile("bad")); err != nil {
		t.Fatalf("Save bad: %v", err)
	}
	s3, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s3.Get("bad"); err != nil {
		t.Errorf("Get bad after overwrite: %v", err)
	}
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected error for corrupt store")
	}
}
