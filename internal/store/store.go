package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/coopco/autopost/internal/profile"
)

var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrLastDefaultProfile = errors.New("cannot delete the only remaining default profile")
)

// Store keeps profiles in a single JSON file keyed by profile name.
// Records that cannot be decoded are kept byte for byte and written back.
type Store struct {
	path       string
	profiles   map[string]*profile.Configuration
	unreadable map[string]json.RawMessage
	mu         sync.RWMutex
}

// Open loads the store at path, creating it with a default profile when the
// file does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{
		path:       path,
		profiles:   make(map[string]*profile.Configuration),
		unreadable: make(map[string]json.RawMessage),
	}
	if err := s.loadFromDisk(); err != nil {
		return nil, err
	}
	if len(s.profiles) == 0 {
		s.profiles[profile.DefaultProfileName] = DefaultProfile(profile.DefaultProfileName)
		if err := s.saveToDisk(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// DefaultProfile is what Get reports for a name with no stored record.
func DefaultProfile(name string) *profile.Configuration {
	return &profile.Configuration{
		Name:     name,
		Schedule: profile.Interval{Seconds: profile.DefaultIntervalSeconds},
		Messages: profile.MessageList{profile.Text{Content: "Hello World!"}},
	}
}

// List returns the stored profile names in sorted order.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.profiles))
	for name := range s.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a copy of the named profile.
func (s *Store) Get(name string) (*profile.Configuration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.profiles[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrProfileNotFound)
	}
	return cfg.Clone(), nil
}

// Save inserts or replaces cfg under cfg.Name.
func (s *Store) Save(cfg *profile.Configuration) error {
	name := strings.TrimSpace(cfg.Name)
	if fe := profile.ValidateProfileName(name); fe != nil {
		return fe
	}
	if len(cfg.Messages) == 0 {
		return profile.ErrEmptyMessageList
	}
	stored := cfg.Clone()
	stored.Name = name

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.profiles[name]
	s.profiles[name] = stored
	if err := s.saveToDisk(); err != nil {
		if existed {
			s.profiles[name] = prev
		} else {
			delete(s.profiles, name)
		}
		return err
	}
	// A readable save replaces an unreadable record of the same name.
	delete(s.unreadable, name)
	slog.Info("profile saved", "profile", name)
	return nil
}

// Duplicate copies name to "<name>_copy_<NNN>" and returns the new name.
func (s *Store) Duplicate(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.profiles[name]
	if !ok {
		return "", fmt.Errorf("%q: %w", name, ErrProfileNotFound)
	}
	var newName string
	for {
		newName = fmt.Sprintf("%s_copy_%d", name, 100+rand.IntN(900))
		if _, taken := s.profiles[newName]; !taken {
			break
		}
	}
	dup := src.Clone()
	dup.Name = newName
	s.profiles[newName] = dup
	if err := s.saveToDisk(); err != nil {
		delete(s.profiles, newName)
		return "", err
	}
	slog.Info("profile duplicated", "from", name, "to", newName)
	return newName, nil
}

// Delete removes name. The default profile is kept when it is the only one.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.profiles[name]
	if !ok {
		return fmt.Errorf("%q: %w", name, ErrProfileNotFound)
	}
	if name == profile.DefaultProfileName && len(s.profiles) == 1 {
		return ErrLastDefaultProfile
	}
	delete(s.profiles, name)
	if err := s.saveToDisk(); err != nil {
		s.profiles[name] = prev
		return err
	}
	slog.Info("profile deleted", "profile", name)
	return nil
}

func (s *Store) loadFromDisk() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read profile store: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse profile store: %w", err)
	}
	for name, rec := range raw {
		var cfg profile.Configuration
		if err := json.Unmarshal(rec, &cfg); err != nil {
			slog.Warn("keeping unreadable profile as is", "profile", name, "error", err)
			s.unreadable[name] = rec
			continue
		}
		cfg.Name = name
		s.profiles[name] = &cfg
	}
	return nil
}

// saveToDisk writes every profile, readable or not, to the JSON file.
// Caller must hold s.mu.
func (s *Store) saveToDisk() error {
	records := make(map[string]any, len(s.profiles)+len(s.unreadable))
	for name, rec := range s.unreadable {
		records[name] = rec
	}
	for name, cfg := range s.profiles {
		records[name] = cfg
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write profile store: %w", err)
	}
	return os.Rename(tmp, s.path)
}
