package history

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/coopco/autopost/internal/bus"
)

// DefaultLimit is how many entries a profile log keeps when none is configured.
const DefaultLimit = 200

// Entry records one delivery attempt.
type Entry struct {
	At     string `json:"at"`
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
	Kind   string `json:"kind"`
	Error  string `json:"error,omitempty"`
}

// OK reports whether the delivery succeeded.
func (e Entry) OK() bool { return e.Error == "" }

// Meta is stored as the first line of the JSONL file
type Meta struct {
	Profile   string `json:"profile"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Log is the delivery history of one profile.
type Log struct {
	Meta    Meta
	Entries []Entry
	mu      sync.RWMutex
}

func (l *Log) append(e Entry, limit int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, e)
	if len(l.Entries) > limit {
		l.Entries = append([]Entry(nil), l.Entries[len(l.Entries)-limit:]...)
	}
	l.Meta.UpdatedAt = e.At
}

// Last returns up to n of the newest entries, oldest first. n <= 0 returns all.
func (l *Log) Last(n int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	start := 0
	if n > 0 && n < len(l.Entries) {
		start = len(l.Entries) - n
	}
	out := make([]Entry, len(l.Entries)-start)
	copy(out, l.Entries[start:])
	return out
}

// Manager keeps one JSONL file per profile under dataDir.
type Manager struct {
	dataDir string
	limit   int
	cache   map[string]*Log
	mu      sync.Mutex
}

func NewManager(dataDir string, limit int) *Manager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Manager{
		dataDir: dataDir,
		limit:   limit,
		cache:   make(map[string]*Log),
	}
}

// profileToFilename replaces characters that are unsafe in file names.
func profileToFilename(name string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "\x00", "_")
	return r.Replace(name) + ".jsonl"
}

// Record appends the outcome of res to its profile's log and persists it.
func (m *Manager) Record(res bus.Result) error {
	if res.Delivery.Profile == "" {
		return nil
	}
	e := Entry{
		At:     res.At.UTC().Format(time.RFC3339),
		Source: res.Delivery.Metadata["source"],
		Target: res.Delivery.Target,
	}
	if res.Delivery.Message != nil {
		e.Kind = string(res.Delivery.Message.Kind())
	}
	if res.Err != nil {
		e.Error = res.Err.Error()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.getOrCreate(res.Delivery.Profile)
	l.append(e, m.limit)
	return m.save(l)
}

// Get returns the log for name, or an empty log when nothing was recorded.
func (m *Manager) Get(name string) *Log {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreate(name)
}

// Forget drops the log for name from memory and disk.
func (m *Manager) Forget(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, name)
	err := os.Remove(filepath.Join(m.dataDir, profileToFilename(name)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove history for %q: %w", name, err)
	}
	return nil
}

// getOrCreate requires m.mu to be held.
func (m *Manager) getOrCreate(name string) *Log {
	if l, ok := m.cache[name]; ok {
		return l
	}
	l := m.load(name)
	if l == nil {
		now := time.Now().UTC().Format(time.RFC3339)
		l = &Log{Meta: Meta{Profile: name, CreatedAt: now, UpdatedAt: now}}
	}
	m.cache[name] = l
	return l
}

// save rewrites the JSONL file for l.
func (m *Manager) save(l *Log) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if err := os.MkdirAll(m.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create history dir: %w", err)
	}
	path := filepath.Join(m.dataDir, profileToFilename(l.Meta.Profile))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create history file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	if err := enc.Encode(l.Meta); err != nil {
		return fmt.Errorf("failed to write history meta: %w", err)
	}
	for _, e := range l.Entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("failed to write history entry: %w", err)
		}
	}
	return w.Flush()
}

// load reads a log from disk; returns nil if the file does not exist.
func (m *Manager) load(name string) *Log {
	path := filepath.Join(m.dataDir, profileToFilename(name))
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil
	}
	var meta Meta
	if err := json.Unmarshal(scanner.Bytes(), &meta); err != nil {
		slog.Warn("history: unreadable meta line", "profile", name, "error", err)
		return nil
	}

	var entries []Entry
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return &Log{Meta: meta, Entries: entries}
}
