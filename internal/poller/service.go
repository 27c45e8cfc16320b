package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coopco/autopost/internal/scheduler"
)

// StatusSource reports the scheduler status of every known profile.
type StatusSource interface {
	Status(ctx context.Context) (map[string]scheduler.Status, error)
}

// Service periodically fetches scheduler status and hands it to OnStatus.
type Service struct {
	source   StatusSource
	interval time.Duration
	onStatus func(map[string]scheduler.Status)
	onError  func(error)
	mu       sync.Mutex
	stopCh   chan struct{}
	running  bool
}

type Config struct {
	Source   StatusSource
	Interval time.Duration
	OnStatus func(map[string]scheduler.Status)
	OnError  func(error)
}

func NewService(cfg Config) *Service {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Service{
		source:   cfg.Source,
		interval: interval,
		onStatus: cfg.OnStatus,
		onError:  cfg.OnError,
		stopCh:   make(chan struct{}),
	}
}

// Start polls once immediately and then on every tick until Stop or ctx ends.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	go func() {
		s.tick(ctx)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.tick(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
}

func (s *Service) TriggerNow(ctx context.Context) {
	s.tick(ctx)
}

func (s *Service) tick(ctx context.Context) {
	status, err := s.source.Status(ctx)
	if err != nil {
		// The poller never stops on a failed fetch; the next tick retries.
		slog.Warn("poller: status fetch failed", "error", err)
		if s.onError != nil {
			s.onError(err)
		}
		return
	}
	if s.onStatus != nil {
		s.onStatus(status)
	}
}
