package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	robfigcron "github.com/robfig/cron/v3"

	"github.com/coopco/autopost/internal/bus"
	"github.com/coopco/autopost/internal/profile"
)

// MetadataSource tags deliveries published by the scheduler. Results for
// other deliveries, such as one-off sends, do not touch the status counters.
const MetadataSource = "scheduler"

// Service runs one delivery job per started profile. Each firing picks one of
// the profile's messages at random and publishes it on the bus.
type Service struct {
	scheduler *robfigcron.Cron
	bus       *bus.MessageBus
	channel   string
	jobs      map[string]robfigcron.EntryID
	status    map[string]*Status
	pick      func(profile.MessageList) profile.Message
	observers []func(bus.Result)
	mu        sync.Mutex
}

// NewService creates a scheduler publishing deliveries for the given transport.
func NewService(msgBus *bus.MessageBus, channel string) *Service {
	return &Service{
		scheduler: robfigcron.New(),
		bus:       msgBus,
		channel:   channel,
		jobs:      make(map[string]robfigcron.EntryID),
		status:    make(map[string]*Status),
		pick: func(msgs profile.MessageList) profile.Message {
			return msgs[rand.IntN(len(msgs))]
		},
	}
}

// Start begins the cron scheduler.
func (s *Service) Start() {
	s.scheduler.Start()
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Service) Stop() {
	<-s.scheduler.Stop().Done()
}

// StartProfile registers a job for cfg and sends the first message right away.
func (s *Service) StartProfile(cfg *profile.Configuration) error {
	if cfg.Credential == "" || cfg.Channel == "" || len(cfg.Messages) == 0 {
		return fmt.Errorf("%q: %w", cfg.Name, ErrIncompleteProfile)
	}
	spec, err := Spec(cfg.Schedule)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[cfg.Name]; ok {
		return fmt.Errorf("%q: %w", cfg.Name, ErrAlreadyRunning)
	}

	job := cfg.Clone()
	entryID, err := s.scheduler.AddFunc(spec, func() { s.fire(job) })
	if err != nil {
		return fmt.Errorf("failed to register job for %q: %w", cfg.Name, err)
	}
	s.jobs[cfg.Name] = entryID
	s.status[cfg.Name] = &Status{Running: true, LastRun: "-"}

	slog.Info("scheduler: profile started", "profile", cfg.Name, "spec", spec)
	go s.fire(job)
	return nil
}

// StopProfile removes the job for name. Its status is kept with Running=false.
func (s *Service) StopProfile(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%q: %w", name, ErrNotRunning)
	}
	s.scheduler.Remove(entryID)
	delete(s.jobs, name)
	if st, ok := s.status[name]; ok {
		st.Running = false
	}
	slog.Info("scheduler: profile stopped", "profile", name)
	return nil
}

// Forget stops name if running and drops its status.
func (s *Service) Forget(name string) {
	if err := s.StopProfile(name); err != nil && !errors.Is(err, ErrNotRunning) {
		slog.Warn("scheduler: failed to stop profile", "profile", name, "error", err)
	}
	s.mu.Lock()
	delete(s.status, name)
	s.mu.Unlock()
}

// Running reports whether name has an active job.
func (s *Service) Running(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[name]
	return ok
}

// Status returns a snapshot of every known profile's status.
func (s *Service) Status() map[string]Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Status, len(s.status))
	for name, st := range s.status {
		cp := *st
		if id, ok := s.jobs[name]; ok {
			if next := s.scheduler.Entry(id).Next; !next.IsZero() {
				cp.NextRun = &next
			}
		}
		out[name] = cp
	}
	return out
}

// NextRun returns the next firing time of name's job.
func (s *Service) NextRun(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.jobs[name]
	if !ok {
		return time.Time{}, false
	}
	next := s.scheduler.Entry(id).Next
	return next, !next.IsZero()
}

// OnResult registers fn to see every delivery result TrackResults consumes,
// including one-off sends. Register observers before calling TrackResults.
func (s *Service) OnResult(fn func(bus.Result)) {
	s.observers = append(s.observers, fn)
}

// TrackResults consumes delivery results and updates status counters until
// ctx is cancelled.
func (s *Service) TrackResults(ctx context.Context) {
	for {
		res, err := s.bus.ConsumeResult(ctx)
		if err != nil {
			return
		}
		s.record(res)
		for _, fn := range s.observers {
			fn(res)
		}
	}
}

func (s *Service) record(res bus.Result) {
	if res.Delivery.Metadata["source"] != MetadataSource {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.status[res.Delivery.Profile]
	if !ok {
		st = &Status{LastRun: "-"}
		s.status[res.Delivery.Profile] = st
	}
	if res.OK() {
		st.SentCount++
		st.LastRun = res.At.Format("15:04:05")
		st.LastError = ""
		return
	}
	st.FailedCount++
	st.LastError = res.Err.Error()
}

func (s *Service) fire(cfg *profile.Configuration) {
	s.bus.PublishOutbound(bus.Delivery{
		Channel:    s.channel,
		Profile:    cfg.Name,
		Target:     cfg.Channel,
		Credential: cfg.Credential,
		Message:    s.pick(cfg.Messages),
		Metadata:   map[string]string{"source": MetadataSource},
	})
}

// Spec converts a profile schedule to a robfig/cron spec. Cron expressions are
// parsed here, so malformed day fields are rejected before a job is registered.
func Spec(sched profile.Schedule) (string, error) {
	switch sc := sched.(type) {
	case profile.Interval:
		seconds := sc.Seconds
		if seconds <= 0 {
			seconds = profile.DefaultIntervalSeconds
		}
		return fmt.Sprintf("@every %ds", seconds), nil
	case profile.CronSimple, profile.CronAdvanced:
		expr := sc.CronExpression()
		if _, err := robfigcron.ParseStandard(expr); err != nil {
			return "", fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, expr, err)
		}
		return expr, nil
	default:
		return "", fmt.Errorf("%w: unsupported schedule type %T", ErrInvalidSchedule, sched)
	}
}
