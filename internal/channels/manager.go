package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coopco/autopost/internal/bus"
)

// Manager owns the configured transports and delivers bus traffic to them.
type Manager struct {
	channels map[string]Channel
	bus      *bus.MessageBus
	timeout  time.Duration
	mu       sync.RWMutex
}

// NewManager creates a manager that sends every outbound delivery on msgBus
// and reports the outcome back as a bus result.
func NewManager(msgBus *bus.MessageBus, sendTimeout time.Duration) *Manager {
	if sendTimeout <= 0 {
		sendTimeout = 30 * time.Second
	}
	m := &Manager{
		channels: make(map[string]Channel),
		bus:      msgBus,
		timeout:  sendTimeout,
	}
	m.setupOutboundDispatch()
	return m
}

// AddChannel creates and adds a channel from config.
func (m *Manager) AddChannel(name string, cfgJSON json.RawMessage) error {
	factory, ok := GetFactory(name)
	if !ok {
		return fmt.Errorf("no factory registered for channel %q", name)
	}
	ch, err := factory(cfgJSON)
	if err != nil {
		return fmt.Errorf("failed to create channel %q: %w", name, err)
	}
	m.mu.Lock()
	m.channels[name] = ch
	m.mu.Unlock()
	return nil
}

// Deliver sends d synchronously on its transport and publishes the result.
func (m *Manager) Deliver(ctx context.Context, d bus.Delivery) error {
	m.mu.RLock()
	ch, ok := m.channels[d.Channel]
	m.mu.RUnlock()

	var err error
	if !ok {
		err = fmt.Errorf("channel %q is not configured", d.Channel)
	} else {
		ctx, cancel := context.WithTimeout(ctx, m.timeout)
		err = ch.Send(ctx, d)
		cancel()
	}

	if err != nil {
		slog.Error("failed to deliver message", "channel", d.Channel, "profile", d.Profile, "error", err)
	} else {
		slog.Info("message delivered", "channel", d.Channel, "profile", d.Profile, "target", d.Target)
	}
	m.bus.PublishResult(bus.Result{Delivery: d, Err: err, At: time.Now()})
	return err
}

// setupOutboundDispatch subscribes to all outbound deliveries.
func (m *Manager) setupOutboundDispatch() {
	m.bus.Subscribe("", func(d bus.Delivery) {
		m.Deliver(context.Background(), d)
	})
}
