package channels

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/coopco/autopost/internal/bus"
)

// Channel is the interface every delivery transport implements.
type Channel interface {
	Name() string
	Send(ctx context.Context, d bus.Delivery) error
}

// ChannelFactory creates a Channel from its JSON config.
type ChannelFactory func(cfg json.RawMessage) (Channel, error)

var registry = map[string]ChannelFactory{}

// Register adds a channel factory to the registry.
func Register(name string, factory ChannelFactory) {
	registry[name] = factory
}

// GetFactory returns the factory for a channel name.
func GetFactory(name string) (ChannelFactory, bool) {
	f, ok := registry[name]
	return f, ok
}

// RegisteredNames returns all registered channel names, sorted.
func RegisteredNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
