package logging

import (
	"log/slog"
	"sync"
)

// Channels hands out loggers tagged with a "channel" attribute, one per
// name.
type Channels struct {
	base     *slog.Logger
	channels map[string]*slog.Logger
	mutex    sync.Mutex
}

// NewChannels creates channels derived from base.
func NewChannels(base *slog.Logger) *Channels {
	return &Channels{base: base, channels: make(map[string]*slog.Logger)}
}

// Channel returns the logger of name, creating it on first use.
func (c *Channels) Channel(name string) *slog.Logger {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if logger, exists := c.channels[name]; exists {
		return logger
	}
	logger := Channel(c.base, name)
	c.channels[name] = logger
	return logger
}

// Channel tags logger with a channel name.
func Channel(logger *slog.Logger, name string) *slog.Logger {
	return logger.With(slog.String("channel", name))
}
