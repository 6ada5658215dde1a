package persistence

import (
	"time"

	"github.com/okian/pizarra/pkg/logger"
)

// Option applies a configuration option to the Adapter.
type Option func(*Adapter)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.log = l.Named("persistence")
		}
	}
}

// WithClock sets the source of the last-updated timestamp.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}
