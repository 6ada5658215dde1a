// Package listener reloads the active event's board when its record changes.
package listener

import (
	"github.com/okian/pizarra/internal/adapters/mq/dedupe"
	"github.com/okian/pizarra/pkg/logger"
)

// Option applies a configuration option to the Listener.
type Option func(*Listener)

// WithName sets the listener name used in logs.
func WithName(name string) Option {
	return func(l *Listener) {
		if name != "" {
			l.name = name
		}
	}
}

// WithLogger sets a custom logger for the listener.
func WithLogger(log logger.Logger) Option {
	return func(l *Listener) {
		if log != nil {
			l.log = log
		}
	}
}

// WithDeduper replaces the per-listener record of applied versions.
func WithDeduper(d dedupe.Deduper) Option {
	return func(l *Listener) {
		if d != nil {
			l.seen = d
		}
	}
}
