// Package feed is the in-process realtime change feed: table changes are
// published once and fanned out to subscriptions keyed by table and row filter.
package feed

import "github.com/okian/pizarra/pkg/logger"

// Option applies a configuration option to the Hub.
type Option func(*Hub)

// WithBufferSize sets the per-subscription channel buffer.
func WithBufferSize(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.bufferSize = size
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.log = l.Named("feed")
		}
	}
}
