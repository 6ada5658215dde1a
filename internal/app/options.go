package service

import (
	"github.com/okian/pizarra/internal/domain/layout"
	"github.com/okian/pizarra/internal/domain/roster"
	"github.com/okian/pizarra/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDirectory shares an existing roster directory.
func WithDirectory(d *roster.Directory) Option {
	return func(s *Service) {
		if d != nil {
			s.dir = d
		}
	}
}

// WithEngine sets the layout engine.
func WithEngine(e *layout.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithCapacity sets the per-event selection limit.
func WithCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithDefaultFormation sets the formation of events without a saved board.
func WithDefaultFormation(label string) Option {
	return func(s *Service) {
		if label != "" {
			s.formation = label
		}
	}
}

// WithDirectoryPreload sets how many profiles Start loads into the directory.
// Zero disables the preload.
func WithDirectoryPreload(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.preload = n
		}
	}
}
