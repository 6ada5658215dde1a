// Package drag turns pointer and touch gestures into marker coordinates.
package drag

import (
	"github.com/okian/pizarra/internal/domain/layout"
	"github.com/okian/pizarra/internal/domain/model"
	"github.com/okian/pizarra/pkg/logger"
)

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// WithEngine sets the layout engine used for clamping.
func WithEngine(e *layout.Engine) Option {
	return func(c *Controller) {
		if e != nil {
			c.engine = e
		}
	}
}

// WithSurface sets the source of the current surface size.
func WithSurface(fn func() model.Surface) Option {
	return func(c *Controller) {
		if fn != nil {
			c.surface = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l.Named("drag")
		}
	}
}
