// Package layout places player markers on a measured surface.
package layout

// Default geometry, in pixels.
const (
	DefaultMarkerSize       = 60
	DefaultMobileBreakpoint = 768
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithMarkerSize sets the marker edge length.
func WithMarkerSize(size float64) Option {
	return func(e *Engine) {
		if size > 0 {
			e.markerSize = size
		}
	}
}

// WithMobileBreakpoint sets the surface width below which two columns are used.
func WithMobileBreakpoint(width float64) Option {
	return func(e *Engine) {
		if width > 0 {
			e.breakpoint = width
		}
	}
}
