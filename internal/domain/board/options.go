// Package board keeps the per-event selection and layout state.
package board

// Default arena settings.
const (
	DefaultCapacity  = 11
	DefaultFormation = "4-4-2"
)

// Option applies a configuration option to the Arena.
type Option func(*Arena)

// WithCapacity sets the maximum number of selected players per event.
func WithCapacity(n int) Option {
	return func(a *Arena) {
		if n > 0 {
			a.capacity = n
		}
	}
}

// WithDefaultFormation sets the label of boards that never had one.
func WithDefaultFormation(label string) Option {
	return func(a *Arena) {
		if label != "" {
			a.formation = label
		}
	}
}
