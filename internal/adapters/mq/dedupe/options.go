package dedupe

type config struct {
	maxSize int
}

// Option configures New.
type Option func(*config)

// WithMaxSize sets how many keys are remembered. Non-positive values keep
// the default.
func WithMaxSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxSize = n
		}
	}
}
