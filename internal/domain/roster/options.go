// Package roster holds the process-wide directory of member profiles.
package roster

import "github.com/okian/pizarra/pkg/logger"

// Option applies a configuration option to the Directory.
type Option func(*Directory)

// WithFetcher sets the source used by LoadBatch for unknown identities.
func WithFetcher(f ProfileFetcher) Option {
	return func(d *Directory) {
		if f != nil {
			d.fetcher = f
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Directory) {
		if l != nil {
			d.log = l.Named("roster")
		}
	}
}
