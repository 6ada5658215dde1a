// Package dedupe remembers which committed row versions were already applied
// so a redelivered change notification does not trigger a second reload.
package dedupe

import (
	"context"
	"strconv"
	"sync"
	"time"
)

const defaultMaxSize = 256

// Deduper records seen change versions.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so a later delivery is applied again. Used when
	// applying the change failed.
	Unrecord(ctx context.Context, key string)

	Size() int
}

// VersionKey identifies one committed version of a row. It returns "" when
// the version is unknown; such changes are never deduplicated.
func VersionKey(rowID string, at time.Time) string {
	if rowID == "" || at.IsZero() {
		return ""
	}
	return rowID + "@" + strconv.FormatInt(at.UnixNano(), 10)
}

// ring is a bounded set with FIFO eviction.
type ring struct {
	mu    sync.Mutex
	seen  map[string]int // key -> slot
	slots []string
	next  int
}

// New creates a bounded Deduper. The oldest key is evicted once maxSize keys
// are held.
func New(opts ...Option) Deduper {
	cfg := config{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &ring{
		seen:  make(map[string]int, cfg.maxSize),
		slots: make([]string, cfg.maxSize),
	}
}

func (r *ring) SeenAndRecord(_ context.Context, key string) bool {
	if key == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[key]; ok {
		return true
	}
	if old := r.slots[r.next]; old != "" {
		delete(r.seen, old)
	}
	r.slots[r.next] = key
	r.seen[key] = r.next
	r.next = (r.next + 1) % len(r.slots)
	return false
}

func (r *ring) Unrecord(_ context.Context, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot, ok := r.seen[key]; ok {
		delete(r.seen, key)
		r.slots[slot] = ""
	}
}

func (r *ring) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}
