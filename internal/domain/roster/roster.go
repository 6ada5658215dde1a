// Package roster holds the process-wide directory of member profiles.
package roster

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/pizarra/internal/domain/model"
	"github.com/okian/pizarra/pkg/logger"
	"github.com/okian/pizarra/pkg/metrics"
)

// Placeholder naming for identities without a profile.
const (
	placeholderPrefix   = "Jugador "
	placeholderIDRunes  = 4
	placeholderPosition = "Sin posición"
)

// ProfileFetcher loads profiles by identity from the external store.
type ProfileFetcher interface {
	ProfilesByIDs(ctx context.Context, ids []string) ([]model.Player, error)
}

// Directory maps identities to players. It only grows: merges are additive and
// a named entry is never replaced by an unnamed one.
type Directory struct {
	mu      sync.RWMutex
	players map[string]model.Player
	fetcher ProfileFetcher
	log     logger.Logger
}

// New creates an empty Directory.
func New(opts ...Option) *Directory {
	d := &Directory{
		players: make(map[string]model.Player),
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Placeholder synthesizes the stand-in player for an unknown identity.
func Placeholder(id string) model.Player {
	short := []rune(id)
	if len(short) > placeholderIDRunes {
		short = short[:placeholderIDRunes]
	}
	return model.Player{
		ID:       id,
		Name:     placeholderPrefix + string(short),
		Position: placeholderPosition,
	}
}

// Resolve returns the known profile for id or a placeholder. It never fails.
func (d *Directory) Resolve(id string) model.Player {
	if p, ok := d.Lookup(id); ok && p.Named() {
		return p
	}
	return Placeholder(id)
}

// ResolveAll resolves ids in order.
func (d *Directory) ResolveAll(ids []string) []model.Player {
	out := make([]model.Player, 0, len(ids))
	for _, id := range ids {
		out = append(out, d.Resolve(id))
	}
	return out
}

// Lookup returns the stored entry for id, if any.
func (d *Directory) Lookup(id string) (model.Player, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.players[id]
	return p, ok
}

// HasNamed reports whether id has an entry with a non-blank name.
func (d *Directory) HasNamed(id string) bool {
	p, ok := d.Lookup(id)
	return ok && p.Named()
}

// Len returns the number of stored entries.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.players)
}

// MergeProfiles upserts players by identity. Entries with an empty id are
// ignored; an unnamed entry never overwrites a named one.
func (d *Directory) MergeProfiles(players ...model.Player) {
	if len(players) == 0 {
		return
	}
	d.mu.Lock()
	for _, p := range players {
		if p.ID == "" {
			continue
		}
		if cur, ok := d.players[p.ID]; ok && cur.Named() && !p.Named() {
			continue
		}
		d.players[p.ID] = p
	}
	size := len(d.players)
	d.mu.Unlock()

	metrics.UpdateDirectorySize(size)
}

// MergeIfUnnamed merges only the players whose identity lacks a named entry.
// It returns how many were merged.
func (d *Directory) MergeIfUnnamed(players ...model.Player) int {
	fresh := make([]model.Player, 0, len(players))
	for _, p := range players {
		if p.ID != "" && p.Named() && !d.HasNamed(p.ID) {
			fresh = append(fresh, p)
		}
	}
	d.MergeProfiles(fresh...)
	return len(fresh)
}

// Missing returns the distinct ids without a named entry, in input order.
func (d *Directory) Missing(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if !d.HasNamed(id) {
			out = append(out, id)
		}
	}
	return out
}

// LoadBatch fetches the ids not yet named and merges what the store returns.
// Ids the store does not know keep resolving to placeholders. On fetch failure
// the directory is left unchanged.
func (d *Directory) LoadBatch(ctx context.Context, ids []string) error {
	missing := d.Missing(ids)
	if len(missing) == 0 {
		return nil
	}
	if d.fetcher == nil {
		d.log.Debug(ctx, "no profile fetcher configured", logger.Int("missing", len(missing)))
		return nil
	}

	found, err := d.fetcher.ProfilesByIDs(ctx, missing)
	if err != nil {
		metrics.RecordDirectoryBatchLoad("error")
		metrics.RecordErrorByComponent("roster", "fetch")
		d.log.Warn(ctx, "profile batch fetch failed", logger.Int("missing", len(missing)), logger.Error(err))
		metrics.RecordPlaceholderResolutions(len(missing))
		return fmt.Errorf("%w: %w", ErrFetchProfiles, err)
	}
	metrics.RecordDirectoryBatchLoad("ok")

	d.MergeProfiles(found...)
	unresolved := len(d.Missing(missing))
	metrics.RecordPlaceholderResolutions(unresolved)
	d.log.Debug(ctx, "profile batch merged",
		logger.Int("requested", len(missing)),
		logger.Int("found", len(found)),
		logger.Int("placeholders", unresolved),
	)
	return nil
}

// Preload merges an initial listing of profiles, e.g. at startup.
func (d *Directory) Preload(ctx context.Context, players []model.Player) {
	d.MergeProfiles(players...)
	d.log.Info(ctx, "directory preloaded", logger.Int("profiles", d.Len()))
}

// Snapshot returns every stored entry ordered by name then id.
func (d *Directory) Snapshot() []model.Player {
	d.mu.RLock()
	out := make([]model.Player, 0, len(d.players))
	for _, p := range d.players {
		out = append(out, p)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}
