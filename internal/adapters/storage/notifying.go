package storage

import (
	"context"

	"github.com/okian/pizarra/internal/adapters/mq/feed"
	"github.com/okian/pizarra/internal/domain/model"
)

// Notifying wraps a Store and publishes a change notification after every
// successful board insert or update, the way the hosted database's realtime
// channel would.
type Notifying struct {
	Store
	pub feed.Publisher
}

// NewNotifying decorates s with change publication on pub.
func NewNotifying(s Store, pub feed.Publisher) *Notifying {
	return &Notifying{Store: s, pub: pub}
}

// InsertBoard implements BoardStore.
func (n *Notifying) InsertBoard(ctx context.Context, rec model.BoardRecord) (model.BoardRecord, error) {
	out, err := n.Store.InsertBoard(ctx, rec)
	if err != nil {
		return out, err
	}
	n.publish(ctx, feed.Insert, out)
	return out, nil
}

// UpdateBoard implements BoardStore.
func (n *Notifying) UpdateBoard(ctx context.Context, rec model.BoardRecord) (model.BoardRecord, error) {
	out, err := n.Store.UpdateBoard(ctx, rec)
	if err != nil {
		return out, err
	}
	n.publish(ctx, feed.Update, out)
	return out, nil
}

func (n *Notifying) publish(ctx context.Context, typ feed.ChangeType, rec model.BoardRecord) {
	n.pub.Publish(ctx, feed.Notification{
		Table: TableBoards,
		Type:  typ,
		Row: map[string]string{
			"id":        rec.ID,
			"evento_id": rec.EventID,
		},
		At: rec.UpdatedAt,
	})
}
