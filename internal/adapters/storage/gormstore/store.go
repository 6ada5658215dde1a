// Package gormstore implements the club store on gorm, with postgres in
// production and sqlite for development and tests.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/okian/pizarra/internal/adapters/storage"
	"github.com/okian/pizarra/internal/domain/model"
	"github.com/okian/pizarra/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store implements storage.Store on a gorm connection.
type Store struct {
	db  *gorm.DB
	log logger.Logger
	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

// Open connects with driver and dsn, migrates the schema and returns a Store.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		})
	default:
		return nil, fmt.Errorf("%w: unknown driver %q", storage.ErrInvalidInput, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	s := New(db, opts...)
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	s.log.Info(ctx, "store opened", logger.String("driver", driver))
	return s, nil
}

// New wraps an existing connection. The schema is not migrated.
func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:  db,
		log: logger.Nop(),
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates or updates every table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, storage.ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", what, id, err)
}

// --- boards ---

// FindBoard implements storage.BoardStore. With more than one row for the
// event the most recently updated wins.
func (s *Store) FindBoard(ctx context.Context, eventID string) (model.BoardRecord, error) {
	var rows []boardRow
	err := s.db.WithContext(ctx).
		Where("evento_id = ?", eventID).
		Order("ultima_actualizacion DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return model.BoardRecord{}, fmt.Errorf("find board %s: %w", eventID, err)
	}
	if len(rows) == 0 {
		return model.BoardRecord{}, fmt.Errorf("board for %s: %w", eventID, storage.ErrNotFound)
	}
	return rows[0].toModel(), nil
}

// InsertBoard implements storage.BoardStore.
func (s *Store) InsertBoard(ctx context.Context, rec model.BoardRecord) (model.BoardRecord, error) {
	if rec.EventID == "" {
		return model.BoardRecord{}, fmt.Errorf("%w: board without event id", storage.ErrInvalidInput)
	}
	row := boardFromModel(rec)
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.UltimaActualizacion.IsZero() {
		row.UltimaActualizacion = s.now()
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.BoardRecord{}, fmt.Errorf("insert board %s: %w", rec.EventID, err)
	}
	return row.toModel(), nil
}

// UpdateBoard implements storage.BoardStore.
func (s *Store) UpdateBoard(ctx context.Context, rec model.BoardRecord) (model.BoardRecord, error) {
	if rec.ID == "" {
		return model.BoardRecord{}, fmt.Errorf("%w: board without id", storage.ErrInvalidInput)
	}
	row := boardFromModel(rec)
	if row.UltimaActualizacion.IsZero() {
		row.UltimaActualizacion = s.now()
	}
	res := s.db.WithContext(ctx).Model(&boardRow{}).Where("id = ?", row.ID).Updates(map[string]any{
		"evento_id":               row.EventoID,
		"formacion":               row.Formacion,
		"jugadores_seleccionados": row.JugadoresSeleccionados,
		"posiciones":              row.Posiciones,
		"ultima_actualizacion":    row.UltimaActualizacion,
	})
	if res.Error != nil {
		return model.BoardRecord{}, fmt.Errorf("update board %s: %w", row.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.BoardRecord{}, fmt.Errorf("board %s: %w", row.ID, storage.ErrNotFound)
	}
	return row.toModel(), nil
}

// --- profiles ---

// ListProfiles implements storage.ProfileStore. limit <= 0 lists everything.
func (s *Store) ListProfiles(ctx context.Context, limit int) ([]model.Player, error) {
	q := s.db.WithContext(ctx).Order("nombre ASC").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []profileRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	out := make([]model.Player, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// ProfilesByIDs implements storage.ProfileStore. Unknown ids are skipped.
func (s *Store) ProfilesByIDs(ctx context.Context, ids []string) ([]model.Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []profileRow
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("profiles by ids: %w", err)
	}
	out := make([]model.Player, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// UpsertProfile implements storage.ProfileStore.
func (s *Store) UpsertProfile(ctx context.Context, p model.Player) (model.Player, error) {
	if p.ID == "" {
		return model.Player{}, fmt.Errorf("%w: profile without id", storage.ErrInvalidInput)
	}
	row := profileFromModel(p)
	row.UpdatedAt = s.now()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return model.Player{}, fmt.Errorf("upsert profile %s: %w", p.ID, err)
	}
	return row.toModel(), nil
}

// --- events ---

// GetEvent implements storage.EventStore.
func (s *Store) GetEvent(ctx context.Context, id string) (model.Event, error) {
	var row eventRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return model.Event{}, notFound(err, "event", id)
	}
	return row.toModel(), nil
}

// ListEvents implements storage.EventStore, ordered by date.
func (s *Store) ListEvents(ctx context.Context) ([]model.Event, error) {
	var rows []eventRow
	if err := s.db.WithContext(ctx).Order("fecha ASC").Order("hora ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := make([]model.Event, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// CreateEvent implements storage.EventStore. The creator attends by default.
func (s *Store) CreateEvent(ctx context.Context, ev model.Event) (model.Event, error) {
	if ev.Title == "" {
		return model.Event{}, fmt.Errorf("%w: event without title", storage.ErrInvalidInput)
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatorID != "" && !ev.Attends(ev.CreatorID) {
		ev.Attendees = append(ev.Attendees, ev.CreatorID)
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.now()
	}
	row := eventFromModel(ev)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.Event{}, fmt.Errorf("create event: %w", err)
	}
	return row.toModel(), nil
}

// SetAttendance implements storage.EventStore.
func (s *Store) SetAttendance(ctx context.Context, eventID, playerID string, attending bool) (model.Event, error) {
	if playerID == "" {
		return model.Event{}, fmt.Errorf("%w: attendance without player", storage.ErrInvalidInput)
	}
	var out model.Event
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row eventRow
		if err := tx.First(&row, "id = ?", eventID).Error; err != nil {
			return notFound(err, "event", eventID)
		}
		ev := row.toModel()
		ev.Attendees = toggleAttendee(ev.Attendees, playerID, attending)
		if err := tx.Model(&eventRow{}).Where("id = ?", eventID).
			Update("asistentes", eventFromModel(ev).Asistentes).Error; err != nil {
			return fmt.Errorf("update attendance %s: %w", eventID, err)
		}
		out = ev
		return nil
	})
	if err != nil {
		return model.Event{}, err
	}
	return out, nil
}

func toggleAttendee(attendees []string, playerID string, attending bool) []string {
	out := make([]string, 0, len(attendees)+1)
	present := false
	for _, id := range attendees {
		if id == playerID {
			present = true
			if !attending {
				continue
			}
		}
		out = append(out, id)
	}
	if attending && !present {
		out = append(out, playerID)
	}
	return out
}

// --- comments ---

// ListComments implements storage.CommentStore, oldest first, with author names.
func (s *Store) ListComments(ctx context.Context, eventID string) ([]model.Comment, error) {
	var rows []commentRow
	if err := s.db.WithContext(ctx).Where("evento_id = ?", eventID).
		Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list comments %s: %w", eventID, err)
	}

	authorIDs := make([]string, 0, len(rows))
	for _, r := range rows {
		authorIDs = append(authorIDs, r.UsuarioID)
	}
	authors, err := s.ProfilesByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(authors))
	for _, a := range authors {
		names[a.ID] = a.Name
	}

	out := make([]model.Comment, 0, len(rows))
	for _, r := range rows {
		c := r.toModel()
		c.AuthorName = names[c.AuthorID]
		out = append(out, c)
	}
	return out, nil
}

// AddComment implements storage.CommentStore.
func (s *Store) AddComment(ctx context.Context, c model.Comment) (model.Comment, error) {
	if c.EventID == "" || c.AuthorID == "" || c.Text == "" {
		return model.Comment{}, fmt.Errorf("%w: comment needs event, author and text", storage.ErrInvalidInput)
	}
	row := commentRow{
		ID:        uuid.NewString(),
		EventoID:  c.EventID,
		UsuarioID: c.AuthorID,
		Texto:     c.Text,
		CreatedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.Comment{}, fmt.Errorf("add comment: %w", err)
	}
	return row.toModel(), nil
}

// --- ratings ---

// ListRatings implements storage.RatingStore.
func (s *Store) ListRatings(ctx context.Context, eventID string) ([]model.Rating, error) {
	var rows []ratingRow
	if err := s.db.WithContext(ctx).Where("evento_id = ?", eventID).
		Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list ratings %s: %w", eventID, err)
	}
	out := make([]model.Rating, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// UpsertRating implements storage.RatingStore: the rater's existing rating
// of the player for the event is updated, otherwise a new one is created.
func (s *Store) UpsertRating(ctx context.Context, r model.Rating) (model.Rating, error) {
	var out ratingRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []ratingRow
		if err := tx.Where("jugador_id = ? AND usuario_id = ? AND evento_id = ?",
			r.PlayerID, r.RaterID, r.EventID).Limit(1).Find(&existing).Error; err != nil {
			return err
		}
		if len(existing) > 0 {
			out = existing[0]
			out.Calificacion = r.Stars
			return tx.Model(&ratingRow{}).Where("id = ?", out.ID).Update("calificacion", r.Stars).Error
		}
		out = ratingRow{
			ID:           uuid.NewString(),
			JugadorID:    r.PlayerID,
			UsuarioID:    r.RaterID,
			EventoID:     r.EventID,
			Calificacion: r.Stars,
			CreatedAt:    s.now(),
		}
		return tx.Create(&out).Error
	})
	if err != nil {
		return model.Rating{}, fmt.Errorf("upsert rating: %w", err)
	}
	return out.toModel(), nil
}
