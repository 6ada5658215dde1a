package gormstore

import (
	"time"

	"github.com/okian/pizarra/internal/adapters/storage"
	"github.com/okian/pizarra/internal/domain/model"
	"gorm.io/datatypes"
)

// profileRow maps the profiles table.
type profileRow struct {
	ID           string `gorm:"primaryKey;size:64"`
	Nombre       string `gorm:"size:255;index"`
	NumeroPolera *int
	Posicion     string `gorm:"size:64"`
	AvatarURL    string
	UpdatedAt    time.Time
}

func (profileRow) TableName() string { return storage.TableProfiles }

func (r profileRow) toModel() model.Player {
	return model.Player{
		ID:        r.ID,
		Name:      r.Nombre,
		Number:    r.NumeroPolera,
		Position:  r.Posicion,
		AvatarURL: r.AvatarURL,
	}
}

func profileFromModel(p model.Player) profileRow {
	return profileRow{
		ID:           p.ID,
		Nombre:       p.Name,
		NumeroPolera: p.Number,
		Posicion:     p.Position,
		AvatarURL:    p.AvatarURL,
	}
}

// eventRow maps the eventos table.
type eventRow struct {
	ID          string `gorm:"primaryKey;size:64"`
	Titulo      string `gorm:"size:255"`
	Fecha       string `gorm:"size:32;index"`
	Hora        string `gorm:"size:16"`
	Lugar       string `gorm:"size:255"`
	Descripcion string
	Asistentes  datatypes.JSONSlice[string]
	CreadorID   string `gorm:"size:64"`
	Tipo        string `gorm:"size:32"`
	Estado      string `gorm:"size:32"`
	CreatedAt   time.Time
}

func (eventRow) TableName() string { return storage.TableEvents }

func (r eventRow) toModel() model.Event {
	attendees := []string(r.Asistentes)
	if attendees == nil {
		attendees = []string{}
	}
	return model.Event{
		ID:          r.ID,
		Title:       r.Titulo,
		Date:        r.Fecha,
		Time:        r.Hora,
		Place:       r.Lugar,
		Description: r.Descripcion,
		Attendees:   attendees,
		CreatorID:   r.CreadorID,
		Type:        r.Tipo,
		Status:      r.Estado,
		CreatedAt:   r.CreatedAt,
	}
}

func eventFromModel(ev model.Event) eventRow {
	return eventRow{
		ID:          ev.ID,
		Titulo:      ev.Title,
		Fecha:       ev.Date,
		Hora:        ev.Time,
		Lugar:       ev.Place,
		Descripcion: ev.Description,
		Asistentes:  datatypes.JSONSlice[string](ev.Attendees),
		CreadorID:   ev.CreatorID,
		Tipo:        ev.Type,
		Estado:      ev.Status,
		CreatedAt:   ev.CreatedAt,
	}
}

// commentRow maps the comentarios table.
type commentRow struct {
	ID        string `gorm:"primaryKey;size:64"`
	EventoID  string `gorm:"size:64;index"`
	UsuarioID string `gorm:"size:64"`
	Texto     string
	CreatedAt time.Time
}

func (commentRow) TableName() string { return storage.TableComments }

func (r commentRow) toModel() model.Comment {
	return model.Comment{
		ID:        r.ID,
		EventID:   r.EventoID,
		AuthorID:  r.UsuarioID,
		Text:      r.Texto,
		CreatedAt: r.CreatedAt,
	}
}

// ratingRow maps the calificaciones_jugadores table.
type ratingRow struct {
	ID           string `gorm:"primaryKey;size:64"`
	JugadorID    string `gorm:"size:64;index:idx_rating_once,unique"`
	UsuarioID    string `gorm:"size:64;index:idx_rating_once,unique"`
	EventoID     string `gorm:"size:64;index:idx_rating_once,unique;index"`
	Calificacion int
	CreatedAt    time.Time
}

func (ratingRow) TableName() string { return storage.TableRatings }

func (r ratingRow) toModel() model.Rating {
	return model.Rating{
		ID:        r.ID,
		PlayerID:  r.JugadorID,
		RaterID:   r.UsuarioID,
		EventID:   r.EventoID,
		Stars:     r.Calificacion,
		CreatedAt: r.CreatedAt,
	}
}

// boardRow maps the pizarras_tacticas table.
type boardRow struct {
	ID                     string `gorm:"primaryKey;size:64"`
	EventoID               string `gorm:"size:64;index"`
	Formacion              string `gorm:"size:32"`
	JugadoresSeleccionados datatypes.JSON
	Posiciones             datatypes.JSON
	UltimaActualizacion    time.Time
}

func (boardRow) TableName() string { return storage.TableBoards }

func (r boardRow) toModel() model.BoardRecord {
	return model.BoardRecord{
		ID:        r.ID,
		EventID:   r.EventoID,
		Formation: r.Formacion,
		Selected:  []byte(r.JugadoresSeleccionados),
		Positions: []byte(r.Posiciones),
		UpdatedAt: r.UltimaActualizacion,
	}
}

func boardFromModel(rec model.BoardRecord) boardRow {
	return boardRow{
		ID:                     rec.ID,
		EventoID:               rec.EventID,
		Formacion:              rec.Formation,
		JugadoresSeleccionados: jsonOr(rec.Selected, "[]"),
		Posiciones:             jsonOr(rec.Positions, "{}"),
		UltimaActualizacion:    rec.UpdatedAt,
	}
}

func jsonOr(raw []byte, fallback string) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON(fallback)
	}
	return datatypes.JSON(raw)
}

// allModels lists every table for migration.
func allModels() []any {
	return []any{&profileRow{}, &eventRow{}, &commentRow{}, &ratingRow{}, &boardRow{}}
}
