package model

import "time"

// Event is a scheduled match or training session.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"titulo"`
	Date        string    `json:"fecha"`
	Time        string    `json:"hora"`
	Place       string    `json:"lugar"`
	Description string    `json:"descripcion"`
	Attendees   []string  `json:"asistentes"`
	CreatorID   string    `json:"creador_id,omitempty"`
	Type        string    `json:"tipo,omitempty"`
	Status      string    `json:"estado,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Attends reports whether playerID is on the attendee list.
func (e Event) Attends(playerID string) bool {
	for _, id := range e.Attendees {
		if id == playerID {
			return true
		}
	}
	return false
}

// Comment is a message left on an event.
type Comment struct {
	ID         string    `json:"id"`
	EventID    string    `json:"evento_id"`
	AuthorID   string    `json:"usuario_id"`
	Text       string    `json:"texto"`
	CreatedAt  time.Time `json:"created_at"`
	AuthorName string    `json:"usuario_nombre,omitempty"`
}

// Rating is one member's star rating of a teammate for an event.
type Rating struct {
	ID        string    `json:"id"`
	PlayerID  string    `json:"jugador_id"`
	RaterID   string    `json:"usuario_id"`
	EventID   string    `json:"evento_id"`
	Stars     int       `json:"calificacion"`
	CreatedAt time.Time `json:"created_at"`
}
