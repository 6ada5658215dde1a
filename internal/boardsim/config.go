package boardsim

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Clients    int           // Concurrent board sessions on the event
	Members    int           // Member profiles created and marked attending
	Drags      int           // Drag gestures per client
	Width      float64       // Surface width every client reports
	Height     float64       // Surface height every client reports
	Timeout    time.Duration // HTTP request timeout
	Settle     time.Duration // How long to wait for clients to converge
	OutputFile string        // Output file for the final board
	LogFile    string        // Log file for run output
	Verbose    bool          // Enable verbose logging
}

// Player is a member profile as the API returns it.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"nombre"`
	Number *int   `json:"numero_polera"`
}

// Coordinate is a marker position.
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Board is a session's view of the active event.
type Board struct {
	SessionID string                `json:"session_id"`
	EventID   string                `json:"event_id"`
	Ready     bool                  `json:"ready"`
	Formation string                `json:"formation"`
	Selection []Player              `json:"selection"`
	Positions map[string]Coordinate `json:"positions"`
}

// Event is the club event the run plays on.
type Event struct {
	ID        string   `json:"id"`
	Title     string   `json:"titulo"`
	Date      string   `json:"fecha"`
	Attendees []string `json:"asistentes"`
	CreatorID string   `json:"creador_id,omitempty"`
}

// DragInput is one pointer event.
type DragInput struct {
	Input    string  `json:"input"`
	PlayerID string  `json:"player_id,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// DragResult is the drag controller's answer.
type DragResult struct {
	Handled    bool        `json:"handled"`
	State      string      `json:"state"`
	Coordinate *Coordinate `json:"coordinate,omitempty"`
}

// SaveResponse is returned by a save.
type SaveResponse struct {
	RecordID string `json:"record_id"`
	Inserted bool   `json:"inserted"`
}

// Stats holds run statistics.
type Stats struct {
	ProfilesCreated int
	SessionsOpened  int
	DragsAttempted  int
	DragsSuccessful int
	DragsFailed     int
	SavesSuccessful int
	SavesFailed     int
	ConvergedAfter  time.Duration
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
