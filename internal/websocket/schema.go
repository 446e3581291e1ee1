package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// Request is any client message. QuestionID and Answer are read for autosave.
type Request struct {
	Action     Action `json:"action"`
	QuestionID string `json:"question_id,omitempty"`
	Answer     string `json:"answer"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError  Event = "error"
	EventSaved  Event = "saved"
	EventGraded Event = "graded"
	EventPong   Event = "pong"
)

type SavedResponse struct {
	Event      Event  `json:"event"`
	QuestionID string `json:"question_id"`
}

type GradedResponse struct {
	Event       Event    `json:"event"`
	SessionID   string   `json:"session_id"`
	Score       *int     `json:"score"`
	TotalPoints *int     `json:"total_points"`
	Percentage  *float64 `json:"percentage"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// PongResponse answers a ping with the time left on the session timer.
type PongResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds int   `json:"remaining_seconds"`
}
