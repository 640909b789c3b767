package live

import "encoding/json"

type Message struct {
	Type     string          `json:"type"`
	PuzzleID string          `json:"puzzleId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

// PresencePayload is the per-player state other spectators see: pointer
// position and, while dragging, the piece being held.
type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	HeldPiece   string     `json:"heldPiece,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PresenceStatePayload is the full room state sent to a joining client:
// everyone's presence plus a piece-to-holder index so hands can be drawn
// without replaying updates.
type PresenceStatePayload struct {
	Presences  map[string]*PresencePayload `json:"presences"`
	HeldPieces map[string]string           `json:"heldPieces,omitempty"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// PresenceLeavePayload names the leaver and the piece their hand released,
// if any, so spectators drop the ghost hand immediately.
type PresenceLeavePayload struct {
	UserID        string `json:"userId"`
	ReleasedPiece string `json:"releasedPiece,omitempty"`
}

// WelcomePayload confirms a client's assigned identity on join.
type WelcomePayload struct {
	ClientID    string `json:"clientId"`
	UserID      string `json:"userId"`
	PuzzleID    string `json:"puzzleId"`
	DisplayName string `json:"displayName"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

// GameEventPayload relays an engine event to spectators. Pieces carries
// the affected piece ids; Progress is connected-pair count for the
// progress bar.
type GameEventPayload struct {
	Event    string   `json:"event"`
	Pieces   []string `json:"pieces,omitempty"`
	Progress int      `json:"progress,omitempty"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Engine event relay (server -> spectators, one-way)
	TypeGameEvent = "game.event"
)
