package game

// EventType tags engine notifications delivered to subscribers.
type EventType string

const (
	// EventGenerated fires once after puzzle generation; Count carries the
	// total piece count.
	EventGenerated EventType = "puzzle.generated"
	// EventSuggest fires when two pieces are near enough to hint at a
	// connection but not close enough to confirm it.
	EventSuggest EventType = "connection.suggest"
	// EventConnected fires when a connection is confirmed and the groups
	// merge.
	EventConnected EventType = "connection.confirmed"
	// EventSolved fires when every piece belongs to one group.
	EventSolved EventType = "puzzle.solved"
)

// Event is a single engine notification.
type Event struct {
	Type    EventType `json:"type"`
	PieceID string    `json:"pieceId,omitempty"`
	OtherID string    `json:"otherId,omitempty"`
	Count   int       `json:"count,omitempty"`
}

// Subscribe registers a callback for engine events. Callbacks run
// synchronously on the mutating call; there is no ambient event bus.
func (e *Engine) Subscribe(fn func(Event)) {
	if fn != nil {
		e.subscribers = append(e.subscribers, fn)
	}
}

func (e *Engine) emit(ev Event) {
	for _, fn := range e.subscribers {
		fn(ev)
	}
}
