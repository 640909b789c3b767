// Package live relays puzzle-session activity to spectators over
// websockets. The feed is one-way for game state: the engine runs in the
// player's browser, and the hub only fans its events out to watchers,
// along with pointer presence.
package live

import (
	"encoding/json"
	"log/slog"
	"sync"
)

type Room struct {
	puzzleID string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
}

func NewRoom(puzzleID string) *Room {
	return &Room{
		puzzleID: puzzleID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // puzzleID -> room
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.PuzzleID]
	if !ok {
		room = NewRoom(client.PuzzleID)
		h.rooms[client.PuzzleID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	// Confirm the assigned identity, then the current room state
	welcomePayload, _ := json.Marshal(WelcomePayload{
		ClientID:    client.ClientID,
		UserID:      client.UserID,
		PuzzleID:    client.PuzzleID,
		DisplayName: client.DisplayName,
	})
	client.Send(&Message{Type: TypeWelcome, Payload: welcomePayload})

	stateMsg := room.presence.StateMessage()
	if stateMsg != nil {
		client.Send(stateMsg)
	}

	// Broadcast join to other clients
	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg := &Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}
	h.broadcastToRoom(client.PuzzleID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "puzzle", client.PuzzleID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.PuzzleID]
	if !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	close(client.send)
	released := room.presence.Remove(client.UserID)

	if len(room.clients) == 0 {
		delete(h.rooms, client.PuzzleID)
	}
	h.mu.Unlock()

	// Broadcast leave to remaining clients, releasing any held piece
	leavePayload, _ := json.Marshal(PresenceLeavePayload{
		UserID:        client.UserID,
		ReleasedPiece: released,
	})
	leaveMsg := &Message{
		Type:    TypePresenceLeave,
		UserID:  client.UserID,
		Payload: leavePayload,
	}
	h.broadcastToRoom(client.PuzzleID, leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "puzzle", client.PuzzleID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeGameEvent:
		h.handleGameEvent(sender, msg)
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	h.mu.RLock()
	room, ok := h.rooms[sender.PuzzleID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	room.presence.Update(sender.UserID, &presence)

	// Broadcast to other clients in room
	outPayload, _ := json.Marshal(presence)
	outMsg := &Message{
		Type:    TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: outPayload,
	}
	h.broadcastToRoom(sender.PuzzleID, outMsg, sender.ClientID)
}

// handleGameEvent relays an engine event from the player's client to
// everyone else in the room. The server does not interpret the event;
// the authoritative state lives in snapshots.
func (h *Hub) handleGameEvent(sender *Client, msg *Message) {
	var ev GameEventPayload
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		slog.Warn("invalid game event payload", "error", err)
		return
	}

	outPayload, _ := json.Marshal(ev)
	outMsg := &Message{
		Type:    TypeGameEvent,
		UserID:  sender.UserID,
		Payload: outPayload,
	}
	h.broadcastToRoom(sender.PuzzleID, outMsg, sender.ClientID)
}

func (h *Hub) broadcastToRoom(puzzleID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[puzzleID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
