package live

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// PresenceManager tracks who is at the table: cursor positions and which
// piece each player's hand is on. Held pieces are indexed by piece id so a
// joining spectator gets the full picture from one state message.
type PresenceManager struct {
	mu        sync.RWMutex
	presences map[string]*PresencePayload // userID -> presence
	held      map[string]string           // pieceID -> userID
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]*PresencePayload),
		held:      make(map[string]string),
	}
}

// Update records a player's presence. Changing the held piece releases the
// previous one; a piece already in someone else's hand stays theirs, and
// the update is stored with the hold stripped.
func (pm *PresenceManager) Update(userID string, p *PresencePayload) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if prev, ok := pm.presences[userID]; ok && prev.HeldPiece != "" && prev.HeldPiece != p.HeldPiece {
		delete(pm.held, prev.HeldPiece)
	}
	if p.HeldPiece != "" {
		if holder, taken := pm.held[p.HeldPiece]; taken && holder != userID {
			p.HeldPiece = ""
		} else {
			pm.held[p.HeldPiece] = userID
		}
	}
	pm.presences[userID] = p
}

// Remove drops a player and returns the piece id their hand released, or
// "" if they were not holding one.
func (pm *PresenceManager) Remove(userID string) string {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	released := ""
	if prev, ok := pm.presences[userID]; ok && prev.HeldPiece != "" {
		released = prev.HeldPiece
		delete(pm.held, prev.HeldPiece)
	}
	delete(pm.presences, userID)
	return released
}

// Holder returns the user holding a piece, or "".
func (pm *PresenceManager) Holder(pieceID string) string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.held[pieceID]
}

func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	result := make(map[string]*PresencePayload, len(pm.presences))
	for k, v := range pm.presences {
		result[k] = v
	}
	return result
}

func (pm *PresenceManager) StateMessage() *Message {
	pm.mu.RLock()
	presences := make(map[string]*PresencePayload, len(pm.presences))
	for k, v := range pm.presences {
		presences[k] = v
	}
	held := make(map[string]string, len(pm.held))
	for k, v := range pm.held {
		held[k] = v
	}
	pm.mu.RUnlock()

	payload, err := json.Marshal(PresenceStatePayload{
		Presences:  presences,
		HeldPieces: held,
	})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{
		Type:    TypePresenceState,
		Payload: payload,
	}
}
