package live

import (
	"encoding/json"
	"testing"
)

func TestHeldPieceTracking(t *testing.T) {
	pm := NewPresenceManager()

	pm.Update("user_a", &PresencePayload{HeldPiece: "pc_0_0"})
	if got := pm.Holder("pc_0_0"); got != "user_a" {
		t.Fatalf("holder = %q, want user_a", got)
	}

	// A second hand on the same piece is stripped, not stolen.
	p := &PresencePayload{HeldPiece: "pc_0_0"}
	pm.Update("user_b", p)
	if p.HeldPiece != "" {
		t.Errorf("second hold not stripped, payload holds %q", p.HeldPiece)
	}
	if got := pm.Holder("pc_0_0"); got != "user_a" {
		t.Errorf("holder after contested update = %q, want user_a", got)
	}

	// Picking up a new piece releases the old one.
	pm.Update("user_a", &PresencePayload{HeldPiece: "pc_1_0"})
	if got := pm.Holder("pc_0_0"); got != "" {
		t.Errorf("released piece still held by %q", got)
	}
	if got := pm.Holder("pc_1_0"); got != "user_a" {
		t.Errorf("holder of new piece = %q, want user_a", got)
	}
}

func TestRemoveReleasesHeldPiece(t *testing.T) {
	pm := NewPresenceManager()
	pm.Update("user_a", &PresencePayload{HeldPiece: "pc_2_2"})

	if released := pm.Remove("user_a"); released != "pc_2_2" {
		t.Errorf("released = %q, want pc_2_2", released)
	}
	if got := pm.Holder("pc_2_2"); got != "" {
		t.Errorf("piece still held by %q after remove", got)
	}

	if released := pm.Remove("user_absent"); released != "" {
		t.Errorf("removing an unknown user released %q", released)
	}
}

func TestStateMessageIncludesHeldPieces(t *testing.T) {
	pm := NewPresenceManager()
	pm.Update("user_a", &PresencePayload{
		Cursor:    &CursorPos{X: 10, Y: 20},
		HeldPiece: "pc_0_1",
	})

	msg := pm.StateMessage()
	if msg == nil {
		t.Fatal("nil state message")
	}
	if msg.Type != TypePresenceState {
		t.Fatalf("type = %q, want %q", msg.Type, TypePresenceState)
	}

	var payload PresenceStatePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.HeldPieces["pc_0_1"] != "user_a" {
		t.Errorf("held pieces = %v, want pc_0_1 -> user_a", payload.HeldPieces)
	}
	if payload.Presences["user_a"] == nil || payload.Presences["user_a"].Cursor.X != 10 {
		t.Errorf("presences = %v, missing user_a cursor", payload.Presences)
	}
}
