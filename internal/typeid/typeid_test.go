package typeid

import (
	"strings"
	"testing"
)

func TestNewCarriesPrefix(t *testing.T) {
	tests := []struct {
		name   string
		gen    func() string
		prefix string
	}{
		{"user", NewUserID, PrefixUser},
		{"puzzle", NewPuzzleID, PrefixPuzzle},
		{"snapshot", NewSnapshotID, PrefixSnapshot},
		{"session", NewSessionID, PrefixSession},
		{"image", NewImageID, PrefixImage},
		{"guest", NewGuestID, PrefixGuest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := tt.gen()
			if !strings.HasPrefix(id, tt.prefix+"_") {
				t.Errorf("id %q missing prefix %q", id, tt.prefix)
			}
			if err := Validate(id, tt.prefix); err != nil {
				t.Errorf("Validate(%q): %v", id, err)
			}
		})
	}
}

func TestValidateRejectsWrongPrefix(t *testing.T) {
	id := NewUserID()
	if err := Validate(id, PrefixPuzzle); err == nil {
		t.Error("expected a prefix mismatch error")
	}
	if err := Validate("not-a-typeid", PrefixUser); err == nil {
		t.Error("expected a parse error")
	}
}

func TestUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewPuzzleID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
