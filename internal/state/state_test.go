package state

import (
	"reflect"
	"testing"

	"github.com/interlock/interlock/backend-go/internal/game"
	"github.com/interlock/interlock/backend-go/internal/geom"
	"github.com/interlock/interlock/backend-go/internal/table"
)

func TestCaptureRestoreRoundTrip(t *testing.T) {
	eng := game.NewEngine()
	eng.NewPuzzle(200, 200, 4, 9)

	// Mutate the board: move pieces around, stack one, assemble a pair.
	lat := eng.Lattice()
	tab := eng.Table()
	tab.SetPiecePosition("pc_0_1", geom.Pt(300, 50))
	tab.SetPieceRotation("pc_0_1", 90)
	tab.BringToFront("pc_0_1")
	eng.DragEnd("pc_1_0", lat.CellOrigin(1, 0))
	if !eng.Groups().SameGroup("pc_1_0", "pc_0_0") {
		t.Fatal("setup connection failed")
	}

	doc := Capture(eng, Puzzle{ID: "pz_test", Name: "Test", Width: 200, Height: 200, Target: 4, Seed: 9})

	if doc.Puzzle.Rows != 2 || doc.Puzzle.Cols != 2 {
		t.Errorf("captured grid = %dx%d, want 2x2", doc.Puzzle.Rows, doc.Puzzle.Cols)
	}
	if len(doc.Transforms) != 4 || len(doc.ZOrder) != 4 {
		t.Errorf("captured %d transforms and %d z values, want 4 each", len(doc.Transforms), len(doc.ZOrder))
	}
	if len(doc.Connections) == 0 {
		t.Error("captured no connections")
	}

	data, err := Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	parsed, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	restored := game.NewEngine()
	if err := Restore(restored, parsed); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	// Transforms, z-order, and grouping survive the round trip.
	for id, want := range doc.Transforms {
		got, ok := restored.Table().Transform(id)
		if !ok {
			t.Fatalf("restored engine missing %s", id)
		}
		if got != want {
			t.Errorf("%s transform = %+v, want %+v", id, got, want)
		}
	}
	for id, want := range doc.ZOrder {
		if got := restored.Table().ZOrder(id); got != want {
			t.Errorf("%s z = %v, want %v", id, got, want)
		}
	}
	if !restored.Groups().SameGroup("pc_1_0", "pc_0_0") {
		t.Error("restored engine lost the connection")
	}
	if !reflect.DeepEqual(restored.Groups().Connections(), doc.Connections) {
		t.Errorf("restored connections = %v, want %v", restored.Groups().Connections(), doc.Connections)
	}

	// Piece boundaries regenerate identically from the seed.
	a := eng.Table().Piece("pc_1_1")
	b := restored.Table().Piece("pc_1_1")
	if !reflect.DeepEqual(a.Sides, b.Sides) {
		t.Error("regenerated piece geometry differs from the original")
	}
}

func TestRestoreKeepsSolved(t *testing.T) {
	eng := game.NewEngine()
	eng.NewPuzzle(200, 200, 4, 9)
	lat := eng.Lattice()

	// Assemble the whole 2x2 board.
	drops := []struct {
		id       string
		col, row int
	}{
		{"pc_1_0", 1, 0},
		{"pc_0_1", 0, 1},
		{"pc_1_1", 1, 1},
	}
	for _, d := range drops {
		eng.DragEnd(d.id, lat.CellOrigin(d.col, d.row))
	}
	if !eng.Solved() {
		t.Fatal("setup did not solve the puzzle")
	}

	doc := Capture(eng, Puzzle{ID: "pz_test", Width: 200, Height: 200, Target: 4, Seed: 9})

	restored := game.NewEngine()
	if err := Restore(restored, doc); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !restored.Solved() {
		t.Error("restored engine lost the solved state")
	}
}

func TestRestoreValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  *Document
	}{
		{"nil document", nil},
		{"zero dimensions", &Document{}},
		{
			"negative width",
			&Document{Puzzle: Puzzle{Width: -10, Height: 100, Target: 4}},
		},
		{
			"grid mismatch",
			&Document{Puzzle: Puzzle{Width: 200, Height: 200, Target: 4, Seed: 9, Rows: 5, Cols: 7}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Restore(game.NewEngine(), tt.doc); err == nil {
				t.Error("expected a restore error")
			}
		})
	}
}

func TestRestoreIgnoresUnknownPieces(t *testing.T) {
	// Transforms carry a stray id; it must not break the load.
	doc := &Document{
		Puzzle: Puzzle{Width: 200, Height: 200, Target: 4, Seed: 9},
		Transforms: map[string]table.Transform{
			"pc_99_99": {Position: geom.Pt(1, 2), Scale: 1},
		},
	}

	eng := game.NewEngine()
	if err := Restore(eng, doc); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if eng.PieceCount() != 4 {
		t.Errorf("piece count = %d, want 4", eng.PieceCount())
	}
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	if _, err := Unmarshal([]byte("{not json")); err == nil {
		t.Error("expected a parse error")
	}
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument("pz_1", "Sunset", "img_1", 800, 600, 24, 77)

	if doc.Puzzle.ID != "pz_1" || doc.Puzzle.Seed != 77 {
		t.Errorf("metadata = %+v", doc.Puzzle)
	}
	if doc.Transforms == nil || doc.ZOrder == nil {
		t.Error("maps must be initialized")
	}
	if doc.Puzzle.CreatedAt == "" || doc.Puzzle.CreatedAt != doc.Puzzle.UpdatedAt {
		t.Errorf("timestamps = %q/%q", doc.Puzzle.CreatedAt, doc.Puzzle.UpdatedAt)
	}
}

func TestSampleDocument(t *testing.T) {
	doc := NewSampleDocument("pz_playground")

	if doc.Puzzle.ID != "pz_playground" {
		t.Errorf("sample puzzle id = %q", doc.Puzzle.ID)
	}
	if len(doc.Transforms) == 0 {
		t.Fatal("sample document has no pieces")
	}

	// Deterministic: building it twice yields identical state.
	again := NewSampleDocument("pz_playground")
	if !reflect.DeepEqual(doc.Transforms, again.Transforms) {
		t.Error("sample scatter is not deterministic")
	}

	// And it restores cleanly.
	if err := Restore(game.NewEngine(), doc); err != nil {
		t.Errorf("sample document restore: %v", err)
	}
}
