package piece

import (
	"testing"

	"github.com/interlock/interlock/backend-go/internal/geom"
	"github.com/interlock/interlock/backend-go/internal/lattice"
)

func TestCellID(t *testing.T) {
	tests := []struct {
		col, row int
		want     string
	}{
		{0, 0, "pc_0_0"},
		{3, 1, "pc_3_1"},
		{12, 7, "pc_12_7"},
	}
	for _, tt := range tests {
		if got := CellID(tt.col, tt.row); got != tt.want {
			t.Errorf("CellID(%d,%d) = %q, want %q", tt.col, tt.row, got, tt.want)
		}
	}
}

func TestFromCellLocalFrame(t *testing.T) {
	l := lattice.Generate(400, 400, 16, 42)
	p := FromCell(l, 1, 1)

	if p.ID != "pc_1_1" {
		t.Errorf("ID = %q, want pc_1_1", p.ID)
	}
	if p.Col != 1 || p.Row != 1 {
		t.Errorf("grid position = (%d,%d), want (1,1)", p.Col, p.Row)
	}

	// Corners are cell-local with the NW corner at the origin.
	if p.Corners[NW] != geom.Pt(0, 0) {
		t.Errorf("NW corner = %v, want origin", p.Corners[NW])
	}
	if p.Corners[SE] != geom.Pt(l.CellWidth, l.CellHeight) {
		t.Errorf("SE corner = %v, want (%v,%v)", p.Corners[SE], l.CellWidth, l.CellHeight)
	}

	// SourceRect covers the cell in board space.
	origin := l.CellOrigin(1, 1)
	want := geom.Rect{X: origin.X, Y: origin.Y, Width: l.CellWidth, Height: l.CellHeight}
	if p.SourceRect != want {
		t.Errorf("SourceRect = %v, want %v", p.SourceRect, want)
	}
}

func TestFromCellSides(t *testing.T) {
	l := lattice.Generate(400, 400, 16, 42)

	// Corner cell: two border sides, two interior sides.
	p := FromCell(l, 0, 0)
	for _, s := range []lattice.Side{lattice.North, lattice.West} {
		sp := p.Sides[s]
		if !sp.Border() {
			t.Errorf("side %s of corner cell should be a border", s)
		}
		if len(sp.Points) != 0 {
			t.Errorf("border side %s has %d waypoints, want 0", s, len(sp.Points))
		}
	}
	for _, s := range []lattice.Side{lattice.East, lattice.South} {
		sp := p.Sides[s]
		if sp.Border() {
			t.Errorf("side %s of corner cell should be interior", s)
		}
		if len(sp.Points) != 3 {
			t.Errorf("interior side %s has %d waypoints, want 3", s, len(sp.Points))
		}
		if sp.Kind != lattice.Knob && sp.Kind != lattice.Blank {
			t.Errorf("interior side %s kind = %v, want knob or blank", s, sp.Kind)
		}
	}

	// Interior cell: four interior sides.
	mid := FromCell(l, 1, 1)
	for _, s := range lattice.Sides {
		if mid.Sides[s].Border() {
			t.Errorf("side %s of interior cell should not be a border", s)
		}
	}
}

func TestFromCellWaypointsAreLocal(t *testing.T) {
	l := lattice.Generate(400, 400, 16, 42)
	origin := l.CellOrigin(2, 2)
	p := FromCell(l, 2, 2)

	// Local waypoints plus the cell origin reproduce the board-space edge.
	prof := l.EdgeProfile(2, 2, lattice.East)
	for i, lp := range p.Sides[lattice.East].Points {
		if got := lp.Add(origin); got != prof.Points[i] {
			t.Errorf("waypoint %d: local %v + origin != board %v", i, lp, prof.Points[i])
		}
	}
}

func TestFrame(t *testing.T) {
	l := lattice.Generate(400, 400, 16, 42)

	// The frame covers at least the cell rectangle; knobs only ever
	// enlarge it.
	p := FromCell(l, 1, 1)
	f := p.Frame()

	if f.Width < l.CellWidth || f.Height < l.CellHeight {
		t.Errorf("frame %vx%v smaller than cell %vx%v", f.Width, f.Height, l.CellWidth, l.CellHeight)
	}
	if f.TopLeft.X > 0 || f.TopLeft.Y > 0 {
		t.Errorf("frame top-left %v should not be inside the cell rectangle", f.TopLeft)
	}
	wantCenter := f.TopLeft.Add(geom.Pt(f.Width/2, f.Height/2))
	if f.CenterOffset != wantCenter {
		t.Errorf("CenterOffset = %v, want %v", f.CenterOffset, wantCenter)
	}

	// Cached: repeated calls agree.
	if again := p.Frame(); again != f {
		t.Errorf("second Frame() = %+v, want %+v", again, f)
	}
}
