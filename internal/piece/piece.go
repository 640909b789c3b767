package piece

import (
	"fmt"

	"github.com/interlock/interlock/backend-go/internal/geom"
	"github.com/interlock/interlock/backend-go/internal/lattice"
)

// Corner identifies one of the four corner points of a piece.
type Corner string

const (
	NW Corner = "nw"
	NE Corner = "ne"
	SE Corner = "se"
	SW Corner = "sw"
)

// Corners lists all piece corners in a fixed order.
var Corners = []Corner{NW, NE, SE, SW}

// SideProfile is the shape of one piece side: either a border side with no
// waypoints, or an interior side carrying exactly three local-frame
// waypoints describing its knob or blank.
type SideProfile struct {
	Kind   lattice.SideKind `json:"kind"`
	Points []geom.Point     `json:"points,omitempty"`
}

// Border reports whether the side lies on the lattice border.
func (s SideProfile) Border() bool {
	return s.Kind == lattice.Flat
}

// Frame is the bounding frame of a piece's local geometry, including any
// knob extents beyond the cell rectangle.
type Frame struct {
	TopLeft      geom.Point `json:"topLeft"`
	BottomRight  geom.Point `json:"bottomRight"`
	Width        float64    `json:"width"`
	Height       float64    `json:"height"`
	CenterOffset geom.Point `json:"centerOffset"`
}

// Piece is one cell of the lattice cut into a puzzle piece. Geometry is in
// the piece's local frame, with the cell's north-west corner at the origin.
// Local geometry is immutable after construction.
type Piece struct {
	ID       string
	Col, Row int

	// SourceRect is the placement rectangle in the source image that this
	// piece's cell covers (knob overhang excluded).
	SourceRect geom.Rect

	Corners map[Corner]geom.Point
	Sides   map[lattice.Side]SideProfile

	frame *Frame
}

// ID format is fixed so regenerating a puzzle from the same seed yields the
// same piece identifiers.
func CellID(col, row int) string {
	return fmt.Sprintf("pc_%d_%d", col, row)
}

// FromCell cuts the piece for cell (col, row) out of the lattice.
// Border sides get an empty waypoint array; interior sides get exactly
// three local-frame waypoints.
func FromCell(l *lattice.Lattice, col, row int) *Piece {
	origin := l.CellOrigin(col, row)

	p := &Piece{
		ID:  CellID(col, row),
		Col: col,
		Row: row,
		SourceRect: geom.Rect{
			X:      origin.X,
			Y:      origin.Y,
			Width:  l.CellWidth,
			Height: l.CellHeight,
		},
		Corners: map[Corner]geom.Point{
			NW: geom.Pt(0, 0),
			NE: geom.Pt(l.CellWidth, 0),
			SE: geom.Pt(l.CellWidth, l.CellHeight),
			SW: geom.Pt(0, l.CellHeight),
		},
		Sides: make(map[lattice.Side]SideProfile, 4),
	}

	for _, s := range lattice.Sides {
		prof := l.EdgeProfile(col, row, s)
		kind := l.SideKind(col, row, s)
		if prof.Flat {
			p.Sides[s] = SideProfile{Kind: kind}
			continue
		}
		pts := make([]geom.Point, len(prof.Points))
		for i, bp := range prof.Points {
			pts[i] = bp.Sub(origin)
		}
		p.Sides[s] = SideProfile{Kind: kind, Points: pts}
	}

	return p
}

// Frame returns the piece's bounding frame, derived from the extent of its
// corners and side waypoints. Computed once and cached permanently: local
// geometry never changes after construction.
func (p *Piece) Frame() Frame {
	if p.frame != nil {
		return *p.frame
	}

	pts := make([]geom.Point, 0, 16)
	for _, c := range Corners {
		pts = append(pts, p.Corners[c])
	}
	for _, s := range lattice.Sides {
		pts = append(pts, p.Sides[s].Points...)
	}

	b := geom.BoundsOf(pts)
	f := Frame{
		TopLeft:      geom.Pt(b.X, b.Y),
		BottomRight:  geom.Pt(b.X+b.Width, b.Y+b.Height),
		Width:        b.Width,
		Height:       b.Height,
		CenterOffset: geom.Pt(b.X+b.Width/2, b.Y+b.Height/2),
	}
	p.frame = &f
	return f
}
