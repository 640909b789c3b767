package lattice

import (
	"math/rand/v2"

	"github.com/interlock/interlock/backend-go/internal/geom"
)

// Side identifies one of the four sides of a cell.
type Side string

const (
	North Side = "north"
	East  Side = "east"
	South Side = "south"
	West  Side = "west"
)

// Sides lists all cell sides in a fixed order.
var Sides = []Side{North, East, South, West}

// SideKind classifies the shape of a cell side.
type SideKind int

const (
	// Flat marks a side on the lattice border.
	Flat SideKind = iota
	// Knob marks a side whose profile bulges out of the cell.
	Knob
	// Blank marks a side whose profile notches into the cell.
	Blank
)

// knobDepth is the perpendicular displacement of the middle waypoint,
// as a fraction of the smaller cell dimension.
const knobDepth = 0.2

// Waypoint sample positions along an interior edge.
var waypointT = [3]float64{0.35, 0.5, 0.65}

// Profile is the waypoint profile of one lattice edge in board space.
// Border edges are degenerate: all three points coincide at the edge
// midpoint and Flat is true.
type Profile struct {
	Points [3]geom.Point
	Flat   bool
	// bulgePositive records whether the middle waypoint is displaced
	// toward +y (horizontal edges) or +x (vertical edges). Fixed at
	// generation time; both owning cells derive their knob/blank kind
	// from this single flag, so the assignment is always inverse.
	bulgePositive bool
}

// Lattice is the grid of corner points and edge profiles from which all
// pieces are cut. Geometry is immutable after generation.
type Lattice struct {
	Rows, Cols            int
	Width, Height         float64
	CellWidth, CellHeight float64

	corners [][]geom.Point // (rows+1) x (cols+1)
	hEdges  [][]Profile    // (rows+1) rows of cols horizontal edges
	vEdges  [][]Profile    // rows rows of (cols+1) vertical edges
}

// Generate builds a lattice for an image of the given dimensions and a
// target piece count. The seed fixes all knob/blank assignments, so the
// same inputs always produce the same geometry.
func Generate(width, height float64, target int, seed uint64) *Lattice {
	aspect := 1.0
	if height > 0 {
		aspect = width / height
	}
	rows, cols := ChooseGrid(aspect, target)

	l := &Lattice{
		Rows:       rows,
		Cols:       cols,
		Width:      width,
		Height:     height,
		CellWidth:  width / float64(cols),
		CellHeight: height / float64(rows),
	}

	l.corners = make([][]geom.Point, rows+1)
	for r := 0; r <= rows; r++ {
		l.corners[r] = make([]geom.Point, cols+1)
		for c := 0; c <= cols; c++ {
			l.corners[r][c] = geom.Pt(float64(c)*l.CellWidth, float64(r)*l.CellHeight)
		}
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	depth := knobDepth * min(l.CellWidth, l.CellHeight)

	l.hEdges = make([][]Profile, rows+1)
	for r := 0; r <= rows; r++ {
		l.hEdges[r] = make([]Profile, cols)
		for c := 0; c < cols; c++ {
			a, b := l.corners[r][c], l.corners[r][c+1]
			if r == 0 || r == rows {
				l.hEdges[r][c] = flatProfile(a, b)
				continue
			}
			l.hEdges[r][c] = edgeProfile(a, b, geom.Pt(0, depth), rng.IntN(2) == 0)
		}
	}

	l.vEdges = make([][]Profile, rows)
	for r := 0; r < rows; r++ {
		l.vEdges[r] = make([]Profile, cols+1)
		for c := 0; c <= cols; c++ {
			a, b := l.corners[r][c], l.corners[r+1][c]
			if c == 0 || c == cols {
				l.vEdges[r][c] = flatProfile(a, b)
				continue
			}
			l.vEdges[r][c] = edgeProfile(a, b, geom.Pt(depth, 0), rng.IntN(2) == 0)
		}
	}

	return l
}

func flatProfile(a, b geom.Point) Profile {
	mid := a.Lerp(b, 0.5)
	return Profile{Points: [3]geom.Point{mid, mid, mid}, Flat: true}
}

func edgeProfile(a, b, normal geom.Point, bulgePositive bool) Profile {
	sign := 1.0
	if !bulgePositive {
		sign = -1.0
	}
	return Profile{
		Points: [3]geom.Point{
			a.Lerp(b, waypointT[0]),
			a.Lerp(b, waypointT[1]).Add(normal.Scale(sign)),
			a.Lerp(b, waypointT[2]),
		},
		bulgePositive: bulgePositive,
	}
}

// Corner returns the board-space corner point at grid position (col, row).
func (l *Lattice) Corner(col, row int) geom.Point {
	return l.corners[row][col]
}

// CellOrigin returns the board-space north-west corner of cell (col, row).
func (l *Lattice) CellOrigin(col, row int) geom.Point {
	return l.corners[row][col]
}

// EdgeProfile returns the profile of the given side of cell (col, row).
func (l *Lattice) EdgeProfile(col, row int, s Side) Profile {
	switch s {
	case North:
		return l.hEdges[row][col]
	case South:
		return l.hEdges[row+1][col]
	case West:
		return l.vEdges[row][col]
	default:
		return l.vEdges[row][col+1]
	}
}

// SideKind reports whether the given side of cell (col, row) is a knob,
// a blank, or flat (border). A profile displaced away from the cell is a
// knob for that cell and, by construction, a blank for its neighbor.
func (l *Lattice) SideKind(col, row int, s Side) SideKind {
	p := l.EdgeProfile(col, row, s)
	if p.Flat {
		return Flat
	}

	var outward bool
	switch s {
	case North:
		outward = !p.bulgePositive // -y is out of the cell
	case South:
		outward = p.bulgePositive
	case West:
		outward = !p.bulgePositive // -x is out of the cell
	default:
		outward = p.bulgePositive
	}
	if outward {
		return Knob
	}
	return Blank
}

// Opposite returns the side facing s on an adjacent cell.
func Opposite(s Side) Side {
	switch s {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	default:
		return East
	}
}
