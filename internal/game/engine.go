// Package game is the puzzle engine facade: it owns the lattice, the piece
// set, the game table, and the group manager, and applies the connection
// policy (near/ready distance bands) on top of the geometric primitives.
// All mutation is synchronous and single-threaded, driven by discrete
// input events.
package game

import (
	"time"

	"github.com/interlock/interlock/backend-go/internal/geom"
	"github.com/interlock/interlock/backend-go/internal/groups"
	"github.com/interlock/interlock/backend-go/internal/lattice"
	"github.com/interlock/interlock/backend-go/internal/match"
	"github.com/interlock/interlock/backend-go/internal/piece"
	"github.com/interlock/interlock/backend-go/internal/table"
)

// Connection policy bands, as fractions of the average piece size.
// Candidates inside the near band produce a visual suggestion; inside the
// ready band the connection is confirmed and the groups merge.
const (
	nearFraction  = 0.4
	readyFraction = 0.15
)

// dragEvalInterval throttles connection evaluation while a drag is in
// progress. Evaluation always runs on drag end.
const dragEvalInterval = 50 * time.Millisecond

// Generation is the result of the puzzle generation entry point.
type Generation struct {
	Rows        int            `json:"rows"`
	Cols        int            `json:"cols"`
	ActualCount int            `json:"actualCount"`
	Pieces      []*piece.Piece `json:"pieces"`
}

// Engine owns all live puzzle state.
type Engine struct {
	lat    *lattice.Lattice
	seed   uint64
	tab    *table.Table
	groups *groups.Manager

	subscribers []func(Event)
	solved      bool

	now      func() time.Time
	lastEval time.Time
}

// NewEngine creates an engine with no puzzle loaded.
func NewEngine() *Engine {
	e := &Engine{now: time.Now}
	e.reset()
	return e
}

func (e *Engine) reset() {
	e.tab = table.New()
	e.groups = groups.NewManager(e.tab)
	e.tab.Members = e.groups.Members
	e.lat = nil
	e.solved = false
	e.lastEval = time.Time{}
}

// NewPuzzle generates a puzzle for an image of the given dimensions and a
// target piece count. The seed fixes piece boundaries, so the same inputs
// reproduce the same puzzle. Pieces enter play at their solution positions;
// the input layer scatters them afterwards. Subscribers receive
// EventGenerated with the actual piece count.
func (e *Engine) NewPuzzle(width, height float64, target int, seed uint64) Generation {
	e.reset()
	e.seed = seed
	e.lat = lattice.Generate(width, height, target, seed)

	gen := Generation{
		Rows:        e.lat.Rows,
		Cols:        e.lat.Cols,
		ActualCount: e.lat.Rows * e.lat.Cols,
	}
	gen.Pieces = make([]*piece.Piece, 0, gen.ActualCount)
	for row := 0; row < e.lat.Rows; row++ {
		for col := 0; col < e.lat.Cols; col++ {
			p := piece.FromCell(e.lat, col, row)
			gen.Pieces = append(gen.Pieces, p)
			e.tab.AddPiece(p, table.Transform{
				Position: e.lat.CellOrigin(col, row),
				Scale:    1,
			})
			e.groups.Track(p.ID)
		}
	}

	e.emit(Event{Type: EventGenerated, Count: gen.ActualCount})
	return gen
}

// Table exposes the game table controller for the input layer.
func (e *Engine) Table() *table.Table {
	return e.tab
}

// Groups exposes the group manager.
func (e *Engine) Groups() *groups.Manager {
	return e.groups
}

// Lattice returns the generated lattice, or nil before NewPuzzle.
func (e *Engine) Lattice() *lattice.Lattice {
	return e.lat
}

// Seed returns the seed the current puzzle was generated from.
func (e *Engine) Seed() uint64 {
	return e.seed
}

// PieceCount returns the number of pieces in play.
func (e *Engine) PieceCount() int {
	return len(e.tab.PieceIDs())
}

// Solved reports whether every piece belongs to one group.
func (e *Engine) Solved() bool {
	return e.solved
}

// DragMove records a new position for a dragged piece, moving its whole
// group along. Connection evaluation is throttled to a bounded interval
// during the drag to cap per-frame cost at large piece counts.
func (e *Engine) DragMove(id string, pos geom.Point) {
	e.moveGroup(id, pos)
	now := e.now()
	if now.Sub(e.lastEval) >= dragEvalInterval {
		e.lastEval = now
		e.EvaluateConnections(id)
	}
}

// DragEnd records the final position of a drag and evaluates connections
// immediately.
func (e *Engine) DragEnd(id string, pos geom.Point) {
	e.moveGroup(id, pos)
	e.lastEval = e.now()
	e.EvaluateConnections(id)
}

// moveGroup translates the dragged piece's group so the dragged piece
// lands at pos.
func (e *Engine) moveGroup(id string, pos geom.Point) {
	tf, ok := e.tab.Transform(id)
	if !ok {
		return
	}
	delta := pos.Sub(tf.Position)
	members := e.groups.Members(id)
	if len(members) == 0 {
		members = []string{id}
	}
	e.tab.TranslatePieces(members, delta)
}

// EvaluateConnections tests the moved piece's group against nearby pieces
// and applies the near/ready bands: near emits a suggestion, ready snaps
// the groups together and merges them.
func (e *Engine) EvaluateConnections(id string) {
	avg := e.tab.AvgPieceSize()
	if avg == 0 {
		return
	}
	nearTol := nearFraction * avg
	readyTol := readyFraction * avg

	members := e.groups.Members(id)
	if len(members) == 0 {
		members = []string{id}
	}

	for _, mid := range members {
		mp := e.tab.Piece(mid)
		if mp == nil {
			continue
		}
		// Warm the world-data cache for the neighbor test.
		e.tab.WorldData(mp)

		for _, cid := range e.tab.NeighborCandidates(mid) {
			cp := e.tab.Piece(cid)
			if cp == nil || e.groups.SameGroup(mid, cid) {
				continue
			}
			side, ok := solutionSide(mp, cp)
			if !ok {
				continue
			}
			e.tab.WorldData(cp)
			e.evaluatePair(mp, cp, side, nearTol, readyTol)
		}
	}
}

// solutionSide returns the side of a that faces b in the solved puzzle,
// or false when the pieces are not solution neighbors.
func solutionSide(a, b *piece.Piece) (lattice.Side, bool) {
	dc, dr := b.Col-a.Col, b.Row-a.Row
	switch {
	case dc == 1 && dr == 0:
		return lattice.East, true
	case dc == -1 && dr == 0:
		return lattice.West, true
	case dc == 0 && dr == -1:
		return lattice.North, true
	case dc == 0 && dr == 1:
		return lattice.South, true
	}
	return "", false
}

func (e *Engine) evaluatePair(a, b *piece.Piece, side lattice.Side, nearTol, readyTol float64) {
	wa := e.tab.WorldData(a)
	wb := e.tab.WorldData(b)
	master := wa.SidePoints[side]
	slave := wb.SidePoints[lattice.Opposite(side)]

	// Shared-edge waypoints occupy identical board positions when the
	// pieces sit assembled, so a good match drives distances toward zero.
	// Both orientations are tried; production pieces keep a consistent
	// winding so the forward pass is expected to win.
	res := match.Waypoints(master, slave, nearTol*nearTol, nearTol*nearTol, false)
	if res == nil {
		res = match.Waypoints(master, slave, nearTol*nearTol, nearTol*nearTol, true)
	}
	if res == nil || !res.ProfileValid {
		return
	}

	worst := 0.0
	for _, d := range res.DistancesSq {
		worst = max(worst, d)
	}
	if worst <= readyTol*readyTol {
		e.confirm(a, b, side)
		return
	}
	e.emit(Event{Type: EventSuggest, PieceID: a.ID, OtherID: b.ID})
}

// confirm snaps b's group into alignment with a and merges the groups.
// The dragged side (a) keeps its transform; b's group translates to meet
// it, so the piece under the cursor never jumps.
func (e *Engine) confirm(a, b *piece.Piece, side lattice.Side) {
	wa := e.tab.WorldData(a)
	wb := e.tab.WorldData(b)

	// Corner pair along the shared edge, a-corner vs b-corner.
	var ca piece.Corner
	var cb piece.Corner
	switch side {
	case lattice.East:
		ca, cb = piece.NE, piece.NW
	case lattice.West:
		ca, cb = piece.NW, piece.NE
	case lattice.North:
		ca, cb = piece.NW, piece.SW
	default:
		ca, cb = piece.SW, piece.NW
	}
	delta := wa.Corners[ca].Sub(wb.Corners[cb])

	bMembers := e.groups.Members(b.ID)
	if len(bMembers) == 0 {
		bMembers = []string{b.ID}
	}
	e.tab.TranslatePieces(bMembers, delta)

	e.groups.Connect(a.ID, b.ID)
	e.emit(Event{Type: EventConnected, PieceID: a.ID, OtherID: b.ID})

	if g := e.groups.Group(a.ID); g != nil && len(g.Members) == e.PieceCount() && !e.solved {
		e.solved = true
		e.emit(Event{Type: EventSolved, Count: e.PieceCount()})
	}
}

// ReplayConnections applies persisted confirmed connections without
// re-running the snap policy, then re-derives the solved flag. A puzzle
// restored in its solved state does not re-emit EventSolved; that
// celebration already happened.
func (e *Engine) ReplayConnections(pairs [][2]string) {
	for _, pair := range pairs {
		e.groups.Connect(pair[0], pair[1])
	}
	e.refreshSolved()
}

func (e *Engine) refreshSolved() {
	ids := e.tab.PieceIDs()
	if len(ids) == 0 {
		e.solved = false
		return
	}
	g := e.groups.Group(ids[0])
	e.solved = g != nil && len(g.Members) == len(ids)
}

// Detach removes a piece from its group and re-evaluates nothing: the
// detached piece simply becomes free again.
func (e *Engine) Detach(id string) {
	e.groups.Detach(id)
}
