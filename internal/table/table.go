// Package table owns the live world transforms of pieces on the play
// surface: position, rotation, and scale per piece, cached world-space
// geometry, z-ordering, and the spatial index driving proximity queries.
package table

import (
	"math"

	"github.com/interlock/interlock/backend-go/internal/geom"
	"github.com/interlock/interlock/backend-go/internal/lattice"
	"github.com/interlock/interlock/backend-go/internal/piece"
	"github.com/interlock/interlock/backend-go/internal/spatial"
)

// Transform places a piece or group on the play surface.
type Transform struct {
	Position geom.Point `json:"position"`
	Rotation float64    `json:"rotation"` // degrees, about the piece center
	Scale    float64    `json:"scale"`
}

// WorldData is a piece's local geometry transformed into world space.
// Instances are cached and must be treated as read-only.
type WorldData struct {
	Corners    map[piece.Corner]geom.Point
	SidePoints map[lattice.Side][]geom.Point
}

// ElemSize is a measured element size supplied by the rendering layer.
// It overrides the geometry's own frame dimensions when centering, to
// account for rendering padding not present in the pure geometry.
type ElemSize struct {
	Width, Height float64
}

type entry struct {
	tf    Transform
	world *WorldData
	// cached is the fingerprint (position, rotation, scale) the world
	// data was computed under. world is reused only while tf == cached.
	cached Transform

	bucketed bool
	col, row int
	z        float64
}

// snapFraction sizes the neighbor tolerance relative to the average piece
// size at scale 1.
const snapFraction = 0.25

// Table is the game table controller.
type Table struct {
	pieces  map[string]*piece.Piece
	entries map[string]*entry
	index   *spatial.Grid[map[string]struct{}]

	bucketSize float64
	maxZ       float64

	// Members resolves a piece to all members of its group, itself
	// included. When nil every piece is treated as a singleton.
	Members func(pieceID string) []string
}

// New creates an empty table.
func New() *Table {
	return &Table{
		pieces:  make(map[string]*piece.Piece),
		entries: make(map[string]*entry),
		index:   spatial.New[map[string]struct{}](),
	}
}

// AddPiece registers a piece with its initial transform. The piece enters
// the z-order above everything already on the table.
func (t *Table) AddPiece(p *piece.Piece, tf Transform) {
	if p == nil {
		return
	}
	if tf.Scale == 0 {
		tf.Scale = 1
	}
	t.pieces[p.ID] = p
	t.maxZ++
	t.entries[p.ID] = &entry{tf: tf, z: t.maxZ}
	t.resizeBuckets()
	t.rebucket(p.ID)
}

// RemovePiece drops a piece and its spatial-index entry. Unknown ids no-op.
func (t *Table) RemovePiece(id string) {
	e, ok := t.entries[id]
	if !ok {
		return
	}
	t.unbucket(id, e)
	delete(t.entries, id)
	delete(t.pieces, id)
	t.resizeBuckets()
}

// Piece returns the registered piece for id, or nil.
func (t *Table) Piece(id string) *piece.Piece {
	return t.pieces[id]
}

// PieceIDs returns the ids of all registered pieces in unspecified order.
func (t *Table) PieceIDs() []string {
	ids := make([]string, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	return ids
}

// Transform returns the current transform of a piece.
func (t *Table) Transform(id string) (Transform, bool) {
	e, ok := t.entries[id]
	if !ok {
		return Transform{}, false
	}
	return e.tf, true
}

// SetPiecePosition records a new position, invalidating cached world data
// and moving the piece's spatial-index bucket. Unknown ids no-op.
func (t *Table) SetPiecePosition(id string, pos geom.Point) {
	e, ok := t.entries[id]
	if !ok {
		return
	}
	e.tf.Position = pos
	t.rebucket(id)
}

// SetPieceRotation records a new rotation in degrees.
func (t *Table) SetPieceRotation(id string, degrees float64) {
	e, ok := t.entries[id]
	if !ok {
		return
	}
	e.tf.Rotation = degrees
	t.rebucket(id)
}

// SetPieceScale records a new scale factor.
func (t *Table) SetPieceScale(id string, scale float64) {
	e, ok := t.entries[id]
	if !ok || scale <= 0 {
		return
	}
	e.tf.Scale = scale
	t.resizeBuckets()
	t.rebucket(id)
}

// TranslatePieces shifts every listed piece by delta. Used when a whole
// group moves or snaps into place.
func (t *Table) TranslatePieces(ids []string, delta geom.Point) {
	for _, id := range ids {
		if e, ok := t.entries[id]; ok {
			t.SetPiecePosition(id, e.tf.Position.Add(delta))
		}
	}
}

// WorldData returns the piece's corners and side waypoints in world space:
// local geometry scaled, translated to the piece position, and rotated
// about the piece's world center. The result is memoized against the
// (position, rotation, scale) fingerprint — callers get the identical
// reference until any of the three changes. A piece with no registered
// transform yields empty maps.
func (t *Table) WorldData(p *piece.Piece) *WorldData {
	if p == nil {
		return &WorldData{
			Corners:    map[piece.Corner]geom.Point{},
			SidePoints: map[lattice.Side][]geom.Point{},
		}
	}
	e, ok := t.entries[p.ID]
	if !ok {
		return &WorldData{
			Corners:    map[piece.Corner]geom.Point{},
			SidePoints: map[lattice.Side][]geom.Point{},
		}
	}
	if e.world != nil && e.cached == e.tf {
		return e.world
	}

	m := t.placement(p, e.tf)
	w := &WorldData{
		Corners:    make(map[piece.Corner]geom.Point, 4),
		SidePoints: make(map[lattice.Side][]geom.Point, 4),
	}
	for _, c := range piece.Corners {
		w.Corners[c] = m.Apply(p.Corners[c])
	}
	for _, s := range lattice.Sides {
		local := p.Sides[s].Points
		pts := make([]geom.Point, len(local))
		for i, lp := range local {
			pts[i] = m.Apply(lp)
		}
		w.SidePoints[s] = pts
	}

	e.world = w
	e.cached = e.tf
	return w
}

func (t *Table) placement(p *piece.Piece, tf Transform) geom.Matrix2D {
	center := t.centerWithOffset(p, tf, nil)
	return geom.PlacementMatrix(
		tf.Position.X, tf.Position.Y, tf.Scale, tf.Rotation,
		center.X, center.Y,
	)
}

func (t *Table) centerWithOffset(p *piece.Piece, tf Transform, elem *ElemSize) geom.Point {
	f := p.Frame()
	offset := f.CenterOffset
	if elem != nil {
		offset = f.TopLeft.Add(geom.Pt(elem.Width/2, elem.Height/2))
	}
	return tf.Position.Add(offset.Scale(tf.Scale))
}

// Center returns the piece's world-space center: position plus the scaled
// bounding-frame center offset. Rotation pivots about this point, so the
// center is rotation-invariant. A measured element size, when supplied,
// overrides the frame's own dimensions. Unregistered pieces return the
// zero point.
func (t *Table) Center(id string, elem *ElemSize) geom.Point {
	p, ok := t.pieces[id]
	if !ok {
		return geom.Point{}
	}
	e := t.entries[id]
	return t.centerWithOffset(p, e.tf, elem)
}

// PlacePieceCenter computes and stores the position that puts the piece's
// center at target, so a subsequent Center call returns target. The
// spatial index is updated. Unknown ids no-op.
func (t *Table) PlacePieceCenter(id string, target geom.Point, elem *ElemSize) {
	p, ok := t.pieces[id]
	if !ok {
		return
	}
	e := t.entries[id]
	f := p.Frame()
	offset := f.CenterOffset
	if elem != nil {
		offset = f.TopLeft.Add(geom.Pt(elem.Width/2, elem.Height/2))
	}
	t.SetPiecePosition(id, target.Sub(offset.Scale(e.tf.Scale)))
}

// BringToFront raises the piece's group to the top of the z-order. All
// members rise together, keeping their relative stacking, and the running
// maximum advances by exactly 1 per call regardless of group size.
func (t *Table) BringToFront(id string) {
	e, ok := t.entries[id]
	if !ok {
		return
	}

	members := []string{id}
	if t.Members != nil {
		if m := t.Members(id); len(m) > 0 {
			members = m
		}
	}

	entries := make([]*entry, 0, len(members))
	for _, mid := range members {
		if me, ok := t.entries[mid]; ok {
			entries = append(entries, me)
		}
	}
	if len(entries) == 0 {
		entries = []*entry{e}
	}

	// Preserve relative stacking: members land in their current order in
	// the (prevMax, prevMax+1] band, topmost ending exactly at the new max.
	sortByZ(entries)
	base := t.maxZ
	n := float64(len(entries))
	for i, me := range entries {
		me.z = base + float64(i+1)/n
	}
	t.maxZ = base + 1
}

func sortByZ(entries []*entry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j-1].z > entries[j].z; j-- {
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}
}

// ZOrder returns the piece's current z value.
func (t *Table) ZOrder(id string) float64 {
	if e, ok := t.entries[id]; ok {
		return e.z
	}
	return 0
}

// MaxZ returns the current top of the z-order.
func (t *Table) MaxZ() float64 {
	return t.maxZ
}

// SetZOrder restores a piece's z value, lifting the running maximum if
// needed. Used when loading a snapshot.
func (t *Table) SetZOrder(id string, z float64) {
	e, ok := t.entries[id]
	if !ok {
		return
	}
	e.z = z
	if z > t.maxZ {
		t.maxZ = z
	}
}

// AvgPieceSize returns the mean of each piece's scaled min(width, height),
// or 0 when the table is empty. It sizes index buckets and connection
// tolerances.
func (t *Table) AvgPieceSize() float64 {
	if len(t.entries) == 0 {
		return 0
	}
	var sum float64
	for id, e := range t.entries {
		f := t.pieces[id].Frame()
		sum += e.tf.Scale * min(f.Width, f.Height)
	}
	return sum / float64(len(t.entries))
}

// ArePiecesNeighbors reports whether a and b sit snapped next to each other
// in some cardinal direction: both corner pairs of that direction must
// coincide within a tolerance scaled by the pair's average scale. False
// when either piece is missing or has no cached world corners.
func (t *Table) ArePiecesNeighbors(a, b *piece.Piece) bool {
	if a == nil || b == nil {
		return false
	}
	ea, okA := t.entries[a.ID]
	eb, okB := t.entries[b.ID]
	if !okA || !okB {
		return false
	}
	if ea.world == nil || len(ea.world.Corners) == 0 ||
		eb.world == nil || len(eb.world.Corners) == 0 {
		return false
	}

	avgScale := (ea.tf.Scale + eb.tf.Scale) / 2
	tol := snapFraction * t.AvgPieceSize() * avgScale
	wa, wb := ea.world, eb.world

	// For each direction b may sit in relative to a, the two corner pairs
	// along the shared edge must both coincide.
	pairs := [4][2][2]piece.Corner{
		{{piece.NE, piece.NW}, {piece.SE, piece.SW}}, // b east of a
		{{piece.NW, piece.NE}, {piece.SW, piece.SE}}, // b west of a
		{{piece.NW, piece.SW}, {piece.NE, piece.SE}}, // b north of a
		{{piece.SW, piece.NW}, {piece.SE, piece.NE}}, // b south of a
	}
	for _, dir := range pairs {
		first := wa.Corners[dir[0][0]].Distance(wb.Corners[dir[0][1]]) <= tol
		second := wa.Corners[dir[1][0]].Distance(wb.Corners[dir[1][1]]) <= tol
		if first && second {
			return true
		}
	}
	return false
}

// NeighborCandidates returns the ids of pieces occupying the 3x3 block of
// spatial-index buckets around the given piece, excluding the piece itself.
func (t *Table) NeighborCandidates(id string) []string {
	e, ok := t.entries[id]
	if !ok || !e.bucketed {
		return nil
	}
	var out []string
	for _, c := range t.index.GetRange(e.col-1, e.col+1, e.row-1, e.row+1) {
		for occ := range c.Value {
			if occ != id {
				out = append(out, occ)
			}
		}
	}
	return out
}

// WorldBounds returns the world-space bounding box of a piece's geometry.
func (t *Table) WorldBounds(id string) (geom.Rect, bool) {
	p, ok := t.pieces[id]
	if !ok {
		return geom.Rect{}, false
	}
	w := t.WorldData(p)
	pts := make([]geom.Point, 0, 16)
	for _, c := range piece.Corners {
		pts = append(pts, w.Corners[c])
	}
	for _, s := range lattice.Sides {
		pts = append(pts, w.SidePoints[s]...)
	}
	if len(pts) == 0 {
		return geom.Rect{}, false
	}
	return geom.BoundsOf(pts), true
}

// --- spatial index maintenance ---

// resizeBuckets derives the bucket size from the average piece size and
// rebuckets everything when it drifts. Bucket size never goes below 1.
func (t *Table) resizeBuckets() {
	size := t.AvgPieceSize()
	if size < 1 {
		size = 1
	}
	if t.bucketSize != 0 && math.Abs(size-t.bucketSize)/t.bucketSize < 0.01 {
		return
	}
	t.bucketSize = size
	for id, e := range t.entries {
		t.unbucket(id, e)
	}
	for id := range t.entries {
		t.rebucket(id)
	}
}

func (t *Table) bucketOf(id string) (int, int) {
	p := t.pieces[id]
	e := t.entries[id]
	center := t.centerWithOffset(p, e.tf, nil)
	return int(math.Floor(center.X / t.bucketSize)), int(math.Floor(center.Y / t.bucketSize))
}

func (t *Table) rebucket(id string) {
	e := t.entries[id]
	col, row := t.bucketOf(id)
	if e.bucketed && e.col == col && e.row == row {
		return
	}
	t.unbucket(id, e)
	occ, ok := t.index.Get(col, row)
	if !ok {
		occ = make(map[string]struct{})
		t.index.Set(col, row, occ)
	}
	occ[id] = struct{}{}
	e.bucketed = true
	e.col, e.row = col, row
}

func (t *Table) unbucket(id string, e *entry) {
	if !e.bucketed {
		return
	}
	if occ, ok := t.index.Get(e.col, e.row); ok {
		delete(occ, id)
		if len(occ) == 0 {
			t.index.Delete(e.col, e.row)
		}
	}
	e.bucketed = false
}
