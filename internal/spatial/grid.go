// Package spatial provides a sparse grid keyed by integer (col, row) cells,
// used for bounded-cost proximity queries over the game table.
package spatial

import "sort"

// Grid maps integer (col, row) cells to values of type V. Coordinates may be
// negative; the packed key is collision-free over the full int32 range.
// Entries persist until explicitly deleted or cleared.
type Grid[V any] struct {
	cells map[uint64]cell[V]
}

type cell[V any] struct {
	col, row int
	value    V
}

// Cell is one populated grid cell, as returned by GetRange.
type Cell[V any] struct {
	Col, Row int
	Value    V
}

// New creates an empty grid.
func New[V any]() *Grid[V] {
	return &Grid[V]{cells: make(map[uint64]cell[V])}
}

// key packs (col, row) into a single collision-free map key. Coordinates
// outside the int32 range are a contract violation; the cast guards against
// key collisions by construction rather than checking at runtime.
func key(col, row int) uint64 {
	return uint64(uint32(int32(col)))<<32 | uint64(uint32(int32(row)))
}

// Set stores a value at (col, row), overwriting any existing value.
func (g *Grid[V]) Set(col, row int, v V) {
	g.cells[key(col, row)] = cell[V]{col: col, row: row, value: v}
}

// Get returns the value at (col, row) and whether the cell is populated.
func (g *Grid[V]) Get(col, row int) (V, bool) {
	c, ok := g.cells[key(col, row)]
	return c.value, ok
}

// Has reports whether (col, row) is populated.
func (g *Grid[V]) Has(col, row int) bool {
	_, ok := g.cells[key(col, row)]
	return ok
}

// Delete removes the cell at (col, row). Deleting an absent cell is a no-op.
func (g *Grid[V]) Delete(col, row int) {
	delete(g.cells, key(col, row))
}

// Len returns the number of populated cells.
func (g *Grid[V]) Len() int {
	return len(g.cells)
}

// Clear removes all cells.
func (g *Grid[V]) Clear() {
	g.cells = make(map[uint64]cell[V])
}

// GetRange returns all populated cells with colMin <= col <= colMax and
// rowMin <= row <= rowMax, in row-major order: ascending row, then column.
func (g *Grid[V]) GetRange(colMin, colMax, rowMin, rowMax int) []Cell[V] {
	var out []Cell[V]
	for _, c := range g.cells {
		if c.col >= colMin && c.col <= colMax && c.row >= rowMin && c.row <= rowMax {
			out = append(out, Cell[V]{Col: c.col, Row: c.row, Value: c.value})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

// ForEach visits all populated cells in unspecified order.
func (g *Grid[V]) ForEach(fn func(col, row int, v V)) {
	for _, c := range g.cells {
		fn(c.col, c.row, c.value)
	}
}
