// Package groups tracks which pieces have been assembled together. A
// union-find forest answers membership queries in near-constant time; a
// separate group table with member lists, bounding boxes, and anchor
// transforms is rebuilt lazily whenever membership changes.
package groups

import (
	"sort"

	"github.com/interlock/interlock/backend-go/internal/geom"
	"github.com/interlock/interlock/backend-go/internal/table"
)

// Geometry supplies piece transforms and world bounds for group
// aggregation. Implemented by *table.Table.
type Geometry interface {
	Transform(pieceID string) (table.Transform, bool)
	WorldBounds(pieceID string) (geom.Rect, bool)
}

// Group is a materialized connected set of pieces. Singleton groups are
// materialized on demand like any other.
type Group struct {
	ID        string
	Members   []string
	Transform table.Transform
	Bounds    geom.Rect
}

// Manager owns the union-find forest and the confirmed-adjacency graph.
type Manager struct {
	geo Geometry

	parent map[string]string
	rank   map[string]int
	// adj holds confirmed connections only, not mere proximity. Detach
	// splits along this graph.
	adj map[string]map[string]struct{}
	// anchor names, per root, the piece whose transform serves as the
	// group's rotation/scale reference.
	anchor map[string]string

	groups map[string]*Group // root -> group, nil while dirty
	dirty  bool
}

// NewManager creates an empty manager reading geometry from geo.
func NewManager(geo Geometry) *Manager {
	return &Manager{
		geo:    geo,
		parent: make(map[string]string),
		rank:   make(map[string]int),
		adj:    make(map[string]map[string]struct{}),
		anchor: make(map[string]string),
	}
}

// Track registers a piece as a singleton group. Already-tracked ids no-op.
func (m *Manager) Track(pieceID string) {
	if _, ok := m.parent[pieceID]; ok {
		return
	}
	m.parent[pieceID] = pieceID
	m.rank[pieceID] = 0
	m.anchor[pieceID] = pieceID
	m.dirty = true
}

// Tracked reports whether the piece is known to the manager.
func (m *Manager) Tracked(pieceID string) bool {
	_, ok := m.parent[pieceID]
	return ok
}

func (m *Manager) find(id string) (string, bool) {
	p, ok := m.parent[id]
	if !ok {
		return "", false
	}
	if p == id {
		return id, true
	}
	root, _ := m.find(p)
	m.parent[id] = root // path compression
	return root, true
}

// SameGroup reports whether two pieces belong to the same group.
func (m *Manager) SameGroup(a, b string) bool {
	ra, okA := m.find(a)
	rb, okB := m.find(b)
	return okA && okB && ra == rb
}

// Connect records a confirmed connection between two tracked pieces and
// merges their groups. Untracked ids no-op.
func (m *Manager) Connect(a, b string) {
	if !m.Tracked(a) || !m.Tracked(b) {
		return
	}
	if m.adj[a] == nil {
		m.adj[a] = make(map[string]struct{})
	}
	if m.adj[b] == nil {
		m.adj[b] = make(map[string]struct{})
	}
	m.adj[a][b] = struct{}{}
	m.adj[b][a] = struct{}{}
	m.MergeGroups(a, b)
}

// MergeGroups unions the groups of a and b. The first argument's group
// keeps its anchor transform as the merged group's reference. No-op when
// the pieces already share a group or either is untracked.
func (m *Manager) MergeGroups(a, b string) {
	ra, okA := m.find(a)
	rb, okB := m.find(b)
	if !okA || !okB || ra == rb {
		return
	}

	keep := m.anchor[ra] // a's side wins, by convention

	// Union by rank.
	root, child := ra, rb
	if m.rank[ra] < m.rank[rb] {
		root, child = rb, ra
	}
	m.parent[child] = root
	if m.rank[ra] == m.rank[rb] {
		m.rank[root]++
	}

	delete(m.anchor, child)
	m.anchor[root] = keep
	m.dirty = true
}

// Group returns the group a piece belongs to, or nil for untracked ids.
// Every tracked piece resolves to exactly one group.
func (m *Manager) Group(pieceID string) *Group {
	root, ok := m.find(pieceID)
	if !ok {
		return nil
	}
	m.rebuild()
	return m.groups[root]
}

// Members returns the sorted member ids of a piece's group, or nil.
func (m *Manager) Members(pieceID string) []string {
	g := m.Group(pieceID)
	if g == nil {
		return nil
	}
	return g.Members
}

// Groups returns all current groups, ordered by id.
func (m *Manager) Groups() []*Group {
	m.rebuild()
	out := make([]*Group, 0, len(m.groups))
	for _, g := range m.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Connections lists all confirmed connections as sorted id pairs, each
// pair once. Used when persisting game state.
func (m *Manager) Connections() [][2]string {
	var out [][2]string
	for a, ns := range m.adj {
		for b := range ns {
			if a < b {
				out = append(out, [2]string{a, b})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// Detach removes a piece from its group, leaving it a singleton. The
// remaining members are repartitioned along the confirmed-adjacency graph:
// if it stays connected one group remains, otherwise each connected
// component becomes its own group, inheriting the prior rotation/scale
// with a recomputed position and bounding box. Untracked ids no-op.
func (m *Manager) Detach(pieceID string) {
	root, ok := m.find(pieceID)
	if !ok {
		return
	}

	remainder := make([]string, 0)
	for id := range m.parent {
		if id == pieceID {
			continue
		}
		if r, _ := m.find(id); r == root {
			remainder = append(remainder, id)
		}
	}
	oldAnchor := m.anchor[root]

	// Drop the piece's confirmed connections.
	for n := range m.adj[pieceID] {
		delete(m.adj[n], pieceID)
	}
	delete(m.adj, pieceID)

	// The detached piece becomes a singleton.
	m.parent[pieceID] = pieceID
	m.rank[pieceID] = 0
	delete(m.anchor, root)
	m.anchor[pieceID] = pieceID

	// Re-union the remainder per connected component.
	for _, id := range remainder {
		m.parent[id] = id
		m.rank[id] = 0
	}
	seen := make(map[string]bool, len(remainder))
	sort.Strings(remainder) // deterministic component anchors
	for _, start := range remainder {
		if seen[start] {
			continue
		}
		component := m.componentFrom(start, seen)
		first := component[0]
		for _, id := range component[1:] {
			ra, _ := m.find(first)
			rb, _ := m.find(id)
			if ra == rb {
				continue
			}
			m.parent[rb] = ra
		}
		r, _ := m.find(first)
		m.anchor[r] = first
		for _, id := range component {
			if id == oldAnchor {
				m.anchor[r] = oldAnchor
			}
		}
	}

	m.dirty = true
}

// componentFrom collects the connected component containing start via
// breadth-first search over the confirmed-adjacency graph.
func (m *Manager) componentFrom(start string, seen map[string]bool) []string {
	queue := []string{start}
	seen[start] = true
	component := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for n := range m.adj[cur] {
			if seen[n] {
				continue
			}
			seen[n] = true
			component = append(component, n)
			queue = append(queue, n)
		}
	}
	sort.Strings(component)
	return component
}

// rebuild rematerializes the group table from the forest. Cheap no-op
// while membership is unchanged.
func (m *Manager) rebuild() {
	if !m.dirty && m.groups != nil {
		return
	}

	byRoot := make(map[string][]string)
	for id := range m.parent {
		root, _ := m.find(id)
		byRoot[root] = append(byRoot[root], id)
	}

	m.groups = make(map[string]*Group, len(byRoot))
	for root, members := range byRoot {
		sort.Strings(members)

		var bounds geom.Rect
		for _, id := range members {
			if b, ok := m.geo.WorldBounds(id); ok {
				bounds = bounds.Union(b)
			}
		}

		tf := table.Transform{Scale: 1}
		if at, ok := m.geo.Transform(m.anchor[root]); ok {
			tf = at
		}
		tf.Position = geom.Pt(bounds.X, bounds.Y)

		m.groups[root] = &Group{
			ID:        root,
			Members:   members,
			Transform: tf,
			Bounds:    bounds,
		}
	}
	m.dirty = false
}
