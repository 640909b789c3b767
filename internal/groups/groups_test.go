package groups

import (
	"reflect"
	"testing"

	"github.com/interlock/interlock/backend-go/internal/geom"
	"github.com/interlock/interlock/backend-go/internal/lattice"
	"github.com/interlock/interlock/backend-go/internal/piece"
	"github.com/interlock/interlock/backend-go/internal/table"
)

// newTestManager registers a 3x3 solved layout and tracks every piece.
func newTestManager(t *testing.T) (*Manager, *table.Table) {
	t.Helper()
	l := lattice.Generate(300, 300, 9, 5)
	if l.Rows != 3 || l.Cols != 3 {
		t.Fatalf("expected a 3x3 lattice, got %dx%d", l.Rows, l.Cols)
	}
	tab := table.New()
	m := NewManager(tab)
	tab.Members = m.Members
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			p := piece.FromCell(l, col, row)
			tab.AddPiece(p, table.Transform{Position: l.CellOrigin(col, row), Scale: 1})
			m.Track(p.ID)
		}
	}
	return m, tab
}

// connectGrid records the full solved adjacency of the 3x3 layout.
func connectGrid(m *Manager) {
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			if col < 2 {
				m.Connect(piece.CellID(col, row), piece.CellID(col+1, row))
			}
			if row < 2 {
				m.Connect(piece.CellID(col, row), piece.CellID(col, row+1))
			}
		}
	}
}

func TestTrack(t *testing.T) {
	m, _ := newTestManager(t)

	if !m.Tracked("pc_0_0") {
		t.Error("tracked piece not reported")
	}
	if m.Tracked("pc_9_9") {
		t.Error("untracked piece reported as tracked")
	}

	// Tracking twice keeps the singleton group intact.
	m.Track("pc_0_0")
	g := m.Group("pc_0_0")
	if g == nil || len(g.Members) != 1 {
		t.Errorf("double-tracked piece group = %+v, want singleton", g)
	}
}

func TestSingletonGroups(t *testing.T) {
	m, _ := newTestManager(t)

	groups := m.Groups()
	if len(groups) != 9 {
		t.Fatalf("got %d groups, want 9 singletons", len(groups))
	}
	for _, g := range groups {
		if len(g.Members) != 1 {
			t.Errorf("group %s has %d members, want 1", g.ID, len(g.Members))
		}
		if g.ID != g.Members[0] {
			t.Errorf("singleton group id %s != member %s", g.ID, g.Members[0])
		}
	}
}

func TestConnectMergesGroups(t *testing.T) {
	m, _ := newTestManager(t)

	if m.SameGroup("pc_0_0", "pc_1_0") {
		t.Fatal("pieces grouped before any connection")
	}

	m.Connect("pc_0_0", "pc_1_0")
	if !m.SameGroup("pc_0_0", "pc_1_0") {
		t.Fatal("connected pieces not in the same group")
	}

	want := []string{"pc_0_0", "pc_1_0"}
	if got := m.Members("pc_0_0"); !reflect.DeepEqual(got, want) {
		t.Errorf("Members = %v, want %v", got, want)
	}
	if got := m.Members("pc_1_0"); !reflect.DeepEqual(got, want) {
		t.Errorf("Members via other piece = %v, want %v", got, want)
	}

	// Transitivity through a shared member.
	m.Connect("pc_1_0", "pc_2_0")
	if !m.SameGroup("pc_0_0", "pc_2_0") {
		t.Error("transitive membership broken")
	}
	if got := len(m.Groups()); got != 7 {
		t.Errorf("group count = %d, want 7", got)
	}
}

func TestConnectUntracked(t *testing.T) {
	m, _ := newTestManager(t)

	m.Connect("pc_0_0", "pc_9_9")
	if got := m.Members("pc_0_0"); len(got) != 1 {
		t.Errorf("connecting to an untracked id changed membership: %v", got)
	}
	if m.Group("pc_9_9") != nil {
		t.Error("untracked id acquired a group")
	}
}

func TestMergeKeepsFirstAnchorTransform(t *testing.T) {
	m, tab := newTestManager(t)

	// Give the stationary side a distinctive rotation and scale.
	tab.SetPieceRotation("pc_0_0", 90)
	tab.SetPieceScale("pc_0_0", 2)
	tab.SetPieceRotation("pc_1_0", 45)

	m.Connect("pc_0_0", "pc_1_0")
	g := m.Group("pc_1_0")
	if g == nil {
		t.Fatal("no group after connect")
	}
	if g.Transform.Rotation != 90 || g.Transform.Scale != 2 {
		t.Errorf("group transform = %+v, want the first argument's rotation 90 and scale 2", g.Transform)
	}

	// The group position is its bounding box's top-left, not the anchor's
	// stored position.
	if g.Transform.Position != geom.Pt(g.Bounds.X, g.Bounds.Y) {
		t.Errorf("group position %v != bounds top-left (%v,%v)",
			g.Transform.Position, g.Bounds.X, g.Bounds.Y)
	}
}

func TestGroupBoundsCoverMembers(t *testing.T) {
	m, tab := newTestManager(t)
	connectGrid(m)

	g := m.Group("pc_1_1")
	if g == nil || len(g.Members) != 9 {
		t.Fatalf("expected one 9-piece group, got %+v", g)
	}
	for _, id := range g.Members {
		b, ok := tab.WorldBounds(id)
		if !ok {
			t.Fatalf("no bounds for %s", id)
		}
		if got := g.Bounds.Union(b); got != g.Bounds {
			t.Errorf("member %s bounds %v outside group bounds %v", id, b, g.Bounds)
		}
	}
}

func TestConnections(t *testing.T) {
	m, _ := newTestManager(t)

	m.Connect("pc_1_0", "pc_0_0")
	m.Connect("pc_0_0", "pc_0_1")

	want := [][2]string{{"pc_0_0", "pc_0_1"}, {"pc_0_0", "pc_1_0"}}
	if got := m.Connections(); !reflect.DeepEqual(got, want) {
		t.Errorf("Connections = %v, want %v", got, want)
	}
}

func TestDetachKeepsConnectedRemainder(t *testing.T) {
	m, _ := newTestManager(t)
	connectGrid(m)

	// Removing a corner leaves the other eight connected.
	m.Detach("pc_0_0")

	g := m.Group("pc_0_0")
	if g == nil || len(g.Members) != 1 {
		t.Fatalf("detached piece group = %+v, want singleton", g)
	}
	rest := m.Group("pc_1_1")
	if rest == nil || len(rest.Members) != 8 {
		t.Fatalf("remainder group has %d members, want 8", len(rest.Members))
	}
	if m.SameGroup("pc_0_0", "pc_1_1") {
		t.Error("detached piece still grouped with remainder")
	}
}

func TestDetachSplitsAtArticulationPoint(t *testing.T) {
	m, _ := newTestManager(t)

	// A bare chain: 0-1-2 along the top row.
	m.Connect("pc_0_0", "pc_1_0")
	m.Connect("pc_1_0", "pc_2_0")

	m.Detach("pc_1_0")

	if m.SameGroup("pc_0_0", "pc_2_0") {
		t.Error("chain ends should split when the middle piece detaches")
	}
	for _, id := range []string{"pc_0_0", "pc_1_0", "pc_2_0"} {
		if g := m.Group(id); g == nil || len(g.Members) != 1 {
			t.Errorf("%s group = %+v, want singleton", id, g)
		}
	}
}

func TestDetachReconnect(t *testing.T) {
	m, _ := newTestManager(t)

	m.Connect("pc_0_0", "pc_1_0")
	m.Detach("pc_1_0")
	m.Connect("pc_0_0", "pc_1_0")

	if !m.SameGroup("pc_0_0", "pc_1_0") {
		t.Error("reconnect after detach failed")
	}
}

func TestDetachUntracked(t *testing.T) {
	m, _ := newTestManager(t)
	m.Detach("pc_9_9")
	if got := len(m.Groups()); got != 9 {
		t.Errorf("detaching an untracked id changed groups: %d", got)
	}
}
