package geom

import "testing"

func TestMatrixApply(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix2D
		p    Point
		want Point
	}{
		{"identity", Identity(), Pt(3, 4), Pt(3, 4)},
		{"translate", Translate(10, -5), Pt(1, 2), Pt(11, -3)},
		{"scale", Scaling(2), Pt(3, 4), Pt(6, 8)},
		{"rotate 90", RotateDegrees(90), Pt(1, 0), Pt(0, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.Apply(tt.p); !almostEqual(got, tt.want) {
				t.Errorf("Apply(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestMatrixMultiplyOrder(t *testing.T) {
	// m.Multiply(other) applies other first: translate-then-scale differs
	// from scale-then-translate.
	scaleThenTranslate := Translate(10, 0).Multiply(Scaling(2))
	if got := scaleThenTranslate.Apply(Pt(1, 1)); !almostEqual(got, Pt(12, 2)) {
		t.Errorf("translate(scale(p)) = %v, want (12,2)", got)
	}

	translateThenScale := Scaling(2).Multiply(Translate(10, 0))
	if got := translateThenScale.Apply(Pt(1, 1)); !almostEqual(got, Pt(22, 2)) {
		t.Errorf("scale(translate(p)) = %v, want (22,2)", got)
	}
}

func TestMatrixInvert(t *testing.T) {
	m := PlacementMatrix(10, 20, 2, 30, 5, 5)
	inv := m.Invert()

	// Inverse maps a transformed point back to its original.
	for _, p := range []Point{Pt(0, 0), Pt(3, -4), Pt(7.5, 2)} {
		if got := inv.Apply(m.Apply(p)); !almostEqual(got, p) {
			t.Errorf("round trip of %v = %v", p, got)
		}
	}

	// A singular matrix inverts to the identity.
	singular := Matrix2D{1, 2, 2, 4, 0, 0}
	if got := singular.Invert(); got != Identity() {
		t.Errorf("singular inverse = %v, want identity", got)
	}
}

func TestPlacementMatrix(t *testing.T) {
	// Without rotation: scale then translate.
	m := PlacementMatrix(10, 20, 2, 0, 0, 0)
	if got := m.Apply(Pt(3, 4)); !almostEqual(got, Pt(16, 28)) {
		t.Errorf("placement without rotation = %v, want (16,28)", got)
	}

	// The rotation pivot is fixed under the transform.
	m = PlacementMatrix(0, 0, 1, 90, 5, 5)
	if got := m.Apply(Pt(5, 5)); !almostEqual(got, Pt(5, 5)) {
		t.Errorf("pivot moved to %v, want (5,5)", got)
	}

	// A point right of the pivot swings above it under 90 degrees
	// (screen coordinates, y down).
	if got := m.Apply(Pt(7, 5)); !almostEqual(got, Pt(5, 7)) {
		t.Errorf("rotated point = %v, want (5,7)", got)
	}
}
