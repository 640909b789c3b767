// Package match decides whether the waypoint profiles of two candidate
// neighbor edges line up within position and profile tolerances.
package match

import "github.com/interlock/interlock/backend-go/internal/geom"

// Result reports a successful position match. ProfileValid additionally
// requires the per-index squared distances to stay within the profile
// tolerance of each other, rejecting pairs that align well on average but
// twist in the middle.
type Result struct {
	DistancesSq  []float64
	ProfileValid bool
	Reversed     bool
}

// Waypoints compares two world-space waypoint sequences. Sequences of
// unequal length never match. Each index pair must lie within positionTol
// of squared distance; the scan short-circuits at the first failure, so
// earlier indices are checked first. When all pass, the spread (max-min)
// of the squared distances must not exceed profileTol for the profile to
// be valid. Zero-length inputs are position-matched but profile-invalid:
// there is no basis for an alignment judgment.
//
// With reversed set, slave is walked back to front; the flag is echoed in
// the result. Trying both edge orientations is the caller's concern.
func Waypoints(master, slave []geom.Point, positionTol, profileTol float64, reversed bool) *Result {
	if len(master) != len(slave) {
		return nil
	}

	n := len(master)
	distSq := make([]float64, n)
	for i := 0; i < n; i++ {
		j := i
		if reversed {
			j = n - 1 - i
		}
		d := master[i].DistanceSq(slave[j])
		if d > positionTol {
			return nil
		}
		distSq[i] = d
	}

	if n == 0 {
		return &Result{DistancesSq: distSq, ProfileValid: false, Reversed: reversed}
	}

	lo, hi := distSq[0], distSq[0]
	for _, d := range distSq[1:] {
		lo = min(lo, d)
		hi = max(hi, d)
	}

	return &Result{
		DistancesSq:  distSq,
		ProfileValid: hi-lo <= profileTol,
		Reversed:     reversed,
	}
}
