package lattice

import "math"

// minRows and minCols put a floor under the grid: a puzzle is never smaller
// than 2x2 regardless of the requested count.
const (
	minRows = 2
	minCols = 2
)

// ChooseGrid picks a rows x cols grid for the given image aspect ratio
// (width/height) and target piece count. The result always satisfies
// rows*cols >= target with rows >= 2 and cols >= 2, and among candidates
// minimizes the deviation between cols/rows and the aspect ratio.
// Non-positive targets clamp to the 2x2 floor.
func ChooseGrid(aspect float64, target int) (rows, cols int) {
	if target < minRows*minCols {
		target = minRows * minCols
	}
	if aspect <= 0 {
		aspect = 1
	}

	bestScore := math.Inf(1)
	for r := minRows; r <= target; r++ {
		c := (target + r - 1) / r
		if c < minCols {
			c = minCols
		}
		score := math.Abs(aspect - float64(c)/float64(r))
		if score < bestScore {
			bestScore = score
			rows, cols = r, c
		}
	}
	return rows, cols
}
