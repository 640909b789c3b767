package state

import (
	"math/rand/v2"

	"github.com/interlock/interlock/backend-go/internal/game"
	"github.com/interlock/interlock/backend-go/internal/geom"
)

const sampleSeed = 0x1f2e3d4c

// NewSampleDocument builds the playground puzzle: a small board with the
// pieces scattered deterministically, used for anonymous play before any
// image is uploaded.
func NewSampleDocument(puzzleID string) *Document {
	eng := game.NewEngine()
	gen := eng.NewPuzzle(480, 360, 12, sampleSeed)

	// Scatter across a board comfortably larger than the image, leaving a
	// margin so no piece starts clipped.
	rng := rand.New(rand.NewPCG(sampleSeed, 1))
	tab := eng.Table()
	for _, p := range gen.Pieces {
		pos := geom.Pt(40+rng.Float64()*1000, 40+rng.Float64()*600)
		tab.SetPiecePosition(p.ID, pos)
	}

	return Capture(eng, Puzzle{
		ID:     puzzleID,
		Name:   "Playground",
		Width:  480,
		Height: 360,
		Target: 12,
		Seed:   sampleSeed,
	})
}
