// Package state defines the JSON game-state document persisted as puzzle
// snapshots, and converts between documents and a live engine.
package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/interlock/interlock/backend-go/internal/game"
	"github.com/interlock/interlock/backend-go/internal/table"
)

// Puzzle is the generation recipe plus display metadata. Piece geometry is
// never stored: the seed and dimensions regenerate it exactly.
type Puzzle struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ImageID   string  `json:"imageId"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Target    int     `json:"target"`
	Seed      uint64  `json:"seed"`
	Rows      int     `json:"rows"`
	Cols      int     `json:"cols"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// Document is the full persisted game state.
type Document struct {
	Puzzle      Puzzle                     `json:"puzzle"`
	Transforms  map[string]table.Transform `json:"transforms"`
	ZOrder      map[string]float64         `json:"zOrder"`
	Connections [][2]string                `json:"connections"`
}

// NewDocument creates the initial document for a freshly created puzzle.
func NewDocument(puzzleID, name, imageID string, width, height float64, target int, seed uint64) *Document {
	now := time.Now().UTC().Format(time.RFC3339)
	return &Document{
		Puzzle: Puzzle{
			ID:        puzzleID,
			Name:      name,
			ImageID:   imageID,
			Width:     width,
			Height:    height,
			Target:    target,
			Seed:      seed,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Transforms:  make(map[string]table.Transform),
		ZOrder:      make(map[string]float64),
		Connections: nil,
	}
}

// Capture snapshots the live state of an engine into a document, keeping
// the supplied puzzle metadata.
func Capture(eng *game.Engine, meta Puzzle) *Document {
	doc := &Document{
		Puzzle:      meta,
		Transforms:  make(map[string]table.Transform),
		ZOrder:      make(map[string]float64),
		Connections: eng.Groups().Connections(),
	}
	if lat := eng.Lattice(); lat != nil {
		doc.Puzzle.Rows = lat.Rows
		doc.Puzzle.Cols = lat.Cols
	}
	doc.Puzzle.Seed = eng.Seed()
	doc.Puzzle.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	tab := eng.Table()
	for _, id := range tab.PieceIDs() {
		if tf, ok := tab.Transform(id); ok {
			doc.Transforms[id] = tf
		}
		doc.ZOrder[id] = tab.ZOrder(id)
	}
	return doc
}

// Restore loads a document into an engine: the puzzle is regenerated from
// its seed, then saved transforms, z-order, and confirmed connections are
// replayed. Transforms for unknown piece ids are ignored.
func Restore(eng *game.Engine, doc *Document) error {
	if doc == nil {
		return fmt.Errorf("nil state document")
	}
	if doc.Puzzle.Width <= 0 || doc.Puzzle.Height <= 0 {
		return fmt.Errorf("invalid puzzle dimensions %gx%g", doc.Puzzle.Width, doc.Puzzle.Height)
	}

	gen := eng.NewPuzzle(doc.Puzzle.Width, doc.Puzzle.Height, doc.Puzzle.Target, doc.Puzzle.Seed)
	if doc.Puzzle.Rows != 0 && (gen.Rows != doc.Puzzle.Rows || gen.Cols != doc.Puzzle.Cols) {
		return fmt.Errorf("regenerated grid %dx%d does not match stored %dx%d",
			gen.Rows, gen.Cols, doc.Puzzle.Rows, doc.Puzzle.Cols)
	}

	tab := eng.Table()
	for id, tf := range doc.Transforms {
		tab.SetPiecePosition(id, tf.Position)
		tab.SetPieceRotation(id, tf.Rotation)
		if tf.Scale > 0 {
			tab.SetPieceScale(id, tf.Scale)
		}
	}
	for id, z := range doc.ZOrder {
		tab.SetZOrder(id, z)
	}
	eng.ReplayConnections(doc.Connections)
	return nil
}

// Marshal serializes a document to JSON.
func Marshal(doc *Document) ([]byte, error) {
	return json.Marshal(doc)
}

// Unmarshal parses a document from JSON.
func Unmarshal(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse state document: %w", err)
	}
	return &doc, nil
}
