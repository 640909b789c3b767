package puzzle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/jackc/pgx/v5"

	"github.com/interlock/interlock/backend-go/internal/game"
	"github.com/interlock/interlock/backend-go/internal/state"
	"github.com/interlock/interlock/backend-go/internal/store"
	"github.com/interlock/interlock/backend-go/internal/typeid"
)

var (
	ErrNotFound     = errors.New("puzzle not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state document")
)

type Service struct {
	store *store.Store
}

func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

type Puzzle struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	OwnerID    string  `json:"ownerId"`
	ImageID    string  `json:"imageId"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Target     int     `json:"target"`
	PieceCount int     `json:"pieceCount"`
	CreatedAt  string  `json:"createdAt"`
	UpdatedAt  string  `json:"updatedAt"`
}

// Create generates a new puzzle from an uploaded image's dimensions, runs
// the engine once to capture the starting state, and stores it as snapshot
// version 1. Pieces are stored at their solution positions; the frontend
// scatters them on first load.
func (s *Service) Create(ctx context.Context, name, ownerID, imageID string, width, height float64, target int) (*Puzzle, error) {
	puzzleID := typeid.NewPuzzleID()
	seed := rand.Uint64()

	dbPz, err := s.store.CreatePuzzle(ctx, store.CreatePuzzleParams{
		ID:      puzzleID,
		Name:    name,
		OwnerID: ownerID,
		ImageID: imageID,
		Width:   width,
		Height:  height,
		Target:  int32(target),
		Seed:    int64(seed),
	})
	if err != nil {
		return nil, fmt.Errorf("create puzzle: %w", err)
	}

	// Seed the initial game state.
	eng := game.NewEngine()
	gen := eng.NewPuzzle(width, height, target, seed)
	doc := state.Capture(eng, state.Puzzle{
		ID:      puzzleID,
		Name:    name,
		ImageID: imageID,
		Width:   width,
		Height:  height,
		Target:  target,
		Seed:    seed,
	})
	docJSON, err := state.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal initial state: %w", err)
	}

	_, err = s.store.CreateSnapshot(ctx, store.CreateSnapshotParams{
		ID:       typeid.NewSnapshotID(),
		PuzzleID: puzzleID,
		Version:  1,
		Document: docJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	out := dbPuzzleToPuzzle(dbPz)
	out.PieceCount = gen.ActualCount
	return out, nil
}

func (s *Service) Get(ctx context.Context, puzzleID, userID string) (*Puzzle, error) {
	dbPz, err := s.getOwned(ctx, puzzleID, userID)
	if err != nil {
		return nil, err
	}
	return dbPuzzleToPuzzle(dbPz), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Puzzle, error) {
	dbPuzzles, err := s.store.ListPuzzlesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list puzzles: %w", err)
	}

	puzzles := make([]Puzzle, len(dbPuzzles))
	for i, p := range dbPuzzles {
		puzzles[i] = *dbPuzzleToPuzzle(p)
	}
	return puzzles, nil
}

func (s *Service) Delete(ctx context.Context, puzzleID, userID string) error {
	if _, err := s.getOwned(ctx, puzzleID, userID); err != nil {
		return err
	}
	return s.store.DeletePuzzle(ctx, puzzleID)
}

// GetLatestSnapshot returns the most recent game-state document.
func (s *Service) GetLatestSnapshot(ctx context.Context, puzzleID, userID string) (json.RawMessage, error) {
	if _, err := s.getOwned(ctx, puzzleID, userID); err != nil {
		return nil, err
	}

	snap, err := s.store.GetLatestSnapshot(ctx, puzzleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap.Document, nil
}

// SaveSnapshot validates and stores a new game-state document at the next
// version. The document must restore cleanly into an engine.
func (s *Service) SaveSnapshot(ctx context.Context, puzzleID, userID string, docJSON json.RawMessage) error {
	if _, err := s.getOwned(ctx, puzzleID, userID); err != nil {
		return err
	}

	doc, err := state.Unmarshal(docJSON)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if err := state.Restore(game.NewEngine(), doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	nextVersion := int32(1)
	if cur, err := s.store.GetLatestSnapshot(ctx, puzzleID); err == nil {
		nextVersion = cur.Version + 1
	}

	_, err = s.store.CreateSnapshot(ctx, store.CreateSnapshotParams{
		ID:       typeid.NewSnapshotID(),
		PuzzleID: puzzleID,
		Version:  nextVersion,
		Document: docJSON,
	})
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	return nil
}

func (s *Service) getOwned(ctx context.Context, puzzleID, userID string) (store.Puzzle, error) {
	dbPz, err := s.store.GetPuzzle(ctx, puzzleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Puzzle{}, ErrNotFound
		}
		return store.Puzzle{}, fmt.Errorf("get puzzle: %w", err)
	}
	if dbPz.OwnerID != userID {
		return store.Puzzle{}, ErrForbidden
	}
	return dbPz, nil
}

func dbPuzzleToPuzzle(p store.Puzzle) *Puzzle {
	return &Puzzle{
		ID:        p.ID,
		Name:      p.Name,
		OwnerID:   p.OwnerID,
		ImageID:   p.ImageID,
		Width:     p.Width,
		Height:    p.Height,
		Target:    int(p.Target),
		CreatedAt: p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt: p.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
