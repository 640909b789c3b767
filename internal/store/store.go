// Package store persists users, puzzles, and game-state snapshots in
// PostgreSQL.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool connects a pgx pool and verifies the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Store wraps the connection pool with typed queries.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	CreatedAt   time.Time
}

type Puzzle struct {
	ID        string
	Name      string
	OwnerID   string
	ImageID   string
	Width     float64
	Height    float64
	Target    int32
	Seed      int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Snapshot struct {
	ID        string
	PuzzleID  string
	Version   int32
	Document  []byte
	CreatedAt time.Time
}

type CreateUserParams struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
}

func (s *Store) CreateUser(ctx context.Context, p CreateUserParams) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, password, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, password, display_name, created_at`,
		p.ID, p.Email, p.Password, p.DisplayName,
	).Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, password, display_name, created_at
		FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

func (s *Store) GetUserByID(ctx context.Context, id string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, password, display_name, created_at
		FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, err
}

type CreatePuzzleParams struct {
	ID      string
	Name    string
	OwnerID string
	ImageID string
	Width   float64
	Height  float64
	Target  int32
	Seed    int64
}

func (s *Store) CreatePuzzle(ctx context.Context, p CreatePuzzleParams) (Puzzle, error) {
	var pz Puzzle
	err := s.pool.QueryRow(ctx, `
		INSERT INTO puzzles (id, name, owner_id, image_id, width, height, target, seed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, name, owner_id, image_id, width, height, target, seed, created_at, updated_at`,
		p.ID, p.Name, p.OwnerID, p.ImageID, p.Width, p.Height, p.Target, p.Seed,
	).Scan(&pz.ID, &pz.Name, &pz.OwnerID, &pz.ImageID, &pz.Width, &pz.Height,
		&pz.Target, &pz.Seed, &pz.CreatedAt, &pz.UpdatedAt)
	return pz, err
}

func (s *Store) GetPuzzle(ctx context.Context, id string) (Puzzle, error) {
	var pz Puzzle
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, owner_id, image_id, width, height, target, seed, created_at, updated_at
		FROM puzzles WHERE id = $1`,
		id,
	).Scan(&pz.ID, &pz.Name, &pz.OwnerID, &pz.ImageID, &pz.Width, &pz.Height,
		&pz.Target, &pz.Seed, &pz.CreatedAt, &pz.UpdatedAt)
	return pz, err
}

func (s *Store) ListPuzzlesForUser(ctx context.Context, ownerID string) ([]Puzzle, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, owner_id, image_id, width, height, target, seed, created_at, updated_at
		FROM puzzles WHERE owner_id = $1
		ORDER BY updated_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Puzzle
	for rows.Next() {
		var pz Puzzle
		if err := rows.Scan(&pz.ID, &pz.Name, &pz.OwnerID, &pz.ImageID, &pz.Width,
			&pz.Height, &pz.Target, &pz.Seed, &pz.CreatedAt, &pz.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, pz)
	}
	return out, rows.Err()
}

func (s *Store) DeletePuzzle(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM puzzles WHERE id = $1`, id)
	return err
}

type CreateSnapshotParams struct {
	ID       string
	PuzzleID string
	Version  int32
	Document []byte
}

func (s *Store) CreateSnapshot(ctx context.Context, p CreateSnapshotParams) (Snapshot, error) {
	var snap Snapshot
	err := s.pool.QueryRow(ctx, `
		INSERT INTO snapshots (id, puzzle_id, version, document)
		VALUES ($1, $2, $3, $4)
		RETURNING id, puzzle_id, version, document, created_at`,
		p.ID, p.PuzzleID, p.Version, p.Document,
	).Scan(&snap.ID, &snap.PuzzleID, &snap.Version, &snap.Document, &snap.CreatedAt)
	return snap, err
}

func (s *Store) GetLatestSnapshot(ctx context.Context, puzzleID string) (Snapshot, error) {
	var snap Snapshot
	err := s.pool.QueryRow(ctx, `
		SELECT id, puzzle_id, version, document, created_at
		FROM snapshots WHERE puzzle_id = $1
		ORDER BY version DESC LIMIT 1`,
		puzzleID,
	).Scan(&snap.ID, &snap.PuzzleID, &snap.Version, &snap.Document, &snap.CreatedAt)
	return snap, err
}
