// Package imagestore stores uploaded puzzle images on disk. The store is
// an explicit resource with an idempotent Init rather than ambient global
// state: handlers hold a *Store and initialization happens exactly once,
// on first use or eagerly at startup.
package imagestore

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/interlock/interlock/backend-go/internal/typeid"
)

// Store saves and serves puzzle images under a single directory. All
// images are normalized to PNG on ingest.
type Store struct {
	dir string

	initOnce sync.Once
	initErr  error
}

// NewStore creates a store rooted at dir. The directory is created on
// Init, not here.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Init creates the storage directory. Safe to call any number of times;
// the work happens once and later calls return the same result.
func (s *Store) Init() error {
	s.initOnce.Do(func() {
		s.initErr = os.MkdirAll(s.dir, 0o755)
	})
	return s.initErr
}

// Saved is the result of storing an image.
type Saved struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Name   string `json:"name"`
}

// Save decodes, validates, and stores an image, returning its id and
// pixel dimensions. Only PNG and JPEG inputs are accepted.
func (s *Store) Save(r io.Reader, originalName string) (*Saved, error) {
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("init image store: %w", err)
	}

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	imageID := typeid.NewImageID()
	path := filepath.Join(s.dir, imageID+".png")

	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create image file: %w", err)
	}
	defer out.Close()

	if err := png.Encode(out, img); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("encode png: %w", err)
	}

	return &Saved{
		ID:     imageID,
		URL:    "/images/" + imageID + ".png",
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Name:   originalName,
	}, nil
}

// Delete removes a stored image. Missing images are reported as errors.
func (s *Store) Delete(imageID string) error {
	if err := s.Init(); err != nil {
		return err
	}
	path := filepath.Join(s.dir, imageID+".png")
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("image not found: %s", imageID)
	}
	return nil
}

// Dir returns the storage directory, for serving files.
func (s *Store) Dir() string {
	return s.dir
}
