// Package image provides read access to the image catalog. The scene core
// only resolves references; image lifecycle is owned elsewhere.
package image

import (
	"context"
	"errors"
	"sync"
)

// ErrImageNotFound is returned when an image id does not resolve.
var ErrImageNotFound = errors.New("image not found")

// Imageset carries the WorldWide-Telescope style display parameters a
// viewer needs to position an image on the sky.
type Imageset struct {
	URL                string  `json:"url"`
	ThumbnailURL       string  `json:"thumbnail_url,omitempty"`
	ProjectionType     string  `json:"projection_type"`
	CenterX            float64 `json:"center_x"`
	CenterY            float64 `json:"center_y"`
	OffsetX            float64 `json:"offset_x"`
	OffsetY            float64 `json:"offset_y"`
	Rotation           float64 `json:"rotation_deg"`
	BaseDegreesPerTile float64 `json:"base_degrees_per_tile"`
	BottomsUp          bool    `json:"bottoms_up"`
	TileLevels         int     `json:"tile_levels"`
	WidthFactor        int     `json:"width_factor"`
}

// Image is the display metadata of a catalog image.
type Image struct {
	ID      string   `json:"id"`
	AltText string   `json:"alt_text,omitempty"`
	Credits string   `json:"credits,omitempty"`
	Wwt     Imageset `json:"wwt"`
}

// Store resolves image references.
type Store interface {
	// GetByID retrieves an image. Returns ErrImageNotFound if absent.
	GetByID(ctx context.Context, id string) (*Image, error)

	// Exists reports whether an image id resolves. Used by payload
	// validation so a bad reference is a 400, not a 500.
	Exists(ctx context.Context, id string) (bool, error)
}

// InMemoryStore is an in-memory Store used by tests and local development.
type InMemoryStore struct {
	mu     sync.RWMutex
	images map[string]*Image
}

// NewInMemoryStore creates an empty in-memory image store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{images: make(map[string]*Image)}
}

// Add registers an image.
func (s *InMemoryStore) Add(img *Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dup := *img
	s.images[img.ID] = &dup
}

// GetByID retrieves an image by id.
func (s *InMemoryStore) GetByID(ctx context.Context, id string) (*Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[id]
	if !ok {
		return nil, ErrImageNotFound
	}
	dup := *img
	return &dup, nil
}

// Exists reports whether an image id resolves.
func (s *InMemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.images[id]
	return ok, nil
}
