package scene

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Counter names a persisted interaction counter.
type Counter string

// Persisted interaction counters.
const (
	CounterImpressions Counter = "impressions"
	CounterLikes       Counter = "likes"
	CounterClicks      Counter = "clicks"
	CounterShares      Counter = "shares"
)

// Summary is the dashboard projection of a scene: identity, counters, and
// enough content to recognize the scene, without hydration.
type Summary struct {
	ID           string `json:"id"`
	CreationDate string `json:"creation_date"`
	Impressions  int64  `json:"impressions"`
	Likes        int64  `json:"likes"`
	Clicks       int64  `json:"clicks"`
	Shares       int64  `json:"shares"`
	Published    bool   `json:"published"`
	Text         string `json:"text"`
}

// HomeTimelinePageSize is the fixed page size of the home timeline.
const HomeTimelinePageSize = 8

// Repository defines persistence for the scene aggregate.
//
// ApplyUpdate must write every field of the operation in a single store
// write or none of them; callers complete validation and authorization
// before invoking it. ChangeCount must be atomic and clamp the counter at
// zero on decrement.
type Repository interface {
	// Insert stores a new scene. The id must be unique.
	Insert(ctx context.Context, s *Scene) error

	// GetByID retrieves a scene. Returns ErrSceneNotFound if absent.
	GetByID(ctx context.Context, id string) (*Scene, error)

	// ApplyUpdate applies a set/unset operation as one atomic write.
	// Returns ErrSceneNotFound if the scene is absent.
	ApplyUpdate(ctx context.Context, id string, upd Update) error

	// ChangeCount adjusts one interaction counter by delta, clamped at zero.
	ChangeCount(ctx context.Context, id string, counter Counter, delta int64) error

	// HomeTimeline returns the page of published, ranked scenes ordered by
	// ranking key ascending. Pages are zero-based with a fixed size of
	// HomeTimelinePageSize.
	HomeTimeline(ctx context.Context, page int) ([]*Scene, error)

	// AstropixSummary maps publisher id to image id to ["@handle", scene id]
	// over published scenes carrying an AstroPix cross-reference.
	AstropixSummary(ctx context.Context) (map[string]map[string][]string, error)

	// HandleSummary returns the dashboard projection of a handle's scenes,
	// newest first, zero-based pages of the requested size.
	HandleSummary(ctx context.Context, handle string, page, pageSize int) ([]Summary, error)

	// IDsByHandle returns the ids of every scene owned by a handle.
	IDsByHandle(ctx context.Context, handle string) ([]string, error)

	// PublishedPositions maps every published scene id to its place. Used to
	// seed the spatial index at startup.
	PublishedPositions(ctx context.Context) (map[string]Place, error)
}

// InMemoryRepository is an in-memory Repository used by tests and local
// development.
type InMemoryRepository struct {
	mu     sync.RWMutex
	scenes map[string]*Scene
}

// NewInMemoryRepository creates an empty in-memory scene repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{scenes: make(map[string]*Scene)}
}

func copyScene(s *Scene) *Scene {
	dup := *s
	if s.Content.ImageLayers != nil {
		dup.Content.ImageLayers = append([]ImageLayer(nil), s.Content.ImageLayers...)
	}
	if s.Previews != nil {
		dup.Previews = make(map[string]string, len(s.Previews))
		for k, v := range s.Previews {
			dup.Previews[k] = v
		}
	}
	if s.HomeTimelineOrder != nil {
		order := *s.HomeTimelineOrder
		dup.HomeTimelineOrder = &order
	}
	if s.Astropix != nil {
		ap := *s.Astropix
		dup.Astropix = &ap
	}
	return &dup
}

// Insert stores a new scene.
func (r *InMemoryRepository) Insert(ctx context.Context, s *Scene) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.scenes[s.ID]; exists {
		return StorageError{Op: "insert", Err: fmt.Errorf("duplicate id %q", s.ID)}
	}
	r.scenes[s.ID] = copyScene(s)
	return nil
}

// GetByID retrieves a scene by id.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Scene, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scenes[id]
	if !ok {
		return nil, ErrSceneNotFound
	}
	return copyScene(s), nil
}

// ApplyUpdate applies the set/unset operation to the stored scene.
func (r *InMemoryRepository) ApplyUpdate(ctx context.Context, id string, upd Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scenes[id]
	if !ok {
		return ErrSceneNotFound
	}
	for field, value := range upd.Set {
		switch field {
		case FieldText:
			s.Text = value.(string)
		case FieldOutgoingURL:
			s.OutgoingURL = value.(string)
		case FieldPlace:
			s.Place = value.(Place)
		case FieldBackground:
			s.Content.BackgroundID = value.(string)
		case FieldPublished:
			s.Published = value.(bool)
		case FieldAstropix:
			ap := value.(Astropix)
			s.Astropix = &ap
		default:
			return StorageError{Op: "update", Err: fmt.Errorf("unknown field %q", field)}
		}
	}
	for _, field := range upd.Unset {
		switch field {
		case FieldAstropix:
			s.Astropix = nil
		default:
			return StorageError{Op: "update", Err: fmt.Errorf("field %q cannot be unset", field)}
		}
	}
	return nil
}

// ChangeCount adjusts a counter by delta, clamped at zero.
func (r *InMemoryRepository) ChangeCount(ctx context.Context, id string, counter Counter, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scenes[id]
	if !ok {
		return ErrSceneNotFound
	}
	var target *int64
	switch counter {
	case CounterImpressions:
		target = &s.Impressions
	case CounterLikes:
		target = &s.Likes
	case CounterClicks:
		target = &s.Clicks
	case CounterShares:
		target = &s.Shares
	default:
		return StorageError{Op: "change_count", Err: fmt.Errorf("unknown counter %q", counter)}
	}
	*target += delta
	if *target < 0 {
		*target = 0
	}
	return nil
}

// HomeTimeline returns published, ranked scenes ordered by ranking key.
func (r *InMemoryRepository) HomeTimeline(ctx context.Context, page int) ([]*Scene, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ranked []*Scene
	for _, s := range r.scenes {
		if s.Published && s.HomeTimelineOrder != nil {
			ranked = append(ranked, s)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		return *ranked[i].HomeTimelineOrder < *ranked[j].HomeTimelineOrder
	})
	start := page * HomeTimelinePageSize
	if start < 0 || start >= len(ranked) {
		return nil, nil
	}
	end := start + HomeTimelinePageSize
	if end > len(ranked) {
		end = len(ranked)
	}
	out := make([]*Scene, 0, end-start)
	for _, s := range ranked[start:end] {
		out = append(out, copyScene(s))
	}
	return out, nil
}

// AstropixSummary maps publisher to image to ["@handle", scene id].
func (r *InMemoryRepository) AstropixSummary(ctx context.Context) (map[string]map[string][]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]map[string][]string)
	for _, s := range r.scenes {
		if !s.Published || s.Astropix == nil {
			continue
		}
		byImage, ok := out[s.Astropix.PublisherID]
		if !ok {
			byImage = make(map[string][]string)
			out[s.Astropix.PublisherID] = byImage
		}
		byImage[s.Astropix.ImageID] = []string{"@" + s.Handle, s.ID}
	}
	return out, nil
}

// HandleSummary returns the dashboard projection for one handle.
func (r *InMemoryRepository) HandleSummary(ctx context.Context, handle string, page, pageSize int) ([]Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var owned []*Scene
	for _, s := range r.scenes {
		if s.Handle == handle {
			owned = append(owned, s)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].CreationDate.After(owned[j].CreationDate)
	})
	start := page * pageSize
	if start < 0 || start >= len(owned) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(owned) {
		end = len(owned)
	}
	out := make([]Summary, 0, end-start)
	for _, s := range owned[start:end] {
		out = append(out, summarize(s))
	}
	return out, nil
}

// IDsByHandle returns the ids of every scene owned by the handle.
func (r *InMemoryRepository) IDsByHandle(ctx context.Context, handle string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for id, s := range r.scenes {
		if s.Handle == handle {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// PublishedPositions maps published scene ids to their places.
func (r *InMemoryRepository) PublishedPositions(ctx context.Context) (map[string]Place, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Place)
	for id, s := range r.scenes {
		if s.Published {
			out[id] = s.Place
		}
	}
	return out, nil
}

func summarize(s *Scene) Summary {
	return Summary{
		ID:           s.ID,
		CreationDate: s.CreationDate.UTC().Format("2006-01-02T15:04:05Z"),
		Impressions:  s.Impressions,
		Likes:        s.Likes,
		Clicks:       s.Clicks,
		Shares:       s.Shares,
		Published:    s.Published,
		Text:         s.Text,
	}
}
