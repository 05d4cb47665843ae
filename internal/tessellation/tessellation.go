// Package tessellation provides the spatial partition lookup used to find
// scenes near a sky position, and the adapter that turns lookup results
// into hydrated scenes. Partition tables are maintained externally; only
// the call contract is owned here.
package tessellation

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
)

// ErrTableNotFound is returned when a named partition table does not exist.
var ErrTableNotFound = errors.New("tessellation table not found")

// GlobalTable is the partition table covering all published scenes.
const GlobalTable = "global"

// Service answers nearby queries against a named partition table.
type Service interface {
	// NearbyIDs returns up to limit scene ids adjacent to the given sky
	// position, nearest first. Returns ErrTableNotFound for an unknown
	// table name.
	NearbyIDs(ctx context.Context, table string, raRad, decRad float64, limit int) ([]string, error)
}

// entry is one indexed scene position.
type entry struct {
	id     string
	raRad  float64
	decRad float64
}

// InMemoryService is a brute-force Service implementation ranking entries
// by great-circle separation. Suitable for tests and small deployments;
// the production indexing algorithm lives outside this repository.
type InMemoryService struct {
	mu     sync.RWMutex
	tables map[string][]entry
}

// NewInMemoryService creates a service with the given tables pre-created.
func NewInMemoryService(tables ...string) *InMemoryService {
	s := &InMemoryService{tables: make(map[string][]entry)}
	for _, name := range tables {
		s.tables[name] = nil
	}
	return s
}

// Insert adds or replaces a scene position in a table, creating the table
// if needed.
func (s *InMemoryService) Insert(table, sceneID string, raRad, decRad float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.tables[table] {
		if e.id == sceneID {
			s.tables[table][i] = entry{id: sceneID, raRad: raRad, decRad: decRad}
			return
		}
	}
	s.tables[table] = append(s.tables[table], entry{id: sceneID, raRad: raRad, decRad: decRad})
}

// NearbyIDs returns up to limit ids nearest to the position.
func (s *InMemoryService) NearbyIDs(ctx context.Context, table string, raRad, decRad float64, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, ok := s.tables[table]
	if !ok {
		return nil, ErrTableNotFound
	}
	type ranked struct {
		id  string
		sep float64
	}
	rankedEntries := make([]ranked, 0, len(entries))
	for _, e := range entries {
		rankedEntries = append(rankedEntries, ranked{
			id:  e.id,
			sep: angularSeparation(raRad, decRad, e.raRad, e.decRad),
		})
	}
	sort.Slice(rankedEntries, func(i, j int) bool {
		return rankedEntries[i].sep < rankedEntries[j].sep
	})
	if limit > len(rankedEntries) {
		limit = len(rankedEntries)
	}
	if limit < 0 {
		limit = 0
	}
	out := make([]string, 0, limit)
	for _, r := range rankedEntries[:limit] {
		out = append(out, r.id)
	}
	return out, nil
}

// angularSeparation computes the great-circle angle between two sky
// positions via the spherical law of cosines.
func angularSeparation(ra1, dec1, ra2, dec2 float64) float64 {
	c := math.Sin(dec1)*math.Sin(dec2) + math.Cos(dec1)*math.Cos(dec2)*math.Cos(ra1-ra2)
	// Clamp against floating point drift before acos.
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c)
}
