package tessellation

import (
	"context"

	"github.com/skylight-social/skylight/internal/scene"
	"github.com/skylight-social/skylight/internal/session"
)

// Adapter translates "scenes near this scene" into a bounded list of
// hydrated scenes: it resolves the anchor scene's position, queries the
// tessellation service, and hydrates each returned id.
type Adapter struct {
	svc      Service
	scenes   scene.Repository
	hydrator *scene.Hydrator
}

// NewAdapter creates an Adapter.
func NewAdapter(svc Service, scenes scene.Repository, hydrator *scene.Hydrator) *Adapter {
	return &Adapter{svc: svc, scenes: scenes, hydrator: hydrator}
}

// Nearby returns up to limit hydrated scenes adjacent to the anchor scene,
// excluding the anchor itself. The ledger may be nil.
func (a *Adapter) Nearby(ctx context.Context, sceneID, table string, limit int, ledger *session.Ledger) ([]*scene.PublicScene, error) {
	anchor, err := a.scenes.GetByID(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	// One extra candidate covers the anchor appearing in its own results.
	ids, err := a.svc.NearbyIDs(ctx, table, anchor.Place.RARad, anchor.Place.DecRad, limit+1)
	if err != nil {
		return nil, err
	}
	out := make([]*scene.PublicScene, 0, limit)
	for _, id := range ids {
		if id == sceneID || len(out) == limit {
			continue
		}
		s, err := a.scenes.GetByID(ctx, id)
		if err == scene.ErrSceneNotFound {
			// The partition table is maintained out of band and may lag
			// behind deletions; a stale id is skipped, not fatal.
			continue
		}
		if err != nil {
			return nil, err
		}
		pub, err := a.hydrator.Hydrate(ctx, s, ledger)
		if err != nil {
			return nil, err
		}
		out = append(out, pub)
	}
	return out, nil
}
