package api

import (
	"net/http"
	"strconv"

	"github.com/skylight-social/skylight/internal/scene"
	"github.com/skylight-social/skylight/internal/session"
	"github.com/skylight-social/skylight/internal/tessellation"
)

// Nearby result bounds.
const (
	DefaultNearbySize = 12
	MaxNearbySize     = 50
)

// NearbyHandlers holds dependencies for the nearby-scene query.
type NearbyHandlers struct {
	adapter  *tessellation.Adapter
	sessions session.Store
}

// NewNearbyHandlers creates a NearbyHandlers instance.
func NewNearbyHandlers(adapter *tessellation.Adapter, sessions session.Store) *NearbyHandlers {
	return &NearbyHandlers{adapter: adapter, sessions: sessions}
}

// nearbyResponse is the body of the nearby endpoint.
type nearbyResponse struct {
	Error   bool                 `json:"error"`
	Results []*scene.PublicScene `json:"results"`
}

// NearbyGlobal handles GET /scene/{id}/nearby-global?size=N: scenes
// adjacent to the anchor scene in the global partition table, anchor
// excluded.
func (h *NearbyHandlers) NearbyGlobal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	size := DefaultNearbySize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "size must be a positive integer")
			return
		}
		if n > MaxNearbySize {
			n = MaxNearbySize
		}
		size = n
	}

	results, err := h.adapter.Nearby(r.Context(), id, tessellation.GlobalTable, size, loadLedger(r, h.sessions))
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	if results == nil {
		results = []*scene.PublicScene{}
	}
	WriteJSON(w, r.Context(), http.StatusOK, nearbyResponse{Results: results})
}
