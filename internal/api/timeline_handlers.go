package api

import (
	"net/http"
	"strconv"

	"github.com/skylight-social/skylight/internal/scene"
	"github.com/skylight-social/skylight/internal/session"
)

// TimelineHandlers holds dependencies for the discovery feeds.
type TimelineHandlers struct {
	scenes   scene.Repository
	hydrator *scene.Hydrator
	sessions session.Store
}

// NewTimelineHandlers creates a TimelineHandlers instance.
func NewTimelineHandlers(scenes scene.Repository, hydrator *scene.Hydrator, sessions session.Store) *TimelineHandlers {
	return &TimelineHandlers{scenes: scenes, hydrator: hydrator, sessions: sessions}
}

// parsePage reads a zero-based page query parameter, defaulting to 0.
func parsePage(r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 0 {
		return 0, false
	}
	return page, true
}

// timelineResponse is the body of the home timeline endpoint.
type timelineResponse struct {
	Error   bool                 `json:"error"`
	Page    int                  `json:"page"`
	Results []*scene.PublicScene `json:"results"`
}

// HomeTimeline handles GET /scenes/home-timeline?page=N: one fixed-size
// page of published scenes in ranking order, hydrated for the caller.
func (h *TimelineHandlers) HomeTimeline(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(r, "page")
	if !ok {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "page must be a non-negative integer")
		return
	}

	scenes, err := h.scenes.HomeTimeline(r.Context(), page)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	ledger := loadLedger(r, h.sessions)
	results := make([]*scene.PublicScene, 0, len(scenes))
	for _, s := range scenes {
		pub, err := h.hydrator.Hydrate(r.Context(), s, ledger)
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}
		results = append(results, pub)
	}

	WriteJSON(w, r.Context(), http.StatusOK, timelineResponse{Page: page, Results: results})
}

// astropixSummaryResponse is the body of the AstroPix summary endpoint.
type astropixSummaryResponse struct {
	Error  bool                           `json:"error"`
	Result map[string]map[string][]string `json:"result"`
}

// AstropixSummary handles GET /scenes/astropix-summary: for every published
// scene carrying an AstroPix cross-reference, publisher id to image id to
// ["@handle", scene id].
func (h *TimelineHandlers) AstropixSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.scenes.AstropixSummary(r.Context())
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	WriteJSON(w, r.Context(), http.StatusOK, astropixSummaryResponse{Result: summary})
}
