package api

import (
	"net/http"
	"strconv"

	"github.com/skylight-social/skylight/internal/authz"
	"github.com/skylight-social/skylight/internal/handle"
	"github.com/skylight-social/skylight/internal/middleware"
	"github.com/skylight-social/skylight/internal/scene"
)

// Dashboard paging bounds.
const (
	DefaultDashboardPageSize = 10
	MaxDashboardPageSize     = 100
)

// HandleHandlers holds dependencies for handle-scoped endpoints.
type HandleHandlers struct {
	scenes  scene.Repository
	handles handle.Directory
	gate    *authz.Gate
}

// NewHandleHandlers creates a HandleHandlers instance.
func NewHandleHandlers(scenes scene.Repository, handles handle.Directory, gate *authz.Gate) *HandleHandlers {
	return &HandleHandlers{scenes: scenes, handles: handles, gate: gate}
}

// sceneInfoResponse is the dashboard body: per-scene counters plus the
// handle's total scene count for the pager.
type sceneInfoResponse struct {
	Error      bool            `json:"error"`
	TotalCount int             `json:"total_count"`
	Results    []scene.Summary `json:"results"`
}

// GetSceneInfo handles GET /handle/{handle}/sceneinfo?page=&pagesize=.
// Requires the viewDashboard capability on the handle.
func (h *HandleHandlers) GetSceneInfo(w http.ResponseWriter, r *http.Request) {
	handleName := r.PathValue("handle")

	page, ok := parsePage(r, "page")
	if !ok {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "page must be a non-negative integer")
		return
	}
	pageSize := DefaultDashboardPageSize
	if raw := r.URL.Query().Get("pagesize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxDashboardPageSize {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest,
				"pagesize must be between 1 and "+strconv.Itoa(MaxDashboardPageSize))
			return
		}
		pageSize = n
	}

	if _, err := h.handles.GetByName(r.Context(), handleName); err != nil {
		WriteDomainError(w, r, err)
		return
	}
	principal := middleware.GetPrincipal(r.Context())
	if err := h.gate.CanViewDashboard(r.Context(), principal, handleName); err != nil {
		WriteDomainError(w, r, err)
		return
	}

	summaries, err := h.scenes.HandleSummary(r.Context(), handleName, page, pageSize)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	ids, err := h.scenes.IDsByHandle(r.Context(), handleName)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []scene.Summary{}
	}

	WriteJSON(w, r.Context(), http.StatusOK, sceneInfoResponse{
		TotalCount: len(ids),
		Results:    summaries,
	})
}
