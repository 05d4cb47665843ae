package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/skylight-social/skylight/internal/authz"
	"github.com/skylight-social/skylight/internal/middleware"
	"github.com/skylight-social/skylight/internal/scene"
	"github.com/skylight-social/skylight/internal/session"
)

// SceneHandlers holds dependencies for scene CRUD handlers.
type SceneHandlers struct {
	engine   *scene.Engine
	scenes   scene.Repository
	hydrator *scene.Hydrator
	gate     *authz.Gate
	sessions session.Store
	logger   *slog.Logger
}

// NewSceneHandlers creates a SceneHandlers instance.
func NewSceneHandlers(engine *scene.Engine, scenes scene.Repository,
	hydrator *scene.Hydrator, gate *authz.Gate, sessions session.Store,
	logger *slog.Logger) *SceneHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &SceneHandlers{
		engine:   engine,
		scenes:   scenes,
		hydrator: hydrator,
		gate:     gate,
		sessions: sessions,
		logger:   logger,
	}
}

// loadLedger fetches the caller's session ledger, or nil when the request
// carries no usable session. Read paths never fail on session problems.
func loadLedger(r *http.Request, sessions session.Store) *session.Ledger {
	id := middleware.GetSessionID(r.Context())
	if id == "" {
		return nil
	}
	ledger, err := sessions.Get(r.Context(), id)
	if err != nil {
		return nil
	}
	return ledger
}

// createSceneResponse is the body returned by CreateScene.
type createSceneResponse struct {
	Error  bool   `json:"error"`
	ID     string `json:"id"`
	RelURL string `json:"rel_url"`
}

// CreateScene handles POST /handle/{handle}/scene.
func (h *SceneHandlers) CreateScene(w http.ResponseWriter, r *http.Request) {
	handleName := r.PathValue("handle")

	var req scene.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON in request body")
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	s, err := h.engine.Create(r.Context(), principal, handleName, &req)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	// Creation answers 200, not 201, for parity with existing clients.
	WriteJSON(w, r.Context(), http.StatusOK, createSceneResponse{
		ID:     s.ID,
		RelURL: "/scene/" + s.ID,
	})
}

// GetScene handles GET /scene/{id}.
func (h *SceneHandlers) GetScene(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s, err := h.scenes.GetByID(r.Context(), id)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	pub, err := h.hydrator.Hydrate(r.Context(), s, loadLedger(r, h.sessions))
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, struct {
		Error bool `json:"error"`
		*scene.PublicScene
	}{PublicScene: pub})
}

// permissionsResponse is the body returned by GetPermissions.
type permissionsResponse struct {
	Error bool   `json:"error"`
	ID    string `json:"id"`
	Edit  bool   `json:"edit"`
}

// GetPermissions handles GET /scene/{id}/permissions. Anonymous callers get
// edit:false rather than a 401.
func (h *SceneHandlers) GetPermissions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s, err := h.scenes.GetByID(r.Context(), id)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	edit, err := h.gate.CanEdit(r.Context(), middleware.GetPrincipal(r.Context()), s)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, permissionsResponse{ID: id, Edit: edit})
}

// UpdateScene handles PATCH /scene/{id}.
func (h *SceneHandlers) UpdateScene(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req scene.PatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON in request body")
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	if err := h.engine.Patch(r.Context(), principal, id, &req); err != nil {
		WriteDomainError(w, r, err)
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, struct {
		Error bool `json:"error"`
	}{})
}
