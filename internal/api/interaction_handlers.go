package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/skylight-social/skylight/internal/middleware"
	"github.com/skylight-social/skylight/internal/scene"
	"github.com/skylight-social/skylight/internal/session"
)

// InteractionHandlers holds dependencies for the impression, like, share,
// and click endpoints.
type InteractionHandlers struct {
	scenes   scene.Repository
	sessions session.Store
	logger   *slog.Logger
	now      func() time.Time
}

// NewInteractionHandlers creates an InteractionHandlers instance.
func NewInteractionHandlers(scenes scene.Repository, sessions session.Store, logger *slog.Logger) *InteractionHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &InteractionHandlers{
		scenes:   scenes,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// interactionResponse is the body of every interaction endpoint. Success
// reports whether this request actually counted; a deduplicated repeat is
// still a 200 with success:false.
type interactionResponse struct {
	Error   bool   `json:"error"`
	ID      string `json:"id"`
	Success bool   `json:"success"`
}

// mutateLedger loads the session ledger, applies fn, and saves it back when
// fn reports a change. Returns false when the request has no usable session
// or the ledger was already in the requested state.
func (h *InteractionHandlers) mutateLedger(r *http.Request, fn func(*session.Ledger) bool) (bool, error) {
	id := middleware.GetSessionID(r.Context())
	if id == "" {
		return false, nil
	}
	ledger, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		if err == session.ErrSessionNotFound {
			return false, nil
		}
		return false, err
	}
	if !fn(ledger) {
		return false, nil
	}
	if err := h.sessions.Save(r.Context(), id, ledger); err != nil {
		if err == session.ErrSessionNotFound {
			// Session expired between Get and Save; treat as no session.
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// AddImpression handles POST /scene/{id}/impressions. Idempotent per
// session: only the first impression per scene increments the counter.
func (h *InteractionHandlers) AddImpression(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.scenes.GetByID(r.Context(), id); err != nil {
		WriteDomainError(w, r, err)
		return
	}

	counted, err := h.mutateLedger(r, func(l *session.Ledger) bool {
		return l.TryAddImpression(id, h.now().UTC())
	})
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	if counted {
		if err := h.scenes.ChangeCount(r.Context(), id, scene.CounterImpressions, 1); err != nil {
			WriteDomainError(w, r, err)
			return
		}
	}
	WriteJSON(w, r.Context(), http.StatusOK, interactionResponse{ID: id, Success: counted})
}

// AddLike handles POST /scene/{id}/likes. Idempotent per session.
func (h *InteractionHandlers) AddLike(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.scenes.GetByID(r.Context(), id); err != nil {
		WriteDomainError(w, r, err)
		return
	}

	counted, err := h.mutateLedger(r, func(l *session.Ledger) bool {
		return l.TryAddLike(id)
	})
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	if counted {
		if err := h.scenes.ChangeCount(r.Context(), id, scene.CounterLikes, 1); err != nil {
			WriteDomainError(w, r, err)
			return
		}
	}
	WriteJSON(w, r.Context(), http.StatusOK, interactionResponse{ID: id, Success: counted})
}

// RemoveLike handles DELETE /scene/{id}/likes. Only a session that holds
// the like can retract it; the counter never goes below zero.
func (h *InteractionHandlers) RemoveLike(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.scenes.GetByID(r.Context(), id); err != nil {
		WriteDomainError(w, r, err)
		return
	}

	removed, err := h.mutateLedger(r, func(l *session.Ledger) bool {
		return l.TryRemoveLike(id)
	})
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	if removed {
		if err := h.scenes.ChangeCount(r.Context(), id, scene.CounterLikes, -1); err != nil {
			WriteDomainError(w, r, err)
			return
		}
	}
	WriteJSON(w, r.Context(), http.StatusOK, interactionResponse{ID: id, Success: removed})
}

// AddShare handles POST /scene/{id}/shares/{type}. Shares are deliberately
// not deduplicated: sharing to multiple channels, or twice to one, counts
// each time. Like the other interactions, only a live session counts; a
// request without one answers success:false.
func (h *InteractionHandlers) AddShare(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	shareType := r.PathValue("type")
	if !scene.ShareChannels[shareType] {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeSchema,
			"unknown share type "+shareType)
		return
	}
	if _, err := h.scenes.GetByID(r.Context(), id); err != nil {
		WriteDomainError(w, r, err)
		return
	}

	live := false
	if sessionID := middleware.GetSessionID(r.Context()); sessionID != "" {
		ok, err := h.sessions.Valid(r.Context(), sessionID)
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}
		live = ok
	}
	if !live {
		WriteJSON(w, r.Context(), http.StatusOK, interactionResponse{ID: id, Success: false})
		return
	}

	if err := h.scenes.ChangeCount(r.Context(), id, scene.CounterShares, 1); err != nil {
		WriteDomainError(w, r, err)
		return
	}
	WriteJSON(w, r.Context(), http.StatusOK, interactionResponse{ID: id, Success: true})
}

// Click handles GET /scene/{id}/click: count the click-through, then
// redirect to the scene's outgoing link. Scenes without one 404.
func (h *InteractionHandlers) Click(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s, err := h.scenes.GetByID(r.Context(), id)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	if s.OutgoingURL == "" {
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "scene has no outgoing link")
		return
	}

	if err := h.scenes.ChangeCount(r.Context(), id, scene.CounterClicks, 1); err != nil {
		// The redirect matters more than the counter; log and continue.
		h.logger.Error("click count failed", "scene_id", id, "error", err)
	}
	http.Redirect(w, r, s.OutgoingURL, http.StatusFound)
}
