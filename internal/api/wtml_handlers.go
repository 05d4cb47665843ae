package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/skylight-social/skylight/internal/image"
	"github.com/skylight-social/skylight/internal/scene"
	"github.com/skylight-social/skylight/internal/wtml"
)

// WTMLHandlers holds dependencies for the legacy catalog export.
type WTMLHandlers struct {
	scenes scene.Repository
	images image.Store
}

// NewWTMLHandlers creates a WTMLHandlers instance.
func NewWTMLHandlers(scenes scene.Repository, images image.Store) *WTMLHandlers {
	return &WTMLHandlers{scenes: scenes, images: images}
}

// GetPlaceWTML handles GET /scene/{id}/place.wtml: the scene rendered as a
// single-place WTML folder for the legacy viewer. Scenes with zero or
// multiple layers are not representable and 404.
func (h *WTMLHandlers) GetPlaceWTML(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s, err := h.scenes.GetByID(r.Context(), id)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	lp, err := s.ToLegacyPlace()
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	img, err := h.images.GetByID(r.Context(), lp.ImageID)
	if err != nil {
		if errors.Is(err, image.ErrImageNotFound) {
			// The stored layer reference is dangling.
			WriteDomainError(w, r, scene.ConsistencyError{Kind: "image", ID: lp.ImageID})
			return
		}
		WriteDomainError(w, r, err)
		return
	}

	doc, err := wtml.Marshal(wtml.BuildPlaceDocument(lp, img))
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		slog.ErrorContext(r.Context(), "failed to write wtml response", "error", err)
	}
}
