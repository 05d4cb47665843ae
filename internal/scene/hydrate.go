package scene

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/skylight-social/skylight/internal/handle"
	"github.com/skylight-social/skylight/internal/image"
	"github.com/skylight-social/skylight/internal/session"
)

// PublicHandle is the owner projection embedded in a hydrated scene.
type PublicHandle struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
}

// PublicLayer is a hydrated image layer.
type PublicLayer struct {
	Image   *image.Image `json:"image"`
	Opacity float64      `json:"opacity"`
}

// PublicContent is the hydrated visual composition.
type PublicContent struct {
	Background  *image.Image  `json:"background,omitempty"`
	ImageLayers []PublicLayer `json:"image_layers,omitempty"`
}

// PublicScene is the display-ready projection of a scene: every stored
// reference resolved, previews rewritten to absolute URLs, and the liked
// flag computed from the caller's session.
type PublicScene struct {
	ID           string            `json:"id"`
	Handle       PublicHandle      `json:"handle"`
	CreationDate time.Time         `json:"creation_date"`
	Impressions  int64             `json:"impressions"`
	Likes        int64             `json:"likes"`
	Clicks       int64             `json:"clicks"`
	Shares       int64             `json:"shares"`
	Place        Place             `json:"place"`
	Content      PublicContent     `json:"content"`
	Previews     map[string]string `json:"previews"`
	OutgoingURL  string            `json:"outgoing_url,omitempty"`
	Text         string            `json:"text"`
	Published    bool              `json:"published"`
	Liked        bool              `json:"liked"`
	Astropix     *Astropix         `json:"astropix,omitempty"`
}

// Hydrator resolves stored scene references into the public projection.
type Hydrator struct {
	handles     handle.Directory
	images      image.Store
	previewBase *url.URL
}

// NewHydrator creates a Hydrator. previewBase is the absolute URL base that
// relative preview paths are resolved against.
func NewHydrator(handles handle.Directory, images image.Store, previewBase string) (*Hydrator, error) {
	base, err := url.Parse(previewBase)
	if err != nil {
		return nil, err
	}
	// Relative previews resolve under the base, not next to it.
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return &Hydrator{handles: handles, images: images, previewBase: base}, nil
}

// resolveImage loads a stored image reference. A miss here means a stored
// foreign key is dangling, which is corruption, not user error.
func (h *Hydrator) resolveImage(ctx context.Context, id string) (*image.Image, error) {
	img, err := h.images.GetByID(ctx, id)
	if err == image.ErrImageNotFound {
		return nil, ConsistencyError{Kind: "image", ID: id}
	}
	if err != nil {
		return nil, StorageError{Op: "image lookup", Err: err}
	}
	return img, nil
}

// Hydrate builds the public projection of a scene. The ledger may be nil
// (no session); liked is then false. Lookups are sequential and the first
// failure aborts the whole hydration; no partial object is ever returned.
func (h *Hydrator) Hydrate(ctx context.Context, s *Scene, ledger *session.Ledger) (*PublicScene, error) {
	owner, err := h.handles.GetByName(ctx, s.Handle)
	if err == handle.ErrHandleNotFound {
		return nil, ConsistencyError{Kind: "handle", ID: s.Handle}
	}
	if err != nil {
		return nil, StorageError{Op: "handle lookup", Err: err}
	}

	content := PublicContent{}
	for _, layer := range s.Content.ImageLayers {
		img, err := h.resolveImage(ctx, layer.ImageID)
		if err != nil {
			return nil, err
		}
		content.ImageLayers = append(content.ImageLayers, PublicLayer{Image: img, Opacity: layer.Opacity})
	}
	if s.Content.BackgroundID != "" {
		img, err := h.resolveImage(ctx, s.Content.BackgroundID)
		if err != nil {
			return nil, err
		}
		content.Background = img
	}

	previews := make(map[string]string, len(s.Previews))
	for kind, rel := range s.Previews {
		previews[kind] = h.absoluteURL(rel)
	}

	pub := &PublicScene{
		ID:           s.ID,
		Handle:       PublicHandle{Handle: owner.Name, DisplayName: owner.DisplayName},
		CreationDate: s.CreationDate,
		Impressions:  s.Impressions,
		Likes:        s.Likes,
		Clicks:       s.Clicks,
		Shares:       s.Shares,
		Place:        s.Place,
		Content:      content,
		Previews:     previews,
		OutgoingURL:  s.OutgoingURL,
		Text:         s.Text,
		Published:    s.Published,
	}
	if ledger != nil {
		pub.Liked = ledger.Liked(s.ID)
	}
	if s.Astropix != nil {
		ap := *s.Astropix
		pub.Astropix = &ap
	}
	return pub, nil
}

func (h *Hydrator) absoluteURL(rel string) string {
	ref, err := url.Parse(rel)
	if err != nil {
		// A stored path that does not parse still gets a best-effort join.
		return h.previewBase.String() + "/" + rel
	}
	return h.previewBase.ResolveReference(ref).String()
}
