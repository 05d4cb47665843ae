package scene

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/skylight-social/skylight/internal/handle"
	"github.com/skylight-social/skylight/internal/image"
	"github.com/skylight-social/skylight/internal/principal"
)

// PreviewRequester schedules asynchronous preview generation for a scene.
// Implemented by preview.Outbox; the engine never learns whether the
// request succeeded.
type PreviewRequester interface {
	Enqueue(sceneID string)
}

// Gate authorizes scene mutations. Implemented by authz.Gate; declared here
// so the engine depends on the decision contract, not the policy package.
type Gate interface {
	// CanCreate approves or rejects scene creation under a handle.
	CanCreate(ctx context.Context, p *principal.Principal, handleName string) error

	// DecidePatch approves or rejects a patch touching the given fields,
	// conjunctively: one denied field rejects the whole request.
	DecidePatch(ctx context.Context, p *principal.Principal, s *Scene, fields []Field) error
}

// Engine orchestrates scene creation and patching: validate, authorize,
// write once, then emit side effects. Validation and authorization always
// complete before the single persistence write, which is what makes every
// mutation all-or-nothing.
type Engine struct {
	scenes   Repository
	handles  handle.Directory
	images   image.Store
	gate     Gate
	previews PreviewRequester
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewEngine creates an Engine.
func NewEngine(scenes Repository, handles handle.Directory, images image.Store,
	gate Gate, previews PreviewRequester, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		scenes:   scenes,
		handles:  handles,
		images:   images,
		gate:     gate,
		previews: previews,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// resolveImageRef verifies a payload image reference, short-circuiting on
// the first failure. An unknown id is the caller's fault (ReferenceError);
// a failed lookup is ours (StorageError).
func (e *Engine) resolveImageRef(ctx context.Context, id string) error {
	ok, err := e.images.Exists(ctx, id)
	if err != nil {
		return StorageError{Op: "image lookup", Err: err}
	}
	if !ok {
		return ReferenceError{Kind: "image", ID: id}
	}
	return nil
}

// Create validates and authorizes a creation payload, inserts the new scene
// in one write, and requests preview generation.
func (e *Engine) Create(ctx context.Context, p *principal.Principal, handleName string, req *CreateRequest) (*Scene, error) {
	if err := req.ValidateCreate(); err != nil {
		return nil, err
	}
	if _, err := e.handles.GetByName(ctx, handleName); err != nil {
		return nil, err
	}
	if err := e.gate.CanCreate(ctx, p, handleName); err != nil {
		return nil, err
	}
	for _, layer := range req.Content.ImageLayers {
		if err := e.resolveImageRef(ctx, layer.ImageID); err != nil {
			return nil, err
		}
	}
	if req.Content.BackgroundID != nil {
		if err := e.resolveImageRef(ctx, *req.Content.BackgroundID); err != nil {
			return nil, err
		}
	}

	s := &Scene{
		ID:           e.newID(),
		Handle:       handleName,
		CreationDate: e.now().UTC(),
		Place:        *req.Place,
		Content: Content{
			ImageLayers: append([]ImageLayer(nil), req.Content.ImageLayers...),
		},
		Previews:  map[string]string{},
		Text:      *req.Text,
		Published: true,
	}
	if req.Content.BackgroundID != nil {
		s.Content.BackgroundID = *req.Content.BackgroundID
	}
	if req.OutgoingURL != nil {
		s.OutgoingURL = *req.OutgoingURL
	}
	if req.Published != nil {
		s.Published = *req.Published
	}
	if req.Astropix != nil {
		ap := *req.Astropix
		s.Astropix = &ap
	}

	if err := e.scenes.Insert(ctx, s); err != nil {
		return nil, err
	}
	e.logger.Info("scene created", "scene_id", s.ID, "handle", handleName)
	e.previews.Enqueue(s.ID)
	return s, nil
}

// Patch validates and authorizes a patch payload, applies it as one write,
// and requests preview regeneration when a preview-relevant field changed.
func (e *Engine) Patch(ctx context.Context, p *principal.Principal, id string, req *PatchRequest) error {
	if err := req.ValidatePatch(); err != nil {
		return err
	}
	current, err := e.scenes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := e.gate.DecidePatch(ctx, p, current, req.TouchedFields()); err != nil {
		return err
	}
	if req.Content != nil && req.Content.BackgroundID != nil {
		if err := e.resolveImageRef(ctx, *req.Content.BackgroundID); err != nil {
			return err
		}
	}

	upd := buildUpdate(req)
	if upd.Empty() {
		return nil
	}
	if err := e.scenes.ApplyUpdate(ctx, id, upd); err != nil {
		return err
	}
	e.logger.Info("scene updated", "scene_id", id, "fields", len(upd.Set)+len(upd.Unset))
	if upd.touchesPreviewInputs() {
		e.previews.Enqueue(id)
	}
	return nil
}
