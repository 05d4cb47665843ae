package scene

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skylight-social/skylight/internal/handle"
	"github.com/skylight-social/skylight/internal/image"
	"github.com/skylight-social/skylight/internal/principal"
)

type recordingPreviews struct {
	enqueued []string
}

func (r *recordingPreviews) Enqueue(sceneID string) {
	r.enqueued = append(r.enqueued, sceneID)
}

// directoryGate mirrors the production policy over a handle directory:
// addScenes for creation, editScenes for edit fields, the astropix role for
// the astropix field, conjunctively.
type directoryGate struct {
	dir handle.Directory
}

func (g directoryGate) CanCreate(ctx context.Context, p *principal.Principal, handleName string) error {
	if p == nil {
		return principal.ForbiddenError{Reason: "authentication required"}
	}
	ok, err := g.dir.IsAllowed(ctx, p.ID, handleName, handle.ActionAddScenes)
	if err != nil {
		return err
	}
	if !ok {
		return principal.ForbiddenError{Reason: "not allowed to add scenes"}
	}
	return nil
}

func (g directoryGate) DecidePatch(ctx context.Context, p *principal.Principal, s *Scene, fields []Field) error {
	if len(fields) == 0 {
		return nil
	}
	if p == nil {
		return principal.ForbiddenError{Reason: "authentication required"}
	}
	for _, field := range fields {
		if field == FieldAstropix {
			if !p.HasRole(principal.RoleManageAstropix) {
				return principal.ForbiddenError{Reason: "astropix role required"}
			}
			continue
		}
		ok, err := g.dir.IsAllowed(ctx, p.ID, s.Handle, handle.ActionEditScenes)
		if err != nil {
			return err
		}
		if !ok {
			return principal.ForbiddenError{Reason: "not allowed to edit scenes"}
		}
	}
	return nil
}

type engineFixture struct {
	engine   *Engine
	repo     *InMemoryRepository
	handles  *handle.InMemoryDirectory
	images   *image.InMemoryStore
	previews *recordingPreviews
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	repo := NewInMemoryRepository()
	handles := handle.NewInMemoryDirectory()
	images := image.NewInMemoryStore()
	previews := &recordingPreviews{}

	handles.Add(&handle.Handle{Name: "astro", DisplayName: "Astro Society", OwnerID: "acct-owner"})
	images.Add(&image.Image{ID: "img-1"})
	images.Add(&image.Image{ID: "img-bg"})

	engine := NewEngine(repo, handles, images, directoryGate{dir: handles}, previews, nil)
	engine.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	engine.newID = func() string { return "scene-fixed" }

	return &engineFixture{engine: engine, repo: repo, handles: handles, images: images, previews: previews}
}

func owner() *principal.Principal { return &principal.Principal{ID: "acct-owner"} }

func TestEngineCreate(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	s, err := f.engine.Create(ctx, owner(), "astro", validCreateRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID != "scene-fixed" {
		t.Errorf("unexpected id %q", s.ID)
	}
	if s.Handle != "astro" {
		t.Errorf("unexpected handle %q", s.Handle)
	}
	if !s.Published {
		t.Error("scenes default to published")
	}
	if s.Impressions != 0 || s.Likes != 0 || s.Clicks != 0 || s.Shares != 0 {
		t.Error("counters must start at zero")
	}
	if s.Previews == nil || len(s.Previews) != 0 {
		t.Error("previews must start as an empty map")
	}

	stored, err := f.repo.GetByID(ctx, "scene-fixed")
	if err != nil {
		t.Fatalf("scene not persisted: %v", err)
	}
	if stored.Text != "A nebula at dusk" {
		t.Errorf("unexpected stored text %q", stored.Text)
	}

	if len(f.previews.enqueued) != 1 || f.previews.enqueued[0] != "scene-fixed" {
		t.Errorf("expected one preview request, got %v", f.previews.enqueued)
	}
}

func TestEngineCreateAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	var forbidden principal.ForbiddenError

	// Anonymous caller.
	if _, err := f.engine.Create(ctx, nil, "astro", validCreateRequest()); !errors.As(err, &forbidden) {
		t.Errorf("expected ForbiddenError for anonymous, got %v", err)
	}

	// Authenticated but not authorized.
	stranger := &principal.Principal{ID: "acct-stranger"}
	if _, err := f.engine.Create(ctx, stranger, "astro", validCreateRequest()); !errors.As(err, &forbidden) {
		t.Errorf("expected ForbiddenError for stranger, got %v", err)
	}

	// A granted addScenes capability suffices.
	f.handles.Grant("acct-stranger", "astro", handle.ActionAddScenes)
	if _, err := f.engine.Create(ctx, stranger, "astro", validCreateRequest()); err != nil {
		t.Errorf("granted account should create: %v", err)
	}

	// Unknown handle 404s before authorization.
	if _, err := f.engine.Create(ctx, owner(), "ghost", validCreateRequest()); err != handle.ErrHandleNotFound {
		t.Errorf("expected ErrHandleNotFound, got %v", err)
	}
}

func TestEngineCreateUnknownImage(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	req := validCreateRequest()
	req.Content.ImageLayers = []ImageLayer{{ImageID: "img-missing", Opacity: 1}}

	var refErr ReferenceError
	_, err := f.engine.Create(ctx, owner(), "astro", req)
	if !errors.As(err, &refErr) {
		t.Fatalf("expected ReferenceError, got %v", err)
	}
	if refErr.Kind != "image" || refErr.ID != "img-missing" {
		t.Errorf("unexpected reference error: %+v", refErr)
	}
	if _, err := f.repo.GetByID(ctx, "scene-fixed"); err != ErrSceneNotFound {
		t.Error("rejected creation must not persist anything")
	}
	if len(f.previews.enqueued) != 0 {
		t.Error("rejected creation must not request previews")
	}
}

func TestEnginePatch(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	if _, err := f.engine.Create(ctx, owner(), "astro", validCreateRequest()); err != nil {
		t.Fatal(err)
	}
	f.previews.enqueued = nil

	err := f.engine.Patch(ctx, owner(), "scene-fixed", &PatchRequest{
		Text:      strPtr("patched"),
		Published: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, _ := f.repo.GetByID(ctx, "scene-fixed")
	if s.Text != "patched" || s.Published {
		t.Errorf("patch not applied: text=%q published=%v", s.Text, s.Published)
	}
	if len(f.previews.enqueued) != 0 {
		t.Error("text patch must not regenerate previews")
	}

	// Place change regenerates previews.
	p := validPlace()
	p.RARad = 2.5
	if err := f.engine.Patch(ctx, owner(), "scene-fixed", &PatchRequest{Place: &p}); err != nil {
		t.Fatal(err)
	}
	if len(f.previews.enqueued) != 1 {
		t.Errorf("expected one preview request after place patch, got %d", len(f.previews.enqueued))
	}

	if err := f.engine.Patch(ctx, owner(), "missing", &PatchRequest{Text: strPtr("x")}); err != ErrSceneNotFound {
		t.Errorf("expected ErrSceneNotFound, got %v", err)
	}
}

func TestEnginePatchAtomicAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	if _, err := f.engine.Create(ctx, owner(), "astro", validCreateRequest()); err != nil {
		t.Fatal(err)
	}

	// The owner may edit but does not hold the astropix role. One denied
	// field rejects the whole patch.
	err := f.engine.Patch(ctx, owner(), "scene-fixed", &PatchRequest{
		Text:     strPtr("should not land"),
		Astropix: &Astropix{PublisherID: "pub", ImageID: "img"},
	})
	var forbidden principal.ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
	s, _ := f.repo.GetByID(ctx, "scene-fixed")
	if s.Text == "should not land" {
		t.Error("denied patch must not write any field")
	}
	if s.Astropix != nil {
		t.Error("denied patch must not write astropix")
	}

	// With the role, the same patch lands in full.
	curator := &principal.Principal{ID: "acct-owner", Roles: []string{principal.RoleManageAstropix}}
	if err := f.engine.Patch(ctx, curator, "scene-fixed", &PatchRequest{
		Text:     strPtr("landed"),
		Astropix: &Astropix{PublisherID: "pub", ImageID: "img"},
	}); err != nil {
		t.Fatal(err)
	}
	s, _ = f.repo.GetByID(ctx, "scene-fixed")
	if s.Text != "landed" || s.Astropix == nil {
		t.Error("authorized patch must write every field")
	}
}

func TestEnginePatchAstropixRoleOnly(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	if _, err := f.engine.Create(ctx, owner(), "astro", validCreateRequest()); err != nil {
		t.Fatal(err)
	}

	// The astropix role alone suffices for an astropix-only patch, even
	// without edit capability on the handle.
	curator := &principal.Principal{ID: "acct-curator", Roles: []string{principal.RoleManageAstropix}}
	if err := f.engine.Patch(ctx, curator, "scene-fixed", &PatchRequest{
		Astropix: &Astropix{PublisherID: "pub", ImageID: "img"},
	}); err != nil {
		t.Fatalf("astropix role should suffice: %v", err)
	}

	// Clearing uses the empty pair.
	if err := f.engine.Patch(ctx, curator, "scene-fixed", &PatchRequest{
		Astropix: &Astropix{},
	}); err != nil {
		t.Fatal(err)
	}
	s, _ := f.repo.GetByID(ctx, "scene-fixed")
	if s.Astropix != nil {
		t.Error("expected astropix cleared")
	}

	// But the role grants nothing else.
	var forbidden principal.ForbiddenError
	if err := f.engine.Patch(ctx, curator, "scene-fixed", &PatchRequest{
		Text: strPtr("nope"),
	}); !errors.As(err, &forbidden) {
		t.Errorf("expected ForbiddenError for text patch, got %v", err)
	}
}

func TestEnginePatchUnknownBackground(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	if _, err := f.engine.Create(ctx, owner(), "astro", validCreateRequest()); err != nil {
		t.Fatal(err)
	}

	var refErr ReferenceError
	err := f.engine.Patch(ctx, owner(), "scene-fixed", &PatchRequest{
		Content: &PatchContentRequest{BackgroundID: strPtr("img-ghost")},
	})
	if !errors.As(err, &refErr) {
		t.Fatalf("expected ReferenceError, got %v", err)
	}

	if err := f.engine.Patch(ctx, owner(), "scene-fixed", &PatchRequest{
		Content: &PatchContentRequest{BackgroundID: strPtr("img-bg")},
	}); err != nil {
		t.Fatal(err)
	}
	s, _ := f.repo.GetByID(ctx, "scene-fixed")
	if s.Content.BackgroundID != "img-bg" {
		t.Errorf("expected background set, got %q", s.Content.BackgroundID)
	}
}

func TestEnginePatchEmptyIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	if _, err := f.engine.Create(ctx, owner(), "astro", validCreateRequest()); err != nil {
		t.Fatal(err)
	}
	f.previews.enqueued = nil

	// An empty patch is authorized trivially and writes nothing, even for
	// an anonymous caller.
	if err := f.engine.Patch(ctx, nil, "scene-fixed", &PatchRequest{}); err != nil {
		t.Fatalf("empty patch should be a no-op: %v", err)
	}
	if len(f.previews.enqueued) != 0 {
		t.Error("no-op patch must not request previews")
	}
}
