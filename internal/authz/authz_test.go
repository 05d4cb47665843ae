package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/skylight-social/skylight/internal/handle"
	"github.com/skylight-social/skylight/internal/principal"
	"github.com/skylight-social/skylight/internal/scene"
)

// The gate must remain usable as the engine's authorization dependency.
var _ scene.Gate = (*Gate)(nil)

// countingDirectory wraps the in-memory directory to count capability
// lookups.
type countingDirectory struct {
	*handle.InMemoryDirectory
	lookups int
}

func (d *countingDirectory) IsAllowed(ctx context.Context, accountID, name string, action handle.Action) (bool, error) {
	d.lookups++
	return d.InMemoryDirectory.IsAllowed(ctx, accountID, name, action)
}

func gateFixture() (*Gate, *countingDirectory) {
	dir := &countingDirectory{InMemoryDirectory: handle.NewInMemoryDirectory()}
	dir.Add(&handle.Handle{Name: "astro", DisplayName: "Astro", OwnerID: "acct-owner"})
	return NewGate(dir), dir
}

func TestDecidePatchMemoizesEditLookup(t *testing.T) {
	ctx := context.Background()
	gate, dir := gateFixture()
	s := &scene.Scene{ID: "s1", Handle: "astro"}

	owner := &principal.Principal{ID: "acct-owner"}
	fields := []scene.Field{scene.FieldText, scene.FieldOutgoingURL, scene.FieldPlace, scene.FieldPublished}
	if err := gate.DecidePatch(ctx, owner, s, fields); err != nil {
		t.Fatal(err)
	}
	if dir.lookups != 1 {
		t.Errorf("expected one directory lookup for %d edit fields, got %d", len(fields), dir.lookups)
	}
}

func TestDecidePatchConjunctive(t *testing.T) {
	ctx := context.Background()
	gate, _ := gateFixture()
	s := &scene.Scene{ID: "s1", Handle: "astro"}

	var forbidden principal.ForbiddenError

	// Editor without the astropix role: the astropix field denies all.
	owner := &principal.Principal{ID: "acct-owner"}
	err := gate.DecidePatch(ctx, owner, s, []scene.Field{scene.FieldText, scene.FieldAstropix})
	if !errors.As(err, &forbidden) {
		t.Errorf("expected ForbiddenError, got %v", err)
	}

	// Role holder without edit capability: the text field denies all.
	curator := &principal.Principal{ID: "acct-curator", Roles: []string{principal.RoleManageAstropix}}
	err = gate.DecidePatch(ctx, curator, s, []scene.Field{scene.FieldText, scene.FieldAstropix})
	if !errors.As(err, &forbidden) {
		t.Errorf("expected ForbiddenError, got %v", err)
	}

	// Astropix alone needs only the role.
	if err := gate.DecidePatch(ctx, curator, s, []scene.Field{scene.FieldAstropix}); err != nil {
		t.Errorf("role holder should patch astropix: %v", err)
	}

	// No fields means nothing to deny, even anonymously.
	if err := gate.DecidePatch(ctx, nil, s, nil); err != nil {
		t.Errorf("empty field set should pass: %v", err)
	}

	// Anonymous with fields is denied.
	err = gate.DecidePatch(ctx, nil, s, []scene.Field{scene.FieldText})
	if !errors.As(err, &forbidden) {
		t.Errorf("expected ForbiddenError for anonymous, got %v", err)
	}
}

func TestCanEdit(t *testing.T) {
	ctx := context.Background()
	gate, _ := gateFixture()
	s := &scene.Scene{ID: "s1", Handle: "astro"}

	ok, err := gate.CanEdit(ctx, nil, s)
	if err != nil || ok {
		t.Errorf("anonymous edit check should be false with no error, got ok=%v err=%v", ok, err)
	}
	ok, err = gate.CanEdit(ctx, &principal.Principal{ID: "acct-owner"}, s)
	if err != nil || !ok {
		t.Errorf("owner should edit, got ok=%v err=%v", ok, err)
	}
	ok, err = gate.CanEdit(ctx, &principal.Principal{ID: "acct-stranger"}, s)
	if err != nil || ok {
		t.Errorf("stranger should not edit, got ok=%v err=%v", ok, err)
	}
}

func TestCanCreateAndViewDashboard(t *testing.T) {
	ctx := context.Background()
	gate, dir := gateFixture()

	var forbidden principal.ForbiddenError
	if err := gate.CanCreate(ctx, nil, "astro"); !errors.As(err, &forbidden) {
		t.Errorf("expected ForbiddenError for anonymous create, got %v", err)
	}
	if err := gate.CanCreate(ctx, &principal.Principal{ID: "acct-owner"}, "astro"); err != nil {
		t.Errorf("owner should create: %v", err)
	}

	if err := gate.CanViewDashboard(ctx, &principal.Principal{ID: "acct-stranger"}, "astro"); !errors.As(err, &forbidden) {
		t.Errorf("expected ForbiddenError for stranger dashboard, got %v", err)
	}
	dir.Grant("acct-stranger", "astro", handle.ActionViewDashboard)
	if err := gate.CanViewDashboard(ctx, &principal.Principal{ID: "acct-stranger"}, "astro"); err != nil {
		t.Errorf("granted account should view dashboard: %v", err)
	}
}
