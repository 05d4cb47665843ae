package handle

import (
	"context"
	"testing"
)

func TestInMemoryDirectory(t *testing.T) {
	ctx := context.Background()
	dir := NewInMemoryDirectory()
	dir.Add(&Handle{Name: "astro", DisplayName: "Astro Society", OwnerID: "acct-owner"})

	t.Run("get by name", func(t *testing.T) {
		h, err := dir.GetByName(ctx, "astro")
		if err != nil {
			t.Fatal(err)
		}
		if h.DisplayName != "Astro Society" {
			t.Errorf("unexpected display name %q", h.DisplayName)
		}
		if _, err := dir.GetByName(ctx, "ghost"); err != ErrHandleNotFound {
			t.Errorf("expected ErrHandleNotFound, got %v", err)
		}
	})

	t.Run("owner holds every capability", func(t *testing.T) {
		for _, action := range []Action{ActionAddScenes, ActionEditScenes, ActionViewDashboard} {
			ok, err := dir.IsAllowed(ctx, "acct-owner", "astro", action)
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				t.Errorf("owner should hold %q", action)
			}
		}
	})

	t.Run("grants are per action", func(t *testing.T) {
		dir.Grant("acct-editor", "astro", ActionEditScenes)

		ok, _ := dir.IsAllowed(ctx, "acct-editor", "astro", ActionEditScenes)
		if !ok {
			t.Error("granted action should be allowed")
		}
		ok, _ = dir.IsAllowed(ctx, "acct-editor", "astro", ActionAddScenes)
		if ok {
			t.Error("ungranted action must not be allowed")
		}
	})

	t.Run("unknown handle grants nothing", func(t *testing.T) {
		ok, err := dir.IsAllowed(ctx, "acct-owner", "ghost", ActionAddScenes)
		if err != nil {
			t.Fatalf("unknown handle is not an error: %v", err)
		}
		if ok {
			t.Error("unknown handle must grant nothing")
		}
	})
}
