// Package authz decides whether a principal may perform a requested scene
// mutation. Decisions are conjunctive over every touched field: one denied
// field rejects the whole request, so no partial application can occur.
package authz

import (
	"context"
	"fmt"

	"github.com/skylight-social/skylight/internal/handle"
	"github.com/skylight-social/skylight/internal/principal"
	"github.com/skylight-social/skylight/internal/scene"
)

// Gate evaluates mutation requests against the handle directory and the
// principal's global roles. It satisfies scene.Gate.
type Gate struct {
	dir handle.Directory
}

// NewGate creates a Gate backed by the given directory.
func NewGate(dir handle.Directory) *Gate {
	return &Gate{dir: dir}
}

// CanCreate checks the addScenes capability on the target handle.
func (g *Gate) CanCreate(ctx context.Context, p *principal.Principal, handleName string) error {
	if p == nil {
		return principal.ForbiddenError{Reason: "authentication required"}
	}
	ok, err := g.dir.IsAllowed(ctx, p.ID, handleName, handle.ActionAddScenes)
	if err != nil {
		return err
	}
	if !ok {
		return principal.ForbiddenError{Reason: "not allowed to add scenes to @" + handleName}
	}
	return nil
}

// CanEdit checks the editScenes capability on the scene's owning handle.
// Used directly by the permissions endpoint.
func (g *Gate) CanEdit(ctx context.Context, p *principal.Principal, s *scene.Scene) (bool, error) {
	if p == nil {
		return false, nil
	}
	return g.dir.IsAllowed(ctx, p.ID, s.Handle, handle.ActionEditScenes)
}

// DecidePatch approves or rejects a patch touching the given fields. The
// editScenes lookup is performed at most once per call regardless of how
// many fields require it.
func (g *Gate) DecidePatch(ctx context.Context, p *principal.Principal, s *scene.Scene, fields []scene.Field) error {
	if len(fields) == 0 {
		return nil
	}
	if p == nil {
		return principal.ForbiddenError{Reason: "authentication required"}
	}

	// Memoized editScenes decision for this request.
	editChecked := false
	editAllowed := false
	requireEdit := func() error {
		if !editChecked {
			ok, err := g.dir.IsAllowed(ctx, p.ID, s.Handle, handle.ActionEditScenes)
			if err != nil {
				return err
			}
			editChecked = true
			editAllowed = ok
		}
		if !editAllowed {
			return principal.ForbiddenError{Reason: "not allowed to edit scenes of @" + s.Handle}
		}
		return nil
	}

	for _, field := range fields {
		switch field {
		case scene.FieldText, scene.FieldOutgoingURL, scene.FieldPlace,
			scene.FieldBackground, scene.FieldPublished:
			if err := requireEdit(); err != nil {
				return err
			}
		case scene.FieldAstropix:
			if !p.HasRole(principal.RoleManageAstropix) {
				return principal.ForbiddenError{Reason: "astropix management requires the manage-astropix role"}
			}
		default:
			return principal.ForbiddenError{Reason: fmt.Sprintf("unrecognized field %q", field)}
		}
	}
	return nil
}

// CanViewDashboard checks the viewDashboard capability on a handle.
func (g *Gate) CanViewDashboard(ctx context.Context, p *principal.Principal, handleName string) error {
	if p == nil {
		return principal.ForbiddenError{Reason: "authentication required"}
	}
	ok, err := g.dir.IsAllowed(ctx, p.ID, handleName, handle.ActionViewDashboard)
	if err != nil {
		return err
	}
	if !ok {
		return principal.ForbiddenError{Reason: "not allowed to view the dashboard of @" + handleName}
	}
	return nil
}
