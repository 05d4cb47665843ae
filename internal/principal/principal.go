// Package principal defines the authenticated caller identity shared by the
// token edge, the authorization gate, and the mutation engine. It sits at
// the bottom of the dependency graph and imports nothing above it.
package principal

import "fmt"

// RoleManageAstropix is the global role required to modify a scene's
// AstroPix cross-reference, independently of edit capability.
const RoleManageAstropix = "manage-astropix"

// Principal is the decoded authenticated caller. Token verification is edge
// plumbing; policy code only consumes the decoded value.
type Principal struct {
	ID          string
	DisplayName string
	Roles       []string
}

// HasRole reports whether the principal holds a global role.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ForbiddenError reports a denied request (403).
type ForbiddenError struct {
	Reason string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Reason)
}
