// Package output owns the display roles: activating and deactivating their
// surfaces, keeping each surface's rendering current as broadcast state
// changes, and detecting surfaces that disappear out-of-band.
package output

import (
	"github.com/stagecast/stagecast/internal/config"
	"github.com/stagecast/stagecast/internal/render"
)

// Role identifies an independently-lifecycled display surface.
type Role string

const (
	RoleMain  Role = "main"
	RoleStage Role = "stage"
)

// Roles lists all known roles in render order.
var Roles = []Role{RoleMain, RoleStage}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleMain || r == RoleStage
}

// Surface is the opaque handle to one live display surface. Implementations
// must tolerate calls against a surface that has already disappeared by
// returning an error; callers treat that as a no-op.
type Surface interface {
	ID() string

	// Alive reports whether the surface still denotes a live, user-visible
	// display. The lifecycle monitor polls this.
	Alive() bool

	// Init constructs the surface's static skeleton. Called exactly once
	// per activation, before the first Apply.
	Init(skel *render.Skeleton) error

	// Apply mutates only the data-bearing fields named by the patch.
	Apply(patch render.Patch) error

	// Fullscreen and Focus are best-effort control requests; the hosting
	// environment may refuse them.
	Fullscreen() error
	Focus() error

	Close() error
}

// Opener produces a surface for a role on activation. Returning an error is
// the normal, observable outcome of a blocked activation; the registry stays
// inactive and nothing propagates to the operator.
type Opener interface {
	Open(role Role, mode config.DisplayMode) (Surface, error)
}
