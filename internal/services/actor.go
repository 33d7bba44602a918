package services

import "github.com/openguild/guildpress/internal/permissions"

// Actor is the authenticated identity performing an operation, as extracted
// from the request context. A zero Actor carries no identity and is denied
// by every gate check.
type Actor struct {
	ID    uint
	Roles []permissions.Role
}

// Known reports whether the actor carries a usable identity.
func (a Actor) Known() bool {
	return a.ID != 0
}
