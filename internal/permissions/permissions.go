// Package permissions implements the role/permission gate consulted before
// every workflow mutation. The role -> permission mapping is passed into the
// gate explicitly so tests can run against alternate mappings.
package permissions

import "strings"

// Role is a named bundle of permissions. A user may hold several at once.
type Role string

const (
	RoleMember   Role = "member"
	RoleReviewer Role = "reviewer"
	RoleEditor   Role = "editor"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the built-in roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleReviewer, RoleEditor, RoleAdmin:
		return true
	}
	return false
}

// Permission is a fine-grained capability string.
type Permission string

const (
	ArticleCreate         Permission = "article:create"
	ArticleEditOwn        Permission = "article:edit:own"
	ArticleEditAny        Permission = "article:edit:any"
	ArticleSubmit         Permission = "article:submit"
	ArticleReview         Permission = "article:review"
	ArticleAssignReviewer Permission = "article:assign_reviewer"
	ArticlePublish        Permission = "article:publish"
	ArticleRetract        Permission = "article:retract"
	ReviewComplete        Permission = "review:complete"
	ReviewManage          Permission = "review:manage"
	ApplicationCreate     Permission = "application:create"
	ApplicationReview     Permission = "application:review"
	ApplicationDecide     Permission = "application:decide"
	MemberManage          Permission = "member:manage"
)

// DefaultRolePermissions returns the production role -> permission table.
// admin is a strict superset of editor. Note article:publish is deliberately
// not implied by any edit permission.
func DefaultRolePermissions() map[Role][]Permission {
	member := []Permission{
		ArticleCreate,
		ArticleEditOwn,
		ArticleSubmit,
		ApplicationCreate,
	}

	reviewer := append([]Permission{}, member...)
	reviewer = append(reviewer, ReviewComplete)

	editor := append([]Permission{}, member...)
	editor = append(editor,
		ArticleEditAny,
		ArticleReview,
		ArticleAssignReviewer,
		ArticlePublish,
		ReviewManage,
		ApplicationReview,
	)

	admin := append([]Permission{}, editor...)
	admin = append(admin,
		ArticleRetract,
		ApplicationDecide,
		MemberManage,
	)

	return map[Role][]Permission{
		RoleMember:   member,
		RoleReviewer: reviewer,
		RoleEditor:   editor,
		RoleAdmin:    admin,
	}
}

// Gate answers "may an actor holding these roles perform this capability".
type Gate struct {
	grants map[Role]map[Permission]struct{}
}

// NewGate builds a gate from an explicit role -> permission mapping.
func NewGate(mapping map[Role][]Permission) *Gate {
	grants := make(map[Role]map[Permission]struct{}, len(mapping))
	for role, perms := range mapping {
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		grants[role] = set
	}
	return &Gate{grants: grants}
}

// Default returns a gate over the production mapping.
func Default() *Gate {
	return NewGate(DefaultRolePermissions())
}

// HasPermission reports whether any of the actor's roles grants perm.
// Fails closed: nil gate, no roles or unknown roles all deny.
func (g *Gate) HasPermission(roles []Role, perm Permission) bool {
	if g == nil {
		return false
	}
	for _, role := range roles {
		if _, ok := g.grants[role][perm]; ok {
			return true
		}
	}
	return false
}

// CanEditArticle is the ownership-aware edit check: the actor may edit if
// they hold article:edit:any, or they are the author and hold
// article:edit:own.
func (g *Gate) CanEditArticle(roles []Role, actorID, authorID uint) bool {
	if g.HasPermission(roles, ArticleEditAny) {
		return true
	}
	return actorID != 0 && actorID == authorID && g.HasPermission(roles, ArticleEditOwn)
}

// ParseRoles splits a stored comma-separated role set, dropping unknown
// entries so a corrupted value cannot widen access.
func ParseRoles(s string) []Role {
	var roles []Role
	for _, part := range strings.Split(s, ",") {
		switch Role(strings.TrimSpace(part)) {
		case RoleMember:
			roles = append(roles, RoleMember)
		case RoleReviewer:
			roles = append(roles, RoleReviewer)
		case RoleEditor:
			roles = append(roles, RoleEditor)
		case RoleAdmin:
			roles = append(roles, RoleAdmin)
		}
	}
	return roles
}

// FormatRoles renders a role set back to its stored comma-separated form.
func FormatRoles(roles []Role) string {
	parts := make([]string, 0, len(roles))
	for _, r := range roles {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, ",")
}
