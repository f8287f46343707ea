package rbac

import (
	"fmt"

	"taskdeck/internal/domain"
)

// ResourceKind is the closed set of protected resource kinds.
type ResourceKind string

const (
	ResourceProject ResourceKind = "project"
	ResourceTask    ResourceKind = "task"
	ResourceUser    ResourceKind = "user"
	ResourceAdmin   ResourceKind = "admin"
)

// Action is the closed set of actions a role may hold on a resource kind.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionAssign Action = "assign"
	ActionAccess Action = "access"
)

// Capability is a (resource kind, action) pair a role is statically permitted.
type Capability struct {
	Resource ResourceKind
	Action   Action
}

// ForbiddenError indicates the caller lacks a capability or ownership.
type ForbiddenError struct {
	Resource ResourceKind
	Action   Action
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("%s %s forbidden", e.Action, e.Resource)
}

// rolePermissions is the static permission table. Ownership and
// assignment refinements live in decisions.go; this table only answers
// coarse role-level capability.
var rolePermissions = map[domain.Role][]Capability{
	domain.RoleAdmin: {
		{ResourceProject, ActionView},
		{ResourceProject, ActionCreate},
		{ResourceProject, ActionEdit},
		{ResourceProject, ActionDelete},
		{ResourceTask, ActionView},
		{ResourceTask, ActionCreate},
		{ResourceTask, ActionEdit},
		{ResourceTask, ActionDelete},
		{ResourceTask, ActionAssign},
		{ResourceUser, ActionView},
		{ResourceUser, ActionEdit},
		{ResourceUser, ActionDelete},
		{ResourceAdmin, ActionAccess},
	},
	domain.RoleManager: {
		{ResourceProject, ActionView},
		{ResourceProject, ActionCreate},
		{ResourceProject, ActionEdit},
		{ResourceTask, ActionView},
		{ResourceTask, ActionCreate},
		{ResourceTask, ActionEdit},
		{ResourceTask, ActionDelete},
		{ResourceTask, ActionAssign},
	},
	domain.RoleMember: {
		{ResourceProject, ActionView},
		{ResourceTask, ActionView},
	},
}

// HasCapability reports whether the role statically holds the
// capability. Pure set membership; unknown roles hold nothing.
func HasCapability(role domain.Role, resource ResourceKind, action Action) bool {
	for _, c := range rolePermissions[role] {
		if c.Resource == resource && c.Action == action {
			return true
		}
	}
	return false
}
