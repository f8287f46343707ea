package rbac

import "taskdeck/internal/domain"

// Decision functions are pure and total: they consult only the caller,
// the target's owner/assignedTo fields, and the permission table. Task
// decisions that depend on ownership take the task's project as a
// pointer; a nil project means ownership cannot be proven and the
// answer is deny.

// CanViewProject: every authenticated role may view any single project.
// Listing visibility is the engine's concern, not this check.
func CanViewProject(c domain.Caller, p domain.Project) bool {
	switch c.Role {
	case domain.RoleAdmin, domain.RoleManager, domain.RoleMember:
		return true
	}
	return false
}

// CanEditProject: admin, or the manager owning the project.
func CanEditProject(c domain.Caller, p domain.Project) bool {
	if c.Role == domain.RoleAdmin {
		return true
	}
	return c.Role == domain.RoleManager && p.Owner == c.Email
}

// CanDeleteProject follows the edit rule: admin or owning manager.
func CanDeleteProject(c domain.Caller, p domain.Project) bool {
	return CanEditProject(c, p)
}

// CanCreateTask: admin anywhere, manager only in owned projects.
func CanCreateTask(c domain.Caller, p domain.Project) bool {
	if c.Role == domain.RoleAdmin {
		return true
	}
	return c.Role == domain.RoleManager && p.Owner == c.Email
}

// CanViewTask: admin always, manager for tasks in owned projects,
// member for tasks assigned to them.
func CanViewTask(c domain.Caller, t domain.Task, project *domain.Project) bool {
	switch c.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleManager:
		return project != nil && project.Owner == c.Email
	case domain.RoleMember:
		return t.AssignedTo == c.Email
	}
	return false
}

// CanEditTask: admin always, manager iff they own the task's project.
// Members never edit task fields.
func CanEditTask(c domain.Caller, t domain.Task, project *domain.Project) bool {
	switch c.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleManager:
		return project != nil && project.Owner == c.Email
	}
	return false
}

// CanDeleteTask follows the edit rule.
func CanDeleteTask(c domain.Caller, t domain.Task, project *domain.Project) bool {
	return CanEditTask(c, t, project)
}

// CanMarkTaskDone: the one write a member holds, scoped to status
// toggling on their own assigned task. The assignment check does not
// need project context.
func CanMarkTaskDone(c domain.Caller, t domain.Task, project *domain.Project) bool {
	switch c.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleManager:
		return project != nil && project.Owner == c.Email
	case domain.RoleMember:
		return t.AssignedTo == c.Email
	}
	return false
}

// Authorize is the generic entry point for transport layers: it
// dispatches to the per-operation decisions. resource carries the
// target (Project or Task), relatedProject the task's project when the
// action depends on ownership.
func Authorize(c domain.Caller, action Action, kind ResourceKind, resource any, relatedProject *domain.Project) bool {
	switch kind {
	case ResourceProject:
		p, ok := resource.(domain.Project)
		if !ok {
			return false
		}
		switch action {
		case ActionView:
			return CanViewProject(c, p)
		case ActionCreate:
			return HasCapability(c.Role, ResourceProject, ActionCreate)
		case ActionEdit:
			return CanEditProject(c, p)
		case ActionDelete:
			return CanDeleteProject(c, p)
		}
	case ResourceTask:
		t, ok := resource.(domain.Task)
		if !ok {
			return false
		}
		switch action {
		case ActionView:
			return CanViewTask(c, t, relatedProject)
		case ActionCreate:
			if relatedProject == nil {
				return false
			}
			return CanCreateTask(c, *relatedProject)
		case ActionEdit:
			return CanEditTask(c, t, relatedProject)
		case ActionDelete:
			return CanDeleteTask(c, t, relatedProject)
		case ActionAssign:
			return CanEditTask(c, t, relatedProject)
		}
	case ResourceUser, ResourceAdmin:
		return HasCapability(c.Role, kind, action)
	}
	return false
}
