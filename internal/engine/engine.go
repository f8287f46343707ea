// Package engine gates every mutation behind the rbac decisions and
// narrows every listing to the caller's visibility. It is the only
// package that combines the permission layer with the data store.
package engine

import (
	"context"
	"errors"
	"fmt"

	"taskdeck/internal/domain"
	"taskdeck/internal/rbac"
	"taskdeck/internal/store"
)

// ErrSelfRoleChange rejects role updates targeting the caller, for
// every role including admin.
var ErrSelfRoleChange = errors.New("cannot change your own role")

// ValidationError marks missing or malformed request fields.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string { return e.Msg }

type Engine struct {
	Store store.Store
}

func New(s store.Store) Engine {
	return Engine{Store: s}
}

// relatedProject resolves a task's project for ownership decisions. A
// missing project yields nil, which the decisions treat as deny for
// ownership-dependent callers.
func (e Engine) relatedProject(ctx context.Context, projectID int64) (*domain.Project, error) {
	p, err := e.Store.GetProject(ctx, projectID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// --- projects ---

type ProjectCreateOptions struct {
	Name        string
	Description string
}

func (e Engine) CreateProject(ctx context.Context, caller domain.Caller, opts ProjectCreateOptions) (domain.Project, error) {
	if opts.Name == "" {
		return domain.Project{}, ValidationError{Msg: "name is required"}
	}
	if opts.Description == "" {
		return domain.Project{}, ValidationError{Msg: "description is required"}
	}
	if !rbac.HasCapability(caller.Role, rbac.ResourceProject, rbac.ActionCreate) {
		return domain.Project{}, rbac.ForbiddenError{Resource: rbac.ResourceProject, Action: rbac.ActionCreate}
	}
	// the creating caller becomes the owner; ownership never moves
	return e.Store.CreateProject(ctx, domain.Project{
		Name:        opts.Name,
		Description: opts.Description,
		Owner:       caller.Email,
	})
}

func (e Engine) GetProject(ctx context.Context, caller domain.Caller, id int64) (domain.Project, error) {
	p, err := e.Store.GetProject(ctx, id)
	if err != nil {
		return domain.Project{}, err
	}
	if !rbac.CanViewProject(caller, p) {
		return domain.Project{}, rbac.ForbiddenError{Resource: rbac.ResourceProject, Action: rbac.ActionView}
	}
	return p, nil
}

func (e Engine) UpdateProject(ctx context.Context, caller domain.Caller, id int64, upd store.ProjectUpdate) (domain.Project, error) {
	p, err := e.Store.GetProject(ctx, id)
	if err != nil {
		return domain.Project{}, err
	}
	if !rbac.CanEditProject(caller, p) {
		return domain.Project{}, rbac.ForbiddenError{Resource: rbac.ResourceProject, Action: rbac.ActionEdit}
	}
	return e.Store.UpdateProject(ctx, id, upd)
}

func (e Engine) DeleteProject(ctx context.Context, caller domain.Caller, id int64) error {
	p, err := e.Store.GetProject(ctx, id)
	if err != nil {
		return err
	}
	if !rbac.CanDeleteProject(caller, p) {
		return rbac.ForbiddenError{Resource: rbac.ResourceProject, Action: rbac.ActionDelete}
	}
	return e.Store.DeleteProject(ctx, id)
}

// ListProjects applies listing visibility: admins and members see all
// projects, managers only their own. Per-item view stays broader (any
// role may fetch any project by id).
func (e Engine) ListProjects(ctx context.Context, caller domain.Caller) ([]domain.Project, error) {
	projects, err := e.Store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	if caller.Role != domain.RoleManager {
		return projects, nil
	}
	owned := projects[:0]
	for _, p := range projects {
		if p.Owner == caller.Email {
			owned = append(owned, p)
		}
	}
	return owned, nil
}

// --- tasks ---

type TaskCreateOptions struct {
	ProjectID  int64
	Title      string
	AssignedTo string
	Status     domain.TaskStatus
}

func (e Engine) CreateTask(ctx context.Context, caller domain.Caller, opts TaskCreateOptions) (domain.Task, error) {
	if opts.Title == "" {
		return domain.Task{}, ValidationError{Msg: "title is required"}
	}
	if opts.AssignedTo == "" {
		return domain.Task{}, ValidationError{Msg: "assignedTo is required"}
	}
	if opts.ProjectID == 0 {
		return domain.Task{}, ValidationError{Msg: "projectId is required"}
	}
	if opts.Status == "" {
		opts.Status = domain.TaskPending
	}
	if _, err := domain.ParseTaskStatus(string(opts.Status)); err != nil {
		return domain.Task{}, ValidationError{Msg: err.Error()}
	}
	project, err := e.Store.GetProject(ctx, opts.ProjectID)
	if err != nil {
		return domain.Task{}, err
	}
	if !rbac.CanCreateTask(caller, project) {
		return domain.Task{}, rbac.ForbiddenError{Resource: rbac.ResourceTask, Action: rbac.ActionCreate}
	}
	return e.Store.CreateTask(ctx, domain.Task{
		ProjectID:  opts.ProjectID,
		Title:      opts.Title,
		AssignedTo: opts.AssignedTo,
		Status:     opts.Status,
	})
}

func (e Engine) GetTask(ctx context.Context, caller domain.Caller, id int64) (domain.Task, error) {
	t, err := e.Store.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	related, err := e.relatedProject(ctx, t.ProjectID)
	if err != nil {
		return domain.Task{}, err
	}
	if !rbac.CanViewTask(caller, t, related) {
		return domain.Task{}, rbac.ForbiddenError{Resource: rbac.ResourceTask, Action: rbac.ActionView}
	}
	return t, nil
}

// UpdateTask distinguishes status-only updates from field edits: the
// former is the one write a member holds on their assigned task, the
// latter always needs edit permission on the task's project.
func (e Engine) UpdateTask(ctx context.Context, caller domain.Caller, id int64, upd store.TaskUpdate) (domain.Task, error) {
	if upd.Empty() {
		return domain.Task{}, ValidationError{Msg: "no fields to update"}
	}
	if upd.Status != nil {
		if _, err := domain.ParseTaskStatus(string(*upd.Status)); err != nil {
			return domain.Task{}, ValidationError{Msg: err.Error()}
		}
	}
	if upd.Title != nil && *upd.Title == "" {
		return domain.Task{}, ValidationError{Msg: "title is required"}
	}
	if upd.AssignedTo != nil && *upd.AssignedTo == "" {
		return domain.Task{}, ValidationError{Msg: "assignedTo is required"}
	}
	t, err := e.Store.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	related, err := e.relatedProject(ctx, t.ProjectID)
	if err != nil {
		return domain.Task{}, err
	}
	if upd.StatusOnly() {
		if !rbac.CanMarkTaskDone(caller, t, related) {
			return domain.Task{}, rbac.ForbiddenError{Resource: rbac.ResourceTask, Action: rbac.ActionEdit}
		}
	} else if !rbac.CanEditTask(caller, t, related) {
		return domain.Task{}, rbac.ForbiddenError{Resource: rbac.ResourceTask, Action: rbac.ActionEdit}
	}
	return e.Store.UpdateTask(ctx, id, upd)
}

func (e Engine) DeleteTask(ctx context.Context, caller domain.Caller, id int64) error {
	t, err := e.Store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	related, err := e.relatedProject(ctx, t.ProjectID)
	if err != nil {
		return err
	}
	if !rbac.CanDeleteTask(caller, t, related) {
		return rbac.ForbiddenError{Resource: rbac.ResourceTask, Action: rbac.ActionDelete}
	}
	return e.Store.DeleteTask(ctx, id)
}

// ListTasks narrows per role: members only ever see their assigned
// tasks, admins and managers see everything. The optional projectID
// narrows first; the role filter applies on top.
func (e Engine) ListTasks(ctx context.Context, caller domain.Caller, projectID *int64) ([]domain.Task, error) {
	filter := store.TaskFilter{ProjectID: projectID}
	if caller.Role == domain.RoleMember {
		filter.AssignedTo = caller.Email
	}
	return e.Store.ListTasks(ctx, filter)
}

// --- users ---

// ListUsers feeds assignment pickers. Members see admins, managers and
// themselves; they cannot discover other members through this listing.
func (e Engine) ListUsers(ctx context.Context, caller domain.Caller) ([]domain.UserInfo, error) {
	users, err := e.Store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.UserInfo
	for _, u := range users {
		if caller.Role == domain.RoleMember && u.Role == domain.RoleMember && u.Email != caller.Email {
			continue
		}
		out = append(out, u.Info())
	}
	return out, nil
}

// ListAccounts is the admin user listing; secrets are stripped here,
// like everywhere else, even for admins.
func (e Engine) ListAccounts(ctx context.Context, caller domain.Caller) ([]domain.UserInfo, error) {
	if !rbac.HasCapability(caller.Role, rbac.ResourceAdmin, rbac.ActionAccess) {
		return nil, rbac.ForbiddenError{Resource: rbac.ResourceAdmin, Action: rbac.ActionAccess}
	}
	users, err := e.Store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UserInfo, 0, len(users))
	for _, u := range users {
		out = append(out, u.Info())
	}
	return out, nil
}

// ChangeUserRole updates a user's role. The self-change guard fires
// before any capability check, unconditionally.
func (e Engine) ChangeUserRole(ctx context.Context, caller domain.Caller, targetEmail string, newRole domain.Role) (domain.UserInfo, error) {
	if targetEmail == caller.Email {
		return domain.UserInfo{}, ErrSelfRoleChange
	}
	if !newRole.Valid() {
		return domain.UserInfo{}, ValidationError{Msg: fmt.Sprintf("invalid role %q", newRole)}
	}
	if !rbac.HasCapability(caller.Role, rbac.ResourceUser, rbac.ActionEdit) {
		return domain.UserInfo{}, rbac.ForbiddenError{Resource: rbac.ResourceUser, Action: rbac.ActionEdit}
	}
	u, err := e.Store.UpdateUserRole(ctx, targetEmail, newRole)
	if err != nil {
		return domain.UserInfo{}, err
	}
	return u.Info(), nil
}

// --- analytics ---

type Analytics struct {
	TotalUsers     int                 `json:"totalUsers"`
	TotalProjects  int                 `json:"totalProjects"`
	TotalTasks     int                 `json:"totalTasks"`
	CompletedTasks int                 `json:"completedTasks"`
	PendingTasks   int                 `json:"pendingTasks"`
	CompletionRate int                 `json:"completionRate"`
	UsersByRole    map[domain.Role]int `json:"usersByRole"`
}

func (e Engine) Analytics(ctx context.Context, caller domain.Caller) (Analytics, error) {
	if !rbac.HasCapability(caller.Role, rbac.ResourceAdmin, rbac.ActionAccess) {
		return Analytics{}, rbac.ForbiddenError{Resource: rbac.ResourceAdmin, Action: rbac.ActionAccess}
	}
	users, err := e.Store.ListUsers(ctx)
	if err != nil {
		return Analytics{}, err
	}
	projects, err := e.Store.ListProjects(ctx)
	if err != nil {
		return Analytics{}, err
	}
	tasks, err := e.Store.ListTasks(ctx, store.TaskFilter{})
	if err != nil {
		return Analytics{}, err
	}
	a := Analytics{
		TotalUsers:    len(users),
		TotalProjects: len(projects),
		TotalTasks:    len(tasks),
		UsersByRole:   map[domain.Role]int{},
	}
	for _, u := range users {
		a.UsersByRole[u.Role]++
	}
	for _, t := range tasks {
		if t.Status == domain.TaskDone {
			a.CompletedTasks++
		} else {
			a.PendingTasks++
		}
	}
	if a.TotalTasks > 0 {
		a.CompletionRate = int(float64(a.CompletedTasks)/float64(a.TotalTasks)*100 + 0.5)
	}
	return a, nil
}
