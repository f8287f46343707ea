package store

import (
	"context"
	"errors"

	"taskdeck/internal/domain"
)

// ErrNotFound is returned when a target id or identity does not exist.
var ErrNotFound = errors.New("not found")

// TaskFilter narrows task listings. Nil/empty fields match everything.
type TaskFilter struct {
	ProjectID  *int64
	AssignedTo string
}

// ProjectUpdate carries partial project mutations. Owner is immutable
// and deliberately absent.
type ProjectUpdate struct {
	Name        *string
	Description *string
}

// TaskUpdate carries partial task mutations.
type TaskUpdate struct {
	Title      *string
	AssignedTo *string
	Status     *domain.TaskStatus
}

// StatusOnly reports whether the update touches nothing but the status
// field. The engine gates such updates by assignment rather than edit
// permission.
func (u TaskUpdate) StatusOnly() bool {
	return u.Status != nil && u.Title == nil && u.AssignedTo == nil
}

// Empty reports whether the update carries no mutation at all.
func (u TaskUpdate) Empty() bool {
	return u.Status == nil && u.Title == nil && u.AssignedTo == nil
}

// Store is the data-access collaborator: CRUD over users, projects and
// tasks. Implementations allocate ids monotonically (never reusing an
// id after deletion), keep listings in insertion order, make each
// mutation atomic, and cascade project deletion to the project's
// tasks.
type Store interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, email string) (domain.User, error)
	UpdateUserRole(ctx context.Context, email string, role domain.Role) (domain.User, error)

	ListProjects(ctx context.Context) ([]domain.Project, error)
	GetProject(ctx context.Context, id int64) (domain.Project, error)
	CreateProject(ctx context.Context, p domain.Project) (domain.Project, error)
	UpdateProject(ctx context.Context, id int64, upd ProjectUpdate) (domain.Project, error)
	DeleteProject(ctx context.Context, id int64) error

	ListTasks(ctx context.Context, f TaskFilter) ([]domain.Task, error)
	GetTask(ctx context.Context, id int64) (domain.Task, error)
	CreateTask(ctx context.Context, t domain.Task) (domain.Task, error)
	UpdateTask(ctx context.Context, id int64, upd TaskUpdate) (domain.Task, error)
	DeleteTask(ctx context.Context, id int64) error

	// SeedUsers inserts missing accounts; existing ones keep their
	// current role (role changes must survive restarts).
	SeedUsers(ctx context.Context, users []domain.User) error

	Close() error
}
