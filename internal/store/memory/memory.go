// Package memory provides the in-memory Store used by tests and demo
// runs. A single mutex guards every read-modify-write sequence so id
// allocation, updates and cascade deletes never interleave; listings
// copy out under the same lock and observe a consistent snapshot.
package memory

import (
	"context"
	"sync"

	"taskdeck/internal/domain"
	"taskdeck/internal/store"
)

type Memory struct {
	mu       sync.Mutex
	users    []domain.User
	projects []domain.Project
	tasks    []domain.Task

	// next ids only grow; deleting the highest record must not free
	// its id for reuse.
	nextProjectID int64
	nextTaskID    int64
}

func New() *Memory {
	return &Memory{nextProjectID: 1, nextTaskID: 1}
}

var _ store.Store = (*Memory)(nil)

func (m *Memory) ListUsers(ctx context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.User, len(m.users))
	copy(out, m.users)
	return out, nil
}

func (m *Memory) GetUser(ctx context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, store.ErrNotFound
}

func (m *Memory) UpdateUserRole(ctx context.Context, email string, role domain.Role) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].Email == email {
			m.users[i].Role = role
			return m.users[i], nil
		}
	}
	return domain.User{}, store.ErrNotFound
}

func (m *Memory) SeedUsers(ctx context.Context, users []domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range users {
		if m.indexOfUser(u.Email) >= 0 {
			continue
		}
		m.users = append(m.users, u)
	}
	return nil
}

func (m *Memory) indexOfUser(email string) int {
	for i := range m.users {
		if m.users[i].Email == email {
			return i
		}
	}
	return -1
}

func (m *Memory) ListProjects(ctx context.Context) ([]domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Project, len(m.projects))
	copy(out, m.projects)
	return out, nil
}

func (m *Memory) GetProject(ctx context.Context, id int64) (domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Project{}, store.ErrNotFound
}

func (m *Memory) CreateProject(ctx context.Context, p domain.Project) (domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextProjectID
	m.nextProjectID++
	m.projects = append(m.projects, p)
	return p, nil
}

func (m *Memory) UpdateProject(ctx context.Context, id int64, upd store.ProjectUpdate) (domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.projects {
		if m.projects[i].ID != id {
			continue
		}
		if upd.Name != nil {
			m.projects[i].Name = *upd.Name
		}
		if upd.Description != nil {
			m.projects[i].Description = *upd.Description
		}
		return m.projects[i], nil
	}
	return domain.Project{}, store.ErrNotFound
}

func (m *Memory) DeleteProject(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := -1
	for i := range m.projects {
		if m.projects[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return store.ErrNotFound
	}
	m.projects = append(m.projects[:idx], m.projects[idx+1:]...)
	// cascade: drop the project's tasks inside the same critical section
	kept := m.tasks[:0]
	for _, t := range m.tasks {
		if t.ProjectID != id {
			kept = append(kept, t)
		}
	}
	m.tasks = kept
	return nil
}

func (m *Memory) ListTasks(ctx context.Context, f store.TaskFilter) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Task
	for _, t := range m.tasks {
		if f.ProjectID != nil && t.ProjectID != *f.ProjectID {
			continue
		}
		if f.AssignedTo != "" && t.AssignedTo != f.AssignedTo {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *Memory) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Task{}, store.ErrNotFound
}

func (m *Memory) CreateTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.projectExists(t.ProjectID) {
		return domain.Task{}, store.ErrNotFound
	}
	t.ID = m.nextTaskID
	m.nextTaskID++
	m.tasks = append(m.tasks, t)
	return t, nil
}

func (m *Memory) projectExists(id int64) bool {
	for _, p := range m.projects {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (m *Memory) UpdateTask(ctx context.Context, id int64, upd store.TaskUpdate) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID != id {
			continue
		}
		if upd.Title != nil {
			m.tasks[i].Title = *upd.Title
		}
		if upd.AssignedTo != nil {
			m.tasks[i].AssignedTo = *upd.AssignedTo
		}
		if upd.Status != nil {
			m.tasks[i].Status = *upd.Status
		}
		return m.tasks[i], nil
	}
	return domain.Task{}, store.ErrNotFound
}

func (m *Memory) DeleteTask(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *Memory) Close() error { return nil }
