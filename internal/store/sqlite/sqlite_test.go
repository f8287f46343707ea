package sqlite

import (
	"context"
	"testing"

	"taskdeck/internal/db"
	"taskdeck/internal/domain"
	"taskdeck/internal/migrate"
	"taskdeck/internal/store"
)

func newTestRepo(t *testing.T) (Repo, context.Context) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	r := Repo{DB: conn}
	ctx := context.Background()
	err = r.SeedUsers(ctx, []domain.User{
		{Email: "admin@x", Password: "pw", Role: domain.RoleAdmin},
		{Email: "manager@x", Password: "pw", Role: domain.RoleManager},
		{Email: "member@x", Password: "pw", Role: domain.RoleMember},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return r, ctx
}

func TestProjectCRUDAndIDAllocation(t *testing.T) {
	r, ctx := newTestRepo(t)
	p1, err := r.CreateProject(ctx, domain.Project{Name: "one", Owner: "manager@x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	p2, err := r.CreateProject(ctx, domain.Project{Name: "two", Owner: "manager@x"})
	if err != nil {
		t.Fatal(err)
	}
	if p1.ID != 1 || p2.ID != 2 {
		t.Fatalf("expected ids 1,2 got %d,%d", p1.ID, p2.ID)
	}
	if err := r.DeleteProject(ctx, p2.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	p3, err := r.CreateProject(ctx, domain.Project{Name: "three", Owner: "manager@x"})
	if err != nil {
		t.Fatal(err)
	}
	if p3.ID != 3 {
		t.Fatalf("id %d reissued after delete", p3.ID)
	}

	name := "renamed"
	updated, err := r.UpdateProject(ctx, p1.ID, store.ProjectUpdate{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "renamed" || updated.Owner != "manager@x" {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if _, err := r.UpdateProject(ctx, 99, store.ProjectUpdate{Name: &name}); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCascadeDeleteRemovesTasks(t *testing.T) {
	r, ctx := newTestRepo(t)
	p, _ := r.CreateProject(ctx, domain.Project{Name: "p", Owner: "manager@x"})
	other, _ := r.CreateProject(ctx, domain.Project{Name: "other", Owner: "manager@x"})
	for i := 0; i < 2; i++ {
		if _, err := r.CreateTask(ctx, domain.Task{ProjectID: p.ID, Title: "t", AssignedTo: "member@x", Status: domain.TaskPending}); err != nil {
			t.Fatalf("create task: %v", err)
		}
	}
	survivor, _ := r.CreateTask(ctx, domain.Task{ProjectID: other.ID, Title: "keep", AssignedTo: "member@x", Status: domain.TaskPending})

	if err := r.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}
	tasks, err := r.ListTasks(ctx, store.TaskFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].ID != survivor.ID {
		t.Fatalf("cascade left %v", tasks)
	}
}

func TestCreateTaskRequiresProject(t *testing.T) {
	r, ctx := newTestRepo(t)
	if _, err := r.CreateTask(ctx, domain.Task{ProjectID: 7, Title: "orphan"}); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTaskFilters(t *testing.T) {
	r, ctx := newTestRepo(t)
	p1, _ := r.CreateProject(ctx, domain.Project{Name: "p1", Owner: "manager@x"})
	p2, _ := r.CreateProject(ctx, domain.Project{Name: "p2", Owner: "manager@x"})
	r.CreateTask(ctx, domain.Task{ProjectID: p1.ID, Title: "a", AssignedTo: "member@x", Status: domain.TaskPending})
	r.CreateTask(ctx, domain.Task{ProjectID: p2.ID, Title: "b", AssignedTo: "member@x", Status: domain.TaskPending})
	r.CreateTask(ctx, domain.Task{ProjectID: p1.ID, Title: "c", AssignedTo: "admin@x", Status: domain.TaskPending})

	byProject, err := r.ListTasks(ctx, store.TaskFilter{ProjectID: &p1.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(byProject) != 2 || byProject[0].Title != "a" || byProject[1].Title != "c" {
		t.Fatalf("project filter wrong: %v", byProject)
	}
	byAssignee, err := r.ListTasks(ctx, store.TaskFilter{AssignedTo: "member@x"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byAssignee) != 2 || byAssignee[0].Title != "a" || byAssignee[1].Title != "b" {
		t.Fatalf("assignee filter wrong: %v", byAssignee)
	}
	both, err := r.ListTasks(ctx, store.TaskFilter{ProjectID: &p1.ID, AssignedTo: "member@x"})
	if err != nil {
		t.Fatal(err)
	}
	if len(both) != 1 || both[0].Title != "a" {
		t.Fatalf("combined filter wrong: %v", both)
	}
}

func TestUserRoleUpdateAndSeedIdempotence(t *testing.T) {
	r, ctx := newTestRepo(t)
	if _, err := r.UpdateUserRole(ctx, "member@x", domain.RoleManager); err != nil {
		t.Fatalf("update role: %v", err)
	}
	// restart seeding must not clobber the changed role
	err := r.SeedUsers(ctx, []domain.User{{Email: "member@x", Password: "pw", Role: domain.RoleMember}})
	if err != nil {
		t.Fatal(err)
	}
	u, err := r.GetUser(ctx, "member@x")
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != domain.RoleManager {
		t.Fatalf("seed reset role to %s", u.Role)
	}
	if _, err := r.UpdateUserRole(ctx, "ghost@x", domain.RoleAdmin); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
