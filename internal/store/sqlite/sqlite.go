// Package sqlite persists the task board in a workspace SQLite
// database. AUTOINCREMENT primary keys carry the never-reuse id
// guarantee; cascade delete rides the tasks foreign key inside a
// single transaction.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"taskdeck/internal/domain"
	"taskdeck/internal/store"
)

type Repo struct {
	DB *sql.DB
}

var _ store.Store = Repo{}

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(&u.Email, &u.Password, &role)
	if err == sql.ErrNoRows {
		return u, store.ErrNotFound
	}
	if err != nil {
		return u, err
	}
	u.Role = domain.Role(role)
	return u, nil
}

func (r Repo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT email,password,role FROM users ORDER BY rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.User
	for rows.Next() {
		var u domain.User
		var role string
		if err := rows.Scan(&u.Email, &u.Password, &role); err != nil {
			return nil, err
		}
		u.Role = domain.Role(role)
		res = append(res, u)
	}
	return res, rows.Err()
}

func (r Repo) GetUser(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT email,password,role FROM users WHERE email=?`, email))
}

func (r Repo) UpdateUserRole(ctx context.Context, email string, role domain.Role) (domain.User, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET role=? WHERE email=?`, string(role), email)
	if err != nil {
		return domain.User{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.User{}, store.ErrNotFound
	}
	return r.GetUser(ctx, email)
}

func (r Repo) SeedUsers(ctx context.Context, users []domain.User) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, u := range users {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO users(email,password,role) VALUES (?,?,?)`,
			u.Email, u.Password, string(u.Role)); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}
	return tx.Commit()
}

func (r Repo) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,description,owner FROM projects ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Owner); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r Repo) GetProject(ctx context.Context, id int64) (domain.Project, error) {
	var p domain.Project
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,description,owner FROM projects WHERE id=?`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Owner)
	if err == sql.ErrNoRows {
		return p, store.ErrNotFound
	}
	return p, err
}

func (r Repo) CreateProject(ctx context.Context, p domain.Project) (domain.Project, error) {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO projects(name,description,owner) VALUES (?,?,?)`,
		p.Name, p.Description, p.Owner)
	if err != nil {
		return domain.Project{}, err
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

func (r Repo) UpdateProject(ctx context.Context, id int64, upd store.ProjectUpdate) (domain.Project, error) {
	var (
		fields []string
		args   []any
	)
	if upd.Name != nil {
		fields = append(fields, "name=?")
		args = append(args, *upd.Name)
	}
	if upd.Description != nil {
		fields = append(fields, "description=?")
		args = append(args, *upd.Description)
	}
	if len(fields) > 0 {
		args = append(args, id)
		res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE projects SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
		if err != nil {
			return domain.Project{}, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.Project{}, store.ErrNotFound
		}
	}
	return r.GetProject(ctx, id)
}

func (r Repo) DeleteProject(ctx context.Context, id int64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	// explicit task delete keeps the cascade visible even when the
	// foreign_keys pragma is off on a stray connection
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE project_id=?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return tx.Commit()
}

func (r Repo) ListTasks(ctx context.Context, f store.TaskFilter) ([]domain.Task, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if f.ProjectID != nil {
		clauses = append(clauses, "project_id=?")
		args = append(args, *f.ProjectID)
	}
	if f.AssignedTo != "" {
		clauses = append(clauses, "assigned_to=?")
		args = append(args, f.AssignedTo)
	}
	query := `SELECT id,project_id,title,assigned_to,status FROM tasks WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY id ASC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		var t domain.Task
		var status string
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.AssignedTo, &status); err != nil {
			return nil, err
		}
		t.Status = domain.TaskStatus(status)
		res = append(res, t)
	}
	return res, rows.Err()
}

func (r Repo) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	var t domain.Task
	var status string
	err := r.DB.QueryRowContext(ctx, `SELECT id,project_id,title,assigned_to,status FROM tasks WHERE id=?`, id).
		Scan(&t.ID, &t.ProjectID, &t.Title, &t.AssignedTo, &status)
	if err == sql.ErrNoRows {
		return t, store.ErrNotFound
	}
	if err != nil {
		return t, err
	}
	t.Status = domain.TaskStatus(status)
	return t, nil
}

func (r Repo) CreateTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()
	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM projects WHERE id=?`, t.ProjectID).Scan(&one)
	if err == sql.ErrNoRows {
		return domain.Task{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Task{}, err
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO tasks(project_id,title,assigned_to,status) VALUES (?,?,?,?)`,
		t.ProjectID, t.Title, t.AssignedTo, string(t.Status))
	if err != nil {
		return domain.Task{}, err
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

func (r Repo) UpdateTask(ctx context.Context, id int64, upd store.TaskUpdate) (domain.Task, error) {
	var (
		fields []string
		args   []any
	)
	if upd.Title != nil {
		fields = append(fields, "title=?")
		args = append(args, *upd.Title)
	}
	if upd.AssignedTo != nil {
		fields = append(fields, "assigned_to=?")
		args = append(args, *upd.AssignedTo)
	}
	if upd.Status != nil {
		fields = append(fields, "status=?")
		args = append(args, string(*upd.Status))
	}
	if len(fields) > 0 {
		args = append(args, id)
		res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE tasks SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
		if err != nil {
			return domain.Task{}, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.Task{}, store.ErrNotFound
		}
	}
	return r.GetTask(ctx, id)
}

func (r Repo) DeleteTask(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r Repo) Close() error { return r.DB.Close() }
