package domain

import "fmt"

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// ParseRole validates a raw role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleMember:
		return Role(s), nil
	}
	return "", fmt.Errorf("invalid role %q", s)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// TaskStatus is the closed set of task states.
type TaskStatus string

const (
	TaskPending TaskStatus = "pending"
	TaskDone    TaskStatus = "done"
)

func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case TaskPending, TaskDone:
		return TaskStatus(s), nil
	}
	return "", fmt.Errorf("invalid task status %q", s)
}

// User is a seeded account. Password is credential material and never
// serialized; listing layers return UserInfo instead.
type User struct {
	Email    string `json:"email" yaml:"email"`
	Password string `json:"-" yaml:"password"`
	Role     Role   `json:"role" yaml:"role"`
}

// Info returns the secret-stripped view of the user.
func (u User) Info() UserInfo {
	return UserInfo{Email: u.Email, Role: u.Role}
}

// UserInfo is the user shape that leaves the engine: identity and role only.
type UserInfo struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Caller is the authenticated actor on a request, resolved once from a
// credential and immutable for the request's duration.
type Caller struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

type Project struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
}

type Task struct {
	ID         int64      `json:"id"`
	ProjectID  int64      `json:"projectId"`
	Title      string     `json:"title"`
	AssignedTo string     `json:"assignedTo"`
	Status     TaskStatus `json:"status"`
}
