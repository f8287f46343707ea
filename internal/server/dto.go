package server

import (
	"taskdeck/internal/domain"
	"taskdeck/internal/engine"
)

// Request payloads

type LoginRequest struct {
	Email    string `json:"email" format:"email"`
	Password string `json:"password"`
}

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type CreateTaskRequest struct {
	ProjectID  int64  `json:"projectId"`
	Title      string `json:"title"`
	AssignedTo string `json:"assignedTo" format:"email"`
	Status     string `json:"status,omitempty" enum:"pending,done"`
}

type UpdateTaskRequest struct {
	Title      *string `json:"title,omitempty"`
	AssignedTo *string `json:"assignedTo,omitempty" format:"email"`
	Status     *string `json:"status,omitempty" enum:"pending,done"`
}

type ChangeRoleRequest struct {
	Email string `json:"email" format:"email"`
	Role  string `json:"role" enum:"admin,manager,member"`
}

// Response payloads

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type ProjectResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
}

type TaskResponse struct {
	ID         int64  `json:"id"`
	ProjectID  int64  `json:"projectId"`
	Title      string `json:"title"`
	AssignedTo string `json:"assignedTo"`
	Status     string `json:"status"`
}

type AnalyticsResponse struct {
	TotalUsers     int            `json:"totalUsers"`
	TotalProjects  int            `json:"totalProjects"`
	TotalTasks     int            `json:"totalTasks"`
	CompletedTasks int            `json:"completedTasks"`
	PendingTasks   int            `json:"pendingTasks"`
	CompletionRate int            `json:"completionRate"`
	UsersByRole    map[string]int `json:"usersByRole"`
}

func userResponse(u domain.UserInfo) UserResponse {
	return UserResponse{Email: u.Email, Role: string(u.Role)}
}

func mapUsers(items []domain.UserInfo) []UserResponse {
	out := make([]UserResponse, 0, len(items))
	for _, u := range items {
		out = append(out, userResponse(u))
	}
	return out
}

func projectResponse(p domain.Project) ProjectResponse {
	return ProjectResponse{ID: p.ID, Name: p.Name, Description: p.Description, Owner: p.Owner}
}

func mapProjects(items []domain.Project) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(items))
	for _, p := range items {
		out = append(out, projectResponse(p))
	}
	return out
}

func taskResponse(t domain.Task) TaskResponse {
	return TaskResponse{ID: t.ID, ProjectID: t.ProjectID, Title: t.Title, AssignedTo: t.AssignedTo, Status: string(t.Status)}
}

func mapTasks(items []domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(items))
	for _, t := range items {
		out = append(out, taskResponse(t))
	}
	return out
}

func analyticsResponse(a engine.Analytics) AnalyticsResponse {
	byRole := make(map[string]int, len(a.UsersByRole))
	for role, n := range a.UsersByRole {
		byRole[string(role)] = n
	}
	return AnalyticsResponse{
		TotalUsers:     a.TotalUsers,
		TotalProjects:  a.TotalProjects,
		TotalTasks:     a.TotalTasks,
		CompletedTasks: a.CompletedTasks,
		PendingTasks:   a.PendingTasks,
		CompletionRate: a.CompletionRate,
		UsersByRole:    byRole,
	}
}
