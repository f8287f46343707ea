package taskdecksdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a minimal Taskdeck HTTP API client.
type Client struct {
	BaseURL     string
	BasePath    string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "api",
		Timeout:  10 * time.Second,
	}
}

// User represents an account without its secret.
type User struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Project represents the API project model.
type Project struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
}

// Task represents the API task model.
type Task struct {
	ID         int64  `json:"id"`
	ProjectID  int64  `json:"projectId"`
	Title      string `json:"title"`
	AssignedTo string `json:"assignedTo"`
	Status     string `json:"status"`
}

// Analytics represents the admin analytics payload.
type Analytics struct {
	TotalUsers     int            `json:"totalUsers"`
	TotalProjects  int            `json:"totalProjects"`
	TotalTasks     int            `json:"totalTasks"`
	CompletedTasks int            `json:"completedTasks"`
	PendingTasks   int            `json:"pendingTasks"`
	CompletionRate int            `json:"completionRate"`
	UsersByRole    map[string]int `json:"usersByRole"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Login authenticates and stores the returned token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	var resp struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return User{}, err
	}
	c.BearerToken = resp.Token
	return resp.User, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (User, error) {
	var resp User
	err := c.do(ctx, http.MethodGet, "auth/me", nil, &resp)
	return resp, err
}

// ListProjects returns projects visible to the caller.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var resp []Project
	err := c.do(ctx, http.MethodGet, "projects", nil, &resp)
	return resp, err
}

// CreateProject creates a project owned by the caller.
func (c *Client) CreateProject(ctx context.Context, name, description string) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodPost, "projects", map[string]string{
		"name":        name,
		"description": description,
	}, &resp)
	return resp, err
}

// GetProject fetches a project by id.
func (c *Client) GetProject(ctx context.Context, id int64) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("projects/%d", id), nil, &resp)
	return resp, err
}

// DeleteProject removes a project and its tasks.
func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("projects/%d", id), nil, nil)
}

// ListTasks returns tasks visible to the caller, optionally narrowed
// to one project.
func (c *Client) ListTasks(ctx context.Context, projectID *int64) ([]Task, error) {
	endpoint := "tasks"
	if projectID != nil {
		endpoint = fmt.Sprintf("tasks?projectId=%d", *projectID)
	}
	var resp []Task
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// CreateTask creates a task in a project.
func (c *Client) CreateTask(ctx context.Context, projectID int64, title, assignedTo string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPost, "tasks", map[string]any{
		"projectId":  projectID,
		"title":      title,
		"assignedTo": assignedTo,
	}, &resp)
	return resp, err
}

// UpdateTaskStatus flips a task's status.
func (c *Client) UpdateTaskStatus(ctx context.Context, id int64, status string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("tasks/%d", id), map[string]string{
		"status": status,
	}, &resp)
	return resp, err
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("tasks/%d", id), nil, nil)
}

// ListUsers returns the assignable users for the caller.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var resp []User
	err := c.do(ctx, http.MethodGet, "users", nil, &resp)
	return resp, err
}

// ListAccounts returns all accounts (admin only).
func (c *Client) ListAccounts(ctx context.Context) ([]User, error) {
	var resp []User
	err := c.do(ctx, http.MethodGet, "admin/users", nil, &resp)
	return resp, err
}

// ChangeUserRole updates a user's role (admin only).
func (c *Client) ChangeUserRole(ctx context.Context, email, role string) (User, error) {
	var resp User
	err := c.do(ctx, http.MethodPatch, "admin/users", map[string]string{
		"email": email,
		"role":  role,
	}, &resp)
	return resp, err
}

// GetAnalytics returns workspace analytics (admin only).
func (c *Client) GetAnalytics(ctx context.Context) (Analytics, error) {
	var resp Analytics
	err := c.do(ctx, http.MethodGet, "admin/analytics", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + c.apiPath(endpoint)
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) apiPath(p string) string {
	base := strings.Trim(c.BasePath, "/")
	if base == "" {
		return strings.TrimLeft(p, "/")
	}
	return base + "/" + strings.TrimLeft(p, "/")
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
