package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"taskdeck/internal/auth"
	"taskdeck/internal/domain"
	"taskdeck/internal/engine"
	"taskdeck/internal/store/memory"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	m := memory.New()
	err := m.SeedUsers(context.Background(), []domain.User{
		{Email: "admin@taskdeck.test", Password: "pw", Role: domain.RoleAdmin},
		{Email: "manager@taskdeck.test", Password: "pw", Role: domain.RoleManager},
		{Email: "rival@taskdeck.test", Password: "pw", Role: domain.RoleManager},
		{Email: "member@taskdeck.test", Password: "pw", Role: domain.RoleMember},
	})
	if err != nil {
		t.Fatalf("seed users: %v", err)
	}
	resolver := auth.NewResolver(m, "test-secret", time.Hour)
	handler, err := New(Config{Engine: engine.New(m), Resolver: resolver, BasePath: "/api"})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func login(t *testing.T, srv *testServer, email string) (string, map[string]string) {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/auth/login", map[string]string{
		"email":    email,
		"password": "pw",
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d: %s", email, res.StatusCode, string(data))
	}
	var out LoginResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal login: %v", err)
	}
	if out.Token == "" {
		t.Fatal("login returned empty token")
	}
	return out.Token, map[string]string{"Authorization": "Bearer " + out.Token}
}

func TestLoginAndMe(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	_, hdr := login(t, srv, "member@taskdeck.test")
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/auth/me", nil, hdr)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("me: status %d: %s", res.StatusCode, string(data))
	}
	var me UserResponse
	if err := json.Unmarshal(data, &me); err != nil {
		t.Fatalf("unmarshal me: %v", err)
	}
	if me.Email != "member@taskdeck.test" || me.Role != "member" {
		t.Fatalf("me: %+v", me)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/auth/login", map[string]string{
		"email":    "member@taskdeck.test",
		"password": "wrong",
	}, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login: status %d: %s", res.StatusCode, string(data))
	}
}

func TestCookieAuthenticates(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	token, _ := login(t, srv, "member@taskdeck.test")
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/auth/me", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: "auth-token", Value: token})
	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("cookie auth: status %d", res.StatusCode)
	}
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, _ := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/tasks", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token: status %d", res.StatusCode)
	}
	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/tasks", nil, map[string]string{
		"Authorization": "Bearer garbage",
	})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d", res.StatusCode)
	}
	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health should stay public: status %d", res.StatusCode)
	}
}

func TestTaskFlowOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	_, managerHdr := login(t, srv, "manager@taskdeck.test")
	_, memberHdr := login(t, srv, "member@taskdeck.test")

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/projects", map[string]string{
		"name":        "Launch",
		"description": "Q4 launch work",
	}, managerHdr)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create project: status %d: %s", res.StatusCode, string(data))
	}
	var project ProjectResponse
	if err := json.Unmarshal(data, &project); err != nil {
		t.Fatalf("unmarshal project: %v", err)
	}
	if project.Owner != "manager@taskdeck.test" {
		t.Fatalf("owner: %s", project.Owner)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/api/tasks", map[string]any{
		"projectId":  project.ID,
		"title":      "Write announcement",
		"assignedTo": "member@taskdeck.test",
	}, managerHdr)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create task: status %d: %s", res.StatusCode, string(data))
	}
	var task TaskResponse
	if err := json.Unmarshal(data, &task); err != nil {
		t.Fatalf("unmarshal task: %v", err)
	}
	if task.Status != "pending" {
		t.Fatalf("default status: %s", task.Status)
	}

	// member sees the task in their scoped listing
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/tasks", nil, memberHdr)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("member list: status %d: %s", res.StatusCode, string(data))
	}
	var tasks []TaskResponse
	if err := json.Unmarshal(data, &tasks); err != nil {
		t.Fatalf("unmarshal tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != task.ID {
		t.Fatalf("member listing: %v", tasks)
	}

	// member may mark it done but not retitle it
	res, data = doJSON(t, client, http.MethodPatch, fmt.Sprintf("%s/api/tasks/%d", srv.URL, task.ID), map[string]string{
		"status": "done",
	}, memberHdr)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("member mark done: status %d: %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodPatch, fmt.Sprintf("%s/api/tasks/%d", srv.URL, task.ID), map[string]string{
		"title": "hijacked",
	}, memberHdr)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("member edit: status %d: %s", res.StatusCode, string(data))
	}

	// a manager who does not own the project cannot touch the task
	_, rivalHdr := login(t, srv, "rival@taskdeck.test")
	res, data = doJSON(t, client, http.MethodDelete, fmt.Sprintf("%s/api/tasks/%d", srv.URL, task.ID), nil, rivalHdr)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("rival delete: status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodDelete, fmt.Sprintf("%s/api/projects/%d", srv.URL, project.ID), nil, managerHdr)
	if res.StatusCode != http.StatusNoContent && res.StatusCode != http.StatusOK {
		t.Fatalf("delete project: status %d: %s", res.StatusCode, string(data))
	}
	res, _ = doJSON(t, client, http.MethodGet, fmt.Sprintf("%s/api/tasks/%d", srv.URL, task.ID), nil, managerHdr)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("task should cascade away: status %d", res.StatusCode)
	}
}

func TestAdminEndpoints(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	_, adminHdr := login(t, srv, "admin@taskdeck.test")
	_, managerHdr := login(t, srv, "manager@taskdeck.test")

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/api/admin/users", nil, managerHdr)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("manager admin list: status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/admin/users", nil, adminHdr)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("admin list: status %d: %s", res.StatusCode, string(data))
	}
	var users []UserResponse
	if err := json.Unmarshal(data, &users); err != nil {
		t.Fatalf("unmarshal users: %v", err)
	}
	if len(users) != 4 {
		t.Fatalf("user count: %d", len(users))
	}

	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/api/admin/users", map[string]string{
		"email": "admin@taskdeck.test",
		"role":  "member",
	}, adminHdr)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("self role change: status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/api/admin/users", map[string]string{
		"email": "member@taskdeck.test",
		"role":  "manager",
	}, adminHdr)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("role change: status %d: %s", res.StatusCode, string(data))
	}
	var changed UserResponse
	if err := json.Unmarshal(data, &changed); err != nil {
		t.Fatalf("unmarshal changed: %v", err)
	}
	if changed.Role != "manager" {
		t.Fatalf("changed role: %s", changed.Role)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/admin/analytics", nil, adminHdr)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("analytics: status %d: %s", res.StatusCode, string(data))
	}
	var a AnalyticsResponse
	if err := json.Unmarshal(data, &a); err != nil {
		t.Fatalf("unmarshal analytics: %v", err)
	}
	if a.TotalUsers != 4 {
		t.Fatalf("analytics users: %d", a.TotalUsers)
	}
}

func TestRoleChangeTakesEffectOnNextRequest(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	_, adminHdr := login(t, srv, "admin@taskdeck.test")
	_, memberHdr := login(t, srv, "member@taskdeck.test")

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/projects", map[string]string{
		"name":        "p",
		"description": "d",
	}, memberHdr)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("member create project: status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/api/admin/users", map[string]string{
		"email": "member@taskdeck.test",
		"role":  "manager",
	}, adminHdr)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("promote: status %d: %s", res.StatusCode, string(data))
	}

	// same token, new role
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/api/projects", map[string]string{
		"name":        "p",
		"description": "d",
	}, memberHdr)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("promoted create project: status %d: %s", res.StatusCode, string(data))
	}
}

func TestUserListingsCarryNoSecretFields(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	_, adminHdr := login(t, srv, "admin@taskdeck.test")
	_, memberHdr := login(t, srv, "member@taskdeck.test")

	assertNoSecretKeys := func(data []byte, source string) {
		t.Helper()
		var records []map[string]any
		if err := json.Unmarshal(data, &records); err != nil {
			var one map[string]any
			if err := json.Unmarshal(data, &one); err != nil {
				t.Fatalf("decode %s: %v", source, err)
			}
			records = []map[string]any{one}
		}
		for _, rec := range records {
			for key := range rec {
				lowered := strings.ToLower(key)
				if strings.Contains(lowered, "password") || strings.Contains(lowered, "secret") {
					t.Fatalf("%s leaked key %q in %v", source, key, rec)
				}
			}
		}
	}

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/api/users", nil, memberHdr)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("users: status %d: %s", res.StatusCode, string(data))
	}
	assertNoSecretKeys(data, "/users")

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/admin/users", nil, adminHdr)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("admin users: status %d: %s", res.StatusCode, string(data))
	}
	assertNoSecretKeys(data, "/admin/users")

	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/api/admin/users", map[string]string{
		"email": "member@taskdeck.test",
		"role":  "manager",
	}, adminHdr)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("role change: status %d: %s", res.StatusCode, string(data))
	}
	assertNoSecretKeys(data, "role change response")
}

func TestUsersPickerScope(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	_, memberHdr := login(t, srv, "member@taskdeck.test")
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/users", nil, memberHdr)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("picker: status %d: %s", res.StatusCode, string(data))
	}
	var users []UserResponse
	if err := json.Unmarshal(data, &users); err != nil {
		t.Fatalf("unmarshal users: %v", err)
	}
	for _, u := range users {
		if u.Role == "member" && u.Email != "member@taskdeck.test" {
			t.Fatalf("picker leaked member %s", u.Email)
		}
	}
}
