package main

import (
	"context"
	"fmt"
	"net/http/httptest"

	"taskdeck/internal/auth"
	"taskdeck/internal/config"
	"taskdeck/internal/engine"
	"taskdeck/internal/server"
	"taskdeck/internal/store/memory"
	taskdecksdk "taskdeck/sdk/go"
)

// quick end-to-end smoke: boot an in-memory server, log in as each
// seeded role, and walk the project/task lifecycle through the SDK.
func main() {
	ctx := context.Background()
	cfg := config.Default()
	m := memory.New()
	if err := m.SeedUsers(ctx, cfg.SeedUsers()); err != nil {
		panic(err)
	}
	resolver := auth.NewResolver(m, "smoke-secret", cfg.TokenTTL())
	h, err := server.New(server.Config{Engine: engine.New(m), Resolver: resolver, BasePath: "/api"})
	if err != nil {
		panic(err)
	}
	ts := httptest.NewServer(h)
	defer ts.Close()

	manager := taskdecksdk.New(ts.URL)
	if _, err := manager.Login(ctx, "manager@taskdeck.local", "manager123"); err != nil {
		panic(err)
	}
	p, err := manager.CreateProject(ctx, "Smoke", "end to end check")
	if err != nil {
		panic(err)
	}
	t, err := manager.CreateTask(ctx, p.ID, "Run the smoke test", "member@taskdeck.local")
	if err != nil {
		panic(err)
	}

	member := taskdecksdk.New(ts.URL)
	if _, err := member.Login(ctx, "member@taskdeck.local", "member123"); err != nil {
		panic(err)
	}
	mine, err := member.ListTasks(ctx, nil)
	if err != nil {
		panic(err)
	}
	if len(mine) != 1 {
		panic(fmt.Sprintf("member should see 1 task, got %d", len(mine)))
	}
	if _, err := member.UpdateTaskStatus(ctx, t.ID, "done"); err != nil {
		panic(err)
	}
	if err := member.DeleteTask(ctx, t.ID); err == nil {
		panic("member delete should be forbidden")
	}

	admin := taskdecksdk.New(ts.URL)
	if _, err := admin.Login(ctx, "admin@taskdeck.local", "admin123"); err != nil {
		panic(err)
	}
	stats, err := admin.GetAnalytics(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Printf("ok: %d users, %d projects, %d tasks, %d%% complete\n",
		stats.TotalUsers, stats.TotalProjects, stats.TotalTasks, stats.CompletionRate)
}
