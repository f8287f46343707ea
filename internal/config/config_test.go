package config

import (
	"strings"
	"testing"
	"time"

	"taskdeck/internal/domain"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if cfg.Server.Addr == "" {
		t.Fatal("default addr empty")
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Fatalf("default driver: %s", cfg.Storage.Driver)
	}
	if cfg.TokenTTL() != 24*time.Hour {
		t.Fatalf("default ttl: %s", cfg.TokenTTL())
	}
	users := cfg.SeedUsers()
	if len(users) != 3 {
		t.Fatalf("default seed users: %d", len(users))
	}
	if users[0].Role != domain.RoleAdmin {
		t.Fatalf("first seed role: %s", users[0].Role)
	}
}

func TestValidateRejectsBadDriver(t *testing.T) {
	_, err := FromYAML([]byte("server:\n  addr: :8088\nstorage:\n  driver: postgres\n"))
	if err == nil || !strings.Contains(err.Error(), "driver") {
		t.Fatalf("bad driver: got %v", err)
	}
}

func TestValidateRejectsBadSeed(t *testing.T) {
	for name, body := range map[string]string{
		"bad role": `
server:
  addr: :8088
storage:
  driver: memory
seed:
  users:
    - email: a@x
      password: pw
      role: owner
`,
		"duplicate email": `
server:
  addr: :8088
storage:
  driver: memory
seed:
  users:
    - {email: a@x, password: pw, role: admin}
    - {email: a@x, password: pw, role: member}
`,
		"empty password": `
server:
  addr: :8088
storage:
  driver: memory
seed:
  users:
    - {email: a@x, password: "", role: admin}
`,
	} {
		if _, err := FromYAML([]byte(body)); err == nil {
			t.Fatalf("%s: want error", name)
		}
	}
}

func TestJWTSecretPrefersEnv(t *testing.T) {
	cfg := Default()
	t.Setenv("TASKDECK_JWT_SECRET", "from-env")
	if got := cfg.JWTSecret(); got != "from-env" {
		t.Fatalf("secret: %s", got)
	}
	t.Setenv("TASKDECK_JWT_SECRET", "")
	if got := cfg.JWTSecret(); got != "dev-secret-change-me" {
		t.Fatalf("fallback secret: %s", got)
	}
}
