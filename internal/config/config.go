package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"taskdeck/internal/domain"
)

// Config models taskdeck.yml.
type Config struct {
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Auth struct {
		JWTSecret    string `yaml:"jwt_secret"`
		JWTSecretEnv string `yaml:"jwt_secret_env"`
		TokenTTL     string `yaml:"token_ttl"`
	} `yaml:"auth"`
	Storage struct {
		Driver    string `yaml:"driver"`
		Workspace string `yaml:"workspace"`
	} `yaml:"storage"`
	Seed struct {
		Users []SeedUser `yaml:"users"`
	} `yaml:"seed"`
}

type SeedUser struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; generate one with td init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the default config if the file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config.server.addr is required")
	}
	switch c.Storage.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("config.storage.driver must be 'sqlite' or 'memory'")
	}
	if c.Auth.TokenTTL != "" {
		if _, err := time.ParseDuration(c.Auth.TokenTTL); err != nil {
			return fmt.Errorf("config.auth.token_ttl: %w", err)
		}
	}
	seen := map[string]bool{}
	for i, u := range c.Seed.Users {
		if u.Email == "" {
			return fmt.Errorf("seed user %d has empty email", i)
		}
		if seen[u.Email] {
			return fmt.Errorf("seed user %s listed twice", u.Email)
		}
		seen[u.Email] = true
		if u.Password == "" {
			return fmt.Errorf("seed user %s has empty password", u.Email)
		}
		if _, err := domain.ParseRole(u.Role); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}
	return nil
}

// JWTSecret resolves the signing secret, preferring the env variable
// when one is named.
func (c *Config) JWTSecret() string {
	if c.Auth.JWTSecretEnv != "" {
		if v := os.Getenv(c.Auth.JWTSecretEnv); v != "" {
			return v
		}
	}
	return c.Auth.JWTSecret
}

// TokenTTL returns the parsed session lifetime.
func (c *Config) TokenTTL() time.Duration {
	if c.Auth.TokenTTL == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Auth.TokenTTL)
	if err != nil {
		return 0
	}
	return d
}

// SeedUsers converts the seed block into domain users.
func (c *Config) SeedUsers() []domain.User {
	users := make([]domain.User, 0, len(c.Seed.Users))
	for _, u := range c.Seed.Users {
		role, err := domain.ParseRole(u.Role)
		if err != nil {
			continue
		}
		users = append(users, domain.User{Email: u.Email, Password: u.Password, Role: role})
	}
	return users
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "taskdeck.yml")
}

// Default returns the default Config struct.
func Default() *Config {
	cfg, err := FromYAML([]byte(defaultTemplate))
	if err != nil {
		panic(err)
	}
	return cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `server:
  addr: 127.0.0.1:8088
  base_path: /api

auth:
  jwt_secret: dev-secret-change-me
  jwt_secret_env: TASKDECK_JWT_SECRET
  token_ttl: 24h

storage:
  driver: sqlite
  workspace: .

seed:
  users:
    - email: admin@taskdeck.local
      password: admin123
      role: admin
    - email: manager@taskdeck.local
      password: manager123
      role: manager
    - email: member@taskdeck.local
      password: member123
      role: member
`
