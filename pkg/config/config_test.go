package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modfleet/gatehouse/pkg/observability"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "TEST_VAR_NOT_SET",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		defaultValue bool
		envValue     string
		want         bool
	}{
		{name: "returns true for 'true'", envValue: "true", want: true},
		{name: "returns true for '1'", envValue: "1", want: true},
		{name: "returns false for 'false'", defaultValue: true, envValue: "false", want: false},
		{name: "returns default when unset", defaultValue: true, envValue: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_BOOL", tt.envValue)
				defer os.Unsetenv("TEST_BOOL")
			}

			got := getEnvBool("TEST_BOOL", tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		defaultValue time.Duration
		envValue     string
		want         time.Duration
	}{
		{name: "parses duration", envValue: "2m", want: 2 * time.Minute},
		{name: "falls back on malformed value", defaultValue: time.Minute, envValue: "nope", want: time.Minute},
		{name: "returns default when unset", defaultValue: time.Minute, envValue: "", want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_DURATION", tt.envValue)
				defer os.Unsetenv("TEST_DURATION")
			}

			got := getEnvDuration("TEST_DURATION", tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{name: "single id", value: "123", want: []string{"123"}},
		{name: "multiple ids with spaces", value: "123, 456 ,789", want: []string{"123", "456", "789"}},
		{name: "drops empty items", value: "123,,456,", want: []string{"123", "456"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitAndTrim(tt.value)
			if len(got) != len(tt.want) {
				t.Fatalf("splitAndTrim() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("splitAndTrim()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("default port = %s, want 8080", cfg.Server.Port)
	}
	if cfg.Access.GuildID != DefaultGuildID {
		t.Errorf("default guild id = %s, want %s", cfg.Access.GuildID, DefaultGuildID)
	}
	if cfg.Access.CacheTTL != 5*time.Minute {
		t.Errorf("default cache TTL = %v, want 5m", cfg.Access.CacheTTL)
	}
	if cfg.Access.SkipChecks {
		t.Error("skip checks must default to false")
	}
	if cfg.Observability.LogLevel != observability.InfoLevel {
		t.Errorf("default log level = %v, want info", cfg.Observability.LogLevel)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	os.Setenv("GATEHOUSE_GUILD_ID", "999")
	os.Setenv("GATEHOUSE_REQUIRED_ROLE_IDS", "1,2,3")
	os.Setenv("GATEHOUSE_ACCESS_CACHE_TTL", "90s")
	os.Setenv("GATEHOUSE_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	defer os.Unsetenv("GATEHOUSE_GUILD_ID")
	defer os.Unsetenv("GATEHOUSE_REQUIRED_ROLE_IDS")
	defer os.Unsetenv("GATEHOUSE_ACCESS_CACHE_TTL")
	defer os.Unsetenv("GATEHOUSE_ALLOWED_ORIGINS")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Access.GuildID != "999" {
		t.Errorf("guild id = %s, want 999", cfg.Access.GuildID)
	}
	if len(cfg.Access.RequiredRoleIDs) != 3 {
		t.Errorf("required role ids = %v, want 3 entries", cfg.Access.RequiredRoleIDs)
	}
	if cfg.Access.CacheTTL != 90*time.Second {
		t.Errorf("cache TTL = %v, want 90s", cfg.Access.CacheTTL)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[0] != "https://a.example.com" {
		t.Errorf("allowed origins = %v, want two trimmed entries", cfg.Server.AllowedOrigins)
	}
}

func TestLoadConfigYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gatehouse.yaml")
	content := []byte("access:\n  guild_id: \"555\"\n  cache_backend: memory\nserver:\n  port: \"8088\"\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	os.Setenv("GATEHOUSE_CONFIG_FILE", path)
	defer os.Unsetenv("GATEHOUSE_CONFIG_FILE")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Access.GuildID != "555" {
		t.Errorf("guild id = %s, want 555", cfg.Access.GuildID)
	}
	if cfg.Server.Port != "8088" {
		t.Errorf("port = %s, want 8088", cfg.Server.Port)
	}
}

func TestLoadConfigEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gatehouse.yaml")
	if err := os.WriteFile(path, []byte("access:\n  guild_id: \"555\"\n"), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	os.Setenv("GATEHOUSE_CONFIG_FILE", path)
	os.Setenv("GATEHOUSE_GUILD_ID", "777")
	defer os.Unsetenv("GATEHOUSE_CONFIG_FILE")
	defer os.Unsetenv("GATEHOUSE_GUILD_ID")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Access.GuildID != "777" {
		t.Errorf("guild id = %s, want 777 (env must win)", cfg.Access.GuildID)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "same port for server and health",
			mutate:  func(c *Config) { c.Server.HealthPort = c.Server.Port },
			wantErr: true,
		},
		{
			name:    "missing guild id",
			mutate:  func(c *Config) { c.Access.GuildID = "" },
			wantErr: true,
		},
		{
			name:    "missing guild id allowed when checks skipped",
			mutate:  func(c *Config) { c.Access.GuildID = ""; c.Access.SkipChecks = true },
			wantErr: false,
		},
		{
			name:    "empty role set",
			mutate:  func(c *Config) { c.Access.RequiredRoleIDs = nil },
			wantErr: true,
		},
		{
			name:    "zero cache TTL",
			mutate:  func(c *Config) { c.Access.CacheTTL = 0 },
			wantErr: true,
		},
		{
			name:    "unknown cache backend",
			mutate:  func(c *Config) { c.Access.CacheBackend = "memcached" },
			wantErr: true,
		},
		{
			name:    "redis backend without redis URL",
			mutate:  func(c *Config) { c.Access.CacheBackend = "redis" },
			wantErr: true,
		},
		{
			name: "redis backend with redis URL",
			mutate: func(c *Config) {
				c.Access.CacheBackend = "redis"
				c.Storage.RedisURL = "localhost:6379"
			},
			wantErr: false,
		},
		{
			name:    "missing gateway base URL",
			mutate:  func(c *Config) { c.Gateway.BaseURL = "" },
			wantErr: true,
		},
		{
			name: "otel enabled without endpoint",
			mutate: func(c *Config) {
				c.Observability.OTelEnabled = true
				c.Observability.OTelEndpoint = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
