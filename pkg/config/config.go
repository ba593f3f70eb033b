package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/modfleet/gatehouse/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Access policy configuration
	Access AccessConfig `yaml:"access"`

	// Identity gateway (Discord API) configuration
	Gateway GatewayConfig `yaml:"gateway"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`

	// DashboardUpstream is the URL the proxy guard forwards to
	DashboardUpstream string `yaml:"dashboard_upstream"`

	// AllowedOrigins enables CORS for the listed origins ("*" for any).
	// Empty leaves cross-origin access disabled.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AccessConfig holds the dashboard access policy
type AccessConfig struct {
	// GuildID is the single community whose membership is required
	GuildID string `yaml:"guild_id"`
	// RequiredRoleIDs grants access when the member holds any one of them
	RequiredRoleIDs []string `yaml:"required_role_ids"`
	// CacheTTL bounds how long a grant is remembered
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// CacheBackend is "memory" or "redis"
	CacheBackend string `yaml:"cache_backend"`
	// SkipChecks bypasses all policy evaluation. Local development only;
	// must never be set in a production deployment.
	SkipChecks bool `yaml:"skip_checks"`
	// DebugDenials includes the required guild/role ids in 403 bodies
	DebugDenials bool `yaml:"debug_denials"`
}

// GatewayConfig holds outbound identity provider settings
type GatewayConfig struct {
	// BaseURL of the Discord REST API
	BaseURL string `yaml:"base_url"`
	// Timeout for each gateway HTTP round trip
	Timeout time.Duration `yaml:"timeout"`
}

// StorageConfig holds relational and cache store settings
type StorageConfig struct {
	PostgresURL   string `yaml:"postgres_url"`
	RedisURL      string `yaml:"redis_url"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel `yaml:"-"`
	// LogLevelName is the yaml/env spelling of LogLevel
	LogLevelName string `yaml:"log_level"`

	// Metrics
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// OpenTelemetry
	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure"`
}

// DefaultGuildID and DefaultRequiredRoleIDs are the shipped policy constants.
// The policy shape (one guild, OR over the role set) is fixed; the ids are
// overridable per deployment.
const DefaultGuildID = "734595073920204940"

var DefaultRequiredRoleIDs = []string{"1114379479381442650"}

// LoadConfig loads configuration from an optional YAML file (GATEHOUSE_CONFIG_FILE)
// with environment variables taking precedence.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("GATEHOUSE_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.Observability.LogLevel = parseLogLevel(cfg.Observability.LogLevelName)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   30 * time.Second,
			HealthPort:        "9090",
			DashboardUpstream: "",
		},
		Access: AccessConfig{
			GuildID:         DefaultGuildID,
			RequiredRoleIDs: append([]string(nil), DefaultRequiredRoleIDs...),
			CacheTTL:        5 * time.Minute,
			CacheBackend:    "memory",
			SkipChecks:      false,
			DebugDenials:    false,
		},
		Gateway: GatewayConfig{
			BaseURL: "https://discord.com/api/v10",
			Timeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			RedisDB: 0,
		},
		Observability: ObservabilityConfig{
			LogLevelName:       "info",
			MetricsEnabled:     true,
			OTelEnabled:        false,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "gatehouse",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

// loadFile overlays YAML file values onto the config
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// applyEnv overlays environment variables onto the config
func (c *Config) applyEnv() {
	c.Server.Host = getEnv("GATEHOUSE_HOST", c.Server.Host)
	c.Server.Port = getEnv("GATEHOUSE_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("GATEHOUSE_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("GATEHOUSE_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("GATEHOUSE_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("GATEHOUSE_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.HealthPort = getEnv("GATEHOUSE_HEALTH_PORT", c.Server.HealthPort)
	c.Server.DashboardUpstream = getEnv("GATEHOUSE_DASHBOARD_UPSTREAM", c.Server.DashboardUpstream)
	if origins := getEnv("GATEHOUSE_ALLOWED_ORIGINS", ""); origins != "" {
		c.Server.AllowedOrigins = splitAndTrim(origins)
	}

	c.Access.GuildID = getEnv("GATEHOUSE_GUILD_ID", c.Access.GuildID)
	if roles := getEnv("GATEHOUSE_REQUIRED_ROLE_IDS", ""); roles != "" {
		c.Access.RequiredRoleIDs = splitAndTrim(roles)
	}
	c.Access.CacheTTL = getEnvDuration("GATEHOUSE_ACCESS_CACHE_TTL", c.Access.CacheTTL)
	c.Access.CacheBackend = getEnv("GATEHOUSE_ACCESS_CACHE_BACKEND", c.Access.CacheBackend)
	c.Access.SkipChecks = getEnvBool("GATEHOUSE_SKIP_ACCESS_CHECKS", c.Access.SkipChecks)
	c.Access.DebugDenials = getEnvBool("GATEHOUSE_DEBUG_DENIALS", c.Access.DebugDenials)

	c.Gateway.BaseURL = getEnv("GATEHOUSE_DISCORD_API_BASE", c.Gateway.BaseURL)
	c.Gateway.Timeout = getEnvDuration("GATEHOUSE_GATEWAY_TIMEOUT", c.Gateway.Timeout)

	c.Storage.PostgresURL = getEnv("GATEHOUSE_POSTGRES_URL", c.Storage.PostgresURL)
	c.Storage.RedisURL = getEnv("GATEHOUSE_REDIS_URL", c.Storage.RedisURL)
	c.Storage.RedisPassword = getEnv("GATEHOUSE_REDIS_PASSWORD", c.Storage.RedisPassword)
	c.Storage.RedisDB = getEnvInt("GATEHOUSE_REDIS_DB", c.Storage.RedisDB)

	c.Observability.LogLevelName = getEnv("GATEHOUSE_LOG_LEVEL", c.Observability.LogLevelName)
	c.Observability.MetricsEnabled = getEnvBool("GATEHOUSE_METRICS_ENABLED", c.Observability.MetricsEnabled)
	c.Observability.OTelEnabled = getEnvBool("GATEHOUSE_OTEL_ENABLED", c.Observability.OTelEnabled)
	c.Observability.OTelEndpoint = getEnv("GATEHOUSE_OTEL_ENDPOINT", c.Observability.OTelEndpoint)
	c.Observability.OTelServiceName = getEnv("GATEHOUSE_OTEL_SERVICE_NAME", c.Observability.OTelServiceName)
	c.Observability.OTelServiceVersion = getEnv("GATEHOUSE_OTEL_SERVICE_VERSION", c.Observability.OTelServiceVersion)
	c.Observability.OTelInsecure = getEnvBool("GATEHOUSE_OTEL_INSECURE", c.Observability.OTelInsecure)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if !c.Access.SkipChecks {
		if c.Access.GuildID == "" {
			return fmt.Errorf("access guild id is required")
		}
		if len(c.Access.RequiredRoleIDs) == 0 {
			return fmt.Errorf("at least one required role id is required")
		}
	}
	if c.Access.CacheTTL <= 0 {
		return fmt.Errorf("access cache TTL must be positive")
	}
	switch c.Access.CacheBackend {
	case "memory":
	case "redis":
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("redis URL is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("invalid cache backend: %s (must be memory or redis)", c.Access.CacheBackend)
	}

	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway base URL is required")
	}
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("gateway timeout must be positive")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// splitAndTrim splits a comma-separated list, dropping empty items
func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
