// Package config provides application configuration management from an optional
// YAML file and environment variables.
//
// # Overview
//
// LoadConfig reads GATEHOUSE_CONFIG_FILE (if set) first, then overlays
// environment variables, then validates. Every setting has a default, so a
// bare environment boots a development instance.
//
// # Configuration Structure
//
// Server settings:
//
//	GATEHOUSE_HOST="0.0.0.0"
//	GATEHOUSE_PORT="8080"
//	GATEHOUSE_HEALTH_PORT="9090"
//	GATEHOUSE_READ_TIMEOUT="15s"
//	GATEHOUSE_WRITE_TIMEOUT="15s"
//	GATEHOUSE_DASHBOARD_UPSTREAM="http://dashboard:3000"
//	GATEHOUSE_ALLOWED_ORIGINS="https://dashboard.example.com"  # empty disables CORS
//
// Access policy settings:
//
//	GATEHOUSE_GUILD_ID="734595073920204940"
//	GATEHOUSE_REQUIRED_ROLE_IDS="1114379479381442650,1114379479381442651"
//	GATEHOUSE_ACCESS_CACHE_TTL="5m"
//	GATEHOUSE_ACCESS_CACHE_BACKEND="memory"  # memory, redis
//	GATEHOUSE_SKIP_ACCESS_CHECKS="false"     # development bypass, never in prod
//	GATEHOUSE_DEBUG_DENIALS="false"
//
// Gateway settings:
//
//	GATEHOUSE_DISCORD_API_BASE="https://discord.com/api/v10"
//	GATEHOUSE_GATEWAY_TIMEOUT="10s"
//
// Storage settings:
//
//	GATEHOUSE_POSTGRES_URL="postgres://localhost/gatehouse"
//	GATEHOUSE_REDIS_URL="redis://localhost:6379"
//
// Observability settings:
//
//	GATEHOUSE_LOG_LEVEL="info"  # debug, info, warn, error
//	GATEHOUSE_METRICS_ENABLED="true"
//	GATEHOUSE_OTEL_ENABLED="false"
//	GATEHOUSE_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatalf("config: %v", err)
//	}
package config
