package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-shuttle/service-shuttle/internal/domain/discovery"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "shuttle", cfg.DBConfig.DBName)
	assert.Equal(t, 15*time.Minute, cfg.JWTConfig.AccessTokenTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaConfig.Brokers)
	require.NotNil(t, cfg.Campus)
	assert.InDelta(t, 28.4506, cfg.Campus.Lat, 1e-9)
	assert.InDelta(t, 77.5842, cfg.Campus.Lon, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.CatalogCacheTTL)
	assert.Equal(t, 60, cfg.RateLimit)
	assert.Empty(t, cfg.AdminSignupCode)
	assert.Empty(t, cfg.CORSOrigins)
	assert.Equal(t, "migrations", cfg.MigrationsDir)
	assert.Equal(t, discovery.Options{Direction: discovery.AllowReverse, Duration: discovery.FullRoute}, cfg.Discovery)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SHUTTLE_SERVICE_PORT", "9000")
	t.Setenv("SHUTTLE_KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("SHUTTLE_CAMPUS_ENABLED", "false")
	t.Setenv("SHUTTLE_CATALOG_CACHE_TTL", "0s")
	t.Setenv("SHUTTLE_ADMIN_SIGNUP_CODE", "let-me-in")
	t.Setenv("SHUTTLE_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SHUTTLE_DISCOVERY_DIRECTION", "forward_only")
	t.Setenv("SHUTTLE_DISCOVERY_DURATION", "prorated")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaConfig.Brokers)
	assert.Nil(t, cfg.Campus)
	assert.Zero(t, cfg.CatalogCacheTTL)
	assert.Equal(t, "let-me-in", cfg.AdminSignupCode)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, discovery.ForwardOnly, cfg.Discovery.Direction)
	assert.Equal(t, discovery.Prorated, cfg.Discovery.Duration)
}

func TestLoad_RejectsUnknownPolicy(t *testing.T) {
	t.Setenv("SHUTTLE_DISCOVERY_DIRECTION", "sideways")

	_, err := Load()
	assert.Error(t, err)
}
