package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/campus-shuttle/service-shuttle/internal/domain/discovery"
	"github.com/campus-shuttle/service-shuttle/internal/geo"
	"github.com/campus-shuttle/service-shuttle/internal/platform/config"
)

// ServiceConfig holds all configuration for the shuttle service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	DBConfig    config.DatabaseConfig
	JWTConfig   config.JWTConfig
	KafkaConfig config.KafkaConfig

	// Campus is the reference point for stop distances; nil disables them.
	Campus          *geo.Coordinate
	CatalogCacheTTL time.Duration
	RateLimit       int
	AdminSignupCode string
	CORSOrigins     []string
	MigrationsDir   string
	Discovery       discovery.Options
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("SHUTTLE")
	if err != nil {
		return nil, err
	}

	v.SetDefault("campus.enabled", true)
	v.SetDefault("campus.lat", 28.4506)
	v.SetDefault("campus.lon", 77.5842)
	v.SetDefault("catalog.cache_ttl", "30s")
	v.SetDefault("rate_limit.per_minute", 60)
	v.SetDefault("cors.origins", "*")
	v.SetDefault("migrations.dir", "migrations")
	v.SetDefault("discovery.direction", "allow_reverse")
	v.SetDefault("discovery.duration", "full_route")

	direction, err := discovery.ParseDirection(v.GetString("discovery.direction"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTTLE_DISCOVERY_DIRECTION: %w", err)
	}
	duration, err := discovery.ParseDurationPolicy(v.GetString("discovery.duration"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTTLE_DISCOVERY_DURATION: %w", err)
	}

	var campus *geo.Coordinate
	if v.GetBool("campus.enabled") {
		campus = &geo.Coordinate{Lat: v.GetFloat64("campus.lat"), Lon: v.GetFloat64("campus.lon")}
	}

	var origins []string
	for _, o := range strings.Split(v.GetString("cors.origins"), ",") {
		if o = strings.TrimSpace(o); o != "" && o != "*" {
			origins = append(origins, o)
		}
	}

	return &ServiceConfig{
		Port:            config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:          config.GetAppEnv(v),
		DBConfig:        config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:       config.LoadJWTConfig(v),
		KafkaConfig:     config.LoadKafkaConfig(v),
		Campus:          campus,
		CatalogCacheTTL: v.GetDuration("catalog.cache_ttl"),
		RateLimit:       v.GetInt("rate_limit.per_minute"),
		AdminSignupCode: v.GetString("admin.signup_code"),
		CORSOrigins:     origins,
		MigrationsDir:   v.GetString("migrations.dir"),
		Discovery:       discovery.Options{Direction: direction, Duration: duration},
	}, nil
}
