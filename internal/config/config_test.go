package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow-api/internal/config"
)

var managedKeys = []string{
	"APP_ENV", "HTTP_PORT", "API_PREFIX", "DATABASE_URL", "MONGO_URL", "DATABASE_NAME",
	"JWT_SECRET_KEY", "JWT_ALGORITHM", "JWT_EXPIRATION_DELTA", "BCRYPT_COST",
	"GOOGLE_CLIENT_ID", "SERVICE_NAME", "RATE_LIMIT_RPM", "CORS_ALLOWED_ORIGINS",
	"CORS_ALLOW_CREDENTIALS", "SHUTDOWN_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range managedKeys {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGO_URL", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET_KEY", "secret")

	cfg, err := config.FromEnv()
	require.NoError(t, err)
	require.Equal(t, "8001", cfg.HTTPPort)
	require.Equal(t, "", cfg.APIPrefix)
	require.Equal(t, "mongodb://localhost:27017", cfg.DatabaseURL)
	require.Equal(t, config.DriverMongo, cfg.Driver)
	require.Equal(t, "leadflow_crm", cfg.DatabaseName)
	require.Equal(t, "HS256", cfg.JWTAlgorithm)
	require.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
	require.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	require.True(t, cfg.CORSAllowCredentials)
	require.Equal(t, 600, cfg.RateLimitRPM)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://leadflow@localhost/leadflow")
	t.Setenv("MONGO_URL", "mongodb://ignored")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("JWT_EXPIRATION_DELTA", "2")
	t.Setenv("API_PREFIX", "api/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.leadflow.io, http://localhost:3000")

	cfg, err := config.FromEnv()
	require.NoError(t, err)
	require.Equal(t, config.DriverPostgres, cfg.Driver)
	require.Equal(t, 2*time.Hour, cfg.AccessTokenTTL)
	require.Equal(t, "/api", cfg.APIPrefix)
	require.Equal(t, []string{"https://app.leadflow.io", "http://localhost:3000"}, cfg.CORSAllowedOrigins)
}

func TestFromEnvExpirationAsDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "memory://")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("JWT_EXPIRATION_DELTA", "90m")

	cfg, err := config.FromEnv()
	require.NoError(t, err)
	require.Equal(t, config.DriverMemory, cfg.Driver)
	require.Equal(t, 90*time.Minute, cfg.AccessTokenTTL)
}

func TestFromEnvValidation(t *testing.T) {
	cases := map[string]map[string]string{
		"missing database":   {"JWT_SECRET_KEY": "secret"},
		"missing secret":     {"DATABASE_URL": "memory://"},
		"unknown scheme":     {"DATABASE_URL": "mysql://localhost", "JWT_SECRET_KEY": "secret"},
		"no scheme":          {"DATABASE_URL": "localhost:27017", "JWT_SECRET_KEY": "secret"},
		"negative token ttl": {"DATABASE_URL": "memory://", "JWT_SECRET_KEY": "secret", "JWT_EXPIRATION_DELTA": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := config.FromEnv()
			require.Error(t, err)
		})
	}
}
