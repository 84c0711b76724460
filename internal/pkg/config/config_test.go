package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMongo, cfg.StorageDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "password123", cfg.DefaultCustomerPassword)
	assert.Equal(t, 5, cfg.Auth.MaxFailures)
	assert.Equal(t, 15*time.Minute, cfg.Auth.Lockout)
	assert.Empty(t, cfg.Redis.Addr)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":     "s3cret",
		"STORAGE_DRIVER": " Memory ",
		"TOKEN_TTL":      "1h",
		"ENV":            "production",
		"ADMIN_EMAIL":    "root@example.com",
	}))
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, "root@example.com", cfg.Admin.Email)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_Rejects(t *testing.T) {
	tests := map[string]map[string]string{
		"missing secret":                  {},
		"unknown driver":                  {"JWT_SECRET": "x", "STORAGE_DRIVER": "sqlite"},
		"zero ttl":                        {"JWT_SECRET": "x", "TOKEN_TTL": "0s"},
		"short default customer password": {"JWT_SECRET": "x", "DEFAULT_CUSTOMER_PASSWORD": "abc"},
		"short admin password":            {"JWT_SECRET": "x", "ADMIN_EMAIL": "root@example.com", "ADMIN_PASSWORD": "12345"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := load(context.Background(), envconfig.MapLookuper(env))
			assert.Error(t, err)
		})
	}
}
