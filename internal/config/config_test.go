package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_ACCESS_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := New()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.AuthCfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.AuthCfg.RefreshTTL)
	assert.True(t, cfg.RedisCfg.Enabled)
	assert.False(t, cfg.CookieCfg.Secure)
	assert.Equal(t, 0, cfg.RedisCfg.DB)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() *AuthServiceConfig {
		return &AuthServiceConfig{
			StorageDriver: StorageDriverMemory,
			AuthCfg: AuthConfig{
				AccessSecret:  "a",
				RefreshSecret: "b",
				AccessTTL:     time.Minute,
				RefreshTTL:    time.Hour,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *AuthServiceConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *AuthServiceConfig) {}},
		{name: "missing access secret", mutate: func(c *AuthServiceConfig) { c.AuthCfg.AccessSecret = " " }, wantErr: true},
		{name: "missing refresh secret", mutate: func(c *AuthServiceConfig) { c.AuthCfg.RefreshSecret = "" }, wantErr: true},
		{name: "shared secret", mutate: func(c *AuthServiceConfig) { c.AuthCfg.RefreshSecret = "a" }, wantErr: true},
		{name: "access outlives refresh", mutate: func(c *AuthServiceConfig) { c.AuthCfg.AccessTTL = 2 * time.Hour }, wantErr: true},
		{name: "unknown driver", mutate: func(c *AuthServiceConfig) { c.StorageDriver = "mongo" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
