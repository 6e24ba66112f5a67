package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_NAME", "biomed_test")
	t.Setenv("OAUTH_SCOPES", "openid,email")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8001", cfg.HTTPPort)
	assert.Equal(t, "https://accounts.google.com", cfg.OAuthIssuer)
	assert.Equal(t, []string{"openid", "email"}, cfg.OAuthScopes)
	assert.Equal(t, "http://localhost:8001/auth/callback", cfg.RedirectURL())
	assert.False(t, cfg.OAuthEnabled())
	assert.False(t, cfg.ExportEnabled())
	assert.Contains(t, cfg.DSN(), "dbname=biomed_test")
}

func TestDSNPrefersDatabaseURL(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://u:p@db:5432/x", DBHost: "ignored"}
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DSN())
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			DBName:         "biomed",
			BaseURL:        "http://localhost:8001",
			SessionTTL:     1,
			RateLimitRPS:   1,
			RateLimitBurst: 1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "no database", mutate: func(c *Config) { c.DBName = "" }, wantErr: true},
		{name: "database url only", mutate: func(c *Config) { c.DBName = ""; c.DatabaseURL = "postgres://x" }},
		{name: "bad base url", mutate: func(c *Config) { c.BaseURL = "localhost" }, wantErr: true},
		{name: "zero session ttl", mutate: func(c *Config) { c.SessionTTL = 0 }, wantErr: true},
		{name: "negative retention", mutate: func(c *Config) { c.HistoryRetentionDays = -1 }, wantErr: true},
		{name: "zero rate limit", mutate: func(c *Config) { c.RateLimitRPS = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
