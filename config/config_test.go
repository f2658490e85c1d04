package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnvOverride(t *testing.T) {
	t.Setenv("MICROBLOG_DATABASE_DSN", "file:test.db")
	t.Setenv("MICROBLOG_FEED_PAGE_SIZE", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:test.db", cfg.Database.DSN)
	assert.Equal(t, 25, cfg.Feed.PageSize)
	assert.Equal(t, 20*time.Second, cfg.Cache.PageTTL)
}

func TestValidate(t *testing.T) {
	base := Config{
		Server:   ServerConfig{Mode: "test"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: ":memory:"},
		JWT:      JWTConfig{Secret: "s"},
		Feed:     FeedConfig{PageSize: 10},
	}
	require.NoError(t, base.Validate())

	bad := base
	bad.Database.Driver = "mysql"
	assert.Error(t, bad.Validate())

	bad = base
	bad.Feed.PageSize = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.Tracing.Enabled = true
	assert.Error(t, bad.Validate())

	bad = base
	bad.Server.Mode = "prod"
	assert.Error(t, bad.Validate())
}
