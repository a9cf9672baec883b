package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptverse/promptfeed/src/data"
	"github.com/promptverse/promptfeed/src/data/datatest"
)

func TestLoadBootstrapRequiresDSN(t *testing.T) {
	t.Setenv("PROMPTFEED_CONFIG", "")
	t.Setenv("MYSQL_DSN", "")
	_, err := LoadBootstrap()
	assert.Error(t, err)
}

func TestLoadBootstrapFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promptfeed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mysql_dsn: "file:dsn"
redis_url: "redis://file:6379/0"
port: "9000"
log_level: debug
`), 0o600))

	t.Setenv("PROMPTFEED_CONFIG", path)
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("PORT", "9100")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")

	b, err := LoadBootstrap()
	require.NoError(t, err)
	assert.Equal(t, "file:dsn", b.MySQLDSN)
	assert.Equal(t, "redis://file:6379/0", b.RedisURL)
	assert.Equal(t, "9100", b.Port)
	assert.Equal(t, "debug", b.LogLevel)
	assert.Equal(t, "json", b.LogFormat)
}

func TestLoadPrecedence(t *testing.T) {
	db := datatest.NewDB(t)
	require.NoError(t, data.PutSetting(db, "rate_limit", "5"))
	require.NoError(t, data.PutSetting(db, "allowed_origins", ""))
	require.NoError(t, data.LoadSettings(db))

	t.Setenv("RATE_LIMIT", "50")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RATE_WINDOW_SECONDS", "not-a-number")
	t.Setenv("MAX_PAGE_SIZE", "")
	t.Setenv("DEFAULT_PAGE_SIZE", "500")
	t.Setenv("EVENTS_STREAM", "")

	cfg := Load(Bootstrap{Port: "8000"})
	assert.Equal(t, 5, cfg.RateLimit, "settings table wins over env")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 60*time.Second, cfg.RateWindow)
	assert.Equal(t, 100, cfg.MaxPageSize)
	assert.Equal(t, 10, cfg.DefaultPageSize, "out of range default falls back")
	assert.Equal(t, "promptfeed.activity", cfg.EventsStream)
	assert.Equal(t, "8000", cfg.Port)
}
