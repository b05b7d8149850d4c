package cfg

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"STORE_BACKEND", "DATABASE_URL", "DOCUMENT_STORE_PATH",
	"TELEGRAM_MODE", "TELEGRAM_CHANNEL", "TELEGRAM_BOT_TOKEN", "TELEGRAM_API_ENDPOINT",
	"TELEGRAM_APP_ID", "TELEGRAM_APP_HASH", "TELEGRAM_SESSION_FILE", "TELEGRAM_FEED_URL",
	"OMDB_API_KEY", "OMDB_BASE_URL", "METADATA_TIMEOUT",
	"PORT", "BASE_URL", "FETCH_LIMIT", "WORKER_COUNT", "SCHEDULER_INTERVAL",
	"USER_AGENT", "TZ", "DEBUG", "LOG_FILE", "LOG_FORMAT",
}

// clearEnv unsets every configuration variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range configEnvKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestGetVersion(t *testing.T) {
	assert.NotEmpty(t, GetVersion())

	old := Version
	defer func() { Version = old }()

	Version = ""
	assert.Equal(t, "unknown", GetVersion())
}

func TestLoadArgs_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_CHANNEL", "@iboxtv")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:token")
	t.Setenv("OMDB_API_KEY", "secret")

	cfg, err := LoadArgs(nil)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "sql", cfg.StoreBackend)
	assert.Equal(t, "sqlite://iboxtv.db", cfg.DatabaseURL)
	assert.Equal(t, "bot", cfg.TelegramMode)
	assert.Equal(t, "@iboxtv", cfg.TelegramChannel)
	assert.Equal(t, "https://www.omdbapi.com/", cfg.OMDbBaseURL)
	assert.Equal(t, 10, cfg.MetadataTimeout)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.BaseUrl)
	assert.Equal(t, 10, cfg.FetchLimit)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, 0, cfg.SchedulerInterval)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.Debug)
	assert.Equal(t, GetVersion(), cfg.Version)
}

func TestLoadArgs_EnvironmentAndFlags(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_MODE", "user")
	t.Setenv("TELEGRAM_CHANNEL", "iboxtv")
	t.Setenv("TELEGRAM_APP_ID", "12345")
	t.Setenv("TELEGRAM_APP_HASH", "hash")
	t.Setenv("OMDB_API_KEY", "secret")
	t.Setenv("STORE_BACKEND", "document")
	t.Setenv("SCHEDULER_INTERVAL", "600")
	t.Setenv("DEBUG", "true")

	cfg, err := LoadArgs([]string{"--port", "9090", "--fetch-limit", "25", "--base-url", "https://tv.example.com/"})
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "user", cfg.TelegramMode)
	assert.Equal(t, 12345, cfg.TelegramAppID)
	assert.Equal(t, "./data/session.json", cfg.TelegramSessionFile)
	assert.Equal(t, "document", cfg.StoreBackend)
	assert.Equal(t, 600, cfg.SchedulerInterval)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 25, cfg.FetchLimit)
	assert.Equal(t, "https://tv.example.com", cfg.BaseUrl)
}

func TestLoadArgs_MissingRequired(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:token")

	cfg, err := LoadArgs(nil)
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "TELEGRAM_CHANNEL is required")
	assert.Contains(t, err.Error(), "OMDB_API_KEY is required")
}

func TestLoadArgs_InvalidChoice(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_CHANNEL", "iboxtv")
	t.Setenv("OMDB_API_KEY", "secret")
	t.Setenv("STORE_BACKEND", "firestore")

	_, err := LoadArgs(nil)
	assert.Error(t, err)
}

func TestLoadArgs_InvalidTimezone(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_CHANNEL", "iboxtv")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:token")
	t.Setenv("OMDB_API_KEY", "secret")
	t.Setenv("TZ", "Mars/Olympus_Mons")

	_, err := LoadArgs(nil)
	assert.ErrorContains(t, err, "invalid timezone")
}

func TestLoadArgs_Help(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadArgs([]string{"--help"})
	assert.NoError(t, err)
	assert.Nil(t, cfg)
}

func validCfg() *Cfg {
	return &Cfg{
		StoreBackend:      "sql",
		DatabaseURL:       "sqlite://iboxtv.db",
		TelegramMode:      "bot",
		TelegramChannel:   "iboxtv",
		TelegramBotToken:  "123:token",
		OMDbAPIKey:        "secret",
		MetadataTimeout:   10,
		FetchLimit:        10,
		WorkerCount:       2,
		SchedulerInterval: 0,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Cfg)
		wantErr string
	}{
		{"valid", func(c *Cfg) {}, ""},
		{"bot without token", func(c *Cfg) { c.TelegramBotToken = "" }, "TELEGRAM_BOT_TOKEN"},
		{"user without app", func(c *Cfg) { c.TelegramMode = "user"; c.TelegramSessionFile = "s.json" }, "TELEGRAM_APP_ID"},
		{"user without session", func(c *Cfg) {
			c.TelegramMode = "user"
			c.TelegramAppID = 1
			c.TelegramAppHash = "h"
		}, "TELEGRAM_SESSION_FILE"},
		{"feed without url", func(c *Cfg) { c.TelegramMode = "feed" }, "TELEGRAM_FEED_URL"},
		{"feed", func(c *Cfg) { c.TelegramMode = "feed"; c.TelegramFeedURL = "https://example.com/rss" }, ""},
		{"unknown mode", func(c *Cfg) { c.TelegramMode = "fax" }, "TELEGRAM_MODE"},
		{"unknown backend", func(c *Cfg) { c.StoreBackend = "firestore" }, "STORE_BACKEND"},
		{"document without path", func(c *Cfg) { c.StoreBackend = "document" }, "DOCUMENT_STORE_PATH"},
		{"sql without url", func(c *Cfg) { c.DatabaseURL = "" }, "DATABASE_URL"},
		{"fetch limit too small", func(c *Cfg) { c.FetchLimit = 0 }, "FETCH_LIMIT"},
		{"fetch limit too large", func(c *Cfg) { c.FetchLimit = 101 }, "FETCH_LIMIT"},
		{"no workers", func(c *Cfg) { c.WorkerCount = 0 }, "WORKER_COUNT"},
		{"negative interval", func(c *Cfg) { c.SchedulerInterval = -1 }, "SCHEDULER_INTERVAL"},
		{"zero metadata timeout", func(c *Cfg) { c.MetadataTimeout = 0 }, "METADATA_TIMEOUT"},
		{"bare at sign channel", func(c *Cfg) { c.TelegramChannel = "@" }, "TELEGRAM_CHANNEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCfg()
			tt.mutate(c)

			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
