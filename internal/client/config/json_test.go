package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	path := writeTempJSON(t, dir, "flag.json", map[string]any{
		"relays":              []string{"wss://json.test"},
		"database_path":       "/data/j.db",
		"handshake_timeout":   "90s",
		"payment_poll_window": "5m",
	})

	t.Run("loads from flags", func(t *testing.T) {
		os.Args = []string{"journal", "-config", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, []string{"wss://json.test"}, cfg.Relays)
		assert.Equal(t, "/data/j.db", cfg.DatabasePath)
		assert.Equal(t, 90*time.Second, cfg.HandshakeTimeout)
		assert.Equal(t, 5*time.Minute, cfg.PaymentPollWindow)
	})

	t.Run("absent fields keep defaults", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{
			"database_path": "/data/other.db",
		})
		os.Args = []string{"journal", "-config", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "/data/other.db", cfg.DatabasePath)
		assert.Equal(t, 2*time.Minute, cfg.HandshakeTimeout)
		assert.NotEmpty(t, cfg.Relays)
	})

	t.Run("no flags means no changes", func(t *testing.T) {
		os.Args = []string{"journal"}

		cfg := &Config{DatabasePath: "defaults.db", HandshakeTimeout: 42 * time.Second}
		parseJson(cfg)

		assert.Equal(t, "defaults.db", cfg.DatabasePath)
		assert.Equal(t, 42*time.Second, cfg.HandshakeTimeout)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"journal", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
