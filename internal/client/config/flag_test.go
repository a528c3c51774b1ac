package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("overrides from flags", func(t *testing.T) {
		os.Args = []string{"journal", "-d", "/tmp/j.db", "-r", "wss://a.test, wss://b.test", "-k", "secret"}

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NotPanics(t, func() { parseFlags(cfg) })

		assert.Equal(t, "/tmp/j.db", cfg.DatabasePath)
		assert.Equal(t, []string{"wss://a.test", "wss://b.test"}, cfg.Relays)
		assert.Equal(t, "secret", cfg.PaymentAPIKey)
	})

	t.Run("no flags keeps defaults", func(t *testing.T) {
		os.Args = []string{"journal"}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFlags(cfg)

		assert.Equal(t, "journal.db", cfg.DatabasePath)
		assert.NotEmpty(t, cfg.Relays)
	})
}
