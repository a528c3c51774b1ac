package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.NotEmpty(t, c.Relays)
	assert.Equal(t, "journal.db", c.DatabasePath)
	assert.Equal(t, "http://127.0.0.1:5000", c.PaymentAPIAddr)
	assert.Equal(t, 2*time.Minute, c.HandshakeTimeout)
	assert.Equal(t, 3*time.Minute, c.PaymentPollWindow)
	assert.Equal(t, 3*time.Second, c.SyncDebounce)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"journal"}

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "journal.db", cfg.DatabasePath)
	assert.Equal(t, 2*time.Minute, cfg.HandshakeTimeout)
}
