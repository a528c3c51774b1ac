// Package config loads runtime configuration for the journal CLI.
//
// Precedence: built-in defaults, then an optional JSON file selected with
// -c/-config, then command-line flags.
package config

import (
	"time"

	"github.com/mmilam360/nostr-journal/internal/relay"
)

// Config holds the runtime settings of the journal client.
type Config struct {
	// Relays are the websocket endpoints used for publishing and for the
	// remote-signer handshake.
	Relays []string
	// DatabasePath is the sqlite file holding the encrypted note store.
	DatabasePath string
	// PaymentAPIAddr is the base URL of the Lightning payment API.
	PaymentAPIAddr string
	// PaymentAPIKey authenticates against the payment API.
	PaymentAPIKey string
	// HandshakeTimeout bounds one remote-signer connection attempt.
	HandshakeTimeout time.Duration
	// PaymentPollWindow bounds the interactive wait for a stake deposit.
	PaymentPollWindow time.Duration
	// SyncDebounce is the quiet period after an edit before the background
	// sync pass publishes pending notes.
	SyncDebounce time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Relays = append([]string(nil), relay.DefaultRelays...)
	c.DatabasePath = "journal.db"
	c.PaymentAPIAddr = "http://127.0.0.1:5000"
	c.PaymentAPIKey = ""
	c.HandshakeTimeout = 2 * time.Minute
	c.PaymentPollWindow = 3 * time.Minute
	c.SyncDebounce = 3 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
