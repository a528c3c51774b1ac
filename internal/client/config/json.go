package config

import (
	"encoding/json"
	"os"

	"github.com/mmilam360/nostr-journal/internal/flagx"
	"github.com/mmilam360/nostr-journal/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so the timeout fields accept either strings like "2m" or
// integer nanoseconds.
type JsonConfig struct {
	Relays            []string        `json:"relays"`
	DatabasePath      string          `json:"database_path"`
	PaymentAPIAddr    string          `json:"payment_api_addr"`
	PaymentAPIKey     string          `json:"payment_api_key"`
	HandshakeTimeout  *timex.Duration `json:"handshake_timeout"`
	PaymentPollWindow *timex.Duration `json:"payment_poll_window"`
	SyncDebounce      *timex.Duration `json:"sync_debounce"`
}

// parseJson overlays cfg with values from the JSON file named by -c/-config.
// Absent file path means no JSON stage. Only fields present in the file
// override; panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if len(jc.Relays) > 0 {
		cfg.Relays = jc.Relays
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.PaymentAPIAddr != "" {
		cfg.PaymentAPIAddr = jc.PaymentAPIAddr
	}
	if jc.PaymentAPIKey != "" {
		cfg.PaymentAPIKey = jc.PaymentAPIKey
	}
	if jc.HandshakeTimeout != nil {
		cfg.HandshakeTimeout = jc.HandshakeTimeout.Duration
	}
	if jc.PaymentPollWindow != nil {
		cfg.PaymentPollWindow = jc.PaymentPollWindow.Duration
	}
	if jc.SyncDebounce != nil {
		cfg.SyncDebounce = jc.SyncDebounce.Duration
	}
}
