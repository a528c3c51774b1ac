package config

import (
	"flag"
	"os"
	"strings"

	"github.com/mmilam360/nostr-journal/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags. The
// argument list is filtered with flagx.FilterArgs so flags owned by other
// components pass through untouched.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-r", "-d", "-p", "-k"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	relays := fs.String("r", strings.Join(cfg.Relays, ","), "comma-separated relay URLs")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the sqlite database file")
	fs.StringVar(&cfg.PaymentAPIAddr, "p", cfg.PaymentAPIAddr, "base URL of the Lightning payment API")
	fs.StringVar(&cfg.PaymentAPIKey, "k", cfg.PaymentAPIKey, "payment API key")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.Relays = splitRelays(*relays)
}

func splitRelays(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
