package handshake

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mmilam360/nostr-journal/internal/common"
	"github.com/mmilam360/nostr-journal/internal/keys"
)

const (
	connectScheme = "nostrconnect"
	bunkerScheme  = "bunker"
)

// BunkerPointer is the parsed form of a pasted bunker:// connection string:
// the remote signer's public key, the relay(s) it listens on, and an optional
// correlation secret to echo back in the connect request.
type BunkerPointer struct {
	RemotePubKey string
	Relays       []string
	Secret       string
}

// ParseBunkerURI parses a pasted bunker://<pubkey>?relay=...&secret=...
// string. It fails with common.ErrInvalidConnectionString before any network
// action when the remote identifier or the endpoint list is missing or
// malformed. The identifier may be raw hex or npub form.
func ParseBunkerURI(s string) (BunkerPointer, error) {
	s = strings.TrimSpace(s)
	u, err := url.Parse(s)
	if err != nil {
		return BunkerPointer{}, fmt.Errorf("%w: %v", common.ErrInvalidConnectionString, err)
	}
	if u.Scheme != bunkerScheme {
		return BunkerPointer{}, fmt.Errorf("%w: scheme %q", common.ErrInvalidConnectionString, u.Scheme)
	}

	host := u.Host
	if host == "" {
		host = u.Opaque
	}
	remote, err := keys.DecodePublicKey(host)
	if err != nil {
		return BunkerPointer{}, fmt.Errorf("%w: remote identifier", common.ErrInvalidConnectionString)
	}

	q := u.Query()
	relays := q["relay"]
	if len(relays) == 0 {
		return BunkerPointer{}, fmt.Errorf("%w: no relay endpoint", common.ErrInvalidConnectionString)
	}
	for _, r := range relays {
		if !strings.HasPrefix(r, "wss://") && !strings.HasPrefix(r, "ws://") {
			return BunkerPointer{}, fmt.Errorf("%w: relay %q", common.ErrInvalidConnectionString, r)
		}
	}

	return BunkerPointer{
		RemotePubKey: remote,
		Relays:       relays,
		Secret:       q.Get("secret"),
	}, nil
}

// BuildConnectURI renders the initiator-generated nostrconnect:// string for
// display as a QR code or copyable link.
func BuildConnectURI(ephemeralPub string, relays []string, secret string, meta Metadata) string {
	q := url.Values{}
	for _, r := range relays {
		q.Add("relay", r)
	}
	q.Set("secret", secret)
	if meta.Name != "" {
		q.Set("name", meta.Name)
	}
	if meta.URL != "" {
		q.Set("url", meta.URL)
	}
	return fmt.Sprintf("%s://%s?%s", connectScheme, ephemeralPub, q.Encode())
}
