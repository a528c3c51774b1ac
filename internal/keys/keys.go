// Package keys handles Nostr key material: generating keypairs, deriving the
// public identifier from a secret, and converting between the raw hex form
// and the human-copyable bech32 forms (nsec/npub).
package keys

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"

	"github.com/mmilam360/nostr-journal/internal/common"
)

// Identity is a Nostr identity for one session. Secret is empty when the
// private key lives in a remote signer.
type Identity struct {
	PublicKey string
	Secret    string
}

// HasSecret reports whether the private key is held locally.
func (i Identity) HasSecret() bool { return i.Secret != "" }

// Generate produces a fresh secp256k1 keypair.
func Generate() (Identity, error) {
	sk := nostr.GeneratePrivateKey()
	pk, err := nostr.GetPublicKey(sk)
	if err != nil {
		return Identity{}, fmt.Errorf("deriving public key: %w", err)
	}
	return Identity{PublicKey: pk, Secret: sk}, nil
}

// DerivePublicKey returns the public identifier for a hex-encoded secret.
// Returns common.ErrInvalidSecret if the secret is not 32 lowercase hex bytes.
func DerivePublicKey(secret string) (string, error) {
	if !isHexKey(secret) {
		return "", common.ErrInvalidSecret
	}
	pk, err := nostr.GetPublicKey(secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidSecret, err)
	}
	return pk, nil
}

// EncodeSecret renders a hex secret in its copyable nsec form.
func EncodeSecret(secret string) (string, error) {
	if !isHexKey(secret) {
		return "", common.ErrInvalidSecret
	}
	s, err := nip19.EncodePrivateKey(secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidSecret, err)
	}
	return s, nil
}

// DecodeSecret parses user-supplied secret text. Both the nsec form and raw
// 64-character hex are accepted. Returns common.ErrInvalidFormat on anything
// else.
func DecodeSecret(text string) (string, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "nsec1") {
		prefix, value, err := nip19.Decode(text)
		if err != nil || prefix != "nsec" {
			return "", common.ErrInvalidFormat
		}
		return value.(string), nil
	}
	lower := strings.ToLower(text)
	if !isHexKey(lower) {
		return "", common.ErrInvalidFormat
	}
	return lower, nil
}

// EncodePublicKey renders a hex public key in its npub form.
func EncodePublicKey(pk string) (string, error) {
	if !isHexKey(pk) {
		return "", common.ErrInvalidFormat
	}
	s, err := nip19.EncodePublicKey(pk)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidFormat, err)
	}
	return s, nil
}

// DecodePublicKey parses an npub or raw hex public key.
func DecodePublicKey(text string) (string, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "npub1") {
		prefix, value, err := nip19.Decode(text)
		if err != nil || prefix != "npub" {
			return "", common.ErrInvalidFormat
		}
		return value.(string), nil
	}
	lower := strings.ToLower(text)
	if !isHexKey(lower) {
		return "", common.ErrInvalidFormat
	}
	return lower, nil
}

// isHexKey reports whether s is exactly 32 bytes of lowercase hex.
func isHexKey(s string) bool {
	if len(s) != 64 || s != strings.ToLower(s) {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
