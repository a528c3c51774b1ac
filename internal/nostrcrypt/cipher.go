// Package nostrcrypt adapts the NIP-04 encryption scheme behind a small
// interface so handshake and note-publishing code can be tested with fakes.
package nostrcrypt

import (
	"github.com/nbd-wtf/go-nostr/nip04"
)

// Cipher derives a shared secret from a local secret key and a remote public
// key and encrypts/decrypts short text payloads under it. Decrypt failure is
// an ordinary error: it is the expected outcome for traffic addressed to
// someone else.
type Cipher interface {
	Encrypt(plaintext, theirPublicKey, ourSecret string) (string, error)
	Decrypt(ciphertext, theirPublicKey, ourSecret string) (string, error)
}

// NIP04 implements Cipher using go-nostr's nip04 primitives.
type NIP04 struct{}

func (NIP04) Encrypt(plaintext, theirPublicKey, ourSecret string) (string, error) {
	key, err := nip04.ComputeSharedSecret(theirPublicKey, ourSecret)
	if err != nil {
		return "", err
	}
	return nip04.Encrypt(plaintext, key)
}

func (NIP04) Decrypt(ciphertext, theirPublicKey, ourSecret string) (string, error) {
	key, err := nip04.ComputeSharedSecret(theirPublicKey, ourSecret)
	if err != nil {
		return "", err
	}
	return nip04.Decrypt(ciphertext, key)
}
