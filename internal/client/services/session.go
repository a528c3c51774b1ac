package services

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"fmt"

	"github.com/mmilam360/nostr-journal/internal/client/repositories/metadata"
	"github.com/mmilam360/nostr-journal/internal/common"
	"github.com/mmilam360/nostr-journal/internal/cryptox"
	"github.com/mmilam360/nostr-journal/internal/handshake"
	"github.com/mmilam360/nostr-journal/internal/keys"
	"github.com/mmilam360/nostr-journal/internal/logging"
	"github.com/mmilam360/nostr-journal/internal/nostrcrypt"
	"github.com/mmilam360/nostr-journal/internal/relay"
)

// metadata keys used by session bootstrap
const (
	storageSaltKey     = "storage_salt"
	storageVerifierKey = "storage_verifier"

	// remote-signer sessions derive the storage key from a device secret
	// instead, under their own salt and verifier
	deviceSecretKey   = "device_secret"
	deviceSaltKey     = "device_storage_salt"
	deviceVerifierKey = "device_storage_verifier"
)

// Session is the outcome of a login. StorageKey unlocks the local note
// store for the profile. For remote-signer sessions Identity carries no
// secret and the ephemeral pair is the credential for signer requests.
type Session struct {
	Identity keys.Identity
	Remote   bool

	RemoteSignerPub string
	EphemeralPub    string
	EphemeralSecret string

	StorageKey []byte
}

// SessionService establishes sessions: direct nsec login, fresh account
// generation, and the remote-signer approval flow.
type SessionService struct {
	meta    metadata.Repository
	machine *handshake.Machine
	appName string
	relays  []string
	log     logging.Logger
}

func NewSessionService(meta metadata.Repository, transport relay.Transport, cipher nostrcrypt.Cipher, appName string, relays []string, log logging.Logger, opts ...handshake.Option) *SessionService {
	if log == nil {
		log = logging.Nop{}
	}
	opts = append([]handshake.Option{handshake.WithLogger(log)}, opts...)
	return &SessionService{
		meta:    meta,
		machine: handshake.NewMachine(transport, cipher, opts...),
		appName: appName,
		relays:  relays,
		log:     log,
	}
}

// LoginWithSecret accepts an nsec or raw hex secret, derives the identity,
// and unlocks (or initializes) the profile's storage key. A secret that does
// not match the stored verifier is rejected with common.ErrInvalidSecret.
func (s *SessionService) LoginWithSecret(ctx context.Context, text string) (*Session, error) {
	secret, err := keys.DecodeSecret(text)
	if err != nil {
		return nil, err
	}
	pub, err := keys.DerivePublicKey(secret)
	if err != nil {
		return nil, err
	}
	id := keys.Identity{PublicKey: pub, Secret: secret}

	storageKey, err := s.unlockStorage(ctx, pub, []byte(secret), storageSaltKey, storageVerifierKey)
	if err != nil {
		return nil, err
	}
	return &Session{Identity: id, StorageKey: storageKey}, nil
}

// GenerateAccount creates a fresh keypair and a ready-to-use session. The
// nsec-encoded secret is returned so the caller can show it once for backup.
func (s *SessionService) GenerateAccount(ctx context.Context) (*Session, string, error) {
	id, err := keys.Generate()
	if err != nil {
		return nil, "", err
	}
	nsec, err := keys.EncodeSecret(id.Secret)
	if err != nil {
		return nil, "", err
	}
	storageKey, err := s.unlockStorage(ctx, id.PublicKey, []byte(id.Secret), storageSaltKey, storageVerifierKey)
	if err != nil {
		return nil, "", err
	}
	return &Session{Identity: id, StorageKey: storageKey}, nsec, nil
}

// ConnectRemote starts the initiator flow against the remote signer. The
// returned request carries the nostrconnect:// URI to display. Completion
// is observed through AwaitApproval.
func (s *SessionService) ConnectRemote(ctx context.Context) (*handshake.ConnectionRequest, error) {
	return s.machine.Start(ctx, handshake.Metadata{Name: s.appName}, s.relays)
}

// ConnectBunker starts the pasted-bunker flow from a bunker:// string.
func (s *SessionService) ConnectBunker(ctx context.Context, raw string) (*handshake.ConnectionRequest, error) {
	return s.machine.StartWithBunker(ctx, raw)
}

// AwaitApproval blocks until the running handshake reaches a terminal state
// and turns a successful result into a remote session. Remote sessions hold
// no signing secret; the storage key comes from a per-profile device secret
// minted on first login.
func (s *SessionService) AwaitApproval(ctx context.Context) (*Session, error) {
	select {
	case <-ctx.Done():
		s.machine.Cancel()
		return nil, ctx.Err()
	case res := <-s.machine.Done():
		if res.Err != nil {
			return nil, res.Err
		}
		device, err := s.deviceSecret(ctx, res.Identity)
		if err != nil {
			return nil, err
		}
		storageKey, err := s.unlockStorage(ctx, res.Identity, device, deviceSaltKey, deviceVerifierKey)
		if err != nil {
			return nil, err
		}
		return &Session{
			Identity:        keys.Identity{PublicKey: res.Identity},
			Remote:          true,
			RemoteSignerPub: res.RemoteSignerPub,
			EphemeralPub:    res.EphemeralPub,
			EphemeralSecret: res.EphemeralSecret,
			StorageKey:      storageKey,
		}, nil
	}
}

// CancelConnect aborts an in-flight handshake. Safe to call at any time.
func (s *SessionService) CancelConnect() { s.machine.Cancel() }

// Logout wipes the session's key material in place.
func (s *SessionService) Logout(sess *Session) {
	if sess == nil {
		return
	}
	common.WipeByteArray(sess.StorageKey)
	sess.StorageKey = nil
	sess.Identity.Secret = ""
	sess.EphemeralSecret = ""
}

// unlockStorage derives the profile's storage key from the given credential
// and checks it against the stored verifier, creating salt and verifier on
// first login.
func (s *SessionService) unlockStorage(ctx context.Context, owner string, credential []byte, saltKey, verifierKey string) ([]byte, error) {
	salt, err := s.meta.Get(ctx, owner, saltKey)
	if err != nil {
		return nil, err
	}
	if salt == nil {
		salt = make([]byte, 16)
		if _, err := rand.Read(salt); err != nil {
			return nil, err
		}
		if err := s.meta.Set(ctx, owner, saltKey, salt); err != nil {
			return nil, err
		}
	}

	key := cryptox.DeriveStorageKey(credential, salt)
	verifier := cryptox.MakeVerifier(key)

	stored, err := s.meta.Get(ctx, owner, verifierKey)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		if err := s.meta.Set(ctx, owner, verifierKey, verifier); err != nil {
			return nil, err
		}
		return key, nil
	}
	if !hmac.Equal(stored, verifier) {
		common.WipeByteArray(key)
		return nil, fmt.Errorf("storage key mismatch: %w", common.ErrInvalidSecret)
	}
	return key, nil
}

// deviceSecret returns the profile's random device secret, minting one on
// first remote login. It stands in for the signing secret that remote
// sessions never see.
func (s *SessionService) deviceSecret(ctx context.Context, owner string) ([]byte, error) {
	existing, err := s.meta.Get(ctx, owner, deviceSecretKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	hexSecret, err := common.MakeRandHexString(64)
	if err != nil {
		return nil, err
	}
	secret := []byte(hexSecret)
	if err := s.meta.Set(ctx, owner, deviceSecretKey, secret); err != nil {
		return nil, err
	}
	return secret, nil
}
