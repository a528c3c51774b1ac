// Package handshake implements the remote-signer connection state machine:
// one login/connect attempt from initiation through approval, rejection,
// timeout, or cancellation.
//
// A Machine owns a single relay subscription per attempt and processes
// inbound events one at a time, in delivery order. Messages that fail the
// signature check, do not decrypt, or do not parse are discarded silently;
// on a shared relay that is ordinary traffic from unrelated sessions, not an
// error.
package handshake

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nbd-wtf/go-nostr"

	"github.com/mmilam360/nostr-journal/internal/common"
	"github.com/mmilam360/nostr-journal/internal/keys"
	"github.com/mmilam360/nostr-journal/internal/logging"
	"github.com/mmilam360/nostr-journal/internal/nostrcrypt"
	"github.com/mmilam360/nostr-journal/internal/relay"
)

// DefaultTimeout bounds one connection attempt.
const DefaultTimeout = 2 * time.Minute

// Metadata describes the application to the remote signer.
type Metadata struct {
	Name string
	URL  string
}

// ConnectionRequest is the descriptor of one connection attempt. URI is the
// nostrconnect:// form rendered for the initiator flow; it is empty for the
// pasted-bunker flow.
type ConnectionRequest struct {
	EphemeralPub string
	Relays       []string
	Secret       string
	Metadata     Metadata
	URI          string
}

// Result is the single terminal outcome of an attempt. On success Identity
// is the approving sender's public key and the ephemeral keypair doubles as
// the session credential for follow-up signer requests.
type Result struct {
	Identity        string
	RemoteSignerPub string
	EphemeralPub    string
	EphemeralSecret string
	Err             error
}

// Machine drives one connection attempt at a time. Start/StartWithBunker
// implicitly cancel any prior attempt, so at most one subscription is live.
type Machine struct {
	transport relay.Transport
	cipher    nostrcrypt.Cipher
	log       logging.Logger
	timeout   time.Duration
	isAck     AckPredicate

	mu        sync.Mutex
	state     State
	req       *ConnectionRequest
	ephSecret string
	sub       relay.Subscription
	stop      chan struct{}
	done      chan Result
}

// Option configures a Machine.
type Option func(*Machine)

// WithTimeout overrides the attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Machine) { m.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(m *Machine) { m.log = l }
}

// WithAckPredicate overrides how responses are classified as approvals.
func WithAckPredicate(p AckPredicate) Option {
	return func(m *Machine) { m.isAck = p }
}

func NewMachine(t relay.Transport, c nostrcrypt.Cipher, opts ...Option) *Machine {
	m := &Machine{
		transport: t,
		cipher:    c,
		log:       logging.Nop{},
		timeout:   DefaultTimeout,
		isAck:     DefaultAckPredicate,
		state:     StateIdle,
		done:      make(chan Result, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Done delivers the terminal result of the current attempt, exactly once.
func (m *Machine) Done() <-chan Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Start begins the initiator flow: generate an ephemeral keypair and a
// correlation secret, open the filtered subscription, and wait for the
// remote signer to approve. The returned request carries the
// nostrconnect:// URI to show to the user.
func (m *Machine) Start(ctx context.Context, meta Metadata, relays []string) (*ConnectionRequest, error) {
	m.Cancel()
	m.begin()

	if len(relays) == 0 {
		relays = append([]string(nil), relay.DefaultRelays...)
	}

	eph, err := keys.Generate()
	if err != nil {
		return nil, m.failEarly(fmt.Errorf("generating ephemeral keypair: %w", err))
	}
	secret, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, m.failEarly(fmt.Errorf("generating correlation secret: %w", err))
	}

	req := &ConnectionRequest{
		EphemeralPub: eph.PublicKey,
		Relays:       relays,
		Secret:       secret,
		Metadata:     meta,
	}
	req.URI = BuildConnectURI(eph.PublicKey, relays, secret, meta)

	if err := m.open(ctx, req, eph.Secret); err != nil {
		return nil, err
	}
	return req, nil
}

// StartWithBunker begins the pasted-bunker flow: parse the connection
// string, open the subscription, then send an encrypted connect request to
// the remote signer. Parsing happens before any network action, so a
// malformed string never opens a subscription.
func (m *Machine) StartWithBunker(ctx context.Context, raw string) (*ConnectionRequest, error) {
	bp, err := ParseBunkerURI(raw)
	if err != nil {
		return nil, err
	}

	m.Cancel()
	m.begin()

	eph, err := keys.Generate()
	if err != nil {
		return nil, m.failEarly(fmt.Errorf("generating ephemeral keypair: %w", err))
	}

	req := &ConnectionRequest{
		EphemeralPub: eph.PublicKey,
		Relays:       bp.Relays,
		Secret:       bp.Secret,
	}

	if err := m.open(ctx, req, eph.Secret); err != nil {
		return nil, err
	}

	if err := m.sendConnect(ctx, bp, eph); err != nil {
		m.finish(Result{Err: err})
		return nil, err
	}
	return req, nil
}

// Cancel releases the subscription and the timeout of the current attempt
// and returns the machine to Idle. Safe to call from any state, any number
// of times.
func (m *Machine) Cancel() {
	m.mu.Lock()
	sub := m.sub
	stop := m.stop
	m.sub = nil
	m.stop = nil
	m.req = nil
	m.ephSecret = ""
	m.state = StateIdle
	m.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if sub != nil {
		sub.Close()
	}
}

// begin resets the per-attempt result channel and enters Generating.
func (m *Machine) begin() {
	m.mu.Lock()
	m.done = make(chan Result, 1)
	m.state = StateGenerating
	m.mu.Unlock()
}

func (m *Machine) failEarly(err error) error {
	m.finish(Result{Err: err})
	return err
}

// open subscribes to approval messages addressed to the ephemeral key and
// starts the event loop. The since bound keeps stale messages from previous
// sessions out of the stream.
func (m *Machine) open(ctx context.Context, req *ConnectionRequest, ephSecret string) error {
	since := nostr.Now()
	filter := nostr.Filter{
		Kinds: []int{nostr.KindNostrConnect},
		Tags:  nostr.TagMap{"p": []string{req.EphemeralPub}},
		Since: &since,
	}

	sub, err := m.transport.Subscribe(ctx, req.Relays, filter)
	if err != nil {
		return m.failEarly(err)
	}

	stop := make(chan struct{})
	m.mu.Lock()
	m.req = req
	m.ephSecret = ephSecret
	m.sub = sub
	m.stop = stop
	m.state = StateWaiting
	m.mu.Unlock()

	go m.loop(ctx, sub, stop)
	return nil
}

// sendConnect publishes the encrypted connect request of the bunker flow.
func (m *Machine) sendConnect(ctx context.Context, bp BunkerPointer, eph keys.Identity) error {
	payload, err := json.Marshal(struct {
		ID     string   `json:"id"`
		Method string   `json:"method"`
		Params []string `json:"params"`
	}{uuid.NewString(), "connect", []string{bp.RemotePubKey, bp.Secret}})
	if err != nil {
		return err
	}

	content, err := m.cipher.Encrypt(string(payload), bp.RemotePubKey, eph.Secret)
	if err != nil {
		return fmt.Errorf("encrypting connect request: %w", err)
	}

	ev := nostr.Event{
		PubKey:    eph.PublicKey,
		CreatedAt: nostr.Now(),
		Kind:      nostr.KindNostrConnect,
		Tags:      nostr.Tags{{"p", bp.RemotePubKey}},
		Content:   content,
	}
	if err := ev.Sign(eph.Secret); err != nil {
		return fmt.Errorf("signing connect request: %w", err)
	}
	return m.transport.Publish(ctx, bp.Relays, ev)
}

func (m *Machine) loop(ctx context.Context, sub relay.Subscription, stop chan struct{}) {
	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				// Closed by Cancel, or the relay dropped us.
				select {
				case <-stop:
					return
				default:
				}
				m.finish(Result{Err: fmt.Errorf("%w: subscription closed", common.ErrTransport)})
				return
			}
			if m.handle(ev) {
				return
			}
		case <-timer.C:
			m.finish(Result{Err: common.ErrTimeout})
			return
		case <-ctx.Done():
			m.finish(Result{Err: ctx.Err()})
			return
		case <-stop:
			return
		}
	}
}

// handle runs one inbound event through the verification pipeline. It
// returns true when the attempt reached a terminal state.
func (m *Machine) handle(ev *nostr.Event) bool {
	m.mu.Lock()
	if m.state != StateWaiting {
		m.mu.Unlock()
		return m.State().Terminal()
	}
	m.state = StateVerifying
	req := m.req
	ephSecret := m.ephSecret
	m.mu.Unlock()

	resp, ok := m.verify(ev, req, ephSecret)
	if !ok {
		m.keepWaiting()
		return false
	}

	if resp.Error != "" {
		m.finish(Result{Err: fmt.Errorf("%w: %s", common.ErrRemoteRejection, resp.Error)})
		return true
	}
	if m.isAck(resp, req.Secret) {
		m.finish(Result{
			Identity:        ev.PubKey,
			RemoteSignerPub: ev.PubKey,
			EphemeralPub:    req.EphemeralPub,
			EphemeralSecret: ephSecret,
		})
		return true
	}

	// Parseable but neither approval nor error: keep waiting.
	m.keepWaiting()
	return false
}

// verify applies the discard pipeline: recipient tag, signature, decryption,
// parse. Any failure is silent; the message simply was not for us.
func (m *Machine) verify(ev *nostr.Event, req *ConnectionRequest, ephSecret string) (Response, bool) {
	ctx := context.Background()

	if !taggedFor(ev, req.EphemeralPub) {
		return Response{}, false
	}
	if ok, err := ev.CheckSignature(); err != nil || !ok {
		m.log.Debug(ctx, "discarding event with bad signature", "event", ev.ID)
		return Response{}, false
	}
	plain, err := m.cipher.Decrypt(ev.Content, ev.PubKey, ephSecret)
	if err != nil {
		m.log.Debug(ctx, "discarding undecryptable event", "event", ev.ID)
		return Response{}, false
	}
	resp, err := parseResponse(plain)
	if err != nil {
		m.log.Debug(ctx, "discarding unparseable payload", "event", ev.ID)
		return Response{}, false
	}
	return resp, true
}

func (m *Machine) keepWaiting() {
	m.mu.Lock()
	if m.state == StateVerifying {
		m.state = StateWaiting
	}
	m.mu.Unlock()
}

// finish performs the single terminal transition for the attempt. Late calls
// after cancellation or a previous terminal state are no-ops.
func (m *Machine) finish(res Result) {
	m.mu.Lock()
	if m.state == StateIdle || m.state.Terminal() {
		m.mu.Unlock()
		return
	}
	if res.Err != nil {
		m.state = StateFailed
	} else {
		m.state = StateConnected
	}
	sub := m.sub
	m.sub = nil
	done := m.done
	m.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
	select {
	case done <- res:
	default:
	}
}

func taggedFor(ev *nostr.Event, pubkey string) bool {
	for _, tag := range ev.Tags {
		if len(tag) >= 2 && tag[0] == "p" && tag[1] == pubkey {
			return true
		}
	}
	return false
}
