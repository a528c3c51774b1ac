package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"

	"github.com/mmilam360/nostr-journal/internal/keys"
	"github.com/mmilam360/nostr-journal/internal/lightning"
	"github.com/mmilam360/nostr-journal/internal/relay"
)

func mustGenerateIdentity(t *testing.T) keys.Identity {
	t.Helper()
	id, err := keys.Generate()
	require.NoError(t, err)
	return id
}

// fakeTransport records published events and can be told to fail.
type fakeTransport struct {
	mu         sync.Mutex
	published  []nostr.Event
	publishErr error
}

func (f *fakeTransport) Publish(ctx context.Context, urls []string, ev nostr.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, ev)
	return nil
}

func (f *fakeTransport) Subscribe(ctx context.Context, urls []string, filter nostr.Filter) (relay.Subscription, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeTransport) events() []nostr.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]nostr.Event, len(f.published))
	copy(out, f.published)
	return out
}

// memMeta is an in-memory metadata.Repository.
type memMeta struct {
	mu   sync.Mutex
	data map[string]map[string][]byte
}

func newMemMeta() *memMeta {
	return &memMeta{data: make(map[string]map[string][]byte)}
}

func (m *memMeta) Get(ctx context.Context, owner, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[owner][key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *memMeta) Set(ctx context.Context, owner, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[owner] == nil {
		m.data[owner] = make(map[string][]byte)
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.data[owner][key] = v
	return nil
}

func (m *memMeta) Delete(ctx context.Context, owner, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[owner], key)
	return nil
}

func (m *memMeta) List(ctx context.Context, owner string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte, len(m.data[owner]))
	for k, v := range m.data[owner] {
		out[k] = v
	}
	return out, nil
}

func (m *memMeta) Clear(ctx context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, owner)
	return nil
}

// fakePayments simulates the payment API. CheckPayment reports paid once
// checkCalls reaches paidAfter (0 means immediately).
type fakePayments struct {
	mu         sync.Mutex
	invoices   int
	checkCalls int
	paidAfter  int
	neverPaid  bool
	checkErr   error
	payoutErr  error
	payouts    []payout
}

type payout struct {
	address string
	sats    int64
}

func (f *fakePayments) CreateInvoice(ctx context.Context, amountSats int64, memo string) (*lightning.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invoices++
	return &lightning.Invoice{
		PaymentRequest: fmt.Sprintf("lnbc-test-%d", f.invoices),
		PaymentHash:    fmt.Sprintf("hash-%d", f.invoices),
	}, nil
}

func (f *fakePayments) CheckPayment(ctx context.Context, paymentHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.checkErr != nil {
		return false, f.checkErr
	}
	f.checkCalls++
	if f.neverPaid {
		return false, nil
	}
	return f.checkCalls > f.paidAfter, nil
}

func (f *fakePayments) SendPayout(ctx context.Context, address string, amountSats int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.payoutErr != nil {
		return f.payoutErr
	}
	f.payouts = append(f.payouts, payout{address: address, sats: amountSats})
	return nil
}

func (f *fakePayments) sentPayouts() []payout {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]payout, len(f.payouts))
	copy(out, f.payouts)
	return out
}
