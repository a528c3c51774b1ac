package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/nbd-wtf/go-nostr"

	"github.com/mmilam360/nostr-journal/internal/common"
	"github.com/mmilam360/nostr-journal/internal/logging"
)

// Pool implements Transport over plain go-nostr relay connections. Relay
// connections are cached per url and re-dialed on demand after a failure.
type Pool struct {
	log logging.Logger

	mu     sync.Mutex
	relays map[string]*nostr.Relay
}

func NewPool(log logging.Logger) *Pool {
	if log == nil {
		log = logging.Nop{}
	}
	return &Pool{log: log, relays: make(map[string]*nostr.Relay)}
}

func (p *Pool) connect(ctx context.Context, url string) (*nostr.Relay, error) {
	p.mu.Lock()
	r, ok := p.relays[url]
	p.mu.Unlock()
	if ok {
		return r, nil
	}

	r, err := nostr.RelayConnect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: connect %s: %v", common.ErrTransport, url, err)
	}

	p.mu.Lock()
	p.relays[url] = r
	p.mu.Unlock()
	return r, nil
}

// drop forgets a cached relay so the next call re-dials it.
func (p *Pool) drop(url string) {
	p.mu.Lock()
	if r, ok := p.relays[url]; ok {
		delete(p.relays, url)
		_ = r.Close()
	}
	p.mu.Unlock()
}

func (p *Pool) Subscribe(ctx context.Context, urls []string, filter nostr.Filter) (Subscription, error) {
	streams := make([]<-chan *nostr.Event, 0, len(urls))
	var unsubs []func()
	var lastErr error

	for _, url := range urls {
		r, err := p.connect(ctx, url)
		if err != nil {
			lastErr = err
			p.log.Warn(ctx, "relay connect failed", "url", url, "err", err)
			continue
		}
		sub, err := r.Subscribe(ctx, nostr.Filters{filter})
		if err != nil {
			lastErr = fmt.Errorf("%w: subscribe %s: %v", common.ErrTransport, url, err)
			p.log.Warn(ctx, "relay subscribe failed", "url", url, "err", err)
			p.drop(url)
			continue
		}
		streams = append(streams, sub.Events)
		unsubs = append(unsubs, sub.Unsub)
	}

	if len(streams) == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("%w: no endpoints", common.ErrTransport)
		}
		return nil, lastErr
	}

	return newFanIn(streams, unsubs), nil
}

func (p *Pool) Publish(ctx context.Context, urls []string, ev nostr.Event) error {
	var lastErr error
	published := 0

	for _, url := range urls {
		r, err := p.connect(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}
		if err := r.Publish(ctx, ev); err != nil {
			lastErr = fmt.Errorf("%w: publish %s: %v", common.ErrTransport, url, err)
			p.log.Warn(ctx, "relay publish failed", "url", url, "err", err)
			p.drop(url)
			continue
		}
		published++
	}

	if published == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("%w: no endpoints", common.ErrTransport)
		}
		return lastErr
	}
	return nil
}

// Close closes every cached relay connection.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for url, r := range p.relays {
		_ = r.Close()
		delete(p.relays, url)
	}
}
