// Package relay provides the transport layer over Nostr relays: a small
// Transport interface for subscribing to filtered event streams and
// publishing signed events, plus a Pool implementation backed by go-nostr.
package relay

import (
	"context"

	"github.com/nbd-wtf/go-nostr"
)

// DefaultRelays is the endpoint list used when the user has not configured
// their own.
var DefaultRelays = []string{
	"wss://relay.damus.io",
	"wss://relay.primal.net",
	"wss://nos.lol",
}

// Subscription is a live filtered stream of events. Events are delivered in
// arrival order on a single channel; Close releases the underlying relay
// subscriptions and is safe to call more than once.
type Subscription interface {
	Events() <-chan *nostr.Event
	Close()
}

// Transport opens subscriptions and publishes events across one or more
// relay endpoints.
type Transport interface {
	// Subscribe opens a filtered subscription on the given endpoints. It
	// succeeds if at least one endpoint accepts the subscription.
	Subscribe(ctx context.Context, urls []string, filter nostr.Filter) (Subscription, error)

	// Publish sends a signed event to the given endpoints. It succeeds if at
	// least one endpoint accepts the event.
	Publish(ctx context.Context, urls []string, ev nostr.Event) error
}
