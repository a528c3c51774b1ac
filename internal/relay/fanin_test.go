package relay

import (
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, f *fanIn, n int) []*nostr.Event {
	t.Helper()
	var got []*nostr.Event
	timeout := time.After(2 * time.Second)
	for len(got) < n {
		select {
		case ev, ok := <-f.Events():
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("timed out after %d events", len(got))
		}
	}
	return got
}

func TestFanIn_MergesAndDeduplicates(t *testing.T) {
	a := make(chan *nostr.Event, 4)
	b := make(chan *nostr.Event, 4)

	ev1 := &nostr.Event{ID: "e1"}
	ev2 := &nostr.Event{ID: "e2"}

	// the same event arrives on both relay streams
	a <- ev1
	b <- ev1
	b <- ev2
	close(a)
	close(b)

	f := newFanIn([]<-chan *nostr.Event{a, b}, nil)
	got := collect(t, f, 2)

	ids := map[string]int{}
	for _, ev := range got {
		ids[ev.ID]++
	}
	assert.Equal(t, map[string]int{"e1": 1, "e2": 1}, ids)

	// channel closes once all source streams are drained
	_, ok := <-f.Events()
	assert.False(t, ok)
}

func TestFanIn_CloseIsIdempotent(t *testing.T) {
	a := make(chan *nostr.Event)
	calls := 0
	f := newFanIn([]<-chan *nostr.Event{a}, []func(){func() { calls++ }})

	f.Close()
	f.Close()
	require.Equal(t, 1, calls)

	// a blocked source goroutine must exit after Close
	select {
	case a <- &nostr.Event{ID: "late"}:
	case <-time.After(time.Second):
		// goroutine already exited without reading; acceptable either way
	}
	close(a)
}

func TestFanIn_NilEventsIgnored(t *testing.T) {
	a := make(chan *nostr.Event, 2)
	a <- nil
	a <- &nostr.Event{ID: "real"}
	close(a)

	f := newFanIn([]<-chan *nostr.Event{a}, nil)
	got := collect(t, f, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "real", got[0].ID)
}
