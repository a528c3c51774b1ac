package relay

import (
	"sync"

	"github.com/nbd-wtf/go-nostr"
)

// fanIn merges several per-relay event streams into one ordered channel,
// dropping duplicate deliveries of the same event id (the same event usually
// arrives from every connected relay).
type fanIn struct {
	out    chan *nostr.Event
	unsubs []func()

	once sync.Once
	done chan struct{}

	mu   sync.Mutex
	seen map[string]struct{}
}

func newFanIn(streams []<-chan *nostr.Event, unsubs []func()) *fanIn {
	f := &fanIn{
		out:    make(chan *nostr.Event),
		unsubs: unsubs,
		done:   make(chan struct{}),
		seen:   make(map[string]struct{}),
	}

	var wg sync.WaitGroup
	for _, ch := range streams {
		wg.Add(1)
		go func(ch <-chan *nostr.Event) {
			defer wg.Done()
			for {
				select {
				case ev, ok := <-ch:
					if !ok {
						return
					}
					if ev == nil || !f.firstSighting(ev.ID) {
						continue
					}
					select {
					case f.out <- ev:
					case <-f.done:
						return
					}
				case <-f.done:
					return
				}
			}
		}(ch)
	}

	go func() {
		wg.Wait()
		close(f.out)
	}()

	return f
}

func (f *fanIn) firstSighting(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.seen[id]; ok {
		return false
	}
	f.seen[id] = struct{}{}
	return true
}

func (f *fanIn) Events() <-chan *nostr.Event { return f.out }

// Close releases every underlying relay subscription. Idempotent.
func (f *fanIn) Close() {
	f.once.Do(func() {
		close(f.done)
		for _, u := range f.unsubs {
			u()
		}
	})
}
