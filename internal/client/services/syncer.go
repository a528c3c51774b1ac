package services

import (
	"context"
	"time"

	"github.com/mmilam360/nostr-journal/internal/keys"
	"github.com/mmilam360/nostr-journal/internal/logging"
)

// SessionFunc reports the current signing identity and storage key, or
// ok=false when nobody is logged in.
type SessionFunc func() (id keys.Identity, storageKey []byte, ok bool)

// Syncer publishes pending notes in the background. Each edit kicks the
// debounce timer; a sync pass runs only after edits quiesce, so a burst of
// typing produces one publish round instead of many.
type Syncer struct {
	notes    *NoteService
	session  SessionFunc
	debounce time.Duration
	kick     chan struct{}
	log      logging.Logger
}

func NewSyncer(notes *NoteService, session SessionFunc, debounce time.Duration, log logging.Logger) *Syncer {
	if log == nil {
		log = logging.Nop{}
	}
	return &Syncer{
		notes:    notes,
		session:  session,
		debounce: debounce,
		kick:     make(chan struct{}, 1),
		log:      log,
	}
}

// Kick signals that an edit happened. Never blocks; kicks during a pending
// debounce window coalesce.
func (s *Syncer) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run loops until ctx is done. Remote-signer sessions have no local secret,
// so their kicks are ignored and notes stay local.
func (s *Syncer) Run(ctx context.Context) {
	timer := time.NewTimer(s.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.kick:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.debounce)
		case <-timer.C:
			id, storageKey, ok := s.session()
			if !ok || !id.HasSecret() {
				continue
			}
			s.notes.SyncPending(ctx, id, storageKey)
		}
	}
}
