package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mmilam360/nostr-journal/internal/keys"
)

func TestSyncer_PublishesAfterQuietPeriod(t *testing.T) {
	svc, tr, id, key := newNoteFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := svc.Create(ctx, id.PublicKey, key, "a", "words", nil)
	require.NoError(t, err)

	session := func() (keys.Identity, []byte, bool) { return id, key, true }
	syncer := NewSyncer(svc, session, 10*time.Millisecond, nil)
	go syncer.Run(ctx)

	// a burst of kicks coalesces into a single pass
	syncer.Kick()
	syncer.Kick()
	syncer.Kick()

	require.Eventually(t, func() bool {
		return len(tr.events()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSyncer_IgnoresKicksWithoutSession(t *testing.T) {
	svc, tr, id, key := newNoteFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := svc.Create(ctx, id.PublicKey, key, "a", "words", nil)
	require.NoError(t, err)

	session := func() (keys.Identity, []byte, bool) { return keys.Identity{}, nil, false }
	syncer := NewSyncer(svc, session, 5*time.Millisecond, nil)
	go syncer.Run(ctx)

	syncer.Kick()
	time.Sleep(50 * time.Millisecond)
	require.Empty(t, tr.events())
}

func TestSyncer_RemoteSessionStaysLocal(t *testing.T) {
	svc, tr, id, key := newNoteFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := svc.Create(ctx, id.PublicKey, key, "a", "words", nil)
	require.NoError(t, err)

	watchOnly := keys.Identity{PublicKey: id.PublicKey}
	session := func() (keys.Identity, []byte, bool) { return watchOnly, key, true }
	syncer := NewSyncer(svc, session, 5*time.Millisecond, nil)
	go syncer.Run(ctx)

	syncer.Kick()
	time.Sleep(50 * time.Millisecond)
	require.Empty(t, tr.events())
}
