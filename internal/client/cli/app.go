package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"

	"github.com/mmilam360/nostr-journal/internal/client/config"
	"github.com/mmilam360/nostr-journal/internal/client/services"
	"github.com/mmilam360/nostr-journal/internal/client/storage"
	"github.com/mmilam360/nostr-journal/internal/handshake"
	"github.com/mmilam360/nostr-journal/internal/keys"
	"github.com/mmilam360/nostr-journal/internal/lightning"
	"github.com/mmilam360/nostr-journal/internal/logging"
	"github.com/mmilam360/nostr-journal/internal/nostrcrypt"
	"github.com/mmilam360/nostr-journal/internal/relay"
)

const appName = "nostr-journal"

// App wires the services behind the interactive shell. The session is the
// only mutable state and is shared with the background syncer, hence the
// mutex.
type App struct {
	config   *config.Config
	sessions *services.SessionService
	notes    *services.NoteService
	stakes   *services.StakeService
	syncer   *services.Syncer
	repos    *storage.Repositories
	log      logging.Logger

	mu      sync.Mutex
	session *services.Session

	reader *bufio.Reader
	out    io.Writer
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	if log == nil {
		log = logging.Nop{}
	}

	repos, err := storage.Open(ctx, c.DatabasePath)
	if err != nil {
		return nil, err
	}

	pool := relay.NewPool(log)
	cipher := nostrcrypt.NIP04{}
	payments := lightning.NewClient(c.PaymentAPIAddr, c.PaymentAPIKey)
	notes := services.NewNoteService(repos.Notes, pool, cipher, c.Relays, log)

	a := &App{
		config:   c,
		sessions: services.NewSessionService(repos.Metadata, pool, cipher, appName, c.Relays, log, handshake.WithTimeout(c.HandshakeTimeout)),
		notes:    notes,
		stakes:   services.NewStakeService(repos.Metadata, payments, pool, c.Relays, c.PaymentPollWindow, log),
		repos:    repos,
		log:      log,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
	a.syncer = services.NewSyncer(notes, a.sessionFunc, c.SyncDebounce, log)
	return a, nil
}

func (a *App) setSession(s *services.Session) {
	a.mu.Lock()
	a.session = s
	a.mu.Unlock()
}

func (a *App) currentSession() *services.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// sessionFunc adapts the current session for the background syncer.
func (a *App) sessionFunc() (keys.Identity, []byte, bool) {
	sess := a.currentSession()
	if sess == nil {
		return keys.Identity{}, nil, false
	}
	return sess.Identity, sess.StorageKey, true
}

func (a *App) isLoggedIn() bool {
	return a.currentSession() != nil
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()

	go a.syncer.Run(ctx)

	printlnFn("journal CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

// Close releases the database handle and wipes session key material.
func (a *App) Close() {
	a.sessions.Logout(a.currentSession())
	a.setSession(nil)
	if err := a.repos.Close(); err != nil {
		a.log.Warn(context.Background(), "closing database", "err", err)
	}
}

func (a *App) status() string {
	sess := a.currentSession()
	if sess == nil {
		return "logged out"
	}
	short := sess.Identity.PublicKey
	if len(short) > 8 {
		short = short[:8]
	}
	if sess.Remote {
		return short + " (remote)"
	}
	return short
}
