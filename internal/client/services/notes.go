// Package services contains the application services of the journal client:
// note storage and publishing, the stake tracker, and session management.
// Services hold no UI state; the CLI (or any other view) stays thin.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nbd-wtf/go-nostr"

	"github.com/mmilam360/nostr-journal/internal/client/models"
	"github.com/mmilam360/nostr-journal/internal/client/repositories/notes"
	"github.com/mmilam360/nostr-journal/internal/cryptox"
	"github.com/mmilam360/nostr-journal/internal/keys"
	"github.com/mmilam360/nostr-journal/internal/logging"
	"github.com/mmilam360/nostr-journal/internal/nostrcrypt"
	"github.com/mmilam360/nostr-journal/internal/relay"
)

// journalEventKind is the parameterized-replaceable kind used for published
// notes; the d tag carries the note id so a republish replaces the previous
// version.
const journalEventKind = 30078

// deletionEventKind marks a previously published event as deleted.
const deletionEventKind = 5

// NoteService is the note store adapter: encrypted CRUD over the local
// repository plus best-effort publishing to relays.
type NoteService struct {
	repo      notes.Repository
	transport relay.Transport
	cipher    nostrcrypt.Cipher
	log       logging.Logger
	relays    []string
	now       func() time.Time
}

func NewNoteService(repo notes.Repository, transport relay.Transport, cipher nostrcrypt.Cipher, relays []string, log logging.Logger) *NoteService {
	if log == nil {
		log = logging.Nop{}
	}
	return &NoteService{
		repo:      repo,
		transport: transport,
		cipher:    cipher,
		log:       log,
		relays:    relays,
		now:       time.Now,
	}
}

// Create builds a new note and persists it encrypted under storageKey.
func (s *NoteService) Create(ctx context.Context, owner string, storageKey []byte, title, content string, tags []string) (*models.Note, error) {
	now := s.now().UTC()
	n := &models.Note{
		ID:         uuid.NewString(),
		Title:      title,
		Content:    content,
		CreatedAt:  now,
		UpdatedAt:  now,
		SyncStatus: models.SyncLocal,
	}
	for _, tag := range tags {
		n.AddTag(tag)
	}
	if err := s.save(ctx, owner, storageKey, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Update persists an edited note. The edit drops the note back to local
// regardless of its previous sync status.
func (s *NoteService) Update(ctx context.Context, owner string, storageKey []byte, n *models.Note) error {
	n.Touch(s.now())
	return s.save(ctx, owner, storageKey, n)
}

// Get loads and decrypts one note.
func (s *NoteService) Get(ctx context.Context, owner string, storageKey []byte, id string) (*models.Note, error) {
	rec, err := s.repo.GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	return decryptRecord(rec, storageKey)
}

// List loads and decrypts the owner's notes, most recently updated first.
// Records that fail to decrypt are skipped with a log line rather than
// aborting the whole listing.
func (s *NoteService) List(ctx context.Context, owner string, storageKey []byte) ([]models.Note, error) {
	recs, err := s.repo.GetAll(ctx, owner)
	if err != nil {
		return nil, err
	}
	result := make([]models.Note, 0, len(recs))
	for i := range recs {
		n, err := decryptRecord(&recs[i], storageKey)
		if err != nil {
			s.log.Warn(ctx, "skipping undecryptable note", "id", recs[i].ID, "err", err)
			continue
		}
		result = append(result, *n)
	}
	return result, nil
}

// TotalWordCount sums the word counts of every note; the stake tracker uses
// it as the progress measure.
func (s *NoteService) TotalWordCount(ctx context.Context, owner string, storageKey []byte) (int, error) {
	all, err := s.List(ctx, owner, storageKey)
	if err != nil {
		return 0, err
	}
	total := 0
	for i := range all {
		total += all[i].WordCount()
	}
	return total, nil
}

// Publish pushes one note to the relays, encrypted to the owner's own key.
// The note moves local→syncing→synced, or →error on failure; the local copy
// is never touched by a failed publish. Publishing requires the private key,
// so it is unavailable in remote-signer sessions.
func (s *NoteService) Publish(ctx context.Context, id keys.Identity, storageKey []byte, noteID string) error {
	if !id.HasSecret() {
		return fmt.Errorf("publishing requires a local secret")
	}

	n, err := s.Get(ctx, id.PublicKey, storageKey, noteID)
	if err != nil {
		return err
	}

	if err := s.repo.SetSyncState(ctx, id.PublicKey, noteID, string(models.SyncSyncing), n.EventID, n.LastSynced); err != nil {
		return err
	}

	ev, err := s.buildNoteEvent(id, n)
	if err != nil {
		_ = s.repo.SetSyncState(ctx, id.PublicKey, noteID, string(models.SyncError), n.EventID, n.LastSynced)
		return err
	}

	if err := s.transport.Publish(ctx, s.relays, *ev); err != nil {
		_ = s.repo.SetSyncState(ctx, id.PublicKey, noteID, string(models.SyncError), n.EventID, n.LastSynced)
		return err
	}

	syncedAt := s.now().UTC()
	return s.repo.SetSyncState(ctx, id.PublicKey, noteID, string(models.SyncSynced), ev.ID, &syncedAt)
}

// SyncPending publishes every note with local edits or a previously failed
// publish. Failures are logged and swallowed; each failed note keeps its
// error badge and stays eligible for the next pass.
func (s *NoteService) SyncPending(ctx context.Context, id keys.Identity, storageKey []byte) {
	var recs []notes.Record
	for _, status := range []models.SyncStatus{models.SyncLocal, models.SyncError} {
		batch, err := s.repo.GetBySyncStatus(ctx, id.PublicKey, string(status))
		if err != nil {
			s.log.Warn(ctx, "listing pending notes failed", "status", status, "err", err)
			return
		}
		recs = append(recs, batch...)
	}
	for i := range recs {
		if err := s.Publish(ctx, id, storageKey, recs[i].ID); err != nil {
			s.log.Warn(ctx, "background publish failed", "id", recs[i].ID, "err", err)
		}
	}
}

// Delete removes the note locally, immediately and unconditionally, then
// best-effort publishes a deletion event for any previously published copy.
// A failed remote deletion never resurrects the local note.
func (s *NoteService) Delete(ctx context.Context, id keys.Identity, noteID string) error {
	rec, err := s.repo.GetByID(ctx, id.PublicKey, noteID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteByID(ctx, id.PublicKey, noteID); err != nil {
		return err
	}

	if rec.EventID != "" && id.HasSecret() {
		ev := nostr.Event{
			PubKey:    id.PublicKey,
			CreatedAt: nostr.Now(),
			Kind:      deletionEventKind,
			Tags:      nostr.Tags{{"e", rec.EventID}},
		}
		if err := ev.Sign(id.Secret); err != nil {
			s.log.Warn(ctx, "signing deletion event failed", "id", noteID, "err", err)
			return nil
		}
		if err := s.transport.Publish(ctx, s.relays, ev); err != nil {
			s.log.Warn(ctx, "publishing deletion event failed", "id", noteID, "err", err)
		}
	}
	return nil
}

func (s *NoteService) save(ctx context.Context, owner string, storageKey []byte, n *models.Note) error {
	ct, nonce, err := cryptox.EncryptRecord(n, storageKey)
	if err != nil {
		return fmt.Errorf("encrypting note: %w", err)
	}
	return s.repo.Upsert(ctx, &notes.Record{
		ID:         n.ID,
		Owner:      owner,
		Cipher:     ct,
		Nonce:      nonce,
		SyncStatus: string(n.SyncStatus),
		EventID:    n.EventID,
		LastSynced: n.LastSynced,
		UpdatedAt:  n.UpdatedAt,
	})
}

func (s *NoteService) buildNoteEvent(id keys.Identity, n *models.Note) (*nostr.Event, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	content, err := s.cipher.Encrypt(string(payload), id.PublicKey, id.Secret)
	if err != nil {
		return nil, fmt.Errorf("encrypting note for publish: %w", err)
	}
	ev := nostr.Event{
		PubKey:    id.PublicKey,
		CreatedAt: nostr.Now(),
		Kind:      journalEventKind,
		Tags:      nostr.Tags{{"d", "journal:" + n.ID}},
		Content:   content,
	}
	if err := ev.Sign(id.Secret); err != nil {
		return nil, fmt.Errorf("signing note event: %w", err)
	}
	return &ev, nil
}

// decryptRecord recovers the note and overlays the plaintext sync columns,
// which are authoritative over whatever was serialized into the blob.
func decryptRecord(rec *notes.Record, storageKey []byte) (*models.Note, error) {
	var n models.Note
	if err := cryptox.DecryptRecord(rec.Cipher, rec.Nonce, storageKey, &n); err != nil {
		return nil, fmt.Errorf("decrypting note %s: %w", rec.ID, err)
	}
	n.SyncStatus = models.SyncStatus(rec.SyncStatus)
	n.EventID = rec.EventID
	n.LastSynced = rec.LastSynced
	return &n, nil
}
