package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmilam360/nostr-journal/internal/client/services"
)

var errNotLoggedIn = errors.New("not logged in")

func (a *App) requireLogin() (*services.Session, error) {
	sess := a.currentSession()
	if sess == nil {
		printlnFn("Log in first (login, generate, connect or bunker)")
		return nil, errNotLoggedIn
	}
	return sess, nil
}

func splitTags(line string) []string {
	var tags []string
	for _, t := range strings.Split(line, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// AddNote prompts for title, body and tags and stores the note encrypted.
func (a *App) AddNote(ctx context.Context) error {
	sess, err := a.requireLogin()
	if err != nil {
		return err
	}

	title, err := GetSimpleText(a.reader, "- Enter title", a.out)
	if err != nil {
		printlnFn("error:", err)
		return err
	}

	content, err := GetMultiline(a.reader, "- Enter note text", a.out)
	if err != nil {
		printlnFn("error:", err)
		return err
	}

	tagLine, err := GetSimpleText(a.reader, "- Tags (comma-separated, empty for none)", a.out)
	if err != nil {
		printlnFn("error:", err)
		return err
	}

	n, err := a.notes.Create(ctx, sess.Identity.PublicKey, sess.StorageKey, title, content, splitTags(tagLine))
	if err != nil {
		printlnFn("error:", err)
		return err
	}
	printlnFn("Saved", n.ID)
	a.syncer.Kick()
	return nil
}

// EditNote replaces the body of an existing note.
func (a *App) EditNote(ctx context.Context, id string) error {
	sess, err := a.requireLogin()
	if err != nil {
		return err
	}

	n, err := a.notes.Get(ctx, sess.Identity.PublicKey, sess.StorageKey, id)
	if err != nil {
		printlnFn("error:", err)
		return err
	}
	printlnFn("Current text:")
	printlnFn(n.Content)

	content, err := GetMultiline(a.reader, "- Enter the new text", a.out)
	if err != nil {
		printlnFn("error:", err)
		return err
	}
	n.Content = content

	if err := a.notes.Update(ctx, sess.Identity.PublicKey, sess.StorageKey, n); err != nil {
		printlnFn("error:", err)
		return err
	}
	printlnFn("Updated", n.ID)
	a.syncer.Kick()
	return nil
}

// TagNote adds or removes a tag. A leading '-' removes.
func (a *App) TagNote(ctx context.Context, id, tag string) error {
	sess, err := a.requireLogin()
	if err != nil {
		return err
	}

	n, err := a.notes.Get(ctx, sess.Identity.PublicKey, sess.StorageKey, id)
	if err != nil {
		printlnFn("error:", err)
		return err
	}

	if removed, ok := strings.CutPrefix(tag, "-"); ok {
		if !n.RemoveTag(removed) {
			printlnFn("No such tag:", removed)
			return nil
		}
	} else if !n.AddTag(tag) {
		printlnFn("Tag already present:", tag)
		return nil
	}

	if err := a.notes.Update(ctx, sess.Identity.PublicKey, sess.StorageKey, n); err != nil {
		printlnFn("error:", err)
		return err
	}
	printlnFn("Tags:", strings.Join(n.Tags, ", "))
	a.syncer.Kick()
	return nil
}

// ListNotes prints one line per note, most recently updated first.
func (a *App) ListNotes(ctx context.Context) error {
	sess, err := a.requireLogin()
	if err != nil {
		return err
	}

	all, err := a.notes.List(ctx, sess.Identity.PublicKey, sess.StorageKey)
	if err != nil {
		printlnFn("error:", err)
		return err
	}
	if len(all) == 0 {
		printlnFn("No notes yet")
		return nil
	}
	for _, n := range all {
		printlnFn(fmt.Sprintf("%s  [%s]  %s (%d words)", n.ID, n.SyncStatus, n.Title, n.WordCount()))
	}
	return nil
}

// ShowNote prints one note in full.
func (a *App) ShowNote(ctx context.Context, id string) error {
	sess, err := a.requireLogin()
	if err != nil {
		return err
	}

	n, err := a.notes.Get(ctx, sess.Identity.PublicKey, sess.StorageKey, id)
	if err != nil {
		printlnFn("error:", err)
		return err
	}
	printlnFn("Title: " + n.Title)
	if len(n.Tags) > 0 {
		printlnFn("Tags:  " + strings.Join(n.Tags, ", "))
	}
	printlnFn(fmt.Sprintf("Sync:  %s", n.SyncStatus))
	if n.LastSynced != nil {
		printlnFn("Last synced: " + n.LastSynced.Format("2006-01-02 15:04"))
	}
	printlnFn("")
	printlnFn(n.Content)
	return nil
}

// DeleteNote removes the note locally right away; any published copy gets a
// best-effort deletion event.
func (a *App) DeleteNote(ctx context.Context, id string) error {
	sess, err := a.requireLogin()
	if err != nil {
		return err
	}

	if err := a.notes.Delete(ctx, sess.Identity, id); err != nil {
		printlnFn("error:", err)
		return err
	}
	printlnFn("Deleted", id)
	return nil
}

// PublishNote pushes one note to the relays.
func (a *App) PublishNote(ctx context.Context, id string) error {
	sess, err := a.requireLogin()
	if err != nil {
		return err
	}

	if err := a.notes.Publish(ctx, sess.Identity, sess.StorageKey, id); err != nil {
		printlnFn("publish failed:", err)
		return err
	}
	printlnFn("Published", id)
	return nil
}

// SyncNotes publishes everything with local edits.
func (a *App) SyncNotes(ctx context.Context) error {
	sess, err := a.requireLogin()
	if err != nil {
		return err
	}

	a.notes.SyncPending(ctx, sess.Identity, sess.StorageKey)
	printlnFn("Sync pass finished")
	return nil
}
