// Package models defines client-side data models for the journal.
package models

import (
	"strings"
	"time"
)

// SyncStatus tracks where a note stands relative to the relays.
type SyncStatus string

const (
	// SyncLocal means the note has local edits not yet published.
	SyncLocal SyncStatus = "local"
	// SyncSyncing means a publish is in flight.
	SyncSyncing SyncStatus = "syncing"
	// SyncSynced means the last publish succeeded.
	SyncSynced SyncStatus = "synced"
	// SyncError means the last publish failed; the local copy is unaffected.
	SyncError SyncStatus = "error"
)

// Note is one journal entry. Tags are unique and keep their display order.
// EventID and LastSynced are set only by a successful publish.
type Note struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Tags       []string   `json:"tags,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	EventID    string     `json:"event_id,omitempty"`
	LastSynced *time.Time `json:"last_synced,omitempty"`
	SyncStatus SyncStatus `json:"sync_status"`
}

// Touch records an edit: bumps UpdatedAt and drops the note back to local.
func (n *Note) Touch(now time.Time) {
	n.UpdatedAt = now.UTC()
	n.SyncStatus = SyncLocal
}

// AddTag appends tag if not already present. Matching is case-insensitive;
// the original spelling of the first occurrence is kept.
func (n *Note) AddTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" || n.HasTag(tag) {
		return false
	}
	n.Tags = append(n.Tags, tag)
	return true
}

// RemoveTag deletes tag, preserving the order of the rest.
func (n *Note) RemoveTag(tag string) bool {
	for i, t := range n.Tags {
		if strings.EqualFold(t, tag) {
			n.Tags = append(n.Tags[:i], n.Tags[i+1:]...)
			return true
		}
	}
	return false
}

// HasTag reports membership, case-insensitively.
func (n *Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// WordCount counts whitespace-separated words in the note body.
func (n *Note) WordCount() int {
	return len(strings.Fields(n.Content))
}
