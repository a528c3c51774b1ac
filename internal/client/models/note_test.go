package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNote_Touch(t *testing.T) {
	n := Note{SyncStatus: SyncSynced}
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	n.Touch(now)

	assert.Equal(t, SyncLocal, n.SyncStatus)
	assert.Equal(t, now, n.UpdatedAt)
}

func TestNote_Tags(t *testing.T) {
	var n Note

	assert.True(t, n.AddTag("journal"))
	assert.True(t, n.AddTag("daily"))
	assert.False(t, n.AddTag("Journal"), "membership is case-insensitive")
	assert.False(t, n.AddTag("  "))

	// display order is preserved
	assert.Equal(t, []string{"journal", "daily"}, n.Tags)
	assert.True(t, n.HasTag("DAILY"))

	assert.True(t, n.RemoveTag("journal"))
	assert.False(t, n.RemoveTag("journal"))
	assert.Equal(t, []string{"daily"}, n.Tags)
}

func TestNote_WordCount(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"   \n\t ", 0},
		{"one", 1},
		{"wrote five words this fine morning", 6},
	}
	for _, tc := range tests {
		n := Note{Content: tc.content}
		assert.Equal(t, tc.want, n.WordCount(), "content %q", tc.content)
	}
}
