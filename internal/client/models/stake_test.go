package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayKey_UsesUTC(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC
	loc := time.FixedZone("UTC-5", -5*3600)
	local := time.Date(2026, 3, 10, 23, 30, 0, 0, loc)

	assert.Equal(t, "2026-03-11", DayKey(local))
	assert.Equal(t, "2026-03-10", DayKey(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)))
}

func TestStake_WordsSince(t *testing.T) {
	s := &Stake{BaselineWords: 1000}

	assert.Equal(t, 250, s.WordsSince(1250))
	assert.Equal(t, 0, s.WordsSince(1000))
	// deleting notes cannot drive progress negative
	assert.Equal(t, 0, s.WordsSince(400))
}

func TestStake_RewardSentOn(t *testing.T) {
	s := &Stake{History: map[string]DayEntry{
		"2026-03-10": {Words: 600, RewardSent: true, RewardSats: 100},
		"2026-03-11": {Words: 700},
	}}

	assert.True(t, s.RewardSentOn("2026-03-10"))
	assert.False(t, s.RewardSentOn("2026-03-11"))
	assert.False(t, s.RewardSentOn("2026-03-12"))

	var empty Stake
	assert.False(t, empty.RewardSentOn("2026-03-10"))
}
