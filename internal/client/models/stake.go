package models

import "time"

// StakeStatus is the lifecycle position of a stake.
type StakeStatus string

const (
	// StakeNone means no stake exists for the profile.
	StakeNone StakeStatus = "none"
	// StakePendingPayment means the funding invoice is awaiting settlement.
	StakePendingPayment StakeStatus = "pending_payment"
	// StakeActive means the stake is funded and rewards can accrue.
	StakeActive StakeStatus = "active"
	// StakeCancelled is terminal; the remaining balance was forfeited.
	StakeCancelled StakeStatus = "cancelled"
)

// DayEntry is one day's bookkeeping in the stake history.
type DayEntry struct {
	Words      int   `json:"words"`
	RewardSats int64 `json:"reward_sats"`
	RewardSent bool  `json:"reward_sent"`
}

// Stake is a word-count incentive record. BaselineWords is the word count at
// activation time and is the zero point for daily progress. Invariants: an
// active stake never has a negative balance, and cancellation forfeits the
// remaining balance rather than refunding it.
type Stake struct {
	Status        StakeStatus         `json:"status"`
	DailyGoal     int                 `json:"daily_goal"`
	DailyReward   int64               `json:"daily_reward_sats"`
	Deposit       int64               `json:"deposit_sats"`
	Balance       int64               `json:"balance_sats"`
	BaselineWords int                 `json:"baseline_words"`
	Streak        int                 `json:"streak"`
	PayoutAddress string              `json:"payout_address"`
	InvoiceRef    string              `json:"invoice_ref,omitempty"`
	History       map[string]DayEntry `json:"history,omitempty"`
	LastRewardDay string              `json:"last_reward_day,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	ActivatedAt   *time.Time          `json:"activated_at,omitempty"`
}

// DayKey formats t as the calendar-day key used by History and the
// once-per-day reward guard.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// WordsSince returns how many words were written beyond the baseline,
// clamped at zero.
func (s *Stake) WordsSince(currentWords int) int {
	d := currentWords - s.BaselineWords
	if d < 0 {
		return 0
	}
	return d
}

// RewardSentOn reports whether the reward for the given day already went out.
func (s *Stake) RewardSentOn(day string) bool {
	e, ok := s.History[day]
	return ok && e.RewardSent
}
