package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nbd-wtf/go-nostr"

	"github.com/mmilam360/nostr-journal/internal/client/models"
	"github.com/mmilam360/nostr-journal/internal/client/repositories/metadata"
	"github.com/mmilam360/nostr-journal/internal/common"
	"github.com/mmilam360/nostr-journal/internal/keys"
	"github.com/mmilam360/nostr-journal/internal/lightning"
	"github.com/mmilam360/nostr-journal/internal/logging"
	"github.com/mmilam360/nostr-journal/internal/relay"
)

// metadata keys used by the stake tracker
const (
	stakeKey         = "stake"
	payoutAddressKey = "payout_address"
)

// Payments is the slice of the payment API the stake tracker needs.
// *lightning.Client satisfies it.
type Payments interface {
	CreateInvoice(ctx context.Context, amountSats int64, memo string) (*lightning.Invoice, error)
	CheckPayment(ctx context.Context, paymentHash string) (bool, error)
	SendPayout(ctx context.Context, address string, amountSats int64) error
}

// errNotSettled drives the confirmation poller's retry loop.
var errNotSettled = errors.New("payment not settled")

// StakeService tracks the word-count incentive: funding, daily rewards,
// streaks, cancellation. The record lives in the metadata store, namespaced
// by the owner's public key.
type StakeService struct {
	meta      metadata.Repository
	payments  Payments
	transport relay.Transport
	relays    []string
	log       logging.Logger

	now          func() time.Time
	pollInterval time.Duration
	pollWindow   time.Duration
}

// NewStakeService builds the tracker. pollWindow bounds how long AwaitPayment
// keeps checking an invoice; zero or negative falls back to three minutes.
func NewStakeService(meta metadata.Repository, payments Payments, transport relay.Transport, relays []string, pollWindow time.Duration, log logging.Logger) *StakeService {
	if log == nil {
		log = logging.Nop{}
	}
	if pollWindow <= 0 {
		pollWindow = 3 * time.Minute
	}
	return &StakeService{
		meta:         meta,
		payments:     payments,
		transport:    transport,
		relays:       relays,
		log:          log,
		now:          time.Now,
		pollInterval: time.Second,
		pollWindow:   pollWindow,
	}
}

// Get returns the current stake record, or a zero record with StakeNone.
func (s *StakeService) Get(ctx context.Context, owner string) (*models.Stake, error) {
	raw, err := s.meta.Get(ctx, owner, stakeKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return &models.Stake{Status: models.StakeNone}, nil
	}
	var st models.Stake
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decoding stake record: %w", err)
	}
	return &st, nil
}

func (s *StakeService) save(ctx context.Context, owner string, st *models.Stake) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.meta.Set(ctx, owner, stakeKey, raw)
}

// CreateStake validates the inputs, requests a funding invoice, and stores a
// pending_payment record. Validation failures come back as a per-field
// *common.ValidationError before any call to the payment API.
func (s *StakeService) CreateStake(ctx context.Context, owner string, goal int, rewardSats, depositSats int64, payoutAddress string, baselineWords int) (*models.Stake, *lightning.Invoice, error) {
	if verr := validateStake(goal, rewardSats, depositSats, payoutAddress); verr != nil {
		return nil, nil, verr
	}

	existing, err := s.Get(ctx, owner)
	if err != nil {
		return nil, nil, err
	}
	if existing.Status == models.StakePendingPayment || existing.Status == models.StakeActive {
		return nil, nil, common.ErrStakeAlreadyExists
	}

	inv, err := s.payments.CreateInvoice(ctx, depositSats, "journal stake deposit")
	if err != nil {
		return nil, nil, fmt.Errorf("creating funding invoice: %w", err)
	}

	st := &models.Stake{
		Status:        models.StakePendingPayment,
		DailyGoal:     goal,
		DailyReward:   rewardSats,
		Deposit:       depositSats,
		BaselineWords: baselineWords,
		PayoutAddress: payoutAddress,
		InvoiceRef:    inv.PaymentHash,
		History:       make(map[string]models.DayEntry),
		CreatedAt:     s.now().UTC(),
	}
	if err := s.save(ctx, owner, st); err != nil {
		return nil, nil, err
	}
	return st, inv, nil
}

func validateStake(goal int, rewardSats, depositSats int64, payoutAddress string) *common.ValidationError {
	verr := common.NewValidationError()
	if goal <= 0 {
		verr.Add("goal", "daily word goal must be greater than zero")
	}
	if rewardSats <= 0 {
		verr.Add("reward", "daily reward must be greater than zero")
	}
	if depositSats <= 0 {
		verr.Add("deposit", "deposit must be greater than zero")
	}
	if rewardSats > 0 && depositSats > 0 && rewardSats > depositSats {
		verr.Add("deposit", "deposit must cover at least one daily reward")
	}
	if strings.TrimSpace(payoutAddress) == "" {
		verr.Add("payoutAddress", "payout address is required")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// ConfirmPayment checks the funding invoice once. On settlement the stake
// becomes active, the balance is funded with the deposit, and the baseline
// word count is recorded. Idempotent once confirmed.
func (s *StakeService) ConfirmPayment(ctx context.Context, owner string, currentWords int) (bool, error) {
	st, err := s.Get(ctx, owner)
	if err != nil {
		return false, err
	}
	switch st.Status {
	case models.StakeActive:
		return true, nil
	case models.StakePendingPayment:
	default:
		return false, common.ErrStakeNotActive
	}

	paid, err := s.payments.CheckPayment(ctx, st.InvoiceRef)
	if err != nil {
		return false, err
	}
	if !paid {
		return false, nil
	}

	now := s.now().UTC()
	st.Status = models.StakeActive
	st.Balance = st.Deposit
	st.BaselineWords = currentWords
	st.ActivatedAt = &now
	if err := s.save(ctx, owner, st); err != nil {
		return false, err
	}
	s.log.Info(ctx, "stake activated", "deposit", st.Deposit, "goal", st.DailyGoal)
	return true, nil
}

// AwaitPayment polls ConfirmPayment at a short fixed interval for a bounded
// window. When the window closes without settlement the stake stays in
// pending_payment for a later manual retry and common.ErrStakeNotConfirmed
// is returned.
func (s *StakeService) AwaitPayment(ctx context.Context, owner string, currentWords int) error {
	pollCtx, cancel := context.WithTimeout(ctx, s.pollWindow)
	defer cancel()

	op := func() error {
		ok, err := s.ConfirmPayment(pollCtx, owner, currentWords)
		if err != nil {
			if errors.Is(err, common.ErrStakeNotActive) {
				return backoff.Permanent(err)
			}
			s.log.Warn(pollCtx, "payment check failed, retrying", "err", err)
			return err
		}
		if !ok {
			return errNotSettled
		}
		return nil
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(s.pollInterval), pollCtx)
	if err := backoff.Retry(op, b); err != nil {
		if errors.Is(err, common.ErrStakeNotActive) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrStakeNotConfirmed, err)
	}
	return nil
}

// Progress is what RecordProgress reports back to the view.
type Progress struct {
	WordsToday  int
	Goal        int
	GoalMet     bool
	RewardSent  bool
	Streak      int
	BalanceSats int64
}

// RecordProgress updates today's history with the words written since the
// baseline and, when the goal is met, sends the daily reward at most once
// per calendar day. A failed payout leaves today unsent so the next call
// retries it; already-applied local updates are never rolled back.
func (s *StakeService) RecordProgress(ctx context.Context, owner string, currentWords int) (*Progress, error) {
	st, err := s.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	if st.Status != models.StakeActive {
		return nil, common.ErrStakeNotActive
	}

	words := st.WordsSince(currentWords)
	day := models.DayKey(s.now())
	if st.History == nil {
		st.History = make(map[string]models.DayEntry)
	}
	entry := st.History[day]
	entry.Words = words
	st.History[day] = entry

	goalMet := words >= st.DailyGoal

	if goalMet && !st.RewardSentOn(day) && st.Balance >= st.DailyReward {
		if err := s.payments.SendPayout(ctx, st.PayoutAddress, st.DailyReward); err != nil {
			// keep the words update; the reward stays pending for a retry
			if saveErr := s.save(ctx, owner, st); saveErr != nil {
				s.log.Warn(ctx, "saving stake after failed payout", "err", saveErr)
			}
			return nil, fmt.Errorf("sending reward: %w", err)
		}

		st.Balance -= st.DailyReward
		entry.RewardSent = true
		entry.RewardSats = st.DailyReward
		st.History[day] = entry

		yesterday := models.DayKey(s.now().AddDate(0, 0, -1))
		if st.LastRewardDay == yesterday {
			st.Streak++
		} else {
			st.Streak = 1
		}
		st.LastRewardDay = day
		s.log.Info(ctx, "daily reward sent", "sats", st.DailyReward, "streak", st.Streak)
	}

	if err := s.save(ctx, owner, st); err != nil {
		return nil, err
	}

	return &Progress{
		WordsToday:  words,
		Goal:        st.DailyGoal,
		GoalMet:     goalMet,
		RewardSent:  st.RewardSentOn(day),
		Streak:      st.Streak,
		BalanceSats: st.Balance,
	}, nil
}

// CancelStake forfeits the remaining balance and marks the stake cancelled.
// The forfeited amount is returned for display. Irreversible: only a fresh
// CreateStake can produce an active stake again.
func (s *StakeService) CancelStake(ctx context.Context, owner string) (int64, error) {
	st, err := s.Get(ctx, owner)
	if err != nil {
		return 0, err
	}
	if st.Status != models.StakeActive && st.Status != models.StakePendingPayment {
		return 0, common.ErrStakeNotActive
	}

	forfeited := st.Balance
	st.Balance = 0
	st.Status = models.StakeCancelled
	if err := s.save(ctx, owner, st); err != nil {
		return 0, err
	}
	s.log.Info(ctx, "stake cancelled", "forfeited_sats", forfeited)
	return forfeited, nil
}

// UpdatePayoutAddress validates and stores the address, updates any live
// stake, and best-effort publishes the new Lightning address into the
// user's public profile. Propagation failures are logged, never fatal.
func (s *StakeService) UpdatePayoutAddress(ctx context.Context, id keys.Identity, address string) error {
	if strings.TrimSpace(address) == "" {
		verr := common.NewValidationError()
		verr.Add("payoutAddress", "payout address is required")
		return verr
	}
	address = strings.TrimSpace(address)

	if err := s.meta.Set(ctx, id.PublicKey, payoutAddressKey, []byte(address)); err != nil {
		return err
	}

	st, err := s.Get(ctx, id.PublicKey)
	if err == nil && (st.Status == models.StakeActive || st.Status == models.StakePendingPayment) {
		st.PayoutAddress = address
		if err := s.save(ctx, id.PublicKey, st); err != nil {
			s.log.Warn(ctx, "updating stake payout address", "err", err)
		}
	}

	s.propagateProfileAddress(ctx, id, address)
	return nil
}

// propagateProfileAddress publishes a kind-0 profile event carrying the
// lud16 field. Requires a local secret; silently skipped otherwise.
func (s *StakeService) propagateProfileAddress(ctx context.Context, id keys.Identity, address string) {
	if !id.HasSecret() || s.transport == nil {
		return
	}
	content, err := json.Marshal(map[string]string{"lud16": address})
	if err != nil {
		return
	}
	ev := nostr.Event{
		PubKey:    id.PublicKey,
		CreatedAt: nostr.Now(),
		Kind:      0,
		Tags:      nostr.Tags{},
		Content:   string(content),
	}
	if err := ev.Sign(id.Secret); err != nil {
		s.log.Warn(ctx, "signing profile update failed", "err", err)
		return
	}
	if err := s.transport.Publish(ctx, s.relays, ev); err != nil {
		s.log.Warn(ctx, "publishing profile update failed", "err", err)
	}
}
