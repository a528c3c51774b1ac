package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/mmilam360/nostr-journal/internal/client/models"
	"github.com/mmilam360/nostr-journal/internal/common"
)

func (a *App) promptInt(prompt string) (int64, error) {
	text, err := GetSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", text)
	}
	return v, nil
}

// CreateStake collects the stake parameters, shows the funding invoice, and
// waits a short while for the deposit to settle.
func (a *App) CreateStake(ctx context.Context) error {
	sess, err := a.requireLogin()
	if err != nil {
		return err
	}
	owner := sess.Identity.PublicKey

	goal, err := a.promptInt("- Daily word goal")
	if err != nil {
		printlnFn("error:", err)
		return err
	}
	reward, err := a.promptInt("- Daily reward (sats)")
	if err != nil {
		printlnFn("error:", err)
		return err
	}
	deposit, err := a.promptInt("- Deposit (sats)")
	if err != nil {
		printlnFn("error:", err)
		return err
	}
	address, err := GetSimpleText(a.reader, "- Lightning address for payouts", a.out)
	if err != nil {
		printlnFn("error:", err)
		return err
	}

	baseline, err := a.notes.TotalWordCount(ctx, owner, sess.StorageKey)
	if err != nil {
		printlnFn("error:", err)
		return err
	}

	_, inv, err := a.stakes.CreateStake(ctx, owner, int(goal), reward, deposit, address, baseline)
	if err != nil {
		var verr *common.ValidationError
		if errors.As(err, &verr) {
			for field, msg := range verr.Fields {
				printlnFn(fmt.Sprintf("  %s: %s", field, msg))
			}
			return err
		}
		printlnFn("error:", err)
		return err
	}

	printlnFn("Pay this invoice to fund the stake:")
	printlnFn(inv.PaymentRequest)
	printlnFn("Waiting for the payment...")

	if err := a.stakes.AwaitPayment(ctx, owner, baseline); err != nil {
		if errors.Is(err, common.ErrStakeNotConfirmed) {
			printlnFn("Payment not seen yet. Run 'status' later to retry the check.")
			return err
		}
		printlnFn("error:", err)
		return err
	}
	printlnFn("Stake is active. Write!")
	return nil
}

// StakeStatus prints the stake record, re-checking a pending deposit.
func (a *App) StakeStatus(ctx context.Context) error {
	sess, err := a.requireLogin()
	if err != nil {
		return err
	}
	owner := sess.Identity.PublicKey

	st, err := a.stakes.Get(ctx, owner)
	if err != nil {
		printlnFn("error:", err)
		return err
	}

	if st.Status == models.StakePendingPayment {
		words, err := a.notes.TotalWordCount(ctx, owner, sess.StorageKey)
		if err != nil {
			printlnFn("error:", err)
			return err
		}
		ok, err := a.stakes.ConfirmPayment(ctx, owner, words)
		if err != nil {
			printlnFn("error:", err)
			return err
		}
		if ok {
			st, _ = a.stakes.Get(ctx, owner)
		}
	}

	switch st.Status {
	case models.StakeNone:
		printlnFn("No stake. Use 'stake' to create one.")
	case models.StakePendingPayment:
		printlnFn("Stake is waiting for the deposit payment.")
	case models.StakeCancelled:
		printlnFn("Stake was cancelled.")
	case models.StakeActive:
		printlnFn(fmt.Sprintf("Active: goal %d words/day, reward %d sats, balance %d sats, streak %d",
			st.DailyGoal, st.DailyReward, st.Balance, st.Streak))
	}
	return nil
}

// Progress records today's word count against the stake and reports whether
// the daily reward went out.
func (a *App) Progress(ctx context.Context) error {
	sess, err := a.requireLogin()
	if err != nil {
		return err
	}
	owner := sess.Identity.PublicKey

	words, err := a.notes.TotalWordCount(ctx, owner, sess.StorageKey)
	if err != nil {
		printlnFn("error:", err)
		return err
	}

	prog, err := a.stakes.RecordProgress(ctx, owner, words)
	if err != nil {
		if errors.Is(err, common.ErrStakeNotActive) {
			printlnFn("No active stake. Use 'stake' to create one.")
			return err
		}
		printlnFn("error:", err)
		return err
	}

	printlnFn(fmt.Sprintf("Today: %d/%d words", prog.WordsToday, prog.Goal))
	if prog.RewardSent {
		printlnFn(fmt.Sprintf("Reward sent. Streak %d, balance %d sats", prog.Streak, prog.BalanceSats))
	} else if prog.GoalMet {
		printlnFn("Goal met; reward pending")
	}
	return nil
}

// CancelStake forfeits the remaining balance after an explicit confirmation.
func (a *App) CancelStake(ctx context.Context) error {
	sess, err := a.requireLogin()
	if err != nil {
		return err
	}

	answer, err := GetSimpleText(a.reader, "Cancelling forfeits the remaining balance. Type 'yes' to confirm", a.out)
	if err != nil {
		printlnFn("error:", err)
		return err
	}
	if answer != "yes" {
		printlnFn("Kept the stake")
		return nil
	}

	forfeited, err := a.stakes.CancelStake(ctx, sess.Identity.PublicKey)
	if err != nil {
		printlnFn("error:", err)
		return err
	}
	printlnFn(fmt.Sprintf("Stake cancelled, %d sats forfeited", forfeited))
	return nil
}

// UpdateAddress changes the payout Lightning address.
func (a *App) UpdateAddress(ctx context.Context) error {
	sess, err := a.requireLogin()
	if err != nil {
		return err
	}

	address, err := GetSimpleText(a.reader, "- New Lightning address", a.out)
	if err != nil {
		printlnFn("error:", err)
		return err
	}
	if err := a.stakes.UpdatePayoutAddress(ctx, sess.Identity, address); err != nil {
		printlnFn("error:", err)
		return err
	}
	printlnFn("Payout address updated")
	return nil
}
