// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luxfi/postauction/pkg/crypto"
	"github.com/luxfi/postauction/pkg/log"
)

// ErrDuplicateReservation means Reserve was called twice for the same
// bid id without an intervening Commit/Release.
var ErrDuplicateReservation = errors.New("reservation already exists for bid")

// BudgetManager is the financial bookkeeping ledger behind the
// post-auction banker glue (see pkg/postauction.BudgetBanker): it
// reserves funds when a bid is submitted, commits them on a win (at
// possibly a different price than reserved), and releases them on a
// loss or cancellation. Every operation is keyed by an opaque account
// path and the exchange's bid transaction id, per the banker contract
// the matcher depends on.
//
// Adapted from the original single-shot Deduct/Settle budget model: that
// model tracked only a point-in-time spend against a pre-funded total.
// The post-auction matcher needs the intermediate "reserved, not yet
// spent" state a submission lives in between attachBid and winBid/
// cancelBid, so this version tracks Reserved and Spent independently.
type BudgetManager struct {
	mu           sync.RWMutex
	budgets      map[string]*Budget
	reservations map[string]*reservation
	receipts     []*SettlementReceipt
	log          log.Logger
}

// Budget represents an account's budget state.
type Budget struct {
	Account     string
	Total       decimal.Decimal
	Reserved    decimal.Decimal
	Spent       decimal.Decimal
	Remaining   decimal.Decimal // Total - Reserved - Spent; may go negative for unfunded accounts
	Commitment  []byte          // Commitment to budget state, for audit
	LastUpdated time.Time
}

type reservation struct {
	Account string
	BidID   string
	Amount  decimal.Decimal
}

// SettlementReceipt records one completed financial operation for
// downstream audit/flush.
type SettlementReceipt struct {
	Account   string
	BidID     string
	Kind      string // "win", "force_win", or "cancel"
	Amount    decimal.Decimal
	Recorded  time.Time
	Proof     []byte
}

// NewBudgetManager creates a new budget manager.
func NewBudgetManager(logger log.Logger) *BudgetManager {
	if logger == nil {
		logger = log.NoOp()
	}
	return &BudgetManager{
		budgets:      make(map[string]*Budget),
		reservations: make(map[string]*reservation),
		receipts:     make([]*SettlementReceipt, 0),
		log:          logger,
	}
}

// SetBudget sets (or resets) the total budget for an account. Calling it
// is optional: accounts reserved against without a prior SetBudget are
// auto-vivified with a zero total and simply track a running (possibly
// negative) remaining balance, since banker calls must return promptly
// and never fail the correlation itself.
func (bm *BudgetManager) SetBudget(account string, amount decimal.Decimal) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	budget := bm.getOrCreate(account)
	budget.Total = amount
	budget.Remaining = bm.remaining(budget)
	budget.LastUpdated = time.Now()
	budget.Commitment = bm.createBudgetCommitment(budget)

	bm.log.Debug("budget set")
}

// GetBudget returns the current budget snapshot for an account.
func (bm *BudgetManager) GetBudget(account string) (Budget, bool) {
	bm.mu.RLock()
	defer bm.mu.RUnlock()

	b, ok := bm.budgets[account]
	if !ok {
		return Budget{}, false
	}
	return *b, true
}

// Reserve earmarks maxPrice against account under bidID. It is the
// bookkeeping behind Banker.AttachBid.
func (bm *BudgetManager) Reserve(account, bidID string, maxPrice decimal.Decimal) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if _, exists := bm.reservations[bidID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateReservation, bidID)
	}

	budget := bm.getOrCreate(account)
	bm.reservations[bidID] = &reservation{Account: account, BidID: bidID, Amount: maxPrice}
	budget.Reserved = budget.Reserved.Add(maxPrice)
	budget.Remaining = bm.remaining(budget)
	budget.LastUpdated = time.Now()
	budget.Commitment = bm.createBudgetCommitment(budget)

	bm.log.Debug("budget reserved")
	return nil
}

// Commit converts a prior Reserve into a spend at price (which may differ
// from the reserved maxPrice — the win-cost model's job). It is the
// bookkeeping behind Banker.WinBid.
func (bm *BudgetManager) Commit(account, bidID string, price decimal.Decimal) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	budget := bm.getOrCreate(account)
	if res, ok := bm.reservations[bidID]; ok {
		delete(bm.reservations, bidID)
		budget.Reserved = budget.Reserved.Sub(res.Amount)
		if budget.Reserved.IsNegative() {
			budget.Reserved = decimal.Zero
		}
	}

	budget.Spent = budget.Spent.Add(price)
	budget.Remaining = bm.remaining(budget)
	budget.LastUpdated = time.Now()
	budget.Commitment = bm.createBudgetCommitment(budget)

	bm.receipts = append(bm.receipts, &SettlementReceipt{
		Account:  account,
		BidID:    bidID,
		Kind:     "win",
		Amount:   price,
		Recorded: time.Now(),
		Proof:    bm.generateSettlementProof(account, bidID, price),
	})

	bm.log.Info("budget committed")
	return nil
}

// ForceCommit spends price against account without a prior reservation —
// the bookkeeping behind Banker.ForceWinBid, used for late or orphan wins
// where no submission ever reserved funds.
func (bm *BudgetManager) ForceCommit(account string, price decimal.Decimal) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	budget := bm.getOrCreate(account)
	budget.Spent = budget.Spent.Add(price)
	budget.Remaining = bm.remaining(budget)
	budget.LastUpdated = time.Now()
	budget.Commitment = bm.createBudgetCommitment(budget)

	bm.receipts = append(bm.receipts, &SettlementReceipt{
		Account:  account,
		BidID:    "",
		Kind:     "force_win",
		Amount:   price,
		Recorded: time.Now(),
		Proof:    bm.generateSettlementProof(account, "forced", price),
	})

	bm.log.Info("budget force-committed")
	return nil
}

// Release cancels a prior Reserve without spending it — the bookkeeping
// behind Banker.CancelBid. Releasing an unknown, already-released or
// already-committed bidID is a no-op that returns nil.
func (bm *BudgetManager) Release(account, bidID string) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	res, ok := bm.reservations[bidID]
	if !ok {
		return nil
	}
	delete(bm.reservations, bidID)

	budget := bm.getOrCreate(account)
	budget.Reserved = budget.Reserved.Sub(res.Amount)
	if budget.Reserved.IsNegative() {
		budget.Reserved = decimal.Zero
	}
	budget.Remaining = bm.remaining(budget)
	budget.LastUpdated = time.Now()
	budget.Commitment = bm.createBudgetCommitment(budget)

	bm.receipts = append(bm.receipts, &SettlementReceipt{
		Account:  account,
		BidID:    bidID,
		Kind:     "cancel",
		Amount:   res.Amount,
		Recorded: time.Now(),
	})

	bm.log.Debug("budget released")
	return nil
}

// Flush drains and returns the accumulated receipts since the last
// flush, for the periodic sweep to hand to telemetry.
func (bm *BudgetManager) Flush() []*SettlementReceipt {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	out := bm.receipts
	bm.receipts = make([]*SettlementReceipt, 0)
	return out
}

func (bm *BudgetManager) getOrCreate(account string) *Budget {
	b, ok := bm.budgets[account]
	if !ok {
		b = &Budget{Account: account, Total: decimal.Zero, Reserved: decimal.Zero, Spent: decimal.Zero}
		bm.budgets[account] = b
	}
	return b
}

func (bm *BudgetManager) remaining(b *Budget) decimal.Decimal {
	return b.Total.Sub(b.Reserved).Sub(b.Spent)
}

// createBudgetCommitment creates a commitment to the current budget
// state, for audit. Kept from the original ZK-flavored budget model;
// generalized to decimal amounts via their canonical string form.
func (bm *BudgetManager) createBudgetCommitment(budget *Budget) []byte {
	data := fmt.Sprintf("%s|%s|%s|%s", budget.Account,
		budget.Total.String(), budget.Reserved.String(), budget.Spent.String())
	return crypto.CreateCommitment([]byte(data))
}

// generateSettlementProof generates an audit commitment for a completed
// settlement. Simplified proof generation, same caveat as the original:
// in production this would be a real ZK proof of correct settlement.
func (bm *BudgetManager) generateSettlementProof(account, bidID string, amount decimal.Decimal) []byte {
	data := fmt.Sprintf("%s|%s|%s|%d", account, bidID, amount.String(), time.Now().UnixNano())
	return crypto.CreateCommitment([]byte(data))
}
