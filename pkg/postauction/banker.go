// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package postauction

import (
	"github.com/shopspring/decimal"

	"github.com/luxfi/postauction/pkg/log"
	"github.com/luxfi/postauction/pkg/settlement"
)

// LineItems is the set of accounts a bid's spend is attributed to
// (campaign, strategy, exchange...). The matcher does not interpret
// these beyond handing them to the Banker; it is opaque line-item
// bookkeeping the host's accounting system owns.
type LineItems map[string]string

// EmptyLineItems is the zero value used when a bid carries no specific
// attribution — a plain no-op line-item set.
var EmptyLineItems = LineItems{}

// Banker is the financial glue the matcher calls at each stage of a
// bid's life: attach funds when it's submitted, commit them on a win,
// force a commit for a late or orphan win that never had a prior
// attach, or release them on a loss/cancel. Implementations must
// return promptly — the matcher's single-threaded loop blocks on
// these calls, per the cooperative concurrency model.
type Banker interface {
	// AttachBid earmarks maxPrice for bidID under account, ahead of
	// knowing the auction's outcome.
	AttachBid(account AccountKey, bidID BidID, items LineItems, maxPrice Amount) error
	// WinBid converts a prior AttachBid into a spend at winPrice, which
	// may differ from maxPrice.
	WinBid(account AccountKey, bidID BidID, items LineItems, winPrice Amount) error
	// ForceWinBid spends winPrice against account with no prior
	// AttachBid — used for late or orphan wins.
	ForceWinBid(account AccountKey, items LineItems, winPrice Amount) error
	// CancelBid releases a prior AttachBid without spending it.
	CancelBid(account AccountKey, bidID BidID, items LineItems) error
	// LogBidEvents flushes accumulated settlement receipts to whatever
	// durable log or telemetry sink the banker maintains.
	LogBidEvents()
}

// BudgetBanker implements Banker over a settlement.BudgetManager,
// translating the matcher's account/bid vocabulary into the ledger's
// plain string keys and decimal amounts, and surfacing each flushed
// receipt through Telemetry.
type BudgetBanker struct {
	ledger    *settlement.BudgetManager
	telemetry Telemetry
	log       log.Logger
}

// NewBudgetBanker builds a Banker backed by a fresh settlement ledger.
func NewBudgetBanker(telemetry Telemetry, logger log.Logger) *BudgetBanker {
	if logger == nil {
		logger = log.NoOp()
	}
	if telemetry == nil {
		telemetry = NoOpTelemetry()
	}
	return &BudgetBanker{
		ledger:    settlement.NewBudgetManager(logger),
		telemetry: telemetry,
		log:       logger,
	}
}

// AttachBid implements Banker.
func (b *BudgetBanker) AttachBid(account AccountKey, bidID BidID, _ LineItems, maxPrice Amount) error {
	if err := b.ledger.Reserve(account.String(), string(bidID), toDecimal(maxPrice)); err != nil {
		b.telemetry.DoError("banker.attachBid", err.Error())
		return err
	}
	b.telemetry.RecordHit("banker.attachBid")
	return nil
}

// WinBid implements Banker.
func (b *BudgetBanker) WinBid(account AccountKey, bidID BidID, _ LineItems, winPrice Amount) error {
	if err := b.ledger.Commit(account.String(), string(bidID), toDecimal(winPrice)); err != nil {
		b.telemetry.DoError("banker.winBid", err.Error())
		return err
	}
	b.telemetry.RecordHit("banker.winBid")
	b.telemetry.RecordOutcome(winPrice.Value.InexactFloat64(), "banker.winPrice")
	return nil
}

// ForceWinBid implements Banker.
func (b *BudgetBanker) ForceWinBid(account AccountKey, _ LineItems, winPrice Amount) error {
	if err := b.ledger.ForceCommit(account.String(), toDecimal(winPrice)); err != nil {
		b.telemetry.DoError("banker.forceWinBid", err.Error())
		return err
	}
	b.telemetry.RecordHit("banker.forceWinBid")
	b.telemetry.RecordOutcome(winPrice.Value.InexactFloat64(), "banker.forcedWinPrice")
	return nil
}

// CancelBid implements Banker.
func (b *BudgetBanker) CancelBid(account AccountKey, bidID BidID, _ LineItems) error {
	if err := b.ledger.Release(account.String(), string(bidID)); err != nil {
		b.telemetry.DoError("banker.cancelBid", err.Error())
		return err
	}
	b.telemetry.RecordHit("banker.cancelBid")
	return nil
}

// LogBidEvents implements Banker: it drains the ledger's receipt log
// and surfaces each one as telemetry, the way the matcher's periodic
// sweep is expected to call it.
func (b *BudgetBanker) LogBidEvents() {
	for _, receipt := range b.ledger.Flush() {
		b.telemetry.RecordHit("banker.receipt", receipt.Kind)
		b.telemetry.RecordOutcome(receipt.Amount.InexactFloat64(), "banker.receiptAmount", receipt.Kind)
	}
}

func toDecimal(a Amount) decimal.Decimal {
	return a.Value
}
