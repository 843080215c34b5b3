// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package postauction

import (
	"sync"
	"time"

	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/shopspring/decimal"
)

// recordingBanker is a test double that records every call it
// receives, so scenario tests can assert exactly one of
// winBid/forceWinBid/cancelBid fired per submission (spec invariant).
type recordingBanker struct {
	mu sync.Mutex

	attached []bankerCall
	won      []bankerCall
	forced   []bankerCall
	canceled []bankerCall
}

type bankerCall struct {
	Account AccountKey
	BidID   BidID
	Price   Amount
}

func (b *recordingBanker) AttachBid(account AccountKey, bidID BidID, _ LineItems, maxPrice Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attached = append(b.attached, bankerCall{account, bidID, maxPrice})
	return nil
}

func (b *recordingBanker) WinBid(account AccountKey, bidID BidID, _ LineItems, winPrice Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.won = append(b.won, bankerCall{account, bidID, winPrice})
	return nil
}

func (b *recordingBanker) ForceWinBid(account AccountKey, _ LineItems, winPrice Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forced = append(b.forced, bankerCall{account, "", winPrice})
	return nil
}

func (b *recordingBanker) CancelBid(account AccountKey, bidID BidID, _ LineItems) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.canceled = append(b.canceled, bankerCall{account, bidID, Amount{}})
	return nil
}

func (b *recordingBanker) LogBidEvents() {}

func usd(v float64) Amount {
	return Amount{Value: decimal.NewFromFloat(v), Currency: "USD"}
}

func testBidRequest(auctionID AuctionID, adSpotID AdSpotID) *openrtb2.BidRequest {
	return &openrtb2.BidRequest{
		ID:  auctionID.String(),
		Imp: []openrtb2.Imp{{ID: adSpotID.String()}},
	}
}

func newTestMatcher(banker Banker) *Matcher {
	cfg := Config{
		LossTimeout:    15 * time.Second,
		WinTimeout:     time.Hour,
		AuctionTimeout: time.Hour,
		SweepInterval:  time.Second,
	}
	return New(cfg, banker, NoOpTelemetry(), Sinks{}, nil)
}
