// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package postauction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSweepDropsSubmissionWithoutBidRequest(t *testing.T) {
	require := require.New(t)
	banker := &recordingBanker{}
	m := newTestMatcher(banker)
	m.cfg.LossTimeout = 10 * time.Millisecond

	// An early win with no auction ever arriving: no BidRequest, so the
	// sweeper must drop it rather than try to commit an outcome.
	m.DoEvent(&PostAuctionEvent{
		Type: Win, AuctionID: "A1", AdSpotID: "S1",
		WinPrice: usd(10), Timestamp: time.Now(), BidTimestamp: time.Now(),
	})
	require.True(m.submitted.Contains(MatchKey{Auction: "A1", AdSpot: "S1"}))

	time.Sleep(30 * time.Millisecond)
	m.Sweep()

	require.False(m.submitted.Contains(MatchKey{Auction: "A1", AdSpot: "S1"}))
	require.False(m.finished.Contains(MatchKey{Auction: "A1", AdSpot: "S1"}))
	require.Empty(banker.canceled)
	require.Empty(banker.won)
}

func TestSweepRemovesExpiredFinishedEntries(t *testing.T) {
	require := require.New(t)
	banker := &recordingBanker{}
	m := newTestMatcher(banker)
	m.cfg.WinTimeout = 10 * time.Millisecond

	auctionID, spotID := AuctionID("A1"), AdSpotID("S1")
	m.DoAuction(SubmittedAuctionEvent{
		AuctionID: auctionID, AdSpotID: spotID, LossTimeout: 15 * time.Second,
		BidRequest: testBidRequest(auctionID, spotID),
		BidResponse: BidResponse{
			Agent: "agent1", Account: "acct1", MaxPrice: usd(100),
			Priority: 1, WinCostModel: PassThroughWinCostModel{},
		},
	})
	m.DoEvent(&PostAuctionEvent{
		Type: Win, AuctionID: auctionID, AdSpotID: spotID,
		WinPrice: usd(80), Timestamp: time.Now(), BidTimestamp: time.Now(),
	})
	require.True(m.finished.Contains(MatchKey{Auction: auctionID, AdSpot: spotID}))

	time.Sleep(30 * time.Millisecond)
	m.Sweep()

	require.False(m.finished.Contains(MatchKey{Auction: auctionID, AdSpot: spotID}))
}

func TestSweepFlushesBankerReceipts(t *testing.T) {
	require := require.New(t)
	flushed := false
	banker := &flushTrackingBanker{recordingBanker: &recordingBanker{}, onFlush: func() { flushed = true }}
	m := newTestMatcher(banker)

	m.Sweep()
	require.True(flushed)
}

type flushTrackingBanker struct {
	*recordingBanker
	onFlush func()
}

func (b *flushTrackingBanker) LogBidEvents() {
	b.onFlush()
}
