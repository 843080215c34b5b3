// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package postauction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScenarioCampaignEventBeforeWin(t *testing.T) {
	require := require.New(t)
	banker := &recordingBanker{}
	m := newTestMatcher(banker)

	var matchedCampaign []MatchedCampaignEvent
	var unmatched []UnmatchedEvent
	m.sinks.OnMatchedCampaignEvent = func(ev MatchedCampaignEvent) { matchedCampaign = append(matchedCampaign, ev) }
	m.sinks.OnUnmatchedEvent = func(ev UnmatchedEvent) { unmatched = append(unmatched, ev) }

	auctionID, spotID := AuctionID("A1"), AdSpotID("S1")
	m.DoAuction(SubmittedAuctionEvent{
		AuctionID:   auctionID,
		AdSpotID:    spotID,
		LossTimeout: 15 * time.Second,
		BidRequest:  testBidRequest(auctionID, spotID),
		BidResponse: BidResponse{
			Agent:        "agent1",
			Account:      "acct1",
			MaxPrice:     usd(100),
			Priority:     1,
			WinCostModel: PassThroughWinCostModel{},
		},
	})

	m.DoEvent(&PostAuctionEvent{
		Type:      CampaignEvent,
		AuctionID: auctionID,
		AdSpotID:  spotID,
		Label:     "IMPRESSION",
		Timestamp: time.Now(),
	})

	require.Len(unmatched, 1)
	require.Equal(ReasonInFlight, unmatched[0].Reason)
	require.Empty(matchedCampaign)

	sub, ok := m.submitted.Get(MatchKey{Auction: auctionID, AdSpot: spotID})
	require.True(ok)
	require.Len(sub.EarlyCampaignEvents, 1)

	m.DoEvent(&PostAuctionEvent{
		Type:         Win,
		AuctionID:    auctionID,
		AdSpotID:     spotID,
		WinPrice:     usd(80),
		Timestamp:    time.Now(),
		BidTimestamp: time.Now(),
	})

	require.Len(matchedCampaign, 1)
	require.Equal("IMPRESSION", matchedCampaign[0].Label)

	info, ok := m.finished.Get(MatchKey{Auction: auctionID, AdSpot: spotID})
	require.True(ok)
	require.True(info.CampaignEvents.HasEvent("IMPRESSION"))
}

func TestCampaignEventDuplicateLabel(t *testing.T) {
	require := require.New(t)
	banker := &recordingBanker{}
	m := newTestMatcher(banker)

	auctionID, spotID := AuctionID("A1"), AdSpotID("S1")
	m.DoAuction(SubmittedAuctionEvent{
		AuctionID:   auctionID,
		AdSpotID:    spotID,
		LossTimeout: 15 * time.Second,
		BidRequest:  testBidRequest(auctionID, spotID),
		BidResponse: BidResponse{
			Agent: "agent1", Account: "acct1", MaxPrice: usd(100),
			Priority: 1, WinCostModel: PassThroughWinCostModel{},
		},
	})
	m.DoEvent(&PostAuctionEvent{
		Type: Win, AuctionID: auctionID, AdSpotID: spotID,
		WinPrice: usd(80), Timestamp: time.Now(), BidTimestamp: time.Now(),
	})

	var matchedCampaign []MatchedCampaignEvent
	var unmatched []UnmatchedEvent
	m.sinks.OnMatchedCampaignEvent = func(ev MatchedCampaignEvent) { matchedCampaign = append(matchedCampaign, ev) }
	m.sinks.OnUnmatchedEvent = func(ev UnmatchedEvent) { unmatched = append(unmatched, ev) }

	m.DoEvent(&PostAuctionEvent{Type: CampaignEvent, AuctionID: auctionID, AdSpotID: spotID, Label: "CLICK", Timestamp: time.Now()})
	require.Len(matchedCampaign, 1)

	m.DoEvent(&PostAuctionEvent{Type: CampaignEvent, AuctionID: auctionID, AdSpotID: spotID, Label: "CLICK", Timestamp: time.Now()})
	require.Len(matchedCampaign, 1)
	require.Len(unmatched, 1)
	require.Equal(ReasonDuplicate, unmatched[0].Reason)
}

func TestCampaignEventAuctionNotFound(t *testing.T) {
	require := require.New(t)
	banker := &recordingBanker{}
	m := newTestMatcher(banker)

	var unmatched []UnmatchedEvent
	m.sinks.OnUnmatchedEvent = func(ev UnmatchedEvent) { unmatched = append(unmatched, ev) }

	m.DoEvent(&PostAuctionEvent{Type: CampaignEvent, AuctionID: "unknown", AdSpotID: "s1", Label: "CLICK", Timestamp: time.Now()})
	require.Len(unmatched, 1)
	require.Equal(ReasonAuctionNotFound, unmatched[0].Reason)
}

func TestCampaignEventPrefixCompletion(t *testing.T) {
	require := require.New(t)
	banker := &recordingBanker{}
	m := newTestMatcher(banker)

	auctionID, spotID := AuctionID("A1"), AdSpotID("S1")
	m.DoAuction(SubmittedAuctionEvent{
		AuctionID:   auctionID,
		AdSpotID:    spotID,
		LossTimeout: 15 * time.Second,
		BidRequest:  testBidRequest(auctionID, spotID),
		BidResponse: BidResponse{
			Agent: "agent1", Account: "acct1", MaxPrice: usd(100),
			Priority: 1, WinCostModel: PassThroughWinCostModel{},
		},
	})
	m.DoEvent(&PostAuctionEvent{
		Type: Win, AuctionID: auctionID, AdSpotID: spotID,
		WinPrice: usd(80), Timestamp: time.Now(), BidTimestamp: time.Now(),
	})

	var matchedCampaign []MatchedCampaignEvent
	m.sinks.OnMatchedCampaignEvent = func(ev MatchedCampaignEvent) { matchedCampaign = append(matchedCampaign, ev) }

	// The exchange omits the ad-spot; correlation must prefix-complete
	// against the only spot pending for the auction.
	m.DoEvent(&PostAuctionEvent{Type: CampaignEvent, AuctionID: auctionID, AdSpotID: "", Label: "CLICK", Timestamp: time.Now()})
	require.Len(matchedCampaign, 1)
}
