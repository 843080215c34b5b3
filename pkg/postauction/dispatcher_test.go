// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package postauction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestDoEventUnknownTypeIsRecovered covers spec §7's third error-handling
// category: an event of unknown type is a programmer invariant violation,
// raised as a fatal per-event exception that DoEvent must recover, log,
// and count rather than let escape and take down the rest of the stream.
func TestDoEventUnknownTypeIsRecovered(t *testing.T) {
	require := require.New(t)
	m := newTestMatcher(&recordingBanker{})

	require.NotPanics(func() {
		m.DoEvent(&PostAuctionEvent{Type: EventType(99), AuctionID: "A1", AdSpotID: "S1"})
	})
}

// TestDoCampaignEventNullAdSpotIsRecovered covers the other spec §4.4
// fatal case: updating `finished` via a prefix match that resolves to an
// empty ad-spot ID.
func TestDoCampaignEventNullAdSpotIsRecovered(t *testing.T) {
	require := require.New(t)
	banker := &recordingBanker{}
	m := newTestMatcher(banker)

	auctionID := AuctionID("A1")
	m.finished.Insert(MatchKey{Auction: auctionID, AdSpot: ""}, FinishedInfo{
		AuctionID:      auctionID,
		AdSpotID:       "",
		CampaignEvents: make(CampaignEvents),
	}, time.Now().Add(time.Hour))

	require.NotPanics(func() {
		m.DoEvent(&PostAuctionEvent{
			Type:      CampaignEvent,
			AuctionID: auctionID,
			AdSpotID:  "",
			Label:     "click",
		})
	})
}
