// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package postauction

import (
	"time"

	"github.com/prebid/openrtb/v20/openrtb2"
)

// EventType tags the inbound PostAuctionEvent union.
type EventType int

const (
	// Win is an exchange-reported win notification.
	Win EventType = iota
	// Loss is an exchange-reported loss notification.
	Loss
	// CampaignEvent is a delivery/attribution signal (impression, click, ...).
	CampaignEvent
)

// String renders the event type for telemetry counter names.
func (t EventType) String() string {
	switch t {
	case Win:
		return "WIN"
	case Loss:
		return "LOSS"
	case CampaignEvent:
		return "CAMPAIGN_EVENT"
	default:
		return "UNKNOWN"
	}
}

// PostAuctionEvent is the inbound win/loss/campaign-event notification.
type PostAuctionEvent struct {
	Type        EventType
	AuctionID   AuctionID
	AdSpotID    AdSpotID
	Label       string // set only for CampaignEvent
	WinPrice    Amount
	Timestamp   time.Time
	BidTimestamp time.Time
	Metadata    string
	UIDs        UserIDs
	Account     AccountKey // set only for orphan wins, see winloss.go Case C
}

// SubmittedAuctionEvent is the auctioneer's notification that a bid was
// placed and awaits outcome.
type SubmittedAuctionEvent struct {
	AuctionID           AuctionID
	AdSpotID            AdSpotID
	LossTimeout         time.Duration
	BidRequest          *openrtb2.BidRequest
	BidRequestStr       string
	BidRequestStrFormat string
	Augmentations       map[string]string
	BidResponse         BidResponse
}

// MatchedWinLossKind distinguishes a guaranteed win/loss from one
// overlaid after an inferred loss had already been recorded.
type MatchedWinLossKind int

const (
	// KindWin is a win reported by the exchange before any loss was
	// recorded for the key.
	KindWin MatchedWinLossKind = iota
	// KindLoss is a loss, reported by the exchange or inferred by the
	// sweeper.
	KindLoss
	// KindLateWin is a WIN that arrived after an inferred loss.
	KindLateWin
)

// Confidence reflects how certain a win/loss outcome is: wins reported
// by the exchange are Guaranteed, losses are Inferred.
type Confidence int

const (
	// Guaranteed is used for wins the exchange reported, including late
	// wins.
	Guaranteed Confidence = iota
	// Inferred is used for every loss: those the sweeper synthesized
	// from a timeout and those the exchange reported.
	Inferred
)

// MatchedWinLoss is emitted whenever a win or loss is durably recorded.
type MatchedWinLoss struct {
	Kind       MatchedWinLossKind
	Confidence Confidence
	Info       FinishedInfo
	Timestamp  time.Time
	UIDs       UserIDs
}

// MatchedCampaignEvent is emitted whenever a delivery event is correlated
// against a finished (won or lost) auction.
type MatchedCampaignEvent struct {
	Label string
	Info  FinishedInfo
}

// UnmatchedReason explains why an event could not be correlated yet (or
// ever).
type UnmatchedReason string

const (
	// ReasonInFlight means the auction is still pending a win/loss.
	ReasonInFlight UnmatchedReason = "inFlight"
	// ReasonDuplicate means this label was already recorded.
	ReasonDuplicate UnmatchedReason = "duplicate"
	// ReasonAuctionNotFound means neither pending map has this auction.
	ReasonAuctionNotFound UnmatchedReason = "auctionNotFound"
)

// UnmatchedEvent exposes every event the matcher could not correlate, for
// downstream audit.
type UnmatchedEvent struct {
	Reason UnmatchedReason
	Event  *PostAuctionEvent
}

// Sinks is an optional capability record of outcome callbacks, injected
// at construction. An absent sink means "drop silently" — no inheritance,
// just plain functions.
type Sinks struct {
	OnMatchedWinLoss      func(MatchedWinLoss)
	OnMatchedCampaignEvent func(MatchedCampaignEvent)
	OnUnmatchedEvent      func(UnmatchedEvent)
}

func (s Sinks) matchedWinLoss(ev MatchedWinLoss) {
	if s.OnMatchedWinLoss != nil {
		s.OnMatchedWinLoss(ev)
	}
}

func (s Sinks) matchedCampaignEvent(ev MatchedCampaignEvent) {
	if s.OnMatchedCampaignEvent != nil {
		s.OnMatchedCampaignEvent(ev)
	}
}

func (s Sinks) unmatchedEvent(ev UnmatchedEvent) {
	if s.OnUnmatchedEvent != nil {
		s.OnUnmatchedEvent(ev)
	}
}
