// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package postauction

import (
	"fmt"
	"time"
)

// DoEvent is the sole entry point for win/loss and campaign-delivery
// events. Any panic escaping a handler is recovered, logged, counted,
// and swallowed here — ingestion is the only place in the matcher
// allowed to do that, since one malformed event must never poison the
// rest of the stream.
func (m *Matcher) DoEvent(evt *PostAuctionEvent) {
	defer m.recoverEvent("doEvent", evt.Type.String())

	switch evt.Type {
	case Win, Loss:
		m.doWinLoss(evt, false)
	case CampaignEvent:
		m.doCampaignEvent(evt)
	default:
		panic(fatalEventError{
			scope:   "doEvent.unknownType",
			message: fmt.Sprintf("unknown event type %d", evt.Type),
		})
	}
}

// DoAuction ingests the auctioneer's notification that a bid was placed
// and now awaits an outcome. It moves (or creates) the submission
// record, attaches the bid with the banker, and replays any win events
// that arrived before this notification did.
func (m *Matcher) DoAuction(evt SubmittedAuctionEvent) {
	defer m.recoverEvent("doAuction", "")

	m.telemetry.RecordHit("processedAuction")

	key := MatchKey{Auction: evt.AuctionID, AdSpot: evt.AdSpotID}

	var submission SubmissionInfo
	var earlyWinEvents []*PostAuctionEvent
	if existing, ok := m.submitted.Pop(key); ok {
		submission = existing
		earlyWinEvents = submission.EarlyWinEvents
		submission.EarlyWinEvents = nil
		m.telemetry.RecordHit("auctionAlreadySubmitted")
	}

	submission.BidRequest = evt.BidRequest
	submission.BidRequestStr = evt.BidRequestStr
	submission.BidRequestStrFormat = evt.BidRequestStrFormat
	submission.Augmentations = evt.Augmentations
	submission.Bid = evt.BidResponse

	lossTimeout := evt.LossTimeout
	if lossTimeout <= 0 {
		lossTimeout = m.cfg.LossTimeout
	}
	m.submitted.Insert(key, submission, time.Now().Add(lossTimeout))

	bidID := MakeBidID(evt.AuctionID, evt.AdSpotID, evt.BidResponse.Agent)
	if err := m.banker.AttachBid(evt.BidResponse.Account, bidID, EmptyLineItems, evt.BidResponse.MaxPrice); err != nil {
		m.telemetry.DoError("doAuction.attachBid", err.Error())
	}

	for _, early := range earlyWinEvents {
		m.telemetry.RecordHit("replayedEarlyWinEvent")
		m.doWinLoss(early, true)
	}
}

// Sweep drives the expiry sweeper once. See sweeper.go.
func (m *Matcher) Sweep() {
	defer m.recoverEvent("checkExpiredAuctions", "")
	m.sweep()
}

func (m *Matcher) recoverEvent(scope, label string) {
	if r := recover(); r != nil {
		if fe, ok := r.(fatalEventError); ok {
			m.telemetry.DoError(fe.scope, fe.message)
			m.log.Error(fmt.Sprintf("%s(%s) fatal: %s", scope, label, fe.Error()))
			return
		}
		m.telemetry.DoError(scope, fmt.Sprintf("recovered panic: %v", r))
		m.log.Error(fmt.Sprintf("%s(%s) recovered: %v", scope, label, r))
	}
}

// fatalEventError marks a programmer-invariant violation: an empty
// ad-spot ID in a finished update, a no-bid response reaching
// doBidResult, or an event of unknown type. Per spec §7 these are
// raised as panics rather than doError-and-return so any deferred
// financial release (see doBidResult's scoped release) still runs
// during unwind, then are caught here, logged, and counted — never
// escaping a single event.
type fatalEventError struct {
	scope   string
	message string
}

func (e fatalEventError) Error() string {
	return e.scope + ": " + e.message
}
