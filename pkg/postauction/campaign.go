// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package postauction

import (
	"fmt"
	"sync/atomic"
)

// doCampaignEvent correlates a delivery event (impression, click, ...)
// against whichever pending table currently holds its auction. An
// empty AdSpotID triggers a prefix search across every spot pending
// for the auction.
//
// Early campaign events (arriving while the auction is still in
// flight) are buffered on the submission and replayed, in FIFO order,
// once the win/loss notification resolves the auction — treating the
// buffer-and-replay behavior as authoritative rather than dropping the
// event, even though it means holding state a reader might expect to
// be discarded.
func (m *Matcher) doCampaignEvent(evt *PostAuctionEvent) {
	label := evt.Label
	auctionID := evt.AuctionID
	adSpotID := evt.AdSpotID

	m.telemetry.RecordHit(fmt.Sprintf("delivery.%s.messagesReceived", label))

	if key, submission, ok := m.findSubmitted(auctionID, adSpotID); ok {
		m.telemetry.RecordHit(fmt.Sprintf("delivery.%s.stillInFlight", label))
		m.telemetry.DoError("doCampaignEvent.auctionNotWon."+label, "message for auction that's not won")
		m.sinks.unmatchedEvent(UnmatchedEvent{Reason: ReasonInFlight, Event: evt})

		submission.EarlyCampaignEvents = append(submission.EarlyCampaignEvents, evt)
		m.submitted.Update(key, submission)
		return
	}

	if key, info, ok := m.findFinished(auctionID, adSpotID); ok {
		if info.CampaignEvents.HasEvent(label) {
			m.telemetry.RecordHit(fmt.Sprintf("delivery.%s.duplicate", label))
			m.telemetry.DoError("doCampaignEvent.duplicate."+label, "message duplicated")
			m.sinks.unmatchedEvent(UnmatchedEvent{Reason: ReasonDuplicate, Event: evt})
			return
		}

		if info.CampaignEvents == nil {
			info.CampaignEvents = make(CampaignEvents)
		}
		info.CampaignEvents.SetEvent(label, evt.Timestamp, evt.Metadata)
		atomic.AddInt64(&m.numCampaignEvents, 1)

		m.telemetry.RecordHit(fmt.Sprintf("delivery.%s.account.%s.matched", label, info.Bid.Account))

		if key.AdSpot.Empty() {
			panic(fatalEventError{
				scope:   "doCampaignEvent.nullAdSpotId",
				message: "updating null entry in finished map",
			})
		}

		info.AddUIDs(evt.UIDs)
		m.finished.Update(key, info)

		m.sinks.matchedCampaignEvent(MatchedCampaignEvent{Label: label, Info: info})
		return
	}

	m.telemetry.RecordHit(fmt.Sprintf("delivery.%s.auctionNotFound", label))
	m.telemetry.DoError("doCampaignEvent.auctionNotFound."+label, "auction not found for delivery message")
	m.sinks.unmatchedEvent(UnmatchedEvent{Reason: ReasonAuctionNotFound, Event: evt})
}

// findSubmitted resolves a (possibly prefix) lookup against the
// submitted table, mirroring the original source's findAuction
// overload used by campaign-event correlation.
func (m *Matcher) findSubmitted(auctionID AuctionID, adSpotID AdSpotID) (MatchKey, SubmissionInfo, bool) {
	key := MatchKey{Auction: auctionID, AdSpot: adSpotID}
	if adSpotID.Empty() {
		completed, ok := m.submitted.CompletePrefix(auctionID)
		if !ok {
			return MatchKey{}, SubmissionInfo{}, false
		}
		key = completed
	}
	info, ok := m.submitted.Get(key)
	return key, info, ok
}

// findFinished resolves a (possibly prefix) lookup against the
// finished table.
func (m *Matcher) findFinished(auctionID AuctionID, adSpotID AdSpotID) (MatchKey, FinishedInfo, bool) {
	key := MatchKey{Auction: auctionID, AdSpot: adSpotID}
	if adSpotID.Empty() {
		completed, ok := m.finished.CompletePrefix(auctionID)
		if !ok {
			return MatchKey{}, FinishedInfo{}, false
		}
		key = completed
	}
	info, ok := m.finished.Get(key)
	return key, info, ok
}
