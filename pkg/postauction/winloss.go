// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package postauction

import (
	"fmt"
	"sync/atomic"
	"time"
)

// doWinLoss reconciles a single WIN or LOSS notification against the
// pending tables. isReplay only changes which telemetry counter gets
// bumped (…messagesReplayed vs …messagesReceived) — it carries no
// semantic weight beyond that.
func (m *Matcher) doWinLoss(evt *PostAuctionEvent, isReplay bool) {
	var status BidStatus
	if evt.Type == Win {
		atomic.AddInt64(&m.numWins, 1)
		status = StatusWin
		m.telemetry.RecordHit("processedWin")
	} else {
		atomic.AddInt64(&m.numLosses, 1)
		status = StatusLoss
		m.telemetry.RecordHit("processedLoss")
	}

	typeStr := status.String()
	if isReplay {
		m.telemetry.RecordHit(fmt.Sprintf("bidResult.%s.messagesReplayed", typeStr))
	} else {
		m.telemetry.RecordHit(fmt.Sprintf("bidResult.%s.messagesReceived", typeStr))
	}

	key := MatchKey{Auction: evt.AuctionID, AdSpot: evt.AdSpotID}
	gapMs := func() float64 {
		if evt.BidTimestamp.IsZero() {
			return 0
		}
		return 1000 * time.Since(evt.BidTimestamp).Seconds()
	}

	// Case A: the auction is already finished — either a WIN was
	// already recorded (possible duplicate) or it timed out and was
	// inferred as a LOSS (possible late win).
	if info, ok := m.finished.Get(key); ok {
		if info.HasWin() && status == info.ReportedStatus {
			if evt.WinPrice.Equal(info.WinPrice) {
				m.telemetry.RecordHit(fmt.Sprintf("bidResult.%s.duplicate", typeStr))
			} else {
				m.telemetry.RecordHit(fmt.Sprintf("bidResult.%s.duplicateWithDifferentPrice", typeStr))
			}
			return
		}
		m.telemetry.RecordHit(fmt.Sprintf("bidResult.%s.auctionAlreadyFinished", typeStr))
		m.telemetry.RecordOutcome(gapMs(), fmt.Sprintf("bidResult.%s.alreadyFinishedTimeSinceBidSubmittedMs", typeStr))

		if evt.Type == Win {
			// Late win: a WIN arriving after an inferred loss supersedes it.
			if err := m.banker.ForceWinBid(info.Bid.Account, EmptyLineItems, evt.WinPrice); err != nil {
				m.telemetry.DoError("doWinLoss.forceWinBid", err.Error())
			}

			info.ForceWin(evt.WinPrice, evt.Metadata)
			m.finished.Update(key, info)

			m.sinks.matchedWinLoss(MatchedWinLoss{
				Kind:       KindLateWin,
				Confidence: Guaranteed,
				Info:       info,
				Timestamp:  evt.Timestamp,
				UIDs:       evt.UIDs,
			})

			m.telemetry.RecordHit(fmt.Sprintf("bidResult.%s.winAfterLossAssumed", typeStr))
			m.telemetry.RecordOutcome(evt.WinPrice.Value.InexactFloat64(),
				fmt.Sprintf("bidResult.%s.winAfterLossAssumedAmount.%s", typeStr, evt.WinPrice.Currency))
		}
		return
	}

	// Case B: the auction is still in flight.
	if m.submitted.Contains(key) {
		info, _ := m.submitted.Pop(key)
		if !info.HasBidRequest() {
			// Doubled up on a WIN/LOSS without having gotten the auction yet.
			info.EarlyWinEvents = append(info.EarlyWinEvents, evt)
			m.submitted.Insert(key, info, time.Now().Add(m.cfg.LossTimeout))
			return
		}

		m.telemetry.RecordHit(fmt.Sprintf("bidResult.%s.delivered", typeStr))

		confidence := Inferred
		if status == StatusWin {
			confidence = Guaranteed
		}

		m.doBidResult(evt.AuctionID, evt.AdSpotID, info, evt.WinPrice, evt.Timestamp, status, confidence, evt.Metadata, evt.UIDs)

		for _, early := range info.EarlyCampaignEvents {
			m.doCampaignEvent(early)
		}
		return
	}

	// Case C: the key is in neither table.
	gap := gapMs()
	if gap < float64(m.cfg.LossTimeout.Milliseconds()) {
		m.telemetry.RecordHit(fmt.Sprintf("bidResult.%s.noBidSubmitted", typeStr))

		info := SubmissionInfo{EarlyWinEvents: []*PostAuctionEvent{evt}}
		m.submitted.Insert(key, info, time.Now().Add(m.cfg.LossTimeout))
		return
	}

	m.telemetry.RecordHit(fmt.Sprintf("bidResult.%s.notInSubmitted", typeStr))
	m.telemetry.RecordOutcome(gap, fmt.Sprintf("bidResult.%s.notInSubmittedTimeSinceBidSubmittedMs", typeStr))
	m.sinks.unmatchedEvent(UnmatchedEvent{Reason: ReasonAuctionNotFound, Event: evt})

	if !evt.Account.Empty() {
		if err := m.banker.ForceWinBid(evt.Account, EmptyLineItems, evt.WinPrice); err != nil {
			m.telemetry.DoError("doWinLoss.forceWinBid.orphan", err.Error())
		}
	}
}

// doBidResult commits the financial outcome of a submission and files
// it into the finished table. See spec §4.5: the banker is guaranteed
// exactly one of winBid, forceWinBid (handled by the caller for late/
// orphan cases), or cancelBid per submission, via the scoped release
// pattern below.
func (m *Matcher) doBidResult(
	auctionID AuctionID,
	adSpotID AdSpotID,
	submission SubmissionInfo,
	winPrice Amount,
	timestamp time.Time,
	status BidStatus,
	confidence Confidence,
	winLossMeta string,
	uids UserIDs,
) {
	agent := submission.Bid.Agent
	spotIndex := findAdSpotIndex(submission.BidRequest, adSpotID)
	if spotIndex == -1 {
		m.telemetry.DoError("doBidResult.adSpotIdNotFound",
			fmt.Sprintf("adspot ID %s not found in auction %s", adSpotID, submission.BidRequestStr))
	}

	account := submission.Bid.Account

	bidPrice := submission.Bid.MaxPrice
	if winPrice.GreaterThan(bidPrice) {
		m.telemetry.DoError("doBidResult.winPriceExceedsBidPrice",
			fmt.Sprintf("win price %s exceeds bid price %s", winPrice, bidPrice))
	}

	bidID := MakeBidID(auctionID, adSpotID, agent)

	// Scoped release: guarantees exactly one of cancelBid/winBid fires
	// for this submission, on every exit path.
	released := false
	release := func() {
		if released {
			return
		}
		released = true
		if err := m.banker.CancelBid(account, bidID, EmptyLineItems); err != nil {
			m.telemetry.DoError("doBidResult.cancelBid", err.Error())
		}
	}
	defer release()

	if adSpotID.Empty() {
		m.telemetry.DoError("doBidResult.nullAdSpotId", "inserting null entry in finished map")
		return
	}
	if account.Empty() {
		m.telemetry.DoError("doBidResult.invalidAccount", "invalid account key")
		return
	}

	if submission.Bid.isNoBid() {
		// release still fires on unwind, cancelling the attached bid.
		panic(fatalEventError{
			scope:   "doBidResult.responseHadNoBidPrice",
			message: "bid response had no bid price",
		})
	}

	price := winPrice
	if status == StatusWin {
		wcm := submission.Bid.WinCostModel
		if wcm == nil {
			wcm = PassThroughWinCostModel{}
		}
		price = wcm.Evaluate(bidPrice, winPrice, map[string]string{"win": winLossMeta})

		m.telemetry.RecordOutcome(winPrice.Value.InexactFloat64(),
			fmt.Sprintf("accounts.%s.winPrice.%s", account, winPrice.Currency))
		m.telemetry.RecordOutcome(price.Value.InexactFloat64(),
			fmt.Sprintf("accounts.%s.winCostPrice.%s", account, price.Currency))

		// Real win: disarm the release and commit instead.
		released = true
		if err := m.banker.WinBid(account, bidID, EmptyLineItems, price); err != nil {
			m.telemetry.DoError("doBidResult.winBid", err.Error())
		}
	}

	info := FinishedInfo{
		AuctionID:           auctionID,
		AdSpotID:            adSpotID,
		SpotIndex:           spotIndex,
		BidRequest:          submission.BidRequest,
		BidRequestStr:       submission.BidRequestStr,
		BidRequestStrFormat: submission.BidRequestStrFormat,
		Bid:                 submission.Bid,
		ReportedStatus:      status,
		Price:               price,
		WinPrice:            winPrice,
		WinMeta:             winLossMeta,
		CampaignEvents:      make(CampaignEvents),
		VisitChannels:       submission.Bid.VisitChannels,
	}
	info.AddUIDs(uids)

	kind := KindLoss
	if status == StatusWin {
		kind = KindWin
	}
	m.sinks.matchedWinLoss(MatchedWinLoss{
		Kind:       kind,
		Confidence: confidence,
		Info:       info,
		Timestamp:  timestamp,
		UIDs:       uids,
	})

	expiry := m.cfg.WinTimeout
	if status == StatusLoss {
		expiry = m.cfg.AuctionTimeout
	}
	m.finished.Insert(MatchKey{Auction: auctionID, AdSpot: adSpotID}, info, time.Now().Add(expiry))
}
