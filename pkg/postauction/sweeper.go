// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package postauction

import "time"

// sweep drains both pending tables of expired entries. Expired
// submissions with a bid request present are turned into inferred
// losses via doBidResult; those without one (pure early-event buffers
// that never saw their auction) are dropped with a counter. Expired
// finished entries are simply removed — their retention window has
// elapsed. Finally the banker is asked to flush its accumulated
// receipts, the same way the host's periodic tick drives it.
func (m *Matcher) sweep() {
	now := time.Now()

	m.telemetry.RecordHit("submittedAuctionExpiry")
	m.submitted.Expire(now, func(key MatchKey, info SubmissionInfo) (time.Time, bool) {
		if !info.HasBidRequest() {
			m.telemetry.RecordHit("submittedAuctionExpiryWithoutBid")
			return time.Time{}, false
		}

		m.doBidResult(key.Auction, key.AdSpot, info, ZeroAmount(""), now, StatusLoss, Inferred, "null", UserIDs{})
		return time.Time{}, false
	})

	m.telemetry.RecordHit("finishedAuctionExpiry")
	m.finished.Expire(now, func(key MatchKey, info FinishedInfo) (time.Time, bool) {
		return time.Time{}, false
	})

	m.banker.LogBidEvents()
}
