// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package postauction

import (
	"time"

	"github.com/prebid/openrtb/v20/openrtb2"
)

// BidStatus is the exchange-reported (or inferred) outcome of a bid.
type BidStatus int

const (
	// StatusWin means the exchange reported this bid won the impression.
	StatusWin BidStatus = iota
	// StatusLoss means the exchange reported a loss, or none arrived
	// before lossTimeout and the sweeper inferred one.
	StatusLoss
)

// String renders the status for telemetry counter names.
func (s BidStatus) String() string {
	if s == StatusWin {
		return "WIN"
	}
	return "LOSS"
}

// UserIDs is a set of user identifiers seen for a matched auction.
type UserIDs map[string]struct{}

// NewUserIDs builds a UserIDs set from a slice, ignoring empty entries.
func NewUserIDs(ids []string) UserIDs {
	set := make(UserIDs, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// Union merges other into u in place.
func (u UserIDs) Union(other UserIDs) {
	for id := range other {
		u[id] = struct{}{}
	}
}

// BidResponse carries the fields of a bid response the matcher cares about:
// agent, account, price, win-cost model, bid payload, and visit channels.
type BidResponse struct {
	Agent         string
	Account       AccountKey
	MaxPrice      Amount
	Priority      int
	WinCostModel  WinCostModel
	Payload       string
	VisitChannels []string
}

// isNoBid reports whether this response is RTBKIT's "no-bid" sentinel:
// zero max price and zero priority.
func (b BidResponse) isNoBid() bool {
	return b.MaxPrice.IsZero() && b.Priority == 0
}

// CampaignEventRecord is the stored (timestamp, meta) pair for one label.
type CampaignEventRecord struct {
	Timestamp time.Time
	Meta      string
}

// CampaignEvents is a set-valued-per-label map: at most one record per
// delivery label (IMPRESSION, CLICK, ...).
type CampaignEvents map[string]CampaignEventRecord

// HasEvent reports whether label has already been recorded.
func (c CampaignEvents) HasEvent(label string) bool {
	_, ok := c[label]
	return ok
}

// SetEvent stores the record for label, replacing any earlier one;
// callers check HasEvent first to keep one record per label.
func (c CampaignEvents) SetEvent(label string, ts time.Time, meta string) {
	c[label] = CampaignEventRecord{Timestamp: ts, Meta: meta}
}

// SubmissionInfo is an entry of the `submitted` pending table.
//
// Invariant: a SubmissionInfo with a nil BidRequest must have at least
// one buffered EarlyWinEvents or EarlyCampaignEvents entry; it never
// drives a banker commit until the submission arrives.
type SubmissionInfo struct {
	BidRequest           *openrtb2.BidRequest
	BidRequestStr        string
	BidRequestStrFormat  string
	Augmentations        map[string]string
	Bid                  BidResponse
	EarlyWinEvents       []*PostAuctionEvent
	EarlyCampaignEvents  []*PostAuctionEvent
}

// HasBidRequest reports whether the auction submission itself has arrived.
func (s SubmissionInfo) HasBidRequest() bool { return s.BidRequest != nil }

// FinishedInfo is an entry of the `finished` pending table.
type FinishedInfo struct {
	AuctionID           AuctionID
	AdSpotID            AdSpotID
	SpotIndex           int
	BidRequest          *openrtb2.BidRequest
	BidRequestStr       string
	BidRequestStrFormat string
	Bid                 BidResponse
	ReportedStatus      BidStatus
	Price               Amount
	WinPrice            Amount
	WinMeta             string
	CampaignEvents      CampaignEvents
	UIDs                UserIDs
	VisitChannels       []string
}

// HasWin reports whether this finished entry currently records a win
// (guaranteed or late).
func (f *FinishedInfo) HasWin() bool { return f.ReportedStatus == StatusWin }

// ForceWin overlays a late win notification onto an already-finished
// (inferred loss) entry, superseding it.
func (f *FinishedInfo) ForceWin(winPrice Amount, meta string) {
	f.ReportedStatus = StatusWin
	f.WinPrice = winPrice
	f.Price = winPrice
	f.WinMeta = meta
}

// AddUIDs unions uids into the finished entry's user-id set.
func (f *FinishedInfo) AddUIDs(uids UserIDs) {
	if f.UIDs == nil {
		f.UIDs = make(UserIDs)
	}
	f.UIDs.Union(uids)
}
