// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package postauction

import "strings"

// AuctionID identifies one exchange-initiated bidding opportunity.
type AuctionID string

// String returns the string form of the id.
func (id AuctionID) String() string { return string(id) }

// Empty reports whether the id carries no value.
func (id AuctionID) Empty() bool { return id == "" }

// AdSpotID identifies a placement within an auction. It is unique within
// the auction but may be empty in lookup contexts, which triggers prefix
// search over the auction (see MatchKey / pendingTable.CompletePrefix).
type AdSpotID string

// String returns the string form of the id.
func (id AdSpotID) String() string { return string(id) }

// Empty reports whether the id carries no value.
func (id AdSpotID) Empty() bool { return id == "" }

// AccountKey is a hierarchical account path, e.g. "campaigns.acme.usd".
// Non-empty for any committed financial operation.
type AccountKey string

// String returns the string form of the account key.
func (a AccountKey) String() string { return string(a) }

// Empty reports whether the account key carries no value.
func (a AccountKey) Empty() bool { return a == "" }

// BidID is the banker's transaction handle: "<auctionId>-<spotId>-<agent>".
type BidID string

// MakeBidID builds the banker transaction handle for a bid.
func MakeBidID(auctionID AuctionID, adSpotID AdSpotID, agent string) BidID {
	var b strings.Builder
	b.WriteString(string(auctionID))
	b.WriteByte('-')
	b.WriteString(string(adSpotID))
	b.WriteByte('-')
	b.WriteString(agent)
	return BidID(b.String())
}

// MatchKey is the composite primary key of both pending maps.
type MatchKey struct {
	Auction AuctionID
	AdSpot  AdSpotID
}

// String renders the key for logging.
func (k MatchKey) String() string {
	return string(k.Auction) + "/" + string(k.AdSpot)
}

// IsPrefix reports whether k is a prefix lookup, i.e. its ad-spot is
// empty.
func (k MatchKey) IsPrefix() bool { return k.AdSpot.Empty() }
