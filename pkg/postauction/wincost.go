// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package postauction

// WinCostModel maps a (bid price, exchange win price) pair to the price
// actually charged to the account. It travels with the bid response so
// each bidder can apply its own second-price-like adjustment; winMeta is
// auxiliary exchange-supplied context (e.g. deal ID, currency hints).
type WinCostModel interface {
	Evaluate(bidPrice, winPrice Amount, winMeta map[string]string) Amount
}

// PassThroughWinCostModel charges exactly the price the exchange reports,
// clamped to never exceed the bid price. This is the default used when a
// bid response carries no explicit model, grounded on the "none" win-cost
// policy RTBKIT bid responses fall back to.
type PassThroughWinCostModel struct{}

// Evaluate implements WinCostModel.
func (PassThroughWinCostModel) Evaluate(bidPrice, winPrice Amount, winMeta map[string]string) Amount {
	if winPrice.GreaterThan(bidPrice) {
		return bidPrice
	}
	return winPrice
}

// SecondPriceModel clears at the reported win price but never below a
// floor, generalizing the clearing-price computation in auction.RunAuction
// (clearingPrice = max(reserve, secondHighestBid)) to a per-response policy.
type SecondPriceModel struct {
	Floor Amount
}

// Evaluate implements WinCostModel.
func (m SecondPriceModel) Evaluate(bidPrice, winPrice Amount, winMeta map[string]string) Amount {
	price := winPrice
	if price.Value.LessThan(m.Floor.Value) {
		price = m.Floor
	}
	if price.GreaterThan(bidPrice) {
		price = bidPrice
	}
	return price
}
