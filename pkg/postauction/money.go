// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package postauction

import "github.com/shopspring/decimal"

// Amount is a (value, currency) pair. Currency is preserved in outcome
// records so downstream ledgers never have to guess at a bid's denomination.
type Amount struct {
	Value    decimal.Decimal
	Currency string
}

// ZeroAmount returns the zero amount in the given currency.
func ZeroAmount(currency string) Amount {
	return Amount{Value: decimal.Zero, Currency: currency}
}

// IsZero reports whether the amount's value is zero.
func (a Amount) IsZero() bool { return a.Value.IsZero() }

// GreaterThan reports whether a > b.
func (a Amount) GreaterThan(b Amount) bool { return a.Value.GreaterThan(b.Value) }

// Equal reports whether a == b (value only; currency mismatches are a
// caller bug, not something this type hides).
func (a Amount) Equal(b Amount) bool { return a.Value.Equal(b.Value) }

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{Value: a.Value.Add(b.Value), Currency: a.Currency}
}

// String renders the amount for logs and error messages.
func (a Amount) String() string {
	return a.Value.StringFixed(4) + " " + a.Currency
}
