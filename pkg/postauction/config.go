// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package postauction

import "time"

// Config holds the matcher's per-entry timeout and sweep-cadence
// settings. Zero values are replaced by their documented defaults in
// New, so callers can pass a partially-populated Config.
type Config struct {
	// LossTimeout is the window within which a win/loss for an unknown
	// key is buffered as an early arrival; past it the event is treated
	// as an orphan.
	LossTimeout time.Duration
	// WinTimeout is how long a WIN FinishedInfo is retained.
	WinTimeout time.Duration
	// AuctionTimeout is how long a LOSS FinishedInfo is retained.
	AuctionTimeout time.Duration
	// SweepInterval is the cadence the host should drive the sweeper at.
	SweepInterval time.Duration
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() Config {
	return Config{
		LossTimeout:    15 * time.Second,
		WinTimeout:     time.Hour,
		AuctionTimeout: time.Hour,
		SweepInterval:  time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.LossTimeout <= 0 {
		c.LossTimeout = d.LossTimeout
	}
	if c.WinTimeout <= 0 {
		c.WinTimeout = d.WinTimeout
	}
	if c.AuctionTimeout <= 0 {
		c.AuctionTimeout = d.AuctionTimeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = d.SweepInterval
	}
	return c
}
