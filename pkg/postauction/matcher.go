// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package postauction

import (
	"sync/atomic"

	"github.com/luxfi/postauction/pkg/log"
)

// Matcher is the post-auction correlation engine: it owns the submitted
// and finished pending tables exclusively, and holds shared handles to
// a Banker and a set of outcome Sinks. It has no back-reference to any
// enclosing host — every capability it needs is passed in at
// construction, the same constructor-injection shape as
// settlement.NewBudgetManager.
//
// Matcher is NOT safe for concurrent use. It is driven by a single
// cooperative event loop: DoAuction, DoEvent, and Sweep must never run
// concurrently with each other. A host that wants concurrent ingestion
// must serialize calls itself (e.g. a single-goroutine channel reader).
type Matcher struct {
	cfg Config

	submitted *pendingTable[SubmissionInfo]
	finished  *pendingTable[FinishedInfo]

	banker    Banker
	telemetry Telemetry
	sinks     Sinks
	log       log.Logger

	numWins           int64
	numLosses         int64
	numCampaignEvents int64
}

// New builds a Matcher. banker must not be nil; a nil telemetry is
// replaced by NoOpTelemetry() and a nil logger by log.NoOp(). sinks may
// be the zero value, in which case every outcome is dropped silently.
func New(cfg Config, banker Banker, telemetry Telemetry, sinks Sinks, logger log.Logger) *Matcher {
	if telemetry == nil {
		telemetry = NoOpTelemetry()
	}
	if logger == nil {
		logger = log.NoOp()
	}
	return &Matcher{
		cfg:       cfg.withDefaults(),
		submitted: newPendingTable[SubmissionInfo](),
		finished:  newPendingTable[FinishedInfo](),
		banker:    banker,
		telemetry: telemetry,
		sinks:     sinks,
		log:       logger,
	}
}

// Stats is a snapshot of the matcher's running counters.
type Stats struct {
	Wins            int64
	Losses          int64
	CampaignEvents  int64
	PendingSubmitted int
	PendingFinished  int
}

// Stats returns a point-in-time snapshot of the matcher's counters and
// pending-table sizes.
func (m *Matcher) Stats() Stats {
	return Stats{
		Wins:             atomic.LoadInt64(&m.numWins),
		Losses:           atomic.LoadInt64(&m.numLosses),
		CampaignEvents:   atomic.LoadInt64(&m.numCampaignEvents),
		PendingSubmitted: m.submitted.Len(),
		PendingFinished:  m.finished.Len(),
	}
}
