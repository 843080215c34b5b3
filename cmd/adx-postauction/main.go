// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/google/uuid"
	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/luxfi/postauction/pkg/log"
	"github.com/luxfi/postauction/pkg/postauction"
)

var (
	port          = flag.Int("port", 8100, "HTTP port for /healthz and /metrics")
	logLevel      = flag.String("log-level", "info", "Log level")
	lossTimeout   = flag.Duration("loss-timeout", 15*time.Second, "Window to accept out-of-order wins before treating as orphan")
	winTimeout    = flag.Duration("win-timeout", time.Hour, "Retention of WIN finished entries")
	auctionTimeout = flag.Duration("auction-timeout", time.Hour, "Retention of LOSS finished entries")
	sweepInterval = flag.Duration("sweep-interval", time.Second, "Cadence of the expiry sweeper")
	demo          = flag.Bool("demo", false, "Run a synthetic event producer for local smoke-testing")

	// Version info
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	flag.Parse()

	fmt.Printf("ADX Post-Auction Matcher (adx-postauction) %s (commit: %s)\n", Version, GitCommit)

	logger := log.NewWithLevel(*logLevel)
	defer logger.Sync()

	telemetry := postauction.NewMetricsTelemetry(logger)
	banker := postauction.NewBudgetBanker(telemetry, logger)

	cfg := postauction.Config{
		LossTimeout:    *lossTimeout,
		WinTimeout:     *winTimeout,
		AuctionTimeout: *auctionTimeout,
		SweepInterval:  *sweepInterval,
	}

	sinks := postauction.Sinks{
		OnMatchedWinLoss: func(ev postauction.MatchedWinLoss) {
			logger.Info(fmt.Sprintf("matched win/loss kind=%d confidence=%d key=%s/%s",
				ev.Kind, ev.Confidence, ev.Info.AuctionID, ev.Info.AdSpotID))
		},
		OnMatchedCampaignEvent: func(ev postauction.MatchedCampaignEvent) {
			logger.Debug(fmt.Sprintf("matched campaign event label=%s key=%s/%s",
				ev.Label, ev.Info.AuctionID, ev.Info.AdSpotID))
		},
		OnUnmatchedEvent: func(ev postauction.UnmatchedEvent) {
			logger.Debug(fmt.Sprintf("unmatched event reason=%s", ev.Reason))
		},
	}

	matcher := postauction.New(cfg, banker, telemetry, sinks, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startSweeper(ctx, matcher, *sweepInterval)

	if *demo {
		startDemoProducer(ctx, matcher)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: setupHTTPRoutes(matcher, telemetry),
	}

	go func() {
		logger.Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error: " + err.Error())
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error: " + err.Error())
	}

	fmt.Println("Matcher stopped")
}

// startSweeper drives the matcher's expiry sweeper on its own cadence,
// re-entering the Win/Loss path for submissions that timed out waiting
// for an outcome.
func startSweeper(ctx context.Context, matcher *postauction.Matcher, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				matcher.Sweep()
			}
		}
	}()
}

func setupHTTPRoutes(matcher *postauction.Matcher, telemetry *postauction.MetricsTelemetry) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		stats := matcher.Stats()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","pendingSubmitted":%d,"pendingFinished":%d}`,
			stats.PendingSubmitted, stats.PendingFinished)
	}).Methods("GET")

	r.Handle("/metrics", promhttp.HandlerFor(telemetry.Gatherer(), promhttp.HandlerOpts{})).Methods("GET")

	return r
}

// startDemoProducer feeds a trickle of synthetic auction/win events
// into the matcher so the binary does something observable without a
// real exchange attached. It is strictly for local smoke-testing.
func startDemoProducer(ctx context.Context, matcher *postauction.Matcher) {
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				auctionID := postauction.AuctionID(uuid.NewString())
				spotID := postauction.AdSpotID("spot-0")
				maxPrice := postauction.Amount{Value: decimal.NewFromFloat(2.50), Currency: "USD"}

				matcher.DoAuction(postauction.SubmittedAuctionEvent{
					AuctionID:   auctionID,
					AdSpotID:    spotID,
					LossTimeout: 15 * time.Second,
					BidRequest: &openrtb2.BidRequest{
						ID:  auctionID.String(),
						Imp: []openrtb2.Imp{{ID: spotID.String()}},
					},
					BidResponse: postauction.BidResponse{
						Agent:        "demo-agent",
						Account:      postauction.AccountKey("demo.account"),
						MaxPrice:     maxPrice,
						Priority:     1,
						WinCostModel: postauction.PassThroughWinCostModel{},
					},
				})

				if rand.Intn(2) == 0 {
					winPrice := postauction.Amount{Value: decimal.NewFromFloat(1.75), Currency: "USD"}
					matcher.DoEvent(&postauction.PostAuctionEvent{
						Type:         postauction.Win,
						AuctionID:    auctionID,
						AdSpotID:     spotID,
						WinPrice:     winPrice,
						Timestamp:    time.Now(),
						BidTimestamp: time.Now(),
					})
				}
			}
		}
	}()
}
