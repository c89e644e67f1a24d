// Package scheduler runs the periodic ledger report: a cron-driven log line
// summarizing negotiation outcomes, useful when no dashboard is watching.
package scheduler

import (
	"context"
	"time"

	"github.com/freightops/load-ledger-api/internal/service"
	"github.com/freightops/load-ledger-api/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Scheduler owns the cron runner for background jobs
type Scheduler struct {
	cron      *cron.Cron
	shipments *service.ShipmentService
	logger    logger.Logger
}

// New creates a scheduler around the shipment service
func New(shipments *service.ShipmentService, logger logger.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		shipments: shipments,
		logger:    logger,
	}
}

// Start registers the ledger report at the given cron schedule and starts
// the runner. An empty schedule disables the job.
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		s.logger.Info("Ledger report schedule not configured, skipping")
		return nil
	}

	if _, err := s.cron.AddFunc(schedule, s.reportLedger); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("Ledger report scheduled", "schedule", schedule)
	return nil
}

// Stop halts the cron runner, waiting for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) reportLedger() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	summary, err := s.shipments.Stats(ctx, nil)

	if err != nil {
		s.logger.Error("Ledger report failed", "error", err)
		return
	}

	total, err := s.shipments.Count(ctx)

	if err != nil {
		s.logger.Error("Ledger report failed", "error", err)
		return
	}

	s.logger.Info("Ledger report",
		"totalLoads", total,
		"manualAgreed", summary.Manual.Count,
		"manualAgreedPrice", summary.Manual.TotalAgreedPrice,
		"urlAPIAgreed", summary.URLAPI.Count,
		"urlAPIAgreedPrice", summary.URLAPI.TotalAgreedPrice)
}
