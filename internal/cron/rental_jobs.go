package cron

import (
	"context"
	"fmt"

	"github.com/rentwise/rentwise-backend/internal/rentals"
	"github.com/rentwise/rentwise-backend/pkg/logger"
)

const (
	OverdueJobName       = "rental-overdue"
	PendingExpiryJobName = "rental-pending-expiry"
)

// RentalSweeper is the slice of the rentals service the sweep jobs drive.
type RentalSweeper interface {
	MarkOverdue(ctx context.Context) (rentals.SweepResult, error)
	ExpirePending(ctx context.Context) (rentals.SweepResult, error)
}

type sweepJob struct {
	name  string
	logg  *logger.Logger
	sweep func(ctx context.Context) (rentals.SweepResult, error)
}

// NewOverdueJob flags active rentals past their end date as overdue.
func NewOverdueJob(logg *logger.Logger, sweeper RentalSweeper) (Job, error) {
	if err := checkJobDeps(logg, sweeper); err != nil {
		return nil, err
	}
	return &sweepJob{name: OverdueJobName, logg: logg, sweep: sweeper.MarkOverdue}, nil
}

// NewPendingExpiryJob cancels pending rentals whose start date went by unconfirmed.
func NewPendingExpiryJob(logg *logger.Logger, sweeper RentalSweeper) (Job, error) {
	if err := checkJobDeps(logg, sweeper); err != nil {
		return nil, err
	}
	return &sweepJob{name: PendingExpiryJobName, logg: logg, sweep: sweeper.ExpirePending}, nil
}

func checkJobDeps(logg *logger.Logger, sweeper RentalSweeper) error {
	if logg == nil {
		return fmt.Errorf("logger required")
	}
	if sweeper == nil {
		return fmt.Errorf("rental sweeper required")
	}
	return nil
}

func (j *sweepJob) Name() string { return j.name }

func (j *sweepJob) Run(ctx context.Context) error {
	res, err := j.sweep(ctx)
	ctx = j.logg.WithFields(ctx, map[string]any{
		"matched": res.Matched,
		"updated": res.Updated,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	if res.Matched > 0 {
		j.logg.Info(ctx, "rentals swept")
	}
	return nil
}
