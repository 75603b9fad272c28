package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/rentwise/rentwise-backend/internal/rentals"
	"github.com/rentwise/rentwise-backend/pkg/logger"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	overdue, expired int
	err              error
}

func (f *fakeSweeper) MarkOverdue(context.Context) (rentals.SweepResult, error) {
	f.overdue++
	return rentals.SweepResult{Matched: 2, Updated: 2}, f.err
}

func (f *fakeSweeper) ExpirePending(context.Context) (rentals.SweepResult, error) {
	f.expired++
	return rentals.SweepResult{Matched: 1, Updated: 0}, f.err
}

func TestRentalJobsRequireDeps(t *testing.T) {
	_, err := NewOverdueJob(nil, &fakeSweeper{})
	require.Error(t, err)
	_, err = NewPendingExpiryJob(logger.Nop(), nil)
	require.Error(t, err)
}

func TestRentalJobsCallTheirSweep(t *testing.T) {
	sweeper := &fakeSweeper{}
	overdue, err := NewOverdueJob(logger.Nop(), sweeper)
	require.NoError(t, err)
	expiry, err := NewPendingExpiryJob(logger.Nop(), sweeper)
	require.NoError(t, err)

	require.Equal(t, OverdueJobName, overdue.Name())
	require.Equal(t, PendingExpiryJobName, expiry.Name())

	require.NoError(t, overdue.Run(context.Background()))
	require.NoError(t, expiry.Run(context.Background()))
	require.Equal(t, 1, sweeper.overdue)
	require.Equal(t, 1, sweeper.expired)
}

func TestRentalJobWrapsSweepError(t *testing.T) {
	boom := errors.New("db gone")
	job, err := NewOverdueJob(logger.Nop(), &fakeSweeper{err: boom})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), OverdueJobName)
}
