package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndSkipsNil(t *testing.T) {
	overdue := &stubJob{name: "rental-overdue"}
	expiry := &stubJob{name: "pending-expiry"}
	registry := NewRegistry(overdue, nil)
	require.NoError(t, registry.Register(nil))
	require.NoError(t, registry.Register(expiry))

	jobs := registry.Jobs()
	require.Equal(t, []Job{overdue, expiry}, jobs)
	require.Equal(t, []string{"rental-overdue", "pending-expiry"}, registry.Names())

	jobs[0] = nil
	require.NotNil(t, registry.Jobs()[0], "internal slice leaked")
}

func TestRegistryRejectsDuplicateAndUnnamedJobs(t *testing.T) {
	registry := NewRegistry(&stubJob{name: "rental-overdue"})
	require.EqualError(t, registry.Register(&stubJob{name: "rental-overdue"}), `cron job "rental-overdue" already registered`)
	require.Error(t, registry.Register(&stubJob{}))
	require.Len(t, registry.Jobs(), 1)

	require.Panics(t, func() {
		NewRegistry(&stubJob{name: "a"}, &stubJob{name: "a"})
	})
}
