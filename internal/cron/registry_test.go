package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
	fn   func(ctx context.Context) error
}

func (s stubJob) Name() string { return s.name }

func (s stubJob) Run(ctx context.Context) error {
	if s.fn == nil {
		return nil
	}
	return s.fn(ctx)
}

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	registry := NewRegistry()
	jobA := stubJob{name: "a"}
	jobB := stubJob{name: "b"}
	require.NoError(t, registry.Register(jobA))
	require.NoError(t, registry.Register(jobB, WithTimeout(time.Minute)))

	jobs := registry.Jobs()
	require.Len(t, jobs, 2)
	require.Equal(t, "a", jobs[0].Name())
	require.Equal(t, "b", jobs[1].Name())

	jobs[0] = nil
	require.NotNil(t, registry.Jobs()[0], "callers must not mutate the registry")

	entries := registry.snapshot()
	require.Zero(t, entries[0].timeout)
	require.Equal(t, time.Minute, entries[1].timeout)
}

func TestRegistryRejectsInvalidJobs(t *testing.T) {
	registry := NewRegistry(stubJob{name: "appointment-reminder"}, nil)
	require.Len(t, registry.Jobs(), 1)

	require.Error(t, registry.Register(stubJob{name: "appointment-reminder"}), "duplicate name")
	require.Error(t, registry.Register(stubJob{name: "  "}), "blank name")
	require.Error(t, registry.Register(nil))
	require.Error(t, registry.Register(stubJob{name: "other"}, WithTimeout(-time.Second)))
	require.Len(t, registry.Jobs(), 1)
}

func TestServiceAppliesJobTimeout(t *testing.T) {
	registry := NewRegistry()
	var deadlineSet bool
	require.NoError(t, registry.Register(stubJob{name: "bounded", fn: func(ctx context.Context) error {
		_, deadlineSet = ctx.Deadline()
		<-ctx.Done()
		return ctx.Err()
	}}, WithTimeout(20*time.Millisecond)))

	service, err := NewService(ServiceParams{Logger: newTestLogger(), Registry: registry, Lock: &fakeLock{}})
	require.NoError(t, err)
	require.NoError(t, service.runCycle(context.Background()))
	require.True(t, deadlineSet)
}
