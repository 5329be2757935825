package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingExpirer struct {
	calls atomic.Int32
	err   error
}

func (e *countingExpirer) ExpireStale(context.Context) (int64, error) {
	e.calls.Add(1)
	return 2, e.err
}

type countingPruner struct {
	maxIdle time.Duration
}

func (p *countingPruner) Cleanup(maxIdle time.Duration) int {
	p.maxIdle = maxIdle
	return 1
}

type countingCleaner struct {
	calls    atomic.Int32
	deadline bool
}

func (c *countingCleaner) CleanupOrphans(ctx context.Context) (int, error) {
	c.calls.Add(1)
	_, c.deadline = ctx.Deadline()
	return 0, errors.New("storage unavailable")
}

func TestPresenceRunOnce(t *testing.T) {
	agents := &countingExpirer{}
	limiters := &countingPruner{}
	NewPresenceJob(agents, limiters, time.Minute).RunOnce(context.Background())

	if agents.calls.Load() != 1 {
		t.Fatalf("expire calls = %d", agents.calls.Load())
	}
	if limiters.maxIdle != time.Hour {
		t.Fatalf("limiters pruned with idle %v", limiters.maxIdle)
	}
}

func TestPresenceWithoutLimiters(t *testing.T) {
	agents := &countingExpirer{err: errors.New("db down")}
	NewPresenceJob(agents, nil, time.Minute).RunOnce(context.Background())
	if agents.calls.Load() != 1 {
		t.Fatal("expire was not called")
	}
}

func TestPresenceJobTicksUntilStopped(t *testing.T) {
	agents := &countingExpirer{}
	job := NewPresenceJob(agents, nil, 5*time.Millisecond)
	job.Start()

	deadline := time.Now().Add(time.Second)
	for agents.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	job.Stop()
	if agents.calls.Load() < 2 {
		t.Fatalf("job ticked %d times", agents.calls.Load())
	}
}

func TestOrphanRunOnceBoundsTheSweep(t *testing.T) {
	uploads := &countingCleaner{}
	NewOrphanUploadJob(uploads, time.Minute).RunOnce(context.Background())
	if uploads.calls.Load() != 1 || !uploads.deadline {
		t.Fatalf("calls = %d, deadline = %v", uploads.calls.Load(), uploads.deadline)
	}
}
