package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"rewards-dashboard/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls    atomic.Int32
	err      error
	deadline atomic.Bool
}

func (r *countingRefresher) Refresh(ctx context.Context) error {
	r.calls.Add(1)
	if _, ok := ctx.Deadline(); ok {
		r.deadline.Store(true)
	}
	return r.err
}

func TestRunOnceUsesBoundedContext(t *testing.T) {
	t.Parallel()

	r := &countingRefresher{}
	s := NewStatsScheduler(r, logger.Discard(), "@every 1h", time.Second)
	s.RunOnce()

	assert.Equal(t, int32(1), r.calls.Load())
	assert.True(t, r.deadline.Load())
}

func TestRunOnceSwallowsErrors(t *testing.T) {
	t.Parallel()

	r := &countingRefresher{err: errors.New("backend down")}
	s := NewStatsScheduler(r, logger.Discard(), "@every 1h", time.Second)
	assert.NotPanics(t, s.RunOnce)
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestStartRejectsBadSpec(t *testing.T) {
	t.Parallel()

	s := NewStatsScheduler(&countingRefresher{}, logger.Discard(), "not a spec", time.Second)
	require.Error(t, s.Start())
}

func TestStartAndStop(t *testing.T) {
	t.Parallel()

	s := NewStatsScheduler(&countingRefresher{}, logger.Discard(), "@every 1h", time.Second)
	require.NoError(t, s.Start())
	s.Stop()
}
