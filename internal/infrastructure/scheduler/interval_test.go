package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalSchedulerRunsImmediatelyAndRepeats(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(10*time.Millisecond, time.UTC)
	var runs int32
	require.NoError(t, s.Start(context.Background(), func(time.Time) { atomic.AddInt32(&runs, 1) }))

	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	after := atomic.LoadInt32(&runs)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&runs))
}

func TestIntervalSchedulerStopsOnContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	s := NewIntervalScheduler(time.Hour, nil)
	fired := make(chan time.Time, 1)
	require.NoError(t, s.Start(ctx, func(ts time.Time) { fired <- ts }))

	select {
	case trigger := <-fired:
		assert.Equal(t, time.UTC, trigger.Location())
	case <-time.After(time.Second):
		t.Fatal("job did not run immediately")
	}

	done := s.Done()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on context cancellation")
	}
}

func TestIntervalSchedulerStartTwiceAndStopIdle(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Hour, time.UTC)
	assert.NoError(t, s.Stop(context.Background()))

	var runs int32
	job := func(time.Time) { atomic.AddInt32(&runs, 1) }
	require.NoError(t, s.Start(context.Background(), job))
	require.NoError(t, s.Start(context.Background(), job))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
	assert.Nil(t, s.Done())
}
