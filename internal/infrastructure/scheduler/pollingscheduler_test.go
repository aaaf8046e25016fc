package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entitleops/licensesync/internal/infrastructure/document"
	"github.com/entitleops/licensesync/internal/shared/logger"
)

type fakeProcessor struct {
	mu        sync.Mutex
	calls     int
	targets   []document.Target
	processed bool
	err       error
	panicMsg  string
	block     chan struct{}
}

func (f *fakeProcessor) CheckForWork(ctx context.Context, target document.Target) (bool, error) {
	f.mu.Lock()
	f.calls++
	f.targets = append(f.targets, target)
	block, processed, err, panicMsg := f.block, f.processed, f.err, f.panicMsg
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if panicMsg != "" {
		panic(panicMsg)
	}
	return processed, err
}

func (f *fakeProcessor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var testTarget = document.Target{DocumentID: "doc-1", Sheet: "Reconcile"}

func newTestScheduler(t *testing.T, p RequestProcessor, interval time.Duration) *PollingScheduler {
	s, err := NewPollingScheduler(p, interval, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })
	return s
}

func TestNewPollingScheduler_Interval(t *testing.T) {
	s := newTestScheduler(t, &fakeProcessor{}, 0)
	assert.Equal(t, 5, s.Stats().IntervalSeconds)

	_, err := NewPollingScheduler(&fakeProcessor{}, 61*time.Second, logger.NewNopLogger())
	assert.ErrorIs(t, err, ErrIntervalOutOfRange)
}

func TestPollingScheduler_StartRequiresTarget(t *testing.T) {
	s := newTestScheduler(t, &fakeProcessor{}, time.Second)

	assert.ErrorIs(t, s.Start(), ErrTargetNotConfigured)
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Configure(document.Target{}), ErrTargetNotConfigured)
}

func TestPollingScheduler_StartChecksImmediately(t *testing.T) {
	p := &fakeProcessor{processed: true}
	s := newTestScheduler(t, p, 60*time.Second)
	require.NoError(t, s.Configure(testTarget))

	require.NoError(t, s.Start())
	require.NoError(t, s.Start(), "second start is a no-op")

	assert.Eventually(t, func() bool { return p.Calls() >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return s.Stats().LastPollAt != nil }, 2*time.Second, 10*time.Millisecond)

	stats := s.Stats()
	assert.True(t, stats.Running)
	assert.Equal(t, "doc-1", stats.DocumentID)
	assert.Equal(t, "Reconcile", stats.Sheet)
	assert.Equal(t, uint64(1), stats.RequestsProcessed)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.False(t, s.Stats().Running)
	require.NoError(t, s.Stop(), "stopping twice is a no-op")
}

func TestPollingScheduler_ShutdownIsFinal(t *testing.T) {
	p := &fakeProcessor{}
	s := newTestScheduler(t, p, 60*time.Second)
	require.NoError(t, s.Configure(testTarget))

	require.NoError(t, s.Start())
	assert.Eventually(t, func() bool { return p.Calls() >= 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Shutdown())
	require.NoError(t, s.Shutdown(), "second shutdown is a no-op")

	assert.ErrorIs(t, s.Start(), ErrSchedulerShutdown)
	assert.False(t, s.IsRunning())
	assert.False(t, s.Stats().Running)
}

func TestPollingScheduler_TickSkipsWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	p := &fakeProcessor{block: release}
	s := newTestScheduler(t, p, time.Second)
	require.NoError(t, s.Configure(testTarget))

	done := make(chan struct{})
	go func() {
		s.tick()
		close(done)
	}()
	require.Eventually(t, func() bool { return p.Calls() == 1 }, time.Second, 5*time.Millisecond)

	s.tick()
	close(release)
	<-done

	stats := s.Stats()
	assert.Equal(t, uint64(2), stats.Ticks)
	assert.Equal(t, uint64(1), stats.SkippedTicks)
	assert.Equal(t, 1, p.Calls())
}

func TestPollingScheduler_TickRecordsErrors(t *testing.T) {
	p := &fakeProcessor{processed: true, err: fmt.Errorf("license service unavailable")}
	s := newTestScheduler(t, p, time.Second)
	require.NoError(t, s.Configure(testTarget))

	s.tick()

	stats := s.Stats()
	assert.Equal(t, "license service unavailable", stats.LastError)
	assert.NotNil(t, stats.LastErrorAt)
	assert.Nil(t, stats.LastPollAt)
	assert.Equal(t, uint64(1), stats.RequestsProcessed)
}

func TestPollingScheduler_TickRecoversPanic(t *testing.T) {
	p := &fakeProcessor{panicMsg: "nil pointer"}
	s := newTestScheduler(t, p, time.Second)
	require.NoError(t, s.Configure(testTarget))

	assert.NotPanics(t, s.tick)
	assert.Contains(t, s.Stats().LastError, "nil pointer")

	p.mu.Lock()
	p.panicMsg = ""
	p.mu.Unlock()
	s.tick()
	assert.Equal(t, 2, p.Calls(), "in-flight flag released after panic")
}

func TestPollingScheduler_Reconfigure(t *testing.T) {
	p := &fakeProcessor{}
	s := newTestScheduler(t, p, 60*time.Second)
	require.NoError(t, s.Configure(testTarget))

	assert.ErrorIs(t, s.Reconfigure(0), ErrIntervalOutOfRange)
	assert.ErrorIs(t, s.Reconfigure(2*time.Minute), ErrIntervalOutOfRange)

	require.NoError(t, s.Reconfigure(10*time.Second))
	assert.Equal(t, 10, s.Stats().IntervalSeconds)

	require.NoError(t, s.Start())
	require.NoError(t, s.Reconfigure(30*time.Second))
	assert.True(t, s.IsRunning())
	assert.Equal(t, 30, s.Stats().IntervalSeconds)
}

func TestPollingScheduler_ConfigureSwitchesTarget(t *testing.T) {
	p := &fakeProcessor{}
	s := newTestScheduler(t, p, time.Second)
	require.NoError(t, s.Configure(testTarget))
	s.tick()

	other := document.Target{DocumentID: "doc-2", Sheet: "Ops"}
	require.NoError(t, s.Configure(other))
	s.tick()

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Equal(t, []document.Target{testTarget, other}, p.targets)
}
