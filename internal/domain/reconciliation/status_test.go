package reconciliation

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     Status
		to       Status
		expected bool
	}{
		{"idle to triggered", StatusIdle, StatusTriggered, true},
		{"idle to processing", StatusIdle, StatusProcessing, false},
		{"triggered to processing", StatusTriggered, StatusProcessing, true},
		{"triggered to completed", StatusTriggered, StatusCompleted, false},
		{"triggered to idle", StatusTriggered, StatusIdle, true},
		{"processing to completed", StatusProcessing, StatusCompleted, true},
		{"processing to failed", StatusProcessing, StatusFailed, true},
		{"processing to idle", StatusProcessing, StatusIdle, false},
		{"completed to idle", StatusCompleted, StatusIdle, true},
		{"completed to triggered", StatusCompleted, StatusTriggered, true},
		{"failed to idle", StatusFailed, StatusIdle, true},
		{"failed to processing", StatusFailed, StatusProcessing, false},
		{"unknown status", Status("bogus"), StatusIdle, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
			err := tt.from.ValidateTransition(tt.to)
			if tt.expected {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidStatusTransition)
			}
		})
	}
}

func TestTracker_Lifecycle(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, StatusIdle, tr.Status())
	assert.False(t, tr.Reset())

	require.NoError(t, tr.Claim())
	assert.ErrorIs(t, tr.Claim(), ErrRequestInProgress)
	require.NoError(t, tr.Transition(StatusProcessing))
	assert.ErrorIs(t, tr.Claim(), ErrRequestInProgress)
	assert.False(t, tr.Reset())

	require.NoError(t, tr.Transition(StatusCompleted))
	assert.False(t, tr.ChangedAt().IsZero())
	assert.True(t, tr.Reset())
	assert.Equal(t, StatusIdle, tr.Status())
}

func TestTracker_Release(t *testing.T) {
	tr := NewTracker()
	assert.ErrorIs(t, tr.Release(), ErrInvalidStatusTransition)

	require.NoError(t, tr.Claim())
	require.NoError(t, tr.Release())
	assert.Equal(t, StatusIdle, tr.Status())
}

func TestTracker_ClaimFromTerminal(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.Claim())
	require.NoError(t, tr.Transition(StatusProcessing))
	require.NoError(t, tr.Transition(StatusFailed))

	require.NoError(t, tr.Claim())
	assert.Equal(t, StatusTriggered, tr.Status())
}

func TestTracker_ConcurrentClaimHasOneWinner(t *testing.T) {
	tr := NewTracker()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tr.Claim(); err == nil {
				wins.Add(1)
			} else if !errors.Is(err, ErrRequestInProgress) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
