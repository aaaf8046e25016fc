package goroutine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/entitleops/licensesync/internal/shared/logger"
)

func TestRun_RecoversPanic(t *testing.T) {
	err := Run(logger.NewNopLogger(), "tick", func() { panic("sheet exploded") })
	assert.EqualError(t, err, "tick panicked: sheet exploded")
}

func TestRun_NoPanic(t *testing.T) {
	called := false
	assert.NoError(t, Run(logger.NewNopLogger(), "tick", func() { called = true }))
	assert.True(t, called)
}

func TestSafeGo_DoesNotCrash(t *testing.T) {
	done := make(chan struct{})
	SafeGo(logger.NewNopLogger(), "bg", func() {
		defer close(done)
		panic("boom")
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not run")
	}
}
