// Package goroutine provides panic-safe execution helpers.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"github.com/entitleops/licensesync/internal/shared/logger"
)

// SafeGo launches fn in a goroutine that logs instead of crashing on panic.
func SafeGo(log logger.Interface, name string, fn func()) {
	go func() {
		_ = Run(log, name, fn)
	}()
}

// Run calls fn synchronously and converts a panic into an error so the
// caller can record it.
func Run(log logger.Interface, name string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", name, r)
			log.Errorw("goroutine panicked",
				"goroutine", name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
	return nil
}
