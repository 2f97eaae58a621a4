package pdfwatch

import (
	"context"
	"runtime"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one browser can run.
	MinPoolSize = 1

	// MaxPoolSize caps auto-sized limits (~200MB per Chrome instance).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// LaunchLimiter gates how many renderer browsers may run at once.
// It hands out slots, not browsers: each render still launches its own
// Chrome. A zero-size limiter never blocks.
type LaunchLimiter struct {
	sem chan struct{}
}

// NewLaunchLimiter creates a limiter with n slots. n <= 0 means unlimited.
func NewLaunchLimiter(n int) *LaunchLimiter {
	if n <= 0 {
		return &LaunchLimiter{}
	}
	return &LaunchLimiter{sem: make(chan struct{}, n)}
}

// Acquire takes a slot, blocking until one is free or ctx is done.
func (l *LaunchLimiter) Acquire(ctx context.Context) error {
	if l == nil || l.sem == nil {
		return ctx.Err()
	}
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot taken by Acquire.
func (l *LaunchLimiter) Release() {
	if l == nil || l.sem == nil {
		return
	}
	<-l.sem
}

// Size returns the slot count (0 = unlimited).
func (l *LaunchLimiter) Size() int {
	if l == nil {
		return 0
	}
	return cap(l.sem)
}

// InUse returns the number of slots currently held.
func (l *LaunchLimiter) InUse() int {
	if l == nil {
		return 0
	}
	return len(l.sem)
}

// ResolvePoolSize determines how many browsers may run concurrently.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Negative workers disables the limit and returns 0.
// Exported for use by servers and CLIs.
func ResolvePoolSize(workers int) int {
	if workers < 0 {
		return 0
	}
	if workers > 0 {
		return workers
	}

	// Auto-calculate based on GOMAXPROCS (adjusted by automaxprocs for containers)
	available := runtime.GOMAXPROCS(0)
	n := available / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
