package staking

import "sync/atomic"

const (
	free int32 = iota
	entered
)

// reentryGuard protects the settle-then-transfer sequencing from being
// re-entered through a token callback while an operation is still executing.
// A guarded operation either enters immediately or fails, it never blocks.
type reentryGuard struct {
	state int32
}

func (g *reentryGuard) Enter() error {
	if !atomic.CompareAndSwapInt32(&g.state, free, entered) {
		return ErrReentrantCall
	}

	return nil
}

func (g *reentryGuard) Exit() {
	atomic.CompareAndSwapInt32(&g.state, entered, free)
}
