// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ethernet

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Lock acquisition timeouts by call site class.
const (
	quickLockTimeout    = 100 * time.Millisecond // status reads, setters, event handlers
	standardLockTimeout = time.Second            // disconnect, cleanup
	initLockTimeout     = 5 * time.Second        // bring-up
)

// timedMutex is a mutex with bounded acquisition. A capacity-1 channel
// carries the lock token so acquisition can race a timer.
type timedMutex struct {
	ch    chan struct{}
	clock clockwork.Clock
}

func newTimedMutex(clock clockwork.Clock) *timedMutex {
	return &timedMutex{
		ch:    make(chan struct{}, 1),
		clock: clock,
	}
}

// lock attempts acquisition for at most timeout, reporting success.
func (m *timedMutex) lock(timeout time.Duration) bool {
	select {
	case m.ch <- struct{}{}:
		return true
	default:
	}

	timer := m.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case m.ch <- struct{}{}:
		return true
	case <-timer.Chan():
		return false
	}
}

func (m *timedMutex) unlock() {
	select {
	case <-m.ch:
	default:
		panic("ethernet: unlock of unlocked mutex")
	}
}
