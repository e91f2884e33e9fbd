// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ethernet

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestTimedMutexLockUnlock(t *testing.T) {
	mu := newTimedMutex(clockwork.NewRealClock())
	assert.True(t, mu.lock(quickLockTimeout))
	mu.unlock()
	assert.True(t, mu.lock(quickLockTimeout))
	mu.unlock()
}

func TestTimedMutexTimeout(t *testing.T) {
	mu := newTimedMutex(clockwork.NewRealClock())
	assert.True(t, mu.lock(quickLockTimeout))

	start := time.Now()
	assert.False(t, mu.lock(50*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	mu.unlock()
	assert.True(t, mu.lock(quickLockTimeout))
	mu.unlock()
}

func TestTimedMutexUnlockPanics(t *testing.T) {
	mu := newTimedMutex(clockwork.NewRealClock())
	assert.Panics(t, func() { mu.unlock() })
}
