// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ethernet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffSequence(t *testing.T) {
	b := newBackoff(time.Second, 30*time.Second)

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}
	var got []time.Duration
	for range want {
		got = append(got, b.delay())
		b.advance()
	}
	assert.Equal(t, want, got)

	b.reset()
	assert.Equal(t, time.Second, b.delay())
}

func TestBackoffClamping(t *testing.T) {
	b := newBackoff(0, 10*time.Second)
	assert.Equal(t, time.Second, b.delay(), "non-positive initial falls back to 1s")

	b = newBackoff(5*time.Second, time.Second)
	assert.Equal(t, 5*time.Second, b.delay())
	b.advance()
	assert.Equal(t, 5*time.Second, b.delay(), "max below initial clamps to initial")
}
