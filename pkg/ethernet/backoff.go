// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ethernet

import "time"

// backoff produces the reconnect delay sequence: initial, then doubled
// on every advance, capped at max.
type backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

func newBackoff(initial, max time.Duration) backoff {
	if initial <= 0 {
		initial = time.Second
	}
	if max < initial {
		max = initial
	}
	return backoff{initial: initial, max: max, current: initial}
}

// delay returns the wait before the next attempt.
func (b *backoff) delay() time.Duration {
	return b.current
}

// advance doubles the delay up to the cap.
func (b *backoff) advance() {
	next := b.current * 2
	if next > b.max {
		next = b.max
	}
	b.current = next
}

// reset restores the initial delay after a successful connection.
func (b *backoff) reset() {
	b.current = b.initial
}
