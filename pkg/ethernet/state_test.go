// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ethernet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitionTable(t *testing.T) {
	allowed := []struct{ from, to ConnectionState }{
		{StateUninitialized, StatePhyStarting},
		{StatePhyStarting, StateObtainingIP},
		{StatePhyStarting, StateConnected},
		{StateObtainingIP, StateConnected},
		{StateConnected, StateLinkDown},
		{StateLinkDown, StateObtainingIP},
		{StateLinkDown, StateLinkUp},
		{StateLinkDown, StateConnected},
		{StateLinkUp, StateConnected},
		{StateConnected, StateDisconnecting},
		{StatePhyStarting, StateDisconnecting},
		{StateDisconnecting, StateUninitialized},
		{StateError, StateUninitialized},
	}
	for _, tr := range allowed {
		assert.True(t, transitionAllowed(tr.from, tr.to), "%s -> %s", tr.from, tr.to)
	}

	denied := []struct{ from, to ConnectionState }{
		{StateUninitialized, StateConnected},
		{StateUninitialized, StateObtainingIP},
		{StateConnected, StatePhyStarting},
		{StateConnected, StateUninitialized},
		{StateError, StatePhyStarting},
		{StateDisconnecting, StateConnected},
		{StateObtainingIP, StateLinkUp},
	}
	for _, tr := range denied {
		assert.False(t, transitionAllowed(tr.from, tr.to), "%s -> %s", tr.from, tr.to)
	}

	// Every state can reach the error state except Error itself.
	for from := range allowedTransitions {
		if from == StateError {
			continue
		}
		assert.True(t, transitionAllowed(from, StateError), "%s -> error", from)
	}
}

func TestInvalidTransitionRejected(t *testing.T) {
	m, _, _ := newTestManager(t)

	fired := false
	m.SetStateChangeCallback(func(ConnectionState, ConnectionState) { fired = true })

	m.mu.lock(standardLockTimeout)
	var pending pendingCalls
	ok := m.changeStateLocked(StateConnected, &pending)
	m.mu.unlock()
	pending.run()

	assert.False(t, ok)
	assert.Equal(t, StateUninitialized, m.State())
	assert.False(t, fired)
}

func TestSelfTransitionIsNoop(t *testing.T) {
	m, _, _ := newTestManager(t)

	m.mu.lock(standardLockTimeout)
	var pending pendingCalls
	ok := m.changeStateLocked(StateUninitialized, &pending)
	m.mu.unlock()

	assert.False(t, ok)
	assert.Empty(t, pending)
}
