// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ethernet

// allowedTransitions is the lifecycle edge set. Anything outside it is
// a programming error and is rejected with a diagnostic. PhyStarting
// reaches Connected directly because the ETH and IP bases deliver
// independently: a got-ip may outrun the link-up notification.
var allowedTransitions = map[ConnectionState][]ConnectionState{
	StateUninitialized: {StatePhyStarting, StateError},
	StatePhyStarting:   {StateObtainingIP, StateConnected, StateDisconnecting, StateError},
	StateObtainingIP:   {StateConnected, StateLinkDown, StateDisconnecting, StateError},
	StateConnected:     {StateLinkDown, StateDisconnecting, StateError},
	StateLinkUp:        {StateConnected, StateLinkDown, StateDisconnecting, StateError},
	StateLinkDown:      {StateLinkUp, StateObtainingIP, StateConnected, StateDisconnecting, StateError},
	StateDisconnecting: {StateUninitialized, StateError},
	StateError:         {StateUninitialized},
}

func transitionAllowed(from, to ConnectionState) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// pendingCalls collects subscriber notifications assembled under the
// lock and run strictly after release, in append order.
type pendingCalls []func()

func (p pendingCalls) run() {
	for _, fn := range p {
		fn()
	}
}

// changeStateLocked applies a transition while the caller holds the
// lock. It records the previous state, stamps timing checkpoints and
// queues the state-change notification. Returns false when the
// transition is rejected.
func (m *Manager) changeStateLocked(next ConnectionState, pending *pendingCalls) bool {
	cur := m.state
	if cur == next {
		return false
	}
	if !transitionAllowed(cur, next) {
		m.log.Warn("Rejecting invalid state transition", "from", cur, "to", next)
		return false
	}

	m.prevState = cur
	m.state = next
	m.stateVal.Store(next)

	now := m.clock.Now()
	switch next {
	case StatePhyStarting:
		m.initStart = now
	case StateObtainingIP, StateLinkUp:
		m.linkUpTime = now
	case StateConnected:
		m.ipObtainedTime = now
	}

	m.log.Debug("State transition", "from", cur, "to", next)

	if cb := m.onStateChange; cb != nil {
		*pending = append(*pending, func() { cb(cur, next) })
	}
	return true
}

// resetStateLocked forces the state back to Uninitialized outside the
// transition table. Only Cleanup uses it.
func (m *Manager) resetStateLocked() {
	m.prevState = m.state
	m.state = StateUninitialized
	m.stateVal.Store(StateUninitialized)
}
