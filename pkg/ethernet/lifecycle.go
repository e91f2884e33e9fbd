// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ethernet

import (
	"time"

	"github.com/stratastor/ethman/pkg/errors"
)

// Disconnect tears the logical connection down and returns the
// interface to Uninitialized. Re-initialization is required before
// further use. A no-op when already uninitialized.
func (m *Manager) Disconnect() error {
	if !m.mu.lock(standardLockTimeout) {
		return errors.New(errors.EthMutexTimeout, "disconnect")
	}

	if m.state == StateUninitialized {
		m.mu.unlock()
		return nil
	}

	var pending pendingCalls
	now := m.clock.Now()

	wasConnected := m.state == StateConnected
	var connectedFor time.Duration
	if wasConnected {
		connectedFor = now.Sub(m.connectTime)
		m.disconnectCount++
	}

	m.changeStateLocked(StateDisconnecting, &pending)

	m.stopReconnectLocked()
	m.stopMonitorLocked()

	m.setConnectedLocked(false)
	m.gotIP.Store(false)
	m.phyStarted.Store(false)
	m.lastLinkStatus = false

	m.changeStateLocked(StateUninitialized, &pending)
	m.initialized = false

	if wasConnected {
		if cb := m.onDisconnected; cb != nil {
			pending = append(pending, func() { cb(connectedFor) })
		}
	}
	m.mu.unlock()

	m.log.Info("Ethernet disconnected", "connected_for", connectedFor)
	pending.run()
	return nil
}

// Cleanup unregisters event handlers, destroys timers, clears
// callbacks and statistics and resets the machine to Uninitialized.
// The lock and connection channel stay allocated for reuse; Initialize
// may be called again afterwards.
func (m *Manager) Cleanup() error {
	if !m.mu.lock(standardLockTimeout) {
		return errors.New(errors.EthMutexTimeout, "cleanup")
	}

	if m.handlersRegistered {
		m.bus.Unregister(m.ethRegID)
		m.bus.Unregister(m.ipRegID)
		m.handlersRegistered = false
	}

	m.stopReconnectLocked()
	m.stopMonitorLocked()
	if m.sched != nil {
		if err := m.sched.Shutdown(); err != nil {
			m.log.Warn("Scheduler shutdown failed", "err", err)
		}
		m.sched = nil
	}

	m.onConnected = nil
	m.onDisconnected = nil
	m.onStateChange = nil
	m.onLinkStatus = nil
	m.verbose.Store(false)

	m.disconnectCount = 0
	m.reconnectCount = 0
	m.linkDownEvents = 0
	m.dhcpRenewals = 0
	m.totalEvents = 0
	m.reconnectAttempts = 0
	m.connectTime = time.Time{}
	m.connStart = time.Time{}
	m.initStart = time.Time{}
	m.linkUpTime = time.Time{}
	m.ipObtainedTime = time.Time{}
	m.setLastError(0)

	m.setConnectedLocked(false)
	m.gotIP.Store(false)
	m.phyStarted.Store(false)
	m.lastLinkStatus = false
	m.initialized = false
	m.resetStateLocked()

	m.mu.unlock()
	m.log.Info("Ethernet controller cleaned up")
	return nil
}

// ResetInterface clears the logical connection state and, when the
// driver supports it, kicks a link restart. The PHY itself cannot be
// power-cycled below what the driver exposes; callers needing a full
// reset should Cleanup and re-Initialize. Returns false when the
// interface was never initialized.
func (m *Manager) ResetInterface() bool {
	if !m.mu.lock(standardLockTimeout) {
		m.log.Warn("Lock timeout, interface not reset")
		return false
	}

	if !m.initialized {
		m.mu.unlock()
		return false
	}

	var pending pendingCalls
	m.setConnectedLocked(false)
	m.gotIP.Store(false)
	m.stopReconnectLocked()
	m.reconnectAttempts = 0
	m.bo.reset()
	m.changeStateLocked(StateLinkDown, &pending)
	m.mu.unlock()

	pending.run()

	if restarter, ok := m.driver.(Restarter); ok {
		if err := restarter.Restart(); err != nil {
			m.log.Warn("Driver restart failed during reset", "err", err)
		}
	}
	m.log.Info("Ethernet interface reset")
	return true
}
