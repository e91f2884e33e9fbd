// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ethernet

// armReconnectLocked schedules a one-shot reconnect attempt after the
// current backoff delay. At most one timer is pending at a time.
func (m *Manager) armReconnectLocked() {
	if m.reconnectTimer != nil {
		return
	}
	delay := m.bo.delay()
	m.reconnectTimer = m.clock.AfterFunc(delay, m.reconnectFire)
	m.log.Debug("Reconnect armed", "delay", delay, "attempts", m.reconnectAttempts)
}

// stopReconnectLocked cancels a pending reconnect attempt.
func (m *Manager) stopReconnectLocked() {
	if m.reconnectTimer == nil {
		return
	}
	m.reconnectTimer.Stop()
	m.reconnectTimer = nil
}

// reconnectFire runs on the timer goroutine. It bumps the attempt
// counter, enforces the retry cap, advances the backoff and
// reschedules itself. Driver restarts happen outside the lock.
func (m *Manager) reconnectFire() {
	if !m.mu.lock(quickLockTimeout) {
		m.log.Warn("Lock timeout in reconnect timer, attempt skipped")
		return
	}

	m.reconnectTimer = nil

	if m.connected.Load() || !m.cfg.Reconnect.Enabled {
		m.mu.unlock()
		return
	}

	m.reconnectAttempts++
	attempts := m.reconnectAttempts

	if m.cfg.Reconnect.MaxRetries > 0 && attempts > m.cfg.Reconnect.MaxRetries {
		m.cfg.Reconnect.Enabled = false
		m.mu.unlock()
		m.log.Warn("Reconnect retries exhausted, auto-reconnect disabled",
			"attempts", attempts-1)
		return
	}

	m.bo.advance()
	next := m.bo.delay()
	m.reconnectTimer = m.clock.AfterFunc(next, m.reconnectFire)
	m.mu.unlock()

	m.log.Info("Reconnect attempt", "attempt", attempts, "next_delay", next)

	// Drivers without restart capability just wait for a link-up
	// event; the rescheduled timer keeps the cycle alive.
	if restarter, ok := m.driver.(Restarter); ok {
		if err := restarter.Restart(); err != nil {
			m.log.Warn("Driver restart failed", "attempt", attempts, "err", err)
		}
	}
}
