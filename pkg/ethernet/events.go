// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ethernet

import (
	"net/netip"

	"github.com/stratastor/ethman/internal/events"
)

// handleEthEvent ingests PHY notifications. It runs on the bus
// dispatch goroutine and must not block: lock work is bounded by the
// quick timeout and subscriber callbacks run after release.
func (m *Manager) handleEthEvent(e events.Event) {
	switch e.Kind {
	case EventEthStart:
		m.log.Debug("Ethernet started", "event_id", e.ID)
		m.countEvent()

	case EventEthConnected:
		m.handleLinkUp()

	case EventEthDisconnected, EventEthStop:
		m.handleLinkLoss(e.Kind)

	default:
		m.countEvent()
		m.log.Warn("Unknown ethernet event", "kind", e.Kind, "event_id", e.ID)
	}
}

// handleIPEvent ingests address acquisition notifications.
func (m *Manager) handleIPEvent(e events.Event) {
	switch e.Kind {
	case EventIPGotIP:
		ip, _ := e.Payload.(netip.Addr)
		m.handleGotIP(ip)

	default:
		m.countEvent()
		m.log.Warn("Unknown ip event", "kind", e.Kind, "event_id", e.ID)
	}
}

func (m *Manager) countEvent() {
	if !m.mu.lock(quickLockTimeout) {
		return
	}
	m.totalEvents++
	m.mu.unlock()
}

// handleLinkUp anchors the trust window and moves to ObtainingIP.
func (m *Manager) handleLinkUp() {
	if !m.mu.lock(quickLockTimeout) {
		m.log.Warn("Lock timeout handling link-up event")
		return
	}

	var pending pendingCalls
	m.totalEvents++
	m.connStart = m.clock.Now()
	m.changeStateLocked(StateObtainingIP, &pending)
	m.mu.unlock()

	pending.run()

	// Re-read the live link status so the monitor edge detector and
	// subscribers see the new link promptly.
	m.updateLinkStatus()
}

// handleLinkLoss debounces disconnects inside the trust window, then
// tears down the connected state and arms the reconnect timer.
func (m *Manager) handleLinkLoss(kind int32) {
	if !m.mu.lock(quickLockTimeout) {
		m.log.Warn("Lock timeout handling disconnect event")
		return
	}

	now := m.clock.Now()
	m.totalEvents++

	// Trust window: a disconnect arriving before the interface ever
	// held an address, or too soon after the last link-up, is treated
	// as PHY negotiation noise.
	window := m.cfg.TrustWindow
	if window <= 0 {
		window = DefaultTrustWindow
	}
	if !m.gotIP.Load() || now.Sub(m.connStart) < window {
		sinceLink := now.Sub(m.connStart)
		m.mu.unlock()
		m.log.Debug("Ignoring disconnect inside trust window",
			"kind", kind,
			"since_link_up", sinceLink,
			"window", window)
		return
	}

	var pending pendingCalls

	m.gotIP.Store(false)
	m.setConnectedLocked(false)
	m.changeStateLocked(StateLinkDown, &pending)
	m.disconnectCount++
	m.linkDownEvents++

	connectedFor := now.Sub(m.connectTime)
	if cb := m.onDisconnected; cb != nil {
		pending = append(pending, func() { cb(connectedFor) })
	}

	if m.cfg.Reconnect.Enabled {
		m.armReconnectLocked()
	}
	m.mu.unlock()

	pending.run()
}

// handleGotIP records the acquired address and completes the
// transition to Connected. A got-ip while already connected is a DHCP
// renewal: counters update but no transition or callback fires.
func (m *Manager) handleGotIP(ip netip.Addr) {
	if !m.mu.lock(quickLockTimeout) {
		m.log.Warn("Lock timeout handling got-ip event")
		return
	}

	now := m.clock.Now()
	m.totalEvents++
	m.gotIP.Store(true)
	m.connectTime = now
	m.reconnectAttempts = 0
	m.bo.reset()
	m.stopReconnectLocked()
	m.setLastError(0)

	if m.connected.Load() {
		m.dhcpRenewals++
		m.mu.unlock()
		m.log.Debug("DHCP lease renewed", "ip", ip)
		return
	}

	// The connected bit follows the state, never the other way around:
	// a got-ip landing in a state with no edge to Connected (after a
	// teardown, for instance) is dropped rather than recorded as a
	// half-connected pair.
	var pending pendingCalls
	if !m.changeStateLocked(StateConnected, &pending) {
		state := m.state
		m.mu.unlock()
		m.log.Warn("Dropping got-ip event", "state", state, "ip", ip)
		return
	}

	if m.disconnectCount > 0 {
		m.reconnectCount++
	}
	m.setConnectedLocked(true)

	if cb := m.onConnected; cb != nil {
		pending = append(pending, func() { cb(ip) })
	}
	m.mu.unlock()

	if m.verbose.Load() {
		m.log.Info("Ethernet connected",
			"ip", ip,
			"mac", m.MACAddress(),
			"hostname", m.Hostname(),
			"speed_mbps", m.LinkSpeed(),
			"full_duplex", m.FullDuplex())
	} else {
		m.log.Info("Ethernet connected", "ip", ip)
	}
	pending.run()
}
