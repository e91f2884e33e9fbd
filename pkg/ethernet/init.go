// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ethernet

import (
	"net"

	"github.com/stratastor/ethman/internal/events"
	"github.com/stratastor/ethman/pkg/errors"
)

// Initialize brings the interface up and blocks until an address is
// acquired or DefaultInitTimeout elapses. On timeout the machine is
// left wherever event ingestion last moved it; only the error return
// tells the caller the wait expired.
func (m *Manager) Initialize(cfg Config) error {
	if err := m.initialize(cfg); err != nil {
		return err
	}
	return m.WaitForConnection(DefaultInitTimeout)
}

// InitializeAsync brings the interface up and returns after the PHY
// has started. Address acquisition completes in the background; use
// WaitForConnection or the connected callback to observe it.
func (m *Manager) InitializeAsync(cfg Config) error {
	return m.initialize(cfg)
}

// EarlyInit registers the event handlers ahead of Initialize so no
// driver notification is missed. It is idempotent; Initialize calls it
// implicitly.
func (m *Manager) EarlyInit() error {
	if !m.mu.lock(quickLockTimeout) {
		return errors.New(errors.EthMutexTimeout, "early init")
	}
	defer m.mu.unlock()
	return m.registerHandlersLocked()
}

func (m *Manager) registerHandlersLocked() error {
	if m.handlersRegistered {
		return nil
	}
	if m.bus == nil {
		return errors.New(errors.EthEventHandlerFailed, "no event bus available")
	}
	m.ethRegID = m.bus.Register(events.BaseEthernet, m.handleEthEvent)
	m.ipRegID = m.bus.Register(events.BaseIP, m.handleIPEvent)
	m.handlersRegistered = true
	return nil
}

// initialize is the single bring-up path all entry points funnel into.
// Each failing step records the error code and, once the driver has
// been touched, moves the machine to the error state.
func (m *Manager) initialize(cfg Config) error {
	// Validation failures leave the machine untouched: no state
	// change, no driver call.
	if err := cfg.Validate(); err != nil {
		m.setLastError(errors.CodeOf(err))
		return err
	}

	if !m.mu.lock(initLockTimeout) {
		m.setLastError(errors.EthMutexTimeout)
		return errors.New(errors.EthMutexTimeout, "initialize")
	}

	if m.initialized {
		m.mu.unlock()
		return errors.New(errors.EthAlreadyInitialized, "")
	}

	if err := m.registerHandlersLocked(); err != nil {
		m.setLastError(errors.CodeOf(err))
		m.mu.unlock()
		return err
	}

	var pending pendingCalls

	m.setConnectedLocked(false)
	m.gotIP.Store(false)
	m.cfg = cfg
	if cfg.MAC != nil {
		m.cfg.MAC = append(net.HardwareAddr(nil), cfg.MAC...)
	}
	m.bo = newBackoff(cfg.Reconnect.InitialDelay, cfg.Reconnect.MaxDelay)
	m.reconnectAttempts = 0
	m.changeStateLocked(StatePhyStarting, &pending)

	err := m.driver.Begin(PHYConfig{
		Addr:  cfg.PhyAddr,
		MDC:   cfg.MDCPin,
		MDIO:  cfg.MDIOPin,
		Power: cfg.PowerPin,
		Clock: cfg.Clock,
	})
	if err != nil {
		m.setLastError(errors.EthPhyStartFailed)
		m.changeStateLocked(StateError, &pending)
		m.mu.unlock()
		pending.run()
		return errors.Wrap(err, errors.EthPhyStartFailed)
	}
	m.phyStarted.Store(true)

	m.applyHostnameLocked(cfg.Hostname)

	if cfg.Static != nil {
		if err := m.applyStaticLocked(cfg); err != nil {
			m.setLastError(errors.EthConfigFailed)
			m.changeStateLocked(StateError, &pending)
			m.mu.unlock()
			pending.run()
			return err
		}
	}

	if cfg.Monitor.Enabled {
		if err := m.startMonitorLocked(cfg.Monitor.Interval); err != nil {
			m.log.Warn("Failed to start link monitor", "err", err)
		}
	}

	m.initialized = true
	m.mu.unlock()

	m.log.Info("Ethernet interface initialized",
		"hostname", cfg.Hostname,
		"phy_addr", cfg.PhyAddr,
		"static", cfg.Static != nil)
	pending.run()
	return nil
}

// applyHostnameLocked writes the hostname only when it differs from
// what the driver reports. Hostname failures are logged, not fatal.
func (m *Manager) applyHostnameLocked(hostname string) {
	current, err := m.driver.Hostname()
	if err == nil && current == hostname {
		return
	}
	if err := m.driver.SetHostname(hostname); err != nil {
		m.log.Warn("Failed to set hostname", "hostname", hostname, "err", err)
	}

	if m.netifs == nil {
		return
	}
	if netif, ok := m.netifs.LookupByKey(NetifKeyDefault); ok {
		if err := netif.SetHostname(hostname); err != nil {
			m.log.Warn("Failed to set registry hostname", "hostname", hostname, "err", err)
		}
	}
}

// applyStaticLocked pushes the static lease, custom MAC included, to
// the driver and programs DNS on the registry entry.
func (m *Manager) applyStaticLocked(cfg Config) error {
	lease := Lease{
		IP:      cfg.Static.IP,
		Gateway: cfg.Static.Gateway,
		Netmask: cfg.Static.Netmask,
		DNS1:    cfg.Static.DNS1,
		DNS2:    cfg.Static.DNS2,
		MAC:     m.cfg.MAC,
	}
	if err := m.driver.Configure(lease); err != nil {
		return errors.Wrap(err, errors.EthConfigFailed)
	}

	if m.netifs != nil && cfg.Static.DNS1.IsValid() {
		if netif, ok := m.netifs.LookupByKey(NetifKeyDefault); ok {
			if err := netif.SetDNS(DNSMain, cfg.Static.DNS1); err != nil {
				m.log.Warn("Failed to set primary dns", "err", err)
			}
			if cfg.Static.DNS2.IsValid() {
				if err := netif.SetDNS(DNSBackup, cfg.Static.DNS2); err != nil {
					m.log.Warn("Failed to set backup dns", "err", err)
				}
			}
		}
	}
	return nil
}
