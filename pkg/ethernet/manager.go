// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package ethernet implements the lifecycle controller for a single
// wired interface: state machine, event ingestion with disconnect
// debouncing, exponential-backoff reconnect, periodic link monitoring
// and connection waiting.
package ethernet

import (
	"net"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/stratastor/ethman/internal/events"
	"github.com/stratastor/ethman/pkg/errors"
	"github.com/stratastor/logger"
)

// Manager owns one wired interface from PHY bring-up through address
// acquisition, steady state, link loss and recovery. It is safe for
// concurrent use; status reads never take the lock.
type Manager struct {
	log    logger.Logger
	clock  clockwork.Clock
	driver Driver
	netifs NetifRegistry
	bus    *events.Bus

	mu *timedMutex

	// Lock-free fast path. stateVal mirrors state for readers.
	phyStarted atomic.Bool
	gotIP      atomic.Bool
	connected  atomic.Bool
	stateVal   atomic.Value // ConnectionState
	lastErr    atomic.Int32
	verbose    atomic.Bool

	// connCh holds a chan struct{} closed while the connected bit is
	// set; cleared by swapping in a fresh open channel.
	connCh atomic.Value

	// Everything below is guarded by mu.
	cfg         Config
	initialized bool

	handlersRegistered bool
	ethRegID           string
	ipRegID            string

	state     ConnectionState
	prevState ConnectionState

	// Timing checkpoints for diagnostics.
	initStart      time.Time
	linkUpTime     time.Time
	ipObtainedTime time.Time

	// connStart is the most recent link-up, anchoring the trust window.
	connStart time.Time
	// connectTime is the most recent got-ip.
	connectTime time.Time

	disconnectCount uint64
	reconnectCount  uint64
	linkDownEvents  uint64
	dhcpRenewals    uint64
	totalEvents     uint64

	bo                backoff
	reconnectAttempts int
	reconnectTimer    clockwork.Timer

	sched          gocron.Scheduler
	monitorJob     gocron.Job
	lastLinkStatus bool

	onConnected    func(ip netip.Addr)
	onDisconnected func(connectedFor time.Duration)
	onStateChange  func(old, new ConnectionState)
	onLinkStatus   func(up bool)
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithClock substitutes the wall clock, for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(m *Manager) { m.clock = clock }
}

// NewManager wires a controller to its driver, interface registry and
// event bus. The registry may be nil when the driver handles hostname
// and DNS itself. No timers exist until Initialize.
func NewManager(
	driver Driver,
	netifs NetifRegistry,
	bus *events.Bus,
	l logger.Logger,
	opts ...Option,
) *Manager {
	m := &Manager{
		log:    l,
		clock:  clockwork.NewRealClock(),
		driver: driver,
		netifs: netifs,
		bus:    bus,
		cfg:    DefaultConfig(),
		state:  StateUninitialized,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.mu = newTimedMutex(m.clock)
	m.stateVal.Store(StateUninitialized)
	m.connCh.Store(make(chan struct{}))
	m.bo = newBackoff(m.cfg.Reconnect.InitialDelay, m.cfg.Reconnect.MaxDelay)
	return m
}

// State returns the current lifecycle state without locking.
func (m *Manager) State() ConnectionState {
	return m.stateVal.Load().(ConnectionState)
}

// PreviousState returns the state before the last applied transition.
func (m *Manager) PreviousState() ConnectionState {
	if !m.mu.lock(quickLockTimeout) {
		return StateUninitialized
	}
	defer m.mu.unlock()
	return m.prevState
}

// IsConnected reports whether the connected bit is set.
func (m *Manager) IsConnected() bool {
	return m.connected.Load()
}

// IsStarted reports whether the driver accepted Begin.
func (m *Manager) IsStarted() bool {
	return m.phyStarted.Load()
}

// IsLinkUp reads the driver's live link status.
func (m *Manager) IsLinkUp() bool {
	if !m.phyStarted.Load() {
		return false
	}
	return m.driver.LinkUp()
}

// LocalIP returns the interface address, or the zero Addr before one
// is acquired.
func (m *Manager) LocalIP() netip.Addr {
	if !m.phyStarted.Load() {
		return netip.Addr{}
	}
	return m.driver.LocalIP()
}

// MACAddress returns the hardware address, nil before the PHY starts.
func (m *Manager) MACAddress() net.HardwareAddr {
	if !m.phyStarted.Load() {
		return nil
	}
	return m.driver.MACAddress()
}

// LinkSpeed returns the negotiated speed in Mbps, 0 before the PHY
// starts.
func (m *Manager) LinkSpeed() int {
	if !m.phyStarted.Load() {
		return 0
	}
	return m.driver.LinkSpeed()
}

// FullDuplex reports the negotiated duplex mode.
func (m *Manager) FullDuplex() bool {
	if !m.phyStarted.Load() {
		return false
	}
	return m.driver.FullDuplex()
}

// Hostname returns the hostname the driver reports.
func (m *Manager) Hostname() string {
	if !m.phyStarted.Load() {
		return ""
	}
	name, err := m.driver.Hostname()
	if err != nil {
		return ""
	}
	return name
}

// SetVerboseLogging toggles the detailed connection summary logged on
// address acquisition.
func (m *Manager) SetVerboseLogging(enabled bool) {
	m.verbose.Store(enabled)
}

// LastError returns the most recent error code, 0 when none.
func (m *Manager) LastError() errors.ErrorCode {
	return errors.ErrorCode(m.lastErr.Load())
}

func (m *Manager) setLastError(code errors.ErrorCode) {
	m.lastErr.Store(int32(code))
}

// setConnectedLocked flips the connected bit. Callers must order it
// against state changes: set after entering Connected, clear before
// leaving it.
func (m *Manager) setConnectedLocked(v bool) {
	if v {
		if m.connected.CompareAndSwap(false, true) {
			close(m.connCh.Load().(chan struct{}))
		}
		return
	}
	if m.connected.CompareAndSwap(true, false) {
		m.connCh.Store(make(chan struct{}))
	}
}

// SetConnectedCallback replaces the got-ip subscriber. Pass nil to clear.
func (m *Manager) SetConnectedCallback(fn func(ip netip.Addr)) {
	if !m.mu.lock(quickLockTimeout) {
		m.log.Warn("Lock timeout, connected callback not set")
		return
	}
	defer m.mu.unlock()
	m.onConnected = fn
}

// SetDisconnectedCallback replaces the disconnect subscriber.
func (m *Manager) SetDisconnectedCallback(fn func(connectedFor time.Duration)) {
	if !m.mu.lock(quickLockTimeout) {
		m.log.Warn("Lock timeout, disconnected callback not set")
		return
	}
	defer m.mu.unlock()
	m.onDisconnected = fn
}

// SetStateChangeCallback replaces the transition subscriber.
func (m *Manager) SetStateChangeCallback(fn func(old, new ConnectionState)) {
	if !m.mu.lock(quickLockTimeout) {
		m.log.Warn("Lock timeout, state change callback not set")
		return
	}
	defer m.mu.unlock()
	m.onStateChange = fn
}

// SetLinkStatusCallback replaces the link edge subscriber.
func (m *Manager) SetLinkStatusCallback(fn func(up bool)) {
	if !m.mu.lock(quickLockTimeout) {
		m.log.Warn("Lock timeout, link status callback not set")
		return
	}
	defer m.mu.unlock()
	m.onLinkStatus = fn
}

// SetMACAddress stores a custom MAC applied on the next Initialize.
func (m *Manager) SetMACAddress(mac net.HardwareAddr) error {
	if len(mac) != 6 {
		return errors.New(errors.EthInvalidParameter, "mac address must be 6 bytes")
	}
	if !m.mu.lock(quickLockTimeout) {
		return errors.New(errors.EthMutexTimeout, "set mac address")
	}
	defer m.mu.unlock()
	m.cfg.MAC = append(net.HardwareAddr(nil), mac...)
	return nil
}

// SetDNSServers programs the main and optional backup resolver on the
// interface registry entry. dns2 may be the zero Addr.
func (m *Manager) SetDNSServers(dns1, dns2 netip.Addr) error {
	if !dns1.IsValid() {
		return errors.New(errors.EthInvalidParameter, "primary dns address required")
	}
	if m.netifs == nil {
		return errors.New(errors.EthNetifError, "no interface registry available")
	}
	netif, ok := m.netifs.LookupByKey(NetifKeyDefault)
	if !ok {
		return errors.New(errors.EthNetifError, "interface not registered")
	}

	// SetDNS may shell out to resolver tooling. Keep it off the core
	// lock so event handlers stay responsive while it runs.
	if err := netif.SetDNS(DNSMain, dns1); err != nil {
		return errors.Wrap(err, errors.EthNetifError).WithMetadata("slot", "main")
	}
	if dns2.IsValid() {
		if err := netif.SetDNS(DNSBackup, dns2); err != nil {
			return errors.Wrap(err, errors.EthNetifError).WithMetadata("slot", "backup")
		}
	}

	if !m.mu.lock(quickLockTimeout) {
		return errors.New(errors.EthMutexTimeout, "set dns servers")
	}
	defer m.mu.unlock()
	if m.cfg.Static != nil {
		m.cfg.Static.DNS1 = dns1
		m.cfg.Static.DNS2 = dns2
	}
	return nil
}

// SetAutoReconnect reconfigures the retry policy. Disabling stops a
// pending reconnect timer.
func (m *Manager) SetAutoReconnect(
	enabled bool,
	maxRetries int,
	initial, max time.Duration,
) error {
	if !m.mu.lock(quickLockTimeout) {
		m.log.Warn("Lock timeout, auto-reconnect not updated")
		return errors.New(errors.EthMutexTimeout, "set auto reconnect")
	}
	defer m.mu.unlock()

	m.cfg.Reconnect = ReconnectPolicy{
		Enabled:      enabled,
		MaxRetries:   maxRetries,
		InitialDelay: initial,
		MaxDelay:     max,
	}
	m.bo = newBackoff(initial, max)
	m.reconnectAttempts = 0

	if !enabled {
		m.stopReconnectLocked()
	}
	return nil
}

// Statistics returns a snapshot of the counters, merging driver packet
// counters when the driver exposes them.
func (m *Manager) Statistics() Statistics {
	if !m.mu.lock(quickLockTimeout) {
		m.log.Warn("Lock timeout, returning empty statistics")
		return Statistics{LastError: m.LastError()}
	}

	now := m.clock.Now()
	stats := Statistics{
		ConnectTime:     m.connectTime,
		DisconnectCount: m.disconnectCount,
		ReconnectCount:  m.reconnectCount,
		LinkDownEvents:  m.linkDownEvents,
		DHCPRenewals:    m.dhcpRenewals,
		TotalEvents:     m.totalEvents,
		LastError:       m.LastError(),
	}
	if m.connected.Load() && !m.connectTime.IsZero() {
		stats.Uptime = now.Sub(m.connectTime)
	}
	m.mu.unlock()

	if reader, ok := m.driver.(StatsReader); ok {
		if counters, err := reader.ReadCounters(); err == nil {
			stats.TxPackets = counters.TxPackets
			stats.RxPackets = counters.RxPackets
			stats.TxBytes = counters.TxBytes
			stats.RxBytes = counters.RxBytes
		} else {
			m.log.Debug("Driver counters unavailable", "err", err)
		}
	}
	return stats
}

// ResetStatistics zeroes all counters and the last error code.
func (m *Manager) ResetStatistics() error {
	if !m.mu.lock(quickLockTimeout) {
		return errors.New(errors.EthMutexTimeout, "reset statistics")
	}
	defer m.mu.unlock()

	m.disconnectCount = 0
	m.reconnectCount = 0
	m.linkDownEvents = 0
	m.dhcpRenewals = 0
	m.totalEvents = 0
	m.connectTime = time.Time{}
	m.setLastError(0)
	return nil
}
