// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ethernet

import (
	"net"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stratastor/ethman/internal/events"
	"github.com/stratastor/ethman/pkg/errors"
	"github.com/stratastor/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDriver is a controllable Driver with restart and counter
// capabilities for exercising the optional paths.
type mockDriver struct {
	mu          sync.Mutex
	beginErr    error
	configErr   error
	beginCalls  int
	configCalls int
	restarts    int
	linkUp      bool
	hostname    string
	ip          netip.Addr
	lastPHY     PHYConfig
	lastLease   Lease
	counters    Counters
	countersErr error
}

func (d *mockDriver) Begin(cfg PHYConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.beginCalls++
	d.lastPHY = cfg
	return d.beginErr
}

func (d *mockDriver) Configure(lease Lease) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.configCalls++
	d.lastLease = lease
	return d.configErr
}

func (d *mockDriver) SetHostname(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hostname = name
	return nil
}

func (d *mockDriver) Hostname() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hostname, nil
}

func (d *mockDriver) LocalIP() netip.Addr {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ip
}

func (d *mockDriver) MACAddress() net.HardwareAddr {
	return net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
}

func (d *mockDriver) LinkUp() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.linkUp
}

func (d *mockDriver) LinkSpeed() int   { return 100 }
func (d *mockDriver) FullDuplex() bool { return true }

func (d *mockDriver) Restart() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.restarts++
	return nil
}

func (d *mockDriver) ReadCounters() (Counters, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counters, d.countersErr
}

func (d *mockDriver) restartCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.restarts
}

func (d *mockDriver) setLinkUp(up bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.linkUp = up
}

// mockNetif records resolver updates and can block inside SetDNS to
// stand in for slow resolver tooling.
type mockNetif struct {
	mu       sync.Mutex
	hostname string
	dns      map[DNSSlot]netip.Addr
	entered  chan struct{}
	release  chan struct{}
}

func (n *mockNetif) SetHostname(name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hostname = name
	return nil
}

func (n *mockNetif) Hostname() (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.hostname, nil
}

func (n *mockNetif) SetDNS(slot DNSSlot, addr netip.Addr) error {
	if n.entered != nil {
		n.entered <- struct{}{}
	}
	if n.release != nil {
		<-n.release
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dns == nil {
		n.dns = make(map[DNSSlot]netip.Addr)
	}
	n.dns[slot] = addr
	return nil
}

func (n *mockNetif) dnsFor(slot DNSSlot) netip.Addr {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dns[slot]
}

type mockRegistry struct {
	netif *mockNetif
}

func (r *mockRegistry) LookupByKey(key string) (Netif, bool) {
	if key != NetifKeyDefault || r.netif == nil {
		return nil, false
	}
	return r.netif, true
}

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "ethernet-test")
	require.NoError(t, err)
	return l
}

// newTestManager wires a manager to a mock driver on a fake clock.
// Events are injected directly so tests stay deterministic.
func newTestManager(t *testing.T) (*Manager, *mockDriver, *clockwork.FakeClock) {
	t.Helper()
	l := testLogger(t)
	clock := clockwork.NewFakeClock()
	drv := &mockDriver{}
	bus := events.NewBus(64, l)
	t.Cleanup(bus.Close)
	m := NewManager(drv, nil, bus, l, WithClock(clock))
	return m, drv, clock
}

func testConfig() Config {
	cfg := DefaultConfig()
	// Keep the retry cap out of the way unless a test opts in.
	cfg.Reconnect.MaxRetries = 0
	return cfg
}

func injectConnected(m *Manager) {
	m.handleEthEvent(events.Event{Base: events.BaseEthernet, Kind: EventEthConnected})
}

func injectDisconnected(m *Manager) {
	m.handleEthEvent(events.Event{Base: events.BaseEthernet, Kind: EventEthDisconnected})
}

func injectGotIP(m *Manager, ip netip.Addr) {
	m.handleIPEvent(events.Event{Base: events.BaseIP, Kind: EventIPGotIP, Payload: ip})
}

// bringUp runs the canonical start/link/got-ip event sequence.
func bringUp(t *testing.T, m *Manager, drv *mockDriver, ip netip.Addr) {
	t.Helper()
	require.NoError(t, m.InitializeAsync(testConfig()))
	m.handleEthEvent(events.Event{Base: events.BaseEthernet, Kind: EventEthStart})
	drv.setLinkUp(true)
	injectConnected(m)
	injectGotIP(m, ip)
	require.Equal(t, StateConnected, m.State())
}

func TestHappyDHCPPath(t *testing.T) {
	m, drv, _ := newTestManager(t)

	var gotIPs []netip.Addr
	m.SetConnectedCallback(func(ip netip.Addr) { gotIPs = append(gotIPs, ip) })

	addr := netip.MustParseAddr("192.168.1.50")
	bringUp(t, m, drv, addr)

	assert.True(t, m.IsConnected())
	assert.True(t, m.IsStarted())
	assert.Equal(t, StateConnected, m.State())
	assert.Equal(t, []netip.Addr{addr}, gotIPs, "connected callback fires exactly once")

	stats := m.Statistics()
	assert.Equal(t, uint64(0), stats.DisconnectCount)
	assert.Equal(t, uint64(0), stats.ReconnectCount)

	assert.Equal(t, 1, drv.beginCalls)
	assert.Equal(t, 0, drv.configCalls, "dhcp mode never calls Configure")
	assert.Equal(t, 23, drv.lastPHY.MDC)
	assert.Equal(t, 18, drv.lastPHY.MDIO)
	assert.Equal(t, "esp32-ethernet", drv.hostname)
}

func TestStateChangeCallbackOrder(t *testing.T) {
	m, drv, clock := newTestManager(t)

	type edge struct{ from, to ConnectionState }
	var edges []edge
	var mu sync.Mutex
	m.SetStateChangeCallback(func(old, new ConnectionState) {
		mu.Lock()
		edges = append(edges, edge{old, new})
		mu.Unlock()
	})

	bringUp(t, m, drv, netip.MustParseAddr("10.0.0.2"))
	clock.Advance(5 * DefaultTrustWindow)
	injectDisconnected(m)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []edge{
		{StateUninitialized, StatePhyStarting},
		{StatePhyStarting, StateObtainingIP},
		{StateObtainingIP, StateConnected},
		{StateConnected, StateLinkDown},
	}, edges)
}

func TestInvalidHostname(t *testing.T) {
	m, drv, _ := newTestManager(t)

	cfg := testConfig().WithHostname("")
	err := m.Initialize(cfg)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.EthInvalidParameter))

	assert.Equal(t, StateUninitialized, m.State(), "validation failures leave state untouched")
	assert.Equal(t, 0, drv.beginCalls, "no driver call on validation failure")
	assert.Equal(t, errors.ErrorCode(errors.EthInvalidParameter), m.LastError())
}

func TestAlreadyInitialized(t *testing.T) {
	m, _, _ := newTestManager(t)

	require.NoError(t, m.InitializeAsync(testConfig()))
	err := m.InitializeAsync(testConfig())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.EthAlreadyInitialized))
}

func TestPhyStartFailure(t *testing.T) {
	m, drv, _ := newTestManager(t)
	drv.beginErr = errors.New(errors.EthPhyStartFailed, "no phy at addr 0")

	err := m.InitializeAsync(testConfig())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.EthPhyStartFailed))
	assert.Equal(t, StateError, m.State())
	assert.False(t, m.IsStarted())
}

func TestStaticConfiguration(t *testing.T) {
	m, drv, _ := newTestManager(t)

	lease := StaticLease{
		IP:      netip.MustParseAddr("10.1.2.3"),
		Gateway: netip.MustParseAddr("10.1.2.1"),
		Netmask: netip.MustParseAddr("255.255.255.0"),
		DNS1:    netip.MustParseAddr("1.1.1.1"),
	}
	mac := net.HardwareAddr{0x02, 0xaa, 0xbb, 0xcc, 0xdd, 0xee}
	cfg := testConfig().WithStaticLease(lease).WithMAC(mac)

	require.NoError(t, m.InitializeAsync(cfg))
	assert.Equal(t, 1, drv.configCalls)
	assert.Equal(t, lease.IP, drv.lastLease.IP)
	assert.Equal(t, lease.Gateway, drv.lastLease.Gateway)
	assert.Equal(t, mac, drv.lastLease.MAC)
}

func TestStaticConfigFailure(t *testing.T) {
	m, drv, _ := newTestManager(t)
	drv.configErr = errors.New(errors.EthConfigFailed, "duplicate address")

	cfg := testConfig().WithStaticLease(StaticLease{
		IP:      netip.MustParseAddr("10.1.2.3"),
		Gateway: netip.MustParseAddr("10.1.2.1"),
		Netmask: netip.MustParseAddr("255.255.255.0"),
	})
	err := m.InitializeAsync(cfg)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.EthConfigFailed))
	assert.Equal(t, StateError, m.State())
}

func TestDHCPRenewal(t *testing.T) {
	m, drv, _ := newTestManager(t)

	connects := 0
	m.SetConnectedCallback(func(netip.Addr) { connects++ })

	addr := netip.MustParseAddr("192.168.1.50")
	bringUp(t, m, drv, addr)
	injectGotIP(m, addr) // renewal

	assert.Equal(t, 1, connects, "renewal does not re-fire the connected callback")
	stats := m.Statistics()
	assert.Equal(t, uint64(1), stats.DHCPRenewals)
	assert.Equal(t, StateConnected, m.State())
}

func TestStatisticsCounterMerge(t *testing.T) {
	m, drv, clock := newTestManager(t)
	drv.counters = Counters{TxPackets: 10, RxPackets: 20, TxBytes: 1000, RxBytes: 2000}

	bringUp(t, m, drv, netip.MustParseAddr("10.0.0.9"))
	clock.Advance(42 * time.Second)

	stats := m.Statistics()
	assert.Equal(t, uint64(10), stats.TxPackets)
	assert.Equal(t, uint64(20), stats.RxPackets)
	assert.Equal(t, uint64(1000), stats.TxBytes)
	assert.Equal(t, uint64(2000), stats.RxBytes)
	assert.Equal(t, int64(42), int64(stats.Uptime.Seconds()))
}

func TestResetStatistics(t *testing.T) {
	m, drv, clock := newTestManager(t)
	bringUp(t, m, drv, netip.MustParseAddr("10.0.0.9"))

	clock.Advance(5 * DefaultTrustWindow)
	injectDisconnected(m)
	require.Equal(t, uint64(1), m.Statistics().DisconnectCount)

	require.NoError(t, m.ResetStatistics())
	stats := m.Statistics()
	assert.Equal(t, uint64(0), stats.DisconnectCount)
	assert.Equal(t, uint64(0), stats.LinkDownEvents)
	assert.Equal(t, uint64(0), stats.TotalEvents)
	assert.Equal(t, errors.ErrorCode(0), stats.LastError)
}

func TestDriverInfoAccessors(t *testing.T) {
	m, drv, _ := newTestManager(t)

	assert.Nil(t, m.MACAddress())
	assert.Equal(t, 0, m.LinkSpeed())
	assert.False(t, m.FullDuplex())
	assert.Empty(t, m.Hostname())

	bringUp(t, m, drv, netip.MustParseAddr("10.0.0.2"))

	assert.Equal(t, "02:00:00:00:00:01", m.MACAddress().String())
	assert.Equal(t, 100, m.LinkSpeed())
	assert.True(t, m.FullDuplex())
	assert.Equal(t, "esp32-ethernet", m.Hostname())
}

func TestSetMACAddressValidation(t *testing.T) {
	m, _, _ := newTestManager(t)

	err := m.SetMACAddress(net.HardwareAddr{0x01, 0x02})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.EthInvalidParameter))

	require.NoError(t, m.SetMACAddress(net.HardwareAddr{0x02, 0, 0, 0, 0, 0x05}))
}

func TestSetDNSServersDoesNotHoldCoreLock(t *testing.T) {
	l := testLogger(t)
	clock := clockwork.NewFakeClock()
	drv := &mockDriver{}
	bus := events.NewBus(64, l)
	t.Cleanup(bus.Close)
	netif := &mockNetif{entered: make(chan struct{}, 2), release: make(chan struct{})}
	m := NewManager(drv, &mockRegistry{netif: netif}, bus, l, WithClock(clock))

	require.NoError(t, m.InitializeAsync(testConfig()))

	done := make(chan error, 1)
	go func() {
		done <- m.SetDNSServers(netip.MustParseAddr("1.1.1.1"), netip.Addr{})
	}()
	<-netif.entered

	// Resolver tooling is still mid-flight; event handling must not
	// starve behind it.
	injectConnected(m)
	assert.Equal(t, StateObtainingIP, m.State())

	close(netif.release)
	require.NoError(t, <-done)
	assert.Equal(t, netip.MustParseAddr("1.1.1.1"), netif.dnsFor(DNSMain))
}
