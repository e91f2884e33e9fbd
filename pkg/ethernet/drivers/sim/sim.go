// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package sim provides a scripted in-memory driver. It emulates PHY
// bring-up, link negotiation and DHCP timing by publishing the same
// event sequence a real driver would, which makes it useful for
// development without hardware and for exercising the controller in
// tests.
package sim

import (
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stratastor/ethman/internal/events"
	"github.com/stratastor/ethman/pkg/errors"
	"github.com/stratastor/ethman/pkg/ethernet"
	"github.com/stratastor/logger"
)

// Driver is a scripted ethernet.Driver. After Begin it publishes
// ETH/start immediately, ETH/connected after LinkDelay and IP/got-ip
// after a further IPDelay.
type Driver struct {
	log   logger.Logger
	clock clockwork.Clock
	bus   *events.Bus

	mu       sync.Mutex
	started  bool
	linkUp   bool
	hostname string
	ip       netip.Addr
	mac      net.HardwareAddr

	leaseIP   netip.Addr
	linkDelay time.Duration
	ipDelay   time.Duration

	timers []clockwork.Timer
}

// Option configures the simulated driver.
type Option func(*Driver)

// WithClock substitutes the clock driving the scripted delays.
func WithClock(clock clockwork.Clock) Option {
	return func(d *Driver) { d.clock = clock }
}

// WithLease sets the address handed out on got-ip.
func WithLease(ip netip.Addr) Option {
	return func(d *Driver) { d.leaseIP = ip }
}

// WithTiming sets the link negotiation and address acquisition delays.
func WithTiming(linkDelay, ipDelay time.Duration) Option {
	return func(d *Driver) {
		d.linkDelay = linkDelay
		d.ipDelay = ipDelay
	}
}

// New creates a simulated driver publishing on bus.
func New(bus *events.Bus, l logger.Logger, opts ...Option) *Driver {
	d := &Driver{
		log:       l,
		clock:     clockwork.NewRealClock(),
		bus:       bus,
		leaseIP:   netip.MustParseAddr("192.168.1.50"),
		linkDelay: 200 * time.Millisecond,
		ipDelay:   300 * time.Millisecond,
		mac:       net.HardwareAddr{0x02, 0x00, 0x00, 0xe5, 0x32, 0x01},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Begin powers up the simulated PHY and starts the scripted sequence.
func (d *Driver) Begin(cfg ethernet.PHYConfig) error {
	if cfg.Addr < 0 || cfg.Addr > 31 {
		return errors.New(errors.EthInvalidParameter, "phy address out of range")
	}

	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return errors.New(errors.EthAlreadyInitialized, "simulated phy already started")
	}
	d.started = true
	d.mu.Unlock()

	d.log.Debug("Simulated PHY started",
		"addr", cfg.Addr, "mdc", cfg.MDC, "mdio", cfg.MDIO, "clock", cfg.Clock)

	d.bus.Publish(events.BaseEthernet, ethernet.EventEthStart, nil)
	d.scheduleLink()
	return nil
}

// scheduleLink queues the link-up and got-ip notifications.
func (d *Driver) scheduleLink() {
	d.mu.Lock()
	defer d.mu.Unlock()

	t1 := d.clock.AfterFunc(d.linkDelay, func() {
		d.mu.Lock()
		d.linkUp = true
		d.mu.Unlock()
		d.bus.Publish(events.BaseEthernet, ethernet.EventEthConnected, nil)
	})
	t2 := d.clock.AfterFunc(d.linkDelay+d.ipDelay, func() {
		d.mu.Lock()
		d.ip = d.leaseIP
		ip := d.ip
		d.mu.Unlock()
		d.bus.Publish(events.BaseIP, ethernet.EventIPGotIP, ip)
	})
	d.timers = append(d.timers, t1, t2)
}

// Configure applies a static lease instantly; got-ip follows on the
// scripted schedule.
func (d *Driver) Configure(lease ethernet.Lease) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return errors.New(errors.EthNotInitialized, "simulated phy not started")
	}
	d.leaseIP = lease.IP
	if lease.MAC != nil {
		d.mac = append(net.HardwareAddr(nil), lease.MAC...)
	}
	return nil
}

func (d *Driver) SetHostname(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hostname = name
	return nil
}

func (d *Driver) Hostname() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hostname, nil
}

func (d *Driver) LocalIP() netip.Addr {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ip
}

func (d *Driver) MACAddress() net.HardwareAddr {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append(net.HardwareAddr(nil), d.mac...)
}

func (d *Driver) LinkUp() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.linkUp
}

func (d *Driver) LinkSpeed() int { return 100 }

func (d *Driver) FullDuplex() bool { return true }

// Restart re-runs the link negotiation script, satisfying the
// controller's restart capability.
func (d *Driver) Restart() error {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return errors.New(errors.EthNotInitialized, "simulated phy not started")
	}
	d.linkUp = false
	d.ip = netip.Addr{}
	d.mu.Unlock()

	d.log.Debug("Simulated link restart")
	d.scheduleLink()
	return nil
}

// PullCable simulates cable removal: link drops and a disconnect event
// is published.
func (d *Driver) PullCable() {
	d.mu.Lock()
	d.linkUp = false
	d.ip = netip.Addr{}
	d.mu.Unlock()
	d.bus.Publish(events.BaseEthernet, ethernet.EventEthDisconnected, nil)
}

// PlugCable simulates cable insertion and restarts the scripted
// bring-up sequence.
func (d *Driver) PlugCable() {
	d.bus.Publish(events.BaseEthernet, ethernet.EventEthConnected, nil)
	d.mu.Lock()
	d.linkUp = true
	d.mu.Unlock()
	t := d.clock.AfterFunc(d.ipDelay, func() {
		d.mu.Lock()
		d.ip = d.leaseIP
		ip := d.ip
		d.mu.Unlock()
		d.bus.Publish(events.BaseIP, ethernet.EventIPGotIP, ip)
	})
	d.mu.Lock()
	d.timers = append(d.timers, t)
	d.mu.Unlock()
}

// Stop cancels pending scripted notifications.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range d.timers {
		t.Stop()
	}
	d.timers = nil
	d.started = false
	d.linkUp = false
	d.ip = netip.Addr{}
}
