// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package netlink drives a real Linux interface with iproute2 and
// sysfs. Link and address changes are surfaced to the controller by a
// polling watcher that publishes the same events an embedded PHY
// driver would.
package netlink

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/stratastor/ethman/internal/command"
	"github.com/stratastor/ethman/internal/events"
	"github.com/stratastor/ethman/pkg/errors"
	"github.com/stratastor/ethman/pkg/ethernet"
	"github.com/stratastor/logger"
)

const sysClassNet = "/sys/class/net"

// Driver manages one named kernel interface.
type Driver struct {
	log   logger.Logger
	bus   *events.Bus
	iface string

	mu      sync.Mutex
	started bool

	watchCancel context.CancelFunc
	watchDone   chan struct{}
}

// New creates a driver for the named interface, publishing lifecycle
// events on bus.
func New(iface string, bus *events.Bus, l logger.Logger) *Driver {
	return &Driver{
		log:   l,
		bus:   bus,
		iface: iface,
	}
}

func (d *Driver) sysfs(file string) string {
	return filepath.Join(sysClassNet, d.iface, file)
}

func (d *Driver) readSysfs(file string) (string, error) {
	raw, err := os.ReadFile(d.sysfs(file))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

// Begin brings the kernel interface up and starts the watcher. PHY
// wiring parameters are validated but otherwise meaningless here; the
// kernel already owns the MDIO bus.
func (d *Driver) Begin(cfg ethernet.PHYConfig) error {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return errors.New(errors.EthAlreadyInitialized, "interface already started")
	}
	d.mu.Unlock()

	if _, err := os.Stat(filepath.Join(sysClassNet, d.iface)); err != nil {
		return errors.Wrap(err, errors.EthPhyStartFailed).
			WithMetadata("interface", d.iface)
	}

	ctx := context.Background()
	if _, err := command.ExecCommand(ctx, d.log, "ip", "link", "set", "dev", d.iface, "up"); err != nil {
		return errors.Wrap(err, errors.EthPhyStartFailed).
			WithMetadata("interface", d.iface)
	}

	d.mu.Lock()
	d.started = true
	d.mu.Unlock()

	d.bus.Publish(events.BaseEthernet, ethernet.EventEthStart, nil)
	d.startWatch()
	return nil
}

// Configure flushes any DHCP address and applies the static lease.
func (d *Driver) Configure(lease ethernet.Lease) error {
	if !lease.IP.IsValid() || !lease.Netmask.IsValid() || !lease.Gateway.IsValid() {
		return errors.New(errors.EthInvalidParameter, "static lease requires ip, netmask, gateway")
	}

	ctx := context.Background()
	prefix := maskToPrefix(lease.Netmask)
	cidr := fmt.Sprintf("%s/%d", lease.IP, prefix)

	if _, err := command.ExecCommand(ctx, d.log, "ip", "addr", "flush", "dev", d.iface); err != nil {
		return errors.Wrap(err, errors.EthConfigFailed).WithMetadata("step", "flush")
	}
	if _, err := command.ExecCommand(ctx, d.log, "ip", "addr", "add", cidr, "dev", d.iface); err != nil {
		return errors.Wrap(err, errors.EthConfigFailed).WithMetadata("step", "addr")
	}
	if _, err := command.ExecCommand(ctx, d.log,
		"ip", "route", "replace", "default", "via", lease.Gateway.String(), "dev", d.iface); err != nil {
		return errors.Wrap(err, errors.EthConfigFailed).WithMetadata("step", "route")
	}

	if lease.MAC != nil {
		if _, err := command.ExecCommand(ctx, d.log,
			"ip", "link", "set", "dev", d.iface, "address", lease.MAC.String()); err != nil {
			return errors.Wrap(err, errors.EthConfigFailed).WithMetadata("step", "mac")
		}
	}
	return nil
}

func (d *Driver) SetHostname(name string) error {
	if _, err := command.ExecCommand(context.Background(), d.log,
		"hostnamectl", "set-hostname", name); err != nil {
		return errors.Wrap(err, errors.EthNetifError).WithMetadata("hostname", name)
	}
	return nil
}

func (d *Driver) Hostname() (string, error) {
	name, err := os.Hostname()
	if err != nil {
		return "", errors.Wrap(err, errors.EthNetifError)
	}
	return name, nil
}

// LocalIP parses the first IPv4 address assigned to the interface.
func (d *Driver) LocalIP() netip.Addr {
	out, err := command.ExecCommand(context.Background(), d.log,
		"ip", "-4", "-o", "addr", "show", "dev", d.iface)
	if err != nil {
		return netip.Addr{}
	}
	return parseFirstIPv4(string(out))
}

func (d *Driver) MACAddress() net.HardwareAddr {
	raw, err := d.readSysfs("address")
	if err != nil {
		return nil
	}
	mac, err := net.ParseMAC(raw)
	if err != nil {
		return nil
	}
	return mac
}

// LinkUp reads the carrier flag. A missing carrier file means the
// interface is administratively down.
func (d *Driver) LinkUp() bool {
	raw, err := d.readSysfs("carrier")
	if err != nil {
		return false
	}
	return raw == "1"
}

func (d *Driver) LinkSpeed() int {
	raw, err := d.readSysfs("speed")
	if err != nil {
		return 0
	}
	speed, err := strconv.Atoi(raw)
	if err != nil || speed < 0 {
		return 0
	}
	return speed
}

func (d *Driver) FullDuplex() bool {
	raw, err := d.readSysfs("duplex")
	if err != nil {
		return false
	}
	return raw == "full"
}

// Restart bounces the interface, forcing link renegotiation.
func (d *Driver) Restart() error {
	ctx := context.Background()
	if _, err := command.ExecCommand(ctx, d.log, "ip", "link", "set", "dev", d.iface, "down"); err != nil {
		return errors.Wrap(err, errors.EthNetifError).WithMetadata("step", "down")
	}
	if _, err := command.ExecCommand(ctx, d.log, "ip", "link", "set", "dev", d.iface, "up"); err != nil {
		return errors.Wrap(err, errors.EthNetifError).WithMetadata("step", "up")
	}
	return nil
}

// ReadCounters reads the kernel packet and byte counters.
func (d *Driver) ReadCounters() (ethernet.Counters, error) {
	var c ethernet.Counters
	for _, stat := range []struct {
		file string
		dst  *uint64
	}{
		{"statistics/tx_packets", &c.TxPackets},
		{"statistics/rx_packets", &c.RxPackets},
		{"statistics/tx_bytes", &c.TxBytes},
		{"statistics/rx_bytes", &c.RxBytes},
	} {
		raw, err := d.readSysfs(stat.file)
		if err != nil {
			return ethernet.Counters{}, errors.Wrap(err, errors.EthNetifError).
				WithMetadata("counter", stat.file)
		}
		val, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return ethernet.Counters{}, errors.Wrap(err, errors.EthNetifError).
				WithMetadata("counter", stat.file)
		}
		*stat.dst = val
	}
	return c, nil
}

// Stop halts the watcher and marks the driver stopped. The kernel
// interface itself is left up.
func (d *Driver) Stop() {
	d.mu.Lock()
	cancel := d.watchCancel
	done := d.watchDone
	d.watchCancel = nil
	d.watchDone = nil
	d.started = false
	d.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

const watchInterval = time.Second

// startWatch launches the poller translating carrier and address
// edges into bus events.
func (d *Driver) startWatch() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	d.mu.Lock()
	d.watchCancel = cancel
	d.watchDone = done
	d.mu.Unlock()

	go d.watch(ctx, done)
}

func (d *Driver) watch(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	var lastCarrier bool
	var lastIP netip.Addr

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		carrier := d.LinkUp()
		if carrier != lastCarrier {
			lastCarrier = carrier
			if carrier {
				d.bus.Publish(events.BaseEthernet, ethernet.EventEthConnected, nil)
			} else {
				lastIP = netip.Addr{}
				d.bus.Publish(events.BaseEthernet, ethernet.EventEthDisconnected, nil)
			}
		}

		if !carrier {
			continue
		}
		ip := d.LocalIP()
		if ip.IsValid() && ip != lastIP {
			lastIP = ip
			d.bus.Publish(events.BaseIP, ethernet.EventIPGotIP, ip)
		}
	}
}

// maskToPrefix converts a dotted netmask address to a prefix length.
func maskToPrefix(mask netip.Addr) int {
	bits := 0
	for _, b := range mask.AsSlice() {
		for ; b > 0; b <<= 1 {
			if b&0x80 != 0 {
				bits++
			}
		}
	}
	return bits
}

// parseFirstIPv4 extracts the first "inet a.b.c.d/nn" address from
// iproute2 output.
func parseFirstIPv4(out string) netip.Addr {
	fields := strings.Fields(out)
	for i, f := range fields {
		if f != "inet" || i+1 >= len(fields) {
			continue
		}
		cidr := fields[i+1]
		if slash := strings.IndexByte(cidr, '/'); slash > 0 {
			cidr = cidr[:slash]
		}
		if addr, err := netip.ParseAddr(cidr); err == nil {
			return addr
		}
	}
	return netip.Addr{}
}
