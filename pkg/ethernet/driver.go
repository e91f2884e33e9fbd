// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ethernet

import (
	"net"
	"net/netip"
)

// Event kinds published on the ETH base.
const (
	EventEthStart int32 = iota + 1
	EventEthConnected
	EventEthDisconnected
	EventEthStop
)

// Event kinds published on the IP base.
const (
	EventIPGotIP int32 = iota + 1
)

// PHYConfig is the wiring handed to Driver.Begin.
type PHYConfig struct {
	Addr  int
	MDC   int
	MDIO  int
	Power int
	Clock ClockMode
}

// Lease carries the addressing applied by Driver.Configure in static
// mode. Invalid DNS addresses mean "leave unset".
type Lease struct {
	IP      netip.Addr
	Gateway netip.Addr
	Netmask netip.Addr
	DNS1    netip.Addr
	DNS2    netip.Addr
	MAC     net.HardwareAddr
}

// Driver abstracts the PHY/MAC layer under the controller. The
// controller calls it while holding its own lock, so implementations
// must not call back into the controller.
type Driver interface {
	// Begin powers up the PHY and starts the MAC. It is called at most
	// once per Initialize/Cleanup cycle.
	Begin(cfg PHYConfig) error

	// Configure applies a static addressing plan.
	Configure(lease Lease) error

	SetHostname(name string) error
	Hostname() (string, error)

	LocalIP() netip.Addr
	MACAddress() net.HardwareAddr

	LinkUp() bool
	LinkSpeed() int
	FullDuplex() bool
}

// Restarter is an optional Driver capability. Drivers that can
// re-negotiate the link implement it; the reconnect engine uses it
// between backoff waits, and waits passively for link-up otherwise.
type Restarter interface {
	Restart() error
}

// Counters are raw interface packet/byte counts.
type Counters struct {
	TxPackets uint64
	RxPackets uint64
	TxBytes   uint64
	RxBytes   uint64
}

// StatsReader is an optional Driver capability for kernel or hardware
// packet counters. Statistics snapshots merge these in when available.
type StatsReader interface {
	ReadCounters() (Counters, error)
}

// DNSSlot selects the main or backup resolver entry on a Netif.
type DNSSlot int

const (
	DNSMain DNSSlot = iota
	DNSBackup
)

// NetifKeyDefault is the registry key of the controller's interface.
const NetifKeyDefault = "ETH_DEF"

// Netif is a handle into the network interface registry.
type Netif interface {
	SetHostname(name string) error
	Hostname() (string, error)
	SetDNS(slot DNSSlot, addr netip.Addr) error
}

// NetifRegistry resolves interface handles by well-known key.
type NetifRegistry interface {
	LookupByKey(key string) (Netif, bool)
}
