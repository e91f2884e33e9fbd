// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ethernet

import (
	"fmt"
	"net"
	"net/netip"
	"time"
	"unicode"

	"github.com/stratastor/ethman/pkg/errors"
)

// ConnectionState captures where the interface is in its lifecycle.
type ConnectionState string

const (
	StateUninitialized ConnectionState = "uninitialized"
	StatePhyStarting   ConnectionState = "phy-starting"
	StateLinkDown      ConnectionState = "link-down"
	StateLinkUp        ConnectionState = "link-up"
	StateObtainingIP   ConnectionState = "obtaining-ip"
	StateConnected     ConnectionState = "connected"
	StateDisconnecting ConnectionState = "disconnecting"
	StateError         ConnectionState = "error"
)

// ClockMode selects the RMII reference clock wiring for the PHY.
type ClockMode string

const (
	ClockGPIO0In   ClockMode = "gpio0-in"
	ClockGPIO0Out  ClockMode = "gpio0-out"
	ClockGPIO16Out ClockMode = "gpio16-out"
	ClockGPIO17Out ClockMode = "gpio17-out"
)

const (
	// DefaultTrustWindow is the grace period after link-up during which
	// disconnect events are treated as spurious.
	DefaultTrustWindow = 3 * time.Second

	// DefaultInitTimeout bounds blocking initialization.
	DefaultInitTimeout = 5 * time.Second

	// waitChunk bounds each blocking interval inside WaitForConnection
	// so link status can be re-polled between chunks.
	waitChunk = 100 * time.Millisecond

	maxHostnameLen = 63
	maxPhyAddr     = 31
	maxGPIOPin     = 48

	// PinUnused marks an optional pin as absent.
	PinUnused = -1
)

// StaticLease carries a static addressing plan. DNS2 is optional.
type StaticLease struct {
	IP      netip.Addr
	Gateway netip.Addr
	Netmask netip.Addr
	DNS1    netip.Addr
	DNS2    netip.Addr
}

// ReconnectPolicy controls the exponential-backoff retry timer.
// MaxRetries of 0 means retry forever.
type ReconnectPolicy struct {
	Enabled      bool
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// MonitorPolicy controls the periodic link probe.
type MonitorPolicy struct {
	Enabled  bool
	Interval time.Duration
}

// Config describes a single wired interface. Values are copied at
// Initialize time; later mutation of the caller's copy has no effect.
type Config struct {
	Hostname string

	PhyAddr  int
	MDCPin   int
	MDIOPin  int
	PowerPin int
	Clock    ClockMode

	// MAC overrides the factory address when non-nil (6 bytes).
	MAC net.HardwareAddr

	// Static switches off DHCP when non-nil.
	Static *StaticLease

	Reconnect   ReconnectPolicy
	Monitor     MonitorPolicy
	TrustWindow time.Duration
}

// DefaultConfig returns the conventional single-PHY wiring with DHCP.
func DefaultConfig() Config {
	return Config{
		Hostname: "esp32-ethernet",
		PhyAddr:  0,
		MDCPin:   23,
		MDIOPin:  18,
		PowerPin: PinUnused,
		Clock:    ClockGPIO17Out,
		Reconnect: ReconnectPolicy{
			Enabled:      true,
			MaxRetries:   10,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
		},
		Monitor: MonitorPolicy{
			Enabled:  false,
			Interval: time.Second,
		},
		TrustWindow: DefaultTrustWindow,
	}
}

// WithHostname returns a copy of the config with the hostname replaced.
func (c Config) WithHostname(name string) Config {
	c.Hostname = name
	return c
}

// WithPhy returns a copy with the PHY address and management pins replaced.
func (c Config) WithPhy(addr, mdc, mdio, power int) Config {
	c.PhyAddr = addr
	c.MDCPin = mdc
	c.MDIOPin = mdio
	c.PowerPin = power
	return c
}

// WithClock returns a copy with the RMII clock mode replaced.
func (c Config) WithClock(mode ClockMode) Config {
	c.Clock = mode
	return c
}

// WithMAC returns a copy with a custom MAC address.
func (c Config) WithMAC(mac net.HardwareAddr) Config {
	c.MAC = append(net.HardwareAddr(nil), mac...)
	return c
}

// WithStaticLease returns a copy configured for static addressing.
func (c Config) WithStaticLease(lease StaticLease) Config {
	c.Static = &lease
	return c
}

// WithReconnect returns a copy with the reconnect policy replaced.
func (c Config) WithReconnect(p ReconnectPolicy) Config {
	c.Reconnect = p
	return c
}

// WithMonitor returns a copy with the link-monitor policy replaced.
func (c Config) WithMonitor(p MonitorPolicy) Config {
	c.Monitor = p
	return c
}

// Validate checks hostname, PHY address, pin ranges, MAC length and,
// in static mode, the presence of ip/gateway/netmask.
func (c Config) Validate() error {
	if c.Hostname == "" {
		return errors.New(errors.EthInvalidParameter, "hostname must not be empty")
	}
	if len(c.Hostname) > maxHostnameLen {
		return errors.New(errors.EthInvalidParameter,
			fmt.Sprintf("hostname exceeds %d bytes", maxHostnameLen))
	}
	for _, r := range c.Hostname {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return errors.New(errors.EthInvalidParameter,
				"hostname contains non-printable characters")
		}
	}

	if c.PhyAddr < 0 || c.PhyAddr > maxPhyAddr {
		return errors.New(errors.EthInvalidParameter,
			fmt.Sprintf("phy address %d out of range 0..%d", c.PhyAddr, maxPhyAddr))
	}

	for _, pin := range []struct {
		name string
		val  int
	}{
		{"mdc", c.MDCPin},
		{"mdio", c.MDIOPin},
		{"power", c.PowerPin},
	} {
		if pin.val == PinUnused {
			continue
		}
		if pin.val < 0 || pin.val > maxGPIOPin {
			return errors.New(errors.EthInvalidParameter,
				fmt.Sprintf("%s pin %d out of range", pin.name, pin.val))
		}
	}

	if c.MAC != nil && len(c.MAC) != 6 {
		return errors.New(errors.EthInvalidParameter, "mac address must be 6 bytes")
	}

	if c.Static != nil {
		if !c.Static.IP.IsValid() || !c.Static.Gateway.IsValid() || !c.Static.Netmask.IsValid() {
			return errors.New(errors.EthInvalidParameter,
				"static mode requires ip, gateway and netmask")
		}
	}

	if c.Reconnect.Enabled {
		if c.Reconnect.InitialDelay <= 0 || c.Reconnect.MaxDelay < c.Reconnect.InitialDelay {
			return errors.New(errors.EthInvalidParameter,
				"reconnect delays must satisfy 0 < initial <= max")
		}
	}
	if c.Monitor.Enabled && c.Monitor.Interval <= 0 {
		return errors.New(errors.EthInvalidParameter, "monitor interval must be positive")
	}

	return nil
}

// Statistics is a point-in-time snapshot of the controller's counters.
type Statistics struct {
	ConnectTime     time.Time     `json:"connectTime"`
	Uptime          time.Duration `json:"uptime"`
	DisconnectCount uint64        `json:"disconnectCount"`
	ReconnectCount  uint64        `json:"reconnectCount"`
	LinkDownEvents  uint64        `json:"linkDownEvents"`
	DHCPRenewals    uint64        `json:"dhcpRenewals"`
	TotalEvents     uint64        `json:"totalEvents"`

	TxPackets uint64 `json:"txPackets"`
	RxPackets uint64 `json:"rxPackets"`
	TxBytes   uint64 `json:"txBytes"`
	RxBytes   uint64 `json:"rxBytes"`

	LastError errors.ErrorCode `json:"lastError"`
}

// PerformanceMetrics reports bring-up timing checkpoints.
type PerformanceMetrics struct {
	InitToLink time.Duration `json:"initToLink"`
	LinkToIP   time.Duration `json:"linkToIp"`
	InitTotal  time.Duration `json:"initTotal"`
}
