// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ethernet

import (
	"net"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "esp32-ethernet", cfg.Hostname)
	assert.Equal(t, 0, cfg.PhyAddr)
	assert.Equal(t, 23, cfg.MDCPin)
	assert.Equal(t, 18, cfg.MDIOPin)
	assert.Equal(t, PinUnused, cfg.PowerPin)
	assert.Equal(t, ClockGPIO17Out, cfg.Clock)
	assert.True(t, cfg.Reconnect.Enabled)
	assert.Equal(t, 10, cfg.Reconnect.MaxRetries)
	assert.Equal(t, time.Second, cfg.Reconnect.InitialDelay)
	assert.Equal(t, 30*time.Second, cfg.Reconnect.MaxDelay)
	assert.False(t, cfg.Monitor.Enabled)
	assert.Equal(t, DefaultTrustWindow, cfg.TrustWindow)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()

	tests := []struct {
		name    string
		mutate  func(Config) Config
		wantErr string
	}{
		{
			name:    "empty hostname",
			mutate:  func(c Config) Config { return c.WithHostname("") },
			wantErr: "hostname",
		},
		{
			name: "hostname too long",
			mutate: func(c Config) Config {
				return c.WithHostname(strings.Repeat("a", maxHostnameLen+1))
			},
			wantErr: "exceeds",
		},
		{
			name:    "hostname with control character",
			mutate:  func(c Config) Config { return c.WithHostname("host\x00name") },
			wantErr: "non-printable",
		},
		{
			name:    "phy address out of range",
			mutate:  func(c Config) Config { return c.WithPhy(32, 23, 18, PinUnused) },
			wantErr: "phy address",
		},
		{
			name:    "negative phy address",
			mutate:  func(c Config) Config { return c.WithPhy(-1, 23, 18, PinUnused) },
			wantErr: "phy address",
		},
		{
			name:    "mdc pin out of range",
			mutate:  func(c Config) Config { return c.WithPhy(0, 99, 18, PinUnused) },
			wantErr: "mdc pin",
		},
		{
			name:    "short mac",
			mutate:  func(c Config) Config { return c.WithMAC(net.HardwareAddr{0x02, 0x00}) },
			wantErr: "mac address",
		},
		{
			name: "static without gateway",
			mutate: func(c Config) Config {
				return c.WithStaticLease(StaticLease{
					IP:      netip.MustParseAddr("10.0.0.2"),
					Netmask: netip.MustParseAddr("255.255.255.0"),
				})
			},
			wantErr: "static mode",
		},
		{
			name: "reconnect max below initial",
			mutate: func(c Config) Config {
				return c.WithReconnect(ReconnectPolicy{
					Enabled:      true,
					InitialDelay: 10 * time.Second,
					MaxDelay:     time.Second,
				})
			},
			wantErr: "reconnect delays",
		},
		{
			name: "monitor without interval",
			mutate: func(c Config) Config {
				return c.WithMonitor(MonitorPolicy{Enabled: true})
			},
			wantErr: "monitor interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mutate(valid).Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigValidateAccepts(t *testing.T) {
	cfg := DefaultConfig().
		WithHostname("rack-7-node-3").
		WithPhy(1, 23, 18, 12).
		WithClock(ClockGPIO0In).
		WithMAC(net.HardwareAddr{0x02, 0xaa, 0xbb, 0xcc, 0xdd, 0xee}).
		WithStaticLease(StaticLease{
			IP:      netip.MustParseAddr("10.0.0.2"),
			Gateway: netip.MustParseAddr("10.0.0.1"),
			Netmask: netip.MustParseAddr("255.255.255.0"),
			DNS1:    netip.MustParseAddr("1.1.1.1"),
		})
	assert.NoError(t, cfg.Validate())
}

func TestConfigBuildersCopy(t *testing.T) {
	base := DefaultConfig()
	mac := net.HardwareAddr{0x02, 0, 0, 0, 0, 1}
	derived := base.WithHostname("other").WithMAC(mac)

	assert.Equal(t, "esp32-ethernet", base.Hostname, "builders leave the receiver untouched")
	assert.Equal(t, "other", derived.Hostname)

	mac[5] = 0xff
	assert.Equal(t, byte(1), derived.MAC[5], "mac is copied, not aliased")
}
