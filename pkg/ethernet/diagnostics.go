// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ethernet

import (
	"fmt"
	"io"
	"time"

	"github.com/stratastor/ethman/pkg/errors"
)

// DumpDiagnostics writes a human-readable status report to sink:
// state, flags, counters, timing checkpoints and the last error.
func (m *Manager) DumpDiagnostics(sink io.Writer) error {
	stats := m.Statistics()
	perf := m.Performance()

	if !m.mu.lock(quickLockTimeout) {
		return errors.New(errors.EthMutexTimeout, "dump diagnostics")
	}
	state := m.state
	prev := m.prevState
	cfg := m.cfg
	m.mu.unlock()

	var mac, ip string
	if m.phyStarted.Load() {
		mac = m.driver.MACAddress().String()
		ip = m.driver.LocalIP().String()
	}

	fmt.Fprintln(sink, "=== Ethernet Diagnostics ===")
	fmt.Fprintf(sink, "state:            %s (previous: %s)\n", state, prev)
	fmt.Fprintf(sink, "phy started:      %v\n", m.phyStarted.Load())
	fmt.Fprintf(sink, "connected:        %v\n", m.connected.Load())
	fmt.Fprintf(sink, "got ip once:      %v\n", m.gotIP.Load())
	fmt.Fprintf(sink, "hostname:         %s\n", cfg.Hostname)
	if mac != "" {
		fmt.Fprintf(sink, "mac:              %s\n", mac)
		fmt.Fprintf(sink, "ip:               %s\n", ip)
	}
	fmt.Fprintf(sink, "uptime:           %s\n", m.UptimeString())
	fmt.Fprintf(sink, "disconnects:      %d\n", stats.DisconnectCount)
	fmt.Fprintf(sink, "reconnects:       %d\n", stats.ReconnectCount)
	fmt.Fprintf(sink, "link down events: %d\n", stats.LinkDownEvents)
	fmt.Fprintf(sink, "dhcp renewals:    %d\n", stats.DHCPRenewals)
	fmt.Fprintf(sink, "events seen:      %d\n", stats.TotalEvents)
	if stats.TxPackets > 0 || stats.RxPackets > 0 {
		fmt.Fprintf(sink, "tx:               %d pkts / %d bytes\n",
			stats.TxPackets, stats.TxBytes)
		fmt.Fprintf(sink, "rx:               %d pkts / %d bytes\n",
			stats.RxPackets, stats.RxBytes)
	}
	fmt.Fprintf(sink, "init to link:     %s\n", perf.InitToLink)
	fmt.Fprintf(sink, "link to ip:       %s\n", perf.LinkToIP)
	fmt.Fprintf(sink, "init total:       %s\n", perf.InitTotal)
	fmt.Fprintf(sink, "last error:       %s\n", errors.ErrorString(stats.LastError))
	return nil
}

// QuickStatus returns a one-line summary for log lines and health
// endpoints.
func (m *Manager) QuickStatus() string {
	state := m.State()
	if m.connected.Load() {
		return fmt.Sprintf("%s ip=%s up=%s",
			state, m.LocalIP(), m.UptimeString())
	}
	return string(state)
}

// Performance reports bring-up timing checkpoints. Zero durations mean
// the checkpoint was never reached.
func (m *Manager) Performance() PerformanceMetrics {
	if !m.mu.lock(quickLockTimeout) {
		return PerformanceMetrics{}
	}
	defer m.mu.unlock()

	var perf PerformanceMetrics
	if !m.initStart.IsZero() && !m.linkUpTime.IsZero() {
		perf.InitToLink = m.linkUpTime.Sub(m.initStart)
	}
	if !m.linkUpTime.IsZero() && !m.ipObtainedTime.IsZero() {
		perf.LinkToIP = m.ipObtainedTime.Sub(m.linkUpTime)
	}
	if !m.initStart.IsZero() && !m.ipObtainedTime.IsZero() {
		perf.InitTotal = m.ipObtainedTime.Sub(m.initStart)
	}
	return perf
}

// UptimeString renders the connected duration in coarse units, or
// "down" when not connected.
func (m *Manager) UptimeString() string {
	if !m.connected.Load() {
		return "down"
	}
	if !m.mu.lock(quickLockTimeout) {
		return "unknown"
	}
	connectTime := m.connectTime
	m.mu.unlock()

	if connectTime.IsZero() {
		return "down"
	}
	d := m.clock.Now().Sub(connectTime)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
