// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ethernet

import (
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/stratastor/ethman/pkg/errors"
)

// SetLinkMonitoring enables or disables the periodic link probe. The
// scheduler is created lazily on first enable and torn down by Cleanup.
func (m *Manager) SetLinkMonitoring(enabled bool, interval time.Duration) error {
	if enabled && interval <= 0 {
		return errors.New(errors.EthInvalidParameter, "monitor interval must be positive")
	}

	if !m.mu.lock(quickLockTimeout) {
		m.log.Warn("Lock timeout, link monitoring not updated")
		return errors.New(errors.EthMutexTimeout, "set link monitoring")
	}
	defer m.mu.unlock()

	m.cfg.Monitor = MonitorPolicy{Enabled: enabled, Interval: interval}

	if !enabled {
		m.stopMonitorLocked()
		return nil
	}
	return m.startMonitorLocked(interval)
}

func (m *Manager) startMonitorLocked(interval time.Duration) error {
	if m.sched == nil {
		sched, err := gocron.NewScheduler(gocron.WithClock(m.clock))
		if err != nil {
			return errors.Wrap(err, errors.EthResourceExhausted).
				WithMetadata("component", "link-monitor")
		}
		m.sched = sched
		m.sched.Start()
	}

	if m.monitorJob != nil {
		if err := m.sched.RemoveJob(m.monitorJob.ID()); err != nil {
			m.log.Warn("Failed to remove previous monitor job", "err", err)
		}
		m.monitorJob = nil
	}

	job, err := m.sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(m.updateLinkStatus),
		gocron.WithName("link-monitor"),
	)
	if err != nil {
		return errors.Wrap(err, errors.EthResourceExhausted).
			WithMetadata("component", "link-monitor")
	}
	m.monitorJob = job
	m.log.Debug("Link monitoring enabled", "interval", interval)
	return nil
}

func (m *Manager) stopMonitorLocked() {
	if m.monitorJob == nil {
		return
	}
	if err := m.sched.RemoveJob(m.monitorJob.ID()); err != nil {
		m.log.Warn("Failed to remove monitor job", "err", err)
	}
	m.monitorJob = nil
	m.log.Debug("Link monitoring disabled")
}

// updateLinkStatus polls the driver's link state and reacts to edges:
// down moves the machine to LinkDown, up resumes Connected when the
// connected bit survived or LinkUp otherwise. The subscriber callback
// runs after the lock is released.
func (m *Manager) updateLinkStatus() {
	if !m.phyStarted.Load() {
		return
	}
	up := m.driver.LinkUp()

	if !m.mu.lock(quickLockTimeout) {
		m.log.Warn("Lock timeout in link monitor tick")
		return
	}

	if up == m.lastLinkStatus {
		m.mu.unlock()
		return
	}
	m.lastLinkStatus = up

	var pending pendingCalls
	if !up {
		switch m.state {
		case StateConnected, StateLinkUp, StateObtainingIP:
			m.changeStateLocked(StateLinkDown, &pending)
			m.linkDownEvents++
		}
	} else if m.state == StateLinkDown {
		if m.connected.Load() {
			m.changeStateLocked(StateConnected, &pending)
		} else {
			m.changeStateLocked(StateLinkUp, &pending)
		}
	}

	if cb := m.onLinkStatus; cb != nil {
		pending = append(pending, func() { cb(up) })
	}
	m.mu.unlock()

	m.log.Debug("Link status changed", "up", up)
	pending.run()
}
