// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package ethernet

import (
	"fmt"
	"time"

	"github.com/stratastor/ethman/pkg/errors"
)

// WaitForConnection blocks until the connected bit is set or timeout
// elapses. Waiting happens in bounded chunks so link status can be
// re-polled and error state detected between blocks.
func (m *Manager) WaitForConnection(timeout time.Duration) error {
	if m.connected.Load() {
		return nil
	}
	if timeout <= 0 {
		return errors.New(errors.EthInvalidParameter, "wait timeout must be positive")
	}
	if !m.phyStarted.Load() {
		return errors.New(errors.EthNotInitialized, "interface not started")
	}

	deadline := m.clock.Now().Add(timeout)

	for {
		if m.State() == StateError {
			return errors.New(errors.EthConnectionTimeout,
				fmt.Sprintf("interface entered error state: %s",
					errors.ErrorString(m.LastError())))
		}

		remaining := deadline.Sub(m.clock.Now())
		if remaining <= 0 {
			m.setLastError(errors.EthConnectionTimeout)
			return errors.New(errors.EthConnectionTimeout,
				fmt.Sprintf("no connection after %s", timeout))
		}

		chunk := remaining
		if chunk > waitChunk {
			chunk = waitChunk
		}

		ch := m.connCh.Load().(chan struct{})
		timer := m.clock.NewTimer(chunk)
		select {
		case <-ch:
			timer.Stop()
			return nil
		case <-timer.Chan():
		}

		if m.monitoringEnabled() {
			m.updateLinkStatus()
		}
	}
}

func (m *Manager) monitoringEnabled() bool {
	if !m.mu.lock(quickLockTimeout) {
		return false
	}
	defer m.mu.unlock()
	return m.cfg.Monitor.Enabled
}
