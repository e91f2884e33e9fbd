// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"maps"
	"net/http"
)

// DomainEthernet covers the wired interface controller.
const DomainEthernet Domain = "ETHERNET"

const (
	// Ethernet controller errors (1900-1999)
	EthInvalidParameter   = 1900 + iota // Invalid argument or configuration
	EthMutexTimeout                     // State lock acquisition timed out
	EthAlreadyInitialized               // Controller already initialized
	EthNotInitialized                   // Controller not initialized
	EthPhyStartFailed                   // Failed to bring up the PHY
	EthConfigFailed                     // Interface configuration failed
	EthConnectionTimeout                // Connection wait timed out
	EthEventHandlerFailed               // Event handler registration failed
	EthResourceExhausted                // Out of memory or descriptors
	EthNetifError                       // Network interface operation failed
	EthUnknown                          // Unclassified failure
)

var ethernetErrors = map[ErrorCode]struct {
	message    string
	domain     Domain
	httpStatus int
}{
	EthInvalidParameter: {
		"Invalid ethernet parameter",
		DomainEthernet,
		http.StatusBadRequest,
	},
	EthMutexTimeout: {
		"Ethernet state lock timed out",
		DomainEthernet,
		http.StatusServiceUnavailable,
	},
	EthAlreadyInitialized: {
		"Ethernet controller already initialized",
		DomainEthernet,
		http.StatusConflict,
	},
	EthNotInitialized: {
		"Ethernet controller not initialized",
		DomainEthernet,
		http.StatusConflict,
	},
	EthPhyStartFailed: {
		"Failed to start ethernet PHY",
		DomainEthernet,
		http.StatusInternalServerError,
	},
	EthConfigFailed: {
		"Ethernet interface configuration failed",
		DomainEthernet,
		http.StatusInternalServerError,
	},
	EthConnectionTimeout: {
		"Timed out waiting for ethernet connection",
		DomainEthernet,
		http.StatusGatewayTimeout,
	},
	EthEventHandlerFailed: {
		"Failed to register ethernet event handlers",
		DomainEthernet,
		http.StatusInternalServerError,
	},
	EthResourceExhausted: {
		"Ethernet resources exhausted",
		DomainEthernet,
		http.StatusInsufficientStorage,
	},
	EthNetifError: {
		"Network interface operation failed",
		DomainEthernet,
		http.StatusInternalServerError,
	},
	EthUnknown: {
		"Unknown ethernet error",
		DomainEthernet,
		http.StatusInternalServerError,
	},
}

func init() {
	maps.Copy(errorDefinitions, ethernetErrors)
}

// ErrorString returns a short human-readable name for an ethernet error
// code, for diagnostics output and status endpoints.
func ErrorString(code ErrorCode) string {
	switch code {
	case 0:
		return "none"
	case EthInvalidParameter:
		return "invalid parameter"
	case EthMutexTimeout:
		return "mutex timeout"
	case EthAlreadyInitialized:
		return "already initialized"
	case EthNotInitialized:
		return "not initialized"
	case EthPhyStartFailed:
		return "phy start failed"
	case EthConfigFailed:
		return "configuration failed"
	case EthConnectionTimeout:
		return "connection timeout"
	case EthEventHandlerFailed:
		return "event handler registration failed"
	case EthResourceExhausted:
		return "resource exhausted"
	case EthNetifError:
		return "netif error"
	case EthUnknown:
		return "unknown error"
	default:
		if def, ok := errorDefinitions[code]; ok {
			return def.message
		}
		return "unrecognized error code"
	}
}
