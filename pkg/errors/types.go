// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents unique error identifiers
type ErrorCode int

// Domain represents the subsystem where the error originated
type Domain string

const (
	DomainConfig    Domain = "CONFIG"
	DomainServer    Domain = "SERVER"
	DomainCommand   Domain = "CMD"
	DomainLifecycle Domain = "LIFECYCLE"
	DomainMisc      Domain = "MISC"
)

type EthmanError struct {
	Code       ErrorCode `json:"code"`
	Domain     Domain    `json:"domain"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	HTTPStatus int       `json:"-"`

	// Metadata carries contextual key/value pairs that don't fit the
	// standard fields: command lines, event ids, interface names. It is
	// serialized in API responses and attached to structured logs.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Error code ranges:
// 1000-1099: Configuration errors
// 1100-1199: Server errors
// 1300-1399: Command execution
// 1500-1599: Lifecycle management
// 1900-1999: Ethernet controller errors
const (
	// Configuration Errors (1000-1099)
	ConfigNotFound         = 1000 + iota // Config file not found
	ConfigInvalid                        // Invalid config format
	ConfigLoadFailed                     // Failed to load config
	ConfigWriteFailed                    // Failed to write config
	ConfigValidationFailed               // Config validation failed
)

const (
	// Server Errors (1100-1199)
	ServerStart         = 1100 + iota // Failed to start server
	ServerShutdown                    // Error during shutdown
	ServerBind                        // Failed to bind port
	ServerTimeout                     // Operation timeout
	ServerBadRequest                  // Bad request error
	ServerInternalError               // Internal server error
)

const (
	// Command Execution (1300-1399)
	CommandNotFound     = 1300 + iota // Command not found
	CommandExecution                  // Execution failed
	CommandTimeout                    // Command timed out
	CommandInvalidInput               // Invalid command input
	CommandOutputParse                // Output parsing failed
)

const (
	// Lifecycle Management (1500-1599)
	LifecyclePID      = 1500 + iota // PID file operation failed
	LifecycleShutdown               // Shutdown process error
	LifecycleSignal                 // Signal handling error
)

var errorDefinitions = map[ErrorCode]struct {
	message    string
	domain     Domain
	httpStatus int
}{
	// Configuration errors
	ConfigNotFound:   {"Configuration file not found", DomainConfig, http.StatusNotFound},
	ConfigInvalid:    {"Invalid configuration format", DomainConfig, http.StatusBadRequest},
	ConfigLoadFailed: {"Failed to load configuration", DomainConfig, http.StatusInternalServerError},
	ConfigWriteFailed: {
		"Failed to write configuration",
		DomainConfig,
		http.StatusInternalServerError,
	},
	ConfigValidationFailed: {
		"Configuration validation failed",
		DomainConfig,
		http.StatusBadRequest,
	},

	// Server errors
	ServerStart:    {"Failed to start server", DomainServer, http.StatusInternalServerError},
	ServerShutdown: {"Error during server shutdown", DomainServer, http.StatusInternalServerError},
	ServerBind:     {"Failed to bind server port", DomainServer, http.StatusInternalServerError},
	ServerTimeout:  {"Server operation timed out", DomainServer, http.StatusGatewayTimeout},
	ServerBadRequest: {
		"Bad request error",
		DomainServer,
		http.StatusBadRequest,
	},
	ServerInternalError: {
		"Internal server error",
		DomainServer,
		http.StatusInternalServerError,
	},

	// Command execution errors
	CommandNotFound:  {"Command not found", DomainCommand, http.StatusNotFound},
	CommandExecution: {"Command execution failed", DomainCommand, http.StatusBadRequest},
	CommandTimeout:   {"Command execution timed out", DomainCommand, http.StatusGatewayTimeout},
	CommandInvalidInput: {
		"Invalid command input",
		DomainCommand,
		http.StatusBadRequest,
	},
	CommandOutputParse: {
		"Failed to parse command output",
		DomainCommand,
		http.StatusInternalServerError,
	},

	// Lifecycle errors
	LifecyclePID: {"PID file operation failed", DomainLifecycle, http.StatusInternalServerError},
	LifecycleShutdown: {
		"Error during shutdown process",
		DomainLifecycle,
		http.StatusInternalServerError,
	},
	LifecycleSignal: {"Signal handling error", DomainLifecycle, http.StatusInternalServerError},
}

// New creates an EthmanError from a registered code with caller details.
func New(code ErrorCode, details string) *EthmanError {
	def, ok := errorDefinitions[code]
	if !ok {
		return &EthmanError{
			Code:       code,
			Domain:     DomainMisc,
			Message:    "Unknown error",
			Details:    details,
			HTTPStatus: http.StatusInternalServerError,
		}
	}
	return &EthmanError{
		Code:       code,
		Domain:     def.domain,
		Message:    def.message,
		Details:    details,
		HTTPStatus: def.httpStatus,
	}
}

// Wrap converts an arbitrary error into an EthmanError with the given code,
// preserving the original error string in Details.
func Wrap(err error, code ErrorCode) *EthmanError {
	if err == nil {
		return New(code, "")
	}
	if ee, ok := err.(*EthmanError); ok && ee.Code == code {
		return ee
	}
	return New(code, err.Error())
}

func (e *EthmanError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s-%d] %s: %s", e.Domain, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s-%d] %s", e.Domain, e.Code, e.Message)
}

// WithMetadata attaches a key/value pair and returns the error for chaining.
func (e *EthmanError) WithMetadata(key, value string) *EthmanError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// IsCode reports whether err is an EthmanError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	ee, ok := err.(*EthmanError)
	return ok && ee.Code == code
}

// CodeOf extracts the error code, or 0 when err is nil or untyped.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return 0
	}
	if ee, ok := err.(*EthmanError); ok {
		return ee.Code
	}
	return 0
}
