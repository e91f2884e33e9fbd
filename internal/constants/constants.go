// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package constants

// Build-time variables set via ldflags
var (
	Version   = "v0.0.1-dev" // Set via -X flag during build
	CommitSHA = "unknown"    // Set via -X flag during build
	BuildTime = "unknown"    // Set via -X flag during build
)

const (
	EthmanVersion     = "v0.0.1"
	EthmanPIDFilePath = "/run/ethman/ethman.pid"

	// config
	ConfigFileName = "ethman.yml"

	// routes
	APIVersion = "v1"
	APIBase    = "/api/" + APIVersion + "/ethman"

	// APIStatus is the base path for controller status endpoints
	APIStatus = APIBase + "/status"

	// APIStatistics is the base path for counter endpoints
	APIStatistics = APIBase + "/statistics"

	// APIDiagnostics is the base path for diagnostics dump endpoints
	APIDiagnostics = APIBase + "/diagnostics"
)
