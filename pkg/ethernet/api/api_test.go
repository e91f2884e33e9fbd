// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/ethman/internal/events"
	"github.com/stratastor/ethman/pkg/ethernet"
	"github.com/stratastor/ethman/pkg/ethernet/drivers/sim"
	"github.com/stratastor/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiBase = "/api/v1/ethman"

type testEnv struct {
	router  *gin.Engine
	manager *ethernet.Manager
	driver  *sim.Driver
}

// newTestEnv wires a router to a manager driven by the simulated driver
// and waits for the scripted bring-up to complete.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "api-test")
	require.NoError(t, err)

	bus := events.NewBus(64, l)
	t.Cleanup(bus.Close)

	registry := sim.NewRegistry()
	driver := sim.New(bus, l,
		sim.WithTiming(10*time.Millisecond, 10*time.Millisecond))
	t.Cleanup(driver.Stop)

	manager := ethernet.NewManager(driver, registry, bus, l)
	t.Cleanup(func() { _ = manager.Cleanup() })

	require.NoError(t, manager.EarlyInit())
	require.NoError(t, manager.Initialize(ethernet.DefaultConfig()))
	require.True(t, manager.IsConnected())

	router := gin.New()
	handler := NewEthernetHandler(manager, l)
	handler.RegisterRoutes(router.Group(apiBase))

	return &testEnv{router: router, manager: manager, driver: driver}
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, apiBase+path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetStatus(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := parseResponse(t, w)
	require.True(t, resp.Success)

	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "connected", result["state"])
	assert.Equal(t, true, result["connected"])
	assert.Equal(t, true, result["link_up"])
	assert.Equal(t, "192.168.1.50", result["ip"])
	assert.Equal(t, "02:00:00:e5:32:01", result["mac"])
	assert.Equal(t, float64(100), result["speed_mbps"])
	assert.Equal(t, "none", result["last_error"])
}

func TestGetStatistics(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/statistics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := parseResponse(t, w)
	require.True(t, resp.Success)

	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(0), result["disconnectCount"])
	assert.Contains(t, result, "totalEvents")
}

func TestResetStatistics(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodDelete, "/statistics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, parseResponse(t, w).Success)
}

func TestGetDiagnostics(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/diagnostics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "=== Ethernet Diagnostics ===")
	assert.Contains(t, w.Body.String(), "connected:        true")
}

func TestGetPerformance(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := parseResponse(t, w)
	require.True(t, resp.Success)
	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	assert.Greater(t, result["initTotal"], float64(0))
}

func TestDisconnectEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/disconnect", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := parseResponse(t, w)
	require.True(t, resp.Success)
	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "uninitialized", result["state"])
	assert.False(t, env.manager.IsConnected())
}

func TestResetEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := parseResponse(t, w)
	require.True(t, resp.Success)
	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, result["reset"])

	// The simulated driver re-runs its script after a restart.
	assert.Eventually(t, func() bool {
		return env.manager.IsConnected()
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSetAutoReconnect(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPut, "/reconnect", ReconnectRequest{
		Enabled:      true,
		MaxRetries:   5,
		InitialDelay: 500,
		MaxDelay:     10000,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, parseResponse(t, w).Success)
}

func TestSetAutoReconnectBadBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPut, apiBase+"/reconnect",
		bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := parseResponse(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ETHERNET", resp.Error.Domain)
}

func TestSetLinkMonitoring(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPut, "/monitor", MonitorRequest{
		Enabled:  true,
		Interval: 50,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, parseResponse(t, w).Success)

	w = env.request(t, http.MethodPut, "/monitor", MonitorRequest{Enabled: false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, parseResponse(t, w).Success)
}

func TestSetDNSServers(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPut, "/dns", DNSRequest{
		Primary: "1.1.1.1",
		Backup:  "8.8.8.8",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, parseResponse(t, w).Success)
}

func TestSetDNSServersInvalid(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPut, "/dns", DNSRequest{Primary: "not-an-ip"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := parseResponse(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Details, "invalid primary dns")
}

func TestSetMACAddress(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPut, "/mac", MACRequest{MAC: "02:aa:bb:cc:dd:ee"})
	require.Equal(t, http.StatusOK, w.Code)

	resp := parseResponse(t, w)
	require.True(t, resp.Success)
	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "02:aa:bb:cc:dd:ee", result["mac"])
}

func TestSetMACAddressInvalid(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPut, "/mac", MACRequest{MAC: "zz:zz"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, parseResponse(t, w).Success)
}
