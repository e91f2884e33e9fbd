// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package api exposes the ethernet controller over REST.
package api

import (
	"bytes"
	"net"
	"net/http"
	"net/netip"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/ethman/pkg/errors"
	"github.com/stratastor/ethman/pkg/ethernet"
	"github.com/stratastor/logger"
)

// EthernetHandler handles REST API requests for the interface controller
type EthernetHandler struct {
	manager *ethernet.Manager
	logger  logger.Logger
}

// APIResponse represents a standardized API response format
type APIResponse struct {
	Success bool        `json:"success"`
	Result  interface{} `json:"result,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError represents error information in API responses
type APIError struct {
	Code    int                    `json:"code"`
	Domain  string                 `json:"domain"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

// NewEthernetHandler creates a new controller API handler
func NewEthernetHandler(manager *ethernet.Manager, logger logger.Logger) *EthernetHandler {
	return &EthernetHandler{
		manager: manager,
		logger:  logger,
	}
}

// RegisterRoutes registers the controller routes
func (h *EthernetHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/status", h.GetStatus)
	router.GET("/diagnostics", h.GetDiagnostics)
	router.GET("/metrics", h.GetPerformance)

	statistics := router.Group("/statistics")
	{
		statistics.GET("", h.GetStatistics)
		statistics.DELETE("", h.ResetStatistics)
	}

	router.POST("/disconnect", h.Disconnect)
	router.POST("/reset", h.ResetInterface)
	router.PUT("/reconnect", h.SetAutoReconnect)
	router.PUT("/monitor", h.SetLinkMonitoring)
	router.PUT("/dns", h.SetDNSServers)
	router.PUT("/mac", h.SetMACAddress)
}

// sendSuccess sends a successful response with the standardized format
func (h *EthernetHandler) sendSuccess(c *gin.Context, statusCode int, result interface{}) {
	response := APIResponse{
		Success: true,
		Result:  result,
	}
	c.JSON(statusCode, response)
}

// sendError sends an error response with the standardized format
func (h *EthernetHandler) sendError(c *gin.Context, err error) {
	response := APIResponse{
		Success: false,
	}

	// Register with gin so the request log carries the error fields.
	c.Error(err)

	if ethErr, ok := err.(*errors.EthmanError); ok {
		h.logger.Error("Ethernet API error",
			"error", err,
			"code", ethErr.Code,
			"domain", ethErr.Domain,
			"path", c.Request.URL.Path)

		response.Error = &APIError{
			Code:    int(ethErr.Code),
			Domain:  string(ethErr.Domain),
			Message: ethErr.Message,
			Details: ethErr.Details,
		}

		// Add metadata if available
		if len(ethErr.Metadata) > 0 {
			response.Error.Meta = make(map[string]interface{})
			for k, v := range ethErr.Metadata {
				response.Error.Meta[k] = v
			}
		}

		c.JSON(ethErr.HTTPStatus, response)
		return
	}

	// Fallback for untyped errors
	h.logger.Error("Ethernet API error", "error", err, "path", c.Request.URL.Path)
	response.Error = &APIError{
		Code:    500,
		Domain:  string(errors.DomainEthernet),
		Message: "Internal server error",
		Details: err.Error(),
	}
	c.JSON(http.StatusInternalServerError, response)
}

// GetStatus handles GET /status
func (h *EthernetHandler) GetStatus(c *gin.Context) {
	m := h.manager
	result := map[string]interface{}{
		"state":          m.State(),
		"previous_state": m.PreviousState(),
		"connected":      m.IsConnected(),
		"started":        m.IsStarted(),
		"link_up":        m.IsLinkUp(),
		"uptime":         m.UptimeString(),
		"last_error":     errors.ErrorString(m.LastError()),
		"summary":        m.QuickStatus(),
	}
	if ip := m.LocalIP(); ip.IsValid() {
		result["ip"] = ip.String()
	}
	if mac := m.MACAddress(); mac != nil {
		result["mac"] = mac.String()
		result["hostname"] = m.Hostname()
		result["speed_mbps"] = m.LinkSpeed()
		result["full_duplex"] = m.FullDuplex()
	}
	h.sendSuccess(c, http.StatusOK, result)
}

// GetStatistics handles GET /statistics
func (h *EthernetHandler) GetStatistics(c *gin.Context) {
	h.sendSuccess(c, http.StatusOK, h.manager.Statistics())
}

// ResetStatistics handles DELETE /statistics
func (h *EthernetHandler) ResetStatistics(c *gin.Context) {
	if err := h.manager.ResetStatistics(); err != nil {
		h.sendError(c, err)
		return
	}
	h.sendSuccess(c, http.StatusOK, gin.H{"reset": true})
}

// GetDiagnostics handles GET /diagnostics, returning the plain-text dump
func (h *EthernetHandler) GetDiagnostics(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.manager.DumpDiagnostics(&buf); err != nil {
		h.sendError(c, err)
		return
	}
	c.String(http.StatusOK, buf.String())
}

// GetPerformance handles GET /metrics
func (h *EthernetHandler) GetPerformance(c *gin.Context) {
	h.sendSuccess(c, http.StatusOK, h.manager.Performance())
}

// Disconnect handles POST /disconnect
func (h *EthernetHandler) Disconnect(c *gin.Context) {
	if err := h.manager.Disconnect(); err != nil {
		h.sendError(c, err)
		return
	}
	h.sendSuccess(c, http.StatusOK, gin.H{"state": h.manager.State()})
}

// ResetInterface handles POST /reset
func (h *EthernetHandler) ResetInterface(c *gin.Context) {
	ok := h.manager.ResetInterface()
	h.sendSuccess(c, http.StatusOK, gin.H{
		"reset": ok,
		"state": h.manager.State(),
	})
}

// ReconnectRequest configures the retry policy
type ReconnectRequest struct {
	Enabled      bool `json:"enabled"`
	MaxRetries   int  `json:"max_retries"`
	InitialDelay int  `json:"initial_delay_ms" binding:"min=0"`
	MaxDelay     int  `json:"max_delay_ms"     binding:"min=0"`
}

// SetAutoReconnect handles PUT /reconnect
func (h *EthernetHandler) SetAutoReconnect(c *gin.Context) {
	var req ReconnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, errors.Wrap(err, errors.EthInvalidParameter))
		return
	}

	err := h.manager.SetAutoReconnect(
		req.Enabled,
		req.MaxRetries,
		time.Duration(req.InitialDelay)*time.Millisecond,
		time.Duration(req.MaxDelay)*time.Millisecond,
	)
	if err != nil {
		h.sendError(c, err)
		return
	}
	h.sendSuccess(c, http.StatusOK, gin.H{"auto_reconnect": req.Enabled})
}

// MonitorRequest configures the link probe
type MonitorRequest struct {
	Enabled  bool `json:"enabled"`
	Interval int  `json:"interval_ms" binding:"min=0"`
}

// SetLinkMonitoring handles PUT /monitor
func (h *EthernetHandler) SetLinkMonitoring(c *gin.Context) {
	var req MonitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, errors.Wrap(err, errors.EthInvalidParameter))
		return
	}

	if err := h.manager.SetLinkMonitoring(
		req.Enabled,
		time.Duration(req.Interval)*time.Millisecond,
	); err != nil {
		h.sendError(c, err)
		return
	}
	h.sendSuccess(c, http.StatusOK, gin.H{"monitoring": req.Enabled})
}

// DNSRequest carries resolver addresses
type DNSRequest struct {
	Primary string `json:"primary" binding:"required"`
	Backup  string `json:"backup"`
}

// SetDNSServers handles PUT /dns
func (h *EthernetHandler) SetDNSServers(c *gin.Context) {
	var req DNSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, errors.Wrap(err, errors.EthInvalidParameter))
		return
	}

	primary, err := netip.ParseAddr(req.Primary)
	if err != nil {
		h.sendError(c, errors.New(errors.EthInvalidParameter, "invalid primary dns address"))
		return
	}
	var backup netip.Addr
	if req.Backup != "" {
		backup, err = netip.ParseAddr(req.Backup)
		if err != nil {
			h.sendError(c, errors.New(errors.EthInvalidParameter, "invalid backup dns address"))
			return
		}
	}

	if err := h.manager.SetDNSServers(primary, backup); err != nil {
		h.sendError(c, err)
		return
	}
	h.sendSuccess(c, http.StatusOK, gin.H{"primary": req.Primary, "backup": req.Backup})
}

// MACRequest carries a custom hardware address
type MACRequest struct {
	MAC string `json:"mac" binding:"required"`
}

// SetMACAddress handles PUT /mac
func (h *EthernetHandler) SetMACAddress(c *gin.Context) {
	var req MACRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, errors.Wrap(err, errors.EthInvalidParameter))
		return
	}

	mac, err := net.ParseMAC(req.MAC)
	if err != nil {
		h.sendError(c, errors.New(errors.EthInvalidParameter, "invalid mac address"))
		return
	}

	if err := h.manager.SetMACAddress(mac); err != nil {
		h.sendError(c, err)
		return
	}
	h.sendSuccess(c, http.StatusOK, gin.H{"mac": mac.String()})
}
