// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stratastor/ethman/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDecodesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/ethman/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":true,"result":{"state":"connected","ip":"192.168.1.50"}}`)
	}))
	defer srv.Close()

	c := New(DefaultConfig(srv.URL))

	var result map[string]any
	require.NoError(t, c.Get(context.Background(), "/api/v1/ethman/status", &result))
	assert.Equal(t, "connected", result["state"])
	assert.Equal(t, "192.168.1.50", result["ip"])
}

func TestEnvelopeErrorIsCoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"success":false,"error":{"code":1900,"domain":"ETHERNET","message":"Invalid parameter","details":"mac address must be 6 bytes"}}`)
	}))
	defer srv.Close()

	c := New(DefaultConfig(srv.URL))

	err := c.Put(context.Background(), "/api/v1/ethman/mac", map[string]string{"mac": "bad"}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.EthInvalidParameter))
	assert.Contains(t, err.Error(), "mac address must be 6 bytes")
}

func TestPostSendsBody(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	c := New(DefaultConfig(srv.URL))

	require.NoError(t, c.Post(context.Background(), "/api/v1/ethman/disconnect", map[string]bool{"force": true}, nil))
	assert.Equal(t, true, got["force"])
}

func TestTransportErrorIsNotCoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	cfg := DefaultConfig(srv.URL)
	cfg.RetryCount = 0

	err := New(cfg).Get(context.Background(), "/api/v1/ethman/status", nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorCode(0), errors.CodeOf(err))
}
