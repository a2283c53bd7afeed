// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package compare talks to a reference full node's JSON-RPC interface so
// the differential pipeline (sortmerge package) can be checked against an
// independently-implemented chain, not just against itself. The
// request/response and Future/Receive shape follows rpcclient's
// established calling convention; the HTTP transport, auth, and TLS
// plumbing beneath it is this package's own, since the reference node
// here is never this repository's own wallet RPC server.
package compare

import (
	"bytes"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync/atomic"

	"github.com/decred/slog"
)

var log = slog.Disabled

// UseLogger directs package log output at logger.
func UseLogger(logger slog.Logger) {
	log = logger
}

// Config describes how to reach and authenticate against a reference
// node's JSON-RPC endpoint.
type Config struct {
	Host string
	User string
	Pass string

	// CookieFilePath, if set, is read for "__cookie__:<password>"-style
	// credentials instead of User/Pass, matching how bitcoind's RPC
	// cookie auth works.
	CookieFilePath string

	// Proxy, if set, routes requests through a SOCKS5 proxy (socks.go)
	// rather than dialing the host directly.
	Proxy     string
	ProxyUser string
	ProxyPass string

	DisableTLS bool
	// Certificates are PEM-encoded root certificates trusted for TLS,
	// beyond the system pool. tls.go's ephemeral certgen output is a
	// common source for these in a local test harness.
	Certificates []byte
}

// Client is a minimal synchronous JSON-RPC client (requests carry
// jsonrpc "1.0") against a single
// reference node endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	url        string
	id         uint64
}

// New dials no connection itself (RPC here is per-request HTTP) but
// validates cfg and prepares the transport, including proxy and TLS
// configuration.
func New(cfg Config) (*Client, error) {
	if cfg.CookieFilePath != "" {
		user, pass, err := readCookieFile(cfg.CookieFilePath)
		if err != nil {
			return nil, fmt.Errorf("reading rpc cookie file: %w", err)
		}
		cfg.User, cfg.Pass = user, pass
	}

	transport := &http.Transport{}
	if !cfg.DisableTLS {
		tlsConfig := &tls.Config{}
		if len(cfg.Certificates) > 0 {
			pool := loadCertPool(cfg.Certificates)
			tlsConfig.RootCAs = pool
		}
		transport.TLSClientConfig = tlsConfig
	}
	if cfg.Proxy != "" {
		dialer, err := newSocksDialer(cfg.Proxy, cfg.ProxyUser, cfg.ProxyPass)
		if err != nil {
			return nil, fmt.Errorf("configuring rpc proxy: %w", err)
		}
		transport.DialContext = dialer.DialContext
	}

	scheme := "https"
	if cfg.DisableTLS {
		scheme = "http"
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Transport: transport},
		url:        scheme + "://" + cfg.Host,
	}, nil
}

func readCookieFile(path string) (user, pass string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	parts := strings.SplitN(strings.TrimSpace(string(data)), ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("cookie file %s is not in user:password form", path)
	}
	return parts[0], parts[1], nil
}

type rpcRequest struct {
	Jsonrpc string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
	ID     uint64          `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func basicAuthHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

var nextRequestID uint64

// call performs a single synchronous JSON-RPC request and returns the raw
// result payload for the caller to unmarshal into a concrete type, mirroring
// how rpcclient's Future.Receive methods unmarshal c.sendCmd's raw result.
func (c *Client) call(method string, params ...interface{}) (json.RawMessage, error) {
	req := rpcRequest{
		Jsonrpc: "1.0",
		ID:      atomic.AddUint64(&nextRequestID, 1),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling rpc request %s: %w", method, err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building rpc request %s: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.User != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(c.cfg.User + ":" + c.cfg.Pass))
		httpReq.Header.Set("Authorization", "Basic "+auth)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("rpc request %s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading rpc response for %s: %w", method, err)
	}

	var rr rpcResponse
	if err := json.Unmarshal(respBody, &rr); err != nil {
		return nil, fmt.Errorf("decoding rpc response for %s: %w", method, err)
	}
	if rr.Error != nil {
		return nil, rr.Error
	}
	return rr.Result, nil
}
