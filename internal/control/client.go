// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package control

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Client talks to a running gatewarden process over its control socket.
type Client struct {
	httpClient *http.Client
	socketPath string
}

// NewClient creates a client for the default control socket path.
func NewClient() *Client {
	return NewClientForSocket(SocketPath())
}

// NewClientForSocket creates a client for a specific socket path.
func NewClientForSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", socketPath)
				},
			},
			Timeout: 5 * time.Second,
		},
	}
}

// WaitReady polls the health endpoint until the process answers or the
// retry budget is exhausted. Used after starting the daemon.
func (c *Client) WaitReady(ctx context.Context) error {
	backoff := retry.WithMaxRetries(10, retry.NewFibonacci(50*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if _, err := c.Health(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

// Health queries the /health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get(ctx, "/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status queries the /status endpoint.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get(ctx, "/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shutdown requests graceful shutdown of the daemon.
func (c *Client) Shutdown(ctx context.Context) error {
	var resp ShutdownResponse
	return c.post(ctx, "/shutdown", nil, &resp)
}

// WhitelistAdd adds a name to the bypass list.
func (c *Client) WhitelistAdd(ctx context.Context, name string) error {
	return c.post(ctx, "/whitelist/add", NameRequest{Name: name}, &struct{}{})
}

// WhitelistRemove removes a name from the bypass list.
func (c *Client) WhitelistRemove(ctx context.Context, name string) error {
	return c.post(ctx, "/whitelist/remove", NameRequest{Name: name}, &struct{}{})
}

// WhitelistList returns the bypass list.
func (c *Client) WhitelistList(ctx context.Context) ([]string, error) {
	var resp NamesResponse
	if err := c.get(ctx, "/whitelist", &resp); err != nil {
		return nil, err
	}
	return resp.Names, nil
}

// WhitelistReload re-reads the authorization file from disk.
func (c *Client) WhitelistReload(ctx context.Context) error {
	return c.post(ctx, "/whitelist/reload", nil, &struct{}{})
}

// AdminAdd adds a name to the administrator list.
func (c *Client) AdminAdd(ctx context.Context, name string) error {
	return c.post(ctx, "/admins/add", NameRequest{Name: name}, &struct{}{})
}

// AdminRemove removes a name from the administrator list.
func (c *Client) AdminRemove(ctx context.Context, name string) error {
	return c.post(ctx, "/admins/remove", NameRequest{Name: name}, &struct{}{})
}

// AdminList returns the administrator list.
func (c *Client) AdminList(ctx context.Context) ([]string, error) {
	var resp NamesResponse
	if err := c.get(ctx, "/admins", &resp); err != nil {
		return nil, err
	}
	return resp.Names, nil
}

// CredentialAdd registers a new credential.
func (c *Client) CredentialAdd(ctx context.Context, name, secret string) error {
	return c.post(ctx, "/credentials/add", CredentialRequest{Name: name, Secret: secret}, &struct{}{})
}

// CredentialReload re-reads the credential file from disk and returns the
// number of loaded entries.
func (c *Client) CredentialReload(ctx context.Context) (int, error) {
	var resp ReloadResponse
	if err := c.post(ctx, "/credentials/reload", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://localhost"+path, nil)
	if err != nil {
		return oops.With("path", path).Wrap(err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return oops.With("path", path).Wrap(err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://localhost"+path, reader)
	if err != nil {
		return oops.With("path", path).Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return oops.With("socket", c.socketPath).Wrap(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr == nil && errResp.Reason != "" {
			return oops.With("status", resp.StatusCode).Errorf("%s", errResp.Reason)
		}
		return oops.With("status", resp.StatusCode).Errorf("control request failed: %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return oops.With("path", req.URL.Path).Wrap(err)
	}
	return nil
}
