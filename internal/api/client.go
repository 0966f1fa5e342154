// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package api is the HTTP client for the TenantPress backend endpoints:
// tenant host resolution, content fetch/save, and asset upload. The
// credential is an explicitly supplied accessor rather than ambient
// state, so each call site is request-scoped.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"tenantpress/internal/document"
)

// ErrNotWired marks a save rejected with HTTP 404/405: the persistence
// route exists in no deployed backend yet. Callers surface it differently
// from transient failures.
var ErrNotWired = errors.New("save endpoint not wired")

// TokenFunc supplies the bearer credential for authenticated calls.
// It is consulted per request; returning "" sends no Authorization header.
type TokenFunc func() string

// StaticToken returns a TokenFunc that always yields tok.
func StaticToken(tok string) TokenFunc {
	return func() string { return tok }
}

// Client talks to the TenantPress backend API.
type Client struct {
	baseURL string
	token   TokenFunc
	http    *http.Client
}

// New creates a client for the given base URL (e.g. "https://api.example.com").
// token may be nil for unauthenticated use such as host resolution.
func New(baseURL string, token TokenFunc) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// WithToken returns a copy of the client bound to a different credential.
// The underlying HTTP client and base URL are shared.
func (c *Client) WithToken(token TokenFunc) *Client {
	out := *c
	out.token = token
	return &out
}

// resolveResponse is the body of a successful domain resolution.
type resolveResponse struct {
	Username string `json:"username"`
}

// ResolveDomain looks up the tenant username owning a custom domain.
// Any failure — transport error, non-2xx status, malformed body, or an
// empty/whitespace username — returns an error; the routing middleware
// treats every error as "not a tenant host".
func (c *Client) ResolveDomain(ctx context.Context, host string) (string, error) {
	u := c.baseURL + "/api/domains/resolve?domain=" + url.QueryEscape(host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("resolve domain request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolve domain http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("resolve domain: status %d", resp.StatusCode)
	}

	var body resolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("resolve domain decode: %w", err)
	}

	username := strings.TrimSpace(body.Username)
	if username == "" {
		return "", fmt.Errorf("resolve domain: empty username for %q", host)
	}
	return username, nil
}

// FetchSite retrieves a tenant's stored content as raw JSON. The caller
// passes the bytes to document.Normalize; malformed content is the
// normalizer's problem, not a fetch error.
func (c *Client) FetchSite(ctx context.Context, username string) ([]byte, error) {
	u := c.baseURL + "/api/sites/" + url.PathEscape(username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch site request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch site http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch site: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch site read: %w", err)
	}
	return raw, nil
}

// SaveSite persists the full document payload for a tenant. 2xx is
// success; 404 and 405 map to ErrNotWired; anything else is a generic
// failure.
func (c *Client) SaveSite(ctx context.Context, username string, payload document.SavePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("save site marshal: %w", err)
	}

	u := c.baseURL + "/api/sites/" + url.PathEscape(username)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("save site request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("save site http: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusMethodNotAllowed:
		return fmt.Errorf("save site: status %d: %w", resp.StatusCode, ErrNotWired)
	default:
		return fmt.Errorf("save site: status %d", resp.StatusCode)
	}
}

// uploadResponse is the body of a successful asset upload.
type uploadResponse struct {
	URL string `json:"url"`
}

// UploadAsset sends a binary file as multipart form data and returns the
// public URL assigned by the backend.
func (c *Client) UploadAsset(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("upload form: %w", err)
	}
	if _, err := io.Copy(part, body); err != nil {
		return "", fmt.Errorf("upload copy: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("upload finalize: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/uploads", &buf)
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("upload read: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("upload: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out uploadResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("upload decode: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("upload: response missing url")
	}
	return out.URL, nil
}

// authorize attaches the bearer credential when one is available.
func (c *Client) authorize(req *http.Request) {
	if c.token == nil {
		return
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
}
