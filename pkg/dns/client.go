/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package dns is the typed adapter for the PowerDNS authoritative API.
// Zone and record names go over the wire with a trailing dot; A-record
// content is the raw IPv4 string.
package dns

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// DefaultTTL is applied when the caller passes a non-positive TTL.
const DefaultTTL = 300

const requestTimeout = 30 * time.Second

// Error kinds surfaced by the adapter.
var (
	ErrZoneNotFound       = errors.New("dns zone not found")
	ErrBackendUnavailable = errors.New("dns backend unavailable")
)

// Record is one entry inside an rrset.
type Record struct {
	Content  string `json:"content"`
	Disabled bool   `json:"disabled"`
}

// RRSet is a PowerDNS resource record set.
type RRSet struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	TTL        int      `json:"ttl,omitempty"`
	ChangeType string   `json:"changetype,omitempty"`
	Records    []Record `json:"records"`
}

// Client talks to the PowerDNS HTTP API. Safe for concurrent use.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	apiKey  string
	log     *zap.Logger
}

// NewClient constructs a DNS client with the shared retry policy:
// transient errors and 5xx retried 3 times, 500ms to 2s backoff.
func NewClient(baseURL, apiKey string, log *zap.Logger) *Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	c.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil || resp == nil {
			return true, nil
		}
		return resp.StatusCode >= 500, nil
	}
	c.Logger = nil

	return &Client{
		http:    c,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		log:     log.With(zap.String("component", "dns")),
	}
}

// canonical appends the trailing dot PowerDNS expects.
func canonical(name string) string {
	if strings.HasSuffix(name, ".") {
		return name
	}
	return name + "."
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return resp.StatusCode, respBody, nil
}

func (c *Client) zonePath(zone string) string {
	return "/api/v1/servers/localhost/zones/" + canonical(zone)
}

// UpsertARecord replaces the A rrset for name.zone with the given IPv4
// address. A non-positive ttl falls back to DefaultTTL.
func (c *Client) UpsertARecord(ctx context.Context, zone, name, ipv4 string, ttl int) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	payload := map[string]any{
		"rrsets": []RRSet{{
			Name:       canonical(name + "." + zone),
			Type:       "A",
			TTL:        ttl,
			ChangeType: "REPLACE",
			Records:    []Record{{Content: ipv4, Disabled: false}},
		}},
	}

	status, body, err := c.do(ctx, http.MethodPatch, c.zonePath(zone), payload)
	if err != nil {
		return err
	}
	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: zone %s", ErrZoneNotFound, zone)
	case status >= 500:
		return fmt.Errorf("%w: status %d: %s", ErrBackendUnavailable, status, string(body))
	case status < 200 || status >= 300:
		return fmt.Errorf("dns upsert rejected: status %d: %s", status, string(body))
	}

	c.log.Info("upserted A record",
		zap.String("zone", zone),
		zap.String("name", name),
		zap.String("ip", ipv4))
	return nil
}

// DeleteRecord removes an rrset. A missing zone or record is success.
func (c *Client) DeleteRecord(ctx context.Context, zone, name, rtype string) error {
	payload := map[string]any{
		"rrsets": []RRSet{{
			Name:       canonical(name + "." + zone),
			Type:       rtype,
			ChangeType: "DELETE",
			Records:    []Record{},
		}},
	}

	status, body, err := c.do(ctx, http.MethodPatch, c.zonePath(zone), payload)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return nil
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("dns delete rejected: status %d: %s", status, string(body))
	}
	return nil
}

// ListRecords returns every rrset in a zone.
func (c *Client) ListRecords(ctx context.Context, zone string) ([]RRSet, error) {
	status, body, err := c.do(ctx, http.MethodGet, c.zonePath(zone), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: zone %s", ErrZoneNotFound, zone)
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrBackendUnavailable, status, string(body))
	}

	var parsed struct {
		RRSets []RRSet `json:"rrsets"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode zone: %w", err)
	}
	return parsed.RRSets, nil
}

// Healthz probes backend reachability for the health endpoint.
func (c *Client) Healthz(ctx context.Context) error {
	status, body, err := c.do(ctx, http.MethodGet, "/api/v1/servers/localhost", nil)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("%w: status %d: %s", ErrBackendUnavailable, status, string(body))
	}
	return nil
}
