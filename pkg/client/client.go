// Package client is the Go SDK for the daotrust ledger API.
//
// It covers the full demo flow: recording a trust event (score + DAO
// vote → ledger entry), reading the recent timeline, and verifying an
// entry's integrity against a window of its predecessors:
//
//	c := client.New("http://localhost:8080")
//	rec, _ := c.Record(ctx, client.RecordRequest{Address: "0xabc"})
//	res, _ := c.Verify(ctx, rec.Entry, rec.Timeline)
//	fmt.Println(res.Valid)
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// VoteResult mirrors the DAO vote outcome attached to a ledger entry.
type VoteResult struct {
	Approved    bool   `json:"approved"`
	Yes         int    `json:"yes"`
	No          int    `json:"no"`
	Quorum      int    `json:"quorum"`
	ReferenceID string `json:"referenceId"`
}

// Entry mirrors one ledger record as served by the API.
type Entry struct {
	Kind       string     `json:"kind"`
	LedgerID   string     `json:"ledgerId"`
	Height     uint64     `json:"height"`
	PrevHash   string     `json:"prevHash"`
	Address    string     `json:"address,omitempty"`
	Score      float64    `json:"score"`
	VoteResult VoteResult `json:"voteResult"`
	CreatedAt  time.Time  `json:"createdAt"`
	Hash       string     `json:"hash"`
}

// RecordRequest is the payload for Record. All fields are optional:
// the server fills missing ones from its mocked collaborators.
type RecordRequest struct {
	Address    string      `json:"address,omitempty"`
	Score      *float64    `json:"score,omitempty"`
	VoteResult *VoteResult `json:"voteResult,omitempty"`
}

// RecordResult holds the committed entry, the recent timeline, and
// whether the durable mirror write succeeded.
type RecordResult struct {
	Entry     *Entry   `json:"entry"`
	Timeline  []*Entry `json:"timeline"`
	Persisted bool     `json:"persisted"`
}

// VerifyResult is the integrity report for a candidate entry.
type VerifyResult struct {
	Valid   bool   `json:"valid"`
	HashOk  bool   `json:"hashOk"`
	ChainOk bool   `json:"chainOk"`
	Reason  string `json:"reason,omitempty"`
}

// Overview reports the chain height, tip hash and persistence backend.
type Overview struct {
	Height  uint64 `json:"height"`
	Tip     string `json:"tip"`
	Backend string `json:"backend"`
}

// Client is the daotrust SDK entry point.
type Client struct {
	base       string
	httpClient *http.Client
	adminToken string
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithAdminToken sets the Bearer token sent on admin calls (Reset).
func WithAdminToken(token string) Option {
	return func(c *Client) { c.adminToken = token }
}

// New creates a Client for the server at base (e.g. "http://localhost:8080").
func New(base string, opts ...Option) *Client {
	c := &Client{
		base:       strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Record appends a new ledger entry. Missing request fields are filled
// by the server's mocked score, vote, and wallet collaborators.
func (c *Client) Record(ctx context.Context, req RecordRequest) (*RecordResult, error) {
	var out RecordResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/ledger/record", req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify checks a candidate entry against a window of prior entries.
// An invalid entry is not an error: inspect the returned result.
func (c *Client) Verify(ctx context.Context, entry *Entry, window []*Entry) (*VerifyResult, error) {
	req := struct {
		Entry  *Entry   `json:"entry"`
		Window []*Entry `json:"window"`
	}{Entry: entry, Window: window}

	var out VerifyResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/ledger/verify", req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Timeline returns the last limit committed entries, oldest first.
// limit <= 0 uses the server default.
func (c *Client) Timeline(ctx context.Context, limit int) ([]*Entry, error) {
	path := "/api/v1/ledger/timeline"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var out struct {
		Entries []*Entry `json:"entries"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, false); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// GetOverview returns the chain height and tip hash.
func (c *Client) GetOverview(ctx context.Context) (*Overview, error) {
	var out Overview
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/ledger", nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reset discards the server's in-memory chain. Requires an admin token.
func (c *Client) Reset(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/v1/ledger/reset", nil, nil, true)
}

// doJSON executes one JSON round trip against the API.
func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, respBody any, admin bool) error {
	var body io.Reader
	if reqBody != nil {
		raw, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin && c.adminToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.adminToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("unauthorized: %s", string(raw))
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(raw))
	}

	if respBody != nil {
		if err := json.Unmarshal(raw, respBody); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
