package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Client
// --------------------------------------------------------------------------

// Client talks to a memtrace HTTP server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL, e.g.
// "http://localhost:8080". A timeout of 0 means no timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Trace asks the server to capture one snapshot and returns the
// allocated index.
func (c *Client) Trace() (uint64, error) {
	resp, err := c.http.Post(c.baseURL+"/api/v1/trace", "application/json", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return 0, remoteError(resp)
	}

	var body TraceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("malformed trace response: %w", err)
	}
	return body.Index, nil
}

// Records fetches up to limit snapshots, newest first, skipping the
// offset most recent ones.
func (c *Client) Records(limit, offset uint64) ([]RecordPosition, error) {
	query := url.Values{}
	query.Set("limit", strconv.FormatUint(limit, 10))
	query.Set("offset", strconv.FormatUint(offset, 10))

	resp, err := c.http.Get(c.baseURL + "/api/v1/records?" + query.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, remoteError(resp)
	}

	var body RecordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("malformed records response: %w", err)
	}
	return body.Records, nil
}

// Health reports whether the server answers its liveness probe.
func (c *Client) Health() error {
	resp, err := c.http.Get(c.baseURL + "/healthz")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server is unhealthy (status %d)", resp.StatusCode)
	}
	return nil
}

// remoteError extracts the error message from a non-success response.
func remoteError(resp *http.Response) error {
	var body errorResponse
	data, err := io.ReadAll(resp.Body)
	if err == nil && json.Unmarshal(data, &body) == nil && body.Error != "" {
		return fmt.Errorf("server error (status %d): %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("server error (status %d)", resp.StatusCode)
}
