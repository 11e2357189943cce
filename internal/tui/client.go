package tui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"chronosync/internal/authority"
)

// Status mirrors the admin server's /status response.
type Status struct {
	Mode       string    `json:"mode"`
	Time       time.Time `json:"time"`
	Confidence string    `json:"confidence"`
	Kind       string    `json:"kind"`
	Error      string    `json:"error,omitempty"`
}

// Client polls a running admin server.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient builds a polling client for the given admin base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Metrics fetches the counters snapshot.
func (c *Client) Metrics() (authority.Metrics, error) {
	var m authority.Metrics
	err := c.getJSON("/metrics", &m)
	return m, err
}

// Status fetches the current authoritative time view.
func (c *Client) Status() (Status, error) {
	var s Status
	err := c.getJSON("/status", &s)
	return s, err
}

// Resync asks the server for an immediate synchronization.
func (c *Client) Resync() error {
	return c.post("/resync")
}

// Reset reopens a disabled authority.
func (c *Client) Reset() error {
	return c.post("/reset")
}

func (c *Client) getJSON(path string, v any) error {
	resp, err := c.HTTP.Get(c.BaseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func (c *Client) post(path string) error {
	resp, err := c.HTTP.Post(c.BaseURL+path, "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s: unexpected status %s", path, resp.Status)
	}
	return nil
}
