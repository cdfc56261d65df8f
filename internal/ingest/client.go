package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vinit-codes/SmartPipeX/internal/sensors"
)

// Client posts samples to the SmartPipeX ingest API and interprets the
// ack. The underlying HTTP client reuses its connection across calls;
// access is strictly sequential so no locking is needed.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates an ingest client for the given endpoint URL.
func NewClient(url string, logger *logrus.Logger) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Ack is the ingest API response envelope for an accepted sample.
type Ack struct {
	Data AckData `json:"data"`
}

// AckData carries the server-side processing outcome.
type AckData struct {
	Processed     Processed `json:"processed"`
	TotalReadings int       `json:"totalReadings"`
}

// Processed describes the server's leak analysis of the sample.
// Severity and SeverityScore are only set when LeakDetected is true.
type Processed struct {
	LeakDetected  bool    `json:"leakDetected"`
	Severity      string  `json:"severity,omitempty"`
	SeverityScore float64 `json:"severityScore,omitempty"`
}

// StatusError reports a response other than 201 Created from the ingest
// API. It is distinct from transport failures so callers can print the
// two differently.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ingest API returned status %d: %s", e.StatusCode, e.Body)
}

// Send posts the sample as JSON and parses the ack. Any non-201 status,
// network failure or malformed response body is returned as an error;
// none of them are fatal to the caller.
func (c *Client) Send(ctx context.Context, sample sensors.Sample) (*Ack, error) {
	payload, err := json.Marshal(sample)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sample: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create ingest request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "smartpipex-sim/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ingest request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ingest response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var ack Ack
	if err := json.Unmarshal(body, &ack); err != nil {
		return nil, fmt.Errorf("malformed ingest response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"status_code":    resp.StatusCode,
		"leak_detected":  ack.Data.Processed.LeakDetected,
		"total_readings": ack.Data.TotalReadings,
	}).Debug("Sample accepted by ingest API")

	return &ack, nil
}

// SetTimeout configures the HTTP client timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// URL returns the configured endpoint, for diagnostics.
func (c *Client) URL() string {
	return c.url
}
