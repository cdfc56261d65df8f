package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the simulator.
type Config struct {
	// Device configuration
	DeviceID string  `yaml:"device_id"` // Device identifier reported in every sample
	BaseFlow float64 `yaml:"base_flow"` // Base flow rate in L/min

	// Ingest API configuration
	IngestURL     string `yaml:"ingest_url"`     // SmartPipeX ingest endpoint
	IngestTimeout int    `yaml:"ingest_timeout"` // Request timeout in seconds (default: 10)

	// Loop configuration
	SendInterval  int    `yaml:"send_interval"`  // Seconds between successful sends
	RetryStrategy string `yaml:"retry_strategy"` // fixed, exponential or jittered
	RetryDelay    int    `yaml:"retry_delay"`    // Base retry delay in seconds

	// Optional MQTT mirror
	MQTTUrl string `yaml:"mqtt_url"` // MQTT URL (ws://, wss://, mqtt:// or mqtts://)

	// Optional Prometheus listener
	MetricsAddr string `yaml:"metrics_addr"` // e.g. ":9100"; empty disables metrics

	// Application configuration
	Verbose bool `yaml:"verbose"` // Enable verbose logging
}

// DefaultConfig returns a configuration matching the stock simulator.
func DefaultConfig() *Config {
	return &Config{
		DeviceID:      DefaultDeviceID,
		BaseFlow:      DefaultBaseFlow,
		IngestURL:     DefaultIngestURL,
		IngestTimeout: int(DefaultIngestTimeout / time.Second),
		SendInterval:  int(DefaultSendInterval / time.Second),
		RetryStrategy: "fixed",
		RetryDelay:    int(DefaultRetryDelay / time.Second),
	}
}

// Load reads a YAML config file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and repairs non-positive timings.
func (c *Config) Validate() error {
	if c.DeviceID == "" {
		return fmt.Errorf("device ID is required")
	}

	if c.IngestURL == "" {
		return fmt.Errorf("ingest URL is required")
	}
	u, err := url.Parse(c.IngestURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("ingest URL must be an http:// or https:// URL: %q", c.IngestURL)
	}

	// MQTT validation - support both WebSocket and standard MQTT protocols
	if c.MQTTUrl != "" {
		if !strings.HasPrefix(c.MQTTUrl, "ws://") &&
			!strings.HasPrefix(c.MQTTUrl, "wss://") &&
			!strings.HasPrefix(c.MQTTUrl, "mqtt://") &&
			!strings.HasPrefix(c.MQTTUrl, "mqtts://") {
			return fmt.Errorf("MQTT URL must use supported protocol (ws://, wss://, mqtt:// or mqtts://)")
		}
	}

	switch c.RetryStrategy {
	case "fixed", "exponential", "jittered":
	default:
		return fmt.Errorf("retry strategy must be fixed, exponential or jittered: %q", c.RetryStrategy)
	}

	// Set defaults for invalid values
	if c.IngestTimeout <= 0 {
		c.IngestTimeout = int(DefaultIngestTimeout / time.Second)
	}
	if c.SendInterval <= 0 {
		c.SendInterval = int(DefaultSendInterval / time.Second)
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = int(DefaultRetryDelay / time.Second)
	}

	return nil
}

// HasMQTT returns true if the MQTT mirror is configured.
func (c *Config) HasMQTT() bool {
	return c.MQTTUrl != ""
}

// HasMetrics returns true if the Prometheus listener is configured.
func (c *Config) HasMetrics() bool {
	return c.MetricsAddr != ""
}

// GetIngestTimeout returns the ingest request timeout as a duration.
func (c *Config) GetIngestTimeout() time.Duration {
	return time.Duration(c.IngestTimeout) * time.Second
}

// GetSendInterval returns the inter-send interval as a duration.
func (c *Config) GetSendInterval() time.Duration {
	return time.Duration(c.SendInterval) * time.Second
}

// GetRetryDelay returns the base retry delay as a duration.
func (c *Config) GetRetryDelay() time.Duration {
	return time.Duration(c.RetryDelay) * time.Second
}
