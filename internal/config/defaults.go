package config

import "time"

// Central place for application-wide defaults and timing constants.
// Changing a value here immediately affects all components that import
// github.com/vinit-codes/SmartPipeX/internal/config.

const (
	DefaultDeviceID  = "ESP32_SIMULATOR_001"
	DefaultIngestURL = "http://localhost:3000/api/ingest"
	DefaultBaseFlow  = 3.0 // L/min

	// Loop timing
	DefaultSendInterval = 3 * time.Second  // Between successful sends
	DefaultRetryDelay   = 10 * time.Second // After a failed send
	WarmupPause         = 2 * time.Second  // Between warm-up success and loop entry

	// Operation time-outs
	DefaultIngestTimeout = 10 * time.Second // Ingest API call
	MQTTPublishTimeout   = 5 * time.Second  // MQTT publish
	MQTTConnectTimeout   = 5 * time.Second  // MQTT broker connect
)
