package sensors

import "time"

// Sample is one pair of flow readings from the simulated device.
// Field names match the ingest API payload keys exactly. A sample is
// immutable once generated: it is transmitted once and discarded after
// the ack has been processed.
type Sample struct {
	InputFlow  float64   `json:"inputFlow"`  // L/min, rounded to 3 decimals
	OutputFlow float64   `json:"outputFlow"` // L/min, rounded to 3 decimals
	Timestamp  time.Time `json:"timestamp"`  // UTC, ISO-8601 on the wire
	DeviceID   string    `json:"deviceId"`
}
