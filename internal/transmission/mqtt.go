package transmission

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vinit-codes/SmartPipeX/internal/ingest"
	"github.com/vinit-codes/SmartPipeX/internal/mqtt"
	"github.com/vinit-codes/SmartPipeX/internal/sensors"
)

// MQTTTransmitter mirrors samples and ack summaries to an MQTT broker
// so dashboards can follow the simulator without polling the ingest
// service.
type MQTTTransmitter struct {
	client *mqtt.Client
	logger *logrus.Logger
}

// NewMQTTTransmitter creates a mirror on an already connected client
// and marks the device online.
func NewMQTTTransmitter(client *mqtt.Client, logger *logrus.Logger) *MQTTTransmitter {
	t := &MQTTTransmitter{
		client: client,
		logger: logger,
	}
	if err := client.PublishAvailability(true); err != nil {
		logger.WithError(err).Warn("Failed to publish availability")
	}
	return t
}

// Mirror publishes the sample and, when present, the ack summary.
func (t *MQTTTransmitter) Mirror(sample sensors.Sample, ack *ingest.Ack) error {
	payload, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}
	if err := t.client.Publish(t.client.SampleTopic(), payload, false); err != nil {
		return err
	}

	if ack == nil {
		return nil
	}
	ackPayload, err := json.Marshal(ack.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal ack: %w", err)
	}
	if err := t.client.Publish(t.client.AckTopic(), ackPayload, false); err != nil {
		return err
	}

	t.logger.WithFields(logrus.Fields{
		"leak_detected":  ack.Data.Processed.LeakDetected,
		"total_readings": ack.Data.TotalReadings,
	}).Debug("Mirrored sample to MQTT")

	return nil
}

// IsConnected reports whether the broker connection is up.
func (t *MQTTTransmitter) IsConnected() bool {
	return t.client.IsConnected()
}

// Close marks the device offline and disconnects.
func (t *MQTTTransmitter) Close() {
	if err := t.client.PublishAvailability(false); err != nil {
		t.logger.WithError(err).Debug("Failed to publish offline status")
	}
	t.client.Disconnect(250)
}
