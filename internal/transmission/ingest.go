package transmission

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/vinit-codes/SmartPipeX/internal/ingest"
	"github.com/vinit-codes/SmartPipeX/internal/sensors"
)

// IngestTransmitter sends samples to the SmartPipeX ingest API and
// prints the human-readable status report for each attempt.
type IngestTransmitter struct {
	client *ingest.Client
	out    io.Writer
	logger *logrus.Logger
}

// NewIngestTransmitter creates a transmitter reporting to stdout.
func NewIngestTransmitter(client *ingest.Client, logger *logrus.Logger) *IngestTransmitter {
	return &IngestTransmitter{
		client: client,
		out:    os.Stdout,
		logger: logger,
	}
}

// Send posts the sample and writes the status report for both the
// success and the failure path. The error is returned for the loop
// driver's backoff decision, never escalated.
func (t *IngestTransmitter) Send(ctx context.Context, sample sensors.Sample) (*ingest.Ack, error) {
	ack, err := t.client.Send(ctx, sample)
	if err != nil {
		fmt.Fprintln(t.out, ingest.FailureReport(err))
		return nil, err
	}

	fmt.Fprintln(t.out, ingest.SuccessReport(sample, ack))
	return ack, nil
}

// Endpoint returns the target URL, for diagnostics.
func (t *IngestTransmitter) Endpoint() string {
	return t.client.URL()
}
