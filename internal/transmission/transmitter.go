package transmission

import (
	"context"

	"github.com/vinit-codes/SmartPipeX/internal/ingest"
	"github.com/vinit-codes/SmartPipeX/internal/sensors"
)

// Sender delivers a sample to the ingest API and returns its ack.
type Sender interface {
	Send(ctx context.Context, sample sensors.Sample) (*ingest.Ack, error)
}

// Mirror republishes a sample and its ack to a secondary sink. Mirror
// failures never influence the send loop's success/backoff decision.
type Mirror interface {
	Mirror(sample sensors.Sample, ack *ingest.Ack) error
	IsConnected() bool
}
