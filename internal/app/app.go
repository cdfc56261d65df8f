package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vinit-codes/SmartPipeX/internal/backoff"
	"github.com/vinit-codes/SmartPipeX/internal/config"
	"github.com/vinit-codes/SmartPipeX/internal/ingest"
	"github.com/vinit-codes/SmartPipeX/internal/observability"
	"github.com/vinit-codes/SmartPipeX/internal/sensors"
	"github.com/vinit-codes/SmartPipeX/internal/transmission"
)

// App drives the generate-and-transmit loop: one sample in flight at a
// time, fixed interval after a success, retry delay after a failure,
// forever until the context is cancelled.
type App struct {
	cfg     *config.Config
	gen     *sensors.Generator
	sender  transmission.Sender
	mirror  transmission.Mirror
	retry   backoff.Strategy
	metrics *observability.Metrics
	logger  *logrus.Logger

	out   io.Writer
	sleep func(context.Context, time.Duration) error
}

// New wires the loop driver. mirror and metrics may be nil.
func New(
	cfg *config.Config,
	gen *sensors.Generator,
	sender transmission.Sender,
	mirror transmission.Mirror,
	retry backoff.Strategy,
	metrics *observability.Metrics,
	logger *logrus.Logger,
) *App {
	return &App{
		cfg:     cfg,
		gen:     gen,
		sender:  sender,
		mirror:  mirror,
		retry:   retry,
		metrics: metrics,
		logger:  logger,
		out:     os.Stdout,
		sleep:   sleepCtx,
	}
}

// Warmup performs the single test cycle required before continuous
// mode: generate one sample, print it, send it. A failure here means
// the caller must not enter the loop.
func (a *App) Warmup(ctx context.Context) error {
	sample := a.gen.Generate()
	if a.metrics != nil {
		a.metrics.SampleGenerated()
	}

	pretty, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render sample: %w", err)
	}
	fmt.Fprintf(a.out, "Testing single sensor reading:\n%s\n", pretty)

	ack, err := a.sender.Send(ctx, sample)
	if err != nil {
		a.noteFailure(err)
		return err
	}
	a.noteSuccess(sample, ack)

	fmt.Fprintln(a.out, "Test successful, starting continuous simulation...")
	return a.sleep(ctx, config.WarmupPause)
}

// Run enters continuous mode and blocks until ctx is cancelled. The
// optional metrics listener runs alongside the loop under one group.
func (a *App) Run(ctx context.Context) error {
	grp, ctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		return a.loop(ctx)
	})

	if a.cfg.HasMetrics() {
		grp.Go(func() error {
			return observability.Serve(ctx, a.cfg.MetricsAddr, a.logger)
		})
	}

	return grp.Wait()
}

// loop is the Ready/Backoff state machine. Every iteration generates a
// fresh sample; a failed send never re-sends the old one.
func (a *App) loop(ctx context.Context) error {
	a.logger.WithFields(logrus.Fields{
		"interval": a.cfg.GetSendInterval(),
		"strategy": a.cfg.RetryStrategy,
	}).Info("Entering continuous mode")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		sample := a.gen.Generate()
		if a.metrics != nil {
			a.metrics.SampleGenerated()
		}

		ack, err := a.sender.Send(ctx, sample)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.noteFailure(err)

			delay := a.retry.Next()
			fmt.Fprintf(a.out, "Retrying in %s...\n\n", delay)
			if err := a.sleep(ctx, delay); err != nil {
				return err
			}
			continue
		}

		a.retry.Reset()
		a.noteSuccess(sample, ack)

		interval := a.cfg.GetSendInterval()
		fmt.Fprintf(a.out, "Waiting %s...\n\n", interval)
		if err := a.sleep(ctx, interval); err != nil {
			return err
		}
	}
}

func (a *App) noteSuccess(sample sensors.Sample, ack *ingest.Ack) {
	if a.metrics != nil {
		a.metrics.Transmission(observability.OutcomeOK)
		if ack.Data.Processed.LeakDetected {
			a.metrics.LeakAcked()
		}
	}

	if a.mirror != nil {
		if err := a.mirror.Mirror(sample, ack); err != nil {
			a.logger.WithError(err).Warn("MQTT mirror failed")
		}
	}
}

func (a *App) noteFailure(err error) {
	var se *ingest.StatusError
	switch {
	case errors.As(err, &se):
		a.logger.WithFields(logrus.Fields{
			"status_code": se.StatusCode,
		}).Warn("Ingest API rejected sample")
		if a.metrics != nil {
			a.metrics.Transmission(observability.OutcomeHTTPError)
		}
	default:
		a.logger.WithError(err).Warn("Ingest request failed")
		if a.metrics != nil {
			a.metrics.Transmission(observability.OutcomeNetworkError)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
