package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vinit-codes/SmartPipeX/internal/backoff"
	"github.com/vinit-codes/SmartPipeX/internal/config"
	"github.com/vinit-codes/SmartPipeX/internal/ingest"
	"github.com/vinit-codes/SmartPipeX/internal/sensors"
)

type fakeSender struct {
	errs  []error // error per call, nil entries succeed
	calls int
	ack   *ingest.Ack
}

func (f *fakeSender) Send(ctx context.Context, sample sensors.Sample) (*ingest.Ack, error) {
	defer func() { f.calls++ }()
	if f.calls < len(f.errs) && f.errs[f.calls] != nil {
		return nil, f.errs[f.calls]
	}
	return f.ack, nil
}

type fakeMirror struct {
	calls   int
	lastAck *ingest.Ack
}

func (f *fakeMirror) Mirror(sample sensors.Sample, ack *ingest.Ack) error {
	f.calls++
	f.lastAck = ack
	return nil
}

func (f *fakeMirror) IsConnected() bool { return true }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func emptyAck() *ingest.Ack {
	return &ingest.Ack{}
}

func newTestApp(sender *fakeSender, mirror *fakeMirror) (*App, *bytes.Buffer) {
	cfg := config.DefaultConfig()
	a := New(
		cfg,
		sensors.NewGenerator(cfg.DeviceID, cfg.BaseFlow),
		sender,
		nil,
		backoff.Fixed{Delay: cfg.GetRetryDelay()},
		nil,
		quietLogger(),
	)
	if mirror != nil {
		a.mirror = mirror
	}
	out := &bytes.Buffer{}
	a.out = out
	return a, out
}

func TestLoopBackoffAfterFailureThenInterval(t *testing.T) {
	sender := &fakeSender{
		errs: []error{&ingest.StatusError{StatusCode: 500, Body: "boom"}, nil, nil},
		ack:  emptyAck(),
	}
	a, out := newTestApp(sender, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sleeps []time.Duration
	a.sleep = func(c context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		if len(sleeps) == 3 {
			cancel()
			return c.Err()
		}
		return nil
	}

	err := a.loop(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}

	if len(sleeps) != 3 {
		t.Fatalf("expected 3 sleeps, got %d", len(sleeps))
	}
	if sleeps[0] != 10*time.Second {
		t.Fatalf("failure must schedule the retry delay, got %s", sleeps[0])
	}
	if sleeps[1] != 3*time.Second || sleeps[2] != 3*time.Second {
		t.Fatalf("successes must schedule the send interval, got %v", sleeps[1:])
	}
	if sender.calls != 3 {
		t.Fatalf("expected a fresh sample per attempt, got %d sends", sender.calls)
	}

	if !strings.Contains(out.String(), "Retrying in 10s") {
		t.Fatalf("missing retry notice:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Waiting 3s") {
		t.Fatalf("missing wait notice:\n%s", out.String())
	}
}

func TestLoopResetsBackoffAfterSuccess(t *testing.T) {
	sender := &fakeSender{
		errs: []error{errors.New("dial tcp: refused"), nil, errors.New("dial tcp: refused")},
		ack:  emptyAck(),
	}
	a, _ := newTestApp(sender, nil)
	a.retry = &backoff.Exponential{Base: 10 * time.Second, Max: 40 * time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sleeps []time.Duration
	a.sleep = func(c context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		if len(sleeps) == 3 {
			cancel()
			return c.Err()
		}
		return nil
	}

	if err := a.loop(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}

	// fail -> 10s, success -> 3s interval, fail again -> back to the
	// 10s base because the success reset the strategy.
	want := []time.Duration{10 * time.Second, 3 * time.Second, 10 * time.Second}
	for i, w := range want {
		if sleeps[i] != w {
			t.Fatalf("sleep %d: expected %s, got %s", i, w, sleeps[i])
		}
	}
}

func TestLoopMirrorsSuccessfulSends(t *testing.T) {
	ack := emptyAck()
	ack.Data.Processed.LeakDetected = true
	sender := &fakeSender{ack: ack}
	mirror := &fakeMirror{}
	a, _ := newTestApp(sender, mirror)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	count := 0
	a.sleep = func(c context.Context, d time.Duration) error {
		count++
		if count == 2 {
			cancel()
			return c.Err()
		}
		return nil
	}

	if err := a.loop(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if mirror.calls != 2 {
		t.Fatalf("expected 2 mirrored sends, got %d", mirror.calls)
	}
	if mirror.lastAck != ack {
		t.Fatalf("mirror must receive the ingest ack")
	}
}

func TestWarmupSuccess(t *testing.T) {
	sender := &fakeSender{ack: emptyAck()}
	mirror := &fakeMirror{}
	a, out := newTestApp(sender, mirror)
	a.sleep = func(context.Context, time.Duration) error { return nil }

	if err := a.Warmup(context.Background()); err != nil {
		t.Fatalf("warmup: %v", err)
	}
	if sender.calls != 1 {
		t.Fatalf("expected one warm-up send, got %d", sender.calls)
	}
	if mirror.calls != 1 {
		t.Fatalf("expected warm-up sample mirrored, got %d", mirror.calls)
	}

	text := out.String()
	if !strings.Contains(text, "Testing single sensor reading:") {
		t.Fatalf("missing warm-up banner:\n%s", text)
	}
	if !strings.Contains(text, `"deviceId": "ESP32_SIMULATOR_001"`) {
		t.Fatalf("warm-up must print the generated sample:\n%s", text)
	}
}

func TestWarmupFailureBlocksLoopEntry(t *testing.T) {
	sendErr := errors.New("dial tcp: connection refused")
	sender := &fakeSender{errs: []error{sendErr}}
	mirror := &fakeMirror{}
	a, _ := newTestApp(sender, mirror)
	a.sleep = func(context.Context, time.Duration) error { return nil }

	err := a.Warmup(context.Background())
	if !errors.Is(err, sendErr) {
		t.Fatalf("expected warm-up send error, got %v", err)
	}
	if mirror.calls != 0 {
		t.Fatalf("failed warm-up must not mirror, got %d calls", mirror.calls)
	}
}
