package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/vinit-codes/SmartPipeX/internal/app"
	"github.com/vinit-codes/SmartPipeX/internal/backoff"
	"github.com/vinit-codes/SmartPipeX/internal/config"
	"github.com/vinit-codes/SmartPipeX/internal/ingest"
	"github.com/vinit-codes/SmartPipeX/internal/mqtt"
	"github.com/vinit-codes/SmartPipeX/internal/observability"
	"github.com/vinit-codes/SmartPipeX/internal/sensors"
	"github.com/vinit-codes/SmartPipeX/internal/transmission"
)

// version is injected at build time via ldflags
var version = "dev"

func main() {
	cfg := parseFlags()
	logger := setupLogger(cfg.Verbose)

	logger.WithFields(logrus.Fields{
		"version":   version,
		"device_id": cfg.DeviceID,
		"endpoint":  cfg.IngestURL,
		"interval":  cfg.GetSendInterval(),
		"strategy":  cfg.RetryStrategy,
	}).Info("Starting SmartPipeX sensor simulator")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info("Shutdown signal received")
		cancel()
	}()

	// Core clients ---------------------------------------------------------------
	ingestClient := ingest.NewClient(cfg.IngestURL, logger)
	ingestClient.SetTimeout(cfg.GetIngestTimeout())
	sender := transmission.NewIngestTransmitter(ingestClient, logger)

	var mirror transmission.Mirror
	if cfg.HasMQTT() {
		mqttClient, err := mqtt.NewClient(cfg.MQTTUrl, cfg.DeviceID, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create MQTT client")
		}
		mqttTx := transmission.NewMQTTTransmitter(mqttClient, logger)
		defer mqttTx.Close()
		mirror = mqttTx
		logger.Info("MQTT mirror ready")
	}

	var metrics *observability.Metrics
	if cfg.HasMetrics() {
		metrics = observability.NewMetrics(prometheus.DefaultRegisterer)
	}

	retry, err := backoff.New(cfg.RetryStrategy, cfg.GetRetryDelay())
	if err != nil {
		logger.WithError(err).Fatal("Invalid retry strategy")
	}

	gen := sensors.NewGenerator(cfg.DeviceID, cfg.BaseFlow)
	sim := app.New(cfg, gen, sender, mirror, retry, metrics, logger)

	// Warm-up gate ---------------------------------------------------------------
	if err := sim.Warmup(ctx); err != nil {
		logger.WithError(err).Error("Warm-up send failed")
		fmt.Printf("Test failed. Please check that the SmartPipeX server is reachable at %s\n", cfg.IngestURL)
		os.Exit(1)
	}

	// Continuous mode ------------------------------------------------------------
	err = sim.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error("Simulator terminated unexpectedly")
		os.Exit(1)
	}

	fmt.Println("Simulator stopped by user")
	logger.Info("SmartPipeX simulator stopped")
}

// -----------------------------------------------------------------------------
// Helpers & Flags
// -----------------------------------------------------------------------------

// parseFlags resolves configuration with precedence
// flag > environment > config file > defaults.
func parseFlags() *config.Config {
	showVersion := flag.Bool("version", false, "Show version and exit")
	cfgPath := flag.String("config", getEnv("SMARTPIPEX_CONFIG", ""), "Path to YAML config file")

	deviceID := flag.String("device-id", getEnv("SMARTPIPEX_DEVICE_ID", ""), "Device identifier")
	ingestURL := flag.String("ingest-url", getEnv("SMARTPIPEX_INGEST_URL", ""), "Ingest API URL")
	baseFlow := flag.Float64("base-flow", 0, "Base flow rate in L/min")
	sendIntervalStr := flag.String("send-interval", getEnv("SMARTPIPEX_SEND_INTERVAL", ""), "Interval between sends (e.g. 3s)")
	retryStrategy := flag.String("retry-strategy", getEnv("SMARTPIPEX_RETRY_STRATEGY", ""), "Retry strategy: fixed, exponential or jittered")
	retryDelayStr := flag.String("retry-delay", getEnv("SMARTPIPEX_RETRY_DELAY", ""), "Base retry delay (e.g. 10s)")
	mqttURL := flag.String("mqtt-url", getEnv("SMARTPIPEX_MQTT_URL", ""), "MQTT URL for the optional mirror")
	metricsAddr := flag.String("metrics-addr", getEnv("SMARTPIPEX_METRICS_ADDR", ""), "Prometheus listen address (e.g. :9100)")
	verbose := flag.Bool("verbose", getEnv("SMARTPIPEX_VERBOSE", "false") == "true", "Verbose logging")

	flag.Parse()

	if *showVersion {
		fmt.Printf("smartpipex-sim %s\n", version)
		os.Exit(0)
	}

	var cfg *config.Config
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "smartpipex-sim: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
	}

	if *deviceID != "" {
		cfg.DeviceID = *deviceID
	}
	if *ingestURL != "" {
		cfg.IngestURL = *ingestURL
	}
	if *baseFlow > 0 {
		cfg.BaseFlow = *baseFlow
	}
	if *retryStrategy != "" {
		cfg.RetryStrategy = *retryStrategy
	}
	if *mqttURL != "" {
		cfg.MQTTUrl = *mqttURL
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *verbose {
		cfg.Verbose = true
	}

	// Duration overrides accept either a duration string or bare seconds
	if secs := parseSeconds(*sendIntervalStr); secs > 0 {
		cfg.SendInterval = secs
	}
	if secs := parseSeconds(*retryDelayStr); secs > 0 {
		cfg.RetryDelay = secs
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "smartpipex-sim: %v\n", err)
		os.Exit(1)
	}

	return cfg
}

// parseSeconds converts "3s"-style durations or bare integers to whole
// seconds; 0 means not set or unusable.
func parseSeconds(s string) int {
	if s == "" {
		return 0
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return int(d / time.Second)
	}
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return 0
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func setupLogger(verbose bool) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}
