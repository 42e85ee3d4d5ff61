package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/senseo-controller/db"
	"github.com/thatsimonsguy/senseo-controller/internal/api"
	"github.com/thatsimonsguy/senseo-controller/internal/config"
	"github.com/thatsimonsguy/senseo-controller/internal/datadog"
	"github.com/thatsimonsguy/senseo-controller/internal/gpio"
	"github.com/thatsimonsguy/senseo-controller/internal/logging"
	"github.com/thatsimonsguy/senseo-controller/internal/monitor"
	"github.com/thatsimonsguy/senseo-controller/internal/mqtt"
	"github.com/thatsimonsguy/senseo-controller/internal/notifications"
	"github.com/thatsimonsguy/senseo-controller/internal/senseo"
	"github.com/thatsimonsguy/senseo-controller/system/shutdown"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "senseo-api: %v\n", err)
		os.Exit(2)
	}

	logFile, err := logging.Init(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "senseo-api: %v\n", err)
		os.Exit(1)
	}

	log.Info().
		Str("config_file", cfg.ConfigFile).
		Str("db", cfg.DBPath).
		Str("driver", cfg.Driver).
		Msg("Starting Senseo API")

	dbConn, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open pin registry")
	}

	pins, err := db.SyncPins(dbConn, cfg.Pins())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to sync pin registry")
	}

	if cfg.SafeMode {
		log.Warn().Msg("SAFE MODE ENABLED: button presses are logged but not driven")
	}
	driver, err := gpio.Open(cfg.Driver, cfg.GPIOChip, cfg.SafeMode)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Driver).Msg("Failed to open GPIO driver")
	}

	machine, err := senseo.New(pins, driver,
		senseo.WithPoller(senseo.Poller{
			Attempts: cfg.PollAttempts,
			Interval: time.Duration(cfg.PollIntervalMs) * time.Millisecond,
		}),
		senseo.WithPressDuration(time.Duration(cfg.PressMs)*time.Millisecond),
	)
	if err != nil {
		shutdown.ShutdownWithError(err, "Failed to set up coffee machine", driver, dbConn, logFile)
		return
	}

	datadog.InitMetrics(cfg)

	var publisher mqtt.Publisher = mqtt.NoopPublisher{}
	if cfg.MQTTBroker != "" {
		client, err := mqtt.NewRealPublisher(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopicPrefix)
		if err != nil {
			log.Warn().Err(err).Str("broker", cfg.MQTTBroker).Msg("MQTT unavailable, continuing without it")
		} else {
			log.Info().
				Str("broker", cfg.MQTTBroker).
				Str("prefix", cfg.MQTTTopicPrefix).
				Bool("connected", client.IsConnected()).
				Msg("MQTT publisher connected")
			publisher = client
		}
	}

	var notifier api.Notifier
	if n := notifications.New(cfg.NtfyTopic); n != nil {
		notifier = n
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	monitorDone := monitor.Start(ctx, machine, publisher, time.Duration(cfg.MonitorIntervalSeconds)*time.Second)

	server := api.NewServer(machine, publisher, notifier)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(cfg.Addr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			cancel()
			<-monitorDone
			shutdown.ShutdownWithError(err, "REST API server failed", machine, publisher, dbConn, logFile)
			return
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("REST API server did not shut down cleanly")
	}
	<-monitorDone

	shutdown.Shutdown(machine, publisher, dbConn, logFile)
}
