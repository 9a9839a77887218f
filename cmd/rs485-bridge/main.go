package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solarbridge/fleet/internal/bridges/rs485"
	"github.com/solarbridge/fleet/internal/infrastructure/config"
	"github.com/solarbridge/fleet/internal/infrastructure/logging"
	"github.com/solarbridge/fleet/internal/infrastructure/mqtt"
	"github.com/solarbridge/fleet/internal/telemetry"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// staleTimeoutFactor bounds how many missed poll cycles the Supervisor
// tolerates before marking the stack offline, since the RS485 bridge
// has no dedicated stale-timeout config field of its own (it's a
// request/response bus, not a push bus, so "stale" is naturally
// expressed relative to the poll period).
const staleTimeoutFactor = 3

func main() {
	configPath := flag.String("config", "configs/rs485-bridge.yaml", "path to bridge config file")
	flag.Parse()

	fmt.Printf("solarbridge rs485-bridge %s (%s) built %s\n", version, commit, date)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Logging, version).With("bridge", "rs485")

	topics := mqtt.Topics{Prefix: fmt.Sprintf("%s/rs485", cfg.Site.ID), DiscoveryPrefix: cfg.MQTT.DiscoveryPrefix}
	statusTopic := topics.Status()

	client, err := mqtt.Connect(cfg.MQTT, statusTopic, "offline")
	if err != nil {
		return fmt.Errorf("connecting to MQTT broker: %w", err)
	}
	defer client.Close()

	publisher := telemetry.NewPublisher(client, byte(cfg.MQTT.QoS))

	device := telemetry.Device{
		Identifiers:  []string{cfg.Bridges.RS485.DeviceID},
		Manufacturer: "Pylontech",
		Model:        "US2000-profile RS485 stack",
		Name:         "Battery Stack (RS485)",
	}

	descriptors := rs485.StackDescriptors()
	for i := 0; i < cfg.Bridges.RS485.NumModules; i++ {
		descriptors = append(descriptors, rs485.ModuleDescriptors(i)...)
	}
	if err := telemetry.ValidateTable(descriptors); err != nil {
		return fmt.Errorf("validating sensor table: %w", err)
	}

	announcer := telemetry.NewAnnouncer(client, byte(cfg.MQTT.QoS), cfg.Bridges.RS485.DeviceID, topics.Prefix, topics.DiscoveryPrefix, statusTopic, device, descriptors)
	client.SetOnConnect(func() {
		if err := announcer.Announce(); err != nil {
			logger.Error("re-announce after reconnect failed", "error", err)
		}
	})
	if err := announcer.Announce(); err != nil {
		return fmt.Errorf("initial discovery announce: %w", err)
	}

	pollPeriod := time.Duration(cfg.Bridges.RS485.PollPeriodS) * time.Second
	staleTimeout := pollPeriod * staleTimeoutFactor
	supervisor := telemetry.NewSupervisor(publisher, statusTopic, staleTimeout, logger)

	var port *rs485.Port
	err = supervisor.RetryUntilOpen(ctx, func() error {
		p, openErr := rs485.OpenPort(cfg.Bridges.RS485.Port, cfg.Bridges.RS485.BaudRate)
		if openErr != nil {
			return openErr
		}
		port = p
		return nil
	})
	if err != nil {
		return fmt.Errorf("opening serial port: %w", err)
	}
	defer port.Close()

	frameSignal := make(chan struct{}, 1)
	poller := rs485.NewPoller(port, cfg.Bridges.RS485.NumModules, publisher, supervisor, topics, logger, pollPeriod, frameSignal)
	go poller.Run(ctx)

	supervisor.Run(ctx, frameSignal)

	logger.Info("shutdown signal received")
	supervisor.Shutdown()
	return nil
}
