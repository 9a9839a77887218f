// Command can-bridge decodes the Pylontech-profile CAN BMS bus and
// publishes its readings to MQTT with Home-Assistant-style discovery.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solarbridge/fleet/internal/bridges/can"
	"github.com/solarbridge/fleet/internal/infrastructure/config"
	"github.com/solarbridge/fleet/internal/infrastructure/logging"
	"github.com/solarbridge/fleet/internal/infrastructure/mqtt"
	"github.com/solarbridge/fleet/internal/telemetry"
)

// Version information, set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	configPath := flag.String("config", "configs/can-bridge.yaml", "path to bridge config file")
	flag.Parse()

	fmt.Printf("solarbridge can-bridge %s (%s) built %s\n", version, commit, date)

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
		return fmt.Errorf("can-bridge: load config: %w", err)
	}

	logger := logging.New(cfg.Logging, version).With("bridge", "can")
	logger.Info("starting can-bridge", "interface", cfg.Bridges.CAN.Interface)

	topics := mqtt.Topics{
		Prefix:          fmt.Sprintf("%s/can", cfg.Site.ID),
		DiscoveryPrefix: cfg.MQTT.DiscoveryPrefix,
	}
	statusTopic := topics.Status()

	client, err := mqtt.Connect(cfg.MQTT, statusTopic, "offline")
	if err != nil {
		return fmt.Errorf("can-bridge: connect mqtt: %w", err)
	}
	defer client.Close()

	publisher := telemetry.NewPublisher(client, byte(cfg.MQTT.QoS))

	device := telemetry.Device{
		Identifiers:  []string{cfg.Bridges.CAN.DeviceID},
		Manufacturer: "Shoto",
		Model:        "Pylontech-profile CAN",
		Name:         "Battery BMS (CAN)",
	}
	announcer := telemetry.NewAnnouncer(client, byte(cfg.MQTT.QoS), cfg.Bridges.CAN.DeviceID, topics.Prefix, topics.DiscoveryPrefix, statusTopic, device, can.Descriptors())

	client.SetOnConnect(func() {
		if err := announcer.Announce(); err != nil {
			logger.Error("discovery announce failed", "error", err)
		}
	})
	if err := announcer.Announce(); err != nil {
		return fmt.Errorf("can-bridge: initial announce: %w", err)
	}

	staleTimeout := time.Duration(cfg.Bridges.CAN.StaleTimeoutS) * time.Second
	supervisor := telemetry.NewSupervisor(publisher, statusTopic, staleTimeout, logger)

	frameSignal := make(chan struct{}, 1)

	var bus *can.Bus
	err = supervisor.RetryUntilOpen(ctx, func() error {
		b, openErr := can.Open(cfg.Bridges.CAN.Interface)
		if openErr != nil {
			return openErr
		}
		bus = b
		return nil
	})
	if err != nil {
		return fmt.Errorf("can-bridge: open bus: %w", err)
	}
	defer bus.Close()

	poller := can.NewPoller(bus, publisher, supervisor, topics, logger, frameSignal)

	go poller.Run(ctx)
	go func() {
		if err := bus.Run(ctx); err != nil {
			logger.Error("can bus connection failed", "error", err)
		}
	}()

	supervisor.Run(ctx, frameSignal)

	logger.Info("shutdown signal received")
	supervisor.Shutdown()

	return nil
}
