package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solarbridge/fleet/internal/bridges/modbus"
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

// staleTimeoutFactor mirrors the RS485 bridge's rule of thumb for
// deriving a liveness window from the poll cadence, since a Modbus-TCP
// bridge has no dedicated stale-timeout config field either (only the
// CAN bridge has one).
const staleTimeoutFactor = 3

const dialTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "configs/modbus-bridge.yaml", "path to bridge config file")
	flag.Parse()

	fmt.Printf("solarbridge modbus-bridge %s (%s) built %s\n", version, commit, date)

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

	logger := logging.New(cfg.Logging, version).With("bridge", "modbus")

	topics := mqtt.Topics{Prefix: fmt.Sprintf("%s/modbus", cfg.Site.ID), DiscoveryPrefix: cfg.MQTT.DiscoveryPrefix}
	statusTopic := topics.Status()

	client, err := mqtt.Connect(cfg.MQTT, statusTopic, "offline")
	if err != nil {
		return fmt.Errorf("connecting to MQTT broker: %w", err)
	}
	defer client.Close()

	publisher := telemetry.NewPublisher(client, byte(cfg.MQTT.QoS))

	device := telemetry.Device{
		Identifiers:  []string{cfg.Bridges.Modbus.DeviceID},
		Manufacturer: "Deye",
		Model:        "SUN-12K-SG04LP3-EU (Modbus-TCP)",
		Name:         "Inverter",
	}

	descriptors := modbus.Descriptors()
	modbus.ApplyLegacyIdentity(descriptors, cfg.Bridges.Modbus.LegacyPrefix, cfg.Bridges.Modbus.LegacySerial)
	if err := telemetry.ValidateTable(descriptors); err != nil {
		return fmt.Errorf("validating sensor table: %w", err)
	}

	announcer := telemetry.NewAnnouncer(client, byte(cfg.MQTT.QoS), cfg.Bridges.Modbus.DeviceID, topics.Prefix, topics.DiscoveryPrefix, statusTopic, device, descriptors)
	client.SetOnConnect(func() {
		if err := announcer.Announce(); err != nil {
			logger.Error("re-announce after reconnect failed", "error", err)
		}
	})
	if err := announcer.Announce(); err != nil {
		return fmt.Errorf("initial discovery announce: %w", err)
	}

	fastPeriod := time.Duration(cfg.Bridges.Modbus.FastPeriodMS) * time.Millisecond
	staleTimeout := fastPeriod * staleTimeoutFactor * 6 // three full 6-tick slow super-cycles
	supervisor := telemetry.NewSupervisor(publisher, statusTopic, staleTimeout, logger)

	var modbusClient modbus.Client
	var closer func() error
	err = supervisor.RetryUntilOpen(ctx, func() error {
		addr := fmt.Sprintf("%s:%d", cfg.Bridges.Modbus.Host, cfg.Bridges.Modbus.Port)
		c, h, dialErr := modbus.Dial(addr, cfg.Bridges.Modbus.UnitID, dialTimeout)
		if dialErr != nil {
			return dialErr
		}
		modbusClient = c
		closer = h.Close
		return nil
	})
	if err != nil {
		return fmt.Errorf("connecting to Modbus device: %w", err)
	}
	defer closer()

	frameSignal := make(chan struct{}, 1)
	poller := modbus.NewPoller(modbusClient, publisher, supervisor, topics, logger, fastPeriod, frameSignal)
	go poller.Run(ctx)

	supervisor.Run(ctx, frameSignal)

	logger.Info("shutdown signal received")
	supervisor.Shutdown()
	return nil
}
