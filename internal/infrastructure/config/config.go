package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure shared by all three bridge
// daemons. Each daemon loads the same shape but only its own Bridges
// sub-section is consulted; the others are ignored.
//
// All configuration is loaded from YAML and can be overridden by
// environment variables.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Logging LoggingConfig `yaml:"logging"`
	Bridges BridgesConfig `yaml:"bridges"`
}

// SiteConfig identifies the installation this fleet is attached to. Its
// ID is the root of every bridge's topic prefix ("<id>/modbus",
// "<id>/can", "<id>/rs485"); device identifiers come from each bridge's
// own DeviceID.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
	// DiscoveryPrefix is the Home-Assistant-style discovery topic root.
	DiscoveryPrefix string `yaml:"discovery_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// BridgesConfig groups the per-bus settings. Exactly one of these applies
// to any given daemon process, selected by which cmd/ binary is running.
type BridgesConfig struct {
	Modbus ModbusConfig `yaml:"modbus"`
	CAN    CANConfig    `yaml:"can"`
	RS485  RS485Config  `yaml:"rs485"`
}

// ModbusConfig contains Modbus-TCP bridge settings.
type ModbusConfig struct {
	DeviceID     string `yaml:"device_id"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	UnitID       byte   `yaml:"unit_id"`
	FastPeriodMS int    `yaml:"fast_period_ms"`
	// Legacy-identity override, preserved for historical continuity with
	// a predecessor Solarman-based collector.
	LegacyPrefix string `yaml:"legacy_prefix"`
	LegacySerial string `yaml:"legacy_serial"`
}

// CANConfig contains SocketCAN BMS bridge settings.
type CANConfig struct {
	DeviceID      string `yaml:"device_id"`
	Interface     string `yaml:"interface"`
	StaleTimeoutS int    `yaml:"stale_timeout_s"`
}

// RS485Config contains Pylontech RS485 bridge settings.
type RS485Config struct {
	DeviceID    string `yaml:"device_id"`
	Port        string `yaml:"port"`
	BaudRate    int    `yaml:"baud_rate"`
	Address     int    `yaml:"address"`
	NumModules  int    `yaml:"num_modules"`
	PollPeriodS int    `yaml:"poll_period_s"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SOLARBRIDGE_SECTION_KEY
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "Solar Bridge Fleet",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "solarbridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			DiscoveryPrefix: "homeassistant",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Bridges: BridgesConfig{
			Modbus: ModbusConfig{
				DeviceID:     "inverter",
				Host:         "localhost",
				Port:         502,
				UnitID:       1,
				FastPeriodMS: 10_000,
			},
			CAN: CANConfig{
				DeviceID:      "bms",
				Interface:     "can0",
				StaleTimeoutS: 30,
			},
			RS485: RS485Config{
				DeviceID:    "battery-stack",
				Port:        "/dev/ttyUSB0",
				BaudRate:    9600,
				Address:     2,
				NumModules:  3,
				PollPeriodS: 30,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables follow the pattern
// SOLARBRIDGE_SECTION_KEY.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SOLARBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SOLARBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SOLARBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("SOLARBRIDGE_MODBUS_HOST"); v != "" {
		cfg.Bridges.Modbus.Host = v
	}
	if v := os.Getenv("SOLARBRIDGE_MODBUS_LEGACY_PREFIX"); v != "" {
		cfg.Bridges.Modbus.LegacyPrefix = v
	}
	if v := os.Getenv("SOLARBRIDGE_MODBUS_LEGACY_SERIAL"); v != "" {
		cfg.Bridges.Modbus.LegacySerial = v
	}

	if v := os.Getenv("SOLARBRIDGE_CAN_INTERFACE"); v != "" {
		cfg.Bridges.CAN.Interface = v
	}

	if v := os.Getenv("SOLARBRIDGE_RS485_PORT"); v != "" {
		cfg.Bridges.RS485.Port = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.DiscoveryPrefix == "" {
		errs = append(errs, "mqtt.discovery_prefix is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ReconnectDelays returns the reconnect initial/max delays as Durations.
func (c *Config) ReconnectDelays() (time.Duration, time.Duration) {
	return time.Duration(c.MQTT.Reconnect.InitialDelay) * time.Second,
		time.Duration(c.MQTT.Reconnect.MaxDelay) * time.Second
}
