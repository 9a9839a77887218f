//go:build integration

package mqtt

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/solarbridge/fleet/internal/infrastructure/config"
)

// Integration tests for MQTT connectivity.
// These tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func integrationConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "solarbridge-integration-test",
			TLS:      false,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// TestIntegration_CallbacksRegistered verifies callbacks can be set and cleared.
func TestIntegration_CallbacksRegistered(t *testing.T) {
	cfg := integrationConfig()
	cfg.Broker.ClientID = "solarbridge-int-callbacks"

	client, err := Connect(cfg, "solarbridge/int/status", "offline")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	var connectCount int32
	var disconnectCount int32

	client.SetOnConnect(func() {
		atomic.AddInt32(&connectCount, 1)
	})

	client.SetOnDisconnect(func(_ error) {
		atomic.AddInt32(&disconnectCount, 1)
	})

	client.SetOnConnect(nil)
	client.SetOnDisconnect(nil)
}

// TestIntegration_AvailabilityRoundtrip publishes a retained availability
// message and confirms the broker accepts it.
func TestIntegration_AvailabilityRoundtrip(t *testing.T) {
	cfg := integrationConfig()
	cfg.Broker.ClientID = "solarbridge-int-pub"

	client, err := Connect(cfg, "solarbridge/int/status", "offline")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if err := client.PublishRetained("solarbridge/int/status", []byte("online")); err != nil {
		t.Fatalf("PublishRetained() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)
}
