package modbus

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/solarbridge/fleet/internal/infrastructure/config"
	"github.com/solarbridge/fleet/internal/infrastructure/logging"
	"github.com/solarbridge/fleet/internal/infrastructure/mqtt"
	"github.com/solarbridge/fleet/internal/telemetry"
)

// fakeModbusClient answers every read with a fixed word value,
// regardless of address, so Poller tests don't need a real TCP socket.
type fakeModbusClient struct {
	word       uint16
	failOnAddr map[uint16]bool
}

func (f *fakeModbusClient) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	if f.failOnAddr[address] {
		return nil, errTest
	}
	buf := make([]byte, quantity*2)
	for i := uint16(0); i < quantity; i++ {
		binary.BigEndian.PutUint16(buf[i*2:i*2+2], f.word)
	}
	return buf, nil
}

var errTest = &testError{"simulated read failure"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

type captureClient struct {
	published []string
}

func (c *captureClient) Publish(topic string, payload []byte, qos byte, retain bool) error {
	c.published = append(c.published, topic)
	return nil
}

func TestGroupsDue_SixTickSuperCycle(t *testing.T) {
	if len(groupsDue(0)) != 3 {
		t.Errorf("pollCount=0 should poll all 3 groups, got %d", len(groupsDue(0)))
	}
	if len(groupsDue(3)) != 2 {
		t.Errorf("pollCount=3 should poll 2 groups, got %d", len(groupsDue(3)))
	}
	if len(groupsDue(1)) != 1 {
		t.Errorf("pollCount=1 should poll 1 group, got %d", len(groupsDue(1)))
	}
	if len(groupsDue(6)) != 3 {
		t.Errorf("pollCount=6 should wrap back to all 3 groups, got %d", len(groupsDue(6)))
	}
}

func TestPoller_Tick_PublishesAndSignalsOnSuccess(t *testing.T) {
	client := &fakeModbusClient{word: 100}
	mqttClient := &captureClient{}
	publisher := telemetry.NewPublisher(mqttClient, 1)
	logger := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	supervisor := telemetry.NewSupervisor(publisher, "solarbridge/modbus/status", time.Minute, logger)
	topics := mqtt.Topics{Prefix: "solarbridge/modbus", DiscoveryPrefix: "homeassistant"}
	frameSignal := make(chan struct{}, 1)

	poller := NewPoller(client, publisher, supervisor, topics, logger, time.Hour, frameSignal)
	poller.tick(context.Background())

	if len(mqttClient.published) == 0 {
		t.Error("expected at least one publish on a successful tick")
	}
	select {
	case <-frameSignal:
	default:
		t.Error("expected tick to signal the frame channel on success")
	}
}

func TestPoller_Tick_NoSignalWhenAllReadsFail(t *testing.T) {
	failAll := map[uint16]bool{}
	for _, r := range Registers {
		failAll[r.Address] = true
	}
	client := &fakeModbusClient{word: 0, failOnAddr: failAll}
	mqttClient := &captureClient{}
	publisher := telemetry.NewPublisher(mqttClient, 1)
	logger := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	supervisor := telemetry.NewSupervisor(publisher, "solarbridge/modbus/status", time.Minute, logger)
	topics := mqtt.Topics{Prefix: "solarbridge/modbus", DiscoveryPrefix: "homeassistant"}
	frameSignal := make(chan struct{}, 1)

	poller := NewPoller(client, publisher, supervisor, topics, logger, time.Hour, frameSignal)
	poller.tick(context.Background())

	if len(mqttClient.published) != 0 {
		t.Errorf("expected no publishes when every read fails, got %d", len(mqttClient.published))
	}
	select {
	case <-frameSignal:
		t.Error("expected no frame signal when every read failed")
	default:
	}
}
