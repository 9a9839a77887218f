package rs485

import (
	"context"
	"testing"
	"time"

	"github.com/solarbridge/fleet/internal/infrastructure/config"
	"github.com/solarbridge/fleet/internal/infrastructure/logging"
	"github.com/solarbridge/fleet/internal/infrastructure/mqtt"
	"github.com/solarbridge/fleet/internal/telemetry"
)

// stackTransport answers every request with a fixed analog/alarm pair
// per address, so Poller tests exercise the full per-module + stack
// publish path without a real serial port.
type stackTransport struct {
	analog map[byte][]byte
	alarm  map[byte][]byte
}

func (s *stackTransport) Do(request []byte) ([]byte, error) {
	req, err := decodeRequestForTest(request)
	if err != nil {
		return nil, err
	}
	switch req.cid2 {
	case CID2GetAnalogValues:
		if resp, ok := s.analog[req.addr]; ok {
			return resp, nil
		}
	case CID2GetAlarmInfo:
		if resp, ok := s.alarm[req.addr]; ok {
			return resp, nil
		}
	}
	return nil, ErrNonSuccessRTN
}

func newTestPublisher() (*telemetry.Publisher, *captureClient) {
	c := &captureClient{}
	return telemetry.NewPublisher(c, 1), c
}

type captureClient struct {
	published []publishedMsg
}

type publishedMsg struct {
	topic   string
	payload string
}

func (c *captureClient) Publish(topic string, payload []byte, qos byte, retain bool) error {
	c.published = append(c.published, publishedMsg{topic: topic, payload: string(payload)})
	return nil
}

func buildAnalogResponse(t *testing.T, addr byte, numCells int, cellMv uint16) []byte {
	t.Helper()
	info := []byte{0x00, addr, byte(numCells)}
	for i := 0; i < numCells; i++ {
		info = append(info, byte(cellMv>>8), byte(cellMv))
	}
	return buildResponse(t, addr, CID2GetAnalogValues, 0x00, info)
}

func buildAlarmResponseNoAlarms(t *testing.T, addr byte) []byte {
	t.Helper()
	extended := [9]byte{}
	info := buildAlarmInfo([]byte{0, 0, 0, 0}, []byte{0, 0}, 0x00, 0x00, 0x00, 0x06, extended, OperatingStateIdle)
	return buildResponse(t, addr, CID2GetAlarmInfo, 0x00, info)
}

func TestPoller_PollOnce_PublishesStackAndModules(t *testing.T) {
	transport := &stackTransport{
		analog: map[byte][]byte{
			0: buildAnalogResponse(t, 0, 4, 3300),
			1: buildAnalogResponse(t, 1, 4, 3310),
		},
		alarm: map[byte][]byte{
			0: buildAlarmResponseNoAlarms(t, 0),
			1: buildAlarmResponseNoAlarms(t, 1),
		},
	}

	publisher, client := newTestPublisher()
	logger := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	supervisor := telemetry.NewSupervisor(publisher, "solarbridge/rs485/status", time.Minute, logger)
	topics := mqtt.Topics{Prefix: "solarbridge/rs485", DiscoveryPrefix: "homeassistant"}
	frameSignal := make(chan struct{}, 1)

	poller := NewPoller(transport, 2, publisher, supervisor, topics, logger, time.Hour, frameSignal)
	poller.pollOnce(context.Background())

	foundStackVoltage := false
	foundModuleVoltage := false
	for _, m := range client.published {
		if m.topic == "solarbridge/rs485/stack/voltage" {
			foundStackVoltage = true
		}
		if m.topic == "solarbridge/rs485/module0/voltage" {
			foundModuleVoltage = true
		}
	}
	if !foundStackVoltage {
		t.Error("expected a stack voltage publish")
	}
	if !foundModuleVoltage {
		t.Error("expected a module0 voltage publish")
	}

	select {
	case <-frameSignal:
	default:
		t.Error("expected pollOnce to signal the frame channel on a successful pass")
	}
}

func TestPoller_PollOnce_NoModulesRespond(t *testing.T) {
	transport := &stackTransport{analog: map[byte][]byte{}, alarm: map[byte][]byte{}}
	publisher, client := newTestPublisher()
	logger := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	supervisor := telemetry.NewSupervisor(publisher, "solarbridge/rs485/status", time.Minute, logger)
	topics := mqtt.Topics{Prefix: "solarbridge/rs485", DiscoveryPrefix: "homeassistant"}
	frameSignal := make(chan struct{}, 1)

	poller := NewPoller(transport, 2, publisher, supervisor, topics, logger, time.Hour, frameSignal)
	poller.pollOnce(context.Background())

	if len(client.published) != 0 {
		t.Errorf("expected no publishes when no modules respond, got %d", len(client.published))
	}
	select {
	case <-frameSignal:
		t.Error("expected no frame signal when no modules responded")
	default:
	}
}
