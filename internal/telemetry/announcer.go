package telemetry

import (
	"encoding/json"
	"fmt"
)

// Device identifies the single logical physical device a bridge's sensors
// belong to: multiple sensors from one bridge share one identifier so
// the consumer groups them.
type Device struct {
	Identifiers  []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name"`
}

// discoveryDoc is the retained JSON document published per sensor. Field
// presence mirrors the descriptor: zero-value metadata fields are omitted
// rather than published as empty strings.
type discoveryDoc struct {
	Name                      string  `json:"name"`
	StateTopic                string  `json:"state_topic"`
	UniqueID                  string  `json:"unique_id"`
	AvailabilityTopic         string  `json:"availability_topic"`
	UnitOfMeasurement         string  `json:"unit_of_measurement,omitempty"`
	DeviceClass               string  `json:"device_class,omitempty"`
	StateClass                string  `json:"state_class,omitempty"`
	Icon                      string  `json:"icon,omitempty"`
	SuggestedDisplayPrecision *int    `json:"suggested_display_precision,omitempty"`
	PayloadOn                 string  `json:"payload_on,omitempty"`
	PayloadOff                string  `json:"payload_off,omitempty"`
	Device                    Device  `json:"device"`
}

// Announcer emits retained Home-Assistant-style discovery metadata
// describing every sensor a bridge exposes. It is re-invoked on every
// MQTT (re)connect, since a broker restart can clear retained messages.
type Announcer struct {
	client          MQTTClient
	qos             byte
	deviceID        string
	statePrefix     string
	discoveryPrefix string
	statusTopic     string
	device          Device
	descriptors     []SensorDescriptor
}

// NewAnnouncer builds an Announcer for one bridge. statePrefix is the base
// for state topics (e.g. "solarbridge/modbus"); discoveryPrefix is the HA
// discovery root (e.g. "homeassistant"); statusTopic is the bridge's
// availability topic.
func NewAnnouncer(client MQTTClient, qos byte, deviceID, statePrefix, discoveryPrefix, statusTopic string, device Device, descriptors []SensorDescriptor) *Announcer {
	return &Announcer{
		client:          client,
		qos:             qos,
		deviceID:        deviceID,
		statePrefix:     statePrefix,
		discoveryPrefix: discoveryPrefix,
		statusTopic:     statusTopic,
		device:          device,
		descriptors:     descriptors,
	}
}

// Announce publishes one retained discovery document per sensor, then a
// retained "online" availability message. Called at startup and from
// the MQTT client's OnConnect callback.
func (a *Announcer) Announce() error {
	for _, d := range a.descriptors {
		doc := a.buildDoc(d)
		payload, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("telemetry: marshal discovery doc for %s: %w", d.Name, err)
		}

		topic := fmt.Sprintf("%s/%s/%s/%s/config", a.discoveryPrefix, d.EntityKind, a.deviceID, d.Name)
		if err := a.client.Publish(topic, payload, a.qos, true); err != nil {
			return fmt.Errorf("telemetry: publish discovery doc for %s: %w", d.Name, err)
		}
	}

	return a.client.Publish(a.statusTopic, []byte("online"), a.qos, true)
}

func (a *Announcer) buildDoc(d SensorDescriptor) discoveryDoc {
	stateTopic := fmt.Sprintf("%s/%s", a.statePrefix, d.Name)
	if d.Group != "" {
		stateTopic = fmt.Sprintf("%s/%s/%s", a.statePrefix, d.Group, d.Name)
	}

	doc := discoveryDoc{
		Name:                      d.Name,
		StateTopic:                stateTopic,
		UniqueID:                  d.UniqueID(a.deviceID),
		AvailabilityTopic:         a.statusTopic,
		UnitOfMeasurement:         d.Unit,
		DeviceClass:               string(d.DeviceClass),
		StateClass:                string(d.StateClass),
		Icon:                      d.Icon,
		SuggestedDisplayPrecision: d.Precision,
		Device:                    a.device,
	}

	if d.EntityKind == EntityKindBinarySensor {
		doc.PayloadOn = "1"
		doc.PayloadOff = "0"
	}

	return doc
}
