package mqtt

import "fmt"

// Topic scheme for the telemetry bridge fleet.
//
// Each bridge publishes under its own prefix, e.g. "solarbridge/rs485".
// Sensor topics are flat or grouped:
//
//	<prefix>/status                 retained online/offline availability
//	<prefix>/<sensor_name>           scalar state
//	<prefix>/<group>/<sensor_name>   grouped reading (stack/, module0/, limit/, ext/)
//
// Discovery documents live under a separate, Home-Assistant-compatible
// root so a single broker can host this fleet alongside other
// MQTT-discovery consumers.
type Topics struct {
	// Prefix is the bridge's own topic root, e.g. "solarbridge/rs485".
	Prefix string

	// DiscoveryPrefix is the discovery root, e.g. "homeassistant".
	DiscoveryPrefix string
}

// Status returns the bridge's retained availability topic.
//
// Example: solarbridge/rs485/status
func (t Topics) Status() string {
	return fmt.Sprintf("%s/status", t.Prefix)
}

// State returns the topic for a flat (ungrouped) sensor reading.
//
// Example: solarbridge/modbus/pv1_power
func (t Topics) State(name string) string {
	return fmt.Sprintf("%s/%s", t.Prefix, name)
}

// GroupedState returns the topic for a grouped sensor reading. The RS485
// bridge groups each module's readings as "module<N>" (from 0) and
// publishes no per-cell topics.
//
// Example: solarbridge/rs485/module0/voltage
func (t Topics) GroupedState(group, name string) string {
	return fmt.Sprintf("%s/%s/%s", t.Prefix, group, name)
}

// DiscoveryConfig returns the retained discovery-document topic for one
// sensor.
//
// Example: homeassistant/sensor/inverter/pv1_power/config
func (t Topics) DiscoveryConfig(entityKind, deviceID, name string) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", t.DiscoveryPrefix, entityKind, deviceID, name)
}
