package can

import "github.com/solarbridge/fleet/internal/telemetry"

func precision(n int) *int { return &n }

// Descriptors is the static sensor table for the CAN bridge, ported from
// pylon_can2mqtt.py's publish_discovery sensor list plus the flags topic.
func Descriptors() []telemetry.SensorDescriptor {
	return []telemetry.SensorDescriptor{
		{Name: "soc", Unit: "%", DeviceClass: telemetry.DeviceClassBattery, StateClass: telemetry.StateClassMeasurement, Icon: "mdi:battery", Precision: precision(0), EntityKind: telemetry.EntityKindSensor},
		{Name: "soh", Unit: "%", StateClass: telemetry.StateClassMeasurement, Icon: "mdi:battery-heart", Precision: precision(0), EntityKind: telemetry.EntityKindSensor},

		{Name: "v_charge_max", Unit: "V", DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, Precision: precision(1), Group: "limit", EntityKind: telemetry.EntityKindSensor},
		{Name: "v_low", Unit: "V", DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, Precision: precision(1), Group: "limit", EntityKind: telemetry.EntityKindSensor},
		{Name: "i_charge", Unit: "A", DeviceClass: telemetry.DeviceClassCurrent, StateClass: telemetry.StateClassMeasurement, Precision: precision(1), Group: "limit", EntityKind: telemetry.EntityKindSensor},
		{Name: "i_discharge", Unit: "A", DeviceClass: telemetry.DeviceClassCurrent, StateClass: telemetry.StateClassMeasurement, Precision: precision(1), Group: "limit", EntityKind: telemetry.EntityKindSensor},

		{Name: "cell_v_min", Unit: "V", DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, Precision: precision(3), Group: "ext", EntityKind: telemetry.EntityKindSensor},
		{Name: "cell_v_max", Unit: "V", DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, Precision: precision(3), Group: "ext", EntityKind: telemetry.EntityKindSensor},
		{Name: "cell_v_delta", Unit: "V", StateClass: telemetry.StateClassMeasurement, Icon: "mdi:chart-bell-curve-cumulative", Precision: precision(3), Group: "ext", EntityKind: telemetry.EntityKindSensor},

		{Name: "temp_min", Unit: "°C", DeviceClass: telemetry.DeviceClassTemperature, StateClass: telemetry.StateClassMeasurement, Precision: precision(1), Group: "ext", EntityKind: telemetry.EntityKindSensor},
		{Name: "temp_max", Unit: "°C", DeviceClass: telemetry.DeviceClassTemperature, StateClass: telemetry.StateClassMeasurement, Precision: precision(1), Group: "ext", EntityKind: telemetry.EntityKindSensor},

		{Name: "flags", Icon: "mdi:flag", EntityKind: telemetry.EntityKindSensor},
	}
}
