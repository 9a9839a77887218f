package rs485

import (
	"strconv"

	"github.com/solarbridge/fleet/internal/telemetry"
)

func precision(n int) *int { return &n }

// StackDescriptors is the static sensor table for the stack-level
// rollup published under the "stack" topic group, ported from
// pylon_rs485_monitor.py's read_all_batteries stack summary plus a
// balancing-cell-list extension.
func StackDescriptors() []telemetry.SensorDescriptor {
	return []telemetry.SensorDescriptor{
		{Name: "soc", Unit: "%", DeviceClass: telemetry.DeviceClassBattery, StateClass: telemetry.StateClassMeasurement, Icon: "mdi:battery", Precision: precision(0), Group: "stack", EntityKind: telemetry.EntityKindSensor},
		{Name: "voltage", Unit: "V", DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, Precision: precision(2), Group: "stack", EntityKind: telemetry.EntityKindSensor},
		{Name: "current", Unit: "A", DeviceClass: telemetry.DeviceClassCurrent, StateClass: telemetry.StateClassMeasurement, Precision: precision(2), Group: "stack", EntityKind: telemetry.EntityKindSensor},
		{Name: "remaining_ah", Unit: "Ah", StateClass: telemetry.StateClassMeasurement, Icon: "mdi:battery-charging", Precision: precision(2), Group: "stack", EntityKind: telemetry.EntityKindSensor},
		{Name: "total_ah", Unit: "Ah", StateClass: telemetry.StateClassMeasurement, Icon: "mdi:battery-charging-100", Precision: precision(2), Group: "stack", EntityKind: telemetry.EntityKindSensor},

		{Name: "cell_v_min", Unit: "V", DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, Precision: precision(3), Group: "stack", EntityKind: telemetry.EntityKindSensor},
		{Name: "cell_v_max", Unit: "V", DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, Precision: precision(3), Group: "stack", EntityKind: telemetry.EntityKindSensor},
		{Name: "cell_v_delta_mv", Unit: "mV", StateClass: telemetry.StateClassMeasurement, Icon: "mdi:chart-bell-curve-cumulative", Precision: precision(1), Group: "stack", EntityKind: telemetry.EntityKindSensor},

		{Name: "temp_min", Unit: "°C", DeviceClass: telemetry.DeviceClassTemperature, StateClass: telemetry.StateClassMeasurement, Precision: precision(1), Group: "stack", EntityKind: telemetry.EntityKindSensor},
		{Name: "temp_max", Unit: "°C", DeviceClass: telemetry.DeviceClassTemperature, StateClass: telemetry.StateClassMeasurement, Precision: precision(1), Group: "stack", EntityKind: telemetry.EntityKindSensor},

		{Name: "balancing_count", StateClass: telemetry.StateClassMeasurement, Icon: "mdi:scale-balance", Group: "stack", EntityKind: telemetry.EntityKindSensor},
		{Name: "balancing_cells", Icon: "mdi:scale-balance", Group: "stack", EntityKind: telemetry.EntityKindSensor},

		{Name: "alarm", Icon: "mdi:alert", Group: "stack", EntityKind: telemetry.EntityKindBinarySensor, DeviceClass: telemetry.DeviceClassProblem},
		{Name: "warning", Icon: "mdi:alert-outline", Group: "stack", EntityKind: telemetry.EntityKindBinarySensor},
	}
}

// ModuleDescriptors is the static sensor table for one module's own
// readings, grounded on the same per-battery fields
// read_all_batteries attaches to each list entry before the rollup.
func ModuleDescriptors(moduleIndex int) []telemetry.SensorDescriptor {
	group := moduleGroup(moduleIndex)
	return []telemetry.SensorDescriptor{
		{Name: "soc", Unit: "%", DeviceClass: telemetry.DeviceClassBattery, StateClass: telemetry.StateClassMeasurement, Icon: "mdi:battery", Precision: precision(0), Group: group, EntityKind: telemetry.EntityKindSensor},
		{Name: "voltage", Unit: "V", DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, Precision: precision(2), Group: group, EntityKind: telemetry.EntityKindSensor},
		{Name: "current", Unit: "A", DeviceClass: telemetry.DeviceClassCurrent, StateClass: telemetry.StateClassMeasurement, Precision: precision(2), Group: group, EntityKind: telemetry.EntityKindSensor},
		{Name: "cell_v_min", Unit: "V", DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, Precision: precision(3), Group: group, EntityKind: telemetry.EntityKindSensor},
		{Name: "cell_v_max", Unit: "V", DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, Precision: precision(3), Group: group, EntityKind: telemetry.EntityKindSensor},
		{Name: "cell_v_delta_mv", Unit: "mV", StateClass: telemetry.StateClassMeasurement, Precision: precision(1), Group: group, EntityKind: telemetry.EntityKindSensor},
		{Name: "cycles", StateClass: telemetry.StateClassTotalIncreasing, Icon: "mdi:counter", Group: group, EntityKind: telemetry.EntityKindSensor},
		{Name: "alarm", Icon: "mdi:alert", Group: group, EntityKind: telemetry.EntityKindBinarySensor, DeviceClass: telemetry.DeviceClassProblem},
		{Name: "warning", Icon: "mdi:alert-outline", Group: group, EntityKind: telemetry.EntityKindBinarySensor},
	}
}

func moduleGroup(moduleIndex int) string {
	return "module" + strconv.Itoa(moduleIndex)
}
