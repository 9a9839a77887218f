// Package modbus polls a Deye-profile Modbus-TCP inverter, decoding its
// holding-register map into typed readings and rolling the scan groups
// (fast/normal/slow) into a tiered poll cycle.
package modbus

import "github.com/solarbridge/fleet/internal/telemetry"

// DataType selects how a register's raw 16-bit words are assembled and
// sign-extended, per deye_modbus2mqtt.py's Register.data_type.
type DataType int

const (
	DataTypeInt16 DataType = iota
	DataTypeUint16
	DataTypeInt32
	DataTypeUint32
)

// WordCount returns how many 16-bit Modbus registers this data type
// spans.
func (d DataType) WordCount() int {
	switch d {
	case DataTypeInt32, DataTypeUint32:
		return 2
	default:
		return 1
	}
}

// Register is a single Modbus holding-register definition: address,
// scaling, and the Home-Assistant discovery hints needed to publish it,
// ported field-for-field from deye_modbus2mqtt.py's Register dataclass.
type Register struct {
	Address  uint16
	Name     string
	Unit     string
	Scale    float64
	Offset   float64
	DataType DataType

	DeviceClass telemetry.DeviceClass
	StateClass  telemetry.StateClass
	Icon        string
	ScanGroup   telemetry.ScanGroup

	// LegacyUniqueID, if set, preserves a predecessor Solarman-based
	// collector's entity history.
	LegacyUniqueID string
}

// Descriptor converts a Register into the telemetry package's static
// sensor description used by the Announcer.
func (r Register) Descriptor() telemetry.SensorDescriptor {
	var precision *int
	switch {
	case r.Scale <= 0.01:
		p := 2
		precision = &p
	case r.Scale < 1:
		p := 1
		precision = &p
	}
	return telemetry.SensorDescriptor{
		Name:           r.Name,
		Unit:           r.Unit,
		DeviceClass:    r.DeviceClass,
		StateClass:     r.StateClass,
		Icon:           r.Icon,
		Precision:      precision,
		ScanGroup:      r.ScanGroup,
		EntityKind:     telemetry.EntityKindSensor,
		LegacyUniqueID: r.LegacyUniqueID,
	}
}

// Registers is the full Deye SG04LP3 (and compatible) holding-register
// map, ported from deye_modbus2mqtt.py's REGISTERS table.
var Registers = []Register{
	// Solar/PV
	{Address: 672, Name: "pv1_power", Unit: "W", Scale: 1, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassPower, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupFast, LegacyUniqueID: "deye-tcp-pv1-power"},
	{Address: 673, Name: "pv2_power", Unit: "W", Scale: 1, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassPower, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupFast, LegacyUniqueID: "deye-tcp-pv2-power"},
	{Address: 676, Name: "pv1_voltage", Unit: "V", Scale: 0.1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 678, Name: "pv2_voltage", Unit: "V", Scale: 0.1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 677, Name: "pv1_current", Unit: "A", Scale: 0.1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassCurrent, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 679, Name: "pv2_current", Unit: "A", Scale: 0.1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassCurrent, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 529, Name: "daily_production", Unit: "kWh", Scale: 0.1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassEnergy, StateClass: telemetry.StateClassTotalIncreasing, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 534, Name: "total_production", Unit: "kWh", Scale: 0.1, DataType: DataTypeUint32, DeviceClass: telemetry.DeviceClassEnergy, StateClass: telemetry.StateClassTotalIncreasing, ScanGroup: telemetry.ScanGroupSlow},

	// Battery
	{Address: 99, Name: "battery_equalization_voltage", Unit: "V", Scale: 0.01, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupSlow},
	{Address: 100, Name: "battery_absorption_voltage", Unit: "V", Scale: 0.01, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupSlow},
	{Address: 101, Name: "battery_float_voltage", Unit: "V", Scale: 0.01, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupSlow},
	{Address: 102, Name: "battery_capacity_setting", Unit: "Ah", Scale: 1, DataType: DataTypeUint16, Icon: "mdi:battery", StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupSlow},
	{Address: 108, Name: "battery_max_charge_current", Unit: "A", Scale: 1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassCurrent, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupSlow},
	{Address: 109, Name: "battery_max_discharge_current", Unit: "A", Scale: 1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassCurrent, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupSlow},
	{Address: 514, Name: "daily_battery_charge", Unit: "kWh", Scale: 0.1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassEnergy, StateClass: telemetry.StateClassTotalIncreasing, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 515, Name: "daily_battery_discharge", Unit: "kWh", Scale: 0.1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassEnergy, StateClass: telemetry.StateClassTotalIncreasing, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 516, Name: "total_battery_charge", Unit: "kWh", Scale: 0.1, DataType: DataTypeUint32, DeviceClass: telemetry.DeviceClassEnergy, StateClass: telemetry.StateClassTotalIncreasing, ScanGroup: telemetry.ScanGroupSlow},
	{Address: 518, Name: "total_battery_discharge", Unit: "kWh", Scale: 0.1, DataType: DataTypeUint32, DeviceClass: telemetry.DeviceClassEnergy, StateClass: telemetry.StateClassTotalIncreasing, ScanGroup: telemetry.ScanGroupSlow},
	{Address: 586, Name: "battery_temperature", Unit: "°C", Scale: 0.1, Offset: -100, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassTemperature, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 587, Name: "battery_voltage", Unit: "V", Scale: 0.01, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 588, Name: "battery_soc", Unit: "%", Scale: 1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassBattery, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal, LegacyUniqueID: "deye-tcp-battery-soc"},
	{Address: 590, Name: "battery_power", Unit: "W", Scale: 1, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassPower, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupFast, LegacyUniqueID: "deye-tcp-battery-power"},
	{Address: 591, Name: "battery_current", Unit: "A", Scale: 0.01, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassCurrent, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},

	// Grid
	{Address: 598, Name: "grid_voltage_l1", Unit: "V", Scale: 0.1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 599, Name: "grid_voltage_l2", Unit: "V", Scale: 0.1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 600, Name: "grid_voltage_l3", Unit: "V", Scale: 0.1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 638, Name: "grid_frequency", Unit: "Hz", Scale: 0.01, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassFrequency, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupFast, LegacyUniqueID: "deye-tcp-grid-frequency1"},
	{Address: 625, Name: "total_grid_power", Unit: "W", Scale: 1, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassPower, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupFast, LegacyUniqueID: "deye-tcp-total-grid-power"},
	{Address: 604, Name: "grid_power_ct_l1", Unit: "W", Scale: 1, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassPower, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 605, Name: "grid_power_ct_l2", Unit: "W", Scale: 1, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassPower, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 606, Name: "grid_power_ct_l3", Unit: "W", Scale: 1, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassPower, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 616, Name: "grid_power_ext_ct_l1", Unit: "W", Scale: 1, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassPower, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 617, Name: "grid_power_ext_ct_l2", Unit: "W", Scale: 1, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassPower, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 618, Name: "grid_power_ext_ct_l3", Unit: "W", Scale: 1, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassPower, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 520, Name: "daily_energy_bought", Unit: "kWh", Scale: 0.1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassEnergy, StateClass: telemetry.StateClassTotalIncreasing, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 522, Name: "total_energy_bought", Unit: "kWh", Scale: 0.1, DataType: DataTypeUint32, DeviceClass: telemetry.DeviceClassEnergy, StateClass: telemetry.StateClassTotalIncreasing, ScanGroup: telemetry.ScanGroupSlow},
	{Address: 521, Name: "daily_energy_sold", Unit: "kWh", Scale: 0.1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassEnergy, StateClass: telemetry.StateClassTotalIncreasing, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 524, Name: "total_energy_sold", Unit: "kWh", Scale: 0.1, DataType: DataTypeUint32, DeviceClass: telemetry.DeviceClassEnergy, StateClass: telemetry.StateClassTotalIncreasing, ScanGroup: telemetry.ScanGroupSlow},

	// Load
	{Address: 653, Name: "total_load_power", Unit: "W", Scale: 1, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassPower, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupFast, LegacyUniqueID: "deye-tcp-total-load-power"},
	{Address: 650, Name: "load_power_l1", Unit: "W", Scale: 1, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassPower, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 651, Name: "load_power_l2", Unit: "W", Scale: 1, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassPower, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 652, Name: "load_power_l3", Unit: "W", Scale: 1, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassPower, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 644, Name: "load_voltage_l1", Unit: "V", Scale: 0.1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 645, Name: "load_voltage_l2", Unit: "V", Scale: 0.1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 646, Name: "load_voltage_l3", Unit: "V", Scale: 0.1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 526, Name: "daily_load_consumption", Unit: "kWh", Scale: 0.1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassEnergy, StateClass: telemetry.StateClassTotalIncreasing, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 527, Name: "total_load_consumption", Unit: "kWh", Scale: 0.1, DataType: DataTypeUint32, DeviceClass: telemetry.DeviceClassEnergy, StateClass: telemetry.StateClassTotalIncreasing, ScanGroup: telemetry.ScanGroupSlow},

	// Inverter output
	{Address: 630, Name: "inverter_current_l1", Unit: "A", Scale: 0.01, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassCurrent, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 631, Name: "inverter_current_l2", Unit: "A", Scale: 0.01, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassCurrent, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 632, Name: "inverter_current_l3", Unit: "A", Scale: 0.01, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassCurrent, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 633, Name: "inverter_power_l1", Unit: "W", Scale: 1, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassPower, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 634, Name: "inverter_power_l2", Unit: "W", Scale: 1, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassPower, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 635, Name: "inverter_power_l3", Unit: "W", Scale: 1, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassPower, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 636, Name: "inverter_frequency", Unit: "Hz", Scale: 0.01, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassFrequency, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},

	// Temperatures
	{Address: 540, Name: "dc_temperature", Unit: "°C", Scale: 0.1, Offset: -100, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassTemperature, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},
	{Address: 541, Name: "ac_temperature", Unit: "°C", Scale: 0.1, Offset: -100, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassTemperature, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal},

	// BMS communication (limits received from the battery BMS over CAN,
	// mirrored back out through the inverter's own register map)
	{Address: 212, Name: "bms_charge_current_limit", Unit: "A", Scale: 1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassCurrent, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal, LegacyUniqueID: "deye-tcp-bms-charge-current"},
	{Address: 213, Name: "bms_discharge_current_limit", Unit: "A", Scale: 1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassCurrent, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupNormal, LegacyUniqueID: "deye-tcp-bms-discharge-current"},

	// Settings (read-only monitoring)
	{Address: 143, Name: "max_sell_power", Unit: "W", Scale: 1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassPower, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupSlow, LegacyUniqueID: "deye-tcp-max-sell-power"},
	{Address: 142, Name: "sell_mode_enabled", Scale: 1, DataType: DataTypeUint16, Icon: "mdi:transmission-tower-export", ScanGroup: telemetry.ScanGroupSlow},

	// Generator port (if installed)
	{Address: 661, Name: "gen_voltage_l1", Unit: "V", Scale: 0.1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupSlow},
	{Address: 662, Name: "gen_voltage_l2", Unit: "V", Scale: 0.1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupSlow},
	{Address: 663, Name: "gen_voltage_l3", Unit: "V", Scale: 0.1, DataType: DataTypeUint16, DeviceClass: telemetry.DeviceClassVoltage, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupSlow},
	{Address: 664, Name: "gen_power_l1", Unit: "W", Scale: 1, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassPower, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupSlow},
	{Address: 665, Name: "gen_power_l2", Unit: "W", Scale: 1, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassPower, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupSlow},
	{Address: 666, Name: "gen_power_l3", Unit: "W", Scale: 1, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassPower, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupSlow},
	{Address: 667, Name: "gen_total_power", Unit: "W", Scale: 1, DataType: DataTypeInt16, DeviceClass: telemetry.DeviceClassPower, StateClass: telemetry.StateClassMeasurement, ScanGroup: telemetry.ScanGroupSlow},

	// Status/alerts
	{Address: 552, Name: "running_status", Scale: 1, DataType: DataTypeUint16, Icon: "mdi:state-machine", ScanGroup: telemetry.ScanGroupNormal},
	{Address: 553, Name: "alert_code_1", Scale: 1, DataType: DataTypeUint16, Icon: "mdi:alert", ScanGroup: telemetry.ScanGroupSlow},
	{Address: 554, Name: "alert_code_2", Scale: 1, DataType: DataTypeUint16, Icon: "mdi:alert", ScanGroup: telemetry.ScanGroupSlow},
	{Address: 555, Name: "alert_code_3", Scale: 1, DataType: DataTypeUint16, Icon: "mdi:alert", ScanGroup: telemetry.ScanGroupSlow},
	{Address: 556, Name: "alert_code_4", Scale: 1, DataType: DataTypeUint16, Icon: "mdi:alert", ScanGroup: telemetry.ScanGroupSlow},
	{Address: 557, Name: "alert_code_5", Scale: 1, DataType: DataTypeUint16, Icon: "mdi:alert", ScanGroup: telemetry.ScanGroupSlow},
	{Address: 558, Name: "alert_code_6", Scale: 1, DataType: DataTypeUint16, Icon: "mdi:alert", ScanGroup: telemetry.ScanGroupSlow},
}

// Descriptors returns the discovery sensor table for every register.
func Descriptors() []telemetry.SensorDescriptor {
	out := make([]telemetry.SensorDescriptor, 0, len(Registers))
	for _, r := range Registers {
		out = append(out, r.Descriptor())
	}
	return out
}

// ByScanGroup returns the subset of Registers tagged with the given
// scan group.
func ByScanGroup(group telemetry.ScanGroup) []Register {
	var out []Register
	for _, r := range Registers {
		if r.ScanGroup == group {
			out = append(out, r)
		}
	}
	return out
}

// DecodeValue assembles and scales a register's raw Modbus words,
// ported from deye_modbus2mqtt.py's read_register. Word order is
// little-endian (the low word comes first on the wire) for 32-bit
// types.
func (r Register) DecodeValue(words []uint16) float64 {
	var raw int64
	switch r.DataType {
	case DataTypeInt16:
		v := int32(words[0])
		if v > 0x7FFF {
			v -= 0x10000
		}
		raw = int64(v)
	case DataTypeUint16:
		raw = int64(words[0])
	case DataTypeInt32:
		v := int64(words[0]) | int64(words[1])<<16
		if v > 0x7FFFFFFF {
			v -= 0x100000000
		}
		raw = v
	case DataTypeUint32:
		raw = int64(words[0]) | int64(words[1])<<16
	}
	return float64(raw)*r.Scale + r.Offset
}
