package telemetry

import "fmt"

// DeviceClass is a Home-Assistant-style semantic hint for a sensor's
// physical quantity.
type DeviceClass string

// Recognised device classes.
const (
	DeviceClassNone        DeviceClass = ""
	DeviceClassVoltage     DeviceClass = "voltage"
	DeviceClassCurrent     DeviceClass = "current"
	DeviceClassPower       DeviceClass = "power"
	DeviceClassEnergy      DeviceClass = "energy"
	DeviceClassTemperature DeviceClass = "temperature"
	DeviceClassFrequency   DeviceClass = "frequency"
	DeviceClassBattery     DeviceClass = "battery"
	DeviceClassProblem     DeviceClass = "problem"
)

// StateClass governs downstream aggregation semantics for a numeric sensor.
type StateClass string

// Recognised state classes.
const (
	StateClassNone            StateClass = ""
	StateClassMeasurement     StateClass = "measurement"
	StateClassTotalIncreasing StateClass = "total_increasing"
)

// ScanGroup is the cadence tag assigned to polled (Modbus) registers.
// Unused by the CAN and RS485 bridges, which publish every reading as
// soon as it is decoded.
type ScanGroup string

// Scan cadences.
const (
	ScanGroupFast   ScanGroup = "fast"
	ScanGroupNormal ScanGroup = "normal"
	ScanGroupSlow   ScanGroup = "slow"
)

// EntityKind distinguishes scalar sensors from 0/1 on-off entities in the
// discovery schema.
type EntityKind string

const (
	EntityKindSensor       EntityKind = "sensor"
	EntityKindBinarySensor EntityKind = "binary_sensor"
)

// SensorDescriptor is the static, declared-once description of one
// published quantity.
type SensorDescriptor struct {
	// Name is the stable snake_case identifier, unique within a bridge.
	Name string

	// Unit is the physical unit string (e.g. "V", "A", "W", "°C"), empty
	// if not applicable.
	Unit string

	DeviceClass DeviceClass
	StateClass  StateClass

	// Icon is an optional Material Design Icons hint (e.g. "mdi:battery").
	Icon string

	// Precision is the suggested display precision in decimal digits.
	// A nil value means "let the consumer decide".
	Precision *int

	// ScanGroup only applies to polled (Modbus) registers.
	ScanGroup ScanGroup

	// EntityKind selects the discovery document's entity_kind.
	EntityKind EntityKind

	// Group, if non-empty, places this sensor's state topic under
	// "<prefix>/<group>/<name>" instead of "<prefix>/<name>" (e.g. "stack",
	// "module0", "limit").
	Group string

	// LegacyUniqueID, if set, overrides the derived identity
	// "<device_id>_<name>" for historical continuity with a predecessor
	// collector.
	LegacyUniqueID string
}

// UniqueID returns the sensor's stable identity: LegacyUniqueID if
// present, else "<deviceID>_<name>". This value must never change once
// published.
func (d SensorDescriptor) UniqueID(deviceID string) string {
	if d.LegacyUniqueID != "" {
		return d.LegacyUniqueID
	}
	return fmt.Sprintf("%s_%s", deviceID, d.Name)
}

// ValidateTable checks a descriptor table for duplicate names and
// recognised entity kinds. Intended to be called once at bridge startup
// against each bridge's static table.
func ValidateTable(descriptors []SensorDescriptor) error {
	seen := make(map[string]struct{}, len(descriptors))
	for _, d := range descriptors {
		if _, ok := seen[d.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateSensorName, d.Name)
		}
		seen[d.Name] = struct{}{}

		switch d.EntityKind {
		case EntityKindSensor, EntityKindBinarySensor:
		default:
			return fmt.Errorf("%w: %s (%q)", ErrUnknownEntityKind, d.Name, d.EntityKind)
		}
	}
	return nil
}
