package telemetry

import "errors"

// Domain errors for the telemetry package.
var (
	// ErrDuplicateSensorName is returned when a descriptor table declares
	// the same name twice within one bridge.
	ErrDuplicateSensorName = errors.New("telemetry: duplicate sensor name")

	// ErrUnknownEntityKind is returned when a descriptor's EntityKind is
	// not one of sensor or binary_sensor.
	ErrUnknownEntityKind = errors.New("telemetry: unknown entity kind")
)
