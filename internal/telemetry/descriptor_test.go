package telemetry

import (
	"errors"
	"testing"
)

func TestSensorDescriptor_UniqueID(t *testing.T) {
	tests := []struct {
		name string
		d    SensorDescriptor
		want string
	}{
		{
			name: "derived from device id and name",
			d:    SensorDescriptor{Name: "pack_voltage"},
			want: "modbus-inverter_pack_voltage",
		},
		{
			name: "legacy override wins",
			d:    SensorDescriptor{Name: "pack_voltage", LegacyUniqueID: "solarman_12345_battery_voltage"},
			want: "solarman_12345_battery_voltage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.UniqueID("modbus-inverter"); got != tt.want {
				t.Errorf("UniqueID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateTable_DuplicateName(t *testing.T) {
	table := []SensorDescriptor{
		{Name: "soc", EntityKind: EntityKindSensor},
		{Name: "soc", EntityKind: EntityKindSensor},
	}

	err := ValidateTable(table)
	if !errors.Is(err, ErrDuplicateSensorName) {
		t.Fatalf("ValidateTable() error = %v, want ErrDuplicateSensorName", err)
	}
}

func TestValidateTable_UnknownEntityKind(t *testing.T) {
	table := []SensorDescriptor{
		{Name: "soc", EntityKind: EntityKind("gauge")},
	}

	err := ValidateTable(table)
	if !errors.Is(err, ErrUnknownEntityKind) {
		t.Fatalf("ValidateTable() error = %v, want ErrUnknownEntityKind", err)
	}
}

func TestValidateTable_Valid(t *testing.T) {
	table := []SensorDescriptor{
		{Name: "soc", EntityKind: EntityKindSensor},
		{Name: "charging", EntityKind: EntityKindBinarySensor},
	}

	if err := ValidateTable(table); err != nil {
		t.Fatalf("ValidateTable() unexpected error: %v", err)
	}
}
