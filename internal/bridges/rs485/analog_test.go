package rs485

import "testing"

func TestDecodeAnalog_Full(t *testing.T) {
	var info []byte
	info = append(info, 0x00)       // info flag
	info = append(info, 0x02)       // battery number
	info = append(info, 0x04)       // num cells
	for _, mv := range []uint16{3300, 3310, 3295, 3305} {
		info = append(info, byte(mv>>8), byte(mv))
	}
	info = append(info, 0x02) // num temps
	for _, raw := range []uint16{2731 + 250, 2731 + 260} {
		info = append(info, byte(raw>>8), byte(raw))
	}
	current := int16(-150) // -1.50A
	info = append(info, byte(uint16(current)>>8), byte(uint16(current)))
	packV := uint16(13220) // 13.220V
	info = append(info, byte(packV>>8), byte(packV))
	remaining := uint16(8000) // 80.00Ah
	info = append(info, byte(remaining>>8), byte(remaining))
	info = append(info, 0x00) // user-defined byte
	total := uint16(10000)    // 100.00Ah
	info = append(info, byte(total>>8), byte(total))
	cycles := uint16(42)
	info = append(info, byte(cycles>>8), byte(cycles))

	got := DecodeAnalog(info)

	if got.BatteryNumber != 2 {
		t.Errorf("BatteryNumber = %d, want 2", got.BatteryNumber)
	}
	wantCells := []float64{3.300, 3.310, 3.295, 3.305}
	if len(got.CellVoltagesV) != len(wantCells) {
		t.Fatalf("CellVoltagesV len = %d, want %d", len(got.CellVoltagesV), len(wantCells))
	}
	for i, want := range wantCells {
		if got.CellVoltagesV[i] != want {
			t.Errorf("CellVoltagesV[%d] = %v, want %v", i, got.CellVoltagesV[i], want)
		}
	}
	wantTemps := []float64{25.0, 26.0}
	for i, want := range wantTemps {
		if got.TemperaturesC[i] != want {
			t.Errorf("TemperaturesC[%d] = %v, want %v", i, got.TemperaturesC[i], want)
		}
	}
	if got.CurrentA != -1.50 {
		t.Errorf("CurrentA = %v, want -1.50", got.CurrentA)
	}
	if got.PackVoltageV != 13.220 {
		t.Errorf("PackVoltageV = %v, want 13.220", got.PackVoltageV)
	}
	if got.RemainingAh != 80.00 {
		t.Errorf("RemainingAh = %v, want 80.00", got.RemainingAh)
	}
	if got.TotalAh != 100.00 {
		t.Errorf("TotalAh = %v, want 100.00", got.TotalAh)
	}
	if got.Cycles != 42 {
		t.Errorf("Cycles = %d, want 42", got.Cycles)
	}
	if soc := got.SOCPercent(); soc != 80.0 {
		t.Errorf("SOCPercent() = %v, want 80.0", soc)
	}
}

func TestDecodeAnalog_TruncatedResponse(t *testing.T) {
	// Only info flag, battery number, cell count, and a single cell
	// voltage: everything after should come back zero-valued, not error.
	info := []byte{0x00, 0x01, 0x02, 0x0C, 0xE4}

	got := DecodeAnalog(info)

	if got.BatteryNumber != 1 {
		t.Errorf("BatteryNumber = %d, want 1", got.BatteryNumber)
	}
	if len(got.CellVoltagesV) != 1 {
		t.Fatalf("CellVoltagesV len = %d, want 1", len(got.CellVoltagesV))
	}
	if got.CellVoltagesV[0] != 3.300 {
		t.Errorf("CellVoltagesV[0] = %v, want 3.300", got.CellVoltagesV[0])
	}
	if got.TemperaturesC != nil {
		t.Errorf("TemperaturesC = %v, want nil", got.TemperaturesC)
	}
	if got.CurrentA != 0 || got.PackVoltageV != 0 || got.RemainingAh != 0 || got.TotalAh != 0 || got.Cycles != 0 {
		t.Errorf("expected zero-valued trailing fields, got %+v", got)
	}
	if got.SOCPercent() != 0 {
		t.Errorf("SOCPercent() = %v, want 0 when TotalAh is 0", got.SOCPercent())
	}
}

func TestDecodeAnalog_EmptyInfo(t *testing.T) {
	got := DecodeAnalog(nil)
	if got.BatteryNumber != 0 {
		t.Errorf("BatteryNumber = %d, want 0", got.BatteryNumber)
	}
	if len(got.CellVoltagesV) != 0 {
		t.Errorf("CellVoltagesV = %v, want empty", got.CellVoltagesV)
	}
}
