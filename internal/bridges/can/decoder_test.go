package can

import "testing"

func TestDecodeLimits_Valid(t *testing.T) {
	// 53.2V charge max, 10.0A charge limit, 20.0A discharge limit, 44.0V low limit.
	data := []byte{0x14, 0x02, 0x64, 0x00, 0xC8, 0x00, 0xB8, 0x01}
	l, ok := DecodeLimits(data)
	if !ok {
		t.Fatal("expected valid decode")
	}
	if l.VChargeMaxV != 53.2 {
		t.Errorf("VChargeMaxV = %v, want 53.2", l.VChargeMaxV)
	}
	if l.IChargeLimA != 10.0 {
		t.Errorf("IChargeLimA = %v, want 10.0", l.IChargeLimA)
	}
	if l.IDischargeLimA != 20.0 {
		t.Errorf("IDischargeLimA = %v, want 20.0", l.IDischargeLimA)
	}
	if l.VLowLimV != 44.0 {
		t.Errorf("VLowLimV = %v, want 44.0", l.VLowLimV)
	}
}

func TestDecodeLimits_RejectsResetBurst(t *testing.T) {
	if _, ok := DecodeLimits([]byte{0, 0, 0, 0, 0, 0, 0, 0}); ok {
		t.Fatal("expected all-zero reset-burst frame to be rejected")
	}
}

func TestDecodeLimits_WrongLength(t *testing.T) {
	if _, ok := DecodeLimits([]byte{1, 2, 3}); ok {
		t.Fatal("expected wrong-length frame to be rejected")
	}
}

func TestDecodeState_Valid(t *testing.T) {
	data := []byte{80, 0, 95, 0, 0, 0, 0, 0}
	s, ok := DecodeState(data)
	if !ok {
		t.Fatal("expected valid decode")
	}
	if s.SOC != 80 || s.SOH != 95 {
		t.Errorf("got SOC=%v SOH=%v", s.SOC, s.SOH)
	}
}

func TestDecodeState_RejectsOutOfRange(t *testing.T) {
	data := []byte{101, 0, 50, 0, 0, 0, 0, 0} // SOC=101 > 100
	if _, ok := DecodeState(data); ok {
		t.Fatal("expected SOC > 100 to be rejected")
	}
}

func TestDecodeFlags(t *testing.T) {
	data := []byte{0x01, 0, 0, 0, 0, 0, 0, 0x80}
	flags, ok := DecodeFlags(data)
	if !ok {
		t.Fatal("expected valid decode")
	}
	if flags != "8000000000000001" {
		t.Errorf("flags = %q, want %q", flags, "8000000000000001")
	}
}

func TestDecodeExtremes_Valid(t *testing.T) {
	// T1=25.0C, T2=30.0C, V1=3.300V, V2=3.350V
	data := []byte{0xFA, 0x00, 0x2C, 0x01, 0xE4, 0x0C, 0x16, 0x0D}
	e, ok := DecodeExtremes(data)
	if !ok {
		t.Fatal("expected valid decode")
	}
	if e.TempMinC != 25.0 || e.TempMaxC != 30.0 {
		t.Errorf("got TempMin=%v TempMax=%v", e.TempMinC, e.TempMaxC)
	}
	if e.CellVMinV != 3.300 || e.CellVMaxV != 3.350 {
		t.Errorf("got CellVMin=%v CellVMax=%v", e.CellVMinV, e.CellVMaxV)
	}
}

func TestDecodeExtremes_FiltersOutOfWindowCellVoltage(t *testing.T) {
	// T1=25.0C, T2=25.0C, V1=0 (boot zero, filtered), V2=3.400V
	data := []byte{0xFA, 0x00, 0xFA, 0x00, 0x00, 0x00, 0x48, 0x0D}
	e, ok := DecodeExtremes(data)
	if !ok {
		t.Fatal("expected valid decode with the remaining candidate")
	}
	if e.CellVMinV != 3.400 || e.CellVMaxV != 3.400 {
		t.Errorf("got CellVMin=%v CellVMax=%v, want both 3.400 from the single surviving candidate", e.CellVMinV, e.CellVMaxV)
	}
}

func TestDecodeExtremes_RejectsOutOfWindowTemp(t *testing.T) {
	// T1 decodes to 99.9C: outside [-10, 50].
	data := []byte{0xE7, 0x03, 0xFA, 0x00, 0xE4, 0x0C, 0x16, 0x0D}
	if _, ok := DecodeExtremes(data); ok {
		t.Fatal("expected out-of-window temperature to be rejected")
	}
}
