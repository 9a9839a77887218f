package can

import "fmt"

// Recognised arbitration IDs.
const (
	IDLimits   uint32 = 0x351
	IDState    uint32 = 0x355
	IDFlags    uint32 = 0x359
	IDExtremes uint32 = 0x370
)

// Sanity windows. A frame whose decoded fields fall outside these bounds
// is silently dropped — critical for the boot window after BMS reset,
// when the bus emits all-zero frames.
const (
	tempMinC   = -10.0
	tempMaxC   = 50.0
	cellVMinV  = 2.0
	cellVMaxV  = 4.5
	packVMinV  = 30.0
	packVMaxV  = 65.0
	currentAbsMaxA = 500.0
	percentMin = 0.0
	percentMax = 100.0
)

// Limits is the decoded 0x351 frame: charge/discharge envelope.
type Limits struct {
	VChargeMaxV    float64
	IChargeLimA    float64
	IDischargeLimA float64
	VLowLimV       float64
}

// State is the decoded 0x355 frame.
type State struct {
	SOC float64
	SOH float64
}

// Extremes is the decoded 0x370 frame: pack temperature and cell-voltage
// extremes as seen by the BMS itself (not the full per-cell list — that
// is RS485-only).
type Extremes struct {
	TempMinC  float64
	TempMaxC  float64
	CellVMinV float64
	CellVMaxV float64
}

func leU16(b0, b1 byte) uint16 {
	return uint16(b0) | uint16(b1)<<8
}

func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

// DecodeLimits decodes a 0x351 frame. Returns false if the payload length
// is wrong or any field fails its sanity window.
func DecodeLimits(data []byte) (Limits, bool) {
	if len(data) != 8 {
		return Limits{}, false
	}

	l := Limits{
		VChargeMaxV:    float64(leU16(data[0], data[1])) / 10.0,
		IChargeLimA:    float64(leU16(data[2], data[3])) / 10.0,
		IDischargeLimA: float64(leU16(data[4], data[5])) / 10.0,
		VLowLimV:       float64(leU16(data[6], data[7])) / 10.0,
	}

	if !inRange(l.VChargeMaxV, packVMinV, packVMaxV) {
		return Limits{}, false
	}
	if !inRange(l.VLowLimV, packVMinV, packVMaxV) {
		return Limits{}, false
	}
	if !inRange(l.IChargeLimA, 0.0, currentAbsMaxA) {
		return Limits{}, false
	}
	if !inRange(l.IDischargeLimA, 0.0, currentAbsMaxA) {
		return Limits{}, false
	}

	return l, true
}

// DecodeState decodes a 0x355 frame.
func DecodeState(data []byte) (State, bool) {
	if len(data) != 8 {
		return State{}, false
	}

	s := State{
		SOC: float64(leU16(data[0], data[1])),
		SOH: float64(leU16(data[2], data[3])),
	}

	if !inRange(s.SOC, percentMin, percentMax) {
		return State{}, false
	}
	if !inRange(s.SOH, percentMin, percentMax) {
		return State{}, false
	}

	return s, true
}

// DecodeFlags decodes a 0x359 frame into a 16-hex-digit big-endian string,
// e.g. "0000000000000001".
func DecodeFlags(data []byte) (string, bool) {
	if len(data) != 8 {
		return "", false
	}

	var flags uint64
	for i := 0; i < 8; i++ {
		flags |= uint64(data[i]) << (8 * uint(i))
	}

	return fmt.Sprintf("%016X", flags), true
}

// DecodeExtremes decodes a 0x370 frame. T1/T2 are reported as min/max
// regardless of wire order; only cell voltages within the sanity window
// are considered when computing Vmin/Vmax (the BMS emits zeros for an
// absent second cell-extreme slot on some firmware).
func DecodeExtremes(data []byte) (Extremes, bool) {
	if len(data) != 8 {
		return Extremes{}, false
	}

	t1 := float64(leU16(data[0], data[1])) / 10.0
	t2 := float64(leU16(data[2], data[3])) / 10.0
	if !inRange(t1, tempMinC, tempMaxC) || !inRange(t2, tempMinC, tempMaxC) {
		return Extremes{}, false
	}
	tMin, tMax := t1, t2
	if t2 < t1 {
		tMin, tMax = t2, t1
	}

	v1 := float64(leU16(data[4], data[5])) / 1000.0
	v2 := float64(leU16(data[6], data[7])) / 1000.0

	var candidates []float64
	if inRange(v1, cellVMinV, cellVMaxV) {
		candidates = append(candidates, v1)
	}
	if inRange(v2, cellVMinV, cellVMaxV) {
		candidates = append(candidates, v2)
	}
	if len(candidates) == 0 {
		return Extremes{}, false
	}

	vMin, vMax := candidates[0], candidates[0]
	for _, v := range candidates {
		if v < vMin {
			vMin = v
		}
		if v > vMax {
			vMax = v
		}
	}

	return Extremes{TempMinC: tMin, TempMaxC: tMax, CellVMinV: vMin, CellVMaxV: vMax}, true
}
