package rs485

import "encoding/binary"

// AnalogReading is the decoded CID2=0x42 response body, per
// pylon_rs485_monitor.py's decode_analog_response.
type AnalogReading struct {
	BatteryNumber byte
	CellVoltagesV []float64
	TemperaturesC []float64
	CurrentA      float64
	PackVoltageV  float64
	RemainingAh   float64
	TotalAh       float64
	Cycles        uint16
}

// SOCPercent derives state-of-charge from remaining vs. total capacity,
// per pylon_rs485_monitor.py's read_all_batteries soc computation.
func (a AnalogReading) SOCPercent() float64 {
	if a.TotalAh == 0 {
		return 0
	}
	return a.RemainingAh / a.TotalAh * 100
}

// DecodeAnalog parses a CID2=0x42 response's decoded info bytes. Each
// trailing section is optional: a short response (as sent by some
// firmware when a battery has no temperature sensors, say) simply yields
// fewer populated fields, matching the original decoder's bounds-checked
// incremental parse — there is no malformed-input error case, only a
// progressively less complete AnalogReading.
func DecodeAnalog(info []byte) AnalogReading {
	r := cursor{data: info}

	_ = r.byte() // info flag, unused
	a := AnalogReading{BatteryNumber: r.byte()}

	numCells := int(r.byte())
	a.CellVoltagesV = make([]float64, 0, numCells)
	for i := 0; i < numCells && r.remaining() >= 2; i++ {
		a.CellVoltagesV = append(a.CellVoltagesV, float64(r.uint16())/1000.0)
	}

	if r.remaining() >= 1 {
		numTemps := int(r.byte())
		a.TemperaturesC = make([]float64, 0, numTemps)
		for i := 0; i < numTemps && r.remaining() >= 2; i++ {
			raw := int(r.uint16())
			a.TemperaturesC = append(a.TemperaturesC, float64(raw-2731)/10.0)
		}
	}

	if r.remaining() >= 2 {
		raw := int16(r.uint16())
		a.CurrentA = float64(raw) / 100.0
	}

	if r.remaining() >= 2 {
		a.PackVoltageV = float64(r.uint16()) / 1000.0
	}

	if r.remaining() >= 2 {
		a.RemainingAh = float64(r.uint16()) / 100.0
	}

	if r.remaining() >= 1 {
		_ = r.byte() // user-defined byte, unused
	}

	if r.remaining() >= 2 {
		a.TotalAh = float64(r.uint16()) / 100.0
	}

	if r.remaining() >= 2 {
		a.Cycles = r.uint16()
	}

	return a
}

// cursor is a small bounds-checked byte reader, used by both the analog
// and alarm decoders to mirror the original's incremental,
// short-response-tolerant parse.
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) remaining() int {
	return len(c.data) - c.pos
}

func (c *cursor) byte() byte {
	if c.remaining() < 1 {
		return 0
	}
	b := c.data[c.pos]
	c.pos++
	return b
}

func (c *cursor) uint16() uint16 {
	if c.remaining() < 2 {
		return 0
	}
	v := binary.BigEndian.Uint16(c.data[c.pos : c.pos+2])
	c.pos += 2
	return v
}
