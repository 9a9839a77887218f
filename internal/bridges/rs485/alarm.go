package rs485

import "fmt"

// Operating-state bits, per pylon_rs485_responder.py's make_alarm_response
// comment and the documented field layout. Several may be set at once;
// OperatingStateIdle is not a bit of its own, just the zero value, set
// when nothing else is.
const (
	OperatingStateIdle      byte = 0x00
	OperatingStateDischarge byte = 0x01
	OperatingStateCharge    byte = 0x02
	OperatingStateFloat     byte = 0x04
	OperatingStateFull      byte = 0x08
	OperatingStateStandby   byte = 0x10
	OperatingStateShutdown  byte = 0x20
)

// Voltage-flag bits packed into extended-status byte index 4: four
// conditions (cell/pack, over/under), each with a non-tripping
// alarm-level bit and a tripping protect-level bit. Grounded on the
// documented "cell/pack over-/under-voltage alarm and protect bits"
// layout; the per-bit assignment below is this decoder's own derivation
// since neither reference script enumerates individual bit positions.
const (
	voltageFlagCellOverAlarm    byte = 1 << 0
	voltageFlagCellUnderAlarm   byte = 1 << 1
	voltageFlagPackOverAlarm    byte = 1 << 2
	voltageFlagPackUnderAlarm   byte = 1 << 3
	voltageFlagCellOverProtect  byte = 1 << 4
	voltageFlagCellUnderProtect byte = 1 << 5
	voltageFlagPackOverProtect  byte = 1 << 6
	voltageFlagPackUnderProtect byte = 1 << 7
)

// AlarmInfo is the decoded CID2=0x44 response body.
//
// The response declares an extended-status byte count (status_byte_count)
// but pylon_rs485_responder.py's make_alarm_response always writes 9
// extended bytes regardless of what that count field says (it hardcodes
// "06" while emitting balance-status, three reserved bytes, voltage
// flags, temperature flags, MOSFET status, and two balance-cell bytes —
// nine fields total). A parser that trusts the declared count and one
// that trusts the fixed nine-byte layout land on different offsets for
// the balance-cell bytes, so both are exposed rather than silently
// picking one: BalanceCellsXML is the last two bytes inside the declared
// count; BalanceCellsEmpirical is the last two bytes actually present
// before the OperatingState byte, where the test responder writes the
// balance-cell bitmap.
type AlarmInfo struct {
	BatteryNumber byte

	// CellStatus/TempStatus are 0 for a normal cell/sensor; 0x01 means
	// under-limit, 0x02 means over-limit, other values are ignored.
	CellStatus []byte
	TempStatus []byte

	ChargeCurrentStatus    byte
	ModuleVoltageStatus    byte
	DischargeCurrentStatus byte

	// ExtendedStatusDeclaredLen is the raw status_byte_count field.
	ExtendedStatusDeclaredLen int

	// ExtendedStatusDeclared is ExtendedStatusRaw truncated to
	// ExtendedStatusDeclaredLen bytes — what a strict, count-trusting
	// parser sees.
	ExtendedStatusDeclared []byte

	// ExtendedStatusRaw is every byte actually present between the
	// count field and the final OperatingState byte. Byte index 0 is
	// the balance-on/static-balance flags and index 4 is the voltage
	// alarm/protect bitfield. In the nine-byte block the test responder
	// emits, index 6 is MOSFET state and indices 7-8 are the per-cell
	// balance-active bitmap; the fixed extended-status layout places
	// MOSFET state at index 8 and the bitmap at indices 9-10 instead.
	ExtendedStatusRaw []byte

	// BalanceCellsXML is the last two bytes of ExtendedStatusDeclared.
	BalanceCellsXML [2]byte

	// BalanceCellsEmpirical is the last two bytes of ExtendedStatusRaw.
	BalanceCellsEmpirical [2]byte

	// OperatingState is the bitfield described by the OperatingState*
	// constants; zero means Idle.
	OperatingState byte
}

// Severity is the three-way classification spec'd for alarm results:
// Warnings are informational conditions expected during normal
// operation (cell/pack voltage reading high while balancing tops off a
// charge); Protections are actual protection-trip events. Alarms is a
// copy of Protections, excluding Warnings, for surfacing to a consumer
// that only cares about genuine trips.
type Severity struct {
	Warnings    []string
	Protections []string
}

// Alarms returns the consumer-facing alarm set: a copy of Protections.
func (s Severity) Alarms() []string { return s.Protections }

func (s Severity) HasWarning() bool    { return len(s.Warnings) > 0 }
func (s Severity) HasProtection() bool { return len(s.Protections) > 0 }

// Classify derives the three-way severity split from the raw status
// bytes and the extended-status voltage bitfield.
func (a AlarmInfo) Classify() Severity {
	var sev Severity

	classifyCode := func(label string, code byte) {
		switch code {
		case 0x01:
			sev.Protections = append(sev.Protections, label+"_under_limit")
		case 0x02:
			sev.Protections = append(sev.Protections, label+"_over_limit")
		}
	}

	for i, b := range a.CellStatus {
		classifyCode(fmt.Sprintf("cell%d", i+1), b)
	}
	for i, b := range a.TempStatus {
		classifyCode(fmt.Sprintf("temp%d", i+1), b)
	}
	classifyCode("charge_current", a.ChargeCurrentStatus)
	classifyCode("discharge_current", a.DischargeCurrentStatus)
	classifyCode("pack_voltage", a.ModuleVoltageStatus)

	flags := a.voltageFlags()
	if flags&voltageFlagCellOverAlarm != 0 {
		sev.Warnings = append(sev.Warnings, "cell_over_voltage")
	}
	if flags&voltageFlagPackOverAlarm != 0 {
		sev.Warnings = append(sev.Warnings, "pack_over_voltage")
	}
	if flags&voltageFlagCellUnderAlarm != 0 {
		sev.Protections = append(sev.Protections, "cell_under_voltage")
	}
	if flags&voltageFlagPackUnderAlarm != 0 {
		sev.Protections = append(sev.Protections, "pack_under_voltage")
	}
	if flags&voltageFlagCellOverProtect != 0 {
		sev.Protections = append(sev.Protections, "cell_over_voltage_protect")
	}
	if flags&voltageFlagCellUnderProtect != 0 {
		sev.Protections = append(sev.Protections, "cell_under_voltage_protect")
	}
	if flags&voltageFlagPackOverProtect != 0 {
		sev.Protections = append(sev.Protections, "pack_over_voltage_protect")
	}
	if flags&voltageFlagPackUnderProtect != 0 {
		sev.Protections = append(sev.Protections, "pack_under_voltage_protect")
	}

	return sev
}

// voltageFlags returns extended-status byte index 4, or 0 if the
// extended-status block wasn't long enough to carry one.
func (a AlarmInfo) voltageFlags() byte {
	if len(a.ExtendedStatusRaw) <= 4 {
		return 0
	}
	return a.ExtendedStatusRaw[4]
}

// HasAlarm reports whether Classify finds any protection-trip event —
// this bridge's single "alarm" topic mirrors Protections, per Severity's
// Alarms/Protections equivalence.
func (a AlarmInfo) HasAlarm() bool { return a.Classify().HasProtection() }

// HasWarning reports whether Classify finds any informational,
// non-tripping condition.
func (a AlarmInfo) HasWarning() bool { return a.Classify().HasWarning() }

// IsBalancing reports whether the empirical balance-cell view shows any
// cell currently being bled, which is the view grounded on the actual
// wire layout rather than the (inconsistent) declared byte count. Like
// the stack aggregator, it ignores the balance bits unless the
// balance-on flag at extended-status byte index 0 is set.
func (a AlarmInfo) IsBalancing() bool {
	return len(balancingCellIndices(a)) > 0
}

// OperatingStates renders the operating-state bitfield as its set
// member names, or ["idle"] when no bit is set.
func (a AlarmInfo) OperatingStates() []string {
	names := []struct {
		bit  byte
		name string
	}{
		{OperatingStateDischarge, "discharge"},
		{OperatingStateCharge, "charge"},
		{OperatingStateFloat, "float"},
		{OperatingStateFull, "full"},
		{OperatingStateStandby, "standby"},
		{OperatingStateShutdown, "shutdown"},
	}

	var states []string
	for _, n := range names {
		if a.OperatingState&n.bit != 0 {
			states = append(states, n.name)
		}
	}
	if len(states) == 0 {
		return []string{"idle"}
	}
	return states
}

// DecodeAlarm parses a CID2=0x44 response's decoded info bytes.
func DecodeAlarm(info []byte) AlarmInfo {
	r := cursor{data: info}

	_ = r.byte() // info flag, unused
	a := AlarmInfo{BatteryNumber: r.byte()}

	numCells := int(r.byte())
	a.CellStatus = r.bytes(numCells)

	numTemps := int(r.byte())
	a.TempStatus = r.bytes(numTemps)

	a.ChargeCurrentStatus = r.byte()
	a.ModuleVoltageStatus = r.byte()
	a.DischargeCurrentStatus = r.byte()

	a.ExtendedStatusDeclaredLen = int(r.byte())

	// Reserve the final byte for OperatingState; everything else
	// remaining is the extended-status region, however long it is.
	extLen := r.remaining() - 1
	if extLen < 0 {
		extLen = 0
	}
	a.ExtendedStatusRaw = r.bytes(extLen)
	a.OperatingState = r.byte()

	a.ExtendedStatusDeclared = clampBytes(a.ExtendedStatusRaw, a.ExtendedStatusDeclaredLen)
	a.BalanceCellsXML = lastTwo(a.ExtendedStatusDeclared)
	a.BalanceCellsEmpirical = lastTwo(a.ExtendedStatusRaw)

	return a
}

func clampBytes(b []byte, n int) []byte {
	if n < 0 {
		n = 0
	}
	if n > len(b) {
		n = len(b)
	}
	return b[:n]
}

func lastTwo(b []byte) [2]byte {
	var out [2]byte
	if len(b) >= 2 {
		out[0] = b[len(b)-2]
		out[1] = b[len(b)-1]
	} else if len(b) == 1 {
		out[1] = b[0]
	}
	return out
}

func (c *cursor) bytes(n int) []byte {
	if n < 0 {
		n = 0
	}
	if n > c.remaining() {
		n = c.remaining()
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b
}
