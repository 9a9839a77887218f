package rs485

import (
	"fmt"
	"math"
)

// ModuleReading pairs one module's decoded analog and alarm data, as
// polled in sequence by the address cycle described in
// pylon_rs485_monitor.py's read_all_batteries.
type ModuleReading struct {
	Index  int
	Analog AnalogReading
	Alarm  AlarmInfo
}

// StackReading is the parallel-pack rollup of N modules: the modules
// are wired electrically in parallel, so pack voltage averages rather
// than sums, while current and capacity sum.
type StackReading struct {
	NumModules int

	CellMinV   float64
	CellMaxV   float64
	CellDeltaMV float64

	TempMinC float64
	TempMaxC float64

	VoltageV float64
	CurrentA float64

	RemainingAh float64
	TotalAh     float64

	BalancingCount int
	BalancingCells []string

	// HasAlarm is the protection-trip view (Severity.Alarms/Protections
	// are equivalent); HasWarning is the separate, non-tripping,
	// informational view. The two are disjoint.
	HasAlarm   bool
	HasWarning bool
}

// SOCPercent derives stack-level state-of-charge from summed remaining
// vs. total capacity across modules.
func (s StackReading) SOCPercent() float64 {
	if s.TotalAh == 0 {
		return 0
	}
	return s.RemainingAh / s.TotalAh * 100
}

// AggregateStack rolls per-module readings into a stack-level reading.
// Modules with no cell voltages (a failed or unreachable poll) are
// skipped entirely rather than contributing zeros, matching
// read_all_batteries' `if data and data.get('cells')` guard.
func AggregateStack(modules []ModuleReading) StackReading {
	var s StackReading

	cellMin, cellMax := math.MaxFloat64, -math.MaxFloat64
	tempMin, tempMax := math.MaxFloat64, -math.MaxFloat64
	haveCells, haveTemps := false, false
	var voltageSum float64
	var contributing int

	for _, m := range modules {
		if len(m.Analog.CellVoltagesV) == 0 {
			continue
		}
		contributing++
		s.NumModules++

		var moduleSum float64
		for _, v := range m.Analog.CellVoltagesV {
			moduleSum += v
			if v < cellMin {
				cellMin = v
			}
			if v > cellMax {
				cellMax = v
			}
		}
		haveCells = true
		voltageSum += moduleSum

		for _, t := range m.Analog.TemperaturesC {
			haveTemps = true
			if t < tempMin {
				tempMin = t
			}
			if t > tempMax {
				tempMax = t
			}
		}

		s.CurrentA += m.Analog.CurrentA
		s.RemainingAh += m.Analog.RemainingAh
		s.TotalAh += m.Analog.TotalAh

		if m.Alarm.HasAlarm() {
			s.HasAlarm = true
		}
		if m.Alarm.HasWarning() {
			s.HasWarning = true
		}
		cells := balancingCellIndices(m.Alarm)
		s.BalancingCount += len(cells)
		for _, c := range cells {
			s.BalancingCells = append(s.BalancingCells, fmt.Sprintf("B%dC%d", m.Index, c))
		}
	}

	if haveCells {
		s.CellMinV = cellMin
		s.CellMaxV = cellMax
		s.CellDeltaMV = (cellMax - cellMin) * 1000
	}
	if haveTemps {
		s.TempMinC = tempMin
		s.TempMaxC = tempMax
	}
	if contributing > 0 {
		s.VoltageV = voltageSum / float64(contributing)
	}

	return s
}

// balancingCellIndices returns the 1-based cell indices reported as
// actively balancing, per the empirical extended-status layout (see
// AlarmInfo's doc comment), masked by the balance-on flag at byte index
// 0 of the extended-status block: individual balance bits are only
// meaningful when that master flag is set.
func balancingCellIndices(a AlarmInfo) []int {
	ext := a.ExtendedStatusRaw
	if len(ext) == 0 || ext[0]&0x01 == 0 {
		return nil
	}
	var cells []int
	lo, hi := a.BalanceCellsEmpirical[0], a.BalanceCellsEmpirical[1]
	for bit := 0; bit < 8; bit++ {
		if lo&(1<<uint(bit)) != 0 {
			cells = append(cells, bit+1)
		}
	}
	for bit := 0; bit < 8; bit++ {
		if hi&(1<<uint(bit)) != 0 {
			cells = append(cells, bit+9)
		}
	}
	return cells
}
