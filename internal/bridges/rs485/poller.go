package rs485

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/solarbridge/fleet/internal/infrastructure/logging"
	"github.com/solarbridge/fleet/internal/infrastructure/mqtt"
	"github.com/solarbridge/fleet/internal/telemetry"
)

// Reporting hysteresis, ported from pylon_can2mqtt.py's tuning
// constants and applied uniformly across the RS485 bridge since the
// original monitor script has no equivalent per-field tuning of its own.
const (
	voltHysteresisV  = 0.003
	tempHysteresisC  = 0.2
	minInterval      = time.Second
	minIntervalStack = time.Second
)

// Poller drives the address cycle across a stack of N Pylontech
// modules: for each module it requests analog values and alarm info in
// turn, publishes the per-module readings, aggregates the stack-level
// rollup, and signals the Supervisor on every completed pass.
//
// Unlike the CAN bridge, RS485 is request/response rather than push, so
// (as with the Modbus bridge's scan cycle) the Supervisor's liveness
// pulse fires once per pass in which at least one module answered,
// rather than once per frame.
type Poller struct {
	transport  Transport
	numModules int
	publisher  *telemetry.Publisher
	supervisor *telemetry.Supervisor
	topics     mqtt.Topics
	logger     *logging.Logger
	pollPeriod time.Duration

	frameSignal chan struct{}
}

// NewPoller builds a Poller. frameSignal should be the channel also
// passed to Supervisor.Run.
func NewPoller(transport Transport, numModules int, publisher *telemetry.Publisher, supervisor *telemetry.Supervisor, topics mqtt.Topics, logger *logging.Logger, pollPeriod time.Duration, frameSignal chan struct{}) *Poller {
	return &Poller{
		transport:   transport,
		numModules:  numModules,
		publisher:   publisher,
		supervisor:  supervisor,
		topics:      topics,
		logger:      logger,
		pollPeriod:  pollPeriod,
		frameSignal: frameSignal,
	}
}

// Run polls the full module stack on pollPeriod until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.pollPeriod)
	defer ticker.Stop()

	p.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	var modules []ModuleReading
	for i := 0; i < p.numModules; i++ {
		if ctx.Err() != nil {
			return
		}
		reading, ok := p.pollModule(byte(i))
		if !ok {
			continue
		}
		modules = append(modules, reading)
		p.publishModule(reading)
	}

	if len(modules) == 0 {
		p.logger.Warn("no modules responded this pass")
		return
	}

	stack := AggregateStack(modules)
	p.publishStack(stack)

	select {
	case p.frameSignal <- struct{}{}:
	default:
	}
}

func (p *Poller) pollModule(addr byte) (ModuleReading, bool) {
	analog, err := GetAnalogValues(p.transport, addr)
	if err != nil {
		p.logger.Warn("analog request failed", "module", addr, "error", err)
		return ModuleReading{}, false
	}

	alarm, err := GetAlarmInfo(p.transport, addr)
	if err != nil {
		p.logger.Warn("alarm request failed", "module", addr, "error", err)
		alarm = AlarmInfo{}
	}

	return ModuleReading{Index: int(addr), Analog: analog, Alarm: alarm}, true
}

func (p *Poller) publishModule(m ModuleReading) {
	group := "module" + strconv.Itoa(m.Index)
	a := m.Analog

	var cellMin, cellMax float64
	if len(a.CellVoltagesV) > 0 {
		cellMin, cellMax = a.CellVoltagesV[0], a.CellVoltagesV[0]
		for _, v := range a.CellVoltagesV[1:] {
			if v < cellMin {
				cellMin = v
			}
			if v > cellMax {
				cellMax = v
			}
		}
	}

	p.publisher.PublishNumeric(p.topics.GroupedState(group, "soc"), round1(a.SOCPercent()), false, minInterval, nil)
	p.publisher.PublishNumeric(p.topics.GroupedState(group, "voltage"), round2(a.PackVoltageV), true, minInterval, ptrF(voltHysteresisV))
	p.publisher.PublishNumeric(p.topics.GroupedState(group, "current"), round2(a.CurrentA), false, minInterval, nil)
	p.publisher.PublishNumeric(p.topics.GroupedState(group, "cell_v_min"), round3(cellMin), false, minInterval, ptrF(voltHysteresisV))
	p.publisher.PublishNumeric(p.topics.GroupedState(group, "cell_v_max"), round3(cellMax), false, minInterval, ptrF(voltHysteresisV))
	p.publisher.PublishNumeric(p.topics.GroupedState(group, "cell_v_delta_mv"), round1((cellMax-cellMin)*1000), false, minInterval, ptrF(1))
	p.publisher.PublishNumeric(p.topics.GroupedState(group, "cycles"), float64(a.Cycles), true, minInterval, nil)
	p.publisher.PublishString(p.topics.GroupedState(group, "alarm"), alarmPayload(m.Alarm.HasAlarm()), false, minInterval)
	p.publisher.PublishString(p.topics.GroupedState(group, "warning"), alarmPayload(m.Alarm.HasWarning()), false, minInterval)
}

func (p *Poller) publishStack(s StackReading) {
	p.publisher.PublishNumeric(p.topics.GroupedState("stack", "soc"), round1(s.SOCPercent()), false, minIntervalStack, nil)
	p.publisher.PublishNumeric(p.topics.GroupedState("stack", "voltage"), round2(s.VoltageV), true, minIntervalStack, ptrF(voltHysteresisV))
	p.publisher.PublishNumeric(p.topics.GroupedState("stack", "current"), round2(s.CurrentA), false, minIntervalStack, nil)
	p.publisher.PublishNumeric(p.topics.GroupedState("stack", "remaining_ah"), round2(s.RemainingAh), false, minIntervalStack, nil)
	p.publisher.PublishNumeric(p.topics.GroupedState("stack", "total_ah"), round2(s.TotalAh), true, minIntervalStack, nil)
	p.publisher.PublishNumeric(p.topics.GroupedState("stack", "cell_v_min"), round3(s.CellMinV), false, minIntervalStack, ptrF(voltHysteresisV))
	p.publisher.PublishNumeric(p.topics.GroupedState("stack", "cell_v_max"), round3(s.CellMaxV), false, minIntervalStack, ptrF(voltHysteresisV))
	p.publisher.PublishNumeric(p.topics.GroupedState("stack", "cell_v_delta_mv"), round1(s.CellDeltaMV), false, minIntervalStack, ptrF(1))
	p.publisher.PublishNumeric(p.topics.GroupedState("stack", "temp_min"), round1(s.TempMinC), false, minIntervalStack, ptrF(tempHysteresisC))
	p.publisher.PublishNumeric(p.topics.GroupedState("stack", "temp_max"), round1(s.TempMaxC), false, minIntervalStack, ptrF(tempHysteresisC))
	p.publisher.PublishNumeric(p.topics.GroupedState("stack", "balancing_count"), float64(s.BalancingCount), true, minIntervalStack, nil)
	p.publisher.PublishString(p.topics.GroupedState("stack", "balancing_cells"), strings.Join(s.BalancingCells, ","), true, minIntervalStack)
	p.publisher.PublishString(p.topics.GroupedState("stack", "alarm"), alarmPayload(s.HasAlarm), false, minIntervalStack)
	p.publisher.PublishString(p.topics.GroupedState("stack", "warning"), alarmPayload(s.HasWarning), false, minIntervalStack)
}

func alarmPayload(active bool) string {
	if active {
		return "1"
	}
	return "0"
}

func ptrF(f float64) *float64 { return &f }

func round1(f float64) float64 { return math.Round(f*10) / 10 }
func round2(f float64) float64 { return math.Round(f*100) / 100 }
func round3(f float64) float64 { return math.Round(f*1000) / 1000 }
