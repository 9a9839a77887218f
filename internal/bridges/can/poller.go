package can

import (
	"context"
	"math"
	"time"

	"github.com/solarbridge/fleet/internal/infrastructure/logging"
	"github.com/solarbridge/fleet/internal/infrastructure/mqtt"
	"github.com/solarbridge/fleet/internal/telemetry"
)

// Reporting cadence/hysteresis constants, ported from pylon_can2mqtt.py's
// module-level tuning constants.
const (
	voltHysteresisV = 0.01
	tempHysteresisC = 0.2

	minIntervalDefault = time.Second
	minIntervalLimits  = 500 * time.Millisecond
	minIntervalSOC     = 5 * time.Second
	minIntervalFlags   = time.Second
	minIntervalExt     = time.Second
	minIntervalDelta   = 2 * time.Second
)

// Poller drives one SocketCAN interface: it reads frames, decodes the
// four recognised arbitration IDs, and publishes results through a
// telemetry.Publisher, feeding the Supervisor a liveness pulse on every
// valid frame.
type Poller struct {
	source     Source
	publisher  *telemetry.Publisher
	supervisor *telemetry.Supervisor
	topics     mqtt.Topics
	logger     *logging.Logger
	frameSignal chan struct{}
}

// NewPoller builds a Poller. frameSignal should be the channel also
// passed to Supervisor.Run — one send per successfully decoded frame.
func NewPoller(source Source, publisher *telemetry.Publisher, supervisor *telemetry.Supervisor, topics mqtt.Topics, logger *logging.Logger, frameSignal chan struct{}) *Poller {
	return &Poller{
		source:      source,
		publisher:   publisher,
		supervisor:  supervisor,
		topics:      topics,
		logger:      logger,
		frameSignal: frameSignal,
	}
}

// Run reads frames until ctx is cancelled or the source's channel closes.
func (p *Poller) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case frm, ok := <-p.source.Frames():
			if !ok {
				return
			}
			if p.decodeAndPublish(frm) {
				select {
				case p.frameSignal <- struct{}{}:
				default:
				}
			}
		}
	}
}

func (p *Poller) decodeAndPublish(frm Frame) bool {
	switch frm.ID {
	case IDLimits:
		l, ok := DecodeLimits(frm.Data)
		if !ok {
			return false
		}
		p.publisher.PublishNumeric(p.topics.GroupedState("limit", "v_charge_max"), round1(l.VChargeMaxV), true, minIntervalLimits, nil)
		p.publisher.PublishNumeric(p.topics.GroupedState("limit", "v_low"), round1(l.VLowLimV), true, minIntervalLimits, nil)
		p.publisher.PublishNumeric(p.topics.GroupedState("limit", "i_charge"), round1(l.IChargeLimA), false, minIntervalLimits, nil)
		p.publisher.PublishNumeric(p.topics.GroupedState("limit", "i_discharge"), round1(l.IDischargeLimA), false, minIntervalLimits, nil)
		return true

	case IDState:
		s, ok := DecodeState(frm.Data)
		if !ok {
			return false
		}
		p.publisher.PublishNumeric(p.topics.State("soc"), s.SOC, false, minIntervalSOC, nil)
		p.publisher.PublishNumeric(p.topics.State("soh"), s.SOH, true, minIntervalSOC, nil)
		return true

	case IDFlags:
		flags, ok := DecodeFlags(frm.Data)
		if !ok {
			return false
		}
		p.publisher.PublishString(p.topics.State("flags"), "0x"+flags, false, minIntervalFlags)
		return true

	case IDExtremes:
		e, ok := DecodeExtremes(frm.Data)
		if !ok {
			return false
		}
		delta := e.CellVMaxV - e.CellVMinV
		p.publisher.PublishNumeric(p.topics.GroupedState("ext", "cell_v_min"), round3(e.CellVMinV), false, minIntervalExt, ptrF(voltHysteresisV))
		p.publisher.PublishNumeric(p.topics.GroupedState("ext", "cell_v_max"), round3(e.CellVMaxV), false, minIntervalExt, ptrF(voltHysteresisV))
		p.publisher.PublishNumeric(p.topics.GroupedState("ext", "cell_v_delta"), round3(delta), false, minIntervalDelta, ptrF(0.005))
		p.publisher.PublishNumeric(p.topics.GroupedState("ext", "temp_min"), round1(e.TempMinC), false, minIntervalExt, ptrF(tempHysteresisC))
		p.publisher.PublishNumeric(p.topics.GroupedState("ext", "temp_max"), round1(e.TempMaxC), false, minIntervalExt, ptrF(tempHysteresisC))
		return true

	default:
		return false
	}
}

func ptrF(f float64) *float64 { return &f }

func round1(f float64) float64 { return math.Round(f*10) / 10 }
func round3(f float64) float64 { return math.Round(f*1000) / 1000 }
