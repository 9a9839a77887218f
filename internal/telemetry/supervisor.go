package telemetry

import (
	"context"
	"time"

	"github.com/solarbridge/fleet/internal/infrastructure/logging"
)

// initRetryDelay is the fixed backoff between failed bus-open attempts —
// unlike the broker's exponential reconnect, bus Init retry is a flat
// interval, retried indefinitely.
const initRetryDelay = 5 * time.Second

// AvailabilityState is the three-valued per-bridge availability state.
type AvailabilityState int

const (
	// AvailabilityOnline is the normal running state: the bus has recently
	// yielded a valid frame.
	AvailabilityOnline AvailabilityState = iota
	// AvailabilityStale means no valid frame has arrived within the stale
	// timeout; published to the broker as "offline".
	AvailabilityStale
	// AvailabilityOffline is the terminal state set by the last-will
	// mechanism or graceful shutdown.
	AvailabilityOffline
)

// AvailabilityReporter is the thin interface the Supervisor uses to
// publish availability transitions, breaking the cyclic reference between
// supervisor and publisher: the Publisher implements this, the Supervisor
// only depends on the interface.
type AvailabilityReporter interface {
	PublishAvailability(topic string, online bool) error
}

// Supervisor keeps a bridge's public availability signal truthful across
// bus-side faults. It does not own the bus handle —
// that belongs to each bridge's poller — but it does own the Init retry
// helper (RetryUntilOpen) and the stale/online state machine.
type Supervisor struct {
	reporter      AvailabilityReporter
	statusTopic   string
	staleTimeout  time.Duration
	logger        *logging.Logger
	state         AvailabilityState
	lastBusRx     time.Time
}

// NewSupervisor builds a Supervisor for one bridge.
func NewSupervisor(reporter AvailabilityReporter, statusTopic string, staleTimeout time.Duration, logger *logging.Logger) *Supervisor {
	return &Supervisor{
		reporter:     reporter,
		statusTopic:  statusTopic,
		staleTimeout: staleTimeout,
		logger:       logger,
		state:        AvailabilityStale,
	}
}

// RetryUntilOpen repeatedly calls open until it succeeds or ctx is
// cancelled, sleeping initRetryDelay between attempts.
func (s *Supervisor) RetryUntilOpen(ctx context.Context, open func() error) error {
	for {
		if err := open(); err == nil {
			return nil
		} else if s.logger != nil {
			s.logger.Warn("bus open failed, retrying", "error", err, "retry_in", initRetryDelay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(initRetryDelay):
		}
	}
}

// Run multiplexes "frame received" against the stale timeout with a
// select loop, not a separate OS thread contending on the bus handle.
// frames is fed by the bridge's poller: one value per valid frame (CAN),
// per scan cycle with at least one register read (Modbus), or per poll
// pass with at least one module answering (RS485).
func (s *Supervisor) Run(ctx context.Context, frames <-chan struct{}) {
	timer := time.NewTimer(s.staleTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-frames:
			s.onFrame()
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.staleTimeout)
		case <-timer.C:
			s.onStale()
			timer.Reset(s.staleTimeout)
		}
	}
}

func (s *Supervisor) onFrame() {
	s.lastBusRx = time.Now()
	if s.state != AvailabilityOnline {
		wasStale := s.state == AvailabilityStale
		s.state = AvailabilityOnline
		if wasStale && s.logger != nil {
			s.logger.Info("bus recovered, publishing online")
		}
		_ = s.reporter.PublishAvailability(s.statusTopic, true)
	}
}

func (s *Supervisor) onStale() {
	if s.state == AvailabilityOnline || s.state == AvailabilityStale {
		if s.state == AvailabilityOnline && s.logger != nil {
			s.logger.Warn("bus stale, publishing offline", "stale_timeout", s.staleTimeout)
		}
		s.state = AvailabilityStale
		_ = s.reporter.PublishAvailability(s.statusTopic, false)
	}
}

// Shutdown publishes the terminal offline state for a graceful exit.
func (s *Supervisor) Shutdown() {
	s.state = AvailabilityOffline
	_ = s.reporter.PublishAvailability(s.statusTopic, false)
}

// State returns the current availability state, for tests and health
// introspection.
func (s *Supervisor) State() AvailabilityState {
	return s.state
}
