package can

import (
	"context"
	"fmt"

	brutellacan "github.com/brutella/can"
)

// ErrBusUnavailable wraps a SocketCAN interface-open failure.
var ErrBusUnavailable = fmt.Errorf("can: bus unavailable")

// Frame is the minimal view of a received CAN frame this package needs.
type Frame struct {
	ID   uint32
	Data []byte
}

// Source is a live SocketCAN interface. Satisfied by *Bus; faked in tests.
type Source interface {
	Frames() <-chan Frame
	Close() error
}

// Bus wraps a brutella/can bus bound to one SocketCAN interface name
// (e.g. "can0"), publishing every received frame on a channel so it can
// be multiplexed against the telemetry Supervisor's stale timer.
type Bus struct {
	bus    *brutellacan.Bus
	frames chan Frame
	errs   chan error
}

// Open binds to the named SocketCAN interface. The caller must call
// Close when done.
func Open(iface string) (*Bus, error) {
	raw, err := brutellacan.NewBusForInterfaceWithName(iface)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBusUnavailable, iface, err)
	}

	b := &Bus{
		bus:    raw,
		frames: make(chan Frame, 32),
		errs:   make(chan error, 1),
	}

	raw.SubscribeFunc(func(frm brutellacan.Frame) {
		data := make([]byte, frm.Length)
		copy(data, frm.Data[:frm.Length])
		select {
		case b.frames <- Frame{ID: frm.ID, Data: data}:
		default:
			// Slow consumer: drop rather than block the SocketCAN read loop.
		}
	})

	go func() {
		b.errs <- raw.ConnectAndPublish()
	}()

	return b, nil
}

// Frames returns the channel of received frames.
func (b *Bus) Frames() <-chan Frame {
	return b.frames
}

// Run blocks until ctx is cancelled or the underlying bus connection
// fails, returning the latter as an error.
func (b *Bus) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-b.errs:
		return err
	}
}

// Close disconnects the SocketCAN interface.
func (b *Bus) Close() error {
	return b.bus.Disconnect()
}
