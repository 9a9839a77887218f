package rs485

import (
	"time"

	"go.bug.st/serial"
)

// readTimeout bounds how long a single response read blocks. A read
// that returns no bytes within it makes Do fail with ErrReadTimeout,
// discarding any partial response, so a caller can retry the request
// rather than hang indefinitely on a silent module.
const readTimeout = 500 * time.Millisecond

// Port wraps a go.bug.st/serial connection as a Transport, framing each
// request/response exchange as a single write followed by a delimited
// read up to the trailing '\r', per pylon_rs485_monitor.py's use of a
// blocking read with a fixed serial timeout.
type Port struct {
	conn serial.Port
}

// OpenPort opens the named serial device at the given baud rate, 8N1,
// as pylon_rs485_monitor.py's serial.Serial(port, baud, timeout=1.0)
// does, but with readTimeout (500 ms) as the read timeout.
func OpenPort(name string, baud int) (*Port, error) {
	conn, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}
	if err := conn.SetReadTimeout(readTimeout); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Port{conn: conn}, nil
}

// Do writes a request frame and reads back a single response frame,
// delimited by the trailing '\r' every Pylontech response ends with.
func (p *Port) Do(request []byte) ([]byte, error) {
	if _, err := p.conn.Write(request); err != nil {
		return nil, err
	}

	var resp []byte
	buf := make([]byte, 256)
	for {
		n, err := p.conn.Read(buf)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, ErrReadTimeout
		}
		resp = append(resp, buf[:n]...)
		if len(resp) > 0 && resp[len(resp)-1] == '\r' {
			return resp, nil
		}
	}
}

// Close closes the underlying serial connection.
func (p *Port) Close() error {
	return p.conn.Close()
}
