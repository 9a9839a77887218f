package modbus

import (
	"context"
	"encoding/binary"
	"io"
	"time"

	gomodbus "github.com/goburrow/modbus"
	"golang.org/x/sync/errgroup"

	"github.com/solarbridge/fleet/internal/infrastructure/logging"
	"github.com/solarbridge/fleet/internal/infrastructure/mqtt"
	"github.com/solarbridge/fleet/internal/telemetry"
)

// Per-scan-group minimum publish interval, ported from
// deye_modbus2mqtt.py's publish_mqtt_data min_interval lookup.
var minIntervalByGroup = map[telemetry.ScanGroup]time.Duration{
	telemetry.ScanGroupFast:   5 * time.Second,
	telemetry.ScanGroupNormal: 15 * time.Second,
	telemetry.ScanGroupSlow:   30 * time.Second,
}

// Client is the read surface a Poller needs from a Modbus client,
// satisfied by *github.com/goburrow/modbus.client and faked in tests.
type Client interface {
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
}

// Dial opens a Modbus-TCP connection to a Deye-profile inverter.
func Dial(address string, unitID byte, timeout time.Duration) (Client, io.Closer, error) {
	handler := gomodbus.NewTCPClientHandler(address)
	handler.Timeout = timeout
	handler.SlaveId = unitID
	if err := handler.Connect(); err != nil {
		return nil, nil, err
	}
	return gomodbus.NewClient(handler), handler, nil
}

// Poller drives the tiered fast/normal/slow scan cycle against a
// connected Modbus client, per deye_modbus2mqtt.py's poll_count modulo
// scheduling (fast every tick, normal every 3rd, slow every 6th).
type Poller struct {
	client     Client
	publisher  *telemetry.Publisher
	supervisor *telemetry.Supervisor
	topics     mqtt.Topics
	logger     *logging.Logger

	fastPeriod time.Duration
	pollCount  int

	frameSignal chan struct{}
}

// NewPoller builds a Poller. frameSignal should be the channel also
// passed to Supervisor.Run — one send per completed scan cycle with at
// least one successfully read register.
func NewPoller(client Client, publisher *telemetry.Publisher, supervisor *telemetry.Supervisor, topics mqtt.Topics, logger *logging.Logger, fastPeriod time.Duration, frameSignal chan struct{}) *Poller {
	return &Poller{
		client:      client,
		publisher:   publisher,
		supervisor:  supervisor,
		topics:      topics,
		logger:      logger,
		fastPeriod:  fastPeriod,
		frameSignal: frameSignal,
	}
}

// Run polls on fastPeriod until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.fastPeriod)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// groupsDue returns which scan groups are due this cycle, per the
// original's 6-tick super-cycle: fast every tick, normal every 3rd
// tick, slow every 6th tick.
func groupsDue(pollCount int) []telemetry.ScanGroup {
	switch {
	case pollCount%6 == 0:
		return []telemetry.ScanGroup{telemetry.ScanGroupFast, telemetry.ScanGroupNormal, telemetry.ScanGroupSlow}
	case pollCount%3 == 0:
		return []telemetry.ScanGroup{telemetry.ScanGroupFast, telemetry.ScanGroupNormal}
	default:
		return []telemetry.ScanGroup{telemetry.ScanGroupFast}
	}
}

func (p *Poller) tick(ctx context.Context) {
	groups := groupsDue(p.pollCount)
	p.pollCount++

	var registers []Register
	for _, g := range groups {
		registers = append(registers, ByScanGroup(g)...)
	}

	results := make([]readResult, len(registers))
	group, _ := errgroup.WithContext(ctx)
	for i, reg := range registers {
		i, reg := i, reg
		group.Go(func() error {
			v, ok := p.readOne(reg)
			results[i] = readResult{reg: reg, value: v, ok: ok}
			return nil
		})
	}
	_ = group.Wait()

	anyOK := false
	for _, r := range results {
		if !r.ok {
			continue
		}
		anyOK = true
		interval := minIntervalByGroup[r.reg.ScanGroup]
		p.publisher.PublishNumeric(p.topics.State(r.reg.Name), r.value, false, interval, nil)
	}

	if anyOK {
		select {
		case p.frameSignal <- struct{}{}:
		default:
		}
	}
}

type readResult struct {
	reg   Register
	value float64
	ok    bool
}

func (p *Poller) readOne(reg Register) (float64, bool) {
	raw, err := p.client.ReadHoldingRegisters(reg.Address, uint16(reg.DataType.WordCount()))
	if err != nil {
		p.logger.Debug("register read failed", "register", reg.Name, "error", err)
		return 0, false
	}

	words := make([]uint16, len(raw)/2)
	for i := range words {
		words[i] = binary.BigEndian.Uint16(raw[i*2 : i*2+2])
	}
	return reg.DecodeValue(words), true
}
