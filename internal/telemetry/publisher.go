package telemetry

import (
	"strconv"
	"sync"
	"time"
)

// ForcePublishInterval bounds the gap between successive publishes of an
// unchanged value. This is the liveness guarantee that lets a downstream
// consumer detect a stuck-but-alive sensor.
const ForcePublishInterval = 60 * time.Second

// MQTTClient is the narrow publish surface the Publisher needs. Satisfied
// by *mqtt.Client; faked in tests.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// value is a tagged last-value: a stored reading is either numeric or
// text, and a type change always counts as "changed".
type value struct {
	isNumeric bool
	numeric   float64
	text      string
}

func numericValue(f float64) value { return value{isNumeric: true, numeric: f} }
func textValue(s string) value     { return value{text: s} }

func (v value) equal(o value) bool {
	if v.isNumeric != o.isNumeric {
		return false
	}
	if v.isNumeric {
		return v.numeric == o.numeric
	}
	return v.text == o.text
}

func (v value) payload() []byte {
	if v.isNumeric {
		return []byte(strconv.FormatFloat(v.numeric, 'f', -1, 64))
	}
	return []byte(v.text)
}

// publishState is the per-topic cache entry.
type publishState struct {
	last   value
	hasAny bool
	lastTS time.Time
}

// Publisher translates a stream of (topic, value) pairs into broker
// publishes that are quiet (no spam on unchanged values) and live (a
// refresh is guaranteed within ForcePublishInterval).
//
// There is exactly one Publisher per bridge process, fed from the single
// polling/decode goroutine, so the mutex here is a safeguard rather than
// a response to genuine cross-thread fan-out. The Announcer publishes
// through the MQTT client directly and never touches this cache.
type Publisher struct {
	client MQTTClient
	qos    byte

	mu    sync.Mutex
	state map[string]*publishState
}

// NewPublisher builds a Publisher around an already-connected MQTT client.
func NewPublisher(client MQTTClient, qos byte) *Publisher {
	return &Publisher{
		client: client,
		qos:    qos,
		state:  make(map[string]*publishState),
	}
}

// PublishNumeric publishes a numeric reading. hysteresis, if non-nil, is
// the minimum absolute change required to trigger publication; a nil
// hysteresis falls back to plain change detection.
func (p *Publisher) PublishNumeric(topic string, v float64, retain bool, minInterval time.Duration, hysteresis *float64) bool {
	return p.publish(topic, numericValue(v), retain, minInterval, hysteresis)
}

// PublishString publishes a string reading. Strings are always compared
// literally; hysteresis does not apply.
func (p *Publisher) PublishString(topic, v string, retain bool, minInterval time.Duration) bool {
	return p.publish(topic, textValue(v), retain, minInterval, nil)
}

// publish applies the quiet/live decision order: skip when the last
// publish is younger than minInterval; otherwise publish a first value,
// any value once the last publish is ForcePublishInterval old, or a
// changed value (with hysteresis: a numeric change of at least the
// hysteresis, and non-numerics are skipped); otherwise skip.
func (p *Publisher) publish(topic string, v value, retain bool, minInterval time.Duration, hysteresis *float64) bool {
	now := time.Now()

	p.mu.Lock()
	st, ok := p.state[topic]
	if !ok {
		st = &publishState{}
		p.state[topic] = st
	}

	// 1. Hard floor: even a changed value is suppressed within min_interval.
	if ok && now.Sub(st.lastTS) < minInterval {
		p.mu.Unlock()
		return false
	}

	forceDue := ok && now.Sub(st.lastTS) >= ForcePublishInterval

	var shouldPublish bool
	switch {
	case hysteresis != nil:
		// 3. Hysteresis only applies to numerics.
		if !v.isNumeric {
			p.mu.Unlock()
			return false
		}
		if !st.hasAny || forceDue {
			shouldPublish = true
		} else if st.last.isNumeric {
			shouldPublish = absFloat(v.numeric-st.last.numeric) >= *hysteresis
		} else {
			// Previous value was text; a numeric now is a type change.
			shouldPublish = true
		}
	default:
		// 4. No hysteresis: publish on any change, or force-due.
		shouldPublish = !st.hasAny || forceDue || !v.equal(st.last)
	}

	if !shouldPublish {
		p.mu.Unlock()
		return false
	}
	p.mu.Unlock()

	// 5. Broker errors are swallowed; the cache is updated only on success.
	if err := p.client.Publish(topic, v.payload(), p.qos, retain); err != nil {
		return false
	}

	p.mu.Lock()
	st.last = v
	st.hasAny = true
	st.lastTS = now
	p.mu.Unlock()

	return true
}

// PublishAvailability publishes the retained online/offline status used
// by the Supervisor's state machine. Unlike PublishNumeric/PublishString
// this bypasses the per-topic cache entirely: availability transitions are
// already rate-limited by the state machine driving them, and a retained
// last-will topic must always reflect the latest call, not a cached one.
func (p *Publisher) PublishAvailability(topic string, online bool) error {
	payload := "offline"
	if online {
		payload = "online"
	}
	return p.client.Publish(topic, []byte(payload), p.qos, true)
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
