package telemetry

import (
	"errors"
	"testing"
	"time"
)

type publishCall struct {
	topic    string
	payload  string
	qos      byte
	retained bool
}

type fakeClient struct {
	calls   []publishCall
	failNext bool
}

func (f *fakeClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if f.failNext {
		f.failNext = false
		return errors.New("fake: publish failed")
	}
	f.calls = append(f.calls, publishCall{topic: topic, payload: string(payload), qos: qos, retained: retained})
	return nil
}

func TestPublisher_FirstValueAlwaysPublishes(t *testing.T) {
	fc := &fakeClient{}
	p := NewPublisher(fc, 1)

	if ok := p.PublishNumeric("t/v", 12.3, true, 0, nil); !ok {
		t.Fatal("expected first publish to succeed")
	}
	if len(fc.calls) != 1 {
		t.Fatalf("expected 1 publish call, got %d", len(fc.calls))
	}
	if fc.calls[0].payload != "12.3" {
		t.Errorf("payload = %q, want %q", fc.calls[0].payload, "12.3")
	}
}

func TestPublisher_NoChangeSuppressed(t *testing.T) {
	fc := &fakeClient{}
	p := NewPublisher(fc, 1)

	p.PublishNumeric("t/v", 12.3, true, 0, nil)
	ok := p.PublishNumeric("t/v", 12.3, true, 0, nil)
	if ok {
		t.Fatal("expected unchanged value to be suppressed")
	}
	if len(fc.calls) != 1 {
		t.Fatalf("expected 1 publish call, got %d", len(fc.calls))
	}
}

func TestPublisher_MinIntervalFloor(t *testing.T) {
	fc := &fakeClient{}
	p := NewPublisher(fc, 1)

	p.PublishNumeric("t/v", 1.0, true, time.Hour, nil)
	// Value changed, but min_interval hasn't elapsed: must be suppressed.
	ok := p.PublishNumeric("t/v", 2.0, true, time.Hour, nil)
	if ok {
		t.Fatal("expected publish within min_interval to be suppressed even though value changed")
	}
	if len(fc.calls) != 1 {
		t.Fatalf("expected 1 publish call, got %d", len(fc.calls))
	}
}

func TestPublisher_HysteresisSuppressesSmallDelta(t *testing.T) {
	fc := &fakeClient{}
	p := NewPublisher(fc, 1)
	hyst := 0.5

	p.PublishNumeric("t/v", 10.0, true, 0, &hyst)
	ok := p.PublishNumeric("t/v", 10.2, true, 0, &hyst)
	if ok {
		t.Fatal("expected small delta within hysteresis to be suppressed")
	}

	ok = p.PublishNumeric("t/v", 10.6, true, 0, &hyst)
	if !ok {
		t.Fatal("expected delta exceeding hysteresis to publish")
	}
	if len(fc.calls) != 2 {
		t.Fatalf("expected 2 publish calls, got %d", len(fc.calls))
	}
}

func TestPublisher_HysteresisIgnoresNonNumeric(t *testing.T) {
	fc := &fakeClient{}
	p := NewPublisher(fc, 1)
	hyst := 0.5

	ok := p.PublishString("t/v", "fault", true, 0)
	if !ok {
		t.Fatal("expected string publish to succeed regardless of hysteresis parameter")
	}
	_ = hyst
}

func TestPublisher_ForceRepublishAfterInterval(t *testing.T) {
	fc := &fakeClient{}
	p := NewPublisher(fc, 1)

	p.PublishNumeric("t/v", 5.0, true, 0, nil)
	st := p.state["t/v"]
	st.lastTS = st.lastTS.Add(-ForcePublishInterval - time.Second)

	ok := p.PublishNumeric("t/v", 5.0, true, 0, nil)
	if !ok {
		t.Fatal("expected force-republish of unchanged value after ForcePublishInterval elapsed")
	}
	if len(fc.calls) != 2 {
		t.Fatalf("expected 2 publish calls, got %d", len(fc.calls))
	}
}

func TestPublisher_TypeChangeAlwaysPublishes(t *testing.T) {
	fc := &fakeClient{}
	p := NewPublisher(fc, 1)
	hyst := 0.5

	p.PublishString("t/v", "unknown", true, 0)
	ok := p.PublishNumeric("t/v", 3.0, true, 0, &hyst)
	if !ok {
		t.Fatal("expected a numeric value replacing a prior string to always publish")
	}
}

func TestPublisher_BrokerErrorDoesNotUpdateCache(t *testing.T) {
	fc := &fakeClient{}
	p := NewPublisher(fc, 1)

	p.PublishNumeric("t/v", 1.0, true, 0, nil)
	fc.failNext = true
	ok := p.PublishNumeric("t/v", 2.0, true, 0, nil)
	if ok {
		t.Fatal("expected publish to report failure when the broker call errors")
	}

	// Cache must still hold the old value: a retry with the same new value
	// should be seen as a change and attempted again.
	ok = p.PublishNumeric("t/v", 2.0, true, 0, nil)
	if !ok {
		t.Fatal("expected retry after a failed publish to still be treated as a change")
	}
}

func TestPublisher_PublishAvailability(t *testing.T) {
	fc := &fakeClient{}
	p := NewPublisher(fc, 1)

	if err := p.PublishAvailability("solarbridge/modbus/status", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc.calls[0].payload != "online" || !fc.calls[0].retained {
		t.Errorf("unexpected call: %+v", fc.calls[0])
	}

	if err := p.PublishAvailability("solarbridge/modbus/status", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc.calls[1].payload != "offline" {
		t.Errorf("unexpected call: %+v", fc.calls[1])
	}
}
