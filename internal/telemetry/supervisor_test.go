package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeReporter struct {
	mu     sync.Mutex
	events []bool // true = online, false = offline
}

func (f *fakeReporter) PublishAvailability(_ string, online bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, online)
	return nil
}

func (f *fakeReporter) snapshot() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bool, len(f.events))
	copy(out, f.events)
	return out
}

func TestSupervisor_RetryUntilOpen_ReturnsOnFirstSuccess(t *testing.T) {
	rep := &fakeReporter{}
	sup := NewSupervisor(rep, "t/status", time.Second, nil)

	attempts := 0
	err := sup.RetryUntilOpen(context.Background(), func() error {
		attempts++
		if attempts < 1 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestSupervisor_RetryUntilOpen_CancelledContext(t *testing.T) {
	rep := &fakeReporter{}
	sup := NewSupervisor(rep, "t/status", time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sup.RetryUntilOpen(ctx, func() error {
		return errors.New("always fails")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSupervisor_Run_PublishesOnlineOnFirstFrame(t *testing.T) {
	rep := &fakeReporter{}
	sup := NewSupervisor(rep, "t/status", time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	frames := make(chan struct{})
	done := make(chan struct{})
	go func() {
		sup.Run(ctx, frames)
		close(done)
	}()

	frames <- struct{}{}
	time.Sleep(10 * time.Millisecond)
	cancel()
	<-done

	events := rep.snapshot()
	if len(events) != 1 || events[0] != true {
		t.Fatalf("expected a single online event, got %v", events)
	}
	if sup.State() != AvailabilityOnline {
		t.Fatalf("expected AvailabilityOnline, got %v", sup.State())
	}
}

func TestSupervisor_Run_GoesStaleWithoutFrames(t *testing.T) {
	rep := &fakeReporter{}
	sup := NewSupervisor(rep, "t/status", 20*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	frames := make(chan struct{})
	done := make(chan struct{})
	go func() {
		sup.Run(ctx, frames)
		close(done)
	}()

	frames <- struct{}{}
	time.Sleep(60 * time.Millisecond)
	cancel()
	<-done

	events := rep.snapshot()
	if len(events) < 2 {
		t.Fatalf("expected at least online+offline events, got %v", events)
	}
	if events[0] != true {
		t.Errorf("expected first event online, got %v", events[0])
	}
	if events[len(events)-1] != false {
		t.Errorf("expected last event offline, got %v", events[len(events)-1])
	}
	if sup.State() != AvailabilityStale {
		t.Fatalf("expected AvailabilityStale, got %v", sup.State())
	}
}

func TestSupervisor_Shutdown_PublishesOffline(t *testing.T) {
	rep := &fakeReporter{}
	sup := NewSupervisor(rep, "t/status", time.Hour, nil)

	sup.Shutdown()

	events := rep.snapshot()
	if len(events) != 1 || events[0] != false {
		t.Fatalf("expected a single offline event, got %v", events)
	}
	if sup.State() != AvailabilityOffline {
		t.Fatalf("expected AvailabilityOffline, got %v", sup.State())
	}
}
