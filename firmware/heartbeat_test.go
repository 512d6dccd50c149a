package firmware

import (
	"context"
	"sync"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

type fakeLED struct {
	mu      sync.Mutex
	toggles int
	level   gpio.Level
}

func (f *fakeLED) String() string   { return "fake-led" }
func (f *fakeLED) Name() string     { return "fake-led" }
func (f *fakeLED) Number() int      { return -1 }
func (f *fakeLED) Function() string { return "led" }
func (f *fakeLED) Halt() error      { return nil }

func (f *fakeLED) Out(l gpio.Level) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggles++
	f.level = l
	return nil
}

func (f *fakeLED) PWM(d gpio.Duty, freq physic.Frequency) error { return nil }

func (f *fakeLED) state() (int, gpio.Level) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.toggles, f.level
}

func TestHeartbeat(t *testing.T) {
	led := &fakeLED{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Heartbeat(ctx, led, time.Millisecond)
	}()

	// Give it time for several toggles.
	deadline := time.After(2 * time.Second)
	for {
		if n, _ := led.state(); n >= 4 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("heartbeat never toggled")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Heartbeat returned %v, want nil on cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("heartbeat did not stop on cancellation")
	}

	if _, level := led.state(); level != gpio.Low {
		t.Error("LED left on after shutdown")
	}
}
