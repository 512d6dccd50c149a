package firmware

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// DefaultHeartbeatPeriod is the default LED toggle period.
const DefaultHeartbeatPeriod = 500 * time.Millisecond

// Heartbeat toggles led every period until ctx is cancelled, then leaves
// the LED off and returns nil. It is a liveness indicator only and takes no
// part in the protocol; run it in its own goroutine beside Interpreter.Run.
func Heartbeat(ctx context.Context, led gpio.PinOut, period time.Duration) error {
	if period <= 0 {
		period = DefaultHeartbeatPeriod
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	level := gpio.Low
	for {
		select {
		case <-ctx.Done():
			_ = led.Out(gpio.Low)
			return nil
		case <-ticker.C:
			level = !level
			if err := led.Out(level); err != nil {
				return fmt.Errorf("heartbeat led: %w", err)
			}
		}
	}
}
