package buzz

import (
	"context"
	"time"
)

// Clock abstracts timer creation so timed sequences can run against a fake
// clock in tests instead of wall time.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Step is one entry in a timed sequence: run the action, then hold for the
// given duration before the next step. A nil Run is a pure delay.
type Step struct {
	Run  func()
	Hold time.Duration
}

// runSequence executes steps in order on the calling goroutine, waiting out
// each Hold on the provided clock. It stops early when ctx is cancelled.
func runSequence(ctx context.Context, clock Clock, steps []Step) error {
	for _, s := range steps {
		if s.Run != nil {
			s.Run()
		}
		if s.Hold <= 0 {
			continue
		}
		select {
		case <-clock.After(s.Hold):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Startup animation timing: three on/off blinks, then a settle delay before
// the driver reports ready.
const (
	animationCycles  = 3
	animationOnHold  = 350 * time.Millisecond
	animationOffHold = 200 * time.Millisecond
	animationSettle  = 200 * time.Millisecond
)

// startupAnimation builds the LED blink sequence run during initialization.
func startupAnimation(write func(LedState)) []Step {
	allOn := LedState{Player1: true, Player2: true, Player3: true, Player4: true}
	allOff := LedState{}

	var steps []Step
	for i := 0; i < animationCycles; i++ {
		steps = append(steps,
			Step{Run: func() { write(allOn) }, Hold: animationOnHold},
			Step{Run: func() { write(allOff) }, Hold: animationOffHold},
		)
	}
	steps = append(steps, Step{Hold: animationSettle})
	return steps
}
