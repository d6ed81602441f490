package buzz

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

// instantClock fires every timer immediately.
type instantClock struct{}

func (instantClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

// recordingClock remembers the durations it was asked to wait for.
type recordingClock struct {
	waits []time.Duration
}

func (c *recordingClock) After(d time.Duration) <-chan time.Time {
	c.waits = append(c.waits, d)
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func TestRunSequence(t *testing.T) {
	clock := &recordingClock{}

	var ran []string
	steps := []Step{
		{Run: func() { ran = append(ran, "a") }, Hold: 100 * time.Millisecond},
		{Run: func() { ran = append(ran, "b") }},
		{Hold: 50 * time.Millisecond},
		{Run: func() { ran = append(ran, "c") }, Hold: 25 * time.Millisecond},
	}

	if err := runSequence(context.Background(), clock, steps); err != nil {
		t.Fatalf("runSequence() error: %v", err)
	}

	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(ran, want) {
		t.Errorf("actions ran = %v, want %v", ran, want)
	}
	// Zero-hold steps never touch the clock.
	wantWaits := []time.Duration{100 * time.Millisecond, 50 * time.Millisecond, 25 * time.Millisecond}
	if !reflect.DeepEqual(clock.waits, wantWaits) {
		t.Errorf("clock waits = %v, want %v", clock.waits, wantWaits)
	}
}

func TestRunSequenceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A clock that never fires forces the cancellation path.
	block := blockingClock{}

	var ran int
	steps := []Step{
		{Run: func() { ran++ }, Hold: time.Second},
		{Run: func() { ran++ }},
	}

	err := runSequence(ctx, block, steps)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("runSequence() error = %v, want context.Canceled", err)
	}
	if ran != 1 {
		t.Errorf("%d actions ran before cancellation, want 1", ran)
	}
}

type blockingClock struct{}

func (blockingClock) After(time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

func TestStartupAnimationTiming(t *testing.T) {
	clock := &recordingClock{}

	allOn := LedState{Player1: true, Player2: true, Player3: true, Player4: true}
	allOff := LedState{}

	var writes []LedState
	steps := startupAnimation(func(s LedState) { writes = append(writes, s) })

	if err := runSequence(context.Background(), clock, steps); err != nil {
		t.Fatalf("runSequence() error: %v", err)
	}

	wantWrites := []LedState{allOn, allOff, allOn, allOff, allOn, allOff}
	if !reflect.DeepEqual(writes, wantWrites) {
		t.Errorf("led writes = %v, want %v", writes, wantWrites)
	}

	wantWaits := []time.Duration{
		animationOnHold, animationOffHold,
		animationOnHold, animationOffHold,
		animationOnHold, animationOffHold,
		animationSettle,
	}
	if !reflect.DeepEqual(clock.waits, wantWaits) {
		t.Errorf("clock waits = %v, want %v", clock.waits, wantWaits)
	}
}
