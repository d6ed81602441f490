package buzz

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type phase int

const (
	phaseNotStarted phase = iota
	phaseInProgress
	phaseReady
)

// setupAttempt is the shared result of one initialization run. Every caller
// that arrives while the attempt is in flight waits on the same done
// channel; err is written before done is closed.
type setupAttempt struct {
	done chan struct{}
	err  error
}

// Driver is a session with one buzzer receiver. It owns the lifecycle state
// machine, the report pump, the state tracker, and the event dispatcher.
// All methods are safe for concurrent use.
//
// Initialization is lazy: the first operation that needs the device
// (EnsureReady, SetLeds, or a press/release/change subscription) starts
// discovery, claiming, polling, and the startup LED animation. Concurrent
// callers share a single attempt; the device is claimed exactly once.
type Driver struct {
	opener TransportOpener
	clock  Clock
	log    *zap.SugaredLogger

	tracker *StateTracker
	events  *dispatcher

	mu        sync.Mutex
	phase     phase
	attempt   *setupAttempt
	transport Transport
	stopPump  context.CancelFunc
	pumpDone  chan struct{}
	leds      LedState
}

// Option configures a Driver.
type Option func(*Driver)

// WithClock replaces the wall clock used for the startup animation.
func WithClock(c Clock) Option {
	return func(d *Driver) { d.clock = c }
}

// WithLogger attaches a logger. Defaults to a no-op logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(d *Driver) { d.log = log }
}

// New creates a driver session over the given transport opener. The device
// is not touched until the first operation that needs it.
func New(opener TransportOpener, opts ...Option) *Driver {
	d := &Driver{
		opener:  opener,
		clock:   realClock{},
		log:     zap.NewNop().Sugar(),
		tracker: NewStateTracker(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.events = newDispatcher(d.log)
	return d
}

// EnsureReady brings the device to the ready state, running discovery,
// interface claiming, report polling, and the startup animation at most
// once no matter how many goroutines call it concurrently. All concurrent
// callers observe the same outcome. After a failure the phase resets so a
// later call can retry.
//
// Cancelling ctx abandons the wait, not the attempt: an in-flight
// initialization always runs to completion or failure.
func (d *Driver) EnsureReady(ctx context.Context) error {
	d.mu.Lock()
	switch d.phase {
	case phaseReady:
		d.mu.Unlock()
		return nil
	case phaseNotStarted:
		att := &setupAttempt{done: make(chan struct{})}
		d.phase = phaseInProgress
		d.attempt = att
		d.mu.Unlock()
		go d.runSetup(att)
		return d.await(ctx, att)
	default:
		att := d.attempt
		d.mu.Unlock()
		return d.await(ctx, att)
	}
}

func (d *Driver) await(ctx context.Context, att *setupAttempt) error {
	select {
	case <-att.done:
		return att.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runSetup performs one full initialization: open the transport, start the
// report pump, run the LED animation, then mark ready and resolve waiters.
func (d *Driver) runSetup(att *setupAttempt) {
	d.log.Debugw("initializing buzzer receiver")

	tr, err := d.opener.Open()
	if err != nil {
		d.failSetup(att, err)
		return
	}

	pumpCtx, cancel := context.WithCancel(context.Background())
	pumpDone := make(chan struct{})

	d.mu.Lock()
	d.transport = tr
	d.stopPump = cancel
	d.pumpDone = pumpDone
	d.mu.Unlock()

	// Reports flow and decode during the animation; only the animation may
	// write LEDs before the driver is ready.
	go d.readPump(pumpCtx, tr, pumpDone)

	anim := startupAnimation(func(s LedState) { d.writeLeds(tr, s) })
	if err := runSequence(pumpCtx, d.clock, anim); err != nil {
		// Interrupted animation counts as a failed attempt so waiters are
		// released rather than stranded.
		d.failSetup(att, err)
		return
	}

	d.mu.Lock()
	d.phase = phaseReady
	d.mu.Unlock()

	d.log.Infow("buzzer receiver ready")
	d.events.publish(eventReady, nil)

	att.err = nil
	close(att.done)
}

// failSetup rejects every waiter on att with the same *SetupError, resets
// the phase so a later call can retry, and publishes an Error event.
func (d *Driver) failSetup(att *setupAttempt, err error) {
	serr := &SetupError{Err: err}

	d.mu.Lock()
	d.phase = phaseNotStarted
	d.attempt = nil
	d.mu.Unlock()

	att.err = serr
	close(att.done)

	d.log.Errorw("buzzer setup failed", "error", err)
	d.events.publish(eventError, error(serr))
}

// readPump is the single goroutine that turns raw reports into events.
// Decode, state update, and dispatch all run inline here, so reports are
// never processed out of order or concurrently.
func (d *Driver) readPump(ctx context.Context, tr Transport, done chan struct{}) {
	defer close(done)

	buf := make([]byte, 64)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := tr.Read(buf)
		if err != nil {
			if ctx.Err() == nil {
				d.log.Errorw("buzzer read failed", "error", err)
				d.events.publish(eventError, fmt.Errorf("read input report: %w", err))
			}
			return
		}
		if ctx.Err() != nil {
			// A report that raced teardown belongs to the closed session.
			return
		}

		field, err := ParseReport(buf[:n])
		if err != nil {
			// Short keep-alive report, drop without noise.
			continue
		}

		for _, e := range d.tracker.Update(field) {
			if e.Pressed {
				d.events.publish(eventPress, e)
			} else {
				d.events.publish(eventRelease, e)
			}
		}
	}
}

// SetLeds waits for readiness, then commands the four player LEDs. Write
// failures are reported through the Error event channel, never returned:
// a flaky LED must not abort the flows built on top of it.
func (d *Driver) SetLeds(ctx context.Context, p1, p2, p3, p4 bool) error {
	if err := d.EnsureReady(ctx); err != nil {
		return err
	}

	d.mu.Lock()
	tr := d.transport
	d.mu.Unlock()

	state := LedState{Player1: p1, Player2: p2, Player3: p3, Player4: p4}
	d.writeLeds(tr, state)
	return nil
}

// SetLedsArray is SetLeds taking a players slice. The slice must hold
// exactly 4 entries; anything else fails with ErrInvalidArgument before
// the device is touched.
func (d *Driver) SetLedsArray(ctx context.Context, players []bool) error {
	if len(players) != 4 {
		return fmt.Errorf("%w: want 4 player states, got %d", ErrInvalidArgument, len(players))
	}
	return d.SetLeds(ctx, players[0], players[1], players[2], players[3])
}

// writeLeds performs one best-effort LED write: primary 8-byte report
// first, 6-byte fallback if the device rejects it, one Error event if both
// fail. Never retried beyond the fallback.
func (d *Driver) writeLeds(tr Transport, state LedState) {
	if tr == nil {
		d.events.publish(eventError, error(&LedWriteError{State: state, Err: ErrClosed}))
		return
	}

	_, err := tr.Write(state.Encode())
	if err != nil {
		d.log.Debugw("primary led report rejected, trying short form", "error", err)
		_, err = tr.Write(state.EncodeShort())
	}
	if err != nil {
		d.log.Warnw("led write failed", "error", err)
		d.events.publish(eventError, error(&LedWriteError{State: state, Err: err}))
		return
	}

	d.mu.Lock()
	d.leds = state
	d.mu.Unlock()
}

// Leds returns the last successfully commanded LED state.
func (d *Driver) Leds() LedState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.leds
}

// kickstart starts initialization in the background for the lazy
// subscription entry points. Failures surface as Error events.
func (d *Driver) kickstart() {
	go func() {
		_ = d.EnsureReady(context.Background())
	}()
}

func buttonListener(fn func(ButtonEvent)) func(any) {
	return func(payload any) {
		if e, ok := payload.(ButtonEvent); ok {
			fn(e)
		}
	}
}

// OnPress registers fn for press edges and lazily initializes the device.
// The returned closure unsubscribes; calling it more than once is a no-op.
func (d *Driver) OnPress(fn func(ButtonEvent)) func() {
	unsub := d.events.subscribe(buttonListener(fn), eventPress)
	d.kickstart()
	return unsub
}

// OnRelease registers fn for release edges and lazily initializes the
// device.
func (d *Driver) OnRelease(fn func(ButtonEvent)) func() {
	unsub := d.events.subscribe(buttonListener(fn), eventRelease)
	d.kickstart()
	return unsub
}

// OnChange registers fn for both press and release edges under a single
// handle: unsubscribing stops both.
func (d *Driver) OnChange(fn func(ButtonEvent)) func() {
	unsub := d.events.subscribe(buttonListener(fn), eventPress, eventRelease)
	d.kickstart()
	return unsub
}

// OnReady registers fn for the ready transition. If the driver is already
// ready the callback fires immediately (asynchronously) instead, so late
// subscribers are not left waiting for an event that already happened.
// Each ready transition reaches a subscriber exactly once, whichever side
// of the transition the registration lands on.
func (d *Driver) OnReady(fn func()) func() {
	unsub, ready := d.events.subscribeReady(func(any) { fn() })
	if ready {
		go fn()
	}
	return unsub
}

// OnError registers fn for setup, read, and LED-write failures. Purely
// passive: it does not trigger initialization.
func (d *Driver) OnError(fn func(error)) func() {
	return d.events.subscribe(func(payload any) {
		if err, ok := payload.(error); ok {
			fn(err)
		}
	}, eventError)
}

// Close tears the session down: it waits out any in-flight initialization
// attempt, stops the report pump, releases the device, and clears all
// button state. After Close the driver is back at not-started and the next
// operation runs a fresh initialization. Safe to call at any point,
// including before the first EnsureReady.
func (d *Driver) Close(ctx context.Context) error {
	d.mu.Lock()
	att := d.attempt
	inProgress := d.phase == phaseInProgress
	d.mu.Unlock()

	// Claiming is not cancellable; an in-flight attempt runs to completion
	// or failure before teardown is observed.
	if inProgress && att != nil {
		select {
		case <-att.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	d.mu.Lock()
	stop := d.stopPump
	tr := d.transport
	pumpDone := d.pumpDone
	d.stopPump = nil
	d.transport = nil
	d.pumpDone = nil
	d.attempt = nil
	d.phase = phaseNotStarted
	d.leds = LedState{}
	d.mu.Unlock()

	d.events.clearReady()

	if stop != nil {
		stop()
	}

	var err error
	if tr != nil {
		// Closing the transport unblocks the pump's pending Read.
		err = tr.Close()
	}

	if pumpDone != nil {
		select {
		case <-pumpDone:
		case <-ctx.Done():
			// Teardown is already signaled; the next session must not
			// inherit pressed state from this one.
			d.tracker.Reset()
			return ctx.Err()
		}
	}

	d.tracker.Reset()
	d.log.Debugw("buzzer session closed")
	return err
}
