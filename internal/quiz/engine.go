// Package quiz implements the lockout round engine: the first handset to
// buzz wins the round, lights its LED alone, and blocks the others until
// the round resets.
package quiz

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/thalaguer/buzzer/internal/buzz"
	"github.com/thalaguer/buzzer/internal/config"
)

// Engine listens for buzzer presses and drives the player LEDs according
// to lockout rules. Settings can be swapped at runtime via Apply, which is
// how config live-reload reaches it.
type Engine struct {
	driver *buzz.Driver
	log    *zap.SugaredLogger

	mu       sync.Mutex
	enabled  bool
	lockout  time.Duration
	unlock   buzz.Color
	locked   int // winning controller of the current round, 0 when armed
	resetTmr *time.Timer
	unsub    func()
}

// NewEngine creates a quiz engine over the driver. Call Start to begin
// listening.
func NewEngine(driver *buzz.Driver, cfg config.QuizConfig, log *zap.SugaredLogger) *Engine {
	e := &Engine{
		driver: driver,
		log:    log.Named("quiz"),
	}
	e.Apply(cfg)
	return e
}

// Apply swaps the engine settings. A round in progress keeps running; the
// new settings take effect from the next press.
func (e *Engine) Apply(cfg config.QuizConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = cfg.Enabled
	e.lockout = time.Duration(cfg.LockoutMs) * time.Millisecond
	e.unlock = buzz.Color(cfg.UnlockColor)
}

// Start subscribes to press events. Idempotent until Stop.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unsub != nil {
		return
	}
	e.unsub = e.driver.OnPress(e.handlePress)
}

// Stop unsubscribes and cancels any pending round reset.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unsub != nil {
		e.unsub()
		e.unsub = nil
	}
	if e.resetTmr != nil {
		e.resetTmr.Stop()
		e.resetTmr = nil
	}
	e.locked = 0
}

// Locked returns the controller holding the current round, or 0 when the
// engine is armed.
func (e *Engine) Locked() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.locked
}

func (e *Engine) handlePress(ev buzz.ButtonEvent) {
	e.mu.Lock()
	if !e.enabled {
		e.mu.Unlock()
		return
	}

	switch {
	case e.locked == 0 && ev.Button.Color == buzz.Red:
		e.lockRound(ev.Button.Controller)
		e.mu.Unlock()
	case e.locked != 0 && ev.Button.Color == e.unlock:
		e.mu.Unlock()
		e.Reset()
	default:
		e.mu.Unlock()
	}
}

// lockRound is called with e.mu held.
func (e *Engine) lockRound(controller int) {
	e.locked = controller
	e.log.Infow("round locked", "controller", controller)

	leds := make([]bool, buzz.Controllers)
	leds[controller-1] = true
	go func() {
		_ = e.driver.SetLedsArray(context.Background(), leds)
	}()

	if e.lockout > 0 {
		if e.resetTmr != nil {
			e.resetTmr.Stop()
		}
		e.resetTmr = time.AfterFunc(e.lockout, e.Reset)
	}
}

// Reset re-arms the engine and darkens all LEDs.
func (e *Engine) Reset() {
	e.mu.Lock()
	if e.locked == 0 {
		e.mu.Unlock()
		return
	}
	e.locked = 0
	if e.resetTmr != nil {
		e.resetTmr.Stop()
		e.resetTmr = nil
	}
	e.mu.Unlock()

	e.log.Infow("round reset")
	go func() {
		_ = e.driver.SetLeds(context.Background(), false, false, false, false)
	}()
}
