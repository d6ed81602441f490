package buzz

import "sync"

// StateTracker holds the current pressed/released state of all 20 buttons
// and turns each decoded report into the set of edges since the previous
// one. Updates are atomic per report: simultaneous changes in one report
// yield multiple events from a single Update call, in registry order.
type StateTracker struct {
	mu      sync.Mutex
	pressed [ButtonCount]bool
}

// NewStateTracker returns a tracker with all buttons released.
func NewStateTracker() *StateTracker {
	return &StateTracker{}
}

// Update compares the decoded 24-bit field against the stored state and
// returns one ButtonEvent per button whose state changed, ordered by
// controller 1..4 and button index 0..4. Unchanged buttons produce nothing.
func (t *StateTracker) Update(field uint32) []ButtonEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	var events []ButtonEvent
	for i, btn := range Buttons {
		now := field&btn.Mask != 0
		if now == t.pressed[i] {
			continue
		}
		t.pressed[i] = now
		events = append(events, ButtonEvent{Button: btn, Pressed: now})
	}
	return events
}

// Snapshot returns a copy of the current state, index-aligned with Buttons.
func (t *StateTracker) Snapshot() [ButtonCount]bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pressed
}

// Reset marks every button released without emitting events.
func (t *StateTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pressed = [ButtonCount]bool{}
}
