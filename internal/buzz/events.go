package buzz

import (
	"sync"

	"go.uber.org/zap"
)

// eventKind selects one of the dispatcher's typed channels.
type eventKind int

const (
	eventPress eventKind = iota
	eventRelease
	eventReady
	eventError
)

func (k eventKind) String() string {
	switch k {
	case eventPress:
		return "press"
	case eventRelease:
		return "release"
	case eventReady:
		return "ready"
	case eventError:
		return "error"
	default:
		return "unknown"
	}
}

type listener struct {
	id int
	fn func(any)
}

// dispatcher fans events out to subscribed listeners. Delivery order for a
// given publish matches subscription order. A panicking listener does not
// prevent delivery to the listeners after it.
type dispatcher struct {
	mu     sync.Mutex
	nextID int
	subs   map[eventKind][]listener
	ready  bool
	log    *zap.SugaredLogger
}

func newDispatcher(log *zap.SugaredLogger) *dispatcher {
	return &dispatcher{
		subs: make(map[eventKind][]listener),
		log:  log,
	}
}

// subscribe registers fn for the given kinds under a single handle and
// returns an unsubscribe closure. Subscribing to several kinds at once is
// how "change" listeners are built: one handle, removed from every kind
// together. Unsubscribe is idempotent.
func (d *dispatcher) subscribe(fn func(any), kinds ...eventKind) func() {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	for _, k := range kinds {
		d.subs[k] = append(d.subs[k], listener{id: id, fn: fn})
	}
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for _, k := range kinds {
			d.subs[k] = removeListener(d.subs[k], id)
		}
	}
}

// subscribeReady registers fn for ready events and reports, atomically with
// the registration, whether a ready event was already published. The two
// outcomes are exclusive: a registration that makes it into a concurrent
// publish's snapshot always reports false.
func (d *dispatcher) subscribeReady(fn func(any)) (func(), bool) {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.subs[eventReady] = append(d.subs[eventReady], listener{id: id, fn: fn})
	already := d.ready
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.subs[eventReady] = removeListener(d.subs[eventReady], id)
	}, already
}

// clearReady forgets a published ready event once its session is torn down.
func (d *dispatcher) clearReady() {
	d.mu.Lock()
	d.ready = false
	d.mu.Unlock()
}

func removeListener(ls []listener, id int) []listener {
	for i, l := range ls {
		if l.id == id {
			return append(ls[:i:i], ls[i+1:]...)
		}
	}
	return ls
}

// publish delivers payload to every listener of kind, in FIFO subscription
// order, isolating panics per listener.
func (d *dispatcher) publish(kind eventKind, payload any) {
	d.mu.Lock()
	if kind == eventReady {
		d.ready = true
	}
	ls := make([]listener, len(d.subs[kind]))
	copy(ls, d.subs[kind])
	d.mu.Unlock()

	for _, l := range ls {
		d.deliver(kind, l, payload)
	}
}

func (d *dispatcher) deliver(kind eventKind, l listener, payload any) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorw("listener panicked", "event", kind.String(), "panic", r)
		}
	}()
	l.fn(payload)
}
