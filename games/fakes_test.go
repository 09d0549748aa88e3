package games

import (
	"fmt"
	"math/rand/v2"
	"time"
)

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true

	return true
}

// fakeClock fires timers in deadline order, on the calling goroutine, when
// Advance moves time past them.
type fakeClock struct {
	now    time.Duration
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)

	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	target := c.now + d

	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at > target {
				continue
			}
			if next == nil || t.at < next.at {
				next = t
			}
		}
		if next == nil {
			break
		}

		c.now = next.at
		next.fired = true
		next.f()
	}

	c.now = target
}

// Armed counts timers that are neither stopped nor fired.
func (c *fakeClock) Armed() int {
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}

	return n
}

type renderCall struct {
	op      string
	id      int
	x, y    float64
	visible bool
	marker  Marker
}

type recordRenderer struct {
	calls []renderCall
}

func (r *recordRenderer) CreateMarker(m Marker) {
	r.calls = append(r.calls, renderCall{op: "create", id: m.ID, marker: m})
}

func (r *recordRenderer) MoveMarker(id int, x, y float64) {
	r.calls = append(r.calls, renderCall{op: "move", id: id, x: x, y: y})
}

func (r *recordRenderer) SetLabelVisible(id int, visible bool) {
	r.calls = append(r.calls, renderCall{op: "label", id: id, visible: visible})
}

func (r *recordRenderer) SetDisabled(id int, disabled bool) {
	r.calls = append(r.calls, renderCall{op: "disable", id: id, visible: disabled})
}

func (r *recordRenderer) Clear() {
	r.calls = append(r.calls, renderCall{op: "clear"})
}

func (r *recordRenderer) count(op string) int {
	n := 0
	for _, c := range r.calls {
		if c.op == op {
			n++
		}
	}

	return n
}

func (r *recordRenderer) reset() {
	r.calls = nil
}

type recordNotifier struct {
	messages []Message
}

func (n *recordNotifier) Notify(msg Message) {
	n.messages = append(n.messages, msg)
}

func (n *recordNotifier) String() string {
	return fmt.Sprint(n.messages)
}

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}
