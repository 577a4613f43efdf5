package main

import "time"

// Clock creates timers. The real clock wraps time.AfterFunc; tests drive a fake.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc callback
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer is a single-slot delayed action. Scheduling a new action cancels
// the pending one, so only the latest request ever fires. The callback runs
// on the dispatcher, and a generation check drops timers that fired after
// they were superseded but before the dispatcher got to them.
type Debouncer struct {
	clock      Clock
	dispatcher *Dispatcher

	gen   uint64
	timer Timer
}

// NewDebouncer creates a Debouncer firing through the given dispatcher
func NewDebouncer(clock Clock, dispatcher *Dispatcher) *Debouncer {
	return &Debouncer{
		clock:      clock,
		dispatcher: dispatcher,
	}
}

// Schedule replaces any pending action with fn, to run after delay. The
// returned token identifies this action to PendingFor.
func (d *Debouncer) Schedule(delay time.Duration, fn func()) uint64 {
	d.Cancel()
	gen := d.gen
	d.timer = d.clock.AfterFunc(delay, func() {
		d.dispatcher.Post(func() {
			if gen != d.gen {
				return
			}
			d.timer = nil
			fn()
		})
	})
	return gen
}

// Cancel drops the pending action, if any
func (d *Debouncer) Cancel() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Pending reports whether an action is waiting to fire
func (d *Debouncer) Pending() bool {
	return d.timer != nil
}

// PendingFor reports whether the action scheduled with token is still waiting
func (d *Debouncer) PendingFor(token uint64) bool {
	return d.timer != nil && d.gen == token
}
