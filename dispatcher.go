package main

import "sync"

// Dispatcher is the UI execution context. Reader, controller, load session,
// stage and overlay state are only touched from functions run by Drain.
// Goroutines (binds, timers, page source workers) hand their results back
// with Post.
type Dispatcher struct {
	mu      sync.Mutex
	pending []func()
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Post queues fn to run on the UI goroutine. Safe from any goroutine.
func (d *Dispatcher) Post(fn func()) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	d.pending = append(d.pending, fn)
	d.mu.Unlock()
}

// Drain runs every queued function on the calling goroutine, including
// functions queued while draining, and returns how many ran.
func (d *Dispatcher) Drain() int {
	ran := 0
	for {
		d.mu.Lock()
		batch := d.pending
		d.pending = nil
		d.mu.Unlock()

		if len(batch) == 0 {
			return ran
		}
		for _, fn := range batch {
			fn()
			ran++
		}
	}
}

// Len returns the number of queued functions
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
