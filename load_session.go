package main

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// ErrCanceled is reported to a load callback whose load was superseded
var ErrCanceled = errors.New("load canceled")

// Presentable is a bound image resource ready for drawing
type Presentable interface {
	Bounds() image.Rectangle
}

// Binder converts a decoded bitmap into a Presentable. Bind runs off the UI
// goroutine and should give up once ctx is done.
type Binder interface {
	Bind(ctx context.Context, bitmap image.Image) (Presentable, error)
	Release(p Presentable)
}

// LoadError is a bind failure for a specific page
type LoadError struct {
	Page int
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading page %d: %v", e.Page+1, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadHandle identifies one Load call
type LoadHandle struct {
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// Canceled reports whether the load was superseded or canceled
func (h *LoadHandle) Canceled() bool {
	return h.ctx.Err() != nil
}

// ImageLoadSession binds at most one bitmap at a time. Starting a load
// cancels the previous one before the new one begins, and a completion is
// only delivered as a result when its generation is still current.
type ImageLoadSession struct {
	binder     Binder
	dispatcher *Dispatcher
	onStart    func()

	gen    uint64
	active *LoadHandle
}

// NewImageLoadSession creates a session. onStart runs synchronously at the
// start of every load; the reader uses it to hide the previous image.
func NewImageLoadSession(binder Binder, dispatcher *Dispatcher, onStart func()) *ImageLoadSession {
	return &ImageLoadSession{
		binder:     binder,
		dispatcher: dispatcher,
		onStart:    onStart,
	}
}

// Load cancels any outstanding load and starts binding bitmap. done runs on
// the dispatcher with the resource, a bind error, or ErrCanceled.
func (s *ImageLoadSession) Load(bitmap image.Image, done func(Presentable, error)) *LoadHandle {
	s.Cancel()
	if s.onStart != nil {
		s.onStart()
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &LoadHandle{gen: s.gen, ctx: ctx, cancel: cancel}
	s.active = h

	binder := s.binder
	go func() {
		var res Presentable
		err := ctx.Err()
		if err == nil {
			res, err = binder.Bind(ctx, bitmap)
		}
		s.dispatcher.Post(func() {
			s.complete(h, res, err, done)
		})
	}()

	return h
}

func (s *ImageLoadSession) complete(h *LoadHandle, res Presentable, err error, done func(Presentable, error)) {
	if h.gen != s.gen || h.ctx.Err() != nil || errors.Is(err, context.Canceled) {
		if res != nil {
			s.binder.Release(res)
		}
		if done != nil {
			done(nil, ErrCanceled)
		}
		return
	}

	s.active = nil
	h.cancel()
	if done != nil {
		done(res, err)
	}
}

// Cancel drops the outstanding load without starting another
func (s *ImageLoadSession) Cancel() {
	if s.active != nil {
		s.active.cancel()
		s.active = nil
	}
	s.gen++
}

// Busy reports whether a load is in flight
func (s *ImageLoadSession) Busy() bool {
	return s.active != nil
}
