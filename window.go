package main

import (
	"fmt"
	"image"
)

// Default preload window around the current page
const (
	defaultPreloadBefore = 1
	defaultPreloadAfter  = 5
)

const (
	// NoPage is the current page before anything has been displayed
	NoPage = -1
	// CanceledPage is reported to navigation callbacks whose load was superseded
	CanceledPage = -1
)

// Range is the half-open page index range [Start, Start+Count)
type Range struct {
	Start int
	Count int
}

// End returns the first index past the range
func (r Range) End() int {
	return r.Start + r.Count
}

// Empty reports whether the range holds no pages
func (r Range) Empty() bool {
	return r.Count <= 0
}

// Contains reports whether idx is inside the range
func (r Range) Contains(idx int) bool {
	return idx >= r.Start && idx < r.End()
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End())
}

// Window is the set of ranges the page source is asked to keep materialized.
// Following and Preceding have a zero Count when they would be empty.
type Window struct {
	Primary   Range
	Following Range
	Preceding Range
}

// Ranges returns the non-empty ranges, primary first
func (w Window) Ranges() []Range {
	ranges := []Range{w.Primary}
	if !w.Following.Empty() {
		ranges = append(ranges, w.Following)
	}
	if !w.Preceding.Empty() {
		ranges = append(ranges, w.Preceding)
	}
	return ranges
}

// ComputeWindow derives the preload window for target in a collection of count pages
func ComputeWindow(target, count, before, after int) Window {
	w := Window{Primary: Range{Start: target, Count: 1}}

	last := min(count, target+1+after)
	if last > target+1 {
		w.Following = Range{Start: target + 1, Count: last - target - 1}
	}

	first := max(0, target-before)
	if first < target {
		w.Preceding = Range{Start: first, Count: target - first}
	}

	return w
}

// Page is one entry of the page source. Bitmap is nil until the page has
// been materialized; Err is set when materialization failed and Bitmap holds
// a placeholder.
type Page struct {
	Index  int
	Name   string
	Bitmap image.Image
	Err    error
}

// Materialized reports whether the bitmap is ready
func (p Page) Materialized() bool {
	return p.Bitmap != nil
}

// PageSource is a virtualized page collection that materializes bitmaps on request
type PageSource interface {
	SetDataSource(doc *Document)
	Count() int
	Page(idx int) Page
	// RangesChanged asks the source to materialize the given ranges; primary
	// is one of them and takes priority.
	RangesChanged(primary Range, all []Range)
	// OnRangeReplaced registers fn for materialization events. fn may be
	// called from any goroutine.
	OnRangeReplaced(fn func(start, count int))
	Close()
}

// PresentState describes what the presentation layer is doing with a page
type PresentState int

const (
	PresentHidden PresentState = iota
	PresentLoading
	PresentShown
)

// PagePresenter turns the current page into something on screen
type PagePresenter interface {
	PresentState(idx int) PresentState
	// Present shows page, or hides the image until the page is materialized.
	// done receives the page index, or CanceledPage when superseded.
	Present(page Page, done func(int))
}

// PageWindowController tracks the current page, keeps the page source's
// materialization window around it and records reading progress on the
// document. It must only be used from the UI goroutine.
type PageWindowController struct {
	source    PageSource
	presenter PagePresenter
	doc       *Document

	preloadBefore int
	preloadAfter  int

	current    int
	window     Window
	onProgress func(doc *Document)
}

// NewPageWindowController creates a controller with nothing displayed yet
func NewPageWindowController(source PageSource, presenter PagePresenter, doc *Document, preloadBefore, preloadAfter int) *PageWindowController {
	return &PageWindowController{
		source:        source,
		presenter:     presenter,
		doc:           doc,
		preloadBefore: max(0, preloadBefore),
		preloadAfter:  max(0, preloadAfter),
		current:       NoPage,
	}
}

// OnProgress registers fn to be called whenever the document's reading state changes
func (c *PageWindowController) OnProgress(fn func(doc *Document)) {
	c.onProgress = fn
}

// Current returns the current page index, or NoPage
func (c *PageWindowController) Current() int {
	return c.current
}

// Count returns the number of pages in the source
func (c *PageWindowController) Count() int {
	return c.source.Count()
}

// Window returns the most recently requested window
func (c *PageWindowController) Window() Window {
	return c.window
}

// GoTo makes target the current page. Out-of-range targets and re-navigation
// to a page that is already shown or loading are dropped and return false.
// done, if set, receives the presented index or CanceledPage.
func (c *PageWindowController) GoTo(target int, done func(int)) bool {
	count := c.source.Count()
	if target < 0 || target >= count {
		return false
	}

	if target == c.current {
		switch c.presenter.PresentState(target) {
		case PresentShown, PresentLoading:
			return false
		}
	} else {
		c.window = ComputeWindow(target, count, c.preloadBefore, c.preloadAfter)
		c.source.RangesChanged(c.window.Primary, c.window.Ranges())
		debugLog("Window for page %d: primary %s, ranges %v", target+1, c.window.Primary, c.window.Ranges())
	}

	c.current = target
	c.recordProgress(target, count)
	c.presenter.Present(c.source.Page(target), done)
	return true
}

// StepForward moves to the next page if there is one
func (c *PageWindowController) StepForward(done func(int)) bool {
	next := c.current + 1
	if next >= c.source.Count() {
		return false
	}
	return c.GoTo(next, done)
}

// StepBackward moves to the previous page if there is one
func (c *PageWindowController) StepBackward(done func(int)) bool {
	if c.current <= 0 {
		return false
	}
	return c.GoTo(c.current-1, done)
}

// First jumps to the first page
func (c *PageWindowController) First(done func(int)) bool {
	return c.GoTo(0, done)
}

// Last jumps to the last page
func (c *PageWindowController) Last(done func(int)) bool {
	return c.GoTo(c.source.Count()-1, done)
}

// HandleRangeReplaced reacts to the source finishing pages [start, start+count).
// Only a replacement covering the current page reaches the presenter.
func (c *PageWindowController) HandleRangeReplaced(start, count int) bool {
	if c.current == NoPage || !(Range{Start: start, Count: count}).Contains(c.current) {
		return false
	}
	c.presenter.Present(c.source.Page(c.current), nil)
	return true
}

func (c *PageWindowController) recordProgress(target, count int) {
	if c.doc == nil {
		return
	}
	c.doc.LastReadPageIndex = target
	if target == count-1 {
		c.doc.DoneReading = true
	}
	if c.onProgress != nil {
		c.onProgress(c.doc)
	}
}
