package main

import (
	"math"
	"time"
)

const (
	defaultOverlayTimeout = 5000 * time.Millisecond
	defaultTapDelay       = 200 * time.Millisecond
	defaultSliderDelay    = 200 * time.Millisecond
)

// Tap zone boundaries, relative to the image width
const (
	tapBackwardZone = 0.2
	tapForwardZone  = 0.8
)

// TapZone is what a single tap does
type TapZone int

const (
	TapToggleOverlay TapZone = iota
	TapBackward
	TapForward
)

func (z TapZone) String() string {
	switch z {
	case TapBackward:
		return "backward"
	case TapForward:
		return "forward"
	default:
		return "toggle"
	}
}

// ClassifyTap maps a relative horizontal tap position to a zone. Right-to-left
// reading swaps the forward and backward edges.
func ClassifyTap(relX float64, rightToLeft bool) TapZone {
	zone := TapToggleOverlay
	switch {
	case relX < tapBackwardZone:
		zone = TapBackward
	case relX > tapForwardZone:
		zone = TapForward
	}
	if rightToLeft {
		switch zone {
		case TapBackward:
			zone = TapForward
		case TapForward:
			zone = TapBackward
		}
	}
	return zone
}

// Overlay is the transient slider/status bar. It shares the reader's
// debouncer with delayed navigation, so any new delayed request replaces
// the pending one.
type Overlay struct {
	debouncer *Debouncer
	quiet     time.Duration
	visible   bool
}

// NewOverlay creates a hidden overlay that auto-hides after quiet
func NewOverlay(debouncer *Debouncer, quiet time.Duration) *Overlay {
	if quiet <= 0 {
		quiet = defaultOverlayTimeout
	}
	return &Overlay{
		debouncer: debouncer,
		quiet:     quiet,
	}
}

// ShowAfterDelay shows the overlay after d, then arms the auto-hide
func (o *Overlay) ShowAfterDelay(d time.Duration) {
	o.debouncer.Schedule(d, func() {
		o.visible = true
		o.HideAfterDelay(o.quiet)
	})
}

// HideAfterDelay hides the overlay after d
func (o *Overlay) HideAfterDelay(d time.Duration) {
	o.debouncer.Schedule(d, func() {
		o.visible = false
	})
}

// ToggleAfterDelay hides a visible overlay or shows a hidden one after d
func (o *Overlay) ToggleAfterDelay(d time.Duration) {
	if o.visible {
		o.HideAfterDelay(d)
	} else {
		o.ShowAfterDelay(d)
	}
}

// ArmAutoHide schedules the hide after the quiet period
func (o *Overlay) ArmAutoHide() {
	o.HideAfterDelay(o.quiet)
}

// Visible reports whether the overlay is shown
func (o *Overlay) Visible() bool {
	return o.visible
}

// SetQuietPeriod changes the auto-hide delay for future requests
func (o *Overlay) SetQuietPeriod(quiet time.Duration) {
	if quiet > 0 {
		o.quiet = quiet
	}
}

// Overlay bar geometry in screen pixels
const (
	overlayBarHeight = 56.0
	sliderMargin     = 24.0
)

// sliderTrack returns the horizontal extent and vertical center of the
// slider track for a screen of size w x h
func sliderTrack(w, h float64) (x, width, y float64) {
	return sliderMargin, math.Max(0, w-2*sliderMargin), h - overlayBarHeight/2
}

// inOverlayBar reports whether y falls on the overlay bar
func inOverlayBar(y, h float64) bool {
	return y >= h-overlayBarHeight && y <= h
}

// SliderIndexAt maps an x position on the slider track to a page index.
// Right-to-left reading puts the first page on the right.
func SliderIndexAt(x, trackX, trackW float64, count int, rightToLeft bool) int {
	if count <= 0 {
		return NoPage
	}
	if count == 1 || trackW <= 0 {
		return 0
	}
	rel := math.Max(0, math.Min(1, (x-trackX)/trackW))
	if rightToLeft {
		rel = 1 - rel
	}
	return int(math.Round(rel * float64(count-1)))
}

// sliderPosition is the inverse of SliderIndexAt
func sliderPosition(index, count int, trackX, trackW float64, rightToLeft bool) float64 {
	if count <= 1 {
		return trackX
	}
	rel := float64(index) / float64(count-1)
	if rightToLeft {
		rel = 1 - rel
	}
	return trackX + rel*trackW
}
