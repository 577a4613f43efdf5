package main

import (
	"image"
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFitScale(t *testing.T) {
	tests := []struct {
		name                     string
		viewW, viewH, bmpW, bmpH float64
		want                     float64
		ok                       bool
	}{
		{"wide page shrinks", 1000, 1000, 2000, 1000, 0.5, true},
		{"tall page shrinks", 1000, 800, 1000, 1600, 0.5, true},
		{"small page keeps native size", 1000, 1000, 200, 100, 1, true},
		{"exact fit", 800, 600, 800, 600, 1, true},
		{"unknown viewport", 0, 0, 200, 100, 0, false},
		{"unknown bitmap", 1000, 1000, 0, 100, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FitScale(tt.viewW, tt.viewH, tt.bmpW, tt.bmpH)
			if ok != tt.ok || !approx(got, tt.want) {
				t.Errorf("FitScale = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func newTestStage(imgW, imgH int) *Stage {
	st := NewStage(defaultMinZoom, defaultMaxZoom)
	st.SetViewport(1000, 1000)
	st.Show(0, &testImage{bounds: image.Rect(0, 0, imgW, imgH)})
	return st
}

func TestStageFitAndScreenRect(t *testing.T) {
	st := newTestStage(2000, 1000)
	if !st.FitToView() {
		t.Fatal("FitToView = false with known sizes")
	}

	x, y, scale := st.ScreenRect()
	if !approx(scale, 0.5) || !approx(x, 0) || !approx(y, 250) {
		t.Errorf("ScreenRect = (%v, %v, %v), want (0, 250, 0.5)", x, y, scale)
	}
	if !st.Zoomed() {
		t.Error("Zoomed() = false at fit scale 0.5")
	}

	rel, ok := st.RelativeX(100)
	if !ok || !approx(rel, 0.1) {
		t.Errorf("RelativeX(100) = (%v, %v), want 0.1", rel, ok)
	}
}

func TestStageSmallImageCentered(t *testing.T) {
	st := newTestStage(200, 100)
	st.FitToView()

	x, y, scale := st.ScreenRect()
	if !approx(scale, 1) || !approx(x, 400) || !approx(y, 450) {
		t.Errorf("ScreenRect = (%v, %v, %v), want (400, 450, 1)", x, y, scale)
	}
	if st.Zoomed() {
		t.Error("Zoomed() = true at native size")
	}
	if rel, _ := st.RelativeX(420); !approx(rel, 0.1) {
		t.Errorf("RelativeX(420) = %v, want 0.1", rel)
	}
}

func TestStageResetZoomAt(t *testing.T) {
	st := newTestStage(2000, 1000)
	st.FitToView()

	// The image point under (500, 500) is (1000, 500)
	st.ResetZoomAt(500, 500)

	if st.Zoomed() {
		t.Errorf("zoom = %v after reset, want 1", st.Zoom())
	}
	ox, oy := st.Offset()
	if !approx(ox, 500) || !approx(oy, 0) {
		t.Errorf("offset = (%v, %v), want (500, 0)", ox, oy)
	}
}

func TestStageScrollClamp(t *testing.T) {
	st := newTestStage(2000, 1500)
	st.ChangeView(0, 0, 1)

	st.ScrollBy(5000, 5000)
	if ox, oy := st.Offset(); !approx(ox, 1000) || !approx(oy, 500) {
		t.Errorf("offset = (%v, %v), want (1000, 500)", ox, oy)
	}
	st.ScrollBy(-9000, -9000)
	if ox, oy := st.Offset(); ox != 0 || oy != 0 {
		t.Errorf("offset = (%v, %v), want (0, 0)", ox, oy)
	}
}

func TestStageZoomBounds(t *testing.T) {
	st := newTestStage(100, 100)

	st.ZoomBy(1000)
	if !approx(st.Zoom(), defaultMaxZoom) {
		t.Errorf("zoom = %v, want clamp to %v", st.Zoom(), defaultMaxZoom)
	}
	st.ZoomBy(1e-6)
	if !approx(st.Zoom(), defaultMinZoom) {
		t.Errorf("zoom = %v, want clamp to %v", st.Zoom(), defaultMinZoom)
	}
	st.ZoomBy(-1)
	if !approx(st.Zoom(), defaultMinZoom) {
		t.Error("negative factor changed the zoom")
	}
}

func TestStageVisibility(t *testing.T) {
	st := NewStage(0, 0)
	if st.Reveal() {
		t.Error("Reveal on an empty stage = true")
	}
	if st.FitToView() {
		t.Error("FitToView on an empty stage = true")
	}

	img := &testImage{bounds: image.Rect(0, 0, 10, 10)}
	st.Show(3, img)
	st.Hide()
	if st.Visible() || st.Image() == nil {
		t.Error("Hide should keep the image bound but invisible")
	}
	if !st.Reveal() || !st.Visible() {
		t.Error("Reveal did not show the bound image")
	}

	if got := st.Clear(); got != img {
		t.Error("Clear did not return the bound image")
	}
	if st.Page() != NoPage || st.Visible() {
		t.Error("Clear left page state behind")
	}
}

func TestStageViewport(t *testing.T) {
	st := NewStage(0, 0)
	if st.ViewportKnown() {
		t.Error("ViewportKnown before SetViewport")
	}
	if !st.SetViewport(640, 480) {
		t.Error("SetViewport reported no change")
	}
	if st.SetViewport(640, 480) {
		t.Error("SetViewport with the same size reported a change")
	}
	if w, h := st.Viewport(); w != 640 || h != 480 {
		t.Errorf("Viewport = %vx%v", w, h)
	}
}
