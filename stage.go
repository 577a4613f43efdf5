package main

import "math"

const (
	// Zoom factors closer to 1 than this count as unzoomed
	zoomEpsilon = 0.01

	defaultMinZoom = 0.1
	defaultMaxZoom = 8.0
)

// FitScale returns the uniform scale that fits a bitmap into the viewport
// without upscaling past native resolution. ok is false while the viewport
// or bitmap size is unknown.
func FitScale(viewW, viewH, bmpW, bmpH float64) (scale float64, ok bool) {
	if viewW <= 0 || viewH <= 0 || bmpW <= 0 || bmpH <= 0 {
		return 0, false
	}
	scale = math.Min(viewW/bmpW, viewH/bmpH)
	if scale > 1 {
		scale = 1
	}
	return scale, true
}

// Stage holds the presented image and the scroll/zoom view over it, in the
// manner of a scroll viewer: offsets are the content position of the
// viewport's top-left corner, in zoomed pixels.
type Stage struct {
	image   Presentable
	page    int
	visible bool

	viewW, viewH     float64
	zoom             float64
	offsetX, offsetY float64
	minZoom, maxZoom float64
}

// NewStage creates an empty stage
func NewStage(minZoom, maxZoom float64) *Stage {
	if minZoom <= 0 || minZoom > 1 {
		minZoom = defaultMinZoom
	}
	if maxZoom < 1 {
		maxZoom = defaultMaxZoom
	}
	return &Stage{
		page:    NoPage,
		zoom:    1,
		minZoom: minZoom,
		maxZoom: maxZoom,
	}
}

// Show binds img as page and makes it visible
func (st *Stage) Show(page int, img Presentable) {
	st.image = img
	st.page = page
	st.visible = true
}

// Hide makes the image transparent while keeping it bound
func (st *Stage) Hide() {
	st.visible = false
}

// Reveal makes the bound image visible again; false if nothing is bound
func (st *Stage) Reveal() bool {
	if st.image == nil {
		return false
	}
	st.visible = true
	return true
}

// Clear unbinds the image and returns it so the caller can release it
func (st *Stage) Clear() Presentable {
	img := st.image
	st.image = nil
	st.page = NoPage
	st.visible = false
	st.zoom = 1
	st.offsetX, st.offsetY = 0, 0
	return img
}

// Image returns the bound image, which may be hidden
func (st *Stage) Image() Presentable {
	return st.image
}

// Page returns the page index of the bound image
func (st *Stage) Page() int {
	return st.page
}

// Visible reports whether the bound image is shown
func (st *Stage) Visible() bool {
	return st.visible && st.image != nil
}

// SetViewport records the viewport size; it returns true if the size changed
func (st *Stage) SetViewport(w, h float64) bool {
	if w == st.viewW && h == st.viewH {
		return false
	}
	st.viewW, st.viewH = w, h
	st.clampOffsets()
	return true
}

// Viewport returns the viewport size
func (st *Stage) Viewport() (float64, float64) {
	return st.viewW, st.viewH
}

// ViewportKnown reports whether the viewport has a non-zero size
func (st *Stage) ViewportKnown() bool {
	return st.viewW > 0 && st.viewH > 0
}

// Zoom returns the zoom factor
func (st *Stage) Zoom() float64 {
	return st.zoom
}

// Offset returns the scroll offset
func (st *Stage) Offset() (float64, float64) {
	return st.offsetX, st.offsetY
}

// Zoomed reports whether the zoom factor differs from 1
func (st *Stage) Zoomed() bool {
	return math.Abs(st.zoom-1) > zoomEpsilon
}

func (st *Stage) imageSize() (float64, float64) {
	if st.image == nil {
		return 0, 0
	}
	b := st.image.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

// contentOrigin is where zoomed content starts inside the viewport; content
// narrower than the viewport is centered.
func (st *Stage) contentOrigin() (float64, float64) {
	iw, ih := st.imageSize()
	return math.Max(0, (st.viewW-iw*st.zoom)/2), math.Max(0, (st.viewH-ih*st.zoom)/2)
}

// ScreenRect returns where the image is drawn: top-left corner and scale
func (st *Stage) ScreenRect() (x, y, scale float64) {
	ox, oy := st.contentOrigin()
	return ox - st.offsetX, oy - st.offsetY, st.zoom
}

// FitToView applies the fit scale and resets the offset; false while the
// viewport or image size is unknown.
func (st *Stage) FitToView() bool {
	iw, ih := st.imageSize()
	scale, ok := FitScale(st.viewW, st.viewH, iw, ih)
	if !ok {
		return false
	}
	// fit may go below minZoom for very large pages
	st.zoom = scale
	st.offsetX, st.offsetY = 0, 0
	return true
}

// ChangeView sets offset and zoom, clamping both
func (st *Stage) ChangeView(x, y, zoom float64) {
	st.zoom = math.Max(st.minZoom, math.Min(st.maxZoom, zoom))
	st.offsetX, st.offsetY = x, y
	st.clampOffsets()
}

// ScrollBy moves the scroll offset
func (st *Stage) ScrollBy(dx, dy float64) {
	st.offsetX += dx
	st.offsetY += dy
	st.clampOffsets()
}

// ZoomBy multiplies the zoom factor, keeping the viewport center in place
func (st *Stage) ZoomBy(factor float64) {
	if factor <= 0 {
		return
	}
	cx, cy := st.viewW/2, st.viewH/2
	ix, iy := st.contentPoint(cx, cy)
	st.zoom = math.Max(st.minZoom, math.Min(st.maxZoom, st.zoom*factor))
	ox, oy := st.contentOrigin()
	st.offsetX = ix*st.zoom - (cx - ox)
	st.offsetY = iy*st.zoom - (cy - oy)
	st.clampOffsets()
}

// contentPoint maps a viewport point to unzoomed image coordinates
func (st *Stage) contentPoint(x, y float64) (float64, float64) {
	ox, oy := st.contentOrigin()
	return (x - ox + st.offsetX) / st.zoom, (y - oy + st.offsetY) / st.zoom
}

// ResetZoomAt returns to zoom 1 keeping the image point under (x, y) under
// the pointer where the scroll range allows it.
func (st *Stage) ResetZoomAt(x, y float64) {
	ix, iy := st.contentPoint(x, y)
	st.zoom = 1
	ox, oy := st.contentOrigin()
	st.offsetX = math.Max(0, ix-(x-ox))
	st.offsetY = math.Max(0, iy-(y-oy))
	st.clampOffsets()
}

// RelativeX maps a viewport x coordinate to a position relative to the
// image width, or to the viewport width when the zoomed image is wider
// than the viewport. ok is false while sizes are unknown.
func (st *Stage) RelativeX(x float64) (float64, bool) {
	iw, _ := st.imageSize()
	if iw == 0 || st.viewW == 0 {
		return 0, false
	}
	if iw*st.zoom > st.viewW {
		return x / st.viewW, true
	}
	left, _, scale := st.ScreenRect()
	return (x - left) / (iw * scale), true
}

// ZoomedWidth returns the on-screen width of the image
func (st *Stage) ZoomedWidth() float64 {
	iw, _ := st.imageSize()
	return iw * st.zoom
}

func (st *Stage) clampOffsets() {
	iw, ih := st.imageSize()
	maxX := math.Max(0, iw*st.zoom-st.viewW)
	maxY := math.Max(0, ih*st.zoom-st.viewH)
	st.offsetX = math.Max(0, math.Min(maxX, st.offsetX))
	st.offsetY = math.Max(0, math.Min(maxY, st.offsetY))
}
