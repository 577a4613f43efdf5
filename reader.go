package main

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	zoomStep = 1.25
	panStep  = 64.0
)

// Reader is the single-page reader view. It presents the controller's
// current page through the load session and runs the presentation loop:
// fit-to-view, zoom and pan, tap zones, swipes, the position slider and the
// transient overlay. Every method must run on the dispatcher's goroutine.
type Reader struct {
	config       Config
	configStatus ConfigLoadResult

	dispatcher *Dispatcher
	source     PageSource
	binder     Binder
	store      *ProgressStore

	session    *ImageLoadSession
	stage      *Stage
	debouncer  *Debouncer
	overlay    *Overlay
	controller *PageWindowController
	doc        *Document

	loadingPage int
	pageName    string
	pageErr     error

	fitted     bool
	fitPending bool

	sliderDragging bool
	sliderValue    int
	sliderNav      uint64

	overlayMessage     string
	overlayMessageTime time.Time

	showingHelp   bool
	fullscreen    bool
	exitRequested bool
}

// NewReader creates a reader with nothing attached
func NewReader(config Config, source PageSource, binder Binder, store *ProgressStore, clock Clock, dispatcher *Dispatcher) *Reader {
	if clock == nil {
		clock = realClock{}
	}

	stage := NewStage(config.MinZoom, config.MaxZoom)
	debouncer := NewDebouncer(clock, dispatcher)

	r := &Reader{
		config:      config,
		dispatcher:  dispatcher,
		source:      source,
		binder:      binder,
		store:       store,
		stage:       stage,
		debouncer:   debouncer,
		overlay:     NewOverlay(debouncer, config.OverlayTimeout()),
		session:     NewImageLoadSession(binder, dispatcher, stage.Hide),
		loadingPage: NoPage,
		sliderValue: NoPage,
		fullscreen:  config.Fullscreen,
	}

	source.OnRangeReplaced(func(start, count int) {
		dispatcher.Post(func() {
			r.onRangeReplaced(start, count)
		})
	})

	return r
}

// Attach binds the reader to doc and opens it at its last read page
func (r *Reader) Attach(doc *Document) {
	if r.doc != nil {
		r.Detach()
	}

	r.doc = doc
	r.source.SetDataSource(doc)
	r.controller = NewPageWindowController(r.source, r, doc, r.config.PreloadBefore, r.config.PreloadAfter)
	r.controller.OnProgress(func(doc *Document) {
		if r.store != nil {
			r.store.Record(doc)
		}
	})

	start := doc.LastReadPageIndex
	if start < 0 || start >= doc.PageCount() {
		start = 0
	}
	logger.Info("opened document", "name", doc.Name, "pages", doc.PageCount(), "start", start+1)

	if r.controller.GoTo(start, nil) {
		r.overlay.ShowAfterDelay(0)
	}
}

// Detach drops the document, pending work and the bound image
func (r *Reader) Detach() {
	r.session.Cancel()
	r.debouncer.Cancel()
	if img := r.stage.Clear(); img != nil {
		r.binder.Release(img)
	}

	r.controller = nil
	r.doc = nil
	r.loadingPage = NoPage
	r.pageName = ""
	r.pageErr = nil
	r.sliderValue = NoPage
	r.sliderDragging = false
	r.sliderNav = 0
	r.fitted = false
	r.fitPending = false
}

func (r *Reader) onRangeReplaced(start, count int) {
	if r.controller == nil {
		return
	}
	// The pending slider navigation presents whatever page it lands on
	if r.sliderNavigating() {
		debugLog("Slider navigation pending, ignoring %d replaced pages from %d", count, start+1)
		return
	}
	r.controller.HandleRangeReplaced(start, count)
}

// PresentState reports whether page idx is loading, shown or hidden
func (r *Reader) PresentState(idx int) PresentState {
	switch {
	case r.loadingPage == idx:
		return PresentLoading
	case r.stage.Page() == idx && r.stage.Visible():
		return PresentShown
	default:
		return PresentHidden
	}
}

// Present starts showing page. A page without a bitmap cancels any load
// in flight and keeps the image hidden until the source replaces it.
func (r *Reader) Present(page Page, done func(int)) {
	r.pageName = page.Name
	r.sliderValue = page.Index

	if !page.Materialized() {
		r.session.Cancel()
		r.loadingPage = NoPage
		r.stage.Hide()
		debugLog("Page %d not materialized yet, waiting", page.Index+1)
		if done != nil {
			done(page.Index)
		}
		return
	}

	r.loadingPage = page.Index
	r.session.Load(page.Bitmap, func(res Presentable, err error) {
		r.completeLoad(page, res, err, done)
	})
}

func (r *Reader) completeLoad(page Page, res Presentable, err error, done func(int)) {
	if errors.Is(err, ErrCanceled) {
		if done != nil {
			done(CanceledPage)
		}
		return
	}
	r.loadingPage = NoPage

	if err != nil {
		r.reportLoadFailure(&LoadError{Page: page.Index, Err: err})
		r.stage.Reveal()
		if done != nil {
			done(page.Index)
		}
		return
	}

	if old := r.stage.Image(); old != nil && old != res {
		r.binder.Release(old)
	}
	r.stage.Show(page.Index, res)
	r.pageErr = page.Err
	if page.Err != nil {
		r.ShowOverlayMessage(fmt.Sprintf("Page %d could not be decoded", page.Index+1))
	}
	r.applyFit()

	if done != nil {
		done(page.Index)
	}
}

func (r *Reader) reportLoadFailure(err *LoadError) {
	logger.Error("failed to present page", "page", err.Page+1, "error", err.Err)
	r.ShowOverlayMessage(err.Error())
}

// applyFit fits the image to the viewport, inline or on the next dispatcher
// turn depending on fit_deferred. An unknown viewport defers the fit until
// SetViewport.
func (r *Reader) applyFit() {
	if !r.config.FitDeferred {
		r.fitNow()
		return
	}
	page := r.stage.Page()
	r.dispatcher.Post(func() {
		if r.stage.Page() == page {
			r.fitNow()
		}
	})
}

func (r *Reader) fitNow() {
	if r.stage.FitToView() {
		r.fitted = true
		r.fitPending = false
		return
	}
	r.fitPending = true
}

// SetViewport records the view size, fitting the image if it was waiting
// for a size or is still at its fit scale
func (r *Reader) SetViewport(w, h float64) {
	if !r.stage.SetViewport(w, h) {
		return
	}
	if r.fitPending || r.fitted {
		r.fitNow()
	}
}

// NavigateNext turns to the following page
func (r *Reader) NavigateNext() {
	if r.controller == nil || r.sliderDragging {
		return
	}
	r.navigate(func() bool { return r.controller.StepForward(r.afterStep) })
}

// NavigatePrevious turns to the preceding page
func (r *Reader) NavigatePrevious() {
	if r.controller == nil || r.sliderDragging {
		return
	}
	r.navigate(func() bool { return r.controller.StepBackward(r.afterStep) })
}

// JumpToPage goes to a 1-based page number
func (r *Reader) JumpToPage(page int) {
	if r.controller == nil || r.sliderDragging {
		return
	}
	r.navigate(func() bool { return r.controller.GoTo(page-1, r.afterStep) })
}

// navigate runs a key navigation in place of any slider move that has not
// fired yet. If the key goes nowhere, the page the slider hid comes back.
func (r *Reader) navigate(step func() bool) {
	canceled := r.cancelSliderNavigation()
	if !step() && canceled {
		r.controller.GoTo(r.controller.Current(), nil)
	}
}

func (r *Reader) afterStep(idx int) {
	if idx == CanceledPage {
		return
	}
	r.overlay.ArmAutoHide()
}

// SliderChanged hides the image and navigates to index once the slider
// has been still for the slider delay
func (r *Reader) SliderChanged(index int) {
	if r.controller == nil || r.controller.Current() == NoPage {
		return
	}
	if index < 0 || index >= r.controller.Count() {
		return
	}
	if index == r.controller.Current() && index == r.sliderValue && r.stage.Visible() {
		return
	}

	r.sliderValue = index
	r.stage.Hide()
	r.sliderNav = r.debouncer.Schedule(r.config.SliderDelay(), func() {
		r.controller.GoTo(index, nil)
		r.overlay.ArmAutoHide()
	})
}

func (r *Reader) sliderNavigating() bool {
	return r.sliderNav != 0 && r.debouncer.PendingFor(r.sliderNav)
}

// cancelSliderNavigation drops a slider move that has not fired yet
func (r *Reader) cancelSliderNavigation() bool {
	pending := r.sliderNavigating()
	if pending {
		r.debouncer.Cancel()
	}
	r.sliderNav = 0
	return pending
}

// SetSliderDragging marks the slider as held; keyboard navigation is ignored meanwhile
func (r *Reader) SetSliderDragging(dragging bool) {
	r.sliderDragging = dragging
}

// TapAt handles a single tap at viewport coordinates
func (r *Reader) TapAt(x, y float64) {
	relX, ok := r.stage.RelativeX(x)
	if !ok {
		vw, _ := r.stage.Viewport()
		if vw <= 0 {
			return
		}
		relX = x / vw
	}
	r.TapRelative(relX)
}

// TapRelative handles a tap at a position relative to the image width
func (r *Reader) TapRelative(relX float64) {
	if r.controller == nil {
		return
	}

	zone := ClassifyTap(relX, r.config.RightToLeft)
	debugLog("Tap at %.2f: %s", relX, zone)

	switch zone {
	case TapBackward:
		r.debouncer.Schedule(r.config.TapDelay(), func() {
			r.controller.StepBackward(r.afterStep)
		})
	case TapForward:
		r.debouncer.Schedule(r.config.TapDelay(), func() {
			r.controller.StepForward(r.afterStep)
		})
	default:
		r.overlay.ToggleAfterDelay(r.config.TapDelay())
	}
}

// DoubleTapAt cancels the pending tap and toggles between native size at
// the tapped point and fit-to-view
func (r *Reader) DoubleTapAt(x, y float64) {
	r.debouncer.Cancel()
	if r.overlay.Visible() {
		r.overlay.ArmAutoHide()
	}

	if r.stage.Image() == nil {
		return
	}
	if r.stage.Zoomed() {
		r.stage.ResetZoomAt(x, y)
		r.fitted = false
		return
	}
	r.fitNow()
}

// PanBy moves the view by a drag delta in screen pixels
func (r *Reader) PanBy(dx, dy float64) {
	s := r.config.Mouse.DragSensitivity
	if s <= 0 {
		s = 1
	}
	r.stage.ScrollBy(-dx*s, -dy*s)
}

// PinchBy multiplies the zoom by an incremental gesture scale
func (r *Reader) PinchBy(scale float64) {
	if scale <= 0 || r.stage.Image() == nil {
		return
	}
	r.stage.ZoomBy(scale)
	r.fitted = false
}

// DragCompleted turns a drag wider than half the zoomed image into a page
// turn. It returns true if the drag navigated.
func (r *Reader) DragCompleted(netDx float64) bool {
	if r.controller == nil {
		return false
	}
	width := r.stage.ZoomedWidth()
	if width <= 0 || math.Abs(netDx) <= width/2 {
		return false
	}

	forward := netDx < 0
	if r.config.RightToLeft {
		forward = !forward
	}
	debugLog("Swipe %.0fpx (image %.0fpx), forward=%v", netDx, width, forward)

	if forward {
		return r.controller.StepForward(r.afterStep)
	}
	return r.controller.StepBackward(r.afterStep)
}

// ZoomIn zooms in around the viewport center
func (r *Reader) ZoomIn() {
	r.PinchBy(zoomStep)
}

// ZoomOut zooms out around the viewport center
func (r *Reader) ZoomOut() {
	r.PinchBy(1 / zoomStep)
}

// ZoomReset returns to native size around the viewport center
func (r *Reader) ZoomReset() {
	if r.stage.Image() == nil {
		return
	}
	vw, vh := r.stage.Viewport()
	r.stage.ResetZoomAt(vw/2, vh/2)
	r.fitted = false
}

// ZoomFit re-applies fit-to-view
func (r *Reader) ZoomFit() {
	if r.stage.Image() == nil {
		return
	}
	r.fitNow()
}

// PanUp, PanDown, PanLeft and PanRight scroll by a fixed step
func (r *Reader) PanUp()    { r.stage.ScrollBy(0, -panStep) }
func (r *Reader) PanDown()  { r.stage.ScrollBy(0, panStep) }
func (r *Reader) PanLeft()  { r.stage.ScrollBy(-panStep, 0) }
func (r *Reader) PanRight() { r.stage.ScrollBy(panStep, 0) }

// ToggleOverlay shows or hides the slider and status bar
func (r *Reader) ToggleOverlay() {
	r.overlay.ToggleAfterDelay(0)
}

// ToggleHelp shows or hides the help screen
func (r *Reader) ToggleHelp() {
	r.showingHelp = !r.showingHelp
}

// ToggleFullscreen flips the fullscreen flag; the game applies it to the window
func (r *Reader) ToggleFullscreen() {
	r.fullscreen = !r.fullscreen
}

// ToggleReadingDirection swaps tap zones and swipe directions
func (r *Reader) ToggleReadingDirection() {
	r.config.RightToLeft = !r.config.RightToLeft
	if r.config.RightToLeft {
		r.ShowOverlayMessage("Reading direction: Right to Left")
	} else {
		r.ShowOverlayMessage("Reading direction: Left to Right")
	}
}

// Exit asks the game loop to stop
func (r *Reader) Exit() {
	r.exitRequested = true
}

// ShowOverlayMessage shows a short-lived message in the middle of the screen
func (r *Reader) ShowOverlayMessage(message string) {
	r.overlayMessage = message
	r.overlayMessageTime = time.Now()
}

// ApplyConfig adopts a reloaded configuration. Window and cache settings
// take effect on the next start.
func (r *Reader) ApplyConfig(result ConfigLoadResult) {
	c := result.Config
	r.config.RightToLeft = c.RightToLeft
	r.config.TapDelayMs = c.TapDelayMs
	r.config.SliderDelayMs = c.SliderDelayMs
	r.config.OverlayTimeoutMs = c.OverlayTimeoutMs
	r.config.FitDeferred = c.FitDeferred
	r.config.FontSize = c.FontSize
	r.config.Keybindings = c.Keybindings
	r.config.Mousebindings = c.Mousebindings
	r.config.Mouse = c.Mouse
	r.configStatus = result
	r.overlay.SetQuietPeriod(c.OverlayTimeout())
	r.ShowOverlayMessage("Config reloaded: " + result.Status)
}

// SetConfigStatus records how the configuration was loaded
func (r *Reader) SetConfigStatus(result ConfigLoadResult) {
	r.configStatus = result
}

// Render state

func (r *Reader) CurrentImage() Presentable { return r.stage.Image() }
func (r *Reader) ImageVisible() bool        { return r.stage.Visible() }
func (r *Reader) IsLoading() bool           { return r.loadingPage != NoPage }
func (r *Reader) IsOverlayVisible() bool    { return r.overlay.Visible() }
func (r *Reader) IsShowingHelp() bool       { return r.showingHelp }
func (r *Reader) IsFullscreen() bool        { return r.fullscreen }
func (r *Reader) IsSliderDragging() bool    { return r.sliderDragging }
func (r *Reader) IsRightToLeft() bool       { return r.config.RightToLeft }
func (r *Reader) ExitRequested() bool       { return r.exitRequested }
func (r *Reader) PageName() string          { return r.pageName }
func (r *Reader) GetFontSize() float64      { return r.config.FontSize }
func (r *Reader) GetOverlayMessage() string { return r.overlayMessage }
func (r *Reader) GetOverlayMessageTime() time.Time {
	return r.overlayMessageTime
}
func (r *Reader) GetConfigStatus() ConfigLoadResult     { return r.configStatus }
func (r *Reader) GetKeybindings() map[string][]string   { return r.config.Keybindings }
func (r *Reader) GetMousebindings() map[string][]string { return r.config.Mousebindings }
func (r *Reader) GetMouseSettings() MouseSettings       { return r.config.Mouse }

// ScreenRect returns where the image is drawn and at what scale
func (r *Reader) ScreenRect() (x, y, scale float64) {
	return r.stage.ScreenRect()
}

// Zoomed reports whether the image is away from native size
func (r *Reader) Zoomed() bool {
	return r.stage.Zoomed()
}

// ZoomLevel returns the current zoom factor
func (r *Reader) ZoomLevel() float64 {
	return r.stage.Zoom()
}

// DocumentName returns the attached document's name
func (r *Reader) DocumentName() string {
	if r.doc == nil {
		return ""
	}
	return r.doc.Name
}

// GetCurrentIndex returns the 0-based current page, or NoPage
func (r *Reader) GetCurrentIndex() int {
	if r.controller == nil {
		return NoPage
	}
	return r.controller.Current()
}

// GetTotalPagesCount returns the number of pages of the attached document
func (r *Reader) GetTotalPagesCount() int {
	if r.controller == nil {
		return 0
	}
	return r.controller.Count()
}

// SliderValue returns the page the slider points at
func (r *Reader) SliderValue() int {
	return r.sliderValue
}
