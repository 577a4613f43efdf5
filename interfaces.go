package main

import (
	"time"
)

const (
	// Overlay message display duration
	overlayMessageDuration = 2 * time.Second
)

// RenderState provides read-only access to reader state for the renderer
type RenderState interface {
	// Image and view
	CurrentImage() Presentable
	ImageVisible() bool
	IsLoading() bool
	ScreenRect() (x, y, scale float64)
	ZoomLevel() float64
	IsFullscreen() bool

	// UI state
	IsOverlayVisible() bool
	IsShowingHelp() bool
	IsRightToLeft() bool
	SliderValue() int
	GetOverlayMessage() string
	GetOverlayMessageTime() time.Time

	// Display data
	DocumentName() string
	PageName() string
	GetCurrentIndex() int
	GetTotalPagesCount() int
	GetFontSize() float64
	GetConfigStatus() ConfigLoadResult
	GetKeybindings() map[string][]string
	GetMousebindings() map[string][]string
}

// InputActions provides action methods for the binding managers
type InputActions interface {
	// Application control
	Exit()

	// Display toggles
	ToggleHelp()
	ToggleOverlay()
	ToggleFullscreen()
	ToggleReadingDirection()

	// Navigation
	NavigateNext()
	NavigatePrevious()
	JumpToPage(page int)

	// Zoom and pan actions
	ZoomIn()
	ZoomOut()
	ZoomReset()
	ZoomFit()
	PanUp()
	PanDown()
	PanLeft()
	PanRight()

	// Messages
	ShowOverlayMessage(message string)

	// Common data access
	GetCurrentIndex() int
	GetTotalPagesCount() int
}

// GestureActions receives pointer gestures recognized by the mouse handler
type GestureActions interface {
	TapAt(x, y float64)
	DoubleTapAt(x, y float64)
	PanBy(dx, dy float64)
	PinchBy(scale float64)
	DragCompleted(netDx float64) bool
	SliderChanged(index int)
	SetSliderDragging(dragging bool)
}

// InputState provides read-only access to input-related state
type InputState interface {
	IsSliderDragging() bool
	IsOverlayVisible() bool
	IsRightToLeft() bool
	Zoomed() bool
	GetTotalPagesCount() int
	SliderValue() int
}
