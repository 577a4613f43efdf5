package main

import (
	"math"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// MouseSettings contains mouse-specific configuration
type MouseSettings struct {
	WheelSensitivity float64 `mapstructure:"wheel_sensitivity" json:"wheel_sensitivity"`
	DoubleClickTime  int     `mapstructure:"double_click_time" json:"double_click_time"` // milliseconds
	DragThreshold    int     `mapstructure:"drag_threshold" json:"drag_threshold"`       // pixels
	EnableMouse      bool    `mapstructure:"enable_mouse" json:"enable_mouse"`
	WheelInverted    bool    `mapstructure:"wheel_inverted" json:"wheel_inverted"`
	EnableDragPan    bool    `mapstructure:"enable_drag_pan" json:"enable_drag_pan"`
	DragSensitivity  float64 `mapstructure:"drag_sensitivity" json:"drag_sensitivity"`
}

// GetDefaultMouseSettings returns the default mouse settings
func GetDefaultMouseSettings() MouseSettings {
	return MouseSettings{
		WheelSensitivity: 1.0,
		DoubleClickTime:  300, // milliseconds
		DragThreshold:    5,   // pixels
		EnableMouse:      true,
		WheelInverted:    false,
		EnableDragPan:    true,
		DragSensitivity:  1.0,
	}
}

// DoubleClickTracker tracks double-click state
type DoubleClickTracker struct {
	lastClickTime time.Time
	lastX, lastY  float64
	clickCount    int
}

// click records a click and reports whether it completes a double click
func (t *DoubleClickTracker) click(x, y float64, now time.Time, window time.Duration, slop float64) bool {
	if t.clickCount == 1 &&
		now.Sub(t.lastClickTime) <= window &&
		math.Hypot(x-t.lastX, y-t.lastY) <= slop {
		t.clickCount = 0
		return true
	}

	t.clickCount = 1
	t.lastClickTime = now
	t.lastX, t.lastY = x, y
	return false
}

// GestureTracker recognizes taps, double taps, drags and slider scrubbing
// from left button press/move/release events.
type GestureTracker struct {
	settings MouseSettings
	actions  GestureActions
	state    InputState

	screenW, screenH float64

	pressed  bool
	onSlider bool
	dragging bool

	startX, startY float64
	lastX, lastY   float64

	clicks DoubleClickTracker
}

// NewGestureTracker creates a tracker delivering gestures to actions
func NewGestureTracker(settings MouseSettings, actions GestureActions, state InputState) *GestureTracker {
	return &GestureTracker{
		settings: settings,
		actions:  actions,
		state:    state,
	}
}

// SetScreenSize records the layout size used for slider hit-testing
func (g *GestureTracker) SetScreenSize(w, h float64) {
	g.screenW, g.screenH = w, h
}

// Press starts a gesture
func (g *GestureTracker) Press(x, y float64) {
	g.pressed = true
	g.dragging = false
	g.startX, g.startY = x, y
	g.lastX, g.lastY = x, y

	if g.state.IsOverlayVisible() && inOverlayBar(y, g.screenH) {
		g.onSlider = true
		g.actions.SetSliderDragging(true)
		g.scrub(x)
	}
}

// Move continues a gesture; past the drag threshold it pans
func (g *GestureTracker) Move(x, y float64) {
	if !g.pressed {
		return
	}
	if g.onSlider {
		g.scrub(x)
		return
	}

	dx, dy := x-g.lastX, y-g.lastY
	g.lastX, g.lastY = x, y

	if !g.dragging && math.Hypot(x-g.startX, y-g.startY) >= float64(g.settings.DragThreshold) {
		g.dragging = true
	}
	if g.dragging && g.settings.EnableDragPan && (dx != 0 || dy != 0) {
		g.actions.PanBy(dx, dy)
	}
}

// Release ends a gesture: a drag completes, anything else is a tap or the
// second tap of a double tap
func (g *GestureTracker) Release(x, y float64, now time.Time) {
	if !g.pressed {
		return
	}
	g.Move(x, y)
	g.pressed = false

	if g.onSlider {
		g.onSlider = false
		g.actions.SetSliderDragging(false)
		return
	}

	if g.dragging {
		g.dragging = false
		g.actions.DragCompleted(x - g.startX)
		return
	}

	window := time.Duration(g.settings.DoubleClickTime) * time.Millisecond
	slop := float64(2 * g.settings.DragThreshold)
	if g.clicks.click(x, y, now, window, slop) {
		g.actions.DoubleTapAt(x, y)
		return
	}
	g.actions.TapAt(x, y)
}

func (g *GestureTracker) scrub(x float64) {
	trackX, trackW, _ := sliderTrack(g.screenW, g.screenH)
	idx := SliderIndexAt(x, trackX, trackW, g.state.GetTotalPagesCount(), g.state.IsRightToLeft())
	if idx == NoPage || idx == g.state.SliderValue() {
		return
	}
	g.actions.SliderChanged(idx)
}

// UpdateSettings updates the mouse settings
func (g *GestureTracker) UpdateSettings(settings MouseSettings) {
	g.settings = settings
}

// MouseCombination represents a mouse action with optional modifiers
type MouseCombination struct {
	Button      ebiten.MouseButton
	IsWheel     bool
	WheelDeltaX float64
	WheelDeltaY float64
	Shift       bool
	Ctrl        bool
	Alt         bool
}

// MousebindingManager handles bound mouse buttons and the wheel, and feeds
// the left button to the gesture tracker
type MousebindingManager struct {
	mousebindings map[string][]string
	parsed        map[string][]MouseCombination
	settings      MouseSettings
	gestures      *GestureTracker
}

// NewMousebindingManager creates a new MousebindingManager
func NewMousebindingManager(mousebindings map[string][]string, settings MouseSettings, gestures *GestureTracker) *MousebindingManager {
	mm := &MousebindingManager{
		settings: settings,
		gestures: gestures,
	}
	mm.UpdateMousebindings(mousebindings)
	return mm
}

// getMouseMapping returns a mapping from string mouse actions to Ebiten mouse buttons
func getMouseMapping() map[string]ebiten.MouseButton {
	return map[string]ebiten.MouseButton{
		"RightClick":  ebiten.MouseButtonRight,
		"MiddleClick": ebiten.MouseButtonMiddle,
		"Back":        ebiten.MouseButton3, // Back button (side button)
		"Forward":     ebiten.MouseButton4, // Forward button (side button)
	}
}

// parseMouseString parses a mouse string like "Ctrl+WheelUp" into a MouseCombination
func parseMouseString(mouseStr string) (MouseCombination, bool) {
	parts := strings.Split(mouseStr, "+")
	actionName := parts[len(parts)-1]

	var combination MouseCombination
	switch actionName {
	case "WheelUp":
		combination = MouseCombination{IsWheel: true, WheelDeltaY: 1}
	case "WheelDown":
		combination = MouseCombination{IsWheel: true, WheelDeltaY: -1}
	case "WheelLeft":
		combination = MouseCombination{IsWheel: true, WheelDeltaX: -1}
	case "WheelRight":
		combination = MouseCombination{IsWheel: true, WheelDeltaX: 1}
	default:
		button, exists := getMouseMapping()[actionName]
		if !exists {
			return MouseCombination{}, false
		}
		combination.Button = button
	}

	for _, part := range parts[:len(parts)-1] {
		switch strings.ToLower(part) {
		case "shift":
			combination.Shift = true
		case "ctrl":
			combination.Ctrl = true
		case "alt":
			combination.Alt = true
		default:
			return MouseCombination{}, false
		}
	}

	return combination, true
}

// wheelMatches reports whether wheel movement goes in the combination's direction
func (c MouseCombination) wheelMatches(wheelX, wheelY float64) bool {
	if c.WheelDeltaX != 0 {
		return c.WheelDeltaX*wheelX > 0
	}
	return c.WheelDeltaY*wheelY > 0
}

func (mm *MousebindingManager) triggered(c MouseCombination, mods Modifiers, wheelX, wheelY float64) bool {
	if !mods.matches(c.Shift, c.Ctrl, c.Alt) {
		return false
	}
	if c.IsWheel {
		return c.wheelMatches(wheelX, wheelY)
	}
	return inpututil.IsMouseButtonJustPressed(c.Button)
}

// HandleInput runs bound mouse actions and left button gestures for this frame
func (mm *MousebindingManager) HandleInput(inputActions InputActions, inputState InputState) bool {
	if !mm.settings.EnableMouse {
		return false
	}

	processed := mm.handleGestures()

	mods := currentModifiers()
	wheelX, wheelY := ebiten.Wheel()
	if mm.settings.WheelInverted {
		wheelY = -wheelY
	}
	wheelX *= mm.settings.WheelSensitivity
	wheelY *= mm.settings.WheelSensitivity

	for _, def := range actionDefinitions {
		for _, c := range mm.parsed[def.Name] {
			if mm.triggered(c, mods, wheelX, wheelY) {
				if globalActionExecutor.ExecuteAction(def.Name, inputActions, inputState) {
					processed = true
				}
				break
			}
		}
	}

	return processed
}

func (mm *MousebindingManager) handleGestures() bool {
	if mm.gestures == nil {
		return false
	}

	cx, cy := ebiten.CursorPosition()
	x, y := float64(cx), float64(cy)

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		mm.gestures.Press(x, y)
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		mm.gestures.Release(x, y, time.Now())
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		mm.gestures.Move(x, y)
	default:
		return false
	}
	return true
}

// GetMousebindings returns the current mouse bindings map (for display purposes)
func (mm *MousebindingManager) GetMousebindings() map[string][]string {
	return mm.mousebindings
}

// UpdateMousebindings replaces the bindings; unparsable strings are skipped
func (mm *MousebindingManager) UpdateMousebindings(mousebindings map[string][]string) {
	mm.mousebindings = mousebindings
	mm.parsed = make(map[string][]MouseCombination, len(mousebindings))
	for action, buttons := range mousebindings {
		for _, mouseStr := range buttons {
			c, ok := parseMouseString(mouseStr)
			if !ok {
				debugLog("Ignoring mouse binding %q for %s", mouseStr, action)
				continue
			}
			mm.parsed[action] = append(mm.parsed[action], c)
		}
	}
}

// UpdateSettings updates the mouse settings
func (mm *MousebindingManager) UpdateSettings(settings MouseSettings) {
	mm.settings = settings
	if mm.gestures != nil {
		mm.gestures.UpdateSettings(settings)
	}
}
