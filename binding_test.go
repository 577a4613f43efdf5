package main

import (
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestParseKeyString(t *testing.T) {
	mapping := getKeyMapping()
	tests := []struct {
		input string
		want  KeyCombination
		ok    bool
	}{
		{"KeyN", KeyCombination{Key: ebiten.KeyN}, true},
		{"Shift+KeyB", KeyCombination{Key: ebiten.KeyB, Shift: true}, true},
		{"ctrl+alt+Home", KeyCombination{Key: ebiten.KeyHome, Ctrl: true, Alt: true}, true},
		{"Hyper+KeyN", KeyCombination{}, false},
		{"KeyNope", KeyCombination{}, false},
		{"", KeyCombination{}, false},
	}

	for _, tt := range tests {
		got, ok := parseKeyString(tt.input, mapping)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseKeyString(%q) = (%+v, %v), want (%+v, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestModifiersMatch(t *testing.T) {
	mods := Modifiers{Shift: true}
	if !mods.matches(true, false, false) {
		t.Error("exact modifiers did not match")
	}
	if mods.matches(false, false, false) {
		t.Error("held Shift matched an unmodified binding")
	}
}

func TestKeybindingManagerSkipsInvalid(t *testing.T) {
	km := NewKeybindingManager(map[string][]string{
		"next": {"KeyN", "Bogus", "Shift+Space"},
	})
	if got := len(km.parsed["next"]); got != 2 {
		t.Errorf("parsed %d bindings, want 2", got)
	}
	if got := km.GetKeybindings()["next"]; len(got) != 3 {
		t.Errorf("GetKeybindings kept %v", got)
	}
}

func TestParseMouseString(t *testing.T) {
	tests := []struct {
		input string
		want  MouseCombination
		ok    bool
	}{
		{"WheelUp", MouseCombination{IsWheel: true, WheelDeltaY: 1}, true},
		{"Ctrl+WheelDown", MouseCombination{IsWheel: true, WheelDeltaY: -1, Ctrl: true}, true},
		{"RightClick", MouseCombination{Button: ebiten.MouseButtonRight}, true},
		{"Shift+MiddleClick", MouseCombination{Button: ebiten.MouseButtonMiddle, Shift: true}, true},
		{"LeftClick", MouseCombination{}, false},
		{"Meta+RightClick", MouseCombination{}, false},
	}

	for _, tt := range tests {
		got, ok := parseMouseString(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseMouseString(%q) = (%+v, %v), want (%+v, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestWheelMatches(t *testing.T) {
	up := MouseCombination{IsWheel: true, WheelDeltaY: 1}
	left := MouseCombination{IsWheel: true, WheelDeltaX: -1}

	if !up.wheelMatches(0, 0.5) || up.wheelMatches(0, -0.5) || up.wheelMatches(0, 0) {
		t.Error("WheelUp direction check wrong")
	}
	if !left.wheelMatches(-1, 0) || left.wheelMatches(1, 0) {
		t.Error("WheelLeft direction check wrong")
	}
}

func TestDoubleClickTracker(t *testing.T) {
	var tr DoubleClickTracker
	start := time.Unix(1000, 0)
	window := 300 * time.Millisecond

	if tr.click(10, 10, start, window, 10) {
		t.Fatal("first click reported a double click")
	}
	if !tr.click(12, 11, start.Add(200*time.Millisecond), window, 10) {
		t.Fatal("second quick nearby click not a double click")
	}
	if tr.click(12, 11, start.Add(300*time.Millisecond), window, 10) {
		t.Error("third click paired with the consumed double click")
	}
	if tr.click(12, 11, start.Add(700*time.Millisecond), window, 10) {
		t.Error("slow click reported a double click")
	}
	if tr.click(80, 11, start.Add(800*time.Millisecond), window, 10) {
		t.Error("distant click reported a double click")
	}
}

// gestureRecorder records the gestures the tracker delivers
type gestureRecorder struct {
	taps        [][2]float64
	doubleTaps  [][2]float64
	pans        [][2]float64
	drags       []float64
	slider      []int
	dragging    bool
	overlay     bool
	rtl         bool
	total       int
	sliderValue int
}

func (g *gestureRecorder) TapAt(x, y float64)       { g.taps = append(g.taps, [2]float64{x, y}) }
func (g *gestureRecorder) DoubleTapAt(x, y float64) { g.doubleTaps = append(g.doubleTaps, [2]float64{x, y}) }
func (g *gestureRecorder) PanBy(dx, dy float64)     { g.pans = append(g.pans, [2]float64{dx, dy}) }
func (g *gestureRecorder) PinchBy(float64)          {}
func (g *gestureRecorder) DragCompleted(netDx float64) bool {
	g.drags = append(g.drags, netDx)
	return false
}
func (g *gestureRecorder) SliderChanged(index int) {
	g.slider = append(g.slider, index)
	g.sliderValue = index
}
func (g *gestureRecorder) SetSliderDragging(dragging bool) { g.dragging = dragging }

func (g *gestureRecorder) IsSliderDragging() bool  { return g.dragging }
func (g *gestureRecorder) IsOverlayVisible() bool  { return g.overlay }
func (g *gestureRecorder) IsRightToLeft() bool     { return g.rtl }
func (g *gestureRecorder) Zoomed() bool            { return false }
func (g *gestureRecorder) GetTotalPagesCount() int { return g.total }
func (g *gestureRecorder) SliderValue() int        { return g.sliderValue }

func newTestGestures() (*GestureTracker, *gestureRecorder) {
	rec := &gestureRecorder{total: 11}
	g := NewGestureTracker(GetDefaultMouseSettings(), rec, rec)
	g.SetScreenSize(2*sliderMargin+100, 600)
	return g, rec
}

func TestGestureTrackerTapAndDoubleTap(t *testing.T) {
	g, rec := newTestGestures()
	now := time.Unix(1000, 0)

	g.Press(50, 200)
	g.Release(51, 200, now)
	if len(rec.taps) != 1 || len(rec.doubleTaps) != 0 {
		t.Fatalf("taps %v, double taps %v", rec.taps, rec.doubleTaps)
	}

	g.Press(52, 201)
	g.Release(52, 201, now.Add(150*time.Millisecond))
	if len(rec.doubleTaps) != 1 || len(rec.taps) != 1 {
		t.Errorf("taps %v, double taps %v, want one of each", rec.taps, rec.doubleTaps)
	}
}

func TestGestureTrackerDrag(t *testing.T) {
	g, rec := newTestGestures()

	g.Press(100, 100)
	g.Move(102, 100)
	if len(rec.pans) != 0 {
		t.Error("panned below the drag threshold")
	}
	g.Move(60, 100)
	g.Move(20, 110)
	g.Release(20, 110, time.Unix(1000, 0))

	if len(rec.pans) != 2 {
		t.Errorf("pans = %v, want 2", rec.pans)
	}
	if len(rec.drags) != 1 || rec.drags[0] != -80 {
		t.Errorf("drags = %v, want [-80]", rec.drags)
	}
	if len(rec.taps) != 0 {
		t.Error("a drag was also reported as a tap")
	}
}

func TestGestureTrackerSlider(t *testing.T) {
	g, rec := newTestGestures()
	_, _, trackY := sliderTrack(2*sliderMargin+100, 600)

	// Hidden overlay: presses on the bar area are ordinary taps
	g.Press(sliderMargin+50, trackY)
	g.Release(sliderMargin+50, trackY, time.Unix(1000, 0))
	if len(rec.slider) != 0 || len(rec.taps) != 1 {
		t.Fatalf("slider %v taps %v with the overlay hidden", rec.slider, rec.taps)
	}

	rec.overlay = true
	g.Press(sliderMargin+50, trackY)
	if !rec.dragging {
		t.Error("slider press did not mark the slider as dragging")
	}
	g.Move(sliderMargin+50, trackY)
	g.Move(sliderMargin+100, trackY)
	g.Release(sliderMargin+100, trackY, time.Unix(1001, 0))

	if len(rec.slider) != 2 || rec.slider[0] != 5 || rec.slider[1] != 10 {
		t.Errorf("slider changes = %v, want [5 10]", rec.slider)
	}
	if rec.dragging {
		t.Error("slider still dragging after release")
	}
	if len(rec.taps) != 1 {
		t.Error("slider scrub reported as a tap")
	}
}

// actionRecorder implements InputActions and InputState for executor tests
type actionRecorder struct {
	gestureRecorder
	calls []string
}

func (a *actionRecorder) record(name string)                { a.calls = append(a.calls, name) }
func (a *actionRecorder) Exit()                             { a.record("exit") }
func (a *actionRecorder) ToggleHelp()                       { a.record("help") }
func (a *actionRecorder) ToggleOverlay()                    { a.record("toggle_overlay") }
func (a *actionRecorder) ToggleFullscreen()                 { a.record("fullscreen") }
func (a *actionRecorder) ToggleReadingDirection()           { a.record("toggle_reading_direction") }
func (a *actionRecorder) NavigateNext()                     { a.record("next") }
func (a *actionRecorder) NavigatePrevious()                 { a.record("previous") }
func (a *actionRecorder) JumpToPage(page int)               { a.record("jump") }
func (a *actionRecorder) ZoomIn()                           { a.record("zoom_in") }
func (a *actionRecorder) ZoomOut()                          { a.record("zoom_out") }
func (a *actionRecorder) ZoomReset()                        { a.record("zoom_reset") }
func (a *actionRecorder) ZoomFit()                          { a.record("zoom_fit") }
func (a *actionRecorder) PanUp()                            { a.record("pan_up") }
func (a *actionRecorder) PanDown()                          { a.record("pan_down") }
func (a *actionRecorder) PanLeft()                          { a.record("pan_left") }
func (a *actionRecorder) PanRight()                         { a.record("pan_right") }
func (a *actionRecorder) ShowOverlayMessage(message string) {}
func (a *actionRecorder) GetCurrentIndex() int              { return 0 }

func TestActionExecutor(t *testing.T) {
	ae := NewActionExecutor()

	for _, def := range actionDefinitions {
		a := &actionRecorder{}
		a.total = 5
		if !ae.ExecuteAction(def.Name, a, a) {
			t.Errorf("ExecuteAction(%s) = false", def.Name)
		}
		if len(a.calls) != 1 {
			t.Errorf("ExecuteAction(%s) made calls %v", def.Name, a.calls)
		}
	}

	a := &actionRecorder{}
	if ae.ExecuteAction("rotate", a, a) {
		t.Error("unknown action executed")
	}

	a.dragging = true
	if ae.ExecuteAction("next", a, a) || ae.ExecuteAction("previous", a, a) {
		t.Error("page turn executed while the slider is held")
	}

	a.total = 0
	a.dragging = false
	ae.ExecuteAction("jump_last", a, a)
	if len(a.calls) != 0 {
		t.Errorf("jump_last on an empty document made calls %v", a.calls)
	}
}

func TestDefaultBindingsAreCopies(t *testing.T) {
	kb := GetDefaultKeybindings()
	kb["next"][0] = "KeyX"
	if GetDefaultKeybindings()["next"][0] == "KeyX" {
		t.Error("GetDefaultKeybindings shares slices with the definitions")
	}
	if err := validateKeybindings(GetDefaultKeybindings()); err != nil {
		t.Errorf("default keybindings invalid: %v", err)
	}
	for action, buttons := range GetDefaultMousebindings() {
		for _, b := range buttons {
			if _, ok := parseMouseString(b); !ok {
				t.Errorf("default mouse binding %q for %s does not parse", b, action)
			}
		}
	}
}
