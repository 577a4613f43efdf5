package main

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// Common colors used in rendering
var (
	colorWhite     = color.RGBA{255, 255, 255, 255}
	colorGray      = color.RGBA{180, 180, 180, 255}
	colorLightGray = color.RGBA{192, 192, 192, 255}
	colorYellow    = color.RGBA{255, 255, 100, 255}
	colorLightBlue = color.RGBA{200, 200, 255, 255}
	colorGreen     = color.RGBA{100, 255, 100, 255}
	colorOrange    = color.RGBA{255, 200, 100, 255}
	colorLightRed  = color.RGBA{255, 150, 150, 255}

	// Background colors for semi-transparent overlays
	bgColorLight  = color.RGBA{0, 0, 0, 128} // Light semi-transparent
	bgColorMedium = color.RGBA{0, 0, 0, 160} // Medium semi-transparent
	bgColorDark   = color.RGBA{0, 0, 0, 200} // Dark semi-transparent
)

// Renderer handles all drawing operations
type Renderer struct {
	renderState RenderState
}

// NewRenderer creates a new Renderer. InitGraphics must have succeeded.
func NewRenderer(renderState RenderState) *Renderer {
	return &Renderer{
		renderState: renderState,
	}
}

// Draw renders the entire screen
func (r *Renderer) Draw(screen *ebiten.Image) {
	screen.Clear()

	r.drawPage(screen)

	if r.renderState.IsLoading() && !r.renderState.ImageVisible() {
		r.drawLoadingIndicator(screen)
	}

	if r.renderState.IsOverlayVisible() {
		r.drawOverlayBar(screen)
	}

	if r.renderState.IsShowingHelp() {
		r.drawHelpOverlay(screen)
	}

	if r.renderState.GetOverlayMessage() != "" && time.Since(r.renderState.GetOverlayMessageTime()) < overlayMessageDuration {
		r.drawOverlayMessage(screen)
	}
}

// drawPage draws the bound image at the stage's position and zoom
func (r *Renderer) drawPage(screen *ebiten.Image) {
	if !r.renderState.ImageVisible() {
		return
	}
	img, ok := r.renderState.CurrentImage().(*ebiten.Image)
	if !ok || img == nil {
		return
	}

	x, y, scale := r.renderState.ScreenRect()

	op := &ebiten.DrawImageOptions{}
	op.Filter = ebiten.FilterLinear
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(x, y)
	screen.DrawImage(img, op)
}

func (r *Renderer) drawLoadingIndicator(screen *ebiten.Image) {
	face := newFace(r.renderState.GetFontSize())
	msg := fmt.Sprintf("Loading page %d…", r.renderState.GetCurrentIndex()+1)
	w, h := text.Measure(msg, face, 0)
	sw, sh := float64(screen.Bounds().Dx()), float64(screen.Bounds().Dy())
	DrawText(screen, msg, face, (sw-w)/2, (sh-h)/2, colorGray)
}

// drawOverlayBar draws the page slider and status line at the bottom of the screen
func (r *Renderer) drawOverlayBar(screen *ebiten.Image) {
	sw, sh := float64(screen.Bounds().Dx()), float64(screen.Bounds().Dy())
	DrawFilledRect(screen, 0, sh-overlayBarHeight, sw, overlayBarHeight, bgColorMedium)

	total := r.renderState.GetTotalPagesCount()
	trackX, trackW, trackY := sliderTrack(sw, sh)
	DrawLine(screen, trackX, trackY, trackX+trackW, trackY, 4, colorLightGray)

	if value := r.renderState.SliderValue(); value != NoPage && total > 0 {
		thumbX := sliderPosition(value, total, trackX, trackW, r.renderState.IsRightToLeft())
		DrawFilledCircle(screen, thumbX, trackY, 9, colorLightBlue)
	}

	face := newFace(r.renderState.GetFontSize() * 0.8)
	status := r.buildStatusString()
	_, th := text.Measure(status, face, 0)
	DrawFilledRect(screen, 0, sh-overlayBarHeight-th-12, sw, th+12, bgColorLight)
	DrawText(screen, status, face, sliderMargin, sh-overlayBarHeight-th-6, colorWhite)
}

func (r *Renderer) buildStatusString() string {
	total := r.renderState.GetTotalPagesCount()
	if total == 0 {
		return "0 / 0"
	}

	parts := []string{fmt.Sprintf("%d / %d", r.renderState.GetCurrentIndex()+1, total)}
	if name := r.renderState.PageName(); name != "" {
		parts = append(parts, name)
	}
	if doc := r.renderState.DocumentName(); doc != "" {
		parts = append(parts, doc)
	}
	parts = append(parts, fmt.Sprintf("%.0f%%", r.renderState.ZoomLevel()*100))
	if r.renderState.IsRightToLeft() {
		parts = append(parts, "RTL")
	}
	return strings.Join(parts, "  ·  ")
}

// getActionsList returns a sorted list of all actions that have bindings
func (r *Renderer) getActionsList() []string {
	actionSet := make(map[string]bool)
	for action, keys := range r.renderState.GetKeybindings() {
		if len(keys) > 0 {
			actionSet[action] = true
		}
	}
	for action, buttons := range r.renderState.GetMousebindings() {
		if len(buttons) > 0 {
			actionSet[action] = true
		}
	}

	actions := make([]string, 0, len(actionSet))
	for action := range actionSet {
		actions = append(actions, action)
	}
	sort.Strings(actions)
	return actions
}

// helpLines builds one line per bound action plus the gesture and config summary
func (r *Renderer) helpLines() []string {
	keybindings := r.renderState.GetKeybindings()
	mousebindings := r.renderState.GetMousebindings()
	descriptions := GetActionDescriptions()

	var lines []string
	for _, action := range r.getActionsList() {
		var inputs []string
		if keys := keybindings[action]; len(keys) > 0 {
			inputs = append(inputs, strings.Join(keys, ", "))
		}
		if buttons := mousebindings[action]; len(buttons) > 0 {
			inputs = append(inputs, strings.Join(buttons, ", "))
		}
		lines = append(lines, fmt.Sprintf("%-26s %-36s %s", action, strings.Join(inputs, " | "), descriptions[action]))
	}

	lines = append(lines,
		"",
		"Tap left/right edge to turn pages, center to show the slider",
		"Double tap toggles 100% and fit, drag pans, a wide swipe turns the page",
	)

	status := r.renderState.GetConfigStatus()
	lines = append(lines, "", "Config Status: "+status.Status)
	for i, warning := range status.Warnings {
		if i >= 2 {
			break
		}
		if len(warning) > 60 {
			warning = warning[:57] + "..."
		}
		lines = append(lines, "• "+warning)
	}
	return lines
}

func (r *Renderer) drawHelpOverlay(screen *ebiten.Image) {
	w, h := float64(screen.Bounds().Dx()), float64(screen.Bounds().Dy())
	padding := 40.0
	lines := r.helpLines()

	// Shrink the font until every line fits
	size := r.renderState.GetFontSize()
	for ; size > 10; size-- {
		face := newFace(size)
		widest := 0.0
		for _, line := range lines {
			lw, _ := text.Measure(line, face, 0)
			widest = math.Max(widest, lw)
		}
		if widest <= w-padding*3 && float64(len(lines)+2)*size*1.4 <= h-padding*2 {
			break
		}
	}

	DrawFilledRect(screen, 0, 0, w, h, bgColorLight)
	DrawFilledRect(screen, padding, padding, w-padding*2, h-padding*2, bgColorMedium)

	face := newFace(size)
	y := padding + 20
	DrawText(screen, "HELP:", face, padding+20, y, colorWhite)
	y += size * 2

	for _, line := range lines {
		lineColor := colorLightBlue
		switch {
		case strings.HasPrefix(line, "Config Status: OK"), strings.HasPrefix(line, "Config Status: Default"):
			lineColor = colorGreen
		case strings.HasPrefix(line, "Config Status"):
			lineColor = colorOrange
		case strings.HasPrefix(line, "•"):
			lineColor = colorLightRed
		case strings.HasPrefix(line, "Tap"), strings.HasPrefix(line, "Double"):
			lineColor = colorYellow
		}
		DrawText(screen, line, face, padding+20, y, lineColor)
		y += size * 1.4
	}
}

func (r *Renderer) drawOverlayMessage(screen *ebiten.Image) {
	messageFont := newFace(r.renderState.GetFontSize())
	message := r.renderState.GetOverlayMessage()

	textWidth, textHeight := text.Measure(message, messageFont, 0)

	padding := 20.0
	boxWidth := textWidth + padding*2
	boxHeight := textHeight + padding*2
	boxX := (float64(screen.Bounds().Dx()) - boxWidth) / 2
	boxY := (float64(screen.Bounds().Dy()) - boxHeight) / 2

	DrawFilledRect(screen, boxX, boxY, boxWidth, boxHeight, bgColorDark)
	DrawText(screen, message, messageFont, boxX+padding, boxY+padding, colorWhite)
}
