package main

import (
	"bytes"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/goregular"
)

// Global font source for all text rendering
var globalFontSource *text.GoTextFaceSource

// InitGraphics initializes the global font source for text rendering
func InitGraphics() error {
	if globalFontSource != nil {
		return nil
	}
	s, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return err
	}
	globalFontSource = s
	return nil
}

// newFace returns a face of the given size from the global font source
func newFace(size float64) *text.GoTextFace {
	return &text.GoTextFace{
		Source: globalFontSource,
		Size:   size,
	}
}

// DrawText draws text with specified position and color
func DrawText(screen *ebiten.Image, textString string, font *text.GoTextFace, x, y float64, textColor color.RGBA) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(textColor)
	text.Draw(screen, textString, font, op)
}

// DrawFilledRect draws filled rectangles with float64 coordinates
func DrawFilledRect(screen *ebiten.Image, x, y, w, h float64, bgColor color.RGBA) {
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), bgColor, false)
}

// DrawLine draws a line segment of the given width
func DrawLine(screen *ebiten.Image, x0, y0, x1, y1, width float64, lineColor color.RGBA) {
	vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), float32(width), lineColor, true)
}

// DrawFilledCircle draws a filled circle centered at (cx, cy)
func DrawFilledCircle(screen *ebiten.Image, cx, cy, r float64, fillColor color.RGBA) {
	vector.DrawFilledCircle(screen, float32(cx), float32(cy), float32(r), fillColor, true)
}
