package main

import (
	"context"
	"errors"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// ebitenBinder uploads decoded bitmaps as ebiten images
type ebitenBinder struct{}

func (ebitenBinder) Bind(ctx context.Context, bitmap image.Image) (Presentable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if bitmap == nil || bitmap.Bounds().Empty() {
		return nil, errors.New("empty bitmap")
	}

	img := ebiten.NewImageFromImage(bitmap)
	if err := ctx.Err(); err != nil {
		img.Deallocate()
		return nil, err
	}
	return img, nil
}

func (ebitenBinder) Release(p Presentable) {
	if img, ok := p.(*ebiten.Image); ok {
		img.Deallocate()
	}
}

// Game is the ebiten host: it pumps the dispatcher, feeds input to the
// reader and draws it
type Game struct {
	ctx        context.Context
	config     Config
	configPath string

	dispatcher *Dispatcher
	reader     *Reader
	renderer   *Renderer
	input      *InputHandler
	keys       *KeybindingManager
	mouse      *MousebindingManager
	gestures   *GestureTracker

	fullscreen           bool
	savedWinW, savedWinH int
}

// NewGame wires the input and render layers around reader
func NewGame(ctx context.Context, config Config, configPath string, dispatcher *Dispatcher, reader *Reader) *Game {
	gestures := NewGestureTracker(config.Mouse, reader, reader)
	keys := NewKeybindingManager(config.Keybindings)
	mouse := NewMousebindingManager(config.Mousebindings, config.Mouse, gestures)

	return &Game{
		ctx:        ctx,
		config:     config,
		configPath: configPath,
		dispatcher: dispatcher,
		reader:     reader,
		renderer:   NewRenderer(reader),
		input:      NewInputHandler(reader, reader, keys, mouse),
		keys:       keys,
		mouse:      mouse,
		gestures:   gestures,
	}
}

func (g *Game) Update() error {
	if g.ctx.Err() != nil {
		g.reader.Exit()
	}

	g.dispatcher.Drain()
	g.input.HandleInput()
	g.syncFullscreen()

	if g.reader.ExitRequested() {
		g.saveCurrentWindowSize()
		return ebiten.Termination
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.renderer.Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.reader.SetViewport(float64(outsideWidth), float64(outsideHeight))
	g.gestures.SetScreenSize(float64(outsideWidth), float64(outsideHeight))
	return outsideWidth, outsideHeight
}

// applyConfig adopts a reloaded config; must run on the dispatcher
func (g *Game) applyConfig(result ConfigLoadResult) {
	g.config = result.Config
	g.reader.ApplyConfig(result)
	g.keys.UpdateKeybindings(result.Config.Keybindings)
	g.mouse.UpdateMousebindings(result.Config.Mousebindings)
	g.mouse.UpdateSettings(result.Config.Mouse)
}

func (g *Game) syncFullscreen() {
	want := g.reader.IsFullscreen()
	if want == g.fullscreen {
		return
	}
	g.fullscreen = want
	if want {
		g.savedWinW, g.savedWinH = ebiten.WindowSize()
		ebiten.SetFullscreen(true)
		return
	}
	ebiten.SetFullscreen(false)
	if g.savedWinW > 0 && g.savedWinH > 0 {
		ebiten.SetWindowSize(g.savedWinW, g.savedWinH)
	}
}

func (g *Game) saveCurrentWindowSize() {
	if g.configPath == "" {
		return
	}

	w, h := ebiten.WindowSize()
	if g.fullscreen {
		// Save the size from before fullscreen
		w, h = g.savedWinW, g.savedWinH
	}
	if w == g.config.WindowWidth && h == g.config.WindowHeight {
		return
	}

	g.config.WindowWidth, g.config.WindowHeight = w, h
	if err := saveConfigToPath(g.config, g.configPath); err != nil {
		logger.Warn("window size not saved", "error", err)
	}
}
