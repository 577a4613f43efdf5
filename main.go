package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	progressFile string
	startPage    int
	fullscreen   bool
	debugMode    bool
	sortName     string
)

var rootCmd = &cobra.Command{
	Use:   "reader [flags] <dir|archive|images...>",
	Short: "Single-page manga and comic reader",
	Long: `Reader shows one page at a time from a directory of images or a
zip/cbz, rar/cbr or 7z/cb7 archive.

Only a small window of pages around the current one is decoded. Tap the
left or right edge to turn pages, tap the center for the page slider,
double tap to toggle between 100% and fit-to-window.

Examples:
  reader ~/manga/vol01.cbz
  reader --page 40 ~/manga/vol02/
  reader --sort entry --fullscreen chapter.7z`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReader(cmd.Context(), args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ~/.reader.json)",
	)
	rootCmd.Flags().StringVar(
		&progressFile, "progress", "", "reading progress file (default: ~/.reader-progress.json)",
	)
	rootCmd.Flags().IntVar(
		&startPage, "page", 0, "1-based page to open instead of the last read page",
	)
	rootCmd.Flags().BoolVar(
		&fullscreen, "fullscreen", false, "start in fullscreen",
	)
	rootCmd.Flags().BoolVar(
		&debugMode, "debug", false, "enable debug logging",
	)
	rootCmd.Flags().StringVar(
		&sortName, "sort", "", "page order: natural, simple or entry (default from config)",
	)
}

func runReader(ctx context.Context, args []string) error {
	setupLogging(debugMode)

	configPath := cfgFile
	if configPath == "" {
		configPath = getConfigPath()
	}
	configResult := loadConfigFromPath(configPath)
	config := configResult.Config
	for _, w := range configResult.Warnings {
		logger.Warn("config", "path", configPath, "warning", w)
	}

	if fullscreen {
		config.Fullscreen = true
	}
	if sortName != "" {
		method, err := ParseSortMethod(sortName)
		if err != nil {
			return err
		}
		config.SortMethod = method
	}

	doc, err := OpenDocument(args, config.SortMethod)
	if err != nil {
		return err
	}
	if doc.PageCount() == 0 {
		return errors.New("no image files found")
	}
	debugLog("Sort method: %s", getSortMethodName(config.SortMethod))

	if progressFile == "" {
		progressFile = defaultProgressPath()
	}
	store := NewProgressStore(progressFile)
	if err := store.Open(); err != nil {
		logger.Warn("ignoring unreadable progress file", "error", err)
	}
	store.Load(doc)
	switch {
	case startPage > 0:
		doc.LastReadPageIndex = min(startPage, doc.PageCount()) - 1
	case doc.OpenedAt != NoPage:
		doc.LastReadPageIndex = doc.OpenedAt
	}

	if err := InitGraphics(); err != nil {
		return fmt.Errorf("init graphics: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dispatcher := NewDispatcher()
	source := NewArchivePageSource(config.CacheSize, config.DecodeWorkers, nil)
	defer source.Close()

	reader := NewReader(config, source, ebitenBinder{}, store, realClock{}, dispatcher)
	reader.SetConfigStatus(configResult)
	game := NewGame(ctx, config, configPath, dispatcher, reader)

	storeDone := make(chan struct{})
	go func() {
		defer close(storeDone)
		store.Run(ctx)
	}()

	watchConfig(configPath, func(result ConfigLoadResult) {
		dispatcher.Post(func() {
			game.applyConfig(result)
		})
	})

	reader.Attach(doc)

	ebiten.SetWindowTitle(doc.Name + " - reader")
	ebiten.SetWindowSize(config.WindowWidth, config.WindowHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	runErr := ebiten.RunGame(game)

	reader.Detach()
	cancel()
	<-storeDone

	if runErr != nil && !errors.Is(runErr, ebiten.Termination) {
		return runErr
	}
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "reader:", err)
		os.Exit(1)
	}
}
