package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Window size constants
const (
	defaultWidth  = 800
	defaultHeight = 1100
	minWidth      = 400
	minHeight     = 300
)

// Sort method constants
const (
	SortNatural    = 0 // Natural sort order (e.g., file1, file2, file10)
	SortSimple     = 1 // Simple string sort (lexicographical)
	SortEntryOrder = 2 // Maintain original order (no sort)
)

const defaultFontSize = 20.0

// validateKeybindings validates the keybindings configuration
func validateKeybindings(keybindings map[string][]string) error {
	keyToAction := make(map[string]string)
	validKeys := getValidKeyNames()
	actions := GetActionDescriptions()

	for action, keys := range keybindings {
		if _, ok := actions[action]; !ok {
			return fmt.Errorf("unknown action '%s'", action)
		}
		for _, keyStr := range keys {
			if err := validateKeyString(keyStr, validKeys); err != nil {
				return fmt.Errorf("invalid key '%s' for action '%s': %w", keyStr, action, err)
			}

			if existingAction, exists := keyToAction[keyStr]; exists {
				return fmt.Errorf("key conflict: '%s' is bound to both '%s' and '%s'", keyStr, existingAction, action)
			}
			keyToAction[keyStr] = action
		}
	}

	return nil
}

// validateKeyString validates a single key string format
func validateKeyString(keyStr string, validKeys map[string]bool) error {
	parts := strings.Split(keyStr, "+")
	keyName := parts[len(parts)-1]
	if keyName == "" {
		return fmt.Errorf("empty key string")
	}
	if !validKeys[keyName] {
		return fmt.Errorf("unknown key: %s", keyName)
	}

	for _, part := range parts[:len(parts)-1] {
		switch strings.ToLower(part) {
		case "shift", "ctrl", "alt":
		default:
			return fmt.Errorf("unknown modifier: %s", part)
		}
	}

	return nil
}

// getValidKeyNames returns the set of key names the keybinding manager understands
func getValidKeyNames() map[string]bool {
	names := make(map[string]bool)
	for name := range getKeyMapping() {
		names[name] = true
	}
	return names
}

// ConfigLoadResult contains the result of loading configuration
type ConfigLoadResult struct {
	Config   Config
	HasError bool
	Warnings []string
	Status   string // "OK", "Default", "Warning", "Error"
}

type Config struct {
	WindowWidth   int     `mapstructure:"window_width" json:"window_width"`
	WindowHeight  int     `mapstructure:"window_height" json:"window_height"`
	Fullscreen    bool    `mapstructure:"fullscreen" json:"fullscreen"`
	RightToLeft   bool    `mapstructure:"right_to_left" json:"right_to_left"`
	SortMethod    int     `mapstructure:"sort_method" json:"sort_method"`
	FontSize      float64 `mapstructure:"font_size" json:"font_size"`
	CacheSize     int     `mapstructure:"cache_size" json:"cache_size"`
	DecodeWorkers int     `mapstructure:"decode_workers" json:"decode_workers"`

	PreloadBefore int `mapstructure:"preload_before" json:"preload_before"`
	PreloadAfter  int `mapstructure:"preload_after" json:"preload_after"`

	OverlayTimeoutMs int  `mapstructure:"overlay_timeout_ms" json:"overlay_timeout_ms"`
	TapDelayMs       int  `mapstructure:"tap_delay_ms" json:"tap_delay_ms"`
	SliderDelayMs    int  `mapstructure:"slider_delay_ms" json:"slider_delay_ms"`
	FitDeferred      bool `mapstructure:"fit_deferred" json:"fit_deferred"`

	MinZoom float64 `mapstructure:"min_zoom" json:"min_zoom"`
	MaxZoom float64 `mapstructure:"max_zoom" json:"max_zoom"`

	Keybindings   map[string][]string `mapstructure:"keybindings" json:"keybindings"`
	Mousebindings map[string][]string `mapstructure:"mousebindings" json:"mousebindings"`
	Mouse         MouseSettings       `mapstructure:"mouse" json:"mouse"`
}

// OverlayTimeout is the quiet period before the overlay auto-hides
func (c Config) OverlayTimeout() time.Duration {
	return time.Duration(c.OverlayTimeoutMs) * time.Millisecond
}

// TapDelay is the delay before a single tap takes effect
func (c Config) TapDelay() time.Duration {
	return time.Duration(c.TapDelayMs) * time.Millisecond
}

// SliderDelay is the delay between the last slider change and navigation
func (c Config) SliderDelay() time.Duration {
	return time.Duration(c.SliderDelayMs) * time.Millisecond
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() Config {
	return Config{
		WindowWidth:      defaultWidth,
		WindowHeight:     defaultHeight,
		Fullscreen:       false,
		RightToLeft:      false,
		SortMethod:       SortNatural,
		FontSize:         defaultFontSize,
		CacheSize:        defaultCacheSize,
		DecodeWorkers:    defaultDecodeWorkers,
		PreloadBefore:    defaultPreloadBefore,
		PreloadAfter:     defaultPreloadAfter,
		OverlayTimeoutMs: int(defaultOverlayTimeout / time.Millisecond),
		TapDelayMs:       int(defaultTapDelay / time.Millisecond),
		SliderDelayMs:    int(defaultSliderDelay / time.Millisecond),
		FitDeferred:      false,
		MinZoom:          defaultMinZoom,
		MaxZoom:          defaultMaxZoom,
		Keybindings:      GetDefaultKeybindings(),
		Mousebindings:    GetDefaultMousebindings(),
		Mouse:            GetDefaultMouseSettings(),
	}
}

func getConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "reader.json"
	}
	return filepath.Join(homeDir, ".reader.json")
}

// newConfigViper creates a viper instance for path with every default registered
func newConfigViper(configPath string) *viper.Viper {
	d := DefaultConfig()
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	v.SetDefault("window_width", d.WindowWidth)
	v.SetDefault("window_height", d.WindowHeight)
	v.SetDefault("fullscreen", d.Fullscreen)
	v.SetDefault("right_to_left", d.RightToLeft)
	v.SetDefault("sort_method", d.SortMethod)
	v.SetDefault("font_size", d.FontSize)
	v.SetDefault("cache_size", d.CacheSize)
	v.SetDefault("decode_workers", d.DecodeWorkers)
	v.SetDefault("preload_before", d.PreloadBefore)
	v.SetDefault("preload_after", d.PreloadAfter)
	v.SetDefault("overlay_timeout_ms", d.OverlayTimeoutMs)
	v.SetDefault("tap_delay_ms", d.TapDelayMs)
	v.SetDefault("slider_delay_ms", d.SliderDelayMs)
	v.SetDefault("fit_deferred", d.FitDeferred)
	v.SetDefault("min_zoom", d.MinZoom)
	v.SetDefault("max_zoom", d.MaxZoom)
	v.SetDefault("mouse.wheel_sensitivity", d.Mouse.WheelSensitivity)
	v.SetDefault("mouse.double_click_time", d.Mouse.DoubleClickTime)
	v.SetDefault("mouse.drag_threshold", d.Mouse.DragThreshold)
	v.SetDefault("mouse.enable_mouse", d.Mouse.EnableMouse)
	v.SetDefault("mouse.wheel_inverted", d.Mouse.WheelInverted)
	v.SetDefault("mouse.enable_drag_pan", d.Mouse.EnableDragPan)
	v.SetDefault("mouse.drag_sensitivity", d.Mouse.DragSensitivity)

	return v
}

func loadConfigFromPath(configPath string) ConfigLoadResult {
	result := ConfigLoadResult{
		Config:   DefaultConfig(),
		Warnings: []string{},
		Status:   "OK",
	}

	if _, err := os.Stat(configPath); err != nil {
		// Config file not found is not an error - use defaults
		result.Status = "Default"
		return result
	}

	v := newConfigViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		logger.Warn("invalid config file, using defaults", "path", configPath, "error", err)
		result.HasError = true
		result.Status = "Error"
		result.Warnings = append(result.Warnings, fmt.Sprintf("Invalid config file: %v", err))
		return result
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		logger.Warn("failed to decode config, using defaults", "path", configPath, "error", err)
		result.HasError = true
		result.Status = "Error"
		result.Warnings = append(result.Warnings, fmt.Sprintf("Invalid config values: %v", err))
		return result
	}

	result.Warnings = append(result.Warnings, validateConfig(&config)...)

	if err := fillBindings(&config); err != nil {
		logger.Warn("invalid keybindings detected, using defaults", "error", err)
		config.Keybindings = GetDefaultKeybindings()
		result.Warnings = append(result.Warnings, fmt.Sprintf("Keybinding errors: %v", err))
	}

	if len(result.Warnings) > 0 {
		result.Status = "Warning"
	}
	result.Config = config
	return result
}

// validateConfig clamps out-of-range values and returns a warning per correction
func validateConfig(config *Config) []string {
	var warnings []string
	clampInt := func(name string, v *int, lo, hi int) {
		switch {
		case *v < lo:
			warnings = append(warnings, fmt.Sprintf("%s %d raised to %d", name, *v, lo))
			*v = lo
		case *v > hi:
			warnings = append(warnings, fmt.Sprintf("%s %d lowered to %d", name, *v, hi))
			*v = hi
		}
	}

	// Validate minimum size
	if config.WindowWidth < minWidth {
		config.WindowWidth = defaultWidth
	}
	if config.WindowHeight < minHeight {
		config.WindowHeight = defaultHeight
	}

	// Validate font size (minimum 12px for readability)
	if config.FontSize < 12.0 {
		config.FontSize = defaultFontSize
	}

	if config.SortMethod < SortNatural || config.SortMethod > SortEntryOrder {
		warnings = append(warnings, fmt.Sprintf("unknown sort_method %d, using natural", config.SortMethod))
		config.SortMethod = SortNatural
	}

	clampInt("preload_before", &config.PreloadBefore, 0, 8)
	clampInt("preload_after", &config.PreloadAfter, 0, 16)
	clampInt("decode_workers", &config.DecodeWorkers, 1, 8)
	clampInt("cache_size", &config.CacheSize, 1, 64)

	// The cache must hold the whole window or preloaded pages evict each other
	if window := config.PreloadBefore + config.PreloadAfter + 1; config.CacheSize < window {
		warnings = append(warnings, fmt.Sprintf("cache_size %d raised to window size %d", config.CacheSize, window))
		config.CacheSize = window
	}

	clampInt("overlay_timeout_ms", &config.OverlayTimeoutMs, 500, 60000)
	clampInt("tap_delay_ms", &config.TapDelayMs, 0, 1000)
	clampInt("slider_delay_ms", &config.SliderDelayMs, 0, 2000)

	if config.MinZoom <= 0 || config.MinZoom > 1 {
		config.MinZoom = defaultMinZoom
	}
	if config.MaxZoom < 1 || config.MaxZoom > 32 {
		config.MaxZoom = defaultMaxZoom
	}

	if config.Mouse.DoubleClickTime <= 0 {
		config.Mouse.DoubleClickTime = GetDefaultMouseSettings().DoubleClickTime
	}
	if config.Mouse.DragSensitivity <= 0 {
		config.Mouse.DragSensitivity = 1.0
	}

	return warnings
}

// fillBindings adds default bindings for actions the file does not mention
// and validates the result
func fillBindings(config *Config) error {
	if config.Keybindings == nil {
		config.Keybindings = make(map[string][]string)
	}
	for action, keys := range GetDefaultKeybindings() {
		if _, exists := config.Keybindings[action]; !exists {
			config.Keybindings[action] = keys
		}
	}

	if config.Mousebindings == nil {
		config.Mousebindings = make(map[string][]string)
	}
	for action, buttons := range GetDefaultMousebindings() {
		if _, exists := config.Mousebindings[action]; !exists {
			config.Mousebindings[action] = buttons
		}
	}

	return validateKeybindings(config.Keybindings)
}

// watchConfig reloads the config file whenever it changes. onChange runs on
// the watcher goroutine. It returns false if the file does not exist.
func watchConfig(configPath string, onChange func(ConfigLoadResult)) bool {
	if _, err := os.Stat(configPath); err != nil {
		return false
	}

	v := newConfigViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		logger.Warn("not watching unreadable config", "path", configPath, "error", err)
		return false
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		debugLog("Config changed: %s", e.Name)
		onChange(loadConfigFromPath(configPath))
	})
	v.WatchConfig()
	return true
}

// getSortMethodName returns the human-readable name of a sort method
func getSortMethodName(sortMethod int) string {
	return GetSortStrategy(sortMethod).Name()
}

func saveConfigToPath(config Config, configPath string) error {
	// Don't save if size is too small
	if config.WindowWidth < minWidth || config.WindowHeight < minHeight {
		return fmt.Errorf("invalid window size %dx%d", config.WindowWidth, config.WindowHeight)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("save config to %s: %w", configPath, err)
	}
	return nil
}
