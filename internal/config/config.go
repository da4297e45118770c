// Package config loads canvas tunables from the environment.
//
// A .env file in the working directory is read first when present; real
// environment variables win over it. Every setting has a default so an
// empty environment is valid.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/roach88/canvas/internal/cull"
	"github.com/roach88/canvas/internal/engine"
	"github.com/roach88/canvas/internal/gesture"
	"github.com/roach88/canvas/internal/history"
	"github.com/roach88/canvas/internal/persist"
)

// Config holds engine tunables.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string
	// PostgresDSN selects the Postgres backend when set.
	PostgresDSN string
	// UserID identifies the local user for audit fields and viewports.
	UserID string

	DragThreshold     float64
	DoubleClickWindow time.Duration
	GridSize          float64
	SnapToGrid        bool

	SaveDelay     time.Duration
	HistoryDepth  int
	HistoryWindow time.Duration
	OverscanPx    float64
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	g := gesture.DefaultConfig()
	return &Config{
		DBPath:            "canvas.db",
		UserID:            "local",
		DragThreshold:     g.DragThreshold,
		DoubleClickWindow: g.DoubleClickWindow,
		GridSize:          g.GridSize,
		SnapToGrid:        g.SnapToGrid,
		SaveDelay:         persist.DefaultDelay,
		HistoryDepth:      history.DefaultDepth,
		HistoryWindow:     history.DefaultWindow,
		OverscanPx:        cull.DefaultOverscanPx,
	}
}

// Load reads files (default ".env") and then the environment. Missing env
// files are ignored; malformed values are errors.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := Default()
	cfg.DBPath = getEnv("CANVAS_DB_PATH", cfg.DBPath)
	cfg.PostgresDSN = getEnv("CANVAS_POSTGRES_DSN", cfg.PostgresDSN)
	cfg.UserID = getEnv("CANVAS_USER_ID", cfg.UserID)

	var err error
	if cfg.DragThreshold, err = getEnvFloat("CANVAS_DRAG_THRESHOLD", cfg.DragThreshold); err != nil {
		return nil, err
	}
	if cfg.DoubleClickWindow, err = getEnvDuration("CANVAS_DOUBLE_CLICK_WINDOW", cfg.DoubleClickWindow); err != nil {
		return nil, err
	}
	if cfg.GridSize, err = getEnvFloat("CANVAS_GRID_SIZE", cfg.GridSize); err != nil {
		return nil, err
	}
	if cfg.SnapToGrid, err = getEnvBool("CANVAS_SNAP_TO_GRID", cfg.SnapToGrid); err != nil {
		return nil, err
	}
	if cfg.SaveDelay, err = getEnvDuration("CANVAS_SAVE_DELAY", cfg.SaveDelay); err != nil {
		return nil, err
	}
	if cfg.HistoryDepth, err = getEnvInt("CANVAS_HISTORY_DEPTH", cfg.HistoryDepth); err != nil {
		return nil, err
	}
	if cfg.HistoryWindow, err = getEnvDuration("CANVAS_HISTORY_WINDOW", cfg.HistoryWindow); err != nil {
		return nil, err
	}
	if cfg.OverscanPx, err = getEnvFloat("CANVAS_OVERSCAN_PX", cfg.OverscanPx); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.UserID == "":
		return fmt.Errorf("CANVAS_USER_ID is required")
	case c.DragThreshold < 0:
		return fmt.Errorf("CANVAS_DRAG_THRESHOLD must not be negative")
	case c.DoubleClickWindow <= 0:
		return fmt.Errorf("CANVAS_DOUBLE_CLICK_WINDOW must be positive")
	case c.GridSize <= 0:
		return fmt.Errorf("CANVAS_GRID_SIZE must be positive")
	case c.SaveDelay < 0:
		return fmt.Errorf("CANVAS_SAVE_DELAY must not be negative")
	case c.HistoryDepth < 1:
		return fmt.Errorf("CANVAS_HISTORY_DEPTH must be at least 1")
	case c.OverscanPx < 0:
		return fmt.Errorf("CANVAS_OVERSCAN_PX must not be negative")
	}
	return nil
}

// SessionOptions returns the engine options for these tunables.
func (c *Config) SessionOptions() []engine.Option {
	return []engine.Option{
		engine.WithGestureConfig(c.Gesture()),
		engine.WithHistory(c.HistoryDepth, c.HistoryWindow),
		engine.WithSaveDelay(c.SaveDelay),
		engine.WithOverscan(c.OverscanPx),
	}
}

// Gesture returns the gesture controller tunables.
func (c *Config) Gesture() gesture.Config {
	g := gesture.DefaultConfig()
	g.DragThreshold = c.DragThreshold
	g.DoubleClickWindow = c.DoubleClickWindow
	g.GridSize = c.GridSize
	g.SnapToGrid = c.SnapToGrid
	return g
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
