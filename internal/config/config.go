// Package config loads the user settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"RosetteBoard/internal/engine"
	"RosetteBoard/internal/render"
	"RosetteBoard/internal/sched"
	"RosetteBoard/internal/state"
	"RosetteBoard/internal/surface"

	"github.com/BurntSushi/toml"
)

var ErrInvalid = errors.New("invalid config")

// Duration reads "150ms"-style strings.
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

type Canvas struct {
	TargetSize int    `toml:"target_size"`
	Background string `toml:"background"`
}

type Guides struct {
	SliceColor   string `toml:"slice_color"`
	ReflectColor string `toml:"reflect_color"`
}

type History struct {
	MaxDepth           int  `toml:"max_depth"`
	ClearKeepsSymmetry bool `toml:"clear_keeps_symmetry"`
}

type Theme struct {
	PrimaryColor string `toml:"primary_color"`
}

type Mirror struct {
	Enabled   bool `toml:"enabled"`
	Port      int  `toml:"port"`
	Advertise bool `toml:"advertise"`
}

type Preview struct {
	FPS            int      `toml:"fps"`
	ResizeDebounce Duration `toml:"resize_debounce"`
}

type Config struct {
	Canvas  Canvas  `toml:"canvas"`
	Guides  Guides  `toml:"guides"`
	History History `toml:"history"`
	Theme   Theme   `toml:"theme"`
	Mirror  Mirror  `toml:"mirror"`
	Preview Preview `toml:"preview"`
}

func Default() Config {
	return Config{
		Canvas:  Canvas{TargetSize: surface.DefaultTargetSize, Background: "#ffffff"},
		Guides:  Guides{SliceColor: "#adb5bd", ReflectColor: "#fd7e14"},
		History: History{MaxDepth: state.DefaultMaxHistory},
		Theme:   Theme{PrimaryColor: state.DefaultColor},
		Mirror:  Mirror{Port: 8890, Advertise: true},
		Preview: Preview{FPS: sched.DefaultFPS, ResizeDebounce: Duration{sched.DefaultDebounce}},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/rosetteboard/config.toml, or the platform
// equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config dir: %w", err)
	}
	return filepath.Join(dir, "rosetteboard", "config.toml"), nil
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Default(), fmt.Errorf("%w: unknown keys %v in %s", ErrInvalid, undecoded, path)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// LoadOrCreate is Load, except that a missing file is first written with
// the defaults so there is something to edit and watch.
func LoadOrCreate(path string) (Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := Save(path, Default()); err != nil {
			return Default(), err
		}
		log.Printf("[config] wrote defaults to %s", path)
	}
	return Load(path)
}

// Save writes cfg to path, creating the directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.Canvas.TargetSize <= 0 {
		return fmt.Errorf("%w: canvas.target_size must be positive", ErrInvalid)
	}
	if c.History.MaxDepth <= 0 {
		return fmt.Errorf("%w: history.max_depth must be positive", ErrInvalid)
	}
	if c.Preview.FPS <= 0 {
		return fmt.Errorf("%w: preview.fps must be positive", ErrInvalid)
	}
	if c.Preview.ResizeDebounce.Duration < 0 {
		return fmt.Errorf("%w: preview.resize_debounce is negative", ErrInvalid)
	}
	if c.Mirror.Port < 0 || c.Mirror.Port > 65535 {
		return fmt.Errorf("%w: mirror.port %d", ErrInvalid, c.Mirror.Port)
	}
	for name, v := range map[string]string{
		"canvas.background":    c.Canvas.Background,
		"guides.slice_color":   c.Guides.SliceColor,
		"guides.reflect_color": c.Guides.ReflectColor,
		"theme.primary_color":  c.Theme.PrimaryColor,
	} {
		if _, err := render.ParseColor(v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
		}
	}
	return nil
}

// EngineOptions converts the config for engine.New. The config must be valid.
func (c Config) EngineOptions() (engine.Options, error) {
	bg, err := render.ParseColor(c.Canvas.Background)
	if err != nil {
		return engine.Options{}, err
	}
	slice, err := render.ParseColor(c.Guides.SliceColor)
	if err != nil {
		return engine.Options{}, err
	}
	reflect, err := render.ParseColor(c.Guides.ReflectColor)
	if err != nil {
		return engine.Options{}, err
	}
	return engine.Options{
		Surface: surface.Options{
			TargetSize: c.Canvas.TargetSize,
			Background: bg,
			Guides:     render.GuideOptions{SliceColor: slice, ReflectColor: reflect},
		},
		Reducer: state.Reducer{
			MaxHistory:         c.History.MaxDepth,
			DefaultColor:       c.Theme.PrimaryColor,
			ClearKeepsSymmetry: c.History.ClearKeepsSymmetry,
		},
	}, nil
}
