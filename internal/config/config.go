// Package config loads the DrawStudio settings file.
//
// The file is TOML. Every key is optional; missing keys keep their defaults
// and unknown keys are rejected so typos do not pass silently.
//
//	[canvas]
//	width = 500
//	height = 500
//	background = "#FFFFFF"
//
//	[brush]
//	mode = "pencil"
//	line_width = 3
//	color = "#000000"
//	palette = ["#000000", "#E53935", "#1E88E5"]
//
//	[history]
//	enabled = true
//	max_entries = 20
//
//	[background_image]
//	url = ""
//	mode = "aspectFit"
//	use_cors = false
//
//	[ui]
//	toolbar = "top" # or "right", "bottom", "left"
//
//	[share]
//	port = 8888
//	name = ""
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"DrawStudio/internal/compositor"
	"DrawStudio/internal/state"
	"DrawStudio/internal/stroke"
)

// ToolbarPositions lists the accepted ui.toolbar values.
var ToolbarPositions = []string{ToolbarTop, ToolbarRight, ToolbarBottom, ToolbarLeft}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Toolbar positions.
const (
	ToolbarTop    = "top"
	ToolbarRight  = "right"
	ToolbarBottom = "bottom"
	ToolbarLeft   = "left"
)

type Canvas struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Background string `toml:"background"`
}

type Brush struct {
	Mode      string   `toml:"mode"`
	LineWidth float64  `toml:"line_width"`
	Color     string   `toml:"color"`
	Palette   []string `toml:"palette"`
}

type History struct {
	Enabled    bool `toml:"enabled"`
	MaxEntries int  `toml:"max_entries"`
}

type BackgroundImage struct {
	URL     string `toml:"url"`
	Mode    string `toml:"mode"`
	UseCORS bool   `toml:"use_cors"`
}

type UI struct {
	Toolbar string `toml:"toolbar"`
}

type Share struct {
	Port int `toml:"port"`
	// Name is the mDNS instance name. Empty means the host name.
	Name string `toml:"name"`
}

// Config is the whole settings file.
type Config struct {
	Canvas          Canvas          `toml:"canvas"`
	Brush           Brush           `toml:"brush"`
	History         History         `toml:"history"`
	BackgroundImage BackgroundImage `toml:"background_image"`
	UI              UI              `toml:"ui"`
	Share           Share           `toml:"share"`
}

// DefaultPalette is the swatch row shown when the file sets none.
var DefaultPalette = []string{
	"#000000", "#FFFFFF", "#E53935", "#FB8C00", "#FDD835",
	"#43A047", "#1E88E5", "#8E24AA",
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Canvas: Canvas{Width: 500, Height: 500, Background: "#FFFFFF"},
		Brush: Brush{
			Mode:      string(state.ModePencil),
			LineWidth: 3,
			Color:     "#000000",
			Palette:   slices.Clone(DefaultPalette),
		},
		History:         History{Enabled: true, MaxEntries: 20},
		BackgroundImage: BackgroundImage{Mode: string(compositor.AspectFit)},
		UI:              UI{Toolbar: ToolbarTop},
		Share:           Share{Port: 8888},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(string(data))
}

// Parse decodes TOML text over the defaults and validates the result.
func Parse(text string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%w: unknown keys %s", ErrInvalid, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		bad("canvas size %dx%d", c.Canvas.Width, c.Canvas.Height)
	}
	if _, err := stroke.ParseColor(c.Canvas.Background); err != nil {
		bad("canvas.background: %v", err)
	}
	if _, err := state.ParseMode(c.Brush.Mode); err != nil {
		bad("brush.mode: %v", err)
	}
	if c.Brush.LineWidth <= 0 {
		bad("brush.line_width %g", c.Brush.LineWidth)
	}
	if _, err := stroke.ParseColor(c.Brush.Color); err != nil {
		bad("brush.color: %v", err)
	}
	for _, sw := range c.Brush.Palette {
		if _, err := stroke.ParseColor(sw); err != nil {
			bad("brush.palette: %v", err)
		}
	}
	if c.History.MaxEntries <= 0 {
		bad("history.max_entries %d", c.History.MaxEntries)
	}
	if _, err := compositor.ParseImageMode(c.BackgroundImage.Mode); err != nil {
		bad("background_image.mode: %v", err)
	}
	if !slices.Contains(ToolbarPositions, c.UI.Toolbar) {
		bad("ui.toolbar %q", c.UI.Toolbar)
	}
	if c.Share.Port < 0 || c.Share.Port > 65535 {
		bad("share.port %d", c.Share.Port)
	}
	return errors.Join(errs...)
}

// Mode returns the brush mode. It is only meaningful on a validated Config.
func (c Config) Mode() state.Mode { return state.Mode(c.Brush.Mode) }

// ImageMode returns the background fit mode.
func (c Config) ImageMode() compositor.ImageMode {
	return compositor.ImageMode(c.BackgroundImage.Mode)
}
