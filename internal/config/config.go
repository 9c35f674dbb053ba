// Package config loads the shaderpaper configuration.
//
// Three sources are layered, each overriding the previous: built-in
// defaults, SHADERPAPER_* environment variables (optionally seeded from a
// dotenv file), and command-line flags the user actually set.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"

	"github.com/gogpu/shaderpaper/internal/audio"
	"github.com/gogpu/shaderpaper/internal/display"
	"github.com/gogpu/shaderpaper/internal/spectrum"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "SHADERPAPER"

// Config is the complete runtime configuration. It is not modified after
// Load returns.
type Config struct {
	Shader string `envconfig:"SHADER"`

	Output        string `envconfig:"OUTPUT"`
	AllOutputs    bool   `envconfig:"ALL_OUTPUTS" default:"false"`
	WaitForOutput bool   `envconfig:"WAIT_FOR_OUTPUT" default:"false"`

	Width         uint32   `envconfig:"WIDTH" default:"0"`
	Height        uint32   `envconfig:"HEIGHT" default:"0"`
	Anchors       []string `envconfig:"ANCHOR" default:"bottom"`
	Margin        string   `envconfig:"MARGIN" default:"0,0,0,0"`
	Layer         string   `envconfig:"LAYER" default:"background"`
	Namespace     string   `envconfig:"NAMESPACE" default:"shaderpaper"`
	ExclusiveZone int32    `envconfig:"EXCLUSIVE_ZONE" default:"-1"`

	Trail int     `envconfig:"TRAIL" default:"10"`
	FPS   float64 `envconfig:"FPS" default:"0"`

	Audio          bool    `envconfig:"AUDIO" default:"true"`
	AudioDevice    string  `envconfig:"AUDIO_DEVICE"`
	AudioChannels  int     `envconfig:"AUDIO_CHANNELS" default:"2"`
	AudioRate      float64 `envconfig:"AUDIO_RATE" default:"44100"`
	AudioBuffer    int     `envconfig:"AUDIO_BUFFER" default:"4096"`
	AudioSignal    string  `envconfig:"AUDIO_SIGNAL" default:"spectrum"`
	Magnitude      string  `envconfig:"MAGNITUDE" default:"true"`
	Window         string  `envconfig:"WINDOW" default:"hann"`
	Normalize      bool    `envconfig:"NORMALIZE" default:"false"`
	AudioRetries   int     `envconfig:"AUDIO_RETRIES" default:"3"`
	SurfaceRetries int     `envconfig:"SURFACE_RETRIES" default:"3"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// Resolved from the string fields above by Load.
	AnchorSet display.Anchor   `ignored:"true"`
	Margins   display.Margins  `ignored:"true"`
	LayerKind display.Layer    `ignored:"true"`
	Signal    audio.Signal     `ignored:"true"`
	Spectrum  spectrum.Options `ignored:"true"`
	SlogLevel slog.Level       `ignored:"true"`

	noAudioFlag bool
}

// SingleOutput reports whether only the first matching output is used.
func (c *Config) SingleOutput() bool { return !c.AllOutputs }

// LayerOptions returns the layer surface options for one output.
func (c *Config) LayerOptions() display.LayerOptions {
	return display.LayerOptions{
		Layer:         c.LayerKind,
		Namespace:     c.Namespace,
		Anchor:        c.AnchorSet,
		Margins:       c.Margins,
		ExclusiveZone: c.ExclusiveZone,
		Width:         c.Width,
		Height:        c.Height,
	}
}

// AudioDeviceConfig returns the capture device parameters.
func (c *Config) AudioDeviceConfig() audio.DeviceConfig {
	return audio.DeviceConfig{
		Name:       c.AudioDevice,
		Channels:   c.AudioChannels,
		SampleRate: c.AudioRate,
		BufferSize: c.AudioBuffer,
	}
}

// Load builds a Config. envFile, when not empty, is a dotenv file whose
// variables are added to the environment first; variables already set
// win. flags, when not nil, is a parsed flag set registered with
// BindFlags; only flags marked as changed are applied. shader overrides
// the shader path when not empty.
func Load(envFile string, flags *pflag.FlagSet, shader string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}

	if flags != nil {
		if err := applyChanged(&cfg, flags); err != nil {
			return nil, err
		}
	}
	if shader != "" {
		cfg.Shader = shader
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolve parses the string-typed settings into their typed fields.
func (c *Config) resolve() error {
	if c.noAudioFlag {
		c.Audio = false
	}

	var err error
	if c.AnchorSet, err = display.ParseAnchors(c.Anchors...); err != nil {
		return fmt.Errorf("config: anchor: %w", err)
	}
	if c.Margins, err = display.ParseMargins(c.Margin); err != nil {
		return fmt.Errorf("config: margin: %w", err)
	}
	if c.LayerKind, err = display.ParseLayer(c.Layer); err != nil {
		return fmt.Errorf("config: layer: %w", err)
	}
	if c.Signal, err = audio.ParseSignal(c.AudioSignal); err != nil {
		return fmt.Errorf("config: audio signal: %w", err)
	}
	if c.Spectrum.Magnitude, err = spectrum.ParseMagnitude(c.Magnitude); err != nil {
		return fmt.Errorf("config: magnitude: %w", err)
	}
	if c.Spectrum.Window, err = spectrum.ParseWindow(c.Window); err != nil {
		return fmt.Errorf("config: window: %w", err)
	}
	c.Spectrum.Normalize = c.Normalize

	if err := c.SlogLevel.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.LogLevel)
	}
	return nil
}

// Validate checks ranges that parsing does not cover.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(c.Shader) == "" {
		add("shader path is required")
	}
	if c.Trail < 1 {
		add("trail must be at least 1, got %d", c.Trail)
	}
	if c.FPS < 0 {
		add("fps must not be negative, got %v", c.FPS)
	}
	if c.SurfaceRetries < 0 {
		add("surface-retries must not be negative, got %d", c.SurfaceRetries)
	}
	if c.Audio {
		if c.AudioChannels < 1 {
			add("audio-channels must be at least 1, got %d", c.AudioChannels)
		}
		if c.AudioRate <= 0 {
			add("audio-rate must be positive, got %v", c.AudioRate)
		}
		if c.AudioBuffer < 2 {
			add("audio-buffer must be at least 2, got %d", c.AudioBuffer)
		}
		if c.AudioRetries < 0 {
			add("audio-retries must not be negative, got %d", c.AudioRetries)
		}
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		add("log-format must be text or json, got %q", c.LogFormat)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
