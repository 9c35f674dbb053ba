package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Defaults returns the built-in configuration, matching the default
// struct tags on Config.
func Defaults() Config {
	return Config{
		Anchors:        []string{"bottom"},
		Margin:         "0,0,0,0",
		Layer:          "background",
		Namespace:      "shaderpaper",
		ExclusiveZone:  -1,
		Trail:          10,
		Audio:          true,
		AudioChannels:  2,
		AudioRate:      44100,
		AudioBuffer:    4096,
		AudioSignal:    "spectrum",
		Magnitude:      "true",
		Window:         "hann",
		AudioRetries:   3,
		SurfaceRetries: 3,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// BindFlags registers one flag per setting on fs, bound to c and
// defaulting to c's current values.
func BindFlags(fs *pflag.FlagSet, c *Config) {
	fs.StringVarP(&c.Output, "output", "o", c.Output, "output name to draw on (default: first available)")
	fs.BoolVar(&c.AllOutputs, "all-outputs", c.AllOutputs, "draw on every matching output instead of only the first")
	fs.BoolVar(&c.WaitForOutput, "wait-for-output", c.WaitForOutput, "keep waiting when --output matches nothing at startup")

	fs.Uint32Var(&c.Width, "width", c.Width, "surface width (0: derive from anchors or output)")
	fs.Uint32Var(&c.Height, "height", c.Height, "surface height (0: derive from anchors or output)")
	fs.StringSliceVarP(&c.Anchors, "anchor", "a", c.Anchors, "edges to anchor to: top, bottom, left, right, all")
	fs.StringVarP(&c.Margin, "margin", "m", c.Margin, "margins as top,right,bottom,left")
	fs.StringVar(&c.Layer, "layer", c.Layer, "layer: background, bottom, top or overlay")
	fs.StringVar(&c.Namespace, "namespace", c.Namespace, "layer surface namespace")
	fs.Int32Var(&c.ExclusiveZone, "exclusive-zone", c.ExclusiveZone, "exclusive zone (-1: ignore other surfaces)")

	fs.IntVarP(&c.Trail, "trail", "t", c.Trail, "number of pointer positions passed to the shader")
	fs.Float64Var(&c.FPS, "fps", c.FPS, "frame rate cap (0: follow the compositor)")

	fs.BoolVar(&c.Audio, "audio", c.Audio, "capture audio for the shader")
	fs.BoolVar(&c.noAudioFlag, "no-audio", false, "disable audio capture")
	fs.StringVar(&c.AudioDevice, "audio-device", c.AudioDevice, "input device name (default: system default)")
	fs.IntVar(&c.AudioChannels, "audio-channels", c.AudioChannels, "input channels")
	fs.Float64Var(&c.AudioRate, "audio-rate", c.AudioRate, "sample rate in Hz")
	fs.IntVar(&c.AudioBuffer, "audio-buffer", c.AudioBuffer, "frames per capture buffer")
	fs.StringVar(&c.AudioSignal, "audio-signal", c.AudioSignal, "data passed to the shader: spectrum or waveform")
	fs.StringVar(&c.Magnitude, "magnitude", c.Magnitude, "spectrum bin reduction: true or legacy")
	fs.StringVar(&c.Window, "window", c.Window, "window applied before the FFT: hann or none")
	fs.BoolVar(&c.Normalize, "normalize", c.Normalize, "scale spectrum bins by 2/buffer")
	fs.IntVar(&c.AudioRetries, "audio-retries", c.AudioRetries, "failed audio reads retried before giving up")
	fs.IntVar(&c.SurfaceRetries, "surface-retries", c.SurfaceRetries, "surface reconfigurations per frame before giving up")

	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "text or json")
}

// applyChanged copies the values of the changed flags in flags onto c.
func applyChanged(c *Config, flags *pflag.FlagSet) error {
	replay := pflag.NewFlagSet("replay", pflag.ContinueOnError)
	BindFlags(replay, c)

	var err error
	flags.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		dst := replay.Lookup(f.Name)
		if dst == nil {
			return
		}
		if src, ok := f.Value.(pflag.SliceValue); ok {
			if sv, ok := dst.Value.(pflag.SliceValue); ok {
				err = sv.Replace(src.GetSlice())
				return
			}
		}
		if setErr := dst.Value.Set(f.Value.String()); setErr != nil {
			err = fmt.Errorf("config: flag --%s: %w", f.Name, setErr)
		}
	})
	return err
}
