package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/pflag"

	"github.com/gogpu/shaderpaper/internal/audio"
	"github.com/gogpu/shaderpaper/internal/display"
	"github.com/gogpu/shaderpaper/internal/spectrum"
)

func parseFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c := Defaults()
	BindFlags(fs, &c)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%q): %v", args, err)
	}
	return fs
}

func TestDefaultsMatchStructTags(t *testing.T) {
	cfg, err := Load("", nil, "paper.wgsl")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := *cfg
	got.Shader = ""
	got.AnchorSet, got.Margins, got.LayerKind = 0, display.Margins{}, 0
	got.Signal, got.Spectrum, got.SlogLevel = 0, spectrum.Options{}, 0

	want := Defaults()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("envconfig defaults differ from Defaults():\n got %+v\nwant %+v", got, want)
	}
}

func TestLoadResolvesDefaults(t *testing.T) {
	cfg, err := Load("", nil, "paper.wgsl")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AnchorSet != display.AnchorBottom {
		t.Errorf("AnchorSet = %v, want bottom", cfg.AnchorSet)
	}
	if cfg.LayerKind != display.LayerBackground {
		t.Errorf("LayerKind = %v, want background", cfg.LayerKind)
	}
	if cfg.Signal != audio.SignalSpectrum {
		t.Errorf("Signal = %v, want spectrum", cfg.Signal)
	}
	if cfg.Spectrum.Magnitude != spectrum.MagnitudeTrue || cfg.Spectrum.Window != spectrum.WindowHann {
		t.Errorf("Spectrum = %+v", cfg.Spectrum)
	}
	if cfg.SlogLevel != slog.LevelInfo {
		t.Errorf("SlogLevel = %v, want info", cfg.SlogLevel)
	}
	if !cfg.SingleOutput() {
		t.Error("SingleOutput() = false by default")
	}
	if cfg.Trail != 10 {
		t.Errorf("Trail = %d, want 10", cfg.Trail)
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("SHADERPAPER_SHADER", "/tmp/env.wgsl")
	t.Setenv("SHADERPAPER_ANCHOR", "top,left")
	t.Setenv("SHADERPAPER_TRAIL", "4")
	t.Setenv("SHADERPAPER_AUDIO", "false")
	t.Setenv("SHADERPAPER_MARGIN", "1,2,3,4")

	cfg, err := Load("", nil, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Shader != "/tmp/env.wgsl" {
		t.Errorf("Shader = %q", cfg.Shader)
	}
	if cfg.AnchorSet != display.AnchorTop|display.AnchorLeft {
		t.Errorf("AnchorSet = %v", cfg.AnchorSet)
	}
	if cfg.Trail != 4 || cfg.Audio {
		t.Errorf("Trail = %d, Audio = %v", cfg.Trail, cfg.Audio)
	}
	if cfg.Margins != (display.Margins{Top: 1, Right: 2, Bottom: 3, Left: 4}) {
		t.Errorf("Margins = %+v", cfg.Margins)
	}
}

func TestLoadFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("SHADERPAPER_TRAIL", "4")
	t.Setenv("SHADERPAPER_OUTPUT", "HDMI-A-1")

	fs := parseFlags(t, "--trail", "7", "--anchor", "top", "--anchor", "right", "--no-audio")
	cfg, err := Load("", fs, "paper.wgsl")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Trail != 7 {
		t.Errorf("Trail = %d, want flag value 7", cfg.Trail)
	}
	if cfg.Output != "HDMI-A-1" {
		t.Errorf("Output = %q, want environment value kept", cfg.Output)
	}
	if cfg.AnchorSet != display.AnchorTop|display.AnchorRight {
		t.Errorf("AnchorSet = %v, want top,right", cfg.AnchorSet)
	}
	if cfg.Audio {
		t.Error("--no-audio did not disable audio")
	}
}

func TestLoadDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.env")
	content := "SHADERPAPER_SHADER=/tmp/dotenv.wgsl\nSHADERPAPER_FPS=30\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("SHADERPAPER_SHADER")
		os.Unsetenv("SHADERPAPER_FPS")
	})

	cfg, err := Load(path, nil, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Shader != "/tmp/dotenv.wgsl" || cfg.FPS != 30 {
		t.Errorf("Shader = %q, FPS = %v", cfg.Shader, cfg.FPS)
	}
}

func TestLoadMissingDotenv(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"), nil, "paper.wgsl")
	if err == nil {
		t.Fatal("Load with missing dotenv file succeeded")
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"trail zero", []string{"--trail", "0"}},
		{"negative fps", []string{"--fps", "-1"}},
		{"bad anchor", []string{"--anchor", "middle"}},
		{"bad margin", []string{"--margin", "1,2"}},
		{"bad layer", []string{"--layer", "desktop"}},
		{"bad signal", []string{"--audio-signal", "midi"}},
		{"bad magnitude", []string{"--magnitude", "loud"}},
		{"tiny buffer", []string{"--audio-buffer", "1"}},
		{"no channels", []string{"--audio-channels", "0"}},
		{"bad log level", []string{"--log-level", "chatty"}},
		{"bad log format", []string{"--log-format", "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load("", parseFlags(t, tt.args...), "paper.wgsl"); err == nil {
				t.Errorf("Load(%q) succeeded, want error", tt.args)
			}
		})
	}
}

func TestLoadRequiresShader(t *testing.T) {
	_, err := Load("", nil, "")
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("Load without shader = %v, want ErrInvalid", err)
	}
}

func TestAudioChecksSkippedWhenDisabled(t *testing.T) {
	fs := parseFlags(t, "--audio=false", "--audio-channels", "0")
	if _, err := Load("", fs, "paper.wgsl"); err != nil {
		t.Errorf("Load with audio disabled = %v, want nil", err)
	}
}

func TestLayerOptions(t *testing.T) {
	fs := parseFlags(t, "--width", "800", "--height", "600", "--layer", "bottom", "--exclusive-zone", "0", "-a", "all")
	cfg, err := Load("", fs, "paper.wgsl")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	opts := cfg.LayerOptions()
	want := display.LayerOptions{
		Layer:     display.LayerBottom,
		Namespace: "shaderpaper",
		Anchor:    display.AnchorAll,
		Width:     800,
		Height:    600,
	}
	if opts != want {
		t.Errorf("LayerOptions() = %+v, want %+v", opts, want)
	}

	dc := cfg.AudioDeviceConfig()
	if dc.Channels != 2 || dc.SampleRate != 44100 || dc.BufferSize != 4096 {
		t.Errorf("AudioDeviceConfig() = %+v", dc)
	}
}
