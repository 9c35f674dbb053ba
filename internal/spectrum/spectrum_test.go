package spectrum

import (
	"errors"
	"math"
	"testing"
)

func sine(n, bin int, phase float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2*math.Pi*float64(bin)*float64(i)/float64(n) + phase))
	}
	return out
}

func TestComputeShortBlocks(t *testing.T) {
	e := New(Options{})
	for _, n := range []int{0, 1} {
		got := e.Compute(make([]float32, n))
		if got == nil {
			t.Errorf("Compute(len %d) = nil, want empty slice", n)
		}
		if len(got) != 0 {
			t.Errorf("Compute(len %d) has %d bins, want 0", n, len(got))
		}
	}
}

func TestComputeBinCount(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{2, 1},
		{3, 1},
		{64, 32},
		{100, 50},
		{4096, 2048},
	}
	e := New(Options{})
	for _, tt := range tests {
		if got := len(e.Compute(make([]float32, tt.n))); got != tt.want {
			t.Errorf("len(Compute(len %d)) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestComputeZeros(t *testing.T) {
	for _, mode := range []Magnitude{MagnitudeTrue, MagnitudeLegacy} {
		t.Run(mode.String(), func(t *testing.T) {
			e := New(Options{Magnitude: mode})
			for k, v := range e.Compute(make([]float32, 256)) {
				if v != 0 {
					t.Fatalf("bin %d = %v, want 0", k, v)
				}
			}
		})
	}
}

func TestComputeSinePeak(t *testing.T) {
	const n, bin = 256, 12
	tests := []struct {
		name string
		opts Options
		peak float64
	}{
		{"raw", Options{Window: WindowNone}, n / 2},
		{"normalized", Options{Window: WindowNone, Normalize: true}, 1},
		{"hann", Options{Window: WindowHann}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.opts).Compute(sine(n, bin, 0))
			best := 0
			for k := range got {
				if got[k] > got[best] {
					best = k
				}
			}
			if best != bin {
				t.Errorf("peak at bin %d, want %d", best, bin)
			}
			if tt.peak != 0 && math.Abs(float64(got[bin])-tt.peak) > tt.peak*1e-4 {
				t.Errorf("peak = %v, want %v", got[bin], tt.peak)
			}
			if tt.opts.Window == WindowNone {
				for k, v := range got {
					if k != bin && math.Abs(float64(v)) > 1e-3 {
						t.Errorf("bin %d = %v, want ~0", k, v)
					}
				}
			}
		})
	}
}

func TestLegacyIsNotMagnitude(t *testing.T) {
	const n, bin = 128, 5

	// sin has a negative imaginary part in bin k, cos a positive real part,
	// -cos a negative real part which the legacy heuristic discards.
	tests := []struct {
		name   string
		phase  float64
		legacy float64
	}{
		{"sin", 0, n / 2},
		{"cos", math.Pi / 2, n / 2},
		{"-cos", -math.Pi / 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := sine(n, bin, tt.phase)
			trueMag := New(Options{Window: WindowNone}).Compute(samples)
			legacy := New(Options{Window: WindowNone, Magnitude: MagnitudeLegacy}).Compute(samples)

			if math.Abs(float64(trueMag[bin])-n/2) > 1e-2 {
				t.Errorf("true magnitude = %v, want %v", trueMag[bin], n/2)
			}
			if math.Abs(float64(legacy[bin])-tt.legacy) > 1e-2 {
				t.Errorf("legacy = %v, want %v", legacy[bin], tt.legacy)
			}
		})
	}
}

func TestComputeChannels(t *testing.T) {
	e := New(Options{Window: WindowNone})
	out := e.ComputeChannels([][]float32{sine(64, 3, 0), sine(64, 7, 0), {}})
	if len(out) != 3 {
		t.Fatalf("got %d channels, want 3", len(out))
	}
	if out[0][3] < out[0][7] || out[1][7] < out[1][3] {
		t.Error("channels were mixed up")
	}
	if len(out[2]) != 0 {
		t.Errorf("empty channel produced %d bins", len(out[2]))
	}
}

func TestComputeReusesScratchAcrossSizes(t *testing.T) {
	e := New(Options{})
	a := e.Compute(sine(64, 4, 0))
	b := e.Compute(sine(32, 4, 0))
	c := e.Compute(sine(64, 4, 0))
	if len(a) != 32 || len(b) != 16 || len(c) != 32 {
		t.Fatalf("bin counts = %d %d %d", len(a), len(b), len(c))
	}
	for k := range a {
		if a[k] != c[k] {
			t.Fatalf("bin %d differs after resize: %v vs %v", k, a[k], c[k])
		}
	}
	// Outputs must not alias the engine's scratch.
	a[0] = -1
	if e.Compute(sine(64, 4, 0))[0] == -1 {
		t.Error("Compute result aliases internal buffer")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		mag     Magnitude
		wantErr bool
	}{
		{"", MagnitudeTrue, false},
		{"true", MagnitudeTrue, false},
		{"LEGACY", MagnitudeLegacy, false},
		{"loud", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMagnitude(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMagnitude(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnknownMode) {
			t.Errorf("ParseMagnitude(%q) error = %v, want ErrUnknownMode", tt.in, err)
		}
		if got != tt.mag {
			t.Errorf("ParseMagnitude(%q) = %v, want %v", tt.in, got, tt.mag)
		}
	}

	if w, err := ParseWindow("none"); err != nil || w != WindowNone {
		t.Errorf("ParseWindow(none) = %v, %v", w, err)
	}
	if _, err := ParseWindow("kaiser"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("ParseWindow(kaiser) error = %v, want ErrUnknownMode", err)
	}
}
