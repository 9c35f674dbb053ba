// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package spectrum

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// ErrUnknownMode is returned by the Parse functions for unrecognized names.
var ErrUnknownMode = errors.New("spectrum: unknown mode")

// Magnitude selects how a complex bin is reduced to one value.
type Magnitude int

const (
	// MagnitudeTrue is the Euclidean norm of the bin.
	MagnitudeTrue Magnitude = iota

	// MagnitudeLegacy sums the positive real part and the negated
	// negative imaginary part.
	MagnitudeLegacy
)

// String returns the configuration name of the mode.
func (m Magnitude) String() string {
	switch m {
	case MagnitudeTrue:
		return "true"
	case MagnitudeLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("Magnitude(%d)", int(m))
	}
}

// ParseMagnitude maps "true" and "legacy" to a Magnitude.
func ParseMagnitude(s string) (Magnitude, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "true":
		return MagnitudeTrue, nil
	case "legacy":
		return MagnitudeLegacy, nil
	}
	return 0, fmt.Errorf("%w: magnitude %q", ErrUnknownMode, s)
}

// Window selects the window applied to a block before the transform.
type Window int

const (
	// WindowHann tapers the block with a Hann window.
	WindowHann Window = iota

	// WindowNone transforms the raw block.
	WindowNone
)

// String returns the configuration name of the window.
func (w Window) String() string {
	switch w {
	case WindowHann:
		return "hann"
	case WindowNone:
		return "none"
	default:
		return fmt.Sprintf("Window(%d)", int(w))
	}
}

// ParseWindow maps "hann" and "none" to a Window.
func ParseWindow(s string) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hann":
		return WindowHann, nil
	case "none", "rect", "rectangular":
		return WindowNone, nil
	}
	return 0, fmt.Errorf("%w: window %q", ErrUnknownMode, s)
}

// Options configures an Engine.
type Options struct {
	Magnitude Magnitude
	Window    Window

	// Normalize scales each bin by 2/L so a full-scale sine in bin k
	// reads 1.0 with WindowNone.
	Normalize bool
}

// Engine computes spectra. It keeps scratch buffers between calls and is
// not safe for concurrent use; the audio pipeline owns one.
type Engine struct {
	opts Options

	scratch []float64
	coeffs  []float64 // window coefficients for len(scratch)
}

// New returns an engine with the given options.
func New(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Options returns the engine configuration.
func (e *Engine) Options() Options { return e.opts }

// Compute returns the spectrum of one block of samples. The result has
// len(samples)/2 bins and is freshly allocated.
func (e *Engine) Compute(samples []float32) []float32 {
	n := len(samples)
	if n < 2 {
		return []float32{}
	}

	e.prepare(n)
	for i, s := range samples {
		e.scratch[i] = float64(s)
	}
	if e.coeffs != nil {
		for i := range e.scratch {
			e.scratch[i] *= e.coeffs[i]
		}
	}

	bins := fft.FFTReal(e.scratch)
	half := n / 2

	scale := 1.0
	if e.opts.Normalize {
		scale = 2 / float64(n)
	}

	out := make([]float32, half)
	for k := 0; k < half; k++ {
		out[k] = float32(reduce(bins[k], e.opts.Magnitude) * scale)
	}
	return out
}

// ComputeChannels runs Compute on each channel.
func (e *Engine) ComputeChannels(channels [][]float32) [][]float32 {
	out := make([][]float32, len(channels))
	for i, ch := range channels {
		out[i] = e.Compute(ch)
	}
	return out
}

// prepare sizes the scratch buffer and window table for n samples.
func (e *Engine) prepare(n int) {
	if len(e.scratch) == n {
		return
	}
	e.scratch = make([]float64, n)
	e.coeffs = nil
	if e.opts.Window == WindowHann {
		e.coeffs = window.Hann(n)
	}
}

func reduce(c complex128, mode Magnitude) float64 {
	re, im := real(c), imag(c)
	if mode == MagnitudeLegacy {
		return math.Max(re, 0) + math.Max(-im, 0)
	}
	return math.Hypot(re, im)
}
