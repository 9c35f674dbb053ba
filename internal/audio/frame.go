package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Signal selects which part of a Frame is uploaded to the shader.
type Signal int

const (
	SignalSpectrum Signal = iota
	SignalWaveform
)

func (s Signal) String() string {
	switch s {
	case SignalSpectrum:
		return "spectrum"
	case SignalWaveform:
		return "waveform"
	}
	return fmt.Sprintf("Signal(%d)", int(s))
}

// ParseSignal maps "spectrum" and "waveform" to a Signal.
func ParseSignal(s string) (Signal, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "spectrum", "fft":
		return SignalSpectrum, nil
	case "waveform", "wave", "pcm":
		return SignalWaveform, nil
	}
	return 0, fmt.Errorf("audio: unknown signal %q", s)
}

// Frame is one published capture. Slices are freshly allocated for every
// Frame and never written after publication.
type Frame struct {
	Seq      uint64
	Waveform [][]float32 // per channel, bufferSize samples
	Spectrum [][]float32 // per channel, bufferSize/2 bins
}

// Channels returns the per-channel data for sig.
func (f Frame) Channels(sig Signal) [][]float32 {
	if sig == SignalWaveform {
		return f.Waveform
	}
	return f.Spectrum
}

// SignalLen returns the per-channel element count of sig for a given
// buffer size.
func SignalLen(sig Signal, bufferSize int) int {
	if sig == SignalWaveform {
		return bufferSize
	}
	if bufferSize < 2 {
		return 0
	}
	return bufferSize / 2
}

// EncodeFloats writes v as little-endian f32 values into dst, which must
// hold at least 4*len(v) bytes, and returns the written prefix.
func EncodeFloats(dst []byte, v []float32) []byte {
	for i, f := range v {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
	return dst[:len(v)*4]
}
