package audio

// Deinterleave splits frames of interleaved samples into one slice per
// channel. A trailing partial frame is dropped. channels below one yields
// nil.
func Deinterleave(samples []float32, channels int) [][]float32 {
	if channels < 1 {
		return nil
	}
	frames := len(samples) / channels
	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		base := i * channels
		for c := 0; c < channels; c++ {
			out[c][i] = samples[base+c]
		}
	}
	return out
}
