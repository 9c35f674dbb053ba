// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package spectrum turns blocks of audio samples into per-bin magnitude
// spectra for upload to the shader.
//
// For a block of L samples the engine computes a forward real FFT and
// keeps the first L/2 bins. Blocks shorter than two samples yield an
// empty spectrum.
//
// Two magnitude modes exist. MagnitudeTrue reports sqrt(re²+im²).
// MagnitudeLegacy reports max(re,0) + max(-im,0), which is NOT a
// magnitude. It exists so shaders tuned against it keep their look.
package spectrum
