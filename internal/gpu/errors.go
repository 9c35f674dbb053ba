// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import "errors"

var (
	// ErrBackendUnavailable is returned when the Vulkan HAL backend is not
	// registered in this binary.
	ErrBackendUnavailable = errors.New("gpu: vulkan backend not available")

	// ErrNoAdapter is returned when no adapter can present to the surface.
	ErrNoAdapter = errors.New("gpu: no compatible adapter")

	// ErrShaderInvalid is returned when the WGSL source fails to compile.
	ErrShaderInvalid = errors.New("gpu: invalid shader")

	// ErrSurfaceOutdated is returned by Acquire when the surface must be
	// reconfigured before it can be used again. Lost surfaces report it
	// as well.
	ErrSurfaceOutdated = errors.New("gpu: surface outdated")

	// ErrSurfaceTimeout is returned by Acquire when no texture became
	// available in time. The frame should be skipped.
	ErrSurfaceTimeout = errors.New("gpu: surface acquire timed out")

	// ErrFrameTimeout is returned by Draw when the GPU did not finish a
	// frame in time.
	ErrFrameTimeout = errors.New("gpu: frame did not complete in time")

	// ErrNotConfigured is returned when a surface is used before Configure.
	ErrNotConfigured = errors.New("gpu: surface not configured")

	// ErrInvalidProvider is returned when a device provider does not
	// expose HAL types.
	ErrInvalidProvider = errors.New("gpu: provider does not expose HAL device and queue")
)
