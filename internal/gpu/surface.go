// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shaderpaper/internal/display"
)

// createHALSurface is the only place raw display pointers cross into the
// GPU layer.
func createHALSurface(instance hal.Instance, h display.NativeHandle) (hal.Surface, error) {
	if h.Display == nil || h.Surface == nil {
		return nil, fmt.Errorf("gpu: create surface: nil native handle")
	}
	s, err := instance.CreateSurface(uintptr(h.Display), uintptr(h.Surface))
	if err != nil {
		return nil, fmt.Errorf("gpu: create surface: %w", err)
	}
	return s, nil
}

// surfaceFormats reports the formats adapter can present to s with.
func surfaceFormats(adapter hal.Adapter, s hal.Surface) ([]gputypes.TextureFormat, bool) {
	caps := adapter.SurfaceCapabilities(s)
	if caps == nil {
		return nil, false
	}
	return caps.Formats, len(caps.Formats) > 0
}

// Surface is a presentation target for one layer surface.
type Surface struct {
	surface hal.Surface
	ctx     *Context
	format  gputypes.TextureFormat

	width, height uint32
	configured    bool

	acquired *hal.AcquiredSurfaceTexture
	view     hal.TextureView
}

// Format returns the surface color format chosen by Instance.Bind.
func (s *Surface) Format() gputypes.TextureFormat { return s.format }

// Size returns the configured size.
func (s *Surface) Size() (uint32, uint32) { return s.width, s.height }

// Configure (re)configures the swapchain with FIFO presentation.
func (s *Surface) Configure(width, height uint32) error {
	if s.ctx == nil {
		return fmt.Errorf("gpu: configure surface: %w", ErrNotConfigured)
	}
	s.release()

	err := s.surface.Configure(s.ctx.device, &hal.SurfaceConfiguration{
		Width:       width,
		Height:      height,
		Format:      s.format,
		Usage:       gputypes.TextureUsageRenderAttachment,
		PresentMode: hal.PresentModeFifo,
		AlphaMode:   hal.CompositeAlphaModeOpaque,
	})
	if err != nil {
		s.configured = false
		return fmt.Errorf("gpu: configure surface %dx%d: %w", width, height, err)
	}
	s.width, s.height = width, height
	s.configured = true
	return nil
}

// Acquire returns a view of the next swapchain texture. It returns an
// error wrapping ErrSurfaceOutdated when the surface must be reconfigured
// and ErrSurfaceTimeout when the frame should be skipped.
func (s *Surface) Acquire() (hal.TextureView, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	s.release()

	acq, err := s.surface.AcquireTexture(nil)
	switch {
	case errors.Is(err, hal.ErrSurfaceOutdated), errors.Is(err, hal.ErrSurfaceLost):
		return nil, fmt.Errorf("%w: %v", ErrSurfaceOutdated, err)
	case errors.Is(err, hal.ErrTimeout):
		return nil, ErrSurfaceTimeout
	case err != nil:
		return nil, fmt.Errorf("gpu: acquire surface texture: %w", err)
	}

	view, err := s.ctx.device.CreateTextureView(acq.Texture, &hal.TextureViewDescriptor{
		Label:         "shaderpaper_surface_view",
		Format:        s.format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		s.surface.DiscardTexture(acq.Texture)
		return nil, fmt.Errorf("gpu: create surface view: %w", err)
	}
	s.acquired = acq
	s.view = view
	if acq.Suboptimal {
		slogger().Debug("gpu: suboptimal surface texture")
	}
	return view, nil
}

// Present queues the acquired texture for display.
func (s *Surface) Present() error {
	if s.acquired == nil {
		return fmt.Errorf("gpu: present: no acquired texture")
	}
	tex := s.acquired.Texture
	s.destroyView()
	s.acquired = nil
	if err := s.ctx.queue.Present(s.surface, tex, nil); err != nil {
		if errors.Is(err, hal.ErrSurfaceOutdated) || errors.Is(err, hal.ErrSurfaceLost) {
			return fmt.Errorf("%w: present: %v", ErrSurfaceOutdated, err)
		}
		return fmt.Errorf("gpu: present: %w", err)
	}
	return nil
}

// release drops a texture acquired but never presented.
func (s *Surface) release() {
	if s.acquired != nil {
		s.destroyView()
		s.surface.DiscardTexture(s.acquired.Texture)
		s.acquired = nil
	}
}

func (s *Surface) destroyView() {
	if s.view != nil && s.ctx != nil {
		s.ctx.device.DestroyTextureView(s.view)
		s.view = nil
	}
}

// Destroy unconfigures and releases the surface. The owning layer surface
// must outlive this call.
func (s *Surface) Destroy() {
	if s.surface == nil {
		return
	}
	s.release()
	if s.configured && s.ctx != nil {
		s.surface.Unconfigure(s.ctx.device)
		s.configured = false
	}
	s.surface.Destroy()
	s.surface = nil
}
