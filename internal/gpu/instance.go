// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Register the Vulkan backend with hal.GetBackend.
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/shaderpaper/internal/display"
)

// Instance owns the HAL instance and the devices opened from it. Devices
// are opened lazily and shared between every surface their adapter can
// present to.
type Instance struct {
	instance hal.Instance
	contexts map[string]*Context // by adapter name
}

// NewInstance creates a Vulkan HAL instance.
func NewInstance() (*Instance, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, ErrBackendUnavailable
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("gpu: create instance: %w", err)
	}
	return NewInstanceFrom(instance), nil
}

// NewInstanceFrom wraps an existing HAL instance. The Instance takes
// ownership of it.
func NewInstanceFrom(instance hal.Instance) *Instance {
	return &Instance{instance: instance, contexts: make(map[string]*Context)}
}

// CreateSurface creates a presentation surface for a Wayland surface.
// The handle must stay valid until the returned surface is destroyed.
func (i *Instance) CreateSurface(h display.NativeHandle) (*Surface, error) {
	s, err := createHALSurface(i.instance, h)
	if err != nil {
		return nil, err
	}
	return &Surface{surface: s}, nil
}

// Bind picks an adapter that can present to s, opens (or reuses) its
// device, and attaches the device to s.
func (i *Instance) Bind(s *Surface) (*Context, error) {
	adapters := i.instance.EnumerateAdapters(s.surface)
	if len(adapters) == 0 {
		return nil, ErrNoAdapter
	}

	selected, format, ok := selectAdapter(adapters, func(a *hal.ExposedAdapter) ([]gputypes.TextureFormat, bool) {
		return surfaceFormats(a.Adapter, s.surface)
	})
	if !ok {
		return nil, fmt.Errorf("%w: none of %d adapters supports the surface", ErrNoAdapter, len(adapters))
	}

	name := selected.Info.Name
	ctx, ok := i.contexts[name]
	if !ok {
		openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
		if err != nil {
			return nil, fmt.Errorf("gpu: open device on %s: %w", name, err)
		}
		ctx = &Context{
			device:  openDev.Device,
			queue:   openDev.Queue,
			adapter: selected.Adapter,
			info:    selected.Info,
			name:    name,
			format:  format,
		}
		i.contexts[name] = ctx
		slogger().Info("gpu: adapter selected", "adapter", name, "type", selected.Info.DeviceType, "format", format)
	}

	s.ctx = ctx
	s.format = format
	return ctx, nil
}

// selectAdapter prefers discrete and integrated GPUs over other device
// types, and among those the first that reports a surface format.
func selectAdapter(
	adapters []hal.ExposedAdapter,
	formats func(*hal.ExposedAdapter) ([]gputypes.TextureFormat, bool),
) (*hal.ExposedAdapter, gputypes.TextureFormat, bool) {
	var fallback *hal.ExposedAdapter
	var fallbackFormat gputypes.TextureFormat
	for idx := range adapters {
		a := &adapters[idx]
		list, ok := formats(a)
		if !ok || len(list) == 0 {
			continue
		}
		if a.Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			a.Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			return a, list[0], true
		}
		if fallback == nil {
			fallback, fallbackFormat = a, list[0]
		}
	}
	if fallback == nil {
		return nil, gputypes.TextureFormatUndefined, false
	}
	return fallback, fallbackFormat, true
}

// Destroy releases every device and the instance. Surfaces and
// pipelines must be destroyed first.
func (i *Instance) Destroy() {
	for name, ctx := range i.contexts {
		ctx.Destroy()
		delete(i.contexts, name)
	}
	if i.instance != nil {
		i.instance.Destroy()
		i.instance = nil
	}
}
