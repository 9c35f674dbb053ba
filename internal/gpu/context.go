// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Context is an opened device, its queue and the surface format chosen
// for it. It implements gpucontext.DeviceProvider and additionally exposes
// the HAL objects through HalDevice and HalQueue.
type Context struct {
	device  hal.Device
	queue   hal.Queue
	adapter hal.Adapter
	info    gputypes.AdapterInfo
	name    string
	format  gputypes.TextureFormat
}

// NewContext wraps an already opened device.
func NewContext(device hal.Device, queue hal.Queue, format gputypes.TextureFormat) *Context {
	return &Context{device: device, queue: queue, format: format}
}

// deviceHandle adapts hal.Device to gpucontext.Device.
type deviceHandle struct {
	hal.Device
}

// Poll is a no-op: Draw waits for its own submission.
func (deviceHandle) Poll(bool) {}

// Device returns the device as a gpucontext.Device.
func (c *Context) Device() gpucontext.Device { return deviceHandle{c.device} }

// Queue returns the queue.
func (c *Context) Queue() gpucontext.Queue { return c.queue }

// Adapter returns the adapter the device was opened on. Nil for contexts
// built with NewContext.
func (c *Context) Adapter() gpucontext.Adapter { return c.adapter }

// AdapterInfo reports the adapter name and type. Contexts built with
// NewContext report an unknown type.
func (c *Context) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: c.info.Name, Type: adapterType(c.info.DeviceType, c.adapter != nil)}
}

func adapterType(t gputypes.DeviceType, known bool) gpucontext.AdapterType {
	if !known {
		return gpucontext.AdapterTypeUnknown
	}
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	}
	return gpucontext.AdapterTypeUnknown
}

// SurfaceFormat returns the color format surfaces are configured with.
func (c *Context) SurfaceFormat() gputypes.TextureFormat { return c.format }

// HalDevice returns the hal.Device.
func (c *Context) HalDevice() any { return c.device }

// HalQueue returns the hal.Queue.
func (c *Context) HalQueue() any { return c.queue }

// AdapterName returns the adapter name reported by the driver.
func (c *Context) AdapterName() string { return c.name }

// Destroy releases the device.
func (c *Context) Destroy() {
	if c.device != nil {
		c.device.Destroy()
		c.device = nil
		c.queue = nil
	}
}

var _ gpucontext.DeviceProvider = (*Context)(nil)

// halFromProvider extracts HAL objects from a provider, the same way any
// gogpu consumer of a shared device does.
func halFromProvider(provider gpucontext.DeviceProvider) (hal.Device, hal.Queue, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, nil, ErrInvalidProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("%w: HalDevice is %T", ErrInvalidProvider, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("%w: HalQueue is %T", ErrInvalidProvider, hp.HalQueue())
	}
	return device, queue, nil
}
