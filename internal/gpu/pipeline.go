// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

const (
	// timeUniformSize pads the f32 time uniform to the minimum uniform
	// binding size.
	timeUniformSize = 16

	// trailEntrySize is the size of one vec4<f32> trail entry.
	trailEntrySize = 16

	// frameTimeout bounds the wait for one frame's GPU work.
	frameTimeout = 5 * time.Second

	// pollInterval is the pause between completion checks.
	pollInterval = 100 * time.Microsecond
)

// ClearColor is the color behind the shader output.
var ClearColor = gputypes.Color{R: 0.1, G: 0.2, B: 0.3, A: 1}

// PipelineConfig describes the shader and its inputs.
type PipelineConfig struct {
	Label  string
	Source string // WGSL with vs_main and fs_main entry points

	// TrailLen is the number of vec4 entries in the pointer uniform.
	TrailLen int

	// AudioChannels is the number of storage bindings in group 2, and
	// AudioLen the number of f32 values in each.
	AudioChannels int
	AudioLen      int
}

// Pipeline owns the compiled shader, its pipeline and the buffers bound
// at groups 0 to 2.
type Pipeline struct {
	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat
	cfg    PipelineConfig

	shader     hal.ShaderModule
	layouts    [3]hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline

	timeBuf   hal.Buffer
	trailBuf  hal.Buffer
	audioBufs []hal.Buffer
	groups    [3]hal.BindGroup

	timeScratch  [timeUniformSize]byte
	audioScratch []byte
}

// ValidateShader compiles WGSL source without a device, reporting syntax
// and type errors before any GPU object is created.
func ValidateShader(source string) error {
	if _, err := naga.Compile(source); err != nil {
		return fmt.Errorf("%w: %v", ErrShaderInvalid, err)
	}
	return nil
}

// NewPipeline validates and compiles cfg.Source and creates every GPU
// object needed to draw it on provider's device.
func NewPipeline(provider gpucontext.DeviceProvider, cfg PipelineConfig) (*Pipeline, error) {
	device, queue, err := halFromProvider(provider)
	if err != nil {
		return nil, err
	}
	if cfg.TrailLen < 1 {
		cfg.TrailLen = 1
	}
	if cfg.AudioChannels < 1 {
		cfg.AudioChannels = 1
	}
	if cfg.AudioLen < 1 {
		cfg.AudioLen = 1
	}
	if cfg.Label == "" {
		cfg.Label = "shaderpaper"
	}

	if err := ValidateShader(cfg.Source); err != nil {
		return nil, err
	}

	p := &Pipeline{
		device:       device,
		queue:        queue,
		format:       provider.SurfaceFormat(),
		cfg:          cfg,
		audioScratch: make([]byte, cfg.AudioLen*4),
	}
	if err := p.createPipeline(); err != nil {
		p.Destroy()
		return nil, err
	}
	if err := p.createBindings(); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

// Config returns the configuration after defaults were applied.
func (p *Pipeline) Config() PipelineConfig { return p.cfg }

func (p *Pipeline) createPipeline() error {
	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  p.cfg.Label + "_shader",
		Source: hal.ShaderSource{WGSL: p.cfg.Source},
	})
	if err != nil {
		return fmt.Errorf("%w: create module: %v", ErrShaderInvalid, err)
	}
	p.shader = shader

	uniform := &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
	storage := &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}

	entries := [3][]gputypes.BindGroupLayoutEntry{
		{{Binding: 0, Visibility: gputypes.ShaderStageFragment, Buffer: uniform}},
		{{Binding: 0, Visibility: gputypes.ShaderStageFragment, Buffer: uniform}},
		make([]gputypes.BindGroupLayoutEntry, p.cfg.AudioChannels),
	}
	for c := range entries[2] {
		entries[2][c] = gputypes.BindGroupLayoutEntry{
			Binding:    uint32(c),
			Visibility: gputypes.ShaderStageFragment,
			Buffer:     storage,
		}
	}
	names := [3]string{"time", "pointer", "audio"}
	for g := range entries {
		layout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   p.cfg.Label + "_" + names[g] + "_layout",
			Entries: entries[g],
		})
		if err != nil {
			return fmt.Errorf("gpu: create %s bind group layout: %w", names[g], err)
		}
		p.layouts[g] = layout
	}

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            p.cfg.Label + "_pipe_layout",
		BindGroupLayouts: p.layouts[:],
	})
	if err != nil {
		return fmt.Errorf("gpu: create pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	// No blend state: the shader output replaces the clear color.
	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  p.cfg.Label + "_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    p.format,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create render pipeline: %w", err)
	}
	p.pipeline = pipeline
	return nil
}

func (p *Pipeline) createBindings() error {
	var err error
	uniformUsage := gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst
	storageUsage := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst

	trailSize := uint64(p.cfg.TrailLen * trailEntrySize)
	audioSize := uint64(p.cfg.AudioLen * 4)

	if p.timeBuf, err = p.createBuffer("time", timeUniformSize, uniformUsage); err != nil {
		return err
	}
	if p.trailBuf, err = p.createBuffer("pointer", trailSize, uniformUsage); err != nil {
		return err
	}
	p.audioBufs = make([]hal.Buffer, p.cfg.AudioChannels)
	for c := range p.audioBufs {
		if p.audioBufs[c], err = p.createBuffer(fmt.Sprintf("audio%d", c), audioSize, storageUsage); err != nil {
			return err
		}
	}

	if p.groups[0], err = p.createGroup(0, "time", []gputypes.BindGroupEntry{
		{Binding: 0, Resource: gputypes.BufferBinding{Buffer: p.timeBuf.NativeHandle(), Offset: 0, Size: timeUniformSize}},
	}); err != nil {
		return err
	}
	if p.groups[1], err = p.createGroup(1, "pointer", []gputypes.BindGroupEntry{
		{Binding: 0, Resource: gputypes.BufferBinding{Buffer: p.trailBuf.NativeHandle(), Offset: 0, Size: trailSize}},
	}); err != nil {
		return err
	}
	audioEntries := make([]gputypes.BindGroupEntry, len(p.audioBufs))
	for c, buf := range p.audioBufs {
		audioEntries[c] = gputypes.BindGroupEntry{
			Binding:  uint32(c),
			Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: 0, Size: audioSize},
		}
	}
	if p.groups[2], err = p.createGroup(2, "audio", audioEntries); err != nil {
		return err
	}
	return nil
}

// createBuffer allocates a buffer and clears it.
func (p *Pipeline) createBuffer(name string, size uint64, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: p.cfg.Label + "_" + name,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s buffer: %w", name, err)
	}
	if err := p.queue.WriteBuffer(buf, 0, make([]byte, size)); err != nil {
		p.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("gpu: clear %s buffer: %w", name, err)
	}
	return buf, nil
}

func (p *Pipeline) createGroup(index int, name string, entries []gputypes.BindGroupEntry) (hal.BindGroup, error) {
	bg, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   p.cfg.Label + "_" + name + "_group",
		Layout:  p.layouts[index],
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s bind group: %w", name, err)
	}
	return bg, nil
}

// WriteTime uploads the elapsed time uniform.
func (p *Pipeline) WriteTime(seconds float32) error {
	binary.LittleEndian.PutUint32(p.timeScratch[:], math.Float32bits(seconds))
	if err := p.queue.WriteBuffer(p.timeBuf, 0, p.timeScratch[:]); err != nil {
		return fmt.Errorf("gpu: write time: %w", err)
	}
	return nil
}

// WriteTrail uploads an encoded array<vec4<f32>, N> of exactly TrailLen
// entries.
func (p *Pipeline) WriteTrail(data []byte) error {
	if want := p.cfg.TrailLen * trailEntrySize; len(data) != want {
		return fmt.Errorf("gpu: trail is %d bytes, want %d", len(data), want)
	}
	if err := p.queue.WriteBuffer(p.trailBuf, 0, data); err != nil {
		return fmt.Errorf("gpu: write trail: %w", err)
	}
	return nil
}

// WriteAudio uploads one slice per channel. Each slice is truncated or
// zero-padded to AudioLen. Channels beyond AudioChannels are ignored and
// missing channels are zeroed.
func (p *Pipeline) WriteAudio(channels [][]float32) error {
	for c, buf := range p.audioBufs {
		var src []float32
		if c < len(channels) {
			src = channels[c]
		}
		if err := p.queue.WriteBuffer(buf, 0, encodePadded(p.audioScratch, src)); err != nil {
			return fmt.Errorf("gpu: write audio channel %d: %w", c, err)
		}
	}
	return nil
}

// encodePadded writes src as little-endian f32 into dst, zeroing the rest.
func encodePadded(dst []byte, src []float32) []byte {
	n := len(dst) / 4
	for i := 0; i < n; i++ {
		var v float32
		if i < len(src) {
			v = src[i]
		}
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
	return dst
}

// Draw records one render pass into view, submits it and waits for the
// GPU to finish. The caller presents afterwards.
func (p *Pipeline) Draw(view hal.TextureView) error {
	encoder, err := p.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: p.cfg.Label + "_encoder",
	})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(p.cfg.Label + "_frame"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: p.cfg.Label + "_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: ClearColor,
		}},
	})
	rp.SetPipeline(p.pipeline)
	for g, bg := range p.groups {
		rp.SetBindGroup(uint32(g), bg, nil)
	}
	rp.Draw(3, 1, 0, 0)
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}

	idx, err := p.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		p.device.FreeCommandBuffer(cmdBuf)
		return fmt.Errorf("gpu: submit: %w", err)
	}
	if err := waitSubmitted(p.queue, idx, frameTimeout); err != nil {
		// The buffer may still be in use; leave it to the device.
		return err
	}
	p.device.FreeCommandBuffer(cmdBuf)
	return nil
}

// completionPoller is the part of hal.Queue that reports finished
// submissions.
type completionPoller interface {
	PollCompleted() uint64
}

// waitSubmitted blocks until submission idx has completed or timeout
// passes.
func waitSubmitted(q completionPoller, idx uint64, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for q.PollCompleted() < idx {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: submission %d after %v", ErrFrameTimeout, idx, timeout)
		}
		time.Sleep(pollInterval)
	}
	return nil
}

// Destroy releases all GPU objects in reverse creation order. Safe to
// call more than once.
func (p *Pipeline) Destroy() {
	if p.device == nil {
		return
	}
	for g := len(p.groups) - 1; g >= 0; g-- {
		if p.groups[g] != nil {
			p.device.DestroyBindGroup(p.groups[g])
			p.groups[g] = nil
		}
	}
	for c, buf := range p.audioBufs {
		if buf != nil {
			p.device.DestroyBuffer(buf)
			p.audioBufs[c] = nil
		}
	}
	if p.trailBuf != nil {
		p.device.DestroyBuffer(p.trailBuf)
		p.trailBuf = nil
	}
	if p.timeBuf != nil {
		p.device.DestroyBuffer(p.timeBuf)
		p.timeBuf = nil
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	for g := len(p.layouts) - 1; g >= 0; g-- {
		if p.layouts[g] != nil {
			p.device.DestroyBindGroupLayout(p.layouts[g])
			p.layouts[g] = nil
		}
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
