package app

import (
	"fmt"

	"github.com/gogpu/shaderpaper/internal/display"
	"github.com/gogpu/shaderpaper/internal/gpu"
	"github.com/gogpu/shaderpaper/internal/render"
)

// GPU creates the GPU side of a surface.
type GPU interface {
	// Attach creates a presentation target for the native surface and a
	// shader program drawing into it on a compatible device.
	Attach(h display.NativeHandle, cfg gpu.PipelineConfig) (render.Target, render.Program, error)
	Close()
}

var (
	_ render.Target  = (*gpu.Surface)(nil)
	_ render.Program = (*gpu.Pipeline)(nil)
)

// halGPU is the Vulkan backend.
type halGPU struct {
	instance *gpu.Instance
}

// NewGPU opens the Vulkan HAL instance.
func NewGPU() (GPU, error) {
	inst, err := gpu.NewInstance()
	if err != nil {
		return nil, err
	}
	return &halGPU{instance: inst}, nil
}

func (g *halGPU) Attach(h display.NativeHandle, cfg gpu.PipelineConfig) (render.Target, render.Program, error) {
	surface, err := g.instance.CreateSurface(h)
	if err != nil {
		return nil, nil, fmt.Errorf("app: create gpu surface: %w", err)
	}
	ctx, err := g.instance.Bind(surface)
	if err != nil {
		surface.Destroy()
		return nil, nil, err
	}
	pipeline, err := gpu.NewPipeline(ctx, cfg)
	if err != nil {
		surface.Destroy()
		return nil, nil, fmt.Errorf("app: build pipeline on %s: %w", ctx.AdapterName(), err)
	}
	return surface, pipeline, nil
}

func (g *halGPU) Close() { g.instance.Destroy() }
