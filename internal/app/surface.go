package app

import (
	"fmt"
	"os"
	"sync"

	"github.com/gogpu/shaderpaper"
	"github.com/gogpu/shaderpaper/internal/audio"
	"github.com/gogpu/shaderpaper/internal/config"
	"github.com/gogpu/shaderpaper/internal/display"
	"github.com/gogpu/shaderpaper/internal/gpu"
	"github.com/gogpu/shaderpaper/internal/output"
	"github.com/gogpu/shaderpaper/internal/render"
)

// factory builds a complete surface for a newly bound output.
type factory struct {
	cfg   *config.Config
	conn  display.Conn
	gpu   GPU
	feed  *render.AudioFeed
	clock render.Clock

	readFile   func(string) ([]byte, error)
	shaderOnce sync.Once
	shader     string
	shaderErr  error
}

var _ output.Factory = (*factory)(nil)

func (f *factory) source() (string, error) {
	f.shaderOnce.Do(func() {
		read := f.readFile
		if read == nil {
			read = os.ReadFile
		}
		b, err := read(f.cfg.Shader)
		if err != nil {
			f.shaderErr = fmt.Errorf("app: read shader: %w", err)
			return
		}
		f.shader = string(b)
	})
	return f.shader, f.shaderErr
}

func (f *factory) CreateSurface(out display.Output) (output.Surface, error) {
	src, err := f.source()
	if err != nil {
		return nil, err
	}

	opts := f.cfg.LayerOptions().Sized(out.Width, out.Height, output.FallbackSize)
	ls, err := f.conn.CreateLayerSurface(out.ID, opts)
	if err != nil {
		return nil, fmt.Errorf("app: create layer surface: %w", err)
	}

	target, program, err := f.gpu.Attach(ls.NativeHandle(), gpu.PipelineConfig{
		Label:         "shaderpaper_" + out.String(),
		Source:        src,
		TrailLen:      f.cfg.Trail,
		AudioChannels: f.cfg.AudioChannels,
		AudioLen:      audio.SignalLen(f.cfg.Signal, f.cfg.AudioBuffer),
	})
	if err != nil {
		ls.Destroy()
		return nil, err
	}

	rs := render.NewSurface(target, program, ls, render.Options{
		TrailLen:       f.cfg.Trail,
		FPS:            f.cfg.FPS,
		SurfaceRetries: f.cfg.SurfaceRetries,
		Signal:         f.cfg.Signal,
		Audio:          f.feed,
		Clock:          f.clock,
	})
	return &boundSurface{
		layer:   ls,
		render:  rs,
		reqW:    opts.Width,
		reqH:    opts.Height,
		outName: out.String(),
	}, nil
}

// boundSurface joins a layer surface to its renderer.
type boundSurface struct {
	layer  display.LayerSurface
	render *render.Surface

	reqW, reqH uint32 // size last requested from the compositor
	outName    string
}

var _ output.Surface = (*boundSurface)(nil)

func (b *boundSurface) ID() display.SurfaceID { return b.layer.ID() }

// Configure acks the configure event and sizes the GPU surface. A size
// the compositor left to us is requested explicitly so the next commit
// carries it.
func (b *boundSurface) Configure(serial, width, height uint32) error {
	b.layer.AckConfigure(serial)
	if width != b.reqW || height != b.reqH {
		b.layer.SetSize(width, height)
		b.reqW, b.reqH = width, height
	}
	if err := b.render.Configure(width, height); err != nil {
		return err
	}
	shaderpaper.Logger().Info("app: surface configured", "output", b.outName, "width", width, "height", height)
	return nil
}

func (b *boundSurface) Draw() error               { return b.render.Draw() }
func (b *boundSurface) PointerMoved(x, y float64) { b.render.PointerMoved(x, y) }
func (b *boundSurface) PointerLeft()              { b.render.PointerLeft() }

// Destroy releases the GPU objects before the Wayland surface they were
// created from.
func (b *boundSurface) Destroy() {
	st := b.render.Stats()
	shaderpaper.Logger().Debug("app: surface destroyed", "output", b.outName,
		"frames", st.Frames, "skipped", st.Skipped, "reconfigures", st.Reconfigures, "audio_uploads", st.AudioUploads)
	b.render.Destroy()
	b.layer.Destroy()
}
