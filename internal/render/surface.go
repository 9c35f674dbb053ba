package render

import (
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shaderpaper"
	"github.com/gogpu/shaderpaper/internal/audio"
	"github.com/gogpu/shaderpaper/internal/gpu"
	"github.com/gogpu/shaderpaper/internal/pointer"
)

// Target is a presentation surface.
type Target interface {
	Configure(width, height uint32) error

	// Acquire returns errors wrapping gpu.ErrSurfaceOutdated or
	// gpu.ErrSurfaceTimeout for the recoverable cases.
	Acquire() (hal.TextureView, error)
	Present() error
	Destroy()
}

// Program is the shader with its inputs.
type Program interface {
	WriteTime(seconds float32) error
	WriteTrail(data []byte) error
	WriteAudio(channels [][]float32) error
	Draw(view hal.TextureView) error
	Destroy()
}

// Frames is the layer surface side of the frame callback protocol.
type Frames interface {
	// RequestFrame asks for a callback after the next commit.
	RequestFrame()

	// Commit commits pending surface state.
	Commit()
}

// Options configures a Surface.
type Options struct {
	TrailLen int
	FPS      float64

	// SurfaceRetries bounds reconfigure-and-retry cycles per frame.
	SurfaceRetries int

	Signal audio.Signal
	Audio  *AudioFeed // nil when capture is off
	Clock  Clock
}

// Stats counts what happened on a surface.
type Stats struct {
	Frames       uint64 // presented
	Skipped      uint64 // acquire timed out or present found the surface outdated
	Reconfigures uint64
	AudioUploads uint64
	LastTime     float32
}

// Surface renders one output.
type Surface struct {
	target  Target
	program Program
	frames  Frames
	opts    Options
	clock   Clock
	limiter *Limiter

	tracker *pointer.Tracker
	trail   *pointer.Trail
	created time.Time

	width, height uint32
	configured    bool
	stale         bool // reconfigure before the next acquire

	audioSeq uint64
	stats    Stats
}

// NewSurface assembles a surface. The creation time, origin of the time
// uniform, is taken now.
func NewSurface(target Target, program Program, frames Frames, opts Options) *Surface {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock
	}
	if opts.SurfaceRetries < 0 {
		opts.SurfaceRetries = 0
	}
	return &Surface{
		target:  target,
		program: program,
		frames:  frames,
		opts:    opts,
		clock:   clock,
		limiter: NewLimiter(opts.FPS, clock),
		tracker: pointer.NewTracker(0, 0),
		trail:   pointer.NewTrail(opts.TrailLen),
		created: clock.Now(),
	}
}

// Size returns the configured size.
func (s *Surface) Size() (uint32, uint32) { return s.width, s.height }

// Configured reports whether Configure succeeded at least once.
func (s *Surface) Configured() bool { return s.configured }

// Configure sizes the presentation surface.
func (s *Surface) Configure(width, height uint32) error {
	if err := s.target.Configure(width, height); err != nil {
		return err
	}
	s.width, s.height = width, height
	s.tracker.Resize(width, height)
	s.configured = true
	s.stale = false
	return nil
}

// PointerMoved records an enter or motion event.
func (s *Surface) PointerMoved(x, y float64) { s.tracker.Move(x, y) }

// PointerLeft records that the pointer left the surface.
func (s *Surface) PointerLeft() { s.tracker.Leave() }

// Draw renders and presents one frame. A timed out acquire skips the frame
// but still commits so the requested frame callback keeps the loop going.
func (s *Surface) Draw() error {
	if !s.configured {
		return gpu.ErrNotConfigured
	}

	s.limiter.Wait()
	s.frames.RequestFrame()

	view, err := s.acquire()
	if errors.Is(err, gpu.ErrSurfaceTimeout) {
		s.stats.Skipped++
		shaderpaper.Logger().Debug("render: frame skipped, acquire timed out")
		s.frames.Commit()
		return nil
	}
	if err != nil {
		return fmt.Errorf("render: acquire: %w", err)
	}

	elapsed := float32(s.clock.Now().Sub(s.created).Seconds())
	if err := s.program.WriteTime(elapsed); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	s.stats.LastTime = elapsed

	s.trail.Push(s.tracker.Position())
	if err := s.program.WriteTrail(s.trail.Bytes()); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if f, ok := s.opts.Audio.Poll(); ok && f.Seq != s.audioSeq {
		if err := s.program.WriteAudio(f.Channels(s.opts.Signal)); err != nil {
			return fmt.Errorf("render: %w", err)
		}
		s.audioSeq = f.Seq
		s.stats.AudioUploads++
	}

	if err := s.program.Draw(view); err != nil {
		return fmt.Errorf("render: draw: %w", err)
	}
	if err := s.target.Present(); err != nil {
		if errors.Is(err, gpu.ErrSurfaceOutdated) {
			s.stale = true
			s.stats.Skipped++
			shaderpaper.Logger().Warn("render: present reported outdated surface", "error", err)
			s.frames.Commit()
			return nil
		}
		return fmt.Errorf("render: present: %w", err)
	}
	s.stats.Frames++
	return nil
}

// acquire gets the next texture, reconfiguring at the current size when
// the surface is outdated.
func (s *Surface) acquire() (hal.TextureView, error) {
	if s.stale {
		if err := s.reconfigure(); err != nil {
			return nil, err
		}
	}
	return retry.DoWithData(
		func() (hal.TextureView, error) {
			view, err := s.target.Acquire()
			if errors.Is(err, gpu.ErrSurfaceOutdated) {
				if cerr := s.reconfigure(); cerr != nil {
					return nil, cerr
				}
			}
			return view, err
		},
		retry.Attempts(uint(s.opts.SurfaceRetries)+1),
		retry.Delay(0),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, gpu.ErrSurfaceOutdated)
		}),
		retry.OnRetry(func(n uint, err error) {
			shaderpaper.Logger().Warn("render: surface outdated, reconfigured", "attempt", n+1, "error", err)
		}),
	)
}

func (s *Surface) reconfigure() error {
	if err := s.target.Configure(s.width, s.height); err != nil {
		return fmt.Errorf("render: reconfigure %dx%d: %w", s.width, s.height, err)
	}
	s.stale = false
	s.stats.Reconfigures++
	return nil
}

// Stats returns the counters.
func (s *Surface) Stats() Stats { return s.stats }

// Trail returns a copy of the pointer trail, newest first.
func (s *Surface) Trail() []pointer.Vec4 { return s.trail.Entries() }

// Destroy releases the program and target. The layer surface is released
// by the caller afterwards.
func (s *Surface) Destroy() {
	if s.program != nil {
		s.program.Destroy()
		s.program = nil
	}
	if s.target != nil {
		s.target.Destroy()
		s.target = nil
	}
}
