package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/gogpu/shaderpaper"
	"github.com/gogpu/shaderpaper/internal/audio"
	"github.com/gogpu/shaderpaper/internal/config"
	"github.com/gogpu/shaderpaper/internal/display"
	"github.com/gogpu/shaderpaper/internal/mailbox"
	"github.com/gogpu/shaderpaper/internal/output"
	"github.com/gogpu/shaderpaper/internal/render"
	"github.com/gogpu/shaderpaper/internal/spectrum"
)

// DispatchTimeout bounds one wait for display events, and with it how
// late cancellation and audio failures are noticed.
const DispatchTimeout = 100 * time.Millisecond

// Deps are the collaborators of an App. Conn and GPU are required.
type Deps struct {
	Conn display.Conn
	GPU  GPU

	// OpenAudio opens the capture device; nil uses audio.Open.
	OpenAudio func(audio.DeviceConfig) (audio.Device, error)

	// ReadFile reads the shader; nil uses os.ReadFile.
	ReadFile func(string) ([]byte, error)

	// Clock drives frame pacing and the time uniform; nil uses the
	// system clock.
	Clock render.Clock
}

// App is the shaderpaper event loop.
type App struct {
	cfg  *config.Config
	deps Deps
}

// New returns an App for cfg. Conn and GPU stay owned by the caller and
// must be closed after Run returns.
func New(cfg *config.Config, deps Deps) *App {
	if deps.OpenAudio == nil {
		deps.OpenAudio = audio.Open
	}
	return &App{cfg: cfg, deps: deps}
}

// Run processes display events until the compositor closes the surfaces,
// ctx is cancelled, or a fatal error occurs. Cancellation and compositor
// close return nil.
func (a *App) Run(ctx context.Context) error {
	if a.deps.Conn == nil || a.deps.GPU == nil {
		return errors.New("app: display connection and GPU are required")
	}

	// The display connection and every GPU object are used from this
	// thread only.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	audioErr := make(chan error, 1)
	workers := pool.New().WithContext(ctx).WithCancelOnError()
	defer func() {
		cancel()
		_ = workers.Wait()
	}()

	var feed *render.AudioFeed
	if a.cfg.Audio {
		var err error
		if feed, err = a.startAudio(workers, audioErr); err != nil {
			return err
		}
	} else {
		shaderpaper.Logger().Info("app: audio capture disabled")
	}

	mgr := output.NewManager(output.Policy{
		Name:          a.cfg.Output,
		SingleOutput:  a.cfg.SingleOutput(),
		WaitForOutput: a.cfg.WaitForOutput,
		Width:         a.cfg.Width,
		Height:        a.cfg.Height,
	}, &factory{
		cfg:      a.cfg,
		conn:     a.deps.Conn,
		gpu:      a.deps.GPU,
		feed:     feed,
		clock:    a.deps.Clock,
		readFile: a.deps.ReadFile,
	})
	defer mgr.Close()

	for {
		if ctx.Err() != nil {
			shaderpaper.Logger().Info("app: shutting down")
			return nil
		}
		select {
		case err := <-audioErr:
			return fmt.Errorf("app: audio: %w", err)
		default:
		}

		events, err := a.deps.Conn.Dispatch(DispatchTimeout)
		for _, ev := range events {
			exit, derr := dispatch(mgr, ev)
			if derr != nil {
				return derr
			}
			if exit {
				shaderpaper.Logger().Info("app: no surface left, exiting")
				return nil
			}
		}
		if err != nil {
			return fmt.Errorf("app: %w", err)
		}
	}
}

// startAudio opens the capture device and runs the pipeline on a pool
// goroutine. A pipeline failure is reported on errs.
func (a *App) startAudio(workers *pool.ContextPool, errs chan<- error) (*render.AudioFeed, error) {
	devCfg := a.cfg.AudioDeviceConfig()
	dev, err := a.deps.OpenAudio(devCfg)
	if err != nil {
		return nil, fmt.Errorf("app: open audio: %w", err)
	}

	slot := &mailbox.Slot[audio.Frame]{}
	pipeline := audio.NewPipeline(dev, spectrum.New(a.cfg.Spectrum), slot, audio.PipelineConfig{
		Device:  devCfg,
		Retries: a.cfg.AudioRetries,
	})
	workers.Go(func(ctx context.Context) error {
		err := pipeline.Run(ctx)
		if err != nil {
			errs <- err
		}
		return err
	})
	shaderpaper.Logger().Info("app: audio capture started",
		"device", devCfg.Name, "channels", devCfg.Channels, "rate", devCfg.SampleRate, "buffer", devCfg.BufferSize)
	return render.NewAudioFeed(slot), nil
}

// dispatch routes one display event. It reports whether the process
// should exit.
func dispatch(mgr *output.Manager, ev display.Event) (bool, error) {
	switch e := ev.(type) {
	case display.OutputAdded:
		return false, mgr.OutputAdded(e.Output)
	case display.OutputUpdated:
		return false, mgr.OutputUpdated(e.Output)
	case display.OutputRemoved:
		return false, mgr.OutputRemoved(e.ID)
	case display.PointerMoved:
		mgr.PointerMoved(e.Surface, e.X, e.Y)
	case display.PointerLeft:
		mgr.PointerLeft(e.Surface)
	case display.SurfaceConfigured:
		return false, mgr.Configure(e)
	case display.SurfaceClosed:
		return mgr.Closed(e.Surface), nil
	case display.FrameDone:
		return false, mgr.Frame(e.Surface)
	case display.Synced:
		return false, mgr.Synced()
	default:
		shaderpaper.Logger().Debug("app: unhandled display event", "type", fmt.Sprintf("%T", ev))
	}
	return false, nil
}
