package audio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/gogpu/shaderpaper"
	"github.com/gogpu/shaderpaper/internal/mailbox"
	"github.com/gogpu/shaderpaper/internal/spectrum"
)

// minIdle bounds the busy-wait interval for tiny buffers.
const minIdle = time.Millisecond

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	Device DeviceConfig

	// Retries is how many times a failed read is retried before the
	// pipeline gives up.
	Retries    int
	RetryDelay time.Duration
}

// Pipeline reads from a Device and publishes Frames into a slot.
type Pipeline struct {
	dev    Device
	engine *spectrum.Engine
	slot   *mailbox.Slot[Frame]
	cfg    PipelineConfig

	idle time.Duration
	seq  uint64

	overflows uint64
}

// NewPipeline returns a pipeline publishing to slot. The pipeline owns dev
// and closes it when Run returns.
func NewPipeline(dev Device, engine *spectrum.Engine, slot *mailbox.Slot[Frame], cfg PipelineConfig) *Pipeline {
	idle := minIdle
	if cfg.Device.SampleRate > 0 {
		period := time.Duration(float64(cfg.Device.BufferSize) / cfg.Device.SampleRate * float64(time.Second))
		if period/4 > idle {
			idle = period / 4
		}
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 50 * time.Millisecond
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &Pipeline{dev: dev, engine: engine, slot: slot, cfg: cfg, idle: idle}
}

// IdleInterval returns how long the pipeline waits between checks while
// the previous frame is unread.
func (p *Pipeline) IdleInterval() time.Duration { return p.idle }

// Run captures until ctx is done or a read fails past the retry budget.
// Cancellation returns nil.
func (p *Pipeline) Run(ctx context.Context) error {
	defer func() {
		if err := p.dev.Close(); err != nil {
			shaderpaper.Logger().Warn("audio: close device", "error", err)
		}
	}()

	timer := time.NewTimer(p.idle)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}

		if p.slot.Pending() {
			timer.Reset(p.idle)
			select {
			case <-ctx.Done():
				return nil
			case <-timer.C:
			}
			continue
		}

		samples, err := p.read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		waveform := Deinterleave(samples, p.cfg.Device.Channels)
		p.seq++
		p.slot.Send(Frame{
			Seq:      p.seq,
			Waveform: waveform,
			Spectrum: p.engine.ComputeChannels(waveform),
		})
	}
}

// read performs one device read with bounded retries.
func (p *Pipeline) read(ctx context.Context) ([]float32, error) {
	samples, err := retry.DoWithData(
		func() ([]float32, error) {
			s, err := p.dev.Read()
			if errors.Is(err, ErrInputOverflow) {
				p.overflows++
				shaderpaper.Logger().Debug("audio: input overflow", "count", p.overflows)
				return s, nil
			}
			return s, err
		},
		retry.Context(ctx),
		retry.Attempts(uint(p.cfg.Retries)+1),
		retry.Delay(p.cfg.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrClosed)
		}),
		retry.OnRetry(func(n uint, err error) {
			shaderpaper.Logger().Warn("audio: read failed, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("audio: read: %w", err)
	}
	return samples, nil
}
