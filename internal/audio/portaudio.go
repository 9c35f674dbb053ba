//go:build cgo

package audio

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/gogpu/shaderpaper"
)

// paDevice is a blocking PortAudio input stream.
type paDevice struct {
	stream *portaudio.Stream
	buf    []float32
	frames int
	closed bool
}

// Open initializes PortAudio and starts a blocking input stream matching
// cfg. The stream is running when Open returns.
func Open(cfg DeviceConfig) (Device, error) {
	if cfg.Channels < 1 || cfg.BufferSize < 1 || cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: channels=%d rate=%v buffer=%d",
			ErrInvalidDeviceConfig, cfg.Channels, cfg.SampleRate, cfg.BufferSize)
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audio: initialize portaudio: %w", err)
	}

	dev, err := openStream(cfg)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}
	return dev, nil
}

func openStream(cfg DeviceConfig) (*paDevice, error) {
	info, err := selectDevice(cfg.Name)
	if err != nil {
		return nil, err
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: cfg.Channels,
			Latency:  info.DefaultLowInputLatency,
		},
		SampleRate:      cfg.SampleRate,
		FramesPerBuffer: cfg.BufferSize,
	}
	buf := make([]float32, cfg.BufferSize*cfg.Channels)

	if err := portaudio.IsFormatSupported(params, buf); err != nil {
		return nil, fmt.Errorf("%w: %s: %d channels at %v Hz: %v",
			ErrInvalidDeviceConfig, info.Name, cfg.Channels, cfg.SampleRate, err)
	}

	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrInvalidDeviceConfig, info.Name, err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("audio: start stream on %s: %w", info.Name, err)
	}

	shaderpaper.Logger().Info("audio: capture started",
		"device", info.Name,
		"channels", cfg.Channels,
		"rate", cfg.SampleRate,
		"buffer", cfg.BufferSize)

	return &paDevice{stream: stream, buf: buf, frames: cfg.BufferSize}, nil
}

func selectDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		info, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("%w: no default input: %v", ErrDeviceNotFound, err)
		}
		return info, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("audio: enumerate devices: %w", err)
	}
	for _, d := range devices {
		if d.Name == name && d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}

// Read discards whole buffers that queued up while the pipeline was idle,
// then reads the newest one.
func (d *paDevice) Read() ([]float32, error) {
	if d.closed {
		return nil, ErrClosed
	}

	for {
		avail, err := d.stream.AvailableToRead()
		if err != nil || avail < 2*d.frames {
			break
		}
		if err := d.stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
			return nil, err
		}
	}

	err := d.stream.Read()
	if errors.Is(err, portaudio.InputOverflowed) {
		return d.buf, fmt.Errorf("%w: %v", ErrInputOverflow, err)
	}
	if err != nil {
		return nil, err
	}
	return d.buf, nil
}

func (d *paDevice) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	var errs []error
	if err := d.stream.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop stream: %w", err))
	}
	if err := d.stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close stream: %w", err))
	}
	if err := portaudio.Terminate(); err != nil {
		errs = append(errs, fmt.Errorf("terminate: %w", err))
	}
	return errors.Join(errs...)
}

// ListInputDevices enumerates devices with at least one input channel.
func ListInputDevices() ([]DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audio: initialize portaudio: %w", err)
	}
	defer func() { _ = portaudio.Terminate() }()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("audio: enumerate devices: %w", err)
	}
	def, _ := portaudio.DefaultInputDevice()

	var out []DeviceInfo
	for _, d := range devices {
		if d.MaxInputChannels < 1 {
			continue
		}
		info := DeviceInfo{
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
			Default:           def != nil && d.Name == def.Name,
		}
		if d.HostApi != nil {
			info.HostAPI = d.HostApi.Name
		}
		out = append(out, info)
	}
	return out, nil
}
