package audio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/shaderpaper/internal/mailbox"
	"github.com/gogpu/shaderpaper/internal/spectrum"
)

// fakeDevice replays scripted reads, then returns a constant buffer.
type fakeDevice struct {
	mu     sync.Mutex
	script []fakeRead
	fill   []float32
	reads  int
	closed bool
}

type fakeRead struct {
	samples []float32
	err     error
}

func (d *fakeDevice) Read() ([]float32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	d.reads++
	if len(d.script) > 0 {
		r := d.script[0]
		d.script = d.script[1:]
		return r.samples, r.err
	}
	return d.fill, nil
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

func (d *fakeDevice) readCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reads
}

func testConfig(retries int) PipelineConfig {
	return PipelineConfig{
		Device:     DeviceConfig{Channels: 2, SampleRate: 44100, BufferSize: 4},
		Retries:    retries,
		RetryDelay: time.Millisecond,
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestDeinterleave(t *testing.T) {
	tests := []struct {
		name     string
		in       []float32
		channels int
		want     [][]float32
	}{
		{"stereo", []float32{1, 2, 3, 4, 5, 6}, 2, [][]float32{{1, 3, 5}, {2, 4, 6}}},
		{"mono", []float32{1, 2, 3}, 1, [][]float32{{1, 2, 3}}},
		{"partial frame dropped", []float32{1, 2, 3, 4, 5}, 2, [][]float32{{1, 3}, {2, 4}}},
		{"empty", nil, 2, [][]float32{{}, {}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Deinterleave(tt.in, tt.channels)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d channels, want %d", len(got), len(tt.want))
			}
			for c := range got {
				if len(got[c]) != len(tt.want[c]) {
					t.Fatalf("channel %d len = %d, want %d", c, len(got[c]), len(tt.want[c]))
				}
				for i := range got[c] {
					if got[c][i] != tt.want[c][i] {
						t.Errorf("channel %d[%d] = %v, want %v", c, i, got[c][i], tt.want[c][i])
					}
				}
			}
		})
	}
	if Deinterleave([]float32{1}, 0) != nil {
		t.Error("Deinterleave with 0 channels should return nil")
	}
}

func TestPipelinePublishes(t *testing.T) {
	dev := &fakeDevice{fill: []float32{1, -1, 1, -1, 1, -1, 1, -1}}
	var slot mailbox.Slot[Frame]
	p := NewPipeline(dev, spectrum.New(spectrum.Options{Window: spectrum.WindowNone}), &slot, testConfig(0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	waitFor(t, slot.Pending)
	f, ok := slot.TryReceive()
	if !ok {
		t.Fatal("no frame published")
	}
	if len(f.Waveform) != 2 || len(f.Waveform[0]) != 4 {
		t.Fatalf("waveform shape = %d x %d, want 2 x 4", len(f.Waveform), len(f.Waveform[0]))
	}
	if f.Waveform[0][0] != 1 || f.Waveform[1][0] != -1 {
		t.Errorf("waveform not de-interleaved: %v", f.Waveform)
	}
	if len(f.Spectrum) != 2 || len(f.Spectrum[0]) != 2 {
		t.Errorf("spectrum shape = %v", f.Spectrum)
	}
	// A constant channel has all its energy in bin 0.
	if f.Spectrum[0][0] != 4 {
		t.Errorf("spectrum[0][0] = %v, want 4", f.Spectrum[0][0])
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() after cancel = %v, want nil", err)
	}
	if !dev.closed {
		t.Error("device not closed when Run returned")
	}
}

func TestPipelineIdlesWhileUnread(t *testing.T) {
	dev := &fakeDevice{fill: make([]float32, 8)}
	var slot mailbox.Slot[Frame]
	p := NewPipeline(dev, spectrum.New(spectrum.Options{}), &slot, testConfig(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	waitFor(t, slot.Pending)
	time.Sleep(20 * p.IdleInterval())
	if n := dev.readCount(); n != 1 {
		t.Errorf("device read %d times while frame unread, want 1", n)
	}

	first, _ := slot.TryReceive()
	waitFor(t, slot.Pending)
	second, _ := slot.TryReceive()
	if second.Seq <= first.Seq {
		t.Errorf("second frame seq %d not after %d", second.Seq, first.Seq)
	}
}

func TestPipelineFramesAreFresh(t *testing.T) {
	dev := &fakeDevice{fill: []float32{1, 2, 3, 4, 5, 6, 7, 8}}
	var slot mailbox.Slot[Frame]
	p := NewPipeline(dev, spectrum.New(spectrum.Options{}), &slot, testConfig(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	waitFor(t, slot.Pending)
	a, _ := slot.TryReceive()
	a.Waveform[0][0] = 99
	waitFor(t, slot.Pending)
	b, _ := slot.TryReceive()
	if b.Waveform[0][0] != 1 {
		t.Errorf("frames share storage: got %v", b.Waveform[0][0])
	}
}

func TestPipelineRetriesTransientErrors(t *testing.T) {
	transient := errors.New("xrun")
	dev := &fakeDevice{
		script: []fakeRead{{err: transient}, {err: transient}},
		fill:   make([]float32, 8),
	}
	var slot mailbox.Slot[Frame]
	p := NewPipeline(dev, spectrum.New(spectrum.Options{}), &slot, testConfig(2))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	waitFor(t, slot.Pending)
	if n := dev.readCount(); n != 3 {
		t.Errorf("reads = %d, want 3", n)
	}
}

func TestPipelineFailsPastRetryBudget(t *testing.T) {
	broken := errors.New("device unplugged")
	dev := &fakeDevice{script: []fakeRead{{err: broken}, {err: broken}, {err: broken}}}
	var slot mailbox.Slot[Frame]
	p := NewPipeline(dev, spectrum.New(spectrum.Options{}), &slot, testConfig(1))

	err := p.Run(context.Background())
	if !errors.Is(err, broken) {
		t.Fatalf("Run() = %v, want wrapped %v", err, broken)
	}
	if n := dev.readCount(); n != 2 {
		t.Errorf("reads = %d, want 2", n)
	}
	if slot.Pending() {
		t.Error("frame published despite failure")
	}
}

func TestPipelineOverflowIsIgnorable(t *testing.T) {
	dev := &fakeDevice{
		script: []fakeRead{{samples: []float32{1, 1, 1, 1, 1, 1, 1, 1}, err: ErrInputOverflow}},
		fill:   make([]float32, 8),
	}
	var slot mailbox.Slot[Frame]
	p := NewPipeline(dev, spectrum.New(spectrum.Options{}), &slot, testConfig(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	waitFor(t, slot.Pending)
	f, _ := slot.TryReceive()
	if f.Waveform[0][0] != 1 {
		t.Errorf("overflowed buffer not published: %v", f.Waveform)
	}
}

func TestIdleInterval(t *testing.T) {
	tests := []struct {
		name string
		cfg  DeviceConfig
		want time.Duration
	}{
		{"default buffer", DeviceConfig{SampleRate: 44100, BufferSize: 4096}, 4096 * time.Second / 44100 / 4},
		{"tiny buffer clamps", DeviceConfig{SampleRate: 48000, BufferSize: 16}, time.Millisecond},
		{"zero rate clamps", DeviceConfig{BufferSize: 4096}, time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline(&fakeDevice{}, nil, nil, PipelineConfig{Device: tt.cfg})
			if got := p.IdleInterval(); got != tt.want {
				t.Errorf("IdleInterval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseSignal(t *testing.T) {
	if s, err := ParseSignal("waveform"); err != nil || s != SignalWaveform {
		t.Errorf("ParseSignal(waveform) = %v, %v", s, err)
	}
	if s, err := ParseSignal(""); err != nil || s != SignalSpectrum {
		t.Errorf("ParseSignal(\"\") = %v, %v", s, err)
	}
	if _, err := ParseSignal("midi"); err == nil {
		t.Error("ParseSignal(midi) should fail")
	}
}

func TestSignalLen(t *testing.T) {
	if got := SignalLen(SignalSpectrum, 4096); got != 2048 {
		t.Errorf("SignalLen(spectrum, 4096) = %d", got)
	}
	if got := SignalLen(SignalWaveform, 4096); got != 4096 {
		t.Errorf("SignalLen(waveform, 4096) = %d", got)
	}
	if got := SignalLen(SignalSpectrum, 1); got != 0 {
		t.Errorf("SignalLen(spectrum, 1) = %d", got)
	}
}
