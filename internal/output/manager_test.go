package output

import (
	"errors"
	"testing"

	"github.com/gogpu/shaderpaper/internal/display"
)

type fakeSurface struct {
	id         display.SurfaceID
	out        display.Output
	configures []configureCall
	draws      int
	moves      int
	leaves     int
	destroyed  bool
}

type configureCall struct{ serial, w, h uint32 }

func (s *fakeSurface) ID() display.SurfaceID { return s.id }
func (s *fakeSurface) Configure(serial, w, h uint32) error {
	s.configures = append(s.configures, configureCall{serial, w, h})
	return nil
}
func (s *fakeSurface) Draw() error {
	s.draws++
	return nil
}
func (s *fakeSurface) PointerMoved(_, _ float64) { s.moves++ }
func (s *fakeSurface) PointerLeft()              { s.leaves++ }
func (s *fakeSurface) Destroy()                  { s.destroyed = true }

type fakeFactory struct {
	next    display.SurfaceID
	created []*fakeSurface
	err     error
}

func (f *fakeFactory) CreateSurface(out display.Output) (Surface, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.next++
	s := &fakeSurface{id: f.next, out: out}
	f.created = append(f.created, s)
	return s, nil
}

func (f *fakeFactory) forOutput(id display.OutputID) *fakeSurface {
	for _, s := range f.created {
		if s.out.ID == id && !s.destroyed {
			return s
		}
	}
	return nil
}

var (
	dp1  = display.Output{ID: 1, Name: "DP-1", Width: 2560, Height: 1440, Scale: 1}
	hdmi = display.Output{ID: 2, Name: "HDMI-A-1", Width: 1920, Height: 1080, Scale: 1}
	edp  = display.Output{ID: 3, Name: "eDP-1", Width: 1280, Height: 800, Scale: 2}
)

func mustAdd(t *testing.T, m *Manager, outs ...display.Output) {
	t.Helper()
	for _, o := range outs {
		if err := m.OutputAdded(o); err != nil {
			t.Fatalf("OutputAdded(%s): %v", o, err)
		}
	}
}

func wantState(t *testing.T, m *Manager, id display.OutputID, want State) {
	t.Helper()
	got, ok := m.State(id)
	if !ok {
		t.Fatalf("output %d unknown", id)
	}
	if got != want {
		t.Errorf("output %d state = %v, want %v", id, got, want)
	}
}

func TestFiltering(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		want   map[display.OutputID]State
	}{
		{
			name:   "single, no name binds first",
			policy: Policy{SingleOutput: true},
			want:   map[display.OutputID]State{1: StateBound, 2: StateFiltered, 3: StateFiltered},
		},
		{
			name:   "single, name binds match",
			policy: Policy{SingleOutput: true, Name: "HDMI-A-1"},
			want:   map[display.OutputID]State{1: StateFiltered, 2: StateBound, 3: StateFiltered},
		},
		{
			name:   "multi, no name binds all",
			policy: Policy{},
			want:   map[display.OutputID]State{1: StateBound, 2: StateBound, 3: StateBound},
		},
		{
			name:   "multi, name binds only match",
			policy: Policy{Name: "eDP-1"},
			want:   map[display.OutputID]State{1: StateFiltered, 2: StateFiltered, 3: StateBound},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFactory{}
			m := NewManager(tt.policy, f)
			mustAdd(t, m, dp1, hdmi, edp)
			for id, st := range tt.want {
				wantState(t, m, id, st)
			}
		})
	}
}

func TestDuplicateDiscoveryIgnored(t *testing.T) {
	f := &fakeFactory{}
	m := NewManager(Policy{SingleOutput: true}, f)
	mustAdd(t, m, dp1, dp1)
	if len(f.created) != 1 {
		t.Errorf("created %d surfaces, want 1", len(f.created))
	}
}

func TestFactoryErrorIsFatal(t *testing.T) {
	boom := errors.New("no adapter")
	m := NewManager(Policy{SingleOutput: true}, &fakeFactory{err: boom})
	if err := m.OutputAdded(dp1); !errors.Is(err, boom) {
		t.Errorf("OutputAdded() = %v, want %v", err, boom)
	}
}

func TestConfigureAndFrame(t *testing.T) {
	f := &fakeFactory{}
	m := NewManager(Policy{SingleOutput: true}, f)
	mustAdd(t, m, dp1)
	s := f.created[0]

	if err := m.Frame(s.id); err != nil || s.draws != 0 {
		t.Fatalf("Frame before configure drew %d times, err %v", s.draws, err)
	}

	if err := m.Configure(display.SurfaceConfigured{Surface: s.id, Serial: 9, Width: 2560, Height: 1440}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	wantState(t, m, 1, StateRendering)
	if len(s.configures) != 1 || s.configures[0] != (configureCall{9, 2560, 1440}) {
		t.Errorf("configures = %+v", s.configures)
	}
	if s.draws != 1 {
		t.Errorf("draws after configure = %d, want 1", s.draws)
	}

	for i := 0; i < 3; i++ {
		if err := m.Frame(s.id); err != nil {
			t.Fatal(err)
		}
	}
	if s.draws != 4 {
		t.Errorf("draws = %d, want 4", s.draws)
	}
}

func TestResolveSize(t *testing.T) {
	tests := []struct {
		name         string
		policy       Policy
		out          display.Output
		evW, evH     uint32
		wantW, wantH uint32
	}{
		{"event wins", Policy{Width: 10, Height: 10}, dp1, 800, 600, 800, 600},
		{"configured next", Policy{Width: 640, Height: 480}, dp1, 0, 0, 640, 480},
		{"output size next", Policy{}, dp1, 0, 0, 2560, 1440},
		{"per dimension", Policy{Height: 100}, dp1, 2560, 0, 2560, 100},
		{"fallback", Policy{}, display.Output{ID: 9}, 0, 0, FallbackSize, FallbackSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(tt.policy, &fakeFactory{})
			w, h := m.ResolveSize(tt.out, tt.evW, tt.evH)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("ResolveSize() = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestConfigureZeroSizeFallsBack(t *testing.T) {
	f := &fakeFactory{}
	m := NewManager(Policy{SingleOutput: true}, f)
	mustAdd(t, m, display.Output{ID: 5, Name: "X"})
	s := f.created[0]
	if err := m.Configure(display.SurfaceConfigured{Surface: s.id, Serial: 1}); err != nil {
		t.Fatal(err)
	}
	if s.configures[0].w != 256 || s.configures[0].h != 256 {
		t.Errorf("configured %+v, want 256x256", s.configures[0])
	}
}

func TestClosedSingleOutputExits(t *testing.T) {
	f := &fakeFactory{}
	m := NewManager(Policy{SingleOutput: true}, f)
	mustAdd(t, m, dp1, hdmi)
	s := f.created[0]

	if !m.Closed(s.id) {
		t.Error("Closed() = false under single-output policy")
	}
	if !s.destroyed {
		t.Error("surface not destroyed on close")
	}
	wantState(t, m, 1, StateDestroyed)
}

func TestClosedMultiOutputExitsWhenLastCloses(t *testing.T) {
	f := &fakeFactory{}
	m := NewManager(Policy{}, f)
	mustAdd(t, m, dp1, hdmi)

	if m.Closed(f.created[0].id) {
		t.Error("Closed() = true while another surface is alive")
	}
	if !m.Closed(f.created[1].id) {
		t.Error("Closed() = false after the last surface closed")
	}
	if m.Closed(99) {
		t.Error("Closed() on unknown surface reported exit")
	}
}

func TestRemovalSingleOutputRebinds(t *testing.T) {
	f := &fakeFactory{}
	m := NewManager(Policy{SingleOutput: true}, f)
	mustAdd(t, m, dp1, hdmi, edp)

	first := f.forOutput(1)
	if err := m.OutputRemoved(1); err != nil {
		t.Fatal(err)
	}
	if !first.destroyed {
		t.Error("surface on removed output not destroyed")
	}
	if _, ok := m.State(1); ok {
		t.Error("removed output still known")
	}
	wantState(t, m, 2, StateBound)
	wantState(t, m, 3, StateFiltered)
	if m.Live() != 1 {
		t.Errorf("Live() = %d, want 1", m.Live())
	}
}

func TestRemovalSingleOutputWaitsForNew(t *testing.T) {
	f := &fakeFactory{}
	m := NewManager(Policy{SingleOutput: true, Name: "DP-1"}, f)
	mustAdd(t, m, dp1, hdmi)

	if err := m.OutputRemoved(1); err != nil {
		t.Fatal(err)
	}
	if m.Live() != 0 {
		t.Fatalf("Live() = %d, want 0, nothing else matches", m.Live())
	}
	wantState(t, m, 2, StateFiltered)

	mustAdd(t, m, display.Output{ID: 7, Name: "DP-1"})
	wantState(t, m, 7, StateBound)
}

func TestRemovalMultiOutputKeepsOthers(t *testing.T) {
	f := &fakeFactory{}
	m := NewManager(Policy{}, f)
	mustAdd(t, m, dp1, hdmi)
	if err := m.OutputRemoved(2); err != nil {
		t.Fatal(err)
	}
	wantState(t, m, 1, StateBound)
	if m.Live() != 1 {
		t.Errorf("Live() = %d, want 1", m.Live())
	}
	if err := m.OutputRemoved(42); err != nil {
		t.Errorf("removing unknown output = %v", err)
	}
}

func TestPointerRouting(t *testing.T) {
	f := &fakeFactory{}
	m := NewManager(Policy{}, f)
	mustAdd(t, m, dp1, hdmi)

	m.PointerMoved(f.created[1].id, 1, 2)
	m.PointerLeft(f.created[1].id)
	m.PointerMoved(123, 1, 2) // unknown, ignored
	m.PointerLeft(123)

	if f.created[0].moves != 0 || f.created[1].moves != 1 || f.created[1].leaves != 1 {
		t.Errorf("moves = %d/%d, leaves = %d", f.created[0].moves, f.created[1].moves, f.created[1].leaves)
	}
}

func TestSynced(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		outs    []display.Output
		wantErr bool
	}{
		{"no filter", Policy{SingleOutput: true}, nil, false},
		{"filter matched", Policy{SingleOutput: true, Name: "DP-1"}, []display.Output{dp1}, false},
		{"filter unmatched", Policy{SingleOutput: true, Name: "DP-9"}, []display.Output{dp1, hdmi}, true},
		{"filter unmatched, waiting", Policy{Name: "DP-9", WaitForOutput: true}, []display.Output{dp1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(tt.policy, &fakeFactory{})
			mustAdd(t, m, tt.outs...)
			err := m.Synced()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Synced() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrOutputNotFound) {
				t.Errorf("Synced() = %v, want ErrOutputNotFound", err)
			}
		})
	}
}

func TestOutputUpdatedRefiltersByName(t *testing.T) {
	f := &fakeFactory{}
	m := NewManager(Policy{SingleOutput: true, Name: "DP-1"}, f)
	mustAdd(t, m, display.Output{ID: 1})
	wantState(t, m, 1, StateFiltered)

	if err := m.OutputUpdated(dp1); err != nil {
		t.Fatal(err)
	}
	wantState(t, m, 1, StateBound)
}

func TestClose(t *testing.T) {
	f := &fakeFactory{}
	m := NewManager(Policy{}, f)
	mustAdd(t, m, dp1, hdmi)
	m.Close()
	for _, s := range f.created {
		if !s.destroyed {
			t.Errorf("surface %d not destroyed", s.id)
		}
	}
	if m.Live() != 0 {
		t.Errorf("Live() = %d after Close", m.Live())
	}
}
