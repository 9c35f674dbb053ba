package output

import (
	"fmt"

	"github.com/gogpu/shaderpaper"
	"github.com/gogpu/shaderpaper/internal/display"
)

// FallbackSize is used for a dimension nobody specified.
const FallbackSize = 256

// State is the lifecycle state of one output.
type State int

const (
	StateDiscovered State = iota
	StateFiltered
	StateBound
	StateConfigured
	StateRendering
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateFiltered:
		return "filtered"
	case StateBound:
		return "bound"
	case StateConfigured:
		return "configured"
	case StateRendering:
		return "rendering"
	case StateDestroyed:
		return "destroyed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Policy selects outputs.
type Policy struct {
	// Name restricts binding to the output with this name. Empty matches
	// every output.
	Name string

	SingleOutput  bool
	WaitForOutput bool

	// Width and Height are the configured size, used when the compositor
	// leaves a dimension to the client. Zero means unset.
	Width, Height uint32
}

// Matches reports whether out passes the name filter.
func (p Policy) Matches(out display.Output) bool {
	return p.Name == "" || out.Name == p.Name
}

// Surface is a bound output's rendering side.
type Surface interface {
	ID() display.SurfaceID

	// Configure acknowledges serial and sizes the surface.
	Configure(serial, width, height uint32) error

	Draw() error
	PointerMoved(x, y float64)
	PointerLeft()
	Destroy()
}

// Factory creates the surface for a newly bound output. Errors are fatal.
type Factory interface {
	CreateSurface(out display.Output) (Surface, error)
}

type entry struct {
	out     display.Output
	state   State
	surface Surface
}

func (e *entry) live() bool {
	return e.surface != nil && e.state >= StateBound && e.state <= StateRendering
}

// Manager tracks outputs and their surfaces. It is used from the control
// goroutine only.
type Manager struct {
	policy  Policy
	factory Factory

	entries   map[display.OutputID]*entry
	order     []display.OutputID // discovery order
	bySurface map[display.SurfaceID]*entry
}

// NewManager returns a manager with no outputs.
func NewManager(policy Policy, factory Factory) *Manager {
	return &Manager{
		policy:    policy,
		factory:   factory,
		entries:   make(map[display.OutputID]*entry),
		bySurface: make(map[display.SurfaceID]*entry),
	}
}

// OutputAdded records a new output and binds it if the policy allows.
func (m *Manager) OutputAdded(out display.Output) error {
	if e, ok := m.entries[out.ID]; ok {
		e.out = out
		return m.evaluate(e)
	}
	e := &entry{out: out, state: StateDiscovered}
	m.entries[out.ID] = e
	m.order = append(m.order, out.ID)
	return m.evaluate(e)
}

// OutputUpdated refreshes an output's properties. An output filtered only
// because its name was not yet known is evaluated again.
func (m *Manager) OutputUpdated(out display.Output) error {
	e, ok := m.entries[out.ID]
	if !ok {
		return m.OutputAdded(out)
	}
	e.out = out
	if e.state == StateFiltered {
		return m.evaluate(e)
	}
	return nil
}

// OutputRemoved destroys the surface on the output, if any. Under
// single-output policy another known output is bound in its place.
func (m *Manager) OutputRemoved(id display.OutputID) error {
	e, ok := m.entries[id]
	if !ok {
		return nil
	}
	wasLive := e.live()
	m.destroy(e)
	delete(m.entries, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	shaderpaper.Logger().Info("output: removed", "output", e.out.String())

	if wasLive && m.policy.SingleOutput && m.liveCount() == 0 {
		for _, oid := range m.order {
			cand := m.entries[oid]
			if cand.state != StateFiltered && cand.state != StateDiscovered {
				continue
			}
			cand.state = StateDiscovered
			if err := m.evaluate(cand); err != nil {
				return err
			}
			if cand.live() {
				break
			}
		}
	}
	return nil
}

// evaluate moves a Discovered or Filtered output to Filtered or Bound.
func (m *Manager) evaluate(e *entry) error {
	if e.live() {
		return nil
	}
	if !m.policy.Matches(e.out) {
		e.state = StateFiltered
		shaderpaper.Logger().Debug("output: filtered by name", "output", e.out.String(), "want", m.policy.Name)
		return nil
	}
	if m.policy.SingleOutput && m.liveCount() > 0 {
		e.state = StateFiltered
		shaderpaper.Logger().Debug("output: ignored, single-output policy", "output", e.out.String())
		return nil
	}

	s, err := m.factory.CreateSurface(e.out)
	if err != nil {
		return fmt.Errorf("output %s: %w", e.out, err)
	}
	e.surface = s
	e.state = StateBound
	m.bySurface[s.ID()] = e
	shaderpaper.Logger().Info("output: bound", "output", e.out.String(), "surface", s.ID())
	return nil
}

// ResolveSize picks the size for a configure event: the event's size,
// then the configured size, then the output's logical size, then
// FallbackSize, independently per dimension.
func (m *Manager) ResolveSize(out display.Output, width, height uint32) (uint32, uint32) {
	return pick(width, m.policy.Width, out.Width), pick(height, m.policy.Height, out.Height)
}

func pick(candidates ...uint32) uint32 {
	for _, c := range candidates {
		if c > 0 {
			return c
		}
	}
	return FallbackSize
}

// Configure handles a configure event: size, ack, configure, draw once.
// Events for unknown surfaces are ignored.
func (m *Manager) Configure(ev display.SurfaceConfigured) error {
	e, ok := m.bySurface[ev.Surface]
	if !ok || !e.live() {
		return nil
	}
	w, h := m.ResolveSize(e.out, ev.Width, ev.Height)
	if err := e.surface.Configure(ev.Serial, w, h); err != nil {
		return fmt.Errorf("output %s: configure %dx%d: %w", e.out, w, h, err)
	}
	if e.state == StateBound {
		e.state = StateConfigured
	}
	if err := m.draw(e); err != nil {
		return err
	}
	e.state = StateRendering
	return nil
}

// Frame handles a frame callback by drawing the next frame.
func (m *Manager) Frame(id display.SurfaceID) error {
	e, ok := m.bySurface[id]
	if !ok || e.state != StateRendering {
		return nil
	}
	return m.draw(e)
}

func (m *Manager) draw(e *entry) error {
	if err := e.surface.Draw(); err != nil {
		return fmt.Errorf("output %s: %w", e.out, err)
	}
	return nil
}

// Closed destroys a surface the compositor closed. It reports true when
// the process should exit: always under single-output policy, and once no
// surface is left otherwise.
func (m *Manager) Closed(id display.SurfaceID) bool {
	e, ok := m.bySurface[id]
	if !ok {
		return false
	}
	m.destroy(e)
	shaderpaper.Logger().Info("output: surface closed by compositor", "output", e.out.String())
	if m.policy.SingleOutput {
		return true
	}
	return m.liveCount() == 0
}

// PointerMoved forwards pointer motion to the surface under the pointer.
func (m *Manager) PointerMoved(id display.SurfaceID, x, y float64) {
	if e, ok := m.bySurface[id]; ok && e.live() {
		e.surface.PointerMoved(x, y)
	}
}

// PointerLeft forwards a leave event.
func (m *Manager) PointerLeft(id display.SurfaceID) {
	if e, ok := m.bySurface[id]; ok && e.live() {
		e.surface.PointerLeft()
	}
}

// Synced is called once the initial outputs are known. It fails when an
// output name was requested, none matches and waiting is not allowed.
func (m *Manager) Synced() error {
	if m.policy.Name == "" || m.policy.WaitForOutput || m.liveCount() > 0 {
		return nil
	}
	names := make([]string, 0, len(m.order))
	for _, id := range m.order {
		names = append(names, m.entries[id].out.String())
	}
	return fmt.Errorf("%w: %q (available: %v)", ErrOutputNotFound, m.policy.Name, names)
}

// Close destroys every surface.
func (m *Manager) Close() {
	for _, id := range m.order {
		m.destroy(m.entries[id])
	}
}

func (m *Manager) destroy(e *entry) {
	if e.surface == nil {
		return
	}
	delete(m.bySurface, e.surface.ID())
	e.surface.Destroy()
	e.surface = nil
	e.state = StateDestroyed
}

func (m *Manager) liveCount() int {
	n := 0
	for _, e := range m.entries {
		if e.live() {
			n++
		}
	}
	return n
}

// State returns the state of an output and whether it is known.
func (m *Manager) State(id display.OutputID) (State, bool) {
	e, ok := m.entries[id]
	if !ok {
		return 0, false
	}
	return e.state, true
}

// Live returns the number of outputs with a surface.
func (m *Manager) Live() int { return m.liveCount() }
