package display

import "fmt"

// OutputID identifies an output for the lifetime of the connection. It is
// the registry name of the wl_output global.
type OutputID uint32

// SurfaceID identifies a layer surface created on this connection.
type SurfaceID uint32

// Output describes one monitor.
type Output struct {
	ID          OutputID
	Name        string // connector name, e.g. "DP-1"; may be empty before the first done event
	Description string

	// Width and Height are the logical size in surface coordinates (mode
	// size divided by scale). Zero if unknown.
	Width, Height uint32
	Scale         int32
}

func (o Output) String() string {
	if o.Name == "" {
		return fmt.Sprintf("output#%d", o.ID)
	}
	return o.Name
}

// Event is a display server event. The concrete types below are the only
// implementations.
type Event interface {
	event()
}

// OutputAdded is delivered once an output's properties are known.
type OutputAdded struct{ Output Output }

// OutputUpdated is delivered when a known output's properties change.
type OutputUpdated struct{ Output Output }

// OutputRemoved is delivered when an output goes away.
type OutputRemoved struct{ ID OutputID }

// PointerMoved covers both enter and motion, in surface-local coordinates.
type PointerMoved struct {
	Surface SurfaceID
	X, Y    float64
}

// PointerLeft is delivered when the pointer leaves a surface.
type PointerLeft struct{ Surface SurfaceID }

// SurfaceConfigured asks the client to use the given size. A zero width
// or height leaves that dimension to the client.
type SurfaceConfigured struct {
	Surface       SurfaceID
	Serial        uint32
	Width, Height uint32
}

// SurfaceClosed reports that the compositor closed a layer surface.
type SurfaceClosed struct{ Surface SurfaceID }

// FrameDone reports that a requested frame callback fired.
type FrameDone struct {
	Surface SurfaceID
	Time    uint32 // compositor timestamp in milliseconds
}

// Synced is delivered once, after the initial burst of globals and their
// properties has been processed.
type Synced struct{}

func (OutputAdded) event()       {}
func (OutputUpdated) event()     {}
func (OutputRemoved) event()     {}
func (PointerMoved) event()      {}
func (PointerLeft) event()       {}
func (SurfaceConfigured) event() {}
func (SurfaceClosed) event()     {}
func (FrameDone) event()         {}
func (Synced) event()            {}
