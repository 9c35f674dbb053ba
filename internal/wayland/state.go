// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wayland

import "github.com/gogpu/shaderpaper/internal/display"

// Highest interface versions this client speaks.
const (
	compositorVersion = 4
	outputVersion     = 4 // name and description events
	seatVersion       = 5
	layerShellVersion = 4
)

// wl_output mode flag for the current mode.
const modeCurrent = 0x1

// wl_output transforms 90, 270, flipped-90 and flipped-270 swap the
// axes of the mode.
func transformSwapsAxes(t int32) bool { return t&1 == 1 }

// wl_seat capability bit for a pointer.
const seatPointer = 0x1

func bindVersion(offered, max uint32) uint32 {
	if offered < max {
		return offered
	}
	return max
}

// outputState accumulates wl_output properties until a done event.
type outputState struct {
	info         display.Output
	modeW, modeH int32
	transform    int32
	announced    bool
}

func newOutputState(id display.OutputID) *outputState {
	return &outputState{info: display.Output{ID: id, Scale: 1}}
}

func (o *outputState) setMode(flags uint32, width, height int32) {
	if flags&modeCurrent == 0 {
		return
	}
	o.modeW, o.modeH = width, height
}

func (o *outputState) setTransform(t int32) { o.transform = t }

func (o *outputState) setScale(scale int32) {
	if scale < 1 {
		scale = 1
	}
	o.info.Scale = scale
}

func (o *outputState) setName(name string)        { o.info.Name = name }
func (o *outputState) setDescription(desc string) { o.info.Description = desc }

// done applies pending properties. The first call reports the output as
// added, later calls as updated.
func (o *outputState) done() display.Event {
	if o.modeW > 0 && o.modeH > 0 {
		w, h := o.modeW, o.modeH
		if transformSwapsAxes(o.transform) {
			w, h = h, w
		}
		o.info.Width = uint32(w / o.info.Scale)
		o.info.Height = uint32(h / o.info.Scale)
	}
	if !o.announced {
		o.announced = true
		return display.OutputAdded{Output: o.info}
	}
	return display.OutputUpdated{Output: o.info}
}

// eventQueue collects events produced by listener callbacks during a
// dispatch.
type eventQueue struct {
	events []display.Event
}

func (q *eventQueue) push(ev display.Event) { q.events = append(q.events, ev) }

func (q *eventQueue) pending() bool { return len(q.events) > 0 }

func (q *eventQueue) drain() []display.Event {
	out := q.events
	q.events = nil
	return out
}

// pointerFocus tracks which layer surface the pointer is over. Motion
// events carry no surface, so they are attributed to the last entered one.
type pointerFocus struct {
	surface display.SurfaceID
	inside  bool
}

func (p *pointerFocus) enter(id display.SurfaceID, x, y float64) display.Event {
	p.surface, p.inside = id, true
	return display.PointerMoved{Surface: id, X: x, Y: y}
}

func (p *pointerFocus) motion(x, y float64) (display.Event, bool) {
	if !p.inside {
		return nil, false
	}
	return display.PointerMoved{Surface: p.surface, X: x, Y: y}, true
}

func (p *pointerFocus) leave() (display.Event, bool) {
	if !p.inside {
		return nil, false
	}
	p.inside = false
	return display.PointerLeft{Surface: p.surface}, true
}

// forget drops focus on a destroyed surface.
func (p *pointerFocus) forget(id display.SurfaceID) {
	if p.inside && p.surface == id {
		p.inside = false
	}
}
