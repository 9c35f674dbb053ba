//go:build linux && cgo

package wayland

/*
#cgo pkg-config: wayland-client
#include <stdlib.h>
#include "protocol.h"
*/
import "C"

import (
	"fmt"
	"runtime/cgo"
	"syscall"
	"time"
	"unsafe"

	"github.com/gogpu/shaderpaper"
	"github.com/gogpu/shaderpaper/internal/display"
)

type boundOutput struct {
	proxy *C.struct_wl_output
	tag   *C.sp_tag
	state *outputState
}

// Conn is a connection to the Wayland compositor.
type Conn struct {
	display  *C.struct_wl_display
	registry *C.struct_wl_registry
	handle   cgo.Handle
	tag      *C.sp_tag // connection-wide listener data

	compositor *C.struct_wl_compositor
	layerShell *C.struct_zwlr_layer_shell_v1
	seat       *C.struct_wl_seat
	pointer    *C.struct_wl_pointer

	outputs  map[display.OutputID]*boundOutput
	surfaces map[display.SurfaceID]*layerSurface
	byProxy  map[*C.struct_wl_surface]display.SurfaceID
	nextID   display.SurfaceID

	queue eventQueue
	focus pointerFocus
}

var _ display.Conn = (*Conn)(nil)

// Open connects to the compositor named by WAYLAND_DISPLAY, binds the
// globals and reads the initial output properties. The first Dispatch
// returns the discovered outputs followed by display.Synced.
func Open() (*Conn, error) {
	d := C.wl_display_connect(nil)
	if d == nil {
		return nil, ErrConnect
	}
	c := &Conn{
		display:  d,
		outputs:  make(map[display.OutputID]*boundOutput),
		surfaces: make(map[display.SurfaceID]*layerSurface),
		byProxy:  make(map[*C.struct_wl_surface]display.SurfaceID),
	}
	c.handle = cgo.NewHandle(c)
	c.tag = C.sp_tag_new(C.uintptr_t(c.handle), 0)

	c.registry = C.sp_get_registry(d, c.tag)
	if c.registry == nil {
		c.Close()
		return nil, fmt.Errorf("wayland: get registry: %w", c.lastError())
	}

	// Globals, then the events of the objects bound from them.
	for i := 0; i < 2; i++ {
		if C.wl_display_roundtrip(d) < 0 {
			err := c.lastError()
			c.Close()
			return nil, fmt.Errorf("wayland: roundtrip: %w", err)
		}
	}

	if c.compositor == nil {
		c.Close()
		return nil, fmt.Errorf("wayland: compositor does not offer wl_compositor")
	}
	if c.layerShell == nil {
		c.Close()
		return nil, display.ErrLayerShellUnavailable
	}

	c.queue.push(display.Synced{})
	shaderpaper.Logger().Debug("wayland: connected", "outputs", len(c.outputs), "pointer", c.pointer != nil)
	return c, nil
}

func (c *Conn) lastError() error {
	if c.display == nil {
		return ErrClosed
	}
	if errno := C.wl_display_get_error(c.display); errno != 0 {
		return syscall.Errno(errno)
	}
	return ErrClosed
}

// Dispatch waits up to timeout for events and returns them. Events
// already queued are returned without waiting. A negative timeout blocks.
func (c *Conn) Dispatch(timeout time.Duration) ([]display.Event, error) {
	if c.display == nil {
		return nil, ErrClosed
	}
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	if c.queue.pending() {
		ms = 0
	}
	if C.sp_dispatch(c.display, C.int(ms)) < 0 {
		return c.queue.drain(), fmt.Errorf("wayland: dispatch: %w", c.lastError())
	}
	return c.queue.drain(), nil
}

// CreateLayerSurface places a new layer surface on the output and commits
// it so the compositor sends the first configure event.
func (c *Conn) CreateLayerSurface(output display.OutputID, opts display.LayerOptions) (display.LayerSurface, error) {
	out, ok := c.outputs[output]
	if !ok {
		return nil, fmt.Errorf("%w: %d", display.ErrUnknownOutput, output)
	}
	if !opts.ValidSize() {
		return nil, fmt.Errorf("%w: %dx%d anchored %s", display.ErrInvalidSize, opts.Width, opts.Height, opts.Anchor)
	}

	surface := C.wl_compositor_create_surface(c.compositor)
	if surface == nil {
		return nil, fmt.Errorf("wayland: create surface: %w", c.lastError())
	}

	c.nextID++
	id := c.nextID
	tag := C.sp_tag_new(C.uintptr_t(c.handle), C.uint32_t(id))

	ns := C.CString(opts.Namespace)
	defer C.free(unsafe.Pointer(ns))

	ls := C.sp_get_layer_surface(c.layerShell, surface, out.proxy, C.uint32_t(opts.Layer), ns, tag)
	if ls == nil {
		C.wl_surface_destroy(surface)
		C.sp_tag_free(tag)
		return nil, fmt.Errorf("wayland: get layer surface: %w", c.lastError())
	}

	C.sp_layer_surface_set_size(ls, C.uint32_t(opts.Width), C.uint32_t(opts.Height))
	C.sp_layer_surface_set_anchor(ls, C.uint32_t(opts.Anchor))
	C.sp_layer_surface_set_exclusive_zone(ls, C.int32_t(opts.ExclusiveZone))
	m := opts.Margins
	C.sp_layer_surface_set_margin(ls, C.int32_t(m.Top), C.int32_t(m.Right), C.int32_t(m.Bottom), C.int32_t(m.Left))
	C.sp_layer_surface_set_keyboard_interactivity(ls, 0)
	C.wl_surface_commit(surface)

	s := &layerSurface{conn: c, id: id, output: output, surface: surface, layer: ls, tag: tag}
	c.surfaces[id] = s
	c.byProxy[surface] = id
	shaderpaper.Logger().Debug("wayland: layer surface created",
		"surface", id, "output", out.state.info.String(), "layer", opts.Layer.String(), "anchor", opts.Anchor.String())
	return s, nil
}

// Close destroys every remaining object and disconnects.
func (c *Conn) Close() error {
	if c.display == nil {
		return nil
	}
	for _, s := range c.surfaces {
		s.Destroy()
	}
	for id, out := range c.outputs {
		c.releaseOutput(id, out)
	}
	if c.pointer != nil {
		C.wl_pointer_destroy(c.pointer)
		c.pointer = nil
	}
	if c.seat != nil {
		C.wl_seat_destroy(c.seat)
		c.seat = nil
	}
	if c.layerShell != nil {
		C.sp_layer_shell_destroy(c.layerShell)
		c.layerShell = nil
	}
	if c.compositor != nil {
		C.wl_compositor_destroy(c.compositor)
		c.compositor = nil
	}
	if c.registry != nil {
		C.wl_registry_destroy(c.registry)
		c.registry = nil
	}
	C.wl_display_flush(c.display)
	C.wl_display_disconnect(c.display)
	c.display = nil
	C.sp_tag_free(c.tag)
	c.tag = nil
	c.handle.Delete()
	return nil
}

func (c *Conn) releaseOutput(id display.OutputID, out *boundOutput) {
	C.wl_output_destroy(out.proxy)
	C.sp_tag_free(out.tag)
	delete(c.outputs, id)
}

// layerSurface is a wl_surface with its zwlr_layer_surface_v1 role.
type layerSurface struct {
	conn    *Conn
	id      display.SurfaceID
	output  display.OutputID
	surface *C.struct_wl_surface
	layer   *C.struct_zwlr_layer_surface_v1
	tag     *C.sp_tag

	frame    *C.struct_wl_callback // pending frame callback
	frameTag *C.sp_tag
}

func (s *layerSurface) ID() display.SurfaceID     { return s.id }
func (s *layerSurface) Output() display.OutputID { return s.output }

func (s *layerSurface) AckConfigure(serial uint32) {
	if s.layer != nil {
		C.sp_layer_surface_ack_configure(s.layer, C.uint32_t(serial))
	}
}

// RequestFrame asks for a frame callback. At most one is outstanding.
func (s *layerSurface) RequestFrame() {
	if s.surface == nil || s.frame != nil {
		return
	}
	s.frameTag = C.sp_tag_new(C.uintptr_t(s.conn.handle), C.uint32_t(s.id))
	s.frame = C.sp_surface_frame(s.surface, s.frameTag)
	if s.frame == nil {
		C.sp_tag_free(s.frameTag)
		s.frameTag = nil
	}
}

func (s *layerSurface) SetSize(width, height uint32) {
	if s.layer != nil {
		C.sp_layer_surface_set_size(s.layer, C.uint32_t(width), C.uint32_t(height))
	}
}

func (s *layerSurface) Commit() {
	if s.surface != nil {
		C.wl_surface_commit(s.surface)
	}
}

func (s *layerSurface) NativeHandle() display.NativeHandle {
	return display.NativeHandle{
		Display: unsafe.Pointer(s.conn.display),
		Surface: unsafe.Pointer(s.surface),
	}
}

// Destroy releases the role and the surface. The GPU surface created from
// the native handle must be destroyed first.
func (s *layerSurface) Destroy() {
	if s.surface == nil {
		return
	}
	c := s.conn
	if s.frame != nil {
		C.wl_callback_destroy(s.frame)
		C.sp_tag_free(s.frameTag)
		s.frame, s.frameTag = nil, nil
	}
	C.sp_layer_surface_destroy(s.layer)
	C.wl_surface_destroy(s.surface)
	C.sp_tag_free(s.tag)
	delete(c.byProxy, s.surface)
	delete(c.surfaces, s.id)
	c.focus.forget(s.id)
	s.layer, s.surface, s.tag = nil, nil, nil
	if c.display != nil {
		C.wl_display_flush(c.display)
	}
}

func connFrom(h C.uintptr_t) *Conn {
	return cgo.Handle(h).Value().(*Conn)
}

//export goRegistryGlobal
func goRegistryGlobal(h C.uintptr_t, name C.uint32_t, iface *C.char, version C.uint32_t) {
	c := connFrom(h)
	v := uint32(version)
	switch C.GoString(iface) {
	case "wl_compositor":
		c.compositor = C.sp_bind_compositor(c.registry, name, C.uint32_t(bindVersion(v, compositorVersion)))
	case "wl_output":
		id := display.OutputID(name)
		tag := C.sp_tag_new(h, name)
		proxy := C.sp_bind_output(c.registry, name, C.uint32_t(bindVersion(v, outputVersion)), tag)
		if proxy == nil {
			C.sp_tag_free(tag)
			return
		}
		c.outputs[id] = &boundOutput{proxy: proxy, tag: tag, state: newOutputState(id)}
	case "wl_seat":
		if c.seat == nil {
			c.seat = C.sp_bind_seat(c.registry, name, C.uint32_t(bindVersion(v, seatVersion)), c.tag)
		}
	case "zwlr_layer_shell_v1":
		c.layerShell = C.sp_bind_layer_shell(c.registry, name, C.uint32_t(bindVersion(v, layerShellVersion)))
		shaderpaper.Logger().Debug("wayland: bound zwlr_layer_shell_v1", "version", bindVersion(v, layerShellVersion))
	}
}

//export goRegistryGlobalRemove
func goRegistryGlobalRemove(h C.uintptr_t, name C.uint32_t) {
	c := connFrom(h)
	id := display.OutputID(name)
	out, ok := c.outputs[id]
	if !ok {
		return
	}
	announced := out.state.announced
	c.releaseOutput(id, out)
	if announced {
		c.queue.push(display.OutputRemoved{ID: id})
	}
}

//export goOutputGeometry
func goOutputGeometry(h C.uintptr_t, id C.uint32_t, transform C.int32_t) {
	if out, ok := connFrom(h).outputs[display.OutputID(id)]; ok {
		out.state.setTransform(int32(transform))
	}
}

//export goOutputMode
func goOutputMode(h C.uintptr_t, id C.uint32_t, flags C.uint32_t, width, height C.int32_t) {
	if out, ok := connFrom(h).outputs[display.OutputID(id)]; ok {
		out.state.setMode(uint32(flags), int32(width), int32(height))
	}
}

//export goOutputScale
func goOutputScale(h C.uintptr_t, id C.uint32_t, factor C.int32_t) {
	if out, ok := connFrom(h).outputs[display.OutputID(id)]; ok {
		out.state.setScale(int32(factor))
	}
}

//export goOutputName
func goOutputName(h C.uintptr_t, id C.uint32_t, name *C.char) {
	if out, ok := connFrom(h).outputs[display.OutputID(id)]; ok {
		out.state.setName(C.GoString(name))
	}
}

//export goOutputDescription
func goOutputDescription(h C.uintptr_t, id C.uint32_t, desc *C.char) {
	if out, ok := connFrom(h).outputs[display.OutputID(id)]; ok {
		out.state.setDescription(C.GoString(desc))
	}
}

//export goOutputDone
func goOutputDone(h C.uintptr_t, id C.uint32_t) {
	c := connFrom(h)
	if out, ok := c.outputs[display.OutputID(id)]; ok {
		c.queue.push(out.state.done())
	}
}

//export goSeatCapabilities
func goSeatCapabilities(h C.uintptr_t, caps C.uint32_t) {
	c := connFrom(h)
	hasPointer := uint32(caps)&seatPointer != 0
	switch {
	case hasPointer && c.pointer == nil:
		c.pointer = C.sp_get_pointer(c.seat, c.tag)
	case !hasPointer && c.pointer != nil:
		C.wl_pointer_destroy(c.pointer)
		c.pointer = nil
		if ev, ok := c.focus.leave(); ok {
			c.queue.push(ev)
		}
	}
}

//export goPointerEnter
func goPointerEnter(h C.uintptr_t, surface *C.struct_wl_surface, x, y C.double) {
	c := connFrom(h)
	id, ok := c.byProxy[surface]
	if !ok {
		return
	}
	c.queue.push(c.focus.enter(id, float64(x), float64(y)))
}

//export goPointerMotion
func goPointerMotion(h C.uintptr_t, x, y C.double) {
	c := connFrom(h)
	if ev, ok := c.focus.motion(float64(x), float64(y)); ok {
		c.queue.push(ev)
	}
}

//export goPointerLeave
func goPointerLeave(h C.uintptr_t) {
	c := connFrom(h)
	if ev, ok := c.focus.leave(); ok {
		c.queue.push(ev)
	}
}

//export goLayerSurfaceConfigure
func goLayerSurfaceConfigure(h C.uintptr_t, id C.uint32_t, serial, width, height C.uint32_t) {
	connFrom(h).queue.push(display.SurfaceConfigured{
		Surface: display.SurfaceID(id),
		Serial:  uint32(serial),
		Width:   uint32(width),
		Height:  uint32(height),
	})
}

//export goLayerSurfaceClosed
func goLayerSurfaceClosed(h C.uintptr_t, id C.uint32_t) {
	connFrom(h).queue.push(display.SurfaceClosed{Surface: display.SurfaceID(id)})
}

//export goFrameDone
func goFrameDone(h C.uintptr_t, id C.uint32_t, ms C.uint32_t) {
	c := connFrom(h)
	sid := display.SurfaceID(id)
	if s, ok := c.surfaces[sid]; ok {
		// The callback and its tag are released by the caller.
		s.frame, s.frameTag = nil, nil
	}
	c.queue.push(display.FrameDone{Surface: sid, Time: uint32(ms)})
}
