// Package wayland implements display.Conn on top of libwayland-client.
//
// The connection binds wl_compositor, wl_output, wl_seat and the wlr
// layer shell from the registry and turns their events into display
// events. It must be used from a single OS thread; the cgo build is
// required, other builds get a stub whose Open fails with
// display.ErrUnsupported.
package wayland
