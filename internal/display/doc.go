// Package display defines what the rest of shaderpaper needs from a
// display server: the events it delivers, the layer-surface options and
// the connection contract.
//
// Events form a closed set. Each concrete event type implements Event and
// the event loop handles them with one type switch. The Wayland
// implementation lives in internal/wayland; tests use fakes.
package display
