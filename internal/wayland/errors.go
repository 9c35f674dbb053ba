package wayland

import "errors"

var (
	// ErrConnect is returned when no compositor is reachable.
	ErrConnect = errors.New("wayland: cannot connect to display (is WAYLAND_DISPLAY set?)")

	// ErrClosed is returned by a connection after Close or after the
	// compositor dropped it.
	ErrClosed = errors.New("wayland: connection closed")
)
