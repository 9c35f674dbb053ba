package display

import "errors"

var (
	// ErrInvalidAnchor is returned for unknown anchor edge names.
	ErrInvalidAnchor = errors.New("display: invalid anchor")

	// ErrInvalidMargins is returned when a margins string cannot be parsed.
	ErrInvalidMargins = errors.New("display: invalid margins")

	// ErrInvalidLayer is returned for unknown layer names.
	ErrInvalidLayer = errors.New("display: invalid layer")

	// ErrLayerShellUnavailable is returned when the compositor does not
	// offer zwlr_layer_shell_v1.
	ErrLayerShellUnavailable = errors.New("display: compositor does not support wlr-layer-shell")

	// ErrInvalidSize is returned when a layer surface would be created with
	// a zero dimension its anchors do not stretch.
	ErrInvalidSize = errors.New("display: invalid layer surface size")

	// ErrUnknownOutput is returned when a surface is requested for an
	// output the connection has not seen.
	ErrUnknownOutput = errors.New("display: unknown output")

	// ErrUnsupported is returned when the binary was built without the
	// Wayland backend.
	ErrUnsupported = errors.New("display: wayland support not compiled in")
)
