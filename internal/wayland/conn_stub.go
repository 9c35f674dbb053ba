//go:build !linux || !cgo

package wayland

import (
	"time"

	"github.com/gogpu/shaderpaper/internal/display"
)

// Conn is unavailable in this build.
type Conn struct{}

var _ display.Conn = (*Conn)(nil)

// Open always fails: the Wayland backend needs cgo on Linux.
func Open() (*Conn, error) { return nil, display.ErrUnsupported }

func (*Conn) Dispatch(time.Duration) ([]display.Event, error) { return nil, display.ErrUnsupported }

func (*Conn) CreateLayerSurface(display.OutputID, display.LayerOptions) (display.LayerSurface, error) {
	return nil, display.ErrUnsupported
}

func (*Conn) Close() error { return nil }
