package display

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unsafe"
)

// Anchor is a bitset of surface edges, with the zwlr_layer_surface_v1
// bit values.
type Anchor uint32

const (
	AnchorTop    Anchor = 1
	AnchorBottom Anchor = 2
	AnchorLeft   Anchor = 4
	AnchorRight  Anchor = 8

	AnchorAll = AnchorTop | AnchorBottom | AnchorLeft | AnchorRight
)

var anchorNames = []struct {
	bit  Anchor
	name string
}{
	{AnchorTop, "top"},
	{AnchorBottom, "bottom"},
	{AnchorLeft, "left"},
	{AnchorRight, "right"},
}

// String lists the set edges joined by commas, in top, bottom, left,
// right order. The empty set is "none".
func (a Anchor) String() string {
	var parts []string
	for _, n := range anchorNames {
		if a&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// Has reports whether every edge in b is set in a.
func (a Anchor) Has(b Anchor) bool { return a&b == b }

// ParseAnchors builds a set from edge names. Each element may itself be
// a comma separated list. "all" sets every edge and "none" is accepted
// and sets nothing.
func ParseAnchors(names ...string) (Anchor, error) {
	var a Anchor
	for _, item := range names {
		for _, raw := range strings.Split(item, ",") {
			name := strings.ToLower(strings.TrimSpace(raw))
			switch name {
			case "":
				continue
			case "all":
				a |= AnchorAll
				continue
			case "none":
				continue
			}
			found := false
			for _, n := range anchorNames {
				if n.name == name {
					a |= n.bit
					found = true
					break
				}
			}
			if !found {
				return 0, fmt.Errorf("%w: %q", ErrInvalidAnchor, raw)
			}
		}
	}
	return a, nil
}

// Margins are distances from anchored edges in surface coordinates.
type Margins struct {
	Top, Right, Bottom, Left int32
}

// ParseMargins reads "top,right,bottom,left". A single value applies to
// all four sides.
func ParseMargins(s string) (Margins, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Margins{}, nil
	}
	fields := strings.Split(s, ",")
	vals := make([]int32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 32)
		if err != nil {
			return Margins{}, fmt.Errorf("%w: %q", ErrInvalidMargins, s)
		}
		vals[i] = int32(v)
	}
	switch len(vals) {
	case 1:
		return Margins{vals[0], vals[0], vals[0], vals[0]}, nil
	case 4:
		return Margins{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}, nil
	}
	return Margins{}, fmt.Errorf("%w: want 1 or 4 values, got %d", ErrInvalidMargins, len(vals))
}

func (m Margins) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", m.Top, m.Right, m.Bottom, m.Left)
}

// Layer is the zwlr_layer_shell_v1 stacking layer.
type Layer uint32

const (
	LayerBackground Layer = 0
	LayerBottom     Layer = 1
	LayerTop        Layer = 2
	LayerOverlay    Layer = 3
)

func (l Layer) String() string {
	switch l {
	case LayerBackground:
		return "background"
	case LayerBottom:
		return "bottom"
	case LayerTop:
		return "top"
	case LayerOverlay:
		return "overlay"
	}
	return fmt.Sprintf("Layer(%d)", uint32(l))
}

// ParseLayer maps a layer name to a Layer.
func ParseLayer(s string) (Layer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "background":
		return LayerBackground, nil
	case "bottom":
		return LayerBottom, nil
	case "top":
		return LayerTop, nil
	case "overlay":
		return LayerOverlay, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidLayer, s)
}

// LayerOptions configures a new layer surface. Keyboard interactivity
// is always none.
type LayerOptions struct {
	Layer         Layer
	Namespace     string
	Anchor        Anchor
	Margins       Margins
	ExclusiveZone int32

	// Width and Height are the requested size; zero lets the compositor
	// decide along anchored axes.
	Width, Height uint32
}

// Sized fills in a zero dimension the compositor is not allowed to pick.
// A dimension may stay zero only when both of its opposite edges are
// anchored; otherwise it becomes outW or outH, or fallback when that is
// zero too.
func (o LayerOptions) Sized(outW, outH, fallback uint32) LayerOptions {
	if o.Width == 0 && !o.Anchor.Has(AnchorLeft|AnchorRight) {
		o.Width = firstNonZero(outW, fallback)
	}
	if o.Height == 0 && !o.Anchor.Has(AnchorTop|AnchorBottom) {
		o.Height = firstNonZero(outH, fallback)
	}
	return o
}

// ValidSize reports whether the requested size is acceptable to the
// layer-shell protocol for the anchors set.
func (o LayerOptions) ValidSize() bool {
	if o.Width == 0 && !o.Anchor.Has(AnchorLeft|AnchorRight) {
		return false
	}
	return o.Height != 0 || o.Anchor.Has(AnchorTop|AnchorBottom)
}

func firstNonZero(a, b uint32) uint32 {
	if a != 0 {
		return a
	}
	return b
}

// NativeHandle carries the raw display pointers a GPU surface is created
// from. It is only valid while its LayerSurface is alive.
type NativeHandle struct {
	Display unsafe.Pointer // struct wl_display*
	Surface unsafe.Pointer // struct wl_surface*
}

// LayerSurface is a surface placed by the layer shell.
type LayerSurface interface {
	ID() SurfaceID
	Output() OutputID

	// AckConfigure acknowledges the configure event with the given serial.
	AckConfigure(serial uint32)

	// RequestFrame asks for a FrameDone event after the next commit.
	RequestFrame()

	// SetSize requests a new size; takes effect on the next commit.
	SetSize(width, height uint32)

	Commit()

	// NativeHandle returns the raw pointers for GPU surface creation.
	NativeHandle() NativeHandle

	Destroy()
}

// Conn is a display server connection.
type Conn interface {
	// Dispatch waits up to timeout for events and returns them in the
	// order they were received. A nil slice with nil error means the
	// timeout elapsed.
	Dispatch(timeout time.Duration) ([]Event, error)

	// CreateLayerSurface creates a layer surface on the given output and
	// performs the initial commit.
	CreateLayerSurface(output OutputID, opts LayerOptions) (LayerSurface, error)

	Close() error
}
