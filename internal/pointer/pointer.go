// Package pointer tracks the pointer position over a surface and keeps the
// trail of recent positions uploaded to the shader.
package pointer

import (
	"encoding/binary"
	"math"
)

// Vec4 is one trail entry as laid out in the shader's vec4<f32>.
type Vec4 [4]float32

// Absent is reported when the pointer is not over the surface. It lies
// far outside the unit square so shaders treat it as "no pointer".
var Absent = Vec4{-100, -100, 0, 0}

// EntrySize is the byte size of one trail entry.
const EntrySize = 16

// Tracker holds the current normalized pointer position for one surface.
// It is owned by the control goroutine.
type Tracker struct {
	width, height uint32
	pos           Vec4
}

// NewTracker returns a tracker for a surface of the given size, with the
// pointer absent.
func NewTracker(width, height uint32) *Tracker {
	return &Tracker{width: width, height: height, pos: Absent}
}

// Resize updates the surface size used for normalization. The current
// position is kept as is; the next motion event renormalizes it.
func (t *Tracker) Resize(width, height uint32) {
	t.width, t.height = width, height
	if width == 0 || height == 0 {
		t.pos = Absent
	}
}

// Move records an enter or motion event at surface-local coordinates.
func (t *Tracker) Move(x, y float64) {
	if t.width == 0 || t.height == 0 {
		t.pos = Absent
		return
	}
	t.pos = Vec4{float32(x / float64(t.width)), float32(y / float64(t.height)), 0, 0}
}

// Leave records that the pointer left the surface.
func (t *Tracker) Leave() {
	t.pos = Absent
}

// Position returns the current entry, Absent if the pointer is elsewhere.
func (t *Tracker) Position() Vec4 {
	return t.pos
}

// Trail is a fixed-length history of positions, newest first.
type Trail struct {
	entries []Vec4
	buf     []byte
}

// NewTrail returns a trail of length n filled with Absent. n below one is
// treated as one.
func NewTrail(n int) *Trail {
	if n < 1 {
		n = 1
	}
	t := &Trail{
		entries: make([]Vec4, n),
		buf:     make([]byte, n*EntrySize),
	}
	for i := range t.entries {
		t.entries[i] = Absent
	}
	return t
}

// Len returns the fixed number of entries.
func (t *Trail) Len() int { return len(t.entries) }

// Push puts p at the front and drops the oldest entry.
func (t *Trail) Push(p Vec4) {
	copy(t.entries[1:], t.entries[:len(t.entries)-1])
	t.entries[0] = p
}

// At returns entry i, 0 being the newest.
func (t *Trail) At(i int) Vec4 { return t.entries[i] }

// Entries returns a copy of the trail, newest first.
func (t *Trail) Entries() []Vec4 {
	out := make([]Vec4, len(t.entries))
	copy(out, t.entries)
	return out
}

// Bytes encodes the trail as little-endian array<vec4<f32>, N>. The returned
// slice is reused by the next call.
func (t *Trail) Bytes() []byte {
	for i, e := range t.entries {
		off := i * EntrySize
		for j, v := range e {
			binary.LittleEndian.PutUint32(t.buf[off+j*4:], math.Float32bits(v))
		}
	}
	return t.buf
}
