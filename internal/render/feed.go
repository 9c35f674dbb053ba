package render

import (
	"github.com/gogpu/shaderpaper/internal/audio"
	"github.com/gogpu/shaderpaper/internal/mailbox"
)

// AudioFeed takes frames out of the capture slot and keeps the latest one
// so every surface can upload it. A frame is taken from the slot at most
// once; surfaces tell frames apart by Seq.
type AudioFeed struct {
	slot   *mailbox.Slot[audio.Frame]
	latest audio.Frame
	have   bool
}

// NewAudioFeed returns a feed reading from slot.
func NewAudioFeed(slot *mailbox.Slot[audio.Frame]) *AudioFeed {
	return &AudioFeed{slot: slot}
}

// Poll takes a fresh frame from the slot if one was published and returns
// the latest frame seen so far.
func (f *AudioFeed) Poll() (audio.Frame, bool) {
	if f == nil || f.slot == nil {
		return audio.Frame{}, false
	}
	if v, ok := f.slot.TryReceive(); ok {
		f.latest = v
		f.have = true
	}
	return f.latest, f.have
}
