// Package audio captures interleaved samples from an input device, splits
// them per channel, computes spectra and publishes the result to a
// single-slot mailbox read by the renderer.
//
// The pipeline never queues. While the last published Frame is unread it
// idles instead of capturing, and a new Frame replaces an unread one.
package audio
