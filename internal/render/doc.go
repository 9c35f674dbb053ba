// Package render runs the per-frame protocol for one output: pace,
// request the next frame callback, acquire, upload time, pointer trail
// and audio, draw, present.
//
// A Surface is owned by the control goroutine. It talks to the GPU through
// the Target and Program interfaces, implemented by internal/gpu, so the
// protocol can be tested without a device.
package render
