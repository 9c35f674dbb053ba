// Package app wires the display connection, the output manager, the GPU
// backend and the audio pipeline into the shaderpaper event loop.
package app
