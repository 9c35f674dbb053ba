package audio

import "errors"

var (
	// ErrDeviceNotFound is returned when a named input device does not exist.
	ErrDeviceNotFound = errors.New("audio: input device not found")

	// ErrInvalidDeviceConfig is returned when the device rejects the
	// requested channels, sample rate or buffer size.
	ErrInvalidDeviceConfig = errors.New("audio: unsupported device configuration")

	// ErrInputOverflow marks a read during which the device dropped
	// samples. The returned samples are still valid.
	ErrInputOverflow = errors.New("audio: input overflow")

	// ErrClosed is returned by Read after Close.
	ErrClosed = errors.New("audio: device closed")

	// ErrUnsupported is returned when the binary was built without an
	// audio backend.
	ErrUnsupported = errors.New("audio: capture support not compiled in")
)
