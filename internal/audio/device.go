package audio

// DeviceConfig is what the pipeline asks of an input device.
type DeviceConfig struct {
	// Name selects a device by exact name. Empty means the system default
	// input device.
	Name string

	Channels   int
	SampleRate float64

	// BufferSize is the number of frames per read. One read returns
	// BufferSize*Channels interleaved samples.
	BufferSize int
}

// Device is an open capture stream.
type Device interface {
	// Read blocks for one buffer of interleaved samples. The slice is
	// only valid until the next call. An error wrapping ErrInputOverflow
	// comes with valid samples.
	Read() ([]float32, error)

	Close() error
}

// DeviceInfo describes an enumerated input device.
type DeviceInfo struct {
	Name              string
	HostAPI           string
	MaxInputChannels  int
	DefaultSampleRate float64
	Default           bool
}
