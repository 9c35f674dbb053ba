//go:build !cgo

package audio

// Open reports ErrUnsupported; PortAudio needs cgo.
func Open(DeviceConfig) (Device, error) {
	return nil, ErrUnsupported
}

// ListInputDevices reports ErrUnsupported; PortAudio needs cgo.
func ListInputDevices() ([]DeviceInfo, error) {
	return nil, ErrUnsupported
}
