// Package capture owns the microphone: the append-only sample buffer
// filled by the driver callback and the lifecycle manager that bounds
// every blocking operation against the backend.
package capture

type DataCallback func(data []byte, frameCount uint32)

type Config struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config Config) (Device, error)
	Close()
}

type Device interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
}
