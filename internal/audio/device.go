package audio

import "io"

// Device describes one capture device reported by the host audio API.
// The list is a volatile snapshot: indices can go stale when devices are
// plugged or unplugged, which is why an out-of-range index at Start falls
// back to device 0 instead of failing.
type Device struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// Format is the PCM layout requested from a capture device.
// Capture always delivers interleaved signed 16-bit little-endian samples.
type Format struct {
	SampleRate int
	Channels   int
}

// SessionCallbacks receive capture data and lifecycle notifications.
// Both are invoked on the backend's capture goroutine, never concurrently
// with each other.
type SessionCallbacks struct {
	// OnBuffer is called for every PCM buffer the device delivers.
	OnBuffer func(pcm []byte)

	// OnStopped is called once the device has actually ceased capturing,
	// whether due to an explicit Stop or a device error.
	OnStopped func()
}

// Session is one open capture stream on a device.
type Session interface {
	// Start begins capture; buffers flow to OnBuffer until the session stops.
	Start() error

	// Stop requests that capture halt. It is asynchronous: OnStopped fires
	// when the device has actually ceased. Safe to call from the capture
	// goroutine itself.
	Stop() error

	// Close releases the device. The session must not be used afterwards.
	Close() error
}

// Backend abstracts the host audio API behind enumerate/open so the
// recorder state machine never touches the platform library directly.
type Backend interface {
	// Devices returns the live list of capture devices, re-queried each call.
	Devices() ([]Device, error)

	// Open acquires the capture device at index with the given format.
	// The session is created stopped; call Session.Start to begin capture.
	Open(index int, format Format, cb SessionCallbacks) (Session, error)
}

// Sink receives the captured byte stream and produces the output file.
// Writes are small and bounded (one capture buffer each) so they must not
// stall the capture goroutine.
type Sink interface {
	io.Writer
	Close() error
}

// SinkOpener opens the destination sink for one recording.
type SinkOpener func(cfg RecordingConfig) (Sink, error)
