package audio

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"
)

// MalgoBackend implements Backend on top of miniaudio via malgo. One
// backend owns one miniaudio context; Close must be called when the
// backend is no longer needed.
type MalgoBackend struct {
	ctx *malgo.AllocatedContext
}

// NewMalgoBackend initializes a miniaudio context for the host's default
// audio API.
func NewMalgoBackend() (*MalgoBackend, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	return &MalgoBackend{ctx: ctx}, nil
}

// Close releases the miniaudio context. All sessions opened through this
// backend must be closed first.
func (b *MalgoBackend) Close() error {
	if b.ctx == nil {
		return nil
	}

	err := b.ctx.Uninit()
	b.ctx.Free()
	b.ctx = nil
	return err
}

// Devices re-queries the host's capture device list.
func (b *MalgoBackend) Devices() ([]Device, error) {
	infos, err := b.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate capture devices: %w", err)
	}

	devices := make([]Device, len(infos))
	for i, info := range infos {
		devices[i] = Device{Index: i, Name: info.Name()}
	}
	return devices, nil
}

// Open acquires the capture device at index with S16LE interleaved PCM in
// the requested format.
func (b *MalgoBackend) Open(index int, format Format, cb SessionCallbacks) (Session, error) {
	infos, err := b.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate capture devices: %w", err)
	}
	if index < 0 || index >= len(infos) {
		return nil, fmt.Errorf("capture device %d not available (%d devices)", index, len(infos))
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(format.Channels)
	deviceConfig.Capture.DeviceID = infos[index].ID.Pointer()
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	session := &malgoSession{cb: cb}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			if cb.OnBuffer == nil {
				return
			}
			// miniaudio reuses the buffer after the callback returns and the
			// consumer mutates it in place, so hand over a copy.
			pcm := make([]byte, len(input))
			copy(pcm, input)
			cb.OnBuffer(pcm)
		},
		Stop: func() {
			// miniaudio forbids device calls from its own callbacks; hop off
			// the audio thread before the consumer releases the device.
			go session.notifyStopped()
		},
	}

	device, err := malgo.InitDevice(b.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture device %d: %w", index, err)
	}

	session.device = device
	return session, nil
}

// malgoSession wraps one malgo capture device.
type malgoSession struct {
	cb     SessionCallbacks
	device *malgo.Device

	mu       sync.Mutex
	stopping bool
	closed   bool
	stopOnce sync.Once
}

func (s *malgoSession) Start() error {
	if err := s.device.Start(); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}
	return nil
}

// Stop requests capture halt. The actual device stop runs on its own
// goroutine because Stop can be reached from the capture goroutine, where
// miniaudio does not allow device calls. The stopped notification fires
// through the device's stop callback once capture has ceased.
func (s *malgoSession) Stop() error {
	s.mu.Lock()
	if s.stopping || s.closed {
		s.mu.Unlock()
		return nil
	}
	s.stopping = true
	device := s.device
	s.mu.Unlock()

	go func() {
		if err := device.Stop(); err != nil {
			slog.Warn("failed to stop capture device", "error", err)
			// The stop callback will not fire; deliver the notification
			// ourselves so the state machine can unwind.
			s.notifyStopped()
		}
	}()

	return nil
}

func (s *malgoSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	device := s.device
	s.mu.Unlock()

	device.Uninit()
	return nil
}

func (s *malgoSession) notifyStopped() {
	s.stopOnce.Do(func() {
		if s.cb.OnStopped != nil {
			s.cb.OnStopped()
		}
	})
}
