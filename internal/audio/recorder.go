package audio

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"
)

// Status represents the current state of the recorder.
type Status string

const (
	StatusNotRecording  Status = "NOT_RECORDING"
	StatusRecording     Status = "RECORDING"
	StatusStopRequested Status = "STOP_REQUESTED"
)

// reportIntervalMs is the fixed cadence of volume meter reports.
const reportIntervalMs = 40

// DefaultFadeDuration is the ramp length used when a recording config does
// not specify one.
const DefaultFadeDuration = 10 * time.Second

// Tags is the metadata embedded in the output file.
type Tags struct {
	Title string
	Album string
	Track string
	Genre string
	Year  string

	// UserDefined must stay an explicitly empty, non-nil list: the tag
	// writer misbehaves when user-defined frames are present.
	UserDefined []string
}

// RecordingConfig describes one recording. It is supplied at Start and
// immutable for the duration of that recording.
type RecordingConfig struct {
	SampleRate   int
	Channels     int
	DeviceIndex  int
	Destination  string
	BitrateKbps  int
	FadeDuration time.Duration
	Tags         Tags
}

// ProgressEvent carries the damped volume meter level, 0-100.
type ProgressEvent struct {
	VolumeLevel int
}

// StatusChangeEvent carries the recorder state after a transition.
type StatusChangeEvent struct {
	Status Status
}

// EventHandlers are the recorder's two public notifications. Handlers run
// on the goroutine that triggered the transition - progress events always
// on the capture goroutine - so they must not block and must not call back
// into the recorder. Marshal slow work elsewhere.
type EventHandlers struct {
	OnProgress     func(ProgressEvent)
	OnStatusChange func(StatusChangeEvent)
}

// Recorder orchestrates device capture, the sample aggregator, the volume
// fader and the encoder sink behind a three-state machine. Exactly one
// capture session is active per recorder instance.
type Recorder struct {
	backend  Backend
	openSink SinkOpener
	handlers EventHandlers

	mu          sync.Mutex
	status      Status
	cfg         RecordingConfig
	session     Session
	sink        Sink
	agg         *SampleAggregator
	fader       *VolumeFader
	dampedLevel int
	pendingHalt bool
}

// NewRecorder creates a recorder on the given backend. The sink opener is
// called once per Start to open the destination encoder.
func NewRecorder(backend Backend, openSink SinkOpener, handlers EventHandlers) *Recorder {
	return &Recorder{
		backend:  backend,
		openSink: openSink,
		handlers: handlers,
		status:   StatusNotRecording,
	}
}

// Status returns the current recorder state.
func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Level returns the current damped meter level, 0-100.
func (r *Recorder) Level() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dampedLevel
}

// ListDevices returns the live capture device list. Callable in any state;
// nothing is cached.
func (r *Recorder) ListDevices() ([]Device, error) {
	return r.backend.Devices()
}

// Start opens the capture device and the encoder and begins capture.
// It is a no-op unless the recorder is in NOT_RECORDING. Any failure to
// open the device or encoder releases whatever was already opened and is
// returned to the caller; the recorder stays in NOT_RECORDING.
func (r *Recorder) Start(cfg RecordingConfig) error {
	r.mu.Lock()
	if r.status != StatusNotRecording {
		r.mu.Unlock()
		slog.Debug("start ignored, capture already active", "status", r.status)
		return nil
	}

	// A fresh aggregator drops the previous recording's report
	// subscription; the sample rate may differ between recordings.
	r.agg = NewSampleAggregator(cfg.SampleRate, reportIntervalMs, r.handleReport)
	r.dampedLevel = 0

	devices, err := r.backend.Devices()
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("failed to enumerate capture devices: %w", err)
	}
	if len(devices) == 0 {
		r.mu.Unlock()
		return ErrNoDevices
	}

	// A stale index from a previous device snapshot is not an error.
	index := cfg.DeviceIndex
	if index < 0 || index >= len(devices) {
		slog.Debug("device index out of range, using device 0", "requested", cfg.DeviceIndex, "devices", len(devices))
		index = 0
	}

	fadeDuration := cfg.FadeDuration
	if fadeDuration <= 0 {
		fadeDuration = DefaultFadeDuration
	}
	r.fader = NewVolumeFader(cfg.SampleRate, fadeDuration, r.handleFadeComplete)

	format := Format{SampleRate: cfg.SampleRate, Channels: cfg.Channels}
	session, err := r.backend.Open(index, format, SessionCallbacks{
		OnBuffer:  r.handleBuffer,
		OnStopped: r.handleCaptureStopped,
	})
	if err != nil {
		r.fader = nil
		r.mu.Unlock()
		return fmt.Errorf("failed to open capture device %d: %w", index, err)
	}

	sink, err := r.openSink(cfg)
	if err != nil {
		session.Close()
		r.fader = nil
		r.mu.Unlock()
		return fmt.Errorf("failed to open encoder for %s: %w", cfg.Destination, err)
	}

	if err := session.Start(); err != nil {
		sink.Close()
		session.Close()
		r.fader = nil
		r.mu.Unlock()
		return fmt.Errorf("failed to begin capture: %w", err)
	}

	r.cfg = cfg
	r.session = session
	r.sink = sink
	r.status = StatusRecording
	r.mu.Unlock()

	slog.Info("recording started", "destination", cfg.Destination,
		"sample_rate", cfg.SampleRate, "channels", cfg.Channels, "device", index)
	r.emitStatus(StatusRecording)

	return nil
}

// Stop requests the end of the current recording. It is a no-op unless the
// recorder is in RECORDING. With fadeOut the gain ramp is armed and capture
// halts once it completes; otherwise capture halts immediately. Either way
// the capture-stopped notification eventually brings the recorder back to
// NOT_RECORDING.
func (r *Recorder) Stop(fadeOut bool) {
	r.mu.Lock()
	if r.status != StatusRecording {
		r.mu.Unlock()
		slog.Debug("stop ignored, no recording in progress", "status", r.status)
		return
	}

	r.status = StatusStopRequested
	session := r.session
	if fadeOut {
		r.fader.Start()
	}
	r.mu.Unlock()

	r.emitStatus(StatusStopRequested)

	if fadeOut {
		slog.Info("stop requested, fading out")
		return
	}

	slog.Info("stop requested, halting capture")
	if err := session.Stop(); err != nil {
		slog.Warn("failed to halt capture", "error", err)
	}
}

// handleBuffer runs on the capture goroutine for every delivered buffer.
// Ordering matters: the fade is applied before both metering and encoding
// so the file and the meter reflect the faded audio.
func (r *Recorder) handleBuffer(pcm []byte) {
	r.mu.Lock()

	if r.status != StatusRecording && r.status != StatusStopRequested {
		r.mu.Unlock()
		return
	}
	if r.sink == nil || r.session == nil {
		r.mu.Unlock()
		return
	}

	r.fader.FadeBuffer(pcm)

	for i := 0; i+1 < len(pcm); i += 2 {
		s := int16(binary.LittleEndian.Uint16(pcm[i:]))
		r.agg.Add(float64(s) / 32768.0)
	}

	_, err := r.sink.Write(pcm)

	halt := r.pendingHalt
	r.pendingHalt = false
	session := r.session
	r.mu.Unlock()

	if err != nil {
		slog.Error("encoder write failed, halting capture", "error", err)
		session.Stop()
		return
	}

	if halt {
		slog.Debug("fade complete, halting capture")
		session.Stop()
	}
}

// handleReport runs on the capture goroutine once per aggregator window.
func (r *Recorder) handleReport(min, max float64) {
	raw := int(math.Max(math.Abs(min), math.Abs(max)) * 100)
	r.dampedLevel = dampLevel(r.dampedLevel, raw)

	if r.handlers.OnProgress != nil {
		r.handlers.OnProgress(ProgressEvent{VolumeLevel: r.dampedLevel})
	}
}

// handleFadeComplete fires from inside FadeBuffer, so the halt is deferred
// to the end of the buffer callback.
func (r *Recorder) handleFadeComplete() {
	r.pendingHalt = true
}

// handleCaptureStopped is invoked by the backend when capture has actually
// ceased, whether by explicit stop or device error. It is the only path
// back to NOT_RECORDING and is safe against being invoked more than once
// for the same session.
func (r *Recorder) handleCaptureStopped() {
	r.mu.Lock()
	if r.status == StatusNotRecording {
		r.mu.Unlock()
		return
	}

	if r.session != nil {
		if err := r.session.Close(); err != nil {
			slog.Warn("failed to release capture device", "error", err)
		}
		r.session = nil
	}
	if r.sink != nil {
		if err := r.sink.Close(); err != nil {
			slog.Warn("failed to finalize output file", "error", err, "destination", r.cfg.Destination)
		}
		r.sink = nil
	}
	r.fader = nil
	r.pendingHalt = false
	r.status = StatusNotRecording
	destination := r.cfg.Destination
	r.mu.Unlock()

	slog.Info("recording stopped", "destination", destination)
	r.emitStatus(StatusNotRecording)
}

func (r *Recorder) emitStatus(s Status) {
	if r.handlers.OnStatusChange != nil {
		r.handlers.OnStatusChange(StatusChangeEvent{Status: s})
	}
}
