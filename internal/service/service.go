package service

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/audiolibrelab/mictape/internal/audio"
	"github.com/audiolibrelab/mictape/internal/config"
	"github.com/audiolibrelab/mictape/internal/encoder"
)

// Service wires the configuration, the capture backend and the recorder
// together and consumes the recorder's events on behalf of the caller.
type Service struct {
	cfg *config.Config
	rec *audio.Recorder

	mu        sync.Mutex
	lastError string
	level     int
	done      chan struct{}
}

// New creates a service on the given backend. The backend's lifetime is
// owned by the caller.
func New(cfg *config.Config, backend audio.Backend) *Service {
	s := &Service{cfg: cfg}
	s.rec = audio.NewRecorder(backend, encoder.Open, audio.EventHandlers{
		OnProgress:     s.handleProgress,
		OnStatusChange: s.handleStatusChange,
	})
	return s
}

// StartRecording begins a recording named after the given title. The
// destination file is derived from the configured output directory and
// format.
func (s *Service) StartRecording(title string) error {
	if title == "" {
		return fmt.Errorf("recording title is required")
	}

	if err := os.MkdirAll(s.cfg.Output.Directory, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	destination := filepath.Join(s.cfg.Output.Directory,
		cleanFileName(title)+"."+s.cfg.Output.Format)

	recCfg := audio.RecordingConfig{
		SampleRate:   s.cfg.Audio.SampleRate,
		Channels:     s.cfg.Audio.Channels,
		DeviceIndex:  s.cfg.Audio.DeviceIndex,
		Destination:  destination,
		BitrateKbps:  s.cfg.Output.Bitrate,
		FadeDuration: time.Duration(s.cfg.Audio.FadeSeconds) * time.Second,
		Tags: audio.Tags{
			Title:       title,
			Album:       s.cfg.Tags.Album,
			Track:       s.cfg.Tags.Track,
			Genre:       s.cfg.Tags.Genre,
			Year:        s.cfg.Tags.Year,
			UserDefined: []string{},
		},
	}

	s.mu.Lock()
	s.done = make(chan struct{})
	s.lastError = ""
	s.mu.Unlock()

	if err := s.rec.Start(recCfg); err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.done = nil
		s.mu.Unlock()
		return fmt.Errorf("failed to start recording: %w", err)
	}

	slog.Info("recording session started", "title", title, "destination", destination)
	return nil
}

// StopRecording requests the end of the current recording, optionally
// fading the signal out first. Completion is signalled through Done.
func (s *Service) StopRecording(fadeOut bool) {
	s.rec.Stop(fadeOut)
}

// Done returns a channel closed when the active recording has fully
// stopped and its resources are released. Returns nil when no recording
// was started.
func (s *Service) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Status returns the recorder state.
func (s *Service) Status() audio.Status {
	return s.rec.Status()
}

// Level returns the last damped meter level, 0-100.
func (s *Service) Level() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// GetLastError returns the most recent start failure, empty when none.
func (s *Service) GetLastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// Devices returns the live capture device list.
func (s *Service) Devices() ([]audio.Device, error) {
	return s.rec.ListDevices()
}

func (s *Service) handleProgress(ev audio.ProgressEvent) {
	s.mu.Lock()
	s.level = ev.VolumeLevel
	s.mu.Unlock()

	slog.Debug("volume level", "percent", ev.VolumeLevel)
}

func (s *Service) handleStatusChange(ev audio.StatusChangeEvent) {
	slog.Debug("recorder status changed", "status", ev.Status)

	if ev.Status != audio.StatusNotRecording {
		return
	}

	s.mu.Lock()
	done := s.done
	s.done = nil
	s.mu.Unlock()

	if done != nil {
		close(done)
	}
}

// cleanFileName sanitizes a recording title for use as a filename.
// Allows: letters, numbers, spaces, hyphens, underscores.
func cleanFileName(name string) string {
	var result strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == ' ' || r == '-' || r == '_' {
			result.WriteRune(r)
		}
	}
	return strings.ReplaceAll(strings.TrimSpace(result.String()), " ", "_")
}
