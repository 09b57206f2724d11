// Package encoder provides the output sinks the recording pipeline streams
// into: lossy MP3 with embedded ID3 tags, and plain 16-bit PCM WAV. Sinks
// accept raw S16LE interleaved bytes, one small capture buffer per write.
package encoder

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/audiolibrelab/mictape/internal/audio"
)

// Open returns the sink matching the destination's extension. MP3 gets the
// configured bitrate and tag metadata; WAV is plain PCM without tags.
// Open satisfies audio.SinkOpener.
func Open(cfg audio.RecordingConfig) (audio.Sink, error) {
	switch strings.ToLower(filepath.Ext(cfg.Destination)) {
	case ".mp3":
		return NewMP3Sink(cfg.Destination, cfg.SampleRate, cfg.Channels, cfg.BitrateKbps, cfg.Tags)
	case ".wav":
		return NewWAVSink(cfg.Destination, cfg.SampleRate, cfg.Channels)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", cfg.Destination)
	}
}
