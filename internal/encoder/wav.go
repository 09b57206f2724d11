package encoder

import (
	"encoding/binary"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVSink writes the captured stream as 16-bit PCM WAV.
type WAVSink struct {
	file   *os.File
	enc    *wav.Encoder
	format *goaudio.Format
	closed bool
}

// NewWAVSink creates the destination file with a WAV header for the given
// PCM format.
func NewWAVSink(path string, sampleRate, channels int) (*WAVSink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &WAVSink{
		file:   file,
		enc:    wav.NewEncoder(file, sampleRate, 16, channels, 1),
		format: &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
	}, nil
}

// Write accepts raw S16LE bytes and appends them to the data chunk.
func (s *WAVSink) Write(p []byte) (int, error) {
	data := make([]int, 0, len(p)/2)
	for i := 0; i+1 < len(p); i += 2 {
		data = append(data, int(int16(binary.LittleEndian.Uint16(p[i:]))))
	}

	buf := &goaudio.IntBuffer{Format: s.format, Data: data, SourceBitDepth: 16}
	if err := s.enc.Write(buf); err != nil {
		return 0, fmt.Errorf("wav write failed: %w", err)
	}
	return len(p), nil
}

// Close rewrites the header with the final sizes and closes the file. Safe
// to call more than once.
func (s *WAVSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.enc.Close(); err != nil {
		s.file.Close()
		return fmt.Errorf("failed to finalize wav file: %w", err)
	}
	return s.file.Close()
}
