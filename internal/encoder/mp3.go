package encoder

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/bogem/id3v2/v2"
	shine "github.com/braheezy/shine-mp3/pkg/mp3"

	"github.com/audiolibrelab/mictape/internal/audio"
)

// samplesPerFrame is the MPEG layer III granule size per channel. The
// encoder consumes whole frames, so writes are buffered up to one frame.
const samplesPerFrame = 1152

// mpegBitrates is the Layer III bitrate table in kbit/s, one column per
// MPEG version as the encoder indexes them (2.5, reserved, II, I).
var mpegBitrates = [16][4]int{
	{-1, -1, -1, -1}, {8, -1, 8, 32}, {16, -1, 16, 40}, {24, -1, 24, 48},
	{32, -1, 32, 56}, {40, -1, 40, 64}, {48, -1, 48, 80}, {56, -1, 56, 96},
	{64, -1, 64, 112}, {-1, -1, 80, 128}, {-1, -1, 96, 160}, {-1, -1, 112, 192},
	{-1, -1, 128, 224}, {-1, -1, 144, 256}, {-1, -1, 160, 320}, {-1, -1, -1, -1},
}

func findBitrateIndex(kbps, version int) int {
	for i := range mpegBitrates {
		if mpegBitrates[i][version] == kbps {
			return i
		}
	}
	return -1
}

// MP3Sink streams S16LE PCM through the shine encoder into the destination
// file and embeds ID3 tag metadata when closed.
type MP3Sink struct {
	file     *os.File
	enc      *shine.Encoder
	channels int
	tags     audio.Tags
	pending  []int16
	closed   bool
}

// NewMP3Sink creates the destination file and an encoder for the given PCM
// format. bitrateKbps of 0 keeps the encoder's default of 128.
func NewMP3Sink(path string, sampleRate, channels, bitrateKbps int, tags audio.Tags) (*MP3Sink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	enc := shine.NewEncoder(sampleRate, channels)
	if bitrateKbps > 0 && int64(bitrateKbps) != enc.Mpeg.Bitrate {
		if err := setBitrate(enc, bitrateKbps); err != nil {
			file.Close()
			os.Remove(path)
			return nil, err
		}
	}

	return &MP3Sink{
		file:     file,
		enc:      enc,
		channels: channels,
		tags:     tags,
		pending:  make([]int16, 0, samplesPerFrame*channels),
	}, nil
}

// setBitrate retargets a fresh encoder. NewEncoder fixes 128 kbit/s and
// derives the frame slot layout from it once, so the dependent fields must
// be recomputed after changing the rate.
func setBitrate(enc *shine.Encoder, kbps int) error {
	index := findBitrateIndex(kbps, int(enc.Mpeg.Version))
	if index < 0 {
		return fmt.Errorf("bitrate %d kbps not valid at %d Hz", kbps, enc.Wave.SampleRate)
	}

	enc.Mpeg.Bitrate = int64(kbps)
	enc.Mpeg.BitrateIndex = int64(index)

	avg := (float64(enc.Mpeg.GranulesPerFrame) * shine.GRANULE_SIZE / float64(enc.Wave.SampleRate)) *
		(float64(enc.Mpeg.Bitrate) * 1000 / float64(enc.Mpeg.BitsPerSlot))
	enc.Mpeg.WholeSlotsPerFrame = int64(avg)
	enc.Mpeg.FracSlotsPerFrame = avg - float64(enc.Mpeg.WholeSlotsPerFrame)
	enc.Mpeg.Slot_lag = -enc.Mpeg.FracSlotsPerFrame
	if enc.Mpeg.FracSlotsPerFrame == 0 {
		enc.Mpeg.Padding = 0
	}
	return nil
}

// Write accepts raw S16LE bytes. Whole frames are encoded immediately; the
// remainder is held for the next write so each call stays small and
// bounded.
func (s *MP3Sink) Write(p []byte) (int, error) {
	for i := 0; i+1 < len(p); i += 2 {
		s.pending = append(s.pending, int16(binary.LittleEndian.Uint16(p[i:])))
	}

	if err := s.flushFrames(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// flushFrames encodes every complete frame held in the pending buffer.
// The encoder is fed exactly one frame per call: its multi-frame stride
// assumes stereo and skips every other frame of mono input.
func (s *MP3Sink) flushFrames() error {
	frame := samplesPerFrame * s.channels
	for len(s.pending) >= frame {
		if err := s.enc.Write(s.file, s.pending[:frame]); err != nil {
			return fmt.Errorf("mp3 encode failed: %w", err)
		}
		s.pending = s.pending[:copy(s.pending, s.pending[frame:])]
	}
	return nil
}

// Close pads and encodes the trailing partial frame, finalizes the file
// and writes the tag metadata. Safe to call more than once.
func (s *MP3Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if len(s.pending) > 0 {
		frame := samplesPerFrame * s.channels
		for len(s.pending)%frame != 0 {
			s.pending = append(s.pending, 0)
		}
		if err := s.flushFrames(); err != nil {
			s.file.Close()
			return err
		}
	}

	path := s.file.Name()
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to finalize output file: %w", err)
	}

	return writeTags(path, s.tags)
}

// writeTags embeds the ID3v2 metadata into the finished file. User-defined
// frames are never written: Tags.UserDefined is kept explicitly empty
// because the tag writer misbehaves on user-defined frames.
func writeTags(path string, tags audio.Tags) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open output file for tagging: %w", err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(tags.Title)
	tag.SetAlbum(tags.Album)
	tag.SetGenre(tags.Genre)
	tag.SetYear(tags.Year)
	tag.AddTextFrame(tag.CommonID("Track number/Position in set"), tag.DefaultEncoding(), tags.Track)

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to write tags: %w", err)
	}
	return nil
}
