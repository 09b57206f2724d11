package encoder

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

func sinePCM(sampleRate int, freq float64, amplitude int16, n int) []byte {
	buf := make([]byte, n*2)
	for i := 0; i < n; i++ {
		s := int16(float64(amplitude) * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

func TestWAVSink_RoundTripExact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.wav")

	sink, err := NewWAVSink(path, 8000, 1)
	if err != nil {
		t.Fatalf("NewWAVSink failed: %v", err)
	}

	pcm := sinePCM(8000, 440, 16384, 8000)
	// Stream in small chunks like the capture callback does.
	for off := 0; off < len(pcm); off += 640 {
		end := off + 640
		if end > len(pcm) {
			end = len(pcm)
		}
		if _, err := sink.Write(pcm[off:end]); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open output: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("Failed to decode output: %v", err)
	}

	if dec.SampleRate != 8000 {
		t.Errorf("Decoded sample rate = %d, want 8000", dec.SampleRate)
	}
	if dec.NumChans != 1 {
		t.Errorf("Decoded channels = %d, want 1", dec.NumChans)
	}
	if len(buf.Data) != 8000 {
		t.Fatalf("Decoded %d samples, want 8000", len(buf.Data))
	}

	for i := 0; i < len(buf.Data); i++ {
		want := int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
		if buf.Data[i] != want {
			t.Fatalf("Sample %d = %d, want %d (PCM must round-trip exactly)", i, buf.Data[i], want)
		}
	}
}

func TestWAVSink_CloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.wav")

	sink, err := NewWAVSink(path, 8000, 1)
	if err != nil {
		t.Fatalf("NewWAVSink failed: %v", err)
	}
	if _, err := sink.Write(sinePCM(8000, 440, 1000, 320)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if err := sink.Close(); err != nil {
		t.Fatalf("First Close failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
}
