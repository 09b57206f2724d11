package audio

import (
	"encoding/binary"
	"time"
)

// VolumeFader applies a linear gain ramp from full volume to silence over a
// fixed duration, measured in elapsed samples. A fader serves exactly one
// recording: once the ramp has completed it cannot be restarted, and every
// buffer faded afterwards comes out silent.
//
// FadeBuffer is only ever called from the capture goroutine.
type VolumeFader struct {
	totalSamples   int
	elapsedSamples int
	active         bool
	done           bool
	onComplete     func()
}

// NewVolumeFader returns a fader for the given sample rate. The ramp length
// is duration converted to samples. onComplete fires exactly once, from
// inside the FadeBuffer call that crosses the ramp boundary.
func NewVolumeFader(sampleRate int, duration time.Duration, onComplete func()) *VolumeFader {
	totalSamples := int(float64(sampleRate) * duration.Seconds())
	if totalSamples < 1 {
		totalSamples = 1
	}

	return &VolumeFader{
		totalSamples: totalSamples,
		onComplete:   onComplete,
	}
}

// Start arms the fade. Starting an already-active or completed fader has no
// additional effect.
func (f *VolumeFader) Start() {
	if f.active || f.done {
		return
	}
	f.active = true
}

// Active reports whether the ramp is currently in progress.
func (f *VolumeFader) Active() bool {
	return f.active
}

// FadeBuffer scales every S16LE sample in buf in place by the current ramp
// gain, advancing the ramp by one step per sample. A buffer that straddles
// the ramp boundary gets a smoothly decreasing gain within that buffer;
// samples past the boundary are zeroed. Before Start it is a no-op.
func (f *VolumeFader) FadeBuffer(buf []byte) {
	if !f.active && !f.done {
		return
	}

	for i := 0; i+1 < len(buf); i += 2 {
		gain := 0.0
		if f.elapsedSamples < f.totalSamples {
			gain = 1.0 - float64(f.elapsedSamples)/float64(f.totalSamples)
			f.elapsedSamples++
		}

		s := int16(binary.LittleEndian.Uint16(buf[i:]))
		binary.LittleEndian.PutUint16(buf[i:], uint16(int16(float64(s)*gain)))
	}

	if f.active && f.elapsedSamples >= f.totalSamples {
		f.active = false
		f.done = true
		if f.onComplete != nil {
			f.onComplete()
		}
	}
}
