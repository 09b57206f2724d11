package audio

import "math"

// SampleAggregator accumulates normalized samples and reports the min and
// max seen in each reporting window. The window size is derived from the
// sample rate and the reporting interval, so it must be recreated whenever
// a recording starts with a different rate.
//
// Add is only ever called from the capture goroutine, so no locking is
// needed. Input is taken as-is: NaN or out-of-range values are not clamped.
type SampleAggregator struct {
	windowSize int
	remaining  int
	min, max   float64
	onReport   func(min, max float64)
}

// NewSampleAggregator returns an aggregator that reports once per
// round(sampleRate * intervalMs / 1000) samples.
func NewSampleAggregator(sampleRate, intervalMs int, onReport func(min, max float64)) *SampleAggregator {
	windowSize := int(math.Round(float64(sampleRate) * float64(intervalMs) / 1000.0))
	if windowSize < 1 {
		windowSize = 1
	}

	a := &SampleAggregator{
		windowSize: windowSize,
		onReport:   onReport,
	}
	a.reset()
	return a
}

// WindowSize returns the number of samples per report.
func (a *SampleAggregator) WindowSize() int {
	return a.windowSize
}

// Add accumulates one sample. When the window is full the report callback
// fires with the window's min and max and the window resets.
func (a *SampleAggregator) Add(sample float64) {
	if sample < a.min {
		a.min = sample
	}
	if sample > a.max {
		a.max = sample
	}

	a.remaining--
	if a.remaining <= 0 {
		if a.onReport != nil {
			a.onReport(a.min, a.max)
		}
		a.reset()
	}
}

func (a *SampleAggregator) reset() {
	a.min = math.Inf(1)
	a.max = math.Inf(-1)
	a.remaining = a.windowSize
}
