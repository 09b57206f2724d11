package audio

import (
	"math"
	"testing"
)

func TestSampleAggregator_WindowSize(t *testing.T) {
	tests := []struct {
		sampleRate int
		intervalMs int
		want       int
	}{
		{44100, 40, 1764},
		{48000, 40, 1920},
		{11025, 40, 441},
		{8000, 40, 320},
	}

	for _, tt := range tests {
		agg := NewSampleAggregator(tt.sampleRate, tt.intervalMs, nil)
		if agg.WindowSize() != tt.want {
			t.Errorf("WindowSize(%d Hz, %d ms) = %d, want %d",
				tt.sampleRate, tt.intervalMs, agg.WindowSize(), tt.want)
		}
	}
}

func TestSampleAggregator_OneReportPerWindow(t *testing.T) {
	reports := 0
	agg := NewSampleAggregator(1000, 40, func(min, max float64) {
		reports++
	})

	// 1000 Hz at 40 ms gives a 40 sample window; 120 samples = 3 reports.
	for i := 0; i < 120; i++ {
		agg.Add(0)
	}

	if reports != 3 {
		t.Errorf("Expected 3 reports for 120 samples, got %d", reports)
	}
}

func TestSampleAggregator_MinMaxPerWindow(t *testing.T) {
	type report struct{ min, max float64 }
	var reports []report
	agg := NewSampleAggregator(1000, 40, func(min, max float64) {
		reports = append(reports, report{min, max})
	})

	// First window: peaks at -0.25 and 0.5 among zeros.
	for i := 0; i < 40; i++ {
		switch i {
		case 10:
			agg.Add(0.5)
		case 20:
			agg.Add(-0.25)
		default:
			agg.Add(0)
		}
	}

	// Second window: constant 0.1, so min and max must not carry over.
	for i := 0; i < 40; i++ {
		agg.Add(0.1)
	}

	if len(reports) != 2 {
		t.Fatalf("Expected 2 reports, got %d", len(reports))
	}
	if reports[0].min != -0.25 || reports[0].max != 0.5 {
		t.Errorf("First window report = (%v, %v), want (-0.25, 0.5)", reports[0].min, reports[0].max)
	}
	if reports[1].min != 0.1 || reports[1].max != 0.1 {
		t.Errorf("Second window report = (%v, %v), want (0.1, 0.1)", reports[1].min, reports[1].max)
	}
}

func TestSampleAggregator_NoClamping(t *testing.T) {
	var gotMin, gotMax float64
	agg := NewSampleAggregator(1000, 40, func(min, max float64) {
		gotMin, gotMax = min, max
	})

	// Out-of-range and NaN input is accepted as-is.
	agg.Add(1.5)
	agg.Add(-2.0)
	agg.Add(math.NaN())
	for i := 0; i < 37; i++ {
		agg.Add(0)
	}

	if gotMax != 1.5 {
		t.Errorf("Expected unclamped max 1.5, got %v", gotMax)
	}
	if gotMin != -2.0 {
		t.Errorf("Expected unclamped min -2.0, got %v", gotMin)
	}
}

func TestSampleAggregator_TinyWindowStillReports(t *testing.T) {
	reports := 0
	agg := NewSampleAggregator(1, 40, func(min, max float64) {
		reports++
	})

	agg.Add(0.2)
	if reports != 1 {
		t.Errorf("Expected a report per sample for a 1-sample window, got %d reports", reports)
	}
}
