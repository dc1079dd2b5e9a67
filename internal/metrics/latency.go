package metrics

import (
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram bounds, in microseconds.
const (
	latencyMinMicros = 1
	latencyMaxMicros = int64(time.Hour / time.Microsecond)
	latencySigFigs   = 3
)

// LatencyStats summarises worker wall times.
type LatencyStats struct {
	Count int64
	Min   time.Duration
	P50   time.Duration
	P95   time.Duration
	Max   time.Duration
	Mean  time.Duration
}

// SummarizeLatency records samples in an HDR histogram at microsecond
// resolution. Samples outside [1µs, 1h] are clamped. The zero value is
// returned for an empty slice.
func SummarizeLatency(samples []time.Duration) LatencyStats {
	if len(samples) == 0 {
		return LatencyStats{}
	}
	h := hdrhistogram.New(latencyMinMicros, latencyMaxMicros, latencySigFigs)
	for _, d := range samples {
		v := min(max(d.Microseconds(), latencyMinMicros), latencyMaxMicros)
		_ = h.RecordValue(v) // in range after clamping
	}
	micros := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	return LatencyStats{
		Count: h.TotalCount(),
		Min:   micros(h.Min()),
		P50:   micros(h.ValueAtQuantile(50)),
		P95:   micros(h.ValueAtQuantile(95)),
		Max:   micros(h.Max()),
		Mean:  micros(int64(h.Mean())),
	}
}
