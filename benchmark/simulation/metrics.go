package simulation

import (
	"sort"
)

// Metrics contains computed metrics for a workload run.
type Metrics struct {
	Name     string
	Requests int
	Errors   int

	// Cache behavior.
	HitRatePct    float64
	StaleServes   int64
	BackendCalls  int64
	BackendSaved  float64 // Percentage of requests served without a backend call.

	// Latency distribution, in milliseconds.
	MeanMs   float64
	MedianMs float64
	P90Ms    float64
	P99Ms    float64
	MinMs    float64
	MaxMs    float64

	// Throughput in requests per second.
	Throughput float64
}

// ComputeMetrics computes detailed metrics from a run result.
func ComputeMetrics(result *Result) *Metrics {
	m := &Metrics{
		Name:         result.Name,
		Requests:     result.Requests,
		Errors:       result.Errors,
		StaleServes:  result.Cache.StaleServes,
		BackendCalls: result.BackendCalls,
		HitRatePct:   result.Cache.HitRate() * 100,
	}

	if result.Requests > 0 {
		m.BackendSaved = (1 - float64(result.BackendCalls)/float64(result.Requests)) * 100
		if m.BackendSaved < 0 {
			m.BackendSaved = 0
		}
	}

	if len(result.LatenciesMs) > 0 {
		sorted := make([]float64, len(result.LatenciesMs))
		copy(sorted, result.LatenciesMs)
		sort.Float64s(sorted)

		var sum float64
		for _, v := range sorted {
			sum += v
		}
		m.MeanMs = sum / float64(len(sorted))
		m.MinMs = sorted[0]
		m.MaxMs = sorted[len(sorted)-1]
		m.MedianMs = percentile(sorted, 50)
		m.P90Ms = percentile(sorted, 90)
		m.P99Ms = percentile(sorted, 99)
	}

	if secs := result.Duration.Seconds(); secs > 0 {
		m.Throughput = float64(result.Requests) / secs
	}

	return m
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p / 100)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// MetricsComparison contains the differences between two runs.
type MetricsComparison struct {
	Run1 string
	Run2 string

	MeanDiffMs    float64 // Positive means Run1 is slower.
	MeanDiffPct   float64
	HitRateDiff   float64
	BackendDiff   int64
	ErrorsDiff    int
	ThroughputPct float64
}

// Compare computes the differences between two run metrics.
func Compare(m1, m2 *Metrics) *MetricsComparison {
	return &MetricsComparison{
		Run1:          m1.Name,
		Run2:          m2.Name,
		MeanDiffMs:    m1.MeanMs - m2.MeanMs,
		MeanDiffPct:   safeDiffPct(m1.MeanMs, m2.MeanMs),
		HitRateDiff:   m1.HitRatePct - m2.HitRatePct,
		BackendDiff:   m1.BackendCalls - m2.BackendCalls,
		ErrorsDiff:    m1.Errors - m2.Errors,
		ThroughputPct: safeDiffPct(m1.Throughput, m2.Throughput),
	}
}

func safeDiffPct(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return (a - b) / b * 100
}
