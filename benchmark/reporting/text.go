package reporting

import (
	"fmt"
	"io"

	"github.com/soma-enyi/soroban-ajo/benchmark/analysis"
	"github.com/soma-enyi/soroban-ajo/benchmark/simulation"
)

// TextReport generates benchmark reports in plain text, suitable for
// terminal output.
type TextReport struct {
	w io.Writer
}

// NewTextReport creates a new plain-text report writer.
func NewTextReport(w io.Writer) *TextReport {
	return &TextReport{w: w}
}

// WriteHeader writes the report title.
func (r *TextReport) WriteHeader(title string) {
	fmt.Fprintln(r.w, title)
	fmt.Fprintln(r.w, underline(title))
	fmt.Fprintln(r.w)
}

// WriteMethodology writes the benchmark parameters.
func (r *TextReport) WriteMethodology(setup Setup) {
	fmt.Fprintf(r.w, "Requests:    %d (%d workers)\n", setup.Requests, setup.Concurrency)
	fmt.Fprintf(r.w, "Key pool:    %d groups, %d users\n", setup.Groups, setup.Users)
	fmt.Fprintf(r.w, "Backend:     %s latency, %s jitter, %.0f%% failure rate\n",
		setup.BaseLatency, setup.Jitter, setup.FailureRate*100)
	if setup.Preset != "" {
		fmt.Fprintf(r.w, "Preset:      %s\n", setup.Preset)
	}
	fmt.Fprintln(r.w)
}

// WriteSummaryTable writes per-run metrics.
func (r *TextReport) WriteSummaryTable(metrics []*simulation.Metrics) {
	fmt.Fprintln(r.w, "Results:")
	fmt.Fprintln(r.w, "--------")
	fmt.Fprintln(r.w)

	for _, m := range metrics {
		fmt.Fprintf(r.w, "%s:\n", m.Name)
		fmt.Fprintf(r.w, "  Hit rate:       %.1f%%\n", m.HitRatePct)
		fmt.Fprintf(r.w, "  Mean latency:   %.3fms\n", m.MeanMs)
		fmt.Fprintf(r.w, "  Median latency: %.3fms\n", m.MedianMs)
		fmt.Fprintf(r.w, "  P90 latency:    %.3fms\n", m.P90Ms)
		fmt.Fprintf(r.w, "  P99 latency:    %.3fms\n", m.P99Ms)
		fmt.Fprintf(r.w, "  Throughput:     %.0f req/s\n", m.Throughput)
		fmt.Fprintf(r.w, "  Backend calls:  %d (%.1f%% saved)\n", m.BackendCalls, m.BackendSaved)
		fmt.Fprintf(r.w, "  Stale serves:   %d\n", m.StaleServes)
		fmt.Fprintf(r.w, "  Errors:         %d\n\n", m.Errors)
	}
}

// WriteComparison writes the statistical comparison.
func (r *TextReport) WriteComparison(comp *analysis.RunComparison) {
	fmt.Fprintln(r.w, "Statistical Analysis:")
	fmt.Fprintln(r.w, "---------------------")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, comp.Summary())
	fmt.Fprintln(r.w)
}

// WriteLatencyChart writes an ASCII histogram of a run's latencies.
func (r *TextReport) WriteLatencyChart(name string, latenciesMs []float64) {
	fmt.Fprintf(r.w, "%s latency distribution:\n", name)
	writeHistogram(r.w, latenciesMs, 10)
	fmt.Fprintln(r.w)
}

// WriteFooter is a no-op for text reports.
func (r *TextReport) WriteFooter() {}

func underline(s string) string {
	out := make([]byte, len(s))
	for i := range out {
		out[i] = '='
	}
	return string(out)
}
