// Package reporting renders benchmark results as text or Markdown.
package reporting

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/soma-enyi/soroban-ajo/benchmark/analysis"
	"github.com/soma-enyi/soroban-ajo/benchmark/simulation"
)

// Setup describes the benchmark parameters for the methodology section.
type Setup struct {
	Requests    int
	Concurrency int
	Groups      int
	Users       int
	BaseLatency time.Duration
	Jitter      time.Duration
	FailureRate float64
	Preset      string
}

// MarkdownReport generates benchmark reports in Markdown format.
type MarkdownReport struct {
	w io.Writer
}

// NewMarkdownReport creates a new Markdown report writer.
func NewMarkdownReport(w io.Writer) *MarkdownReport {
	return &MarkdownReport{w: w}
}

// WriteHeader writes the report header.
func (r *MarkdownReport) WriteHeader(title string) {
	fmt.Fprintf(r.w, "# %s\n\n", title)
	fmt.Fprintf(r.w, "Generated: %s\n\n", time.Now().Format(time.RFC3339))
}

// WriteMethodology writes the methodology section.
func (r *MarkdownReport) WriteMethodology(setup Setup) {
	fmt.Fprintln(r.w, "## Methodology")
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "- **Requests:** %d (%d workers)\n", setup.Requests, setup.Concurrency)
	fmt.Fprintf(r.w, "- **Key pool:** %d groups, %d users (Zipf-weighted)\n", setup.Groups, setup.Users)
	fmt.Fprintf(r.w, "- **Simulated backend:** %s latency, %s jitter, %.0f%% failure rate\n",
		setup.BaseLatency, setup.Jitter, setup.FailureRate*100)
	if setup.Preset != "" {
		fmt.Fprintf(r.w, "- **Cache preset:** %s\n", setup.Preset)
	}
	fmt.Fprintln(r.w, "- **Metric:** Per-request latency in milliseconds (lower is better)")
	fmt.Fprintln(r.w, "- **Statistical tests:** Mann-Whitney U (non-parametric), Cohen's d effect size")
	fmt.Fprintln(r.w)
}

// WriteSummaryTable writes the summary table for all runs.
func (r *MarkdownReport) WriteSummaryTable(metrics []*simulation.Metrics) {
	fmt.Fprintln(r.w, "## Summary")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "| Run | Requests | Hit Rate | Mean | P90 | P99 | Errors | Backend Calls |")
	fmt.Fprintln(r.w, "|-----|----------|----------|------|-----|-----|--------|---------------|")

	for _, m := range metrics {
		fmt.Fprintf(r.w, "| %s | %d | %.1f%% | %.3fms | %.3fms | %.3fms | %d | %d |\n",
			m.Name, m.Requests, m.HitRatePct,
			m.MeanMs, m.P90Ms, m.P99Ms,
			m.Errors, m.BackendCalls)
	}
	fmt.Fprintln(r.w)
}

// WriteComparison writes a detailed comparison section.
func (r *MarkdownReport) WriteComparison(comp *analysis.RunComparison) {
	fmt.Fprintf(r.w, "## %s vs %s\n\n", comp.Run1, comp.Run2)

	fmt.Fprintln(r.w, "### Descriptive Statistics")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "| Metric | "+comp.Run1+" | "+comp.Run2+" |")
	fmt.Fprintln(r.w, "|--------|"+strings.Repeat("-", len(comp.Run1)+2)+"|"+strings.Repeat("-", len(comp.Run2)+2)+"|")
	fmt.Fprintf(r.w, "| Mean | %.3fms | %.3fms |\n", comp.Stats1.Mean, comp.Stats2.Mean)
	fmt.Fprintf(r.w, "| Median | %.3fms | %.3fms |\n", comp.Stats1.Median, comp.Stats2.Median)
	fmt.Fprintf(r.w, "| Std Dev | %.3fms | %.3fms |\n", comp.Stats1.StdDev, comp.Stats2.StdDev)
	fmt.Fprintf(r.w, "| Min | %.3fms | %.3fms |\n", comp.Stats1.Min, comp.Stats2.Min)
	fmt.Fprintf(r.w, "| Max | %.3fms | %.3fms |\n", comp.Stats1.Max, comp.Stats2.Max)
	fmt.Fprintln(r.w)

	fmt.Fprintln(r.w, "### Statistical Analysis")
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "- **Mann-Whitney U:** %.2f (z=%.2f, p=%.4f)\n",
		comp.MannWhitney.U, comp.MannWhitney.Z, comp.MannWhitney.PValue)
	fmt.Fprintf(r.w, "- **Effect size (Cohen's d):** %.2f (%s)\n",
		comp.EffectSize.CohensD, comp.EffectSize.Interpretation)
	fmt.Fprintf(r.w, "- **%.0f%% CI for mean difference:** [%.3fms, %.3fms]\n",
		comp.BootstrapCI.Confidence*100, comp.BootstrapCI.LowerBound, comp.BootstrapCI.UpperBound)
	fmt.Fprintln(r.w)

	fmt.Fprintln(r.w, "### Conclusion")
	fmt.Fprintln(r.w)
	if comp.WinnerConfident {
		fmt.Fprintf(r.w, "**%s** shows statistically significant lower latency than %s ",
			comp.Winner, otherRun(comp.Winner, comp.Run1, comp.Run2))
		fmt.Fprintf(r.w, "(p < 0.05, effect size: %s).\n", comp.EffectSize.Interpretation)
	} else {
		fmt.Fprintln(r.w, "No statistically significant latency difference detected between runs (p >= 0.05).")
	}
	fmt.Fprintln(r.w)
}

func otherRun(winner, r1, r2 string) string {
	if winner == r1 {
		return r2
	}
	return r1
}

// WriteLatencyChart writes an ASCII histogram of a run's latencies.
func (r *MarkdownReport) WriteLatencyChart(name string, latenciesMs []float64) {
	fmt.Fprintf(r.w, "### %s Latency Distribution\n\n", name)
	fmt.Fprintln(r.w, "```")
	writeHistogram(r.w, latenciesMs, 10)
	fmt.Fprintln(r.w, "```")
	fmt.Fprintln(r.w)
}

// WriteFooter writes the report footer.
func (r *MarkdownReport) WriteFooter() {
	fmt.Fprintln(r.w, "---")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "*Report generated by ajo-bench*")
}

func writeHistogram(w io.Writer, data []float64, buckets int) {
	if len(data) == 0 {
		fmt.Fprintln(w, "no samples")
		return
	}

	min, max := data[0], data[0]
	for _, v := range data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max == min {
		max = min + 1
	}

	hist := make([]int, buckets)
	bucketSize := (max - min) / float64(buckets)
	for _, v := range data {
		bucket := int((v - min) / bucketSize)
		if bucket >= buckets {
			bucket = buckets - 1
		}
		hist[bucket]++
	}

	maxCount := 0
	for _, count := range hist {
		if count > maxCount {
			maxCount = count
		}
	}

	const width = 40
	for i, count := range hist {
		barLen := 0
		if maxCount > 0 {
			barLen = count * width / maxCount
		}
		bar := strings.Repeat("█", barLen)
		lo := min + float64(i)*bucketSize
		hi := lo + bucketSize
		fmt.Fprintf(w, "%8.2f-%8.2fms │ %s %d\n", lo, hi, bar, count)
	}
}
