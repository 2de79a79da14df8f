package analysis

import (
	"fmt"

	"github.com/soma-enyi/soroban-ajo/benchmark/simulation"
)

// RunComparison contains a full statistical comparison of per-request
// latency between two benchmark runs.
type RunComparison struct {
	Run1            string
	Run2            string
	Stats1          *DescriptiveStats
	Stats2          *DescriptiveStats
	MannWhitney     *MannWhitneyResult
	EffectSize      *EffectSize
	BootstrapCI     *BootstrapResult
	Winner          string // Name of the run with lower mean latency, or "tie".
	WinnerConfident bool   // True if the difference is statistically significant.
}

// CompareRuns performs a full statistical comparison between two runs.
// Latency is the metric under test, so the winner is the run with the
// lower mean.
func CompareRuns(
	result1, result2 *simulation.Result,
	bootstrapIterations int,
	confidence float64,
) *RunComparison {
	sample1 := result1.LatenciesMs
	sample2 := result2.LatenciesMs

	mw := MannWhitneyU(sample1, sample2)
	es := ComputeEffectSize(sample1, sample2)
	bs := BootstrapConfidenceInterval(sample1, sample2, bootstrapIterations, confidence)

	stats1 := Describe(sample1)
	stats2 := Describe(sample2)

	var winner string
	var confident bool

	switch {
	case stats1.Mean < stats2.Mean:
		winner = result1.Name
		confident = mw.Significant
	case stats2.Mean < stats1.Mean:
		winner = result2.Name
		confident = mw.Significant
	default:
		winner = "tie"
	}

	return &RunComparison{
		Run1:            result1.Name,
		Run2:            result2.Name,
		Stats1:          stats1,
		Stats2:          stats2,
		MannWhitney:     mw,
		EffectSize:      es,
		BootstrapCI:     bs,
		Winner:          winner,
		WinnerConfident: confident,
	}
}

// Summary returns a human-readable summary of the comparison.
func (c *RunComparison) Summary() string {
	sig := "not statistically significant"
	if c.MannWhitney.Significant {
		sig = fmt.Sprintf("statistically significant (p=%.4f)", c.MannWhitney.PValue)
	}

	return fmt.Sprintf(
		"%s vs %s:\n"+
			"  %s: mean=%.3fms, median=%.3fms, std=%.3fms\n"+
			"  %s: mean=%.3fms, median=%.3fms, std=%.3fms\n"+
			"  Difference: %.3fms per request (%.1f%%)\n"+
			"  Effect size: %.2f (%s)\n"+
			"  Result: %s, %s",
		c.Run1, c.Run2,
		c.Run1, c.Stats1.Mean, c.Stats1.Median, c.Stats1.StdDev,
		c.Run2, c.Stats2.Mean, c.Stats2.Median, c.Stats2.StdDev,
		c.Stats1.Mean-c.Stats2.Mean,
		safePctDiff(c.Stats1.Mean, c.Stats2.Mean),
		c.EffectSize.CohensD, c.EffectSize.Interpretation,
		c.Winner, sig,
	)
}

func safePctDiff(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return (a - b) / b * 100
}
