// Package main provides the ajo-bench CLI tool for benchmarking cache
// configurations against a simulated Soroban RPC backend.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	ajo "github.com/soma-enyi/soroban-ajo"
	"github.com/soma-enyi/soroban-ajo/benchmark/analysis"
	"github.com/soma-enyi/soroban-ajo/benchmark/reporting"
	"github.com/soma-enyi/soroban-ajo/benchmark/simulation"
	"github.com/soma-enyi/soroban-ajo/benchmark/trace"
)

var (
	requests    int
	groups      int
	users       int
	concurrency int
	seed        int64

	baseLatency time.Duration
	jitter      time.Duration
	failureRate float64

	preset      string
	ttlOverride time.Duration
	compareSWR  bool

	traceFile    string
	recordFile   string
	outputFormat string
	outputFile   string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "ajo-bench",
	Short: "Benchmark cache configurations for the ajo dashboard",
	Long: `ajo-bench replays dashboard-shaped workloads against a cache backed by
a simulated Soroban RPC endpoint with configurable latency and failures.

It measures per-request latency, hit rates, and backend call volume, and
can compare stale-while-revalidate against plain TTL expiry with proper
statistical tests.

Examples:
  # Run the default synthetic workload
  ajo-bench run

  # Compare stale-while-revalidate on vs off with a short TTL
  ajo-bench run --requests 5000 --ttl 250ms --compare-swr

  # Replay a recorded workload and write a markdown report
  ajo-bench run --trace workload.jsonl.zst --format markdown --output report.md`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark",
	RunE:  runBenchmark,
}

func init() {
	runCmd.Flags().IntVarP(&requests, "requests", "n", 1000, "number of requests to replay")
	runCmd.Flags().IntVar(&groups, "groups", 20, "distinct savings groups in the synthetic workload")
	runCmd.Flags().IntVar(&users, "users", 50, "distinct users in the synthetic workload")
	runCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 8, "concurrent workers")
	runCmd.Flags().Int64Var(&seed, "seed", 1, "workload and backend random seed")

	runCmd.Flags().DurationVar(&baseLatency, "latency", 5*time.Millisecond, "simulated backend base latency")
	runCmd.Flags().DurationVar(&jitter, "jitter", 2*time.Millisecond, "simulated backend latency jitter")
	runCmd.Flags().Float64Var(&failureRate, "failure-rate", 0.05, "simulated backend failure probability")

	runCmd.Flags().StringVarP(&preset, "preset", "p", "production", "cache preset: production, staging, development, test")
	runCmd.Flags().DurationVar(&ttlOverride, "ttl", 0, "override the preset's default TTL")
	runCmd.Flags().BoolVar(&compareSWR, "compare-swr", false, "compare stale-while-revalidate on vs off")

	runCmd.Flags().StringVar(&traceFile, "trace", "", "replay a recorded workload (supports .gz and .zst)")
	runCmd.Flags().StringVar(&recordFile, "record", "", "save the workload to a trace file")
	runCmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format: text, markdown")
	runCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// reportWriter is satisfied by both the text and markdown renderers.
type reportWriter interface {
	WriteHeader(title string)
	WriteMethodology(setup reporting.Setup)
	WriteSummaryTable(metrics []*simulation.Metrics)
	WriteComparison(comp *analysis.RunComparison)
	WriteLatencyChart(name string, latenciesMs []float64)
	WriteFooter()
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	workload, err := buildWorkload()
	if err != nil {
		return err
	}

	if recordFile != "" {
		if err := trace.Save(recordFile, workload); err != nil {
			return fmt.Errorf("recording workload: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Recorded %d requests to %s\n", len(workload), recordFile)
		}
	}

	baseCfg, err := ajo.PresetConfig(preset)
	if err != nil {
		return err
	}
	if ttlOverride > 0 {
		baseCfg.DefaultTTL = ttlOverride
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var results []*simulation.Result
	if compareSWR {
		on := baseCfg
		on.StaleWhileRevalidate = true
		off := baseCfg
		off.StaleWhileRevalidate = false

		resOn, err := runOnce(ctx, "swr-on", on, workload)
		if err != nil {
			return err
		}
		resOff, err := runOnce(ctx, "swr-off", off, workload)
		if err != nil {
			return err
		}
		results = append(results, resOn, resOff)
	} else {
		res, err := runOnce(ctx, preset, baseCfg, workload)
		if err != nil {
			return err
		}
		results = append(results, res)
	}

	var comparison *analysis.RunComparison
	if len(results) == 2 {
		comparison = analysis.CompareRuns(results[0], results[1], 10000, 0.95)
	}

	var output io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var report reportWriter
	switch outputFormat {
	case "markdown":
		report = reporting.NewMarkdownReport(output)
	case "text":
		report = reporting.NewTextReport(output)
	default:
		return fmt.Errorf("unknown format: %s", outputFormat)
	}

	writeReport(report, workload, results, comparison)
	return nil
}

func buildWorkload() ([]simulation.Request, error) {
	if traceFile != "" {
		workload, err := trace.Load(traceFile)
		if err != nil {
			return nil, err
		}
		if len(workload) == 0 {
			return nil, fmt.Errorf("no requests found in %s", traceFile)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Loaded %d requests from %s\n", len(workload), traceFile)
		}
		return workload, nil
	}

	return simulation.SyntheticWorkload(simulation.WorkloadConfig{
		Requests: requests,
		Groups:   groups,
		Users:    users,
		Seed:     seed,
	}), nil
}

func runOnce(ctx context.Context, name string, cfg ajo.Config, workload []simulation.Request) (*simulation.Result, error) {
	if verbose {
		fmt.Fprintf(os.Stderr, "Running %s (%d requests, %d workers)...\n", name, len(workload), concurrency)
	}

	cache, err := ajo.New(ajo.WithConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("creating cache for %s: %w", name, err)
	}
	defer cache.Close()

	backend := simulation.NewBackend(simulation.BackendConfig{
		BaseLatency: baseLatency,
		Jitter:      jitter,
		FailureRate: failureRate,
		Seed:        seed,
	})

	result := simulation.NewRunner(cache, backend, concurrency).Run(ctx, name, workload)

	if verbose {
		fmt.Fprintf(os.Stderr, "  %s: %d backend calls, %d errors in %s\n",
			name, result.BackendCalls, result.Errors, result.Duration.Round(time.Millisecond))
	}
	return result, nil
}

func writeReport(report reportWriter, workload []simulation.Request, results []*simulation.Result, comparison *analysis.RunComparison) {
	report.WriteHeader("Ajo Cache Benchmark")
	report.WriteMethodology(reporting.Setup{
		Requests:    len(workload),
		Concurrency: concurrency,
		Groups:      groups,
		Users:       users,
		BaseLatency: baseLatency,
		Jitter:      jitter,
		FailureRate: failureRate,
		Preset:      preset,
	})

	metrics := make([]*simulation.Metrics, 0, len(results))
	for _, res := range results {
		metrics = append(metrics, simulation.ComputeMetrics(res))
	}
	report.WriteSummaryTable(metrics)

	if comparison != nil {
		report.WriteComparison(comparison)
	}
	for _, res := range results {
		report.WriteLatencyChart(res.Name, res.LatenciesMs)
	}

	report.WriteFooter()
}
