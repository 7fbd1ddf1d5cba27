package main

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/example/go-neumernym/internal/analysis"
	"github.com/example/go-neumernym/internal/bench"
	"github.com/spf13/cobra"
)

func newBenchCmd() *cobra.Command {
	var (
		text       string
		file       string
		runs       int
		maxMeanMS  float64
		cpuprofile string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark analysis latency and throughput",
		Long: "Runs the analysis pipeline repeatedly over the same text.\n" +
			"Output is a table, or JSON when --format=json.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read bench text: %w", err)
				}
				text = string(data)
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("--text or --file is required for bench")
			}
			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}

			if cpuprofile != "" {
				f, err := os.Create(cpuprofile)
				if err != nil {
					return fmt.Errorf("create cpu profile: %w", err)
				}
				defer func() { _ = f.Close() }()
				if err := pprof.StartCPUProfile(f); err != nil {
					return fmt.Errorf("start cpu profile: %w", err)
				}
				defer pprof.StopCPUProfile()
			}

			results, err := runBench(cmd.Context(), text, runs)
			if err != nil {
				return err
			}

			durations := make([]time.Duration, len(results))
			for i, r := range results {
				durations[i] = r.Duration
			}
			stats := bench.ComputeStats(durations)

			out := cmd.OutOrStdout()
			switch strings.ToLower(cfg.Analysis.OutputFormat) {
			case "json":
				bench.FormatJSON(results, stats, out)
			default:
				bench.FormatTable(results, stats, out)
			}

			threshold := time.Duration(maxMeanMS * float64(time.Millisecond))
			return bench.CheckMeanThreshold(stats.Mean, threshold)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to analyse on each run")
	cmd.Flags().StringVar(&file, "file", "", "Read the bench text from a file")
	cmd.Flags().IntVar(&runs, "runs", 100, "Number of analysis runs")
	cmd.Flags().Float64Var(&maxMeanMS, "max-mean-ms", 0, "Exit non-zero if mean latency exceeds this value in ms (0 = disabled)")
	cmd.Flags().StringVar(&cpuprofile, "cpuprofile", "", "Write a CPU profile to this file")

	return cmd
}

func runBench(ctx context.Context, text string, runs int) ([]bench.RunResult, error) {
	results := make([]bench.RunResult, 0, runs)

	for i := range runs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run %d: %w", i+1, err)
		}

		start := time.Now()
		res := analysis.Analyze(text)
		dur := time.Since(start)

		results = append(results, bench.RunResult{
			Index:    i,
			Cold:     i == 0,
			Duration: dur,
			Words:    res.WordCount,
			WPS:      bench.WordsPerSecond(res.WordCount, dur),
		})
	}

	return results, nil
}
