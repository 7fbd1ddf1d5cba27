package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/example/go-neumernym/internal/analysis"
	"github.com/example/go-neumernym/internal/report"
	textpkg "github.com/example/go-neumernym/internal/text"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "analyze [file...]",
		Short: "Count words and syllables and print neumernyms",
		Long: "Analyse text given with --text, the named files, or stdin.\n" +
			"A file name of '-' reads stdin. --text and file arguments are exclusive.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("text") && len(args) > 0 {
				return fmt.Errorf("--text cannot be combined with file arguments")
			}

			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			format, err := report.ParseFormat(cfg.Analysis.OutputFormat)
			if err != nil {
				return err
			}
			inputFormat, err := textpkg.ParseInputFormat(cfg.Analysis.InputFormat)
			if err != nil {
				return err
			}

			var inputs []analysis.Input
			if cmd.Flags().Changed("text") {
				inputs = []analysis.Input{analysis.StringInput("-", text)}
			} else {
				inputs = collectInputs(args, cmd.InOrStdin())
			}

			items, err := analysis.AnalyzeBatch(cmd.Context(), inputs, analysis.BatchOptions{
				Format:      inputFormat,
				Normalize:   textpkg.NormalizeOptions{NFC: cfg.Analysis.UnicodeNFC},
				Details:     cfg.Analysis.Details,
				Concurrency: cfg.Analysis.Concurrency,
			})
			if err != nil {
				return err
			}

			slog.Debug("analysis complete",
				slog.Int("inputs", len(items)),
				slog.String("input_format", string(inputFormat)),
			)

			return report.Write(cmd.OutOrStdout(), format, items)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to analyse (if unset, read files or stdin)")

	return cmd
}

// collectInputs maps file arguments to inputs. No arguments means stdin.
func collectInputs(args []string, stdin io.Reader) []analysis.Input {
	if len(args) == 0 {
		args = []string{"-"}
	}

	readStdin := stdinSource(stdin)
	inputs := make([]analysis.Input, 0, len(args))
	for _, name := range args {
		if name == "-" {
			inputs = append(inputs, analysis.Input{Name: name, Source: readStdin})
			continue
		}
		inputs = append(inputs, analysis.Input{Name: name, Source: fileSource(name)})
	}
	return inputs
}

func fileSource(path string) analysis.Source {
	return func(context.Context) ([]byte, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read input file: %w", err)
		}
		return data, nil
	}
}

// stdinSource reads r once; repeated '-' arguments share the same bytes.
func stdinSource(r io.Reader) analysis.Source {
	var (
		once sync.Once
		data []byte
		err  error
	)
	return func(context.Context) ([]byte, error) {
		once.Do(func() {
			data, err = io.ReadAll(r)
			if err != nil {
				err = fmt.Errorf("read stdin: %w", err)
			}
		})
		return data, err
	}
}
