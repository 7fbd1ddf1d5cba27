package analysis

import (
	"context"
	"fmt"

	"github.com/example/go-neumernym/internal/text"
	"golang.org/x/sync/errgroup"
)

// Source reads the raw bytes of one input.
type Source func(ctx context.Context) ([]byte, error)

// Input is a named text to analyse.
type Input struct {
	Name   string
	Source Source
}

// StringInput wraps an in-memory string as an Input.
func StringInput(name, s string) Input {
	return Input{
		Name:   name,
		Source: func(context.Context) ([]byte, error) { return []byte(s), nil },
	}
}

// BatchOptions controls AnalyzeBatch.
type BatchOptions struct {
	Format      text.InputFormat
	Normalize   text.NormalizeOptions
	Details     bool
	Concurrency int
}

// Item is the report for one named input.
type Item struct {
	Name   string `json:"name"`
	Report Report `json:"report"`
}

// AnalyzeBatch reads, prepares and analyses every input with at most
// opts.Concurrency inputs in flight. Items are returned in input order. The
// first read error cancels outstanding reads and is returned.
func AnalyzeBatch(ctx context.Context, inputs []Input, opts BatchOptions) ([]Item, error) {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 1
	}

	items := make([]Item, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := in.Source(gctx)
			if err != nil {
				return fmt.Errorf("read %s: %w", in.Name, err)
			}
			items[i] = Item{Name: in.Name, Report: Run(raw, opts)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// Run prepares raw input according to opts and analyses it.
func Run(raw []byte, opts BatchOptions) Report {
	prepared := text.Prepare(raw, opts.Format, opts.Normalize)
	if opts.Details {
		return AnalyzeDetailed(prepared)
	}
	return Report{Result: Analyze(prepared)}
}
