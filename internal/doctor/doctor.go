// Package doctor provides preflight self-checks for neumernym.
package doctor

import (
	"fmt"
	"io"

	"github.com/example/go-neumernym/internal/analysis"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// Check is one named preflight check.
type Check struct {
	Name string
	Run  func() error
}

// Case is an input with its expected analysis.
type Case struct {
	Input string
	Want  analysis.Result
}

// PipelineCases returns the reference cases the analysis pipeline must
// reproduce exactly.
func PipelineCases() []Case {
	return []Case{
		{Input: "", Want: analysis.Result{}},
		{Input: "cat", Want: analysis.Result{WordCount: 1, TotalSyllables: 1, Neumernym: "cat"}},
		{Input: "international", Want: analysis.Result{WordCount: 1, TotalSyllables: 5, Neumernym: "i11l"}},
		{Input: "The cat sat.", Want: analysis.Result{WordCount: 3, TotalSyllables: 3, Neumernym: "the cat sat"}},
		{Input: "!!! ??? ...", Want: analysis.Result{}},
	}
}

// CaseChecks turns cases into checks against analyze.
func CaseChecks(cases []Case, analyze func(string) analysis.Result) []Check {
	checks := make([]Check, 0, len(cases))
	for _, c := range cases {
		checks = append(checks, Check{
			Name: fmt.Sprintf("analyze %q", c.Input),
			Run: func() error {
				got := analyze(c.Input)
				if got != c.Want {
					return fmt.Errorf("got %+v, want %+v", got, c.Want)
				}
				return nil
			},
		})
	}
	return checks
}

// Config holds the checks to run.
type Config struct {
	Checks []Check
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	for _, c := range cfg.Checks {
		if err := c.Run(); err != nil {
			res.AddFailure(fmt.Sprintf("%s: %v", c.Name, err))
			fmt.Fprintf(w, "%s %s: %v\n", FailMark, c.Name, err)
			continue
		}
		fmt.Fprintf(w, "%s %s\n", PassMark, c.Name)
	}

	return res
}
