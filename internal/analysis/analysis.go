// Package analysis aggregates word, syllable and neumernym statistics over
// whole texts.
package analysis

import (
	"strings"

	"github.com/example/go-neumernym/internal/text"
)

// Result is the outcome of analysing one text.
// Neumernym holds the encoded form of every word joined by single spaces, so
// it splits into exactly WordCount fields and is empty iff WordCount is zero.
type Result struct {
	WordCount      int    `json:"word_count"`
	TotalSyllables int    `json:"total_syllables"`
	Neumernym      string `json:"neumernym"`
}

// WordStat is the per-word breakdown carried by a detailed Report.
type WordStat struct {
	Text      string `json:"text"`
	Syllables int    `json:"syllables"`
	Neumernym string `json:"neumernym"`
}

// Report is a Result with an optional per-word breakdown in input order.
type Report struct {
	Result
	Words []WordStat `json:"words,omitempty"`
}

// AverageSyllables returns TotalSyllables per word, or 0 for no words.
func (r Result) AverageSyllables() float64 {
	if r.WordCount == 0 {
		return 0
	}
	return float64(r.TotalSyllables) / float64(r.WordCount)
}

// Analyze tokenizes s and reports its word count, total estimated syllables
// and neumernym string. It never fails: input without words yields the zero
// Result.
func Analyze(s string) Result {
	return analyze(s, nil)
}

// AnalyzeDetailed is Analyze plus the per-word breakdown.
func AnalyzeDetailed(s string) Report {
	var words []WordStat
	res := analyze(s, func(w WordStat) { words = append(words, w) })
	return Report{Result: res, Words: words}
}

func analyze(s string, visit func(WordStat)) Result {
	tokens := text.Tokenize(s)
	if len(tokens) == 0 {
		return Result{}
	}

	forms := make([]string, len(tokens))
	total := 0
	for i, tok := range tokens {
		syl := text.CountSyllables(tok)
		forms[i] = text.Neumernym(tok)
		total += syl
		if visit != nil {
			visit(WordStat{Text: tok, Syllables: syl, Neumernym: forms[i]})
		}
	}

	return Result{
		WordCount:      len(tokens),
		TotalSyllables: total,
		Neumernym:      strings.Join(forms, " "),
	}
}
