// Package report renders analysis results for the command line.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/example/go-neumernym/internal/analysis"
)

// ErrInvalidFormat is returned by ParseFormat for unsupported names.
var ErrInvalidFormat = errors.New("invalid output format")

// Format names an output rendering.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatTSV  Format = "tsv"
)

// ParseFormat validates a case-insensitive format name. Empty means text.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatTSV:
		return f, nil
	default:
		return "", fmt.Errorf("%w %q (expected text|json|tsv)", ErrInvalidFormat, raw)
	}
}

// Write renders items to w in the given format.
func Write(w io.Writer, format Format, items []analysis.Item) error {
	switch format {
	case FormatText, "":
		return writeText(w, items)
	case FormatJSON:
		return writeJSON(w, items)
	case FormatTSV:
		return writeTSV(w, items)
	default:
		return fmt.Errorf("%w %q", ErrInvalidFormat, format)
	}
}

func writeText(w io.Writer, items []analysis.Item) error {
	sb := &strings.Builder{}
	for i, it := range items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if len(items) > 1 {
			fmt.Fprintf(sb, "%s\n", it.Name)
		}
		r := it.Report
		fmt.Fprintf(sb, "words:     %d\n", r.WordCount)
		fmt.Fprintf(sb, "syllables: %d\n", r.TotalSyllables)
		fmt.Fprintf(sb, "neumernym: %s\n", r.Neumernym)

		if len(r.Words) > 0 {
			fmt.Fprintln(sb, strings.Repeat("-", 40))
			for _, ws := range r.Words {
				fmt.Fprintf(sb, "%-24s %3d  %s\n", ws.Text, ws.Syllables, ws.Neumernym)
			}
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeJSON(w io.Writer, items []analysis.Item) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(items) == 1 {
		return enc.Encode(items[0].Report)
	}
	if items == nil {
		items = []analysis.Item{}
	}
	return enc.Encode(items)
}

func writeTSV(w io.Writer, items []analysis.Item) error {
	detailed := false
	for _, it := range items {
		if len(it.Report.Words) > 0 {
			detailed = true
			break
		}
	}

	sb := &strings.Builder{}
	if detailed {
		sb.WriteString("name\tword\tsyllables\tneumernym\n")
		for _, it := range items {
			for _, ws := range it.Report.Words {
				fmt.Fprintf(sb, "%s\t%s\t%d\t%s\n", it.Name, ws.Text, ws.Syllables, ws.Neumernym)
			}
		}
	} else {
		sb.WriteString("name\twords\tsyllables\tneumernym\n")
		for _, it := range items {
			r := it.Report
			fmt.Fprintf(sb, "%s\t%d\t%d\t%s\n", it.Name, r.WordCount, r.TotalSyllables, r.Neumernym)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
