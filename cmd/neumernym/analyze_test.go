package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/go-neumernym/internal/analysis"
	"github.com/example/go-neumernym/internal/testutil"
)

func TestAnalyze_TextFlag(t *testing.T) {
	out, err := runCLI(t, nil, "analyze", "--text", "The cat sat.")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	want := "words:     3\nsyllables: 3\nneumernym: the cat sat\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestAnalyze_EmptyTextFlag(t *testing.T) {
	out, err := runCLI(t, nil, "analyze", "--text", "", "--format", "json")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	var got analysis.Report
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if got.Result != (analysis.Result{}) {
		t.Errorf("result = %+v, want zero", got.Result)
	}
}

func TestAnalyze_JSONFormat(t *testing.T) {
	out, err := runCLI(t, nil, "analyze", "--format", "json", "--text", "international")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	var got analysis.Report
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}

	want := analysis.Result{WordCount: 1, TotalSyllables: 5, Neumernym: "i11l"}
	if got.Result != want {
		t.Errorf("result = %+v, want %+v", got.Result, want)
	}
	if got.Words != nil {
		t.Errorf("expected no per-word breakdown, got %+v", got.Words)
	}
}

func TestAnalyze_DetailsJSON(t *testing.T) {
	out, err := runCLI(t, nil, "analyze", "--format", "json", "--details", "--text", "hello world")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	var got analysis.Report
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if len(got.Words) != 2 {
		t.Fatalf("expected 2 word stats, got %d", len(got.Words))
	}
	if got.Words[1].Text != "world" || got.Words[1].Neumernym != "w3d" {
		t.Errorf("unexpected second word stat: %+v", got.Words[1])
	}
}

func TestAnalyze_Stdin(t *testing.T) {
	out, err := runCLI(t, strings.NewReader("hello world\n"), "analyze", "--format", "tsv")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	want := "name\twords\tsyllables\tneumernym\n-\t2\t3\th3o w3d\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestAnalyze_FilesKeepArgumentOrder(t *testing.T) {
	first := testutil.WriteInput(t, "first.txt", "cat")
	second := testutil.WriteInput(t, "second.txt", "international")

	out, err := runCLI(t, nil, "analyze", "--format", "tsv", second, first)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	want := "name\twords\tsyllables\tneumernym\n" +
		second + "\t1\t5\ti11l\n" +
		first + "\t1\t1\tcat\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestAnalyze_MarkdownInput(t *testing.T) {
	path := testutil.WriteInput(t, "doc.md", "# Title\n\nSome **bold** text.\n")

	out, err := runCLI(t, nil, "analyze", "--input-format", "markdown", "--format", "tsv", path)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	want := "name\twords\tsyllables\tneumernym\n" + path + "\t4\t5\tt3e some bold text\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestAnalyze_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.txt")

	_, err := runCLI(t, nil, "analyze", missing)
	if err == nil {
		t.Fatal("expected error for missing input file")
	}
	if !strings.Contains(err.Error(), "nope.txt") {
		t.Errorf("error %q does not name the input", err)
	}
}

func TestAnalyze_TextFlagWithFilesFails(t *testing.T) {
	path := testutil.WriteInput(t, "extra.txt", "international")

	out, err := runCLI(t, nil, "analyze", "--text", "cat", path)
	if err == nil {
		t.Fatalf("expected error when --text is combined with files, got output %q", out)
	}
	if !strings.Contains(err.Error(), "--text") {
		t.Errorf("error %q does not mention --text", err)
	}
}

func TestAnalyze_InvalidFormat(t *testing.T) {
	_, err := runCLI(t, nil, "analyze", "--format", "xml", "--text", "cat")
	if err == nil {
		t.Fatal("expected error for unknown output format")
	}
}

func TestCollectInputs_RepeatedStdinSharesBytes(t *testing.T) {
	inputs := collectInputs([]string{"-", "-"}, strings.NewReader("cat"))
	if len(inputs) != 2 {
		t.Fatalf("expected 2 inputs, got %d", len(inputs))
	}

	for i, in := range inputs {
		data, err := in.Source(t.Context())
		if err != nil {
			t.Fatalf("input %d: %v", i, err)
		}
		if string(data) != "cat" {
			t.Errorf("input %d = %q, want %q", i, data, "cat")
		}
	}
}
