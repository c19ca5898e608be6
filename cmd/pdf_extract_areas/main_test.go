package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a3tai/mcp-pdf-areas/internal/areas"
	"github.com/a3tai/mcp-pdf-areas/internal/extract"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"valid", []string{"--areas", "a.json", "--exclude", "1,3-4", "--zoom", "2", "log.pdf"}, ""},
		{"missing file", []string{"--areas", "a.json"}, "exactly one PDF"},
		{"two files", []string{"--areas", "a.json", "a.pdf", "b.pdf"}, "exactly one PDF"},
		{"missing areas", []string{"log.pdf"}, "--areas is required"},
		{"bad zoom", []string{"--areas", "a.json", "--zoom", "0", "log.pdf"}, "must be positive"},
		{"bad format", []string{"--areas", "a.json", "--format", "xml", "log.pdf"}, "unsupported output format"},
		{"unknown flag", []string{"--colour", "log.pdf"}, "unknown flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseOptions(tt.args, io.Discard)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("parseOptions() unexpected error: %v", err)
				}
				if opts.pdfPath != "log.pdf" || opts.zoom != 2 || opts.exclude != "1,3-4" {
					t.Errorf("parseOptions() = %+v", opts)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("parseOptions() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseOptionsDefaults(t *testing.T) {
	opts, err := parseOptions([]string{"--areas=a.json", "log.pdf"}, io.Discard)
	if err != nil {
		t.Fatalf("parseOptions() unexpected error: %v", err)
	}
	if opts.renderScale != 1 || opts.zoom != 1 || opts.format != "json" || opts.cfg.OCRLanguage != "eng" {
		t.Errorf("unexpected defaults: %+v", opts)
	}
	if opts.yes || opts.consolidate || opts.timeout != 0 {
		t.Errorf("unexpected defaults: %+v", opts)
	}
}

func TestParseOptionsExtractionSettings(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, "cli.env", "MCP_PDF_AREAS_TOLERANCE=3.5\nMCP_PDF_AREAS_OCRLANG=deu\n")
	t.Setenv("MCP_PDF_AREAS_LINEFACTOR", "2.5")
	t.Setenv("MCP_PDF_AREAS_PAIRCLUSTER", "1.4")
	t.Cleanup(func() {
		os.Unsetenv("MCP_PDF_AREAS_TOLERANCE")
		os.Unsetenv("MCP_PDF_AREAS_OCRLANG")
	})

	opts, err := parseOptions([]string{
		"--areas=a.json",
		"--env-file", envFile,
		"--shortrule=20",
		"--paircluster=1.3",
		"--contenthash",
		"log.pdf",
	}, io.Discard)
	if err != nil {
		t.Fatalf("parseOptions() unexpected error: %v", err)
	}

	cfg := opts.cfg
	if cfg.LineFactor != 2.5 {
		t.Errorf("LineFactor = %v, want 2.5 from the environment", cfg.LineFactor)
	}
	if cfg.PairCluster != 1.3 {
		t.Errorf("PairCluster = %v, want 1.3 (flag overrides environment)", cfg.PairCluster)
	}
	if cfg.ShortRuleMax != 20 || !cfg.ContentHash {
		t.Errorf("ShortRuleMax/ContentHash = %v/%v, want 20/true", cfg.ShortRuleMax, cfg.ContentHash)
	}
	if cfg.Tolerance != 3.5 || cfg.OCRLanguage != "deu" {
		t.Errorf("Tolerance/OCRLanguage = %v/%v, want 3.5/deu from the env file", cfg.Tolerance, cfg.OCRLanguage)
	}
	if got := cfg.Tuning().LineFactor; got != 2.5 {
		t.Errorf("Tuning().LineFactor = %v, want 2.5", got)
	}
}

func TestParseOptionsInvalidSettings(t *testing.T) {
	t.Setenv("MCP_PDF_AREAS_LINEFACTOR", "0")

	_, err := parseOptions([]string{"--areas=a.json", "log.pdf"}, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "linefactor must be positive") {
		t.Errorf("parseOptions() error = %v, want linefactor must be positive", err)
	}

	_, err = parseOptions([]string{"--areas=a.json", "--env-file=missing.env", "log.pdf"}, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "env file not found") {
		t.Errorf("parseOptions() error = %v, want env file not found", err)
	}
}

func TestRunReportsFailures(t *testing.T) {
	dir := t.TempDir()
	areasFile := writeFile(t, dir, "areas.json", `[{"name": "Hole", "type": "identifier"}]`)
	notPDF := writeFile(t, dir, "log.pdf", "not a pdf at all")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing areas file", []string{"--areas", filepath.Join(dir, "nope.json"), notPDF}, "cannot read area file"},
		{"bad excluded pages", []string{"--areas", areasFile, "--exclude", "0", notPDF}, "page numbers start at 1"},
		{"invalid pdf", []string{"--areas", areasFile, notPDF}, "invalid PDF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tt.args, strings.NewReader(""), &stdout, &stderr)
			if code != 1 {
				t.Errorf("run() exit code = %d, want 1", code)
			}

			var result AreaExtractionResult
			if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
				t.Fatalf("output is not JSON: %v\n%s", err, stdout.String())
			}
			if result.Success {
				t.Error("result should not be successful")
			}
			if !strings.Contains(result.Error, tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", result.Error, tt.wantErr)
			}
		})
	}
}

func TestRunUsageError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"log.pdf"}, strings.NewReader(""), &stdout, &stderr); code != 2 {
		t.Errorf("run() exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "--areas is required") {
		t.Errorf("stderr = %s", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Error("usage errors should not write results")
	}
}

func TestConfirm(t *testing.T) {
	warnings := []extract.Warning{{Code: extract.WarningNoRegion, Message: `area "Notes" has no region`}}

	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"yes", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		var stderr bytes.Buffer
		if got := confirm(strings.NewReader(tt.input), &stderr, warnings); got != tt.want {
			t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(stderr.String(), `area "Notes" has no region`) {
			t.Errorf("warnings not shown: %s", stderr.String())
		}
	}
}

func TestWriteText(t *testing.T) {
	list := []areas.Area{{Name: "Hole", Order: 1}, {Name: "Description", Order: 2}}
	rec := extract.NewPageRecord(4, list)
	rec.Set("Hole", []string{"BH-1"})
	rec.Set("Description", []string{"Firm clay", "Dense sand"})

	var buf bytes.Buffer
	err := writeText(&buf, &AreaExtractionResult{
		FilePath:    "log.pdf",
		Success:     true,
		RecordCount: 1,
		Records:     []extract.PageRecord{*rec},
	})
	if err != nil {
		t.Fatalf("writeText() error: %v", err)
	}

	want := "Extracted 1 record(s) from log.pdf\n\nPage 4\n    Hole: BH-1\n    Description: Firm clay | Dense sand\n\n"
	if buf.String() != want {
		t.Errorf("writeText() = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	writeText(&buf, &AreaExtractionResult{Error: "cancelled by user", RecordCount: 2})
	if !strings.Contains(buf.String(), "2 record(s) were completed") {
		t.Errorf("writeText() failure = %q", buf.String())
	}
}
