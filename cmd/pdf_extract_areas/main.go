package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/a3tai/mcp-pdf-areas/internal/areas"
	"github.com/a3tai/mcp-pdf-areas/internal/config"
	"github.com/a3tai/mcp-pdf-areas/internal/extract"
	"github.com/a3tai/mcp-pdf-areas/internal/layout"
	"github.com/a3tai/mcp-pdf-areas/internal/ocr"
	"github.com/a3tai/mcp-pdf-areas/internal/pdf"
)

// options holds the parsed command line
type options struct {
	pdfPath     string
	areasPath   string
	exclude     string
	renderScale float64
	zoom        float64
	consolidate bool
	yes         bool
	timeout     time.Duration
	format      string
	verbose     bool
	cfg         *config.Config
}

// AreaExtractionResult is the JSON output of a run
type AreaExtractionResult struct {
	FilePath       string               `json:"file_path"`
	Success        bool                 `json:"success"`
	Fingerprint    string               `json:"fingerprint,omitempty"`
	RecordCount    int                  `json:"record_count"`
	Records        []extract.PageRecord `json:"records"`
	Warnings       []extract.Warning    `json:"warnings,omitempty"`
	Error          string               `json:"error,omitempty"`
	ExtractionTime string               `json:"extraction_time,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func parseOptions(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	flags := pflag.NewFlagSet("pdf_extract_areas", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&opts.areasPath, "areas", "", "JSON file with the area definitions (required)")
	flags.StringVar(&opts.exclude, "exclude", "", "Pages to skip, e.g. '1,5-7'")
	flags.Float64Var(&opts.renderScale, "render-scale", 1, "Render scale the regions were drawn at")
	flags.Float64Var(&opts.zoom, "zoom", 1, "Display zoom the regions were drawn at")
	flags.BoolVar(&opts.consolidate, "consolidate", false, "Group pages by the identifier area")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "Proceed past pre-flight warnings without asking")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Abort the run after this long (0 means no limit)")
	flags.StringVar(&opts.format, "format", "json", "Output format: json, text")
	settings := config.NewExtractionFlags(flags)
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Report progress and debug output on stderr")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "PDF Extract Areas - Extract field values from fixed areas on every page of a PDF")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "USAGE:")
		fmt.Fprintln(stderr, "  pdf_extract_areas --areas areas.json [options] <pdf-file>")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "OPTIONS:")
		flags.PrintDefaults()
		fmt.Fprintln(stderr)
		fmt.Fprintf(stderr, "Extraction settings also read %s_<FLAG> variables and the env file.\n", config.EnvPrefix)
	}

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if flags.NArg() != 1 {
		flags.Usage()
		return nil, errors.New("exactly one PDF file path is required")
	}
	opts.pdfPath = flags.Arg(0)

	if opts.areasPath == "" {
		return nil, errors.New("--areas is required")
	}
	if opts.renderScale <= 0 || opts.zoom <= 0 {
		return nil, errors.New("--render-scale and --zoom must be positive")
	}
	if opts.format != "json" && opts.format != "text" {
		return nil, fmt.Errorf("unsupported output format: %s", opts.format)
	}

	cfg, err := settings.Load()
	if err != nil {
		return nil, err
	}
	opts.cfg = cfg

	return opts, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	logger := log.New(io.Discard, "", 0)
	if opts.verbose {
		logger = log.New(stderr, "[Extraction] ", log.LstdFlags)
	}

	start := time.Now()
	result := extractAreas(ctx, opts, stdin, stderr, logger)
	result.ExtractionTime = time.Since(start).Round(time.Millisecond).String()

	if err := writeResult(stdout, opts.format, result); err != nil {
		fmt.Fprintf(stderr, "Error writing results: %v\n", err)
		return 1
	}
	if !result.Success {
		return 1
	}
	return 0
}

func extractAreas(ctx context.Context, opts *options, stdin io.Reader, stderr io.Writer, logger *log.Logger) *AreaExtractionResult {
	result := &AreaExtractionResult{FilePath: opts.pdfPath, Records: []extract.PageRecord{}}
	fail := func(err error) *AreaExtractionResult {
		result.Error = err.Error()
		return result
	}

	list, err := areas.LoadFile(opts.areasPath)
	if err != nil {
		return fail(err)
	}

	excluded, err := extract.ParsePageSet(opts.exclude)
	if err != nil {
		return fail(err)
	}

	if err := pdf.NewValidator(opts.cfg.MaxFileSize).Check(opts.pdfPath); err != nil {
		return fail(err)
	}

	identity, err := pdf.IdentityOf(opts.pdfPath, opts.cfg.ContentHash)
	if err != nil {
		return fail(err)
	}

	doc, err := pdf.Open(opts.pdfPath, logger)
	if err != nil {
		return fail(err)
	}
	defer doc.Close()

	cfg := opts.cfg
	orchestrator := extract.NewOrchestrator(extract.Options{
		Tuning:      cfg.Tuning(),
		Tolerance:   cfg.Tolerance,
		RasterScale: cfg.OCRScale,
		OCR:         ocr.Factory(ocr.Options{Languages: cfg.OCRLanguages()}),
		Logger:      logger,
		Debug:       opts.verbose,
	})

	req := extract.Request{
		Areas:    list,
		Document: doc,
		Identity: identity,
		Excluded: excluded,
		View:     layout.View{RenderScale: opts.renderScale, Zoom: opts.zoom},
		Confirm: func(w []extract.Warning) bool {
			result.Warnings = w
			return opts.yes || confirm(stdin, stderr, w)
		},
	}
	if opts.verbose {
		req.Progress = func(p extract.Progress) {
			fmt.Fprintf(stderr, "[%d/%d] %s\n", p.Page, p.Total, p.Status)
		}
	}

	records, err := orchestrator.Extract(ctx, req)
	if fp, ok := orchestrator.CurrentFingerprint(); ok {
		result.Fingerprint = string(fp)
	}
	if opts.consolidate {
		records = extract.Consolidate(records, list)
	}
	if records != nil {
		result.Records = records
	}
	result.RecordCount = len(result.Records)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fail(fmt.Errorf("timed out after %s: %w", opts.timeout, err))
		}
		return fail(err)
	}

	result.Success = true
	return result
}

// confirm lists the warnings and asks whether to continue
func confirm(stdin io.Reader, stderr io.Writer, warnings []extract.Warning) bool {
	for _, w := range warnings {
		fmt.Fprintf(stderr, "Warning: %s\n", w.Message)
	}
	fmt.Fprint(stderr, "Proceed anyway? [y/N] ")

	answer, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func writeResult(w io.Writer, format string, result *AreaExtractionResult) error {
	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}
	return writeText(w, result)
}

func writeText(w io.Writer, result *AreaExtractionResult) error {
	if !result.Success {
		fmt.Fprintf(w, "Area extraction failed: %s\n", result.Error)
		if result.RecordCount > 0 {
			fmt.Fprintf(w, "%d record(s) were completed before the failure\n", result.RecordCount)
		}
		return nil
	}

	if result.RecordCount == 0 {
		fmt.Fprintln(w, "No pages produced a record")
		return nil
	}

	fmt.Fprintf(w, "Extracted %d record(s) from %s\n\n", result.RecordCount, result.FilePath)
	for _, rec := range result.Records {
		pages := make([]string, 0, len(rec.Pages))
		for _, p := range rec.Pages {
			pages = append(pages, fmt.Sprint(p))
		}
		fmt.Fprintf(w, "Page %s\n", strings.Join(pages, ", "))

		for _, name := range rec.Fields() {
			if s, ok := rec.Scalar(name); ok {
				fmt.Fprintf(w, "    %s: %s\n", name, s)
				continue
			}
			fmt.Fprintf(w, "    %s: %s\n", name, strings.Join(rec.Value(name), " | "))
		}
		fmt.Fprintln(w)
	}
	return nil
}
