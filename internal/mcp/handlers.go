package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-pdf-areas/internal/areas"
	"github.com/a3tai/mcp-pdf-areas/internal/descriptions"
	"github.com/a3tai/mcp-pdf-areas/internal/extract"
	"github.com/a3tai/mcp-pdf-areas/internal/layout"
	"github.com/a3tai/mcp-pdf-areas/internal/pdf"
)

// extractionInput holds the arguments shared by the extraction tools
type extractionInput struct {
	path     string
	areas    []areas.Area
	excluded []int
	view     layout.View
	identity extract.Identity
}

// extractionResponse is the JSON body returned by pdf_extract_areas
type extractionResponse struct {
	Path         string               `json:"path"`
	Fingerprint  extract.Fingerprint  `json:"fingerprint"`
	Cached       bool                 `json:"cached"`
	Consolidated bool                 `json:"consolidated"`
	Warnings     []extract.Warning    `json:"warnings,omitempty"`
	RecordCount  int                  `json:"record_count"`
	Records      []extract.PageRecord `json:"records"`
}

func (s *Server) parseExtraction(request mcp.CallToolRequest) (*extractionInput, error) {
	rawPath, err := request.RequireString("path")
	if err != nil {
		return nil, err
	}
	path, err := s.paths.Resolve(rawPath)
	if err != nil {
		return nil, err
	}

	rawAreas, err := request.RequireString("areas")
	if err != nil {
		return nil, err
	}
	list, err := areas.ParseJSON([]byte(rawAreas))
	if err != nil {
		return nil, err
	}

	excluded, err := extract.ParsePageSet(request.GetString("excluded_pages", ""))
	if err != nil {
		return nil, err
	}

	view := layout.View{
		RenderScale: request.GetFloat("render_scale", 1),
		Zoom:        request.GetFloat("zoom", 1),
	}
	if view.RenderScale <= 0 || view.Zoom <= 0 {
		return nil, fmt.Errorf("render_scale and zoom must be positive")
	}

	identity, err := pdf.IdentityOf(path, s.config.ContentHash)
	if err != nil {
		return nil, err
	}

	return &extractionInput{
		path:     path,
		areas:    list,
		excluded: excluded,
		view:     view,
		identity: identity,
	}, nil
}

func (s *Server) handleExtractAreas(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := s.parseExtraction(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	fp := extract.ComputeFingerprint(in.areas, in.identity, in.excluded, in.view)
	current, _ := s.orchestrator.CurrentFingerprint()
	cached := current == fp

	proceed := request.GetBool("proceed_on_warnings", false)
	var warnings []extract.Warning

	run := func(doc extract.Document) ([]extract.PageRecord, error) {
		return s.orchestrator.Extract(ctx, extract.Request{
			Areas:    in.areas,
			Document: doc,
			Identity: in.identity,
			Excluded: in.excluded,
			View:     in.view,
			Confirm: func(w []extract.Warning) bool {
				warnings = w
				return proceed
			},
			Progress: s.progressSink(ctx, request),
		})
	}

	var records []extract.PageRecord
	if cached {
		// a hit never touches the document; another call may have replaced the entry since
		records, err = run(cachedDocument{})
		if errors.Is(err, errCacheOnly) {
			cached = false
		}
	}
	if !cached {
		doc, openErr := s.open(in.path)
		if openErr != nil {
			return mcp.NewToolResultError(openErr.Error()), nil
		}
		defer doc.Close()
		records, err = run(doc)
	}
	if err != nil {
		return mcp.NewToolResultError(describeFailure(err, warnings, records)), nil
	}

	consolidate := request.GetBool("consolidate", false)
	if consolidate {
		records = extract.Consolidate(records, in.areas)
	}
	if records == nil {
		records = []extract.PageRecord{}
	}

	body, err := json.MarshalIndent(extractionResponse{
		Path:         in.path,
		Fingerprint:  fp,
		Cached:       cached,
		Consolidated: consolidate,
		Warnings:     warnings,
		RecordCount:  len(records),
		Records:      records,
	}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot encode records: %v", err)), nil
	}

	return mcp.NewToolResultText(string(body)), nil
}

func (s *Server) handleAreaFingerprint(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := s.parseExtraction(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	fp := extract.ComputeFingerprint(in.areas, in.identity, in.excluded, in.view)
	current, ok := s.orchestrator.CurrentFingerprint()

	text := fmt.Sprintf("Fingerprint: %s\n", fp)
	text += fmt.Sprintf("File: %s (%d bytes)\n", in.identity.Name, in.identity.Size)
	text += fmt.Sprintf("Areas: %d\n", len(in.areas))
	if ok && current == fp {
		text += "Cached: yes, pdf_extract_areas will return the stored records\n"
	} else {
		text += "Cached: no\n"
	}

	for _, w := range extract.Preflight(in.areas) {
		text += fmt.Sprintf("Warning: %s\n", w.Message)
	}

	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleValidateFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawPath, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := s.paths.Resolve(rawPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := s.validator.ValidateFile(path)

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid and readable\nPages: %d\nSize: %d bytes",
			result.Path, result.Pages, result.Size)
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePageInfo(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawPath, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := s.paths.Resolve(rawPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := s.open(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer doc.Close()

	count, err := doc.PageCount()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("PDF page info for: %s\n", path)
	text += fmt.Sprintf("Pages: %d\n", count)
	for page := 1; page <= count; page++ {
		w, h, err := doc.PageSize(page)
		if err != nil {
			text += fmt.Sprintf("  %d. size unavailable: %v\n", page, err)
			continue
		}
		text += fmt.Sprintf("  %d. %.1f x %.1f\n", page, w, h)
	}

	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatServerInfo()), nil
}

func (s *Server) formatServerInfo() string {
	cfg := s.config
	text := fmt.Sprintf("%s v%s - Server Information\n", cfg.ServerName, cfg.Version)
	text += fmt.Sprintf("Default Directory: %s\n", cfg.PDFDirectory)
	text += fmt.Sprintf("Max File Size: %d MB\n", cfg.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("OCR: languages %s, %g pixels per unit\n", strings.Join(cfg.OCRLanguages(), "+"), cfg.OCRScale)
	text += fmt.Sprintf("Tolerance: %g units\n", cfg.Tolerance)

	tuning := cfg.Tuning()
	text += fmt.Sprintf("Line factor: %g, short rule: %g, pair factors: %g/%g/%g\n",
		tuning.LineFactor, tuning.ShortRuleMax,
		tuning.PairSmallSampleFactor, tuning.PairUniformSpread, tuning.PairClusterFactor)

	stats := s.orchestrator.Cache().Stats()
	text += fmt.Sprintf("Cache: %d hits, %d misses, %d stores\n", stats.Hits, stats.Misses, stats.Stores)
	text += fmt.Sprintf("Extraction state: %s\n", s.orchestrator.State())

	types := make([]string, 0, len(areas.Types()))
	for _, t := range areas.Types() {
		types = append(types, string(t))
	}
	text += fmt.Sprintf("\nField types: %s\n", strings.Join(types, ", "))

	text += "\nAvailable Tools:\n"
	for _, name := range descriptions.GetAllToolNames() {
		summary, _, _ := strings.Cut(descriptions.GetToolDescription(name), "\n")
		text += fmt.Sprintf("• %s: %s\n", name, summary)
	}

	return text
}

// progressSink forwards page progress to the client when it asked for it
func (s *Server) progressSink(ctx context.Context, request mcp.CallToolRequest) func(extract.Progress) {
	if request.Params.Meta == nil || request.Params.Meta.ProgressToken == nil {
		return nil
	}
	srv := server.ServerFromContext(ctx)
	if srv == nil {
		return nil
	}

	token := request.Params.Meta.ProgressToken
	return func(p extract.Progress) {
		err := srv.SendNotificationToClient(ctx, "notifications/progress", map[string]any{
			"progressToken": token,
			"progress":      p.Page,
			"total":         p.Total,
			"message":       p.Status,
		})
		if err != nil && s.config.IsDebug() {
			s.logger.Printf("Cannot send progress: %v", err)
		}
	}
}

// describeFailure renders an extraction error for the client
func describeFailure(err error, warnings []extract.Warning, partial []extract.PageRecord) string {
	switch {
	case errors.Is(err, extract.ErrDeclined):
		msgs := make([]string, 0, len(warnings))
		for _, w := range warnings {
			msgs = append(msgs, w.Message)
		}
		return fmt.Sprintf("extraction stopped on %d warning(s): %s; set proceed_on_warnings to continue",
			len(warnings), strings.Join(msgs, "; "))
	case errors.Is(err, extract.ErrCancelled):
		return fmt.Sprintf("extraction cancelled after %d page record(s): %v", len(partial), err)
	default:
		return err.Error()
	}
}

// cachedDocument stands in for a file whose records are already cached
type cachedDocument struct{}

func (cachedDocument) PageCount() (int, error) {
	return 0, errCacheOnly
}

func (cachedDocument) PageFragments(int) ([]layout.TextFragment, float64, error) {
	return nil, 0, errCacheOnly
}

func (cachedDocument) PageRules(int) ([]layout.RuleSegment, error) {
	return nil, errCacheOnly
}

func (cachedDocument) PageRaster(int, float64) (image.Image, error) {
	return nil, errCacheOnly
}

var errCacheOnly = errors.New("document not opened: result expected from cache")
