package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-pdf-areas/internal/config"
	"github.com/a3tai/mcp-pdf-areas/internal/descriptions"
	"github.com/a3tai/mcp-pdf-areas/internal/extract"
	"github.com/a3tai/mcp-pdf-areas/internal/ocr"
	"github.com/a3tai/mcp-pdf-areas/internal/pdf"
)

const shutdownTimeout = 5 * time.Second

// Document is an open PDF as the tools use it
type Document interface {
	extract.Document
	PageSize(page int) (float64, float64, error)
	Close() error
}

// Opener opens a validated PDF
type Opener func(path string) (Document, error)

// Server represents the MCP server instance
type Server struct {
	config       *config.Config
	paths        *pdf.PathValidator
	validator    *pdf.Validator
	orchestrator *extract.Orchestrator
	open         Opener
	mcpServer    *server.MCPServer
	logger       *log.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	paths, err := pdf.NewPathValidator(cfg.PDFDirectory)
	if err != nil {
		return nil, err
	}

	logger := log.New(os.Stderr, "[MCP] ", log.LstdFlags)

	orchestrator := extract.NewOrchestrator(extract.Options{
		Tuning:      cfg.Tuning(),
		Tolerance:   cfg.Tolerance,
		RasterScale: cfg.OCRScale,
		OCR:         ocr.Factory(ocr.Options{Languages: cfg.OCRLanguages()}),
		Logger:      log.New(os.Stderr, "[Extraction] ", log.LstdFlags),
		Debug:       cfg.IsDebug(),
	})

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{
		config:       cfg,
		paths:        paths,
		validator:    pdf.NewValidator(cfg.MaxFileSize),
		orchestrator: orchestrator,
		mcpServer:    mcpServer,
		logger:       logger,
	}
	s.open = s.openDocument

	s.registerTools()

	return s, nil
}

// openDocument validates and opens a file with the PDF backend
func (s *Server) openDocument(path string) (Document, error) {
	if err := s.validator.Check(path); err != nil {
		return nil, err
	}
	doc, err := pdf.Open(path, log.New(os.Stderr, "[PDF] ", log.LstdFlags))
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractionParams := []mcp.ToolOption{
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file inside the configured directory"),
		),
		mcp.WithString("areas",
			mcp.Required(),
			mcp.Description("JSON array of area definitions"),
		),
		mcp.WithString("excluded_pages",
			mcp.Description("Pages to skip, e.g. '1,5-7'"),
		),
		mcp.WithNumber("render_scale",
			mcp.Description("Rendered pixel size divided by native page size when regions were drawn"),
			mcp.DefaultNumber(1),
		),
		mcp.WithNumber("zoom",
			mcp.Description("Display zoom when regions were drawn"),
			mcp.DefaultNumber(1),
		),
	}

	extractTool := mcp.NewTool("pdf_extract_areas", append([]mcp.ToolOption{
		mcp.WithDescription(descriptions.GetToolDescription("pdf_extract_areas")),
		mcp.WithBoolean("proceed_on_warnings",
			mcp.Description("Continue when pre-flight warnings are raised"),
			mcp.DefaultBool(false),
		),
		mcp.WithBoolean("consolidate",
			mcp.Description("Group page records by the identifier area"),
			mcp.DefaultBool(false),
		),
	}, extractionParams...)...)
	s.mcpServer.AddTool(extractTool, s.handleExtractAreas)

	fingerprintTool := mcp.NewTool("pdf_area_fingerprint", append([]mcp.ToolOption{
		mcp.WithDescription(descriptions.GetToolDescription("pdf_area_fingerprint")),
	}, extractionParams...)...)
	s.mcpServer.AddTool(fingerprintTool, s.handleAreaFingerprint)

	validateTool := mcp.NewTool(
		"pdf_validate_file",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_validate_file")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(validateTool, s.handleValidateFile)

	pageInfoTool := mcp.NewTool(
		"pdf_page_info",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_page_info")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(pageInfoTool, s.handlePageInfo)

	serverInfoTool := mcp.NewTool(
		"pdf_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_server_info")),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		s.logger.Printf("Starting PDF areas MCP server in stdio mode")
		s.logger.Printf("PDF directory: %s", s.config.PDFDirectory)
	}

	if err := server.ServeStdio(s.mcpServer, server.WithErrorLogger(s.logger)); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over SSE until ctx is done
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Serving SSE on %s", addr)
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve SSE: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sse.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down SSE server: %w", err)
		}
		return nil
	}
}
