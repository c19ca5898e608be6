package mcp

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/a3tai/mcp-pdf-areas/internal/config"
	"github.com/a3tai/mcp-pdf-areas/internal/layout"
)

const testPageHeight = 800

// fragment placed inside the display region {0,0,200,100} of an 800 unit page
func topFragment(text string) layout.TextFragment {
	return layout.TextFragment{Text: text, X: 10, Y: 760, Width: 50, Height: 10}
}

// fragment placed inside the display region {0,200,200,100}
func middleFragment(text string) layout.TextFragment {
	return layout.TextFragment{Text: text, X: 10, Y: 550, Width: 50, Height: 10}
}

const holeAreas = `[
	{"name": "Hole", "type": "identifier", "mandatory": true,
	 "region": {"x": 0, "y": 0, "width": 200, "height": 100}},
	{"name": "Description", "type": "description",
	 "region": {"x": 0, "y": 200, "width": 200, "height": 100}}
]`

type fakeDocument struct {
	mutex         sync.Mutex
	pages         [][]layout.TextFragment
	fragmentCalls int
	closed        bool
}

func (d *fakeDocument) PageCount() (int, error) {
	return len(d.pages), nil
}

func (d *fakeDocument) PageFragments(page int) ([]layout.TextFragment, float64, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.fragmentCalls++
	return d.pages[page-1], testPageHeight, nil
}

func (d *fakeDocument) PageRules(int) ([]layout.RuleSegment, error) {
	return nil, nil
}

func (d *fakeDocument) PageRaster(int, float64) (image.Image, error) {
	return nil, fmt.Errorf("no raster in fake document")
}

func (d *fakeDocument) PageSize(page int) (float64, float64, error) {
	if page < 1 || page > len(d.pages) {
		return 0, 0, fmt.Errorf("page %d out of range", page)
	}
	return 600, testPageHeight, nil
}

func (d *fakeDocument) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.closed = true
	return nil
}

// testServer builds a server over a temp directory holding an empty log.pdf.
// Opening any file returns doc; opens counts the calls.
func testServer(t *testing.T, doc *fakeDocument) (*Server, *int) {
	t.Helper()

	tempDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tempDir, "log.pdf"), []byte("%PDF-1.4 placeholder"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.PDFDirectory = tempDir
	cfg.ServerName = "test-server"

	s, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	opens := 0
	s.open = func(string) (Document, error) {
		opens++
		return doc, nil
	}
	return s, &opens
}

func toolRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// Helper function to extract text from a CallToolResult
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}

	return ""
}
