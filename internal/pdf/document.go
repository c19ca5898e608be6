package pdf

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/mcp-pdf-areas/internal/layout"
)

// Document is an opened PDF. Text and rectangles are read with
// ledongthuc/pdf; page sizes and embedded scans come from pdfcpu.
type Document struct {
	path   string
	reader *pdf.Reader
	ctx    *model.Context
	dims   []types.Dim
	logger *log.Logger

	mutex       sync.Mutex
	closed      bool
	cachedPage  int
	cachedFrags []layout.TextFragment
	cachedRules []layout.RuleSegment
}

// Open reads the file at path. A file pdfcpu cannot process still opens:
// page sizes then come from the MediaBox and rasters are unavailable.
func Open(path string, logger *log.Logger) (doc *Document, err error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[PDF] ", log.LstdFlags)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &BackendError{Op: "open", Err: err}
	}

	defer recoverInto(&err, "open", 0)

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &BackendError{Op: "open", Err: fmt.Errorf("failed to parse PDF: %w", err)}
	}

	doc = &Document{path: path, reader: reader, logger: logger}

	if err := doc.loadGeometry(data); err != nil {
		logger.Printf("Warning: pdfcpu could not read %s, falling back to MediaBox sizes: %v", path, err)
		doc.ctx = nil
		doc.dims = nil
	}

	return doc, nil
}

func (d *Document) loadGeometry(data []byte) (err error) {
	defer recoverInto(&err, "geometry", 0)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return err
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return err
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return err
	}

	d.ctx = ctx
	d.dims = dims
	return nil
}

// Path returns the file the document was opened from
func (d *Document) Path() string {
	return d.path
}

// PageCount returns the number of pages
func (d *Document) PageCount() (int, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.closed {
		return 0, &BackendError{Op: "page_count", Err: ErrClosed}
	}
	return d.reader.NumPage(), nil
}

// PageSize returns the width and height of a page in document units
func (d *Document) PageSize(page int) (float64, float64, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if err := d.checkPage("page_size", page); err != nil {
		return 0, 0, err
	}
	return d.pageSize(page)
}

// PageFragments returns the positioned text runs of a page and its height
func (d *Document) PageFragments(page int) ([]layout.TextFragment, float64, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if err := d.checkPage("fragments", page); err != nil {
		return nil, 0, err
	}
	if err := d.loadContent(page); err != nil {
		return nil, 0, err
	}

	_, height, err := d.pageSize(page)
	if err != nil {
		return nil, 0, err
	}
	return d.cachedFrags, height, nil
}

// PageRules returns the horizontal rules drawn on a page
func (d *Document) PageRules(page int) ([]layout.RuleSegment, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if err := d.checkPage("rules", page); err != nil {
		return nil, err
	}
	if err := d.loadContent(page); err != nil {
		return nil, err
	}
	return d.cachedRules, nil
}

// Close releases the parsed document
func (d *Document) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.closed = true
	d.reader = nil
	d.ctx = nil
	d.cachedFrags = nil
	d.cachedRules = nil
	return nil
}

func (d *Document) checkPage(op string, page int) error {
	if d.closed {
		return &BackendError{Op: op, Page: page, Err: ErrClosed}
	}
	if page < 1 || page > d.reader.NumPage() {
		return &BackendError{Op: op, Page: page, Err: fmt.Errorf("%w %d (document has %d pages)", ErrInvalidPage, page, d.reader.NumPage())}
	}
	return nil
}

// loadContent parses one page's content stream; the last page parsed is kept
// so fragments and rules of the same page share one parse
func (d *Document) loadContent(page int) (err error) {
	if d.cachedPage == page {
		return nil
	}

	defer recoverInto(&err, "content", page)

	p := d.reader.Page(page)
	if p.V.IsNull() {
		return &BackendError{Op: "content", Page: page, Err: fmt.Errorf("page object missing")}
	}

	content := p.Content()
	d.cachedFrags = mergeGlyphs(content.Text)
	d.cachedRules = rulesFromRects(content.Rect)
	d.cachedPage = page
	return nil
}

func (d *Document) pageSize(page int) (float64, float64, error) {
	if page <= len(d.dims) {
		dim := d.dims[page-1]
		return dim.Width, dim.Height, nil
	}
	return mediaBoxSize(d.reader.Page(page))
}

// mediaBoxSize reads the page size straight from the page dictionary or its parent
func mediaBoxSize(p pdf.Page) (w float64, h float64, err error) {
	defer recoverInto(&err, "media_box", 0)

	box := p.V.Key("MediaBox")
	if box.IsNull() {
		box = p.V.Key("Parent").Key("MediaBox")
	}
	if box.Len() != 4 {
		return 0, 0, &BackendError{Op: "media_box", Err: fmt.Errorf("page has no MediaBox")}
	}

	w = box.Index(2).Float64() - box.Index(0).Float64()
	h = box.Index(3).Float64() - box.Index(1).Float64()
	return w, h, nil
}
