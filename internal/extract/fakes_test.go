package extract

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/a3tai/mcp-pdf-areas/internal/areas"
	"github.com/a3tai/mcp-pdf-areas/internal/layout"
)

const testPageHeight = 800

// Display-space regions and matching document-space fragment positions for
// an unscaled view on an 800 unit tall page.
var (
	topRegion    = &areas.Rect{X: 0, Y: 0, Width: 200, Height: 100}
	middleRegion = &areas.Rect{X: 0, Y: 200, Width: 200, Height: 100}
)

func inTop(text string) layout.TextFragment {
	return layout.TextFragment{Text: text, X: 10, Y: 760, Width: 50, Height: 10}
}

func inMiddle(text string) layout.TextFragment {
	return layout.TextFragment{Text: text, X: 10, Y: 550, Width: 50, Height: 10}
}

func outside(text string) layout.TextFragment {
	return layout.TextFragment{Text: text, X: 10, Y: 300, Width: 50, Height: 10}
}

type fakePage struct {
	frags     []layout.TextFragment
	rules     []layout.RuleSegment
	textErr   error
	rasterErr error
}

type fakeDocument struct {
	mutex         sync.Mutex
	pages         []fakePage
	countErr      error
	fragmentCalls map[int]int
	ruleCalls     map[int]int
	rasterCalls   map[int]int
	onFragments   func(page int)
}

func newFakeDocument(pages ...fakePage) *fakeDocument {
	return &fakeDocument{
		pages:         pages,
		fragmentCalls: make(map[int]int),
		ruleCalls:     make(map[int]int),
		rasterCalls:   make(map[int]int),
	}
}

func (d *fakeDocument) PageCount() (int, error) {
	return len(d.pages), d.countErr
}

func (d *fakeDocument) PageFragments(page int) ([]layout.TextFragment, float64, error) {
	d.mutex.Lock()
	d.fragmentCalls[page]++
	hook := d.onFragments
	d.mutex.Unlock()

	if hook != nil {
		hook(page)
	}
	p := d.pages[page-1]
	return p.frags, testPageHeight, p.textErr
}

func (d *fakeDocument) PageRules(page int) ([]layout.RuleSegment, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.ruleCalls[page]++
	return d.pages[page-1].rules, nil
}

func (d *fakeDocument) PageRaster(page int, scale float64) (image.Image, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.rasterCalls[page]++
	if err := d.pages[page-1].rasterErr; err != nil {
		return nil, err
	}
	size := int(200 * scale)
	return image.NewRGBA(image.Rect(0, 0, size, int(testPageHeight*scale))), nil
}

// totalCalls counts every backend call touching page
func (d *fakeDocument) totalCalls(page int) int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.fragmentCalls[page] + d.ruleCalls[page] + d.rasterCalls[page]
}

type fakeOCR struct {
	calls     int
	closed    int
	recognize func(call int, img image.Image) ([]layout.OcrLine, error)
}

func (f *fakeOCR) Recognize(_ context.Context, img image.Image) ([]layout.OcrLine, error) {
	f.calls++
	if f.recognize == nil {
		return nil, nil
	}
	return f.recognize(f.calls, img)
}

func (f *fakeOCR) Close() error {
	f.closed++
	return nil
}

type ocrFactoryCounter struct {
	engine  *fakeOCR
	created int
	err     error
}

func (c *ocrFactoryCounter) factory() OCRFactory {
	return func() (OCREngine, error) {
		c.created++
		if c.err != nil {
			return nil, c.err
		}
		return c.engine, nil
	}
}

func holeArea() areas.Area {
	return areas.Area{Name: "Hole", Order: 1, Type: areas.FieldIdentifier, Region: topRegion, Mandatory: true}
}

func descriptionArea() areas.Area {
	return areas.Area{Name: "Description", Order: 2, Type: areas.FieldDescription, Region: middleRegion}
}

func testOrchestrator(opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = DiscardLogger()
	}
	return NewOrchestrator(opts)
}

func pagesOf(records []PageRecord) []int {
	var out []int
	for _, r := range records {
		out = append(out, r.Pages...)
	}
	return out
}

var errBoom = fmt.Errorf("boom")
