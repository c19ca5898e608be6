package extract

import (
	"context"
	"fmt"
	"image"
	"log"
	"runtime/debug"

	"github.com/a3tai/mcp-pdf-areas/internal/areas"
	"github.com/a3tai/mcp-pdf-areas/internal/layout"
)

// PageExtractor resolves every area on a single page
type PageExtractor struct {
	doc         Document
	areas       []areas.Area
	order       []string
	view        layout.View
	tuning      layout.Tuning
	tolerance   float64
	rasterScale float64
	ocr         *ocrSession
	logger      *log.Logger
	debug       bool
}

// vectorInput is the text layer of a page, loaded on first use
type vectorInput struct {
	frags  []layout.TextFragment
	rules  []layout.RuleSegment
	height float64
}

// ExtractPage builds the record for page. The boolean is false when a
// mandatory area came back empty and the page must be dropped.
func (p *PageExtractor) ExtractPage(ctx context.Context, page int) (*PageRecord, bool, error) {
	record := newPageRecord(page, p.order)

	var vec *vectorInput
	var raster image.Image
	var rasterErr error
	rasterLoaded := false

	for _, a := range p.areas {
		if !a.HasRegion() {
			record.Set(a.Name, nil)
			continue
		}

		if a.OCR {
			if !rasterLoaded {
				raster, rasterErr = p.doc.PageRaster(page, p.rasterScale)
				rasterLoaded = true
			}
			record.Set(a.Name, p.ocrArea(ctx, page, a, raster, rasterErr))
			continue
		}

		if vec == nil {
			loaded, err := p.loadVector(page)
			if err != nil {
				return nil, false, &ExtractionError{Kind: KindUnhandledPipeline, Page: page, Area: a.Name, Err: err}
			}
			vec = loaded
		}
		record.Set(a.Name, p.vectorArea(a, vec))
	}

	for _, a := range p.areas {
		if a.Mandatory && len(record.Values[a.Name]) == 0 {
			if p.debug {
				p.logger.Printf("Dropping page %d: mandatory area %q is empty", page, a.Name)
			}
			return record, false, nil
		}
	}

	return record, true, nil
}

func (p *PageExtractor) loadVector(page int) (*vectorInput, error) {
	frags, height, err := p.doc.PageFragments(page)
	if err != nil {
		return nil, fmt.Errorf("reading text of page %d: %w", page, err)
	}
	rules, err := p.doc.PageRules(page)
	if err != nil {
		return nil, fmt.Errorf("reading rules of page %d: %w", page, err)
	}
	return &vectorInput{frags: frags, rules: rules, height: height}, nil
}

func (p *PageExtractor) vectorArea(a areas.Area, vec *vectorInput) []string {
	rect := layout.MapToDocument(layout.Rect(*a.Region), p.view, vec.height)
	frags := layout.FilterFragments(vec.frags, rect, p.tolerance)
	layout.SortTopToBottom(frags)

	if a.Type == areas.FieldCountPair {
		return layout.GroupPairs(frags, p.tuning)
	}
	return layout.ReconstructLines(frags, vec.rules, p.tuning)
}

// ocrArea never fails the page: any error or panic is logged and the area
// resolves to no values
func (p *PageExtractor) ocrArea(ctx context.Context, page int, a areas.Area, raster image.Image, rasterErr error) (values []string) {
	defer func() {
		if r := recover(); r != nil {
			p.logFailure(&ExtractionError{
				Kind: KindPageProcessing,
				Page: page,
				Area: a.Name,
				Err:  fmt.Errorf("ocr panicked: %v", r),
			})
			if p.debug {
				p.logger.Printf("Stack trace: %s", debug.Stack())
			}
			values = nil
		}
	}()

	fail := func(err error) []string {
		p.logFailure(&ExtractionError{Kind: KindPageProcessing, Page: page, Area: a.Name, Err: err})
		return nil
	}

	if rasterErr != nil {
		return fail(fmt.Errorf("rendering page: %w", rasterErr))
	}

	engine, err := p.ocr.engine()
	if err != nil {
		return fail(err)
	}

	crop, err := Crop(raster, layout.MapToRaster(layout.Rect(*a.Region), p.view, p.rasterScale))
	if err != nil {
		return fail(err)
	}

	lines, err := engine.Recognize(ctx, crop)
	if err != nil {
		return fail(err)
	}

	return layout.MergeOcrLines(lines)
}

func (p *PageExtractor) logFailure(err error) {
	p.logger.Printf("Warning: %v", err)
}

// ocrSession acquires the engine lazily and releases it once at run end
type ocrSession struct {
	factory  OCRFactory
	current  OCREngine
	err      error
	acquired bool
}

func newOCRSession(factory OCRFactory) *ocrSession {
	return &ocrSession{factory: factory}
}

func (s *ocrSession) engine() (OCREngine, error) {
	if !s.acquired {
		s.acquired = true
		if s.factory == nil {
			s.err = fmt.Errorf("no OCR engine configured")
		} else {
			s.current, s.err = s.factory()
		}
	}
	return s.current, s.err
}

func (s *ocrSession) release(logger *log.Logger) {
	if s.current == nil {
		return
	}
	if err := s.current.Close(); err != nil {
		logger.Printf("Warning: failed to release OCR engine: %v", err)
	}
	s.current = nil
}
