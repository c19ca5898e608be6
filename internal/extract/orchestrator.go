package extract

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"sync"

	"github.com/a3tai/mcp-pdf-areas/internal/areas"
	"github.com/a3tai/mcp-pdf-areas/internal/layout"
)

// DefaultRasterScale is the pixels per document unit used for OCR snapshots
const DefaultRasterScale = 3.0

// State is the lifecycle stage of the orchestrator
type State int

const (
	StateIdle State = iota
	StateValidating
	StateRunning
	StateCompleted
	StateCancelled
	StateFailed
)

// String returns a string representation of the State
func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Warning is an advisory pre-flight finding
type Warning struct {
	Code    string `json:"code"`
	Area    string `json:"area,omitempty"`
	Message string `json:"message"`
}

const (
	WarningNoRegion     = "area_without_region"
	WarningNoIdentifier = "merge_without_identifier"
)

// Progress is reported after every page
type Progress struct {
	Page   int    `json:"page"`
	Total  int    `json:"total"`
	Status string `json:"status"`
}

// Request describes one extraction run
type Request struct {
	Areas    []areas.Area
	Document Document
	Identity Identity
	Excluded []int
	View     layout.View

	// Confirm decides whether to proceed past pre-flight warnings. A nil
	// Confirm proceeds.
	Confirm func([]Warning) bool
	// Progress receives one observation per page; may be nil
	Progress func(Progress)
}

// Options configures an Orchestrator
type Options struct {
	Tuning      layout.Tuning
	Tolerance   float64
	RasterScale float64
	OCR         OCRFactory
	Logger      *log.Logger
	Debug       bool
}

// Orchestrator runs extractions one at a time and remembers the last result
type Orchestrator struct {
	run     sync.Mutex
	mutex   sync.RWMutex
	state   State
	cache   *Cache
	options Options
	logger  *log.Logger
}

// NewOrchestrator creates an orchestrator with an empty cache
func NewOrchestrator(opts Options) *Orchestrator {
	if opts.Tolerance <= 0 {
		opts.Tolerance = layout.DefaultTolerance
	}
	if opts.RasterScale <= 0 {
		opts.RasterScale = DefaultRasterScale
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[Extraction] ", log.LstdFlags)
	}

	return &Orchestrator{
		cache:   NewCache(),
		options: opts,
		logger:  logger,
	}
}

// State returns the current lifecycle stage
func (o *Orchestrator) State() State {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.state = s
}

// CurrentFingerprint returns the fingerprint of the cached result, if any
func (o *Orchestrator) CurrentFingerprint() (Fingerprint, bool) {
	return o.cache.Current()
}

// Cache exposes the result cache
func (o *Orchestrator) Cache() *Cache {
	return o.cache
}

// Extract runs the page loop for req. On cancellation the records of the
// pages finished before the cancel are returned together with an error
// matching ErrCancelled.
func (o *Orchestrator) Extract(ctx context.Context, req Request) ([]PageRecord, error) {
	o.run.Lock()
	defer o.run.Unlock()

	if req.Document == nil {
		o.setState(StateFailed)
		return nil, &ExtractionError{Kind: KindMissingDocument, Err: ErrMissingDocument}
	}

	if err := areas.Validate(req.Areas); err != nil {
		o.setState(StateFailed)
		return nil, &ExtractionError{Kind: KindInvalidConfiguration, Err: err}
	}

	list := ordered(req.Areas)
	fp := ComputeFingerprint(list, req.Identity, req.Excluded, req.View)
	if records, ok := o.cache.Lookup(fp); ok {
		if o.options.Debug {
			o.logger.Printf("Cache hit for %s", shortFingerprint(fp))
		}
		o.setState(StateIdle)
		return records, nil
	}

	o.setState(StateValidating)
	if warnings := Preflight(list); len(warnings) > 0 {
		for _, w := range warnings {
			o.logger.Printf("Warning: %s", w.Message)
		}
		if req.Confirm != nil && !req.Confirm(warnings) {
			o.setState(StateCancelled)
			return nil, &ExtractionError{Kind: KindCancelledByUser, Err: ErrDeclined}
		}
	}

	o.setState(StateRunning)
	records, err := o.runPages(ctx, req, list)
	if err != nil {
		if KindOf(err) == KindCancelledByUser {
			o.setState(StateCancelled)
			return records, err
		}
		o.setState(StateFailed)
		return nil, err
	}

	o.cache.Store(fp, records)
	o.setState(StateCompleted)
	return records, nil
}

func (o *Orchestrator) runPages(ctx context.Context, req Request, list []areas.Area) ([]PageRecord, error) {
	total, err := req.Document.PageCount()
	if err != nil {
		return nil, &ExtractionError{Kind: KindUnhandledPipeline, Err: fmt.Errorf("counting pages: %w", err)}
	}

	excluded := make(map[int]bool, len(req.Excluded))
	for _, p := range req.Excluded {
		excluded[p] = true
	}

	view := req.View
	if view.RenderScale <= 0 || view.Zoom <= 0 {
		view = layout.DefaultView()
	}

	session := newOCRSession(o.options.OCR)
	defer session.release(o.logger)

	extractor := &PageExtractor{
		doc:         req.Document,
		areas:       list,
		order:       fieldOrder(list),
		view:        view,
		tuning:      o.options.Tuning,
		tolerance:   o.options.Tolerance,
		rasterScale: o.options.RasterScale,
		ocr:         session,
		logger:      o.logger,
		debug:       o.options.Debug,
	}

	records := make([]PageRecord, 0, total)
	for page := 1; page <= total; page++ {
		if excluded[page] {
			report(req.Progress, Progress{Page: page, Total: total, Status: fmt.Sprintf("page %d excluded", page)})
			continue
		}

		if err := ctx.Err(); err != nil {
			return records, &ExtractionError{Kind: KindCancelledByUser, Page: page, Err: err}
		}

		record, keep, err := extractor.ExtractPage(ctx, page)
		if err != nil {
			return nil, err
		}

		// the page overlapped a cancel and is not applied
		if err := ctx.Err(); err != nil {
			return records, &ExtractionError{Kind: KindCancelledByUser, Page: page, Err: err}
		}

		status := fmt.Sprintf("page %d extracted", page)
		if keep {
			records = append(records, *record)
		} else {
			status = fmt.Sprintf("page %d dropped: mandatory field missing", page)
		}
		report(req.Progress, Progress{Page: page, Total: total, Status: status})
	}

	o.logger.Printf("Extracted %d of %d pages", len(records), total)
	return records, nil
}

// Preflight returns the advisory warnings for a configuration
func Preflight(list []areas.Area) []Warning {
	var warnings []Warning
	for _, a := range list {
		if !a.HasRegion() {
			warnings = append(warnings, Warning{
				Code:    WarningNoRegion,
				Area:    a.Name,
				Message: fmt.Sprintf("area %q has no region and will always be empty", a.Name),
			})
		}
	}

	if _, ok := areas.FindByType(list, areas.FieldIdentifier); !ok {
		for _, a := range list {
			if a.Merge {
				warnings = append(warnings, Warning{
					Code:    WarningNoIdentifier,
					Area:    a.Name,
					Message: fmt.Sprintf("area %q merges values per group but no identifier area is defined", a.Name),
				})
				break
			}
		}
	}

	return warnings
}

// ordered returns a copy of list sorted by display order
func ordered(list []areas.Area) []areas.Area {
	out := append([]areas.Area(nil), list...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

func report(sink func(Progress), p Progress) {
	if sink != nil {
		sink(p)
	}
}

func shortFingerprint(fp Fingerprint) string {
	if len(fp) > 12 {
		return string(fp[:12])
	}
	return string(fp)
}

// DiscardLogger is a logger that writes nowhere
func DiscardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
