// Package ocr recognizes text lines in page scans with Tesseract.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sort"

	"github.com/otiai10/gosseract/v2"

	"github.com/a3tai/mcp-pdf-areas/internal/extract"
	"github.com/a3tai/mcp-pdf-areas/internal/layout"
)

// DefaultRowFactor scales a line's box height to the row pitch tesseract reports
const DefaultRowFactor = 1.5

// Options configures the engine
type Options struct {
	Languages []string
	// RowFactor times a line box height is used as its row height
	RowFactor float64
	// MinConfidence drops lines recognized below it (0-100)
	MinConfidence float64
}

// Engine wraps one gosseract client; it is not safe for concurrent use
type Engine struct {
	client *gosseract.Client
	opts   Options
}

// New creates an engine with a fresh tesseract client
func New(opts Options) (*Engine, error) {
	if opts.RowFactor <= 0 {
		opts.RowFactor = DefaultRowFactor
	}

	client := gosseract.NewClient()
	if len(opts.Languages) > 0 {
		if err := client.SetLanguage(opts.Languages...); err != nil {
			client.Close()
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		client.Close()
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}

	return &Engine{client: client, opts: opts}, nil
}

// Factory returns an OCRFactory creating engines with opts
func Factory(opts Options) extract.OCRFactory {
	return func() (extract.OCREngine, error) {
		engine, err := New(opts)
		if err != nil {
			return nil, err
		}
		return engine, nil
	}
}

// Recognize returns the text lines of img in top-to-bottom order
func (e *Engine) Recognize(ctx context.Context, img image.Image) ([]layout.OcrLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := encodePNG(img)
	if err != nil {
		return nil, err
	}
	if err := e.client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognize lines: %w", err)
	}

	return linesFromBoxes(boxes, e.opts), nil
}

// Close releases the tesseract client
func (e *Engine) Close() error {
	return e.client.Close()
}

func linesFromBoxes(boxes []gosseract.BoundingBox, opts Options) []layout.OcrLine {
	kept := make([]gosseract.BoundingBox, 0, len(boxes))
	for _, b := range boxes {
		if b.Confidence < opts.MinConfidence {
			continue
		}
		kept = append(kept, b)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Box.Max.Y < kept[j].Box.Max.Y
	})

	rowFactor := opts.RowFactor
	if rowFactor <= 0 {
		rowFactor = DefaultRowFactor
	}

	lines := make([]layout.OcrLine, 0, len(kept))
	for _, b := range kept {
		lines = append(lines, layout.OcrLine{
			Text:      b.Word,
			Baseline:  float64(b.Box.Max.Y),
			RowHeight: float64(b.Box.Dy()) * rowFactor,
		})
	}
	return lines
}

func encodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("no image to recognize")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
