package extract

import (
	"context"
	"fmt"
	"image"
	"time"

	"golang.org/x/image/draw"

	"github.com/a3tai/mcp-pdf-areas/internal/layout"
)

// Document is the rendering backend a run reads pages from. Page numbers are 1-based.
type Document interface {
	PageCount() (int, error)
	// PageFragments returns the positioned text of a page and the page height in document units
	PageFragments(page int) ([]layout.TextFragment, float64, error)
	PageRules(page int) ([]layout.RuleSegment, error)
	// PageRaster returns a snapshot of the page at scale pixels per document unit
	PageRaster(page int, scale float64) (image.Image, error)
}

// OCREngine recognizes text lines in a raster crop
type OCREngine interface {
	Recognize(ctx context.Context, img image.Image) ([]layout.OcrLine, error)
	Close() error
}

// OCRFactory creates an engine; a run calls it at most once
type OCRFactory func() (OCREngine, error)

// Identity describes a document for cache fingerprinting. ContentHash is only
// set when content hashing is enabled.
type Identity struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"mod_time"`
	MediaType   string    `json:"media_type"`
	ContentHash string    `json:"content_hash,omitempty"`
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Crop returns the part of img inside r, where r is relative to the image origin
func Crop(img image.Image, r image.Rectangle) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("no raster to crop")
	}

	bounds := img.Bounds()
	r = r.Add(bounds.Min).Intersect(bounds)
	if r.Empty() {
		return nil, fmt.Errorf("crop %v lies outside raster %v", r, bounds)
	}

	if si, ok := img.(subImager); ok {
		return si.SubImage(r), nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst, nil
}
