package pdf

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// PageRaster returns the page's scanned image resized to scale pixels per
// document unit. Pages are not rendered: only the largest embedded image is
// used, which is what scanned logs consist of.
func (d *Document) PageRaster(page int, scale float64) (img image.Image, err error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if err := d.checkPage("raster", page); err != nil {
		return nil, err
	}
	if d.ctx == nil {
		return nil, &BackendError{Op: "raster", Page: page, Err: fmt.Errorf("%w: document could not be indexed", ErrNoRaster)}
	}
	if scale <= 0 {
		scale = 1
	}

	defer recoverInto(&err, "raster", page)

	images, err := pdfcpu.ExtractPageImages(d.ctx, page, false)
	if err != nil {
		return nil, &BackendError{Op: "raster", Page: page, Err: err}
	}

	largest, ok := largestImage(images)
	if !ok {
		return nil, &BackendError{Op: "raster", Page: page, Err: ErrNoRaster}
	}

	src, err := decodeImage(largest)
	if err != nil {
		return nil, &BackendError{Op: "raster", Page: page, Err: err}
	}

	width, height, err := d.pageSize(page)
	if err != nil {
		return nil, err
	}

	return scaleImage(src, int(math.Round(width*scale)), int(math.Round(height*scale))), nil
}

func largestImage(images map[int]model.Image) (model.Image, bool) {
	var best model.Image
	found := false
	for _, img := range images {
		if !found || img.Width*img.Height > best.Width*best.Height {
			best = img
			found = true
		}
	}
	return best, found
}

func decodeImage(img model.Image) (image.Image, error) {
	if img.Reader == nil {
		return nil, fmt.Errorf("image %s has no data", img.Name)
	}

	switch strings.ToLower(img.FileType) {
	case "png":
		return png.Decode(img)
	case "jpg", "jpeg":
		return jpeg.Decode(img)
	case "tif", "tiff":
		return tiff.Decode(img)
	default:
		decoded, _, err := image.Decode(img)
		if err != nil {
			return nil, fmt.Errorf("unsupported image type %q: %w", img.FileType, err)
		}
		return decoded, nil
	}
}

// scaleImage resizes src to w×h pixels with its origin at (0, 0)
func scaleImage(src image.Image, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return src
	}
	b := src.Bounds()
	if b.Min == (image.Point{}) && b.Dx() == w && b.Dy() == h {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
