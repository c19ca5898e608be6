package layout

import (
	"image"
	"math"
	"sort"
	"strings"
)

// DefaultTolerance is how far, in document units, a fragment may overhang a
// region and still be selected
const DefaultTolerance = 2.0

// Rect is an axis-aligned rectangle
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the right edge
func (r Rect) Right() float64 {
	return r.X + r.Width
}

// Top returns the upper edge in document space
func (r Rect) Top() float64 {
	return r.Y + r.Height
}

// View describes how the selection surface was displayed when regions were drawn
type View struct {
	// RenderScale is rendered pixel size divided by native document size
	RenderScale float64 `json:"render_scale"`
	// Zoom is the display zoom factor applied on top of the render
	Zoom float64 `json:"zoom"`
}

// DefaultView is an unscaled, unzoomed display
func DefaultView() View {
	return View{RenderScale: 1, Zoom: 1}
}

// factor converts display units into document units
func (v View) factor() float64 {
	if v.RenderScale == 0 {
		return v.Zoom
	}
	return v.Zoom / v.RenderScale
}

// TextFragment is a positioned run of text in document space
type TextFragment struct {
	Text   string  `json:"text"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Trimmed returns the fragment text without surrounding whitespace
func (f TextFragment) Trimmed() string {
	return strings.TrimSpace(f.Text)
}

// RuleSegment is a horizontal line from the page's vector graphics
type RuleSegment struct {
	X1 float64 `json:"x1"`
	X2 float64 `json:"x2"`
	Y  float64 `json:"y"`
}

// Length returns the horizontal extent of the segment
func (s RuleSegment) Length() float64 {
	return math.Abs(s.X2 - s.X1)
}

// overlapsX reports whether the segment shares any horizontal extent with [left, right]
func (s RuleSegment) overlapsX(left, right float64) bool {
	lo, hi := math.Min(s.X1, s.X2), math.Max(s.X1, s.X2)
	return lo <= right && hi >= left
}

// OcrLine is one recognized text line in raster pixel space
type OcrLine struct {
	Text      string  `json:"text"`
	Baseline  float64 `json:"baseline"`
	RowHeight float64 `json:"row_height"`
}

// MapToDocument converts a display-space rectangle into document space,
// flipping the vertical axis
func MapToDocument(r Rect, v View, pageHeight float64) Rect {
	f := v.factor()
	height := r.Height * f
	return Rect{
		X:      r.X * f,
		Y:      pageHeight - r.Y*f - height,
		Width:  r.Width * f,
		Height: height,
	}
}

// MapToRaster converts a display-space rectangle into pixel coordinates of a
// raster rendered at rasterScale pixels per document unit
func MapToRaster(r Rect, v View, rasterScale float64) image.Rectangle {
	f := v.factor() * rasterScale
	x0 := int(math.Floor(r.X * f))
	y0 := int(math.Floor(r.Y * f))
	x1 := int(math.Ceil((r.X + r.Width) * f))
	y1 := int(math.Ceil((r.Y + r.Height) * f))
	return image.Rect(x0, y0, x1, y1)
}

// FilterFragments returns the fragments whose whole box lies inside rect
// widened by tol on every side
func FilterFragments(frags []TextFragment, rect Rect, tol float64) []TextFragment {
	left, right := rect.X-tol, rect.Right()+tol
	bottom, top := rect.Y-tol, rect.Top()+tol

	var out []TextFragment
	for _, f := range frags {
		if f.X < left || f.X+f.Width > right {
			continue
		}
		if f.Y < bottom || f.Y+f.Height > top {
			continue
		}
		out = append(out, f)
	}
	return out
}

// SortTopToBottom orders fragments in reading order: highest first, then left to right
func SortTopToBottom(frags []TextFragment) {
	sort.SliceStable(frags, func(i, j int) bool {
		if frags[i].Y != frags[j].Y {
			return frags[i].Y > frags[j].Y
		}
		return frags[i].X < frags[j].X
	})
}

// verticalGap is the distance between two consecutive fragments
func verticalGap(a, b TextFragment) float64 {
	return math.Abs(a.Y - b.Y)
}

// isNumeric reports whether s is a non-empty run of ASCII digits
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
