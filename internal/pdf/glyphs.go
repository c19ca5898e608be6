package pdf

import (
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"

	"github.com/a3tai/mcp-pdf-areas/internal/layout"
)

const (
	defaultFontSize = 12.0

	// wordGapFactor times the font size is the gap that gets a space inserted
	wordGapFactor = 0.2
	// runBreakFactor times the font size is the gap that starts a new fragment
	runBreakFactor = 1.0
	// baselineFactor times the font size is the baseline drift still on the same line
	baselineFactor = 0.3
)

// run is a fragment under construction
type run struct {
	text   strings.Builder
	x, y   float64
	right  float64
	height float64
}

func newRun(g pdf.Text, size float64) *run {
	r := &run{x: g.X, y: g.Y, right: g.X, height: size}
	r.add(g, size)
	return r
}

func (r *run) accepts(g pdf.Text, size float64) bool {
	if math.Abs(g.Y-r.y) > baselineFactor*size {
		return false
	}
	gap := g.X - r.right
	return gap >= -wordGapFactor*size && gap <= runBreakFactor*size
}

func (r *run) add(g pdf.Text, size float64) {
	if strings.TrimSpace(g.S) == "" {
		r.space()
	} else {
		if g.X-r.right > wordGapFactor*size && r.text.Len() > 0 {
			r.space()
		}
		r.text.WriteString(g.S)
	}
	r.right = math.Max(r.right, g.X+g.W)
	r.height = math.Max(r.height, size)
}

func (r *run) space() {
	s := r.text.String()
	if s != "" && !strings.HasSuffix(s, " ") {
		r.text.WriteByte(' ')
	}
}

func (r *run) fragment() layout.TextFragment {
	return layout.TextFragment{
		Text:   norm.NFC.String(strings.TrimSpace(r.text.String())),
		X:      r.x,
		Y:      r.y,
		Width:  r.right - r.x,
		Height: r.height,
	}
}

// mergeGlyphs joins the per-glyph output of the text layer into positioned
// runs, one per word group on a line
func mergeGlyphs(glyphs []pdf.Text) []layout.TextFragment {
	var out []layout.TextFragment
	var cur *run

	flush := func() {
		if cur == nil {
			return
		}
		if f := cur.fragment(); f.Text != "" {
			out = append(out, f)
		}
		cur = nil
	}

	for _, g := range glyphs {
		size := g.FontSize
		if size <= 0 {
			size = defaultFontSize
		}

		if cur != nil && cur.accepts(g, size) {
			cur.add(g, size)
			continue
		}

		flush()
		if strings.TrimSpace(g.S) == "" {
			continue
		}
		cur = newRun(g, size)
	}
	flush()

	return out
}

const (
	// maxRuleThickness is the tallest rectangle read as a drawn line
	maxRuleThickness = 2.0
	minRuleLength    = 1.0
)

// rulesFromRects reads horizontal rules from the rectangles of a page:
// thin rectangles are lines themselves, larger ones contribute their top
// and bottom edges
func rulesFromRects(rects []pdf.Rect) []layout.RuleSegment {
	var rules []layout.RuleSegment
	for _, r := range rects {
		x1, x2 := math.Min(r.Min.X, r.Max.X), math.Max(r.Min.X, r.Max.X)
		y1, y2 := math.Min(r.Min.Y, r.Max.Y), math.Max(r.Min.Y, r.Max.Y)
		if x2-x1 < minRuleLength {
			continue
		}

		if y2-y1 <= maxRuleThickness {
			rules = append(rules, layout.RuleSegment{X1: x1, X2: x2, Y: (y1 + y2) / 2})
			continue
		}
		rules = append(rules,
			layout.RuleSegment{X1: x1, X2: x2, Y: y1},
			layout.RuleSegment{X1: x1, X2: x2, Y: y2},
		)
	}
	return rules
}
