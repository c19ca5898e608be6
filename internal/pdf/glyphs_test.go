package pdf

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-areas/internal/layout"
)

func glyph(s string, x, y, w float64) pdf.Text {
	return pdf.Text{Font: "Helvetica", FontSize: 12, X: x, Y: y, W: w, S: s}
}

func TestMergeGlyphs(t *testing.T) {
	glyphs := []pdf.Text{
		glyph(" ", 90, 700, 3),
		glyph("S", 100, 700, 5),
		glyph("i", 105, 700, 3),
		glyph(" ", 108, 700, 3),
		glyph("C", 111, 700, 6),
		glyph("x", 125, 700, 5),
		glyph("y", 200, 700, 5),
		glyph("z", 100, 680, 5),
	}

	got := mergeGlyphs(glyphs)
	require.Len(t, got, 3)

	assert.Equal(t, layout.TextFragment{Text: "Si C x", X: 100, Y: 700, Width: 30, Height: 12}, got[0])
	assert.Equal(t, "y", got[1].Text)
	assert.Equal(t, 200.0, got[1].X)
	assert.Equal(t, "z", got[2].Text)
	assert.Equal(t, 680.0, got[2].Y)
}

func TestMergeGlyphs_NormalizesText(t *testing.T) {
	got := mergeGlyphs([]pdf.Text{glyph("Cafe\u0301", 10, 10, 20)})
	require.Len(t, got, 1)
	assert.Equal(t, "Caf\u00e9", got[0].Text)
}

func TestMergeGlyphs_DefaultFontSize(t *testing.T) {
	got := mergeGlyphs([]pdf.Text{{S: "7", X: 10, Y: 10, W: 5}})
	require.Len(t, got, 1)
	assert.Equal(t, defaultFontSize, got[0].Height)
}

func TestMergeGlyphs_OnlyWhitespace(t *testing.T) {
	assert.Empty(t, mergeGlyphs([]pdf.Text{glyph(" ", 10, 10, 3), glyph(" ", 13, 10, 3)}))
}

func TestRulesFromRects(t *testing.T) {
	rects := []pdf.Rect{
		{Min: pdf.Point{X: 10, Y: 100}, Max: pdf.Point{X: 60, Y: 101}},
		{Min: pdf.Point{X: 0, Y: 0}, Max: pdf.Point{X: 100, Y: 50}},
		{Min: pdf.Point{X: 5, Y: 5}, Max: pdf.Point{X: 5.5, Y: 6}},
	}

	got := rulesFromRects(rects)
	assert.Equal(t, []layout.RuleSegment{
		{X1: 10, X2: 60, Y: 100.5},
		{X1: 0, X2: 100, Y: 0},
		{X1: 0, X2: 100, Y: 50},
	}, got)
}
