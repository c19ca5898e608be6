package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeOcrLines(t *testing.T) {
	tests := []struct {
		name  string
		lines []OcrLine
		want  []string
	}{
		{
			name: "overlapping_rows_merge",
			lines: []OcrLine{
				{Text: "Firm grey", Baseline: 20, RowHeight: 12},
				{Text: "clay", Baseline: 30, RowHeight: 12},
				{Text: "Dense sand", Baseline: 60, RowHeight: 12},
			},
			want: []string{"Firm grey clay", "Dense sand"},
		},
		{
			name: "separated_rows_stay_apart",
			lines: []OcrLine{
				{Text: "BH-01", Baseline: 10, RowHeight: 8},
				{Text: "BH-02", Baseline: 40, RowHeight: 8},
			},
			want: []string{"BH-01", "BH-02"},
		},
		{
			name: "touching_rows_do_not_merge",
			lines: []OcrLine{
				{Text: "top", Baseline: 10, RowHeight: 10},
				{Text: "bottom", Baseline: 20, RowHeight: 10},
			},
			want: []string{"top", "bottom"},
		},
		{
			name: "blank_lines_dropped",
			lines: []OcrLine{
				{Text: "  ", Baseline: 10, RowHeight: 8},
				{Text: "value", Baseline: 40, RowHeight: 8},
			},
			want: []string{"value"},
		},
		{
			name: "empty",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeOcrLines(tt.lines))
		})
	}
}
