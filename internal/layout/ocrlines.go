package layout

import "strings"

// MergeOcrLines groups recognized lines into logical values. A line joins the
// previous block while the next baseline is within the current row height.
func MergeOcrLines(lines []OcrLine) []string {
	var out []string
	var block []string

	for i, line := range lines {
		text := strings.TrimSpace(line.Text)
		if text != "" {
			block = append(block, text)
		}

		if i+1 < len(lines) && line.Baseline+line.RowHeight > lines[i+1].Baseline {
			continue
		}

		if len(block) > 0 {
			out = append(out, strings.Join(block, " "))
			block = nil
		}
	}

	return out
}
