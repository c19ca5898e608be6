package layout

import (
	"math"
	"strings"
)

// stripMargin is the share of a fragment's width ignored on each side when
// probing for rules underneath it
const stripMargin = 0.2

type lineMode int

const (
	modeIdle lineMode = iota
	modeBuffering
	modePairPending
)

func (m lineMode) String() string {
	switch m {
	case modeBuffering:
		return "buffering"
	case modePairPending:
		return "pair-pending"
	default:
		return "idle"
	}
}

// lineState accumulates fragments that belong to the same logical value
type lineState struct {
	mode   lineMode
	buffer []string
	out    []string
}

// push buffers a fragment that continues onto the next line
func (s *lineState) push(text string) {
	s.buffer = append(s.buffer, text)
	s.mode = modeBuffering
}

// pushPair buffers the upper half of a pair notation
func (s *lineState) pushPair(text string) {
	s.buffer = append(s.buffer, text)
	s.mode = modePairPending
}

// flushWith emits the buffer plus text joined by sep
func (s *lineState) flushWith(text, sep string) {
	parts := append(s.buffer, text)
	s.out = append(s.out, strings.Join(parts, sep))
	s.reset()
}

// emit closes the current value with text, joining any buffered lines with a space
func (s *lineState) emit(text string) {
	if len(s.buffer) > 0 {
		s.flushWith(text, " ")
		return
	}
	s.out = append(s.out, text)
}

// finish flushes whatever is still buffered and returns all values
func (s *lineState) finish() []string {
	if len(s.buffer) > 0 {
		s.out = append(s.out, strings.Join(s.buffer, " "))
		s.reset()
	}
	return s.out
}

func (s *lineState) reset() {
	s.buffer = nil
	s.mode = modeIdle
}

// ReconstructLines merges fragments sorted top to bottom into logical values.
// Consecutive lines closer than LineFactor times the line height are joined
// with a space unless a rule separates them; two numbers stacked over a short
// rule are joined as "a/b".
func ReconstructLines(frags []TextFragment, rules []RuleSegment, tuning Tuning) []string {
	tuning = tuning.withDefaults()

	items := make([]TextFragment, 0, len(frags))
	for _, f := range frags {
		if f.Trimmed() != "" {
			items = append(items, f)
		}
	}

	s := &lineState{}
	for i, f := range items {
		text := f.Trimmed()

		if s.mode == modePairPending {
			s.flushWith(text, "/")
			continue
		}

		if i == len(items)-1 {
			s.emit(text)
			continue
		}

		next := items[i+1]
		gap := verticalGap(f, next)
		threshold := tuning.LineFactor * f.Height

		if gap <= threshold && !ruleCrossesStrip(f, gap, rules) {
			s.push(text)
			continue
		}

		if gap <= threshold && len(s.buffer) <= 1 &&
			isNumeric(text) && isNumeric(next.Trimmed()) &&
			shortRuleBelow(f, gap, rules, tuning.ShortRuleMax) {
			s.pushPair(text)
			continue
		}

		s.emit(text)
	}

	return s.finish()
}

// ruleCrossesStrip reports whether any rule passes through the thin band just
// below f: the central 60% of its width, min(gap, height/2) deep
func ruleCrossesStrip(f TextFragment, gap float64, rules []RuleSegment) bool {
	left := f.X + f.Width*stripMargin
	right := f.X + f.Width*(1-stripMargin)
	bottom := f.Y - math.Min(gap, f.Height/2)

	for _, r := range rules {
		if r.Y >= bottom && r.Y <= f.Y && r.overlapsX(left, right) {
			return true
		}
	}
	return false
}

// shortRuleBelow reports whether a fraction-bar sized rule sits between f and
// the following line
func shortRuleBelow(f TextFragment, gap float64, rules []RuleSegment, maxLen float64) bool {
	for _, r := range rules {
		if r.Length() > maxLen {
			continue
		}
		if r.Y <= f.Y && r.Y >= f.Y-gap && r.overlapsX(f.X, f.X+f.Width) {
			return true
		}
	}
	return false
}
