package layout

import (
	"sort"
	"strings"
)

// GroupPairs reads a column of short numeric values such as blow counts.
// Values that sit unusually close to the one below them are joined as "a/b";
// the partner may be a "-". Standalone "-" placeholders are kept as-is and
// everything else is dropped.
func GroupPairs(frags []TextFragment, tuning Tuning) []string {
	tuning = tuning.withDefaults()

	var kept, numeric []TextFragment
	for _, f := range frags {
		text := f.Trimmed()
		switch {
		case isNumeric(text):
			kept = append(kept, f)
			numeric = append(numeric, f)
		case text == "-":
			kept = append(kept, f)
		}
	}

	if len(numeric) < 2 {
		out := make([]string, 0, len(kept))
		for _, f := range kept {
			out = append(out, f.Trimmed())
		}
		return out
	}

	threshold := pairThreshold(numeric, tuning)

	var out []string
	var pending []string
	for i, f := range kept {
		text := f.Trimmed()

		if len(pending) > 0 {
			out = append(out, strings.Join(append(pending, text), "/"))
			pending = nil
			continue
		}

		if text == "-" {
			out = append(out, text)
			continue
		}

		if threshold > 0 && i+1 < len(kept) {
			if verticalGap(f, kept[i+1]) <= threshold {
				pending = []string{text}
				continue
			}
		}

		out = append(out, text)
	}

	if len(pending) > 0 {
		out = append(out, strings.Join(pending, "/"))
	}

	return out
}

// pairThreshold picks the largest gap still read as "same pair". Small
// samples fall back to the line height; uniform spacing disables pairing.
func pairThreshold(numeric []TextFragment, tuning Tuning) float64 {
	if len(numeric) < 4 {
		return tuning.PairSmallSampleFactor * numeric[0].Height
	}

	gaps := make([]float64, 0, len(numeric)-1)
	for i := 0; i+1 < len(numeric); i++ {
		gaps = append(gaps, verticalGap(numeric[i], numeric[i+1]))
	}
	sort.Float64s(gaps)

	smallest, largest := gaps[0], gaps[len(gaps)-1]
	if largest-smallest <= smallest*tuning.PairUniformSpread {
		return 0
	}
	return smallest * tuning.PairClusterFactor
}
