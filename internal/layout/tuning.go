package layout

// Tuning holds the empirically chosen constants behind the reconstruction
// heuristics
type Tuning struct {
	// LineFactor times a fragment's height is the largest gap still read as a wrapped line
	LineFactor float64 `json:"line_factor"`
	// ShortRuleMax is the longest rule, in document units, treated as a fraction bar
	ShortRuleMax float64 `json:"short_rule_max"`
	// PairSmallSampleFactor times the fragment height is the pairing threshold for fewer than 4 values
	PairSmallSampleFactor float64 `json:"pair_small_sample_factor"`
	// PairUniformSpread bounds the gap spread, relative to the smallest gap, below which gaps count as uniform
	PairUniformSpread float64 `json:"pair_uniform_spread"`
	// PairClusterFactor times the smallest gap is the pairing threshold otherwise
	PairClusterFactor float64 `json:"pair_cluster_factor"`
}

// DefaultTuning returns the constants the heuristics were tuned with
func DefaultTuning() Tuning {
	return Tuning{
		LineFactor:            1.5,
		ShortRuleMax:          15,
		PairSmallSampleFactor: 1.2,
		PairUniformSpread:     1.2,
		PairClusterFactor:     1.1,
	}
}

// withDefaults fills zero fields from DefaultTuning
func (t Tuning) withDefaults() Tuning {
	d := DefaultTuning()
	if t.LineFactor <= 0 {
		t.LineFactor = d.LineFactor
	}
	if t.ShortRuleMax <= 0 {
		t.ShortRuleMax = d.ShortRuleMax
	}
	if t.PairSmallSampleFactor <= 0 {
		t.PairSmallSampleFactor = d.PairSmallSampleFactor
	}
	if t.PairUniformSpread <= 0 {
		t.PairUniformSpread = d.PairUniformSpread
	}
	if t.PairClusterFactor <= 0 {
		t.PairClusterFactor = d.PairClusterFactor
	}
	return t
}
