package calc

import "math"

// ---------------------------------------------------------------------------
// Result assembler
// ---------------------------------------------------------------------------

// assembleScalars re-expands a dense (valid-only) scalar sequence to the
// original input length, emitting NaN at every fatal position. The dense
// sequence is consumed with a forward cursor so entry k always lands on the
// k-th valid molecule's original position.
func assembleScalars(dense []float64, total int, fatal map[int]ValidationOutcome) []float64 {
	out := make([]float64, total)
	cursor := 0
	for i := 0; i < total; i++ {
		if _, bad := fatal[i]; bad {
			out[i] = math.NaN()
			continue
		}
		out[i] = dense[cursor]
		cursor++
	}
	return out
}

// assembleCharges is the per-atom counterpart: fatal positions receive a
// single-element NaN sentinel instead of a sized per-atom array.
func assembleCharges(dense [][]float64, total int, fatal map[int]ValidationOutcome) [][]float64 {
	out := make([][]float64, total)
	cursor := 0
	for i := 0; i < total; i++ {
		if _, bad := fatal[i]; bad {
			out[i] = []float64{math.NaN()}
			continue
		}
		out[i] = dense[cursor]
		cursor++
	}
	return out
}
