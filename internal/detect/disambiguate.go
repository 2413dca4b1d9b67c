// internal/detect/disambiguate.go
package detect

import "github.com/dsablic/licet/internal/corpus"

// disambiguate resolves two candidates whose scores fall within the near-tie
// window. Certain rarely-used license texts are near-supersets of a standard
// license's wording; preferring the widely-used one is right far more often
// than wrong. When neither (or both) candidates are widely used the tie
// stands unresolved and the caller fails closed.
func disambiguate(best *corpus.Record, bestScore float64, second *corpus.Record, secondScore float64) (*corpus.Record, bool) {
	switch {
	case best.WidelyUsed && !second.WidelyUsed:
		return best, true
	case second.WidelyUsed && !best.WidelyUsed:
		return second, true
	case bestScore > secondScore && best.WidelyUsed == second.WidelyUsed:
		// Same standing: the higher score wins unless it is an exact tie.
		return best, true
	default:
		return nil, false
	}
}
