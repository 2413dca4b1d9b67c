// internal/detect/fuzzy.go
package detect

import (
	"github.com/glaslos/tlsh"

	"github.com/dsablic/licet/internal/corpus"
	"github.com/dsablic/licet/internal/model"
)

// matchFuzzy is tier 2: locality-sensitive hash distance against every
// precomputed corpus hash. It tolerates larger edits than the bigram tier but
// uses a strict standalone distance bound, distinct from the relaxed bound
// tier 1 borrows for confirmation. Confidence decreases monotonically with
// distance.
func (d *Detector) matchFuzzy(candidateHash *tlsh.Tlsh) (model.DetectedLicense, bool) {
	if candidateHash == nil {
		return model.DetectedLicense{}, false
	}

	var best *corpus.Record
	bestDist := -1
	tied := false

	for _, rec := range d.corpus.Records() {
		if rec.FuzzyHash == nil {
			continue
		}
		dist := candidateHash.Diff(rec.FuzzyHash)
		switch {
		case bestDist < 0 || dist < bestDist:
			best, bestDist = rec, dist
			tied = false
		case dist == bestDist:
			if winner, ok := disambiguate(best, 0, rec, 0); ok {
				best = winner
			} else {
				tied = true
			}
		}
	}

	if best == nil || bestDist > d.cfg.FuzzyThreshold {
		return model.DetectedLicense{}, false
	}
	if tied {
		d.logger.Debug("ambiguous fuzzy match, no license emitted",
			"license", best.ID, "distance", bestDist)
		return model.DetectedLicense{}, false
	}

	confidence := 1.0 - float64(bestDist)/float64(d.cfg.FuzzyThreshold)
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return model.DetectedLicense{
		SPDXID:     best.ID,
		Confidence: confidence,
		Method:     model.MethodTLSH,
		MatchType:  "text_similarity",
	}, true
}
