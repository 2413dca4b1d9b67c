// internal/detect/dice.go
package detect

import (
	"context"

	"github.com/glaslos/tlsh"

	"github.com/dsablic/licet/internal/corpus"
	"github.com/dsablic/licet/internal/model"
)

// Confirmation band for tier 1: a best score below decisiveScore but at or
// above confirmableScore is only accepted when the fuzzy-hash distance to the
// matched reference also agrees. This suppresses the corpus's own
// near-duplicate pairs, where bigram overlap alone cannot tell two documents
// apart.
const (
	confirmableScore = 0.95
	decisiveScore    = 0.99

	// nearTieDelta is the score window within which two candidates count as
	// tied for disambiguation purposes (one percentage point).
	nearTieDelta = 0.01
)

// matchSimilarity is tier 1: Dice-Sørensen bigram overlap against every
// corpus entry with reference text. It returns the single best entry if it
// clears the configured threshold, survives near-tie disambiguation and,
// inside the confirmation band, agrees with the fuzzy hash.
func (d *Detector) matchSimilarity(ctx context.Context, normalized string, candidateHash *tlsh.Tlsh) (model.DetectedLicense, bool, error) {
	input := corpus.Bigrams(normalized)
	if len(input) == 0 {
		return model.DetectedLicense{}, false, nil
	}

	var best, second *corpus.Record
	var bestScore, secondScore float64

	for i, rec := range d.corpus.Records() {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return model.DetectedLicense{}, false, err
			}
		}
		if !rec.HasText() {
			continue
		}
		score := diceCoefficient(input, rec.Bigrams)
		switch {
		case score > bestScore:
			second, secondScore = best, bestScore
			best, bestScore = rec, score
		case score > secondScore:
			second, secondScore = rec, score
		}
	}

	if best == nil || bestScore < d.cfg.SimilarityThreshold {
		return model.DetectedLicense{}, false, nil
	}

	if second != nil && bestScore-secondScore <= nearTieDelta {
		winner, ok := disambiguate(best, bestScore, second, secondScore)
		if !ok {
			d.logger.Debug("ambiguous similarity match, no license emitted",
				"best", best.ID, "best_score", bestScore,
				"second", second.ID, "second_score", secondScore)
			return model.DetectedLicense{}, false, nil
		}
		if winner == second {
			best, bestScore = second, secondScore
		}
	}

	if bestScore < decisiveScore {
		if !d.confirmFuzzy(candidateHash, best) {
			d.logger.Debug("similarity match rejected by fuzzy confirmation",
				"license", best.ID, "score", bestScore)
			return model.DetectedLicense{}, false, nil
		}
	}

	return model.DetectedLicense{
		SPDXID:     best.ID,
		Confidence: bestScore,
		Method:     model.MethodDiceSorensen,
		MatchType:  "text_similarity",
	}, true, nil
}

// confirmFuzzy checks that the candidate's fuzzy hash is within the relaxed
// confirmation bound of the matched reference. Missing hashes (short texts)
// cannot confirm.
func (d *Detector) confirmFuzzy(candidateHash *tlsh.Tlsh, rec *corpus.Record) bool {
	if candidateHash == nil || rec.FuzzyHash == nil {
		return false
	}
	return candidateHash.Diff(rec.FuzzyHash) <= d.cfg.ConfirmThreshold
}

// diceCoefficient computes 2*|A∩B| / (|A|+|B|) over bigram sets.
func diceCoefficient(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for g := range small {
		if _, ok := large[g]; ok {
			inter++
		}
	}
	return 2.0 * float64(inter) / float64(len(a)+len(b))
}
