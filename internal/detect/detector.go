// internal/detect/detector.go

// Package detect implements the multi-tier license detection engine: an exact
// fingerprint tier, a bigram-similarity tier, a fuzzy-hash tier and a
// pattern/tag tier, run per evidence unit by a parallel orchestrator.
package detect

import (
	"context"
	"errors"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/glaslos/tlsh"

	"github.com/dsablic/licet/internal/copyright"
	"github.com/dsablic/licet/internal/corpus"
	"github.com/dsablic/licet/internal/model"
	"github.com/dsablic/licet/internal/normalize"
)

// Config carries the tunable detection values. Zero fields fall back to the
// defaults below.
type Config struct {
	SimilarityThreshold float64       // tier 1 acceptance (dice score)
	FuzzyThreshold      int           // tier 2 standalone distance bound
	ConfirmThreshold    int           // relaxed distance bound confirming tier 1
	UnitTimeout         time.Duration // per-unit processing bound
	Workers             int           // parallel unit workers
	SampleThreshold     int           // raw-text size above which units are sampled
	SampleHead          int
	SampleTail          int
}

const (
	defaultSimilarityThreshold = 0.97
	defaultFuzzyThreshold      = 30
	defaultConfirmThreshold    = 100
	defaultUnitTimeout         = 30 * time.Second
	defaultSampleThreshold     = 256 * 1024
	defaultSampleHead          = 128 * 1024
	defaultSampleTail          = 32 * 1024
)

func (c Config) withDefaults() Config {
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = defaultSimilarityThreshold
	}
	if c.FuzzyThreshold <= 0 {
		c.FuzzyThreshold = defaultFuzzyThreshold
	}
	if c.ConfirmThreshold <= 0 {
		c.ConfirmThreshold = defaultConfirmThreshold
	}
	if c.UnitTimeout <= 0 {
		c.UnitTimeout = defaultUnitTimeout
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.SampleThreshold <= 0 {
		c.SampleThreshold = defaultSampleThreshold
	}
	if c.SampleHead <= 0 {
		c.SampleHead = defaultSampleHead
	}
	if c.SampleTail <= 0 {
		c.SampleTail = defaultSampleTail
	}
	return c
}

// Detector runs the tier cascade against a shared read-only corpus.
type Detector struct {
	corpus   *corpus.Corpus
	cfg      Config
	logger   *log.Logger
	patterns *patternSet
}

// New creates a Detector. The corpus must already be loaded; it is shared by
// reference with every worker and never copied.
func New(c *corpus.Corpus, cfg Config, logger *log.Logger) *Detector {
	if logger == nil {
		logger = log.Default()
	}
	return &Detector{
		corpus:   c,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		patterns: newPatternSet(),
	}
}

// unitState tracks a unit's progress through the tier cascade. Any accepted
// match from tiers 0-2 jumps straight to stateTier2Tried so that only the
// pattern tier remains: tag and metadata evidence is categorically different
// from text similarity and must be reported even when a body match exists.
type unitState int

const (
	statePending unitState = iota
	stateTier0Tried
	stateTier1Tried
	stateTier2Tried
	stateTier3Tried
	stateResolved
)

// advance returns the state after the current tier ran. accepted short-
// circuits the remaining text tiers but never skips the pattern tier.
func advance(s unitState, accepted bool) unitState {
	if accepted && s < stateTier2Tried {
		return stateTier2Tried
	}
	return s + 1
}

// DetectUnit runs the full cascade over a single evidence unit. An empty unit
// yields no detections and no error.
func (d *Detector) DetectUnit(ctx context.Context, unit model.EvidenceUnit) ([]model.DetectedLicense, error) {
	if unit.RawText == "" {
		return nil, nil
	}

	raw := d.sample(unit.RawText)
	normalized := normalize.Normalize(raw)

	var candidateHash *tlsh.Tlsh
	if len(normalized) >= corpus.FuzzyHashMinBytes {
		if h, err := tlsh.HashBytes([]byte(normalized)); err == nil {
			candidateHash = h
		}
	}

	var found []model.DetectedLicense
	textTierRan := normalized != "" && bodyMatchable(unit.Kind)

	for state := statePending; state != stateResolved; {
		if err := ctx.Err(); err != nil {
			return found, err
		}

		accepted := false
		switch state {
		case statePending:
			if textTierRan {
				if m, ok := d.matchExact(normalized); ok {
					found = append(found, d.finalize(m, unit))
					accepted = true
				}
			}
		case stateTier0Tried:
			if textTierRan {
				m, ok, err := d.matchSimilarity(ctx, normalized, candidateHash)
				if err != nil {
					return found, err
				}
				if ok {
					found = append(found, d.finalize(m, unit))
					accepted = true
				}
			}
		case stateTier1Tried:
			if textTierRan && candidateHash != nil {
				if m, ok := d.matchFuzzy(candidateHash); ok {
					found = append(found, d.finalize(m, unit))
					accepted = true
				}
			}
		case stateTier2Tried:
			for _, m := range d.matchPatterns(raw, unit.Kind) {
				found = append(found, d.finalize(m, unit))
			}
		}
		state = advance(state, accepted)
	}

	return dedupeUnit(found), nil
}

// bodyMatchable reports whether tiers 0-2 apply to a unit kind. Text-body
// comparison is meaningful for license files and embedded header blocks;
// metadata fields only ever carry names and tags.
func bodyMatchable(kind model.UnitKind) bool {
	return kind != model.KindPackageMetadata
}

// finalize stamps origin and category onto a tier result.
func (d *Detector) finalize(m model.DetectedLicense, unit model.EvidenceUnit) model.DetectedLicense {
	m.SourcePath = unit.OriginPath
	m.Category = deriveCategory(unit.Kind, m)
	if m.Name == "" {
		m.Name = d.corpus.DisplayName(m.SPDXID)
	}
	return m
}

// deriveCategory assigns provenance from how and where the match was made,
// never from caller assertion. Tag and metadata evidence is declared; body
// matches in license-file-like units are detected; loose phrase matches in
// ordinary source or documentation are referenced.
func deriveCategory(kind model.UnitKind, m model.DetectedLicense) model.Category {
	switch m.Method {
	case model.MethodTag:
		return model.CategoryDeclared
	case model.MethodHash, model.MethodDiceSorensen, model.MethodTLSH:
		return model.CategoryDetected
	default:
		if kind == model.KindLicenseFile && m.Confidence >= 0.9 {
			return model.CategoryDetected
		}
		return model.CategoryReferenced
	}
}

// sample bounds per-unit cost for oversized inputs: a fixed prefix and suffix
// window stands in for the full content across every tier.
func (d *Detector) sample(raw string) string {
	if len(raw) <= d.cfg.SampleThreshold {
		return raw
	}
	head := d.cfg.SampleHead
	tail := d.cfg.SampleTail
	if head+tail >= len(raw) {
		return raw
	}
	return raw[:head] + "\n" + raw[len(raw)-tail:]
}

// Run processes units with a bounded worker pool and merges the per-unit
// results sequentially after all workers finish. onProgress may be nil; it is
// invoked once per completed unit.
func (d *Detector) Run(ctx context.Context, units []model.EvidenceUnit, onProgress func(done, total int, path string)) ([]model.DetectedLicense, []model.CopyrightStatement, []model.UnitError) {
	type unitResult struct {
		licenses   []model.DetectedLicense
		copyrights []model.CopyrightStatement
		err        *model.UnitError
	}

	results := make([]unitResult, len(units))
	sem := make(chan struct{}, d.cfg.Workers)
	var wg sync.WaitGroup
	var done int
	var progressMu sync.Mutex

	for i, u := range units {
		if ctx.Err() != nil {
			break // stop dispatching, let in-flight units drain
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(idx int, unit model.EvidenceUnit) {
			defer wg.Done()
			defer func() { <-sem }()

			unitCtx, cancel := context.WithTimeout(ctx, d.cfg.UnitTimeout)
			defer cancel()

			licenses, err := d.DetectUnit(unitCtx, unit)
			res := unitResult{licenses: licenses}
			switch {
			case errors.Is(err, context.Canceled):
				// scan-level cancellation: abandon quietly
			case err != nil:
				res.err = &model.UnitError{
					Path:    unit.OriginPath,
					Kind:    model.UnitTimeout,
					Message: err.Error(),
				}
				d.logger.Debug("unit abandoned", "path", unit.OriginPath, "err", err)
			default:
				res.copyrights = copyright.Extract(unit.RawText, unit.OriginPath)
			}
			results[idx] = res

			if onProgress != nil {
				progressMu.Lock()
				done++
				onProgress(done, len(units), unit.OriginPath)
				progressMu.Unlock()
			}
		}(i, u)
	}
	wg.Wait()

	var licenses []model.DetectedLicense
	var copyrights []model.CopyrightStatement
	var errs []model.UnitError
	for _, r := range results {
		licenses = append(licenses, r.licenses...)
		copyrights = append(copyrights, r.copyrights...)
		if r.err != nil {
			errs = append(errs, *r.err)
		}
	}

	licenses = Dedupe(licenses)
	copyrights = copyright.Merge(copyrights)
	return licenses, copyrights, errs
}

// Dedupe collapses duplicate (id, category) findings across units, keeping
// the highest-confidence occurrence, and sorts the result for deterministic
// output regardless of worker scheduling.
func Dedupe(in []model.DetectedLicense) []model.DetectedLicense {
	type key struct {
		id       string
		category model.Category
	}
	best := map[key]model.DetectedLicense{}
	for _, m := range in {
		k := key{m.SPDXID, m.Category}
		cur, ok := best[k]
		if !ok || m.Confidence > cur.Confidence {
			best[k] = m
		}
	}

	out := make([]model.DetectedLicense, 0, len(best))
	for _, m := range best {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourcePath != out[j].SourcePath {
			return out[i].SourcePath < out[j].SourcePath
		}
		if out[i].SPDXID != out[j].SPDXID {
			return out[i].SPDXID < out[j].SPDXID
		}
		return categoryRank(out[i].Category) < categoryRank(out[j].Category)
	})
	return out
}

func categoryRank(c model.Category) int {
	switch c {
	case model.CategoryDeclared:
		return 0
	case model.CategoryDetected:
		return 1
	default:
		return 2
	}
}

// dedupeUnit removes repeated (id, matchType) findings within one unit,
// keeping the highest confidence.
func dedupeUnit(in []model.DetectedLicense) []model.DetectedLicense {
	if len(in) < 2 {
		return in
	}
	type key struct {
		id        string
		matchType string
	}
	seen := map[key]int{}
	out := in[:0]
	for _, m := range in {
		k := key{m.SPDXID, m.MatchType}
		if idx, ok := seen[k]; ok {
			if m.Confidence > out[idx].Confidence {
				out[idx] = m
			}
			continue
		}
		seen[k] = len(out)
		out = append(out, m)
	}
	return out
}
