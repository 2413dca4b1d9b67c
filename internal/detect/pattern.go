// internal/detect/pattern.go
package detect

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/dsablic/licet/internal/model"
)

// patternSet holds the compiled tier 3 regexes. Compiled once per Detector.
type patternSet struct {
	spdxTag   *regexp.Regexp
	exprSplit *regexp.Regexp

	// package-metadata field extractors
	jsonField  *regexp.Regexp
	tomlField  *regexp.Regexp
	metaField  *regexp.Regexp
	troveField *regexp.Regexp

	// natural-language references, ordered by specificity
	licensedUnder *regexp.Regexp
	atLicense     *regexp.Regexp
	licenseLine   *regexp.Regexp
	titleLine     *regexp.Regexp
}

func newPatternSet() *patternSet {
	return &patternSet{
		spdxTag:   regexp.MustCompile(`(?i)SPDX-License-Identifier:[ \t]*([^\n]+)`),
		exprSplit: regexp.MustCompile(`(?i)\s+(?:AND|OR|WITH)\s+`),

		jsonField:  regexp.MustCompile(`"license"\s*:\s*"([^"]+)"`),
		tomlField:  regexp.MustCompile(`(?m)^\s*license\s*=\s*['"]([^'"]+)['"]`),
		metaField:  regexp.MustCompile(`(?im)^license(?:-expression)?:[ \t]*([^\n]+)$`),
		troveField: regexp.MustCompile(`(?im)^classifier:[ \t]*license[ \t]*::[ \t]*(?:osi approved[ \t]*::[ \t]*)?([^\n]+)$`),

		licensedUnder: regexp.MustCompile(`(?i)\b(?:licensed|released|distributed)[ \t]+under[ \t]+(?:the[ \t]+)?([a-z0-9][a-z0-9 .+-]{0,60})(?:[,.;:)\n]|$)`),
		atLicense:     regexp.MustCompile(`(?i)@license[ \t]+(\S+)`),
		licenseLine:   regexp.MustCompile(`(?im)^[ \t#*/-]*licen[cs]e:[ \t]*([^\n]+)$`),
		titleLine:     regexp.MustCompile(`(?im)^[ \t#*/-]*(?:the[ \t]+)?([a-z0-9][a-z0-9 .+-]{0,40}?)[ \t]+li[cs]en[cs]e[ \t]*$`),
	}
}

// Confidence bands for reference phrases. A structured reference is stronger
// evidence than a bare title mention; the ordering matters more than the
// exact values.
const (
	confLicensedUnder = 0.9
	confAtLicense     = 0.85
	confLicenseLine   = 0.8
	confTitleLine     = 0.5
)

// placeholderTokens are captured names that are never real licenses.
var placeholderTokens = map[string]struct{}{
	"todo": {}, "fixme": {}, "xxx": {}, "tbd": {},
	"none": {}, "null": {}, "unknown": {}, "placeholder": {},
	"license": {}, "licence": {}, "see license": {}, "see license file": {},
	"your license here": {}, "all rights reserved": {},
}

// matchPatterns is tier 3: regex-driven detection of SPDX tags, declared
// metadata fields and natural-language references. It runs on raw (not
// normalized) text and always runs, regardless of earlier tier outcomes.
func (d *Detector) matchPatterns(raw string, kind model.UnitKind) []model.DetectedLicense {
	var out []model.DetectedLicense

	for _, m := range d.patterns.spdxTag.FindAllStringSubmatch(raw, -1) {
		for _, operand := range parseLicenseExpression(d.patterns, m[1]) {
			if lic, ok := d.resolveCapture(operand, 1.0, model.MethodTag, "spdx_identifier"); ok {
				out = append(out, lic)
			}
		}
	}

	if kind == model.KindPackageMetadata {
		for _, re := range []*regexp.Regexp{d.patterns.jsonField, d.patterns.tomlField, d.patterns.metaField, d.patterns.troveField} {
			for _, m := range re.FindAllStringSubmatch(raw, -1) {
				for _, operand := range parseLicenseExpression(d.patterns, m[1]) {
					if lic, ok := d.resolveCapture(operand, 1.0, model.MethodTag, "package_metadata"); ok {
						out = append(out, lic)
					}
				}
			}
		}
	}

	type refPattern struct {
		re   *regexp.Regexp
		conf float64
	}
	refs := []refPattern{
		{d.patterns.licensedUnder, confLicensedUnder},
		{d.patterns.atLicense, confAtLicense},
		{d.patterns.titleLine, confTitleLine},
	}
	if kind != model.KindPackageMetadata {
		refs = append(refs, refPattern{d.patterns.licenseLine, confLicenseLine})
	}
	for _, rp := range refs {
		for _, m := range rp.re.FindAllStringSubmatch(raw, -1) {
			if lic, ok := d.resolveCapture(m[1], rp.conf, model.MethodRegex, "license_reference"); ok {
				out = append(out, lic)
			}
		}
	}

	return out
}

// parseLicenseExpression splits an SPDX expression into its operands,
// honoring AND/OR/WITH. Compound semantics are not preserved: each operand
// is reported as an independent detection.
func parseLicenseExpression(p *patternSet, expr string) []string {
	expr = strings.NewReplacer("(", " ", ")", " ").Replace(expr)
	var out []string
	for _, part := range p.exprSplit.Split(expr, -1) {
		if part = cleanToken(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// resolveCapture filters placeholders and maps a captured name to a canonical
// id. Names that resolve to nothing are retained verbatim rather than
// silently dropped.
func (d *Detector) resolveCapture(name string, conf float64, method model.DetectionMethod, matchType string) (model.DetectedLicense, bool) {
	cleaned := cleanToken(name)
	if len(cleaned) < 2 {
		return model.DetectedLicense{}, false
	}
	if _, bad := placeholderTokens[strings.ToLower(cleaned)]; bad {
		return model.DetectedLicense{}, false
	}

	id, ok := d.corpus.ResolveName(cleaned)
	if !ok {
		id = cleaned
	}
	return model.DetectedLicense{
		SPDXID:     id,
		Confidence: conf,
		Method:     method,
		MatchType:  matchType,
	}, true
}

// cleanToken trims surrounding whitespace, quotes and comment leftovers from
// a captured license name.
func cleanToken(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
		return r != '+' // keep the or-later marker
	})
}
