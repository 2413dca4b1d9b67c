// internal/copyright/copyright.go

// Package copyright extracts copyright statements from raw text. It is a
// pattern pipeline independent of license detection: statements are matched
// line by line, validated against a false-positive filter and merged per
// holder.
package copyright

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dsablic/licet/internal/model"
)

var (
	// Copyright (c) 2020-2024 Holder / © 2020 Holder / (C) 2020, 2021 Holder.
	// Anchored to the start of the line (past comment leaders) so that prose
	// like "the above copyright notice" never produces a statement.
	statementRe = regexp.MustCompile(`(?i)^[\s#*/;'"-]*(?:copyright\s*(?:©|\(c\))?|©|\(c\))\s*((?:\d{4}(?:\s*[-–]\s*\d{4})?(?:\s*,\s*)?)*)\s*(?:by\s+)?(.+)`)

	// Author: Jane Doe
	authorRe = regexp.MustCompile(`(?im)^[ \t#*/-]*authors?:[ \t]*(.+)$`)

	yearRe = regexp.MustCompile(`\d{4}`)

	urlOnlyRe   = regexp.MustCompile(`(?i)^https?://\S+$`)
	emailOnlyRe = regexp.MustCompile(`^<?\S+@\S+>?$`)

	// <jane@example.com> suffixes and <placeholder> templates alike.
	angleSegmentRe = regexp.MustCompile(`<[^>]*>`)
)

// Confidence bands per pattern family: an explicit statement with years is
// the strongest form, informal authorship the weakest.
const (
	confWithYears = 0.95
	confNoYears   = 0.85
	confAuthor    = 0.7
)

// holderPlaceholders are captured holders that are templates, not people or
// organizations.
var holderPlaceholders = map[string]struct{}{
	"yyyy": {}, "name": {}, "your name": {}, "your company": {},
	"author": {}, "authors": {}, "owner": {}, "holder": {},
	"copyright holders": {}, "copyright holder": {}, "todo": {},
	"name of author": {}, "fullname": {}, "company": {},
	"notice": {}, "statement": {}, "law": {},
}

// Extract returns validated copyright statements found in rawText. Records
// are not merged here; Merge collapses duplicates after all units finish.
func Extract(rawText, sourcePath string) []model.CopyrightStatement {
	if rawText == "" {
		return nil
	}

	var out []model.CopyrightStatement
	for _, line := range strings.Split(rawText, "\n") {
		if len(line) > 400 {
			continue // code or minified text, not a statement
		}

		if m := statementRe.FindStringSubmatch(line); m != nil {
			years := parseYears(m[1])
			holder := cleanHolder(m[2])
			if !validHolder(holder) {
				continue
			}
			conf := confNoYears
			if len(years) > 0 {
				conf = confWithYears
			}
			out = append(out, model.CopyrightStatement{
				Holder:     holder,
				Years:      years,
				Statement:  strings.TrimSpace(line),
				SourcePath: sourcePath,
				Confidence: conf,
			})
			continue
		}

		if m := authorRe.FindStringSubmatch(line); m != nil {
			holder := cleanHolder(m[1])
			if !validHolder(holder) {
				continue
			}
			out = append(out, model.CopyrightStatement{
				Holder:     holder,
				Statement:  strings.TrimSpace(line),
				SourcePath: sourcePath,
				Confidence: confAuthor,
			})
		}
	}
	return out
}

// parseYears expands "2020-2024", "2019, 2021" and mixtures of both into a
// sorted list of years.
func parseYears(s string) []int {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	seen := map[int]struct{}{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		bounds := yearRe.FindAllString(part, -1)
		switch {
		case len(bounds) == 2 && strings.ContainsAny(part, "-–"):
			lo, _ := strconv.Atoi(bounds[0])
			hi, _ := strconv.Atoi(bounds[1])
			if hi >= lo && hi-lo <= 200 {
				for y := lo; y <= hi; y++ {
					seen[y] = struct{}{}
				}
			}
		default:
			for _, b := range bounds {
				y, _ := strconv.Atoi(b)
				seen[y] = struct{}{}
			}
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		if y >= 1900 && y <= 2100 {
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years
}

// cleanHolder strips trailing boilerplate and wrapping punctuation from a
// captured holder.
func cleanHolder(s string) string {
	s = angleSegmentRe.ReplaceAllString(s, "")
	for _, suffix := range []string{"all rights reserved", "All rights reserved", "All Rights Reserved"} {
		if idx := strings.Index(s, suffix); idx >= 0 {
			s = s[:idx]
		}
	}
	s = strings.Trim(s, " \t.,;:*/\"'<>()-")
	return strings.TrimSpace(s)
}

// validHolder rejects placeholders, bare URLs/emails, code fragments and
// short generic fragments before a statement is emitted.
func validHolder(holder string) bool {
	if len(holder) < 2 || len(holder) > 100 {
		return false
	}
	lower := strings.ToLower(holder)
	if _, bad := holderPlaceholders[lower]; bad {
		return false
	}
	for token := range holderPlaceholders {
		if strings.Contains(lower, token) && len(lower) <= len(token)+6 {
			return false
		}
	}
	if urlOnlyRe.MatchString(holder) || emailOnlyRe.MatchString(holder) {
		return false
	}
	if strings.ContainsAny(holder, "={};%\\<>") {
		return false // variable assignment or string-literal context
	}
	hasLetter := false
	for _, r := range lower {
		if r >= 'a' && r <= 'z' {
			hasLetter = true
			break
		}
	}
	return hasLetter
}

// Merge collapses statements with the same normalized holder, unioning their
// years and keeping the highest confidence. Output is sorted by holder for
// deterministic reports.
func Merge(in []model.CopyrightStatement) []model.CopyrightStatement {
	if len(in) < 2 {
		return in
	}

	byHolder := map[string]*model.CopyrightStatement{}
	var order []string
	for _, c := range in {
		key := strings.Join(strings.Fields(strings.ToLower(c.Holder)), " ")
		existing, ok := byHolder[key]
		if !ok {
			cp := c
			byHolder[key] = &cp
			order = append(order, key)
			continue
		}
		existing.Years = unionYears(existing.Years, c.Years)
		if c.Confidence > existing.Confidence {
			existing.Confidence = c.Confidence
		}
	}

	out := make([]model.CopyrightStatement, 0, len(order))
	for _, key := range order {
		out = append(out, *byHolder[key])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Holder < out[j].Holder })
	return out
}

func unionYears(a, b []int) []int {
	if len(b) == 0 {
		return a
	}
	seen := map[int]struct{}{}
	for _, y := range a {
		seen[y] = struct{}{}
	}
	for _, y := range b {
		seen[y] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}
