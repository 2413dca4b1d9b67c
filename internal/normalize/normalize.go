// internal/normalize/normalize.go

// Package normalize converts raw text into the canonical form used for every
// license comparison. The same function runs over the bundled corpus at load
// time and over scanned input, so the two sides always agree.
package normalize

import (
	"regexp"
	"strings"
)

var (
	urlRe   = regexp.MustCompile(`https?://\S+`)
	emailRe = regexp.MustCompile(`\S+@\S+`)

	// Template placeholders that vary per distribution of the same license.
	placeholderRe = regexp.MustCompile(`\[(?:year|yyyy|fullname|name of copyright owner)\]|<(?:year|name of author|organization|owner)>|\{(?:year|fullname|email)\}`)

	// Anything outside lowercase alphanumerics, whitespace and hyphens is
	// replaced with a space before the final collapse.
	punctRe = regexp.MustCompile(`[^a-z0-9\s-]`)

	spaceRe = regexp.MustCompile(`\s+`)
)

// copyrightLinePrefixes mark attribution lines that must not influence
// license-body comparison. Matching is anchored at the start of a line so a
// mid-sentence "copyright notice" survives.
var copyrightLinePrefixes = []string{
	"copyright ",
	"copyright(",
	"(c) ",
	"© ",
}

// Normalize returns the canonical comparison form of text: lowercased,
// attribution lines stripped, URLs/emails/placeholders removed, punctuation
// reduced to spaces and whitespace collapsed. It is deterministic and
// idempotent, and never fails; empty input yields "".
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	lowered := strings.ToLower(text)

	var kept []string
	for _, line := range strings.Split(lowered, "\n") {
		if isCopyrightLine(line) {
			continue
		}
		kept = append(kept, line)
	}
	out := strings.Join(kept, "\n")

	out = urlRe.ReplaceAllString(out, " ")
	out = emailRe.ReplaceAllString(out, " ")
	out = placeholderRe.ReplaceAllString(out, " ")
	out = punctRe.ReplaceAllString(out, " ")
	out = spaceRe.ReplaceAllString(out, " ")

	return strings.TrimSpace(out)
}

func isCopyrightLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t*/#;-")
	if trimmed == "copyright" || trimmed == "all rights reserved" || trimmed == "all rights reserved." {
		return true
	}
	for _, prefix := range copyrightLinePrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}
