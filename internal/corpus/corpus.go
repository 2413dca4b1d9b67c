// internal/corpus/corpus.go

// Package corpus holds the reference license data every detection tier
// matches against. The bundled records are loaded once per process and never
// mutated afterwards, so a single Corpus is safe to share across workers.
package corpus

import (
	"crypto/md5"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/glaslos/tlsh"

	"github.com/dsablic/licet/internal/normalize"
)

//go:embed data
var dataFS embed.FS

// FuzzyHashMinBytes is the minimum normalized-text length for which a TLSH
// hash is defined. Shorter texts carry no fuzzy hash and are skipped by the
// fuzzy tier.
const FuzzyHashMinBytes = 50

// Record is one corpus entry. Fingerprints, Bigrams and FuzzyHash are always
// derived from NormalizedText at load time, never stored separately, so they
// cannot drift out of sync with the reference text.
type Record struct {
	ID             string
	Name           string
	Aliases        []string
	WidelyUsed     bool
	NormalizedText string
	Fingerprints   []string
	FuzzyHash      *tlsh.Tlsh
	Bigrams        map[string]struct{}
}

// HasText reports whether the record carries a reference text. Records
// without text participate only in alias resolution and tag matching.
func (r *Record) HasText() bool { return r.NormalizedText != "" }

// Corpus is the loaded reference collection plus its lookup indexes.
type Corpus struct {
	records    map[string]*Record
	ids        []string
	bySHA256   map[string]string
	byMD5      map[string]string
	aliases    map[string]string
	variantFPs bool
}

type recordMeta struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	WidelyUsed        bool     `json:"widely_used"`
	Aliases           []string `json:"aliases"`
	ExtraFingerprints []string `json:"extra_fingerprints"`
}

type corpusFile struct {
	Licenses []recordMeta `json:"licenses"`
}

// Load reads the embedded license data. Failure here is fatal to the caller:
// no detection is possible without a consistent corpus.
func Load() (*Corpus, error) {
	return LoadFS(dataFS, "data")
}

// LoadFS loads a corpus from an arbitrary filesystem laid out like the
// embedded data directory (licenses.json plus texts/<id>.txt).
func LoadFS(fsys fs.FS, root string) (*Corpus, error) {
	raw, err := fs.ReadFile(fsys, path.Join(root, "licenses.json"))
	if err != nil {
		return nil, fmt.Errorf("read license data: %w", err)
	}

	var file corpusFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse license data: %w", err)
	}
	if len(file.Licenses) == 0 {
		return nil, fmt.Errorf("license data is empty")
	}

	c := &Corpus{
		records:  make(map[string]*Record, len(file.Licenses)),
		bySHA256: map[string]string{},
		byMD5:    map[string]string{},
		aliases:  map[string]string{},
	}

	for _, meta := range file.Licenses {
		if meta.ID == "" {
			return nil, fmt.Errorf("license record without id")
		}
		if _, dup := c.records[meta.ID]; dup {
			return nil, fmt.Errorf("duplicate license id %q", meta.ID)
		}

		rec := &Record{
			ID:         meta.ID,
			Name:       meta.Name,
			Aliases:    meta.Aliases,
			WidelyUsed: meta.WidelyUsed,
		}

		if text, err := fs.ReadFile(fsys, path.Join(root, "texts", meta.ID+".txt")); err == nil {
			rec.NormalizedText = normalize.Normalize(string(text))
			if rec.NormalizedText == "" {
				return nil, fmt.Errorf("license %q: reference text normalizes to empty", meta.ID)
			}
			rec.Bigrams = Bigrams(rec.NormalizedText)
			rec.Fingerprints = append([]string{sha256Hex(rec.NormalizedText)}, meta.ExtraFingerprints...)

			for _, fp := range rec.Fingerprints {
				c.registerDigest(c.bySHA256, fp, meta.ID)
			}
			c.registerDigest(c.byMD5, md5Hex(rec.NormalizedText), meta.ID)
			if len(meta.ExtraFingerprints) > 0 {
				c.variantFPs = true
			}

			if len(rec.NormalizedText) >= FuzzyHashMinBytes {
				if h, err := tlsh.HashBytes([]byte(rec.NormalizedText)); err == nil {
					rec.FuzzyHash = h
				}
			}
		}

		c.records[meta.ID] = rec
		c.ids = append(c.ids, meta.ID)

		c.aliases[strings.ToLower(meta.ID)] = meta.ID
		if meta.Name != "" {
			c.aliases[strings.ToLower(meta.Name)] = meta.ID
		}
		for _, alias := range meta.Aliases {
			key := strings.ToLower(strings.TrimSpace(alias))
			if key == "" {
				continue
			}
			if existing, ok := c.aliases[key]; ok && existing != meta.ID {
				return nil, fmt.Errorf("alias %q maps to both %q and %q", alias, existing, meta.ID)
			}
			c.aliases[key] = meta.ID
		}
	}

	sort.Strings(c.ids)
	return c, nil
}

// registerDigest records a digest → id mapping. When two records legitimately
// share a digest (identical bundled texts) the lexicographically smallest id
// wins, so repeated runs resolve the collision the same way.
func (c *Corpus) registerDigest(index map[string]string, digest, id string) {
	if existing, ok := index[digest]; ok && existing <= id {
		return
	}
	index[digest] = id
}

// IDs returns all license ids in sorted order.
func (c *Corpus) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Record returns the record for the given id.
func (c *Corpus) Record(id string) (*Record, bool) {
	r, ok := c.records[id]
	return r, ok
}

// Records returns all records in sorted id order.
func (c *Corpus) Records() []*Record {
	out := make([]*Record, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.records[id])
	}
	return out
}

// DisplayName returns the human-readable name for id, falling back to the id
// itself for unknown licenses.
func (c *Corpus) DisplayName(id string) string {
	if r, ok := c.records[id]; ok && r.Name != "" {
		return r.Name
	}
	return id
}

// LookupSHA256 resolves an exact fingerprint to a license id.
func (c *Corpus) LookupSHA256(digest string) (string, bool) {
	id, ok := c.bySHA256[digest]
	return id, ok
}

// LookupMD5 resolves the fast pre-filter digest to a license id.
func (c *Corpus) LookupMD5(digest string) (string, bool) {
	id, ok := c.byMD5[digest]
	return id, ok
}

// HasVariantFingerprints reports whether any record carries extra variant
// fingerprints. Variants are indexed by SHA-256 only, so when this is true an
// MD5 pre-filter miss cannot rule out an exact match.
func (c *Corpus) HasVariantFingerprints() bool {
	return c.variantFPs
}

// MergeAliases layers user-supplied name → id overrides on top of the
// built-in alias table. Must be called before a scan starts; the corpus is
// read-only once workers are running.
func (c *Corpus) MergeAliases(custom map[string]string) {
	for name, id := range custom {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" || id == "" {
			continue
		}
		c.aliases[key] = id
	}
}

var familyVersionRe = regexp.MustCompile(`^([a-z][a-z0-9 ]*?)[ -]v?(\d+(?:\.\d+)?)$`)

// ResolveName maps a captured license name to a canonical id. It tries the
// alias table, then rule-based transforms (or-later suffixes, family/version
// hyphenation, "the X license" wrapping), then a Levenshtein fallback for
// misspellings. Returns false when nothing maps; callers keep the raw name
// in that case rather than dropping the finding.
func (c *Corpus) ResolveName(name string) (string, bool) {
	n := strings.Trim(strings.TrimSpace(name), `"'.,;:`)
	if n == "" {
		return "", false
	}
	lower := strings.ToLower(n)

	if id, ok := c.aliases[lower]; ok {
		return id, true
	}

	if base, ok := strings.CutSuffix(lower, "+"); ok {
		return c.resolveOrLater(strings.TrimSpace(base))
	}
	if base, ok := strings.CutSuffix(lower, " or later"); ok {
		return c.resolveOrLater(strings.TrimSpace(base))
	}

	if id, ok := c.resolveTransformed(lower); ok {
		return id, true
	}

	stripped := strings.TrimPrefix(lower, "the ")
	for _, suffix := range []string{" license", " licence"} {
		stripped = strings.TrimSuffix(stripped, suffix)
	}
	if stripped != lower {
		if id, ok := c.aliases[stripped]; ok {
			return id, true
		}
		if id, ok := c.resolveTransformed(stripped); ok {
			return id, true
		}
	}

	return c.resolveFuzzy(lower)
}

func (c *Corpus) resolveTransformed(name string) (string, bool) {
	m := familyVersionRe.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	candidate := strings.ReplaceAll(m[1], " ", "-") + "-" + m[2]
	id, ok := c.aliases[candidate]
	return id, ok
}

func (c *Corpus) resolveOrLater(base string) (string, bool) {
	id, ok := c.ResolveName(base)
	if !ok {
		return "", false
	}
	var candidate string
	if strings.HasSuffix(id, "-only") {
		candidate = strings.TrimSuffix(id, "-only") + "-or-later"
	} else {
		candidate = id + "-or-later"
	}
	if resolved, ok := c.aliases[strings.ToLower(candidate)]; ok {
		return resolved, true
	}
	return id, true
}

// fuzzyResolveRatio is the minimum similarity for the misspelling fallback,
// mirroring the 90% cutoff the alias table has always used.
const fuzzyResolveRatio = 0.9

func (c *Corpus) resolveFuzzy(name string) (string, bool) {
	bestID := ""
	bestRatio := 0.0
	for key, id := range c.aliases {
		longest := len(key)
		if len(name) > longest {
			longest = len(name)
		}
		if longest == 0 {
			continue
		}
		dist := levenshtein.ComputeDistance(name, key)
		ratio := 1.0 - float64(dist)/float64(longest)
		switch {
		case ratio > bestRatio:
			bestRatio = ratio
			bestID = id
		case ratio == bestRatio && bestID != "" && id < bestID:
			// Equal ratios resolve to the smallest id so the alias map's
			// iteration order never shows in the result.
			bestID = id
		}
	}
	if bestRatio >= fuzzyResolveRatio {
		return bestID, true
	}
	return "", false
}

// Bigrams returns the set of character bigrams used by the similarity tier.
func Bigrams(s string) map[string]struct{} {
	set := make(map[string]struct{}, len(s))
	for i := 0; i+2 <= len(s); i++ {
		set[s[i:i+2]] = struct{}{}
	}
	return set
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
