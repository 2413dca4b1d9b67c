// internal/scanner/scanner.go

// Package scanner walks a directory tree and collects evidence units: license
// files, package metadata, documentation and source-file headers. It decides
// what each file IS; the detection engine decides what each file SAYS.
package scanner

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/charmbracelet/log"
	"github.com/go-enry/go-enry/v2"

	"github.com/dsablic/licet/internal/model"
)

// Config bounds the walk. Zero fields fall back to the defaults below.
type Config struct {
	MaxFileSize     int64    // per-file read cap in bytes
	MaxSourceFiles  int      // source-header sweep bound per scan
	SourceHeadBytes int      // how much of a source file to keep for detection
	LicensePatterns []string // extra glob patterns classified as license files
}

const (
	defaultMaxFileSize     = 1 << 20 // 1 MiB
	defaultMaxSourceFiles  = 100
	defaultSourceHeadBytes = 16 << 10
)

func (c Config) withDefaults() Config {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = defaultMaxFileSize
	}
	if c.MaxSourceFiles <= 0 {
		c.MaxSourceFiles = defaultMaxSourceFiles
	}
	if c.SourceHeadBytes <= 0 {
		c.SourceHeadBytes = defaultSourceHeadBytes
	}
	return c
}

// Scanner collects evidence units from a directory tree or a single file.
type Scanner struct {
	cfg    Config
	logger *log.Logger
}

func New(cfg Config, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{cfg: cfg.withDefaults(), logger: logger}
}

var skipDirs = map[string]struct{}{
	".git": {}, ".hg": {}, ".svn": {},
	"node_modules": {}, "vendor": {}, "__pycache__": {},
	".tox": {}, ".venv": {}, "venv": {}, "dist": {}, "build": {},
}

// licenseNames are filename stems (lowercased, extension stripped) that mark a
// file as a license or notice file.
var licenseNames = map[string]struct{}{
	"license": {}, "licence": {}, "licenses": {}, "licences": {},
	"copying": {}, "copying.lesser": {}, "notice": {}, "notices": {},
	"copyright": {}, "unlicense": {}, "patents": {},
}

// metadataNames are package-manager manifests whose declared license fields
// the pattern tier knows how to read.
var metadataNames = map[string]struct{}{
	"package.json": {}, "composer.json": {}, "bower.json": {},
	"cargo.toml": {}, "pyproject.toml": {}, "setup.cfg": {},
	"pkg-info": {}, "metadata": {}, "pom.xml": {}, "go.mod": {},
}

// Scan walks root and returns evidence units sorted by path. Unreadable files
// become unit errors, not walk failures; only the walk itself aborting is
// returned as an error.
func (s *Scanner) Scan(ctx context.Context, root string) ([]model.EvidenceUnit, []model.UnitError, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, err
	}
	if !info.IsDir() {
		unit, uerr := s.readUnit(root, filepath.Base(root))
		if uerr != nil {
			return nil, []model.UnitError{*uerr}, nil
		}
		return []model.EvidenceUnit{*unit}, nil, nil
	}

	var units []model.EvidenceUnit
	var unitErrs []model.UnitError
	sourceBudget := s.cfg.MaxSourceFiles

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.IsDir() {
			if _, skip := skipDirs[info.Name()]; skip && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		if enry.IsVendor(rel) {
			return nil
		}

		kind, ok := s.classify(info.Name(), rel)
		if !ok {
			return nil
		}
		if kind == model.KindSourceHeader {
			if sourceBudget <= 0 {
				return nil
			}
			sourceBudget--
		}

		unit, uerr := s.read(path, rel, kind)
		if uerr != nil {
			unitErrs = append(unitErrs, *uerr)
			return nil
		}
		if unit != nil {
			units = append(units, *unit)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Slice(units, func(i, j int) bool { return units[i].OriginPath < units[j].OriginPath })
	return units, unitErrs, nil
}

// classify maps a filename to a unit kind. License and metadata names win over
// extension-based rules so that LICENSE.md is a license file, not docs.
func (s *Scanner) classify(base, rel string) (model.UnitKind, bool) {
	lower := strings.ToLower(base)

	if isLicenseName(lower) {
		return model.KindLicenseFile, true
	}
	for _, pattern := range s.cfg.LicensePatterns {
		if ok, _ := filepath.Match(strings.ToLower(pattern), lower); ok {
			return model.KindLicenseFile, true
		}
	}
	if isFuzzyLicenseName(lower) {
		return model.KindLicenseFile, true
	}

	if _, ok := metadataNames[lower]; ok {
		return model.KindPackageMetadata, true
	}
	if strings.HasSuffix(lower, ".gemspec") || strings.HasSuffix(lower, ".nuspec") {
		return model.KindPackageMetadata, true
	}

	switch filepath.Ext(lower) {
	case ".md", ".rst", ".txt", ".adoc":
		return model.KindDocumentation, true
	}
	if enry.IsDocumentation(rel) {
		return model.KindDocumentation, true
	}

	if lang, safe := enry.GetLanguageByExtension(base); safe && lang != "" {
		return model.KindSourceHeader, true
	}
	return "", false
}

// isLicenseName matches the stem against known license filenames, tolerating
// any single extension (LICENSE, LICENSE.txt, COPYING.md, NOTICE.rst).
func isLicenseName(lower string) bool {
	if _, ok := licenseNames[lower]; ok {
		return true
	}
	stem := strings.TrimSuffix(lower, filepath.Ext(lower))
	if _, ok := licenseNames[stem]; ok {
		return true
	}
	// LICENSE-MIT, license_apache2 and similar suffixed forms
	for name := range licenseNames {
		if strings.HasPrefix(lower, name+"-") || strings.HasPrefix(lower, name+"_") || strings.HasPrefix(lower, name+".") {
			return true
		}
	}
	return false
}

// fuzzyLicenseStems catch misspelled license filenames (LISENSE, COPYNG)
// within edit distance 1, restricted to extensionless and text-like files so
// ordinary source names never qualify.
var fuzzyLicenseStems = []string{"license", "licence", "copying", "notice", "unlicense"}

func isFuzzyLicenseName(lower string) bool {
	ext := filepath.Ext(lower)
	switch ext {
	case "", ".txt", ".md", ".rst":
	default:
		return false
	}
	stem := strings.TrimSuffix(lower, ext)
	for _, name := range fuzzyLicenseStems {
		if levenshtein.ComputeDistance(stem, name) == 1 {
			return true
		}
	}
	return false
}

// readUnit classifies and reads a single explicitly-named file. Files the
// classifier would skip in a tree walk are read as documentation so that a
// direct path argument is never silently ignored.
func (s *Scanner) readUnit(path, rel string) (*model.EvidenceUnit, *model.UnitError) {
	kind, ok := s.classify(filepath.Base(path), rel)
	if !ok {
		kind = model.KindDocumentation
	}
	return s.read(path, rel, kind)
}

// read loads a file's detection-relevant content. Binary content is dropped
// without error; oversized content is truncated at the configured cap.
func (s *Scanner) read(path, rel string, kind model.UnitKind) (*model.EvidenceUnit, *model.UnitError) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &model.UnitError{Path: rel, Kind: model.UnitReadError, Message: err.Error()}
	}
	defer f.Close()

	limit := s.cfg.MaxFileSize
	if kind == model.KindSourceHeader && int64(s.cfg.SourceHeadBytes) < limit {
		limit = int64(s.cfg.SourceHeadBytes)
	}

	content, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		return nil, &model.UnitError{Path: rel, Kind: model.UnitReadError, Message: err.Error()}
	}

	if enry.IsBinary(content) {
		s.logger.Debug("skipping binary file", "path", rel)
		return nil, nil
	}

	return &model.EvidenceUnit{
		OriginPath: rel,
		RawText:    string(content),
		Kind:       kind,
	}, nil
}
