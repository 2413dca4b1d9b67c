// internal/model/model.go
package model

import "fmt"

// UnitKind classifies an evidence unit by what kind of text it holds.
type UnitKind string

const (
	KindLicenseFile     UnitKind = "license-file"
	KindSourceHeader    UnitKind = "source-header"
	KindPackageMetadata UnitKind = "package-metadata"
	KindDocumentation   UnitKind = "documentation"
)

// EvidenceUnit is one scannable text region: a whole file, a metadata field,
// or a header comment. Units are produced by the scanner and consumed once by
// the detector; they are not retained after a scan.
type EvidenceUnit struct {
	OriginPath string
	RawText    string
	Kind       UnitKind
}

// DetectionMethod identifies which tier produced a license match.
type DetectionMethod string

const (
	MethodHash         DetectionMethod = "hash"
	MethodDiceSorensen DetectionMethod = "dice-sorensen"
	MethodTLSH         DetectionMethod = "tlsh"
	MethodRegex        DetectionMethod = "regex"
	MethodTag          DetectionMethod = "tag"
)

// Category describes how authoritative a license finding is.
type Category string

const (
	CategoryDeclared   Category = "declared"
	CategoryDetected   Category = "detected"
	CategoryReferenced Category = "referenced"
)

// DetectedLicense is a single license finding for one evidence unit.
type DetectedLicense struct {
	SPDXID     string          `json:"spdx_id"`
	Name       string          `json:"name,omitempty"`
	Confidence float64         `json:"confidence"`
	Method     DetectionMethod `json:"method"`
	Category   Category        `json:"category"`
	MatchType  string          `json:"match_type,omitempty"`
	SourcePath string          `json:"source_path"`
}

// CopyrightStatement is one extracted copyright record. Years are sorted
// ascending; a year-less statement has an empty slice.
type CopyrightStatement struct {
	Holder     string  `json:"holder"`
	Years      []int   `json:"years,omitempty"`
	Statement  string  `json:"statement"`
	SourcePath string  `json:"source_path"`
	Confidence float64 `json:"confidence"`
}

// UnitErrorKind distinguishes the non-fatal per-unit failure modes.
type UnitErrorKind string

const (
	UnitReadError UnitErrorKind = "read-error"
	UnitTimeout   UnitErrorKind = "timeout"
)

// UnitError records a unit that could not be processed. Per-unit errors never
// abort the scan of remaining units.
type UnitError struct {
	Path    string        `json:"path"`
	Kind    UnitErrorKind `json:"kind"`
	Message string        `json:"message"`
}

func (e UnitError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Kind, e.Message)
}

// Summary aggregates findings across all scanned units.
type Summary struct {
	TotalFilesScanned  int            `json:"total_files_scanned"`
	DeclaredLicenses   map[string]int `json:"declared_licenses"`
	DetectedLicenses   map[string]int `json:"detected_licenses"`
	ReferencedLicenses map[string]int `json:"referenced_licenses"`
	AllLicenses        map[string]int `json:"all_licenses"`
	CopyrightHolders   []string       `json:"copyright_holders"`
	CopyrightsFound    int            `json:"copyrights_found"`
}

// Result holds everything found for one scanned input path.
type Result struct {
	Path       string               `json:"path"`
	Licenses   []DetectedLicense    `json:"licenses"`
	Copyrights []CopyrightStatement `json:"copyrights"`
	Errors     []UnitError          `json:"errors,omitempty"`
}

// Report is the top-level output structure consumed by every formatter.
type Report struct {
	GeneratedAt string   `json:"generated_at"`
	Tool        string   `json:"tool"`
	Path        string   `json:"path"`
	Results     []Result `json:"scan_results"`
	Summary     Summary  `json:"summary"`
}
