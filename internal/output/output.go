// internal/output/output.go

// Package output renders a scan report in the supported formats: a full
// evidence JSON document, a minimal kissbom, a CycloneDX SBOM and a plain-text
// notices file.
package output

import (
	"fmt"
	"io"

	"github.com/dsablic/licet/internal/model"
)

// Format names a supported output format.
type Format string

const (
	FormatEvidence  Format = "evidence"
	FormatKissBOM   Format = "kissbom"
	FormatCycloneDX Format = "cyclonedx"
	FormatNotices   Format = "notices"
)

// Formats lists the supported format names for CLI help.
func Formats() []Format {
	return []Format{FormatEvidence, FormatKissBOM, FormatCycloneDX, FormatNotices}
}

// Write renders the report to w in the requested format.
func Write(w io.Writer, format Format, report model.Report) error {
	switch format {
	case FormatEvidence:
		return WriteEvidence(w, report)
	case FormatKissBOM:
		return WriteKissBOM(w, report)
	case FormatCycloneDX:
		return WriteCycloneDX(w, report)
	case FormatNotices:
		return WriteNotices(w, report)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
