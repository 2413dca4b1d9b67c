// internal/output/cyclonedx.go
package output

import (
	"io"
	"strings"

	cdx "github.com/CycloneDX/cyclonedx-go"

	"github.com/dsablic/licet/internal/model"
)

// WriteCycloneDX writes the report as a CycloneDX 1.6 JSON BOM. Each scanned
// input path becomes a component carrying its license and copyright evidence.
func WriteCycloneDX(w io.Writer, report model.Report) error {
	bom := cdx.NewBOM()
	bom.Metadata = &cdx.Metadata{
		Timestamp: report.GeneratedAt,
		Tools: &cdx.ToolsChoice{
			Components: &[]cdx.Component{{
				Type: cdx.ComponentTypeApplication,
				Name: report.Tool,
			}},
		},
	}

	components := make([]cdx.Component, 0, len(report.Results))
	for _, r := range report.Results {
		comp := cdx.Component{
			BOMRef: r.Path,
			Type:   cdx.ComponentTypeFile,
			Name:   r.Path,
		}

		evidence := &cdx.Evidence{}
		if licenses := evidenceLicenses(r.Licenses); len(licenses) > 0 {
			lc := cdx.Licenses(licenses)
			evidence.Licenses = &lc
		}
		if len(r.Copyrights) > 0 {
			texts := make([]cdx.Copyright, 0, len(r.Copyrights))
			for _, c := range r.Copyrights {
				texts = append(texts, cdx.Copyright{Text: c.Statement})
			}
			evidence.Copyright = &texts
		}
		if evidence.Licenses != nil || evidence.Copyright != nil {
			comp.Evidence = evidence
		}

		components = append(components, comp)
	}
	bom.Components = &components

	enc := cdx.NewBOMEncoder(w, cdx.BOMFileFormatJSON)
	enc.SetPretty(true)
	return enc.Encode(bom)
}

// evidenceLicenses maps findings to license choices, one per distinct id in
// finding order. Ids with spaces are unresolved raw names and go in the name
// field instead of the SPDX id field.
func evidenceLicenses(in []model.DetectedLicense) []cdx.LicenseChoice {
	seen := map[string]struct{}{}
	var out []cdx.LicenseChoice
	for _, lic := range in {
		if _, dup := seen[lic.SPDXID]; dup {
			continue
		}
		seen[lic.SPDXID] = struct{}{}

		license := &cdx.License{}
		if strings.ContainsAny(lic.SPDXID, " \t") {
			license.Name = lic.SPDXID
		} else {
			license.ID = lic.SPDXID
		}
		out = append(out, cdx.LicenseChoice{License: license})
	}
	return out
}
