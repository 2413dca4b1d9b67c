// internal/output/evidence.go
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/dsablic/licet/internal/model"
)

// fileEvidence groups every finding that originated from one file, with a
// human-readable description per finding.
type fileEvidence struct {
	Path       string              `json:"path"`
	Licenses   []licenseEvidence   `json:"licenses,omitempty"`
	Copyrights []copyrightEvidence `json:"copyrights,omitempty"`
}

type licenseEvidence struct {
	model.DetectedLicense
	Description string `json:"description"`
}

type copyrightEvidence struct {
	model.CopyrightStatement
	Description string `json:"description"`
}

type evidenceDoc struct {
	GeneratedAt string            `json:"generated_at"`
	Tool        string            `json:"tool"`
	Path        string            `json:"path"`
	Files       []fileEvidence    `json:"files"`
	Errors      []model.UnitError `json:"errors,omitempty"`
	Summary     model.Summary     `json:"summary"`
}

// WriteEvidence writes the detailed per-file evidence report as
// pretty-printed JSON to w.
func WriteEvidence(w io.Writer, report model.Report) error {
	byPath := map[string]*fileEvidence{}
	var order []string
	file := func(path string) *fileEvidence {
		if f, ok := byPath[path]; ok {
			return f
		}
		f := &fileEvidence{Path: path}
		byPath[path] = f
		order = append(order, path)
		return f
	}

	doc := evidenceDoc{
		GeneratedAt: report.GeneratedAt,
		Tool:        report.Tool,
		Path:        report.Path,
		Summary:     report.Summary,
	}

	for _, r := range report.Results {
		for _, lic := range r.Licenses {
			file(lic.SourcePath).Licenses = append(file(lic.SourcePath).Licenses, licenseEvidence{
				DetectedLicense: lic,
				Description:     describeLicense(lic),
			})
		}
		for _, c := range r.Copyrights {
			file(c.SourcePath).Copyrights = append(file(c.SourcePath).Copyrights, copyrightEvidence{
				CopyrightStatement: c,
				Description:        describeCopyright(c),
			})
		}
		doc.Errors = append(doc.Errors, r.Errors...)
	}

	sort.Strings(order)
	for _, path := range order {
		doc.Files = append(doc.Files, *byPath[path])
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func describeLicense(lic model.DetectedLicense) string {
	pct := int(lic.Confidence*100 + 0.5)
	switch lic.Method {
	case model.MethodHash:
		return fmt.Sprintf("Exact text match for %s", lic.SPDXID)
	case model.MethodDiceSorensen, model.MethodTLSH:
		return fmt.Sprintf("Text similarity match for %s at %d%% confidence", lic.SPDXID, pct)
	case model.MethodTag:
		return fmt.Sprintf("Declared %s via %s", lic.SPDXID, lic.MatchType)
	default:
		return fmt.Sprintf("Reference to %s at %d%% confidence", lic.SPDXID, pct)
	}
}

func describeCopyright(c model.CopyrightStatement) string {
	if len(c.Years) == 0 {
		return fmt.Sprintf("Copyright statement by %s", c.Holder)
	}
	return fmt.Sprintf("Copyright statement by %s covering %d-%d",
		c.Holder, c.Years[0], c.Years[len(c.Years)-1])
}
