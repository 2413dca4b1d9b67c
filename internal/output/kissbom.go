// internal/output/kissbom.go
package output

import (
	"encoding/json"
	"io"
	"sort"
	"strings"

	"github.com/dsablic/licet/internal/model"
)

// kissComponent is the keep-it-simple BOM entry: one scanned path, its
// concluded license expression and its copyright lines. Everything else is
// deliberately omitted.
type kissComponent struct {
	Name       string   `json:"name"`
	License    string   `json:"license,omitempty"`
	Copyrights []string `json:"copyrights,omitempty"`
}

type kissDoc struct {
	KissBOM struct {
		Components []kissComponent `json:"components"`
	} `json:"kissbom"`
}

// WriteKissBOM writes the minimal BOM to w. Multiple licenses for one path
// collapse into an AND expression over the distinct ids, declared and
// detected findings first.
func WriteKissBOM(w io.Writer, report model.Report) error {
	var doc kissDoc
	for _, r := range report.Results {
		comp := kissComponent{Name: r.Path}
		comp.License = concludeExpression(r.Licenses)
		for _, c := range r.Copyrights {
			comp.Copyrights = append(comp.Copyrights, c.Statement)
		}
		doc.KissBOM.Components = append(doc.KissBOM.Components, comp)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// concludeExpression reduces a result's findings to one license expression.
// References are too weak to conclude from; they are only used when nothing
// stronger exists.
func concludeExpression(licenses []model.DetectedLicense) string {
	strong := map[string]struct{}{}
	weak := map[string]struct{}{}
	for _, lic := range licenses {
		if lic.Category == model.CategoryReferenced {
			weak[lic.SPDXID] = struct{}{}
		} else {
			strong[lic.SPDXID] = struct{}{}
		}
	}
	ids := strong
	if len(ids) == 0 {
		ids = weak
	}
	if len(ids) == 0 {
		return ""
	}

	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return strings.Join(out, " AND ")
}
