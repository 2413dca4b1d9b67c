// internal/output/notices.go
package output

import (
	"fmt"
	"io"
	"sort"

	"github.com/dsablic/licet/internal/model"
)

// WriteNotices writes a plain-text attribution file: each license with the
// paths it was found in, then every distinct copyright statement.
func WriteNotices(w io.Writer, report model.Report) error {
	fmt.Fprintf(w, "Third-party notices for %s\n", report.Path)
	fmt.Fprintf(w, "Generated by %s on %s\n\n", report.Tool, report.GeneratedAt)

	paths := map[string][]string{}
	names := map[string]string{}
	for _, r := range report.Results {
		for _, lic := range r.Licenses {
			paths[lic.SPDXID] = append(paths[lic.SPDXID], lic.SourcePath)
			if lic.Name != "" {
				names[lic.SPDXID] = lic.Name
			}
		}
	}

	ids := make([]string, 0, len(paths))
	for id := range paths {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Fprintf(w, "Licenses\n--------\n")
	if len(ids) == 0 {
		fmt.Fprintln(w, "(none found)")
	}
	for _, id := range ids {
		title := id
		if name := names[id]; name != "" && name != id {
			title = fmt.Sprintf("%s (%s)", id, name)
		}
		fmt.Fprintf(w, "%s\n", title)
		for _, p := range dedupeSorted(paths[id]) {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Copyright statements\n--------------------\n")
	var any bool
	for _, r := range report.Results {
		for _, c := range r.Copyrights {
			fmt.Fprintf(w, "%s\n", c.Statement)
			any = true
		}
	}
	if !any {
		fmt.Fprintln(w, "(none found)")
	}
	return nil
}

func dedupeSorted(in []string) []string {
	sort.Strings(in)
	out := in[:0]
	for i, s := range in {
		if i == 0 || s != in[i-1] {
			out = append(out, s)
		}
	}
	return out
}
