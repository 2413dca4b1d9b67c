// internal/model/report.go
package model

import (
	"sort"
	"time"
)

// NewReport assembles the top-level report for one scanned path, computing
// the summary from the per-path results.
func NewReport(path string, results []Result, filesScanned int) Report {
	return Report{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Tool:        "licet",
		Path:        path,
		Results:     results,
		Summary:     BuildSummary(results, filesScanned),
	}
}

// BuildSummary aggregates license counts per category and copyright holders
// across all results. Counts are per distinct finding, not per file.
func BuildSummary(results []Result, filesScanned int) Summary {
	s := Summary{
		TotalFilesScanned:  filesScanned,
		DeclaredLicenses:   map[string]int{},
		DetectedLicenses:   map[string]int{},
		ReferencedLicenses: map[string]int{},
		AllLicenses:        map[string]int{},
	}

	holders := map[string]struct{}{}
	for _, r := range results {
		for _, lic := range r.Licenses {
			s.AllLicenses[lic.SPDXID]++
			switch lic.Category {
			case CategoryDeclared:
				s.DeclaredLicenses[lic.SPDXID]++
			case CategoryDetected:
				s.DetectedLicenses[lic.SPDXID]++
			case CategoryReferenced:
				s.ReferencedLicenses[lic.SPDXID]++
			}
		}
		for _, c := range r.Copyrights {
			holders[c.Holder] = struct{}{}
			s.CopyrightsFound++
		}
	}

	s.CopyrightHolders = make([]string, 0, len(holders))
	for h := range holders {
		s.CopyrightHolders = append(s.CopyrightHolders, h)
	}
	sort.Strings(s.CopyrightHolders)
	return s
}
