// internal/detect/detect_test.go
package detect_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/charmbracelet/log"

	"github.com/dsablic/licet/internal/corpus"
	"github.com/dsablic/licet/internal/detect"
	"github.com/dsablic/licet/internal/model"
	"github.com/dsablic/licet/internal/normalize"
)

func newDetector(t *testing.T) (*detect.Detector, *corpus.Corpus) {
	t.Helper()
	c, err := corpus.Load()
	if err != nil {
		t.Fatalf("load corpus: %v", err)
	}
	logger := log.New(io.Discard)
	return detect.New(c, detect.Config{}, logger), c
}

func referenceText(t *testing.T, c *corpus.Corpus, id string) string {
	t.Helper()
	rec, ok := c.Record(id)
	if !ok || !rec.HasText() {
		t.Fatalf("corpus record %q has no reference text", id)
	}
	return rec.NormalizedText
}

func TestDetectExactMatchesEveryReferenceText(t *testing.T) {
	d, c := newDetector(t)
	for _, rec := range c.Records() {
		if !rec.HasText() {
			continue
		}
		unit := model.EvidenceUnit{
			OriginPath: "LICENSE",
			RawText:    rec.NormalizedText,
			Kind:       model.KindLicenseFile,
		}
		got, err := d.DetectUnit(context.Background(), unit)
		if err != nil {
			t.Fatalf("%s: %v", rec.ID, err)
		}
		if len(got) == 0 {
			t.Errorf("%s: no detection for its own reference text", rec.ID)
			continue
		}
		first := got[0]
		if first.SPDXID != rec.ID {
			t.Errorf("%s: detected %s instead", rec.ID, first.SPDXID)
		}
		if first.Method != model.MethodHash {
			t.Errorf("%s: method = %s, want %s", rec.ID, first.Method, model.MethodHash)
		}
		if first.Confidence != 1.0 {
			t.Errorf("%s: confidence = %v, want 1.0", rec.ID, first.Confidence)
		}
		if first.Category != model.CategoryDetected {
			t.Errorf("%s: category = %s, want %s", rec.ID, first.Category, model.CategoryDetected)
		}
	}
}

func TestDetectToleratesSmallEdits(t *testing.T) {
	d, c := newDetector(t)
	text := referenceText(t, c, "MIT")
	edited := strings.Replace(text, "permission is hereby granted", "permision is hereby granted", 1)
	if edited == text {
		t.Fatal("edit did not apply, reference text changed?")
	}

	unit := model.EvidenceUnit{OriginPath: "LICENSE", RawText: edited, Kind: model.KindLicenseFile}
	got, err := d.DetectUnit(context.Background(), unit)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 {
		t.Fatal("no detection for lightly edited text")
	}
	first := got[0]
	if first.SPDXID != "MIT" {
		t.Fatalf("detected %s, want MIT", first.SPDXID)
	}
	if first.Method == model.MethodHash {
		t.Error("edited text must not match the exact tier")
	}
	if first.Confidence < 0.97 {
		t.Errorf("confidence = %v, want >= 0.97", first.Confidence)
	}
}

func TestDetectNearDuplicatePrefersWidelyUsed(t *testing.T) {
	// The JSON license is the MIT text plus one sentence: bigram overlap alone
	// cannot separate them, so the widely-used entry must win for a lightly
	// edited MIT body while the exact tier still distinguishes the true JSON
	// text.
	d, c := newDetector(t)
	jsonText := referenceText(t, c, "JSON")

	got, err := d.DetectUnit(context.Background(), model.EvidenceUnit{
		OriginPath: "LICENSE", RawText: jsonText, Kind: model.KindLicenseFile,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 || got[0].SPDXID != "JSON" {
		t.Fatalf("exact JSON text: got %+v, want JSON first", got)
	}
}

func TestDetectSPDXExpression(t *testing.T) {
	d, _ := newDetector(t)
	unit := model.EvidenceUnit{
		OriginPath: "main.go",
		RawText:    "// SPDX-License-Identifier: Apache-2.0 OR MIT\npackage thing\n",
		Kind:       model.KindSourceHeader,
	}
	got, err := d.DetectUnit(context.Background(), unit)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d detections, want 2: %+v", len(got), got)
	}
	ids := map[string]bool{}
	for _, m := range got {
		ids[m.SPDXID] = true
		if m.Confidence != 1.0 {
			t.Errorf("%s: confidence = %v, want 1.0", m.SPDXID, m.Confidence)
		}
		if m.MatchType != "spdx_identifier" {
			t.Errorf("%s: match type = %q", m.SPDXID, m.MatchType)
		}
		if m.Category != model.CategoryDeclared {
			t.Errorf("%s: category = %s, want %s", m.SPDXID, m.Category, model.CategoryDeclared)
		}
	}
	if !ids["Apache-2.0"] || !ids["MIT"] {
		t.Errorf("ids = %v, want Apache-2.0 and MIT", ids)
	}
}

func TestDetectPackageMetadataField(t *testing.T) {
	d, _ := newDetector(t)
	unit := model.EvidenceUnit{
		OriginPath: "package.json",
		RawText:    "{\n  \"name\": \"thing\",\n  \"license\": \"MIT\"\n}\n",
		Kind:       model.KindPackageMetadata,
	}
	got, err := d.DetectUnit(context.Background(), unit)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d detections, want 1: %+v", len(got), got)
	}
	m := got[0]
	if m.SPDXID != "MIT" || m.Confidence != 1.0 || m.MatchType != "package_metadata" {
		t.Errorf("unexpected detection: %+v", m)
	}
	if m.Category != model.CategoryDeclared {
		t.Errorf("category = %s, want %s", m.Category, model.CategoryDeclared)
	}
}

func TestDetectReferencePhrase(t *testing.T) {
	d, _ := newDetector(t)
	unit := model.EvidenceUnit{
		OriginPath: "util.py",
		RawText:    "# Licensed under the Apache License, Version 2.0\ndef f():\n    pass\n",
		Kind:       model.KindSourceHeader,
	}
	got, err := d.DetectUnit(context.Background(), unit)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d detections, want 1: %+v", len(got), got)
	}
	m := got[0]
	if m.SPDXID != "Apache-2.0" {
		t.Errorf("detected %s, want Apache-2.0", m.SPDXID)
	}
	if m.Method != model.MethodRegex || m.Category != model.CategoryReferenced {
		t.Errorf("method/category = %s/%s, want %s/%s",
			m.Method, m.Category, model.MethodRegex, model.CategoryReferenced)
	}
}

func TestDetectEmptyUnit(t *testing.T) {
	d, _ := newDetector(t)
	got, err := d.DetectUnit(context.Background(), model.EvidenceUnit{OriginPath: "empty.txt"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %+v, want none", got)
	}
}

func TestDetectShortGarbageYieldsNothing(t *testing.T) {
	d, _ := newDetector(t)
	got, err := d.DetectUnit(context.Background(), model.EvidenceUnit{
		OriginPath: "notes.txt",
		RawText:    "grocery list: eggs, milk",
		Kind:       model.KindDocumentation,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %+v, want none", got)
	}
}

func TestDetectCanceledContext(t *testing.T) {
	d, c := newDetector(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.DetectUnit(ctx, model.EvidenceUnit{
		OriginPath: "LICENSE",
		RawText:    referenceText(t, c, "MIT"),
		Kind:       model.KindLicenseFile,
	})
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestRunMergesUnits(t *testing.T) {
	d, c := newDetector(t)
	units := []model.EvidenceUnit{
		{OriginPath: "LICENSE", RawText: referenceText(t, c, "MIT"), Kind: model.KindLicenseFile},
		{
			OriginPath: "main.go",
			RawText:    "// Copyright (c) 2021 Example Corp\n// SPDX-License-Identifier: MIT\npackage thing\n",
			Kind:       model.KindSourceHeader,
		},
	}

	var calls int
	licenses, copyrights, errs := d.Run(context.Background(), units, func(done, total int, path string) {
		calls++
		if total != len(units) {
			t.Errorf("total = %d, want %d", total, len(units))
		}
	})

	if len(errs) != 0 {
		t.Fatalf("unit errors: %+v", errs)
	}
	if calls != len(units) {
		t.Errorf("progress calls = %d, want %d", calls, len(units))
	}

	if len(licenses) != 2 {
		t.Fatalf("got %d licenses, want 2: %+v", len(licenses), licenses)
	}
	if licenses[0].SourcePath != "LICENSE" || licenses[0].Category != model.CategoryDetected {
		t.Errorf("licenses[0] = %+v", licenses[0])
	}
	if licenses[1].SourcePath != "main.go" || licenses[1].Category != model.CategoryDeclared {
		t.Errorf("licenses[1] = %+v", licenses[1])
	}

	if len(copyrights) != 1 || copyrights[0].Holder != "Example Corp" {
		t.Fatalf("copyrights = %+v", copyrights)
	}
}

func newDetectorFS(t *testing.T, fsys fstest.MapFS) *detect.Detector {
	t.Helper()
	c, err := corpus.LoadFS(fsys, "data")
	if err != nil {
		t.Fatalf("load fixture corpus: %v", err)
	}
	return detect.New(c, detect.Config{}, log.New(io.Discard))
}

func TestDetectVariantFingerprint(t *testing.T) {
	canonical := "the canonical wording of this grant with its own distinct clauses"
	variant := "a fully restated variant wording sharing nothing textual with the canonical form"

	sum := sha256.Sum256([]byte(normalize.Normalize(variant)))
	meta := fmt.Sprintf(`{"licenses":[{"id":"VAR-1.0","name":"Variant License 1.0","extra_fingerprints":[%q]}]}`,
		hex.EncodeToString(sum[:]))
	d := newDetectorFS(t, fstest.MapFS{
		"data/licenses.json":     {Data: []byte(meta)},
		"data/texts/VAR-1.0.txt": {Data: []byte(canonical)},
	})

	got, err := d.DetectUnit(context.Background(), model.EvidenceUnit{
		OriginPath: "LICENSE", RawText: variant, Kind: model.KindLicenseFile,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 {
		t.Fatal("recorded variant text produced no detection")
	}
	first := got[0]
	if first.SPDXID != "VAR-1.0" || first.Method != model.MethodHash || first.Confidence != 1.0 {
		t.Errorf("variant match = %+v, want VAR-1.0 via hash at 1.0", first)
	}
}

func TestDetectTiedNearDuplicatesEmitNothing(t *testing.T) {
	// Two non-widely-used records share one reference text, so every score is
	// an exact tie. A close-but-inexact input must fail closed: no emission
	// from the similarity or fuzzy tiers.
	text := "abcdefghijklmnopqrstuvwxyz0123456789 zyxwvutsrqponmlkjihgfedcba 9876543210"
	meta := `{"licenses":[{"id":"AMB-A","name":"Ambiguous A"},{"id":"AMB-B","name":"Ambiguous B"}]}`
	d := newDetectorFS(t, fstest.MapFS{
		"data/licenses.json":   {Data: []byte(meta)},
		"data/texts/AMB-A.txt": {Data: []byte(text)},
		"data/texts/AMB-B.txt": {Data: []byte(text)},
	})

	got, err := d.DetectUnit(context.Background(), model.EvidenceUnit{
		OriginPath: "LICENSE", RawText: text[:len(text)-1], Kind: model.KindLicenseFile,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("tied candidates must not resolve, got %+v", got)
	}
}

func TestDetectSimilarityRefusedWithoutFuzzyConfirmation(t *testing.T) {
	// 36 distinct characters give 35 distinct bigrams; dropping the last
	// character scores 2*34/(34+35) ≈ 0.986 — above the acceptance threshold
	// but below the decisive score, so the match needs fuzzy confirmation.
	// The reference is too short to carry a fuzzy hash, so confirmation must
	// fail and nothing may be emitted.
	ref := "abcdefghijklmnopqrstuvwxyz0123456789"
	meta := `{"licenses":[{"id":"BAND-1.0","name":"Band License 1.0"}]}`
	d := newDetectorFS(t, fstest.MapFS{
		"data/licenses.json":      {Data: []byte(meta)},
		"data/texts/BAND-1.0.txt": {Data: []byte(ref)},
	})

	got, err := d.DetectUnit(context.Background(), model.EvidenceUnit{
		OriginPath: "LICENSE", RawText: ref[:len(ref)-1], Kind: model.KindLicenseFile,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("unconfirmed similarity match must be refused, got %+v", got)
	}

	exact, err := d.DetectUnit(context.Background(), model.EvidenceUnit{
		OriginPath: "LICENSE", RawText: ref, Kind: model.KindLicenseFile,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(exact) == 0 || exact[0].Method != model.MethodHash {
		t.Fatalf("identical text must still match exactly, got %+v", exact)
	}
}

func TestDedupeKeepsHighestConfidencePerCategory(t *testing.T) {
	in := []model.DetectedLicense{
		{SPDXID: "MIT", Category: model.CategoryDetected, Confidence: 0.97, SourcePath: "b/LICENSE"},
		{SPDXID: "MIT", Category: model.CategoryDetected, Confidence: 1.0, SourcePath: "a/LICENSE"},
		{SPDXID: "MIT", Category: model.CategoryDeclared, Confidence: 1.0, SourcePath: "package.json"},
	}
	got := detect.Dedupe(in)
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(got), got)
	}
	for _, m := range got {
		if m.Category == model.CategoryDetected && m.Confidence != 1.0 {
			t.Errorf("kept lower-confidence duplicate: %+v", m)
		}
	}
}
