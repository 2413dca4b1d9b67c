// internal/copyright/copyright_test.go
package copyright_test

import (
	"reflect"
	"testing"

	"github.com/dsablic/licet/internal/copyright"
	"github.com/dsablic/licet/internal/model"
)

func TestExtractYearRange(t *testing.T) {
	got := copyright.Extract("Copyright (c) 2020-2023 Example Corp", "LICENSE")
	if len(got) != 1 {
		t.Fatalf("expected 1 statement, got %d: %+v", len(got), got)
	}
	c := got[0]
	if c.Holder != "Example Corp" {
		t.Errorf("holder = %q, want %q", c.Holder, "Example Corp")
	}
	if want := []int{2020, 2021, 2022, 2023}; !reflect.DeepEqual(c.Years, want) {
		t.Errorf("years = %v, want %v", c.Years, want)
	}
	if c.Confidence < 0.9 {
		t.Errorf("confidence = %v, want >= 0.9", c.Confidence)
	}
	if c.SourcePath != "LICENSE" {
		t.Errorf("source path = %q", c.SourcePath)
	}
}

func TestExtractYearList(t *testing.T) {
	got := copyright.Extract("# Copyright 2019, 2021 Jane Doe", "main.py")
	if len(got) != 1 {
		t.Fatalf("expected 1 statement, got %d: %+v", len(got), got)
	}
	if got[0].Holder != "Jane Doe" {
		t.Errorf("holder = %q", got[0].Holder)
	}
	if want := []int{2019, 2021}; !reflect.DeepEqual(got[0].Years, want) {
		t.Errorf("years = %v, want %v", got[0].Years, want)
	}
}

func TestExtractNoYears(t *testing.T) {
	got := copyright.Extract("© Acme Widgets Inc.", "README.md")
	if len(got) != 1 {
		t.Fatalf("expected 1 statement, got %d: %+v", len(got), got)
	}
	if got[0].Holder != "Acme Widgets Inc" {
		t.Errorf("holder = %q", got[0].Holder)
	}
	if len(got[0].Years) != 0 {
		t.Errorf("years = %v, want none", got[0].Years)
	}
	if got[0].Confidence >= 0.95 {
		t.Errorf("year-less statement should rank below dated ones, got %v", got[0].Confidence)
	}
}

func TestExtractStripsAllRightsReserved(t *testing.T) {
	got := copyright.Extract("Copyright (c) 2024 Example Corp. All rights reserved.", "LICENSE")
	if len(got) != 1 {
		t.Fatalf("expected 1 statement, got %d: %+v", len(got), got)
	}
	if got[0].Holder != "Example Corp" {
		t.Errorf("holder = %q, want %q", got[0].Holder, "Example Corp")
	}
}

func TestExtractRejectsPlaceholdersAndProse(t *testing.T) {
	inputs := []string{
		"Copyright YYYY Name",
		"Copyright (c) <year> <owner>",
		"The above copyright notice and this permission notice shall be included",
		"Copyright 2020 https://example.com",
		"Copyright (c) 2020 <dev@example.com>",
		"",
	}
	for _, in := range inputs {
		if got := copyright.Extract(in, "x"); len(got) != 0 {
			t.Errorf("Extract(%q) = %+v, want none", in, got)
		}
	}
}

func TestExtractAuthorLine(t *testing.T) {
	got := copyright.Extract("// Author: Jane Doe\nfunc main() {}", "main.go")
	if len(got) != 1 {
		t.Fatalf("expected 1 statement, got %d: %+v", len(got), got)
	}
	if got[0].Holder != "Jane Doe" {
		t.Errorf("holder = %q", got[0].Holder)
	}
	if got[0].Confidence != 0.7 {
		t.Errorf("confidence = %v, want 0.7", got[0].Confidence)
	}
}

func TestMergeUnionsYears(t *testing.T) {
	in := []model.CopyrightStatement{
		{Holder: "Example Corp", Years: []int{2020, 2021}, Confidence: 0.95},
		{Holder: "example  corp", Years: []int{2021, 2023}, Confidence: 0.85},
		{Holder: "Other Co", Years: []int{2019}, Confidence: 0.95},
	}
	got := copyright.Merge(in)
	if len(got) != 2 {
		t.Fatalf("expected 2 merged statements, got %d: %+v", len(got), got)
	}
	if got[0].Holder != "Example Corp" {
		t.Fatalf("merged[0].Holder = %q", got[0].Holder)
	}
	if want := []int{2020, 2021, 2023}; !reflect.DeepEqual(got[0].Years, want) {
		t.Errorf("merged years = %v, want %v", got[0].Years, want)
	}
	if got[0].Confidence != 0.95 {
		t.Errorf("merged confidence = %v, want 0.95", got[0].Confidence)
	}
	if got[1].Holder != "Other Co" {
		t.Errorf("merged[1].Holder = %q", got[1].Holder)
	}
}
