package normalize_test

import (
	"testing"

	"github.com/dsablic/licet/internal/normalize"
)

func TestNormalizeLowercasesAndCollapses(t *testing.T) {
	got := normalize.Normalize("Permission  is\thereby\n\nGranted")
	want := "permission is hereby granted"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeStripsCopyrightLines(t *testing.T) {
	in := "MIT License\n\nCopyright (c) 2024 Example Corp\n\nPermission is hereby granted."
	got := normalize.Normalize(in)
	want := "mit license permission is hereby granted"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeKeepsMidSentenceCopyright(t *testing.T) {
	in := "The above copyright notice shall be included."
	got := normalize.Normalize(in)
	want := "the above copyright notice shall be included"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeRemovesURLsAndPlaceholders(t *testing.T) {
	in := "See http://www.apache.org/licenses/LICENSE-2.0 for [yyyy] details"
	got := normalize.Normalize(in)
	want := "see for details"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	if got := normalize.Normalize(""); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
	if got := normalize.Normalize("   \n\t  "); got != "" {
		t.Errorf("expected empty output for whitespace, got %q", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"MIT License",
		"Copyright (c) 2024 Example\nPermission is hereby granted, free of charge.",
		"Licensed under the Apache License, Version 2.0 (the \"License\");",
		"* (c) 2001-2002 Somebody <some@example.com>\n* All rights reserved.\nRedistribution and use permitted.",
		"weird   spacing\t\tand [year] <organization> tokens",
	}
	for _, in := range inputs {
		once := normalize.Normalize(in)
		twice := normalize.Normalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
