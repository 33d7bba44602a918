package utils

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"Concurrency Patterns in Go (2026 Edition)", "concurrency-patterns-in-go-2026-edition"},
		{"  leading & trailing  ", "leading-trailing"},
		{"UPPER case", "upper-case"},
		{"---", ""},
		{"", ""},
	}

	for _, tc := range cases {
		if got := Slugify(tc.title); got != tc.want {
			t.Errorf("Slugify(%q) = %q, expected %q", tc.title, got, tc.want)
		}
	}
}

func TestSlugify_Truncates(t *testing.T) {
	long := strings.Repeat("word ", 100)
	slug := Slugify(long)
	if len(slug) > 200 {
		t.Errorf("slug should be truncated to 200 chars, got %d", len(slug))
	}
	if strings.HasSuffix(slug, "-") {
		t.Error("truncated slug should not end with a hyphen")
	}
}

func TestUniqueSlug(t *testing.T) {
	s1 := UniqueSlug("Hello World")
	s2 := UniqueSlug("Hello World")

	if s1 == s2 {
		t.Error("UniqueSlug should produce distinct slugs for the same title")
	}
	if !strings.HasPrefix(s1, "hello-world-") {
		t.Errorf("UniqueSlug should keep the base slug, got %q", s1)
	}
	if got := UniqueSlug(""); got == "" {
		t.Error("UniqueSlug of empty title should still return a slug")
	}
}
