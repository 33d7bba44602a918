package utils

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Slugify derives a URL-safe slug from a title: lowercase, runs of
// non-alphanumerics collapsed to single hyphens, trimmed.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > 200 {
		slug = strings.Trim(slug[:200], "-")
	}
	return slug
}

// UniqueSlug appends a short random suffix, used when the plain slug
// collides with an existing article.
func UniqueSlug(title string) string {
	base := Slugify(title)
	suffix := uuid.NewString()[:8]
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
