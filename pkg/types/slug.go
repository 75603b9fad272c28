package types

import (
	"strings"
	"unicode"
)

// Slugify lower-cases s and joins its alphanumeric runs with single hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// SlugOrDerive validates an explicit slug or derives one from name.
func SlugOrDerive(slug *string, name string) string {
	if slug != nil && strings.TrimSpace(*slug) != "" {
		return Slugify(*slug)
	}
	return Slugify(name)
}
