package utils

import "strings"

// GenerateSlug lowercases name and joins its letters and digits with
// hyphens. Non-ASCII letters are kept.
func GenerateSlug(name string) string {
	var b strings.Builder
	dash := false
	for _, ch := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9', ch > 127:
			b.WriteRune(ch)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
