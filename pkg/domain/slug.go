package domain

import "strings"

// Slugify derives a deterministic slug from a display name: lowercased,
// runs of non-alphanumeric characters collapsed to a single hyphen,
// leading and trailing hyphens trimmed. The same name always yields the
// same slug, which makes get-or-create by slug idempotent.
func Slugify(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	prevHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen {
				sb.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.Trim(sb.String(), "-")
}
