package megadoc

import (
	"regexp"
	"strings"
)

var (
	invalidSlugPattern = regexp.MustCompile(`[^a-z0-9-]`)
	multiHyphenPattern = regexp.MustCompile(`-+`)
)

const maxSlugLen = 60

// Slug turns an arbitrary search string into a filesystem/URL-safe stem:
// lowercased, spaces/slashes/underscores collapsed to single hyphens, and
// truncated to maxSlugLen.
func Slug(s string) string {
	slug := strings.ToLower(strings.TrimSpace(s))

	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "/", "-")
	slug = strings.ReplaceAll(slug, "_", "-")

	slug = invalidSlugPattern.ReplaceAllString(slug, "-")
	slug = multiHyphenPattern.ReplaceAllString(slug, "-")

	slug = strings.Trim(slug, "-")

	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "-")
	}

	if slug == "" {
		return "untitled"
	}
	return slug
}
