package assets

import (
	"strings"

	"github.com/walma-app/walma/internal/content"
)

// Locator is a resolved image location: a URL or a local path.
type Locator string

// absoluteSchemes are passed through untouched. Matching is case-insensitive.
var absoluteSchemes = []string{"http://", "https://", "data:", "file://"}

// Resolver maps image reference tokens to locators under a base path.
type Resolver struct {
	base string
}

// NewResolver returns a resolver rooted at base, which may be a directory
// or a URL prefix.
func NewResolver(base string) Resolver {
	return Resolver{base: strings.TrimRight(base, "/")}
}

// Base returns the configured base.
func (r Resolver) Base() string { return r.base }

// Resolve returns the locator for token. Absolute URLs are returned as they
// are; anything else is joined to the base.
func (r Resolver) Resolve(token string) Locator {
	if IsAbsolute(token) {
		return Locator(token)
	}
	rel := token
	for {
		switch {
		case strings.HasPrefix(rel, "./"):
			rel = rel[2:]
		case strings.HasPrefix(rel, "/"):
			rel = rel[1:]
		default:
			if r.base == "" {
				return Locator(rel)
			}
			return Locator(r.base + "/" + rel)
		}
	}
}

// ResolveParts returns a copy of parts with every image reference resolved.
func (r Resolver) ResolveParts(parts []content.Part) []content.Part {
	out := make([]content.Part, len(parts))
	for i, p := range parts {
		if p.Kind == content.KindImage {
			p.Value = string(r.Resolve(p.Value))
		}
		out[i] = p
	}
	return out
}

// IsAbsolute reports whether token starts with a recognized URL scheme.
func IsAbsolute(token string) bool {
	lower := strings.ToLower(token)
	for _, s := range absoluteSchemes {
		if strings.HasPrefix(lower, s) {
			return true
		}
	}
	return false
}
