// Package slugs derives and validates URL-safe note identifiers.
//
// Derivation is a pure function of the title: it never consults storage, so
// uniqueness is checked separately at write time (see the notes store).
package slugs

import (
	"regexp"
	"strings"

	"github.com/gosimple/slug"
)

// MaxLength is the maximum slug length in bytes. Derived slugs are
// truncated to this length; longer user-supplied slugs are rejected.
const MaxLength = 100

// User-supplied slugs follow the same rule the web forms historically
// enforced: letters, digits, hyphens and underscores.
var validSlug = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// Generate transliterates and normalizes title into a lowercase URL-safe
// token: non-Latin scripts are transliterated to ASCII, word separators
// become hyphens, and everything else is stripped. Deterministic for a
// given title.
func Generate(title string) string {
	s := slug.Make(title)
	if len(s) > MaxLength {
		s = strings.TrimRight(s[:MaxLength], "-")
	}
	return s
}

// Valid reports whether a user-supplied slug is well-formed. It does not
// check uniqueness.
func Valid(s string) bool {
	if s == "" || len(s) > MaxLength {
		return false
	}
	return validSlug.MatchString(s)
}
