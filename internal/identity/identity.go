// Package identity derives canonical candidate keys from display names and
// resume filenames. The key is the join point between ATS candidate records
// and local resume files, which share no numeric identifier.
package identity

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// Filler tokens that show up in resume filenames but carry no identity.
var fillerTokens = map[string]struct{}{
	"resume":  {},
	"cv":      {},
	"final":   {},
	"updated": {},
	"copy":    {},
	"new":     {},
}

var (
	parentheticalRe = regexp.MustCompile(`\([^)]*\)`)
	yearTokenRe     = regexp.MustCompile(`^(19|20)\d{2}$`)
	canonicalRe     = regexp.MustCompile(`^[a-z]+(_[a-z]+)*$`)
)

// Normalize maps a raw display name or filename stem to the canonical
// lastname_firstname key: lowercase letters and underscores only. It is total
// (never fails) and idempotent; a canonical key free of filler tokens is
// returned as is. A canonical-looking stem that still carries filler
// ("jane_doe_resume") is a filename, not a key, and goes through the full
// derivation.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if canonicalRe.MatchString(raw) {
		toks := strings.Split(raw, "_")
		kept := make([]string, 0, len(toks))
		for _, tok := range toks {
			if _, filler := fillerTokens[tok]; filler {
				continue
			}
			kept = append(kept, tok)
		}
		if len(kept) == len(toks) {
			return raw
		}
		raw = strings.Join(kept, " ")
	}

	cleaned := parentheticalRe.ReplaceAllString(raw, " ")
	cleaned = splitCamelCase(cleaned)

	// Hyphens, dots and underscores are equivalent separators.
	cleaned = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, cleaned)

	parts := make([]string, 0, 4)
	for _, tok := range strings.Fields(cleaned) {
		lower := strings.ToLower(tok)
		if _, filler := fillerTokens[lower]; filler {
			continue
		}
		if yearTokenRe.MatchString(lower) {
			continue
		}
		letters := stripNonAlpha(lower)
		if letters == "" {
			continue
		}
		parts = append(parts, letters)
	}

	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		surname := parts[len(parts)-1]
		given := strings.Join(parts[:len(parts)-1], "_")
		return surname + "_" + given
	}
}

// FromFilename derives the candidate key from a resume filename, dropping the
// extension before normalizing.
func FromFilename(filename string) string {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return Normalize(stem)
}

// DisplayName formats a canonical key back into "First Last" for logs and
// notes. Best effort: the key is lossy, so casing is synthesized.
func DisplayName(key string) string {
	parts := strings.Split(key, "_")
	if len(parts) < 2 {
		return titleCase(key)
	}
	given := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		given = append(given, titleCase(p))
	}
	return strings.Join(given, " ") + " " + titleCase(parts[0])
}

func splitCamelCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func stripNonAlpha(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
