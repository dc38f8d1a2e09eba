// Package match resolves free-text business names extracted during
// classification to canonical registry entries, first by an exact
// case-insensitive lookup and then by a fuzzy similarity scan over a
// cached, community-scoped candidate set.
package match

import (
	"regexp"
	"strings"
)

// corporateSuffixRe matches one trailing corporate suffix token with an
// optional trailing period: "joe's pizza llc", "acme co.".
var corporateSuffixRe = regexp.MustCompile(`\s+(inc|llc|ltd|corp|co|company)\.?$`)

// nonWordRe strips everything except word characters and spaces.
var nonWordRe = regexp.MustCompile(`[^\w\s]`)

// multiSpaceRe collapses runs of whitespace.
var multiSpaceRe = regexp.MustCompile(`\s+`)

// NormalizeName standardizes a business name for fuzzy comparison:
//  1. lowercase
//  2. strip one trailing corporate suffix token (inc/llc/ltd/corp/co/company)
//  3. strip non-word, non-space characters
//  4. collapse internal whitespace
//  5. trim
//
// The function is idempotent: NormalizeName(NormalizeName(x)) == NormalizeName(x).
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}

	name = corporateSuffixRe.ReplaceAllString(name, "")
	name = nonWordRe.ReplaceAllString(name, "")
	name = multiSpaceRe.ReplaceAllString(name, " ")

	return strings.TrimSpace(name)
}
