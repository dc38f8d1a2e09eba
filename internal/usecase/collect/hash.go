package collect

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var titleSpaceRe = regexp.MustCompile(`\s+`)

// NormalizeTitle standardizes a title before hashing: lowercase, collapsed
// whitespace, trimmed. Case and spacing differences in otherwise identical
// headlines must not defeat deduplication.
func NormalizeTitle(title string) string {
	title = strings.ToLower(strings.TrimSpace(title))
	return titleSpaceRe.ReplaceAllString(title, " ")
}

// ContentHash derives the dedup identity of an item:
// sha256 of the normalized title joined with the item URL.
// The URL is included verbatim; the same headline on two distinct pages is
// two distinct items.
func ContentHash(title, url string) string {
	sum := sha256.Sum256([]byte(NormalizeTitle(title) + "|" + url))
	return hex.EncodeToString(sum[:])
}

// TitleHash hashes only the normalized title. It is stored alongside the
// content hash for cross-source near-duplicate analysis.
func TitleHash(title string) string {
	sum := sha256.Sum256([]byte(NormalizeTitle(title)))
	return hex.EncodeToString(sum[:])
}
