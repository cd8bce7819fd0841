package ioutils

import (
	"fmt"
	"hash/fnv"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugStrip     = regexp.MustCompile(`[^\w\s-]`)
	slugHyphenate = regexp.MustCompile(`[-\s]+`)

	// asciiFold decomposes compatibility characters and drops whatever is
	// left outside ASCII, so "Café" becomes "Cafe" and "ﬁ" becomes "fi".
	asciiFold = transform.Chain(
		norm.NFKD,
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)
)

// Slugify normalizes text into a lowercase token that is safe to use as a
// file name and as a URL path segment.
//
// The transformation:
//   - folds Unicode to its closest ASCII form
//   - strips everything that is not a word character, whitespace or hyphen
//   - trims surrounding whitespace and lowercases
//   - collapses runs of whitespace and hyphens into a single hyphen
//
// Slugify is idempotent. Text made only of characters without an ASCII
// form (for example CJK titles) yields "x" followed by an 8 digit hash of
// the input instead of an empty token. Empty or punctuation-only text
// yields "".
//
// Example:
//
//	Slugify("My Album (2024)") // Returns "my-album-2024"
//	Slugify("Café del Mar")    // Returns "cafe-del-mar"
func Slugify(text string) string {
	folded, _, err := transform.String(asciiFold, text)
	if err != nil {
		folded = text
	}

	value := slugStrip.ReplaceAllString(folded, "")
	value = strings.ToLower(strings.TrimSpace(value))
	value = slugHyphenate.ReplaceAllString(value, "-")

	if value == "" && hasWordRune(text) {
		return hashedSlug(text)
	}
	return value
}

// SlugFileName slugifies the base name of a file while preserving its
// extension, e.g. "01 Intro.flac" becomes "01-intro.flac". The result
// never starts with a dot unless name does: a base name that slugs to ""
// is replaced by a hash token.
func SlugFileName(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if base == "" {
		// dotfiles such as ".nomedia" have no base name to slugify
		return name
	}
	slug := Slugify(base)
	if slug == "" {
		// punctuation-only names would otherwise become dotfiles
		slug = hashedSlug(base)
	}
	return slug + ext
}

func hasWordRune(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func hashedSlug(text string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	return fmt.Sprintf("x%08x", h.Sum32())
}
