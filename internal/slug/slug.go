// Package slug derives URL-safe article identifiers from titles.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9-]+`)
	multiHyphen     = regexp.MustCompile(`-{2,}`)
)

// Make converts a title into a lowercase, hyphenated ASCII slug.
// Accented characters are folded to their base form; anything that is
// not a letter or digit becomes a hyphen.
func Make(title string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	s, _, _ := transform.String(t, title)

	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '-'
	}, s)

	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multiHyphen.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
