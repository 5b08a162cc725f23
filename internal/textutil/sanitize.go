package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// FoldDiacritics strips combining marks so "Zuiko Ø" style names stay
// readable in file names on filesystems that mangle non-ASCII.
func FoldDiacritics(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return folded
}

// LensFileStem turns a lens model into the stem of its lensfun XML file:
// unsafe characters removed and whitespace runs collapsed to underscores.
// Returns "lens" for empty input.
func LensFileStem(model string) string {
	cleaned := SanitizeFileName(FoldDiacritics(model))
	stem := strings.Join(strings.Fields(cleaned), "_")
	if stem == "" {
		return "lens"
	}
	return stem
}
