package normalization

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName folds a human-entered name into its comparison form:
// compatibility-normalized, accents stripped, lower-cased, whitespace collapsed.
// Punctuation is kept so "C#", "C++" and ".NET" stay distinct. Idempotent.
func NormalizeName(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	s = stripMarks(s)
	s = cases.Lower(language.Und).String(s)
	return collapseSpace(s)
}

// NormalizeKey is NormalizeName for use as a lookup map key.
func NormalizeKey(s string) string { return NormalizeName(s) }

// SplitTokens splits s on any rune in seps, trims each token and drops empties.
func SplitTokens(s string, seps string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return strings.ContainsRune(seps, r) })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CleanText trims s and collapses inner whitespace without changing case.
func CleanText(s string) string {
	return collapseSpace(s)
}

func stripMarks(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) || r == '\u200b' {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
