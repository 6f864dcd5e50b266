package mdbook

import (
	"strings"

	"golang.org/x/text/language"
)

// Cleaner normalizes typography on a single text run as the Parser emits it.
//
// firstInLine reports whether the run is the first one in its block; a run that
// follows inline markup (emphasis, a link, ...) in the same block gets false,
// which lets locale rules handle punctuation whose preceding space was swallowed
// by the markup boundary.
//
// Cleaning never fails: unrecognized characters pass through untouched.
// Implementations must be idempotent: Clean(Clean(s)) == Clean(s).
type Cleaner interface {
	Clean(text string, firstInLine bool) string
}

// noopCleaner returns its input unchanged.
type noopCleaner struct{}

func (noopCleaner) Clean(text string, _ bool) string { return text }

// frenchCleaner applies French typographic conventions: a non-breaking-space
// substitute before ? ! ; : » and after «. The substitute character is
// configurable per Book (NbChar).
type frenchCleaner struct {
	nbChar rune
}

// punctuation that takes a leading non-breaking space in French.
const frenchSpacedPunct = "?!;:»"

func (c frenchCleaner) Clean(text string, firstInLine bool) string {
	if text == "" {
		return text
	}

	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text) + 4)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		// An ASCII space directly before spaced punctuation becomes the
		// configured substitute.
		if r == ' ' && i+1 < len(runes) && strings.ContainsRune(frenchSpacedPunct, runes[i+1]) {
			b.WriteRune(c.nbChar)
			continue
		}

		// The space after an opening guillemet becomes the substitute.
		if r == '«' && i+1 < len(runes) && runes[i+1] == ' ' {
			b.WriteRune('«')
			b.WriteRune(c.nbChar)
			i++
			continue
		}

		b.WriteRune(r)
	}

	out := b.String()

	// A run that starts directly with spaced punctuation after inline markup
	// lost its boundary space to the previous run; restore it.
	if !firstInLine && strings.ContainsRune(frenchSpacedPunct, runes[0]) {
		out = string(c.nbChar) + out
	}

	return out
}

// cleanerFor selects the Cleaner for a language tag. French (any region) gets
// the French rules; everything else, or autoclean disabled, is a no-op.
func cleanerFor(lang string, nbChar rune, autoclean bool) Cleaner {
	if !autoclean {
		return noopCleaner{}
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return noopCleaner{}
	}
	base, _ := tag.Base()
	if base.String() == "fr" {
		return frenchCleaner{nbChar: nbChar}
	}
	return noopCleaner{}
}
