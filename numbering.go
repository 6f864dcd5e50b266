package mdbook

// NumberKind tags how a chapter's title and number are displayed.
type NumberKind int

const (
	// NumberDefault auto-increments the book counter.
	NumberDefault NumberKind = iota
	// NumberUnnumbered shows the title without a number.
	NumberUnnumbered
	// NumberHidden suppresses the title entirely.
	NumberHidden
	// NumberSpecified sets the counter to an explicit value.
	NumberSpecified
)

// Number is a chapter's numbering policy, assigned at chapter-add time and
// immutable afterward.
type Number struct {
	Kind NumberKind
	// N is the explicit chapter number for NumberSpecified.
	N int
}

// Convenience constructors.
var (
	Default    = Number{Kind: NumberDefault}
	Unnumbered = Number{Kind: NumberUnnumbered}
	Hidden     = Number{Kind: NumberHidden}
)

// Specified returns a Number with an explicit value, which becomes the new
// counter baseline.
func Specified(n int) Number {
	return Number{Kind: NumberSpecified, N: n}
}

// chapterNumbering is one chapter's resolved display state.
type chapterNumbering struct {
	// display is the number to show, nil when the chapter is unnumbered.
	display *int
	// showTitle is false only for hidden chapters.
	showTitle bool
}

// resolveNumbering converts the ordered chapter numbering policies into display
// states, continuing numbering from the last explicit value: Specified(5)
// followed by Default chapters continues 6, 7, ...
//
// With numbering disabled, every chapter behaves as Unnumbered regardless of
// its declared policy, except Hidden which still suppresses the title.
// Unnumbered chapters do not advance the counter.
func resolveNumbering(numbers []Number, enabled bool) []chapterNumbering {
	out := make([]chapterNumbering, 0, len(numbers))
	counter := 0

	for _, num := range numbers {
		if num.Kind == NumberHidden {
			out = append(out, chapterNumbering{display: nil, showTitle: false})
			continue
		}
		if !enabled || num.Kind == NumberUnnumbered {
			out = append(out, chapterNumbering{display: nil, showTitle: true})
			continue
		}

		switch num.Kind {
		case NumberSpecified:
			counter = num.N
		default:
			counter++
		}
		n := counter
		out = append(out, chapterNumbering{display: &n, showTitle: true})
	}

	return out
}
