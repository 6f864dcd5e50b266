package mdbook

import "strings"

// htmlEscaper escapes text for HTML and XML text/attribute content. Covers the
// five XML-significant characters so the same function serves HTML, XHTML
// (EPUB) and ODF (ODT) output.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// escapeHTML escapes raw text for insertion into HTML or XML markup.
func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// escapeLaTeX escapes raw text for insertion into LaTeX source. All ten
// reserved characters are mapped to literal-safe sequences; plain ASCII
// letters pass through untouched.
func escapeLaTeX(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\textbackslash{}`)
		case '{':
			b.WriteString(`\{`)
		case '}':
			b.WriteString(`\}`)
		case '$':
			b.WriteString(`\$`)
		case '&':
			b.WriteString(`\&`)
		case '#':
			b.WriteString(`\#`)
		case '%':
			b.WriteString(`\%`)
		case '_':
			b.WriteString(`\_`)
		case '~':
			b.WriteString(`\textasciitilde{}`)
		case '^':
			b.WriteString(`\textasciicircum{}`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
