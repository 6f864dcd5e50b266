package mdbook

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"unicode/utf8"
)

// placeholderPattern matches {{name}} placeholders in configurable templates.
// The mustache-style syntax is kept for config compatibility and rewritten to
// text/template field access before execution.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// expandTemplate expands {{name}} placeholders in tmpl from vars.
//
// Values are substituted verbatim; callers escape them for the target format
// beforehand. An unresolvable placeholder or a non-UTF-8 result is an
// ErrTemplateExpand.
func expandTemplate(tmpl string, vars map[string]string) (string, error) {
	rewritten := placeholderPattern.ReplaceAllString(tmpl, `{{index . "$1"}}`)

	t, err := template.New("tmpl").Option("missingkey=error").Parse(rewritten)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateExpand, err)
	}

	// Reject placeholders absent from vars up front; text/template's
	// missingkey=error does not fire for index on a missing map key.
	for _, m := range placeholderPattern.FindAllStringSubmatch(tmpl, -1) {
		if _, ok := vars[m[1]]; !ok {
			return "", fmt.Errorf("%w: unresolved placeholder %q", ErrTemplateExpand, m[1])
		}
	}

	var b strings.Builder
	if err := t.Execute(&b, vars); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateExpand, err)
	}

	out := b.String()
	if !utf8.ValidString(out) {
		return "", fmt.Errorf("%w: %v", ErrTemplateExpand, ErrInvalidEncoding)
	}
	return out, nil
}
