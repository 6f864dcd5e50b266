package mdbook

import (
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// HTMLRenderer renders the book to one self-contained HTML5 buffer: every
// chapter in order, wrapped by the HTML page template with the stylesheet
// inlined.
type HTMLRenderer struct{}

// Render implements Renderer.
func (r *HTMLRenderer) Render(book *Book) (Artifact, error) {
	plans, err := chapterPlans(book)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	tmpl, err := book.template("html_template")
	if err != nil {
		return nil, err
	}
	css, err := book.template("html_css")
	if err != nil {
		return nil, err
	}

	w := &htmlWriter{highlight: true}
	var body strings.Builder
	for i, plan := range plans {
		w.fnPrefix = fmt.Sprintf("fn-%d-", i+1)
		body.WriteString(w.renderChapter(plan))
	}

	vars := book.metadataVars("html")
	vars["style"] = css
	vars["content"] = body.String()

	page, err := expandTemplate(tmpl, vars)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return TextArtifact{Content: page}, nil
}

// htmlWriter walks a token tree and emits HTML (or XHTML) markup.
// It owns the HTML escaping discipline: escaping applies to leaf text and
// interpolated metadata only, never to already-emitted markup.
type htmlWriter struct {
	// highlight enables chroma syntax highlighting for fenced code blocks.
	highlight bool
	// xhtml emits self-closing void elements for EPUB chapter documents.
	xhtml bool
	// fnPrefix namespaces footnote anchors so ids stay unique when several
	// chapters share one page.
	fnPrefix string
	// imageSrc rewrites an image target before emission; container renderers
	// use it to embed local files. nil keeps targets as written. An error is
	// recorded in err and surfaced after the walk.
	imageSrc func(target string) (string, error)
	// err is the first image resolution failure met during the walk.
	err error
}

// renderChapter renders one resolved chapter: header first (skipped for
// hidden chapters), then body, with footnote definitions gathered at the end.
func (w *htmlWriter) renderChapter(plan chapterRender) string {
	var b strings.Builder
	var footnotes []Token

	headerDone := false
	for _, t := range plan.Tokens {
		if t.Kind == KindHeading && t.Level == 1 && !headerDone {
			headerDone = true
			if !plan.ShowTitle {
				continue
			}
			b.WriteString(`<h1 class="chapter">`)
			b.WriteString(escapeHTML(plan.Header))
			b.WriteString("</h1>\n")
			continue
		}
		if t.Kind == KindFootnoteDefinition {
			footnotes = append(footnotes, t)
			continue
		}
		w.renderBlock(&b, t)
	}

	if len(footnotes) > 0 {
		b.WriteString(`<div class="footnotes">` + "\n<ol>\n")
		for _, fn := range footnotes {
			fmt.Fprintf(&b, `<li id="%sdef-%d">`+"\n", w.fnPrefix, fn.Index)
			for _, c := range fn.Children {
				w.renderBlock(&b, c)
			}
			b.WriteString("</li>\n")
		}
		b.WriteString("</ol>\n</div>\n")
	}

	return b.String()
}

func (w *htmlWriter) renderBlocks(b *strings.Builder, tokens []Token) {
	for _, t := range tokens {
		w.renderBlock(b, t)
	}
}

func (w *htmlWriter) renderBlock(b *strings.Builder, t Token) {
	switch t.Kind {
	case KindParagraph:
		b.WriteString("<p>")
		w.renderInlines(b, t.Children)
		b.WriteString("</p>\n")

	case KindHeading:
		fmt.Fprintf(b, "<h%d>", t.Level)
		w.renderInlines(b, t.Children)
		fmt.Fprintf(b, "</h%d>\n", t.Level)

	case KindUnorderedList:
		b.WriteString("<ul>\n")
		w.renderBlocks(b, t.Children)
		b.WriteString("</ul>\n")

	case KindOrderedList:
		if t.Start > 1 {
			fmt.Fprintf(b, "<ol start=\"%d\">\n", t.Start)
		} else {
			b.WriteString("<ol>\n")
		}
		w.renderBlocks(b, t.Children)
		b.WriteString("</ol>\n")

	case KindListItem:
		b.WriteString("<li>")
		w.renderBlocks(b, t.Children)
		b.WriteString("</li>\n")

	case KindBlockQuote:
		b.WriteString("<blockquote>\n")
		w.renderBlocks(b, t.Children)
		b.WriteString("</blockquote>\n")

	case KindCodeBlock:
		w.renderCodeBlock(b, t)

	case KindRule:
		if w.xhtml {
			b.WriteString("<hr />\n")
		} else {
			b.WriteString("<hr>\n")
		}

	case KindFootnoteDefinition:
		// Hoisted by renderChapter; reaching one nested elsewhere renders its
		// content in place rather than dropping it.
		w.renderBlocks(b, t.Children)

	default:
		// Inline token at block level (degraded content): wrap in a paragraph.
		b.WriteString("<p>")
		w.renderInlines(b, []Token{t})
		b.WriteString("</p>\n")
	}
}

func (w *htmlWriter) renderInlines(b *strings.Builder, tokens []Token) {
	for _, t := range tokens {
		w.renderInline(b, t)
	}
}

func (w *htmlWriter) renderInline(b *strings.Builder, t Token) {
	switch t.Kind {
	case KindText:
		b.WriteString(escapeHTML(t.Text))

	case KindEmphasis:
		b.WriteString("<em>")
		w.renderInlines(b, t.Children)
		b.WriteString("</em>")

	case KindStrong:
		b.WriteString("<strong>")
		w.renderInlines(b, t.Children)
		b.WriteString("</strong>")

	case KindCode:
		b.WriteString("<code>")
		b.WriteString(escapeHTML(t.Text))
		b.WriteString("</code>")

	case KindLink:
		fmt.Fprintf(b, `<a href="%s"`, escapeHTML(t.Target))
		if t.Title != "" {
			fmt.Fprintf(b, ` title="%s"`, escapeHTML(t.Title))
		}
		b.WriteString(">")
		w.renderInlines(b, t.Children)
		b.WriteString("</a>")

	case KindImage:
		alt := plainText(t.Children)
		src := t.Target
		if w.imageSrc != nil {
			resolved, err := w.imageSrc(t.Target)
			if err != nil {
				if w.err == nil {
					w.err = err
				}
				return
			}
			src = resolved
		}
		fmt.Fprintf(b, `<img src="%s" alt="%s"`, escapeHTML(src), escapeHTML(alt))
		if t.Title != "" {
			fmt.Fprintf(b, ` title="%s"`, escapeHTML(t.Title))
		}
		if w.xhtml {
			b.WriteString(" />")
		} else {
			b.WriteString(">")
		}

	case KindLineBreak:
		if w.xhtml {
			b.WriteString("<br />\n")
		} else {
			b.WriteString("<br>\n")
		}

	case KindFootnoteReference:
		fmt.Fprintf(b, `<sup class="footnote" id="%sref-%d"><a href="#%sdef-%d">%d</a></sup>`,
			w.fnPrefix, t.Index, w.fnPrefix, t.Index, t.Index)

	default:
		// Block token in inline position should not happen; render its text.
		b.WriteString(escapeHTML(t.PlainText()))
	}
}

// renderCodeBlock emits a fenced code block, syntax-highlighted with chroma
// when enabled and a lexer matches the info string. Highlighting failures
// degrade to the plain escaped form.
func (w *htmlWriter) renderCodeBlock(b *strings.Builder, t Token) {
	if w.highlight && t.Info != "" {
		if lexer := lexers.Get(t.Info); lexer != nil {
			iterator, err := lexer.Tokenise(nil, t.Text)
			if err == nil {
				formatter := chromahtml.New(chromahtml.WithClasses(false))
				var hb strings.Builder
				if err := formatter.Format(&hb, styles.Get("github"), iterator); err == nil {
					b.WriteString(hb.String())
					b.WriteString("\n")
					return
				}
			}
		}
	}

	b.WriteString("<pre><code")
	if t.Info != "" {
		fmt.Fprintf(b, ` class="language-%s"`, escapeHTML(t.Info))
	}
	b.WriteString(">")
	b.WriteString(escapeHTML(t.Text))
	b.WriteString("</code></pre>\n")
}
