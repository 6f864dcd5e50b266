package mdbook

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	gtext "github.com/yuin/goldmark/text"
)

// Parser turns lightweight-markup chapter source into a Token tree.
//
// Parsing is deterministic: the same bytes with the same Cleaner always yield a
// structurally identical tree. Malformed inline markup (an unclosed emphasis
// delimiter, a dangling bracket) degrades to literal text; the only failures
// are I/O-level: a missing file or invalid UTF-8 input.
type Parser struct {
	cleaner Cleaner
	md      goldmark.Markdown
}

// NewParser creates a Parser with no typographic cleaning.
func NewParser() *Parser {
	return &Parser{
		cleaner: noopCleaner{},
		// Footnote is the only extension: the token model covers CommonMark
		// plus footnotes, and anything outside it must degrade predictably.
		md: goldmark.New(goldmark.WithExtensions(extension.Footnote)),
	}
}

// WithCleaner sets the Cleaner applied to every text run at emission time.
func (p *Parser) WithCleaner(c Cleaner) *Parser {
	if c != nil {
		p.cleaner = c
	}
	return p
}

// ParseFile reads and parses a chapter source file.
// A missing file is ErrFileNotFound, identifying the path.
func (p *Parser) ParseFile(path string) ([]Token, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- chapter path comes from the user's config
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrParse, path, err)
	}
	tokens, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tokens, nil
}

// Parse parses chapter source into an ordered Token sequence.
func (p *Parser) Parse(src []byte) ([]Token, error) {
	if !utf8.Valid(src) {
		return nil, fmt.Errorf("%w: %w", ErrParse, ErrInvalidEncoding)
	}

	root := p.md.Parser().Parse(gtext.NewReader(src))
	return p.convertBlocks(root, src), nil
}

// convertBlocks converts the children of a block container node.
func (p *Parser) convertBlocks(parent ast.Node, src []byte) []Token {
	var out []Token
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = append(out, p.convertBlock(n, src)...)
	}
	return out
}

// convertBlock converts one block-level node. Unknown block kinds degrade to a
// paragraph holding their literal source text.
func (p *Parser) convertBlock(n ast.Node, src []byte) []Token {
	switch b := n.(type) {
	case *ast.Heading:
		return []Token{{
			Kind:     KindHeading,
			Level:    b.Level,
			Children: p.convertInlines(b, src),
		}}

	case *ast.Paragraph:
		return []Token{{Kind: KindParagraph, Children: p.convertInlines(b, src)}}

	case *ast.TextBlock:
		// Paragraph-like content inside tight list items.
		return []Token{{Kind: KindParagraph, Children: p.convertInlines(b, src)}}

	case *ast.Blockquote:
		return []Token{{Kind: KindBlockQuote, Children: p.convertBlocks(b, src)}}

	case *ast.List:
		kind := KindUnorderedList
		start := 0
		if b.IsOrdered() {
			kind = KindOrderedList
			start = b.Start
		}
		var items []Token
		for it := b.FirstChild(); it != nil; it = it.NextSibling() {
			items = append(items, Token{
				Kind:     KindListItem,
				Children: p.convertBlocks(it, src),
			})
		}
		return []Token{{Kind: kind, Start: start, Children: items}}

	case *ast.FencedCodeBlock:
		return []Token{{
			Kind: KindCodeBlock,
			Info: string(b.Language(src)),
			Text: blockLines(b, src),
		}}

	case *ast.CodeBlock:
		return []Token{{Kind: KindCodeBlock, Text: blockLines(b, src)}}

	case *ast.ThematicBreak:
		return []Token{{Kind: KindRule}}

	case *ast.HTMLBlock:
		// Raw HTML is outside the token model; keep it as literal text so no
		// content is silently dropped.
		text := p.cleaner.Clean(blockLines(b, src), true)
		if text == "" {
			return nil
		}
		return []Token{{Kind: KindParagraph, Children: []Token{textToken(text)}}}

	case *east.FootnoteList:
		return p.convertBlocks(b, src)

	case *east.Footnote:
		return []Token{{
			Kind:     KindFootnoteDefinition,
			Index:    b.Index,
			Children: p.convertBlocks(b, src),
		}}

	default:
		// Unknown block container: degrade to its children.
		return p.convertBlocks(n, src)
	}
}

// convertInlines converts the inline children of a block node. firstRun tracks
// whether the next text leaf is the first run in the block, for the Cleaner.
func (p *Parser) convertInlines(parent ast.Node, src []byte) []Token {
	firstRun := true
	return p.convertInlineChildren(parent, src, &firstRun)
}

func (p *Parser) convertInlineChildren(parent ast.Node, src []byte, firstRun *bool) []Token {
	var out []Token
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = append(out, p.convertInline(n, src, firstRun)...)
	}
	return out
}

// convertInline converts one inline node. Unknown inline kinds degrade to
// their children, or to literal text when they carry none.
func (p *Parser) convertInline(n ast.Node, src []byte, firstRun *bool) []Token {
	switch i := n.(type) {
	case *ast.Text:
		raw := string(i.Segment.Value(src))
		var out []Token
		if raw != "" {
			out = append(out, textToken(p.emitText(raw, firstRun)))
		}
		switch {
		case i.HardLineBreak():
			out = append(out, Token{Kind: KindLineBreak})
		case i.SoftLineBreak():
			out = append(out, textToken(" "))
		}
		return out

	case *ast.String:
		raw := string(i.Value)
		if raw == "" {
			return nil
		}
		return []Token{textToken(p.emitText(raw, firstRun))}

	case *ast.Emphasis:
		kind := KindEmphasis
		if i.Level >= 2 {
			kind = KindStrong
		}
		return []Token{{Kind: kind, Children: p.convertInlineChildren(i, src, firstRun)}}

	case *ast.CodeSpan:
		*firstRun = false
		return []Token{{Kind: KindCode, Text: inlineRaw(i, src)}}

	case *ast.Link:
		return []Token{{
			Kind:     KindLink,
			Target:   string(i.Destination),
			Title:    string(i.Title),
			Children: p.convertInlineChildren(i, src, firstRun),
		}}

	case *ast.AutoLink:
		*firstRun = false
		url := string(i.URL(src))
		return []Token{{
			Kind:     KindLink,
			Target:   url,
			Children: []Token{textToken(string(i.Label(src)))},
		}}

	case *ast.Image:
		*firstRun = false
		return []Token{{
			Kind:     KindImage,
			Target:   string(i.Destination),
			Title:    string(i.Title),
			Children: p.convertInlineChildren(i, src, firstRun),
		}}

	case *ast.RawHTML:
		// Inline raw HTML degrades to literal text.
		var raw string
		for s := 0; s < i.Segments.Len(); s++ {
			seg := i.Segments.At(s)
			raw += string(seg.Value(src))
		}
		if raw == "" {
			return nil
		}
		return []Token{textToken(p.emitText(raw, firstRun))}

	case *east.FootnoteLink:
		*firstRun = false
		return []Token{{Kind: KindFootnoteReference, Index: i.Index}}

	case *east.FootnoteBacklink:
		// Renderer-oriented artifact of the footnote extension; not content.
		return nil

	default:
		if n.ChildCount() > 0 {
			return p.convertInlineChildren(n, src, firstRun)
		}
		return nil
	}
}

// emitText runs one text leaf through the Cleaner, consuming first-run status.
func (p *Parser) emitText(raw string, firstRun *bool) string {
	cleaned := p.cleaner.Clean(raw, *firstRun)
	*firstRun = false
	return cleaned
}

// blockLines concatenates the source lines of a block node.
func blockLines(n ast.Node, src []byte) string {
	var out []byte
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		s := lines.At(i)
		out = append(out, s.Value(src)...)
	}
	return string(out)
}

// inlineRaw concatenates the raw text of an inline node's children, without
// cleaning. Used for code spans, which are left unprocessed.
func inlineRaw(parent ast.Node, src []byte) string {
	var out string
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch c := n.(type) {
		case *ast.Text:
			out += string(c.Segment.Value(src))
		case *ast.String:
			out += string(c.Value)
		}
	}
	return out
}
