package mdbook

// TokenKind identifies the structural or inline element a Token represents.
type TokenKind int

// Block-level and inline token kinds.
const (
	// Block-level kinds.
	KindParagraph TokenKind = iota
	KindHeading
	KindUnorderedList
	KindOrderedList
	KindListItem
	KindBlockQuote
	KindCodeBlock
	KindRule
	KindFootnoteDefinition

	// Inline kinds.
	KindText
	KindEmphasis
	KindStrong
	KindCode
	KindLink
	KindImage
	KindLineBreak
	KindFootnoteReference
)

// Token is one node of the format-neutral document tree produced by the Parser.
//
// Tokens form a strict tree: children are owned exclusively by their parent and
// are never shared or aliased. Only KindText and KindCode tokens carry raw
// characters; every other text-bearing token bottoms out at such leaves.
// Tokens are built once by the Parser and never mutated afterward; renderers
// perform read-only traversal. Two trees are equal iff their kinds, fields and
// children match recursively (reflect.DeepEqual works).
type Token struct {
	Kind     TokenKind
	Children []Token

	// Text holds raw characters for KindText, the code content for
	// KindCodeBlock/KindCode, and is unused otherwise.
	Text string

	// Level is the heading level (1-6) for KindHeading.
	Level int

	// Start is the first item number for KindOrderedList.
	Start int

	// Info is the language info string for KindCodeBlock.
	Info string

	// Target is the link destination for KindLink or the image source for
	// KindImage. Title is the optional link/image title.
	Target string
	Title  string

	// Index identifies the footnote for KindFootnoteReference and
	// KindFootnoteDefinition. Indices are 1-based in source order.
	Index int
}

// textToken returns a plain text leaf.
func textToken(s string) Token {
	return Token{Kind: KindText, Text: s}
}

// PlainText flattens the token's text leaves into a single string, without any
// markup. Used for navigation labels and alt text.
func (t Token) PlainText() string {
	if t.Kind == KindText || t.Kind == KindCode {
		return t.Text
	}
	var out string
	for _, c := range t.Children {
		out += c.PlainText()
	}
	return out
}

// plainText flattens a token sequence.
func plainText(tokens []Token) string {
	var out string
	for _, t := range tokens {
		out += t.PlainText()
	}
	return out
}
