// Package mdbook compiles a structured plain-text manuscript into publishable
// document formats: EPUB, standalone HTML, LaTeX (with PDF via an external TeX
// command), and ODT.
//
// # Quick Start
//
// Load a manuscript config and render every configured format:
//
//	book, err := mdbook.NewBookFromFile("book.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := book.RenderAll(); err != nil {
//	    log.Fatal(err)
//	}
//
// Or build a Book programmatically:
//
//	book := mdbook.NewBook()
//	book.Title = "My Book"
//	book.OutputHTML = "book.html"
//	if err := book.AddChapter(mdbook.Default, "chapter1.md"); err != nil {
//	    log.Fatal(err)
//	}
//	err := book.RenderAll()
//
// # Compilation Pipeline
//
// The pipeline has four stages:
//
//  1. Chapter sources are parsed (Goldmark) into a format-neutral token tree,
//     with locale typographic cleaning applied to text runs as they are emitted.
//  2. Chapter numbering policies are resolved into display numbers and titles.
//  3. Each requested renderer walks the same token trees, escaping text for
//     its target grammar.
//  4. Artifacts are placed atomically: a text buffer for HTML and LaTeX, a ZIP
//     container for EPUB and ODT.
//
// Renderers receive a read-only view of the Book, so requested formats render
// in parallel with no shared mutable state.
//
// # Configuration
//
// Manuscripts are described by a config file in either the line-oriented
// syntax:
//
//	title: My Book
//	author: Jane Doe
//	output_epub: book.epub
//
//	+ chapter1.md
//	- preface.md
//	5. chapter5.md
//
// or an equivalent YAML file (selected by .yaml/.yml extension). Chapter
// markers: + numbered, - unnumbered, ! hidden, N. explicitly numbered.
//
// # Templates and Stylesheets
//
// Built-in defaults for the HTML page template, EPUB chapter template and both
// stylesheets are embedded in the binary; each can be overridden by a file
// path in the config. A configured override that is missing is an error, not
// a silent fallback.
package mdbook
