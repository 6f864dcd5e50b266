package mdbook

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/alnah/go-mdbook/internal/assets"
)

// Chapter is one manuscript unit: a numbering policy plus the parsed token
// tree of its source file.
type Chapter struct {
	Number Number
	Tokens []Token
}

// Book holds manuscript metadata, options and the ordered chapter list.
//
// A Book is built once by the config layer (or programmatically), then passed
// by reference to each renderer. Renderers treat it as read-only, which is what
// makes rendering multiple formats in parallel safe.
type Book struct {
	// Metadata.
	Lang        string
	Author      string
	Title       string
	Description string // optional
	Subject     string // optional
	Cover       string // optional path to a cover image

	// Output paths; empty means the format is not rendered.
	OutputEpub string
	OutputHTML string
	OutputTex  string
	OutputPDF  string
	OutputOdt  string

	// Options.
	Numbering         bool // global chapter numbering switch
	Autoclean         bool // typographic cleaning during parsing
	NbChar            rune // non-breaking-space substitute for locale cleaning
	NumberingTemplate string

	// LaTeX.
	TexCommand string
	TempDir    string // parent for the compilation scratch directory; empty means the OS default

	// EPUB.
	EpubCSS      string // optional stylesheet override path
	EpubTemplate string // optional chapter template override path
	EpubVersion  int    // 2 or 3

	// HTML.
	HTMLTemplate string // optional page template override path
	HTMLCSS      string // optional stylesheet override path

	Chapters []Chapter
}

// NewBook creates a Book with default options.
func NewBook() *Book {
	return &Book{
		Lang:              "en",
		Author:            "Anonymous",
		Title:             "Untitled",
		Numbering:         true,
		Autoclean:         true,
		NbChar:            ' ',
		NumberingTemplate: "{{number}}. {{title}}",
		TexCommand:        "pdflatex",
		EpubVersion:       2,
	}
}

// AddChapter parses the chapter source file with the book's cleaner and
// appends it with the given numbering policy. The policy is fixed at add time.
func (b *Book) AddChapter(number Number, path string) error {
	tokens, err := NewParser().WithCleaner(b.cleaner()).ParseFile(path)
	if err != nil {
		return err
	}
	b.Chapters = append(b.Chapters, Chapter{Number: number, Tokens: tokens})
	return nil
}

// cleaner returns the typographic cleaner matching the book's language.
func (b *Book) cleaner() Cleaner {
	return cleanerFor(b.Lang, b.NbChar, b.Autoclean)
}

// header expands the numbering template for a chapter number and title.
// The title is substituted raw; renderers escape the expanded result for
// their target format.
func (b *Book) header(n int, title string) (string, error) {
	return expandTemplate(b.NumberingTemplate, map[string]string{
		"number": strconv.Itoa(n),
		"title":  title,
	})
}

// metadataVars returns the author/title/lang variable map for templating,
// escaped for the target format ("none", "html" or "tex"). The same raw
// metadata string never reaches any output unescaped.
func (b *Book) metadataVars(format string) map[string]string {
	esc := func(s string) string { return s }
	switch format {
	case "none":
	case "html":
		esc = escapeHTML
	case "tex":
		esc = escapeLaTeX
	default:
		panic("mdbook: metadataVars called with invalid escape format")
	}
	return map[string]string{
		"author": esc(b.Author),
		"title":  esc(b.Title),
		"lang":   b.Lang,
	}
}

// template returns the named template or stylesheet: the configured override
// file when one is set (a missing override is ErrFileNotFound, not a silent
// fallback), otherwise the built-in default.
func (b *Book) template(name string) (string, error) {
	var override, styleName, templateName string
	switch name {
	case "epub_css":
		override, styleName = b.EpubCSS, "epub"
	case "epub_template":
		override = b.EpubTemplate
		if b.EpubVersion == 3 {
			templateName = "epub3_chapter.xhtml"
		} else {
			templateName = "epub2_chapter.xhtml"
		}
	case "html_css":
		override, styleName = b.HTMLCSS, "html"
	case "html_template":
		override, templateName = b.HTMLTemplate, "html_page.html"
	default:
		return "", fmt.Errorf("%w: invalid template %q", ErrConfigParse, name)
	}

	if override != "" {
		data, err := os.ReadFile(override) // #nosec G304 -- override path comes from the user's config
		if err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("%w: %s", ErrFileNotFound, override)
			}
			return "", fmt.Errorf("reading %s: %w", override, err)
		}
		return string(data), nil
	}
	if styleName != "" {
		return assets.LoadStyle(styleName)
	}
	return assets.LoadTemplate(templateName)
}

// renderJob is one configured output format.
type renderJob struct {
	format string
	path   string
	run    func(path string) error
}

// jobs returns a render job per configured output path.
func (b *Book) jobs() []renderJob {
	var out []renderJob
	if b.OutputEpub != "" {
		out = append(out, renderJob{"epub", b.OutputEpub, b.RenderEpub})
	}
	if b.OutputHTML != "" {
		out = append(out, renderJob{"html", b.OutputHTML, b.RenderHTML})
	}
	if b.OutputTex != "" {
		out = append(out, renderJob{"tex", b.OutputTex, b.RenderTex})
	}
	if b.OutputPDF != "" {
		out = append(out, renderJob{"pdf", b.OutputPDF, b.RenderPDF})
	}
	if b.OutputOdt != "" {
		out = append(out, renderJob{"odt", b.OutputOdt, b.RenderOdt})
	}
	return out
}

// Formats returns the names of the formats with a configured output path, in
// render order.
func (b *Book) Formats() []string {
	jobs := b.jobs()
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.format
	}
	return out
}

// RenderAll renders every format whose output path is configured.
//
// Formats render in parallel: each renderer gets a read-only view of the same
// Book and writes to its own destination, so no locking is needed beyond the
// final join. A failure in one format does not prevent the others from being
// attempted; all failures are reported together, each identifying its format.
// With no output path configured at all, RenderAll performs no writes and
// returns ErrNoOutput so the caller can warn.
func (b *Book) RenderAll() error {
	jobs := b.jobs()
	if len(jobs) == 0 {
		return ErrNoOutput
	}

	errs := make([]error, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job renderJob) {
			defer wg.Done()
			if err := job.run(job.path); err != nil {
				errs[i] = fmt.Errorf("%s: %w", job.format, err)
			}
		}(i, job)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// RenderFormat renders a single format ("epub", "html", "tex", "pdf", "odt")
// to its configured output path.
func (b *Book) RenderFormat(format string) error {
	for _, job := range b.jobs() {
		if job.format == format {
			return job.run(job.path)
		}
	}
	return fmt.Errorf("%w: no output path for format %q", ErrNoOutput, format)
}

// RenderHTML renders the book to a standalone HTML file at path.
func (b *Book) RenderHTML(path string) error {
	artifact, err := (&HTMLRenderer{}).Render(b)
	if err != nil {
		return err
	}
	return artifact.WriteFile(path)
}

// RenderTex renders the book to a LaTeX source file at path.
func (b *Book) RenderTex(path string) error {
	artifact, err := (&LatexRenderer{}).Render(b)
	if err != nil {
		return err
	}
	return artifact.WriteFile(path)
}

// RenderPDF renders the book to PDF at path by compiling the LaTeX source with
// the configured TeX command.
func (b *Book) RenderPDF(path string) error {
	return (&LatexRenderer{}).RenderPDF(b, path)
}

// RenderEpub renders the book to an EPUB container at path.
func (b *Book) RenderEpub(path string) error {
	artifact, err := (&EpubRenderer{}).Render(b)
	if err != nil {
		return err
	}
	return artifact.WriteFile(path)
}

// RenderOdt renders the book to an ODT container at path.
func (b *Book) RenderOdt(path string) error {
	artifact, err := (&OdtRenderer{}).Render(b)
	if err != nil {
		return err
	}
	return artifact.WriteFile(path)
}
