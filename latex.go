package mdbook

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/alnah/go-mdbook/internal/fileutil"
)

// CommandRunner abstracts external command execution so PDF generation can be
// tested without a TeX installation.
type CommandRunner interface {
	Run(dir, name string, args ...string) (stdout string, stderr string, err error)
}

// execRunner implements CommandRunner using os/exec.
type execRunner struct{}

func (execRunner) Run(dir, name string, args ...string) (string, string, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// LatexRenderer renders the book to LaTeX source, and to PDF by handing the
// source to an external TeX command.
type LatexRenderer struct {
	// Runner runs the TeX command; nil means os/exec.
	Runner CommandRunner

	// footnotes maps the current chapter's definition indices to their
	// content, so references can inline the text the way LaTeX expects.
	footnotes map[int][]Token
}

// Render implements Renderer, producing a single LaTeX source buffer.
func (r *LatexRenderer) Render(book *Book) (Artifact, error) {
	plans, err := chapterPlans(book)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	var b strings.Builder
	b.WriteString("\\documentclass[a4paper,11pt]{book}\n")
	b.WriteString("\\usepackage[utf8]{inputenc}\n")
	b.WriteString("\\usepackage[T1]{fontenc}\n")
	b.WriteString("\\usepackage{graphicx}\n")
	b.WriteString("\\usepackage{hyperref}\n")
	if strings.HasPrefix(strings.ToLower(book.Lang), "fr") {
		b.WriteString("\\usepackage[french]{babel}\n")
	}
	fmt.Fprintf(&b, "\\title{%s}\n", escapeLaTeX(book.Title))
	fmt.Fprintf(&b, "\\author{%s}\n", escapeLaTeX(book.Author))
	b.WriteString("\\begin{document}\n\\maketitle\n\n")

	for _, plan := range plans {
		r.renderChapter(&b, plan)
	}

	b.WriteString("\\end{document}\n")
	return TextArtifact{Content: b.String()}, nil
}

// RenderPDF renders the LaTeX source into a temporary directory, runs the
// configured TeX command there, and atomically places the produced PDF at
// path. The command's exit status and stderr are surfaced on failure; the run
// is not retried.
func (r *LatexRenderer) RenderPDF(book *Book, path string) error {
	artifact, err := r.Render(book)
	if err != nil {
		return err
	}
	source := artifact.(TextArtifact).Content

	dir, err := os.MkdirTemp(book.TempDir, "mdbook-tex-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp dir: %v", ErrRender, err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	texPath := filepath.Join(dir, "book.tex")
	if err := os.WriteFile(texPath, []byte(source), 0o600); err != nil {
		return fmt.Errorf("%w: writing tex source: %v", ErrRender, err)
	}

	runner := r.Runner
	if runner == nil {
		runner = execRunner{}
	}

	// Two passes so cross-references and the table of contents settle.
	var stderr string
	for range 2 {
		_, stderr, err = runner.Run(dir, book.TexCommand, "-interaction=nonstopmode", "book.tex")
		if err != nil {
			return fmt.Errorf("%w: %s: %v: %s", ErrTexCommand, book.TexCommand, err, strings.TrimSpace(stderr))
		}
	}

	pdf, err := os.ReadFile(filepath.Join(dir, "book.pdf")) // #nosec G304 -- path within our temp dir
	if err != nil {
		return fmt.Errorf("%w: %s produced no PDF", ErrTexCommand, book.TexCommand)
	}
	if err := fileutil.WriteFileAtomic(path, pdf); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	return nil
}

// renderChapter renders one resolved chapter: the heading command first
// (skipped entirely for hidden chapters), then the body. Footnote definitions
// are collected up front so references can inline their content.
func (r *LatexRenderer) renderChapter(b *strings.Builder, plan chapterRender) {
	r.footnotes = make(map[int][]Token)
	for _, t := range plan.Tokens {
		if t.Kind == KindFootnoteDefinition {
			r.footnotes[t.Index] = t.Children
		}
	}

	headerDone := false
	for _, t := range plan.Tokens {
		if t.Kind == KindHeading && t.Level == 1 && !headerDone {
			headerDone = true
			if !plan.ShowTitle {
				continue
			}
			// The numbering template already produced the full header text;
			// \chapter* keeps LaTeX's own counter out of it.
			fmt.Fprintf(b, "\\chapter*{%s}\n\n", escapeLaTeX(plan.Header))
			continue
		}
		r.renderBlock(b, t)
	}
}

func (r *LatexRenderer) renderBlocks(b *strings.Builder, tokens []Token) {
	for _, t := range tokens {
		r.renderBlock(b, t)
	}
}

func (r *LatexRenderer) renderBlock(b *strings.Builder, t Token) {
	switch t.Kind {
	case KindParagraph:
		r.renderInlines(b, t.Children)
		b.WriteString("\n\n")

	case KindHeading:
		cmd := "section"
		switch t.Level {
		case 1:
			cmd = "chapter"
		case 2:
			cmd = "section"
		case 3:
			cmd = "subsection"
		case 4:
			cmd = "subsubsection"
		default:
			cmd = "paragraph"
		}
		fmt.Fprintf(b, "\\%s{", cmd)
		r.renderInlines(b, t.Children)
		b.WriteString("}\n\n")

	case KindUnorderedList:
		b.WriteString("\\begin{itemize}\n")
		r.renderBlocks(b, t.Children)
		b.WriteString("\\end{itemize}\n\n")

	case KindOrderedList:
		b.WriteString("\\begin{enumerate}\n")
		if t.Start > 1 {
			fmt.Fprintf(b, "\\setcounter{enumi}{%d}\n", t.Start-1)
		}
		r.renderBlocks(b, t.Children)
		b.WriteString("\\end{enumerate}\n\n")

	case KindListItem:
		b.WriteString("\\item ")
		r.renderBlocks(b, t.Children)

	case KindBlockQuote:
		b.WriteString("\\begin{quotation}\n")
		r.renderBlocks(b, t.Children)
		b.WriteString("\\end{quotation}\n\n")

	case KindCodeBlock:
		// Verbatim content is left unescaped; the environment shields it.
		b.WriteString("\\begin{verbatim}\n")
		b.WriteString(t.Text)
		if !strings.HasSuffix(t.Text, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("\\end{verbatim}\n\n")

	case KindRule:
		b.WriteString("\\begin{center}***\\end{center}\n\n")

	case KindFootnoteDefinition:
		// Definitions are inlined at the reference site; nothing to emit here.

	default:
		r.renderInlines(b, []Token{t})
		b.WriteString("\n\n")
	}
}

func (r *LatexRenderer) renderInlines(b *strings.Builder, tokens []Token) {
	for _, t := range tokens {
		r.renderInline(b, t)
	}
}

func (r *LatexRenderer) renderInline(b *strings.Builder, t Token) {
	switch t.Kind {
	case KindText:
		b.WriteString(escapeLaTeX(t.Text))

	case KindEmphasis:
		b.WriteString("\\emph{")
		r.renderInlines(b, t.Children)
		b.WriteString("}")

	case KindStrong:
		b.WriteString("\\textbf{")
		r.renderInlines(b, t.Children)
		b.WriteString("}")

	case KindCode:
		fmt.Fprintf(b, "\\texttt{%s}", escapeLaTeX(t.Text))

	case KindLink:
		fmt.Fprintf(b, "\\href{%s}{", escapeLaTeXURL(t.Target))
		r.renderInlines(b, t.Children)
		b.WriteString("}")

	case KindImage:
		fmt.Fprintf(b, "\\includegraphics[width=\\linewidth]{%s}", escapeLaTeXURL(t.Target))

	case KindLineBreak:
		b.WriteString("\\\\\n")

	case KindFootnoteReference:
		// LaTeX footnotes carry their content at the reference site.
		def, ok := r.footnotes[t.Index]
		if !ok {
			fmt.Fprintf(b, "\\footnotemark[%d]", t.Index)
			return
		}
		b.WriteString("\\footnote{")
		for i, blk := range def {
			if i > 0 {
				b.WriteString(" ")
			}
			r.renderInlines(b, blk.Children)
		}
		b.WriteString("}")

	default:
		b.WriteString(escapeLaTeX(t.PlainText()))
	}
}

// escapeLaTeXURL escapes a URL or path argument for \href/\includegraphics.
// Only characters meaningful inside the braces are escaped.
var latexURLEscaper = strings.NewReplacer(
	"%", `\%`,
	"#", `\#`,
	"{", `\{`,
	"}", `\}`,
)

func escapeLaTeXURL(s string) string {
	return latexURLEscaper.Replace(s)
}
