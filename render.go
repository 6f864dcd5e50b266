package mdbook

import (
	"fmt"

	"github.com/alnah/go-mdbook/internal/container"
	"github.com/alnah/go-mdbook/internal/fileutil"
)

// Renderer converts a Book's token trees plus metadata into one output format.
// Every renderer receives the same read-only Book; divergence is purely in how
// tokens map to target syntax.
type Renderer interface {
	Render(book *Book) (Artifact, error)
}

// Artifact is a rendered output: a UTF-8 text buffer (HTML, LaTeX) or a
// packaged container (EPUB, ODT). WriteFile places the artifact at path
// atomically: content goes to a temporary file first and is renamed into
// place, so a failed render never leaves partial output at the destination.
type Artifact interface {
	WriteFile(path string) error
}

// TextArtifact is a rendered UTF-8 text buffer.
type TextArtifact struct {
	Content string
}

// WriteFile writes the buffer to path atomically.
func (a TextArtifact) WriteFile(path string) error {
	if err := fileutil.WriteFileAtomic(path, []byte(a.Content)); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	return nil
}

// ContainerArtifact is a rendered ZIP container (EPUB, ODT).
type ContainerArtifact struct {
	Container *container.Container
}

// WriteFile packages the entries and writes the container to path atomically.
func (a ContainerArtifact) WriteFile(path string) error {
	if err := a.Container.WriteFile(path); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	return nil
}

// chapterRender is one chapter's fully resolved rendering plan, shared by all
// renderers: a chapter moves from header (skipped when ShowTitle is false)
// to body, in order.
type chapterRender struct {
	// Header is the expanded numbering-template text, empty when the chapter
	// has no visible heading in its tokens.
	Header string
	// ShowTitle is false for hidden chapters: the header stage is skipped.
	ShowTitle bool
	// Display is the resolved chapter number, nil when unnumbered.
	Display *int
	// Tokens is the chapter's token tree.
	Tokens []Token
}

// chapterPlans resolves numbering for every chapter and expands each visible
// header through the numbering template. The header title is taken from the
// chapter's first heading; a chapter without headings keeps an empty header.
func chapterPlans(book *Book) ([]chapterRender, error) {
	numbers := make([]Number, len(book.Chapters))
	for i, ch := range book.Chapters {
		numbers[i] = ch.Number
	}
	resolved := resolveNumbering(numbers, book.Numbering)

	plans := make([]chapterRender, len(book.Chapters))
	for i, ch := range book.Chapters {
		plan := chapterRender{
			ShowTitle: resolved[i].showTitle,
			Display:   resolved[i].display,
			Tokens:    ch.Tokens,
		}
		if plan.ShowTitle {
			title := chapterTitle(ch.Tokens)
			if plan.Display != nil {
				header, err := book.header(*plan.Display, title)
				if err != nil {
					return nil, fmt.Errorf("chapter %d: %w", i+1, err)
				}
				plan.Header = header
			} else {
				plan.Header = title
			}
		}
		plans[i] = plan
	}
	return plans, nil
}

// chapterTitle returns the plain text of the chapter's first level-1 heading,
// falling back to the first heading of any level.
func chapterTitle(tokens []Token) string {
	var fallback string
	for _, t := range tokens {
		if t.Kind != KindHeading {
			continue
		}
		if t.Level == 1 {
			return t.PlainText()
		}
		if fallback == "" {
			fallback = t.PlainText()
		}
	}
	return fallback
}
