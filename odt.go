package mdbook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-mdbook/internal/assets"
	"github.com/alnah/go-mdbook/internal/container"
)

// odtMimetype is the required content of the stored mimetype entry.
const odtMimetype = "application/vnd.oasis.opendocument.text"

// OdtRenderer renders the book to an ODT container: the token trees mapped to
// ODF text vocabulary in content.xml, plus styles, metadata and manifest.
type OdtRenderer struct {
	// footnotes maps the current chapter's definition indices to their
	// content; ODF notes carry their body at the reference site.
	footnotes map[int][]Token

	// pictures collects embedded image entries (container name -> bytes).
	// pictureNames maps source paths to entry names so a file referenced
	// twice is embedded once, and distinct files sharing a base name get
	// distinct entries.
	pictures     []container.Entry
	pictureNames map[string]string
	pictureTaken map[string]bool
}

// Render implements Renderer.
//
// A chapter image that references a missing local file is fatal, matching the
// EPUB policy for container formats.
func (r *OdtRenderer) Render(book *Book) (Artifact, error) {
	plans, err := chapterPlans(book)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	var body strings.Builder
	for _, plan := range plans {
		if err := r.renderChapter(&body, plan); err != nil {
			return nil, err
		}
	}

	contentTmpl, err := assets.LoadTemplate("odt_content.xml")
	if err != nil {
		return nil, err
	}
	content, err := expandTemplate(contentTmpl, map[string]string{"body": body.String()})
	if err != nil {
		return nil, fmt.Errorf("%w: content.xml: %v", ErrRender, err)
	}

	stylesXML, err := assets.LoadTemplate("odt_styles.xml")
	if err != nil {
		return nil, err
	}

	metaTmpl, err := assets.LoadTemplate("odt_meta.xml")
	if err != nil {
		return nil, err
	}
	var extraMeta strings.Builder
	if book.Description != "" {
		fmt.Fprintf(&extraMeta, "    <dc:description>%s</dc:description>\n", escapeHTML(book.Description))
	}
	if book.Subject != "" {
		fmt.Fprintf(&extraMeta, "    <dc:subject>%s</dc:subject>\n", escapeHTML(book.Subject))
	}
	metaVars := book.metadataVars("html")
	metaVars["extra_meta"] = extraMeta.String()
	meta, err := expandTemplate(metaTmpl, metaVars)
	if err != nil {
		return nil, fmt.Errorf("%w: meta.xml: %v", ErrRender, err)
	}

	manifestTmpl, err := assets.LoadTemplate("odt_manifest.xml")
	if err != nil {
		return nil, err
	}
	var manifestEntries strings.Builder
	for _, pic := range r.pictures {
		fmt.Fprintf(&manifestEntries, "  <manifest:file-entry manifest:full-path=\"%s\" manifest:media-type=\"%s\"/>\n",
			pic.Name, imageMediaType(pic.Name))
	}
	manifest, err := expandTemplate(manifestTmpl, map[string]string{"entries": manifestEntries.String()})
	if err != nil {
		return nil, fmt.Errorf("%w: manifest.xml: %v", ErrRender, err)
	}

	c := container.New(odtMimetype)
	c.Add("META-INF/manifest.xml", []byte(manifest))
	c.Add("content.xml", []byte(content))
	c.Add("styles.xml", []byte(stylesXML))
	c.Add("meta.xml", []byte(meta))
	for _, pic := range r.pictures {
		c.Add(pic.Name, pic.Data)
	}

	return ContainerArtifact{Container: c}, nil
}

// renderChapter renders one resolved chapter into ODF body markup.
func (r *OdtRenderer) renderChapter(b *strings.Builder, plan chapterRender) error {
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
			fmt.Fprintf(b, "<text:h text:style-name=\"Heading_20_1\" text:outline-level=\"1\">%s</text:h>\n",
				escapeHTML(plan.Header))
			continue
		}
		if t.Kind == KindFootnoteDefinition {
			continue
		}
		if err := r.renderBlock(b, t, "Text_20_body"); err != nil {
			return err
		}
	}
	return nil
}

func (r *OdtRenderer) renderBlocks(b *strings.Builder, tokens []Token, paraStyle string) error {
	for _, t := range tokens {
		if err := r.renderBlock(b, t, paraStyle); err != nil {
			return err
		}
	}
	return nil
}

// renderBlock renders one block token. paraStyle is the paragraph style to
// apply, so block quotes can restyle their nested paragraphs.
func (r *OdtRenderer) renderBlock(b *strings.Builder, t Token, paraStyle string) error {
	switch t.Kind {
	case KindParagraph:
		fmt.Fprintf(b, "<text:p text:style-name=\"%s\">", paraStyle)
		if err := r.renderInlines(b, t.Children); err != nil {
			return err
		}
		b.WriteString("</text:p>\n")

	case KindHeading:
		level := t.Level
		if level > 3 {
			level = 3
		}
		fmt.Fprintf(b, "<text:h text:style-name=\"Heading_20_%d\" text:outline-level=\"%d\">", level, t.Level)
		if err := r.renderInlines(b, t.Children); err != nil {
			return err
		}
		b.WriteString("</text:h>\n")

	case KindUnorderedList, KindOrderedList:
		b.WriteString("<text:list>\n")
		for _, item := range t.Children {
			b.WriteString("<text:list-item>\n")
			if err := r.renderBlocks(b, item.Children, paraStyle); err != nil {
				return err
			}
			b.WriteString("</text:list-item>\n")
		}
		b.WriteString("</text:list>\n")

	case KindListItem:
		// Handled by the list cases; a stray item renders its content.
		return r.renderBlocks(b, t.Children, paraStyle)

	case KindBlockQuote:
		return r.renderBlocks(b, t.Children, "Quotations")

	case KindCodeBlock:
		fmt.Fprintf(b, "<text:p text:style-name=\"Preformatted_20_Text\">%s</text:p>\n",
			odtPreformatted(t.Text))

	case KindRule:
		b.WriteString("<text:p text:style-name=\"Horizontal_20_Line\"/>\n")

	case KindFootnoteDefinition:
		// Inlined at the reference site.

	default:
		fmt.Fprintf(b, "<text:p text:style-name=\"%s\">", paraStyle)
		if err := r.renderInlines(b, []Token{t}); err != nil {
			return err
		}
		b.WriteString("</text:p>\n")
	}
	return nil
}

func (r *OdtRenderer) renderInlines(b *strings.Builder, tokens []Token) error {
	for _, t := range tokens {
		if err := r.renderInline(b, t); err != nil {
			return err
		}
	}
	return nil
}

func (r *OdtRenderer) renderInline(b *strings.Builder, t Token) error {
	switch t.Kind {
	case KindText:
		b.WriteString(escapeHTML(t.Text))

	case KindEmphasis:
		b.WriteString(`<text:span text:style-name="Emphasis">`)
		if err := r.renderInlines(b, t.Children); err != nil {
			return err
		}
		b.WriteString("</text:span>")

	case KindStrong:
		b.WriteString(`<text:span text:style-name="Strong">`)
		if err := r.renderInlines(b, t.Children); err != nil {
			return err
		}
		b.WriteString("</text:span>")

	case KindCode:
		fmt.Fprintf(b, `<text:span text:style-name="Code">%s</text:span>`, escapeHTML(t.Text))

	case KindLink:
		fmt.Fprintf(b, `<text:a xlink:type="simple" xlink:href="%s">`, escapeHTML(t.Target))
		if err := r.renderInlines(b, t.Children); err != nil {
			return err
		}
		b.WriteString("</text:a>")

	case KindImage:
		return r.renderImage(b, t)

	case KindLineBreak:
		b.WriteString("<text:line-break/>")

	case KindFootnoteReference:
		def, ok := r.footnotes[t.Index]
		if !ok {
			fmt.Fprintf(b, "<text:span>[%d]</text:span>", t.Index)
			return nil
		}
		fmt.Fprintf(b, `<text:note text:note-class="footnote" text:id="ftn%d"><text:note-citation>%d</text:note-citation><text:note-body>`,
			t.Index, t.Index)
		for _, blk := range def {
			b.WriteString(`<text:p text:style-name="Text_20_body">`)
			if err := r.renderInlines(b, blk.Children); err != nil {
				return err
			}
			b.WriteString("</text:p>")
		}
		b.WriteString("</text:note-body></text:note>")

	default:
		b.WriteString(escapeHTML(t.PlainText()))
	}
	return nil
}

// renderImage embeds a local image under Pictures/ and references it with a
// draw frame. A missing local file is fatal for the container; remote URLs
// degrade to the alt text.
func (r *OdtRenderer) renderImage(b *strings.Builder, t Token) error {
	alt := plainText(t.Children)

	if strings.HasPrefix(t.Target, "http://") || strings.HasPrefix(t.Target, "https://") {
		b.WriteString(escapeHTML(alt))
		return nil
	}

	name, ok := r.pictureNames[t.Target]
	if !ok {
		data, err := os.ReadFile(t.Target) // #nosec G304 -- image path comes from chapter content
		if err != nil {
			return fmt.Errorf("%w: %w: image %s", ErrRender, ErrMissingResource, t.Target)
		}
		if r.pictureNames == nil {
			r.pictureNames = make(map[string]string)
			r.pictureTaken = make(map[string]bool)
		}
		name = uniqueEntryName(func(n string) bool { return r.pictureTaken[n] }, "Pictures/"+filepath.Base(t.Target))
		r.pictureTaken[name] = true
		r.pictureNames[t.Target] = name
		r.pictures = append(r.pictures, container.Entry{Name: name, Data: data})
	}

	fmt.Fprintf(b, `<draw:frame draw:name="%s" text:anchor-type="as-char" svg:width="12cm"><draw:image xlink:type="simple" xlink:href="%s"/></draw:frame>`,
		escapeHTML(alt), escapeHTML(name))
	return nil
}

// odtPreformatted escapes code block text, mapping newlines to line breaks
// and runs of spaces to counted space elements so ODF preserves them.
func odtPreformatted(text string) string {
	text = strings.TrimSuffix(text, "\n")
	var b strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteString("<text:line-break/>")
		}
		leading := len(line) - len(strings.TrimLeft(line, " "))
		if leading > 0 {
			fmt.Fprintf(&b, `<text:s text:c="%d"/>`, leading)
		}
		b.WriteString(escapeHTML(line[leading:]))
	}
	return b.String()
}
