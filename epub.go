package mdbook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alnah/go-mdbook/internal/assets"
	"github.com/alnah/go-mdbook/internal/container"
)

// epubMimetype is the required content of the stored mimetype entry.
const epubMimetype = "application/epub+zip"

// EpubRenderer renders the book to an EPUB container: one XHTML document per
// chapter plus the package document, navigation and stylesheet, assembled
// into a ZIP with a stored mimetype entry. Book.EpubVersion selects EPUB 2
// (OPF 2 + NCX) or EPUB 3 (OPF 3 + nav document) packaging.
type EpubRenderer struct{}

// Render implements Renderer.
//
// A declared cover image that cannot be read is fatal: silently omitting it
// would leave a structurally invalid container.
func (r *EpubRenderer) Render(book *Book) (Artifact, error) {
	plans, err := chapterPlans(book)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	chapterTmpl, err := book.template("epub_template")
	if err != nil {
		return nil, err
	}
	css, err := book.template("epub_css")
	if err != nil {
		return nil, err
	}

	c := container.New(epubMimetype)

	containerXML, err := assets.LoadTemplate("epub_container.xml")
	if err != nil {
		return nil, err
	}
	c.Add("META-INF/container.xml", []byte(containerXML))
	c.Add("OEBPS/stylesheet.css", []byte(css))

	var manifest, spine, guide, extraMeta strings.Builder

	manifest.WriteString("    <item id=\"stylesheet\" href=\"stylesheet.css\" media-type=\"text/css\"/>\n")
	if book.EpubVersion == 3 {
		manifest.WriteString("    <item id=\"nav\" href=\"nav.xhtml\" media-type=\"application/xhtml+xml\" properties=\"nav\"/>\n")
	} else {
		manifest.WriteString("    <item id=\"ncx\" href=\"toc.ncx\" media-type=\"application/x-dtbncx+xml\"/>\n")
	}

	if book.Description != "" {
		fmt.Fprintf(&extraMeta, "    <dc:description>%s</dc:description>\n", escapeHTML(book.Description))
	}
	if book.Subject != "" {
		fmt.Fprintf(&extraMeta, "    <dc:subject>%s</dc:subject>\n", escapeHTML(book.Subject))
	}

	// Cover image and cover page come before the chapters in the spine.
	if book.Cover != "" {
		if err := r.addCover(book, c, &manifest, &spine, &guide, &extraMeta); err != nil {
			return nil, err
		}
	}

	// Chapter documents. Local images referenced from chapter content are
	// embedded next to the chapters; a missing one aborts assembly. A file
	// referenced twice is embedded once, and distinct files sharing a base
	// name get distinct entries.
	imageNames := make(map[string]string)
	w := &htmlWriter{xhtml: true, fnPrefix: "fn-", imageSrc: func(target string) (string, error) {
		if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
			return target, nil
		}
		if name, ok := imageNames[target]; ok {
			return name, nil
		}
		data, err := os.ReadFile(target) // #nosec G304 -- image path comes from chapter content
		if err != nil {
			return "", fmt.Errorf("%w: %w: image %s", ErrRender, ErrMissingResource, target)
		}
		name := uniqueEntryName(func(n string) bool { return c.Has("OEBPS/" + n) }, filepath.Base(target))
		imageNames[target] = name
		c.Add("OEBPS/"+name, data)
		fmt.Fprintf(&manifest, "    <item id=\"img-%s\" href=\"%s\" media-type=\"%s\"/>\n",
			name, name, imageMediaType(name))
		return name, nil
	}}
	for i, plan := range plans {
		name := fmt.Sprintf("chapter_%03d.xhtml", i+1)

		title := plan.Header
		if title == "" {
			title = book.Title
		}
		content := w.renderChapter(plan)
		if w.err != nil {
			return nil, w.err
		}
		vars := map[string]string{
			"lang":    book.Lang,
			"title":   escapeHTML(title),
			"content": content,
		}
		page, err := expandTemplate(chapterTmpl, vars)
		if err != nil {
			return nil, fmt.Errorf("%w: chapter %d: %v", ErrRender, i+1, err)
		}

		c.Add("OEBPS/"+name, []byte(page))
		fmt.Fprintf(&manifest, "    <item id=\"chapter-%03d\" href=\"%s\" media-type=\"application/xhtml+xml\"/>\n", i+1, name)
		fmt.Fprintf(&spine, "    <itemref idref=\"chapter-%03d\"/>\n", i+1)
	}

	identifier := "urn:uuid:" + uuid.NewString()

	// Package document.
	opfName := "epub2_package.opf"
	if book.EpubVersion == 3 {
		opfName = "epub3_package.opf"
	}
	opfTmpl, err := assets.LoadTemplate(opfName)
	if err != nil {
		return nil, err
	}
	opfVars := book.metadataVars("html")
	opfVars["identifier"] = identifier
	opfVars["extra_meta"] = extraMeta.String()
	opfVars["manifest"] = manifest.String()
	opfVars["spine"] = spine.String()
	if book.EpubVersion == 3 {
		opfVars["modified"] = time.Now().UTC().Format("2006-01-02T15:04:05Z")
	} else {
		opfVars["guide"] = guide.String()
	}
	opf, err := expandTemplate(opfTmpl, opfVars)
	if err != nil {
		return nil, fmt.Errorf("%w: package document: %v", ErrRender, err)
	}
	c.Add("OEBPS/content.opf", []byte(opf))

	// Navigation.
	if book.EpubVersion == 3 {
		nav, err := r.renderNav(book, plans)
		if err != nil {
			return nil, err
		}
		c.Add("OEBPS/nav.xhtml", []byte(nav))
	} else {
		ncx, err := r.renderNCX(book, plans, identifier)
		if err != nil {
			return nil, err
		}
		c.Add("OEBPS/toc.ncx", []byte(ncx))
	}

	return ContainerArtifact{Container: c}, nil
}

// addCover reads the declared cover image into the container and emits its
// manifest, spine, guide and metadata entries. A missing cover is
// ErrMissingResource.
func (r *EpubRenderer) addCover(book *Book, c *container.Container, manifest, spine, guide, extraMeta *strings.Builder) error {
	data, err := os.ReadFile(book.Cover) // #nosec G304 -- cover path comes from the user's config
	if err != nil {
		return fmt.Errorf("%w: %w: cover image %s", ErrRender, ErrMissingResource, book.Cover)
	}

	name := filepath.Base(book.Cover)
	c.Add("OEBPS/"+name, data)

	coverPage := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="%s">
<head>
<title>%s</title>
<link rel="stylesheet" type="text/css" href="stylesheet.css" />
</head>
<body>
<div><img class="cover" src="%s" alt="%s" /></div>
</body>
</html>
`, book.Lang, escapeHTML(book.Title), escapeHTML(name), escapeHTML(book.Title))
	c.Add("OEBPS/cover.xhtml", []byte(coverPage))

	properties := ""
	if book.EpubVersion == 3 {
		properties = ` properties="cover-image"`
	}
	fmt.Fprintf(manifest, "    <item id=\"cover-image\" href=\"%s\" media-type=\"%s\"%s/>\n",
		name, imageMediaType(name), properties)
	manifest.WriteString("    <item id=\"cover\" href=\"cover.xhtml\" media-type=\"application/xhtml+xml\"/>\n")
	spine.WriteString("    <itemref idref=\"cover\" linear=\"no\"/>\n")

	if book.EpubVersion == 3 {
		// The manifest property is enough for EPUB 3.
		return nil
	}
	extraMeta.WriteString("    <meta name=\"cover\" content=\"cover-image\"/>\n")
	guide.WriteString("  <guide>\n    <reference type=\"cover\" title=\"Cover\" href=\"cover.xhtml\"/>\n  </guide>\n")
	return nil
}

// renderNCX produces the EPUB 2 navigation document.
func (r *EpubRenderer) renderNCX(book *Book, plans []chapterRender, identifier string) (string, error) {
	tmpl, err := assets.LoadTemplate("epub_toc.ncx")
	if err != nil {
		return "", err
	}

	var navpoints strings.Builder
	order := 0
	for i, plan := range plans {
		if !plan.ShowTitle || plan.Header == "" {
			continue
		}
		order++
		fmt.Fprintf(&navpoints, `    <navPoint id="navpoint-%d" playOrder="%d">
      <navLabel><text>%s</text></navLabel>
      <content src="chapter_%03d.xhtml"/>
    </navPoint>
`, order, order, escapeHTML(plan.Header), i+1)
	}

	out, err := expandTemplate(tmpl, map[string]string{
		"identifier": identifier,
		"title":      escapeHTML(book.Title),
		"navpoints":  navpoints.String(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: toc.ncx: %v", ErrRender, err)
	}
	return out, nil
}

// renderNav produces the EPUB 3 navigation document.
func (r *EpubRenderer) renderNav(book *Book, plans []chapterRender) (string, error) {
	tmpl, err := assets.LoadTemplate("epub3_nav.xhtml")
	if err != nil {
		return "", err
	}

	var links strings.Builder
	for i, plan := range plans {
		if !plan.ShowTitle || plan.Header == "" {
			continue
		}
		fmt.Fprintf(&links, "<li><a href=\"chapter_%03d.xhtml\">%s</a></li>\n", i+1, escapeHTML(plan.Header))
	}

	out, err := expandTemplate(tmpl, map[string]string{
		"title":    escapeHTML(book.Title),
		"navlinks": links.String(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: nav.xhtml: %v", ErrRender, err)
	}
	return out, nil
}

// imageMediaType maps an image file extension to its media type.
// uniqueEntryName returns base, or base with a numeric suffix before the
// extension once taken reports base as used.
func uniqueEntryName(taken func(string) bool, base string) string {
	if !taken(base) {
		return base
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 2; ; i++ {
		name := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if !taken(name) {
			return name
		}
	}
}

func imageMediaType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	default:
		return "image/jpeg"
	}
}
