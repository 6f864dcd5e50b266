package mdbook

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// renderOdtEntries renders the book to ODT and reads the container back.
func renderOdtEntries(t *testing.T, book *Book) map[string]string {
	t.Helper()
	artifact, err := (&OdtRenderer{}).Render(book)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	path := filepath.Join(t.TempDir(), "book.odt")
	if err := artifact.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading container: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("opening container: %v", err)
	}
	if len(zr.File) == 0 || zr.File[0].Name != "mimetype" || zr.File[0].Method != zip.Store {
		t.Fatal("first entry must be a stored mimetype")
	}
	entries := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("opening %s: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatalf("reading %s: %v", f.Name, err)
		}
		entries[f.Name] = string(content)
	}
	return entries
}

func odtBook(t *testing.T, src string) *Book {
	t.Helper()
	path := writeChapter(t, t.TempDir(), "ch.md", src)
	book := NewBook()
	book.Title = "My Book"
	if err := book.AddChapter(Default, path); err != nil {
		t.Fatalf("AddChapter: %v", err)
	}
	return book
}

func TestOdtContainer(t *testing.T) {
	t.Parallel()

	book := odtBook(t, "# The Journey\n\nHello, world.")
	entries := renderOdtEntries(t, book)

	if entries["mimetype"] != "application/vnd.oasis.opendocument.text" {
		t.Errorf("mimetype = %q", entries["mimetype"])
	}
	for _, name := range []string{"META-INF/manifest.xml", "content.xml", "styles.xml", "meta.xml"} {
		if _, ok := entries[name]; !ok {
			t.Errorf("missing entry %s", name)
		}
	}

	content := entries["content.xml"]
	if !strings.Contains(content, ">1. The Journey</text:h>") {
		t.Errorf("missing expanded chapter header:\n%s", content)
	}
	if !strings.Contains(content, `<text:p text:style-name="Text_20_body">Hello, world.</text:p>`) {
		t.Errorf("missing body paragraph:\n%s", content)
	}
	// Every XML part must be well formed.
	for _, name := range []string{"META-INF/manifest.xml", "content.xml", "styles.xml", "meta.xml"} {
		dec := xml.NewDecoder(strings.NewReader(entries[name]))
		for {
			_, err := dec.Token()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Errorf("%s is not well formed: %v", name, err)
				break
			}
		}
	}

	if !strings.Contains(entries["meta.xml"], "My Book") {
		t.Errorf("title missing from meta.xml:\n%s", entries["meta.xml"])
	}
}

func TestOdtMarkup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"emphasis", "*em*", `<text:span text:style-name="Emphasis">em</text:span>`},
		{"strong", "**st**", `<text:span text:style-name="Strong">st</text:span>`},
		{"code span", "`x`", `<text:span text:style-name="Code">x</text:span>`},
		{"link", "[here](https://e.com)", `<text:a xlink:type="simple" xlink:href="https://e.com">here</text:a>`},
		{"escaping", "a & b < c", "a &amp; b &lt; c"},
		{"quote style", "> wise", `<text:p text:style-name="Quotations">wise</text:p>`},
		{"list", "- a", "<text:list-item>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			entries := renderOdtEntries(t, odtBook(t, "# T\n\n"+tt.src))
			if !strings.Contains(entries["content.xml"], tt.want) {
				t.Errorf("content.xml missing %q:\n%s", tt.want, entries["content.xml"])
			}
		})
	}
}

func TestOdtPreformatted(t *testing.T) {
	t.Parallel()

	entries := renderOdtEntries(t, odtBook(t, "# T\n\n```\nline one\n  indented\n```"))
	content := entries["content.xml"]
	if !strings.Contains(content, "line one<text:line-break/>") {
		t.Errorf("newline not mapped to line break:\n%s", content)
	}
	if !strings.Contains(content, `<text:s text:c="2"/>indented`) {
		t.Errorf("leading spaces not preserved:\n%s", content)
	}
}

func TestOdtFootnote(t *testing.T) {
	t.Parallel()

	entries := renderOdtEntries(t, odtBook(t, "# T\n\nFact[^1].\n\n[^1]: Source."))
	content := entries["content.xml"]
	if !strings.Contains(content, `<text:note text:note-class="footnote"`) {
		t.Errorf("missing footnote:\n%s", content)
	}
	if !strings.Contains(content, "<text:note-body>") || !strings.Contains(content, "Source.") {
		t.Errorf("footnote body not inlined:\n%s", content)
	}
}

func TestOdtImages(t *testing.T) {
	t.Parallel()

	t.Run("local image embedded under Pictures", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		fig := writeChapter(t, dir, "fig.png", "fake png bytes")
		path := writeChapter(t, dir, "ch.md", "# T\n\n![a figure]("+fig+")")

		book := NewBook()
		if err := book.AddChapter(Default, path); err != nil {
			t.Fatalf("AddChapter: %v", err)
		}
		entries := renderOdtEntries(t, book)
		if _, ok := entries["Pictures/fig.png"]; !ok {
			t.Error("image not embedded under Pictures/")
		}
		if !strings.Contains(entries["META-INF/manifest.xml"], `manifest:full-path="Pictures/fig.png"`) {
			t.Error("image missing from the manifest")
		}
		if !strings.Contains(entries["content.xml"], `xlink:href="Pictures/fig.png"`) {
			t.Error("image frame missing from content.xml")
		}
	})

	t.Run("repeated image embedded once", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		fig := writeChapter(t, dir, "fig.png", "fake png bytes")
		path := writeChapter(t, dir, "ch.md", "# T\n\n![a]("+fig+")\n\n![b]("+fig+")")

		book := NewBook()
		if err := book.AddChapter(Default, path); err != nil {
			t.Fatalf("AddChapter: %v", err)
		}
		artifact, err := (&OdtRenderer{}).Render(book)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		out := filepath.Join(t.TempDir(), "book.odt")
		if err := artifact.WriteFile(out); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("reading container: %v", err)
		}
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			t.Fatalf("opening container: %v", err)
		}
		count := 0
		var manifest string
		for _, f := range zr.File {
			if f.Name == "Pictures/fig.png" {
				count++
			}
			if f.Name == "META-INF/manifest.xml" {
				rc, err := f.Open()
				if err != nil {
					t.Fatalf("opening manifest: %v", err)
				}
				content, err := io.ReadAll(rc)
				_ = rc.Close()
				if err != nil {
					t.Fatalf("reading manifest: %v", err)
				}
				manifest = string(content)
			}
		}
		if count != 1 {
			t.Errorf("container holds %d Pictures/fig.png entries, want 1", count)
		}
		if n := strings.Count(manifest, `manifest:full-path="Pictures/fig.png"`); n != 1 {
			t.Errorf("manifest lists Pictures/fig.png %d times, want 1:\n%s", n, manifest)
		}
	})

	t.Run("colliding base names get distinct entries", func(t *testing.T) {
		t.Parallel()

		figA := writeChapter(t, t.TempDir(), "fig.png", "first image")
		figB := writeChapter(t, t.TempDir(), "fig.png", "second image")
		path := writeChapter(t, t.TempDir(), "ch.md",
			"# T\n\n![a]("+figA+")\n\n![b]("+figB+")")

		book := NewBook()
		if err := book.AddChapter(Default, path); err != nil {
			t.Fatalf("AddChapter: %v", err)
		}
		entries := renderOdtEntries(t, book)
		if got := entries["Pictures/fig.png"]; got != "first image" {
			t.Errorf("Pictures/fig.png = %q, want the first image's bytes", got)
		}
		if got := entries["Pictures/fig-2.png"]; got != "second image" {
			t.Errorf("Pictures/fig-2.png = %q, want the second image's bytes", got)
		}
		manifest := entries["META-INF/manifest.xml"]
		if !strings.Contains(manifest, `manifest:full-path="Pictures/fig-2.png"`) {
			t.Errorf("disambiguated entry missing from the manifest:\n%s", manifest)
		}
		content := entries["content.xml"]
		if !strings.Contains(content, `xlink:href="Pictures/fig.png"`) ||
			!strings.Contains(content, `xlink:href="Pictures/fig-2.png"`) {
			t.Errorf("frames do not reference distinct entries:\n%s", content)
		}
	})

	t.Run("missing local image is fatal", func(t *testing.T) {
		t.Parallel()

		book := odtBook(t, "# T\n\n![x](/nonexistent/nope.png)")
		_, err := (&OdtRenderer{}).Render(book)
		if !errors.Is(err, ErrMissingResource) {
			t.Errorf("error = %v, want ErrMissingResource", err)
		}
	})

	t.Run("remote image degrades to alt text", func(t *testing.T) {
		t.Parallel()

		entries := renderOdtEntries(t, odtBook(t, "# T\n\n![the alt](https://e.com/p.jpg)"))
		content := entries["content.xml"]
		if !strings.Contains(content, "the alt") {
			t.Errorf("alt text missing:\n%s", content)
		}
		if strings.Contains(content, "draw:frame") {
			t.Errorf("remote image produced a frame:\n%s", content)
		}
	})
}
