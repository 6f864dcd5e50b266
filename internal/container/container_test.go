package container

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestContainerBytes(t *testing.T) {
	t.Parallel()

	c := New("application/epub+zip")
	c.Add("META-INF/container.xml", []byte("<container/>"))
	c.Add("OEBPS/content.opf", []byte("<package/>"))

	data, err := c.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	if len(zr.File) != 3 {
		t.Fatalf("got %d entries, want 3", len(zr.File))
	}

	first := zr.File[0]
	if first.Name != "mimetype" {
		t.Errorf("first entry = %q, want mimetype", first.Name)
	}
	if first.Method != zip.Store {
		t.Errorf("mimetype method = %d, want Store", first.Method)
	}
	if zr.File[1].Method != zip.Deflate {
		t.Errorf("entry method = %d, want Deflate", zr.File[1].Method)
	}

	rc, err := first.Open()
	if err != nil {
		t.Fatalf("opening mimetype: %v", err)
	}
	content, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatalf("reading mimetype: %v", err)
	}
	if string(content) != "application/epub+zip" {
		t.Errorf("mimetype content = %q", content)
	}
}

func TestContainerHas(t *testing.T) {
	t.Parallel()

	c := New("x")
	c.Add("a.txt", []byte("a"))
	if !c.Has("a.txt") {
		t.Error("Has(a.txt) = false")
	}
	if c.Has("b.txt") {
		t.Error("Has(b.txt) = true")
	}
}

func TestContainerEntriesKeepOrder(t *testing.T) {
	t.Parallel()

	c := New("x")
	names := []string{"one", "two", "three"}
	for _, n := range names {
		c.Add(n, []byte(n))
	}
	entries := c.Entries()
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}
	for i, n := range names {
		if entries[i+1].Name != n {
			t.Errorf("entries[%d] = %q, want %q", i+1, entries[i+1].Name, n)
		}
	}
}

func TestContainerWriteFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.zip")

	c := New("x")
	c.Add("a.txt", []byte("content"))
	if err := c.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("output missing: %v", err)
	}

	// No temp file may be left behind.
	matches, err := filepath.Glob(filepath.Join(dir, ".mdbook-container-*"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}
