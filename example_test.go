package mdbook_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	mdbook "github.com/alnah/go-mdbook"
)

// Example demonstrates compiling a two-chapter manuscript to HTML.
func Example() {
	dir, err := os.MkdirTemp("", "mdbook-example-*")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer os.RemoveAll(dir)

	ch1 := filepath.Join(dir, "ch1.md")
	ch2 := filepath.Join(dir, "ch2.md")
	_ = os.WriteFile(ch1, []byte("# The Beginning\n\nIt was a dark night."), 0o600)
	_ = os.WriteFile(ch2, []byte("# The End\n\nAnd then it was over."), 0o600)

	book := mdbook.NewBook()
	book.Title = "A Short Story"
	book.Author = "Jane Doe"
	if err := book.AddChapter(mdbook.Default, ch1); err != nil {
		fmt.Println("error:", err)
		return
	}
	if err := book.AddChapter(mdbook.Default, ch2); err != nil {
		fmt.Println("error:", err)
		return
	}

	out := filepath.Join(dir, "book.html")
	if err := book.RenderHTML(out); err != nil {
		fmt.Println("error:", err)
		return
	}

	html, _ := os.ReadFile(out)
	if strings.Contains(string(html), "1. The Beginning") &&
		strings.Contains(string(html), "2. The End") {
		fmt.Println("chapters numbered and rendered")
	}
	// Output: chapters numbered and rendered
}

// Example_config demonstrates loading a manuscript from a config file.
func Example_config() {
	dir, err := os.MkdirTemp("", "mdbook-example-*")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer os.RemoveAll(dir)

	_ = os.WriteFile(filepath.Join(dir, "intro.md"),
		[]byte("# Introduction\n\nWelcome."), 0o600)
	_ = os.WriteFile(filepath.Join(dir, "book.cfg"), []byte(
		"title: My Book\n"+
			"author: Jane Doe\n"+
			"output-epub: book.epub\n"+
			"+ intro.md\n"), 0o600)

	book, err := mdbook.NewBookFromFile(filepath.Join(dir, "book.cfg"))
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	if err := book.RenderAll(); err != nil {
		fmt.Println("error:", err)
		return
	}
	if _, err := os.Stat(filepath.Join(dir, "book.epub")); err == nil {
		fmt.Println("epub generated")
	}
	// Output: epub generated
}
