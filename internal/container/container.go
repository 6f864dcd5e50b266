// Package container assembles ZIP-based document containers (EPUB, ODT).
//
// Both formats require a "mimetype" entry stored first and uncompressed so
// readers can sniff the media type from the raw bytes. Entries keep insertion
// order; the final file is placed atomically.
package container

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// Entry is one named file inside the container.
type Entry struct {
	Name   string
	Data   []byte
	Stored bool // written without compression
}

// Container is an ordered set of named entries forming one ZIP artifact.
type Container struct {
	entries []Entry
}

// New creates a Container whose first entry is the stored, uncompressed
// mimetype declaration.
func New(mimetype string) *Container {
	c := &Container{}
	c.AddStored("mimetype", []byte(mimetype))
	return c
}

// Add appends a compressed entry.
func (c *Container) Add(name string, data []byte) {
	c.entries = append(c.entries, Entry{Name: name, Data: data})
}

// AddStored appends an uncompressed entry.
func (c *Container) AddStored(name string, data []byte) {
	c.entries = append(c.entries, Entry{Name: name, Data: data, Stored: true})
}

// Has reports whether an entry with the given name exists.
func (c *Container) Has(name string) bool {
	for _, e := range c.entries {
		if e.Name == name {
			return true
		}
	}
	return false
}

// Entries returns the entries in insertion order.
func (c *Container) Entries() []Entry {
	return c.entries
}

// Bytes packages the entries into ZIP format.
func (c *Container) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, e := range c.entries {
		header := &zip.FileHeader{Name: e.Name, Method: zip.Deflate}
		if e.Stored {
			header.Method = zip.Store
		}
		w, err := zw.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("creating entry %q: %w", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("writing entry %q: %w", e.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing container: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile packages the entries and writes the container to path through a
// temporary file renamed into place.
func (c *Container) WriteFile(path string) error {
	data, err := c.Bytes()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".mdbook-container-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("placing container: %w", err)
	}
	return nil
}
