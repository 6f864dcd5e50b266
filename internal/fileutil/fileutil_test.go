package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	t.Run("creates the file with the exact content", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "out.txt")

		if err := WriteFileAtomic(path, []byte("hello")); err != nil {
			t.Fatalf("WriteFileAtomic: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading output: %v", err)
		}
		if string(data) != "hello" {
			t.Errorf("content = %q, want %q", data, "hello")
		}

		matches, err := filepath.Glob(filepath.Join(dir, ".mdbook-*"))
		if err != nil {
			t.Fatalf("glob: %v", err)
		}
		if len(matches) != 0 {
			t.Errorf("temp files left behind: %v", matches)
		}
	})

	t.Run("replaces an existing file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "out.txt")
		if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
			t.Fatalf("seeding file: %v", err)
		}
		if err := WriteFileAtomic(path, []byte("new")); err != nil {
			t.Fatalf("WriteFileAtomic: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading output: %v", err)
		}
		if string(data) != "new" {
			t.Errorf("content = %q, want %q", data, "new")
		}
	})

	t.Run("missing directory fails without side effects", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "missing", "out.txt")
		if err := WriteFileAtomic(path, []byte("x")); err == nil {
			t.Fatal("expected an error for a missing directory")
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("destination must not exist after a failed write")
		}
	})
}
