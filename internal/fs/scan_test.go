package fs

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("creating directory for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", rel, err)
		}
	}
}

func TestScanTree(t *testing.T) {
	t.Run("returns sorted relative paths", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeTree(t, root, map[string]string{
			"b.txt":       "b",
			"a.txt":       "a",
			"sub/c.txt":   "c",
			"sub/d/e.txt": "e",
		})

		got, err := ScanTree(root, NewIgnoreMatcher(nil))
		if err != nil {
			t.Fatalf("ScanTree() error = %v", err)
		}
		want := []string{"a.txt", "b.txt", "sub/c.txt", "sub/d/e.txt"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("ScanTree() = %v, want %v", got, want)
		}
	})

	t.Run("skips hidden entries and ignored paths", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeTree(t, root, map[string]string{
			"a.txt":            "a",
			".hidden":          "h",
			".git/config":      "g",
			"logs/app.log":     "l",
			".bvc/config.json": "c",
		})

		got, err := ScanTree(root, NewIgnoreMatcher([]string{"*.log"}))
		if err != nil {
			t.Fatalf("ScanTree() error = %v", err)
		}
		want := []string{"a.txt"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("ScanTree() = %v, want %v", got, want)
		}
	})
}

func TestExpand(t *testing.T) {
	t.Run("expands a subdirectory relative to the root", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeTree(t, root, map[string]string{
			"top.txt":       "t",
			"docs/a.txt":    "a",
			"docs/in/b.txt": "b",
		})

		got, err := Expand(root, filepath.Join(root, "docs"), NewIgnoreMatcher(nil))
		if err != nil {
			t.Fatalf("Expand() error = %v", err)
		}
		want := []string{"docs/a.txt", "docs/in/b.txt"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Expand() = %v, want %v", got, want)
		}
	})
}
