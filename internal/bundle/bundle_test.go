package bundle

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestBuildExtract(t *testing.T) {
	t.Run("round-trips a file tree", func(t *testing.T) {
		t.Parallel()
		src := t.TempDir()
		files := map[string]string{
			"a.txt":        "alpha",
			"sub/b.txt":    "beta",
			"sub/in/c.txt": "gamma",
		}
		for rel, content := range files {
			path := filepath.Join(src, rel)
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				t.Fatalf("creating directory: %v", err)
			}
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("writing %s: %v", rel, err)
			}
		}

		data, err := Build(src, []string{"a.txt", "sub/b.txt", "sub/in/c.txt"})
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}

		dest := t.TempDir()
		written, err := Extract(data, dest)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if len(written) != len(files) {
			t.Errorf("Extract() wrote %d file(s), want %d", len(written), len(files))
		}
		for rel, want := range files {
			got, err := os.ReadFile(filepath.Join(dest, rel))
			if err != nil {
				t.Fatalf("reading %s: %v", rel, err)
			}
			if string(got) != want {
				t.Errorf("%s = %q, want %q", rel, got, want)
			}
		}
	})

	t.Run("missing source file fails the build", func(t *testing.T) {
		t.Parallel()
		if _, err := Build(t.TempDir(), []string{"absent.txt"}); err == nil {
			t.Error("Build() expected error for missing file")
		}
	})

	t.Run("empty bundle extracts to nothing", func(t *testing.T) {
		t.Parallel()
		data, err := Build(t.TempDir(), nil)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		written, err := Extract(data, t.TempDir())
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if len(written) != 0 {
			t.Errorf("Extract() wrote %d file(s), want 0", len(written))
		}
	})
}

func TestExtract_UnsafePaths(t *testing.T) {
	// Hand-build archives with hostile entry names.
	build := func(t *testing.T, name string) []byte {
		t.Helper()
		var buf bytes.Buffer
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			t.Fatalf("creating zstd writer: %v", err)
		}
		tw := tar.NewWriter(zw)
		content := []byte("evil")
		if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0644, Size: int64(len(content))}); err != nil {
			t.Fatalf("writing header: %v", err)
		}
		if _, err := tw.Write(content); err != nil {
			t.Fatalf("writing content: %v", err)
		}
		if err := tw.Close(); err != nil {
			t.Fatalf("closing tar: %v", err)
		}
		if err := zw.Close(); err != nil {
			t.Fatalf("closing zstd: %v", err)
		}
		return buf.Bytes()
	}

	for _, name := range []string{"../escape.txt", "/etc/passwd", "ok/../../escape.txt"} {
		t.Run(name, func(t *testing.T) {
			if _, err := Extract(build(t, name), t.TempDir()); err == nil {
				t.Errorf("Extract() accepted unsafe path %q", name)
			}
		})
	}
}
