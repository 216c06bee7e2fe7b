package fs

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// hidden reports whether a path component starts with a dot.
func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// ScanTree walks the repository root and returns the relative paths of all
// regular files, sorted. Hidden entries and matcher-ignored paths are
// skipped.
func ScanTree(root string, matcher *IgnoreMatcher) ([]string, error) {
	return Expand(root, root, matcher)
}

// Expand resolves target (a file or directory under root) to the relative
// paths of the regular files it contains, applying the hidden-entry rule and
// the ignore matcher. A target pointing at a single non-ignored file returns
// exactly that file.
func Expand(root, target string, matcher *IgnoreMatcher) ([]string, error) {
	var files []string
	err := filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relativizing %s: %w", path, err)
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if hidden(d.Name()) || matcher.Match(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if hidden(d.Name()) || matcher.Match(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", target, err)
	}
	sort.Strings(files)
	return files, nil
}
