// Package staging maintains the pre-commit staging set.
package staging

import (
	"fmt"
	"os"
	"path/filepath"

	"bvc-go/internal/bvc"
	"bvc-go/internal/fs"
)

// Area implements bvc.StagingArea against the repository's JSON store.
type Area struct {
	store  bvc.Store
	clock  bvc.Clock
	logger bvc.Logger
	root   string
}

var _ bvc.StagingArea = (*Area)(nil)

// NewArea creates a staging area for the repository rooted at root.
func NewArea(store bvc.Store, clock bvc.Clock, logger bvc.Logger, root string) *Area {
	return &Area{store: store, clock: clock, logger: logger, root: root}
}

// Stage resolves each path, expanding directories recursively (hidden
// entries and ignore patterns excluded), and upserts one entry per file
// into the staging document. A path that does not exist is reported in the
// result and skipped; the remaining paths are still staged.
func (a *Area) Stage(paths []string) (*bvc.StageResult, error) {
	doc, err := a.store.LoadStaging()
	if err != nil {
		return nil, fmt.Errorf("loading staging: %w", err)
	}
	matcher, err := fs.LoadIgnoreMatcher(a.root)
	if err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}

	res := &bvc.StageResult{}
	for _, raw := range paths {
		rels, err := a.expand(raw, matcher)
		if err != nil {
			if os.IsNotExist(err) {
				res.Missing = append(res.Missing, raw)
				continue
			}
			return nil, err
		}
		for _, rel := range rels {
			entry, err := a.snapshot(rel)
			if err != nil {
				return nil, err
			}
			upsert(doc, entry)
			res.Staged++
			a.logger.Debug("file staged", "path", rel)
		}
	}

	if err := a.store.SaveStaging(doc); err != nil {
		return nil, fmt.Errorf("saving staging: %w", err)
	}
	return res, nil
}

// Clear empties the staging set.
func (a *Area) Clear() error {
	if err := a.store.SaveStaging(&bvc.StagingDoc{Files: []bvc.StagedFile{}}); err != nil {
		return fmt.Errorf("clearing staging: %w", err)
	}
	return nil
}

// expand resolves a raw path argument to repository-relative file paths.
// Directories are walked recursively; a file named explicitly is staged
// even if an ignore pattern would have excluded it from a directory walk.
func (a *Area) expand(raw string, matcher *fs.IgnoreMatcher) ([]string, error) {
	target := raw
	if !filepath.IsAbs(target) {
		target = filepath.Join(a.root, raw)
	}
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return fs.Expand(a.root, target, matcher)
	}
	rel, err := filepath.Rel(a.root, target)
	if err != nil {
		return nil, fmt.Errorf("relativizing %s: %w", raw, err)
	}
	return []string{rel}, nil
}

// snapshot reads a file and builds its staging entry. The raw content is
// kept alongside the digest for later diff use.
func (a *Area) snapshot(rel string) (bvc.StagedFile, error) {
	full := filepath.Join(a.root, rel)
	data, err := os.ReadFile(full)
	if err != nil {
		return bvc.StagedFile{}, fmt.Errorf("reading %s: %w", rel, err)
	}
	info, err := os.Stat(full)
	if err != nil {
		return bvc.StagedFile{}, fmt.Errorf("stat %s: %w", rel, err)
	}
	return bvc.StagedFile{
		Path:          filepath.ToSlash(rel),
		ContentDigest: bvc.Digest(data),
		Size:          info.Size(),
		ModifiedAt:    info.ModTime(),
		Content:       data,
	}, nil
}

// upsert replaces any existing entry for the same path, keeping at most one
// entry per distinct path.
func upsert(doc *bvc.StagingDoc, entry bvc.StagedFile) {
	for i := range doc.Files {
		if doc.Files[i].Path == entry.Path {
			doc.Files[i] = entry
			return
		}
	}
	doc.Files = append(doc.Files, entry)
}
