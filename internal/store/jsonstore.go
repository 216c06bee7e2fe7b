// Package store persists repository state as JSON documents under the
// per-repository .bvc directory.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"bvc-go/internal/bvc"
)

// Dir is the hidden per-repository state directory.
const Dir = ".bvc"

const (
	configFile      = "config.json"
	stagingFile     = "staging.json"
	commitsFile     = "commits.json"
	checkpointsFile = "checkpoints.json"
)

// JSONStore implements bvc.Store over plain JSON files. Every save is a
// whole-document overwrite through a temp file + rename, so a crash never
// leaves a half-written document. There is no cross-process locking: two
// concurrent invocations race and the last save wins.
type JSONStore struct {
	dir string
}

var _ bvc.Store = (*JSONStore)(nil)

// Open returns a store for the repository rooted at root. It does not
// create the state directory; use Init for that.
func Open(root string) *JSONStore {
	return &JSONStore{dir: filepath.Join(root, Dir)}
}

// Init creates the state directory (and its log subdirectory) and returns
// the store.
func Init(root string) (*JSONStore, error) {
	s := Open(root)
	if err := os.MkdirAll(filepath.Join(s.dir, "log"), 0755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	return s, nil
}

// Exists reports whether the state directory is present.
func (s *JSONStore) Exists() bool {
	info, err := os.Stat(s.dir)
	return err == nil && info.IsDir()
}

// Dir returns the state directory path.
func (s *JSONStore) Dir() string { return s.dir }

// FindRoot walks upward from start looking for a directory containing the
// state directory, the way git discovers its repository root.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", start, err)
	}
	for {
		info, err := os.Stat(filepath.Join(dir, Dir))
		if err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", &bvc.NotFoundError{Path: "repository (no " + Dir + " directory found)"}
		}
		dir = parent
	}
}

// LoadConfig returns the repository configuration, or a zero-value config
// when none has been written yet.
func (s *JSONStore) LoadConfig() (*bvc.RepoConfig, error) {
	cfg := &bvc.RepoConfig{}
	if err := s.load(configFile, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *JSONStore) SaveConfig(cfg *bvc.RepoConfig) error {
	return s.save(configFile, cfg)
}

// LoadStaging returns the staging document, defaulting to an empty file
// list.
func (s *JSONStore) LoadStaging() (*bvc.StagingDoc, error) {
	doc := &bvc.StagingDoc{}
	if err := s.load(stagingFile, doc); err != nil {
		return nil, err
	}
	if doc.Files == nil {
		doc.Files = []bvc.StagedFile{}
	}
	return doc, nil
}

func (s *JSONStore) SaveStaging(doc *bvc.StagingDoc) error {
	if doc.Files == nil {
		doc.Files = []bvc.StagedFile{}
	}
	return s.save(stagingFile, doc)
}

// LoadCommits returns the commit chain, oldest first, defaulting to empty.
func (s *JSONStore) LoadCommits() ([]bvc.Commit, error) {
	var commits []bvc.Commit
	if err := s.load(commitsFile, &commits); err != nil {
		return nil, err
	}
	if commits == nil {
		commits = []bvc.Commit{}
	}
	return commits, nil
}

func (s *JSONStore) SaveCommits(commits []bvc.Commit) error {
	if commits == nil {
		commits = []bvc.Commit{}
	}
	return s.save(commitsFile, commits)
}

// LoadCheckpoints returns the checkpoint log, oldest first, defaulting to
// empty.
func (s *JSONStore) LoadCheckpoints() ([]bvc.Checkpoint, error) {
	var checkpoints []bvc.Checkpoint
	if err := s.load(checkpointsFile, &checkpoints); err != nil {
		return nil, err
	}
	if checkpoints == nil {
		checkpoints = []bvc.Checkpoint{}
	}
	return checkpoints, nil
}

func (s *JSONStore) SaveCheckpoints(checkpoints []bvc.Checkpoint) error {
	if checkpoints == nil {
		checkpoints = []bvc.Checkpoint{}
	}
	return s.save(checkpointsFile, checkpoints)
}

// load decodes the named document into v. A missing document leaves v at
// its zero value.
func (s *JSONStore) load(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}

// save encodes v and replaces the named document atomically: write to a
// temp file in the same directory, then rename over the destination.
func (s *JSONStore) save(name string, v any) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	success = true
	return nil
}
