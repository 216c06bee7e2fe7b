package bvc

// StageResult reports the outcome of a staging call. Missing lists paths
// that did not exist; they are warnings, not failures, and staging continues
// with the remaining paths.
type StageResult struct {
	Staged  int
	Missing []string
}

// StagingArea maintains the pre-commit staging set. Adding an
// already-staged path replaces the prior entry, so at most one entry exists
// per distinct path.
type StagingArea interface {
	// Stage resolves each path, expanding directories recursively to regular
	// files (hidden entries and ignore patterns excluded), digests each
	// file's bytes, and upserts an entry into the staging document.
	Stage(paths []string) (*StageResult, error)

	// Clear empties the staging set. Called after a successful commit.
	Clear() error
}
