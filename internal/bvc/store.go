package bvc

// Store persists the four repository state documents. Loading a document
// that does not exist yet returns its empty default, never an error. Saves
// are whole-document overwrites; two processes racing on the same repository
// resolve to whichever save lands last. That hazard is accepted for a
// single-user tool and deliberately not papered over with a lock file.
type Store interface {
	// LoadConfig returns the repository configuration, or a zero-value
	// config when none has been written.
	LoadConfig() (*RepoConfig, error)
	SaveConfig(cfg *RepoConfig) error

	// LoadStaging returns the staging set, with an empty file list when no
	// staging document exists.
	LoadStaging() (*StagingDoc, error)
	SaveStaging(doc *StagingDoc) error

	// LoadCommits returns the local commit chain, oldest first.
	LoadCommits() ([]Commit, error)
	SaveCommits(commits []Commit) error

	// LoadCheckpoints returns the local checkpoint log, oldest first.
	LoadCheckpoints() ([]Checkpoint, error)
	SaveCheckpoints(checkpoints []Checkpoint) error
}
