package bvc

import "time"

// DefaultBranch is the single branch name used for every repository.
// Branching is not implemented; the field exists for on-disk compatibility.
const DefaultBranch = "main"

// RepoConfig is the per-repository configuration document.
// RepoID is assigned by the ledger at creation time and is empty for
// local-only repositories. Once non-empty it is never changed.
type RepoConfig struct {
	RepoID      string    `json:"repoId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	Branch      string    `json:"branch"`
	Author      string    `json:"author"`
}

// StagedFile is a single entry in the staging set.
// Path is relative to the repository root. Content optionally carries the
// raw bytes captured at staging time for later diff use; encoding/json
// base64-encodes it on disk.
type StagedFile struct {
	Path          string    `json:"path"`
	ContentDigest string    `json:"contentDigest"`
	Size          int64     `json:"size"`
	ModifiedAt    time.Time `json:"modifiedAt"`
	Content       []byte    `json:"content,omitempty"`
}

// StagingDoc is the on-disk shape of the staging set.
type StagingDoc struct {
	Files []StagedFile `json:"files"`
}

// Commit is a locally recorded snapshot of staged files.
// ParentID is the CommitID of the immediately preceding commit, or empty for
// the first commit. ContentID is the content-store reference for the bundled
// files, empty when no upload happened. Anchored reports whether the commit
// was successfully recorded on the ledger.
type Commit struct {
	CommitID  string       `json:"commitId"`
	ParentID  string       `json:"parentId"`
	Author    string       `json:"author"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	ContentID string       `json:"contentId"`
	Anchored  bool         `json:"anchored"`
	Amended   bool         `json:"amended,omitempty"`
	Files     []StagedFile `json:"files"`
}

// Checkpoint anchors a contiguous, inclusive range of local commits in one
// ledger transaction. AggregateDigest is the digest of the ordered
// concatenation of the range's commit IDs, a flat hash rather than a Merkle
// root, so it offers no inclusion proofs.
type Checkpoint struct {
	FromCommitID    string    `json:"fromCommitId"`
	ToCommitID      string    `json:"toCommitId"`
	BundleContentID string    `json:"bundleContentId"`
	AggregateDigest string    `json:"aggregateDigest"`
	Message         string    `json:"message"`
	Timestamp       time.Time `json:"timestamp"`
	CommitCount     int       `json:"commitCount"`
}

// RemoteCommit is a commit record read back from the ledger.
type RemoteCommit struct {
	CommitID  string
	ContentID string
	Message   string
	Author    string
	Timestamp time.Time
}

// RemoteRepository is a repository record read back from the ledger.
type RemoteRepository struct {
	RepoID    string
	Name      string
	Owner     string
	CreatedAt time.Time
}
