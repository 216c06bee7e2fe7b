package bvc

import "context"

// Ledger is the thin client surface over the deployed contract. Each method
// is a single remote call; there is no retry policy beyond what the
// underlying transport provides. Connectivity loss surfaces as
// *RemoteUnavailableError, ownership rejections as *UnauthorizedError.
//
// Argument order on the record calls is fixed by the contract and must not
// be reshuffled.
type Ledger interface {
	// CreateRepository registers a new repository and returns the ID the
	// contract assigned to it.
	CreateRepository(ctx context.Context, name string) (string, error)

	// RecordCommit anchors a single commit's metadata.
	RecordCommit(ctx context.Context, repoID, commitID, contentID, message string) error

	// RecordCheckpoint anchors a contiguous commit range in one transaction.
	// This is the single gas-incurring call for the whole batch.
	RecordCheckpoint(ctx context.Context, repoID, fromID, toID, bundleContentID, aggregateDigest string) error

	// ListCommits reads back the anchored commits, oldest first.
	ListCommits(ctx context.Context, repoID string) ([]RemoteCommit, error)

	// GetRepository reads back a repository record.
	GetRepository(ctx context.Context, repoID string) (*RemoteRepository, error)
}
