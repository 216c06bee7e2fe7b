package bvc

import (
	"context"
	"fmt"
	"strings"
)

// CheckpointOptions control checkpoint creation. From and To accept
// abbreviated commit IDs; empty From means the first commit, empty To the
// chain head.
type CheckpointOptions struct {
	From    string
	To      string
	Message string
}

// CheckpointPlan describes the commit range a checkpoint would cover. It is
// produced by PlanCheckpoint without touching the content store, the
// ledger, or the checkpoint log.
type CheckpointPlan struct {
	FromCommitID string
	ToCommitID   string
	CommitCount  int
}

// findCommit locates a commit by ID prefix with a linear scan, returning
// its index in the chain.
func findCommit(commits []Commit, ref string) (int, error) {
	for i := range commits {
		if strings.HasPrefix(commits[i].CommitID, ref) {
			return i, nil
		}
	}
	return 0, &CommitNotFoundError{Ref: ref}
}

// resolveRange resolves From/To against the chain and returns the inclusive
// index bounds.
func resolveRange(commits []Commit, opts CheckpointOptions) (lo, hi int, err error) {
	if len(commits) == 0 {
		return 0, 0, ErrEmptyCommit
	}
	lo = 0
	hi = len(commits) - 1
	if opts.From != "" {
		if lo, err = findCommit(commits, opts.From); err != nil {
			return 0, 0, err
		}
	}
	if opts.To != "" {
		if hi, err = findCommit(commits, opts.To); err != nil {
			return 0, 0, err
		}
	}
	if lo > hi {
		return 0, 0, &InvalidRangeError{From: commits[lo].CommitID, To: commits[hi].CommitID}
	}
	return lo, hi, nil
}

// PlanCheckpoint resolves the commit range and reports what a checkpoint
// would anchor. Used by the dry-run path.
func (s *BVCService) PlanCheckpoint(opts CheckpointOptions) (*CheckpointPlan, error) {
	commits, err := s.store.LoadCommits()
	if err != nil {
		return nil, fmt.Errorf("loading commits: %w", err)
	}
	lo, hi, err := resolveRange(commits, opts)
	if err != nil {
		return nil, err
	}
	return &CheckpointPlan{
		FromCommitID: commits[lo].CommitID,
		ToCommitID:   commits[hi].CommitID,
		CommitCount:  hi - lo + 1,
	}, nil
}

// Checkpoint anchors an inclusive range of local commits in a single ledger
// transaction: one bundle upload of the current working tree, one aggregate
// digest over the range's commit IDs, one recordCheckpoint call. Unlike
// commit anchoring, a remote failure here is a hard failure: a checkpoint
// with no ledger effect is meaningless and is never recorded locally.
func (s *BVCService) Checkpoint(ctx context.Context, opts CheckpointOptions) (*Checkpoint, error) {
	cfg, err := s.store.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.RepoID == "" {
		return nil, &ConfigurationMissingError{Key: "repoId (repository is local-only; run push to register it)"}
	}
	if s.ledger == nil {
		return nil, &ConfigurationMissingError{Key: "ledger endpoint"}
	}
	if s.content == nil {
		return nil, &ConfigurationMissingError{Key: "content store endpoint"}
	}

	commits, err := s.store.LoadCommits()
	if err != nil {
		return nil, fmt.Errorf("loading commits: %w", err)
	}
	lo, hi, err := resolveRange(commits, opts)
	if err != nil {
		return nil, err
	}
	rng := commits[lo : hi+1]

	// The bundle snapshots the working tree as it is now, which may differ
	// from the files as they existed at the range's end commit.
	data, err := s.workingTreeBundle()
	if err != nil {
		return nil, err
	}
	res, err := s.content.Upload(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("uploading checkpoint bundle: %w", err)
	}
	if res.Simulated {
		s.logger.Warn("content store unreachable, recorded simulated bundle id", "contentId", res.ID)
	}

	cp := Checkpoint{
		FromCommitID:    rng[0].CommitID,
		ToCommitID:      rng[len(rng)-1].CommitID,
		BundleContentID: res.ID,
		AggregateDigest: AggregateDigest(rng),
		Message:         opts.Message,
		Timestamp:       s.clock.Now(),
		CommitCount:     len(rng),
	}

	if err := s.ledger.RecordCheckpoint(ctx, cfg.RepoID, cp.FromCommitID, cp.ToCommitID, cp.BundleContentID, cp.AggregateDigest); err != nil {
		return nil, fmt.Errorf("recording checkpoint on ledger: %w", err)
	}

	checkpoints, err := s.store.LoadCheckpoints()
	if err != nil {
		return nil, fmt.Errorf("loading checkpoints: %w", err)
	}
	checkpoints = append(checkpoints, cp)
	if err := s.store.SaveCheckpoints(checkpoints); err != nil {
		return nil, fmt.Errorf("saving checkpoints: %w", err)
	}

	s.logger.Info("checkpoint anchored",
		"from", cp.FromCommitID, "to", cp.ToCommitID,
		"commits", cp.CommitCount, "bundle", cp.BundleContentID)
	return &cp, nil
}

// AggregateDigest hashes the ordered concatenation of the commits' IDs.
// A flat digest, not a Merkle root: same collision resistance as the
// underlying hash, no logarithmic inclusion proofs.
func AggregateDigest(commits []Commit) string {
	var b strings.Builder
	for i := range commits {
		b.WriteString(commits[i].CommitID)
	}
	return Digest([]byte(b.String()))
}
