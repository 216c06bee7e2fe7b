package bvc

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"bvc-go/internal/bundle"
)

// CommitOptions control commit creation.
type CommitOptions struct {
	// Anchor attempts to record the commit on the ledger after creating it
	// locally. Anchoring is best effort: any remote failure is logged and
	// the commit is kept local-only.
	Anchor bool

	// Amend replaces the chain's tail commit in place instead of appending.
	// The parent pointer is kept, not recomputed.
	Amend bool
}

// DeriveCommitID computes a commit identifier from the staged files'
// digests (sorted lexicographically), the message, and the timestamp at
// nanosecond precision. Including wall-clock time means the ID is unique
// per commit, not a pure function of content: identical files and message
// at different times get different IDs, even within the same second.
func DeriveCommitID(files []StagedFile, message string, ts time.Time) string {
	digests := make([]string, 0, len(files))
	for _, f := range files {
		digests = append(digests, f.ContentDigest)
	}
	sort.Strings(digests)

	var b strings.Builder
	for _, d := range digests {
		b.WriteString(d)
	}
	b.WriteString(message)
	b.WriteString(strconv.FormatInt(ts.UnixNano(), 10))
	return Digest([]byte(b.String()))
}

// Commit turns the staging set into a new commit at the head of the local
// chain, then clears staging. Local creation never fails because of the
// remote step; when anchoring fails the commit is recorded with
// anchored=false and a warning is logged.
func (s *BVCService) Commit(ctx context.Context, message string, opts CommitOptions) (*Commit, error) {
	staging, err := s.store.LoadStaging()
	if err != nil {
		return nil, fmt.Errorf("loading staging: %w", err)
	}
	commits, err := s.store.LoadCommits()
	if err != nil {
		return nil, fmt.Errorf("loading commits: %w", err)
	}
	if opts.Amend && len(commits) == 0 {
		return nil, &CommitNotFoundError{Ref: "HEAD"}
	}

	files := staging.Files
	if opts.Amend && len(files) == 0 {
		// Amending with nothing staged reuses the tail's file snapshots.
		files = commits[len(commits)-1].Files
	}
	if len(files) == 0 {
		return nil, ErrEmptyCommit
	}

	cfg, err := s.store.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	author := cfg.Author
	if author == "" {
		author = s.author
	}

	ts := s.clock.Now()
	commit := Commit{
		CommitID:  DeriveCommitID(files, message, ts),
		Author:    author,
		Message:   message,
		Timestamp: ts,
		Files:     files,
	}
	if opts.Amend {
		commit.ParentID = commits[len(commits)-1].ParentID
		commit.Amended = true
	} else if len(commits) > 0 {
		commit.ParentID = commits[len(commits)-1].CommitID
	}

	if opts.Anchor {
		if err := s.anchorCommit(ctx, cfg, &commit); err != nil {
			s.logger.Warn("anchoring failed, keeping commit local-only", "commitId", commit.CommitID, "err", err)
		}
	}

	if opts.Amend {
		commits[len(commits)-1] = commit
	} else {
		commits = append(commits, commit)
	}
	if err := s.store.SaveCommits(commits); err != nil {
		return nil, fmt.Errorf("saving commits: %w", err)
	}
	if err := s.staging.Clear(); err != nil {
		return nil, fmt.Errorf("clearing staging: %w", err)
	}

	s.logger.Info("commit created", "commitId", commit.CommitID, "files", len(files), "anchored", commit.Anchored)
	return &commit, nil
}

// anchorCommit uploads the commit's files and records the commit on the
// ledger. The caller decides whether a failure here is fatal; for Commit it
// is not.
func (s *BVCService) anchorCommit(ctx context.Context, cfg *RepoConfig, c *Commit) error {
	if cfg.RepoID == "" {
		return &ConfigurationMissingError{Key: "repoId (repository is local-only; run push to register it)"}
	}
	if s.ledger == nil {
		return &ConfigurationMissingError{Key: "ledger endpoint"}
	}
	if s.content == nil {
		return &ConfigurationMissingError{Key: "content store endpoint"}
	}

	data, err := bundle.Build(s.workdir, commitPaths(c.Files))
	if err != nil {
		return fmt.Errorf("bundling commit files: %w", err)
	}
	res, err := s.content.Upload(ctx, data)
	if err != nil {
		return fmt.Errorf("uploading commit bundle: %w", err)
	}
	c.ContentID = res.ID
	if res.Simulated {
		s.logger.Warn("content store unreachable, recorded simulated content id", "contentId", res.ID)
	}

	if err := s.ledger.RecordCommit(ctx, cfg.RepoID, c.CommitID, c.ContentID, c.Message); err != nil {
		return fmt.Errorf("recording commit on ledger: %w", err)
	}
	c.Anchored = true
	return nil
}
