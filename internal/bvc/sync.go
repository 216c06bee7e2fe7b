package bvc

import (
	"context"
	"fmt"

	"bvc-go/internal/bundle"
)

// PushResult reports what a push changed.
type PushResult struct {
	// Registered is true when the repository was local-only and push
	// registered it on the ledger first.
	Registered      bool
	RepoID          string
	Anchored        int
	AlreadyAnchored int
}

// Push anchors every not-yet-anchored local commit on the ledger, oldest
// first. A local-only repository is registered on the ledger first (the
// upgrade-to-remote path; this is the only other writer of RepoID besides
// Init). Push exists solely for its remote effect, so any ledger failure is
// surfaced; progress made before the failure is kept.
func (s *BVCService) Push(ctx context.Context) (*PushResult, error) {
	if s.ledger == nil {
		return nil, &ConfigurationMissingError{Key: "ledger endpoint"}
	}
	cfg, err := s.store.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.Name == "" {
		return nil, &NotFoundError{Path: "repository config"}
	}

	res := &PushResult{RepoID: cfg.RepoID}
	if cfg.RepoID == "" {
		id, err := s.ledger.CreateRepository(ctx, cfg.Name)
		if err != nil {
			return nil, fmt.Errorf("registering repository on ledger: %w", err)
		}
		cfg.RepoID = id
		if err := s.store.SaveConfig(cfg); err != nil {
			return nil, fmt.Errorf("saving config: %w", err)
		}
		res.Registered = true
		res.RepoID = id
		s.logger.Info("repository registered", "repoId", id, "name", cfg.Name)
	}

	commits, err := s.store.LoadCommits()
	if err != nil {
		return nil, fmt.Errorf("loading commits: %w", err)
	}

	for i := range commits {
		if commits[i].Anchored {
			res.AlreadyAnchored++
			continue
		}
		if err := s.pushCommit(ctx, cfg, &commits[i]); err != nil {
			// Keep the progress made so far before surfacing the failure.
			if saveErr := s.store.SaveCommits(commits); saveErr != nil {
				s.logger.Error("saving partial push progress", "err", saveErr)
			}
			return res, fmt.Errorf("pushing commit %s: %w", commits[i].CommitID, err)
		}
		res.Anchored++
	}

	if err := s.store.SaveCommits(commits); err != nil {
		return nil, fmt.Errorf("saving commits: %w", err)
	}
	return res, nil
}

// pushCommit uploads a commit's bundle (unless one is already recorded) and
// records the commit on the ledger.
func (s *BVCService) pushCommit(ctx context.Context, cfg *RepoConfig, c *Commit) error {
	if c.ContentID == "" || IsSimulatedID(c.ContentID) {
		if s.content == nil {
			return &ConfigurationMissingError{Key: "content store endpoint"}
		}
		data, err := bundle.Build(s.workdir, commitPaths(c.Files))
		if err != nil {
			return fmt.Errorf("bundling commit files: %w", err)
		}
		up, err := s.content.Upload(ctx, data)
		if err != nil {
			return fmt.Errorf("uploading commit bundle: %w", err)
		}
		if up.Simulated {
			s.logger.Warn("content store unreachable, recorded simulated content id", "contentId", up.ID)
		}
		c.ContentID = up.ID
	}
	if err := s.ledger.RecordCommit(ctx, cfg.RepoID, c.CommitID, c.ContentID, c.Message); err != nil {
		return err
	}
	c.Anchored = true
	return nil
}

// PullResult reports what a pull changed.
type PullResult struct {
	// Added counts remote commits appended to the local chain.
	Added int
	// Marked counts local commits newly marked as anchored.
	Marked int
	// LocalOnly counts local commits the ledger does not know about.
	LocalOnly int

	// Diverged reports that the local and remote chains disagree at some
	// position. Reconciliation stops at the first mismatch; nothing past it
	// is marked or appended.
	Diverged         bool
	DivergedLocalID  string
	DivergedRemoteID string
}

// Pull reads the anchored commit list back from the ledger and reconciles
// it with the local chain position by position: matching commits get
// anchored=true, remote commits past the local head are appended
// (anchored). Local commits past the remote head are counted and reported,
// never discarded. A position where the two chains carry different IDs is
// divergence: it is reported and reconciliation stops there, leaving both
// histories intact.
func (s *BVCService) Pull(ctx context.Context) (*PullResult, error) {
	if s.ledger == nil {
		return nil, &ConfigurationMissingError{Key: "ledger endpoint"}
	}
	cfg, err := s.store.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.RepoID == "" {
		return nil, &ConfigurationMissingError{Key: "repoId (repository is local-only; run push to register it)"}
	}

	remote, err := s.ledger.ListCommits(ctx, cfg.RepoID)
	if err != nil {
		return nil, fmt.Errorf("listing remote commits: %w", err)
	}
	commits, err := s.store.LoadCommits()
	if err != nil {
		return nil, fmt.Errorf("loading commits: %w", err)
	}

	res := &PullResult{}
	i := 0
	for ; i < len(commits) && i < len(remote); i++ {
		if commits[i].CommitID != remote[i].CommitID {
			res.Diverged = true
			res.DivergedLocalID = commits[i].CommitID
			res.DivergedRemoteID = remote[i].CommitID
			break
		}
		if !commits[i].Anchored {
			commits[i].Anchored = true
			res.Marked++
		}
	}

	if res.Diverged {
		res.LocalOnly = len(commits) - i
		s.logger.Warn("chains diverge, reconciliation stopped",
			"position", i, "local", res.DivergedLocalID, "remote", res.DivergedRemoteID)
	} else if i < len(remote) {
		for ; i < len(remote); i++ {
			rc := remote[i]
			parent := ""
			if len(commits) > 0 {
				parent = commits[len(commits)-1].CommitID
			}
			commits = append(commits, Commit{
				CommitID:  rc.CommitID,
				ParentID:  parent,
				Author:    rc.Author,
				Message:   rc.Message,
				Timestamp: rc.Timestamp,
				ContentID: rc.ContentID,
				Anchored:  true,
			})
			res.Added++
		}
	} else {
		res.LocalOnly = len(commits) - len(remote)
	}

	if err := s.store.SaveCommits(commits); err != nil {
		return nil, fmt.Errorf("saving commits: %w", err)
	}
	s.logger.Info("pull complete",
		"added", res.Added, "marked", res.Marked, "localOnly", res.LocalOnly, "diverged", res.Diverged)
	return res, nil
}
