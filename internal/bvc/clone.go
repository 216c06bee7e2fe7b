package bvc

import (
	"context"
	"fmt"

	"bvc-go/internal/bundle"
)

// Clone materializes a remote repository into the service's working
// directory: writes a fresh config carrying the remote's ID and name,
// rebuilds the commit chain from the ledger's read-back (all anchored), and
// best-effort restores the newest commit's bundle into the working tree.
// Bundle restore failure is a warning, not a failure, since the metadata
// clone already succeeded.
func (s *BVCService) Clone(ctx context.Context, repoID string) (*RepoConfig, error) {
	if s.ledger == nil {
		return nil, &ConfigurationMissingError{Key: "ledger endpoint"}
	}

	existing, err := s.store.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if existing.Name != "" || existing.RepoID != "" {
		return nil, fmt.Errorf("repository already initialized: %s", existing.Name)
	}

	repo, err := s.ledger.GetRepository(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("reading repository from ledger: %w", err)
	}
	remote, err := s.ledger.ListCommits(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("listing remote commits: %w", err)
	}

	cfg := &RepoConfig{
		RepoID:    repo.RepoID,
		Name:      repo.Name,
		CreatedAt: repo.CreatedAt,
		Branch:    DefaultBranch,
		Author:    s.author,
	}

	commits := make([]Commit, 0, len(remote))
	parent := ""
	for _, rc := range remote {
		commits = append(commits, Commit{
			CommitID:  rc.CommitID,
			ParentID:  parent,
			Author:    rc.Author,
			Message:   rc.Message,
			Timestamp: rc.Timestamp,
			ContentID: rc.ContentID,
			Anchored:  true,
		})
		parent = rc.CommitID
	}

	if err := s.store.SaveConfig(cfg); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}
	if err := s.store.SaveCommits(commits); err != nil {
		return nil, fmt.Errorf("saving commits: %w", err)
	}
	if err := s.store.SaveStaging(&StagingDoc{Files: []StagedFile{}}); err != nil {
		return nil, fmt.Errorf("saving staging: %w", err)
	}
	if err := s.store.SaveCheckpoints([]Checkpoint{}); err != nil {
		return nil, fmt.Errorf("saving checkpoints: %w", err)
	}

	if len(commits) > 0 {
		if err := s.restoreBundle(ctx, commits[len(commits)-1].ContentID); err != nil {
			s.logger.Warn("could not restore working tree from bundle", "err", err)
		}
	}

	s.logger.Info("clone complete", "repoId", repo.RepoID, "name", repo.Name, "commits", len(commits))
	return cfg, nil
}

// restoreBundle downloads a bundle by content ID and extracts it into the
// working directory.
func (s *BVCService) restoreBundle(ctx context.Context, contentID string) error {
	if contentID == "" {
		return fmt.Errorf("commit has no content id")
	}
	if IsSimulatedID(contentID) {
		return fmt.Errorf("content id %s is simulated and not retrievable", contentID)
	}
	if s.content == nil {
		return &ConfigurationMissingError{Key: "content store endpoint"}
	}
	data, err := s.content.Download(ctx, contentID)
	if err != nil {
		return fmt.Errorf("downloading bundle: %w", err)
	}
	if _, err := bundle.Extract(data, s.workdir); err != nil {
		return fmt.Errorf("extracting bundle: %w", err)
	}
	return nil
}
