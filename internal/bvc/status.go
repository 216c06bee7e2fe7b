package bvc

import "fmt"

// RepoStatus is a summary of the repository's local state.
type RepoStatus struct {
	Config      *RepoConfig
	Staged      []StagedFile
	CommitCount int
	Head        *Commit
	Unanchored  int
	Checkpoints int
}

// Status reads the local documents and summarizes them. Purely local; never
// touches the ledger or the content store.
func (s *BVCService) Status() (*RepoStatus, error) {
	cfg, err := s.store.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	staging, err := s.store.LoadStaging()
	if err != nil {
		return nil, fmt.Errorf("loading staging: %w", err)
	}
	commits, err := s.store.LoadCommits()
	if err != nil {
		return nil, fmt.Errorf("loading commits: %w", err)
	}
	checkpoints, err := s.store.LoadCheckpoints()
	if err != nil {
		return nil, fmt.Errorf("loading checkpoints: %w", err)
	}

	st := &RepoStatus{
		Config:      cfg,
		Staged:      staging.Files,
		CommitCount: len(commits),
		Checkpoints: len(checkpoints),
	}
	if len(commits) > 0 {
		head := commits[len(commits)-1]
		st.Head = &head
	}
	for i := range commits {
		if !commits[i].Anchored {
			st.Unanchored++
		}
	}
	return st, nil
}

// Log returns the local commit chain, oldest first.
func (s *BVCService) Log() ([]Commit, error) {
	commits, err := s.store.LoadCommits()
	if err != nil {
		return nil, fmt.Errorf("loading commits: %w", err)
	}
	return commits, nil
}

// Checkpoints returns the local checkpoint log, oldest first.
func (s *BVCService) Checkpoints() ([]Checkpoint, error) {
	checkpoints, err := s.store.LoadCheckpoints()
	if err != nil {
		return nil, fmt.Errorf("loading checkpoints: %w", err)
	}
	return checkpoints, nil
}
