package bvc

import (
	"context"
	"fmt"

	"bvc-go/internal/bundle"
	"bvc-go/internal/fs"
)

// BVCService is the orchestration layer that coordinates the local store,
// staging area, ledger client, and content store to perform the high-level
// operations needed by the CLI.
//
// ledger and content may be nil when no remote is configured; operations
// whose entire purpose is a remote effect fail with
// *ConfigurationMissingError in that case, while commit anchoring degrades
// to local-only.
type BVCService struct {
	store   Store
	staging StagingArea
	ledger  Ledger
	content ContentStore
	logger  Logger
	clock   Clock
	workdir string
	author  string
}

// NewBVCService creates a BVCService with the provided dependencies.
// workdir is the repository root; author is the display name from the user
// configuration, used when the repository config carries none.
func NewBVCService(store Store, staging StagingArea, ledger Ledger, content ContentStore, logger Logger, clock Clock, workdir, author string) *BVCService {
	return &BVCService{
		store:   store,
		staging: staging,
		ledger:  ledger,
		content: content,
		logger:  logger,
		clock:   clock,
		workdir: workdir,
		author:  author,
	}
}

// InitOptions control repository creation.
type InitOptions struct {
	Description string
	LocalOnly   bool
}

// Init creates the repository configuration. Unless LocalOnly is set, the
// repository is also registered on the ledger and the assigned ID recorded.
// Remote registration failure is a hard failure: a half-initialized remote
// repository is worse than none.
func (s *BVCService) Init(ctx context.Context, name string, opts InitOptions) (*RepoConfig, error) {
	existing, err := s.store.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if existing.Name != "" || existing.RepoID != "" {
		return nil, fmt.Errorf("repository already initialized: %s", existing.Name)
	}

	cfg := &RepoConfig{
		Name:        name,
		Description: opts.Description,
		CreatedAt:   s.clock.Now(),
		Branch:      DefaultBranch,
		Author:      s.author,
	}

	if !opts.LocalOnly {
		if s.ledger == nil {
			return nil, &ConfigurationMissingError{Key: "ledger endpoint"}
		}
		id, err := s.ledger.CreateRepository(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("registering repository on ledger: %w", err)
		}
		cfg.RepoID = id
		s.logger.Info("repository registered", "repoId", id, "name", name)
	}

	if err := s.store.SaveConfig(cfg); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}
	return cfg, nil
}

// Stage adds the given paths to the staging set. Missing paths are reported
// in the result and logged, not fatal.
func (s *BVCService) Stage(paths []string) (*StageResult, error) {
	res, err := s.staging.Stage(paths)
	if err != nil {
		return nil, err
	}
	for _, missing := range res.Missing {
		s.logger.Warn("path not found, skipped", "path", missing)
	}
	return res, nil
}

// commitPaths returns the relative paths of a commit's file snapshots.
func commitPaths(files []StagedFile) []string {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	return paths
}

// workingTreeBundle snapshots the present working tree into one compressed
// buffer. This is a snapshot of the files as they are now, not a historical
// reconstruction per commit.
func (s *BVCService) workingTreeBundle() ([]byte, error) {
	matcher, err := fs.LoadIgnoreMatcher(s.workdir)
	if err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}
	paths, err := fs.ScanTree(s.workdir, matcher)
	if err != nil {
		return nil, fmt.Errorf("scanning working tree: %w", err)
	}
	data, err := bundle.Build(s.workdir, paths)
	if err != nil {
		return nil, fmt.Errorf("bundling working tree: %w", err)
	}
	return data, nil
}
