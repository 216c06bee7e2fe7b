package ledger

import (
	"context"
	"strconv"
	"sync"
	"time"

	"bvc-go/internal/bvc"
)

// MemoryLedger is an in-memory implementation of bvc.Ledger. It enforces
// the same owner check the contract does, which makes it useful both as a
// development backend and as the test double. Safe for concurrent use.
type MemoryLedger struct {
	mu     sync.Mutex
	caller string
	nextID int64
	repos  map[string]*memoryRepo

	// Unavailable makes every call fail with *bvc.RemoteUnavailableError,
	// for exercising degraded paths in tests.
	Unavailable bool
}

type memoryRepo struct {
	name        string
	owner       string
	createdAt   time.Time
	commits     []bvc.RemoteCommit
	checkpoints []memoryCheckpoint
}

type memoryCheckpoint struct {
	fromID          string
	toID            string
	bundleContentID string
	aggregateDigest string
}

var _ bvc.Ledger = (*MemoryLedger)(nil)

// NewMemoryLedger creates a ledger whose calls are attributed to caller.
func NewMemoryLedger(caller string) *MemoryLedger {
	return &MemoryLedger{
		caller: caller,
		nextID: 1,
		repos:  make(map[string]*memoryRepo),
	}
}

func (m *MemoryLedger) lookup(repoID string) (*memoryRepo, error) {
	if m.Unavailable {
		return nil, &bvc.RemoteUnavailableError{Endpoint: "memory", Err: context.DeadlineExceeded}
	}
	repo, ok := m.repos[repoID]
	if !ok {
		return nil, &bvc.NotFoundError{Path: "repository " + repoID}
	}
	return repo, nil
}

func (m *MemoryLedger) CreateRepository(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return "", &bvc.RemoteUnavailableError{Endpoint: "memory", Err: context.DeadlineExceeded}
	}
	id := strconv.FormatInt(m.nextID, 10)
	m.nextID++
	m.repos[id] = &memoryRepo{name: name, owner: m.caller, createdAt: time.Now().UTC()}
	return id, nil
}

func (m *MemoryLedger) RecordCommit(_ context.Context, repoID, commitID, contentID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	repo, err := m.lookup(repoID)
	if err != nil {
		return err
	}
	if repo.owner != m.caller {
		return &bvc.UnauthorizedError{Op: "recordCommit"}
	}
	repo.commits = append(repo.commits, bvc.RemoteCommit{
		CommitID:  commitID,
		ContentID: contentID,
		Message:   message,
		Author:    m.caller,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

func (m *MemoryLedger) RecordCheckpoint(_ context.Context, repoID, fromID, toID, bundleContentID, aggregateDigest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	repo, err := m.lookup(repoID)
	if err != nil {
		return err
	}
	if repo.owner != m.caller {
		return &bvc.UnauthorizedError{Op: "recordCheckpoint"}
	}
	repo.checkpoints = append(repo.checkpoints, memoryCheckpoint{
		fromID:          fromID,
		toID:            toID,
		bundleContentID: bundleContentID,
		aggregateDigest: aggregateDigest,
	})
	return nil
}

func (m *MemoryLedger) ListCommits(_ context.Context, repoID string) ([]bvc.RemoteCommit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	repo, err := m.lookup(repoID)
	if err != nil {
		return nil, err
	}
	out := make([]bvc.RemoteCommit, len(repo.commits))
	copy(out, repo.commits)
	return out, nil
}

func (m *MemoryLedger) GetRepository(_ context.Context, repoID string) (*bvc.RemoteRepository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	repo, err := m.lookup(repoID)
	if err != nil {
		return nil, err
	}
	return &bvc.RemoteRepository{
		RepoID:    repoID,
		Name:      repo.name,
		Owner:     repo.owner,
		CreatedAt: repo.createdAt,
	}, nil
}

// Checkpoints returns the checkpoints recorded for a repository, for test
// assertions.
func (m *MemoryLedger) Checkpoints(repoID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	repo, ok := m.repos[repoID]
	if !ok {
		return 0
	}
	return len(repo.checkpoints)
}

// SetOwner reassigns a repository's owner, for exercising the unauthorized
// path in tests.
func (m *MemoryLedger) SetOwner(repoID, owner string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if repo, ok := m.repos[repoID]; ok {
		repo.owner = owner
	}
}
