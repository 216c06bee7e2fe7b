package ledger

import (
	"context"
	"errors"
	"testing"

	"bvc-go/internal/bvc"
)

func TestMemoryLedger(t *testing.T) {
	t.Run("assigns sequential repository ids", func(t *testing.T) {
		t.Parallel()
		m := NewMemoryLedger("alice")

		first, err := m.CreateRepository(context.Background(), "one")
		if err != nil {
			t.Fatalf("CreateRepository() error = %v", err)
		}
		second, err := m.CreateRepository(context.Background(), "two")
		if err != nil {
			t.Fatalf("CreateRepository() error = %v", err)
		}
		if first != "1" || second != "2" {
			t.Errorf("ids = %s, %s, want 1, 2", first, second)
		}
	})

	t.Run("records and lists commits", func(t *testing.T) {
		t.Parallel()
		m := NewMemoryLedger("alice")
		id, _ := m.CreateRepository(context.Background(), "docs")

		if err := m.RecordCommit(context.Background(), id, "c1", "content-1", "first"); err != nil {
			t.Fatalf("RecordCommit() error = %v", err)
		}

		commits, err := m.ListCommits(context.Background(), id)
		if err != nil {
			t.Fatalf("ListCommits() error = %v", err)
		}
		if len(commits) != 1 || commits[0].CommitID != "c1" || commits[0].Author != "alice" {
			t.Errorf("ListCommits() = %+v", commits)
		}
	})

	t.Run("reads repository metadata", func(t *testing.T) {
		t.Parallel()
		m := NewMemoryLedger("alice")
		id, _ := m.CreateRepository(context.Background(), "docs")

		repo, err := m.GetRepository(context.Background(), id)
		if err != nil {
			t.Fatalf("GetRepository() error = %v", err)
		}
		if repo.Name != "docs" || repo.Owner != "alice" || repo.RepoID != id {
			t.Errorf("GetRepository() = %+v", repo)
		}
	})

	t.Run("rejects writes from non-owners", func(t *testing.T) {
		t.Parallel()
		m := NewMemoryLedger("alice")
		id, _ := m.CreateRepository(context.Background(), "docs")
		m.SetOwner(id, "mallory")

		err := m.RecordCommit(context.Background(), id, "c1", "content-1", "first")
		var ua *bvc.UnauthorizedError
		if !errors.As(err, &ua) {
			t.Fatalf("RecordCommit() error = %v, want *UnauthorizedError", err)
		}

		err = m.RecordCheckpoint(context.Background(), id, "c1", "c2", "bundle", "digest")
		if !errors.As(err, &ua) {
			t.Fatalf("RecordCheckpoint() error = %v, want *UnauthorizedError", err)
		}
	})

	t.Run("unknown repository is a typed error", func(t *testing.T) {
		t.Parallel()
		m := NewMemoryLedger("alice")

		_, err := m.GetRepository(context.Background(), "999")
		var nf *bvc.NotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("GetRepository() error = %v, want *NotFoundError", err)
		}
	})

	t.Run("unavailable ledger fails every call", func(t *testing.T) {
		t.Parallel()
		m := NewMemoryLedger("alice")
		id, _ := m.CreateRepository(context.Background(), "docs")
		m.Unavailable = true

		var ru *bvc.RemoteUnavailableError
		if _, err := m.CreateRepository(context.Background(), "other"); !errors.As(err, &ru) {
			t.Errorf("CreateRepository() error = %v, want *RemoteUnavailableError", err)
		}
		if err := m.RecordCommit(context.Background(), id, "c1", "content-1", "first"); !errors.As(err, &ru) {
			t.Errorf("RecordCommit() error = %v, want *RemoteUnavailableError", err)
		}
		if _, err := m.ListCommits(context.Background(), id); !errors.As(err, &ru) {
			t.Errorf("ListCommits() error = %v, want *RemoteUnavailableError", err)
		}
	})

	t.Run("counts checkpoints", func(t *testing.T) {
		t.Parallel()
		m := NewMemoryLedger("alice")
		id, _ := m.CreateRepository(context.Background(), "docs")

		if err := m.RecordCheckpoint(context.Background(), id, "c1", "c3", "bundle", "digest"); err != nil {
			t.Fatalf("RecordCheckpoint() error = %v", err)
		}
		if got := m.Checkpoints(id); got != 1 {
			t.Errorf("Checkpoints() = %d, want 1", got)
		}
	})
}
