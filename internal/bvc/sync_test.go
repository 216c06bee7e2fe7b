package bvc_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"bvc-go/internal/bvc"
	"bvc-go/internal/staging"
	"bvc-go/internal/store"
	"bvc-go/internal/testutil"
)

func TestBVCService_Push(t *testing.T) {
	t.Run("registers a local-only repository first", func(t *testing.T) {
		t.Parallel()
		r := testutil.NewRepo(t)
		if _, err := r.Service.Init(context.Background(), "docs", bvc.InitOptions{LocalOnly: true}); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		chain(t, r, "one", "two")

		res, err := r.Service.Push(context.Background())
		if err != nil {
			t.Fatalf("Push() error = %v", err)
		}
		if !res.Registered {
			t.Error("Push() did not register the repository")
		}
		if res.RepoID == "" {
			t.Error("Push() reported no repository id")
		}
		if res.Anchored != 2 {
			t.Errorf("Push() anchored = %d, want 2", res.Anchored)
		}

		cfg, err := r.Store.LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.RepoID != res.RepoID {
			t.Errorf("config repoID = %q, want %q", cfg.RepoID, res.RepoID)
		}
	})

	t.Run("skips already anchored commits", func(t *testing.T) {
		t.Parallel()
		r := testutil.NewRepo(t)
		initRepo(t, r)

		r.WriteFile(t, "a.txt", []byte("aaa"))
		r.Service.Stage([]string{"a.txt"})
		if _, err := r.Service.Commit(context.Background(), "one", bvc.CommitOptions{Anchor: true}); err != nil {
			t.Fatalf("Commit() error = %v", err)
		}

		res, err := r.Service.Push(context.Background())
		if err != nil {
			t.Fatalf("Push() error = %v", err)
		}
		if res.Anchored != 0 || res.AlreadyAnchored != 1 {
			t.Errorf("Push() = %+v, want 0 anchored, 1 already anchored", res)
		}
	})

	t.Run("keeps progress when the ledger fails midway", func(t *testing.T) {
		t.Parallel()
		r := testutil.NewRepo(t)
		initRepo(t, r)
		chain(t, r, "one", "two")
		r.Ledger.Unavailable = true

		if _, err := r.Service.Push(context.Background()); err == nil {
			t.Fatal("Push() expected error when ledger is unavailable")
		}

		commits, err := r.Store.LoadCommits()
		if err != nil {
			t.Fatalf("LoadCommits() error = %v", err)
		}
		if len(commits) != 2 {
			t.Fatalf("chain has %d commit(s), want 2", len(commits))
		}
		for _, c := range commits {
			if c.Anchored {
				t.Errorf("commit %s anchored despite ledger failure", c.CommitID)
			}
		}
	})

	t.Run("requires a ledger", func(t *testing.T) {
		t.Parallel()
		r := testutil.NewLocalRepo(t)
		if _, err := r.Service.Push(context.Background()); err == nil {
			t.Fatal("Push() expected error without a ledger")
		}
	})
}

func TestBVCService_Pull(t *testing.T) {
	t.Run("marks local commits the ledger knows about", func(t *testing.T) {
		t.Parallel()
		r := testutil.NewRepo(t)
		initRepo(t, r)
		chain(t, r, "one")

		// Anchor via push, then strip the local flags to simulate a stale
		// local chain.
		if _, err := r.Service.Push(context.Background()); err != nil {
			t.Fatalf("Push() error = %v", err)
		}
		commits, _ := r.Store.LoadCommits()
		for i := range commits {
			commits[i].Anchored = false
		}
		if err := r.Store.SaveCommits(commits); err != nil {
			t.Fatalf("SaveCommits() error = %v", err)
		}

		res, err := r.Service.Pull(context.Background())
		if err != nil {
			t.Fatalf("Pull() error = %v", err)
		}
		if res.Marked != 1 || res.Added != 0 || res.LocalOnly != 0 {
			t.Errorf("Pull() = %+v, want 1 marked", res)
		}
	})

	t.Run("appends remote commits missing locally", func(t *testing.T) {
		t.Parallel()
		r := testutil.NewRepo(t)
		initRepo(t, r)
		cfg, _ := r.Store.LoadConfig()

		if err := r.Ledger.RecordCommit(context.Background(), cfg.RepoID, "remote-commit-id", "content-id", "from elsewhere"); err != nil {
			t.Fatalf("RecordCommit() error = %v", err)
		}

		res, err := r.Service.Pull(context.Background())
		if err != nil {
			t.Fatalf("Pull() error = %v", err)
		}
		if res.Added != 1 {
			t.Errorf("Pull() added = %d, want 1", res.Added)
		}

		commits, _ := r.Store.LoadCommits()
		if len(commits) != 1 || commits[0].CommitID != "remote-commit-id" || !commits[0].Anchored {
			t.Errorf("chain = %+v, want the remote commit appended as anchored", commits)
		}
	})

	t.Run("counts local commits the ledger lacks", func(t *testing.T) {
		t.Parallel()
		r := testutil.NewRepo(t)
		initRepo(t, r)
		chain(t, r, "one")

		res, err := r.Service.Pull(context.Background())
		if err != nil {
			t.Fatalf("Pull() error = %v", err)
		}
		if res.LocalOnly != 1 {
			t.Errorf("Pull() localOnly = %d, want 1", res.LocalOnly)
		}

		commits, _ := r.Store.LoadCommits()
		if len(commits) != 1 {
			t.Errorf("pull discarded local commits, chain = %d", len(commits))
		}
	})

	t.Run("diverging chains are reported, not merged", func(t *testing.T) {
		t.Parallel()
		r := testutil.NewRepo(t)
		initRepo(t, r)
		local := chain(t, r, "one")
		cfg, _ := r.Store.LoadConfig()

		// Another writer anchored a different commit at the same position.
		if err := r.Ledger.RecordCommit(context.Background(), cfg.RepoID, "remote-commit-id", "content-id", "from elsewhere"); err != nil {
			t.Fatalf("RecordCommit() error = %v", err)
		}

		res, err := r.Service.Pull(context.Background())
		if err != nil {
			t.Fatalf("Pull() error = %v", err)
		}
		if !res.Diverged {
			t.Fatal("Pull() did not report divergence")
		}
		if res.DivergedLocalID != local[0].CommitID || res.DivergedRemoteID != "remote-commit-id" {
			t.Errorf("divergence ids = %s vs %s, want %s vs remote-commit-id",
				res.DivergedLocalID, res.DivergedRemoteID, local[0].CommitID)
		}
		if res.Added != 0 || res.Marked != 0 {
			t.Errorf("Pull() = %+v, want nothing merged past the divergence", res)
		}
		if res.LocalOnly != 1 {
			t.Errorf("Pull() localOnly = %d, want 1", res.LocalOnly)
		}

		commits, _ := r.Store.LoadCommits()
		if len(commits) != 1 || commits[0].CommitID != local[0].CommitID {
			t.Errorf("chain = %+v, want the local chain untouched", commits)
		}
	})

	t.Run("divergence stops marking later positions", func(t *testing.T) {
		t.Parallel()
		r := testutil.NewRepo(t)
		initRepo(t, r)
		local := chain(t, r, "one", "two", "three")
		cfg, _ := r.Store.LoadConfig()

		// Remote agrees on the first commit, then disagrees.
		ctx := context.Background()
		r.Ledger.RecordCommit(ctx, cfg.RepoID, local[0].CommitID, "content-1", "one")
		r.Ledger.RecordCommit(ctx, cfg.RepoID, "remote-commit-id", "content-2", "other")

		res, err := r.Service.Pull(ctx)
		if err != nil {
			t.Fatalf("Pull() error = %v", err)
		}
		if !res.Diverged {
			t.Fatal("Pull() did not report divergence")
		}
		if res.Marked != 1 {
			t.Errorf("Pull() marked = %d, want 1 (only the agreed prefix)", res.Marked)
		}
		if res.LocalOnly != 2 {
			t.Errorf("Pull() localOnly = %d, want 2 (from the divergence point)", res.LocalOnly)
		}

		commits, _ := r.Store.LoadCommits()
		if len(commits) != 3 {
			t.Fatalf("chain has %d commit(s), want 3", len(commits))
		}
		if !commits[0].Anchored || commits[1].Anchored || commits[2].Anchored {
			t.Error("only the agreed prefix should be marked anchored")
		}
	})

	t.Run("local-only repository is rejected", func(t *testing.T) {
		t.Parallel()
		r := testutil.NewRepo(t)
		if _, err := r.Service.Init(context.Background(), "docs", bvc.InitOptions{LocalOnly: true}); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if _, err := r.Service.Pull(context.Background()); err == nil {
			t.Fatal("Pull() expected error for local-only repository")
		}
	})
}

func TestBVCService_Clone(t *testing.T) {
	t.Run("rebuilds the chain and restores the working tree", func(t *testing.T) {
		t.Parallel()
		src := testutil.NewRepo(t)
		initRepo(t, src)
		src.WriteFile(t, "a.txt", []byte("hello"))
		src.Service.Stage([]string{"a.txt"})
		if _, err := src.Service.Commit(context.Background(), "first", bvc.CommitOptions{Anchor: true}); err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
		srcCfg, _ := src.Store.LoadConfig()

		// A second working directory sharing the same remotes.
		destRoot := t.TempDir()
		destStore, err := store.Init(destRoot)
		if err != nil {
			t.Fatalf("initializing dest store: %v", err)
		}
		logger := bvc.NewNopLogger()
		area := staging.NewArea(destStore, src.Clock, logger, destRoot)
		dest := bvc.NewBVCService(destStore, area, src.Ledger, src.Content, logger, src.Clock, destRoot, "bob")

		cfg, err := dest.Clone(context.Background(), srcCfg.RepoID)
		if err != nil {
			t.Fatalf("Clone() error = %v", err)
		}
		if cfg.RepoID != srcCfg.RepoID || cfg.Name != "docs" {
			t.Errorf("cloned config = %+v, want repo docs id %s", cfg, srcCfg.RepoID)
		}

		commits, err := destStore.LoadCommits()
		if err != nil {
			t.Fatalf("LoadCommits() error = %v", err)
		}
		if len(commits) != 1 || !commits[0].Anchored {
			t.Fatalf("cloned chain = %+v, want one anchored commit", commits)
		}

		data, err := os.ReadFile(filepath.Join(destRoot, "a.txt"))
		if err != nil {
			t.Fatalf("reading restored file: %v", err)
		}
		if string(data) != "hello" {
			t.Errorf("restored content = %q, want hello", data)
		}
	})

	t.Run("refuses to clone into an initialized repository", func(t *testing.T) {
		t.Parallel()
		r := testutil.NewRepo(t)
		initRepo(t, r)
		cfg, _ := r.Store.LoadConfig()

		if _, err := r.Service.Clone(context.Background(), cfg.RepoID); err == nil {
			t.Fatal("Clone() expected error for initialized repository")
		}
	})

	t.Run("unknown repository id fails", func(t *testing.T) {
		t.Parallel()
		r := testutil.NewRepo(t)
		if _, err := r.Service.Clone(context.Background(), "9999"); err == nil {
			t.Fatal("Clone() expected error for unknown repository")
		}
	})
}
