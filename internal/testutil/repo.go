package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"bvc-go/internal/bvc"
	"bvc-go/internal/content"
	"bvc-go/internal/ledger"
	"bvc-go/internal/staging"
	"bvc-go/internal/store"
)

// Repo bundles the pieces of a scratch repository rooted in a temp
// directory: the document store, a fixed clock, in-memory remote clients,
// and a service wired from all of them.
type Repo struct {
	Root    string
	Store   *store.JSONStore
	Clock   *StubClock
	Ledger  *ledger.MemoryLedger
	Content *content.MemoryStore
	Service *bvc.BVCService
}

// NewRepo creates a scratch repository with in-memory ledger and content
// clients. The ledger caller and the configured author are both "alice".
func NewRepo(t *testing.T) *Repo {
	t.Helper()

	root := t.TempDir()
	st, err := store.Init(root)
	if err != nil {
		t.Fatalf("initializing store: %v", err)
	}

	clock := FixedClock()
	led := ledger.NewMemoryLedger("alice")
	cnt := content.NewMemoryStore()
	logger := bvc.NewNopLogger()
	area := staging.NewArea(st, clock, logger, root)

	return &Repo{
		Root:    root,
		Store:   st,
		Clock:   clock,
		Ledger:  led,
		Content: cnt,
		Service: bvc.NewBVCService(st, area, led, cnt, logger, clock, root, "alice"),
	}
}

// NewLocalRepo creates a scratch repository with no remote clients wired,
// the shape of a machine with no user configuration.
func NewLocalRepo(t *testing.T) *Repo {
	t.Helper()

	root := t.TempDir()
	st, err := store.Init(root)
	if err != nil {
		t.Fatalf("initializing store: %v", err)
	}

	clock := FixedClock()
	logger := bvc.NewNopLogger()
	area := staging.NewArea(st, clock, logger, root)

	return &Repo{
		Root:    root,
		Store:   st,
		Clock:   clock,
		Service: bvc.NewBVCService(st, area, nil, nil, logger, clock, root, "alice"),
	}
}

// WriteFile writes data under the repository root, creating parent
// directories, and returns the path relative to the root.
func (r *Repo) WriteFile(t *testing.T, rel string, data []byte) string {
	t.Helper()

	path := filepath.Join(r.Root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing %s: %v", rel, err)
	}
	return rel
}
