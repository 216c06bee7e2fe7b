package content

import (
	"context"
	"testing"

	"bvc-go/internal/bvc"
)

func TestMemoryStore(t *testing.T) {
	t.Run("round-trips content", func(t *testing.T) {
		t.Parallel()
		m := NewMemoryStore()

		res, err := m.Upload(context.Background(), []byte("hello"))
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		if res.Simulated {
			t.Error("Upload() simulated on an available store")
		}

		data, err := m.Download(context.Background(), res.ID)
		if err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		if string(data) != "hello" {
			t.Errorf("Download() = %q, want hello", data)
		}
	})

	t.Run("unknown identifier fails", func(t *testing.T) {
		t.Parallel()
		m := NewMemoryStore()
		if _, err := m.Download(context.Background(), "mem-unknown"); err == nil {
			t.Error("Download() expected error for unknown id")
		}
	})

	t.Run("unavailable store degrades to simulated ids", func(t *testing.T) {
		t.Parallel()
		m := NewMemoryStore()
		m.Unavailable = true

		res, err := m.Upload(context.Background(), []byte("hello"))
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		if !res.Simulated || !bvc.IsSimulatedID(res.ID) {
			t.Errorf("Upload() = %+v, want simulated", res)
		}
		if _, err := m.Download(context.Background(), res.ID); err == nil {
			t.Error("Download() accepted a simulated identifier")
		}
	})
}
