package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bvc-go/internal/bvc"
)

func TestIPFSStore_Upload(t *testing.T) {
	t.Run("uses the HTTP add endpoint", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v0/add" {
				t.Errorf("path = %s, want /api/v0/add", r.URL.Path)
			}
			if r.Method != http.MethodPost {
				t.Errorf("method = %s, want POST", r.Method)
			}
			fmt.Fprintln(w, `{"Name":"blob","Hash":"QmTestHash","Size":"5"}`)
		}))
		defer srv.Close()

		s := NewIPFSStore(srv.URL, false, bvc.NewNopLogger())
		res, err := s.Upload(context.Background(), []byte("hello"))
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		if res.ID != "QmTestHash" || res.Simulated {
			t.Errorf("Upload() = %+v, want QmTestHash, not simulated", res)
		}
	})

	t.Run("falls back to the CLI when HTTP fails", func(t *testing.T) {
		t.Parallel()
		s := NewIPFSStore("http://127.0.0.1:1", false, bvc.NewNopLogger())
		s.lookPath = func(string) (string, error) { return "/usr/bin/ipfs", nil }
		s.runAdd = func(context.Context, []byte) (string, error) { return "QmFromCLI", nil }

		res, err := s.Upload(context.Background(), []byte("hello"))
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		if res.ID != "QmFromCLI" || res.Simulated {
			t.Errorf("Upload() = %+v, want QmFromCLI, not simulated", res)
		}
	})

	t.Run("simulated fallback is gated", func(t *testing.T) {
		t.Parallel()
		noCLI := func(string) (string, error) { return "", errors.New("not found") }

		denied := NewIPFSStore("http://127.0.0.1:1", false, bvc.NewNopLogger())
		denied.lookPath = noCLI
		_, err := denied.Upload(context.Background(), []byte("hello"))
		var ru *bvc.RemoteUnavailableError
		if !errors.As(err, &ru) {
			t.Fatalf("Upload() error = %v, want *RemoteUnavailableError", err)
		}

		allowed := NewIPFSStore("http://127.0.0.1:1", true, bvc.NewNopLogger())
		allowed.lookPath = noCLI
		res, err := allowed.Upload(context.Background(), []byte("hello"))
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		if !res.Simulated || !bvc.IsSimulatedID(res.ID) {
			t.Errorf("Upload() = %+v, want a simulated identifier", res)
		}
	})

	t.Run("simulated identifiers are deterministic", func(t *testing.T) {
		t.Parallel()
		noCLI := func(string) (string, error) { return "", errors.New("not found") }
		s := NewIPFSStore("http://127.0.0.1:1", true, bvc.NewNopLogger())
		s.lookPath = noCLI

		first, err := s.Upload(context.Background(), []byte("hello"))
		if err != nil {
			t.Fatalf("first Upload() error = %v", err)
		}
		second, err := s.Upload(context.Background(), []byte("hello"))
		if err != nil {
			t.Fatalf("second Upload() error = %v", err)
		}
		if first.ID != second.ID {
			t.Errorf("same content produced different simulated ids: %s vs %s", first.ID, second.ID)
		}
	})
}

func TestIPFSStore_Download(t *testing.T) {
	t.Run("retrieves content via cat", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v0/cat" {
				t.Errorf("path = %s, want /api/v0/cat", r.URL.Path)
			}
			if got := r.URL.Query().Get("arg"); got != "QmTestHash" {
				t.Errorf("arg = %s, want QmTestHash", got)
			}
			fmt.Fprint(w, "hello")
		}))
		defer srv.Close()

		s := NewIPFSStore(srv.URL, false, bvc.NewNopLogger())
		data, err := s.Download(context.Background(), "QmTestHash")
		if err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		if string(data) != "hello" {
			t.Errorf("Download() = %q, want hello", data)
		}
	})

	t.Run("rejects simulated identifiers without a network call", func(t *testing.T) {
		t.Parallel()
		s := NewIPFSStore("http://127.0.0.1:1", true, bvc.NewNopLogger())
		if _, err := s.Download(context.Background(), bvc.SimulatedIDPrefix+"abc"); err == nil {
			t.Error("Download() accepted a simulated identifier")
		}
	})

	t.Run("non-200 responses are errors", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no such object", http.StatusInternalServerError)
		}))
		defer srv.Close()

		s := NewIPFSStore(srv.URL, false, bvc.NewNopLogger())
		if _, err := s.Download(context.Background(), "QmMissing"); err == nil {
			t.Error("Download() expected error for 500 response")
		}
	})
}
