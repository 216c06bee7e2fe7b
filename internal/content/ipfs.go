// Package content implements the content store clients.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"bvc-go/internal/bvc"
)

// IPFSStore implements bvc.ContentStore against an IPFS node's HTTP API.
// Uploads fall back through: HTTP API -> local `ipfs` CLI -> simulated
// identifier (development only, gated by allowSimulated). Simulated
// identifiers carry a reserved prefix and are refused on download.
type IPFSStore struct {
	baseURL        string
	httpClient     *http.Client
	allowSimulated bool
	logger         bvc.Logger

	// lookPath and runAdd are swappable for tests.
	lookPath func(string) (string, error)
	runAdd   func(ctx context.Context, data []byte) (string, error)
}

var _ bvc.ContentStore = (*IPFSStore)(nil)

// NewIPFSStore creates a client for the node at baseURL (e.g.
// http://127.0.0.1:5001).
func NewIPFSStore(baseURL string, allowSimulated bool, logger bvc.Logger) *IPFSStore {
	s := &IPFSStore{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{Timeout: 2 * time.Minute},
		allowSimulated: allowSimulated,
		logger:         logger,
		lookPath:       exec.LookPath,
	}
	s.runAdd = s.cliAdd
	return s
}

// addResponse is the JSON the add endpoint returns.
type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// Upload stores data and returns its content identifier. On HTTP failure it
// tries the local CLI, then (when permitted) a simulated identifier derived
// from the content digest.
func (s *IPFSStore) Upload(ctx context.Context, data []byte) (*bvc.UploadResult, error) {
	id, httpErr := s.httpAdd(ctx, data)
	if httpErr == nil {
		return &bvc.UploadResult{ID: id}, nil
	}
	s.logger.Warn("content store HTTP upload failed, trying CLI", "err", httpErr)

	if _, err := s.lookPath("ipfs"); err == nil {
		id, cliErr := s.runAdd(ctx, data)
		if cliErr == nil {
			return &bvc.UploadResult{ID: id}, nil
		}
		s.logger.Warn("content store CLI upload failed", "err", cliErr)
	}

	if !s.allowSimulated {
		return nil, &bvc.RemoteUnavailableError{Endpoint: s.baseURL, Err: httpErr}
	}
	id = bvc.SimulatedIDPrefix + bvc.Digest(data)[:46]
	s.logger.Warn("content store unreachable, returning simulated identifier", "contentId", id)
	return &bvc.UploadResult{ID: id, Simulated: true}, nil
}

// Download retrieves the bytes for a content identifier. Simulated
// identifiers are rejected before any network call.
func (s *IPFSStore) Download(ctx context.Context, id string) ([]byte, error) {
	if bvc.IsSimulatedID(id) {
		return nil, fmt.Errorf("content id %s is simulated and not retrievable", id)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v0/cat?arg="+id, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &bvc.RemoteUnavailableError{Endpoint: s.baseURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("content store returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return data, nil
}

// httpAdd uploads via the node's multipart add endpoint.
func (s *IPFSStore) httpAdd(ctx context.Context, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "blob")
	if err != nil {
		return "", fmt.Errorf("creating multipart form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("writing multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v0/add", &body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("content store returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed addResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if parsed.Hash == "" {
		return "", fmt.Errorf("content store returned no identifier")
	}
	return parsed.Hash, nil
}

// cliAdd shells out to a local ipfs binary with the payload on stdin.
func (s *IPFSStore) cliAdd(ctx context.Context, data []byte) (string, error) {
	cmd := exec.CommandContext(ctx, "ipfs", "add", "-Q")
	cmd.Stdin = bytes.NewReader(data)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("running ipfs add: %w", err)
	}
	id := strings.TrimSpace(string(out))
	if id == "" {
		return "", fmt.Errorf("ipfs add returned no identifier")
	}
	return id, nil
}
