package source

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"parking_finder/internal/domain"
)

// FileSource reads the static JSON fixture from disk.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource { return &FileSource{path: path} }

func (s *FileSource) Name() string { return "file:" + s.path }

func (s *FileSource) Fetch(ctx context.Context) ([]domain.ParkingSpot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("FileSource.Fetch: %w", err)
	}
	return Decode(data)
}

// maxPayloadBytes bounds remote fixtures.
const maxPayloadBytes = 8 << 20

// HTTPSource fetches the fixture from a static file server.
type HTTPSource struct {
	url    string
	client *http.Client
}

func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPSource{url: url, client: client}
}

func (s *HTTPSource) Name() string { return "http:" + s.url }

func (s *HTTPSource) Fetch(ctx context.Context) ([]domain.ParkingSpot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPSource.Fetch: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPSource.Fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTPSource.Fetch: unexpected status %d from %s", resp.StatusCode, s.url)
	}
	data, err := readPayload(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("HTTPSource.Fetch (reading body): %w", err)
	}
	return Decode(data)
}
