package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"
)

// maxHTTPBody bounds a single downloaded sound
const maxHTTPBody = 64 << 20

// HTTPFetcher downloads whole files over HTTP before they are decoded
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher using client, or a client with a 30s timeout when nil
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFetcher{client: client}
}

// Fetch implements Fetcher
func (h *HTTPFetcher) Fetch(ctx context.Context, id string) (*Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, id, nil)
	if err != nil {
		return nil, &FetchError{Source: id, Err: err}
	}

	slog.Debug("downloading sound", "url", id)
	resp, err := h.client.Do(req)
	if err != nil {
		slog.Error("sound download failed", "url", id, "error", err)
		return nil, &FetchError{Source: id, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("sound download rejected", "url", id, "status", resp.StatusCode)
		return nil, &FetchError{Source: id, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxHTTPBody+1))
	if err != nil {
		return nil, &FetchError{Source: id, Err: err}
	}
	if len(data) > maxHTTPBody {
		return nil, &FetchError{Source: id, Err: fmt.Errorf("response exceeds %d bytes", maxHTTPBody)}
	}

	name := id
	if u, err := url.Parse(id); err == nil {
		name = path.Base(u.Path)
	}

	slog.Info("sound downloaded", "url", id, "bytes", len(data))
	return &Asset{ID: id, Name: name, Data: data}, nil
}
