package api

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DownloadInstruments fetches the bulk instrument master snapshot and
// returns the raw JSON bytes, decompressing if the source is gzipped.
// The snapshot lives on a static assets host, so this bypasses the
// baseURL/bearer plumbing used by the quote endpoints.
func (c *Client) DownloadInstruments(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download instruments: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	var reader io.Reader = resp.Body
	if strings.HasSuffix(rawURL, ".gz") || resp.Header.Get("Content-Type") == "application/gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read instruments body: %w", err)
	}

	c.logger.Debug("downloaded instrument master", "bytes", len(data))
	return data, nil
}
