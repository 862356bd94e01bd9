// Package proxy relays a remote media URL through the service, so the
// browser never fetches provider CDNs directly (CORS and hotlinking).
package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/kingsaver/media-gateway/pkg/client"
)

type Relay struct {
	Client client.HTTPClient
}

// Open fetches the remote URL and hands back the live body plus its
// content type. The caller owns the body; bytes flow through io.Copy on
// the response path, never into memory as a whole.
func (r *Relay) Open(ctx context.Context, remoteURL string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("invalid remote url: %w", err)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("remote fetch failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, "", fmt.Errorf("remote status: %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}
	return resp.Body, contentType, nil
}
