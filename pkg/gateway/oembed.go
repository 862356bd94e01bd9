package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/kingsaver/media-gateway/pkg/client"
	"github.com/kingsaver/media-gateway/pkg/models"
	"github.com/kingsaver/media-gateway/pkg/utils"
)

// MetadataClient fills gaps the extractor leaves (author name, thumbnail)
// from YouTube's oEmbed endpoint. Best effort only; failures are logged
// and the extractor's values stand.
type MetadataClient struct {
	Client client.HTTPClient
}

func NewMetadataClient(c client.HTTPClient) *MetadataClient {
	return &MetadataClient{Client: c}
}

func (m *MetadataClient) Enrich(ctx context.Context, sourceURL string, media *models.ResolvedMedia) {
	if media.Title != "" && media.Author.Name != "" && media.Thumbnail != "" {
		return
	}
	videoID := utils.ExtractVideoID(sourceURL)
	if videoID == "" {
		return
	}

	info, err := m.fetchOEmbed(ctx, videoID)
	if err != nil {
		slog.Debug("oEmbed enrichment failed", "video_id", videoID, "err", err)
		return
	}

	if media.Title == "" {
		media.Title = info.Title
	}
	if media.Author.Name == "" {
		media.Author.Name = info.AuthorName
	}
	if media.Thumbnail == "" {
		media.Thumbnail = info.ThumbnailURL
	}
}

type oembedInfo struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (m *MetadataClient) fetchOEmbed(ctx context.Context, videoID string) (*oembedInfo, error) {
	oembedURL := fmt.Sprintf("https://www.youtube.com/oembed?url=https://www.youtube.com/watch?v=%s&format=json", videoID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, oembedURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			slog.Warn("failed to close oEmbed response body", "err", cerr)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var info oembedInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}
