// Package gateway orchestrates resolution: cache lookup, extraction,
// format normalization and the download stream lifecycle.
package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/kingsaver/media-gateway/pkg/cache"
	"github.com/kingsaver/media-gateway/pkg/extractor"
	"github.com/kingsaver/media-gateway/pkg/format"
	"github.com/kingsaver/media-gateway/pkg/models"
	"github.com/kingsaver/media-gateway/pkg/utils"
)

type Service struct {
	Extractor extractor.Extractor
	Cache     cache.Store
	Limits    format.Limits
	// Meta optionally fills author/thumbnail gaps left by the extractor.
	Meta *MetadataClient
}

func NewService(ex extractor.Extractor, store cache.Store, meta *MetadataClient) *Service {
	return &Service{
		Extractor: ex,
		Cache:     store,
		Limits:    format.DefaultLimits,
		Meta:      meta,
	}
}

// MergeCapable reports whether this process can combine separate
// audio/video tracks. Fixed at startup by the extractor probe.
func (s *Service) MergeCapable() bool { return s.Extractor.CanMerge() }

// Describe resolves a source URL into ranked metadata, serving from the
// cache when a fresh entry exists. Failed extractions are never cached.
func (s *Service) Describe(ctx context.Context, rawURL string) (*models.ResolvedMedia, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	key := utils.CacheKey(rawURL)
	if media, ok := s.Cache.Get(ctx, key); ok {
		slog.Debug("resolution cache hit", "key", key)
		return media, nil
	}

	info, err := s.Extractor.Describe(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	media := s.buildMedia(info)
	if s.Meta != nil {
		s.Meta.Enrich(ctx, rawURL, media)
	}

	s.Cache.Put(ctx, key, media)
	slog.Info("resolved media", "key", key, "title", media.Title, "formats", len(media.Formats))
	return media, nil
}

func (s *Service) buildMedia(info *extractor.RawInfo) *models.ResolvedMedia {
	formats := format.Select(format.Normalize(info.Formats), s.MergeCapable(), s.Limits)
	return &models.ResolvedMedia{
		Title:        info.Title,
		Thumbnail:    info.Thumbnail,
		Duration:     int(info.Duration),
		Author:       models.Author{Name: info.Uploader},
		Formats:      formats,
		MergeCapable: s.MergeCapable(),
	}
}

// OpenDownload starts streaming the selected format. The first chunk is
// read before returning, so failures that happen before any payload byte
// still surface as clean errors; after that the contract degrades to
// "stream may be truncated". Closing the ReadCloser (or cancelling ctx)
// terminates the underlying subprocess.
func (s *Service) OpenDownload(ctx context.Context, rawURL, formatID string) (io.ReadCloser, models.Format, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := validateURL(rawURL); err != nil {
		return nil, models.Format{}, err
	}
	if formatID == "" {
		return nil, models.Format{}, extractor.NewInvalidInput("stream", rawURL, errors.New("format id is required"))
	}

	media, err := s.Describe(ctx, rawURL)
	if err != nil {
		return nil, models.Format{}, err
	}

	desc, ok := media.FindFormat(formatID)
	if !ok {
		return nil, models.Format{}, extractor.NewInvalidInput("stream", rawURL, errors.New("unknown format id "+formatID))
	}
	if desc.NeedsMerge && !s.MergeCapable() {
		return nil, models.Format{}, extractor.NewInvalidInput("stream", rawURL, errors.New("format requires merging, which is unavailable"))
	}

	rc, err := s.Extractor.OpenStream(ctx, extractor.StreamRequest{
		URL:       rawURL,
		FormatID:  formatID,
		Merge:     desc.NeedsMerge,
		Container: "mp4",
	})
	if err != nil {
		return nil, models.Format{}, err
	}

	primed, err := primeStream(rawURL, rc)
	if err != nil {
		return nil, models.Format{}, err
	}
	return primed, desc, nil
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return extractor.NewInvalidInput("validate", rawURL, errors.New("url is required"))
	}
	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return extractor.NewInvalidInput("validate", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return extractor.NewInvalidInput("validate", rawURL, errors.New("unsupported scheme "+u.Scheme))
	}
	return nil
}
