package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/kingsaver/media-gateway/pkg/cache"
	"github.com/kingsaver/media-gateway/pkg/client"
	"github.com/kingsaver/media-gateway/pkg/extractor"
	"github.com/kingsaver/media-gateway/pkg/logger"
)

// Config represents the configuration for service initialization.
type Config struct {
	// YtDlpPath is the yt-dlp executable (defaults to "yt-dlp" on PATH).
	YtDlpPath string
	// FFmpegPath is the muxing tool probed for merge capability.
	FFmpegPath string
	// TimeoutSec bounds a describe run (defaults to 45).
	TimeoutSec int
	// CacheTTL is the resolution cache freshness window (defaults to 5m).
	CacheTTL time.Duration
	// RedisAddr, when set, backs the cache with Redis instead of memory.
	RedisAddr string
	// Debug enables verbose logging.
	Debug bool
}

// New wires a ready-to-use Service: logging, outbound HTTP, extractor
// probing and the resolution cache. The extractor choice and the merge
// capability are decided here, once, for the process lifetime.
func New(cfg Config) (*Service, client.HTTPClient, error) {
	logger.SetupGlobal(cfg.Debug, false)

	if cfg.TimeoutSec <= 0 {
		cfg.TimeoutSec = 45
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = cache.DefaultTTL
	}

	httpClient, err := client.New(600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init http client: %w", err)
	}

	ex := extractor.Detect(cfg.YtDlpPath, cfg.FFmpegPath, time.Duration(cfg.TimeoutSec)*time.Second)
	store := cache.Detect(context.Background(), cfg.RedisAddr, cfg.CacheTTL)

	return NewService(ex, store, NewMetadataClient(httpClient)), httpClient, nil
}
