package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/kingsaver/media-gateway/pkg/api"
	"github.com/kingsaver/media-gateway/pkg/gateway"
	"github.com/kingsaver/media-gateway/pkg/proxy"
)

func main() {
	portFlag := flag.Int("port", 3000, "Port for the API server")
	ytdlpFlag := flag.String("ytdlp", "yt-dlp", "Path to yt-dlp binary")
	ffmpegFlag := flag.String("ffmpeg", "ffmpeg", "Path to ffmpeg binary")
	timeoutFlag := flag.Int("timeout", 45, "Max seconds to wait for a metadata fetch")
	ttlFlag := flag.Duration("cache-ttl", 5*time.Minute, "Resolution cache TTL")
	redisFlag := flag.String("redis", "", "Redis address for the resolution cache (empty = in-memory)")
	rpsFlag := flag.Float64("rps", 50, "Request rate limit per second")
	webFlag := flag.Bool("onweb", true, "Serve the browser UI")
	debugFlag := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	svc, httpClient, err := gateway.New(gateway.Config{
		YtDlpPath:  *ytdlpFlag,
		FFmpegPath: *ffmpegFlag,
		TimeoutSec: *timeoutFlag,
		CacheTTL:   *ttlFlag,
		RedisAddr:  *redisFlag,
		Debug:      *debugFlag,
	})
	if err != nil {
		slog.Error("Initialization failed", "err", err)
		os.Exit(1)
	}

	srv := &api.Server{
		Port:    *portFlag,
		Gateway: svc,
		Relay:   &proxy.Relay{Client: httpClient},
		Limiter: rate.NewLimiter(rate.Limit(*rpsFlag), int(*rpsFlag)*2),
	}

	if err := srv.Start(*webFlag); err != nil {
		slog.Error("Server crashed", "err", err)
		os.Exit(1)
	}
}
