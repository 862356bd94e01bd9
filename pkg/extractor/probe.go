package extractor

import (
	"log/slog"
	"os/exec"
	"time"
)

// Detect picks the extractor variant for this process. yt-dlp on PATH
// wins because it handles every platform the service advertises; the
// library client is the fallback when the binary is absent. The choice
// and the merge capability are fixed for the process lifetime.
func Detect(ytdlpPath, ffmpegPath string, describeTimeout time.Duration) Extractor {
	if ytdlpPath == "" {
		ytdlpPath = "yt-dlp"
	}

	if _, err := exec.LookPath(ytdlpPath); err == nil {
		mergeCapable := ffmpegWorks(ffmpegPath)
		slog.Info("using yt-dlp extractor", "path", ytdlpPath, "merge_capable", mergeCapable)
		return NewYtDlp(ytdlpPath, describeTimeout, mergeCapable)
	}

	slog.Warn("yt-dlp not found, falling back to library extractor", "tried", ytdlpPath)
	return NewLibrary(describeTimeout)
}

// ffmpegWorks probes the muxing tool once. yt-dlp silently skips merging
// without it, so video-only formats must not be offered in that case.
func ffmpegWorks(path string) bool {
	if path == "" {
		path = "ffmpeg"
	}
	if err := exec.Command(path, "-version").Run(); err != nil {
		slog.Warn("ffmpeg probe failed, merge disabled", "path", path, "err", err)
		return false
	}
	return true
}
