package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/kingsaver/media-gateway/pkg/extractor"
	"github.com/kingsaver/media-gateway/pkg/models"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "video"},
		{"clip", "clip"},
		{"my video!", "my_video_"},
		{"../../etc/passwd", ".._.._etc_"},
		{"averylongfilename.mp4", "averylongf"},
		{"ok-name_1.mp4", "ok-name_1."},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		kind extractor.Kind
		want int
	}{
		{extractor.KindInvalidInput, http.StatusBadRequest},
		{extractor.KindToolUnavailable, http.StatusServiceUnavailable},
		{extractor.KindToolTimedOut, http.StatusGatewayTimeout},
		{extractor.KindToolExecutionFailed, http.StatusBadGateway},
		{extractor.KindMalformedOutput, http.StatusBadGateway},
	}
	for _, tt := range tests {
		err := &extractor.Error{Kind: tt.kind, Op: "describe", URL: "u"}
		if got := statusForError(err); got != tt.want {
			t.Errorf("statusForError(%v) = %d, want %d", tt.kind, got, tt.want)
		}
	}

	if got := statusForError(errors.New("plain")); got != http.StatusBadGateway {
		t.Errorf("plain error = %d, want %d", got, http.StatusBadGateway)
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		f    models.Format
		want string
	}{
		{models.Format{Kind: models.KindBoth, Container: "mp4"}, "video/mp4"},
		{models.Format{Kind: models.KindVideo, Container: "webm", NeedsMerge: true}, "video/mp4"},
		{models.Format{Kind: models.KindBoth, Container: "webm"}, "video/webm"},
		{models.Format{Kind: models.KindAudio, Container: "m4a"}, "audio/mp4"},
		{models.Format{Kind: models.KindAudio, Container: "webm"}, "audio/webm"},
		{models.Format{Kind: models.KindAudio, Container: "flac"}, "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := contentTypeFor(tt.f); got != tt.want {
			t.Errorf("contentTypeFor(%+v) = %q, want %q", tt.f, got, tt.want)
		}
	}
}
