package api

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/kingsaver/media-gateway/pkg/extractor"
	"github.com/kingsaver/media-gateway/pkg/gateway"
	"github.com/kingsaver/media-gateway/pkg/models"
	"github.com/kingsaver/media-gateway/pkg/proxy"
)

type Server struct {
	Port    int
	Gateway *gateway.Service
	Relay   *proxy.Relay
	Limiter *rate.Limiter
}

func (s *Server) Start(enableWeb bool) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/info", s.wrap(s.handleInfo))
	mux.HandleFunc("/api/download", s.wrap(s.handleDownload))
	mux.HandleFunc("/api/download/direct", s.wrap(s.handleDirect))

	if enableWeb {
		mux.HandleFunc("/", s.handleWebIndex)
	}

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("Starting API server", "addr", fmt.Sprintf("http://localhost:%d", s.Port), "web_ui", enableWeb)
	return http.ListenAndServe(addr, mux)
}

// wrap applies the shared middleware: CORS preflight, rate limiting and
// request logging with a per-request ID.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		if s.Limiter != nil && !s.Limiter.Allow() {
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		reqID := uuid.New().String()
		start := time.Now()
		next(w, r)
		slog.Info("request", "id", reqID, "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr, "took", time.Since(start))
	}
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.URL == "" {
		s.respondError(w, http.StatusBadRequest, "URL is required", nil)
		return
	}

	media, err := s.Gateway.Describe(r.Context(), req.URL)
	if err != nil {
		slog.Error("describe failed", "url", req.URL, "kind", extractor.KindOf(err), "err", err)
		s.respondError(w, statusForError(err), "Failed to fetch video data", err)
		return
	}

	s.respondJSON(w, media)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sourceURL := r.URL.Query().Get("url")
	formatID := r.URL.Query().Get("itag")
	if sourceURL == "" || formatID == "" {
		http.Error(w, "URL and itag are required", http.StatusBadRequest)
		return
	}

	stream, desc, err := s.Gateway.OpenDownload(r.Context(), sourceURL, formatID)
	if err != nil {
		slog.Error("download failed to start", "url", sourceURL, "itag", formatID, "kind", extractor.KindOf(err), "err", err)
		http.Error(w, "Download failed", statusForError(err))
		return
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			slog.Warn("failed to close download stream", "err", cerr)
		}
	}()

	filename := fmt.Sprintf("king_saver_video_%d.%s", time.Now().Unix(), downloadExt(desc))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Type", contentTypeFor(desc))

	// Headers are committed with the first byte; anything that breaks
	// after this point can only truncate the stream, never turn into a
	// structured error response.
	if _, err := io.Copy(w, stream); err != nil {
		slog.Error("download stream truncated", "url", sourceURL, "itag", formatID, "err", err)
	}
}

func (s *Server) handleDirect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	remoteURL := r.URL.Query().Get("url")
	if remoteURL == "" {
		http.Error(w, "URL is required", http.StatusBadRequest)
		return
	}

	body, contentType, err := s.Relay.Open(r.Context(), remoteURL)
	if err != nil {
		slog.Error("relay failed", "url", remoteURL, "err", err)
		http.Error(w, "Failed to download video", http.StatusBadGateway)
		return
	}
	defer func() {
		if cerr := body.Close(); cerr != nil {
			slog.Warn("failed to close relay body", "err", cerr)
		}
	}()

	filename := SanitizeFilename(r.URL.Query().Get("filename"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".mp4"))
	w.Header().Set("Content-Type", contentType)

	if _, err := io.Copy(w, body); err != nil {
		slog.Error("relay stream truncated", "url", remoteURL, "err", err)
	}
}

func (s *Server) handleWebIndex(w http.ResponseWriter, r *http.Request) {
	t, err := template.New("index").Parse(tmpl)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	if err := t.Execute(w, nil); err != nil {
		slog.Error("Template execution failed", "err", err, "remote", r.RemoteAddr)
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("JSON encoding failed", "err", err)
	}
}

// respondError keeps diagnostic detail out of the client-facing message;
// raw tool stderr goes to logs only.
func (s *Server) respondError(w http.ResponseWriter, status int, msg string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := models.APIError{Error: msg}
	if err != nil && extractor.KindOf(err) == extractor.KindInvalidInput {
		body.Details = err.Error()
	}
	if jerr := json.NewEncoder(w).Encode(body); jerr != nil {
		slog.Error("JSON encoding failed", "err", jerr)
	}
}

// statusForError maps the extraction failure taxonomy onto HTTP statuses.
func statusForError(err error) int {
	switch extractor.KindOf(err) {
	case extractor.KindInvalidInput:
		return http.StatusBadRequest
	case extractor.KindToolUnavailable:
		return http.StatusServiceUnavailable
	case extractor.KindToolTimedOut:
		return http.StatusGatewayTimeout
	default:
		// Execution failure and garbage output both read as a bad
		// upstream from the caller's side.
		return http.StatusBadGateway
	}
}

func downloadExt(f models.Format) string {
	if f.Kind == models.KindAudio && f.Container != "" {
		return f.Container
	}
	return "mp4"
}

func contentTypeFor(f models.Format) string {
	if f.Kind == models.KindAudio {
		switch f.Container {
		case "m4a", "mp4":
			return "audio/mp4"
		case "webm", "opus":
			return "audio/webm"
		case "mp3":
			return "audio/mpeg"
		default:
			return "application/octet-stream"
		}
	}
	if f.Container == "webm" && !f.NeedsMerge {
		return "video/webm"
	}
	return "video/mp4"
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFilename makes a user-supplied name safe for a header value:
// unsafe characters become underscores and the result is capped at 10
// characters, matching the download widget's contract.
func SanitizeFilename(name string) string {
	if name == "" {
		return "video"
	}
	safe := unsafeFilenameChars.ReplaceAllString(name, "_")
	if len(safe) > 10 {
		safe = safe[:10]
	}
	return safe
}
