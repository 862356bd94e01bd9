package extractor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// YtDlp drives the yt-dlp binary. Describe shells out once per URL and
// waits for exit; OpenStream keeps the child alive and relays its stdout.
type YtDlp struct {
	// BinaryPath is the yt-dlp executable (defaults to "yt-dlp" on PATH).
	BinaryPath string
	// DescribeTimeout bounds a metadata run; streams are not deadlined,
	// only cancelled.
	DescribeTimeout time.Duration
	// mergeCapable is set by the startup probe (ffmpeg presence).
	mergeCapable bool
}

// NewYtDlp builds the subprocess extractor. mergeCapable comes from the
// ffmpeg probe; yt-dlp cannot remux without it.
func NewYtDlp(binaryPath string, describeTimeout time.Duration, mergeCapable bool) *YtDlp {
	if binaryPath == "" {
		binaryPath = "yt-dlp"
	}
	if describeTimeout <= 0 {
		describeTimeout = 45 * time.Second
	}
	return &YtDlp{
		BinaryPath:      binaryPath,
		DescribeTimeout: describeTimeout,
		mergeCapable:    mergeCapable,
	}
}

func (y *YtDlp) Name() string { return "yt-dlp" }

func (y *YtDlp) CanMerge() bool { return y.mergeCapable }

func describeArgs(sourceURL string) []string {
	return []string{"-J", "--no-playlist", "--no-warnings", sourceURL}
}

// streamArgs builds the download invocation. A merge request names both
// the selected format and a best-available audio pairing, plus the
// explicit output container yt-dlp needs when writing to a pipe.
func streamArgs(req StreamRequest) []string {
	args := []string{"--no-playlist", "--no-warnings", "-o", "-"}
	if req.Merge {
		container := req.Container
		if container == "" {
			container = "mp4"
		}
		args = append(args,
			"-f", fmt.Sprintf("%s+bestaudio/best", req.FormatID),
			"--merge-output-format", container,
		)
	} else {
		args = append(args, "-f", req.FormatID)
	}
	return append(args, req.URL)
}

func (y *YtDlp) Describe(ctx context.Context, sourceURL string) (*RawInfo, error) {
	runCtx, cancel := context.WithTimeout(ctx, y.DescribeTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, y.BinaryPath, describeArgs(sourceURL)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	slog.Debug("yt-dlp describe finished", "url", sourceURL, "took", time.Since(start), "err", err)

	if err != nil {
		return nil, y.classifyRunError(runCtx, "describe", sourceURL, err, stderr.String())
	}

	var info RawInfo
	if jerr := json.Unmarshal(stdout.Bytes(), &info); jerr != nil {
		return nil, &Error{
			Kind: KindMalformedOutput,
			Op:   "describe",
			URL:  sourceURL,
			Err:  jerr,
		}
	}
	return &info, nil
}

func (y *YtDlp) classifyRunError(ctx context.Context, op, sourceURL string, err error, diag string) *Error {
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return &Error{Kind: KindToolUnavailable, Op: op, URL: sourceURL, Err: err}
	case ctx.Err() == context.DeadlineExceeded:
		return &Error{Kind: KindToolTimedOut, Op: op, URL: sourceURL, Err: context.DeadlineExceeded}
	default:
		return &Error{
			Kind:       KindToolExecutionFailed,
			Op:         op,
			URL:        sourceURL,
			Diagnostic: diagTail(diag),
			Err:        err,
		}
	}
}

func (y *YtDlp) OpenStream(ctx context.Context, req StreamRequest) (io.ReadCloser, error) {
	streamCtx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(streamCtx, y.BinaryPath, streamArgs(req)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		if errors.Is(err, exec.ErrNotFound) {
			return nil, &Error{Kind: KindToolUnavailable, Op: "stream", URL: req.URL, Err: err}
		}
		return nil, &Error{Kind: KindToolExecutionFailed, Op: "stream", URL: req.URL, Err: err}
	}

	slog.Info("download subprocess started", "url", req.URL, "format", req.FormatID, "merge", req.Merge, "pid", cmd.Process.Pid)

	ps := &processStream{
		url:        req.URL,
		cmd:        cmd,
		out:        stdout,
		cancel:     cancel,
		stderrDone: make(chan struct{}),
	}
	// Diagnostic output is drained continuously; an undrained pipe would
	// deadlock the child once its buffer fills.
	go ps.drainStderr(stderr)
	return ps, nil
}

// processStream relays a child's stdout. Close terminates and reaps the
// child on every path, including caller disconnect.
type processStream struct {
	url    string
	cmd    *exec.Cmd
	out    io.ReadCloser
	cancel context.CancelFunc
	// stderrDone closes when the drain goroutine has consumed the pipe.
	stderrDone chan struct{}

	mu       sync.Mutex
	diag     []string
	waitOnce sync.Once
	waitErr  error
}

func (s *processStream) drainStderr(r io.Reader) {
	defer close(s.stderrDone)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 256*1024)
	for scanner.Scan() {
		line := scanner.Text()
		slog.Debug("yt-dlp stderr", "url", s.url, "line", line)
		s.mu.Lock()
		s.diag = append(s.diag, line)
		if len(s.diag) > 8 {
			s.diag = s.diag[1:]
		}
		s.mu.Unlock()
	}
}

func (s *processStream) diagnostic() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.diag, "\n")
}

func (s *processStream) reap() error {
	s.waitOnce.Do(func() {
		// Wait closes the stderr pipe, so the drain goroutine must finish
		// first or the tail of the diagnostic can be lost.
		<-s.stderrDone
		s.waitErr = s.cmd.Wait()
	})
	return s.waitErr
}

// Read relays stdout. When the child closes its end, the exit status
// decides whether this was a completed stream or a failure: a nonzero
// exit with no prior payload can still become a clean error upstream.
func (s *processStream) Read(p []byte) (int, error) {
	n, err := s.out.Read(p)
	if err == io.EOF {
		if werr := s.reap(); werr != nil {
			return n, &Error{
				Kind:       KindToolExecutionFailed,
				Op:         "stream",
				URL:        s.url,
				Diagnostic: diagTail(s.diagnostic()),
				Err:        werr,
			}
		}
	}
	return n, err
}

func (s *processStream) Close() error {
	s.cancel()
	if err := s.reap(); err != nil {
		// Expected for both forced termination and upstream failures;
		// the caller has already decided how to report.
		slog.Debug("download subprocess exited with error", "url", s.url, "err", err)
	}
	// Wait has already closed the pipe; ignore the double close.
	_ = s.out.Close()
	return nil
}

// diagTail trims captured stderr to something log-sized.
func diagTail(diag string) string {
	diag = strings.TrimSpace(diag)
	const max = 1024
	if len(diag) > max {
		diag = diag[len(diag)-max:]
	}
	return diag
}
