package extractor

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
)

// Library is the library-backed extractor variant: a native YouTube
// client instead of a spawned binary. It has no muxer, so it can never
// serve merge requests; the selector's merge gate hides video-only
// formats whenever this variant is active.
type Library struct {
	client          youtube.Client
	describeTimeout time.Duration
}

func NewLibrary(describeTimeout time.Duration) *Library {
	if describeTimeout <= 0 {
		describeTimeout = 45 * time.Second
	}
	return &Library{client: youtube.Client{}, describeTimeout: describeTimeout}
}

func (l *Library) Name() string { return "youtube-library" }

func (l *Library) CanMerge() bool { return false }

func (l *Library) Describe(ctx context.Context, sourceURL string) (*RawInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, l.describeTimeout)
	defer cancel()

	video, err := l.client.GetVideoContext(ctx, sourceURL)
	if err != nil {
		return nil, l.wrap("describe", sourceURL, err)
	}

	info := &RawInfo{
		ID:          video.ID,
		Title:       video.Title,
		Description: video.Description,
		Duration:    video.Duration.Seconds(),
		Uploader:    video.Author,
		Formats:     make([]RawFormat, 0, len(video.Formats)),
	}
	if len(video.Thumbnails) > 0 {
		info.Thumbnail = video.Thumbnails[0].URL
	}

	for _, f := range video.Formats {
		info.Formats = append(info.Formats, rawFromLibraryFormat(f))
	}
	return info, nil
}

// rawFromLibraryFormat translates the library's format record into the
// tool-agnostic raw model, synthesizing the "none" codec markers the
// normalizer keys on.
func rawFromLibraryFormat(f youtube.Format) RawFormat {
	mime, vcodec, acodec := splitMimeType(f.MimeType)

	raw := RawFormat{
		ID:         strconv.Itoa(f.ItagNo),
		Ext:        containerOf(mime),
		Height:     f.Height,
		Width:      f.Width,
		FormatNote: f.QualityLabel,
	}

	switch {
	case strings.HasPrefix(mime, "audio/"):
		raw.VCodec = CodecAbsent
		raw.ACodec = acodec
	case f.AudioChannels > 0:
		raw.VCodec = vcodec
		raw.ACodec = acodec
	default:
		raw.VCodec = vcodec
		raw.ACodec = CodecAbsent
	}
	return raw
}

// splitMimeType takes `video/mp4; codecs="avc1.4d401f, mp4a.40.2"` apart
// into the bare mime type and up to two codec names.
func splitMimeType(mimeType string) (mime, vcodec, acodec string) {
	parts := strings.SplitN(mimeType, ";", 2)
	mime = strings.TrimSpace(parts[0])
	vcodec, acodec = "unknown", "unknown"

	if len(parts) < 2 {
		return mime, vcodec, acodec
	}
	codecs := strings.TrimSpace(parts[1])
	codecs = strings.TrimPrefix(codecs, "codecs=")
	codecs = strings.Trim(codecs, `"`)
	names := strings.Split(codecs, ",")

	if strings.HasPrefix(mime, "audio/") {
		if len(names) > 0 {
			acodec = strings.TrimSpace(names[0])
		}
		return mime, vcodec, acodec
	}
	if len(names) > 0 {
		vcodec = strings.TrimSpace(names[0])
	}
	if len(names) > 1 {
		acodec = strings.TrimSpace(names[1])
	}
	return mime, vcodec, acodec
}

func containerOf(mime string) string {
	if i := strings.Index(mime, "/"); i >= 0 {
		return mime[i+1:]
	}
	return "mp4"
}

func (l *Library) OpenStream(ctx context.Context, req StreamRequest) (io.ReadCloser, error) {
	if req.Merge {
		return nil, NewInvalidInput("stream", req.URL, errors.New("library extractor cannot merge tracks"))
	}

	video, err := l.client.GetVideoContext(ctx, req.URL)
	if err != nil {
		return nil, l.wrap("stream", req.URL, err)
	}

	itag, err := strconv.Atoi(req.FormatID)
	if err != nil {
		return nil, NewInvalidInput("stream", req.URL, err)
	}
	matches := video.Formats.Itag(itag)
	if len(matches) == 0 {
		return nil, NewInvalidInput("stream", req.URL, errors.New("unknown format id "+req.FormatID))
	}
	format := &matches[0]

	rc, _, err := l.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, l.wrap("stream", req.URL, err)
	}
	return rc, nil
}

func (l *Library) wrap(op, sourceURL string, err error) *Error {
	kind := KindToolExecutionFailed
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindToolTimedOut
	}
	return &Error{Kind: kind, Op: op, URL: sourceURL, Err: err}
}
