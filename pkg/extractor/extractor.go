// Package extractor abstracts the external media extraction capability:
// something that, given a source URL, can either describe the available
// formats or open a live byte stream for one of them. Two variants exist,
// a yt-dlp subprocess and a YouTube library client, selected at startup
// by capability probing.
package extractor

import (
	"context"
	"io"
)

// CodecAbsent is the literal marker the extraction tool reports for a
// missing track's codec field.
const CodecAbsent = "none"

// RawFormat is one per-format record as the tool reports it, before
// normalization.
type RawFormat struct {
	ID         string  `json:"format_id"`
	Ext        string  `json:"ext"`
	VCodec     string  `json:"vcodec"`
	ACodec     string  `json:"acodec"`
	Height     int     `json:"height"`
	Width      int     `json:"width"`
	FormatNote string  `json:"format_note"`
	ABR        float64 `json:"abr"`
}

// RawInfo is the structured metadata document for one source URL.
type RawInfo struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Thumbnail   string      `json:"thumbnail"`
	Duration    float64     `json:"duration"`
	Uploader    string      `json:"uploader"`
	Formats     []RawFormat `json:"formats"`
}

// StreamRequest selects one variant of one video for download.
type StreamRequest struct {
	URL      string
	FormatID string
	// Merge asks the tool to pair the selected (video-only) format with a
	// best-available audio track and remux into Container.
	Merge     bool
	Container string
}

// Extractor is the external extraction capability.
type Extractor interface {
	Name() string

	// CanMerge reports whether this extractor can combine separate
	// audio/video tracks. Constant for the life of the process.
	CanMerge() bool

	// Describe fetches the structured metadata for a URL. Failures are
	// *extractor.Error values carrying the failure kind and any captured
	// diagnostic text.
	Describe(ctx context.Context, sourceURL string) (*RawInfo, error)

	// OpenStream starts a download and returns a live byte source. The
	// returned ReadCloser must be closed by the caller; closing it (or
	// cancelling ctx) terminates the underlying work. Reads propagate
	// backpressure to the source.
	OpenStream(ctx context.Context, req StreamRequest) (io.ReadCloser, error)
}
