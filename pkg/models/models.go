package models

// Kind describes which tracks a format carries.
type Kind string

const (
	KindBoth  Kind = "both"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// Format is one selectable encoding variant of a resolved video.
// JSON field names follow the browser client's contract.
type Format struct {
	// ID is the extractor's identifier for this variant, opaque to us.
	ID           string `json:"itag"`
	QualityLabel string `json:"qualityLabel"`
	Container    string `json:"container"`
	HasVideo     bool   `json:"hasVideo"`
	HasAudio     bool   `json:"hasAudio"`
	Kind         Kind   `json:"type"`
	// Height is nil for pure-audio variants and serializes as null, which
	// is what the browser client expects.
	Height *int `json:"height"`
	// NeedsMerge marks video-only variants that must be combined with an
	// audio track before the result is playable.
	NeedsMerge bool `json:"needsMerge"`
}

type Author struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// ResolvedMedia is the per-URL metadata result handed to the HTTP layer
// and stored in the resolution cache.
type ResolvedMedia struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	// Duration is in whole seconds.
	Duration int      `json:"duration"`
	Author   Author   `json:"author"`
	Formats  []Format `json:"formats"`
	// MergeCapable reports whether this process can combine separate
	// audio/video tracks. Probed once at startup, constant afterwards.
	MergeCapable bool `json:"mergeCapable"`
}

// Clone returns an independent copy. The cache hands out clones so a
// caller can never mutate a stored entry.
func (m *ResolvedMedia) Clone() *ResolvedMedia {
	if m == nil {
		return nil
	}
	out := *m
	out.Formats = make([]Format, len(m.Formats))
	copy(out.Formats, m.Formats)
	for i := range out.Formats {
		if h := out.Formats[i].Height; h != nil {
			hh := *h
			out.Formats[i].Height = &hh
		}
	}
	return &out
}

// FindFormat returns the descriptor with the given ID, if present.
func (m *ResolvedMedia) FindFormat(id string) (Format, bool) {
	for _, f := range m.Formats {
		if f.ID == id {
			return f, true
		}
	}
	return Format{}, false
}

// APIError is the error envelope returned by the HTTP boundary.
type APIError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
