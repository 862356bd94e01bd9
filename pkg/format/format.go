// Package format turns an extractor's raw format listing into the ranked,
// deduplicated list offered to callers.
package format

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/kingsaver/media-gateway/pkg/extractor"
	"github.com/kingsaver/media-gateway/pkg/models"
)

// Limits caps how many formats of each kind are surfaced. Presentation
// policy, not correctness.
type Limits struct {
	Combined  int
	VideoOnly int
	AudioOnly int
}

var DefaultLimits = Limits{Combined: 10, VideoOnly: 5, AudioOnly: 3}

// Normalize converts raw records into descriptors. Records carrying
// neither track are dropped here and never stored.
func Normalize(raws []extractor.RawFormat) []models.Format {
	out := make([]models.Format, 0, len(raws))
	for _, r := range raws {
		hasVideo := trackPresent(r.VCodec)
		hasAudio := trackPresent(r.ACodec)
		if !hasVideo && !hasAudio {
			continue
		}

		f := models.Format{
			ID:        r.ID,
			Container: r.Ext,
			HasVideo:  hasVideo,
			HasAudio:  hasAudio,
		}
		switch {
		case hasVideo && hasAudio:
			f.Kind = models.KindBoth
		case hasVideo:
			f.Kind = models.KindVideo
			f.NeedsMerge = true
		default:
			f.Kind = models.KindAudio
		}
		if hasVideo {
			h := r.Height
			f.Height = &h
		}
		f.QualityLabel = qualityLabel(r, hasVideo)
		out = append(out, f)
	}
	return out
}

func trackPresent(codec string) bool {
	return codec != "" && codec != extractor.CodecAbsent
}

func qualityLabel(r extractor.RawFormat, hasVideo bool) string {
	if r.FormatNote != "" {
		return r.FormatNote
	}
	if hasVideo && r.Height > 0 {
		return fmt.Sprintf("%dp", r.Height)
	}
	if r.ABR > 0 {
		return fmt.Sprintf("%dkbps", int(r.ABR))
	}
	return "Audio"
}

// Select orders and caps descriptors: combined first, then video-only,
// then audio-only. Combined and video-only sort descending by height with
// a stable tie-break on source order. When the process cannot merge,
// video-only formats are unusable end-to-end and are excluded entirely.
func Select(formats []models.Format, mergeCapable bool, limits Limits) []models.Format {
	combined := lo.Filter(formats, func(f models.Format, _ int) bool { return f.Kind == models.KindBoth })
	videoOnly := lo.Filter(formats, func(f models.Format, _ int) bool { return f.Kind == models.KindVideo })
	audioOnly := lo.Filter(formats, func(f models.Format, _ int) bool { return f.Kind == models.KindAudio })

	byHeightDesc := func(s []models.Format) {
		sort.SliceStable(s, func(i, j int) bool { return heightOf(s[i]) > heightOf(s[j]) })
	}
	byHeightDesc(combined)
	byHeightDesc(videoOnly)

	if !mergeCapable {
		videoOnly = nil
	}

	out := make([]models.Format, 0, len(combined)+len(videoOnly)+len(audioOnly))
	out = append(out, capTo(combined, limits.Combined)...)
	out = append(out, capTo(videoOnly, limits.VideoOnly)...)
	out = append(out, capTo(audioOnly, limits.AudioOnly)...)
	return out
}

func heightOf(f models.Format) int {
	if f.Height == nil {
		return 0
	}
	return *f.Height
}

func capTo(s []models.Format, n int) []models.Format {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
