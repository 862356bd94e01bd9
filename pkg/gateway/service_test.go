package gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/kingsaver/media-gateway/pkg/cache"
	"github.com/kingsaver/media-gateway/pkg/extractor"
	"github.com/kingsaver/media-gateway/pkg/models"
)

// fakeExtractor is an in-memory extraction backend recording every call.
type fakeExtractor struct {
	mu            sync.Mutex
	describeCalls int
	streamReqs    []extractor.StreamRequest

	info        *extractor.RawInfo
	describeErr error
	canMerge    bool
	streamData  []byte
	streamErr   error
}

func (f *fakeExtractor) Name() string   { return "fake" }
func (f *fakeExtractor) CanMerge() bool { return f.canMerge }

func (f *fakeExtractor) Describe(_ context.Context, _ string) (*extractor.RawInfo, error) {
	f.mu.Lock()
	f.describeCalls++
	f.mu.Unlock()
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return f.info, nil
}

func (f *fakeExtractor) OpenStream(_ context.Context, req extractor.StreamRequest) (io.ReadCloser, error) {
	f.mu.Lock()
	f.streamReqs = append(f.streamReqs, req)
	f.mu.Unlock()
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return io.NopCloser(bytes.NewReader(f.streamData)), nil
}

func (f *fakeExtractor) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.describeCalls
}

func scenarioInfo() *extractor.RawInfo {
	return &extractor.RawInfo{
		ID:       "dQw4w9WgXcQ",
		Title:    "Some Video",
		Uploader: "Some Channel",
		Duration: 212,
		Formats: []extractor.RawFormat{
			{ID: "v1080", VCodec: "x", ACodec: "none", Height: 1080},
			{ID: "b1080", VCodec: "x", ACodec: "y", Height: 1080},
			{ID: "a0", VCodec: "none", ACodec: "z"},
		},
	}
}

const watchURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func newTestService(fx *fakeExtractor) (*Service, *cache.Memory) {
	store := cache.NewMemory(time.Minute)
	return NewService(fx, store, nil), store
}

func TestDescribe(t *testing.T) {
	ctx := context.Background()

	Convey("Describe", t, func() {
		Convey("ranks formats per the merge-capable pipeline", func() {
			fx := &fakeExtractor{info: scenarioInfo(), canMerge: true}
			svc, store := newTestService(fx)
			defer store.Close()

			media, err := svc.Describe(ctx, watchURL)
			So(err, ShouldBeNil)
			So(media.Title, ShouldEqual, "Some Video")
			So(media.MergeCapable, ShouldBeTrue)
			So(formatIDs(media), ShouldResemble, []string{"b1080", "v1080", "a0"})
		})

		Convey("excludes video-only formats when merging is unavailable", func() {
			fx := &fakeExtractor{info: scenarioInfo(), canMerge: false}
			svc, store := newTestService(fx)
			defer store.Close()

			media, err := svc.Describe(ctx, watchURL)
			So(err, ShouldBeNil)
			So(media.MergeCapable, ShouldBeFalse)
			So(formatIDs(media), ShouldResemble, []string{"b1080", "a0"})
		})

		Convey("a second describe within the TTL never reaches the backend", func() {
			fx := &fakeExtractor{info: scenarioInfo(), canMerge: true}
			svc, store := newTestService(fx)
			defer store.Close()

			_, err := svc.Describe(ctx, watchURL)
			So(err, ShouldBeNil)
			// Different spelling of the same video shares the key.
			_, err = svc.Describe(ctx, "https://youtu.be/dQw4w9WgXcQ")
			So(err, ShouldBeNil)
			So(fx.calls(), ShouldEqual, 1)
		})

		Convey("an extraction failure surfaces and is never cached", func() {
			fx := &fakeExtractor{
				canMerge: true,
				describeErr: &extractor.Error{
					Kind:       extractor.KindToolExecutionFailed,
					Op:         "describe",
					URL:        watchURL,
					Diagnostic: "rate limited",
				},
			}
			svc, store := newTestService(fx)
			defer store.Close()

			_, err := svc.Describe(ctx, watchURL)
			So(err, ShouldNotBeNil)
			So(extractor.KindOf(err), ShouldEqual, extractor.KindToolExecutionFailed)
			var ee *extractor.Error
			So(errors.As(err, &ee), ShouldBeTrue)
			So(ee.Diagnostic, ShouldEqual, "rate limited")
			So(store.Len(), ShouldEqual, 0)

			_, _ = svc.Describe(ctx, watchURL)
			So(fx.calls(), ShouldEqual, 2)
		})

		Convey("rejects bad input before touching the backend", func() {
			fx := &fakeExtractor{info: scenarioInfo()}
			svc, store := newTestService(fx)
			defer store.Close()

			for _, bad := range []string{"", "   ", "not-a-url", "ftp://example.com/x"} {
				_, err := svc.Describe(ctx, bad)
				So(err, ShouldNotBeNil)
				So(extractor.KindOf(err), ShouldEqual, extractor.KindInvalidInput)
			}
			So(fx.calls(), ShouldEqual, 0)
		})
	})
}

func TestOpenDownload(t *testing.T) {
	ctx := context.Background()

	Convey("OpenDownload", t, func() {
		Convey("requests a merge for video-only formats", func() {
			fx := &fakeExtractor{info: scenarioInfo(), canMerge: true, streamData: []byte("payload-bytes")}
			svc, store := newTestService(fx)
			defer store.Close()

			rc, desc, err := svc.OpenDownload(ctx, watchURL, "v1080")
			So(err, ShouldBeNil)
			defer rc.Close()

			So(desc.NeedsMerge, ShouldBeTrue)
			So(fx.streamReqs, ShouldHaveLength, 1)
			So(fx.streamReqs[0].FormatID, ShouldEqual, "v1080")
			So(fx.streamReqs[0].Merge, ShouldBeTrue)
			So(fx.streamReqs[0].Container, ShouldEqual, "mp4")

			data, err := io.ReadAll(rc)
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "payload-bytes")
		})

		Convey("passes combined formats through without a merge directive", func() {
			fx := &fakeExtractor{info: scenarioInfo(), canMerge: true, streamData: []byte("x")}
			svc, store := newTestService(fx)
			defer store.Close()

			rc, _, err := svc.OpenDownload(ctx, watchURL, "b1080")
			So(err, ShouldBeNil)
			defer rc.Close()
			So(fx.streamReqs[0].Merge, ShouldBeFalse)
		})

		Convey("rejects an unknown format id", func() {
			fx := &fakeExtractor{info: scenarioInfo(), canMerge: true}
			svc, store := newTestService(fx)
			defer store.Close()

			_, _, err := svc.OpenDownload(ctx, watchURL, "bogus")
			So(err, ShouldNotBeNil)
			So(extractor.KindOf(err), ShouldEqual, extractor.KindInvalidInput)
		})

		Convey("a source that dies before the first byte is a clean error", func() {
			fx := &fakeExtractor{info: scenarioInfo(), canMerge: true, streamData: nil}
			svc, store := newTestService(fx)
			defer store.Close()

			_, _, err := svc.OpenDownload(ctx, watchURL, "b1080")
			So(err, ShouldNotBeNil)
			So(extractor.KindOf(err), ShouldEqual, extractor.KindToolExecutionFailed)
		})
	})
}

func formatIDs(m *models.ResolvedMedia) []string {
	out := make([]string, 0, len(m.Formats))
	for _, f := range m.Formats {
		out = append(out, f.ID)
	}
	return out
}
