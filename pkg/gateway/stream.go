package gateway

import (
	"errors"
	"io"

	"github.com/kingsaver/media-gateway/pkg/extractor"
)

const primeChunk = 32 * 1024

// primeStream blocks until the source yields its first payload chunk or
// fails. A failure here has committed nothing to the caller, so it can
// still become a structured error response; everything after the first
// byte is relayed as-is and can only end in completion or truncation.
func primeStream(sourceURL string, rc io.ReadCloser) (io.ReadCloser, error) {
	buf := make([]byte, primeChunk)
	for {
		n, err := rc.Read(buf)
		if n > 0 {
			return &primedStream{head: buf[:n], rest: rc}, nil
		}
		if err != nil {
			_ = rc.Close()
			if err == io.EOF {
				err = &extractor.Error{
					Kind: extractor.KindToolExecutionFailed,
					Op:   "stream",
					URL:  sourceURL,
					Err:  errors.New("stream ended before any payload"),
				}
			}
			return nil, err
		}
	}
}

// primedStream replays the buffered first chunk, then hands off to the
// live source.
type primedStream struct {
	head []byte
	rest io.ReadCloser
}

func (p *primedStream) Read(b []byte) (int, error) {
	if len(p.head) > 0 {
		n := copy(b, p.head)
		p.head = p.head[n:]
		return n, nil
	}
	return p.rest.Read(b)
}

func (p *primedStream) Close() error {
	return p.rest.Close()
}
