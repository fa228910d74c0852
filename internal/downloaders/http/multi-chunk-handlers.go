package danzohttp

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/tanq16/symfetch/internal/utils"
)

// Chunk is the body of one range response together with the range it answers.
type Chunk struct {
	Range ByteRange
	Data  []byte
}

type Fetcher struct {
	client     utils.HTTPDoer
	userAgent  string
	bufferSize int
}

func NewFetcher(client utils.HTTPDoer, userAgent string, bufferSize int) *Fetcher {
	if userAgent == "" {
		userAgent = utils.DefaultUserAgent
	}
	if bufferSize <= 0 {
		bufferSize = utils.DefaultBufferSize
	}
	return &Fetcher{client: client, userAgent: userAgent, bufferSize: bufferSize}
}

func (f *Fetcher) newGet(ctx context.Context, res *RemoteResource) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, res.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating GET request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Connection", "keep-alive")
	return req, nil
}

// FetchRange downloads one byte range. Only 206 Partial Content is accepted:
// a 200 carries the whole entity and would corrupt the assembled file.
func (f *Fetcher) FetchRange(ctx context.Context, res *RemoteResource, r ByteRange) (Chunk, error) {
	req, err := f.newGet(ctx, res)
	if err != nil {
		return Chunk{}, err
	}
	req.Header.Set("Range", r.Header())
	resp, err := f.client.Do(req)
	if err != nil {
		return Chunk{}, fmt.Errorf("error fetching %s: %w", r.Header(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return Chunk{}, fmt.Errorf("%w: status %d for %s", ErrRangeNotHonored, resp.StatusCode, r.Header())
		}
		return Chunk{}, fmt.Errorf("%w: %d for %s", ErrUnexpectedStatus, resp.StatusCode, r.Header())
	}
	buf := bytes.NewBuffer(make([]byte, 0, r.Len()))
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return Chunk{}, fmt.Errorf("error reading %s: %w", r.Header(), err)
	}
	return Chunk{Range: r, Data: buf.Bytes()}, nil
}
