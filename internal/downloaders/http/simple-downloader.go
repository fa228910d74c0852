package danzohttp

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
)

// Stream copies the whole body of res into w through a fixed buffer and
// returns the number of bytes written. onRead sees every non-empty read.
// Bytes already written stay in w when an error is returned.
func (f *Fetcher) Stream(ctx context.Context, res *RemoteResource, w io.Writer, onRead func(n int64)) (int64, error) {
	req, err := f.newGet(ctx, res)
	if err != nil {
		return 0, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("error executing GET request: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatusCode(resp.StatusCode); err != nil {
		return 0, err
	}
	log.Debug().Str("op", "http/stream").Str("url", res.URL).Int("buffer", f.bufferSize).Msg("Starting stream download")

	buffer := make([]byte, f.bufferSize)
	var written int64
	for {
		bytesRead, readErr := resp.Body.Read(buffer)
		if bytesRead > 0 {
			if _, writeErr := w.Write(buffer[:bytesRead]); writeErr != nil {
				return written, fmt.Errorf("error writing to output file: %w", writeErr)
			}
			written += int64(bytesRead)
			if onRead != nil {
				onRead(int64(bytesRead))
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return written, fmt.Errorf("error reading response body: %w", readErr)
		}
	}
	return written, nil
}
