package danzohttp

import (
	"bufio"
	"fmt"
	"io"
)

// AssembleChunks writes chunks to w in slice order. chunks is indexed by the
// position of each range in the plan, so a nil entry is a range that never
// produced data. Every chunk must start where the previous one ended and be
// exactly as long as its range; the total must equal length.
func AssembleChunks(w io.Writer, length int64, chunks []*Chunk) (int64, error) {
	bw := bufio.NewWriter(w)
	var written int64
	for i, c := range chunks {
		if c == nil {
			return written, fmt.Errorf("%w: range %d", ErrMissingChunk, i)
		}
		if c.Range.Start != written {
			return written, fmt.Errorf("%w: range %d starts at %d, expected %d", ErrMissingChunk, i, c.Range.Start, written)
		}
		if got := int64(len(c.Data)); got != c.Range.Len() {
			return written, fmt.Errorf("%w: range %d expected %d bytes, got %d", ErrSizeMismatch, i, c.Range.Len(), got)
		}
		n, err := bw.Write(c.Data)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("error writing range %d: %w", i, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("error flushing output: %w", err)
	}
	return written, VerifyLength(length, written)
}

func VerifyLength(expected, written int64) error {
	if expected != written {
		return fmt.Errorf("%w: expected %d bytes, wrote %d", ErrSizeMismatch, expected, written)
	}
	return nil
}
