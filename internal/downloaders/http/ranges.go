package danzohttp

import "fmt"

// ByteRange is the half-open interval [Start, End) of a resource.
type ByteRange struct {
	Start int64
	End   int64
}

func (r ByteRange) Len() int64 {
	return r.End - r.Start
}

// Header renders the inclusive HTTP form of the range.
func (r ByteRange) Header() string {
	return fmt.Sprintf("bytes=%d-%d", r.Start, r.End-1)
}

// PlanRanges splits [0, length) into consecutive ranges of chunkSize bytes.
// The last range is shorter when length is not a multiple of chunkSize and is
// left out entirely when it would be empty.
func PlanRanges(length, chunkSize int64) ([]ByteRange, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if length < 0 {
		return nil, fmt.Errorf("cannot plan ranges for length %d", length)
	}
	full := length / chunkSize
	ranges := make([]ByteRange, 0, full+1)
	for i := int64(0); i < full; i++ {
		ranges = append(ranges, ByteRange{Start: i * chunkSize, End: (i + 1) * chunkSize})
	}
	if tail := full * chunkSize; tail < length {
		ranges = append(ranges, ByteRange{Start: tail, End: length})
	}
	return ranges, nil
}
