package danzohttp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunksOf(data []byte, size int64) []*Chunk {
	ranges, _ := PlanRanges(int64(len(data)), size)
	chunks := make([]*Chunk, len(ranges))
	for i, r := range ranges {
		chunks[i] = &Chunk{Range: r, Data: data[r.Start:r.End]}
	}
	return chunks
}

func TestAssembleChunksWritesInOrder(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	var out bytes.Buffer
	n, err := AssembleChunks(&out, int64(len(data)), chunksOf(data, 5))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
	assert.Equal(t, data, out.Bytes())
}

func TestAssembleChunksZeroLength(t *testing.T) {
	var out bytes.Buffer
	n, err := AssembleChunks(&out, 0, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, out.Len())
}

func TestAssembleChunksMissingChunk(t *testing.T) {
	data := []byte("0123456789abcdef")
	chunks := chunksOf(data, 4)
	chunks[2] = nil
	_, err := AssembleChunks(&bytes.Buffer{}, int64(len(data)), chunks)
	assert.ErrorIs(t, err, ErrMissingChunk)
}

func TestAssembleChunksShortChunk(t *testing.T) {
	data := []byte("0123456789abcdef")
	chunks := chunksOf(data, 4)
	chunks[1].Data = chunks[1].Data[:3]
	_, err := AssembleChunks(&bytes.Buffer{}, int64(len(data)), chunks)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestAssembleChunksRejectsSwappedOrder(t *testing.T) {
	data := []byte("0123456789abcdef")
	chunks := chunksOf(data, 4)
	chunks[0], chunks[1] = chunks[1], chunks[0]
	_, err := AssembleChunks(&bytes.Buffer{}, int64(len(data)), chunks)
	assert.ErrorIs(t, err, ErrMissingChunk)
}

func TestAssembleChunksLengthMismatch(t *testing.T) {
	data := []byte("0123456789")
	_, err := AssembleChunks(&bytes.Buffer{}, 11, chunksOf(data, 4))
	assert.ErrorIs(t, err, ErrSizeMismatch)
}
