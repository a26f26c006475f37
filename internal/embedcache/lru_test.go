package embedcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	embedCalls int
	batchCalls int
	batchSizes []int
}

func (c *countingEmbedder) Embed(_ context.Context, text string, _ string) ([]float32, error) {
	c.embedCalls++
	return []float32{float32(len(text)), 1}, nil
}

func (c *countingEmbedder) EmbedBatch(_ context.Context, texts []string, _ string) ([][]float32, error) {
	c.batchCalls++
	c.batchSizes = append(c.batchSizes, len(texts))
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func (c *countingEmbedder) ModelName() string {
	return "test-model"
}

func TestLRUCachesRepeatedEmbeds(t *testing.T) {
	backend := &countingEmbedder{}
	cached := WrapLRU(backend, 16, time.Minute)
	ctx := context.Background()

	first, err := cached.Embed(ctx, "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	second, err := cached.Embed(ctx, "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.embedCalls)
}

func TestLRUKeySeparatesTaskTypes(t *testing.T) {
	backend := &countingEmbedder{}
	cached := WrapLRU(backend, 16, time.Minute)
	ctx := context.Background()

	_, err := cached.Embed(ctx, "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	_, err = cached.Embed(ctx, "hello", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	assert.Equal(t, 2, backend.embedCalls)
}

func TestLRUBatchOnlyEmbedsMisses(t *testing.T) {
	backend := &countingEmbedder{}
	cached := WrapLRU(backend, 16, time.Minute)
	ctx := context.Background()

	_, err := cached.Embed(ctx, "bb", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)

	out, err := cached.EmbedBatch(ctx, []string{"a", "bb", "ccc"}, "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []float32{1, 1}, out[0])
	assert.Equal(t, []float32{2, 1}, out[1])
	assert.Equal(t, []float32{3, 1}, out[2])
	assert.Equal(t, 1, backend.batchCalls)
	assert.Equal(t, []int{2}, backend.batchSizes)
}

func TestLRUBatchAllHitsSkipsBackend(t *testing.T) {
	backend := &countingEmbedder{}
	cached := WrapLRU(backend, 16, time.Minute)
	ctx := context.Background()

	_, err := cached.EmbedBatch(ctx, []string{"a", "bb"}, "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	_, err = cached.EmbedBatch(ctx, []string{"a", "bb"}, "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.batchCalls)
}

func TestLRUCachedVectorIsIsolated(t *testing.T) {
	backend := &countingEmbedder{}
	cached := WrapLRU(backend, 16, time.Minute)
	ctx := context.Background()

	first, err := cached.Embed(ctx, "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	first[0] = -999

	second, err := cached.Embed(ctx, "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	assert.NotEqual(t, float32(-999), second[0])
}

func TestWrapLRUDisabledReturnsBackend(t *testing.T) {
	backend := &countingEmbedder{}
	assert.Equal(t, backend, WrapLRU(backend, 0, time.Minute))
	assert.Equal(t, backend, WrapLRU(backend, 16, 0))
}
