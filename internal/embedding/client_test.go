package embedding

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wrenlabs/docbase/internal/ai"
	appErr "github.com/wrenlabs/docbase/internal/pkg/errors"
)

type fakeEmbedder struct {
	dims       int
	failures   int
	calls      int
	seenInputs []string
	batchSizes []int
	makeVector func(input string) []float32
}

func (f *fakeEmbedder) vector(input string) []float32 {
	if f.makeVector != nil {
		return f.makeVector(input)
	}
	vec := make([]float32, f.dims)
	for i := range vec {
		vec[i] = 0.5
	}
	return vec
}

func (f *fakeEmbedder) Embed(_ context.Context, text string, _ string) ([]float32, error) {
	f.calls++
	f.seenInputs = append(f.seenInputs, text)
	if f.failures > 0 {
		f.failures--
		return nil, fmt.Errorf("transient backend error")
	}
	return f.vector(text), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string, _ string) ([][]float32, error) {
	f.calls++
	f.batchSizes = append(f.batchSizes, len(texts))
	if f.failures > 0 {
		f.failures--
		return nil, fmt.Errorf("transient backend error")
	}
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		f.seenInputs = append(f.seenInputs, text)
		out = append(out, f.vector(text))
	}
	return out, nil
}

func (f *fakeEmbedder) ModelName() string {
	return "fake-model"
}

func newTestClient(f *fakeEmbedder) *Client {
	return NewClient(f, Config{
		Dimensions:  f.dims,
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
	})
}

func TestEmbedRejectsEmptyInput(t *testing.T) {
	f := &fakeEmbedder{dims: 4}
	c := newTestClient(f)
	_, err := c.Embed(context.Background(), "   ", TaskTypeQuery)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	require.Equal(t, 0, f.calls, "no network call for empty input")
}

func TestEmbedTruncatesLongInput(t *testing.T) {
	f := &fakeEmbedder{dims: 4}
	c := NewClient(f, Config{Dimensions: 4, MaxInputChars: 10, MaxAttempts: 1, BaseDelay: time.Millisecond})
	long := "aaaaaaaaaaaaaaaaaaaaaaaaa"
	_, err := c.Embed(context.Background(), long, TaskTypeDocument)
	require.NoError(t, err)
	require.Len(t, f.seenInputs, 1)
	require.Len(t, []rune(f.seenInputs[0]), 10)
}

func TestEmbedRetriesTransientFailures(t *testing.T) {
	f := &fakeEmbedder{dims: 4, failures: 2}
	c := newTestClient(f)
	vec, err := c.Embed(context.Background(), "hello", TaskTypeQuery)
	require.NoError(t, err)
	require.Len(t, vec, 4)
	require.Equal(t, 3, f.calls)
}

func TestEmbedGivesUpAfterMaxAttempts(t *testing.T) {
	f := &fakeEmbedder{dims: 4, failures: 10}
	c := newTestClient(f)
	_, err := c.Embed(context.Background(), "hello", TaskTypeQuery)
	require.Error(t, err)
	require.Equal(t, 3, f.calls)
}

func TestEmbedDoesNotRetryUnconfiguredProvider(t *testing.T) {
	c := NewClient(ai.NewEmbedder(unavailableProvider{}, "m"), Config{Dimensions: 4, MaxAttempts: 5, BaseDelay: time.Millisecond})
	start := time.Now()
	_, err := c.Embed(context.Background(), "hello", TaskTypeQuery)
	require.ErrorIs(t, err, ai.ErrUnavailable)
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

type unavailableProvider struct{}

func (unavailableProvider) Name() string { return "none" }
func (unavailableProvider) Embed(context.Context, string, string, string) ([]float32, error) {
	return nil, ai.ErrUnavailable
}
func (unavailableProvider) EmbedBatch(context.Context, string, []string, string) ([][]float32, error) {
	return nil, ai.ErrUnavailable
}

func TestEmbedValidatesDimensions(t *testing.T) {
	f := &fakeEmbedder{dims: 4, makeVector: func(string) []float32 { return []float32{1, 2} }}
	c := newTestClient(f)
	_, err := c.Embed(context.Background(), "hello", TaskTypeQuery)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	require.Contains(t, err.Error(), "dimensions")
}

func TestEmbedValidatesFiniteComponents(t *testing.T) {
	f := &fakeEmbedder{dims: 4, makeVector: func(string) []float32 {
		return []float32{1, float32(math.NaN()), 1, 1}
	}}
	c := newTestClient(f)
	_, err := c.Embed(context.Background(), "hello", TaskTypeQuery)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestEmbedRejectsAllZeroVector(t *testing.T) {
	f := &fakeEmbedder{dims: 4, makeVector: func(string) []float32 { return make([]float32, 4) }}
	c := newTestClient(f)
	_, err := c.Embed(context.Background(), "hello", TaskTypeQuery)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	require.Contains(t, err.Error(), "all-zero")
}

func TestEmbedBatchSplitsAndPreservesOrder(t *testing.T) {
	f := &fakeEmbedder{dims: 4, makeVector: func(input string) []float32 {
		n, _ := strconv.Atoi(input[len("item"):])
		return []float32{float32(n), 1, 1, 1}
	}}
	c := NewClient(f, Config{Dimensions: 4, BatchSize: 100, MaxAttempts: 1, BaseDelay: time.Millisecond})

	texts := make([]string, 250)
	for i := range texts {
		texts[i] = "item" + strconv.Itoa(i)
	}
	vectors, err := c.EmbedBatch(context.Background(), texts, TaskTypeDocument)
	require.NoError(t, err)
	require.Len(t, vectors, 250)
	require.Equal(t, []int{100, 100, 50}, f.batchSizes)
	for i, vec := range vectors {
		require.Equal(t, float32(i), vec[0], "vector %d out of order", i)
	}
}

func TestEmbedBatchRejectsEmptyItem(t *testing.T) {
	f := &fakeEmbedder{dims: 4}
	c := newTestClient(f)
	_, err := c.EmbedBatch(context.Background(), []string{"ok", " "}, TaskTypeDocument)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	require.Equal(t, 0, f.calls)
}

func TestEmbedBatchEmptyListIsNoop(t *testing.T) {
	f := &fakeEmbedder{dims: 4}
	c := newTestClient(f)
	vectors, err := c.EmbedBatch(context.Background(), nil, TaskTypeDocument)
	require.NoError(t, err)
	require.Nil(t, vectors)
	require.Equal(t, 0, f.calls)
}
