package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrenlabs/docbase/internal/chunker"
	"github.com/wrenlabs/docbase/internal/model"
	appErr "github.com/wrenlabs/docbase/internal/pkg/errors"
)

type memDocStore struct {
	docs map[string]*model.Document
}

func newMemDocStore() *memDocStore {
	return &memDocStore{docs: map[string]*model.Document{}}
}

func (m *memDocStore) Create(_ context.Context, doc *model.Document) error {
	if _, ok := m.docs[doc.ID]; ok {
		return appErr.ErrConflict
	}
	cp := *doc
	m.docs[doc.ID] = &cp
	return nil
}

func (m *memDocStore) Get(_ context.Context, ownerID string, id string) (*model.Document, error) {
	doc, ok := m.docs[id]
	if !ok || doc.OwnerID != ownerID {
		return nil, appErr.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (m *memDocStore) List(_ context.Context, ownerID string, _ uint, _ uint) ([]*model.Document, error) {
	var out []*model.Document
	for _, doc := range m.docs {
		if doc.OwnerID == ownerID {
			cp := *doc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memDocStore) Count(_ context.Context, ownerID string) (int64, error) {
	var total int64
	for _, doc := range m.docs {
		if doc.OwnerID == ownerID {
			total++
		}
	}
	return total, nil
}

func (m *memDocStore) UpdateContent(_ context.Context, ownerID string, id string, title string, content string, mtime int64) error {
	doc, ok := m.docs[id]
	if !ok || doc.OwnerID != ownerID {
		return appErr.ErrNotFound
	}
	doc.Title = title
	doc.Content = content
	doc.Mtime = mtime
	return nil
}

func (m *memDocStore) Delete(_ context.Context, ownerID string, id string) (*model.Document, error) {
	doc, ok := m.docs[id]
	if !ok || doc.OwnerID != ownerID {
		return nil, appErr.ErrNotFound
	}
	delete(m.docs, id)
	return doc, nil
}

type memChunkStore struct {
	byDoc    map[string][]*model.Chunk
	replaces int
}

func newMemChunkStore() *memChunkStore {
	return &memChunkStore{byDoc: map[string][]*model.Chunk{}}
}

func (m *memChunkStore) ReplaceForDocument(_ context.Context, documentID string, chunks []*model.Chunk) error {
	m.byDoc[documentID] = chunks
	m.replaces++
	return nil
}

func (m *memChunkStore) DeleteByDocument(_ context.Context, documentID string) error {
	delete(m.byDoc, documentID)
	return nil
}

func (m *memChunkStore) CountByDocument(_ context.Context, documentID string) (int64, error) {
	return int64(len(m.byDoc[documentID])), nil
}

type stubBatchEmbedder struct {
	calls int
	fail  bool
}

func (s *stubBatchEmbedder) EmbedBatch(_ context.Context, texts []string, _ string) ([][]float32, error) {
	s.calls++
	if s.fail {
		return nil, fmt.Errorf("backend down")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i) + 1, 0.5}
	}
	return out, nil
}

type wordCounter struct{}

func (wordCounter) CountTokens(text string) int {
	return len(strings.Fields(text))
}

func newTestIngest(t *testing.T) (*IngestService, *memDocStore, *memChunkStore, *stubBatchEmbedder) {
	t.Helper()
	docs := newMemDocStore()
	chunks := newMemChunkStore()
	emb := &stubBatchEmbedder{}
	splitter := chunker.New(wordCounter{}, chunker.Options{ChunkSize: 20, Overlap: 4, MinChunkSize: 2})
	svc := NewIngestService(docs, chunks, splitter, emb, nil, nil, IngestOptions{})
	return svc, docs, chunks, emb
}

func buildWords(n int) string {
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		parts = append(parts, fmt.Sprintf("word%03d", i))
	}
	return strings.Join(parts, " ")
}

func TestIngestCreateFromText(t *testing.T) {
	svc, docs, chunks, emb := newTestIngest(t)
	ctx := context.Background()

	doc, count, err := svc.CreateFromText(ctx, "owner1", "notes", buildWords(60))
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Greater(t, count, 1)
	assert.Equal(t, 1, emb.calls)

	stored, err := docs.Get(ctx, "owner1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "notes", stored.Title)

	recs := chunks.byDoc[doc.ID]
	require.Len(t, recs, count)
	for i, rec := range recs {
		assert.Equal(t, i, rec.ChunkIndex)
		assert.Equal(t, count, rec.TotalChunks)
		assert.Equal(t, doc.ID, rec.DocumentID)
		assert.Equal(t, "owner1", rec.OwnerID)
		assert.NotEmpty(t, rec.Embedding)
	}
}

func TestIngestRejectsEmptyContent(t *testing.T) {
	svc, _, _, emb := newTestIngest(t)

	_, _, err := svc.CreateFromText(context.Background(), "owner1", "empty", "   \n\t  ")
	require.ErrorIs(t, err, appErr.ErrEmptyDocument)
	assert.Equal(t, 0, emb.calls)
}

func TestIngestRejectsMissingTitle(t *testing.T) {
	svc, _, _, _ := newTestIngest(t)

	_, _, err := svc.CreateFromText(context.Background(), "owner1", "  ", "some content")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestIngestEmbedFailureKeepsOldChunks(t *testing.T) {
	svc, _, chunks, emb := newTestIngest(t)
	ctx := context.Background()

	doc, count, err := svc.CreateFromText(ctx, "owner1", "doc", buildWords(60))
	require.NoError(t, err)
	require.Greater(t, count, 0)
	before := len(chunks.byDoc[doc.ID])

	emb.fail = true
	_, err = svc.Reindex(ctx, "owner1", doc.ID)
	require.Error(t, err)
	assert.Len(t, chunks.byDoc[doc.ID], before)
}

func TestIngestReindexIsIdempotent(t *testing.T) {
	svc, _, chunks, _ := newTestIngest(t)
	ctx := context.Background()

	doc, count, err := svc.CreateFromText(ctx, "owner1", "doc", buildWords(60))
	require.NoError(t, err)

	again, err := svc.Reindex(ctx, "owner1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, count, again)
	assert.Len(t, chunks.byDoc[doc.ID], count)
	assert.Equal(t, 2, chunks.replaces)
}

func TestIngestUpdateRechunks(t *testing.T) {
	svc, docs, chunks, _ := newTestIngest(t)
	ctx := context.Background()

	doc, _, err := svc.CreateFromText(ctx, "owner1", "doc", buildWords(30))
	require.NoError(t, err)

	updated, count, err := svc.Update(ctx, "owner1", doc.ID, "doc v2", buildWords(80))
	require.NoError(t, err)
	assert.Equal(t, "doc v2", updated.Title)
	assert.Len(t, chunks.byDoc[doc.ID], count)

	stored, err := docs.Get(ctx, "owner1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "doc v2", stored.Title)
}

func TestIngestDeleteRemovesChunks(t *testing.T) {
	svc, docs, chunks, _ := newTestIngest(t)
	ctx := context.Background()

	doc, _, err := svc.CreateFromText(ctx, "owner1", "doc", buildWords(60))
	require.NoError(t, err)
	require.NotEmpty(t, chunks.byDoc[doc.ID])

	require.NoError(t, svc.Delete(ctx, "owner1", doc.ID))
	assert.Empty(t, chunks.byDoc[doc.ID])
	_, err = docs.Get(ctx, "owner1", doc.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestIngestOwnerIsolation(t *testing.T) {
	svc, _, _, _ := newTestIngest(t)
	ctx := context.Background()

	doc, _, err := svc.CreateFromText(ctx, "owner1", "doc", buildWords(30))
	require.NoError(t, err)

	_, err = svc.Get(ctx, "owner2", doc.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	_, err = svc.Reindex(ctx, "owner2", doc.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	err = svc.Delete(ctx, "owner2", doc.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}
