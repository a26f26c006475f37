package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/wrenlabs/docbase/internal/chunker"
	"github.com/wrenlabs/docbase/internal/embedding"
	"github.com/wrenlabs/docbase/internal/extract"
	"github.com/wrenlabs/docbase/internal/filestore"
	"github.com/wrenlabs/docbase/internal/model"
	appErr "github.com/wrenlabs/docbase/internal/pkg/errors"
)

type documentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	Get(ctx context.Context, ownerID string, id string) (*model.Document, error)
	List(ctx context.Context, ownerID string, offset uint, limit uint) ([]*model.Document, error)
	Count(ctx context.Context, ownerID string) (int64, error)
	UpdateContent(ctx context.Context, ownerID string, id string, title string, content string, mtime int64) error
	Delete(ctx context.Context, ownerID string, id string) (*model.Document, error)
}

type chunkWriter interface {
	ReplaceForDocument(ctx context.Context, documentID string, chunks []*model.Chunk) error
	DeleteByDocument(ctx context.Context, documentID string) error
	CountByDocument(ctx context.Context, documentID string) (int64, error)
}

type batchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
}

type IngestOptions struct {
	MaxUploadBytes int64
	MinChunkTokens int
}

// IngestService owns the document write path: create or update the record,
// split the text into chunks, embed them, and swap the stored chunk set.
type IngestService struct {
	docs      documentStore
	chunks    chunkWriter
	splitter  *chunker.Chunker
	embedder  batchEmbedder
	extractor *extract.Registry
	files     filestore.Store
	opts      IngestOptions
}

func NewIngestService(docs documentStore, chunks chunkWriter, splitter *chunker.Chunker,
	embedder batchEmbedder, extractor *extract.Registry, files filestore.Store, opts IngestOptions) *IngestService {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &IngestService{
		docs:      docs,
		chunks:    chunks,
		splitter:  splitter,
		embedder:  embedder,
		extractor: extractor,
		files:     files,
		opts:      opts,
	}
}

func (s *IngestService) CreateFromText(ctx context.Context, ownerID string, title string, content string) (*model.Document, int, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, 0, fmt.Errorf("title is required: %w", appErr.ErrInvalid)
	}
	content = extract.Clean(content)
	if content == "" {
		return nil, 0, appErr.ErrEmptyDocument
	}
	now := time.Now().Unix()
	doc := &model.Document{
		ID:      newID(),
		OwnerID: ownerID,
		Title:   title,
		Content: content,
		Size:    int64(len(content)),
		Ctime:   now,
		Mtime:   now,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, 0, err
	}
	count, err := s.indexDocument(ctx, doc)
	if err != nil {
		return nil, 0, err
	}
	return doc, count, nil
}

func (s *IngestService) CreateFromUpload(ctx context.Context, ownerID string, title string,
	mimeType string, r io.Reader, size int64) (*model.Document, int, error) {
	if size > s.opts.MaxUploadBytes {
		return nil, 0, fmt.Errorf("upload is %d bytes, limit %d: %w", size, s.opts.MaxUploadBytes, appErr.ErrFileTooLarge)
	}
	data, err := io.ReadAll(io.LimitReader(r, s.opts.MaxUploadBytes+1))
	if err != nil {
		return nil, 0, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.opts.MaxUploadBytes {
		return nil, 0, appErr.ErrFileTooLarge
	}
	res, err := s.extractor.Extract(ctx, data, mimeType)
	if err != nil {
		return nil, 0, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, 0, fmt.Errorf("title is required: %w", appErr.ErrInvalid)
	}
	now := time.Now().Unix()
	doc := &model.Document{
		ID:       newID(),
		OwnerID:  ownerID,
		Title:    title,
		Content:  res.Text,
		MimeType: mimeType,
		Size:     int64(len(data)),
		Ctime:    now,
		Mtime:    now,
	}
	if s.files != nil {
		key := doc.ID + ".raw"
		if err := s.files.Save(ctx, key, bytes.NewReader(data), int64(len(data))); err != nil {
			return nil, 0, fmt.Errorf("save upload: %w", err)
		}
		doc.SourceKey = key
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, 0, err
	}
	count, err := s.indexDocument(ctx, doc)
	if err != nil {
		return nil, 0, err
	}
	return doc, count, nil
}

func (s *IngestService) Update(ctx context.Context, ownerID string, id string, title string, content string) (*model.Document, int, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, 0, fmt.Errorf("title is required: %w", appErr.ErrInvalid)
	}
	content = extract.Clean(content)
	if content == "" {
		return nil, 0, appErr.ErrEmptyDocument
	}
	now := time.Now().Unix()
	if err := s.docs.UpdateContent(ctx, ownerID, id, title, content, now); err != nil {
		return nil, 0, err
	}
	doc, err := s.docs.Get(ctx, ownerID, id)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.indexDocument(ctx, doc)
	if err != nil {
		return nil, 0, err
	}
	return doc, count, nil
}

func (s *IngestService) Get(ctx context.Context, ownerID string, id string) (*model.Document, error) {
	return s.docs.Get(ctx, ownerID, id)
}

func (s *IngestService) List(ctx context.Context, ownerID string, offset uint, limit uint) ([]*model.Document, int64, error) {
	if limit == 0 || limit > 100 {
		limit = 20
	}
	docs, err := s.docs.List(ctx, ownerID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.docs.Count(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func (s *IngestService) Delete(ctx context.Context, ownerID string, id string) error {
	doc, err := s.docs.Delete(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.chunks.DeleteByDocument(ctx, id); err != nil {
		return fmt.Errorf("delete chunks for document %s: %w", id, err)
	}
	if doc.SourceKey != "" && s.files != nil {
		if err := s.files.Delete(ctx, doc.SourceKey); err != nil {
			logutil.GetLogger(ctx).Warn("failed to delete stored file",
				zap.String("document_id", id), zap.Error(err))
		}
	}
	return nil
}

// Reindex rebuilds the chunk set of one document from its stored content.
func (s *IngestService) Reindex(ctx context.Context, ownerID string, id string) (int, error) {
	doc, err := s.docs.Get(ctx, ownerID, id)
	if err != nil {
		return 0, err
	}
	return s.indexDocument(ctx, doc)
}

// ReindexDocument is the job-facing variant that already holds the document.
func (s *IngestService) ReindexDocument(ctx context.Context, doc *model.Document) (int, error) {
	return s.indexDocument(ctx, doc)
}

func (s *IngestService) ChunkCount(ctx context.Context, ownerID string, id string) (int64, error) {
	if _, err := s.docs.Get(ctx, ownerID, id); err != nil {
		return 0, err
	}
	return s.chunks.CountByDocument(ctx, id)
}

// indexDocument runs the split-embed-store pipeline. The chunk swap is
// all-or-nothing: an embedding failure leaves the previous chunk set intact.
func (s *IngestService) indexDocument(ctx context.Context, doc *model.Document) (int, error) {
	pieces, err := s.splitter.ChunkText(doc.Content)
	if err != nil {
		return 0, err
	}
	if s.opts.MinChunkTokens > 0 {
		pieces = s.splitter.CombineSmallChunks(doc.Content, pieces, s.opts.MinChunkTokens)
	}
	texts := make([]string, 0, len(pieces))
	for _, p := range pieces {
		texts = append(texts, p.Content)
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts, embedding.TaskTypeDocument)
	if err != nil {
		return 0, fmt.Errorf("index document %s: %w", doc.ID, err)
	}
	if len(vectors) != len(pieces) {
		return 0, fmt.Errorf("index document %s: got %d vectors for %d chunks", doc.ID, len(vectors), len(pieces))
	}
	now := time.Now().Unix()
	records := make([]*model.Chunk, 0, len(pieces))
	for i, p := range pieces {
		records = append(records, &model.Chunk{
			ID:          newID(),
			DocumentID:  doc.ID,
			OwnerID:     doc.OwnerID,
			Content:     p.Content,
			ChunkIndex:  p.Index,
			TotalChunks: p.TotalChunks,
			StartOffset: p.StartOffset,
			EndOffset:   p.EndOffset,
			TokenCount:  p.TokenCount,
			Embedding:   vectors[i],
			Ctime:       now,
		})
	}
	if err := s.chunks.ReplaceForDocument(ctx, doc.ID, records); err != nil {
		return 0, fmt.Errorf("store chunks for document %s: %w", doc.ID, err)
	}
	logutil.GetLogger(ctx).Info("document indexed",
		zap.String("document_id", doc.ID), zap.Int("chunks", len(records)))
	return len(records), nil
}
