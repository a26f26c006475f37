package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"

	appErr "github.com/wrenlabs/docbase/internal/pkg/errors"

	"github.com/wrenlabs/docbase/internal/model"
	"github.com/wrenlabs/docbase/internal/pkg/dbutil"
)

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

var documentFields = []string{
	"id", "owner_id", "title", "content", "source_key", "mime_type", "size", "ctime", "mtime",
}

func scanDocument(row interface{ Scan(...interface{}) error }) (*model.Document, error) {
	doc := &model.Document{}
	err := row.Scan(&doc.ID, &doc.OwnerID, &doc.Title, &doc.Content, &doc.SourceKey,
		&doc.MimeType, &doc.Size, &doc.Ctime, &doc.Mtime)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	data := []map[string]interface{}{{
		"id":         doc.ID,
		"owner_id":   doc.OwnerID,
		"title":      doc.Title,
		"content":    doc.Content,
		"source_key": doc.SourceKey,
		"mime_type":  doc.MimeType,
		"size":       doc.Size,
		"ctime":      doc.Ctime,
		"mtime":      doc.Mtime,
	}}
	query, args, err := builder.BuildInsert("documents", data)
	if err != nil {
		return err
	}
	query, args = dbutil.Finalize(query, args)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *DocumentRepo) Get(ctx context.Context, ownerID string, id string) (*model.Document, error) {
	where := map[string]interface{}{"id": id, "owner_id": ownerID}
	query, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	query, args = dbutil.Finalize(query, args)
	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *DocumentRepo) List(ctx context.Context, ownerID string, offset uint, limit uint) ([]*model.Document, error) {
	where := map[string]interface{}{
		"owner_id": ownerID,
		"_orderby": "mtime desc",
		"_limit":   []uint{offset, limit},
	}
	query, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	query, args = dbutil.Finalize(query, args)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []*model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepo) Count(ctx context.Context, ownerID string) (int64, error) {
	where := map[string]interface{}{"owner_id": ownerID}
	query, args, err := builder.BuildSelect("documents", where, []string{"count(1)"})
	if err != nil {
		return 0, err
	}
	query, args = dbutil.Finalize(query, args)
	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *DocumentRepo) UpdateContent(ctx context.Context, ownerID string, id string, title string, content string, mtime int64) error {
	where := map[string]interface{}{"id": id, "owner_id": ownerID}
	update := map[string]interface{}{"title": title, "content": content, "mtime": mtime}
	query, args, err := builder.BuildUpdate("documents", where, update)
	if err != nil {
		return err
	}
	query, args = dbutil.Finalize(query, args)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *DocumentRepo) TouchMtime(ctx context.Context, id string, mtime int64) error {
	where := map[string]interface{}{"id": id}
	update := map[string]interface{}{"mtime": mtime}
	query, args, err := builder.BuildUpdate("documents", where, update)
	if err != nil {
		return err
	}
	query, args = dbutil.Finalize(query, args)
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *DocumentRepo) Delete(ctx context.Context, ownerID string, id string) (*model.Document, error) {
	doc, err := r.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	where := map[string]interface{}{"id": id, "owner_id": ownerID}
	query, args, err := builder.BuildDelete("documents", where)
	if err != nil {
		return nil, err
	}
	query, args = dbutil.Finalize(query, args)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}
	return doc, nil
}

// ListStale returns documents whose content changed after their chunks were
// written, or which have no chunks at all.
func (r *DocumentRepo) ListStale(ctx context.Context, limit int) ([]*model.Document, error) {
	query := fmt.Sprintf(`
SELECT d.id, d.owner_id, d.title, d.content, d.source_key, d.mime_type, d.size, d.ctime, d.mtime
FROM documents d
LEFT JOIN (
    SELECT document_id, MIN(ctime) AS indexed_at FROM chunks GROUP BY document_id
) c ON c.document_id = d.id
WHERE c.document_id IS NULL OR d.mtime > c.indexed_at
ORDER BY d.mtime ASC
LIMIT %d`, limit)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []*model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
