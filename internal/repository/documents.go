package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gemtrack/bid-tracker/internal/common"
)

// BidDocument is one persisted bid record. Rows are append-only; the only
// post-creation mutation is the embedding backfill.
type BidDocument struct {
	ID         uuid.UUID
	SourceFile string
	BidNumber  string
	Dated      *time.Time
	Fields     json.RawMessage
	RawText    string
	Embedding  []float32
	CreatedAt  time.Time
}

// BidDocumentRepository is the duplicate registry and persistence
// collaborator for the extraction pipeline.
type BidDocumentRepository interface {
	ExistsBySourceFile(ctx context.Context, sourceFile string) (bool, error)
	Create(ctx context.Context, doc *BidDocument) error
	GetBySourceFile(ctx context.Context, sourceFile string) (*BidDocument, error)
	ListAll(ctx context.Context) ([]*BidDocument, error)
	ListMissingEmbedding(ctx context.Context) ([]*BidDocument, error)
	SetEmbedding(ctx context.Context, id uuid.UUID, vec []float32) error
	Count(ctx context.Context) (int, error)
}

type bidDocumentRepo struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewBidDocumentRepository(db *sqlx.DB, logger *slog.Logger) BidDocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &bidDocumentRepo{db: db, logger: logger}
}

func (r *bidDocumentRepo) ExistsBySourceFile(ctx context.Context, sourceFile string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM bid_documents WHERE source_file = $1`, sourceFile).Scan(&n)
	if err != nil {
		r.logger.Error("failed to check duplicate registry", "source_file", sourceFile, "error", err)
		return false, err
	}
	return n > 0, nil
}

func (r *bidDocumentRepo) Create(ctx context.Context, doc *BidDocument) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	var dated any
	if doc.Dated != nil {
		dated = doc.Dated.Format("2006-01-02")
	}
	embedding, err := encodeVector(doc.Embedding)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO bid_documents (id, source_file, bid_number, dated, fields, raw_text, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		doc.ID.String(),
		doc.SourceFile,
		doc.BidNumber,
		dated,
		string(doc.Fields),
		doc.RawText,
		embedding,
		doc.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create bid document", "source_file", doc.SourceFile, "error", err)
		return err
	}
	return nil
}

const selectColumns = `id, source_file, bid_number, dated, fields, raw_text, embedding, created_at`

func (r *bidDocumentRepo) GetBySourceFile(ctx context.Context, sourceFile string) (*BidDocument, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM bid_documents WHERE source_file = $1`, sourceFile)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get bid document", "source_file", sourceFile, "error", err)
		return nil, err
	}
	return doc, nil
}

func (r *bidDocumentRepo) ListAll(ctx context.Context) ([]*BidDocument, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM bid_documents ORDER BY created_at, source_file`)
}

func (r *bidDocumentRepo) ListMissingEmbedding(ctx context.Context) ([]*BidDocument, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM bid_documents WHERE embedding IS NULL ORDER BY created_at, source_file`)
}

func (r *bidDocumentRepo) list(ctx context.Context, query string) ([]*BidDocument, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list bid documents", "error", err)
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			r.logger.Warn("failed to close rows", "error", cerr)
		}
	}()

	var docs []*BidDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *bidDocumentRepo) SetEmbedding(ctx context.Context, id uuid.UUID, vec []float32) error {
	embedding, err := encodeVector(vec)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE bid_documents SET embedding = $1 WHERE id = $2`, embedding, id.String())
	if err != nil {
		r.logger.Error("failed to set embedding", "id", id, "error", err)
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("bid document %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (r *bidDocumentRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM bid_documents`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*BidDocument, error) {
	var (
		doc       BidDocument
		id        string
		dated     sql.NullString
		fields    string
		embedding sql.NullString
	)
	err := row.Scan(&id, &doc.SourceFile, &doc.BidNumber, &dated, &fields, &doc.RawText, &embedding, &doc.CreatedAt)
	if err != nil {
		return nil, err
	}
	if doc.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse document id: %w", err)
	}
	if dated.Valid && dated.String != "" {
		if t, perr := time.Parse("2006-01-02", dated.String); perr == nil {
			doc.Dated = &t
		}
	}
	doc.Fields = json.RawMessage(fields)
	if embedding.Valid && embedding.String != "" {
		if err := json.Unmarshal([]byte(embedding.String), &doc.Embedding); err != nil {
			return nil, fmt.Errorf("decode embedding: %w", err)
		}
	}
	return &doc, nil
}

// encodeVector serializes an embedding for storage; nil vectors store as
// SQL NULL so the backfill query can find them.
func encodeVector(vec []float32) (any, error) {
	if vec == nil {
		return nil, nil
	}
	b, err := json.Marshal(vec)
	if err != nil {
		return nil, fmt.Errorf("encode embedding: %w", err)
	}
	return string(b), nil
}
