package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/orientis/orientis/internal/domain"
)

// DocumentRepo persists CV documents together with their analysis. The
// analysis travels as JSONB in the analysis_data column.
type DocumentRepo struct{ Pool PgxPool }

// NewDocumentRepo constructs a DocumentRepo with the given pool.
func NewDocumentRepo(p PgxPool) *DocumentRepo { return &DocumentRepo{Pool: p} }

// Create stores a new document and returns its id (generates one if empty).
func (r *DocumentRepo) Create(ctx domain.Context, d domain.Document) (string, error) {
	tracer := otel.Tracer("repo.documents")
	ctx, span := tracer.Start(ctx, "documents.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "documents"),
	)
	id := d.ID
	if id == "" {
		id = uuid.New().String()
	}
	analysisData, err := json.Marshal(d.Analysis)
	if err != nil {
		return "", fmt.Errorf("op=document.create: marshal analysis: %w", err)
	}
	q := `INSERT INTO documents (id, user_id, filename, file_type, file_size, analysis_data, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err = r.Pool.Exec(ctx, q, id, d.UserID, d.Filename, d.FileType, d.FileSize, analysisData, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=document.create: %w", err)
	}
	return id, nil
}

// Get loads one document owned by the user or returns domain.ErrNotFound.
func (r *DocumentRepo) Get(ctx domain.Context, id, userID string) (domain.Document, error) {
	tracer := otel.Tracer("repo.documents")
	ctx, span := tracer.Start(ctx, "documents.Get")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "documents"),
	)
	q := `SELECT id, user_id, filename, file_type, file_size, analysis_data, created_at FROM documents WHERE id=$1 AND user_id=$2`
	return scanDocument(r.Pool.QueryRow(ctx, q, id, userID), "document.get")
}

// ListByUser returns the user's documents, newest first.
func (r *DocumentRepo) ListByUser(ctx domain.Context, userID string) ([]domain.Document, error) {
	tracer := otel.Tracer("repo.documents")
	ctx, span := tracer.Start(ctx, "documents.ListByUser")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "documents"),
	)
	q := `SELECT id, user_id, filename, file_type, file_size, analysis_data, created_at FROM documents WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("op=document.list: %w", err)
	}
	defer rows.Close()
	var out []domain.Document
	for rows.Next() {
		d, err := scanDocument(rows, "document.list")
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=document.list: %w", err)
	}
	return out, nil
}

// Delete removes one document owned by the user.
func (r *DocumentRepo) Delete(ctx domain.Context, id, userID string) error {
	tracer := otel.Tracer("repo.documents")
	ctx, span := tracer.Start(ctx, "documents.Delete")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.sql.table", "documents"),
	)
	q := `DELETE FROM documents WHERE id=$1 AND user_id=$2`
	tag, err := r.Pool.Exec(ctx, q, id, userID)
	if err != nil {
		return fmt.Errorf("op=document.delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=document.delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanDocument(row pgx.Row, op string) (domain.Document, error) {
	var (
		d            domain.Document
		analysisData []byte
	)
	err := row.Scan(&d.ID, &d.UserID, &d.Filename, &d.FileType, &d.FileSize, &analysisData, &d.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Document{}, fmt.Errorf("op=%s: %w", op, domain.ErrNotFound)
		}
		return domain.Document{}, fmt.Errorf("op=%s: %w", op, err)
	}
	if len(analysisData) > 0 {
		if err := json.Unmarshal(analysisData, &d.Analysis); err != nil {
			return domain.Document{}, fmt.Errorf("op=%s: unmarshal analysis: %w", op, err)
		}
	}
	return d, nil
}
