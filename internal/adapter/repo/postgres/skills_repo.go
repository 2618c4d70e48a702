package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/orientis/orientis/internal/domain"
)

// SkillRepo persists per-user skill rows denormalized from analyses.
type SkillRepo struct{ Pool PgxPool }

// NewSkillRepo constructs a SkillRepo with the given pool.
func NewSkillRepo(p PgxPool) *SkillRepo { return &SkillRepo{Pool: p} }

// ReplaceForDocument deletes any rows for the document and inserts the
// given skills. Each upload owns its rows, so a re-analysis replaces them.
func (r *SkillRepo) ReplaceForDocument(ctx domain.Context, userID, documentID string, skills []domain.Skill) error {
	tracer := otel.Tracer("repo.skills")
	ctx, span := tracer.Start(ctx, "skills.ReplaceForDocument")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "skills"),
	)
	if _, err := r.Pool.Exec(ctx, `DELETE FROM skills WHERE document_id=$1`, documentID); err != nil {
		return fmt.Errorf("op=skill.replace: %w", err)
	}
	now := time.Now().UTC()
	q := `INSERT INTO skills (id, user_id, document_id, name, category, level, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`
	for _, s := range skills {
		if _, err := r.Pool.Exec(ctx, q, uuid.New().String(), userID, documentID, s.Name, s.Category, s.Level, now); err != nil {
			return fmt.Errorf("op=skill.replace: %w", err)
		}
	}
	return nil
}

// ListByUser returns the user's skill rows, newest first.
func (r *SkillRepo) ListByUser(ctx domain.Context, userID string) ([]domain.SkillRecord, error) {
	tracer := otel.Tracer("repo.skills")
	ctx, span := tracer.Start(ctx, "skills.ListByUser")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "skills"),
	)
	q := `SELECT id, user_id, document_id, name, category, level, created_at FROM skills WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("op=skill.list: %w", err)
	}
	defer rows.Close()
	var out []domain.SkillRecord
	for rows.Next() {
		var rec domain.SkillRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.DocumentID, &rec.Name, &rec.Category, &rec.Level, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=skill.list: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=skill.list: %w", err)
	}
	return out, nil
}
