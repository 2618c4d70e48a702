package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/orientis/orientis/internal/domain"
)

// ConversationRepo persists chat conversations and their messages.
type ConversationRepo struct{ Pool PgxPool }

// NewConversationRepo constructs a ConversationRepo with the given pool.
func NewConversationRepo(p PgxPool) *ConversationRepo { return &ConversationRepo{Pool: p} }

// Create stores a new conversation and returns its id (generates one if empty).
func (r *ConversationRepo) Create(ctx domain.Context, c domain.Conversation) (string, error) {
	tracer := otel.Tracer("repo.conversations")
	ctx, span := tracer.Start(ctx, "conversations.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "conversations"),
	)
	id := c.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO conversations (id, user_id, title, created_at) VALUES ($1,$2,$3,$4)`
	_, err := r.Pool.Exec(ctx, q, id, c.UserID, c.Title, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=conversation.create: %w", err)
	}
	return id, nil
}

// Get loads one conversation owned by the user or returns domain.ErrNotFound.
func (r *ConversationRepo) Get(ctx domain.Context, id, userID string) (domain.Conversation, error) {
	tracer := otel.Tracer("repo.conversations")
	ctx, span := tracer.Start(ctx, "conversations.Get")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "conversations"),
	)
	q := `SELECT id, user_id, title, created_at FROM conversations WHERE id=$1 AND user_id=$2`
	var c domain.Conversation
	err := r.Pool.QueryRow(ctx, q, id, userID).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Conversation{}, fmt.Errorf("op=conversation.get: %w", domain.ErrNotFound)
		}
		return domain.Conversation{}, fmt.Errorf("op=conversation.get: %w", err)
	}
	return c, nil
}

// ListByUser returns the user's conversations, newest first.
func (r *ConversationRepo) ListByUser(ctx domain.Context, userID string) ([]domain.Conversation, error) {
	tracer := otel.Tracer("repo.conversations")
	ctx, span := tracer.Start(ctx, "conversations.ListByUser")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "conversations"),
	)
	q := `SELECT id, user_id, title, created_at FROM conversations WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("op=conversation.list: %w", err)
	}
	defer rows.Close()
	var out []domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=conversation.list: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=conversation.list: %w", err)
	}
	return out, nil
}

// AppendMessage stores one chat turn and returns its id.
func (r *ConversationRepo) AppendMessage(ctx domain.Context, m domain.Message) (string, error) {
	tracer := otel.Tracer("repo.conversations")
	ctx, span := tracer.Start(ctx, "conversations.AppendMessage")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "messages"),
	)
	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO messages (id, conversation_id, role, content, created_at) VALUES ($1,$2,$3,$4,$5)`
	_, err := r.Pool.Exec(ctx, q, id, m.ConversationID, m.Role, m.Content, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=message.append: %w", err)
	}
	return id, nil
}

// ListMessages returns a conversation's messages in chronological order.
func (r *ConversationRepo) ListMessages(ctx domain.Context, conversationID string) ([]domain.Message, error) {
	tracer := otel.Tracer("repo.conversations")
	ctx, span := tracer.Start(ctx, "conversations.ListMessages")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "messages"),
	)
	q := `SELECT id, conversation_id, role, content, created_at FROM messages WHERE conversation_id=$1 ORDER BY created_at ASC`
	rows, err := r.Pool.Query(ctx, q, conversationID)
	if err != nil {
		return nil, fmt.Errorf("op=message.list: %w", err)
	}
	defer rows.Close()
	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=message.list: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=message.list: %w", err)
	}
	return out, nil
}
