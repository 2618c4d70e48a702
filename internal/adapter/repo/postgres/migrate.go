package postgres

import (
	"context"
	"fmt"
	"log/slog"
)

// schema is applied on startup. Statements are idempotent so the service
// can be restarted against an already provisioned database.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email VARCHAR(255) UNIQUE NOT NULL,
		password VARCHAR(255) NOT NULL,
		name VARCHAR(255),
		phone VARCHAR(50),
		location VARCHAR(255),
		bio TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID REFERENCES users(id) ON DELETE CASCADE,
		filename VARCHAR(255) NOT NULL,
		file_type VARCHAR(50),
		file_size BIGINT,
		analysis_data JSONB,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS skills (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID REFERENCES users(id) ON DELETE CASCADE,
		document_id UUID REFERENCES documents(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		category VARCHAR(100),
		level INTEGER CHECK (level >= 0 AND level <= 100),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID REFERENCES users(id) ON DELETE CASCADE,
		title VARCHAR(255),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		conversation_id UUID REFERENCES conversations(id) ON DELETE CASCADE,
		role VARCHAR(20) CHECK (role IN ('user', 'assistant')),
		content TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_user_created ON documents (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_skills_user ON skills (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id, created_at)`,
}

// Migrate applies the schema statements in order.
func Migrate(ctx context.Context, pool PgxPool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("op=postgres.Migrate: %w", err)
		}
	}
	slog.Info("database schema ensured", slog.Int("statements", len(schema)))
	return nil
}
