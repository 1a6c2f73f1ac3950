package memory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promptflow/internal/prompt"
)

const messagesSchema = `
CREATE TABLE IF NOT EXISTS messages (
    id BIGSERIAL PRIMARY KEY,
    conversation_id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id, id);
`

// PostgresStore persists history in a messages table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("memory: connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, messagesSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("memory: ensure schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Append(ctx context.Context, conversationID string, msg prompt.Message) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO messages (conversation_id, role, content) VALUES ($1, $2, $3)",
		conversationID, string(msg.Role), msg.Content)
	if err != nil {
		return fmt.Errorf("memory: append message: %w", err)
	}
	return nil
}

func (s *PostgresStore) History(ctx context.Context, conversationID string) ([]prompt.Message, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT role, content FROM messages WHERE conversation_id = $1 ORDER BY id",
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("memory: load history: %w", err)
	}
	defer rows.Close()

	var out []prompt.Message
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("memory: scan message: %w", err)
		}
		out = append(out, prompt.Message{Role: prompt.Role(role), Content: content})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("memory: iterate history: %w", err)
	}
	return out, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
