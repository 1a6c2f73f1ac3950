package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const stepsSchema = `
CREATE TABLE IF NOT EXISTS workflow_steps (
    id BIGSERIAL PRIMARY KEY,
    workflow_id TEXT NOT NULL,
    step_name TEXT NOT NULL,
    step_data JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_workflow_steps_workflow ON workflow_steps (workflow_id, id);
`

// PostgresRecorder persists steps in a workflow_steps table.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder connects to databaseURL and ensures the schema exists.
func NewPostgresRecorder(ctx context.Context, databaseURL string) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("workflow: connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, stepsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("workflow: ensure schema: %w", err)
	}
	return &PostgresRecorder{pool: pool}, nil
}

func (r *PostgresRecorder) Record(ctx context.Context, step Step) error {
	data, err := json.Marshal(step.Data)
	if err != nil {
		return fmt.Errorf("workflow: encode step data: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		"INSERT INTO workflow_steps (workflow_id, step_name, step_data) VALUES ($1, $2, $3)",
		step.WorkflowID, step.Name, data)
	if err != nil {
		return fmt.Errorf("workflow: record step: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) Steps(ctx context.Context, workflowID string) ([]Step, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT step_name, step_data FROM workflow_steps WHERE workflow_id = $1 ORDER BY id",
		workflowID)
	if err != nil {
		return nil, fmt.Errorf("workflow: load steps: %w", err)
	}
	defer rows.Close()

	var out []Step
	for rows.Next() {
		var name string
		var raw []byte
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("workflow: scan step: %w", err)
		}
		var data map[string]interface{}
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("workflow: decode step data: %w", err)
		}
		out = append(out, Step{WorkflowID: workflowID, Name: name, Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("workflow: iterate steps: %w", err)
	}
	return out, nil
}

// Close releases the connection pool.
func (r *PostgresRecorder) Close() {
	r.pool.Close()
}
