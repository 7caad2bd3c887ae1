package usage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultTable = "llm_usage"

type pgRepository struct {
	pool       *pgxpool.Pool
	tableIdent string
}

// NewPGRepository connects to postgres and ensures the usage table exists.
func NewPGRepository(ctx context.Context, dsn, table string) (Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("usage: failed to connect to postgres: %w", err)
	}
	repo, err := WrapPool(ctx, pool, table)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return repo, nil
}

// WrapPool builds a repository over an existing pool, ensuring the schema.
func WrapPool(ctx context.Context, pool *pgxpool.Pool, table string) (Repository, error) {
	if table == "" {
		table = defaultTable
	}
	repo := &pgRepository{
		pool:       pool,
		tableIdent: pgx.Identifier{table}.Sanitize(),
	}
	if err := repo.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *pgRepository) ensureSchema(ctx context.Context) error {
	createTable := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id UUID PRIMARY KEY,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		prompt_tokens INTEGER NOT NULL DEFAULT 0,
		completion_tokens INTEGER NOT NULL DEFAULT 0,
		total_tokens INTEGER NOT NULL DEFAULT 0,
		cost DOUBLE PRECISION NOT NULL DEFAULT 0,
		estimated BOOLEAN NOT NULL DEFAULT FALSE,
		project_id TEXT,
		conversation_id TEXT,
		workflow_type TEXT,
		workflow_stage TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`, r.tableIdent)
	if _, err := r.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("usage: create table: %w", err)
	}
	return nil
}

func (r *pgRepository) Insert(ctx context.Context, record *Record) error {
	if record == nil {
		return errors.New("usage: record is required")
	}
	stmt := fmt.Sprintf(`INSERT INTO %s
(id, provider, model, prompt_tokens, completion_tokens, total_tokens, cost, estimated,
 project_id, conversation_id, workflow_type, workflow_stage, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`, r.tableIdent)
	_, err := r.pool.Exec(ctx, stmt,
		record.ID,
		record.Provider,
		record.Model,
		record.PromptTokens,
		record.CompletionTokens,
		record.TotalTokens,
		record.Cost,
		record.Estimated,
		nullable(record.ProjectID),
		nullable(record.ConversationID),
		nullable(record.WorkflowType),
		nullable(record.WorkflowStage),
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("usage: insert record %s: %w", record.ID, err)
	}
	return nil
}

func (r *pgRepository) ListByProject(ctx context.Context, projectID string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}
	stmt := fmt.Sprintf(`SELECT id, provider, model, prompt_tokens, completion_tokens,
 total_tokens, cost, estimated, project_id, conversation_id, workflow_type, workflow_stage, created_at
FROM %s WHERE project_id = $1 ORDER BY created_at DESC LIMIT $2`, r.tableIdent)
	rows, err := r.pool.Query(ctx, stmt, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("usage: list by project: %w", err)
	}
	defer rows.Close()
	records := make([]*Record, 0, limit)
	for rows.Next() {
		var rec Record
		var projectID, conversationID, workflowType, workflowStage *string
		if err := rows.Scan(
			&rec.ID, &rec.Provider, &rec.Model,
			&rec.PromptTokens, &rec.CompletionTokens, &rec.TotalTokens,
			&rec.Cost, &rec.Estimated,
			&projectID, &conversationID, &workflowType, &workflowStage,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("usage: scan record: %w", err)
		}
		rec.ProjectID = deref(projectID)
		rec.ConversationID = deref(conversationID)
		rec.WorkflowType = deref(workflowType)
		rec.WorkflowStage = deref(workflowStage)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("usage: list rows: %w", err)
	}
	return records, nil
}

func (r *pgRepository) SummarizeByProject(ctx context.Context, projectID string) (*Summary, error) {
	stmt := fmt.Sprintf(`SELECT COUNT(*), COALESCE(SUM(prompt_tokens), 0),
 COALESCE(SUM(completion_tokens), 0), COALESCE(SUM(total_tokens), 0), COALESCE(SUM(cost), 0)
FROM %s WHERE project_id = $1`, r.tableIdent)
	var summary Summary
	err := r.pool.QueryRow(ctx, stmt, projectID).Scan(
		&summary.Calls,
		&summary.PromptTokens,
		&summary.CompletionTokens,
		&summary.TotalTokens,
		&summary.Cost,
	)
	if err != nil {
		return nil, fmt.Errorf("usage: summarize by project: %w", err)
	}
	if summary.Calls == 0 {
		return nil, ErrNotFound
	}
	return &summary, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
