package vectordb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

const defaultTable = "knowledge_fragments"

type pgStore struct {
	pool       *pgxpool.Pool
	table      string
	tableIdent string
	dimension  int
}

// NewPGStore connects to postgres and ensures the fragment table exists.
func NewPGStore(ctx context.Context, cfg *Config) (Store, error) {
	if cfg == nil {
		return nil, errors.New("vectordb: config is required")
	}
	if cfg.Dimension <= 0 {
		return nil, errors.New("vectordb: dimension must be greater than zero")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("vectordb: failed to connect to postgres: %w", err)
	}
	table := cfg.Table
	if table == "" {
		table = defaultTable
	}
	store := &pgStore{
		pool:       pool,
		table:      table,
		tableIdent: pgx.Identifier{table}.Sanitize(),
		dimension:  cfg.Dimension,
	}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (p *pgStore) ensureSchema(ctx context.Context) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("pgvector: acquire connection: %w", err)
	}
	defer conn.Release()
	if _, err = conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("pgvector: enable extension: %w", err)
	}
	createTable := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		embedding vector(%d),
		text TEXT NOT NULL,
		metadata JSONB,
		document_id TEXT,
		document_name TEXT,
		kb_id TEXT,
		project_id TEXT,
		text_search tsvector GENERATED ALWAYS AS (to_tsvector('english', text)) STORED,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`, p.tableIdent, p.dimension)
	if _, err = conn.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("pgvector: create table: %w", err)
	}
	return nil
}

func (p *pgStore) Upsert(ctx context.Context, records []Record) (err error) {
	if len(records) == 0 {
		return nil
	}
	tx, txErr := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if txErr != nil {
		return fmt.Errorf("pgvector: begin tx: %w", txErr)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("pgvector: rollback failed: %w; original error: %v", rbErr, err)
			}
		} else if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("pgvector: commit: %w", commitErr)
		}
	}()
	stmt := fmt.Sprintf(`INSERT INTO %s
(id, embedding, text, metadata, document_id, document_name, kb_id, project_id, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
    embedding = excluded.embedding,
    text = excluded.text,
    metadata = excluded.metadata,
    document_id = excluded.document_id,
    document_name = excluded.document_name,
    kb_id = excluded.kb_id,
    project_id = excluded.project_id,
    updated_at = excluded.updated_at`, p.tableIdent)
	for i := range records {
		rec := records[i]
		if len(rec.Embedding) != p.dimension {
			return fmt.Errorf(
				"pgvector: record %q dimension mismatch (got %d want %d)",
				rec.ID, len(rec.Embedding), p.dimension,
			)
		}
		metadata, marshalErr := json.Marshal(rec.Metadata)
		if marshalErr != nil {
			return fmt.Errorf("pgvector: marshal metadata for %q: %w", rec.ID, marshalErr)
		}
		_, execErr := tx.Exec(ctx, stmt,
			rec.ID,
			pgvector.NewVector(rec.Embedding),
			rec.Text,
			metadata,
			nullable(rec.DocumentID),
			nullable(rec.DocumentName),
			nullable(rec.KnowledgeBaseID),
			nullable(rec.ProjectID),
			time.Now().UTC(),
		)
		if execErr != nil {
			return fmt.Errorf("pgvector: upsert %q: %w", rec.ID, execErr)
		}
	}
	return nil
}

func (p *pgStore) Search(ctx context.Context, query []float32, opts SearchOptions) ([]Match, error) {
	if len(query) != p.dimension {
		return nil, errors.New("pgvector: query dimension mismatch")
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = 5
	}
	builder := strings.Builder{}
	builder.WriteString("SELECT id, text, metadata, document_id, document_name, kb_id, project_id, ")
	builder.WriteString("1 - (embedding <=> $1) AS score FROM ")
	builder.WriteString(p.tableIdent)
	builder.WriteString(" WHERE 1=1")
	args := []any{pgvector.NewVector(query)}
	argPos := 2
	argPos, scopeSQL, scopeArgs := buildScopeClause(argPos, opts.KnowledgeBaseID, opts.ProjectID, opts.DocumentIDs)
	builder.WriteString(scopeSQL)
	args = append(args, scopeArgs...)
	if opts.MinScore > 0 {
		builder.WriteString(fmt.Sprintf(" AND 1 - (embedding <=> $1) >= $%d", argPos))
		args = append(args, opts.MinScore)
		argPos++
	}
	builder.WriteString(" ORDER BY embedding <=> $1 ASC LIMIT $")
	builder.WriteString(fmt.Sprint(argPos))
	args = append(args, topK)
	rows, err := p.pool.Query(ctx, builder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("pgvector: search: %w", err)
	}
	defer rows.Close()
	return scanMatches(rows, topK)
}

func (p *pgStore) Delete(ctx context.Context, filter Filter) error {
	if len(filter.IDs) == 0 && filter.KnowledgeBaseID == "" && filter.ProjectID == "" {
		return nil
	}
	builder := strings.Builder{}
	builder.WriteString("DELETE FROM ")
	builder.WriteString(p.tableIdent)
	builder.WriteString(" WHERE 1=1")
	args := make([]any, 0, 3)
	argPos := 1
	if len(filter.IDs) > 0 {
		builder.WriteString(fmt.Sprintf(" AND id = ANY($%d)", argPos))
		args = append(args, filter.IDs)
		argPos++
	}
	if filter.KnowledgeBaseID != "" {
		builder.WriteString(fmt.Sprintf(" AND kb_id = $%d", argPos))
		args = append(args, filter.KnowledgeBaseID)
		argPos++
	}
	if filter.ProjectID != "" {
		builder.WriteString(fmt.Sprintf(" AND project_id = $%d", argPos))
		args = append(args, filter.ProjectID)
	}
	if _, err := p.pool.Exec(ctx, builder.String(), args...); err != nil {
		return fmt.Errorf("pgvector: delete: %w", err)
	}
	return nil
}

func (p *pgStore) Close(_ context.Context) error {
	p.pool.Close()
	return nil
}

// buildScopeClause appends the scope selectors to a WHERE clause starting at
// argPos and returns the next free argument position.
func buildScopeClause(argPos int, kbID, projectID string, documentIDs []string) (int, string, []any) {
	builder := strings.Builder{}
	args := make([]any, 0, 2)
	if kbID != "" {
		builder.WriteString(fmt.Sprintf(" AND kb_id = $%d", argPos))
		args = append(args, kbID)
		argPos++
		return argPos, builder.String(), args
	}
	if len(documentIDs) > 0 {
		builder.WriteString(fmt.Sprintf(" AND document_id = ANY($%d)", argPos))
		args = append(args, documentIDs)
		argPos++
	}
	if projectID != "" {
		builder.WriteString(fmt.Sprintf(" AND project_id = $%d", argPos))
		args = append(args, projectID)
		argPos++
	}
	return argPos, builder.String(), args
}

func scanMatches(rows pgx.Rows, capacity int) ([]Match, error) {
	results := make([]Match, 0, capacity)
	for rows.Next() {
		var (
			id           string
			text         string
			metadataRaw  []byte
			documentID   *string
			documentName *string
			kbID         *string
			projectID    *string
			score        float64
		)
		if err := rows.Scan(&id, &text, &metadataRaw, &documentID, &documentName, &kbID, &projectID, &score); err != nil {
			return nil, fmt.Errorf("pgvector: scan: %w", err)
		}
		meta := make(map[string]any)
		if len(metadataRaw) > 0 {
			if err := json.Unmarshal(metadataRaw, &meta); err != nil {
				return nil, fmt.Errorf("pgvector: decode metadata: %w", err)
			}
		}
		match := Match{
			ID:           id,
			Score:        score,
			Text:         text,
			Metadata:     meta,
			DocumentID:   deref(documentID),
			DocumentName: deref(documentName),
		}
		if kb := deref(kbID); kb != "" {
			match.ScopeID = kb
		} else {
			match.ScopeID = deref(projectID)
		}
		results = append(results, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgvector: search rows: %w", err)
	}
	return results, nil
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
