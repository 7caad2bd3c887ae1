package fulltext

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultTable = "knowledge_fragments"

// PGSearcher runs full-text queries against the fragment table written by
// the pgvector store, using its generated tsvector column.
type PGSearcher struct {
	pool       *pgxpool.Pool
	tableIdent string
}

// NewPGSearcher connects to postgres. Table must match the vector store's.
func NewPGSearcher(ctx context.Context, dsn string, table string) (*PGSearcher, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("fulltext: postgres dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("fulltext: failed to connect to postgres: %w", err)
	}
	if table == "" {
		table = defaultTable
	}
	return &PGSearcher{
		pool:       pool,
		tableIdent: pgx.Identifier{table}.Sanitize(),
	}, nil
}

// WrapPool builds a searcher over an existing pool, sharing connections with
// the vector store.
func WrapPool(pool *pgxpool.Pool, table string) (*PGSearcher, error) {
	if pool == nil {
		return nil, errors.New("fulltext: pool is required")
	}
	if table == "" {
		table = defaultTable
	}
	return &PGSearcher{
		pool:       pool,
		tableIdent: pgx.Identifier{table}.Sanitize(),
	}, nil
}

func (s *PGSearcher) Search(ctx context.Context, query string, opts SearchOptions) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("fulltext: query is required")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	builder := strings.Builder{}
	builder.WriteString("SELECT id, text, metadata, document_id, document_name, kb_id, project_id FROM ")
	builder.WriteString(s.tableIdent)
	builder.WriteString(" WHERE text_search @@ websearch_to_tsquery('english', $1)")
	args := []any{query}
	argPos := 2
	if opts.KnowledgeBaseID != "" {
		builder.WriteString(fmt.Sprintf(" AND kb_id = $%d", argPos))
		args = append(args, opts.KnowledgeBaseID)
		argPos++
	} else {
		if len(opts.DocumentIDs) > 0 {
			builder.WriteString(fmt.Sprintf(" AND document_id = ANY($%d)", argPos))
			args = append(args, opts.DocumentIDs)
			argPos++
		}
		if opts.ProjectID != "" {
			builder.WriteString(fmt.Sprintf(" AND project_id = $%d", argPos))
			args = append(args, opts.ProjectID)
			argPos++
		}
	}
	builder.WriteString(fmt.Sprintf(" LIMIT $%d", argPos))
	args = append(args, limit)
	rows, err := s.pool.Query(ctx, builder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("fulltext: search: %w", err)
	}
	defer rows.Close()
	hits := make([]Hit, 0, limit)
	for rows.Next() {
		var (
			id           string
			text         string
			metadataRaw  []byte
			documentID   *string
			documentName *string
			kbID         *string
			projectID    *string
		)
		if err := rows.Scan(&id, &text, &metadataRaw, &documentID, &documentName, &kbID, &projectID); err != nil {
			return nil, fmt.Errorf("fulltext: scan: %w", err)
		}
		meta := make(map[string]any)
		if len(metadataRaw) > 0 {
			if err := json.Unmarshal(metadataRaw, &meta); err != nil {
				return nil, fmt.Errorf("fulltext: decode metadata: %w", err)
			}
		}
		hit := Hit{
			ID:           id,
			Text:         text,
			Metadata:     meta,
			DocumentID:   stringValue(documentID),
			DocumentName: stringValue(documentName),
		}
		if kb := stringValue(kbID); kb != "" {
			hit.ScopeID = kb
		} else {
			hit.ScopeID = stringValue(projectID)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fulltext: search rows: %w", err)
	}
	return hits, nil
}

// Close releases the underlying pool.
func (s *PGSearcher) Close() {
	s.pool.Close()
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
