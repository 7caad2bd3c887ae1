package usage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/novabase-ai/novabase/engine/core"
)

// ErrNotFound indicates that no usage rows exist for the requested scope.
var ErrNotFound = errors.New("usage: not found")

// costTokenUnit is the token denomination CostPerUnit is priced in.
const costTokenUnit = 1000.0

// Tags carries the optional workflow attribution for a usage record.
type Tags struct {
	ProjectID      string
	ConversationID string
	WorkflowType   string
	WorkflowStage  string
}

// Snapshot is the usage payload of a single successful provider call.
type Snapshot struct {
	Provider         core.ProviderName
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	// Estimated marks counts re-derived from text rather than reported
	// by the provider.
	Estimated bool
	// CostPerUnit is the provider's price per 1k tokens.
	CostPerUnit float64
	Tags        Tags
}

// Record is a persisted usage row.
type Record struct {
	ID               uuid.UUID
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Cost             float64
	Estimated        bool
	ProjectID        string
	ConversationID   string
	WorkflowType     string
	WorkflowStage    string
	CreatedAt        time.Time
}

// NewRecord derives a Record from a call snapshot, pricing the total
// token count at the provider's per-1k-token rate.
func NewRecord(snapshot *Snapshot) *Record {
	total := snapshot.TotalTokens
	if total == 0 {
		total = snapshot.PromptTokens + snapshot.CompletionTokens
	}
	return &Record{
		ID:               uuid.New(),
		Provider:         string(snapshot.Provider),
		Model:            snapshot.Model,
		PromptTokens:     snapshot.PromptTokens,
		CompletionTokens: snapshot.CompletionTokens,
		TotalTokens:      total,
		Cost:             float64(total) / costTokenUnit * snapshot.CostPerUnit,
		Estimated:        snapshot.Estimated,
		ProjectID:        snapshot.Tags.ProjectID,
		ConversationID:   snapshot.Tags.ConversationID,
		WorkflowType:     snapshot.Tags.WorkflowType,
		WorkflowStage:    snapshot.Tags.WorkflowStage,
		CreatedAt:        time.Now().UTC(),
	}
}

// Repository exposes storage operations for usage records.
type Repository interface {
	Insert(ctx context.Context, record *Record) error
	// ListByProject returns records for a project, newest first.
	ListByProject(ctx context.Context, projectID string, limit int) ([]*Record, error)
	// SummarizeByProject aggregates token counts and cost for a project.
	SummarizeByProject(ctx context.Context, projectID string) (*Summary, error)
}

// Summary aggregates usage over a set of records.
type Summary struct {
	Calls            int
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Cost             float64
}

// Recorder accepts usage snapshots from the call path. Implementations
// must never propagate failures to the caller.
type Recorder interface {
	Record(ctx context.Context, snapshot *Snapshot)
}
