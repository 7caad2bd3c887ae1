// Package rag orchestrates the retrieval-augmented answer pipeline:
// query expansion, hybrid retrieval, context assembly, generation, and
// confidence scoring.
package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/novabase-ai/novabase/engine/core"
	"github.com/novabase-ai/novabase/engine/knowledge"
	"github.com/novabase-ai/novabase/engine/knowledge/assembler"
	"github.com/novabase-ai/novabase/engine/knowledge/expander"
	"github.com/novabase-ai/novabase/engine/llm"
	llmadapter "github.com/novabase-ai/novabase/engine/llm/adapter"
	"github.com/novabase-ai/novabase/engine/llm/usage"
	"github.com/novabase-ai/novabase/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// State names the pipeline stages. Terminal states are StateDone and
// StateFallback.
type State string

const (
	StateExpanding         State = "expanding"
	StateRetrieving        State = "retrieving"
	StateFallback          State = "fallback"
	StateAssemblingContext State = "assembling_context"
	StateGenerating        State = "generating"
	StateScoring           State = "scoring"
	StateDone              State = "done"
)

const answerSystemPrompt = `You are a knowledgeable assistant. Answer the question using the source material below. When the sources support your answer, say so explicitly (for example "Based on the provided sources"). If the sources do not cover the question, say what is missing.

%s`

const fallbackSystemPrompt = `You are a knowledgeable assistant. No source documents matched this question, so answer helpfully from general knowledge and note that no matching source material was found.`

// Query is one orchestrator request.
type Query struct {
	Text    string
	Scope   knowledge.Scope
	History []llmadapter.Message
	Options QueryOptions
	Tags    usage.Tags
}

// QueryOptions tunes a single query; zero values take the orchestrator
// defaults.
type QueryOptions struct {
	Limit        int
	Threshold    float64
	TokenBudget  int
	MaxFragments int
	Provider     core.ProviderName
	Criteria     *llm.SelectionCriteria
}

// Response is the orchestrator's answer.
type Response struct {
	Answer     string
	Sources    []knowledge.SearchResult
	Confidence float64
	Provider   core.ProviderName
	Model      string
	Expansion  *expander.Expansion
	// Degraded is true when a retrieval backend failed and the answer
	// was produced from fewer sources than a healthy run would have.
	Degraded bool
	// State is the terminal pipeline state: StateDone for a grounded
	// answer, StateFallback for the no-sources path.
	State State
}

// Retriever is the slice of the hybrid retriever the orchestrator uses.
type Retriever interface {
	Search(ctx context.Context, query string, scope knowledge.Scope, limit int, threshold float64) ([]knowledge.SearchResult, bool)
}

// ChatService is the slice of the llm service the orchestrator uses.
type ChatService interface {
	Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)
}

// QueryExpander analyzes queries ahead of retrieval.
type QueryExpander interface {
	Expand(ctx context.Context, query string) *expander.Expansion
}

// Config wires an Orchestrator.
type Config struct {
	Retriever Retriever
	Chat      ChatService
	// Expander is optional; without it the Expanding stage is skipped.
	Expander   QueryExpander
	Assembler  *assembler.Assembler
	Confidence ConfidencePolicy
	// Defaults applied when QueryOptions leave fields zero.
	Limit        int
	Threshold    float64
	TokenBudget  int
	MaxFragments int
	// StageTimeout bounds the expansion and retrieval stages. Zero
	// disables the per-stage deadline.
	StageTimeout time.Duration
}

// Orchestrator runs the state machine
// Expanding -> Retrieving -> (Fallback | AssemblingContext -> Generating -> Scoring) -> Done.
type Orchestrator struct {
	retriever    Retriever
	chat         ChatService
	expander     QueryExpander
	assembler    *assembler.Assembler
	confidence   ConfidencePolicy
	limit        int
	threshold    float64
	tokenBudget  int
	maxFragments int
	stageTimeout time.Duration
	tracer       trace.Tracer
}

// New validates the wiring and constructs an orchestrator.
func New(cfg *Config) (*Orchestrator, error) {
	if cfg == nil {
		return nil, errors.New("rag: config is required")
	}
	if cfg.Retriever == nil {
		return nil, errors.New("rag: retriever is required")
	}
	if cfg.Chat == nil {
		return nil, errors.New("rag: chat service is required")
	}
	o := &Orchestrator{
		retriever:    cfg.Retriever,
		chat:         cfg.Chat,
		expander:     cfg.Expander,
		assembler:    cfg.Assembler,
		confidence:   cfg.Confidence,
		limit:        cfg.Limit,
		threshold:    cfg.Threshold,
		tokenBudget:  cfg.TokenBudget,
		maxFragments: cfg.MaxFragments,
		stageTimeout: cfg.StageTimeout,
		tracer:       otel.Tracer("novabase.rag"),
	}
	if o.assembler == nil {
		o.assembler = assembler.New(nil)
	}
	if o.confidence == (ConfidencePolicy{}) {
		o.confidence = DefaultConfidencePolicy()
	}
	if o.limit <= 0 {
		o.limit = knowledge.DefaultTopK
	}
	if o.threshold <= 0 {
		o.threshold = knowledge.DefaultMinScore
	}
	if o.tokenBudget <= 0 {
		o.tokenBudget = knowledge.DefaultTokenBudget
	}
	if o.maxFragments <= 0 {
		o.maxFragments = knowledge.DefaultMaxFragments
	}
	return o, nil
}

// Query runs the pipeline for one request.
func (o *Orchestrator) Query(ctx context.Context, q *Query) (*Response, error) {
	if q == nil {
		return nil, errors.New("rag: query is required")
	}
	if err := q.Scope.Validate(); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	ctx, span := o.tracer.Start(ctx, "rag.query", trace.WithAttributes(
		attribute.String("scope_id", q.Scope.ID()),
	))
	defer span.End()

	resolved := resolveQuery(q.Text, q.History)
	if resolved != q.Text {
		log.Debug("Resolved multi-turn query against conversation history")
	}

	log.Debug("Pipeline state", "state", StateExpanding)
	expansion := o.expand(ctx, resolved)

	log.Debug("Pipeline state", "state", StateRetrieving)
	fragments, degraded := o.retrieve(ctx, resolved, q)
	span.SetAttributes(
		attribute.Int("fragments", len(fragments)),
		attribute.Bool("degraded", degraded),
	)

	if len(fragments) == 0 {
		log.Debug("Pipeline state", "state", StateFallback)
		response, err := o.fallback(ctx, q)
		if err != nil {
			span.SetStatus(codes.Error, "fallback generation failed")
			span.RecordError(err)
			return nil, err
		}
		response.Expansion = expansion
		response.Degraded = degraded
		return response, nil
	}

	log.Debug("Pipeline state", "state", StateAssemblingContext, "fragments", len(fragments))
	if max := o.resolveMaxFragments(q); len(fragments) > max {
		fragments = fragments[:max]
	}
	window := o.assembler.Assemble(fragments, o.resolveTokenBudget(q))

	log.Debug("Pipeline state", "state", StateGenerating, "sources", len(window.Sources))
	chatResponse, err := o.chat.Chat(ctx, &llm.ChatRequest{
		Provider:     q.Options.Provider,
		Criteria:     q.Options.Criteria,
		SystemPrompt: fmt.Sprintf(answerSystemPrompt, window.Text),
		Messages: append(append([]llmadapter.Message{}, q.History...), llmadapter.Message{
			Role:    llmadapter.RoleUser,
			Content: q.Text,
		}),
		Tags: q.Tags,
	})
	if err != nil {
		span.SetStatus(codes.Error, "generation failed")
		span.RecordError(err)
		return nil, err
	}

	log.Debug("Pipeline state", "state", StateScoring)
	confidence := o.confidence.Score(chatResponse.Content, window.Sources)

	log.Debug("Pipeline state", "state", StateDone, "confidence", confidence)
	return &Response{
		Answer:     chatResponse.Content,
		Sources:    window.Sources,
		Confidence: confidence,
		Provider:   chatResponse.Provider,
		Model:      chatResponse.Model,
		Expansion:  expansion,
		Degraded:   degraded,
		State:      StateDone,
	}, nil
}

// expand runs the optional Expanding stage. Expansion is informational
// and never blocks retrieval.
func (o *Orchestrator) expand(ctx context.Context, query string) *expander.Expansion {
	if o.expander == nil {
		return nil
	}
	if o.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.stageTimeout)
		defer cancel()
	}
	return o.expander.Expand(ctx, query)
}

func (o *Orchestrator) retrieve(ctx context.Context, query string, q *Query) ([]knowledge.SearchResult, bool) {
	if o.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.stageTimeout)
		defer cancel()
	}
	limit := q.Options.Limit
	if limit <= 0 {
		limit = o.limit
	}
	threshold := q.Options.Threshold
	if threshold <= 0 {
		threshold = o.threshold
	}
	return o.retriever.Search(ctx, query, q.Scope, limit, threshold)
}

// fallback answers without retrieved context at a fixed low confidence.
func (o *Orchestrator) fallback(ctx context.Context, q *Query) (*Response, error) {
	chatResponse, err := o.chat.Chat(ctx, &llm.ChatRequest{
		Provider:     q.Options.Provider,
		Criteria:     q.Options.Criteria,
		SystemPrompt: fallbackSystemPrompt,
		Messages: append(append([]llmadapter.Message{}, q.History...), llmadapter.Message{
			Role:    llmadapter.RoleUser,
			Content: q.Text,
		}),
		Tags: q.Tags,
	})
	if err != nil {
		return nil, err
	}
	return &Response{
		Answer:     chatResponse.Content,
		Sources:    []knowledge.SearchResult{},
		Confidence: o.confidence.FallbackConfidence,
		Provider:   chatResponse.Provider,
		Model:      chatResponse.Model,
		State:      StateFallback,
	}, nil
}

func (o *Orchestrator) resolveTokenBudget(q *Query) int {
	if q.Options.TokenBudget > 0 {
		return q.Options.TokenBudget
	}
	return o.tokenBudget
}

func (o *Orchestrator) resolveMaxFragments(q *Query) int {
	if q.Options.MaxFragments > 0 {
		return q.Options.MaxFragments
	}
	return o.maxFragments
}
