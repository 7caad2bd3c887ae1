package expander

import (
	"context"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonschema"
	llmadapter "github.com/novabase-ai/novabase/engine/llm/adapter"
	"github.com/novabase-ai/novabase/pkg/logger"
	"github.com/tidwall/gjson"
)

// Expansion is the structured interpretation of a user query. It is
// informational in the current pipeline: retrieval proceeds on the raw
// query even when expansion fails.
type Expansion struct {
	ExpandedQueries []string
	Keywords        []string
	Intent          string
}

// DefaultIntent is assigned when the model call or parse fails.
const DefaultIntent = "general_inquiry"

const expansionTemperature = 0.1

const systemPrompt = `You are a query analysis assistant. Analyze the user query and respond with a JSON object of this exact shape:
{"expanded_queries": ["rephrasing 1", "rephrasing 2"], "keywords": ["keyword"], "intent": "short intent label"}
Respond with JSON only, no commentary.`

// Generator is the slice of the chat client the expander needs.
type Generator interface {
	GenerateContent(ctx context.Context, req *llmadapter.LLMRequest) (*llmadapter.LLMResponse, error)
}

// Expander rewrites a query into alternate phrasings, keywords, and an
// intent label via a low-temperature model call.
type Expander struct {
	generator Generator
	schema    *jsonschema.Schema
}

// New creates an Expander backed by the given generator.
func New(generator Generator) (*Expander, error) {
	if generator == nil {
		return nil, fmt.Errorf("expander: generator must not be nil")
	}
	schema, err := compileExpansionSchema()
	if err != nil {
		return nil, err
	}
	return &Expander{generator: generator, schema: schema}, nil
}

// Expand analyzes the query. Any model or parse failure falls back to
// the deterministic heuristic expansion; Expand never returns an error
// for those conditions.
func (e *Expander) Expand(ctx context.Context, query string) *Expansion {
	log := logger.FromContext(ctx)
	response, err := e.generator.GenerateContent(ctx, &llmadapter.LLMRequest{
		SystemPrompt: systemPrompt,
		Messages: []llmadapter.Message{
			{Role: llmadapter.RoleUser, Content: query},
		},
		Options: llmadapter.CallOptions{
			Temperature: expansionTemperature,
			UseJSONMode: true,
		},
	})
	if err != nil {
		log.Warn("Query expansion call failed, using heuristic expansion", "error", err)
		return HeuristicExpansion(query)
	}
	expansion, err := e.parse(response.Content)
	if err != nil {
		log.Warn("Query expansion payload rejected, using heuristic expansion", "error", err)
		return HeuristicExpansion(query)
	}
	return expansion
}

// parse extracts the expansion JSON from free-text model output and
// validates it before trusting any field.
func (e *Expander) parse(content string) (*Expansion, error) {
	raw := extractJSONObject(content)
	if raw == "" {
		return nil, fmt.Errorf("expander: no JSON object in model output")
	}
	parsed := gjson.Parse(raw)
	payload := map[string]any{
		"expanded_queries": stringSlice(parsed.Get("expanded_queries")),
		"keywords":         stringSlice(parsed.Get("keywords")),
		"intent":           parsed.Get("intent").String(),
	}
	result := e.schema.Validate(payload)
	if !result.IsValid() {
		return nil, fmt.Errorf("expander: payload failed schema validation: %v", result.Errors)
	}
	return &Expansion{
		ExpandedQueries: payload["expanded_queries"].([]string),
		Keywords:        payload["keywords"].([]string),
		Intent:          payload["intent"].(string),
	}, nil
}

// HeuristicExpansion is the deterministic fallback: the query itself as
// the only rephrasing, whitespace tokens longer than two characters as
// keywords, and the default intent.
func HeuristicExpansion(query string) *Expansion {
	words := strings.Fields(query)
	keywords := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) > 2 {
			keywords = append(keywords, word)
		}
	}
	return &Expansion{
		ExpandedQueries: []string{query},
		Keywords:        keywords,
		Intent:          DefaultIntent,
	}
}

func compileExpansionSchema() (*jsonschema.Schema, error) {
	schema, err := jsonschema.NewCompiler().Compile([]byte(`{
		"type": "object",
		"required": ["expanded_queries", "keywords", "intent"],
		"properties": {
			"expanded_queries": {
				"type": "array",
				"minItems": 1,
				"items": {"type": "string", "minLength": 1}
			},
			"keywords": {
				"type": "array",
				"items": {"type": "string"}
			},
			"intent": {"type": "string", "minLength": 1}
		}
	}`))
	if err != nil {
		return nil, fmt.Errorf("expander: compile expansion schema: %w", err)
	}
	return schema, nil
}

// extractJSONObject returns the outermost {...} span of the text, which
// tolerates prose or code fences around the JSON payload.
func extractJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}

func stringSlice(value gjson.Result) []string {
	items := value.Array()
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item.Type == gjson.String && item.String() != "" {
			out = append(out, item.String())
		}
	}
	return out
}
