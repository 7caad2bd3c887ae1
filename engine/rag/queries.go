package rag

import (
	"context"

	"github.com/novabase-ai/novabase/engine/knowledge"
	llmadapter "github.com/novabase-ai/novabase/engine/llm/adapter"
	"github.com/novabase-ai/novabase/engine/llm/usage"
)

// The specializations below are thin parameterizations of Query: each
// fixes the scope shape or conversation handling and nothing else.

// QueryKnowledgeBase answers a question against a single knowledge base.
func (o *Orchestrator) QueryKnowledgeBase(
	ctx context.Context,
	knowledgeBaseID, question string,
	opts QueryOptions,
) (*Response, error) {
	return o.Query(ctx, &Query{
		Text:    question,
		Scope:   knowledge.Scope{KnowledgeBaseID: knowledgeBaseID},
		Options: opts,
	})
}

// QueryProject answers a question against every document of a project.
func (o *Orchestrator) QueryProject(
	ctx context.Context,
	projectID, question string,
	opts QueryOptions,
) (*Response, error) {
	return o.Query(ctx, &Query{
		Text:    question,
		Scope:   knowledge.Scope{ProjectID: projectID},
		Options: opts,
		Tags:    usage.Tags{ProjectID: projectID},
	})
}

// QueryDocuments answers a question against an explicit document set.
func (o *Orchestrator) QueryDocuments(
	ctx context.Context,
	projectID string,
	documentIDs []string,
	question string,
	opts QueryOptions,
) (*Response, error) {
	return o.Query(ctx, &Query{
		Text:    question,
		Scope:   knowledge.Scope{ProjectID: projectID, DocumentIDs: documentIDs},
		Options: opts,
		Tags:    usage.Tags{ProjectID: projectID},
	})
}

// QueryConversation answers the latest turn of a conversation. When the
// question references earlier turns it is resolved against the history
// before retrieval.
func (o *Orchestrator) QueryConversation(
	ctx context.Context,
	scope knowledge.Scope,
	conversationID, question string,
	history []llmadapter.Message,
	opts QueryOptions,
) (*Response, error) {
	return o.Query(ctx, &Query{
		Text:    question,
		Scope:   scope,
		History: history,
		Options: opts,
		Tags:    usage.Tags{ConversationID: conversationID},
	})
}
