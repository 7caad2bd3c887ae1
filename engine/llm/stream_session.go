package llm

import (
	"context"
	"sync"

	"github.com/novabase-ai/novabase/engine/core"
	llmadapter "github.com/novabase-ai/novabase/engine/llm/adapter"
	"github.com/novabase-ai/novabase/pkg/logger"
)

// StreamSession relays adapter chunks to the consumer and records usage
// when the terminal chunk arrives. Close tears down the upstream
// provider call; an early-stopping consumer leaks nothing.
type StreamSession struct {
	Provider core.ProviderName
	Model    string

	client   llmadapter.LLMClient
	upstream *llmadapter.Stream
	out      chan llmadapter.StreamChunk
	stop     chan struct{}
	once     sync.Once
}

// StreamChat resolves the provider exactly like Chat and opens a
// streaming call against it. A failure before the first chunk retries
// once against the default provider; once chunks flow there is no
// retry, and mid-stream failures surface through the session's Err
// after the chunk channel closes.
func (s *Service) StreamChat(ctx context.Context, req *ChatRequest) (*StreamSession, error) {
	target, err := s.resolveProvider(req)
	if err != nil {
		return nil, err
	}
	session, err := s.openStream(ctx, target, req)
	if err == nil {
		return session, nil
	}
	fallback := s.fallbackFor(target)
	if fallback == nil {
		return nil, NewGenerationError(err, target.Provider, nil)
	}
	log := logger.FromContext(ctx)
	log.Error("Provider stream failed before the first chunk, retrying once against default provider",
		"provider", target.Provider,
		"fallback_provider", fallback.Provider,
		"error", err,
	)
	session, fbErr := s.openStream(ctx, fallback, req)
	if fbErr != nil {
		return nil, NewGenerationError(fbErr, fallback.Provider, map[string]any{
			"original_provider": string(target.Provider),
			"original_error":    err.Error(),
		})
	}
	log.Warn("Fallback provider answered the stream",
		"failed_provider", target.Provider,
		"provider", fallback.Provider,
	)
	return session, nil
}

// openStream creates the client and starts the provider call for one
// provider. StreamChat shapes the returned error.
func (s *Service) openStream(
	ctx context.Context,
	config *core.ProviderConfig,
	req *ChatRequest,
) (*StreamSession, error) {
	client, err := s.factory.CreateClient(config)
	if err != nil {
		return nil, core.NewError(err, ErrCodeLLMCreation, map[string]any{
			"provider": string(config.Provider),
		})
	}
	stream, err := client.StreamContent(ctx, s.buildAdapterRequest(req))
	if err != nil {
		client.Close()
		return nil, err
	}
	session := &StreamSession{
		Provider: config.Provider,
		Model:    config.Model,
		client:   client,
		upstream: stream,
		out:      make(chan llmadapter.StreamChunk),
		stop:     make(chan struct{}),
	}
	go session.relay(ctx, func(chunkUsage *llmadapter.Usage) {
		s.recordUsage(ctx, config, chunkUsage, req.Tags)
	})
	return session, nil
}

// Chunks returns the chunk channel. It closes after the terminal Done
// chunk or when the upstream call ends.
func (s *StreamSession) Chunks() <-chan llmadapter.StreamChunk {
	return s.out
}

// Close cancels the upstream provider call. Idempotent.
func (s *StreamSession) Close() error {
	s.once.Do(func() { close(s.stop) })
	return s.upstream.Close()
}

// Err reports the upstream failure once the chunk channel closed.
func (s *StreamSession) Err() error {
	return s.upstream.Err()
}

// relay forwards chunks until the upstream closes or the consumer
// abandons the session. Usage is recorded when the terminal chunk is
// produced, whether or not the consumer reads it.
func (s *StreamSession) relay(_ context.Context, record func(*llmadapter.Usage)) {
	defer s.client.Close()
	defer close(s.out)
	for chunk := range s.upstream.Chunks() {
		if chunk.Done && chunk.Usage != nil {
			record(chunk.Usage)
		}
		select {
		case s.out <- chunk:
		case <-s.stop:
			s.upstream.Close()
			return
		}
	}
}
