package llmadapter

import (
	"context"
	"sync"
)

// Stream is a single-producer, single-consumer chunk sequence. The
// channel returned by Chunks closes after the terminal Done chunk, or
// earlier when the upstream call fails. Close cancels the upstream call
// and waits for the producer goroutine to exit, so an early-stopping
// consumer releases the underlying connection instead of leaking it.
type Stream struct {
	chunks chan StreamChunk
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func newStream(cancel context.CancelFunc) *Stream {
	return &Stream{
		chunks: make(chan StreamChunk),
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Chunks returns the chunk channel. Range over it until it closes.
func (s *Stream) Chunks() <-chan StreamChunk {
	return s.chunks
}

// Close tears down the upstream call. Safe to call at any point,
// including after the channel closed; idempotent.
func (s *Stream) Close() error {
	s.cancel()
	// Drain so a blocked producer can observe cancellation and exit.
	for {
		select {
		case _, ok := <-s.chunks:
			if !ok {
				<-s.done
				return nil
			}
		case <-s.done:
			return nil
		}
	}
}

// Err reports the upstream failure, if any, once the channel closed.
// A consumer-initiated Close surfaces context.Canceled.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Stream) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// send delivers a chunk unless the stream context is canceled.
func (s *Stream) send(ctx context.Context, chunk StreamChunk) error {
	select {
	case s.chunks <- chunk:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish closes the chunk channel and marks the producer done.
func (s *Stream) finish() {
	close(s.chunks)
	close(s.done)
}
