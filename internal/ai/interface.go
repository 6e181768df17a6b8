package ai

import (
	"context"

	"bvetra/internal/types"
)

// Provider defines the contract for the upstream assistant model.
// This interface allows for swapping different AI providers (Gemini, OpenAI, etc.) in the future.
type Provider interface {
	// Reply returns the complete assistant answer for the latest user message,
	// given the prior transcript.
	Reply(ctx context.Context, history []types.Turn, message string) (string, error)

	// StreamReply opens a token stream for the assistant answer. The caller
	// owns the returned source and must drain or close it.
	StreamReply(ctx context.Context, history []types.Turn, message string) (ChunkSource, error)

	// Close releases the underlying client.
	Close()
}
