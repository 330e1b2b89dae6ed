package service

import (
	"context"

	"github.com/tieubaoca/foodchat-be/types"
)

// ChatStream is a single incremental completion from the upstream service.
// Recv returns the next text fragment, which may be empty, and io.EOF once the
// upstream sequence is exhausted. Close releases the upstream connection and
// must be called exactly once.
type ChatStream interface {
	Recv() (string, error)
	Close() error
}

// AIService opens streamed completions for a full conversation, system prompt
// included. An error means the call could not be initiated.
type AIService interface {
	ChatStream(ctx context.Context, messages []types.Message) (ChatStream, error)
}
