// Package ai abstracts the model providers behind small interfaces so the
// archivist service can swap providers by configuration.
package ai

import "context"

// Turn is one prior message in a conversation, oldest first.
type Turn struct {
	Role string // "user" or "assistant"
	Text string
}

// ChatClient generates the archivist's reply for a conversation.
type ChatClient interface {
	GenerateReply(ctx context.Context, model, systemPrompt string, turns []Turn) (string, error)
}

// ImageClient renders a cover image from a textual prompt.
type ImageClient interface {
	GenerateImage(ctx context.Context, model, prompt string) ([]byte, error)
}
