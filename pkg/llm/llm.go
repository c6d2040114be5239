package llm

import (
	"context"
	"errors"
)

// ErrNoCredential is returned when a client is requested without an API key.
var ErrNoCredential = errors.New("no LLM credential configured")

const (
	temperature = 0.2
	maxTokens   = 700
)

// LLM sends one system instruction and one user message and returns the reply.
type LLM interface {
	Chat(ctx context.Context, system, user string) (string, error)
	GetModel() string
}
