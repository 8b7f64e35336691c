// Package responder provides the sources of bot replies: a local knowledge
// base, a remote chat-completions model and a fixed reply.
package responder

import (
	"context"
	"errors"
)

const (
	DefaultFallback = "I'm sorry, I don't have information about that yet. Could you rephrase your question?"
	DefaultGreeting = "Hello! How can I help you today?"
	DefaultThanks   = "You're welcome! Is there anything else I can help you with?"
)

// ErrNoKnowledge is returned when a knowledge document yields no sections.
var ErrNoKnowledge = errors.New("knowledge document has no content")

// Static always answers with the same reply.
type Static struct {
	Reply string
}

// NewStatic returns a Static source. An empty reply uses DefaultFallback.
func NewStatic(reply string) *Static {
	if reply == "" {
		reply = DefaultFallback
	}
	return &Static{Reply: reply}
}

func (s *Static) LoadKnowledge(context.Context) error { return nil }

func (s *Static) Response(string) string { return s.Reply }
