package history

import (
	"time"
)

// Sender identifies who wrote a message
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Valid reports whether s is a known sender
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderBot
}

// Message is a single entry in a conversation transcript
type Message struct {
	ID        string    `json:"id" validate:"required" required:"true" description:"Opaque unique message id"`
	Content   string    `json:"content" description:"Message text"`
	Sender    Sender    `json:"sender" validate:"oneof=user bot" required:"true" enum:"user,bot"`
	Timestamp time.Time `json:"timestamp" required:"true"`
}

// Conversation is a titled, append-only sequence of messages
type Conversation struct {
	ID        string    `json:"id" validate:"required" required:"true" description:"Opaque unique conversation id"`
	Title     string    `json:"title" description:"Derived from the first user message"`
	Messages  []Message `json:"messages" validate:"dive" required:"true"`
	CreatedAt time.Time `json:"createdAt" required:"true"`
	UpdatedAt time.Time `json:"updatedAt" required:"true"`
}

// LastMessage returns the most recent message, if any
func (c *Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

func (c *Conversation) userMessages() int {
	n := 0
	for _, m := range c.Messages {
		if m.Sender == SenderUser {
			n++
		}
	}
	return n
}

func (c *Conversation) clone() *Conversation {
	out := *c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return &out
}

// Truncate returns the first limit runes of s, followed by "..." when s was
// longer than limit.
func Truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
