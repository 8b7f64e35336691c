package responder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/elee1766/chatbox/src/aisdk"
)

const defaultRemoteTimeout = 60 * time.Second

// Completer is the part of a chat-completions client the Remote source uses.
type Completer interface {
	aisdk.ChatCompleter
	Validate() error
}

// RemoteConfig configures a Remote source.
type RemoteConfig struct {
	Client       Completer
	Model        string
	SystemPrompt string
	Fallback     string
	Timeout      time.Duration
	Logger       *slog.Logger
}

// Remote answers with a single-turn completion from a chat model. Only the
// latest user text is sent.
type Remote struct {
	config RemoteConfig
	logger *slog.Logger
}

func NewRemote(config RemoteConfig) *Remote {
	if config.Fallback == "" {
		config.Fallback = DefaultFallback
	}
	if config.Timeout == 0 {
		config.Timeout = defaultRemoteTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Remote{
		config: config,
		logger: logger.With("component", "remote_responder", "model", config.Model),
	}
}

// LoadKnowledge checks that the client is configured to make requests.
func (r *Remote) LoadKnowledge(context.Context) error {
	if r.config.Client == nil {
		return fmt.Errorf("remote responder: no client configured")
	}
	if err := r.config.Client.Validate(); err != nil {
		return fmt.Errorf("remote responder: %w", err)
	}
	return nil
}

// Response asks the model for a reply. API failures are logged and answered
// with the fallback.
func (r *Remote) Response(text string) string {
	if r.config.Client == nil {
		return r.config.Fallback
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)
	defer cancel()

	var messages []*aisdk.Message
	if r.config.SystemPrompt != "" {
		messages = append(messages, &aisdk.Message{Role: aisdk.RoleSystem, Content: r.config.SystemPrompt})
	}
	messages = append(messages, &aisdk.Message{Role: aisdk.RoleUser, Content: text})

	resp, err := r.config.Client.CreateChatCompletion(ctx, &aisdk.ChatCompletionRequest{
		Model:    r.config.Model,
		Messages: messages,
	})
	if err != nil {
		r.logger.Warn("completion failed", "error", err)
		return r.config.Fallback
	}

	reply := strings.TrimSpace(resp.FirstContent())
	if reply == "" {
		return r.config.Fallback
	}
	return reply
}
