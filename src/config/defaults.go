package config

import (
	"time"

	"github.com/elee1766/chatbox/src/history"
	"github.com/elee1766/chatbox/src/theme"
)

// DefaultConfig returns a default configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: BackendFile,
		},

		History: HistoryConfig{
			StorageKey:       history.DefaultStorageKey,
			MaxConversations: history.DefaultMaxConversations,
			TitleLength:      history.DefaultTitleLength,
			DefaultTitle:     history.DefaultTitle,
		},

		Responder: ResponderConfig{
			Kind:        ResponderStatic,
			LoadTimeout: Duration(30 * time.Second),
			Remote: RemoteConfig{
				BaseURL:    "https://openrouter.ai/api/v1",
				Model:      "google/gemini-2.5-flash",
				Timeout:    Duration(60 * time.Second),
				RetryCount: 3,
				SiteName:   AppName,
			},
		},

		UI: UIConfig{
			Theme:          theme.DefaultName,
			NoticeDuration: Duration(3 * time.Second),
		},

		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}
