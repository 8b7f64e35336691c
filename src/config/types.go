package config

import (
	"encoding/json"
	"fmt"
	"time"

	jsonschema "github.com/swaggest/jsonschema-go"

	"github.com/elee1766/chatbox/src/schema"
)

// Config represents the complete chatbox configuration
type Config struct {
	// Storage selects where the conversation history is kept
	Storage StorageConfig `json:"storage"`

	// History limits and naming of conversations
	History HistoryConfig `json:"history"`

	// Responder selects and configures the source of bot replies
	Responder ResponderConfig `json:"responder"`

	// UI configuration for the terminal
	UI UIConfig `json:"ui"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`
}

// Storage backends
const (
	BackendFile   = "file"
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// StorageConfig configures the key-value backend
type StorageConfig struct {
	// Backend is one of file, bolt, sqlite or memory
	Backend string `json:"backend" validate:"required,backend"`

	// Path is a directory for the file backend and a database file for
	// bolt and sqlite. Empty means the XDG data directory.
	Path string `json:"path,omitempty"`
}

// HistoryConfig configures the history store
type HistoryConfig struct {
	StorageKey       string `json:"storage_key" validate:"required"`
	MaxConversations int    `json:"max_conversations" validate:"min=1,max=10000"`
	TitleLength      int    `json:"title_length" validate:"min=1,max=200"`
	DefaultTitle     string `json:"default_title" validate:"required"`
}

// Responder kinds
const (
	ResponderKnowledge = "knowledge"
	ResponderRemote    = "remote"
	ResponderStatic    = "static"
)

// ResponderConfig configures the response source
type ResponderConfig struct {
	// Kind is one of knowledge, remote or static
	Kind string `json:"kind" validate:"required,responder"`

	// Fallback is the reply when nothing better is available
	Fallback string `json:"fallback,omitempty"`

	// Welcome is the notice shown when a session starts
	Welcome string `json:"welcome,omitempty"`

	// LoadTimeout bounds loading the knowledge base
	LoadTimeout Duration `json:"load_timeout,omitempty" validate:"min=0"`

	Knowledge KnowledgeConfig `json:"knowledge"`
	Remote    RemoteConfig    `json:"remote"`
	Static    StaticConfig    `json:"static"`
}

// KnowledgeConfig configures the knowledge base responder
type KnowledgeConfig struct {
	// Source is a file path or an http(s) URL of an HTML document
	Source   string `json:"source,omitempty"`
	Greeting string `json:"greeting,omitempty"`
	Thanks   string `json:"thanks,omitempty"`
}

// RemoteConfig configures the chat-completions responder
type RemoteConfig struct {
	APIKey       string   `json:"api_key,omitempty"`
	BaseURL      string   `json:"base_url,omitempty" validate:"omitempty,url"`
	Model        string   `json:"model,omitempty"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
	Timeout      Duration `json:"timeout,omitempty" validate:"min=0"`
	RetryCount   int      `json:"retry_count,omitempty" validate:"min=0,max=10"`
	SiteURL      string   `json:"site_url,omitempty"`
	SiteName     string   `json:"site_name,omitempty"`
}

// StaticConfig configures the fixed-reply responder
type StaticConfig struct {
	Reply string `json:"reply,omitempty"`
}

// UIConfig configures the terminal
type UIConfig struct {
	Theme          string   `json:"theme" validate:"theme"`
	Width          int      `json:"width,omitempty" validate:"min=0"`
	NoticeDuration Duration `json:"notice_duration,omitempty" validate:"min=0"`
	ExportDir      string   `json:"export_dir,omitempty"`
	Plain          bool     `json:"plain,omitempty"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level string `json:"level" validate:"log_level"`

	// File receives the log of interactive sessions. Empty means the XDG
	// state directory.
	File string `json:"file,omitempty"`
}

// Duration is a time.Duration that reads and writes as "3s" in JSON. Plain
// numbers are read as nanoseconds.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// JSONSchema describes Duration as the string form it is written in
func (Duration) JSONSchema() (jsonschema.Schema, error) {
	return *schema.CreateStringSchema("Go duration such as 3s or 1m30s"), nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(value)
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", string(data))
	}
	return nil
}

// ValidationError describes the first invalid configuration field
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Message
	}
	return fmt.Sprintf("invalid configuration field %s: %s", e.Field, e.Message)
}
