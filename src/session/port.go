// Package session connects a presentation surface to the conversation
// history and a source of bot replies.
package session

import (
	"context"
	"time"

	"github.com/elee1766/chatbox/src/history"
)

// NoticeKind classifies a transient notice
type NoticeKind string

const (
	NoticeInfo  NoticeKind = "info"
	NoticeError NoticeKind = "error"
)

// HistoryItem is one row of the history panel.
type HistoryItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
	Preview   string    `json:"preview"`
	Current   bool      `json:"current,omitempty"`
}

// Handlers are the user actions a Port reports. Nil fields are ignored.
type Handlers struct {
	OnSend               func()
	OnNewConversation    func()
	OnHistoryToggle      func()
	OnSelectConversation func(id string)
	OnDeleteConversation func(id string)
	OnClearHistory       func()
	OnExportHistory      func()
}

// Port is the presentation surface the Controller drives.
type Port interface {
	AppendMessage(text string, sender history.Sender)
	ClearTranscript()
	InputText() string
	ClearInput()
	SetTitle(title string)
	ToggleHistoryPanel()
	HistoryPanelOpen() bool
	ShowNotice(text string, kind NoticeKind)
	RenderHistory(items []HistoryItem, currentID string)

	// RequestConfirmation asks the user a yes/no question. resolve is
	// called exactly once with the answer.
	RequestConfirmation(prompt string, resolve func(bool))

	// Download hands a named file to the user.
	Download(name string, data []byte) error

	// Bind registers the handlers for user actions, replacing any
	// previously bound.
	Bind(h Handlers)
}

// ResponseSource produces bot replies.
type ResponseSource interface {
	// LoadKnowledge prepares the source. It is the only call that may
	// suspend.
	LoadKnowledge(ctx context.Context) error

	Response(text string) string
}
