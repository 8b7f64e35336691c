package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/elee1766/chatbox/src/history"
)

const (
	DefaultWelcome = "Hi! I'm the virtual assistant. Ask me about our mission, projects, services and more. How can I help you?"

	PreviewLength = 50
	NoMessages    = "No messages"

	noticeInitFailed      = "Failed to initialize the chat"
	noticeNewConversation = "New conversation started"
	noticeHistoryCleared  = "History cleared"
	noticeHistoryExported = "History exported"
	noticeExportFailed    = "Failed to export history"
	noticeDeleted         = "Conversation deleted"
	noticeNotFound        = "Conversation not found"

	ClearHistoryPrompt = "Delete the whole history? This cannot be undone."
)

// ErrAlreadyInitialized is returned by a second call to Initialize.
var ErrAlreadyInitialized = errors.New("session already initialized")

// State is the lifecycle state of a Controller
type State int

const (
	StateUninitialized State = iota
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config holds the collaborators of a Controller
type Config struct {
	Store   *history.Store
	Source  ResponseSource
	Port    Port
	Logger  *slog.Logger
	Welcome string
	Now     func() time.Time
}

// Controller mediates between the Port, the history Store and the
// ResponseSource. All handlers run to completion on the caller's goroutine.
type Controller struct {
	store   *history.Store
	source  ResponseSource
	port    Port
	logger  *slog.Logger
	welcome string
	now     func() time.Time
	state   State
}

func New(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Welcome == "" {
		cfg.Welcome = DefaultWelcome
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Controller{
		store:   cfg.Store,
		source:  cfg.Source,
		port:    cfg.Port,
		logger:  logger.With("component", "session"),
		welcome: cfg.Welcome,
		now:     cfg.Now,
	}
}

// State returns the lifecycle state
func (c *Controller) State() State {
	return c.state
}

// Initialize loads the response source and the history, makes sure a
// conversation is current, binds the port handlers and greets the user.
// When the source fails to load the session is still usable: one error
// notice replaces the greeting and the error is returned.
func (c *Controller) Initialize(ctx context.Context) error {
	if c.state != StateUninitialized {
		return ErrAlreadyInitialized
	}

	loadErr := c.source.LoadKnowledge(ctx)
	if loadErr != nil {
		c.logger.Error("failed to load knowledge", "error", loadErr)
	}

	c.store.Initialize()
	conv, ok := c.store.CurrentConversation()
	if !ok {
		conv = c.store.CreateConversation()
	}
	c.port.SetTitle(conv.Title)

	c.port.Bind(Handlers{
		OnSend:               c.OnSend,
		OnNewConversation:    c.OnNewConversation,
		OnHistoryToggle:      c.OnHistoryToggle,
		OnSelectConversation: c.OnSelectConversation,
		OnDeleteConversation: c.OnDeleteConversation,
		OnClearHistory:       c.OnClearHistory,
		OnExportHistory:      c.OnExportHistory,
	})
	c.store.Subscribe(history.Callbacks{
		OnChange: c.RenderHistory,
		OnSelect: c.OnLoadConversation,
	})
	c.RenderHistory()
	c.state = StateReady

	if loadErr != nil {
		c.port.ShowNotice(noticeInitFailed, NoticeError)
		return fmt.Errorf("failed to initialize chat: %w", loadErr)
	}

	c.port.ShowNotice(c.welcome, NoticeInfo)
	c.logger.Info("session ready", "conversation", conv.ID)
	return nil
}

// OnSend records the input text and the reply to it.
func (c *Controller) OnSend() {
	text := strings.TrimSpace(c.port.InputText())
	if text == "" {
		return
	}

	if _, err := c.store.AddMessage(text, history.SenderUser); err != nil {
		c.logger.Error("failed to record message", "error", err)
		return
	}
	c.port.AppendMessage(text, history.SenderUser)

	reply := c.source.Response(text)

	if _, err := c.store.AddMessage(reply, history.SenderBot); err != nil {
		c.logger.Error("failed to record reply", "error", err)
		return
	}
	c.port.AppendMessage(reply, history.SenderBot)
	c.port.ClearInput()

	c.refreshTitle()
}

// OnNewConversation starts an empty conversation.
func (c *Controller) OnNewConversation() {
	conv := c.store.CreateConversation()
	c.port.ClearTranscript()
	c.port.SetTitle(conv.Title)
	c.port.ShowNotice(noticeNewConversation, NoticeInfo)
}

// OnHistoryToggle shows or hides the history panel.
func (c *Controller) OnHistoryToggle() {
	c.port.ToggleHistoryPanel()
}

// OnLoadConversation replays conv into the transcript.
func (c *Controller) OnLoadConversation(conv *history.Conversation) {
	c.port.ClearTranscript()
	for _, m := range conv.Messages {
		c.port.AppendMessage(m.Content, m.Sender)
	}
	c.port.SetTitle(conv.Title)
	c.port.ShowNotice(fmt.Sprintf("Conversation %q loaded", conv.Title), NoticeInfo)

	// the current marker moved
	c.RenderHistory()
}

// OnSelectConversation opens the conversation picked in the history panel
// and closes the panel if it is open.
func (c *Controller) OnSelectConversation(id string) {
	if _, ok := c.store.SelectConversation(id); !ok {
		c.port.ShowNotice(noticeNotFound, NoticeError)
		return
	}
	if c.port.HistoryPanelOpen() {
		c.port.ToggleHistoryPanel()
	}
}

// OnDeleteConversation removes id. Deleting the current conversation
// replaces it with a new empty one.
func (c *Controller) OnDeleteConversation(id string) {
	known := false
	for _, conv := range c.store.List() {
		if conv.ID == id {
			known = true
			break
		}
	}
	if !known {
		c.port.ShowNotice(noticeNotFound, NoticeError)
		return
	}

	if conv, replaced := c.store.DeleteConversation(id); replaced {
		c.port.ClearTranscript()
		c.port.SetTitle(conv.Title)
	}
	c.port.ShowNotice(noticeDeleted, NoticeInfo)
}

// OnClearHistory asks for confirmation and empties the history.
func (c *Controller) OnClearHistory() {
	c.port.RequestConfirmation(ClearHistoryPrompt, func(confirmed bool) {
		if !c.store.ClearAll(confirmed) {
			return
		}
		conv := c.store.CreateConversation()
		c.port.ClearTranscript()
		c.port.SetTitle(conv.Title)
		c.port.ShowNotice(noticeHistoryCleared, NoticeInfo)
	})
}

// OnExportHistory hands the whole history to the user as a JSON file.
func (c *Controller) OnExportHistory() {
	var buf bytes.Buffer
	if err := c.store.Export(&buf); err != nil {
		c.logger.Error("failed to export history", "error", err)
		c.port.ShowNotice(noticeExportFailed, NoticeError)
		return
	}

	name := history.ExportFilename(c.now())
	if err := c.port.Download(name, buf.Bytes()); err != nil {
		c.logger.Error("failed to save export", "file", name, "error", err)
		c.port.ShowNotice(noticeExportFailed, NoticeError)
		return
	}

	c.logger.Info("history exported", "file", name)
	c.port.ShowNotice(noticeHistoryExported, NoticeInfo)
}

// RenderHistory redraws the history panel, most recent first.
func (c *Controller) RenderHistory() {
	c.port.RenderHistory(HistoryItems(c.store), c.store.CurrentID())
}

// HistoryItems builds the history panel rows for store.
func HistoryItems(store *history.Store) []HistoryItem {
	currentID := store.CurrentID()
	recent := store.Recent()
	items := make([]HistoryItem, 0, len(recent))
	for _, conv := range recent {
		items = append(items, HistoryItem{
			ID:        conv.ID,
			Title:     conv.Title,
			UpdatedAt: conv.UpdatedAt,
			Preview:   Preview(conv),
			Current:   conv.ID == currentID,
		})
	}
	return items
}

// Preview is the first characters of the last message of conv.
func Preview(conv *history.Conversation) string {
	last, ok := conv.LastMessage()
	if !ok {
		return NoMessages
	}
	return history.Truncate(last.Content, PreviewLength)
}

func (c *Controller) refreshTitle() {
	if conv, ok := c.store.CurrentConversation(); ok {
		c.port.SetTitle(conv.Title)
	}
}
