// Package history owns the conversation list and the current conversation
// pointer, and persists both through a kv.Store.
//
// The store is single-threaded by design of its callers: every operation runs
// to completion on the session's event loop, so it carries no locks. Every
// mutation rewrites the full serialized conversation set under one key.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/elee1766/chatbox/src/kv"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	DefaultStorageKey       = "chatbot_conversations"
	DefaultMaxConversations = 50
	DefaultTitleLength      = 30
	DefaultTitle            = "New Conversation"
)

var (
	// ErrInvalidHistory is returned when a serialized history cannot be
	// decoded or fails validation
	ErrInvalidHistory = errors.New("invalid history data")

	// ErrInvalidSender is returned for a message whose sender is neither
	// user nor bot
	ErrInvalidSender = errors.New("invalid sender")
)

// Config configures a Store. Zero values fall back to the package defaults.
type Config struct {
	StorageKey       string
	MaxConversations int
	TitleLength      int
	DefaultTitle     string
	Logger           *slog.Logger

	// Now and NewID are overridable for tests
	Now   func() time.Time
	NewID func() string
}

// Store is the conversation history
type Store struct {
	kv       kv.Store
	cfg      Config
	logger   *slog.Logger
	validate *validator.Validate

	conversations []*Conversation
	currentID     string
	callbacks     []Callbacks
	persistErr    error
}

// New creates a Store persisting into store. Call Initialize before use.
func New(store kv.Store, cfg Config) *Store {
	if cfg.StorageKey == "" {
		cfg.StorageKey = DefaultStorageKey
	}
	if cfg.MaxConversations <= 0 {
		cfg.MaxConversations = DefaultMaxConversations
	}
	if cfg.TitleLength <= 0 {
		cfg.TitleLength = DefaultTitleLength
	}
	if cfg.DefaultTitle == "" {
		cfg.DefaultTitle = DefaultTitle
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.New().String() }
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		kv:            store,
		cfg:           cfg,
		logger:        logger.With("component", "history"),
		validate:      validator.New(),
		conversations: []*Conversation{},
	}
}

// Subscribe registers callbacks for history events
func (s *Store) Subscribe(cb Callbacks) {
	s.callbacks = append(s.callbacks, cb)
}

// Initialize loads the persisted history. Unreadable or invalid data resets
// the store to an empty set; it never leaves partial state behind. The
// current pointer always starts unset.
func (s *Store) Initialize() {
	s.conversations = s.load()
	s.currentID = ""
	s.evictOverflow()
	s.logger.Debug("history loaded", "conversations", len(s.conversations))
}

func (s *Store) load() []*Conversation {
	raw, found, err := s.kv.Get(s.cfg.StorageKey)
	if err != nil {
		s.logger.Warn("failed to read history", "key", s.cfg.StorageKey, "error", err)
		return []*Conversation{}
	}
	if !found || raw == "" {
		return []*Conversation{}
	}

	convs, err := s.decode([]byte(raw))
	if err != nil {
		s.logger.Warn("discarding unreadable history", "key", s.cfg.StorageKey, "error", err)
		return []*Conversation{}
	}
	return convs
}

func (s *Store) decode(data []byte) ([]*Conversation, error) {
	var convs []*Conversation
	if err := json.Unmarshal(data, &convs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHistory, err)
	}

	seen := make(map[string]struct{}, len(convs))
	out := make([]*Conversation, 0, len(convs))
	for i, c := range convs {
		if c == nil {
			return nil, fmt.Errorf("%w: conversation %d is null", ErrInvalidHistory, i)
		}
		if err := s.validate.Struct(c); err != nil {
			return nil, fmt.Errorf("%w: conversation %d: %v", ErrInvalidHistory, i, err)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate conversation id %s", ErrInvalidHistory, c.ID)
		}
		seen[c.ID] = struct{}{}
		if c.Messages == nil {
			c.Messages = []Message{}
		}
		out = append(out, c)
	}
	return out, nil
}

// persist overwrites the stored blob with the full conversation set.
// Failures are logged and swallowed.
func (s *Store) persist() {
	s.evictOverflow()

	data, err := json.Marshal(s.conversations)
	if err != nil {
		s.persistErr = fmt.Errorf("failed to serialize history: %w", err)
		s.logger.Warn("failed to serialize history", "error", err)
		return
	}
	if err := s.kv.Set(s.cfg.StorageKey, string(data)); err != nil {
		s.persistErr = fmt.Errorf("failed to write history: %w", err)
		s.logger.Warn("failed to write history", "key", s.cfg.StorageKey, "error", err)
		return
	}
	s.persistErr = nil
}

// LastPersistError returns the error of the most recent write, or nil when
// it succeeded. Writes never fail an operation; one-shot callers use this to
// report them.
func (s *Store) LastPersistError() error {
	return s.persistErr
}

// evictOverflow drops the oldest inserted conversations beyond the limit
func (s *Store) evictOverflow() {
	overflow := len(s.conversations) - s.cfg.MaxConversations
	if overflow <= 0 {
		return
	}
	for _, c := range s.conversations[:overflow] {
		s.logger.Debug("evicting conversation", "id", c.ID)
	}
	s.conversations = append([]*Conversation{}, s.conversations[overflow:]...)
	if s.currentID != "" && s.index(s.currentID) < 0 {
		s.currentID = ""
	}
}

func (s *Store) index(id string) int {
	for i, c := range s.conversations {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) current() *Conversation {
	if s.currentID == "" {
		return nil
	}
	if i := s.index(s.currentID); i >= 0 {
		return s.conversations[i]
	}
	return nil
}

// CreateConversation starts an empty conversation and makes it current
func (s *Store) CreateConversation() *Conversation {
	c := s.createConversation()
	s.notifyChanged()
	return c.clone()
}

func (s *Store) createConversation() *Conversation {
	now := s.cfg.Now()
	c := &Conversation{
		ID:        s.cfg.NewID(),
		Title:     s.cfg.DefaultTitle,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.conversations = append(s.conversations, c)
	s.currentID = c.ID
	s.persist()

	s.logger.Debug("conversation created", "id", c.ID)
	return c
}

// AddMessage appends a message to the current conversation, creating one
// first when there is none. The first user message sets the title. A message
// with an unknown sender is rejected and nothing changes.
func (s *Store) AddMessage(content string, sender Sender) (Message, error) {
	if !sender.Valid() {
		return Message{}, fmt.Errorf("%w: %q", ErrInvalidSender, sender)
	}

	c := s.current()
	if c == nil {
		c = s.createConversation()
	}

	now := s.cfg.Now()
	msg := Message{
		ID:        s.cfg.NewID(),
		Content:   content,
		Sender:    sender,
		Timestamp: now,
	}
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = now

	if sender == SenderUser && c.userMessages() == 1 {
		c.Title = Truncate(content, s.cfg.TitleLength)
	}

	s.persist()
	s.notifyChanged()
	return msg, nil
}

// CurrentConversation returns the conversation the current pointer
// references
func (s *Store) CurrentConversation() (*Conversation, bool) {
	c := s.current()
	if c == nil {
		return nil, false
	}
	return c.clone(), true
}

// CurrentID returns the current pointer, or "" when unset
func (s *Store) CurrentID() string {
	return s.currentID
}

// LoadConversation makes id current. On a miss the pointer is unchanged.
func (s *Store) LoadConversation(id string) (*Conversation, bool) {
	i := s.index(id)
	if i < 0 {
		return nil, false
	}
	s.currentID = id
	return s.conversations[i].clone(), true
}

// SelectConversation loads id and announces the selection to subscribers
func (s *Store) SelectConversation(id string) (*Conversation, bool) {
	c, ok := s.LoadConversation(id)
	if !ok {
		return nil, false
	}
	for _, cb := range s.callbacks {
		cb.selected(c.clone())
	}
	return c, true
}

// DeleteConversation removes id. When id was current, a replacement
// conversation is created, made current and returned.
func (s *Store) DeleteConversation(id string) (*Conversation, bool) {
	i := s.index(id)
	if i < 0 {
		return nil, false
	}

	s.conversations = append(s.conversations[:i], s.conversations[i+1:]...)
	s.persist()
	s.logger.Debug("conversation deleted", "id", id)

	if id != s.currentID {
		s.notifyChanged()
		return nil, false
	}

	s.currentID = ""
	c := s.createConversation()
	s.notifyChanged()
	return c.clone(), true
}

// ClearAll empties the history when confirmed is true. The decision is made
// by the caller, usually by asking the user. It reports whether anything was
// cleared.
func (s *Store) ClearAll(confirmed bool) bool {
	if !confirmed {
		return false
	}

	s.conversations = []*Conversation{}
	s.currentID = ""
	s.persist()
	s.notifyChanged()

	s.logger.Info("history cleared")
	return true
}

// List returns all conversations in insertion order
func (s *Store) List() []*Conversation {
	out := make([]*Conversation, len(s.conversations))
	for i, c := range s.conversations {
		out[i] = c.clone()
	}
	return out
}

// Recent returns all conversations, most recently updated first
func (s *Store) Recent() []*Conversation {
	out := s.List()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Len returns the number of stored conversations
func (s *Store) Len() int {
	return len(s.conversations)
}

func (s *Store) notifyChanged() {
	for _, cb := range s.callbacks {
		cb.changed()
	}
}
