package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/chatbox/src/history"
	"github.com/elee1766/chatbox/src/kv"
)

type notice struct {
	text string
	kind NoticeKind
}

type line struct {
	text   string
	sender history.Sender
}

// fakePort records everything the controller asks of it.
type fakePort struct {
	input       string
	transcript  []line
	title       string
	panelOpen   bool
	notices     []notice
	historyRows []HistoryItem
	renders     int
	downloads   map[string][]byte
	downloadErr error
	confirm     bool
	prompts     []string
	handlers    Handlers
}

func newFakePort() *fakePort {
	return &fakePort{downloads: map[string][]byte{}}
}

func (p *fakePort) AppendMessage(text string, sender history.Sender) {
	p.transcript = append(p.transcript, line{text, sender})
}
func (p *fakePort) ClearTranscript()       { p.transcript = nil }
func (p *fakePort) InputText() string      { return p.input }
func (p *fakePort) ClearInput()            { p.input = "" }
func (p *fakePort) SetTitle(title string)  { p.title = title }
func (p *fakePort) ToggleHistoryPanel()    { p.panelOpen = !p.panelOpen }
func (p *fakePort) HistoryPanelOpen() bool { return p.panelOpen }
func (p *fakePort) ShowNotice(text string, kind NoticeKind) {
	p.notices = append(p.notices, notice{text, kind})
}
func (p *fakePort) RenderHistory(items []HistoryItem, _ string) {
	p.historyRows = items
	p.renders++
}
func (p *fakePort) RequestConfirmation(prompt string, resolve func(bool)) {
	p.prompts = append(p.prompts, prompt)
	resolve(p.confirm)
}
func (p *fakePort) Download(name string, data []byte) error {
	if p.downloadErr != nil {
		return p.downloadErr
	}
	p.downloads[name] = data
	return nil
}
func (p *fakePort) Bind(h Handlers) { p.handlers = h }

func (p *fakePort) lastNotice() notice {
	if len(p.notices) == 0 {
		return notice{}
	}
	return p.notices[len(p.notices)-1]
}

func (p *fakePort) send(text string) {
	p.input = text
	p.handlers.OnSend()
}

type echoSource struct {
	loadErr error
	asked   []string
}

func (s *echoSource) LoadKnowledge(context.Context) error { return s.loadErr }

func (s *echoSource) Response(text string) string {
	s.asked = append(s.asked, text)
	return "echo: " + text
}

var epoch = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func newTestStore(backend kv.Store, prefix string) *history.Store {
	tick, ids := 0, 0
	return history.New(backend, history.Config{
		Now: func() time.Time {
			tick++
			return epoch.Add(time.Duration(tick) * time.Second)
		},
		NewID: func() string {
			ids++
			return fmt.Sprintf("%s-%03d", prefix, ids)
		},
	})
}

type fixture struct {
	store  *history.Store
	source *echoSource
	port   *fakePort
	ctrl   *Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  newTestStore(kv.NewMemory(), "id"),
		source: &echoSource{},
		port:   newFakePort(),
	}
	f.ctrl = New(Config{
		Store:  f.store,
		Source: f.source,
		Port:   f.port,
		Now:    func() time.Time { return epoch },
	})
	return f
}

func (f *fixture) init(t *testing.T) {
	t.Helper()
	require.NoError(t, f.ctrl.Initialize(context.Background()))
}

func TestInitialize(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, StateUninitialized, f.ctrl.State())

	f.init(t)

	assert.Equal(t, StateReady, f.ctrl.State())
	assert.Equal(t, history.DefaultTitle, f.port.title)
	assert.Equal(t, []notice{{DefaultWelcome, NoticeInfo}}, f.port.notices)
	assert.Equal(t, 1, f.store.Len())
	assert.NotEmpty(t, f.store.CurrentID())
	require.Len(t, f.port.historyRows, 1)
	assert.True(t, f.port.historyRows[0].Current)
	assert.Equal(t, NoMessages, f.port.historyRows[0].Preview)

	assert.ErrorIs(t, f.ctrl.Initialize(context.Background()), ErrAlreadyInitialized)
}

func TestInitializeKeepsStoredHistory(t *testing.T) {
	backend := kv.NewMemory()
	seed := newTestStore(backend, "seed")
	seed.Initialize()
	seed.AddMessage("earlier question", history.SenderUser)

	port := newFakePort()
	ctrl := New(Config{Store: newTestStore(backend, "id"), Source: &echoSource{}, Port: port})
	require.NoError(t, ctrl.Initialize(context.Background()))

	// the pointer is not persisted, so a fresh conversation is started
	assert.Len(t, port.historyRows, 2)
	assert.Equal(t, history.DefaultTitle, port.title)
}

func TestInitializeLoadFailure(t *testing.T) {
	f := newFixture(t)
	f.source.loadErr = errors.New("knowledge unreachable")

	err := f.ctrl.Initialize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, f.source.loadErr)

	require.Len(t, f.port.notices, 1)
	assert.Equal(t, NoticeError, f.port.notices[0].kind)

	// still usable
	assert.Equal(t, StateReady, f.ctrl.State())
	f.port.send("hello")
	assert.Len(t, f.port.transcript, 2)
}

func TestSend(t *testing.T) {
	f := newFixture(t)
	f.init(t)

	f.port.send("  What do you offer?  ")

	assert.Equal(t, []line{
		{"What do you offer?", history.SenderUser},
		{"echo: What do you offer?", history.SenderBot},
	}, f.port.transcript)
	assert.Equal(t, []string{"What do you offer?"}, f.source.asked)
	assert.Empty(t, f.port.input)
	assert.Equal(t, "What do you offer?", f.port.title)

	conv, ok := f.store.CurrentConversation()
	require.True(t, ok)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, history.SenderUser, conv.Messages[0].Sender)
	assert.Equal(t, history.SenderBot, conv.Messages[1].Sender)

	require.Len(t, f.port.historyRows, 1)
	assert.Equal(t, "echo: What do you offer?", f.port.historyRows[0].Preview)
}

func TestSendBlankIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.init(t)
	renders := f.port.renders

	for _, in := range []string{"", "   ", "\t\n"} {
		f.port.send(in)
	}

	assert.Empty(t, f.port.transcript)
	assert.Empty(t, f.source.asked)
	assert.Equal(t, renders, f.port.renders)
	conv, _ := f.store.CurrentConversation()
	assert.Empty(t, conv.Messages)
}

func TestNewConversation(t *testing.T) {
	f := newFixture(t)
	f.init(t)
	f.port.send("first")
	first := f.store.CurrentID()

	f.port.handlers.OnNewConversation()

	assert.Empty(t, f.port.transcript)
	assert.Equal(t, history.DefaultTitle, f.port.title)
	assert.Equal(t, notice{"New conversation started", NoticeInfo}, f.port.lastNotice())
	assert.NotEqual(t, first, f.store.CurrentID())
	assert.Equal(t, 2, f.store.Len())
}

func TestHistoryToggle(t *testing.T) {
	f := newFixture(t)
	f.init(t)

	f.port.handlers.OnHistoryToggle()
	assert.True(t, f.port.panelOpen)
	f.port.handlers.OnHistoryToggle()
	assert.False(t, f.port.panelOpen)
}

func TestSelectConversationReplaysMessages(t *testing.T) {
	f := newFixture(t)
	f.init(t)
	f.port.send("about the mission")
	first := f.store.CurrentID()
	f.port.handlers.OnNewConversation()
	f.port.send("something else")

	f.port.panelOpen = true
	f.port.handlers.OnSelectConversation(first)

	assert.Equal(t, first, f.store.CurrentID())
	assert.Equal(t, []line{
		{"about the mission", history.SenderUser},
		{"echo: about the mission", history.SenderBot},
	}, f.port.transcript)
	assert.Equal(t, "about the mission", f.port.title)
	assert.Equal(t, notice{`Conversation "about the mission" loaded`, NoticeInfo}, f.port.lastNotice())
	assert.False(t, f.port.panelOpen)

	for _, row := range f.port.historyRows {
		assert.Equal(t, row.ID == first, row.Current, row.ID)
	}
}

func TestSelectConversationKeepsClosedPanelClosed(t *testing.T) {
	f := newFixture(t)
	f.init(t)
	f.port.send("first topic")
	first := f.store.CurrentID()
	f.port.handlers.OnNewConversation()

	require.False(t, f.port.panelOpen)
	f.port.handlers.OnSelectConversation(first)

	assert.Equal(t, first, f.store.CurrentID())
	assert.False(t, f.port.panelOpen)
}

func TestSelectUnknownConversation(t *testing.T) {
	f := newFixture(t)
	f.init(t)
	current := f.store.CurrentID()

	f.port.handlers.OnSelectConversation("missing")

	assert.Equal(t, current, f.store.CurrentID())
	assert.Equal(t, NoticeError, f.port.lastNotice().kind)
}

func TestDeleteConversation(t *testing.T) {
	t.Run("current", func(t *testing.T) {
		f := newFixture(t)
		f.init(t)
		f.port.send("to be removed")
		doomed := f.store.CurrentID()

		f.port.handlers.OnDeleteConversation(doomed)

		assert.Equal(t, 1, f.store.Len())
		assert.NotEqual(t, doomed, f.store.CurrentID())
		assert.Empty(t, f.port.transcript)
		assert.Equal(t, history.DefaultTitle, f.port.title)
		assert.Equal(t, notice{"Conversation deleted", NoticeInfo}, f.port.lastNotice())
	})

	t.Run("other", func(t *testing.T) {
		f := newFixture(t)
		f.init(t)
		f.port.send("old one")
		old := f.store.CurrentID()
		f.port.handlers.OnNewConversation()
		f.port.send("new one")
		current := f.store.CurrentID()

		f.port.handlers.OnDeleteConversation(old)

		assert.Equal(t, 1, f.store.Len())
		assert.Equal(t, current, f.store.CurrentID())
		assert.Len(t, f.port.transcript, 2)
		require.Len(t, f.port.historyRows, 1)
		assert.Equal(t, current, f.port.historyRows[0].ID)
	})

	t.Run("unknown", func(t *testing.T) {
		f := newFixture(t)
		f.init(t)

		f.port.handlers.OnDeleteConversation("missing")

		assert.Equal(t, 1, f.store.Len())
		assert.Equal(t, NoticeError, f.port.lastNotice().kind)
	})
}

func TestClearHistory(t *testing.T) {
	t.Run("cancelled", func(t *testing.T) {
		f := newFixture(t)
		f.init(t)
		f.port.send("keep me")
		f.port.confirm = false

		f.port.handlers.OnClearHistory()

		assert.Equal(t, []string{ClearHistoryPrompt}, f.port.prompts)
		assert.Equal(t, 1, f.store.Len())
		assert.Len(t, f.port.transcript, 2)
	})

	t.Run("confirmed", func(t *testing.T) {
		f := newFixture(t)
		f.init(t)
		f.port.send("drop me")
		f.port.handlers.OnNewConversation()
		f.port.confirm = true

		f.port.handlers.OnClearHistory()

		assert.Equal(t, 1, f.store.Len())
		conv, ok := f.store.CurrentConversation()
		require.True(t, ok)
		assert.Empty(t, conv.Messages)
		assert.Empty(t, f.port.transcript)
		assert.Equal(t, notice{"History cleared", NoticeInfo}, f.port.lastNotice())
	})
}

func TestExportHistory(t *testing.T) {
	f := newFixture(t)
	f.init(t)
	f.port.send("export me")

	f.port.handlers.OnExportHistory()

	data, ok := f.port.downloads["chatbot_history_2026-10-18.json"]
	require.True(t, ok)
	assert.Contains(t, string(data), `"export me"`)
	assert.Equal(t, notice{"History exported", NoticeInfo}, f.port.lastNotice())

	f.port.downloadErr = errors.New("disk full")
	f.port.handlers.OnExportHistory()
	assert.Equal(t, NoticeError, f.port.lastNotice().kind)
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name     string
		messages []history.Message
		want     string
	}{
		{name: "empty", want: NoMessages},
		{name: "short", messages: []history.Message{{Content: "hi"}}, want: "hi"},
		{
			name:     "last message wins",
			messages: []history.Message{{Content: "first"}, {Content: "second"}},
			want:     "second",
		},
		{
			name:     "truncated",
			messages: []history.Message{{Content: strings.Repeat("x", 60)}},
			want:     strings.Repeat("x", 50) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Preview(&history.Conversation{Messages: tt.messages}))
		})
	}
}
