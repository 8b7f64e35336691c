package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/chatbox/src/history"
	"github.com/elee1766/chatbox/src/kv"
	"github.com/elee1766/chatbox/src/responder"
	"github.com/elee1766/chatbox/src/session"
)

var epoch = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type harness struct {
	term  *Terminal
	out   *bytes.Buffer
	fs    afero.Fs
	clock *clock
	store *history.Store
	ctrl  *session.Controller
}

func newHarness(t *testing.T, input string) *harness {
	t.Helper()
	h := &harness{
		out:   &bytes.Buffer{},
		fs:    afero.NewMemMapFs(),
		clock: &clock{now: epoch},
	}
	h.term = New(Config{
		In:        strings.NewReader(input),
		Out:       h.out,
		Fs:        h.fs,
		ExportDir: "/exports",
		Now:       h.clock.Now,
	})

	ids := 0
	h.store = history.New(kv.NewMemory(), history.Config{
		Now: func() time.Time {
			h.clock.now = h.clock.now.Add(time.Second)
			return h.clock.now
		},
		NewID: func() string {
			ids++
			return fmt.Sprintf("id-%03d", ids)
		},
	})
	h.ctrl = session.New(session.Config{
		Store:  h.store,
		Source: responder.NewStatic("**noted**"),
		Port:   h.term,
		Now:    h.clock.Now,
	})
	require.NoError(t, h.ctrl.Initialize(context.Background()))
	return h
}

func TestRunSendsMessages(t *testing.T) {
	h := newHarness(t, "hello there\n\n   \nsecond\n")

	require.NoError(t, h.term.Run(context.Background()))

	assert.Equal(t, []Entry{
		{"hello there", history.SenderUser},
		{"**noted**", history.SenderBot},
		{"second", history.SenderUser},
		{"**noted**", history.SenderBot},
	}, h.term.Transcript())
	assert.Equal(t, "hello there", h.term.Title())
	assert.Empty(t, h.term.InputText())
	assert.Contains(t, h.out.String(), "You: hello there")
}

func TestRunStopsOnQuit(t *testing.T) {
	h := newHarness(t, "/quit\nnever sent\n")

	require.NoError(t, h.term.Run(context.Background()))

	assert.True(t, h.term.Quit())
	assert.Empty(t, h.term.Transcript())
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t, "hello\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, h.term.Run(ctx), context.Canceled)
	assert.Empty(t, h.term.Transcript())
}

func TestCommands(t *testing.T) {
	h := newHarness(t, "")

	h.term.HandleLine("first question")
	first := h.store.CurrentID()

	h.term.HandleLine("/new")
	assert.Empty(t, h.term.Transcript())
	assert.Equal(t, 2, h.store.Len())

	h.term.HandleLine("/history")
	assert.True(t, h.term.HistoryPanelOpen())
	assert.Contains(t, h.out.String(), "first question")

	// most recent first: the new conversation is 1, the first one is 2
	h.term.HandleLine("/open 2")
	assert.Equal(t, first, h.store.CurrentID())
	assert.False(t, h.term.HistoryPanelOpen())
	assert.Len(t, h.term.Transcript(), 2)

	h.term.HandleLine("/delete " + first)
	assert.Equal(t, 2, h.store.Len())
	assert.NotEqual(t, first, h.store.CurrentID())
	assert.Empty(t, h.term.Transcript())
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"/bogus", "Unknown command /bogus"},
		{"/open", "Which conversation?"},
		{"/open 9", "No conversation number 9"},
		{"/delete 0", "No conversation number 0"},
		{"/open missing-id", "Conversation not found"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			h := newHarness(t, "")
			h.term.HandleLine(tt.line)

			n, ok := h.term.ActiveNotice()
			require.True(t, ok)
			assert.Equal(t, session.NoticeError, n.Kind)
			assert.Contains(t, n.Text, tt.want)
		})
	}
}

func TestClearConfirmation(t *testing.T) {
	t.Run("cancel keeps history", func(t *testing.T) {
		h := newHarness(t, "")
		h.term.HandleLine("keep")

		h.term.HandleLine("/clear")
		require.True(t, h.term.Pending())
		assert.Contains(t, h.out.String(), session.ClearHistoryPrompt+" [y/N]")

		h.term.HandleLine("no")
		assert.False(t, h.term.Pending())
		assert.Equal(t, 1, h.store.Len())
		assert.Len(t, h.term.Transcript(), 2)
	})

	t.Run("answer is not sent as a message", func(t *testing.T) {
		h := newHarness(t, "")
		h.term.HandleLine("drop")
		h.term.HandleLine("/new")

		h.term.HandleLine("/clear")
		h.term.HandleLine("yes")

		assert.Equal(t, 1, h.store.Len())
		conv, ok := h.store.CurrentConversation()
		require.True(t, ok)
		assert.Empty(t, conv.Messages)
		assert.Empty(t, h.term.Transcript())
	})

	t.Run("second request cancels the first", func(t *testing.T) {
		h := newHarness(t, "")
		var answers []bool
		h.term.RequestConfirmation("one?", func(ok bool) { answers = append(answers, ok) })
		h.term.RequestConfirmation("two?", func(ok bool) { answers = append(answers, ok) })
		h.term.HandleLine("y")

		assert.Equal(t, []bool{false, true}, answers)
	})
}

func TestExportWritesFile(t *testing.T) {
	h := newHarness(t, "")
	h.term.HandleLine("export this")

	h.term.HandleLine("/export")

	data, err := afero.ReadFile(h.fs, "/exports/chatbot_history_2026-10-18.json")
	require.NoError(t, err)

	var convs []history.Conversation
	require.NoError(t, json.Unmarshal(data, &convs))
	require.Len(t, convs, 1)
	assert.Equal(t, "export this", convs[0].Title)

	n, ok := h.term.ActiveNotice()
	require.True(t, ok)
	assert.Equal(t, "History exported", n.Text)
}

func TestNoticeExpires(t *testing.T) {
	h := newHarness(t, "")
	h.term.ShowNotice("saved", session.NoticeInfo)

	n, ok := h.term.ActiveNotice()
	require.True(t, ok)
	assert.Equal(t, "saved", n.Text)

	h.clock.now = h.clock.now.Add(DefaultNoticeDuration - time.Millisecond)
	_, ok = h.term.ActiveNotice()
	assert.True(t, ok)

	h.clock.now = h.clock.now.Add(time.Millisecond)
	_, ok = h.term.ActiveNotice()
	assert.False(t, ok)
}

func TestWelcomeNotice(t *testing.T) {
	h := newHarness(t, "")
	n, ok := h.term.ActiveNotice()
	require.True(t, ok)
	assert.Equal(t, session.DefaultWelcome, n.Text)
	assert.Equal(t, session.NoticeInfo, n.Kind)
}

func TestPlainOutputHasNoEscapes(t *testing.T) {
	h := newHarness(t, "")
	h.term.HandleLine("hello")
	assert.NotContains(t, h.out.String(), "\x1b[")
}

func TestHighlightMarkdown(t *testing.T) {
	out := highlightMarkdown("# Title\n\nsome *text*", "monokai")
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "Title")

	assert.Contains(t, highlightMarkdown("plain", "no-such-style"), "plain")
}

func TestWrap(t *testing.T) {
	assert.Equal(t, "one two\nthree", wrap("one two three", 8))
	assert.Equal(t, "unchanged", wrap("unchanged", 0))
}

func TestFormatDate(t *testing.T) {
	now := time.Date(2026, 10, 18, 15, 0, 0, 0, time.Local)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"today", time.Date(2026, 10, 18, 9, 5, 0, 0, time.Local), "09:05"},
		{"yesterday", time.Date(2026, 10, 17, 23, 59, 0, 0, time.Local), "Yesterday"},
		{"this week", time.Date(2026, 10, 14, 12, 0, 0, 0, time.Local), "4 days ago"},
		{"older", time.Date(2026, 9, 1, 12, 0, 0, 0, time.Local), "2026-09-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDate(tt.t, now))
		})
	}
}

func TestOpenWithClosedPanel(t *testing.T) {
	h := newHarness(t, "")

	h.term.HandleLine("first question")
	first := h.store.CurrentID()
	h.term.HandleLine("/new")

	require.False(t, h.term.HistoryPanelOpen())
	h.term.HandleLine("/open 2")

	assert.Equal(t, first, h.store.CurrentID())
	assert.False(t, h.term.HistoryPanelOpen())
	assert.Len(t, h.term.Transcript(), 2)
}

func TestTitleRedrawnAfterClear(t *testing.T) {
	h := newHarness(t, "")
	require.Equal(t, history.DefaultTitle, h.term.Title())

	h.out.Reset()
	h.term.HandleLine("/new")

	out := h.out.String()
	sep := strings.Index(out, strings.Repeat("─", DefaultWidth))
	require.GreaterOrEqual(t, sep, 0, out)
	assert.Contains(t, out[sep:], "# "+history.DefaultTitle)

	h.out.Reset()
	h.term.SetTitle(history.DefaultTitle)
	assert.Empty(t, h.out.String())
}
