// Package tui implements the chat presentation on a line-oriented terminal.
package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/spf13/afero"

	"github.com/elee1766/chatbox/src/history"
	"github.com/elee1766/chatbox/src/session"
	"github.com/elee1766/chatbox/src/theme"
	"github.com/elee1766/chatbox/src/tui/components/dialog"
)

const (
	DefaultWidth          = 80
	DefaultNoticeDuration = 3 * time.Second

	helpText = `Commands:
  /new            start a new conversation
  /history        show or hide the history panel
  /open <n|id>    open a conversation from the history panel
  /delete <n|id>  delete a conversation
  /clear          delete the whole history
  /export         save the history as JSON
  /help           show this help
  /quit           leave the chat
Anything else is sent as a message.`
)

var _ session.Port = (*Terminal)(nil)

// Config configures a Terminal
type Config struct {
	In  io.Reader
	Out io.Writer

	// Fs and ExportDir receive downloads
	Fs        afero.Fs
	ExportDir string

	Width          int
	NoticeDuration time.Duration
	Theme          theme.Theme

	// Plain disables syntax highlighting even on a color terminal
	Plain bool

	Now    func() time.Time
	Logger *slog.Logger
}

// Entry is one line of the transcript
type Entry struct {
	Text   string
	Sender history.Sender
}

// Notice is a transient status message
type Notice struct {
	Text    string
	Kind    session.NoticeKind
	Expires time.Time
}

// Terminal is a session.Port over a reader and a writer. Run reads lines
// and dispatches them to the bound handlers on the calling goroutine.
type Terminal struct {
	cfg       Config
	scanner   *bufio.Scanner
	out       io.Writer
	styles    palette
	highlight bool
	logger    *slog.Logger

	handlers   session.Handlers
	input      string
	title      string
	titleShown bool
	panelOpen  bool
	items      []session.HistoryItem
	currentID  string
	transcript []Entry
	notice     *Notice
	confirm    *dialog.Confirm
	quit       bool
}

// New creates a Terminal
func New(cfg Config) *Terminal {
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.NoticeDuration <= 0 {
		cfg.NoticeDuration = DefaultNoticeDuration
	}
	if cfg.Theme.Name == "" {
		cfg.Theme = theme.Default()
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = "."
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.In == nil {
		cfg.In = strings.NewReader("")
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	renderer := lipgloss.NewRenderer(cfg.Out)
	return &Terminal{
		cfg:       cfg,
		scanner:   bufio.NewScanner(cfg.In),
		out:       cfg.Out,
		styles:    newPalette(renderer, cfg.Theme),
		highlight: !cfg.Plain && renderer.ColorProfile() != termenv.Ascii,
		logger:    logger.With("component", "terminal"),
	}
}

// Run reads input until EOF, /quit or ctx is done.
func (t *Terminal) Run(ctx context.Context) error {
	t.printf("%s\n", t.styles.muted.Render("Type /help for commands."))
	for !t.quit {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.prompt()
		if !t.scanner.Scan() {
			if err := t.scanner.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			return nil
		}
		t.HandleLine(t.scanner.Text())
	}
	return nil
}

// HandleLine processes one line of user input.
func (t *Terminal) HandleLine(line string) {
	if t.confirm != nil {
		d := t.confirm
		t.confirm = nil
		d.Resolve(line)
		return
	}

	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "/") {
		t.command(trimmed)
		return
	}

	t.input = line
	call(t.handlers.OnSend)
}

func (t *Terminal) command(line string) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/new":
		call(t.handlers.OnNewConversation)
	case "/history":
		call(t.handlers.OnHistoryToggle)
	case "/open":
		if id, ok := t.resolveTarget(arg); ok && t.handlers.OnSelectConversation != nil {
			t.handlers.OnSelectConversation(id)
		}
	case "/delete":
		if id, ok := t.resolveTarget(arg); ok && t.handlers.OnDeleteConversation != nil {
			t.handlers.OnDeleteConversation(id)
		}
	case "/clear":
		call(t.handlers.OnClearHistory)
	case "/export":
		call(t.handlers.OnExportHistory)
	case "/help":
		t.printf("%s\n", helpText)
	case "/quit", "/exit":
		t.quit = true
	default:
		t.ShowNotice(fmt.Sprintf("Unknown command %s, try /help", name), session.NoticeError)
	}
}

// resolveTarget maps a 1-based history panel position or a conversation
// id to an id.
func (t *Terminal) resolveTarget(arg string) (string, bool) {
	if arg == "" {
		t.ShowNotice("Which conversation? Give its number from /history or its id", session.NoticeError)
		return "", false
	}
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(t.items) {
			t.ShowNotice(fmt.Sprintf("No conversation number %d", n), session.NoticeError)
			return "", false
		}
		return t.items[n-1].ID, true
	}
	return arg, true
}

func (t *Terminal) prompt() {
	if n, ok := t.ActiveNotice(); ok {
		t.printf("%s ", t.styles.notice(n.Kind).Render("["+n.Text+"]"))
	}
	t.printf("%s ", t.styles.user.Render(">"))
}

// Quit reports whether the user asked to leave
func (t *Terminal) Quit() bool {
	return t.quit
}

// ActiveNotice returns the last notice while it has not expired
func (t *Terminal) ActiveNotice() (Notice, bool) {
	if t.notice == nil || !t.cfg.Now().Before(t.notice.Expires) {
		return Notice{}, false
	}
	return *t.notice, true
}

// Transcript returns the visible conversation
func (t *Terminal) Transcript() []Entry {
	return append([]Entry(nil), t.transcript...)
}

// Title returns the displayed conversation title
func (t *Terminal) Title() string {
	return t.title
}

// HistoryPanelOpen reports whether the history panel is shown
func (t *Terminal) HistoryPanelOpen() bool {
	return t.panelOpen
}

// Pending reports whether a confirmation is waiting for an answer
func (t *Terminal) Pending() bool {
	return t.confirm != nil && !t.confirm.Done()
}

// session.Port

func (t *Terminal) AppendMessage(text string, sender history.Sender) {
	t.transcript = append(t.transcript, Entry{Text: text, Sender: sender})

	if sender == history.SenderUser {
		t.printf("%s %s\n", t.styles.user.Render("You:"), wrap(text, t.cfg.Width-5))
		return
	}

	body := text
	if t.highlight {
		body = highlightMarkdown(body, t.styles.codeName)
	}
	t.printf("%s\n%s\n", t.styles.bot.Render("Bot:"), wrap(body, t.cfg.Width))
}

func (t *Terminal) ClearTranscript() {
	t.transcript = nil
	t.titleShown = false
	t.printf("%s\n", t.styles.muted.Render(strings.Repeat("─", t.cfg.Width)))
}

func (t *Terminal) InputText() string {
	return t.input
}

func (t *Terminal) ClearInput() {
	t.input = ""
}

func (t *Terminal) SetTitle(title string) {
	if title == t.title && t.titleShown {
		return
	}
	t.title = title
	t.titleShown = true
	t.printf("%s\n", t.styles.title.Render("# "+ansi.Truncate(title, t.cfg.Width-2, "…")))
}

func (t *Terminal) ToggleHistoryPanel() {
	t.panelOpen = !t.panelOpen
	if t.panelOpen {
		t.drawHistory()
	}
}

func (t *Terminal) ShowNotice(text string, kind session.NoticeKind) {
	t.notice = &Notice{
		Text:    text,
		Kind:    kind,
		Expires: t.cfg.Now().Add(t.cfg.NoticeDuration),
	}
	t.printf("%s\n", t.styles.notice(kind).Render(text))
}

func (t *Terminal) RenderHistory(items []session.HistoryItem, currentID string) {
	t.items = items
	t.currentID = currentID
	if t.panelOpen {
		t.drawHistory()
	}
}

func (t *Terminal) RequestConfirmation(prompt string, resolve func(bool)) {
	if t.confirm != nil {
		t.confirm.Close()
	}
	t.confirm = dialog.NewConfirm(prompt, resolve)
	t.printf("%s\n", t.confirm.View(t.styles.dialog))
}

func (t *Terminal) Download(name string, data []byte) error {
	if err := t.cfg.Fs.MkdirAll(t.cfg.ExportDir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(t.cfg.ExportDir, name)
	if err := afero.WriteFile(t.cfg.Fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	t.logger.Info("file saved", "path", path, "bytes", len(data))
	t.printf("%s\n", t.styles.muted.Render("Saved "+path))
	return nil
}

func (t *Terminal) Bind(h session.Handlers) {
	t.handlers = h
}

func (t *Terminal) drawHistory() {
	t.printf("%s\n", t.styles.title.Render("History"))
	if len(t.items) == 0 {
		t.printf("  %s\n", t.styles.muted.Render("No saved conversations"))
		return
	}

	now := t.cfg.Now()
	for i, item := range t.items {
		marker, title := " ", item.Title
		if item.ID == t.currentID {
			marker, title = "*", t.styles.current.Render(item.Title)
		}
		t.printf("%s %2d. %s  %s\n", marker, i+1, title, t.styles.muted.Render(formatDate(item.UpdatedAt, now)))
		t.printf("       %s\n", t.styles.muted.Render(ansi.Truncate(item.Preview, t.cfg.Width-7, "…")))
	}
}

func (t *Terminal) printf(format string, args ...any) {
	fmt.Fprintf(t.out, format, args...)
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
