package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/elee1766/chatbox/src/session"
	"github.com/elee1766/chatbox/src/theme"
)

type palette struct {
	title    lipgloss.Style
	user     lipgloss.Style
	bot      lipgloss.Style
	info     lipgloss.Style
	error    lipgloss.Style
	muted    lipgloss.Style
	current  lipgloss.Style
	dialog   lipgloss.Style
	codeName string
}

func newPalette(r *lipgloss.Renderer, th theme.Theme) palette {
	return palette{
		title:    r.NewStyle().Bold(true).Foreground(th.Primary),
		user:     r.NewStyle().Bold(true).Foreground(th.User),
		bot:      r.NewStyle().Bold(true).Foreground(th.Bot),
		info:     r.NewStyle().Foreground(th.Info),
		error:    r.NewStyle().Bold(true).Foreground(th.Error),
		muted:    r.NewStyle().Foreground(th.TextMuted),
		current:  r.NewStyle().Bold(true).Foreground(th.Primary),
		dialog:   r.NewStyle().Bold(true).Foreground(th.Error),
		codeName: th.CodeStyle,
	}
}

func (p palette) notice(kind session.NoticeKind) lipgloss.Style {
	if kind == session.NoticeError {
		return p.error
	}
	return p.info
}

// highlightMarkdown colors markdown source for a 256 color terminal. The
// input is returned unchanged when it cannot be tokenised.
func highlightMarkdown(text, styleName string) string {
	lexer := lexers.Get("markdown")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return text
	}

	var b strings.Builder
	if err := formatter.Format(&b, style, iterator); err != nil {
		return text
	}
	return b.String()
}

// wrap breaks s at word boundaries so no line is wider than width cells.
// Escape sequences do not count towards the width.
func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Wordwrap(s, width, "")
}

// formatDate renders t relative to now the way the history panel shows it.
func formatDate(t, now time.Time) string {
	t, now = t.Local(), now.Local()
	days := int(math.Round(startOfDay(now).Sub(startOfDay(t)).Hours() / 24))
	switch {
	case days <= 0:
		return t.Format("15:04")
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02")
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
