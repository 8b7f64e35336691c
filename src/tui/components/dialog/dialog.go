package dialog

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm is a yes/no question whose answer is delivered once to a
// resolve function
type Confirm struct {
	Prompt  string
	resolve func(bool)
	done    bool
}

// NewConfirm creates a confirmation dialog
func NewConfirm(prompt string, resolve func(bool)) *Confirm {
	return &Confirm{Prompt: prompt, resolve: resolve}
}

// View renders the question
func (d *Confirm) View(style lipgloss.Style) string {
	return style.Render(d.Prompt + " [y/N]")
}

// Resolve answers the dialog from user input. Only "y" and "yes" confirm.
func (d *Confirm) Resolve(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		d.finish(true)
		return true
	}
	d.finish(false)
	return false
}

// Close cancels the dialog if it is still open
func (d *Confirm) Close() {
	d.finish(false)
}

// Done reports whether the dialog has been answered
func (d *Confirm) Done() bool {
	return d.done
}

func (d *Confirm) finish(confirmed bool) {
	if d.done {
		return
	}
	d.done = true
	if d.resolve != nil {
		d.resolve(confirmed)
	}
}
