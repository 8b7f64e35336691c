package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/elee1766/chatbox/src/app"
	"github.com/elee1766/chatbox/src/config"
	"github.com/elee1766/chatbox/src/theme"
	"github.com/elee1766/chatbox/src/tui"
)

// ChatCmd starts an interactive chat session in the terminal
type ChatCmd struct {
	Theme     string `help:"UI theme (dark, light)"`
	Plain     bool   `help:"Disable syntax highlighting"`
	Width     int    `help:"Wrap width for messages"`
	ExportDir string `type:"path" help:"Directory that receives /export files"`
	Knowledge string `short:"k" help:"Knowledge base file or URL (selects the knowledge responder)"`
}

func (c *ChatCmd) apply(cfg *config.Config) {
	if c.Theme != "" {
		cfg.UI.Theme = c.Theme
	}
	if c.Plain {
		cfg.UI.Plain = true
	}
	if c.Width > 0 {
		cfg.UI.Width = c.Width
	}
	if c.ExportDir != "" {
		cfg.UI.ExportDir = c.ExportDir
	}
	if c.Knowledge != "" {
		cfg.Responder.Kind = config.ResponderKnowledge
		cfg.Responder.Knowledge.Source = c.Knowledge
	}
}

// Run executes the chat command
func (c *ChatCmd) Run(ctx *kong.Context, cli *CLI) error {
	cfg, err := cli.loadConfig(c.apply)
	if err != nil {
		return err
	}

	logger := createSessionLogger(cfg.Logging.File, cfg.Logging.Level)

	a, err := app.New(cfg, app.Options{Logger: logger})
	if err != nil {
		return fmt.Errorf("failed to start chatbox: %w", err)
	}
	defer a.Close()

	th, ok := theme.Get(cfg.UI.Theme)
	if !ok {
		th = theme.Default()
	}

	term := tui.New(tui.Config{
		In:             os.Stdin,
		Out:            os.Stdout,
		ExportDir:      cfg.UI.ExportDir,
		Width:          cfg.UI.Width,
		NoticeDuration: cfg.UI.NoticeDuration.Std(),
		Theme:          th,
		Plain:          cfg.UI.Plain,
		Logger:         logger,
	})

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl := a.NewSession(term, nil)
	if err := a.StartSession(runCtx, ctrl); err != nil {
		// the session already shows an error notice and stays usable
		logger.Warn("session started without knowledge", "error", err)
	}

	if err := term.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
