package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"

	"github.com/elee1766/chatbox/src/app"
	"github.com/elee1766/chatbox/src/history"
	"github.com/elee1766/chatbox/src/session"
)

// HistoryCmd manages saved conversations without starting a chat
type HistoryCmd struct {
	List   HistoryListCmd   `cmd:"" help:"List conversations, most recent first"`
	Show   HistoryShowCmd   `cmd:"" help:"Print one conversation"`
	Delete HistoryDeleteCmd `cmd:"" help:"Delete one conversation"`
	Clear  HistoryClearCmd  `cmd:"" help:"Delete every conversation"`
	Export HistoryExportCmd `cmd:"" help:"Write the history as JSON"`
	Import HistoryImportCmd `cmd:"" help:"Replace the history with an export file"`
}

// openHistory loads configuration and the persisted history
func openHistory(cli *CLI) (*app.App, error) {
	cfg, err := cli.loadConfig(nil)
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg, app.Options{Logger: createCLILogger(cfg.Logging.Level)})
	if err != nil {
		return nil, err
	}
	a.History.Initialize()
	return a, nil
}

func findConversation(store *history.Store, id string) (*history.Conversation, error) {
	for _, c := range store.List() {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: conversation %q not found", errUsage, id)
}

// HistoryListCmd lists conversations
type HistoryListCmd struct {
	Format string `help:"Output format (table, json)" default:"table" enum:"table,json"`
}

// Run executes the history list command
func (c *HistoryListCmd) Run(ctx *kong.Context, cli *CLI) error {
	a, err := openHistory(cli)
	if err != nil {
		return err
	}
	defer a.Close()

	items := session.HistoryItems(a.History)
	if c.Format == "json" {
		return printJSON(os.Stdout, items)
	}
	if len(items) == 0 {
		fmt.Println("No conversations")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tUPDATED\tLAST MESSAGE")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			item.ID,
			item.Title,
			item.UpdatedAt.Local().Format(time.DateTime),
			item.Preview,
		)
	}
	return w.Flush()
}

// HistoryShowCmd prints a conversation
type HistoryShowCmd struct {
	ID     string `arg:"" help:"Conversation ID"`
	Format string `help:"Output format (text, json)" default:"text" enum:"text,json"`
}

// Run executes the history show command
func (c *HistoryShowCmd) Run(ctx *kong.Context, cli *CLI) error {
	a, err := openHistory(cli)
	if err != nil {
		return err
	}
	defer a.Close()

	conv, err := findConversation(a.History, c.ID)
	if err != nil {
		return err
	}
	if c.Format == "json" {
		return printJSON(os.Stdout, conv)
	}

	fmt.Printf("%s\n\n", conv.Title)
	for _, m := range conv.Messages {
		fmt.Printf("[%s] %s: %s\n", m.Timestamp.Local().Format(time.DateTime), m.Sender, m.Content)
	}
	return nil
}

// HistoryDeleteCmd deletes a conversation
type HistoryDeleteCmd struct {
	ID string `arg:"" help:"Conversation ID"`
}

// Run executes the history delete command
func (c *HistoryDeleteCmd) Run(ctx *kong.Context, cli *CLI) error {
	a, err := openHistory(cli)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := deleteConversation(a.History, c.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted conversation %s\n", c.ID)
	return nil
}

// HistoryClearCmd deletes all conversations
type HistoryClearCmd struct {
	Yes bool `short:"y" help:"Confirm deleting every conversation"`
}

// Run executes the history clear command
func (c *HistoryClearCmd) Run(ctx *kong.Context, cli *CLI) error {
	if !c.Yes {
		return fmt.Errorf("%w: refusing to clear history without --yes", errUsage)
	}

	a, err := openHistory(cli)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := clearHistory(a.History)
	if err != nil {
		return err
	}
	fmt.Printf("Cleared %d conversations\n", n)
	return nil
}

// HistoryExportCmd exports the history
type HistoryExportCmd struct {
	Output string `short:"o" type:"path" help:"Output file, - for stdout (defaults to chatbot_history_<date>.json)"`
}

// Run executes the history export command
func (c *HistoryExportCmd) Run(ctx *kong.Context, cli *CLI) error {
	a, err := openHistory(cli)
	if err != nil {
		return err
	}
	defer a.Close()

	if c.Output == "-" {
		return a.History.Export(os.Stdout)
	}

	path := c.Output
	if path == "" {
		path = history.ExportFilename(time.Now())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := a.History.Export(f); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Exported %d conversations to %s\n", a.History.Len(), path)
	return f.Close()
}

// HistoryImportCmd imports an export file
type HistoryImportCmd struct {
	File string `arg:"" type:"existingfile" help:"Export file to import"`
}

// Run executes the history import command
func (c *HistoryImportCmd) Run(ctx *kong.Context, cli *CLI) error {
	a, err := openHistory(cli)
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := importHistory(a.History, f); err != nil {
		return err
	}
	fmt.Printf("Imported %d conversations\n", a.History.Len())
	return nil
}

// deleteConversation removes id and reports a failed write
func deleteConversation(store *history.Store, id string) error {
	if _, err := findConversation(store, id); err != nil {
		return err
	}
	store.DeleteConversation(id)
	return store.LastPersistError()
}

// clearHistory removes every conversation and returns how many there were
func clearHistory(store *history.Store) (int, error) {
	n := store.Len()
	store.ClearAll(true)
	if err := store.LastPersistError(); err != nil {
		return 0, err
	}
	return n, nil
}

// importHistory replaces the history with the export read from r
func importHistory(store *history.Store, r io.Reader) error {
	if err := store.Import(r); err != nil {
		return err
	}
	return store.LastPersistError()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
