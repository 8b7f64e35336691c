package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/elee1766/chatbox/src/config"
	"github.com/elee1766/chatbox/src/history"
	"github.com/elee1766/chatbox/src/schema"
)

// SchemaCmd prints the JSON schema of a chatbox file format
type SchemaCmd struct {
	Kind string `arg:"" optional:"" default:"export" enum:"export,config" help:"File to describe (export, config)"`
}

// Run executes the schema command
func (c *SchemaCmd) Run(ctx *kong.Context, cli *CLI) error {
	var (
		v           any
		title, desc string
	)
	switch c.Kind {
	case "export":
		v = []history.Conversation{}
		title, desc = "chatbox history export", "Conversations written by /export and history export"
	case "config":
		v = config.Config{}
		title, desc = "chatbox configuration", "Contents of config.json and "+config.ProjectFile
	default:
		return fmt.Errorf("%w: unknown schema %q", errUsage, c.Kind)
	}

	s, err := schema.Reflect(v, title, desc)
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}
	return printJSON(os.Stdout, s)
}
