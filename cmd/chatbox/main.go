package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/spf13/afero"

	"github.com/elee1766/chatbox/src/config"
)

// CLI represents the main CLI structure
type CLI struct {
	LogLevel       string `help:"Log level (debug, info, warn, error)"`
	ConfigFile     string `short:"c" type:"path" help:"Project config file (defaults to ./.chatbox.json)"`
	StorageBackend string `help:"History backend (file, bolt, sqlite, memory)"`
	StoragePath    string `type:"path" help:"History location for the selected backend"`
	Responder      string `help:"Reply source (knowledge, remote, static)"`
	APIKey         string `help:"OpenRouter API key for the remote responder"`

	// Chat is the default command
	Chat ChatCmd `cmd:"" default:"1" help:"Start an interactive chat (default)"`

	History HistoryCmd `cmd:"" help:"Inspect and manage saved conversations"`
	Schema  SchemaCmd  `cmd:"" help:"Print JSON schemas for chatbox files"`
	Config  ConfigCmd  `cmd:"" help:"Show or create configuration"`
}

// loader builds a config loader honoring the global flags. extra runs after
// the flags for command specific overrides.
func (cli *CLI) loader(extra func(*config.Config)) *config.Loader {
	paths := config.DefaultPaths()
	if cli.ConfigFile != "" {
		paths.ProjectConfig = cli.ConfigFile
	}
	return config.NewLoader(afero.NewOsFs(), paths).WithOverrides(func(cfg *config.Config) {
		if cli.StorageBackend != "" && cli.StorageBackend != cfg.Storage.Backend {
			cfg.Storage.Backend = cli.StorageBackend
			cfg.Storage.Path = ""
		}
		if cli.StoragePath != "" {
			cfg.Storage.Path = cli.StoragePath
		}
		if cli.Responder != "" {
			cfg.Responder.Kind = cli.Responder
		}
		if cli.APIKey != "" {
			cfg.Responder.Remote.APIKey = cli.APIKey
		}
		if cli.LogLevel != "" {
			cfg.Logging.Level = cli.LogLevel
		}
		if extra != nil {
			extra(cfg)
		}
	})
}

// loadConfig loads and validates configuration
func (cli *CLI) loadConfig(extra func(*config.Config)) (*config.Config, error) {
	return cli.loader(extra).Load()
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("chatbox"),
		kong.Description("Terminal chatbot with persistent conversation history"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	err := ctx.Run(&cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
