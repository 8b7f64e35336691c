package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/spf13/afero"

	"github.com/elee1766/chatbox/src/config"
)

// ConfigCmd manages configuration files
type ConfigCmd struct {
	Show  ConfigShowCmd  `cmd:"" help:"Print the effective configuration"`
	Init  ConfigInitCmd  `cmd:"" help:"Write a default configuration file"`
	Paths ConfigPathsCmd `cmd:"" help:"List the files configuration is read from"`
}

// ConfigShowCmd prints the merged configuration
type ConfigShowCmd struct {
	ShowKeys bool `help:"Print API keys unmasked"`
}

// Run executes the config show command
func (c *ConfigShowCmd) Run(ctx *kong.Context, cli *CLI) error {
	loader := cli.loader(nil)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	if !c.ShowKeys {
		cfg.Responder.Remote.APIKey = maskAPIKey(cfg.Responder.Remote.APIKey)
	}
	for _, src := range loader.Sources() {
		fmt.Fprintf(os.Stderr, "# loaded %s\n", src)
	}
	return printJSON(os.Stdout, cfg)
}

// ConfigInitCmd writes the default configuration
type ConfigInitCmd struct {
	User  bool `help:"Write the user config instead of the project file"`
	Force bool `short:"f" help:"Overwrite an existing file"`
}

// Run executes the config init command
func (c *ConfigInitCmd) Run(ctx *kong.Context, cli *CLI) error {
	paths := config.DefaultPaths()
	path := paths.ProjectConfig
	if cli.ConfigFile != "" {
		path = cli.ConfigFile
	}
	if c.User {
		path = paths.UserConfig
	}

	fs := afero.NewOsFs()
	if exists, err := afero.Exists(fs, path); err != nil {
		return err
	} else if exists && !c.Force {
		return fmt.Errorf("%w: %s already exists (use --force to overwrite)", errUsage, path)
	}

	if err := config.NewLoader(fs, paths).SaveFile(config.DefaultConfig(), path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

// ConfigPathsCmd lists configuration and data locations
type ConfigPathsCmd struct{}

// Run executes the config paths command
func (c *ConfigPathsCmd) Run(ctx *kong.Context, cli *CLI) error {
	paths := config.DefaultPaths()
	if cli.ConfigFile != "" {
		paths.ProjectConfig = cli.ConfigFile
	}
	fmt.Printf("user config:    %s\n", paths.UserConfig)
	fmt.Printf("project config: %s\n", paths.ProjectConfig)
	fmt.Printf("dotenv:         %s\n", paths.DotEnv)
	fmt.Printf("data:           %s\n", config.DefaultDataDir())
	fmt.Printf("log:            %s\n", config.DefaultLogPath())
	return nil
}

// maskAPIKey masks an API key for display
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
