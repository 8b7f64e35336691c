package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elee1766/chatbox/src/config"
	"github.com/elee1766/chatbox/src/orclient"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitSuccess},
		{name: "validation", err: fmt.Errorf("configuration validation failed: %w", config.ValidationError{Field: "UI.Theme"}), want: ExitConfig},
		{name: "missing key", err: fmt.Errorf("load: %w", orclient.ErrNoAPIKey), want: ExitAuth},
		{name: "unauthorized", err: &orclient.APIError{StatusCode: 401}, want: ExitAuth},
		{name: "permission", err: &os.PathError{Op: "open", Path: "/x", Err: os.ErrPermission}, want: ExitPermission},
		{name: "timeout", err: context.DeadlineExceeded, want: ExitTimeout},
		{name: "canceled", err: context.Canceled, want: ExitInterrupted},
		{name: "usage", err: fmt.Errorf("%w: bad", errUsage), want: ExitUsage},
		{name: "other", err: errors.New("boom"), want: ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "", maskAPIKey(""))
	assert.Equal(t, "****", maskAPIKey("abcd"))
	assert.Equal(t, "sk-o*****6789", maskAPIKey("sk-or-v1-6789"))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("info"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("loud"))
}

func TestLoaderFlagOverrides(t *testing.T) {
	t.Chdir(t.TempDir())

	cli := &CLI{StorageBackend: config.BackendMemory, Responder: config.ResponderStatic, LogLevel: "debug"}
	cfg, err := cli.loadConfig(func(cfg *config.Config) { cfg.UI.Theme = "light" })
	assert.NoError(t, err)
	assert.Equal(t, config.BackendMemory, cfg.Storage.Backend)
	assert.Empty(t, cfg.Storage.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "light", cfg.UI.Theme)
}
