package main

import (
	"context"
	"errors"
	"os"

	"github.com/elee1766/chatbox/src/config"
	"github.com/elee1766/chatbox/src/orclient"
)

// Exit codes following standard conventions
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error
	ExitUsage       = 2 // Usage error
	ExitConfig      = 3 // Configuration error
	ExitAuth        = 4 // Authentication error
	ExitPermission  = 5 // Permission error
	ExitTimeout     = 7 // Timeout error
	ExitInterrupted = 8 // Interrupted by user
)

// errUsage marks errors caused by how a command was invoked
var errUsage = errors.New("usage")

// exitCode determines the appropriate exit code for an error
func exitCode(err error) int {
	var validation config.ValidationError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &validation):
		return ExitConfig
	case orclient.IsAuthError(err):
		return ExitAuth
	case errors.Is(err, os.ErrPermission):
		return ExitPermission
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeout
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, errUsage):
		return ExitUsage
	default:
		return ExitError
	}
}
