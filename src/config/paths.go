package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	AppName     = "chatbox"
	EnvPrefix   = "CHATBOX"
	ProjectFile = ".chatbox.json"
	DotEnvFile  = ".env"
)

// Paths lists the files configuration is read from, lowest precedence first
type Paths struct {
	UserConfig    string
	ProjectConfig string
	DotEnv        string
}

// DefaultPaths returns the user config under XDG_CONFIG_HOME and the
// project files in the working directory
func DefaultPaths() Paths {
	return Paths{
		UserConfig:    filepath.Join(xdg.ConfigHome, AppName, "config.json"),
		ProjectConfig: ProjectFile,
		DotEnv:        DotEnvFile,
	}
}

// DefaultDataDir returns the directory for persistent data
func DefaultDataDir() string {
	// Use XDG_DATA_HOME for user-specific data files
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultLogPath returns the log file for interactive sessions
func DefaultLogPath() string {
	// Use XDG_STATE_HOME for runtime state data
	return filepath.Join(xdg.StateHome, AppName, "logs", AppName+".log")
}

// DefaultStoragePath returns where backend keeps its data by default
func DefaultStoragePath(backend string) string {
	switch backend {
	case BackendBolt:
		return filepath.Join(DefaultDataDir(), "history.bolt")
	case BackendSQLite:
		return filepath.Join(DefaultDataDir(), "history.db")
	case BackendMemory:
		return ""
	default:
		return filepath.Join(DefaultDataDir(), "storage")
	}
}
