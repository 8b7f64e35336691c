package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/elee1766/chatbox/src/config"
	"github.com/elee1766/chatbox/src/history"
	"github.com/elee1766/chatbox/src/kv"
	"github.com/elee1766/chatbox/src/orclient"
	"github.com/elee1766/chatbox/src/responder"
	"github.com/elee1766/chatbox/src/session"
	"github.com/elee1766/chatbox/src/storage"
)

// App represents the main application with all services
type App struct {
	Config  *config.Config
	KV      kv.Store
	History *history.Store
	Source  session.ResponseSource
	Logger  *slog.Logger

	closers []io.Closer
}

// Options supplies the environment an App runs in. Zero values use the
// real filesystem, a default HTTP client and the wall clock.
type Options struct {
	Fs         afero.Fs
	HTTPClient *http.Client
	Logger     *slog.Logger
	Now        func() time.Time
}

// New creates a new App instance with all services initialized. The
// history is not loaded yet; call History.Initialize or start a session.
func New(cfg *config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	store, closer, err := OpenKV(cfg.Storage, opts.Fs)
	if err != nil {
		return nil, err
	}

	source, err := NewSource(cfg.Responder, opts, logger)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}

	a := &App{
		Config: cfg,
		KV:     store,
		History: history.New(store, history.Config{
			StorageKey:       cfg.History.StorageKey,
			MaxConversations: cfg.History.MaxConversations,
			TitleLength:      cfg.History.TitleLength,
			DefaultTitle:     cfg.History.DefaultTitle,
			Logger:           logger,
			Now:              opts.Now,
		}),
		Source: source,
		Logger: logger,
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	logger.Debug("app initialized",
		"backend", cfg.Storage.Backend,
		"path", cfg.Storage.Path,
		"responder", cfg.Responder.Kind,
	)
	return a, nil
}

// OpenKV opens the configured key-value backend. The returned closer is nil
// for backends without handles.
func OpenKV(cfg config.StorageConfig, fs afero.Fs) (kv.Store, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return kv.NewMemory(), nil, nil
	case config.BackendFile:
		store, err := kv.NewFile(fs, cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open storage: %w", err)
		}
		return store, nil, nil
	case config.BackendBolt:
		store, err := kv.OpenBolt(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open storage: %w", err)
		}
		return store, store, nil
	case config.BackendSQLite:
		store, err := storage.Open(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open storage: %w", err)
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// NewSource builds the configured response source
func NewSource(cfg config.ResponderConfig, opts Options, logger *slog.Logger) (session.ResponseSource, error) {
	switch cfg.Kind {
	case config.ResponderStatic:
		reply := cfg.Static.Reply
		if reply == "" {
			reply = cfg.Fallback
		}
		return responder.NewStatic(reply), nil

	case config.ResponderKnowledge:
		return responder.NewKnowledge(responder.KnowledgeConfig{
			Source:     cfg.Knowledge.Source,
			Fs:         opts.Fs,
			HTTPClient: opts.HTTPClient,
			Fallback:   cfg.Fallback,
			Greeting:   cfg.Knowledge.Greeting,
			Thanks:     cfg.Knowledge.Thanks,
			Logger:     logger,
		}), nil

	case config.ResponderRemote:
		client := orclient.NewClient(orclient.Config{
			APIKey:     cfg.Remote.APIKey,
			BaseURL:    cfg.Remote.BaseURL,
			Logger:     logger,
			Timeout:    cfg.Remote.Timeout.Std(),
			RetryCount: cfg.Remote.RetryCount,
			SiteURL:    cfg.Remote.SiteURL,
			SiteName:   cfg.Remote.SiteName,
		})
		return responder.NewRemote(responder.RemoteConfig{
			Client:       client,
			Model:        cfg.Remote.Model,
			SystemPrompt: cfg.Remote.SystemPrompt,
			Fallback:     cfg.Fallback,
			Timeout:      cfg.Remote.Timeout.Std(),
			Logger:       logger,
		}), nil

	default:
		return nil, fmt.Errorf("unknown responder %q", cfg.Kind)
	}
}

// NewSession creates a session controller that drives port
func (a *App) NewSession(port session.Port, now func() time.Time) *session.Controller {
	return session.New(session.Config{
		Store:   a.History,
		Source:  a.Source,
		Port:    port,
		Logger:  a.Logger,
		Welcome: a.Config.Responder.Welcome,
		Now:     now,
	})
}

// StartSession initializes ctrl, bounding knowledge loading by the
// configured timeout
func (a *App) StartSession(ctx context.Context, ctrl *session.Controller) error {
	if timeout := a.Config.Responder.LoadTimeout.Std(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return ctrl.Initialize(ctx)
}

// Close closes all resources held by the app
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
