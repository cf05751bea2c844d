package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"

	"github.com/soniadragulescu/beerstore/internal/beer"
	"github.com/soniadragulescu/beerstore/internal/cache"
	"github.com/soniadragulescu/beerstore/internal/cache/memory"
	"github.com/soniadragulescu/beerstore/internal/cache/sqlite"
	"github.com/soniadragulescu/beerstore/internal/config"
	"github.com/soniadragulescu/beerstore/internal/photo"
	"github.com/soniadragulescu/beerstore/internal/prefs"
	"github.com/soniadragulescu/beerstore/internal/session"
	"github.com/soniadragulescu/beerstore/internal/state"
	"github.com/soniadragulescu/beerstore/internal/ui"
)

// Options configure the BeerStore application.
type Options struct {
	ConfigPath string
	EnvFile    string // empty skips the .env file
	PrefsPath  string // empty uses default ~/.config/beerstore/prefs.toml
	Ephemeral  bool   // keep the cache in memory only
	Debug      bool
}

// Run boots the BeerStore TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath, opts.EnvFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := setupLogger(cfg.LogFile, opts.Debug)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closeLog()
	logger.Info("starting", "api_host", cfg.APIHost, "data_dir", cfg.DataDir, "ephemeral", opts.Ephemeral)

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		logger.Warn("load prefs, using defaults", "error", err)
	}

	db, err := openCache(cfg, opts.Ephemeral)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("close cache", "error", err)
		}
	}()

	client, err := beer.NewClient(cfg.APIHost, logger)
	if err != nil {
		return fmt.Errorf("init beer client: %w", err)
	}

	store := state.NewStore()
	syncer := newSyncer(store, client, db, logger)
	defer syncer.Close()

	sess := session.New(client, db, logger)
	sess.OnChange(func(ctx context.Context, token string) {
		if err := syncer.SetToken(ctx, token); err != nil {
			logger.Warn("initial fetch failed", "error", err)
		}
	})
	if _, err := sess.Restore(ctx); err != nil {
		logger.Warn("restore session", "error", err)
	}

	gallery := photo.NewGallery(afero.NewOsFs(), cfg.PhotoDir(), db, logger)
	if _, err := gallery.Load(ctx); err != nil {
		logger.Warn("load photos", "error", err)
	}

	err = ui.Run(ui.Options{
		Context:    ctx,
		Syncer:     syncer,
		Store:      store,
		Session:    sess,
		Gallery:    gallery,
		Offline:    db,
		Prefs:      userPrefs,
		PrefsPath:  opts.PrefsPath,
		PageWindow: cfg.PageWindow,
		LogFile:    cfg.LogFile,
	})
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// newSyncer binds the sync core to the gateway. A closed push channel stays
// closed until the next token change opens a new one.
func newSyncer(store *state.Store, client *beer.Client, db cache.Snapshots, logger *slog.Logger) *state.Syncer {
	return state.NewSyncer(store, client, state.Options{
		Cache:  db,
		Push:   state.ClientPush(client),
		Logger: logger,
	})
}

func openCache(cfg config.Config, ephemeral bool) (cache.Store, error) {
	if ephemeral {
		return memory.New(), nil
	}
	return sqlite.Open(cfg.CachePath())
}

// setupLogger writes text logs to path. The terminal belongs to the UI, so
// nothing is logged to stdout or stderr.
func setupLogger(path string, debug bool) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var (
		out     io.Writer = io.Discard
		closeFn           = func() {}
	)
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		out = f
		closeFn = func() { _ = f.Close() }
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, closeFn, nil
}
