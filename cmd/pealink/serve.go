package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/revittco/pealink/internal/api"
	"github.com/revittco/pealink/internal/channel"
	"github.com/revittco/pealink/internal/config"
	"github.com/revittco/pealink/internal/editor"
	"github.com/revittco/pealink/internal/host"
	"github.com/revittco/pealink/internal/journal"
	"github.com/revittco/pealink/internal/secrets"
	"github.com/revittco/pealink/internal/store"
	"github.com/revittco/pealink/internal/store/sqlite"
	"github.com/revittco/pealink/internal/window"
	"github.com/revittco/pealink/internal/workflow"
	"github.com/revittco/pealink/internal/wsbridge"
)

func cmdServe(args []string) error {
	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cfg, args)

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	fileCfg, found, err := config.LoadOrDefault(cfg.ConfigFile)
	if err != nil {
		return err
	}
	if found {
		logger.Info("loaded config", "file", cfg.ConfigFile)
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	recovery, err := channel.ParseRecovery(fileCfg.Channel.Recovery)
	if err != nil {
		return err
	}

	ed := editor.New(editor.Options{
		Width:         fileCfg.Editor.Width,
		Height:        fileCfg.Editor.Height,
		ScriptTimeout: fileCfg.Editor.ScriptTimeout,
		Logger:        logger,
	})

	win := window.New(logger)
	defer win.Close()
	frame := window.NewFrame(win, ed,
		window.WithOrigin(fileCfg.Editor.Origin), window.WithFrameLogger(logger))
	defer frame.Close()

	bus := journal.NewBus()
	recorder := journal.NewRecorder(db, bus, logger)
	ch := channel.New(frame, win,
		channel.WithTimeout(fileCfg.Channel.RequestTimeout),
		channel.WithRecovery(recovery),
		channel.WithTargetOrigin(fileCfg.Channel.TargetOrigin),
		channel.WithObserver(recorder.Observe),
		channel.WithLogger(logger),
	)
	defer ch.Close()
	ch.Listen()

	page, err := buildPage(fileCfg, logger)
	if err != nil {
		return err
	}
	orch := workflow.New(ch, page,
		workflow.WithExports(db),
		workflow.WithLogger(logger),
		workflow.WithUITimeout(fileCfg.Host.UITimeout),
		workflow.WithMinify(fileCfg.Scripts.Minify),
	)
	if err := orch.InstallButtons(ctx); err != nil {
		return err
	}

	wsOpts := []wsbridge.Option{
		wsbridge.WithLogger(logger),
		wsbridge.WithReadLimit(fileCfg.Editor.MaxScriptBytes),
	}
	if len(fileCfg.Editor.AllowedOrigins) > 0 {
		wsOpts = append(wsOpts, wsbridge.WithOriginPatterns(fileCfg.Editor.AllowedOrigins...))
	}

	router := api.NewRouter(api.RouterDeps{
		Store:     db,
		Bus:       bus,
		Sender:    ch,
		Pending:   ch.Pending,
		Workflows: orch,
		Page:      page,
		Editor:    wsbridge.Handler(ed, wsOpts...),
	})

	g, ctx := errgroup.WithContext(ctx)

	// HTTP server
	g.Go(func() error {
		srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
		srv.ReadHeaderTimeout = 10 * time.Second
		srv.IdleTimeout = 60 * time.Second
		srv.MaxHeaderBytes = 1 << 20 // 1 MiB
		errCh := make(chan error, 1)
		go func() {
			logger.Info("http server listening",
				"addr", cfg.HTTPAddr, "editor", editorURLFromAddr(cfg.HTTPAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()
		select {
		case <-ctx.Done():
			logger.Info("shutting down http server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		}
	})

	// Journal retention
	if fileCfg.Journal.Retention > 0 {
		g.Go(func() error {
			return pruneLoop(ctx, db, fileCfg.Journal.Retention, logger)
		})
	}

	return g.Wait()
}

// applyFlags parses --addr=X style flags from the args list.
func applyFlags(cfg *Config, args []string) {
	if v, ok := flagValue(args, "addr"); ok {
		cfg.HTTPAddr = v
	}
	if v, ok := flagValue(args, "db"); ok {
		cfg.DBPath = v
	}
	if v, ok := flagValue(args, "config"); ok {
		cfg.ConfigFile = v
	}
	if v, ok := flagValue(args, "age-key"); ok {
		cfg.AgeKeyPath = v
	}
	if v, ok := flagValue(args, "editor"); ok {
		cfg.EditorURL = v
	}
}

// openDB opens the store, sealing exports when an age identity is
// configured.
func openDB(ctx context.Context, cfg *Config) (*sqlite.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	var opts []sqlite.Option
	if cfg.AgeKeyPath != "" {
		enc, err := secrets.NewAgeEncryptor(cfg.AgeKeyPath)
		if err != nil {
			return nil, fmt.Errorf("create encryptor: %w", err)
		}
		opts = append(opts, sqlite.WithSealer(enc))
		slog.Info("exports sealed with age", "recipient", enc.Recipient())
	}
	db, err := sqlite.New(ctx, cfg.DBPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func buildPage(fileCfg *config.FileConfig, logger *slog.Logger) (*host.Page, error) {
	page, err := host.NewPage(host.Options{
		ControlNet:      fileCfg.Host.ControlNet,
		ControlNetUnits: fileCfg.Host.ControlNetUnits,
		EditorURL:       fileCfg.Editor.Origin + "/",
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}
	if err := page.SetActiveLayerOnly(fileCfg.Host.ActiveLayerOnly); err != nil {
		return nil, err
	}
	if _, err := page.SetFrameHeight(fileCfg.Host.FrameHeight); err != nil {
		return nil, err
	}
	return page, nil
}

// pruneLoop deletes journal records older than retention once an hour.
func pruneLoop(ctx context.Context, s store.RequestStore, retention time.Duration, logger *slog.Logger) error {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		n, err := s.PruneRequestRecords(ctx, time.Now().UTC().Add(-retention))
		if err != nil && ctx.Err() == nil {
			logger.Warn("prune request records", "error", err)
		} else if n > 0 {
			logger.Info("pruned request records", "count", n)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
