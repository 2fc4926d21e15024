package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jaminalder/perfect-tic-tac-toe/internal/app"
	"github.com/jaminalder/perfect-tic-tac-toe/internal/bootstrap"
	"github.com/jaminalder/perfect-tic-tac-toe/internal/tally"
	"github.com/jaminalder/perfect-tic-tac-toe/internal/web"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfgPath := pflag.StringP("config", "c", "", "config file (.env, yaml, json); environment overrides it")
	pflag.Parse()

	logger := bootstrap.NewLogger()
	defer logger.Sync()

	if err := run(*cfgPath, logger); err != nil {
		logger.Fatalw("server stopped", zap.Error(err))
	}
}

func run(cfgPath string, logger *zap.SugaredLogger) error {
	cfg, err := bootstrap.Setup(cfgPath)
	if err != nil {
		return err
	}
	engine, _ := cfg.Engine()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore(context.Background())

	scores := tally.NewScoreboard(ctx, store, logger)
	svc := app.NewService(
		app.WithEngine(engine, cfg.SearchOptions()...),
		app.WithScoreboard(scores),
		app.WithLogger(logger),
	)
	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           web.NewServer(svc, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infow("server listening", "addr", cfg.ServerAddr, "engine", engine.String(),
			"pruning", cfg.EnginePruning, "fastest_win", cfg.EngineFastestWin)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
