package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/grid-tactics-backend/internal/config"
	"github.com/DoyleJ11/grid-tactics-backend/internal/httpapi"
	"github.com/DoyleJ11/grid-tactics-backend/internal/hub"
	"github.com/DoyleJ11/grid-tactics-backend/internal/logging"
	"github.com/DoyleJ11/grid-tactics-backend/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg := config.Load()

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, st.Close()) }()

	h := hub.NewHub(ctx, hub.Options{
		Rooms:    cfg.Rooms,
		Timing:   cfg.Timing,
		Recorder: st,
		Logger:   log,
	})

	// Build the router *with* the hub injected
	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Hub:    h,
			Maps:   st,
			Server: cfg.Server,
			Rate:   cfg.Rate,
			Logger: log,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		select {
		case h.Inbox() <- hub.ShutdownHub{}:
		case <-h.Done():
		}
		<-h.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStore uses postgres when DATABASE_URL is set and the in-memory store otherwise.
// Builtin maps and the JSON maps under MAPS_DIR are seeded either way.
func openStore(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (store.Store, error) {
	maps := store.BuiltinMaps()
	if cfg.MapsDir != "" {
		loaded, err := store.LoadDir(cfg.MapsDir)
		if err != nil {
			return nil, fmt.Errorf("load maps: %w", err)
		}
		maps = append(maps, loaded...)
	}
	log.Info("maps loaded", zap.Int("count", len(maps)))

	if cfg.DatabaseURL == "" {
		log.Info("using in-memory store")
		return store.NewMemory(maps...), nil
	}
	pg, err := store.OpenPostgres(ctx, cfg.DatabaseURL, maps)
	if err != nil {
		return nil, err
	}
	log.Info("using postgres store")
	return pg, nil
}
