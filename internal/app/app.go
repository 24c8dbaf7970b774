package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wardflow/bedcast/internal/config"
	"github.com/wardflow/bedcast/internal/db"
	"github.com/wardflow/bedcast/internal/etl"
	"github.com/wardflow/bedcast/internal/http/api"
	"github.com/wardflow/bedcast/internal/occupancy"
	"github.com/wardflow/bedcast/internal/registry"
	"github.com/wardflow/bedcast/internal/serving"
	"github.com/wardflow/bedcast/internal/watcher"

	log "github.com/sirupsen/logrus"
)

// shutdownTimeout bounds the graceful drain after the context is cancelled.
const shutdownTimeout = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(cfg config.Config) error {
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// Ingest loads a CSV export of occupancy records into the database.
func Ingest(ctx context.Context, cfg config.Config, csvPath string) error {
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	return etl.Run(ctx, occupancy.NewStore(conn), csvPath)
}

// RunServer boots the forecasting API server with database-backed components
// and blocks until the context is cancelled or the listener fails.
func RunServer(ctx context.Context, cfg config.Config, port int) error {
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	store := occupancy.NewStore(conn)

	reg, errRegistry := registry.Open(cfg.Registry.Dir, serving.RegistryDecoder())
	if errRegistry != nil {
		return errRegistry
	}
	engine := serving.NewEngine(reg)

	catalogWatcher, errWatcher := watcher.New(cfg.Registry.Dir, reg.Catalog(), engine)
	if errWatcher != nil {
		return errWatcher
	}
	watcherCtx, stopWatcher := context.WithCancel(ctx)
	defer stopWatcher()
	go catalogWatcher.Run(watcherCtx)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	api.RegisterRoutes(router, reg, store, engine)

	if port <= 0 {
		port = cfg.Server.Port
	}
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		log.Info("server stopped")
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}
