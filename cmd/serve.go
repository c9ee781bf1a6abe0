package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/callcenter-console/backend/internal/config"
	"github.com/callcenter-console/backend/internal/db"
	httpapi "github.com/callcenter-console/backend/internal/http"
	"github.com/callcenter-console/backend/internal/models"
	"github.com/callcenter-console/backend/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

// openStore returns the configured backend and a func releasing it.
func openStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (db.Backend, func(), error) {
	if cfg.StoreDriver == "memory" {
		logger.Warn().Msg("using in-memory store, data is lost on restart")
		return db.NewMemoryStore(), func() {}, nil
	}
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}
	return store, store.Close, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.BootstrapAdmin != "" {
		auth := &service.AuthService{Store: store, Logger: logger}
		admin := models.Agent{ID: cfg.BootstrapAdmin, Name: cfg.BootstrapAdmin, Role: models.RoleAdmin}
		if err := auth.EnsureAgent(ctx, admin, cfg.BootstrapPass); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		logger.Info().Str("agent_id", admin.ID).Msg("bootstrap admin ready")
	}

	catalog := &service.CatalogCache{Store: store, Logger: logger}
	if _, err := catalog.Load(ctx); err != nil {
		return fmt.Errorf("load config catalog: %w", err)
	}

	router := httpapi.Router(cfg, store, catalog, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
	return nil
}
