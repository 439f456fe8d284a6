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

	"semprejoias/internal/core/config"
	"semprejoias/internal/core/container"
	"semprejoias/internal/core/logger"
	"semprejoias/internal/core/routes"
	"semprejoias/internal/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Encoding)
		defer log.Sync()

		migrate, _ := cmd.Flags().GetBool("migrate")
		if migrate && cfg.Store.Driver == config.StoreDriverPostgres {
			if err := database.RunMigrations(cfg.Postgres.URL, cfg.Postgres.MigrationsDir, log); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
		}

		return serve(cmd.Context(), cfg, log)
	},
}

var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run migrations manually.",
	Long:  `Applies every pending migration from the given directory to DATABASE_URL.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Encoding)
		defer log.Sync()

		migrationDir, _ := cmd.Flags().GetString("dir")
		if err := database.RunMigrations(cfg.Postgres.URL, migrationDir, log); err != nil {
			log.Error("Migration failed", zap.Error(err))
			return fmt.Errorf("migrate database: %w", err)
		}

		return nil
	},
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := container.NewAppContainer(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn("Shutdown left resources open", zap.Error(err))
		}
	}()

	server := &http.Server{
		Addr:              cfg.Server.Host,
		Handler:           routes.NewRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("addr", cfg.Server.Host), zap.String("env", cfg.Server.AppEnv))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func Execute(ctx context.Context) {
	rootCmd := &cobra.Command{
		Use:   "semprejoias",
		Short: "Sempre Joias inventory and production service",
	}
	MigrateCmd.Flags().String("dir", "./migrations", "Directory containing the migration files")
	ServeCmd.Flags().Bool("migrate", false, "Apply pending migrations before serving")
	rootCmd.AddCommand(ServeCmd, MigrateCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
