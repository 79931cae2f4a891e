package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bher20/golddigest/internal/api"
	"github.com/bher20/golddigest/internal/config"
	"github.com/bher20/golddigest/internal/logger"
	"github.com/bher20/golddigest/internal/migrate"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var envFile string

var rootCmd = &cobra.Command{
	Use:           "golddigest",
	Short:         "Daily gold market digest service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Email the current digest to every subscriber once",
	RunE:  runSend,
}

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Build the digest once and print it",
	RunE:  runDigest,
}

var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Print the current INR per gram of 24K gold",
	RunE:  runRate,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the subscriber database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Run all pending migrations",
	RunE:  runMigrate(migrate.Up, "migrations completed successfully"),
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Rollback the last migration",
	RunE:  runMigrate(migrate.Down, "rollback completed successfully"),
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	RunE:  runMigrate(migrate.Status, ""),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before configuration")

	migrateCmd.PersistentFlags().String("driver", "", "database driver (sqlite, postgres); defaults to storage.driver")
	migrateCmd.PersistentFlags().String("dsn", "", "database DSN; defaults to storage.dsn")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)

	rootCmd.AddCommand(serveCmd, sendCmd, digestCmd, rateCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, logger.New(cfg.Log.Level, cfg.Log.Format), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	log.Info().Str("version", version).Msg("starting golddigest server")

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewHandler(a.deps()),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-quit:
	}

	log.Info().Msg("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.distributor.Send(cmd.Context())
	if perr := printJSON(cmd, res); perr != nil {
		return perr
	}
	return err
}

func runDigest(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return printJSON(cmd, a.digest.Build(cmd.Context()))
}

func runRate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	rate, err := a.rates.GoldRate(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd, rate)
}

func runMigrate(fn func(ctx context.Context, driver, dsn string) error, done string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		driver, _ := cmd.Flags().GetString("driver")
		dsn, _ := cmd.Flags().GetString("dsn")
		if driver == "" {
			driver = cfg.Storage.Driver
		}
		if dsn == "" {
			dsn = cfg.Storage.DSN
		}

		if err := fn(cmd.Context(), driver, dsn); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		if done != "" {
			log.Info().Str("driver", driver).Msg(done)
		}
		return nil
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
