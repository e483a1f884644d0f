// Command nutrilog runs the food-logging API and its maintenance jobs.
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

	"nutrilog/config"
	"nutrilog/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "nutrilog",
	Short:        "Food logging and nutrition analytics API",
	Version:      version,
	SilenceUsage: true,
}

var (
	remindEvery time.Duration
	remindOnce  bool
	tokenEmail  string
	tokenTTL    time.Duration
)

func init() {
	remindCmd.Flags().DurationVar(&remindEvery, "every", time.Hour, "interval between reminder runs")
	remindCmd.Flags().BoolVar(&remindOnce, "once", false, "run a single pass and exit")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 72*time.Hour, "token lifetime")

	rootCmd.AddCommand(serveCmd, migrateCmd, remindCmd, tokenCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create tables (postgres) or indexes (mongo)",
	RunE:  runMigrate,
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send meal reminders to users who have not logged the current meal",
	RunE:  runRemind,
}

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint a development bearer token",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

func loadConfig(validate bool) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, nil, fmt.Errorf("config validation failed: %w", err)
		}
	}
	log, err := utils.NewLogger(cfg.IsProduction())
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig(true)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTPAddr), zap.String("db", cfg.DBDriver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig(true)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signalContext()
	defer stop()

	store, err := config.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close(context.Background()) //nolint:errcheck

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("migration complete", zap.String("db", cfg.DBDriver))
	return nil
}

func runRemind(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig(true)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	if remindOnce {
		run, err := a.reminders.RunOnce(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "checked=%d sent=%d failed=%d\n", run.Checked, run.Sent, run.Failed)
		return nil
	}
	if err := a.reminders.Run(ctx, remindEvery); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	tok, err := utils.GenerateJWT(args[0], tokenEmail, cfg.JWTSecret, tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}
