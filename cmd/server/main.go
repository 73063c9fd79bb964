package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sikp/kp-portal/internal/config"
	"github.com/sikp/kp-portal/internal/database"
	"github.com/sikp/kp-portal/internal/routes"
	"github.com/sikp/kp-portal/internal/services"
	"github.com/sikp/kp-portal/internal/store"
	"github.com/spf13/cobra"
)

const appName = "kp-portal"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Internship proposal portal",
		Long: `kp-portal serves the internship (kerja praktik) proposal API.

Team submissions are stored as one proposal per member; every decision,
feedback and document is propagated to all of them.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(flags)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(flags)
			},
		},
		reconcileCmd(flags),
		tokenCmd(flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s version %s\n", appName, routes.Version)
			},
		},
	)

	return cmd
}

// setup loads .env, the configuration and the default logger, then opens the database
func setup(flags *globalFlags) (*config.Config, *slog.Logger, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, nil, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	if err := database.Initialize(cfg); err != nil {
		return nil, nil, fmt.Errorf("initialize database: %w", err)
	}
	return cfg, logger, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func serve(flags *globalFlags) error {
	cfg, logger, err := setup(flags)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		logger.Warn("Failed to create upload directory", "dir", cfg.UploadDir, "error", err)
	}

	router := routes.SetupRouter(cfg, database.GetDB(), logger)
	server := &http.Server{
		Addr:              cfg.ServerHost + ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "addr", server.Addr, "sync_concurrency", cfg.SyncConcurrency)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Received shutdown signal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func reconcileCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <team-id>",
		Short: "Create the proposals missing for current team members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			teamID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid team id %q: %w", args[0], err)
			}

			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			defer database.Close()

			records := store.NewGormStore(database.GetDB())
			reconciler := services.NewReconcileService(records, services.NewMembershipService(records, logger), cfg.SyncConcurrency, logger)

			result, err := reconciler.ReconcileTeam(cmd.Context(), teamID)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%w: %d proposal(s) could not be created", services.ErrPartialFailure, len(result.Errors))
			}
			return nil
		},
	}
}

func tokenCmd(flags *globalFlags) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid user id %q: %w", userID, err)
			}

			cfg, _, err := setup(flags)
			if err != nil {
				return err
			}
			defer database.Close()

			user, err := store.NewGormStore(database.GetDB()).GetUser(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("user %s: %w", id, err)
			}

			token, err := services.NewAuthService(cfg).GenerateToken(user)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID to issue the token for")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
