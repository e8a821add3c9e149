package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"htech-admin/internal/client"
	"htech-admin/internal/config"
	"htech-admin/internal/database/postgres"
	"htech-admin/internal/handlers"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logFile, err := setupLogging(cfg.LogDir)
			if err != nil {
				return fmt.Errorf("failed to set up logging: %w", err)
			}
			defer logFile.Close()

			a, err := newApp(ctx, cfg)
			if err != nil {
				log.Printf("startup failed: %v", err)
				return err
			}
			defer a.close()

			// The memory driver starts empty, so bootstrap it when credentials are available.
			if cfg.StorageDriver == config.StorageDriverMemory && cfg.AuthCfg.AdminPWD != "" {
				if err := a.runSeed(ctx); err != nil {
					return err
				}
			}

			gin.SetMode(gin.ReleaseMode)
			server := &http.Server{
				Addr:              fmt.Sprintf("0.0.0.0:%s", cfg.Port),
				Handler:           handlers.NewRouter(a.services, cfg.CookieCfg),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Printf("Starting server on port %s", cfg.Port)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("error starting server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Println("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 15*time.Second, "How long to wait for in-flight requests on shutdown")
	return cmd
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New()
			db, err := connectPostgres(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the admin role, console resources and admin user",
		Long:  "Idempotently installs the administration resource tree, an admin role holding every console action and the ADMIN_USERNAME user with ADMIN_PWD.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.StorageDriver == config.StorageDriverMemory {
				return errors.New("seeding the memory driver has no lasting effect, serve seeds it on start")
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.close()
			return a.runSeed(cmd.Context())
		},
	}
}

func newWhoamiCommand() *cobra.Command {
	var (
		apiBaseURL string
		username   string
	)

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Log in to a running API and print the caller's profile and grants",
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv("BACKOFFICE_PASSWORD")
			if password == "" {
				return errors.New("BACKOFFICE_PASSWORD must be set")
			}

			c, err := client.New(apiBaseURL, client.OnSessionExpired(func() {
				fmt.Fprintln(cmd.ErrOrStderr(), "session expired, log in again")
			}))
			if err != nil {
				return err
			}
			if _, err := c.Login(cmd.Context(), username, password); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			defer func() {
				if err := c.Logout(context.WithoutCancel(cmd.Context())); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "logout: %v\n", err)
				}
			}()

			me, err := c.Me(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(me)
		},
	}

	cmd.Flags().StringVar(&apiBaseURL, "api", "http://localhost:8080", "Base URL of the back-office API")
	cmd.Flags().StringVar(&username, "username", "admin", "Username to log in as")
	return cmd
}
