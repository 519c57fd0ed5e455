package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lavishdadwani/Stock-Management/internal/api"
	"github.com/lavishdadwani/Stock-Management/internal/config"
	"github.com/lavishdadwani/Stock-Management/internal/db"
	"github.com/lavishdadwani/Stock-Management/internal/mail"
	"github.com/lavishdadwani/Stock-Management/internal/store"
	"github.com/lavishdadwani/Stock-Management/internal/throttle"
	"github.com/lavishdadwani/Stock-Management/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Run the API and frontend server. A missing database is created on first
start together with an owner account, whose password is printed once.`,
	RunE: runServe,
}

func init() {
	addOwnerFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	closeLog, err := setupLogger(cfg.Log.Path)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := cmd.Context()

	if _, err := os.Stat(cfg.Database.Path); errors.Is(err, os.ErrNotExist) {
		database, password, err := initDatabase(ctx, cfg.Database.Path, ownerName, ownerEmail)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		database.Close()
		printInitResult(cfg.Database.Path, ownerEmail, password)
		fmt.Println()
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	slog.Info("database ready", "path", cfg.Database.Path)

	jwtSecret := cfg.JWT.Secret
	if jwtSecret == "" {
		// Generated on first run and kept in the database.
		if jwtSecret, err = store.GetJWTSecret(ctx, database); err != nil {
			return fmt.Errorf("loading jwt secret: %w", err)
		}
	}

	rdb := throttle.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if rdb != nil {
		defer rdb.Close()
	}
	limiter := throttle.New(rdb, cfg.Throttle.MaxAttempts, cfg.ThrottleWindow())

	var origins []string
	if cfg.Server.FrontendURL != "" {
		origins = []string{cfg.Server.FrontendURL}
	}

	handler := api.NewRouter(api.Options{
		DB:             database,
		JWTSecret:      jwtSecret,
		TokenExpiry:    cfg.TokenExpiry(),
		Limiter:        limiter,
		Notifier:       mail.NewNotifier(newSender(cfg), cfg.App.Name, cfg.App.BaseURL),
		AllowedOrigins: origins,
		Web:            web.Handler(cfg.Server.StaticDir),
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Server.Addr, "throttle", limiter.Enabled())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// newSender returns an SMTP sender when a host is configured, otherwise a
// sender that only logs.
func newSender(cfg *config.Config) mail.Sender {
	if cfg.SMTP.Host == "" {
		slog.Warn("smtp host not configured, emails will only be logged")
		return mail.LogSender{}
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.App.Name,
	})
}
