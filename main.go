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

	"github.com/isdelr/mamakara/internal/api"
	"github.com/isdelr/mamakara/internal/auth"
	"github.com/isdelr/mamakara/internal/config"
	"github.com/isdelr/mamakara/internal/database"
	"github.com/isdelr/mamakara/internal/logger"
	"github.com/isdelr/mamakara/internal/services"
	"github.com/isdelr/mamakara/internal/views"
	"github.com/rs/zerolog/log"
)

const usage = `usage: mamakara [command]

commands:
  serve     run the web server (default)
  init-db   create the database schema if it does not exist
`

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, !cfg.IsProduction())

	switch cmd {
	case "serve":
		err = serve(cfg)
	case "init-db":
		err = initDB(cfg)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("Command failed")
	}
}

func initDB(cfg *config.Config) error {
	db, err := database.New(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}
	log.Info().Str("driver", cfg.DatabaseDriver).Msg("Database schema is ready")
	return nil
}

func serve(cfg *config.Config) error {
	if cfg.GeneratedSecret {
		log.Warn().Msg("SECRET_KEY is not set; using a random secret, sessions will not survive a restart")
	}

	// Set up database
	db, err := database.New(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	renderer, err := views.New()
	if err != nil {
		return err
	}

	// Set up services
	userService := services.NewUserService(db)
	postService := services.NewPostService(db)
	sessions := auth.NewSessionManager(cfg.SecretKey, cfg.SessionTTL, cfg.IsProduction())

	// Set up router
	router := api.NewRouter(userService, postService, sessions, renderer, cfg.AllowedOrigins)

	// Set up server
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server exiting")
	return nil
}
