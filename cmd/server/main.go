// Command server runs the notes web application.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arkadyev/zametki/internal/auth"
	"github.com/arkadyev/zametki/internal/config"
	"github.com/arkadyev/zametki/internal/db"
	"github.com/arkadyev/zametki/internal/notes"
	"github.com/arkadyev/zametki/internal/obs"
	"github.com/arkadyev/zametki/internal/ratelimit"
	"github.com/arkadyev/zametki/internal/web"
)

const sessionCleanupInterval = time.Hour

func main() {
	obs.Init()
	log := obs.Pkg("main")

	addr := config.ParseFlags()
	cfg, err := config.Load(addr)
	if err != nil {
		log.Error("config_invalid", "error", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DataDir, cfg.DatabaseKey)
	if err != nil {
		log.Error("db_open_failed", "error", err.Error())
		os.Exit(1)
	}
	defer database.Close()

	renderer, err := web.NewRenderer(cfg.TemplatesDir)
	if err != nil {
		log.Error("templates_failed", "error", err.Error())
		os.Exit(1)
	}

	users := auth.NewUserService(database)
	sessions := auth.NewSessionService(database, cfg.SessionDuration)
	noteService := notes.NewService(notes.NewStore(database))

	authLimiter := ratelimit.NewLimiter(cfg.RateLimit)
	defer authLimiter.Stop()

	mw := auth.NewMiddleware(sessions)
	handler := web.NewHandler(renderer, noteService, users, sessions)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, mw, authLimiter)

	go sessionCleanupLoop(ctx, sessions)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           obs.RequestContextMiddleware(obs.AccessLogMiddleware("web", mux)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server_starting", "addr", cfg.ListenAddr, "base_url", cfg.BaseURL)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown_signal_received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server_failed", "error", err.Error())
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown_failed", "error", err.Error())
	}
	log.Info("server_stopped")
}

// sessionCleanupLoop periodically purges expired sessions so the table
// does not grow without bound.
func sessionCleanupLoop(ctx context.Context, sessions *auth.SessionService) {
	log := obs.Pkg("main")
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sessions.Cleanup(ctx); err != nil {
				log.Error("session_cleanup_failed", "error", err.Error())
			}
		}
	}
}
